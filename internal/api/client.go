package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// ErrAuth marks authentication/permission failures. They are never retried:
// once the session is dead no further progress is possible.
var ErrAuth = errors.New("authentication failed")

// FetchError wraps a request that exhausted its retries. The sync run records
// it per item and keeps going.
type FetchError struct {
	Path string
	Err  error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.Path, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// StatusError is a non-2xx response from the backend.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.Code, e.Body)
}

func (e *StatusError) retryable() bool {
	return e.Code == http.StatusTooManyRequests || e.Code >= 500
}

// Fetcher is the capability handed in by whatever owns the authenticated
// session. The sync core never touches cookies, tokens or TLS itself; it only
// asks for JSON by path.
type Fetcher interface {
	FetchJSON(ctx context.Context, path string) ([]byte, error)
}

// HTTPFetcher issues direct bearer-token requests. It is the production
// Fetcher when a token is supplied out of band (config or OFFBOARD_TOKEN).
type HTTPFetcher struct {
	BaseURL string
	Token   string
	Client  *http.Client
}

const maxResponseSize = 10 * 1024 * 1024

func (f *HTTPFetcher) FetchJSON(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.BaseURL+path, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+f.Token)
	req.Header.Set("Accept", "application/json")

	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet := string(body)
		if len(snippet) > 200 {
			snippet = snippet[:200]
		}
		return nil, &StatusError{Code: resp.StatusCode, Body: snippet}
	}
	return body, nil
}

const (
	retryBaseDelay = 500 * time.Millisecond
	retryMaxDelay  = 10 * time.Second
)

// Client wraps a Fetcher with pacing, bounded retry and JSON decoding. All
// listing and detail calls go through getJSON.
type Client struct {
	fetcher     Fetcher
	limiter     *rate.Limiter
	maxRetries  int
	workspaceID string
	pageLimit   int
	log         zerolog.Logger

	gizmoNames map[string]string
}

type ClientOptions struct {
	WorkspaceID       string
	PageLimit         int
	RequestsPerSecond float64
	MaxRetries        int
	Logger            zerolog.Logger
}

func NewClient(f Fetcher, opts ClientOptions) *Client {
	if opts.PageLimit <= 0 {
		opts.PageLimit = 100
	}
	if opts.RequestsPerSecond <= 0 {
		opts.RequestsPerSecond = 5
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = 5
	}
	return &Client{
		fetcher:     f,
		limiter:     rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1),
		maxRetries:  opts.MaxRetries,
		workspaceID: opts.WorkspaceID,
		pageLimit:   opts.PageLimit,
		log:         opts.Logger,
		gizmoNames:  make(map[string]string),
	}
}

// getJSON fetches path and decodes into v, retrying transient failures with
// exponential backoff (500ms, 1s, 2s, ...). Auth failures and other 4xx come
// back immediately; exhausted retries come back as *FetchError.
func (c *Client) getJSON(ctx context.Context, path string, v any) error {
	var lastErr error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if attempt > 0 {
			delay := retryBaseDelay << (attempt - 1)
			if delay > retryMaxDelay {
				delay = retryMaxDelay
			}
			c.log.Warn().Str("path", path).Int("attempt", attempt).
				Dur("backoff", delay).Err(lastErr).Msg("retrying fetch")
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}

		body, err := c.fetcher.FetchJSON(ctx, path)
		if err == nil {
			if err := json.Unmarshal(body, v); err != nil {
				return fmt.Errorf("decode %s: %w", path, err)
			}
			return nil
		}

		var se *StatusError
		if errors.As(err, &se) {
			if se.Code == http.StatusUnauthorized || se.Code == http.StatusForbidden {
				return fmt.Errorf("%w: %v", ErrAuth, err)
			}
			if !se.retryable() {
				return err
			}
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		lastErr = err
	}
	return &FetchError{Path: path, Err: lastErr}
}

// FetchConversation returns the full message graph for one conversation.
func (c *Client) FetchConversation(ctx context.Context, id string) (*ConversationDetail, error) {
	var detail ConversationDetail
	if err := c.getJSON(ctx, "/backend-api/conversation/"+id, &detail); err != nil {
		return nil, err
	}
	if detail.ID == "" {
		detail.ID = id
	}
	return &detail, nil
}

// GizmoName resolves the display name of a custom GPT or project gizmo,
// falling back to the raw id when the lookup fails. Results are cached for
// the lifetime of the client.
func (c *Client) GizmoName(ctx context.Context, id string) string {
	if name, ok := c.gizmoNames[id]; ok {
		return name
	}
	var env gizmoEnvelope
	name := id
	if err := c.getJSON(ctx, "/backend-api/gizmos/"+id, &env); err != nil {
		c.log.Debug().Str("gizmo", id).Err(err).Msg("gizmo name lookup failed")
	} else if env.Gizmo.Display.Name != "" {
		name = env.Gizmo.Display.Name
	}
	c.gizmoNames[id] = name
	return name
}
