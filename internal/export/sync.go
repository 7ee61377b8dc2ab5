// Package export owns everything between a conversation listing and the
// files on disk: name sanitization, destination resolution, atomic writes
// and the incremental sync controller. The on-disk file set is the only sync
// state there is; no manifest or database sits beside it, so a file that
// exists at its resolved name is, by definition, already exported.
package export

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/rs/zerolog"

	"github.com/nvoss/chatgpt-offboard/internal/api"
	"github.com/nvoss/chatgpt-offboard/internal/render"
	"github.com/nvoss/chatgpt-offboard/internal/transcript"
)

// DetailFetcher is the one capability the controller needs from the API
// layer. *api.Client satisfies it; tests hand in fakes.
type DetailFetcher interface {
	FetchConversation(ctx context.Context, id string) (*api.ConversationDetail, error)
}

// Failure records one conversation that could not be exported.
type Failure struct {
	ID     string
	Title  string
	Reason string
}

// Report accumulates per-run accounting. Per-item failures land here instead
// of aborting the run.
type Report struct {
	Written  int
	Renamed  int
	Skipped  int
	Failed   int
	Failures []Failure
}

func (r *Report) String() string {
	return fmt.Sprintf("written=%d renamed=%d skipped=%d failed=%d",
		r.Written, r.Renamed, r.Skipped, r.Failed)
}

func (r *Report) fail(c api.ConversationSummary, reason string) {
	r.Failed++
	r.Failures = append(r.Failures, Failure{ID: c.ID, Title: c.Title, Reason: reason})
}

type Options struct {
	DryRun bool
	Logger zerolog.Logger
}

// Controller drives the per-conversation state machine: resolve the target,
// skip what already exists, rename on archive state changes, otherwise
// fetch, reconstruct, render and write.
type Controller struct {
	root    string
	fetcher DetailFetcher
	dryRun  bool
	log     zerolog.Logger
}

func NewController(root string, fetcher DetailFetcher, opts Options) *Controller {
	return &Controller{
		root:    root,
		fetcher: fetcher,
		dryRun:  opts.DryRun,
		log:     opts.Logger,
	}
}

// Sync exports every conversation in convs exactly once. Conversations are
// processed in creation-time order so collision counters come out identical
// across runs, which keeps the filename-based skip check stable. The
// existing-file set is captured once up front; a second run against
// unchanged server state performs zero writes.
//
// Auth failures and filesystem write failures abort with the partial report;
// everything else degrades to a recorded per-item failure.
func (c *Controller) Sync(ctx context.Context, convs []api.ConversationSummary) (*Report, error) {
	report := &Report{}

	if err := os.MkdirAll(c.root, 0o755); err != nil {
		return report, fmt.Errorf("create export dir %s: %w", c.root, err)
	}

	existing, err := snapshotFiles(c.root)
	if err != nil {
		return report, fmt.Errorf("scan export dir %s: %w", c.root, err)
	}

	ordered := make([]api.ConversationSummary, len(convs))
	copy(ordered, convs)
	sort.SliceStable(ordered, func(i, j int) bool {
		ti, tj := ordered[i].CreateTime.Time, ordered[j].CreateTime.Time
		if ti.Equal(tj) {
			return ordered[i].ID < ordered[j].ID
		}
		return ti.Before(tj)
	})

	resolver := NewResolver()

	for _, conv := range ordered {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		target := resolver.Resolve(conv)
		rel := target.Rel()

		if _, ok := existing[rel]; ok {
			report.Skipped++
			continue
		}

		// archive flag flipped since the last run: the file exists under
		// the opposite suffix. Rename rather than re-fetch, so exactly one
		// file per conversation survives in either direction.
		oldRel := filepath.Join(target.Dir, target.SiblingFilename())
		if _, ok := existing[oldRel]; ok {
			if !c.dryRun {
				if err := os.Rename(filepath.Join(c.root, oldRel), filepath.Join(c.root, rel)); err != nil {
					report.fail(conv, fmt.Sprintf("rename: %v", err))
					return report, fmt.Errorf("archive rename %s: %w", rel, err)
				}
			}
			delete(existing, oldRel)
			existing[rel] = struct{}{}
			report.Renamed++
			c.log.Info().Str("file", rel).Msg("renamed for archive state change")
			continue
		}

		c.log.Info().Str("title", displayTitle(conv.Title)).Str("file", rel).Msg("exporting")

		if c.dryRun {
			report.Written++
			continue
		}

		detail, err := c.fetcher.FetchConversation(ctx, conv.ID)
		if err != nil {
			if errors.Is(err, api.ErrAuth) {
				return report, err
			}
			if ctx.Err() != nil {
				return report, ctx.Err()
			}
			report.fail(conv, fmt.Sprintf("fetch: %v", err))
			c.log.Warn().Str("id", conv.ID).Err(err).Msg("detail fetch failed")
			continue
		}

		turns, err := transcript.Reconstruct(detail)
		if err != nil {
			report.fail(conv, fmt.Sprintf("reconstruct: %v", err))
			c.log.Warn().Str("id", conv.ID).Err(err).Msg("graph reconstruction failed")
			continue
		}

		doc := render.Markdown(conv, turns)
		if err := writeFileAtomic(filepath.Join(c.root, rel), []byte(doc)); err != nil {
			// disk trouble after the root proved writable; stop before a
			// half-exported tree starts looking complete
			report.fail(conv, fmt.Sprintf("write: %v", err))
			return report, fmt.Errorf("write %s: %w", rel, err)
		}

		existing[rel] = struct{}{}
		report.Written++
	}

	return report, nil
}

// snapshotFiles collects the relative paths of all exported documents under
// root. Read once per run; nothing else mutates the tree while we hold it.
func snapshotFiles(root string) (map[string]struct{}, error) {
	files := make(map[string]struct{})
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // unreadable subtree, treat as absent
		}
		if d.IsDir() {
			return nil
		}
		if filepath.Ext(path) != ".md" {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		files[rel] = struct{}{}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

const titleDisplayWidth = 65

func displayTitle(title string) string {
	title = strings.ReplaceAll(title, "\n", " ")
	return runewidth.Truncate(title, titleDisplayWidth, "...")
}
