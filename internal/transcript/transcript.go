package transcript

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nvoss/chatgpt-offboard/internal/api"
)

// ErrMalformedGraph means the parent walk never reached a root. The mapping
// is supposed to be a tree; a cycle here is server-side corruption.
var ErrMalformedGraph = errors.New("malformed conversation graph")

// Turn is one rendered message on the active branch.
type Turn struct {
	Role      string
	Timestamp time.Time
	Text      string
}

type Transcript []Turn

// Reconstruct flattens the conversation graph to the single active branch:
// walk current_node up to the root via parent links, then reverse. Nodes
// without a message, with hidden roles, or with nothing renderable contribute
// no turn but do not break the walk. A missing or unknown current_node yields
// an empty transcript, not an error, so the conversation still exports as a
// header-only document.
func Reconstruct(detail *api.ConversationDetail) (Transcript, error) {
	if detail == nil || detail.CurrentNode == "" {
		return nil, nil
	}
	if _, ok := detail.Mapping[detail.CurrentNode]; !ok {
		return nil, nil
	}

	maxHops := len(detail.Mapping) + 1
	var turns Transcript

	nodeID := detail.CurrentNode
	for hops := 0; nodeID != ""; hops++ {
		if hops >= maxHops {
			return nil, fmt.Errorf("%w: %s", ErrMalformedGraph, detail.ID)
		}
		node, ok := detail.Mapping[nodeID]
		if !ok {
			break
		}
		if turn, ok := renderNode(node); ok {
			turns = append(turns, turn)
		}
		nodeID = node.Parent
	}

	// collected tip-to-root; flip to reading order
	for i, j := 0, len(turns)-1; i < j; i, j = i+1, j-1 {
		turns[i], turns[j] = turns[j], turns[i]
	}
	return turns, nil
}

func renderNode(node api.Node) (Turn, bool) {
	msg := node.Message
	if msg == nil {
		return Turn{}, false
	}
	role := msg.Author.Role
	if role == "system" || role == "tool" {
		return Turn{}, false
	}

	text := renderContent(msg.Content)
	if text == "" {
		return Turn{}, false
	}

	return Turn{
		Role:      role,
		Timestamp: msg.CreateTime.Time,
		Text:      text,
	}, true
}

// renderContent joins a message's parts in order, separated by blank lines.
// Non-text kinds get a visible marker so the document stays readable without
// the binary payloads (attachment download is out of scope).
func renderContent(content api.Content) string {
	if content.ContentType == "code" {
		return fenced(content.Text)
	}

	var parts []string
	for _, raw := range content.Parts {
		if p := renderPart(raw); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, "\n\n")
}

type objectPart struct {
	ContentType string `json:"content_type"`
	Title       string `json:"title"`
	URL         string `json:"url"`
	Text        string `json:"text"`
}

func renderPart(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}

	var obj objectPart
	if err := json.Unmarshal(raw, &obj); err != nil {
		return ""
	}
	switch obj.ContentType {
	case "image_asset_pointer":
		return "*[image]*"
	case "audio_asset_pointer":
		return "*[audio]*"
	case "tether_quote":
		return fmt.Sprintf("*[source: [%s](%s)]*", obj.Title, obj.URL)
	case "code":
		return fenced(obj.Text)
	default:
		return ""
	}
}

// fenced wraps code verbatim; no reformatting.
func fenced(code string) string {
	code = strings.TrimRight(code, "\n")
	if code == "" {
		return ""
	}
	return "```\n" + code + "\n```"
}
