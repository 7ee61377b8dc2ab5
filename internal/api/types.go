package api

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// Timestamp decodes the backend's two timestamp encodings: epoch seconds as a
// JSON number (possibly fractional) and RFC3339-ish strings.
type Timestamp struct {
	time.Time
}

func (t *Timestamp) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" || s == `""` {
		t.Time = time.Time{}
		return nil
	}

	if s[0] == '"' {
		var raw string
		if err := json.Unmarshal(b, &raw); err != nil {
			return err
		}
		raw = strings.Replace(raw, "Z", "+00:00", 1)
		for _, layout := range []string{
			"2006-01-02T15:04:05.999999-07:00",
			"2006-01-02T15:04:05-07:00",
			"2006-01-02T15:04:05",
		} {
			if parsed, err := time.Parse(layout, raw); err == nil {
				t.Time = parsed.UTC()
				return nil
			}
		}
		t.Time = time.Time{}
		return nil
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}
	sec := int64(f)
	nsec := int64((f - float64(sec)) * 1e9)
	t.Time = time.Unix(sec, nsec).UTC()
	return nil
}

// ConversationSummary is one row of a conversation listing. It is a snapshot
// taken at enumeration time; nothing mutates it afterwards.
type ConversationSummary struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	CreateTime Timestamp `json:"create_time"`
	UpdateTime Timestamp `json:"update_time"`
	IsArchived bool      `json:"is_archived"`
	GizmoID    string    `json:"gizmo_id"`

	// Filled in by the enumerator, not present on the wire.
	GizmoName   string `json:"-"`
	ProjectID   string `json:"-"`
	ProjectName string `json:"-"`
}

// Project gizmo ids carry a "g-p-" prefix; plain custom GPTs are "g-".
const projectGizmoPrefix = "g-p-"

// IsProject reports whether the raw gizmo id names a project folder.
func IsProject(gizmoID string) bool {
	return strings.HasPrefix(gizmoID, projectGizmoPrefix)
}

type conversationPage struct {
	Items []ConversationSummary `json:"items"`
	Total int                   `json:"total"`
}

type gizmoEnvelope struct {
	Gizmo struct {
		Display struct {
			Name string `json:"name"`
		} `json:"display"`
	} `json:"gizmo"`
}

// ConversationDetail is the full message graph of one conversation: an arena
// of nodes indexed by id with explicit parent/child links.
type ConversationDetail struct {
	ID          string          `json:"conversation_id"`
	Title       string          `json:"title"`
	Mapping     map[string]Node `json:"mapping"`
	CurrentNode string          `json:"current_node"`
}

type Node struct {
	ID       string   `json:"id"`
	Parent   string   `json:"parent"`
	Children []string `json:"children"`
	Message  *Message `json:"message"`
}

type Message struct {
	ID         string    `json:"id"`
	Author     Author    `json:"author"`
	CreateTime Timestamp `json:"create_time"`
	Content    Content   `json:"content"`
}

type Author struct {
	Role string `json:"role"`
}

// Content holds the message payload. Parts is heterogeneous on the wire:
// plain strings for text, objects for images, quotes and tool output.
type Content struct {
	ContentType string            `json:"content_type"`
	Parts       []json.RawMessage `json:"parts"`
	Text        string            `json:"text"` // content_type "code" and friends
}
