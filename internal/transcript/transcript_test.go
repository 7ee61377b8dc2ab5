package transcript

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/nvoss/chatgpt-offboard/internal/api"
)

func textPart(s string) json.RawMessage {
	b, _ := json.Marshal(s)
	return b
}

func textNode(id, parent, role string, parts ...json.RawMessage) api.Node {
	return api.Node{
		ID:     id,
		Parent: parent,
		Message: &api.Message{
			Author:  api.Author{Role: role},
			Content: api.Content{ContentType: "text", Parts: parts},
		},
	}
}

func TestReconstructLinearChain(t *testing.T) {
	// A(root, no message) -> B -> C with C current
	detail := &api.ConversationDetail{
		ID: "conv",
		Mapping: map[string]api.Node{
			"A": {ID: "A", Children: []string{"B"}},
			"B": textNode("B", "A", "user", textPart("question")),
			"C": textNode("C", "B", "assistant", textPart("answer")),
		},
		CurrentNode: "C",
	}

	turns, err := Reconstruct(detail)
	if err != nil {
		t.Fatalf("Reconstruct: %v", err)
	}
	if len(turns) != 2 {
		t.Fatalf("got %d turns, want 2", len(turns))
	}
	if turns[0].Role != "user" || turns[0].Text != "question" {
		t.Errorf("turn 0 = %+v", turns[0])
	}
	if turns[1].Role != "assistant" || turns[1].Text != "answer" {
		t.Errorf("turn 1 = %+v", turns[1])
	}
}

func TestReconstructDiscardsSiblingBranch(t *testing.T) {
	// root -> B -> {C, D}, current = C: D must never appear
	detail := &api.ConversationDetail{
		ID: "conv",
		Mapping: map[string]api.Node{
			"root": {ID: "root", Children: []string{"B"}},
			"B":    textNode("B", "root", "user", textPart("prompt")),
			"C":    textNode("C", "B", "assistant", textPart("kept")),
			"D":    textNode("D", "B", "assistant", textPart("discarded")),
		},
		CurrentNode: "C",
	}

	turns, err := Reconstruct(detail)
	if err != nil {
		t.Fatalf("Reconstruct: %v", err)
	}
	if len(turns) != 2 {
		t.Fatalf("got %d turns, want 2", len(turns))
	}
	for _, turn := range turns {
		if turn.Text == "discarded" {
			t.Error("sibling branch leaked into transcript")
		}
	}
}

func TestReconstructMissingCurrentNode(t *testing.T) {
	cases := []struct {
		name   string
		detail *api.ConversationDetail
	}{
		{"empty current", &api.ConversationDetail{ID: "c", Mapping: map[string]api.Node{}}},
		{"unknown current", &api.ConversationDetail{
			ID:          "c",
			Mapping:     map[string]api.Node{"A": {ID: "A"}},
			CurrentNode: "nope",
		}},
		{"nil detail", nil},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			turns, err := Reconstruct(tc.detail)
			if err != nil {
				t.Fatalf("want empty transcript, got error %v", err)
			}
			if len(turns) != 0 {
				t.Errorf("got %d turns, want 0", len(turns))
			}
		})
	}
}

func TestReconstructCycleFails(t *testing.T) {
	detail := &api.ConversationDetail{
		ID: "cyclic",
		Mapping: map[string]api.Node{
			"A": textNode("A", "B", "user", textPart("x")),
			"B": textNode("B", "A", "assistant", textPart("y")),
		},
		CurrentNode: "A",
	}

	_, err := Reconstruct(detail)
	if !errors.Is(err, ErrMalformedGraph) {
		t.Fatalf("err = %v, want ErrMalformedGraph", err)
	}
}

func TestReconstructSkipsHiddenNodes(t *testing.T) {
	detail := &api.ConversationDetail{
		ID: "conv",
		Mapping: map[string]api.Node{
			"root": {ID: "root"},
			"sys":  textNode("sys", "root", "system", textPart("system prompt")),
			"tool": textNode("tool", "sys", "tool", textPart("tool output")),
			"empty": {
				ID:     "empty",
				Parent: "tool",
				Message: &api.Message{
					Author:  api.Author{Role: "assistant"},
					Content: api.Content{ContentType: "text", Parts: []json.RawMessage{textPart("  ")}},
				},
			},
			"real": textNode("real", "empty", "assistant", textPart("visible")),
		},
		CurrentNode: "real",
	}

	turns, err := Reconstruct(detail)
	if err != nil {
		t.Fatalf("Reconstruct: %v", err)
	}
	if len(turns) != 1 || turns[0].Text != "visible" {
		t.Fatalf("turns = %+v", turns)
	}
}

func TestReconstructJoinsParts(t *testing.T) {
	detail := &api.ConversationDetail{
		ID: "conv",
		Mapping: map[string]api.Node{
			"root": {ID: "root"},
			"n": textNode("n", "root", "assistant",
				textPart("look at this"),
				json.RawMessage(`{"content_type":"image_asset_pointer","asset_pointer":"file-123"}`),
				json.RawMessage(`{"content_type":"tether_quote","title":"Some Doc","url":"https://example.com"}`),
			),
		},
		CurrentNode: "n",
	}

	turns, err := Reconstruct(detail)
	if err != nil {
		t.Fatalf("Reconstruct: %v", err)
	}
	want := "look at this\n\n*[image]*\n\n*[source: [Some Doc](https://example.com)]*"
	if turns[0].Text != want {
		t.Errorf("text = %q, want %q", turns[0].Text, want)
	}
}

func TestReconstructCodeContent(t *testing.T) {
	detail := &api.ConversationDetail{
		ID: "conv",
		Mapping: map[string]api.Node{
			"root": {ID: "root"},
			"n": {
				ID:     "n",
				Parent: "root",
				Message: &api.Message{
					Author:  api.Author{Role: "assistant"},
					Content: api.Content{ContentType: "code", Text: "print('hi')\n"},
				},
			},
		},
		CurrentNode: "n",
	}

	turns, err := Reconstruct(detail)
	if err != nil {
		t.Fatalf("Reconstruct: %v", err)
	}
	want := "```\nprint('hi')\n```"
	if turns[0].Text != want {
		t.Errorf("text = %q, want %q", turns[0].Text, want)
	}
}

func TestReconstructUnknownObjectPartIgnored(t *testing.T) {
	detail := &api.ConversationDetail{
		ID: "conv",
		Mapping: map[string]api.Node{
			"root": {ID: "root"},
			"n": textNode("n", "root", "assistant",
				json.RawMessage(`{"content_type":"model_editable_context","data":"x"}`),
				textPart("kept"),
			),
		},
		CurrentNode: "n",
	}

	turns, err := Reconstruct(detail)
	if err != nil {
		t.Fatalf("Reconstruct: %v", err)
	}
	if len(turns) != 1 || turns[0].Text != "kept" {
		t.Fatalf("turns = %+v", turns)
	}
}
