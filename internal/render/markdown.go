// Package render turns a reconstructed transcript into the exported
// Markdown document. Rendering is pure: identical inputs produce
// byte-identical output, which is what lets the sync controller treat an
// existing file as "already exported".
package render

import (
	"fmt"
	"strings"

	"github.com/nvoss/chatgpt-offboard/internal/api"
	"github.com/nvoss/chatgpt-offboard/internal/transcript"
)

const turnSeparator = "---"

// Markdown renders the document: a header block (title, creation date,
// archived marker), then one labeled section per turn. An empty transcript
// still yields a valid header-only document.
func Markdown(summary api.ConversationSummary, turns transcript.Transcript) string {
	var b strings.Builder

	title := summary.Title
	if title == "" {
		title = "Untitled"
	}

	b.WriteString("# " + title + "\n")
	dateLine := "*" + summary.CreateTime.UTC().Format("2006-01-02 15:04") + "*"
	if summary.IsArchived {
		dateLine += " | archived"
	}
	b.WriteString(dateLine + "\n\n")

	for _, turn := range turns {
		b.WriteString(roleLabel(turn.Role))
		if !turn.Timestamp.IsZero() {
			b.WriteString(" *" + turn.Timestamp.UTC().Format("2006-01-02 15:04") + "*")
		}
		b.WriteString("\n\n")
		b.WriteString(turn.Text)
		b.WriteString("\n\n" + turnSeparator + "\n\n")
	}

	return b.String()
}

func roleLabel(role string) string {
	switch role {
	case "user":
		return "**You:**"
	case "assistant":
		return "**ChatGPT:**"
	case "":
		return "**Unknown:**"
	default:
		runes := []rune(role)
		return fmt.Sprintf("**%s%s:**", strings.ToUpper(string(runes[0])), string(runes[1:]))
	}
}
