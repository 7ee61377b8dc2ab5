package export

import (
	"testing"
	"time"

	"github.com/nvoss/chatgpt-offboard/internal/api"
)

func summaryAt(id, title string, created time.Time) api.ConversationSummary {
	return api.ConversationSummary{
		ID:         id,
		Title:      title,
		CreateTime: api.Timestamp{Time: created},
	}
}

var june1 = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func TestResolveRootConversation(t *testing.T) {
	r := NewResolver()
	got := r.Resolve(summaryAt("c1", "Trip: Japan?! 2024", june1))

	if got.Dir != "" {
		t.Errorf("Dir = %q, want root", got.Dir)
	}
	if got.Filename() != "2024-06-01_Trip_Japan_2024.md" {
		t.Errorf("Filename = %q", got.Filename())
	}
}

func TestResolveGPTConversation(t *testing.T) {
	r := NewResolver()
	s := summaryAt("c1", "Chat", june1)
	s.GizmoID = "g-abc"
	s.GizmoName = "Data Helper"

	got := r.Resolve(s)
	if got.Dir != "gpts/Data_Helper" {
		t.Errorf("Dir = %q", got.Dir)
	}
}

func TestResolveGPTFallsBackToID(t *testing.T) {
	r := NewResolver()
	s := summaryAt("c1", "Chat", june1)
	s.GizmoID = "g-abc"

	got := r.Resolve(s)
	if got.Dir != "gpts/g-abc" {
		t.Errorf("Dir = %q", got.Dir)
	}
}

func TestResolveProjectWinsOverGizmo(t *testing.T) {
	r := NewResolver()
	s := summaryAt("c1", "Chat", june1)
	s.ProjectID = "g-p-123"
	s.ProjectName = "Side Quest"
	s.GizmoID = "g-abc"

	got := r.Resolve(s)
	if got.Dir != "projects/Side_Quest" {
		t.Errorf("Dir = %q", got.Dir)
	}
}

func TestResolveArchivedSuffix(t *testing.T) {
	r := NewResolver()
	s := summaryAt("c1", "Foo", time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC))
	s.IsArchived = true

	got := r.Resolve(s)
	if got.Filename() != "2024-03-15_Foo_archived.md" {
		t.Errorf("Filename = %q", got.Filename())
	}
	if got.SiblingFilename() != "2024-03-15_Foo.md" {
		t.Errorf("SiblingFilename = %q", got.SiblingFilename())
	}

	s.IsArchived = false
	plain := NewResolver().Resolve(s)
	if plain.SiblingFilename() != "2024-03-15_Foo_archived.md" {
		t.Errorf("SiblingFilename = %q", plain.SiblingFilename())
	}
}

func TestResolveZeroCreateTimeFallsBackToUpdateTime(t *testing.T) {
	r := NewResolver()
	s := summaryAt("c1", "Drifted", time.Time{})
	s.UpdateTime.Time = time.Date(2024, 7, 4, 9, 0, 0, 0, time.UTC)

	got := r.Resolve(s)
	if got.Filename() != "2024-07-04_Drifted.md" {
		t.Errorf("Filename = %q", got.Filename())
	}
}

func TestResolveEmptyTitle(t *testing.T) {
	r := NewResolver()
	got := r.Resolve(summaryAt("c1", "", june1))
	if got.Filename() != "2024-06-01_Untitled.md" {
		t.Errorf("Filename = %q", got.Filename())
	}
}

func TestResolveCollisions(t *testing.T) {
	r := NewResolver()
	a := r.Resolve(summaryAt("c1", "Same", june1))
	b := r.Resolve(summaryAt("c2", "Same", june1))
	c := r.Resolve(summaryAt("c3", "Same", june1))

	if a.Filename() != "2024-06-01_Same.md" {
		t.Errorf("first = %q", a.Filename())
	}
	if b.Filename() != "2024-06-01_Same_2.md" {
		t.Errorf("second = %q", b.Filename())
	}
	if c.Filename() != "2024-06-01_Same_3.md" {
		t.Errorf("third = %q", c.Filename())
	}
}

func TestResolveCollisionScopedToDirectory(t *testing.T) {
	r := NewResolver()
	a := summaryAt("c1", "Same", june1)
	b := summaryAt("c2", "Same", june1)
	b.GizmoID = "g-abc"
	b.GizmoName = "Helper"

	first := r.Resolve(a)
	second := r.Resolve(b)
	if first.Filename() != second.Filename() {
		t.Errorf("different dirs should not disambiguate: %q vs %q",
			first.Filename(), second.Filename())
	}
}
