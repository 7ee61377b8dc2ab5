package export

import (
	"fmt"
	"path/filepath"

	"github.com/nvoss/chatgpt-offboard/internal/api"
)

// Target is a resolved on-disk destination, relative to the export root.
type Target struct {
	Dir      string // "", "gpts/<name>" or "projects/<name>"
	Base     string // "<YYYY-MM-DD>_<slug>" plus any collision counter
	Archived bool
}

// Filename is the final name, with the archived suffix applied.
func (t Target) Filename() string {
	if t.Archived {
		return t.Base + "_archived.md"
	}
	return t.Base + ".md"
}

// SiblingFilename is the name the same conversation carries under the
// opposite archived state. The controller uses it to detect archive flag
// flips between runs.
func (t Target) SiblingFilename() string {
	if t.Archived {
		return t.Base + ".md"
	}
	return t.Base + "_archived.md"
}

// Rel is the target path relative to the export root.
func (t Target) Rel() string {
	return filepath.Join(t.Dir, t.Filename())
}

// Resolver maps conversation metadata to targets. It carries the collision
// state for one run: two conversations resolving to the same directory and
// base name get deterministic _2, _3 counters, so callers must feed it
// conversations in a stable order (the controller sorts by creation time).
type Resolver struct {
	used map[string]int
}

func NewResolver() *Resolver {
	return &Resolver{used: make(map[string]int)}
}

func (r *Resolver) Resolve(c api.ConversationSummary) Target {
	var dir string
	switch {
	case c.ProjectID != "":
		name := c.ProjectName
		if name == "" {
			name = c.ProjectID
		}
		dir = filepath.Join("projects", Sanitize(name))
	case c.GizmoID != "":
		name := c.GizmoName
		if name == "" {
			name = c.GizmoID
		}
		dir = filepath.Join("gpts", Sanitize(name))
	}

	// an unparseable create_time decodes to the zero time; fall back to
	// update_time so schema drift doesn't flood the tree with 0001-01-01
	// prefixes
	created := c.CreateTime.Time
	if created.IsZero() {
		created = c.UpdateTime.Time
	}
	base := created.UTC().Format("2006-01-02") + "_" + Sanitize(c.Title)

	key := filepath.Join(dir, base)
	r.used[key]++
	if n := r.used[key]; n > 1 {
		base = fmt.Sprintf("%s_%d", base, n)
	}

	return Target{Dir: dir, Base: base, Archived: c.IsArchived}
}
