package artifact

import (
	"time"

	"github.com/opsmaestro/maestro/internal/intent"
)

// Record describes one previously generated playbook. Records are snapshots:
// the store reads them back exactly as they were written and nothing in the
// matching pipeline mutates them.
type Record struct {
	ID        string            `json:"id"`
	Intent    string            `json:"intent"`
	Params    map[string]string `json:"params"`
	OSTarget  intent.OSTarget   `json:"os"`
	Source    string            `json:"source"`
	CreatedAt time.Time         `json:"created"`
	Path      string            `json:"-"`
}

// Generation sources recorded per playbook.
const (
	SourceTemplate = "template"
	SourceLLM      = "llm"
)
