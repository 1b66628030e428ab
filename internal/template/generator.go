// Package template is the deterministic generation path: it fills shipped
// Ansible playbook templates with extracted parameters. Output is valid by
// construction, which is why the decision layer prefers it over the LLM.
package template

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/opsmaestro/maestro/internal/intent"
)

// DefaultDir is the template directory used when templates.dir is not
// configured.
const DefaultDir = "templates"

// Generator fills per-intent playbook templates.
type Generator struct {
	dir string
}

// NewGenerator builds a generator reading from dir.
func NewGenerator(dir string) *Generator {
	if dir == "" {
		dir = DefaultDir
	}
	return &Generator{dir: dir}
}

// Has reports whether a template exists for the intent.
func (g *Generator) Has(intentName string) bool {
	_, err := os.Stat(filepath.Join(g.dir, intentName+".yml"))
	return err == nil
}

// Generate loads <intent>.yml and substitutes {{name}} placeholders with
// the given parameters plus the os_type/target_hosts meta values. An empty
// hosts argument targets the built-in "all" group. Only space-free
// placeholders are substituted; Jinja expressions like
// "{{ ansible_distribution }}" are written with inner spaces and pass
// through untouched for Ansible itself to resolve.
func (g *Generator) Generate(intentName string, params map[string]string, osTarget intent.OSTarget, hosts string) (string, error) {
	path := filepath.Join(g.dir, intentName+".yml")
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read template %s: %w", path, err)
	}

	if hosts == "" {
		hosts = "all"
	}

	result := string(data)
	for key, value := range params {
		result = strings.ReplaceAll(result, "{{"+key+"}}", value)
	}
	result = strings.ReplaceAll(result, "{{os_type}}", osTypeValue(osTarget))
	result = strings.ReplaceAll(result, "{{target_hosts}}", hosts)

	return result, nil
}

// osTypeValue renders the OS target for template substitution. Unspecified
// collapses to "all" at generation time: by then interactive collection has
// had its chance and a multi-OS playbook is the safe default.
func osTypeValue(osTarget intent.OSTarget) string {
	switch osTarget {
	case "", intent.OSUnspecified, intent.OSAll:
		return "all"
	default:
		return string(osTarget)
	}
}
