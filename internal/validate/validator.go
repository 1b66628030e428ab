// Package validate checks generated playbooks before they are stored or
// committed. When ansible-playbook is installed the real syntax checker is
// authoritative; otherwise a structural YAML check catches the common
// failure modes of generated output.
package validate

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Result reports how a playbook was validated and what was found.
type Result struct {
	Valid   bool
	Checker string // "ansible-playbook" or "yaml"
	Output  string
}

// Validator checks playbook content.
type Validator struct {
	ansibleBin string
}

// NewValidator locates ansible-playbook on PATH. A missing binary is not an
// error; validation degrades to the structural check.
func NewValidator() *Validator {
	bin, err := exec.LookPath("ansible-playbook")
	if err != nil {
		bin = ""
	}
	return &Validator{ansibleBin: bin}
}

// HasAnsible reports whether the real syntax checker is available.
func (v *Validator) HasAnsible() bool {
	return v.ansibleBin != ""
}

// Check validates playbook content. The content is written to a temp file
// because ansible-playbook only reads from disk.
func (v *Validator) Check(ctx context.Context, content string) (Result, error) {
	if v.ansibleBin == "" {
		return v.checkStructure(content)
	}

	tmp, err := os.CreateTemp("", "maestro-syntax-*.yml")
	if err != nil {
		return Result{}, fmt.Errorf("failed to create temp playbook: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close()
		return Result{}, fmt.Errorf("failed to write temp playbook: %w", err)
	}
	tmp.Close()

	return v.CheckFile(ctx, tmpPath)
}

// CheckFile validates a playbook already on disk.
func (v *Validator) CheckFile(ctx context.Context, path string) (Result, error) {
	if v.ansibleBin == "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Result{}, fmt.Errorf("failed to read playbook %s: %w", path, err)
		}
		return v.checkStructure(string(data))
	}

	cmd := exec.CommandContext(ctx, v.ansibleBin, "--syntax-check", filepath.Clean(path))
	output, err := cmd.CombinedOutput()
	result := Result{
		Valid:   err == nil,
		Checker: "ansible-playbook",
		Output:  strings.TrimSpace(string(output)),
	}
	if err != nil {
		var exitErr *exec.ExitError
		// A non-zero exit is a verdict, not an infrastructure failure.
		if errors.As(err, &exitErr) {
			return result, nil
		}
		return result, fmt.Errorf("ansible-playbook failed to run: %w", err)
	}
	return result, nil
}

// checkStructure verifies the content parses as YAML and has the shape of a
// playbook: a non-empty list of plays, each a mapping with a hosts key.
func (v *Validator) checkStructure(content string) (Result, error) {
	result := Result{Checker: "yaml"}

	var plays []map[string]any
	if err := yaml.Unmarshal([]byte(content), &plays); err != nil {
		result.Output = fmt.Sprintf("not valid YAML: %v", err)
		return result, nil
	}
	if len(plays) == 0 {
		result.Output = "playbook has no plays"
		return result, nil
	}
	for i, play := range plays {
		if _, ok := play["hosts"]; !ok {
			result.Output = fmt.Sprintf("play %d has no hosts", i+1)
			return result, nil
		}
	}

	result.Valid = true
	result.Output = fmt.Sprintf("%d play(s), structure ok", len(plays))
	return result, nil
}
