package validate

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// structuralValidator skips the ansible-playbook binary even when the test
// host has it installed, so the fallback path is what gets exercised.
func structuralValidator() *Validator {
	return &Validator{ansibleBin: ""}
}

func TestCheckStructureValidPlaybook(t *testing.T) {
	v := structuralValidator()
	result, err := v.Check(context.Background(), `---
- name: Install nginx
  hosts: all
  become: true
  tasks:
    - name: Install package
      ansible.builtin.package:
        name: nginx
`)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if !result.Valid {
		t.Errorf("valid playbook rejected: %s", result.Output)
	}
	if result.Checker != "yaml" {
		t.Errorf("Checker = %q, want yaml", result.Checker)
	}
}

func TestCheckStructureRejects(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantMsg string
	}{
		{
			name:    "broken yaml",
			content: "---\n- name: x\n  hosts: [unclosed\n",
			wantMsg: "not valid YAML",
		},
		{
			name:    "empty document",
			content: "---\n",
			wantMsg: "no plays",
		},
		{
			name:    "play without hosts",
			content: "---\n- name: Orphan play\n  tasks: []\n",
			wantMsg: "no hosts",
		},
	}

	v := structuralValidator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := v.Check(context.Background(), tt.content)
			if err != nil {
				t.Fatalf("Check: %v", err)
			}
			if result.Valid {
				t.Fatal("invalid playbook accepted")
			}
			if !strings.Contains(result.Output, tt.wantMsg) {
				t.Errorf("Output = %q, want substring %q", result.Output, tt.wantMsg)
			}
		})
	}
}

func TestCheckFileStructuralFallback(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "site.yml")
	if err := os.WriteFile(path, []byte("---\n- hosts: web_servers\n  tasks: []\n"), 0o644); err != nil {
		t.Fatalf("write playbook: %v", err)
	}

	v := structuralValidator()
	result, err := v.CheckFile(context.Background(), path)
	if err != nil {
		t.Fatalf("CheckFile: %v", err)
	}
	if !result.Valid {
		t.Errorf("valid playbook file rejected: %s", result.Output)
	}
}

func TestCheckFileMissing(t *testing.T) {
	v := structuralValidator()
	if _, err := v.CheckFile(context.Background(), filepath.Join(t.TempDir(), "absent.yml")); err == nil {
		t.Error("expected error for missing file")
	}
}
