package ai

import (
	"strings"
	"testing"

	"github.com/opsmaestro/maestro/internal/intent"
)

func TestCleanYAMLResponse(t *testing.T) {
	tests := []struct {
		name     string
		response string
		want     string
	}{
		{
			name:     "plain yaml untouched",
			response: "---\n- name: Test\n  hosts: all\n",
			want:     "---\n- name: Test\n  hosts: all",
		},
		{
			name:     "markdown fences stripped",
			response: "```yaml\n---\n- name: Test\n  hosts: all\n```",
			want:     "---\n- name: Test\n  hosts: all",
		},
		{
			name:     "prose before document marker dropped",
			response: "Here is your playbook:\n\n---\n- name: Test\n  hosts: all",
			want:     "---\n- name: Test\n  hosts: all",
		},
		{
			name:     "missing document marker added",
			response: "- name: Test\n  hosts: all",
			want:     "---\n- name: Test\n  hosts: all",
		},
		{
			name:     "crlf normalized",
			response: "---\r\n- name: Test\r\n",
			want:     "---\n- name: Test",
		},
		{
			name:     "empty stays empty",
			response: "   \n",
			want:     "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanYAMLResponse(tt.response); got != tt.want {
				t.Errorf("CleanYAMLResponse() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRepairYAML(t *testing.T) {
	got, err := repairYAML("---\n- name: Install nginx\n  hosts: all\n  become: true\n")
	if err != nil {
		t.Fatalf("repairYAML: %v", err)
	}
	if !strings.HasPrefix(got, "---\n") {
		t.Errorf("repaired playbook missing document marker:\n%s", got)
	}
	if !strings.Contains(got, "hosts: all") {
		t.Errorf("repaired playbook lost content:\n%s", got)
	}
}

func TestRepairYAMLRejectsBrokenOutput(t *testing.T) {
	if _, err := repairYAML("---\n- name: broken\n  hosts: [unclosed\n"); err == nil {
		t.Error("expected error for malformed YAML")
	}
	if _, err := repairYAML("---\n"); err == nil {
		t.Error("expected error for empty playbook")
	}
}

func TestLooksLikeEnvVarName(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"OPENAI_API_KEY", true},
		{"ANTHROPIC_API_KEY", true},
		{"sk-abc123def456", false},
		{"SHORT", false},
		{"lower_case_name", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := looksLikeEnvVarName(tt.in); got != tt.want {
			t.Errorf("looksLikeEnvVarName(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestResolveEnvVarKeyPointer(t *testing.T) {
	t.Setenv("MAESTRO_TEST_API_KEY", "sk-resolved")

	if got := resolveEnvVarKeyPointer("MAESTRO_TEST_API_KEY"); got != "sk-resolved" {
		t.Errorf("env pointer not resolved, got %q", got)
	}
	if got := resolveEnvVarKeyPointer("sk-literal-key-value"); got != "sk-literal-key-value" {
		t.Errorf("literal key mangled, got %q", got)
	}
}

func TestBuildPlaybookPromptOSGuidance(t *testing.T) {
	debian := buildPlaybookPrompt("install nginx", map[string]string{"package": "nginx"}, intent.OSDebianFamily)
	if !strings.Contains(debian, "apt") {
		t.Error("debian prompt missing apt guidance")
	}
	if !strings.Contains(debian, "package: nginx") {
		t.Error("prompt missing extracted parameter")
	}

	unspecified := buildPlaybookPrompt("install nginx", nil, intent.OSUnspecified)
	if !strings.Contains(unspecified, "ansible_os_family") {
		t.Error("unspecified prompt missing multi-OS guidance")
	}
}
