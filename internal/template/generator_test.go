package template

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/opsmaestro/maestro/internal/intent"
)

func writeTemplate(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("write template: %v", err)
	}
}

func TestGenerate(t *testing.T) {
	dir := t.TempDir()
	writeTemplate(t, dir, "install_package.yml", `---
- name: Install {{package}}
  hosts: {{target_hosts}}
  tasks:
    - name: Install {{package}}
      ansible.builtin.package:
        name: {{package}}
    - name: Report
      ansible.builtin.debug:
        msg: "{{package}} on {{ ansible_distribution }} ({{os_type}})"
`)

	gen := NewGenerator(dir)
	got, err := gen.Generate("install_package", map[string]string{"package": "nginx"}, intent.OSDebianFamily, "")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if strings.Contains(got, "{{package}}") {
		t.Error("package placeholder not substituted")
	}
	if !strings.Contains(got, "name: nginx") {
		t.Errorf("package value missing:\n%s", got)
	}
	if !strings.Contains(got, "hosts: all") {
		t.Errorf("default hosts not applied:\n%s", got)
	}
	if !strings.Contains(got, "(debian_family)") {
		t.Errorf("os_type not substituted:\n%s", got)
	}
	// Jinja expressions with inner spaces belong to Ansible, not to us.
	if !strings.Contains(got, "{{ ansible_distribution }}") {
		t.Errorf("ansible expression was clobbered:\n%s", got)
	}
}

func TestGenerateExplicitHosts(t *testing.T) {
	dir := t.TempDir()
	writeTemplate(t, dir, "restart_service.yml", "hosts: {{target_hosts}}\nservice: {{service}}\n")

	gen := NewGenerator(dir)
	got, err := gen.Generate("restart_service", map[string]string{"service": "nginx"}, intent.OSAll, "web_servers")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !strings.Contains(got, "hosts: web_servers") {
		t.Errorf("explicit hosts not applied:\n%s", got)
	}
}

func TestGenerateUnspecifiedOSCollapsesToAll(t *testing.T) {
	dir := t.TempDir()
	writeTemplate(t, dir, "t.yml", "os: {{os_type}}\n")

	gen := NewGenerator(dir)
	got, err := gen.Generate("t", nil, intent.OSUnspecified, "")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if got != "os: all\n" {
		t.Errorf("got %q, want os: all", got)
	}
}

func TestGenerateMissingTemplate(t *testing.T) {
	gen := NewGenerator(t.TempDir())
	if _, err := gen.Generate("no_such_intent", nil, intent.OSAll, ""); err == nil {
		t.Error("expected error for missing template")
	}
}

func TestHas(t *testing.T) {
	dir := t.TempDir()
	writeTemplate(t, dir, "install_package.yml", "---\n")

	gen := NewGenerator(dir)
	if !gen.Has("install_package") {
		t.Error("Has(install_package) = false, want true")
	}
	if gen.Has("deploy_docker") {
		t.Error("Has(deploy_docker) = true, want false")
	}
}
