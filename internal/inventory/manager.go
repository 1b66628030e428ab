// Package inventory manages Ansible INI inventories so playbook runs can
// target named host groups instead of always hitting "all".
package inventory

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DefaultDir is the inventory directory used when inventory.dir is not
// configured.
const DefaultDir = "inventory"

// Host is one inventory entry with its host vars.
type Host struct {
	Name string
	Vars map[string]string
}

// Group is a named set of hosts.
type Group struct {
	Name  string
	Hosts []Host
}

// Inventory is an ordered list of groups.
type Inventory struct {
	Groups []Group
}

// Manager reads and writes inventories under a directory.
type Manager struct {
	dir string
}

// NewManager builds a manager rooted at dir.
func NewManager(dir string) *Manager {
	if dir == "" {
		dir = DefaultDir
	}
	return &Manager{dir: dir}
}

// Dir returns the inventory directory.
func (m *Manager) Dir() string {
	return m.dir
}

// Path returns the file path for a named inventory.
func (m *Manager) Path(name string) string {
	return filepath.Join(m.dir, name+".ini")
}

// Save writes the inventory in Ansible INI format. Host vars are emitted in
// sorted key order so repeated saves produce identical files.
func (m *Manager) Save(name string, inv Inventory) error {
	if name == "" {
		return fmt.Errorf("inventory name is empty")
	}
	if len(inv.Groups) == 0 {
		return fmt.Errorf("inventory %s has no groups", name)
	}

	var b strings.Builder
	for i, group := range inv.Groups {
		if group.Name == "" {
			return fmt.Errorf("inventory %s has an unnamed group", name)
		}
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "[%s]\n", group.Name)
		for _, host := range group.Hosts {
			b.WriteString(host.Name)
			keys := make([]string, 0, len(host.Vars))
			for k := range host.Vars {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				fmt.Fprintf(&b, " %s=%s", k, host.Vars[k])
			}
			b.WriteString("\n")
		}
	}

	if err := os.MkdirAll(m.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create inventory dir: %w", err)
	}
	if err := os.WriteFile(m.Path(name), []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("failed to write inventory %s: %w", name, err)
	}
	return nil
}

// Load parses a named inventory back into groups.
func (m *Manager) Load(name string) (Inventory, error) {
	data, err := os.ReadFile(m.Path(name))
	if err != nil {
		return Inventory{}, fmt.Errorf("failed to read inventory %s: %w", name, err)
	}

	var inv Inventory
	var current *Group
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, ";") {
			continue
		}
		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			inv.Groups = append(inv.Groups, Group{Name: line[1 : len(line)-1]})
			current = &inv.Groups[len(inv.Groups)-1]
			continue
		}
		if current == nil {
			return Inventory{}, fmt.Errorf("inventory %s: host %q outside any group", name, line)
		}

		fields := strings.Fields(line)
		host := Host{Name: fields[0]}
		for _, field := range fields[1:] {
			key, value, ok := strings.Cut(field, "=")
			if !ok {
				return Inventory{}, fmt.Errorf("inventory %s: malformed host var %q", name, field)
			}
			if host.Vars == nil {
				host.Vars = make(map[string]string)
			}
			host.Vars[key] = value
		}
		current.Hosts = append(current.Hosts, host)
	}

	if len(inv.Groups) == 0 {
		return Inventory{}, fmt.Errorf("inventory %s has no groups", name)
	}
	return inv, nil
}

// List returns the names of stored inventories, sorted.
func (m *Manager) List() ([]string, error) {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read inventory dir: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".ini") {
			continue
		}
		names = append(names, strings.TrimSuffix(entry.Name(), ".ini"))
	}
	sort.Strings(names)
	return names, nil
}

// GroupNames returns the group names of a named inventory, in file order.
func (m *Manager) GroupNames(name string) ([]string, error) {
	inv, err := m.Load(name)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(inv.Groups))
	for _, g := range inv.Groups {
		names = append(names, g.Name)
	}
	return names, nil
}
