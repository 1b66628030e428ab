package intent

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Unknown is the sentinel intent name returned when no catalog entry
// clears the classification threshold.
const Unknown = "unknown"

// OSTarget is the operating-system family a request is aimed at.
type OSTarget string

const (
	OSUnspecified  OSTarget = "unspecified"
	OSDebianFamily OSTarget = "debian_family"
	OSRedHatFamily OSTarget = "redhat_family"
	OSFedora       OSTarget = "fedora"
	OSAll          OSTarget = "all"
)

// TriggerPattern is one lexical trigger of an intent. The pattern counts as
// matched when any of its surface-form variants appears in the request text
// as a contiguous token sequence.
type TriggerPattern struct {
	Variants []string `yaml:"variants"`
}

// Definition describes one intent in the catalog: its trigger vocabulary,
// the parameters a playbook for it needs, and whether the template
// generator can produce it without the LLM.
type Definition struct {
	Name           string           `yaml:"name"`
	Patterns       []TriggerPattern `yaml:"patterns"`
	RequiredParams []string         `yaml:"required_params"`
	OptionalParams []string         `yaml:"optional_params"`
	Deterministic  bool             `yaml:"deterministic"`
}

// DeclaresParam reports whether name is a required or optional parameter
// of this intent.
func (d Definition) DeclaresParam(name string) bool {
	for _, p := range d.RequiredParams {
		if p == name {
			return true
		}
	}
	for _, p := range d.OptionalParams {
		if p == name {
			return true
		}
	}
	return false
}

// Catalog is the ordered set of intent definitions. Order is significant:
// classification ties are broken in favor of the earlier definition, so the
// catalog is always a slice, never a map.
type Catalog struct {
	defs   []Definition
	byName map[string]int
}

type catalogFile struct {
	Intents []Definition `yaml:"intents"`
}

// NewCatalog validates the definitions and builds a catalog. A definition
// with no trigger patterns would make its match score undefined, so that is
// a hard error rather than a skipped entry.
func NewCatalog(defs []Definition) (*Catalog, error) {
	if len(defs) == 0 {
		return nil, fmt.Errorf("intent catalog is empty")
	}

	byName := make(map[string]int, len(defs))
	for i, def := range defs {
		if def.Name == "" {
			return nil, fmt.Errorf("intent at index %d has no name", i)
		}
		if def.Name == Unknown {
			return nil, fmt.Errorf("intent name %q is reserved", Unknown)
		}
		if _, dup := byName[def.Name]; dup {
			return nil, fmt.Errorf("duplicate intent name: %s", def.Name)
		}
		if len(def.Patterns) == 0 {
			return nil, fmt.Errorf("intent %s has no trigger patterns", def.Name)
		}
		for j, pat := range def.Patterns {
			if len(pat.Variants) == 0 {
				return nil, fmt.Errorf("intent %s pattern %d has no variants", def.Name, j)
			}
			for _, v := range pat.Variants {
				if normalize(v) == "" {
					return nil, fmt.Errorf("intent %s pattern %d has an empty variant", def.Name, j)
				}
			}
		}
		byName[def.Name] = i
	}

	return &Catalog{defs: defs, byName: byName}, nil
}

// LoadCatalog reads an intent catalog from a YAML file.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read intent catalog: %w", err)
	}

	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse intent catalog %s: %w", path, err)
	}

	catalog, err := NewCatalog(file.Intents)
	if err != nil {
		return nil, fmt.Errorf("invalid intent catalog %s: %w", path, err)
	}
	return catalog, nil
}

// Definitions returns the catalog entries in registration order.
func (c *Catalog) Definitions() []Definition {
	return c.defs
}

// Lookup returns the definition for name.
func (c *Catalog) Lookup(name string) (Definition, bool) {
	i, ok := c.byName[name]
	if !ok {
		return Definition{}, false
	}
	return c.defs[i], true
}

// Len returns the number of intents in the catalog.
func (c *Catalog) Len() int {
	return len(c.defs)
}

// DefaultCatalog returns the built-in catalog covering the six shipped
// playbook templates. Used when no catalog file is configured.
func DefaultCatalog() *Catalog {
	catalog, err := NewCatalog(defaultDefinitions())
	if err != nil {
		// The built-in definitions are validated by tests; this is unreachable
		// short of a broken build.
		panic(fmt.Sprintf("built-in intent catalog invalid: %v", err))
	}
	return catalog
}

func defaultDefinitions() []Definition {
	return []Definition{
		{
			Name: "install_package",
			Patterns: []TriggerPattern{
				{Variants: []string{"install", "set up", "setup"}},
				{Variants: []string{"package", "server"}},
			},
			RequiredParams: []string{"package"},
			Deterministic:  true,
		},
		{
			Name: "configure_firewall",
			Patterns: []TriggerPattern{
				{Variants: []string{"open port", "allow port", "enable port", "firewall"}},
				{Variants: []string{"port"}},
			},
			RequiredParams: []string{"port"},
			OptionalParams: []string{"protocol"},
			Deterministic:  true,
		},
		{
			Name: "create_user",
			Patterns: []TriggerPattern{
				{Variants: []string{"create user", "add user", "new user", "account for"}},
				{Variants: []string{"user", "account"}},
			},
			RequiredParams: []string{"username"},
			OptionalParams: []string{"groups"},
			Deterministic:  true,
		},
		{
			Name: "deploy_docker",
			Patterns: []TriggerPattern{
				{Variants: []string{"deploy", "run", "launch", "start"}},
				{Variants: []string{"container", "docker"}},
			},
			RequiredParams: []string{"container"},
			OptionalParams: []string{"image", "port"},
			Deterministic:  true,
		},
		{
			Name: "restart_service",
			Patterns: []TriggerPattern{
				{Variants: []string{"restart", "reload", "bounce", "reboot"}},
				{Variants: []string{"service"}},
			},
			RequiredParams: []string{"service"},
			OptionalParams: []string{"port"},
			Deterministic:  true,
		},
		{
			Name: "update_config",
			Patterns: []TriggerPattern{
				{Variants: []string{"update config", "update configuration", "modify config", "change setting"}},
				{Variants: []string{"config", "configuration", "setting"}},
			},
			RequiredParams: []string{"config_file"},
			OptionalParams: []string{"search_pattern", "replace_line"},
			Deterministic:  false,
		},
	}
}
