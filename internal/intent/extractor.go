package intent

import (
	"regexp"
	"strings"
)

// recognizer ties one parameter name to a pattern that captures its value.
// Registration order is priority order: when two recognizers for the same
// parameter both match, the earlier one wins.
type recognizer struct {
	param string
	re    *regexp.Regexp
}

// Recognizers run against lowercased text, so character classes only need
// the lowercase range.
var recognizers = []recognizer{
	{"package", regexp.MustCompile(`(?:install|set ?up|add)\s+(?:the\s+)?([a-z0-9][a-z0-9.+_-]*)`)},
	{"package", regexp.MustCompile(`([a-z0-9.+_-]+)\s+package\b`)},
	{"port", regexp.MustCompile(`\bport\s+(\d{1,5})\b`)},
	{"port", regexp.MustCompile(`\b(\d{1,5})\s*/\s*(?:tcp|udp)\b`)},
	{"protocol", regexp.MustCompile(`\b(tcp|udp)\b`)},
	{"username", regexp.MustCompile(`\buser\s+([a-z_][a-z0-9_-]*)`)},
	{"username", regexp.MustCompile(`\baccount\s+for\s+([a-z_][a-z0-9_-]*)`)},
	{"groups", regexp.MustCompile(`\bgroups?\s+([a-z0-9_-]+(?:\s*,\s*[a-z0-9_-]+)*)`)},
	{"container", regexp.MustCompile(`(?:deploy|run|launch|start)\s+([a-z0-9][a-z0-9_-]*)\s+(?:container|docker|in\s+docker)`)},
	{"image", regexp.MustCompile(`\bimage\s+([a-z0-9:./_-]+)`)},
	{"service", regexp.MustCompile(`(?:restart|reload|bounce|reboot)\s+(?:the\s+)?([a-z0-9][a-z0-9_.-]*)`)},
	{"config_file", regexp.MustCompile(`(?:update|modify|change)\s+(?:the\s+)?config(?:uration)?(?:\s+file)?\s+([a-z0-9._/-]+)`)},
	{"config_file", regexp.MustCompile(`(?:modify|change)\s+([a-z0-9._/-]+)\s+(?:config|configuration|setting)`)},
}

// stopwords are filler captures that are never a real parameter value.
// A recognizer landing on one of these is treated as no match so a later
// recognizer for the same parameter still gets a chance.
var stopwords = map[string]bool{
	"a": true, "an": true, "the": true, "that": true, "this": true,
	"it": true, "my": true, "our": true, "some": true, "new": true,
}

// Well-known defaults carried over for container deployments and service
// restarts, keyed by the recognized name.
var wellKnownImages = map[string]string{
	"nginx":    "nginx:latest",
	"apache":   "httpd:latest",
	"mysql":    "mysql:latest",
	"postgres": "postgres:latest",
	"redis":    "redis:latest",
	"mongodb":  "mongo:latest",
}

var wellKnownContainerPorts = map[string]string{
	"nginx":    "80",
	"apache":   "80",
	"mysql":    "3306",
	"postgres": "5432",
	"redis":    "6379",
	"mongodb":  "27017",
}

var wellKnownServicePorts = map[string]string{
	"nginx":      "80",
	"apache":     "80",
	"apache2":    "80",
	"mysql":      "3306",
	"postgresql": "5432",
	"redis":      "6379",
	"ssh":        "22",
}

// Extract runs every recognizer declared by def against rawText and merges
// the matches into one parameter map. Pure function: same inputs, same map.
// Parameters nothing recognized stay absent; that is resolved later by
// interactive collection, not treated as an error here.
func Extract(rawText string, def Definition) map[string]string {
	text := strings.ToLower(rawText)
	params := make(map[string]string)

	for _, rec := range recognizers {
		if !def.DeclaresParam(rec.param) {
			continue
		}
		if _, done := params[rec.param]; done {
			continue
		}
		if m := rec.re.FindStringSubmatch(text); m != nil {
			value := strings.TrimSpace(m[1])
			if value == "" || stopwords[value] {
				continue
			}
			params[rec.param] = value
		}
	}

	deriveDefaults(def, params)
	return params
}

// deriveDefaults fills in values implied by already-recognized ones, the way
// an operator would assume nginx listens on 80 unless told otherwise.
func deriveDefaults(def Definition, params map[string]string) {
	if name, ok := params["container"]; ok {
		if _, set := params["image"]; !set && def.DeclaresParam("image") {
			if img, known := wellKnownImages[name]; known {
				params["image"] = img
			} else {
				params["image"] = name + ":latest"
			}
		}
		if _, set := params["port"]; !set && def.DeclaresParam("port") {
			if port, known := wellKnownContainerPorts[name]; known {
				params["port"] = port
			}
		}
	}

	if name, ok := params["service"]; ok {
		if _, set := params["port"]; !set && def.DeclaresParam("port") {
			if port, known := wellKnownServicePorts[name]; known {
				params["port"] = port
			}
		}
	}
}

// osKeyword maps one trigger phrase to an OS target. Ordered: the first
// phrase found in the text wins.
type osKeyword struct {
	phrase string
	target OSTarget
}

var osKeywords = []osKeyword{
	{"ubuntu", OSDebianFamily},
	{"debian", OSDebianFamily},
	{"rhel", OSRedHatFamily},
	{"centos", OSRedHatFamily},
	{"rocky", OSRedHatFamily},
	{"alma", OSRedHatFamily},
	{"almalinux", OSRedHatFamily},
	{"amazon linux", OSRedHatFamily},
	{"fedora", OSFedora},
	{"all os", OSAll},
	{"any os", OSAll},
	{"all distributions", OSAll},
	{"multi os", OSAll},
}

// DetectOS scans the text for a fixed OS vocabulary. Absence of any keyword
// yields OSUnspecified, never OSAll: "all" is an explicit user choice or an
// interactive-collection default, not an inference.
func DetectOS(rawText string) OSTarget {
	tokens := tokenize(rawText)
	for _, kw := range osKeywords {
		if containsSequence(tokens, tokenize(kw.phrase)) {
			return kw.target
		}
	}
	return OSUnspecified
}
