package intent

import (
	"strings"
)

// DefaultMinConfidence is the classification threshold: a best score below
// this (roughly one third of an intent's patterns) is reported as unknown.
const DefaultMinConfidence = 0.34

// Classification is the result of matching raw text against the catalog.
type Classification struct {
	Intent     string
	Confidence float64
}

// Classifier matches raw text against the intent catalog by keyword
// containment. It carries no state between calls.
type Classifier struct {
	catalog       *Catalog
	minConfidence float64
}

// NewClassifier builds a classifier over catalog. minConfidence <= 0 selects
// DefaultMinConfidence.
func NewClassifier(catalog *Catalog, minConfidence float64) *Classifier {
	if minConfidence <= 0 {
		minConfidence = DefaultMinConfidence
	}
	return &Classifier{catalog: catalog, minConfidence: minConfidence}
}

// Classify returns the best-matching intent name and its confidence, or the
// Unknown sentinel with confidence 0 when nothing clears the threshold.
// The score per intent is matchedPatterns/totalPatterns; exact ties go to
// the intent registered earlier in the catalog.
func (c *Classifier) Classify(rawText string) Classification {
	tokens := tokenize(rawText)

	best := Classification{Intent: Unknown, Confidence: 0}
	for _, def := range c.catalog.Definitions() {
		matched := 0
		for _, pat := range def.Patterns {
			if patternMatches(tokens, pat) {
				matched++
			}
		}
		score := float64(matched) / float64(len(def.Patterns))
		// Strictly-greater comparison keeps the first-registered intent on ties.
		if score > best.Confidence {
			best = Classification{Intent: def.Name, Confidence: score}
		}
	}

	if best.Confidence < c.minConfidence {
		return Classification{Intent: Unknown, Confidence: 0}
	}
	return best
}

func patternMatches(tokens []string, pat TriggerPattern) bool {
	for _, variant := range pat.Variants {
		want := tokenize(variant)
		if len(want) == 0 {
			continue
		}
		if containsSequence(tokens, want) {
			return true
		}
	}
	return false
}

// containsSequence reports whether want occurs in tokens as a contiguous run.
func containsSequence(tokens, want []string) bool {
	if len(want) > len(tokens) {
		return false
	}
	for i := 0; i+len(want) <= len(tokens); i++ {
		ok := true
		for j, w := range want {
			if tokens[i+j] != w {
				ok = false
				break
			}
		}
		if ok {
			return true
		}
	}
	return false
}

// tokenize lowercases text and splits it into alphanumeric tokens, so that
// punctuation and whitespace differences never affect matching.
func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !(r >= 'a' && r <= 'z') && !(r >= '0' && r <= '9')
	})
}

func normalize(text string) string {
	return strings.Join(tokenize(text), " ")
}
