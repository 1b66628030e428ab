// Package match ranks previously generated playbooks against a parsed
// request so the decision layer can reuse validated output instead of
// generating again.
package match

import (
	"sort"

	"github.com/opsmaestro/maestro/internal/artifact"
	"github.com/opsmaestro/maestro/internal/intent"
)

// Score weights. Intent identity dominates, parameters refine, OS target
// nudges; the three sum to 1.0 so an identical artifact scores exactly 1.0.
const (
	intentWeight = 0.5
	osWeight     = 0.2
	paramsWeight = 0.3
)

// Result pairs an artifact with its similarity to the request.
type Result struct {
	Artifact artifact.Record
	Score    float64
}

// Rank scores every artifact against the parsed request and returns the
// candidates ordered by (score desc, createdAt desc, path asc). Artifacts
// for a different intent are excluded entirely rather than penalized: a
// playbook for the wrong operation is never a reuse candidate no matter how
// similar its parameters look.
func Rank(parsed intent.ParsedRequest, records []artifact.Record) []Result {
	var results []Result
	for _, rec := range records {
		if rec.Intent != parsed.Intent {
			continue
		}

		score := intentWeight
		if osCompatible(parsed.OSTarget, rec.OSTarget) {
			score += osWeight
		}
		score += paramsWeight * paramOverlap(parsed.Params, rec.Params)

		if score > 1 {
			score = 1
		}
		results = append(results, Result{Artifact: rec, Score: score})
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		if !results[i].Artifact.CreatedAt.Equal(results[j].Artifact.CreatedAt) {
			return results[i].Artifact.CreatedAt.After(results[j].Artifact.CreatedAt)
		}
		return results[i].Artifact.Path < results[j].Artifact.Path
	})
	return results
}

// osCompatible treats unspecified and all as wildcards on either side.
// A wildcard pairing earns the full OS contribution.
func osCompatible(a, b intent.OSTarget) bool {
	if isWildcardOS(a) || isWildcardOS(b) {
		return true
	}
	return a == b
}

func isWildcardOS(os intent.OSTarget) bool {
	return os == intent.OSUnspecified || os == intent.OSAll || os == ""
}

// paramOverlap is Jaccard similarity over key-value pairs: a key counts as
// shared only when both sides have it with the same value. Two empty
// parameter sets are identical and score 1.
func paramOverlap(a, b map[string]string) float64 {
	union := make(map[string]struct{}, len(a)+len(b))
	for k := range a {
		union[k] = struct{}{}
	}
	for k := range b {
		union[k] = struct{}{}
	}
	if len(union) == 0 {
		return 1
	}

	matched := 0
	for k, va := range a {
		if vb, ok := b[k]; ok && va == vb {
			matched++
		}
	}
	return float64(matched) / float64(len(union))
}
