// Package decide picks what to do with an interpreted request: reuse an
// existing playbook, generate one from a template, fall back to the LLM, or
// ask the user for more information.
package decide

import (
	"github.com/opsmaestro/maestro/internal/artifact"
	"github.com/opsmaestro/maestro/internal/intent"
	"github.com/opsmaestro/maestro/internal/match"
)

// DefaultReuseThreshold is the minimum similarity at which an existing
// playbook is reused instead of generating a new one. The boundary is
// inclusive: a score of exactly 0.80 triggers reuse.
const DefaultReuseThreshold = 0.80

// Kind enumerates the possible outcomes for one request.
type Kind string

const (
	// Reuse an already-generated, already-validated playbook.
	Reuse Kind = "reuse"
	// GenerateTemplate fills a shipped template; output is guaranteed valid.
	GenerateTemplate Kind = "generate_template"
	// GenerateLLM asks the model; output needs validation downstream.
	GenerateLLM Kind = "generate_llm"
	// Clarify means interpretation was too weak to act; ask the user.
	Clarify Kind = "clarify"
)

// Clarify reasons. ReasonUnknownIntent asks the user to restate the whole
// request; ReasonMissingParams asks only for the named parameters.
const (
	ReasonUnknownIntent = "unknown_intent"
	ReasonMissingParams = "missing_params"
)

// Decision is the engine's verdict. Every outcome, including "cannot
// classify", is a plain value; callers branch on Kind.
type Decision struct {
	Kind          Kind
	Intent        string
	LocationRef   string         // set for Reuse
	Reused        *match.Result  // set for Reuse
	Reason        string         // set for Clarify
	MissingParams []string       // set for Clarify with ReasonMissingParams
	Candidates    []match.Result // ranked matches, for operator review
}

// Engine evaluates the decision rules over one request. It holds no
// per-request state; the interpreter and threshold are fixed at build time.
type Engine struct {
	interp         *intent.Interpreter
	reuseThreshold float64
}

// NewEngine builds a decision engine. threshold <= 0 selects
// DefaultReuseThreshold.
func NewEngine(interp *intent.Interpreter, threshold float64) *Engine {
	if threshold <= 0 {
		threshold = DefaultReuseThreshold
	}
	return &Engine{interp: interp, reuseThreshold: threshold}
}

// Decide applies the rules in priority order: correctness of understanding
// first, then reuse of validated output, then safety of missing data, then
// preference for the template generator over the LLM. The artifact records
// are only read, never modified.
func (e *Engine) Decide(parsed intent.ParsedRequest, records []artifact.Record) Decision {
	if parsed.Intent == intent.Unknown {
		return Decision{
			Kind:   Clarify,
			Intent: parsed.Intent,
			Reason: ReasonUnknownIntent,
		}
	}

	candidates := match.Rank(parsed, records)
	if len(candidates) > 0 && candidates[0].Score >= e.reuseThreshold {
		top := candidates[0]
		return Decision{
			Kind:        Reuse,
			Intent:      parsed.Intent,
			LocationRef: top.Artifact.Path,
			Reused:      &top,
			Candidates:  candidates,
		}
	}

	if missing := e.interp.MissingRequiredParams(parsed); len(missing) > 0 {
		return Decision{
			Kind:          Clarify,
			Intent:        parsed.Intent,
			Reason:        ReasonMissingParams,
			MissingParams: missing,
			Candidates:    candidates,
		}
	}

	def, _ := e.interp.Catalog().Lookup(parsed.Intent)
	if def.Deterministic {
		return Decision{Kind: GenerateTemplate, Intent: parsed.Intent, Candidates: candidates}
	}
	return Decision{Kind: GenerateLLM, Intent: parsed.Intent, Candidates: candidates}
}
