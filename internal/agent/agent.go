// Package agent wires the pipeline together: interpret a request, decide
// how to serve it, generate or reuse a playbook, then validate, store,
// version, and hand off for execution. All prompting and confirmation stays
// in the cmd layer; the agent only exposes context-aware methods returning
// values.
package agent

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/opsmaestro/maestro/internal/artifact"
	"github.com/opsmaestro/maestro/internal/concert"
	"github.com/opsmaestro/maestro/internal/decide"
	"github.com/opsmaestro/maestro/internal/intent"
	"github.com/opsmaestro/maestro/internal/validate"
)

// ArtifactStore is the slice of artifact.Store the agent needs.
type ArtifactStore interface {
	List() ([]artifact.Record, error)
	Save(content string, rec artifact.Record) (artifact.Record, error)
	ReadContent(rec artifact.Record) (string, error)
}

// TemplateGenerator is the deterministic generation path.
type TemplateGenerator interface {
	Has(intentName string) bool
	Generate(intentName string, params map[string]string, osTarget intent.OSTarget, hosts string) (string, error)
}

// LLMGenerator is the fallback generation path.
type LLMGenerator interface {
	GeneratePlaybook(ctx context.Context, request string, params map[string]string, osTarget intent.OSTarget) (string, error)
}

// Validator checks playbook content before it is stored.
type Validator interface {
	Check(ctx context.Context, content string) (validate.Result, error)
}

// Committer versions stored playbooks. Nil disables versioning.
type Committer interface {
	CommitArtifact(ctx context.Context, relPath, message string) error
}

// Pusher sends committed playbooks to a remote. Committers that also push
// are detected at runtime; a commit-only Committer just never pushes.
type Pusher interface {
	Push(ctx context.Context) error
}

// WorkflowTrigger hands a playbook off for execution. Nil disables handoff.
type WorkflowTrigger interface {
	TriggerWorkflow(ctx context.Context, playbookPath string, metadata map[string]string) (*concert.TriggerResult, error)
}

// Options steer one request through the pipeline.
type Options struct {
	// Hosts is the inventory group playbooks target; empty means "all".
	Hosts string
	// SkipReuse bypasses the similarity check and forces fresh generation,
	// for when a stored playbook is known to be stale.
	SkipReuse bool
	// Execute hands the playbook off to the execution workflow after it is
	// stored (or reused).
	Execute bool
	// Push sends the commit to the configured git remote.
	Push bool
}

// Outcome is the result of processing one request.
type Outcome struct {
	Parsed     intent.ParsedRequest
	Decision   decide.Decision
	Record     artifact.Record // the reused or newly saved playbook
	Content    string          // playbook body, without metadata header
	Validation *validate.Result
	Workflow   *concert.TriggerResult
}

// Agent runs the request pipeline.
type Agent struct {
	interp    *intent.Interpreter
	engine    *decide.Engine
	store     ArtifactStore
	templates TemplateGenerator
	llm       LLMGenerator
	validator Validator
	repo      Committer
	workflow  WorkflowTrigger
	logger    *zap.Logger
}

// Config collects the agent's collaborators. Interp, Store, Templates,
// and Validator are required; the rest degrade gracefully when nil.
type Config struct {
	Interp         *intent.Interpreter
	ReuseThreshold float64
	Store          ArtifactStore
	Templates      TemplateGenerator
	LLM            LLMGenerator
	Validator      Validator
	Repo           Committer
	Workflow       WorkflowTrigger
	Logger         *zap.Logger
}

// New builds an agent from its collaborators.
func New(cfg Config) (*Agent, error) {
	if cfg.Interp == nil {
		return nil, fmt.Errorf("agent needs an interpreter")
	}
	if cfg.Store == nil {
		return nil, fmt.Errorf("agent needs an artifact store")
	}
	if cfg.Templates == nil {
		return nil, fmt.Errorf("agent needs a template generator")
	}
	if cfg.Validator == nil {
		return nil, fmt.Errorf("agent needs a validator")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Agent{
		interp:    cfg.Interp,
		engine:    decide.NewEngine(cfg.Interp, cfg.ReuseThreshold),
		store:     cfg.Store,
		templates: cfg.Templates,
		llm:       cfg.LLM,
		validator: cfg.Validator,
		repo:      cfg.Repo,
		workflow:  cfg.Workflow,
		logger:    logger,
	}, nil
}

// Interpret parses a raw request. Exposed so the cmd layer can show the
// interpretation and amend parameters before executing.
func (a *Agent) Interpret(rawText string) intent.ParsedRequest {
	parsed := a.interp.Interpret(rawText)
	a.logger.Debug("interpreted request",
		zap.String("intent", parsed.Intent),
		zap.Float64("confidence", parsed.Confidence),
		zap.String("os_target", string(parsed.OSTarget)),
		zap.Int("params", len(parsed.Params)),
	)
	return parsed
}

// Decide ranks stored playbooks against the parsed request and picks an
// action. The store is read once per call; the decision is made over that
// snapshot. With skipReuse the stored playbooks are ignored entirely, so
// the outcome is always fresh generation (or clarify).
func (a *Agent) Decide(parsed intent.ParsedRequest, skipReuse bool) (decide.Decision, error) {
	var records []artifact.Record
	if !skipReuse {
		var err error
		records, err = a.store.List()
		if err != nil {
			return decide.Decision{}, fmt.Errorf("failed to list artifacts: %w", err)
		}
	}

	decision := a.engine.Decide(parsed, records)
	a.logger.Info("decision made",
		zap.String("intent", parsed.Intent),
		zap.String("kind", string(decision.Kind)),
		zap.String("reason", decision.Reason),
		zap.Int("candidates", len(decision.Candidates)),
	)
	return decision, nil
}

// ProcessRequest runs the full pipeline. A Clarify decision is returned as-is
// so the caller can collect the missing information and call Execute after
// amending the parsed request.
func (a *Agent) ProcessRequest(ctx context.Context, rawText string, opts Options) (Outcome, error) {
	parsed := a.Interpret(rawText)
	decision, err := a.Decide(parsed, opts.SkipReuse)
	if err != nil {
		return Outcome{}, err
	}
	if decision.Kind == decide.Clarify {
		return Outcome{Parsed: parsed, Decision: decision}, nil
	}
	return a.Execute(ctx, parsed, decision, opts)
}

// Execute carries out a non-Clarify decision: reuse or generate, then
// validate, store, commit, push, and hand off for execution, each step as
// the options ask.
func (a *Agent) Execute(ctx context.Context, parsed intent.ParsedRequest, decision decide.Decision, opts Options) (Outcome, error) {
	outcome := Outcome{Parsed: parsed, Decision: decision}

	switch decision.Kind {
	case decide.Reuse:
		rec := decision.Reused.Artifact
		content, err := a.store.ReadContent(rec)
		if err != nil {
			return outcome, err
		}
		outcome.Record = rec
		outcome.Content = content
		a.logger.Info("reusing playbook",
			zap.String("path", rec.Path),
			zap.Float64("score", decision.Reused.Score),
		)

	case decide.GenerateTemplate:
		// The saved record carries the same params the playbook encodes, so
		// defaults applied here count for future matching too.
		parsed.Params = a.generationParams(parsed)
		content, err := a.templates.Generate(parsed.Intent, parsed.Params, parsed.OSTarget, opts.Hosts)
		if err != nil {
			return outcome, fmt.Errorf("template generation failed: %w", err)
		}
		if err := a.validateAndSave(ctx, &outcome, content, artifact.SourceTemplate, parsed, opts); err != nil {
			return outcome, err
		}

	case decide.GenerateLLM:
		if a.llm == nil {
			return outcome, fmt.Errorf("request needs LLM generation but no AI provider is configured")
		}
		content, err := a.llm.GeneratePlaybook(ctx, parsed.RawText, parsed.Params, parsed.OSTarget)
		if err != nil {
			return outcome, err
		}
		if err := a.validateAndSave(ctx, &outcome, content, artifact.SourceLLM, parsed, opts); err != nil {
			return outcome, err
		}

	case decide.Clarify:
		return outcome, nil

	default:
		return outcome, fmt.Errorf("unknown decision kind %q", decision.Kind)
	}

	if opts.Execute && a.workflow != nil && outcome.Record.Path != "" {
		result, err := a.workflow.TriggerWorkflow(ctx, outcome.Record.Path, map[string]string{
			"intent":    outcome.Record.Intent,
			"os_target": string(outcome.Record.OSTarget),
			"source":    outcome.Record.Source,
		})
		if err != nil {
			// The playbook is already stored; a failed handoff is reported,
			// not fatal.
			a.logger.Warn("workflow trigger failed", zap.Error(err))
		} else if result != nil {
			outcome.Workflow = result
			a.logger.Info("workflow triggered",
				zap.String("workflow_id", result.WorkflowID),
				zap.Bool("simulated", result.Simulated),
			)
		}
	}

	return outcome, nil
}

// generationParams copies the extracted params and fills the optional
// values templates substitute unconditionally. Firewall rules default to
// tcp, matching what an operator means by "open port 8080".
func (a *Agent) generationParams(parsed intent.ParsedRequest) map[string]string {
	params := make(map[string]string, len(parsed.Params)+1)
	for k, v := range parsed.Params {
		params[k] = v
	}
	def, ok := a.interp.Catalog().Lookup(parsed.Intent)
	if ok && def.DeclaresParam("protocol") {
		if _, set := params["protocol"]; !set {
			params["protocol"] = "tcp"
		}
	}
	return params
}

func (a *Agent) validateAndSave(ctx context.Context, outcome *Outcome, content, source string, parsed intent.ParsedRequest, opts Options) error {
	result, err := a.validator.Check(ctx, content)
	if err != nil {
		return fmt.Errorf("validation failed to run: %w", err)
	}
	outcome.Validation = &result
	if !result.Valid {
		a.logger.Error("generated playbook failed validation",
			zap.String("checker", result.Checker),
			zap.String("output", result.Output),
		)
		return fmt.Errorf("generated playbook failed %s validation: %s", result.Checker, result.Output)
	}

	rec, err := a.store.Save(content, artifact.Record{
		Intent:   parsed.Intent,
		Params:   parsed.Params,
		OSTarget: parsed.OSTarget,
		Source:   source,
	})
	if err != nil {
		return fmt.Errorf("failed to save playbook: %w", err)
	}
	outcome.Record = rec
	outcome.Content = content
	a.logger.Info("playbook saved",
		zap.String("path", rec.Path),
		zap.String("source", source),
	)

	if a.repo != nil {
		msg := fmt.Sprintf("Add %s playbook (%s)", rec.Intent, rec.OSTarget)
		if err := a.repo.CommitArtifact(ctx, rec.Path, msg); err != nil {
			a.logger.Warn("commit failed", zap.Error(err))
		} else if opts.Push {
			if err := a.push(ctx); err != nil {
				return err
			}
		}
	}
	return nil
}

// push sends the artifact repo to its remote. The user asked for it
// explicitly, so a failure is an error, not a logged warning; the playbook
// itself is already saved and committed.
func (a *Agent) push(ctx context.Context) error {
	pusher, ok := a.repo.(Pusher)
	if !ok {
		return fmt.Errorf("artifact repo cannot push")
	}
	if err := pusher.Push(ctx); err != nil {
		return fmt.Errorf("playbook committed but push failed: %w", err)
	}
	a.logger.Info("pushed to remote")
	return nil
}
