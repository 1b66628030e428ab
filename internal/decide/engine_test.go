package decide

import (
	"reflect"
	"testing"
	"time"

	"github.com/opsmaestro/maestro/internal/artifact"
	"github.com/opsmaestro/maestro/internal/intent"
)

func newEngine(t *testing.T) (*Engine, *intent.Interpreter) {
	t.Helper()
	interp := intent.NewInterpreter(intent.DefaultCatalog(), 0)
	return NewEngine(interp, 0), interp
}

func TestDecideUnknownIntentClarifies(t *testing.T) {
	engine, interp := newEngine(t)

	parsed := interp.Interpret("do the thing")
	got := engine.Decide(parsed, nil)

	if got.Kind != Clarify {
		t.Fatalf("kind = %s, want %s", got.Kind, Clarify)
	}
	if got.Reason != ReasonUnknownIntent {
		t.Errorf("reason = %s, want %s", got.Reason, ReasonUnknownIntent)
	}
}

func TestDecideReusesIdenticalArtifact(t *testing.T) {
	engine, interp := newEngine(t)

	parsed := interp.Interpret("Install nginx on Ubuntu")
	records := []artifact.Record{{
		ID:        "1",
		Intent:    "install_package",
		Params:    map[string]string{"package": "nginx"},
		OSTarget:  intent.OSDebianFamily,
		CreatedAt: time.Now().Add(-time.Hour),
		Path:      "output/install_package_debian_family_20260801_120000.yml",
	}}

	got := engine.Decide(parsed, records)

	if got.Kind != Reuse {
		t.Fatalf("kind = %s, want %s", got.Kind, Reuse)
	}
	if got.LocationRef != records[0].Path {
		t.Errorf("location = %s, want %s", got.LocationRef, records[0].Path)
	}
	if got.Reused == nil || got.Reused.Score != 1.0 {
		t.Errorf("reused score = %+v, want 1.0", got.Reused)
	}
}

func TestDecideReuseBoundaryIsInclusive(t *testing.T) {
	// Same intent and params but a differing specified OS scores exactly
	// 0.80, and the threshold is inclusive: that still reuses.
	engine, interp := newEngine(t)

	parsed := interp.Interpret("Install nginx on Ubuntu")
	records := []artifact.Record{{
		ID:        "1",
		Intent:    "install_package",
		Params:    map[string]string{"package": "nginx"},
		OSTarget:  intent.OSRedHatFamily,
		CreatedAt: time.Now().Add(-time.Hour),
		Path:      "output/install_package_redhat_family_20260801_120000.yml",
	}}

	got := engine.Decide(parsed, records)

	if got.Kind != Reuse {
		t.Fatalf("kind = %s, want %s (score 0.80 must reuse)", got.Kind, Reuse)
	}
	if got.Reused.Score != 0.8 {
		t.Errorf("score = %v, want exactly 0.8", got.Reused.Score)
	}
}

func TestDecideBelowThresholdGenerates(t *testing.T) {
	engine, interp := newEngine(t)

	parsed := interp.Interpret("Install nginx on Ubuntu")
	records := []artifact.Record{{
		ID:        "1",
		Intent:    "install_package",
		Params:    map[string]string{"package": "mysql"},
		OSTarget:  intent.OSRedHatFamily,
		CreatedAt: time.Now().Add(-time.Hour),
		Path:      "output/old.yml",
	}}

	got := engine.Decide(parsed, records)

	if got.Kind != GenerateTemplate {
		t.Fatalf("kind = %s, want %s", got.Kind, GenerateTemplate)
	}
	// The weak candidate is still surfaced for operator review.
	if len(got.Candidates) != 1 {
		t.Errorf("candidates = %d, want 1", len(got.Candidates))
	}
}

func TestDecideMissingParamsClarifies(t *testing.T) {
	// High-confidence intent with an unextractable package still clarifies:
	// missing data outranks generation.
	engine, interp := newEngine(t)

	parsed := interp.Interpret("set up that monitoring thing we discussed as a package")
	if parsed.Intent != "install_package" {
		t.Fatalf("intent = %s, want install_package", parsed.Intent)
	}

	got := engine.Decide(parsed, nil)

	if got.Kind != Clarify {
		t.Fatalf("kind = %s, want %s", got.Kind, Clarify)
	}
	if got.Reason != ReasonMissingParams {
		t.Errorf("reason = %s, want %s", got.Reason, ReasonMissingParams)
	}
	if want := []string{"package"}; !reflect.DeepEqual(got.MissingParams, want) {
		t.Errorf("missing = %v, want %v", got.MissingParams, want)
	}
}

func TestDecideReuseOutranksMissingParams(t *testing.T) {
	// A reusable artifact wins even while required params are missing: the
	// existing playbook already carries them.
	engine, interp := newEngine(t)

	parsed := interp.Interpret("set up that monitoring thing we discussed as a package")
	records := []artifact.Record{{
		ID:        "1",
		Intent:    "install_package",
		Params:    map[string]string{},
		OSTarget:  intent.OSAll,
		CreatedAt: time.Now().Add(-time.Hour),
		Path:      "output/generic.yml",
	}}

	got := engine.Decide(parsed, records)
	if got.Kind != Reuse {
		t.Fatalf("kind = %s, want %s", got.Kind, Reuse)
	}
}

func TestDecideLLMForNonDeterministicIntent(t *testing.T) {
	engine, interp := newEngine(t)

	parsed := interp.Interpret("update config /etc/nginx/nginx.conf")
	if parsed.Intent != "update_config" {
		t.Fatalf("intent = %s, want update_config", parsed.Intent)
	}

	got := engine.Decide(parsed, nil)
	if got.Kind != GenerateLLM {
		t.Errorf("kind = %s, want %s", got.Kind, GenerateLLM)
	}
}
