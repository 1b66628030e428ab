package match

import (
	"math"
	"testing"
	"time"

	"github.com/opsmaestro/maestro/internal/artifact"
	"github.com/opsmaestro/maestro/internal/intent"
)

func parsedRequest(name string, os intent.OSTarget, params map[string]string) intent.ParsedRequest {
	return intent.ParsedRequest{
		RawText:    "test",
		Intent:     name,
		Confidence: 1,
		Params:     params,
		OSTarget:   os,
	}
}

func record(name string, os intent.OSTarget, params map[string]string, created time.Time, path string) artifact.Record {
	return artifact.Record{
		ID:        path,
		Intent:    name,
		Params:    params,
		OSTarget:  os,
		CreatedAt: created,
		Path:      path,
	}
}

func TestRankScores(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	nginx := map[string]string{"package": "nginx"}

	tests := []struct {
		name      string
		parsed    intent.ParsedRequest
		rec       artifact.Record
		wantScore float64
	}{
		{
			name:      "identical artifact scores exactly one",
			parsed:    parsedRequest("install_package", intent.OSDebianFamily, nginx),
			rec:       record("install_package", intent.OSDebianFamily, nginx, now, "a.yml"),
			wantScore: 1.0,
		},
		{
			name:      "differing specified os loses the os contribution",
			parsed:    parsedRequest("install_package", intent.OSDebianFamily, nginx),
			rec:       record("install_package", intent.OSRedHatFamily, nginx, now, "a.yml"),
			wantScore: 0.8,
		},
		{
			name:      "unspecified request os is wildcard compatible",
			parsed:    parsedRequest("install_package", intent.OSUnspecified, nginx),
			rec:       record("install_package", intent.OSRedHatFamily, nginx, now, "a.yml"),
			wantScore: 1.0,
		},
		{
			name:      "all on the artifact side is wildcard compatible",
			parsed:    parsedRequest("install_package", intent.OSFedora, nginx),
			rec:       record("install_package", intent.OSAll, nginx, now, "a.yml"),
			wantScore: 1.0,
		},
		{
			name:      "disjoint params keep only intent and os",
			parsed:    parsedRequest("install_package", intent.OSDebianFamily, nginx),
			rec:       record("install_package", intent.OSDebianFamily, map[string]string{"package": "mysql"}, now, "a.yml"),
			wantScore: 0.7,
		},
		{
			name:   "partial param overlap",
			parsed: parsedRequest("configure_firewall", intent.OSDebianFamily, map[string]string{"port": "8080", "protocol": "tcp"}),
			rec: record("configure_firewall", intent.OSDebianFamily,
				map[string]string{"port": "8080"}, now, "a.yml"),
			wantScore: 0.5 + 0.2 + 0.3*0.5,
		},
		{
			name:      "both param sets empty counts as identical",
			parsed:    parsedRequest("restart_service", intent.OSAll, nil),
			rec:       record("restart_service", intent.OSAll, nil, now, "a.yml"),
			wantScore: 1.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results := Rank(tt.parsed, []artifact.Record{tt.rec})
			if len(results) != 1 {
				t.Fatalf("got %d results, want 1", len(results))
			}
			if math.Abs(results[0].Score-tt.wantScore) > 1e-9 {
				t.Errorf("score = %v, want %v", results[0].Score, tt.wantScore)
			}
		})
	}
}

func TestRankExcludesOtherIntents(t *testing.T) {
	// An artifact for a different operation is filtered before scoring,
	// not surfaced with a penalty.
	parsed := parsedRequest("install_package", intent.OSDebianFamily, map[string]string{"package": "nginx"})
	records := []artifact.Record{
		record("restart_service", intent.OSDebianFamily, map[string]string{"package": "nginx"}, time.Now(), "other.yml"),
	}

	if results := Rank(parsed, records); len(results) != 0 {
		t.Errorf("cross-intent artifact surfaced: %+v", results)
	}
}

func TestRankTotalOrder(t *testing.T) {
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	nginx := map[string]string{"package": "nginx"}
	parsed := parsedRequest("install_package", intent.OSDebianFamily, nginx)

	records := []artifact.Record{
		record("install_package", intent.OSDebianFamily, nginx, base, "b.yml"),
		record("install_package", intent.OSDebianFamily, nginx, base.Add(time.Hour), "c.yml"),
		record("install_package", intent.OSDebianFamily, nginx, base, "a.yml"),
		record("install_package", intent.OSRedHatFamily, nginx, base.Add(2*time.Hour), "d.yml"),
	}

	results := Rank(parsed, records)
	if len(results) != 4 {
		t.Fatalf("got %d results, want 4", len(results))
	}

	// Equal scores order by most recent first, then by path; the lower score
	// sorts last regardless of being newest.
	wantOrder := []string{"c.yml", "a.yml", "b.yml", "d.yml"}
	for i, want := range wantOrder {
		if results[i].Artifact.Path != want {
			t.Errorf("results[%d] = %s, want %s", i, results[i].Artifact.Path, want)
		}
	}

	for i := 1; i < len(results); i++ {
		if results[i].Score > results[i-1].Score {
			t.Errorf("results not ordered by score at %d", i)
		}
	}
}
