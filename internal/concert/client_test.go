package concert

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestTriggerWorkflowDisabled(t *testing.T) {
	c := NewClient("", WithEnabled(false))
	result, err := c.TriggerWorkflow(context.Background(), "playbooks/install.yml", nil)
	if err != nil {
		t.Fatalf("TriggerWorkflow: %v", err)
	}
	if result != nil {
		t.Errorf("disabled client returned a result: %+v", result)
	}
}

func TestTriggerWorkflowSimulated(t *testing.T) {
	c := NewClient("", WithWorkflowName("custom-flow"))
	result, err := c.TriggerWorkflow(context.Background(), "playbooks/install.yml", map[string]string{"intent": "install_package"})
	if err != nil {
		t.Fatalf("TriggerWorkflow: %v", err)
	}
	if !result.Simulated {
		t.Error("Simulated = false, want true")
	}
	if !strings.HasPrefix(result.WorkflowID, "wf-") {
		t.Errorf("WorkflowID = %q, want wf- prefix", result.WorkflowID)
	}
	if result.WorkflowName != "custom-flow" {
		t.Errorf("WorkflowName = %q", result.WorkflowName)
	}
	if result.Status != "triggered" {
		t.Errorf("Status = %q", result.Status)
	}
	if result.Metadata["intent"] != "install_package" {
		t.Errorf("metadata not carried through: %+v", result.Metadata)
	}
}

func TestTriggerWorkflowReal(t *testing.T) {
	var gotAuth string
	var gotReq triggerRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/workflows/trigger" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(triggerResponse{WorkflowID: "wf-remote-1", Status: "queued"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, WithSimulation(false), WithToken("tok-123"))
	result, err := c.TriggerWorkflow(context.Background(), "playbooks/install.yml", nil)
	if err != nil {
		t.Fatalf("TriggerWorkflow: %v", err)
	}
	if gotAuth != "Bearer tok-123" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if gotReq.Playbook != "playbooks/install.yml" {
		t.Errorf("request playbook = %q", gotReq.Playbook)
	}
	if result.WorkflowID != "wf-remote-1" || result.Status != "queued" {
		t.Errorf("unexpected result: %+v", result)
	}
	if result.Simulated {
		t.Error("real trigger marked simulated")
	}
}

func TestTriggerWorkflowRealServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, WithSimulation(false))
	if _, err := c.TriggerWorkflow(context.Background(), "playbooks/install.yml", nil); err == nil {
		t.Error("expected error on server failure")
	}
}
