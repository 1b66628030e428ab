// Package concert triggers downstream execution workflows for generated
// playbooks. Simulation mode is the default so maestro works without a
// Concert deployment; real triggers POST to the configured API.
package concert

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Defaults used when concert.* config keys are absent.
const (
	DefaultAPIURL       = "https://concert.ibm.com/api/v1"
	DefaultWorkflowName = "ansible-execution"
)

// TriggerResult is the outcome of a workflow trigger.
type TriggerResult struct {
	WorkflowID   string            `json:"workflow_id"`
	WorkflowName string            `json:"workflow_name"`
	Status       string            `json:"status"`
	Playbook     string            `json:"playbook"`
	Timestamp    time.Time         `json:"timestamp"`
	Simulated    bool              `json:"simulated"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}

type triggerRequest struct {
	WorkflowName string            `json:"workflow_name"`
	Playbook     string            `json:"playbook"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}

type triggerResponse struct {
	WorkflowID string `json:"workflow_id"`
	Status     string `json:"status"`
}

// Client triggers workflows against the Concert API.
type Client struct {
	apiURL       string
	apiToken     string
	workflowName string
	simulation   bool
	enabled      bool
	httpClient   *http.Client
	now          func() time.Time
}

// Option configures a Client.
type Option func(*Client)

// WithSimulation toggles simulation mode.
func WithSimulation(on bool) Option {
	return func(c *Client) { c.simulation = on }
}

// WithEnabled toggles triggering entirely. Disabled clients report skipped
// triggers instead of erroring, so the pipeline does not care.
func WithEnabled(on bool) Option {
	return func(c *Client) { c.enabled = on }
}

// WithToken sets the bearer token for real API calls.
func WithToken(token string) Option {
	return func(c *Client) { c.apiToken = token }
}

// WithWorkflowName overrides the default workflow name.
func WithWorkflowName(name string) Option {
	return func(c *Client) {
		if name != "" {
			c.workflowName = name
		}
	}
}

// NewClient builds a client. Simulation mode and enabled both default to
// true.
func NewClient(apiURL string, opts ...Option) *Client {
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}
	c := &Client{
		apiURL:       apiURL,
		workflowName: DefaultWorkflowName,
		simulation:   true,
		enabled:      true,
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// TriggerWorkflow requests execution of the playbook. A nil result with a
// nil error means triggering is disabled.
func (c *Client) TriggerWorkflow(ctx context.Context, playbookPath string, metadata map[string]string) (*TriggerResult, error) {
	if !c.enabled {
		return nil, nil
	}
	if c.simulation {
		return c.simulateTrigger(playbookPath, metadata), nil
	}
	return c.realTrigger(ctx, playbookPath, metadata)
}

func (c *Client) simulateTrigger(playbookPath string, metadata map[string]string) *TriggerResult {
	return &TriggerResult{
		WorkflowID:   "wf-" + uuid.NewString(),
		WorkflowName: c.workflowName,
		Status:       "triggered",
		Playbook:     playbookPath,
		Timestamp:    c.now(),
		Simulated:    true,
		Metadata:     metadata,
	}
}

func (c *Client) realTrigger(ctx context.Context, playbookPath string, metadata map[string]string) (*TriggerResult, error) {
	body, err := json.Marshal(triggerRequest{
		WorkflowName: c.workflowName,
		Playbook:     playbookPath,
		Metadata:     metadata,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal trigger request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(c.apiURL, "/")+"/workflows/trigger", bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("concert API unreachable: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		return nil, fmt.Errorf("concert API request failed with status %d: %s", resp.StatusCode, string(respBody))
	}

	var parsed triggerResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if parsed.WorkflowID == "" {
		parsed.WorkflowID = "wf-" + uuid.NewString()
	}
	if parsed.Status == "" {
		parsed.Status = "triggered"
	}

	return &TriggerResult{
		WorkflowID:   parsed.WorkflowID,
		WorkflowName: c.workflowName,
		Status:       parsed.Status,
		Playbook:     playbookPath,
		Timestamp:    c.now(),
		Metadata:     metadata,
	}, nil
}
