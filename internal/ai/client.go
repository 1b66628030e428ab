// Package ai is the LLM fallback path for playbook generation. It is only
// consulted when the deterministic template generator cannot serve the
// request, so every response is treated as untrusted text that must be
// cleaned and validated before it becomes an artifact.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/viper"
	"google.golang.org/genai"
	"gopkg.in/yaml.v3"

	"github.com/opsmaestro/maestro/internal/intent"
)

// Default Ollama endpoint and model, used when ai.providers.ollama is not
// configured. Local generation is the default provider so the tool works
// without any API key.
const (
	defaultOllamaURL   = "http://localhost:11434"
	defaultOllamaModel = "llama3.1:8b"
)

type ollamaRequest struct {
	Model   string        `json:"model"`
	Prompt  string        `json:"prompt"`
	Stream  bool          `json:"stream"`
	Options ollamaOptions `json:"options"`
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature"`
}

type ollamaResponse struct {
	Response string `json:"response"`
}

type openAIRequest struct {
	Model       string          `json:"model"`
	Messages    []openAIMessage `json:"messages"`
	Temperature float64         `json:"temperature,omitempty"`
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIResponse struct {
	Choices []struct {
		Message openAIMessage `json:"message"`
	} `json:"choices"`
}

type anthropicRequest struct {
	Model       string             `json:"model"`
	MaxTokens   int                `json:"max_tokens"`
	Temperature float64            `json:"temperature,omitempty"`
	Messages    []anthropicMessage `json:"messages"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

// Client talks to the configured AI provider.
type Client struct {
	provider     string
	apiKey       string
	baseURL      string
	model        string
	geminiClient *genai.Client
	httpClient   *http.Client
	debug        bool
}

func looksLikeEnvVarName(s string) bool {
	s = strings.TrimSpace(s)
	if len(s) < 8 {
		return false
	}
	// Must be all caps/underscores/digits and start with a letter.
	for i, r := range s {
		if i == 0 {
			if r < 'A' || r > 'Z' {
				return false
			}
			continue
		}
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_' {
			continue
		}
		return false
	}
	return true
}

// resolveEnvVarKeyPointer lets config store an env var NAME instead of the
// secret itself: a value that looks like OPENAI_API_KEY is dereferenced
// through the environment.
func resolveEnvVarKeyPointer(apiKey string) string {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return ""
	}
	if !looksLikeEnvVarName(apiKey) {
		return apiKey
	}
	if v := strings.TrimSpace(os.Getenv(apiKey)); v != "" {
		return v
	}
	return apiKey
}

// NewClient builds a client for the named provider. Empty provider falls
// back to ai.default_provider from config, then to ollama.
func NewClient(provider, apiKey string, debug bool) *Client {
	if provider == "" {
		provider = viper.GetString("ai.default_provider")
	}
	if provider == "" {
		provider = "ollama"
	}
	if apiKey == "" {
		apiKey = viper.GetString(fmt.Sprintf("ai.providers.%s.api_key", provider))
	}

	client := &Client{
		provider:   provider,
		apiKey:     resolveEnvVarKeyPointer(apiKey),
		model:      viper.GetString(fmt.Sprintf("ai.providers.%s.model", provider)),
		httpClient: &http.Client{},
		debug:      debug,
	}

	switch provider {
	case "ollama":
		client.baseURL = viper.GetString("ai.providers.ollama.base_url")
		if client.baseURL == "" {
			client.baseURL = defaultOllamaURL
		}
		if client.model == "" {
			client.model = defaultOllamaModel
		}
	case "gemini":
		// Uses Application Default Credentials, like the gemini CLI.
		// User should run: gcloud auth application-default login
		ctx := context.Background()
		geminiClient, err := genai.NewClient(ctx, &genai.ClientConfig{})
		if err == nil {
			client.geminiClient = geminiClient
		} else if debug {
			fmt.Printf("gemini client init failed: %v\n", err)
		}
		if client.model == "" {
			client.model = "gemini-2.0-flash"
		}
	case "gemini-api":
		ctx := context.Background()
		geminiClient, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey: client.apiKey,
		})
		if err == nil {
			client.geminiClient = geminiClient
		} else if debug {
			fmt.Printf("gemini client init failed: %v\n", err)
		}
		if client.model == "" {
			client.model = "gemini-2.0-flash"
		}
	case "openai":
		client.baseURL = "https://api.openai.com/v1"
		if client.model == "" {
			client.model = "gpt-4o-mini"
		}
	case "anthropic":
		client.baseURL = "https://api.anthropic.com/v1"
		if client.model == "" {
			client.model = "claude-sonnet-4-20250514"
		}
	default:
		// Unknown provider names degrade to the local default rather
		// than failing at construction time.
		client.provider = "ollama"
		client.baseURL = defaultOllamaURL
		if client.model == "" {
			client.model = defaultOllamaModel
		}
	}

	return client
}

// Provider returns the resolved provider name.
func (c *Client) Provider() string {
	return c.provider
}

// GeneratePlaybook asks the provider for an Ansible playbook serving the
// request. The returned text is fence-stripped, YAML-parsed, and re-rendered
// through the YAML encoder so that whitespace damage from the model does not
// survive into the artifact.
func (c *Client) GeneratePlaybook(ctx context.Context, request string, params map[string]string, osTarget intent.OSTarget) (string, error) {
	prompt := buildPlaybookPrompt(request, params, osTarget)
	if c.debug {
		fmt.Printf("prompt length: %d characters, provider: %s\n", len(prompt), c.provider)
	}

	raw, err := c.ask(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("playbook generation failed: %w", err)
	}

	cleaned := CleanYAMLResponse(raw)
	repaired, err := repairYAML(cleaned)
	if err != nil {
		return "", fmt.Errorf("model returned invalid YAML: %w", err)
	}
	return repaired, nil
}

func (c *Client) ask(ctx context.Context, prompt string) (string, error) {
	switch c.provider {
	case "ollama":
		return c.askOllama(ctx, prompt)
	case "gemini", "gemini-api":
		return c.askGemini(ctx, prompt)
	case "openai":
		return c.askOpenAI(ctx, prompt)
	case "anthropic":
		return c.askAnthropic(ctx, prompt)
	default:
		return c.askOllama(ctx, prompt)
	}
}

func buildPlaybookPrompt(request string, params map[string]string, osTarget intent.OSTarget) string {
	var prompt strings.Builder

	prompt.WriteString("You are an expert Ansible engineer. Generate a complete, production-ready Ansible playbook for the following request.\n\n")
	prompt.WriteString("Request: ")
	prompt.WriteString(request)
	prompt.WriteString("\n")

	if len(params) > 0 {
		prompt.WriteString("\nExtracted parameters:\n")
		for key, value := range params {
			fmt.Fprintf(&prompt, "- %s: %s\n", key, value)
		}
	}

	switch osTarget {
	case intent.OSDebianFamily:
		prompt.WriteString("\nTarget OS family: Debian/Ubuntu. Use apt and ufw.\n")
	case intent.OSRedHatFamily:
		prompt.WriteString("\nTarget OS family: RHEL/CentOS/Rocky. Use yum/dnf and firewalld.\n")
	case intent.OSFedora:
		prompt.WriteString("\nTarget OS family: Fedora. Use dnf and firewalld.\n")
	default:
		prompt.WriteString("\nTarget OS is not specified: make the playbook work on both Debian and RedHat families using 'when: ansible_os_family' conditionals.\n")
	}

	prompt.WriteString(`
Requirements:
- Target 'hosts: all' with 'become: true'
- Every task must have a descriptive name
- Tasks must be idempotent
- Use fully qualified collection names (ansible.builtin.*)
- Output ONLY the playbook YAML, starting with '---'. No prose, no markdown fences.`)

	return prompt.String()
}

func (c *Client) askOllama(ctx context.Context, prompt string) (string, error) {
	request := ollamaRequest{
		Model:   c.model,
		Prompt:  prompt,
		Stream:  false,
		Options: ollamaOptions{Temperature: 0.1},
	}

	jsonData, err := json.Marshal(request)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(c.baseURL, "/")+"/api/generate", bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("ollama is not reachable at %s: %w", c.baseURL, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("ollama request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var parsed ollamaResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if strings.TrimSpace(parsed.Response) == "" {
		return "", fmt.Errorf("no response content from ollama")
	}
	return parsed.Response, nil
}

func (c *Client) askGemini(ctx context.Context, prompt string) (string, error) {
	if c.geminiClient == nil {
		return "", fmt.Errorf("gemini client not initialized")
	}

	content := genai.NewContentFromText(prompt, genai.RoleUser)
	resp, err := c.geminiClient.Models.GenerateContent(ctx, c.model, []*genai.Content{content}, nil)
	if err != nil {
		return "", fmt.Errorf("failed to generate content with Gemini: %w", err)
	}
	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("no response candidates from Gemini")
	}

	var result strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part.Text != "" {
			result.WriteString(part.Text)
		}
	}
	return result.String(), nil
}

func (c *Client) askOpenAI(ctx context.Context, prompt string) (string, error) {
	if c.apiKey == "" {
		return "", fmt.Errorf("OpenAI API key not configured")
	}

	request := openAIRequest{
		Model:       c.model,
		Temperature: 0.1,
		Messages: []openAIMessage{
			{Role: "user", Content: prompt},
		},
	}

	jsonData, err := json.Marshal(request)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("OpenAI API request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var parsed openAIResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("no response from OpenAI")
	}
	return parsed.Choices[0].Message.Content, nil
}

func (c *Client) askAnthropic(ctx context.Context, prompt string) (string, error) {
	if strings.TrimSpace(c.apiKey) == "" {
		return "", fmt.Errorf("Anthropic API key not configured")
	}

	request := anthropicRequest{
		Model:       c.model,
		MaxTokens:   4000,
		Temperature: 0.1,
		Messages: []anthropicMessage{
			{Role: "user", Content: prompt},
		},
	}

	jsonData, err := json.Marshal(request)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(c.baseURL, "/")+"/messages", bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", strings.TrimSpace(c.apiKey))
	req.Header.Set("anthropic-version", "2023-06-01")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("Anthropic API request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var parsed anthropicResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("failed to unmarshal response: %w", err)
	}
	for _, block := range parsed.Content {
		if strings.TrimSpace(block.Text) != "" {
			return block.Text, nil
		}
	}
	return "", fmt.Errorf("no response content from Anthropic")
}

// CleanYAMLResponse strips markdown code fences and any prose the model
// emitted before the document marker, and guarantees a leading '---'.
func CleanYAMLResponse(response string) string {
	s := strings.ReplaceAll(response, "\r\n", "\n")
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	for _, ln := range lines {
		if strings.HasPrefix(strings.TrimSpace(ln), "```") {
			continue
		}
		out = append(out, ln)
	}
	s = strings.TrimSpace(strings.Join(out, "\n"))

	// Models sometimes preface the document with commentary. Everything
	// before the first document marker is noise.
	if idx := strings.Index(s, "---"); idx > 0 {
		s = s[idx:]
	}

	if s != "" && !strings.HasPrefix(s, "---") {
		s = "---\n" + s
	}
	return s
}

// repairYAML round-trips the text through the YAML decoder and encoder.
// Parsing rejects structurally broken output; re-encoding normalizes the
// indentation the model chose.
func repairYAML(text string) (string, error) {
	var doc []any
	if err := yaml.Unmarshal([]byte(text), &doc); err != nil {
		return "", err
	}
	if len(doc) == 0 {
		return "", fmt.Errorf("playbook has no plays")
	}

	var buf bytes.Buffer
	buf.WriteString("---\n")
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return "", fmt.Errorf("failed to re-encode playbook: %w", err)
	}
	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("failed to re-encode playbook: %w", err)
	}
	return buf.String(), nil
}
