// Package ai holds the narrow clients for the generative collaborators:
// the language model producing scripts and the speech synthesizer
// producing audio. Both surface failures as podcast.ExternalError kinds;
// transport status codes never leak past this package.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"castforge/internal/podcast"
)

// ScriptRequest carries everything the language model needs to write a
// podcast script.
type ScriptRequest struct {
	Format       string
	Title        string
	Instructions string
	HostName     string
	CohostName   string
	Documents    []string
}

type ScriptSegment struct {
	Speaker string `json:"speaker"`
	Text    string `json:"text"`
}

// ScriptResult is the structured model output plus the exact prompts that
// produced it, kept for the audit record.
type ScriptResult struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Summary     string          `json:"summary"`
	Tags        []string        `json:"tags"`
	Segments    []ScriptSegment `json:"segments"`

	SystemPrompt string `json:"-"`
	UserPrompt   string `json:"-"`
	Model        string `json:"-"`
}

// ScriptGenerator is the language-model collaborator contract.
type ScriptGenerator interface {
	GenerateScript(ctx context.Context, req ScriptRequest) (*ScriptResult, error)
}

// LLMOptions configures the OpenAI-compatible chat completions client.
type LLMOptions struct {
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float64
}

type LLMClient struct {
	log        *zap.SugaredLogger
	baseURL    string
	apiKey     string
	model      string
	temp       float64
	httpClient *http.Client
}

func NewLLMClient(log *zap.SugaredLogger, opts LLMOptions) *LLMClient {
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.openai.com"
	}
	return &LLMClient{
		log:        log,
		baseURL:    baseURL,
		apiKey:     opts.APIKey,
		model:      opts.Model,
		temp:       opts.Temperature,
		httpClient: &http.Client{Timeout: 120 * time.Second},
	}
}

// scriptSchema is the fixed output schema for script generation.
var scriptSchema = map[string]interface{}{
	"type":                 "object",
	"additionalProperties": false,
	"required":             []string{"title", "description", "summary", "tags", "segments"},
	"properties": map[string]interface{}{
		"title":       map[string]interface{}{"type": "string"},
		"description": map[string]interface{}{"type": "string"},
		"summary":     map[string]interface{}{"type": "string"},
		"tags": map[string]interface{}{
			"type":  "array",
			"items": map[string]interface{}{"type": "string"},
		},
		"segments": map[string]interface{}{
			"type": "array",
			"items": map[string]interface{}{
				"type":                 "object",
				"additionalProperties": false,
				"required":             []string{"speaker", "text"},
				"properties": map[string]interface{}{
					"speaker": map[string]interface{}{"type": "string"},
					"text":    map[string]interface{}{"type": "string"},
				},
			},
		},
	},
}

type chatRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	Temperature    float64       `json:"temperature"`
	ResponseFormat interface{}   `json:"response_format"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (c *LLMClient) GenerateScript(ctx context.Context, req ScriptRequest) (*ScriptResult, error) {
	system := buildSystemPrompt(req)
	user := buildUserPrompt(req)

	body := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature: c.temp,
		ResponseFormat: map[string]interface{}{
			"type": "json_schema",
			"json_schema": map[string]interface{}{
				"name":   "podcast_script",
				"strict": true,
				"schema": scriptSchema,
			},
		},
	}

	raw, err := c.post(ctx, "/v1/chat/completions", body)
	if err != nil {
		return nil, err
	}

	var resp chatResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, externalErr(podcast.ExternalUnavailable, "llm", fmt.Errorf("decode response: %w", err))
	}
	if len(resp.Choices) == 0 {
		return nil, externalErr(podcast.ExternalUnavailable, "llm", fmt.Errorf("empty choices"))
	}

	result := &ScriptResult{}
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), result); err != nil {
		return nil, externalErr(podcast.ExternalUnavailable, "llm", fmt.Errorf("decode script: %w", err))
	}
	result.SystemPrompt = system
	result.UserPrompt = user
	result.Model = c.model
	return result, nil
}

func (c *LLMClient) post(ctx context.Context, path string, body interface{}) ([]byte, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, externalErr(podcast.ExternalUnavailable, "llm", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, externalErr(podcast.ExternalUnavailable, "llm", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, externalErr(podcast.ExternalRateLimited, "llm", httpError(resp.StatusCode, raw))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.log.Warnw("llm request failed", "status", resp.StatusCode, "body", truncate(raw, 512))
		return nil, externalErr(podcast.ExternalUnavailable, "llm", httpError(resp.StatusCode, raw))
	}
	return raw, nil
}

func buildSystemPrompt(req ScriptRequest) string {
	var b strings.Builder
	b.WriteString("You are a podcast script writer. ")
	switch req.Format {
	case "voice_over":
		b.WriteString("Write a single-narrator voice-over script. Use one speaker.")
	default:
		fmt.Fprintf(&b, "Write a two-person conversation between %s and %s.",
			speakerOrDefault(req.HostName, "the host"),
			speakerOrDefault(req.CohostName, "the co-host"))
	}
	b.WriteString(" Respond with the structured script only.")
	return b.String()
}

func buildUserPrompt(req ScriptRequest) string {
	var b strings.Builder
	if req.Title != "" {
		fmt.Fprintf(&b, "Working title: %s\n\n", req.Title)
	}
	if req.Instructions != "" {
		fmt.Fprintf(&b, "Instructions:\n%s\n\n", req.Instructions)
	}
	if len(req.Documents) > 0 {
		b.WriteString("Source material:\n")
		for i, doc := range req.Documents {
			fmt.Fprintf(&b, "--- document %d ---\n%s\n", i+1, doc)
		}
	}
	if b.Len() == 0 {
		b.WriteString("Write an engaging short episode on a topic of your choice.")
	}
	return b.String()
}

func speakerOrDefault(name, fallback string) string {
	if name != "" {
		return name
	}
	return fallback
}

func externalErr(kind podcast.ExternalErrorKind, service string, err error) error {
	return &podcast.ExternalError{Kind: kind, Service: service, Err: err}
}

func httpError(status int, body []byte) error {
	return fmt.Errorf("unexpected status %d: %s", status, truncate(body, 256))
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
