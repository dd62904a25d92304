package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ppiankov/canisense/internal/log"
)

const (
	defaultOllamaURL     = "http://localhost:11434"
	defaultOllamaTimeout = 60 * time.Second
)

// OllamaProvider narrates with a local model through Ollama's chat endpoint
type OllamaProvider struct {
	baseURL string
	client  *http.Client
	config  Config
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaChatRequest struct {
	Model     string         `json:"model"`
	Messages  []chatMessage  `json:"messages"`
	Stream    bool           `json:"stream"`
	KeepAlive string         `json:"keep_alive,omitempty"`
	Options   map[string]any `json:"options,omitempty"`
}

type ollamaChatResponse struct {
	Model           string      `json:"model"`
	Message         chatMessage `json:"message"`
	Done            bool        `json:"done"`
	PromptEvalCount int         `json:"prompt_eval_count"`
	EvalCount       int         `json:"eval_count"`
	Error           string      `json:"error"`
}

// NewOllamaProvider creates an Ollama provider. Local models load slowly,
// so the default timeout is longer than the hosted one.
func NewOllamaProvider(config Config) (*OllamaProvider, error) {
	baseURL := strings.TrimSuffix(config.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultOllamaURL
	}
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = defaultOllamaTimeout
	}

	return &OllamaProvider{
		baseURL: baseURL,
		client: &http.Client{
			Timeout:   timeout,
			Transport: &http.Transport{Proxy: http.ProxyFromEnvironment},
		},
		config: config,
	}, nil
}

func (p *OllamaProvider) Name() string {
	return "ollama"
}

// IsAvailable reports whether the Ollama daemon answers
func (p *OllamaProvider) IsAvailable(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/api/tags", nil)
	if err != nil {
		return false
	}
	resp, err := p.client.Do(req)
	if err != nil {
		log.Warn("Ollama not reachable", "url", p.baseURL, "error", err)
		return false
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		log.Warn("Ollama not ready", "url", p.baseURL, "status", resp.StatusCode)
		return false
	}
	return true
}

// Narrate rewords the report with a single non-streaming chat turn
func (p *OllamaProvider) Narrate(ctx context.Context, req NarrateRequest) (*NarrateResponse, error) {
	model := firstNonEmpty(req.Model, p.config.Model)
	if model == "" {
		return nil, errors.New("ollama model must be specified (e.g., llama3.1:8b, mistral)")
	}
	prompt := req.Prompt
	if prompt == "" {
		prompt = BuildPrompt(req.Report)
	}
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = p.config.MaxTokens
	}
	if maxTokens <= 0 {
		maxTokens = 300
	}

	out, err := p.chat(ctx, ollamaChatRequest{
		Model: model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
		KeepAlive: "5m",
		Options: map[string]any{
			"temperature": 0.3,
			"num_predict": maxTokens,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("ollama: %w", err)
	}

	text := strings.TrimSpace(out.Message.Content)
	if err := checkNarrative(text, req.Report.Interpretation.SyntheticState); err != nil {
		return nil, err
	}

	tokens := out.PromptEvalCount + out.EvalCount
	if tokens == 0 {
		// roughly four characters per token
		tokens = (len(prompt) + len(text)) / 4
	}
	return &NarrateResponse{Text: text, Model: out.Model, TokensUsed: tokens}, nil
}

func (p *OllamaProvider) chat(ctx context.Context, body ollamaChatRequest) (*ollamaChatResponse, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/api/chat", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var out ollamaChatResponse
	decodeErr := json.Unmarshal(raw, &out)
	if resp.StatusCode != http.StatusOK {
		if decodeErr == nil && out.Error != "" {
			return nil, fmt.Errorf("status %d: %s", resp.StatusCode, out.Error)
		}
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("unmarshal response: %w", decodeErr)
	}
	return &out, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
