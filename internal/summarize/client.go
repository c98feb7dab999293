package summarize

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const defaultSystemPrompt = "You condense raw text recognized from a user's screen into a short, " +
	"readable summary of what they were reviewing. Reply with the summary only, " +
	"as one or two plain sentences."

// ClientConfig configures the chat-completions summarizer.
type ClientConfig struct {
	// BaseURL is the server root; the client appends /v1/chat/completions.
	// Default: http://127.0.0.1:8000.
	BaseURL string
	// Model is the served model name. Default: facebook/bart-large-cnn.
	Model string
	// MaxTokens caps the completion length. Default: 150.
	MaxTokens int
	// Temperature for sampling. Default 0: deterministic output.
	Temperature float32
	// MaxInput caps the input in runes before sending; 0 means unlimited.
	// The head is kept: older activity frames the window.
	MaxInput int
	// SystemPrompt overrides the built-in condensation instruction.
	SystemPrompt string
	// HTTPTimeout is the transport-level timeout, a backstop behind the
	// per-call context deadline. Default: 120s.
	HTTPTimeout time.Duration
	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

func (c *ClientConfig) defaults() {
	if c.BaseURL == "" {
		c.BaseURL = "http://127.0.0.1:8000"
	}
	if c.Model == "" {
		c.Model = "facebook/bart-large-cnn"
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = 150
	}
	if c.SystemPrompt == "" {
		c.SystemPrompt = defaultSystemPrompt
	}
	if c.HTTPTimeout <= 0 {
		c.HTTPTimeout = 120 * time.Second
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Client summarizes through an OpenAI-compatible chat-completions endpoint
// (vLLM, llama.cpp server, and friends speak the same dialect).
type Client struct {
	cfg    ClientConfig
	client *http.Client
}

// NewClient builds the production summarizer.
func NewClient(cfg ClientConfig) *Client {
	cfg.defaults()
	return &Client{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.HTTPTimeout},
	}
}

func (c *Client) Name() string { return "chat_completions" }

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float32       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	ID      string       `json:"id"`
	Model   string       `json:"model"`
	Choices []chatChoice `json:"choices"`
	Usage   chatUsage    `json:"usage"`
}

type chatChoice struct {
	Index        int         `json:"index"`
	Message      chatMessage `json:"message"`
	FinishReason string      `json:"finish_reason"`
}

type chatUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Summarize sends the accumulated text and returns the model's condensed
// reply. Non-200 responses and empty completions are failures.
func (c *Client) Summarize(ctx context.Context, text string) (string, error) {
	text = c.capInput(text)

	reqJSON, err := json.Marshal(chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: c.cfg.SystemPrompt},
			{Role: "user", Content: text},
		},
		MaxTokens:   c.cfg.MaxTokens,
		Temperature: c.cfg.Temperature,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.cfg.BaseURL+"/v1/chat/completions", bytes.NewReader(reqJSON))
	if err != nil {
		return "", fmt.Errorf("create http request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	c.cfg.Logger.Debug("summarize: sending request",
		"url", c.cfg.BaseURL,
		"payload_size", len(reqJSON))

	startTime := time.Now()
	resp, err := c.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	duration := time.Since(startTime)

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		c.cfg.Logger.Error("summarize: server error",
			"status", resp.StatusCode,
			"body", string(body),
			"duration", duration)
		return "", fmt.Errorf("summarizer returned status %d: %s", resp.StatusCode, string(body))
	}

	var chatResp chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(chatResp.Choices) == 0 {
		return "", fmt.Errorf("summarizer returned no choices")
	}

	summary := strings.TrimSpace(chatResp.Choices[0].Message.Content)
	if summary == "" {
		return "", fmt.Errorf("summarizer returned empty completion")
	}

	c.cfg.Logger.Debug("summarize: response received",
		"duration", duration,
		"tokens", chatResp.Usage.TotalTokens,
		"finish_reason", chatResp.Choices[0].FinishReason)

	return summary, nil
}

func (c *Client) capInput(text string) string {
	if c.cfg.MaxInput <= 0 {
		return text
	}
	runes := []rune(text)
	if len(runes) <= c.cfg.MaxInput {
		return text
	}
	return string(runes[:c.cfg.MaxInput])
}
