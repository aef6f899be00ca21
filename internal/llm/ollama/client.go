package ollama

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/joseph-ayodele/finreport-extractor/internal/llm"
)

const (
	DefaultHost  = "http://localhost:11434"
	DefaultModel = "llama3.1"
	chatEndpoint = "/api/chat"
)

// Config for the Ollama client.
type Config struct {
	Host    string        // default http://localhost:11434
	Model   string        // default llama3.1
	Timeout time.Duration // http client timeout; 0 leaves it to the caller's context
}

// Client implements llm.TextCompleter over the Ollama chat API.
type Client struct {
	cfg    Config
	http   *http.Client
	logger *slog.Logger
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
}

type chatResponse struct {
	Message chatMessage `json:"message"`
	Error   string      `json:"error"`
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.Host == "" {
		cfg.Host = DefaultHost
	}
	cfg.Host = strings.TrimRight(cfg.Host, "/")
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

// Complete sends prompt as a single user message and returns message.content.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	body := chatRequest{
		Model:    c.cfg.Model,
		Messages: []chatMessage{{Role: "user", Content: prompt}},
		Stream:   false,
	}

	raw, _, err := llm.SendJSON(ctx, c.http, c.cfg.Host+chatEndpoint, body, nil, c.logger)
	if err != nil {
		return "", fmt.Errorf("ollama chat: %w", err)
	}

	var out chatResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("%w: decode ollama response: %w", llm.ErrTransport, err)
	}
	if out.Error != "" {
		return "", fmt.Errorf("%w: ollama: %s", llm.ErrTransport, out.Error)
	}
	c.logger.Debug("llm.ollama.complete", "model", c.cfg.Model, "reply_len", len(out.Message.Content))
	return out.Message.Content, nil
}
