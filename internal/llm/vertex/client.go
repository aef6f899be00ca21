package vertex

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"cloud.google.com/go/vertexai/genai"

	"github.com/joseph-ayodele/finreport-extractor/internal/llm"
)

const DefaultModel = "gemini-1.5-pro"

// Config for the Vertex AI client.
type Config struct {
	ProjectID   string
	Location    string // e.g. us-central1
	Model       string
	Temperature float32
}

type generator interface {
	GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

// Client implements llm.TextCompleter over a Gemini model on Vertex AI.
type Client struct {
	model  generator
	base   *genai.Client
	name   string
	logger *slog.Logger
}

// NewClient dials Vertex AI with application default credentials.
func NewClient(ctx context.Context, cfg Config, logger *slog.Logger) (*Client, error) {
	if cfg.ProjectID == "" || cfg.Location == "" {
		return nil, fmt.Errorf("vertex: project and location cannot be empty")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if logger == nil {
		logger = slog.Default()
	}

	base, err := genai.NewClient(ctx, cfg.ProjectID, cfg.Location)
	if err != nil {
		return nil, fmt.Errorf("genai.NewClient: %w", err)
	}
	m := base.GenerativeModel(cfg.Model)
	m.SetTemperature(cfg.Temperature)

	return &Client{model: m, base: base, name: cfg.Model, logger: logger}, nil
}

// Complete sends prompt as a single text part and concatenates the text parts of the first candidate.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := c.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		c.logger.Error("llm.vertex.generate_error", "model", c.name, "error", err)
		return "", fmt.Errorf("%w: vertex generate: %w", llm.ErrTransport, err)
	}
	return responseText(resp), nil
}

func (c *Client) Close() error {
	if c.base != nil {
		return c.base.Close()
	}
	return nil
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			b.WriteString(string(txt))
		}
	}
	return b.String()
}
