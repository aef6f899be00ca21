package openai

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/joseph-ayodele/finreport-extractor/internal/llm"
)

// Complete sends a single user message to chat/completions and returns the first choice.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	body := map[string]any{
		"model":       c.cfg.Model,
		"temperature": c.cfg.Temperature,
		"messages": []map[string]any{
			{"role": "user", "content": prompt},
		},
	}
	if c.cfg.JSONMode {
		body["response_format"] = map[string]any{"type": "json_object"}
	}

	headers := map[string]string{}
	if c.cfg.APIKey != "" {
		headers["Authorization"] = "Bearer " + c.cfg.APIKey
	}

	raw, _, err := llm.SendJSON(ctx, c.http, c.cfg.BaseURL+"/chat/completions", body, headers, c.logger)
	if err != nil {
		return "", fmt.Errorf("openai chat: %w", err)
	}

	var cc struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &cc); err != nil {
		c.logger.Error("llm.openai.decode_error", "error", err, "raw_bytes", len(raw))
		return "", fmt.Errorf("%w: decode openai response: %w", llm.ErrTransport, err)
	}
	if len(cc.Choices) == 0 {
		c.logger.Error("llm.openai.no_choices", "raw", string(raw))
		return "", fmt.Errorf("%w: no choices in openai response", llm.ErrTransport)
	}
	return cc.Choices[0].Message.Content, nil
}
