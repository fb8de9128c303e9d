package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"hook-screener/shared/config"

	"google.golang.org/genai"
)

// generator is the part of the Gemini client the analyzers use.
type generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Client wraps one Gemini model for the screening prompts.
type Client struct {
	gen   generator
	model string
}

func NewClient(ctx context.Context, cfg config.AIConfig) (*Client, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &Client{gen: client.Models, model: cfg.Model}, nil
}

func (c *Client) Model() string { return c.model }

func (c *Client) generate(ctx context.Context, jsonOutput bool, parts ...*genai.Part) (string, error) {
	contents := []*genai.Content{
		genai.NewContentFromParts(parts, genai.RoleUser),
	}

	cfg := &genai.GenerateContentConfig{Temperature: genai.Ptr[float32](0.1)}
	if jsonOutput {
		cfg.ResponseMIMEType = "application/json"
	}

	result, err := c.gen.GenerateContent(ctx, c.model, contents, cfg)
	if err != nil {
		return "", err
	}
	if result == nil {
		return "", fmt.Errorf("empty response from %s", c.model)
	}
	return strings.TrimSpace(result.Text()), nil
}

// generateJSON runs the prompt and decodes the JSON object in the answer into v.
func (c *Client) generateJSON(ctx context.Context, v any, parts ...*genai.Part) error {
	text, err := c.generate(ctx, true, parts...)
	if err != nil {
		return err
	}
	if text == "" {
		return fmt.Errorf("empty response from %s, possibly filtered", c.model)
	}
	return decodeResponse(text, v)
}

func decodeResponse(response string, v any) error {
	startIdx := strings.Index(response, "{")
	endIdx := strings.LastIndex(response, "}")
	if startIdx == -1 || endIdx < startIdx {
		return fmt.Errorf("no JSON found in response: %s", response)
	}
	jsonStr := response[startIdx : endIdx+1]

	if err := json.Unmarshal([]byte(jsonStr), v); err != nil {
		sanitized := sanitizeJSON(jsonStr)
		if sanitizedErr := json.Unmarshal([]byte(sanitized), v); sanitizedErr != nil {
			return fmt.Errorf("failed to unmarshal JSON '%s': %w (sanitized version also failed: %v)", jsonStr, err, sanitizedErr)
		}
		slog.Warn("Had to sanitize malformed JSON response")
	}
	return nil
}

// sanitizeJSON escapes stray quotes inside string values, one key per line.
func sanitizeJSON(jsonStr string) string {
	lines := strings.Split(jsonStr, "\n")
	var sanitizedLines []string

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		colonIdx := strings.Index(line, ":")
		if colonIdx != -1 && strings.Contains(line, "\"") {
			beforeColon := line[:colonIdx+1]
			afterColon := strings.TrimSpace(line[colonIdx+1:])

			if strings.HasPrefix(afterColon, "\"") {
				if lastQuoteIdx := strings.LastIndex(afterColon, "\""); lastQuoteIdx > 0 {
					content := strings.ReplaceAll(afterColon[1:lastQuoteIdx], "\\\"", "\"")
					content = strings.ReplaceAll(content, "\"", "\\\"")
					line = beforeColon + " \"" + content + "\"" + afterColon[lastQuoteIdx+1:]
				}
			}
		}

		sanitizedLines = append(sanitizedLines, line)
	}

	return strings.Join(sanitizedLines, "\n")
}
