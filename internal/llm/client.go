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
)

// Boundary errors. A timeout is treated identically to an unreachable
// endpoint; a reply that does not fit the requested schema is malformed.
var (
	ErrUnavailable = errors.New("llm endpoint unavailable")
	ErrMalformed   = errors.New("llm returned malformed response")
)

// Config holds the connection parameters for one chat-completion endpoint.
type Config struct {
	URL         string
	Model       string
	Timeout     time.Duration
	Temperature float64
}

// Client is a blocking chat-completion client. Calls are synchronous with a
// per-call timeout; there is no queueing or fan-out.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// NewClient creates a client for the configured endpoint.
func NewClient(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

// GenerateJSON sends a prompt and parses the JSON reply into target.
func (c *Client) GenerateJSON(ctx context.Context, prompt string, target interface{}) error {
	payload := map[string]interface{}{
		"model": c.cfg.Model,
		"messages": []map[string]string{
			{
				"role":    "system",
				"content": "You are a precise JSON generator for a goal mentoring system. Output only valid JSON.",
			},
			{
				"role":    "user",
				"content": prompt,
			},
		},
		"temperature": c.cfg.Temperature,
	}

	body, err := c.call(ctx, payload)
	if err != nil {
		return err
	}

	var llmResp struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(body, &llmResp); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if len(llmResp.Choices) == 0 {
		return fmt.Errorf("%w: no choices returned", ErrMalformed)
	}

	if err := ParseStructuredResponse(llmResp.Choices[0].Message.Content, target); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return nil
}

func (c *Client) call(ctx context.Context, payload map[string]interface{}) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL, bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: endpoint returned status %d", ErrUnavailable, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return body, nil
}

// ParseStructuredResponse extracts JSON from potentially messy LLM output,
// stripping a markdown fence when present.
func ParseStructuredResponse(response string, target interface{}) error {
	start := 0
	end := len(response)

	if idx := strings.Index(response, "```json"); idx != -1 {
		start = idx + 7
	} else if idx := strings.Index(response, "```"); idx != -1 {
		start = idx + 3
	}

	if idx := strings.Index(response[start:], "```"); idx != -1 {
		end = start + idx
	}

	return json.Unmarshal([]byte(strings.TrimSpace(response[start:end])), target)
}
