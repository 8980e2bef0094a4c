// Package summarize is the narrow client for the external text-generation
// service that turns a list of achievements into prose. The service is
// external: this package only ships facts to it and propagates failures.
package summarize

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/standupdoc/standupdoc/internal/standup"
)

// Summarizer renders a natural-language summary of achievements. It must
// fail loudly (network or model error) rather than returning empty text.
type Summarizer interface {
	Summarize(ctx context.Context, achievements []*standup.Achievement) (string, error)
}

var ErrEmptyResponse = errors.New("summarize: model returned empty text")

// Client talks to an OpenAI-compatible chat-completions endpoint.
type Client struct {
	endpoint string
	apiKey   string
	model    string
	httpc    *http.Client
}

func NewClient(endpoint, apiKey, model string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		endpoint: strings.TrimRight(endpoint, "/"),
		apiKey:   apiKey,
		model:    model,
		httpc:    &http.Client{Timeout: timeout},
	}
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

const systemPrompt = "You write concise standup summaries. Given a list of " +
	"achievements with timestamps, produce a short prose summary of what was " +
	"accomplished, grouped by theme. Plain text only."

func (c *Client) Summarize(ctx context.Context, achievements []*standup.Achievement) (string, error) {
	var sb strings.Builder
	for _, a := range achievements {
		fmt.Fprintf(&sb, "- %s (%s)\n", a.Description, a.EventStart.Format("2006-01-02 15:04 MST"))
	}

	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: sb.String()},
		},
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return "", fmt.Errorf("summarize: %w", err)
	}
	defer resp.Body.Close()

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("summarize: decode response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		if out.Error != nil {
			return "", fmt.Errorf("summarize: model error (%d): %s", resp.StatusCode, out.Error.Message)
		}
		return "", fmt.Errorf("summarize: unexpected status %d", resp.StatusCode)
	}
	if len(out.Choices) == 0 || strings.TrimSpace(out.Choices[0].Message.Content) == "" {
		return "", ErrEmptyResponse
	}
	return strings.TrimSpace(out.Choices[0].Message.Content), nil
}
