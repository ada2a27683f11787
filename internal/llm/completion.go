// Package llm provides the completion client used by the scraper, the ICP
// generator, and the qualifier. One request per call, fixed model and
// temperature, fixed timeout. Failures are wrapped as ExternalServiceError
// and are never retried here; retry policy belongs to callers, and no
// caller in this system retries.
package llm

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/icp-engine/internal/apperr"
	"github.com/sells-group/icp-engine/internal/config"
	"github.com/sells-group/icp-engine/pkg/anthropic"
)

// jsonModeSuffix is appended to the system prompt when strict JSON output
// is requested. The Messages API has no response_format switch, so JSON
// mode is a prompt constraint plus an assistant "{" prefill.
const jsonModeSuffix = "\n\nRespond with a single valid JSON object and nothing else."

// Completer issues one chat completion from a system/user prompt pair.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string, jsonMode bool) (string, error)
}

// Client implements Completer over the Anthropic wrapper.
type Client struct {
	api     anthropic.Client
	cfg     config.AnthropicConfig
	limiter *rate.Limiter
}

// New creates a completion client with the process-wide model settings.
func New(api anthropic.Client, cfg config.AnthropicConfig) *Client {
	perSec := cfg.RatePerSec
	if perSec <= 0 {
		perSec = 5
	}
	burst := cfg.RateBurst
	if burst <= 0 {
		burst = 10
	}
	return &Client{
		api:     api,
		cfg:     cfg,
		limiter: rate.NewLimiter(rate.Limit(perSec), burst),
	}
}

// Complete issues a single completion request. With jsonMode set, the
// response is constrained toward a bare JSON object; callers still parse
// defensively and default missing fields. Returns "" when the service
// responds without content.
func (c *Client) Complete(ctx context.Context, systemPrompt, userPrompt string, jsonMode bool) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", apperr.ExternalService("Anthropic", err)
	}

	timeout := time.Duration(c.cfg.TimeoutSecs) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	system := systemPrompt
	messages := []anthropic.Message{{Role: "user", Content: userPrompt}}
	if jsonMode {
		system += jsonModeSuffix
		messages = append(messages, anthropic.Message{Role: "assistant", Content: "{"})
	}

	temp := c.cfg.Temperature
	resp, err := c.api.CreateMessage(ctx, anthropic.MessageRequest{
		Model:       c.cfg.Model,
		MaxTokens:   c.cfg.MaxTokens,
		System:      system,
		Messages:    messages,
		Temperature: &temp,
	})
	if err != nil {
		zap.L().Error("completion request failed", zap.Error(err))
		return "", apperr.ExternalService("Anthropic", err)
	}

	text := resp.Text()
	if text == "" {
		return "", nil
	}
	if jsonMode {
		// Re-attach the prefilled opening brace.
		text = "{" + text
	}
	return text, nil
}

// DecodeJSON parses a completion response into v, tolerating code fences
// and surrounding prose. An empty response decodes as an empty object so
// callers fall back to their static defaults.
func DecodeJSON(text string, v any) error {
	cleaned := CleanJSON(text)
	if cleaned == "" {
		cleaned = "{}"
	}
	return json.Unmarshal([]byte(cleaned), v)
}

// CleanJSON strips markdown fences and any text outside the outermost
// JSON object braces.
func CleanJSON(text string) string {
	s := strings.TrimSpace(text)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	s = strings.TrimSpace(s)

	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start >= 0 && end > start {
		return s[start : end+1]
	}
	return s
}
