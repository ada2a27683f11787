package llm

import (
	"context"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/icp-engine/internal/apperr"
	"github.com/sells-group/icp-engine/internal/config"
	"github.com/sells-group/icp-engine/pkg/anthropic"
)

// fakeAPI records the last request and returns a canned response.
type fakeAPI struct {
	lastReq anthropic.MessageRequest
	text    string
	err     error
}

func (f *fakeAPI) CreateMessage(_ context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	return &anthropic.MessageResponse{
		Content: []anthropic.ContentBlock{{Type: "text", Text: f.text}},
	}, nil
}

func testCfg() config.AnthropicConfig {
	return config.AnthropicConfig{
		Model:       "claude-sonnet-4-5-20250929",
		Temperature: 0.7,
		TimeoutSecs: 5,
		MaxTokens:   4096,
		RatePerSec:  1000,
		RateBurst:   1000,
	}
}

func TestComplete_JSONModeAddsConstraintAndPrefill(t *testing.T) {
	api := &fakeAPI{text: `"name": "Acme"}`}
	c := New(api, testCfg())

	got, err := c.Complete(context.Background(), "system", "user", true)
	require.NoError(t, err)

	// Prefilled brace is re-attached to the response.
	assert.Equal(t, `{"name": "Acme"}`, got)

	assert.Contains(t, api.lastReq.System, "single valid JSON object")
	require.Len(t, api.lastReq.Messages, 2)
	assert.Equal(t, "assistant", api.lastReq.Messages[1].Role)
	assert.Equal(t, "{", api.lastReq.Messages[1].Content)
}

func TestComplete_PlainMode(t *testing.T) {
	api := &fakeAPI{text: "hello"}
	c := New(api, testCfg())

	got, err := c.Complete(context.Background(), "system", "user", false)
	require.NoError(t, err)
	assert.Equal(t, "hello", got)
	require.Len(t, api.lastReq.Messages, 1)
	assert.Equal(t, "system", api.lastReq.System)
}

func TestComplete_APIFailure(t *testing.T) {
	api := &fakeAPI{err: eris.New("overloaded")}
	c := New(api, testCfg())

	_, err := c.Complete(context.Background(), "system", "user", true)
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindExternalService))
}

func TestComplete_EmptyResponse(t *testing.T) {
	api := &fakeAPI{text: ""}
	c := New(api, testCfg())

	got, err := c.Complete(context.Background(), "system", "user", true)
	require.NoError(t, err)
	assert.Equal(t, "", got)
}

func TestCleanJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bare object", `{"a": 1}`, `{"a": 1}`},
		{"fenced", "```json\n{\"a\": 1}\n```", `{"a": 1}`},
		{"fence no lang", "```\n{\"a\": 1}\n```", `{"a": 1}`},
		{"leading prose", `Here is the JSON: {"a": 1}`, `{"a": 1}`},
		{"trailing prose", `{"a": 1} Hope that helps!`, `{"a": 1}`},
		{"nested braces", `{"a": {"b": 2}}`, `{"a": {"b": 2}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanJSON(tt.in))
		})
	}
}

func TestDecodeJSON(t *testing.T) {
	var v struct {
		Name string `json:"name"`
	}
	require.NoError(t, DecodeJSON("```json\n{\"name\": \"Acme\"}\n```", &v))
	assert.Equal(t, "Acme", v.Name)

	// Empty response decodes as an empty object.
	v.Name = ""
	require.NoError(t, DecodeJSON("", &v))
	assert.Equal(t, "", v.Name)

	require.Error(t, DecodeJSON("not json at all", &v))
}
