package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// Provider is the single entry point for talking to a generative model.
// Callers send a Request and receive either schema-validated JSON or,
// when no schema is given, the model's text encoded as a JSON string.
type Provider interface {
	Generate(ctx context.Context, req Request) (*Response, error)

	// ModelID returns the model identifier this provider is configured to use.
	ModelID() string
}

// Request describes one single-turn (or short multi-turn) generation.
type Request struct {
	// System sets the model's role and constraints.
	System string

	Messages []Message

	// Schema, when set, asks the provider for native structured output.
	// The returned content is validated against it before Generate returns.
	Schema *Schema

	MaxTokens int

	// Temperature in the range 0.0 - 1.0. Zero leaves the provider default.
	Temperature float64
}

// Message represents a single message in the conversation.
type Message struct {
	Role    Role
	Content string
}

// Role is the message sender role.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// UserMessage is shorthand for a one-message conversation.
func UserMessage(content string) []Message {
	return []Message{{Role: RoleUser, Content: content}}
}

// Schema defines the JSON structure expected from the model.
type Schema struct {
	// Name identifies this schema. Kebab-case, e.g. "quiz-questions".
	// It doubles as the cache key for the compiled validator.
	Name string

	Description string

	// Definition is the JSON Schema definition as a map.
	Definition map[string]any
}

// Response holds the model's output.
type Response struct {
	// Content is validated JSON when the request carried a Schema, and a
	// JSON string holding the raw text otherwise.
	Content json.RawMessage

	Usage Usage

	// Model is the actual model that served the request.
	Model string

	// StopReason is normalized to "end", "max_tokens" or "error".
	StopReason string
}

// Text decodes a text-mode response. It fails when Content is not a JSON
// string, which happens when the request carried a Schema.
func (r *Response) Text() (string, error) {
	var s string
	if err := json.Unmarshal(r.Content, &s); err != nil {
		return "", fmt.Errorf("response is not text: %w", err)
	}
	return s, nil
}

// Usage tracks token consumption for a single request.
type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}

// completion is a provider's raw answer before it becomes a Response.
type completion struct {
	text      string
	truncated bool
	usage     Usage
	model     string
}

// response validates c against schema. Truncated structured output is
// never valid JSON, so it fails with ErrMaxTokensExceeded.
func (c completion) response(schema *Schema) (*Response, error) {
	if c.truncated && schema != nil {
		return nil, &ErrMaxTokensExceeded{Content: []byte(c.text)}
	}
	content, err := encodeContent(schema, c.text)
	if err != nil {
		return nil, err
	}
	stop := "end"
	if c.truncated {
		stop = "max_tokens"
	}
	return &Response{Content: content, Usage: c.usage, Model: c.model, StopReason: stop}, nil
}

// encodeContent turns raw model output into Response content: validated
// JSON for schema requests, a JSON string for text requests.
func encodeContent(schema *Schema, raw string) (json.RawMessage, error) {
	if schema == nil {
		b, err := json.Marshal(raw)
		if err != nil {
			return nil, fmt.Errorf("encode text response: %w", err)
		}
		return b, nil
	}
	content := json.RawMessage(cleanJSON(raw))
	if err := validateResponse(schema, content); err != nil {
		return nil, err
	}
	return content, nil
}

// cleanJSON trims whitespace and a surrounding markdown code fence, which
// some models add even in JSON mode.
func cleanJSON(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	}
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "```"))
}
