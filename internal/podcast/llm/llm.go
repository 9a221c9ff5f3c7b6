// Package llm talks to the language model that writes the episode.
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn of the conversation threaded through generation calls.
type Message struct {
	Role    Role
	Content string
}

// UserMessage builds a user turn.
func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// Schema requests a structured JSON result matching Definition.
type Schema struct {
	Name        string
	Description string
	Definition  map[string]any
}

// Request is a single generation call: a system instruction followed by the
// conversation.
type Request struct {
	System   string
	Messages []Message
	Schema   *Schema
}

// Client abstracts the model so the workflow can be driven by fakes.
type Client interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// Settings configures a concrete client.
type Settings struct {
	Provider    string
	Model       string
	APIKey      string
	BaseURL     string
	Temperature float64
	MaxTokens   int64
	MaxRetries  int
	Timeout     time.Duration
}

var ErrEmptyCompletion = errors.New("llm: model returned empty content")

// DecodeJSON unmarshals a model reply into v. Markdown code fences and any
// prose around the outermost JSON object are ignored.
func DecodeJSON(raw string, v any) error {
	content := strings.TrimSpace(raw)
	if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```json")
		content = strings.TrimPrefix(content, "```")
		content = strings.TrimSuffix(strings.TrimSpace(content), "```")
		content = strings.TrimSpace(content)
	}
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end < start {
		return errors.New("llm: no json object in reply")
	}
	return json.Unmarshal([]byte(content[start:end+1]), v)
}
