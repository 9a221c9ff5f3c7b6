package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// MockClient returns canned text without calling a model. It is handy for
// exercising the whole pipeline offline.
type MockClient struct {
	Subtopics []string
	calls     int
}

func (m *MockClient) Complete(_ context.Context, req Request) (string, error) {
	m.calls++
	if req.Schema != nil {
		subtopics := m.Subtopics
		if len(subtopics) == 0 {
			subtopics = []string{"Setting the Stage", "How It Works", "What Comes Next"}
		}
		out, err := json.Marshal(map[string][]string{"subtopic_list": subtopics})
		if err != nil {
			return "", err
		}
		return string(out), nil
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Mock segment %d.", m.calls))
	for _, msg := range req.Messages {
		if msg.Role != RoleUser {
			continue
		}
		line, _, _ := strings.Cut(strings.TrimSpace(msg.Content), "\n")
		sb.WriteString(" ")
		sb.WriteString(line)
	}
	return sb.String(), nil
}

// Calls returns the number of completions served.
func (m *MockClient) Calls() int { return m.calls }
