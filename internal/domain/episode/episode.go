package episode

import (
	"fmt"
	"strings"
)

// State is the evolving state of one episode generation run.
type State struct {
	Topic              string            `json:"topic"`
	ReferenceDocument  string            `json:"reference_document,omitempty"`
	Subtopics          []string          `json:"subtopics"`
	CurrentSubtopic    string            `json:"current_subtopic,omitempty"`
	CompletedSubtopics []string          `json:"completed_subtopics"`
	SubtopicContents   map[string]string `json:"subtopic_contents"`
	RollingSummary     string            `json:"rolling_summary"`
}

// NewState creates the initial state for a run. Only the topic and the
// reference document are populated.
func NewState(topic, referenceDocument string) State {
	return State{
		Topic:             topic,
		ReferenceDocument: referenceDocument,
		SubtopicContents:  map[string]string{},
	}
}

// Remaining returns the planned subtopics that have not been completed yet,
// in planned order. Titles are compared by value, so duplicated titles are
// treated as one work item.
func (s State) Remaining() []string {
	done := make(map[string]struct{}, len(s.CompletedSubtopics))
	for _, title := range s.CompletedSubtopics {
		done[title] = struct{}{}
	}
	remaining := make([]string, 0, len(s.Subtopics))
	for _, title := range s.Subtopics {
		if _, ok := done[title]; ok {
			continue
		}
		remaining = append(remaining, title)
	}
	return remaining
}

// Terminal reports whether every planned subtopic has been completed.
func (s State) Terminal() bool {
	return len(s.Remaining()) == 0
}

// Complete records the generated content and recap for title and returns the
// updated state. The receiver is not modified.
func (s State) Complete(title, content, recap string) State {
	next := s.clone()
	if _, exists := next.SubtopicContents[title]; !exists {
		next.SubtopicContents[title] = content
	}
	next.RollingSummary += fmt.Sprintf("\n\n## %s\n%s", title, recap)
	next.CompletedSubtopics = append(next.CompletedSubtopics, title)
	return next
}

// WithSubtopics returns a copy of the state holding the planned subtopics.
func (s State) WithSubtopics(subtopics []string) State {
	next := s.clone()
	next.Subtopics = append([]string(nil), subtopics...)
	return next
}

// WithCurrent returns a copy of the state pointing at title.
func (s State) WithCurrent(title string) State {
	next := s.clone()
	next.CurrentSubtopic = title
	return next
}

// Duplicates lists planned titles that appear more than once.
func (s State) Duplicates() []string {
	seen := make(map[string]int, len(s.Subtopics))
	var dups []string
	for _, title := range s.Subtopics {
		seen[title]++
		if seen[title] == 2 {
			dups = append(dups, title)
		}
	}
	return dups
}

// Validate checks the bookkeeping invariants that hold after every completed
// iteration.
func (s State) Validate() error {
	if strings.TrimSpace(s.Topic) == "" {
		return fmt.Errorf("episode state: topic is empty")
	}
	if len(s.CompletedSubtopics) != len(s.SubtopicContents) {
		return fmt.Errorf("episode state: %d completed subtopics but %d contents",
			len(s.CompletedSubtopics), len(s.SubtopicContents))
	}
	planned := make(map[string]struct{}, len(s.Subtopics))
	for _, title := range s.Subtopics {
		planned[title] = struct{}{}
	}
	for _, title := range s.CompletedSubtopics {
		if _, ok := planned[title]; !ok {
			return fmt.Errorf("episode state: completed subtopic %q was never planned", title)
		}
		if _, ok := s.SubtopicContents[title]; !ok {
			return fmt.Errorf("episode state: completed subtopic %q has no content", title)
		}
	}
	return nil
}

func (s State) clone() State {
	next := s
	next.Subtopics = append([]string(nil), s.Subtopics...)
	next.CompletedSubtopics = append([]string(nil), s.CompletedSubtopics...)
	next.SubtopicContents = make(map[string]string, len(s.SubtopicContents)+1)
	for k, v := range s.SubtopicContents {
		next.SubtopicContents[k] = v
	}
	return next
}
