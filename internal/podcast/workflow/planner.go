package workflow

import (
	"context"
	"errors"
	"fmt"

	"podcaster/internal/domain/episode"
	"podcaster/internal/podcast/llm"
	"podcaster/internal/podcast/prompts"
)

var subtopicSchema = &llm.Schema{
	Name:        "subtopic_output",
	Description: "Ordered list of podcast subtopic titles",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"subtopic_list": map[string]any{
				"type":        "array",
				"description": "A list of subtopics",
				"items":       map[string]any{"type": "string"},
			},
		},
		"required":             []string{"subtopic_list"},
		"additionalProperties": false,
	},
}

type subtopicOutput struct {
	SubtopicList *[]string `json:"subtopic_list"`
}

// Planner expands a topic into an ordered list of subtopic titles.
type Planner struct {
	client llm.Client
}

func NewPlanner(client llm.Client) *Planner {
	return &Planner{client: client}
}

// Plan issues exactly one structured generation request and returns the
// titles in the order the model produced them.
func (p *Planner) Plan(ctx context.Context, topic, referenceDocument string, conversation []llm.Message) ([]string, error) {
	system := prompts.Render(prompts.Planning, map[string]string{
		"podcast_topic":              topic,
		"reference_document_section": prompts.ReferenceSection(referenceDocument),
	})

	raw, err := p.client.Complete(ctx, llm.Request{
		System:   system,
		Messages: conversation,
		Schema:   subtopicSchema,
	})
	if err != nil {
		return nil, episode.Generation("plan subtopics", err)
	}

	var out subtopicOutput
	if err := llm.DecodeJSON(raw, &out); err != nil {
		return nil, episode.Generation("plan subtopics", fmt.Errorf("parse subtopic list: %w", err))
	}
	if out.SubtopicList == nil {
		return nil, episode.Generation("plan subtopics", errors.New("parse subtopic list: subtopic_list missing"))
	}
	return *out.SubtopicList, nil
}
