package workflow

import (
	"context"

	"podcaster/internal/domain/episode"
	"podcaster/internal/podcast/llm"
	"podcaster/internal/podcast/prompts"
)

// Summarizer condenses a finished subtopic into a short recap used as
// context for the next one. The length target lives in the prompt only.
type Summarizer struct {
	client llm.Client
}

func NewSummarizer(client llm.Client) *Summarizer {
	return &Summarizer{client: client}
}

func (s *Summarizer) Summarize(ctx context.Context, title, content string) (string, error) {
	recap, err := s.client.Complete(ctx, llm.Request{
		System:   prompts.Render(prompts.Summary, map[string]string{"podcast_subtopic": title}),
		Messages: []llm.Message{llm.UserMessage("Content to summarize:\n\n" + content)},
	})
	if err != nil {
		return "", episode.Generation("summarize "+title, err)
	}
	return recap, nil
}
