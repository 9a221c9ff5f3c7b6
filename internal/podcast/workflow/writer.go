package workflow

import (
	"context"
	"strings"

	"podcaster/internal/domain/episode"
	"podcaster/internal/podcast/llm"
	"podcaster/internal/podcast/prompts"
)

const firstSubtopicContext = "This is the first subtopic of the episode."

// Writer generates the spoken content for the current subtopic.
type Writer struct {
	client llm.Client
}

func NewWriter(client llm.Client) *Writer {
	return &Writer{client: client}
}

// Write embeds the whole plan, the rolling summary and the reference
// document in the instruction and threads the original conversation after it.
func (w *Writer) Write(ctx context.Context, st episode.State, conversation []llm.Message) (string, error) {
	text, err := w.client.Complete(ctx, llm.Request{
		System:   SegmentInstruction(st),
		Messages: conversation,
	})
	if err != nil {
		return "", episode.Generation("generate "+st.CurrentSubtopic, err)
	}
	return text, nil
}

// SegmentInstruction renders the generation instruction for st.CurrentSubtopic.
func SegmentInstruction(st episode.State) string {
	lines := make([]string, 0, len(st.Subtopics))
	for _, title := range st.Subtopics {
		lines = append(lines, "- "+title)
	}
	previous := firstSubtopicContext
	if st.RollingSummary != "" {
		previous = "Previous subtopics covered:\n" + st.RollingSummary
	}
	return prompts.Render(prompts.Segment, map[string]string{
		"podcast_subtopic":           st.CurrentSubtopic,
		"podcast_subtopics":          strings.Join(lines, "\n"),
		"previous_subtopics_context": previous,
		"reference_document_section": prompts.ReferenceSection(st.ReferenceDocument),
	})
}
