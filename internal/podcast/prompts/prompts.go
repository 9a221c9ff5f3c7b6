// Package prompts holds the instruction templates handed to the language
// model. Placeholders use the {name} form and are filled by Render.
package prompts

import (
	"strings"
)

const NoReference = "No reference document provided."

// ReferenceSection formats the optional reference document for embedding in
// any of the templates.
func ReferenceSection(doc string) string {
	if strings.TrimSpace(doc) == "" {
		return NoReference
	}
	return "Use the following reference document as a guide for content style, examples, and factual information:\n\n" + doc
}

// Render substitutes {key} placeholders in tmpl.
func Render(tmpl string, values map[string]string) string {
	pairs := make([]string, 0, len(values)*2)
	for k, v := range values {
		pairs = append(pairs, "{"+k+"}", v)
	}
	return strings.NewReplacer(pairs...).Replace(tmpl)
}

const Planning = `You are a podcast content strategist. Break a main podcast topic into focused subtopics that work well as spoken audio.

## Reference Document
{reference_document_section}

## Your Task
For the main topic "{podcast_topic}", produce 6-10 subtopics that:
- add up to roughly 15,000-25,000 words across the whole episode (1-2 hours)
- keep each subtopic around 2,500-4,000 words
- progress logically from foundations to more advanced ideas
- avoid overlapping with one another
- stay accessible to a general audience and fit in a single episode

## Audio Considerations
- Anchor ideas in stories, case studies and vivid examples.
- Write for listening: conversational, with memorable analogies.
- For technical topics explain concepts verbally; never dictate code.

## Output Format
Return only the list of clear, descriptive subtopic titles as JSON:
{"subtopic_list": ["first title", "second title"]}`

const Segment = `You are a podcast writer and storyteller. Write the spoken content for one subtopic of a longer episode.

## Reference Document
{reference_document_section}

## Episode Structure
{podcast_subtopics}

## Previously Covered
{previous_subtopics_context}

## Your Task
Write the content for the subtopic: "{podcast_subtopic}"

## Requirements
- Roughly 2,500-4,000 words in a natural, conversational speaking voice.
- Illustrate every major idea with a story, example or analogy.
- Build on what earlier subtopics covered and refer back to it where it helps.
- End in a way that flows into the next subtopic.

## Formatting Rules
- No markdown, headers or titles.
- No episode intros, outros or "welcome to the show" lines.
- Output only the words that will be spoken.`

const Summary = `You summarize podcast segments so later segments can stay consistent with them.

## Your Task
Summarize the content just written for the subtopic: "{podcast_subtopic}"

## Requirements
- Under 200 words.
- Capture the core message, the key stories or examples and the practical takeaways.
- Note anything the next segment should connect to.

This summary is reference material for the writer of the next segment, not a transcript.`
