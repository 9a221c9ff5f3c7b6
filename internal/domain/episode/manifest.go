package episode

import (
	"fmt"
	"strings"
)

// ManifestFile is the name of the manifest written next to the text files.
const ManifestFile = "summary.json"

// Manifest describes the text files produced for an episode. The audio
// converter reads it to know which files to convert and in what order.
type Manifest struct {
	Topic                  string   `json:"topic"`
	TotalSubtopics         int      `json:"total_subtopics"`
	Subtopics              []string `json:"subtopics"`
	SubtopicFilesGenerated []string `json:"subtopic_files_generated"`
}

// SubtopicFileName returns the text file name for the 1-indexed position.
func SubtopicFileName(position int) string {
	return fmt.Sprintf("subtopic_%02d.txt", position)
}

// SubtopicListFileName returns the name of the ordered subtopic listing for
// a topic slug.
func SubtopicListFileName(slug string) string {
	return slug + "_subtopics.txt"
}

// AudioName swaps the text extension of name for ext.
func AudioName(name, ext string) string {
	return strings.TrimSuffix(name, ".txt") + ext
}
