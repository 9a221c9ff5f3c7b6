// Package emit writes a finished episode state to the text output layout
// consumed by the audio pipeline.
package emit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/sirupsen/logrus"
	"github.com/yuin/goldmark"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"podcaster/internal/domain/episode"
)

const ShowNotesFile = "show_notes.html"

// Emitter writes one text file per subtopic, the ordered subtopic listing,
// the manifest and HTML show notes built from the rolling summary.
type Emitter struct {
	dir string
	md  goldmark.Markdown
}

func New(dir string) *Emitter {
	return &Emitter{dir: dir, md: goldmark.New()}
}

// Slug lowercases the topic and replaces spaces, path separators and other
// characters that are not valid in file names with underscores.
func Slug(topic string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || unicode.IsControl(r) || strings.ContainsRune(`/\:*?"<>|`, r) {
			return '_'
		}
		return r
	}, cases.Lower(language.Und).String(topic))
}

func (e *Emitter) Emit(_ context.Context, st episode.State) error {
	if err := os.MkdirAll(e.dir, 0755); err != nil {
		return episode.IO("create text output dir", err)
	}

	var listing strings.Builder
	for i, title := range st.Subtopics {
		fmt.Fprintf(&listing, "%d. %s\n", i+1, title)
	}
	listPath := filepath.Join(e.dir, episode.SubtopicListFileName(Slug(st.Topic)))
	if err := os.WriteFile(listPath, []byte(listing.String()), 0644); err != nil {
		return episode.IO("write subtopic list", err)
	}

	files := make([]string, 0, len(st.Subtopics))
	for i, title := range st.Subtopics {
		content, ok := st.SubtopicContents[title]
		if !ok {
			continue
		}
		name := episode.SubtopicFileName(i + 1)
		if err := os.WriteFile(filepath.Join(e.dir, name), []byte(content), 0644); err != nil {
			return episode.IO("write "+name, err)
		}
		files = append(files, name)
	}

	manifest := episode.Manifest{
		Topic:                  st.Topic,
		TotalSubtopics:         len(st.Subtopics),
		Subtopics:              append([]string{}, st.Subtopics...),
		SubtopicFilesGenerated: files,
	}
	if err := writeManifest(filepath.Join(e.dir, episode.ManifestFile), manifest); err != nil {
		return episode.IO("write manifest", err)
	}

	if err := e.writeShowNotes(st); err != nil {
		return episode.IO("write show notes", err)
	}

	logrus.WithFields(logrus.Fields{
		"dir":   e.dir,
		"files": len(files),
	}).Info("wrote episode text files")
	return nil
}

func writeManifest(path string, m episode.Manifest) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(m); err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	return os.WriteFile(path, buf.Bytes(), 0644)
}

func (e *Emitter) writeShowNotes(st episode.State) error {
	var body bytes.Buffer
	if err := e.md.Convert([]byte(st.RollingSummary), &body); err != nil {
		return fmt.Errorf("render summary: %w", err)
	}
	title := html.EscapeString(st.Topic)
	page := fmt.Sprintf("<!DOCTYPE html>\n<html>\n<head><meta charset=\"utf-8\"><title>%s</title></head>\n<body>\n<h1>%s</h1>\n%s</body>\n</html>\n",
		title, title, body.String())
	return os.WriteFile(filepath.Join(e.dir, ShowNotesFile), []byte(page), 0644)
}

// LoadManifest reads the manifest from dir.
func LoadManifest(dir string) (episode.Manifest, error) {
	var m episode.Manifest
	path := filepath.Join(dir, episode.ManifestFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return m, episode.NotFound("load manifest", "run 'podcaster generate' first", "manifest not found: %s", path)
		}
		return m, episode.IO("read manifest", err)
	}
	if err := json.Unmarshal(data, &m); err != nil {
		return m, episode.IO("parse manifest", err)
	}
	return m, nil
}
