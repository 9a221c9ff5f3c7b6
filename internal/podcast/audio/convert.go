package audio

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"podcaster/internal/domain/episode"
	"podcaster/internal/fileutil"
	"podcaster/internal/podcast/emit"
	"podcaster/internal/podcast/tts"
)

const generateHint = "run 'podcaster generate' first"

// Converter narrates text files from textDir into audioDir.
type Converter struct {
	engine   tts.Engine
	textDir  string
	audioDir string
}

func NewConverter(engine tts.Engine, textDir, audioDir string) *Converter {
	return &Converter{engine: engine, textDir: textDir, audioDir: audioDir}
}

// CheckTextOutputs fails unless textDir holds at least one .txt file.
func CheckTextOutputs(textDir string) error {
	entries, err := fileutil.DirEntries(textDir)
	if err != nil {
		return episode.IO("read text output dir", err)
	}
	for _, e := range entries {
		if strings.EqualFold(filepath.Ext(e.Name()), ".txt") {
			return nil
		}
	}
	return episode.NotFound("convert", generateHint, "no text files found in %s", textDir)
}

// ConvertAll converts every file listed in the manifest, in manifest order.
// A failed file is logged and the rest still convert; the failures are
// returned joined.
func (c *Converter) ConvertAll(ctx context.Context) ([]string, error) {
	if err := CheckTextOutputs(c.textDir); err != nil {
		return nil, err
	}
	manifest, err := emit.LoadManifest(c.textDir)
	if err != nil {
		return nil, err
	}
	if len(manifest.SubtopicFilesGenerated) == 0 {
		logrus.WithField("topic", manifest.Topic).Warn("manifest lists no subtopic files")
		return nil, nil
	}

	log := logrus.WithFields(logrus.Fields{
		"topic":  manifest.Topic,
		"files":  len(manifest.SubtopicFilesGenerated),
		"engine": c.engine.Name(),
	})
	log.Info("converting subtopics")

	var (
		written []string
		errs    []error
	)
	for _, name := range manifest.SubtopicFilesGenerated {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		out, err := c.ConvertFile(ctx, name)
		if err != nil {
			log.WithError(err).WithField("file", name).Error("conversion failed")
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
			continue
		}
		written = append(written, out)
	}
	log.WithField("converted", len(written)).Info("batch conversion complete")

	if len(errs) > 0 {
		return written, episode.IO("convert", errors.Join(errs...))
	}
	return written, nil
}

// ConvertFile narrates one text file and returns the audio file name.
func (c *Converter) ConvertFile(ctx context.Context, name string) (string, error) {
	in := filepath.Join(c.textDir, name)
	data, err := os.ReadFile(in)
	if err != nil {
		if os.IsNotExist(err) {
			return "", episode.Precondition("convert", fmt.Errorf("text file not found: %s", in))
		}
		return "", episode.IO("read "+name, err)
	}
	text := strings.TrimSpace(string(data))
	if text == "" {
		return "", episode.IO("convert "+name, errors.New("text file is empty"))
	}

	outName := episode.AudioName(name, c.engine.Extension())
	out := filepath.Join(c.audioDir, outName)
	logrus.WithFields(logrus.Fields{"file": name, "output": outName}).Info("converting text to speech")

	if err := c.engine.Synthesize(ctx, text, out); err != nil {
		return "", episode.IO("synthesize "+name, err)
	}
	return outName, nil
}
