// Package studio implements the podcaster commands on top of the workflow,
// the emitter and the audio pipeline.
package studio

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/gofrs/flock"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"podcaster/internal/cli/scheme/colours"
	"podcaster/internal/config"
	"podcaster/internal/domain/episode"
	"podcaster/internal/domain/reference"
	"podcaster/internal/fileutil"
	"podcaster/internal/podcast/audio"
	"podcaster/internal/podcast/emit"
	"podcaster/internal/podcast/llm"
	"podcaster/internal/podcast/tts"
	"podcaster/internal/podcast/workflow"
)

const lockFile = ".podcaster.lock"

// Studio main application structure
type Studio struct {
	cfg        config.Config
	references *reference.Loader
	out        io.Writer

	newClient func(llm.Settings) (llm.Client, error)
	newEngine func(context.Context, tts.Config) (tts.Engine, error)
}

func New(cfg config.Config) *Studio {
	return &Studio{
		cfg:        cfg,
		references: reference.NewLoader(cfg.Reference.CacheDir, cfg.Reference.MaxAge),
		out:        color.Output,
		newClient:  llm.NewClient,
		newEngine:  tts.NewEngine,
	}
}

func (s *Studio) ShowWelcome() {
	fmt.Fprintln(s.out)
	colours.Title.Fprintln(s.out, "🎙️  Welcome to podcaster!")
	fmt.Fprintln(s.out)
	colours.Info.Fprintln(s.out, "📚 Available commands:")
	fmt.Fprintln(s.out, "  • podcaster create <topic> <message>   - Generate, narrate and combine an episode")
	fmt.Fprintln(s.out, "  • podcaster generate <topic> <message> - Write the episode text only")
	fmt.Fprintln(s.out, "  • podcaster convert                    - Narrate every generated text file")
	fmt.Fprintln(s.out, "  • podcaster combine                    - Join the audio into one episode")
	fmt.Fprintln(s.out, "  • podcaster reconvert <file>           - Narrate a single text file again")
	fmt.Fprintln(s.out, "  • podcaster list                       - Show produced files")
	fmt.Fprintln(s.out, "  • podcaster play [file]                - Listen to the combined episode")
	fmt.Fprintln(s.out, "  • podcaster test                       - Check credentials and providers")
	fmt.Fprintln(s.out)
}

// Create runs generate, convert and combine in sequence.
func (s *Studio) Create(cmd *cobra.Command, args []string) error {
	if err := s.cfg.Validate(); err != nil {
		return err
	}
	ref, _ := cmd.Flags().GetString("reference")

	unlock, err := s.lock()
	if err != nil {
		return err
	}
	defer unlock()

	ctx := cmd.Context()
	colours.Title.Fprintf(s.out, "🎙️  Creating podcast episode for topic: %s\n", args[0])

	colours.Step.Fprintln(s.out, "Step 1/3: generating text")
	if err := s.generate(ctx, args[0], args[1], ref); err != nil {
		return err
	}
	colours.Step.Fprintln(s.out, "Step 2/3: converting to audio")
	if err := s.convert(ctx); err != nil {
		return err
	}
	colours.Step.Fprintln(s.out, "Step 3/3: combining audio")
	if err := s.combine(); err != nil {
		return err
	}

	colours.Success.Fprintln(s.out, "🎉 Podcast episode created successfully!")
	colours.Info.Fprintf(s.out, "📁 Output directory: %s\n", s.cfg.DataDir)
	return nil
}

func (s *Studio) Generate(cmd *cobra.Command, args []string) error {
	if err := s.cfg.ValidateLLM(); err != nil {
		return err
	}
	ref, _ := cmd.Flags().GetString("reference")

	unlock, err := s.lock()
	if err != nil {
		return err
	}
	defer unlock()

	colours.Title.Fprintf(s.out, "🎙️  Generating podcast text for topic: %s\n", args[0])
	return s.generate(cmd.Context(), args[0], args[1], ref)
}

func (s *Studio) Convert(cmd *cobra.Command, args []string) error {
	if err := s.cfg.ValidateTTS(); err != nil {
		return err
	}
	unlock, err := s.lock()
	if err != nil {
		return err
	}
	defer unlock()

	colours.Title.Fprintln(s.out, "🎵 Converting text content to audio...")
	return s.convert(cmd.Context())
}

func (s *Studio) Combine(cmd *cobra.Command, args []string) error {
	unlock, err := s.lock()
	if err != nil {
		return err
	}
	defer unlock()

	colours.Title.Fprintln(s.out, "🎵 Combining audio files...")
	return s.combine()
}

func (s *Studio) Reconvert(cmd *cobra.Command, args []string) error {
	if err := s.cfg.ValidateTTS(); err != nil {
		return err
	}
	unlock, err := s.lock()
	if err != nil {
		return err
	}
	defer unlock()

	name := filepath.Base(args[0])
	colours.Title.Fprintf(s.out, "🎵 Reconverting single file: %s\n", name)

	engine, err := s.newEngine(cmd.Context(), s.cfg.TTS)
	if err != nil {
		return episode.Configuration("create tts engine", err)
	}
	defer engine.Close()

	out, err := audio.NewConverter(engine, s.cfg.TextDir, s.cfg.AudioDir).ConvertFile(cmd.Context(), name)
	if err != nil {
		return err
	}
	colours.Success.Fprintf(s.out, "✅ Reconverted %s → %s\n", name, out)
	return nil
}

// Test checks credentials and that both providers can be constructed.
func (s *Studio) Test(cmd *cobra.Command, args []string) error {
	colours.Title.Fprintln(s.out, "🧪 Testing environment...")
	if err := s.cfg.Validate(); err != nil {
		return err
	}
	colours.Success.Fprintln(s.out, "✅ Environment variables validated")

	if _, err := s.newClient(s.cfg.LLM); err != nil {
		return episode.Configuration("create llm client", err)
	}
	colours.Success.Fprintf(s.out, "✅ LLM client ready (%s, %s)\n", s.cfg.LLM.Provider, s.cfg.LLM.Model)

	engine, err := s.newEngine(cmd.Context(), s.cfg.TTS)
	if err != nil {
		return episode.Configuration("create tts engine", err)
	}
	defer engine.Close()
	colours.Success.Fprintf(s.out, "✅ Speech engine ready (%s)\n", engine.Name())

	// Listing voices is the cheapest call that proves the TTS credentials work.
	voices, err := engine.GetAvailableVoices(cmd.Context())
	if err != nil {
		return episode.Configuration("list tts voices", err)
	}
	colours.Success.Fprintf(s.out, "✅ %d voices available\n", len(voices))
	return nil
}

// Play plays the combined episode, or the named audio file.
func (s *Studio) Play(cmd *cobra.Command, args []string) error {
	path := filepath.Join(s.cfg.AudioDir, s.cfg.CombinedFileName())
	if len(args) > 0 {
		path = args[0]
		if !strings.ContainsRune(path, filepath.Separator) {
			path = filepath.Join(s.cfg.AudioDir, path)
		}
	}
	colours.Success.Fprintf(s.out, "🎵 Playing %s (Ctrl+C to stop)\n", path)
	return audio.Play(cmd.Context(), path)
}

func (s *Studio) generate(ctx context.Context, topic, message, refSource string) error {
	if err := s.checkOutputDirsEmpty(); err != nil {
		return err
	}

	doc := ""
	if refSource != "" {
		loaded, err := s.references.Load(ctx, refSource)
		if err != nil {
			logrus.WithError(err).WithField("reference", refSource).Warn("could not load reference document")
			colours.Warning.Fprintf(s.out, "⚠️  Could not load reference document: %v\n", err)
		} else {
			doc = loaded
			colours.Info.Fprintf(s.out, "📚 Loaded reference document: %s\n", refSource)
		}
	}

	client, err := s.newClient(s.cfg.LLM)
	if err != nil {
		return episode.Configuration("create llm client", err)
	}

	wf := workflow.New(client, emit.New(s.cfg.TextDir))
	wf.OnTransition = func(from, to workflow.Phase, st episode.State) {
		logrus.WithFields(logrus.Fields{
			"from":     from.String(),
			"to":       to.String(),
			"subtopic": st.CurrentSubtopic,
		}).Debug("phase transition")
		if to == workflow.PhaseGenerating {
			done := len(st.CompletedSubtopics) + 1
			colours.Info.Fprintf(s.out, "  ✍️  [%d/%d] %s\n", done, len(st.Subtopics), st.CurrentSubtopic)
		}
	}

	st, err := wf.Run(ctx, workflow.Request{
		Topic:             topic,
		ReferenceDocument: doc,
		Conversation:      []llm.Message{llm.UserMessage(message)},
	})
	if err != nil {
		return err
	}
	if dups := st.Duplicates(); len(dups) > 0 {
		colours.Warning.Fprintf(s.out, "⚠️  Planner repeated subtopic titles: %s\n", strings.Join(dups, ", "))
	}

	colours.Success.Fprintf(s.out, "✅ Generated %d subtopics\n", len(st.Subtopics))
	colours.Info.Fprintf(s.out, "📁 Text files saved to: %s\n", s.cfg.TextDir)
	return nil
}

func (s *Studio) convert(ctx context.Context) error {
	if err := audio.CheckTextOutputs(s.cfg.TextDir); err != nil {
		return err
	}
	engine, err := s.newEngine(ctx, s.cfg.TTS)
	if err != nil {
		return episode.Configuration("create tts engine", err)
	}
	defer engine.Close()

	written, err := audio.NewConverter(engine, s.cfg.TextDir, s.cfg.AudioDir).ConvertAll(ctx)
	for _, name := range written {
		colours.Success.Fprintf(s.out, "  ✅ %s\n", name)
	}
	if err != nil {
		return err
	}
	colours.Success.Fprintf(s.out, "✅ Audio files saved to: %s\n", s.cfg.AudioDir)
	return nil
}

func (s *Studio) combine() error {
	out, total, err := audio.CombineAll(s.cfg.AudioDir, s.cfg.CombinedFileName())
	if err != nil {
		return err
	}
	colours.Success.Fprintln(s.out, "✅ Audio combination completed")
	colours.Info.Fprintf(s.out, "⏱️  Total duration: %s\n", total.Round(time.Second))
	colours.Success.Fprintf(s.out, "🎉 Final episode saved as: %s\n", out)
	return nil
}

// checkOutputDirsEmpty refuses to generate over an existing episode.
func (s *Studio) checkOutputDirsEmpty() error {
	var busy []string
	for _, dir := range []string{s.cfg.AudioDir, s.cfg.TextDir} {
		entries, err := fileutil.DirEntries(dir)
		if err != nil {
			return episode.IO("inspect "+dir, err)
		}
		if len(entries) > 0 {
			busy = append(busy, fmt.Sprintf("%s (%d files)", dir, len(entries)))
		}
	}
	if len(busy) == 0 {
		return nil
	}
	return &episode.Error{
		Kind: episode.KindPrecondition,
		Op:   "generate",
		Err:  fmt.Errorf("output directories are not empty: %s", strings.Join(busy, ", ")),
		Hint: "clear these directories before creating a new episode",
	}
}

// lock takes the output tree lock so two processes never write the same
// directories.
func (s *Studio) lock() (func(), error) {
	if err := os.MkdirAll(s.cfg.DataDir, 0755); err != nil {
		return nil, episode.IO("create data dir", err)
	}
	path := filepath.Join(s.cfg.DataDir, lockFile)
	fl := flock.New(path)
	ok, err := fl.TryLock()
	if err != nil {
		return nil, episode.IO("acquire lock", err)
	}
	if !ok {
		return nil, episode.Precondition("acquire lock", fmt.Errorf("another podcaster process is using %s", s.cfg.DataDir))
	}
	return func() {
		if err := fl.Unlock(); err != nil {
			logrus.WithError(err).Warn("failed to release output lock")
		}
	}, nil
}
