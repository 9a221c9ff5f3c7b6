package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"podcaster/internal/cli/scheme/colours"
	"podcaster/internal/config"
	"podcaster/internal/domain/episode"
	"podcaster/internal/podcast/studio"
)

func main() {
	if err := config.Init(); err != nil {
		fail(err)
	}
	cfg := config.Load()
	if err := config.ConfigureLogging(cfg.Log); err != nil {
		fail(err)
	}

	app := studio.New(cfg)

	// Setup signal handling so in-flight requests are cancelled
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rootCmd := &cobra.Command{
		Use:   "podcaster",
		Short: "🎙️ Generate podcast episodes with an LLM and text-to-speech",
		Long: `
┌──────────────────────────────────────────┐
│  🎙️  podcaster                            │
│  Topic in, narrated episode out          │
└──────────────────────────────────────────┘

podcaster plans an episode into subtopics, writes each one with a language
model while keeping a rolling summary, narrates the text and joins the
audio into a single episode.

Examples:
  podcaster create "leetcode prep" "A general overview, only 2 subtopics."
  podcaster generate "leetcode prep" "A general overview, only 2 subtopics."
  podcaster convert
  podcaster combine
		`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Run: func(cmd *cobra.Command, args []string) {
			app.ShowWelcome()
			_ = cmd.Help()
		},
	}

	createCmd := &cobra.Command{
		Use:   "create <topic> <message>",
		Short: "🎬 Create a complete podcast episode (all steps)",
		Long:  "Generate the episode text, convert it to audio and combine it into one file",
		Args:  cobra.ExactArgs(2),
		RunE:  app.Create,
	}

	generateCmd := &cobra.Command{
		Use:   "generate <topic> <message>",
		Short: "✍️ Generate podcast text content only",
		Args:  cobra.ExactArgs(2),
		RunE:  app.Generate,
	}

	convertCmd := &cobra.Command{
		Use:   "convert",
		Short: "🎵 Convert generated text content to audio files",
		Args:  cobra.NoArgs,
		RunE:  app.Convert,
	}

	combineCmd := &cobra.Command{
		Use:   "combine",
		Short: "🔗 Combine audio files into the final episode",
		Args:  cobra.NoArgs,
		RunE:  app.Combine,
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "📋 List produced text and audio files",
		Args:  cobra.NoArgs,
		RunE:  app.List,
	}

	testCmd := &cobra.Command{
		Use:   "test",
		Short: "🧪 Test the environment and providers",
		Args:  cobra.NoArgs,
		RunE:  app.Test,
	}

	reconvertCmd := &cobra.Command{
		Use:   "reconvert <filename>",
		Short: "🔁 Reconvert a single text file to audio",
		Long:  "Reconvert a single text file to audio (e.g. subtopic_01.txt)",
		Args:  cobra.ExactArgs(1),
		RunE:  app.Reconvert,
	}

	playCmd := &cobra.Command{
		Use:   "play [file]",
		Short: "▶️ Play the combined episode",
		Args:  cobra.MaximumNArgs(1),
		RunE:  app.Play,
	}

	// Add flags
	createCmd.Flags().StringP("reference", "r", "", "Path or URL of a reference document")
	generateCmd.Flags().StringP("reference", "r", "", "Path or URL of a reference document")

	rootCmd.AddCommand(createCmd, generateCmd, convertCmd, combineCmd, listCmd, testCmd, reconvertCmd, playCmd)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if errors.Is(err, context.Canceled) || ctx.Err() != nil {
			fmt.Println("\n" + colours.Warning.Sprint("Operation cancelled by user"))
			os.Exit(1)
		}
		fail(err)
	}
}

func fail(err error) {
	colours.Error.Fprintf(os.Stderr, "❌ Error: %v\n", err)
	if hint := episode.HintOf(err); hint != "" {
		colours.Hint.Fprintf(os.Stderr, "💡 %s\n", hint)
	}
	os.Exit(1)
}
