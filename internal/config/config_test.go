package config

import (
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"podcaster/internal/domain/episode"
)

func loadWith(t *testing.T, overrides map[string]any) Config {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)
	SetDefaults()
	for k, v := range overrides {
		viper.Set(k, v)
	}
	return Load()
}

func TestDefaults(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")
	cfg := loadWith(t, nil)

	if cfg.TextDir != "data/text_output" || cfg.AudioDir != "data/audio_output" {
		t.Fatalf("unexpected dirs %q %q", cfg.TextDir, cfg.AudioDir)
	}
	if cfg.LLM.Provider != "anthropic" || cfg.LLM.Model != "claude-3-7-sonnet-latest" {
		t.Fatalf("unexpected llm %+v", cfg.LLM)
	}
	if cfg.LLM.Temperature != 0.05 || cfg.LLM.MaxTokens != 20000 || cfg.LLM.MaxRetries != 2 {
		t.Fatalf("unexpected llm tuning %+v", cfg.LLM)
	}
	if cfg.TTS.Seed != 42 || cfg.TTS.Model != "eleven_turbo_v2_5" || cfg.TTS.OutputFormat != "mp3_44100_128" {
		t.Fatalf("unexpected tts %+v", cfg.TTS)
	}
	if cfg.Reference.MaxAge != 24*time.Hour {
		t.Fatalf("unexpected reference max age %v", cfg.Reference.MaxAge)
	}
}

func TestProviderKeyFromEnvironment(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	cfg := loadWith(t, map[string]any{"llm.provider": "OpenAI"})
	if cfg.LLM.Provider != "openai" || cfg.LLM.APIKey != "sk-test" {
		t.Fatalf("unexpected llm %+v", cfg.LLM)
	}

	cfg = loadWith(t, map[string]any{"llm.provider": "openai", "llm.api_key": "explicit"})
	if cfg.LLM.APIKey != "explicit" {
		t.Fatalf("llm.api_key should win, got %q", cfg.LLM.APIKey)
	}
}

func TestValidateNamesEveryMissingVariable(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")
	cfg := loadWith(t, map[string]any{"tts.type": "elevenlabs", "tts.api_key": ""})

	err := cfg.Validate()
	if !episode.IsKind(err, episode.KindConfiguration) {
		t.Fatalf("expected ConfigurationError, got %v", err)
	}
	for _, name := range []string{"ANTHROPIC_API_KEY", "ELEVENLABS_API_KEY"} {
		if !strings.Contains(err.Error(), name) {
			t.Errorf("error should name %s: %v", name, err)
		}
	}
}

func TestValidateMockNeedsNothing(t *testing.T) {
	cfg := loadWith(t, map[string]any{"llm.provider": "mock", "tts.type": "mock"})
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if got := cfg.CombinedFileName(); got != "combined_episode.wav" {
		t.Fatalf("CombinedFileName = %q", got)
	}
}

func TestCombinedFileNameForSpeechEngines(t *testing.T) {
	cfg := loadWith(t, map[string]any{"tts.type": "elevenlabs", "audio.combined_name": "episode_one"})
	if got := cfg.CombinedFileName(); got != "episode_one.mp3" {
		t.Fatalf("CombinedFileName = %q", got)
	}
}

func TestConfigureLogging(t *testing.T) {
	defer logrus.SetLevel(logrus.GetLevel())
	defer logrus.SetFormatter(logrus.StandardLogger().Formatter)

	if err := ConfigureLogging(LogConfig{Level: "debug", Format: "json"}); err != nil {
		t.Fatalf("ConfigureLogging: %v", err)
	}
	if logrus.GetLevel() != logrus.DebugLevel {
		t.Fatalf("level = %v", logrus.GetLevel())
	}
	if _, ok := logrus.StandardLogger().Formatter.(*logrus.JSONFormatter); !ok {
		t.Fatalf("expected JSON formatter, got %T", logrus.StandardLogger().Formatter)
	}

	if err := ConfigureLogging(LogConfig{Level: "loud"}); !episode.IsKind(err, episode.KindConfiguration) {
		t.Fatalf("expected ConfigurationError, got %v", err)
	}
	if err := ConfigureLogging(LogConfig{Level: "info", Format: "xml"}); !episode.IsKind(err, episode.KindConfiguration) {
		t.Fatalf("expected ConfigurationError, got %v", err)
	}
}
