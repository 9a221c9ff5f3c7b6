package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"podcaster/internal/domain/episode"
	"podcaster/internal/podcast/llm"
	"podcaster/internal/podcast/tts"
)

// Config is the resolved settings for one invocation.
type Config struct {
	DataDir  string
	TextDir  string
	AudioDir string

	LLM   llm.Settings
	TTS   tts.Config
	Audio AudioConfig

	Reference ReferenceConfig
	Log       LogConfig
}

type AudioConfig struct {
	// CombinedName is the base name of the combined episode, without extension.
	CombinedName string
}

type ReferenceConfig struct {
	CacheDir string
	MaxAge   time.Duration
}

type LogConfig struct {
	Level  string
	Format string
}

func SetDefaults() {
	viper.SetDefault("data_dir", "data")
	viper.SetDefault("text_dir", filepath.Join("data", "text_output"))
	viper.SetDefault("audio_dir", filepath.Join("data", "audio_output"))

	viper.SetDefault("llm.provider", llm.ProviderAnthropic)
	viper.SetDefault("llm.model", "claude-3-7-sonnet-latest")
	viper.SetDefault("llm.base_url", "")
	viper.SetDefault("llm.temperature", 0.05)
	viper.SetDefault("llm.max_tokens", 20000)
	viper.SetDefault("llm.timeout", time.Duration(0))
	viper.SetDefault("llm.max_retries", 2)

	viper.SetDefault("tts.type", tts.EngineTypeAuto.String()) // pick by available credentials
	viper.SetDefault("tts.voice", "bIHbv24MWmeRgasZH58o")
	viper.SetDefault("tts.google_voice", "")
	viper.SetDefault("tts.model", "eleven_turbo_v2_5")
	viper.SetDefault("tts.output_format", "mp3_44100_128")
	viper.SetDefault("tts.seed", 42)
	viper.SetDefault("tts.speed", 1.0)
	viper.SetDefault("tts.volume", 0.0)
	viper.SetDefault("tts.base_url", "")

	viper.SetDefault("audio.combined_name", "combined_episode")

	viper.SetDefault("reference.cache_dir", defaultCacheDir())
	viper.SetDefault("reference.max_age", 24*time.Hour)

	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "text")
}

// Init loads .env, the optional podcaster.yaml and the environment into
// viper. A missing config file is not an error.
func Init() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logrus.WithError(err).Warn("could not load .env file")
	}

	SetDefaults()

	viper.SetConfigName("podcaster")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("$HOME/.podcaster")
	viper.AddConfigPath(".")

	viper.SetEnvPrefix("PODCASTER")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	_ = viper.BindEnv("tts.api_key", "PODCASTER_TTS_API_KEY", "ELEVENLABS_API_KEY")

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return episode.Configuration("read config", err)
		}
	}
	return nil
}

// Load builds a Config from viper's current state.
func Load() Config {
	provider := strings.ToLower(viper.GetString("llm.provider"))
	return Config{
		DataDir:  viper.GetString("data_dir"),
		TextDir:  viper.GetString("text_dir"),
		AudioDir: viper.GetString("audio_dir"),
		LLM: llm.Settings{
			Provider:    provider,
			Model:       viper.GetString("llm.model"),
			APIKey:      llmAPIKey(provider),
			BaseURL:     viper.GetString("llm.base_url"),
			Temperature: viper.GetFloat64("llm.temperature"),
			MaxTokens:   viper.GetInt64("llm.max_tokens"),
			MaxRetries:  viper.GetInt("llm.max_retries"),
			Timeout:     viper.GetDuration("llm.timeout"),
		},
		TTS: tts.Config{
			Type:         viper.GetString("tts.type"),
			Voice:        viper.GetString("tts.voice"),
			GoogleVoice:  viper.GetString("tts.google_voice"),
			Model:        viper.GetString("tts.model"),
			OutputFormat: viper.GetString("tts.output_format"),
			Seed:         viper.GetInt("tts.seed"),
			Speed:        viper.GetFloat64("tts.speed"),
			Volume:       viper.GetFloat64("tts.volume"),
			BaseURL:      viper.GetString("tts.base_url"),
			APIKey:       viper.GetString("tts.api_key"),
		},
		Audio: AudioConfig{
			CombinedName: viper.GetString("audio.combined_name"),
		},
		Reference: ReferenceConfig{
			CacheDir: viper.GetString("reference.cache_dir"),
			MaxAge:   viper.GetDuration("reference.max_age"),
		},
		Log: LogConfig{
			Level:  viper.GetString("log.level"),
			Format: viper.GetString("log.format"),
		},
	}
}

// llmAPIKey prefers llm.api_key and falls back to the provider's own
// environment variable.
func llmAPIKey(provider string) string {
	if key := viper.GetString("llm.api_key"); key != "" {
		return key
	}
	if env := llmKeyEnv(provider); env != "" {
		return os.Getenv(env)
	}
	return ""
}

func llmKeyEnv(provider string) string {
	switch provider {
	case llm.ProviderAnthropic:
		return "ANTHROPIC_API_KEY"
	case llm.ProviderOpenAI:
		return "OPENAI_API_KEY"
	}
	return ""
}

// CombinedFileName is the combined episode file name for the configured
// TTS engine's audio format.
func (c Config) CombinedFileName() string {
	return c.Audio.CombinedName + tts.ExtensionFor(c.TTS)
}

// ValidateLLM reports missing LLM credentials.
func (c Config) ValidateLLM() error {
	return missing("llm", c.missingLLM())
}

// ValidateTTS reports missing speech credentials.
func (c Config) ValidateTTS() error {
	return missing("tts", tts.RequiredCredentials(c.TTS))
}

// Validate checks every credential a full run needs and names all of the
// missing variables at once.
func (c Config) Validate() error {
	vars := append(c.missingLLM(), tts.RequiredCredentials(c.TTS)...)
	return missing("environment", vars)
}

func (c Config) missingLLM() []string {
	if c.LLM.Provider == llm.ProviderMock || c.LLM.APIKey != "" {
		return nil
	}
	if env := llmKeyEnv(c.LLM.Provider); env != "" {
		return []string{env}
	}
	return nil
}

func missing(op string, vars []string) error {
	if len(vars) == 0 {
		return nil
	}
	return &episode.Error{
		Kind: episode.KindConfiguration,
		Op:   op,
		Err:  fmt.Errorf("missing required environment variables: %s", strings.Join(vars, ", ")),
		Hint: "set them in your .env file or environment",
	}
}

// ConfigureLogging applies the log level and format to the standard logrus
// logger.
func ConfigureLogging(c LogConfig) error {
	level, err := logrus.ParseLevel(c.Level)
	if err != nil {
		return episode.Configuration("log level", err)
	}
	logrus.SetLevel(level)

	switch strings.ToLower(c.Format) {
	case "", "text":
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	case "json":
		logrus.SetFormatter(&logrus.JSONFormatter{})
	default:
		return episode.Configuration("log format", fmt.Errorf("unknown log format %q", c.Format))
	}
	return nil
}

func defaultCacheDir() string {
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, "podcaster")
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".podcaster", "cache")
	}
	return "cache"
}
