package tts

import (
	"context"
	"fmt"
	"os"
	"strings"
)

type EngineType string

const (
	EngineTypeMock          EngineType = "mock"
	EngineTypeElevenLabs    EngineType = "elevenlabs"
	EngineTypeGoogleClassic EngineType = "googleclassic"
	EngineTypeAuto          EngineType = "auto" // pick based on available credentials
)

func (e EngineType) String() string {
	return string(e)
}

// ResolveType turns "auto" into a concrete engine type.
func ResolveType(config Config) EngineType {
	t := EngineType(strings.ToLower(strings.TrimSpace(config.Type)))
	if t != EngineTypeAuto && t != "" {
		return t
	}
	switch {
	case strings.TrimSpace(config.APIKey) != "":
		return EngineTypeElevenLabs
	case hasGoogleCredentials():
		return EngineTypeGoogleClassic
	default:
		return EngineTypeElevenLabs
	}
}

// ExtensionFor returns the file extension the engine selected by config
// writes. It does not need credentials, so the combine step can use it.
func ExtensionFor(config Config) string {
	if ResolveType(config) == EngineTypeMock {
		return ".wav"
	}
	return ".mp3"
}

// NewEngine creates a new TTS engine based on the provided config
func NewEngine(ctx context.Context, config Config) (Engine, error) {
	switch ResolveType(config) {
	case EngineTypeMock:
		return NewMockTTSEngine(config), nil

	case EngineTypeElevenLabs:
		return newElevenLabsEngine(config)

	case EngineTypeGoogleClassic:
		return newGoogleClassicTTSEngine(ctx, config)

	default:
		return nil, fmt.Errorf("unsupported TTS engine type: %s", config.Type)
	}
}

// RequiredCredentials lists the environment variables the selected engine
// needs, for configuration validation.
func RequiredCredentials(config Config) []string {
	switch ResolveType(config) {
	case EngineTypeElevenLabs:
		if strings.TrimSpace(config.APIKey) == "" {
			return []string{"ELEVENLABS_API_KEY"}
		}
	case EngineTypeGoogleClassic:
		if !hasGoogleCredentials() {
			return []string{"GOOGLE_APPLICATION_CREDENTIALS"}
		}
	}
	return nil
}

// hasGoogleCredentials checks if Google Cloud credentials are available
func hasGoogleCredentials() bool {
	_, ok := os.LookupEnv("GOOGLE_APPLICATION_CREDENTIALS")
	return ok
}
