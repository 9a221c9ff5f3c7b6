// internal/podcast/tts/tts.go
package tts

import (
	"context"
)

type Config struct {
	Type         string
	Voice        string
	GoogleVoice  string
	Model        string
	OutputFormat string
	Seed         int
	Speed        float64
	Volume       float64
	BaseURL      string
	APIKey       string
}

// Engine turns narration text into an audio file
type Engine interface {
	Name() string
	// Extension is the audio file extension the engine writes, with the dot.
	Extension() string
	Synthesize(ctx context.Context, text, outPath string) error
	GetAvailableVoices(ctx context.Context) ([]string, error)
	Close() error
}
