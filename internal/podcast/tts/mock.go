package tts

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/wav"
	"github.com/sirupsen/logrus"

	"podcaster/internal/fileutil"
)

const mockSampleRate beep.SampleRate = 22050

// MockTTSEngine writes silent WAV clips whose length tracks the word count.
// It lets the convert and combine steps run without a speech provider.
type MockTTSEngine struct {
	speed  float64
	voice  string
	format beep.Format
}

func NewMockTTSEngine(c Config) *MockTTSEngine {
	speed := c.Speed
	if speed <= 0 {
		speed = 1.0
	}
	return &MockTTSEngine{
		speed: speed,
		voice: "mock-voice",
		format: beep.Format{
			SampleRate:  mockSampleRate,
			NumChannels: 1,
			Precision:   2,
		},
	}
}

func (m *MockTTSEngine) Name() string      { return EngineTypeMock.String() }
func (m *MockTTSEngine) Extension() string { return ".wav" }
func (m *MockTTSEngine) Close() error      { return nil }

func (m *MockTTSEngine) GetAvailableVoices(context.Context) ([]string, error) {
	return []string{m.voice}, nil
}

// ClipDuration is the simulated reading time of text: 50ms per word, at
// least 100ms, scaled by speed.
func (m *MockTTSEngine) ClipDuration(text string) time.Duration {
	words := len(strings.Fields(text))
	d := time.Duration(float64(words) * float64(50*time.Millisecond) / m.speed)
	if d < 100*time.Millisecond {
		d = 100 * time.Millisecond
	}
	return d
}

func (m *MockTTSEngine) Synthesize(_ context.Context, text, outPath string) error {
	d := m.ClipDuration(text)
	samples := m.format.SampleRate.N(d)

	logrus.WithFields(logrus.Fields{
		"file":     outPath,
		"duration": d,
	}).Debug("writing simulated narration")

	return fileutil.WriteAtomic(outPath, func(f *os.File) error {
		return wav.Encode(f, beep.Silence(samples), m.format)
	})
}
