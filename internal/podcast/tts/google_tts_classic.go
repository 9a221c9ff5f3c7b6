package tts

import (
	"context"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"cloud.google.com/go/texttospeech/apiv1"
	"github.com/sirupsen/logrus"
	texttospeechpb "google.golang.org/genproto/googleapis/cloud/texttospeech/v1"

	"podcaster/internal/fileutil"
)

const (
	defaultGoogleVoice = "en-US-Chirp3-HD-Charon"
	// The API rejects inputs over 5000 bytes; stay a little under.
	googleChunkLimit = 4800
)

type GoogleClassicTTSEngine struct {
	client *texttospeech.Client
	voice  string
	speed  float64
	volume float64
}

func newGoogleClassicTTSEngine(ctx context.Context, config Config) (*GoogleClassicTTSEngine, error) {
	client, err := texttospeech.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create TTS client: %w", err)
	}

	voice := strings.TrimSpace(config.GoogleVoice)
	if voice == "" {
		voice = defaultGoogleVoice
	}

	return &GoogleClassicTTSEngine{
		client: client,
		voice:  voice,
		speed:  config.Speed,
		volume: config.Volume,
	}, nil
}

func (g *GoogleClassicTTSEngine) Name() string      { return EngineTypeGoogleClassic.String() }
func (g *GoogleClassicTTSEngine) Extension() string { return ".mp3" }

func (g *GoogleClassicTTSEngine) Close() error {
	return g.client.Close()
}

// Synthesize sends the text in chunks and appends the returned MP3 frames to
// a single file.
func (g *GoogleClassicTTSEngine) Synthesize(ctx context.Context, text, outPath string) error {
	audioCfg := &texttospeechpb.AudioConfig{
		AudioEncoding: texttospeechpb.AudioEncoding_MP3,
	}

	// Chirp voices don't support speakingRate/volume tweaks
	if !strings.Contains(strings.ToLower(g.voice), "chirp") {
		if g.speed > 0 {
			audioCfg.SpeakingRate = g.speed
		}
		audioCfg.VolumeGainDb = g.volume
	}

	chunks := splitIntoChunks(text, googleChunkLimit)

	return fileutil.WriteAtomic(outPath, func(f *os.File) error {
		for chunkIndex, chunk := range chunks {
			req := &texttospeechpb.SynthesizeSpeechRequest{
				Input: &texttospeechpb.SynthesisInput{
					InputSource: &texttospeechpb.SynthesisInput_Text{Text: chunk},
				},
				Voice: &texttospeechpb.VoiceSelectionParams{
					LanguageCode: languageCode(g.voice),
					Name:         g.voice,
				},
				AudioConfig: audioCfg,
			}
			resp, err := g.client.SynthesizeSpeech(ctx, req)
			if err != nil {
				return fmt.Errorf("failed to synthesize chunk %d: %w", chunkIndex, err)
			}
			if _, err := f.Write(resp.AudioContent); err != nil {
				return fmt.Errorf("failed to write MP3 chunk %d to %s: %w", chunkIndex, outPath, err)
			}
			logrus.WithFields(logrus.Fields{
				"file":  outPath,
				"chunk": fmt.Sprintf("%d/%d", chunkIndex+1, len(chunks)),
			}).Debug("synthesized audio chunk")
		}
		return nil
	})
}

func (g *GoogleClassicTTSEngine) GetAvailableVoices(ctx context.Context) ([]string, error) {
	resp, err := g.client.ListVoices(ctx, &texttospeechpb.ListVoicesRequest{})
	if err != nil {
		return nil, err
	}
	voices := []string{}
	for _, v := range resp.Voices {
		voices = append(voices, v.Name)
	}
	return voices, nil
}

// languageCode derives "en-US" from a voice name like "en-US-Chirp3-HD-Charon".
func languageCode(voice string) string {
	parts := strings.SplitN(voice, "-", 3)
	if len(parts) < 2 {
		return "en-US"
	}
	return parts[0] + "-" + parts[1]
}

// splitIntoChunks cuts text into pieces of at most limit bytes, breaking on
// whitespace when possible and never inside a rune.
func splitIntoChunks(text string, limit int) []string {
	var chunks []string
	for len(text) > 0 {
		if len(text) <= limit {
			chunks = append(chunks, text)
			break
		}
		end := 0
		for end < len(text) {
			_, size := utf8.DecodeRuneInString(text[end:])
			if end+size > limit {
				break
			}
			end += size
		}
		if end == 0 {
			_, end = utf8.DecodeRuneInString(text)
		}
		if cut := strings.LastIndexAny(text[:end], " \n"); cut > end/2 {
			end = cut
		}
		chunks = append(chunks, text[:end])
		text = text[end:]
	}
	return chunks
}
