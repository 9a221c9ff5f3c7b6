package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"podcaster/internal/fileutil"
)

const (
	elevenLabsBaseURL      = "https://api.elevenlabs.io"
	defaultElevenLabsVoice = "bIHbv24MWmeRgasZH58o"
	defaultElevenLabsModel = "eleven_turbo_v2_5"
	defaultOutputFormat    = "mp3_44100_128"
)

type ElevenLabsEngine struct {
	baseURL      string
	apiKey       string
	voice        string
	model        string
	outputFormat string
	seed         int
	httpClient   *http.Client
}

type elevenLabsVoice struct {
	VoiceID string `json:"voice_id"`
	Name    string `json:"name"`
}

type elevenLabsVoiceList struct {
	Voices []elevenLabsVoice `json:"voices"`
}

func newElevenLabsEngine(config Config) (*ElevenLabsEngine, error) {
	if strings.TrimSpace(config.APIKey) == "" {
		return nil, fmt.Errorf("ELEVENLABS_API_KEY environment variable is not set")
	}
	e := &ElevenLabsEngine{
		baseURL:      strings.TrimRight(config.BaseURL, "/"),
		apiKey:       config.APIKey,
		voice:        config.Voice,
		model:        config.Model,
		outputFormat: config.OutputFormat,
		seed:         config.Seed,
		httpClient:   http.DefaultClient,
	}
	if e.baseURL == "" {
		e.baseURL = elevenLabsBaseURL
	}
	if e.voice == "" {
		e.voice = defaultElevenLabsVoice
	}
	if e.model == "" {
		e.model = defaultElevenLabsModel
	}
	if e.outputFormat == "" {
		e.outputFormat = defaultOutputFormat
	}
	return e, nil
}

func (e *ElevenLabsEngine) Name() string      { return EngineTypeElevenLabs.String() }
func (e *ElevenLabsEngine) Extension() string { return ".mp3" }
func (e *ElevenLabsEngine) Close() error      { return nil }

// Synthesize downloads the complete audio stream before moving it into place.
func (e *ElevenLabsEngine) Synthesize(ctx context.Context, text, outPath string) error {
	endpoint := fmt.Sprintf("%s/v1/text-to-speech/%s?output_format=%s",
		e.baseURL, url.PathEscape(e.voice), url.QueryEscape(e.outputFormat))

	body := map[string]any{
		"text":     text,
		"model_id": e.model,
		"seed":     e.seed,
	}
	req, err := e.newRequest(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "audio/mpeg")

	logrus.WithFields(logrus.Fields{
		"voice": e.voice,
		"model": e.model,
		"file":  outPath,
	}).Info("requesting ElevenLabs speech")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("elevenlabs request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("elevenlabs api returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var written int64
	err = fileutil.WriteAtomic(outPath, func(f *os.File) error {
		n, err := io.Copy(f, resp.Body)
		written = n
		if err != nil {
			return fmt.Errorf("failed reading ElevenLabs audio: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	if written == 0 {
		os.Remove(outPath)
		return fmt.Errorf("elevenlabs returned empty audio for %s", outPath)
	}

	logrus.WithFields(logrus.Fields{"file": outPath, "bytes": written}).Info("saved ElevenLabs audio")
	return nil
}

func (e *ElevenLabsEngine) GetAvailableVoices(ctx context.Context) ([]string, error) {
	req, err := e.newRequest(ctx, http.MethodGet, e.baseURL+"/v2/voices", nil)
	if err != nil {
		return nil, err
	}
	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("elevenlabs api returned status %d: %s", resp.StatusCode, string(data))
	}

	var list elevenLabsVoiceList
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, err
	}
	names := make([]string, 0, len(list.Voices))
	for _, v := range list.Voices {
		names = append(names, fmt.Sprintf("%s (%s)", v.Name, v.VoiceID))
	}
	return names, nil
}

func (e *ElevenLabsEngine) newRequest(ctx context.Context, method, endpoint string, body map[string]any) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(jsonData)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("xi-api-key", e.apiKey)
	return req, nil
}
