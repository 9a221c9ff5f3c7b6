package tts

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/faiface/beep/wav"
)

func TestElevenLabsSynthesize(t *testing.T) {
	audio := []byte("ID3-fake-mp3-frames")
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/text-to-speech/voice-1" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("output_format"); got != "mp3_44100_128" {
			t.Errorf("unexpected output_format %q", got)
		}
		if got := r.Header.Get("xi-api-key"); got != "secret" {
			t.Errorf("unexpected api key %q", got)
		}
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if body["text"] != "hello listeners" || body["model_id"] != "eleven_turbo_v2_5" || body["seed"] != float64(42) {
			t.Errorf("unexpected body %#v", body)
		}
		w.Header().Set("Content-Type", "audio/mpeg")
		_, _ = w.Write(audio)
	}))
	defer server.Close()

	engine, err := NewEngine(context.Background(), Config{
		Type:    "elevenlabs",
		APIKey:  "secret",
		BaseURL: server.URL,
		Voice:   "voice-1",
		Seed:    42,
	})
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	out := filepath.Join(t.TempDir(), "audio", "subtopic_01.mp3")
	if err := engine.Synthesize(context.Background(), "hello listeners", out); err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if string(data) != string(audio) {
		t.Fatalf("unexpected audio %q", data)
	}
}

func TestElevenLabsErrorLeavesNoFile(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"detail":"invalid api key"}`))
	}))
	defer server.Close()

	engine, err := NewEngine(context.Background(), Config{Type: "elevenlabs", APIKey: "bad", BaseURL: server.URL})
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	out := filepath.Join(t.TempDir(), "x.mp3")
	err = engine.Synthesize(context.Background(), "text", out)
	if err == nil || !strings.Contains(err.Error(), "401") {
		t.Fatalf("expected status error, got %v", err)
	}
	if _, statErr := os.Stat(out); !os.IsNotExist(statErr) {
		t.Fatalf("output should not exist: %v", statErr)
	}
}

func TestElevenLabsVoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v2/voices" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"voices": []any{map[string]any{"voice_id": "abc", "name": "Rachel"}},
		})
	}))
	defer server.Close()

	engine, err := NewEngine(context.Background(), Config{Type: "elevenlabs", APIKey: "k", BaseURL: server.URL})
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	voices, err := engine.GetAvailableVoices(context.Background())
	if err != nil {
		t.Fatalf("GetAvailableVoices: %v", err)
	}
	if len(voices) != 1 || voices[0] != "Rachel (abc)" {
		t.Fatalf("voices = %v", voices)
	}
}

func TestElevenLabsRequiresKey(t *testing.T) {
	if _, err := NewEngine(context.Background(), Config{Type: "elevenlabs"}); err == nil {
		t.Fatal("expected missing key error")
	}
}

func TestMockEngineWritesDecodableWAV(t *testing.T) {
	engine := NewMockTTSEngine(Config{Speed: 1})
	out := filepath.Join(t.TempDir(), "subtopic_01.wav")
	text := strings.Repeat("word ", 20)
	if err := engine.Synthesize(context.Background(), text, out); err != nil {
		t.Fatalf("Synthesize: %v", err)
	}

	f, err := os.Open(out)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	streamer, format, err := wav.Decode(f)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	defer streamer.Close()

	want := format.SampleRate.N(time.Second)
	if streamer.Len() != want {
		t.Fatalf("expected %d samples for 20 words, got %d", want, streamer.Len())
	}
}

func TestResolveType(t *testing.T) {
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")
	os.Unsetenv("GOOGLE_APPLICATION_CREDENTIALS")

	tests := []struct {
		cfg  Config
		want EngineType
	}{
		{Config{Type: "mock"}, EngineTypeMock},
		{Config{Type: "GoogleClassic"}, EngineTypeGoogleClassic},
		{Config{Type: "auto", APIKey: "k"}, EngineTypeElevenLabs},
		{Config{Type: "auto"}, EngineTypeElevenLabs},
	}
	for _, tt := range tests {
		if got := ResolveType(tt.cfg); got != tt.want {
			t.Errorf("ResolveType(%+v) = %s, want %s", tt.cfg, got, tt.want)
		}
	}
	if ExtensionFor(Config{Type: "mock"}) != ".wav" || ExtensionFor(Config{Type: "elevenlabs"}) != ".mp3" {
		t.Fatal("unexpected extensions")
	}
	if got := RequiredCredentials(Config{Type: "auto"}); len(got) != 1 || got[0] != "ELEVENLABS_API_KEY" {
		t.Fatalf("RequiredCredentials = %v", got)
	}
	if got := RequiredCredentials(Config{Type: "mock"}); len(got) != 0 {
		t.Fatalf("mock should need no credentials, got %v", got)
	}
}

func TestSplitIntoChunks(t *testing.T) {
	text := strings.Repeat("abcd ", 30)
	chunks := splitIntoChunks(text, 32)
	if strings.Join(chunks, "") != text {
		t.Fatal("chunks do not reassemble the text")
	}
	for _, c := range chunks {
		if len([]rune(c)) > 32 {
			t.Fatalf("chunk too long: %q", c)
		}
	}
	multibyte := strings.Repeat("日本語のテキストです。", 40) + " " + strings.Repeat("ß", 50)
	chunks = splitIntoChunks(multibyte, 32)
	if strings.Join(chunks, "") != multibyte {
		t.Fatal("multibyte chunks do not reassemble the text")
	}
	for _, c := range chunks {
		if len(c) > 32 {
			t.Fatalf("chunk over byte limit: %d bytes", len(c))
		}
		if !utf8.ValidString(c) {
			t.Fatalf("chunk splits a rune: %q", c)
		}
	}
	if got := splitIntoChunks("", 10); len(got) != 0 {
		t.Fatalf("expected no chunks for empty text, got %v", got)
	}
	if languageCode("de-DE-Neural2-B") != "de-DE" || languageCode("weird") != "en-US" {
		t.Fatal("unexpected language codes")
	}
}
