package audio

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/speaker"
	"github.com/faiface/beep/wav"
	"github.com/sirupsen/logrus"

	"podcaster/internal/domain/episode"
)

// Decode opens an MP3 or WAV file by extension.
func Decode(path string) (beep.StreamSeekCloser, beep.Format, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, beep.Format{}, episode.NotFound("open audio", "run 'podcaster combine' first", "audio file not found: %s", path)
		}
		return nil, beep.Format{}, episode.IO("open audio", err)
	}

	var (
		s      beep.StreamSeekCloser
		format beep.Format
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp3":
		s, format, err = mp3.Decode(f)
	case ".wav":
		s, format, err = wav.Decode(f)
	default:
		err = fmt.Errorf("unsupported audio format %q", filepath.Ext(path))
	}
	if err != nil {
		f.Close()
		return nil, beep.Format{}, episode.IO("decode "+filepath.Base(path), err)
	}
	return s, format, nil
}

// Play streams path to the default output device and blocks until playback
// ends or ctx is cancelled.
func Play(ctx context.Context, path string) error {
	s, format, err := Decode(path)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := speaker.Init(format.SampleRate, format.SampleRate.N(100*time.Millisecond)); err != nil {
		return episode.IO("init speaker", err)
	}

	logrus.WithFields(logrus.Fields{
		"file":     path,
		"duration": format.SampleRate.D(s.Len()).Round(time.Second).String(),
	}).Info("playing audio")

	done := make(chan struct{})
	ctrl := &beep.Ctrl{Streamer: s}
	speaker.Play(beep.Seq(ctrl, beep.Callback(func() { close(done) })))

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		speaker.Lock()
		ctrl.Streamer = nil
		speaker.Unlock()
		return ctx.Err()
	}
}
