// Package audio converts episode text into narration files and stitches
// them into a single episode.
package audio

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/wav"
	"github.com/sirupsen/logrus"

	"podcaster/internal/domain/episode"
	"podcaster/internal/fileutil"
)

// ListAudioFiles returns the names of files in dir with extension ext,
// sorted lexicographically. Hidden files and the names in exclude are
// skipped.
func ListAudioFiles(dir, ext string, exclude ...string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, episode.NotFound("list audio", "run 'podcaster convert' first", "audio directory not found: %s", dir)
		}
		return nil, episode.IO("list audio", err)
	}
	skip := make(map[string]struct{}, len(exclude))
	for _, name := range exclude {
		skip[name] = struct{}{}
	}
	var names []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") || !strings.EqualFold(filepath.Ext(name), ext) {
			continue
		}
		if _, ok := skip[name]; ok {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// CombineAll concatenates every audio file in dir into outputName and
// returns its path and total duration.
func CombineAll(dir, outputName string) (string, time.Duration, error) {
	ext := filepath.Ext(outputName)
	names, err := ListAudioFiles(dir, ext, outputName)
	if err != nil {
		return "", 0, err
	}
	if len(names) == 0 {
		return "", 0, episode.NotFound("combine audio", "run 'podcaster convert' first", "no %s files found in %s", ext, dir)
	}
	logrus.WithField("files", names).Info("combining audio files")

	paths := make([]string, len(names))
	for i, name := range names {
		paths[i] = filepath.Join(dir, name)
	}
	out := filepath.Join(dir, outputName)
	total, err := Combine(paths, out)
	if err != nil {
		return "", 0, err
	}
	return out, total, nil
}

// Combine writes inputs, in order, into out. The format is chosen from the
// output extension: WAV is decoded and re-encoded, MP3 frames are joined
// byte-wise after validating that every input decodes.
func Combine(inputs []string, out string) (time.Duration, error) {
	if len(inputs) == 0 {
		return 0, episode.NotFound("combine audio", "", "no input files provided for combining")
	}
	for _, p := range inputs {
		if _, err := os.Stat(p); err != nil {
			return 0, episode.NotFound("combine audio", "", "audio file not found: %s", p)
		}
	}

	var (
		total time.Duration
		err   error
	)
	switch strings.ToLower(filepath.Ext(out)) {
	case ".wav":
		total, err = combineWAV(inputs, out)
	case ".mp3":
		total, err = combineMP3(inputs, out)
	default:
		return 0, episode.IO("combine audio", fmt.Errorf("unsupported audio format %q", filepath.Ext(out)))
	}
	if err != nil {
		return 0, episode.IO("combine audio", err)
	}

	logrus.WithFields(logrus.Fields{
		"file":     out,
		"inputs":   len(inputs),
		"duration": total.Round(10 * time.Millisecond).String(),
	}).Info("combined audio saved")
	return total, nil
}

func combineWAV(inputs []string, out string) (time.Duration, error) {
	var (
		streamers []beep.Streamer
		format    beep.Format
		total     time.Duration
	)
	for i, p := range inputs {
		f, err := os.Open(p)
		if err != nil {
			return 0, err
		}
		s, fmtIn, err := wav.Decode(f)
		if err != nil {
			f.Close()
			return 0, fmt.Errorf("decode %s: %w", p, err)
		}
		defer s.Close()

		total += fmtIn.SampleRate.D(s.Len())
		if i == 0 {
			format = fmtIn
			streamers = append(streamers, s)
			continue
		}
		if fmtIn.SampleRate != format.SampleRate {
			streamers = append(streamers, beep.Resample(4, fmtIn.SampleRate, format.SampleRate, s))
			continue
		}
		streamers = append(streamers, s)
	}

	err := fileutil.WriteAtomic(out, func(f *os.File) error {
		return wav.Encode(f, beep.Seq(streamers...), format)
	})
	return total, err
}

func combineMP3(inputs []string, out string) (time.Duration, error) {
	var joined bytes.Buffer
	for i, p := range inputs {
		if _, err := mp3Duration(p); err != nil {
			return 0, err
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return 0, err
		}

		audio := stripID3v2(data)
		if i == 0 {
			joined.Write(data[:len(data)-len(audio)])
		}
		if rest := stripVBRHeader(audio); len(rest) > 0 {
			audio = rest
		}
		if i < len(inputs)-1 {
			audio = stripID3v1(audio)
		}
		joined.Write(audio)
	}

	err := fileutil.WriteAtomic(out, func(f *os.File) error {
		_, err := f.Write(joined.Bytes())
		return err
	})
	if err != nil {
		return 0, err
	}
	// Measured on the output: dropped VBR header frames carry no audio.
	return mp3Duration(out)
}

func mp3Duration(path string) (time.Duration, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	s, format, err := mp3.Decode(f)
	if err != nil {
		f.Close()
		return 0, fmt.Errorf("decode %s: %w", path, err)
	}
	defer s.Close()
	return format.SampleRate.D(s.Len()), nil
}

// stripID3v2 drops a leading ID3v2 tag so joined files don't carry
// metadata blocks mid-stream.
func stripID3v2(data []byte) []byte {
	if len(data) < 10 || string(data[:3]) != "ID3" {
		return data
	}
	size := int(data[6]&0x7f)<<21 | int(data[7]&0x7f)<<14 | int(data[8]&0x7f)<<7 | int(data[9]&0x7f)
	end := 10 + size
	if data[5]&0x10 != 0 {
		end += 10 // footer
	}
	if end > len(data) {
		return data
	}
	return data[end:]
}

// stripID3v1 drops a trailing 128-byte ID3v1 tag.
func stripID3v1(data []byte) []byte {
	if len(data) >= 128 && string(data[len(data)-128:len(data)-125]) == "TAG" {
		return data[:len(data)-128]
	}
	return data
}

var (
	mpeg1L3Kbps = [15]int{0, 32, 40, 48, 56, 64, 80, 96, 112, 128, 160, 192, 224, 256, 320}
	mpeg2L3Kbps = [15]int{0, 8, 16, 24, 32, 40, 48, 56, 64, 80, 96, 112, 128, 144, 160}
	mpeg1Rates  = [3]int{44100, 48000, 32000}
)

// stripVBRHeader drops a leading Xing, Info or VBRI frame. That frame holds
// the frame count of one file only, so keeping it makes players report the
// first clip's length for the whole episode.
func stripVBRHeader(data []byte) []byte {
	if len(data) < 4 || data[0] != 0xff || data[1]&0xe0 != 0xe0 {
		return data
	}
	version := (data[1] >> 3) & 0x3 // 3 = MPEG1, 2 = MPEG2, 0 = MPEG2.5
	layer := (data[1] >> 1) & 0x3
	bitrateIdx := int(data[2] >> 4)
	rateIdx := int((data[2] >> 2) & 0x3)
	if version == 1 || layer != 1 || bitrateIdx == 0 || bitrateIdx == 15 || rateIdx == 3 {
		return data
	}
	crc := data[1]&0x1 == 0
	padding := int((data[2] >> 1) & 0x1)
	mono := data[3]>>6 == 3

	var size, sideInfo int
	if version == 3 {
		size = 144*mpeg1L3Kbps[bitrateIdx]*1000/mpeg1Rates[rateIdx] + padding
		sideInfo = 32
		if mono {
			sideInfo = 17
		}
	} else {
		rate := mpeg1Rates[rateIdx] / 2
		if version == 0 {
			rate /= 2
		}
		size = 72*mpeg2L3Kbps[bitrateIdx]*1000/rate + padding
		sideInfo = 17
		if mono {
			sideInfo = 9
		}
	}
	if size > len(data) {
		return data
	}

	tag := 4 + sideInfo
	if crc {
		tag += 2
	}
	frame := data[:size]
	if hasTagAt(frame, tag, "Xing") || hasTagAt(frame, tag, "Info") || hasTagAt(frame, 36, "VBRI") {
		return data[size:]
	}
	return data
}

func hasTagAt(frame []byte, off int, tag string) bool {
	return off+len(tag) <= len(frame) && string(frame[off:off+len(tag)]) == tag
}
