// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Interview Agent Contributors

package speech

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"time"

	apperr "github.com/JNalv/interview-agent/pkg/errors"
)

const (
	bitsPerSample  = 16
	audioFormatPCM = 1
	wavHeaderSize  = 44
)

// Audio is interleaved signed 16-bit PCM.
type Audio struct {
	Samples    []int16
	SampleRate int
	Channels   int
}

// Duration is the playback length of the samples.
func (a Audio) Duration() time.Duration {
	if a.SampleRate <= 0 || a.Channels <= 0 {
		return 0
	}
	frames := len(a.Samples) / a.Channels
	return time.Duration(frames) * time.Second / time.Duration(a.SampleRate)
}

// Empty reports whether there is nothing to transcribe.
func (a Audio) Empty() bool {
	return len(a.Samples) == 0
}

func (a Audio) validate() error {
	if a.Empty() {
		return apperr.New(apperr.CodeSpeechTranscribeFailure, "no audio recorded")
	}
	if a.Channels != 1 && a.Channels != 2 {
		return apperr.Errorf(apperr.CodeSpeechAudioInvalid, "only mono or stereo audio is supported, got %d channels", a.Channels)
	}
	if a.SampleRate <= 0 {
		return apperr.Errorf(apperr.CodeSpeechAudioInvalid, "sample rate must be positive, got %d", a.SampleRate)
	}
	if len(a.Samples)%a.Channels != 0 {
		return apperr.New(apperr.CodeSpeechAudioInvalid, "sample count does not match channel count")
	}
	return nil
}

// EncodeWAV renders a as a canonical 44-byte-header PCM WAV file.
func EncodeWAV(a Audio) ([]byte, error) {
	if err := a.validate(); err != nil {
		return nil, err
	}

	blockAlign := a.Channels * bitsPerSample / 8
	byteRate := a.SampleRate * blockAlign
	dataSize := len(a.Samples) * 2

	buf := bytes.NewBuffer(make([]byte, 0, wavHeaderSize+dataSize))
	buf.WriteString("RIFF")
	_ = binary.Write(buf, binary.LittleEndian, uint32(36+dataSize))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	_ = binary.Write(buf, binary.LittleEndian, uint32(16))
	_ = binary.Write(buf, binary.LittleEndian, uint16(audioFormatPCM))
	_ = binary.Write(buf, binary.LittleEndian, uint16(a.Channels))
	_ = binary.Write(buf, binary.LittleEndian, uint32(a.SampleRate))
	_ = binary.Write(buf, binary.LittleEndian, uint32(byteRate))
	_ = binary.Write(buf, binary.LittleEndian, uint16(blockAlign))
	_ = binary.Write(buf, binary.LittleEndian, uint16(bitsPerSample))

	buf.WriteString("data")
	_ = binary.Write(buf, binary.LittleEndian, uint32(dataSize))
	_ = binary.Write(buf, binary.LittleEndian, a.Samples)

	return buf.Bytes(), nil
}

// DecodeWAV parses a 16-bit PCM WAV file. Unknown chunks are skipped.
func DecodeWAV(data []byte) (Audio, error) {
	if len(data) < 12 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return Audio{}, apperr.New(apperr.CodeSpeechAudioInvalid, "not a RIFF/WAVE file")
	}

	var (
		a       Audio
		haveFmt bool
	)
	pos := 12
	for pos+8 <= len(data) {
		id := string(data[pos : pos+4])
		size := int(binary.LittleEndian.Uint32(data[pos+4 : pos+8]))
		body := pos + 8
		end := body + size
		if end > len(data) {
			end = len(data)
		}

		switch id {
		case "fmt ":
			if end-body < 16 {
				return Audio{}, apperr.New(apperr.CodeSpeechAudioInvalid, "truncated fmt chunk")
			}
			format := binary.LittleEndian.Uint16(data[body:])
			a.Channels = int(binary.LittleEndian.Uint16(data[body+2:]))
			a.SampleRate = int(binary.LittleEndian.Uint32(data[body+4:]))
			bits := binary.LittleEndian.Uint16(data[body+14:])
			if format != audioFormatPCM || bits != bitsPerSample {
				return Audio{}, apperr.Errorf(apperr.CodeSpeechAudioInvalid,
					"only 16-bit PCM is supported, got format %d with %d bits", format, bits)
			}
			haveFmt = true
		case "data":
			if !haveFmt {
				return Audio{}, apperr.New(apperr.CodeSpeechAudioInvalid, "data chunk before fmt chunk")
			}
			raw := data[body:end]
			a.Samples = make([]int16, len(raw)/2)
			if err := binary.Read(bytes.NewReader(raw[:len(a.Samples)*2]), binary.LittleEndian, a.Samples); err != nil {
				return Audio{}, apperr.Wrap(err, apperr.CodeSpeechAudioInvalid, "reading samples")
			}
			return a, nil
		}

		// Chunks are padded to an even size.
		pos = body + size + size%2
	}

	return Audio{}, apperr.New(apperr.CodeSpeechAudioInvalid, "missing data chunk")
}

// ReadWAVFile loads a WAV file from disk.
func ReadWAVFile(path string) (Audio, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Audio{}, apperr.Wrap(err, apperr.CodeSpeechTranscribeFailure, "reading audio file", apperr.FieldPath(path))
	}
	a, err := DecodeWAV(data)
	if err != nil {
		return Audio{}, apperr.With(err, apperr.FieldPath(path))
	}
	return a, nil
}

// WriteWAVFile stores a as a WAV file.
func WriteWAVFile(path string, a Audio) error {
	data, err := EncodeWAV(a)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return apperr.Wrap(err, apperr.CodeSpeechTranscribeFailure, "writing audio file", apperr.FieldPath(path))
	}
	return nil
}

var errNoSpeech = errors.New("no speech detected")

func noSpeech(backend string) error {
	return apperr.Wrap(errNoSpeech, apperr.CodeSpeechTranscribeFailure, fmt.Sprintf("%s returned an empty transcript", backend))
}
