package loader

import (
	"bytes"
	"fmt"
	"io"

	"github.com/faiface/beep"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/wav"
	"golang.org/x/image/font/sfnt"

	"render-assets/audio"
)

func decodeFont(name string, data []byte) (*sfnt.Font, error) {
	if err := sniff(name, data, classFont); err != nil {
		return nil, err
	}
	f, err := sfnt.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%w: font %s: %w", ErrDecode, name, err)
	}
	return f, nil
}

// decodeAudio fully decodes a WAV or MP3 payload into memory.
func decodeAudio(name, ext string, data []byte) (*beep.Buffer, error) {
	if err := sniff(name, data, classAudio); err != nil {
		return nil, err
	}
	var (
		s      beep.StreamSeekCloser
		format beep.Format
		err    error
	)
	switch ext {
	case ".mp3":
		s, format, err = mp3.Decode(io.NopCloser(bytes.NewReader(data)))
	case ".wav", "":
		s, format, err = wav.Decode(bytes.NewReader(data))
	default:
		return nil, fmt.Errorf("%w: audio %s: unsupported extension %s", ErrDecode, name, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: audio %s: %w", ErrDecode, name, err)
	}
	defer s.Close()
	buf := beep.NewBuffer(format)
	buf.Append(s)
	if err := s.Err(); err != nil {
		return nil, fmt.Errorf("%w: audio %s: %w", ErrDecode, name, err)
	}
	return buf, nil
}

// newAudioSource builds a configured source around a decoded buffer.
func newAudioSource(e AudioEntry, buf *beep.Buffer) *audio.Source {
	src := audio.NewSource(e.Name, nil, e.Positional)
	src.SetBuffer(buf)
	src.SetLoop(e.Loop)
	vol := 1.0
	if e.Volume != nil {
		vol = *e.Volume
	}
	src.SetVolume(vol)
	return src
}
