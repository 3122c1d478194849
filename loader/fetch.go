package loader

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path"
	"strings"

	"github.com/h2non/filetype"
	"github.com/pierrec/lz4/v4"
)

// ErrDecode wraps every failure to read or decode an asset payload.
var ErrDecode = errors.New("loader: decode failed")

// lz4Ext marks files stored as lz4 frames; the payload's own extension
// precedes it.
const lz4Ext = ".lz4"

// fetch reads p from fsys, inflating lz4 frames, and returns the payload
// together with the extension of the decompressed name.
func fetch(fsys fs.FS, p string) ([]byte, string, error) {
	raw, err := fs.ReadFile(fsys, p)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %w", ErrDecode, err)
	}
	name := p
	if strings.EqualFold(path.Ext(p), lz4Ext) {
		name = strings.TrimSuffix(p, path.Ext(p))
		raw, err = inflate(raw)
		if err != nil {
			return nil, "", fmt.Errorf("%w: %s: %w", ErrDecode, p, err)
		}
	}
	return raw, strings.ToLower(path.Ext(name)), nil
}

func inflate(frame []byte) ([]byte, error) {
	var out bytes.Buffer
	if _, err := io.Copy(&out, lz4.NewReader(bytes.NewReader(frame))); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// Compress wraps data in an lz4 frame, the format fetch inflates.
func Compress(data []byte) ([]byte, error) {
	var out bytes.Buffer
	w := lz4.NewWriter(&out)
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// payloadClass is the broad kind of data a category accepts.
type payloadClass int

const (
	classImage payloadClass = iota
	classAudio
	classFont
)

func (c payloadClass) String() string {
	switch c {
	case classImage:
		return "image"
	case classAudio:
		return "audio"
	case classFont:
		return "font"
	}
	return "unknown"
}

// sniff rejects a payload whose magic bytes identify it as something other
// than class. Payloads filetype cannot identify are let through to the
// decoder.
func sniff(name string, data []byte, class payloadClass) error {
	kind, err := filetype.Match(data)
	if err != nil || kind == filetype.Unknown {
		return nil
	}
	ok := false
	switch class {
	case classImage:
		ok = filetype.IsImage(data)
	case classAudio:
		ok = filetype.IsAudio(data)
	case classFont:
		ok = filetype.IsFont(data)
	}
	if !ok {
		return fmt.Errorf("%w: %s is %s, want %s", ErrDecode, name, kind.MIME.Value, class)
	}
	return nil
}
