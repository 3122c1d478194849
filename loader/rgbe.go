package loader

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"math"
	"strings"

	"render-assets/scene"
)

// decodeRGBE decodes a Radiance .hdr image into an RGBA32F texture. Both
// flat and run-length encoded scanlines are accepted; only the standard
// "-Y height +X width" orientation is supported.
func decodeRGBE(name string, data []byte) (*scene.Texture, error) {
	r := bufio.NewReader(bytes.NewReader(data))
	magic, err := r.ReadString('\n')
	if err != nil || !strings.HasPrefix(magic, "#?") {
		return nil, fmt.Errorf("%w: %s: not a Radiance file", ErrDecode, name)
	}
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return nil, fmt.Errorf("%w: %s: header: %w", ErrDecode, name, err)
		}
		line = strings.TrimSpace(line)
		if line == "" {
			break
		}
		if f, ok := strings.CutPrefix(line, "FORMAT="); ok && f != "32-bit_rle_rgbe" {
			return nil, fmt.Errorf("%w: %s: format %s", ErrDecode, name, f)
		}
	}
	res, err := r.ReadString('\n')
	if err != nil {
		return nil, fmt.Errorf("%w: %s: resolution: %w", ErrDecode, name, err)
	}
	var w, h int
	if _, err := fmt.Sscanf(strings.TrimSpace(res), "-Y %d +X %d", &h, &w); err != nil || w <= 0 || h <= 0 {
		return nil, fmt.Errorf("%w: %s: resolution %q", ErrDecode, name, strings.TrimSpace(res))
	}

	texels := make([]float32, 0, w*h*4)
	line := make([]byte, w*4)
	for y := 0; y < h; y++ {
		if err := readScanline(r, line, w); err != nil {
			return nil, fmt.Errorf("%w: %s: scanline %d: %w", ErrDecode, name, y, err)
		}
		for x := 0; x < w; x++ {
			rc, gc, bc, e := line[x*4], line[x*4+1], line[x*4+2], line[x*4+3]
			if e == 0 {
				texels = append(texels, 0, 0, 0, 1)
				continue
			}
			f := float32(math.Ldexp(1, int(e)-136))
			texels = append(texels, float32(rc)*f, float32(gc)*f, float32(bc)*f, 1)
		}
	}
	tex := scene.NewFloatTexture(name, w, h, texels)
	tex.Mapping = scene.EquirectangularReflectionMapping
	return tex, nil
}

// readScanline fills line with w RGBE pixels.
func readScanline(r *bufio.Reader, line []byte, w int) error {
	head, err := r.Peek(4)
	if err != nil {
		return err
	}
	rle := w >= 8 && w < 0x8000 && head[0] == 2 && head[1] == 2 && head[2]&0x80 == 0
	if !rle {
		_, err := io.ReadFull(r, line)
		return err
	}
	if int(head[2])<<8|int(head[3]) != w {
		return fmt.Errorf("scanline width mismatch")
	}
	if _, err := r.Discard(4); err != nil {
		return err
	}
	// channels are stored one after another, each run-length encoded
	for c := 0; c < 4; c++ {
		for x := 0; x < w; {
			n, err := r.ReadByte()
			if err != nil {
				return err
			}
			if n > 128 {
				n -= 128
				v, err := r.ReadByte()
				if err != nil {
					return err
				}
				if x+int(n) > w {
					return fmt.Errorf("run overflows scanline")
				}
				for i := 0; i < int(n); i++ {
					line[(x+i)*4+c] = v
				}
				x += int(n)
				continue
			}
			if n == 0 || x+int(n) > w {
				return fmt.Errorf("bad literal run %d", n)
			}
			for i := 0; i < int(n); i++ {
				v, err := r.ReadByte()
				if err != nil {
					return err
				}
				line[(x+i)*4+c] = v
			}
			x += int(n)
		}
	}
	return nil
}
