package movietpl

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/deepch/vdk/utils/bits/pio"
	"github.com/google/uuid"
)

// Vector is a file assembled from shared byte regions. Regions are never
// copied until the vector is written out.
type Vector [][]byte

func (v Vector) Len() int {
	return pio.VecLen(v)
}

func (v Vector) Bytes() []byte {
	b := make([]byte, 0, v.Len())
	for _, region := range v {
		b = append(b, region...)
	}
	return b
}

func (v Vector) WriteTo(w io.Writer) (n int64, err error) {
	for _, region := range v {
		var written int
		written, err = w.Write(region)
		n += int64(written)
		if err != nil {
			return
		}
	}
	return
}

func (v Vector) ReadAt(p []byte, off int64) (n int, err error) {
	total := int64(v.Len())
	if off < 0 {
		return 0, fmt.Errorf("movietpl: negative offset %d", off)
	}
	if off >= total {
		return 0, io.EOF
	}
	end := off + int64(len(p))
	if end > total {
		end = total
	}
	for _, part := range pio.VecSlice(v, int(off), int(end)) {
		n += copy(p[n:], part)
	}
	if n < len(p) {
		err = io.EOF
	}
	return
}

// Reader returns a seekable view of the vector.
func (v Vector) Reader() *io.SectionReader {
	return io.NewSectionReader(v, 0, int64(v.Len()))
}

// WriteFile materializes the vector as a new file in dir named
// prefix followed by a random suffix and returns its path.
func (v Vector) WriteFile(dir, prefix string) (path string, err error) {
	if dir == "" {
		dir = os.TempDir()
	}
	path = filepath.Join(dir, prefix+uuid.NewString()+".mp4")
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return "", fmt.Errorf("movietpl: creating vector file: %w", err)
	}
	if _, err = v.WriteTo(f); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("movietpl: writing %s: %w", path, err)
	}
	if err = f.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("movietpl: closing %s: %w", path, err)
	}
	return path, nil
}
