package content

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// FileExtension is the extension of content files.
const FileExtension = ".ecf"

// FormatVersion is the header version this package writes and reads.
const FormatVersion byte = 1

var magic = []byte("ECF")

var (
	ErrBadMagic          = errors.New("not a content file")
	ErrUnsupportedFormat = errors.New("unsupported content file version")
)

// WriteFile writes the header and v as the root record. Nothing is
// written when v's type has no writer.
func WriteFile(w io.Writer, reg *Registry, v any) error {
	if _, err := reg.writerFor(v); err != nil {
		return err
	}
	cw := NewContentWriter(w, reg)
	for _, b := range magic {
		_ = cw.WriteByte(b)
	}
	_ = cw.WriteByte(FormatVersion)
	if err := cw.WriteObject(v); err != nil {
		return err
	}
	return cw.Flush()
}

// ReadFile checks the header and decodes the root record.
func ReadFile(r io.Reader, reg *Registry) (Record, error) {
	cr := NewContentReader(r, reg)
	head := make([]byte, len(magic)+1)
	for i := range head {
		b, err := cr.ReadByte()
		if err != nil {
			return Record{}, fmt.Errorf("read header: %w", err)
		}
		head[i] = b
	}
	if !bytes.Equal(head[:len(magic)], magic) {
		return Record{}, ErrBadMagic
	}
	if v := head[len(magic)]; v != FormatVersion {
		return Record{}, fmt.Errorf("version %d: %w", v, ErrUnsupportedFormat)
	}
	return cr.ReadObject()
}

// Save writes v to path through a temporary file in the same directory
// and renames it into place.
func Save(path string, reg *Registry, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".ecf-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := WriteFile(tmp, reg, v); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename into %s: %w", path, err)
	}
	return nil
}

// Load reads the content file at path.
func Load(path string, reg *Registry) (Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return Record{}, err
	}
	defer f.Close()
	rec, err := ReadFile(f, reg)
	if err != nil {
		return Record{}, fmt.Errorf("%s: %w", path, err)
	}
	return rec, nil
}
