// Package content writes and reads binary content files. A file is a
// header followed by one record; a record is the tag of the reader that
// decodes it, the writer's content version and the writer's payload.
package content

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
)

// ErrOutOfRange is returned when a value does not fit its encoding.
var ErrOutOfRange = errors.New("value out of range")

// maxStringLen bounds length prefixes read from untrusted input.
const maxStringLen = 1 << 24

// ContentWriter encodes little-endian primitives. The first error sticks;
// later writes are no-ops and Err or Flush report it.
type ContentWriter struct {
	w   *bufio.Writer
	reg *Registry
	err error
}

// NewContentWriter returns a writer over w that resolves nested objects
// through reg.
func NewContentWriter(w io.Writer, reg *Registry) *ContentWriter {
	return &ContentWriter{w: bufio.NewWriter(w), reg: reg}
}

// Err returns the first write error.
func (cw *ContentWriter) Err() error {
	return cw.err
}

// Flush writes buffered data to the underlying writer.
func (cw *ContentWriter) Flush() error {
	if cw.err != nil {
		return cw.err
	}
	cw.err = cw.w.Flush()
	return cw.err
}

func (cw *ContentWriter) write(v any) {
	if cw.err != nil {
		return
	}
	cw.err = binary.Write(cw.w, binary.LittleEndian, v)
}

func (cw *ContentWriter) WriteByte(b byte) error {
	if cw.err == nil {
		cw.err = cw.w.WriteByte(b)
	}
	return cw.err
}

func (cw *ContentWriter) WriteBool(v bool) {
	b := byte(0)
	if v {
		b = 1
	}
	_ = cw.WriteByte(b)
}

func (cw *ContentWriter) WriteInt32(v int32)     { cw.write(v) }
func (cw *ContentWriter) WriteUint32(v uint32)   { cw.write(v) }
func (cw *ContentWriter) WriteFloat32(v float32) { cw.write(v) }
func (cw *ContentWriter) WriteFloat64(v float64) { cw.write(v) }

// WriteInt writes v as an int32. A value outside the int32 range fails
// the writer with ErrOutOfRange instead of being truncated.
func (cw *ContentWriter) WriteInt(v int) {
	if v < math.MinInt32 || v > math.MaxInt32 {
		if cw.err == nil {
			cw.err = fmt.Errorf("%w: %d", ErrOutOfRange, v)
		}
		return
	}
	cw.write(int32(v))
}

// WriteUvarint writes v as an unsigned LEB128 varint.
func (cw *ContentWriter) WriteUvarint(v uint64) {
	if cw.err != nil {
		return
	}
	var buf [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(buf[:], v)
	_, cw.err = cw.w.Write(buf[:n])
}

// WriteString writes a uvarint byte length followed by the UTF-8 bytes.
func (cw *ContentWriter) WriteString(s string) {
	cw.WriteUvarint(uint64(len(s)))
	if cw.err == nil {
		_, cw.err = cw.w.WriteString(s)
	}
}

// WriteStruct writes a fixed-size value field by field in declaration
// order with no padding.
func (cw *ContentWriter) WriteStruct(v any) { cw.write(v) }

// WriteObject writes v as a nested record through the registry. Nothing
// is written when no writer is registered for v's type.
func (cw *ContentWriter) WriteObject(v any) error {
	tw, err := cw.reg.writerFor(v)
	if err != nil {
		return err
	}
	cw.WriteString(tw.ReaderName())
	cw.WriteUint32(tw.Version())
	if cw.err != nil {
		return cw.err
	}
	if err := tw.Write(cw, v); err != nil {
		return fmt.Errorf("write %s: %w", tw.ReaderName(), err)
	}
	return cw.err
}

// ContentReader decodes what ContentWriter encodes. Errors stick like
// ContentWriter's.
type ContentReader struct {
	r   *bufio.Reader
	reg *Registry
	err error
}

// NewContentReader returns a reader over r resolving tags through reg.
func NewContentReader(r io.Reader, reg *Registry) *ContentReader {
	return &ContentReader{r: bufio.NewReader(r), reg: reg}
}

// Err returns the first read error.
func (cr *ContentReader) Err() error {
	return cr.err
}

func (cr *ContentReader) fail(err error) {
	if cr.err == nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		cr.err = err
	}
}

func (cr *ContentReader) read(v any) {
	if cr.err != nil {
		return
	}
	if err := binary.Read(cr.r, binary.LittleEndian, v); err != nil {
		cr.fail(err)
	}
}

func (cr *ContentReader) ReadByte() (byte, error) {
	if cr.err != nil {
		return 0, cr.err
	}
	b, err := cr.r.ReadByte()
	if err != nil {
		cr.fail(err)
	}
	return b, cr.err
}

func (cr *ContentReader) ReadBool() bool {
	b, _ := cr.ReadByte()
	return b != 0
}

func (cr *ContentReader) ReadInt32() int32 {
	var v int32
	cr.read(&v)
	return v
}

func (cr *ContentReader) ReadUint32() uint32 {
	var v uint32
	cr.read(&v)
	return v
}

func (cr *ContentReader) ReadFloat32() float32 {
	var v float32
	cr.read(&v)
	return v
}

func (cr *ContentReader) ReadFloat64() float64 {
	var v float64
	cr.read(&v)
	return v
}

func (cr *ContentReader) ReadUvarint() uint64 {
	if cr.err != nil {
		return 0
	}
	v, err := binary.ReadUvarint(cr.r)
	if err != nil {
		cr.fail(err)
	}
	return v
}

func (cr *ContentReader) ReadString() string {
	n := cr.ReadUvarint()
	if cr.err != nil {
		return ""
	}
	if n > maxStringLen {
		cr.fail(fmt.Errorf("string length %d exceeds limit", n))
		return ""
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(cr.r, buf); err != nil {
		cr.fail(err)
		return ""
	}
	return string(buf)
}

// ReadCount reads a uvarint element count and rejects counts that do not
// fit an int.
func (cr *ContentReader) ReadCount() int {
	n := cr.ReadUvarint()
	if n > math.MaxInt32 {
		cr.fail(fmt.Errorf("count %d out of range", n))
		return 0
	}
	return int(n)
}

// ReadStruct fills the fixed-size value pointed to by v.
func (cr *ContentReader) ReadStruct(v any) { cr.read(v) }

// ReadObject reads a nested record and decodes it with the reader
// registered for its tag.
func (cr *ContentReader) ReadObject() (Record, error) {
	tag := cr.ReadString()
	version := cr.ReadUint32()
	if cr.err != nil {
		return Record{}, cr.err
	}
	tr, err := cr.reg.readerFor(tag)
	if err != nil {
		return Record{}, err
	}
	v, err := tr.Read(cr, version)
	if err != nil {
		return Record{}, fmt.Errorf("read %s v%d: %w", tag, version, err)
	}
	if cr.err != nil {
		return Record{}, fmt.Errorf("read %s v%d: %w", tag, version, cr.err)
	}
	return Record{Tag: tag, Version: version, Value: v}, nil
}

// Record is a decoded record.
type Record struct {
	Tag     string
	Version uint32
	Value   any
}
