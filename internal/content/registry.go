package content

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
)

var (
	ErrNoWriter        = errors.New("no content writer registered")
	ErrDuplicateWriter = errors.New("content writer already registered")
	ErrNoReader        = errors.New("no content reader registered")
	ErrDuplicateReader = errors.New("content reader already registered")
)

// TypeWriter serializes one concrete runtime type.
type TypeWriter interface {
	// Type is the exact runtime type the writer accepts.
	Type() reflect.Type
	// ReaderName is the tag written ahead of every record.
	ReaderName() string
	// Version is the content version passed to the reader.
	Version() uint32
	Write(cw *ContentWriter, v any) error
}

// TypeReader decodes records carrying its tag.
type TypeReader interface {
	Name() string
	Read(cr *ContentReader, version uint32) (any, error)
}

// Registry maps runtime types to writers and tags to readers. Entries are
// registered explicitly at startup; nothing is discovered.
type Registry struct {
	writers map[reflect.Type]TypeWriter
	readers map[string]TypeReader
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		writers: make(map[reflect.Type]TypeWriter),
		readers: make(map[string]TypeReader),
	}
}

// AddWriter registers tw. A second writer for the same type is an error.
func (r *Registry) AddWriter(tw TypeWriter) error {
	t := tw.Type()
	if prev, ok := r.writers[t]; ok {
		return fmt.Errorf("%s (have %s, adding %s): %w", t, prev.ReaderName(), tw.ReaderName(), ErrDuplicateWriter)
	}
	r.writers[t] = tw
	return nil
}

// AddReader registers tr under its name.
func (r *Registry) AddReader(tr TypeReader) error {
	if _, ok := r.readers[tr.Name()]; ok {
		return fmt.Errorf("%s: %w", tr.Name(), ErrDuplicateReader)
	}
	r.readers[tr.Name()] = tr
	return nil
}

// Tag returns the reader name a value of v's type is written with.
func (r *Registry) Tag(v any) (string, error) {
	tw, err := r.writerFor(v)
	if err != nil {
		return "", err
	}
	return tw.ReaderName(), nil
}

// Tags returns the registered reader names, sorted.
func (r *Registry) Tags() []string {
	tags := make([]string, 0, len(r.readers))
	for tag := range r.readers {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

func (r *Registry) writerFor(v any) (TypeWriter, error) {
	t := reflect.TypeOf(v)
	tw, ok := r.writers[t]
	if !ok {
		return nil, fmt.Errorf("%v: %w", t, ErrNoWriter)
	}
	return tw, nil
}

func (r *Registry) readerFor(tag string) (TypeReader, error) {
	tr, ok := r.readers[tag]
	if !ok {
		return nil, fmt.Errorf("%q: %w", tag, ErrNoReader)
	}
	return tr, nil
}

type funcWriter[T any] struct {
	reader  string
	version uint32
	write   func(*ContentWriter, T) error
}

func (w funcWriter[T]) Type() reflect.Type { return reflect.TypeFor[T]() }
func (w funcWriter[T]) ReaderName() string { return w.reader }
func (w funcWriter[T]) Version() uint32    { return w.version }
func (w funcWriter[T]) Write(cw *ContentWriter, v any) error {
	return w.write(cw, v.(T))
}

type funcReader[T any] struct {
	name string
	read func(*ContentReader, uint32) (T, error)
}

func (r funcReader[T]) Name() string { return r.name }
func (r funcReader[T]) Read(cr *ContentReader, version uint32) (any, error) {
	return r.read(cr, version)
}

// Register adds a writer for T whose records are decoded by the reader
// named reader.
func Register[T any](r *Registry, reader string, version uint32, write func(*ContentWriter, T) error) error {
	return r.AddWriter(funcWriter[T]{reader: reader, version: version, write: write})
}

// RegisterReader adds a reader producing T.
func RegisterReader[T any](r *Registry, name string, read func(*ContentReader, uint32) (T, error)) error {
	return r.AddReader(funcReader[T]{name: name, read: read})
}
