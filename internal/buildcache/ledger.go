// Package buildcache keeps the marker-attribute ledger that binds each
// generated type to the build-file it came from and the build that last
// produced it. Markers live on the host module as module-level
// attributes, so they persist with it.
package buildcache

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/roach88/contentpipe/internal/corelib"
	"github.com/roach88/contentpipe/internal/emit"
	"github.com/roach88/contentpipe/internal/ir"
	"github.com/roach88/contentpipe/internal/logging"
	"github.com/roach88/contentpipe/internal/module"
)

const (
	Namespace = "engenious.Pipeline"
	TypeName  = "BuildCacheTypeAttribute"
	FullName  = Namespace + "." + TypeName
)

// ErrMarkerNotFound is returned by Remove for a key without a marker.
var ErrMarkerNotFound = errors.New("marker not found")

// Key identifies a marker.
type Key struct {
	BuildFile string
	TypeName  string
}

// Marker is a decoded marker attribute.
type Marker struct {
	BuildID   string
	BuildFile string
	TypeName  string
}

// Ledger indexes the marker attributes of one host module. It is bound to
// the build id of the running build.
type Ledger struct {
	mod     *module.Module
	buildID string
	ctor    ir.MethodRef
	markers map[Key]*ir.CustomAttribute
	state   map[string]Consistency
	logger  *log.Logger
}

// New bootstraps a ledger over mod. The marker attribute type is
// synthesized into mod if it is not there yet; otherwise the existing
// markers are indexed and the per-file consistency map is derived.
func New(mod *module.Module, buildID string, logger *log.Logger) (*Ledger, error) {
	l := &Ledger{
		mod:     mod,
		buildID: buildID,
		markers: make(map[Key]*ir.CustomAttribute),
		state:   make(map[string]Consistency),
		logger:  logging.OrDiscard(logger),
	}

	t := mod.Type(FullName)
	if t == nil {
		t = synthesize()
		if err := mod.AddType(t); err != nil {
			return nil, fmt.Errorf("bootstrap ledger: %w", err)
		}
		l.logger.Debug("synthesized marker type", "type", FullName)
	}

	ctor := t.Method(ir.ConstructorName, []ir.TypeRef{ir.TypeString, ir.TypeString, ir.TypeString})
	if ctor == nil {
		return nil, fmt.Errorf("bootstrap ledger: %s has no (string, string, string) constructor: %w", FullName, module.ErrMemberNotFound)
	}
	l.ctor = ctor.Ref()

	for _, a := range mod.AttributesOf(FullName) {
		l.index(a)
	}
	return l, nil
}

// synthesize builds the marker attribute type: three string
// auto-properties, a constructor storing them, and an AttributeUsage
// restricting it to assembly-level application.
func synthesize() *ir.TypeDef {
	t := ir.NewType(Namespace, TypeName, ir.TypeAttribute)
	t.Flags |= ir.TypeSealed

	var fields []*ir.FieldDef
	for _, name := range []string{"BuildId", "BuildFile", "TypeName"} {
		f, _ := emit.AddAutoProperty(t, ir.TypeString, name,
			emit.WithGetter(ir.Public), emit.WithSetter(ir.Private))
		fields = append(fields, f)
	}

	base := ir.MethodRef{
		DeclaringType: ir.TypeAttribute,
		Name:          ir.ConstructorName,
		HasThis:       true,
		ReturnType:    ir.TypeVoid,
	}
	emit.AddFieldConstructor(t, ir.Public, base, fields...)

	t.CustomAttributes = append(t.CustomAttributes, &ir.CustomAttribute{
		Constructor: ir.MethodRef{
			DeclaringType: corelib.AttributeUsage,
			Name:          ir.ConstructorName,
			HasThis:       true,
			Params:        []ir.TypeRef{corelib.AttributeTargets},
			ReturnType:    ir.TypeVoid,
		},
		Args: []ir.Value{ir.Int(corelib.AttributeTargetsAssembly)},
	})
	return t
}

func (l *Ledger) index(a *ir.CustomAttribute) {
	m := decode(a)
	key := Key{BuildFile: m.BuildFile, TypeName: m.TypeName}
	if _, dup := l.markers[key]; dup {
		// A second marker for one key can only come from a damaged image.
		l.logger.Warn("dropping duplicate marker", "file", m.BuildFile, "type", m.TypeName)
		l.mod.RemoveAttribute(a)
		return
	}
	l.markers[key] = a

	c, seen := l.state[m.BuildFile]
	switch {
	case !seen:
		l.state[m.BuildFile] = Consistency{State: Consistent, BuildID: m.BuildID}
	case c.State == Consistent && c.BuildID != m.BuildID:
		l.state[m.BuildFile] = Consistency{State: Inconsistent}
	}
}

func decode(a *ir.CustomAttribute) Marker {
	return Marker{BuildID: a.StringArg(0), BuildFile: a.StringArg(1), TypeName: a.StringArg(2)}
}

// BuildID returns the id markers are stamped with.
func (l *Ledger) BuildID() string {
	return l.buildID
}

// Constructor returns the marker attribute constructor.
func (l *Ledger) Constructor() ir.MethodRef {
	return l.ctor
}

// UpdateOrCreate stamps the marker for (buildFile, t) with the current
// build id, creating it when absent. Only the build id argument of an
// existing marker is rewritten.
func (l *Ledger) UpdateOrCreate(buildFile string, t *ir.TypeDef) {
	key := Key{BuildFile: buildFile, TypeName: t.FullName()}
	if a, ok := l.markers[key]; ok {
		a.Args[0] = ir.String(l.buildID)
		return
	}
	a := &ir.CustomAttribute{
		Constructor: l.ctor,
		Args:        []ir.Value{ir.String(l.buildID), ir.String(buildFile), ir.String(key.TypeName)},
	}
	l.markers[key] = a
	l.mod.AddAttribute(a)
}

// Remove deletes the marker for (buildFile, t).
func (l *Ledger) Remove(buildFile string, t *ir.TypeDef) error {
	return l.RemoveKey(Key{BuildFile: buildFile, TypeName: t.FullName()})
}

// RemoveKey deletes the marker for key.
func (l *Ledger) RemoveKey(key Key) error {
	a, ok := l.markers[key]
	if !ok {
		return fmt.Errorf("remove %s for %s: %w", key.TypeName, key.BuildFile, ErrMarkerNotFound)
	}
	delete(l.markers, key)
	l.mod.RemoveAttribute(a)
	return nil
}

// Lookup returns the marker for a key.
func (l *Ledger) Lookup(buildFile, typeName string) (Marker, bool) {
	a, ok := l.markers[Key{BuildFile: buildFile, TypeName: typeName}]
	if !ok {
		return Marker{}, false
	}
	return decode(a), true
}

// Markers returns every marker ordered by build-file then type name.
func (l *Ledger) Markers() []Marker {
	out := make([]Marker, 0, len(l.markers))
	for _, a := range l.markers {
		out = append(out, decode(a))
	}
	slices.SortFunc(out, func(a, b Marker) int {
		if c := strings.Compare(a.BuildFile, b.BuildFile); c != 0 {
			return c
		}
		return strings.Compare(a.TypeName, b.TypeName)
	})
	return out
}

// MarkersFor returns the markers of one build-file.
func (l *Ledger) MarkersFor(buildFile string) []Marker {
	var out []Marker
	for _, m := range l.Markers() {
		if m.BuildFile == buildFile {
			out = append(out, m)
		}
	}
	return out
}

// BuildFiles returns the distinct build-files that have markers, sorted.
func (l *Ledger) BuildFiles() []string {
	var files []string
	for key := range l.markers {
		if !slices.Contains(files, key.BuildFile) {
			files = append(files, key.BuildFile)
		}
	}
	slices.Sort(files)
	return files
}

// Dangling returns markers whose type is missing from the host module.
func (l *Ledger) Dangling() []Marker {
	var out []Marker
	for _, m := range l.Markers() {
		if !l.mod.HasType(m.TypeName) {
			out = append(out, m)
		}
	}
	return out
}

// PurgeDangling removes every dangling marker and returns what it removed.
func (l *Ledger) PurgeDangling() []Marker {
	dangling := l.Dangling()
	for _, m := range dangling {
		// The key was just read from the index.
		_ = l.RemoveKey(Key{BuildFile: m.BuildFile, TypeName: m.TypeName})
		l.logger.Warn("purged dangling marker", "file", m.BuildFile, "type", m.TypeName, "build", m.BuildID)
	}
	return dangling
}
