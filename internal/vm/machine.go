// Package vm executes and verifies method bodies built from ir
// instructions. Methods without a body are externs and must be bound to
// Go functions before they are called.
package vm

import (
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/roach88/contentpipe/internal/ir"
	"github.com/roach88/contentpipe/internal/logging"
	"github.com/roach88/contentpipe/internal/module"
)

// DefaultMaxSteps bounds the instructions one top-level call may execute.
const DefaultMaxSteps = 1_000_000

// Object is an instance of a class. Fields are keyed by FieldRef.String()
// so that a derived type may reuse a base field name. Host carries state
// owned by extern implementations.
type Object struct {
	Type   *ir.TypeDef
	Fields map[string]any
	Host   any
}

// Extern implements a method without a body. For instance methods args[0]
// is the receiver.
type Extern func(m *Machine, args []any) (any, error)

// Machine interprets method bodies of a module and its references. It is
// not safe for concurrent use.
type Machine struct {
	mod      *module.Module
	externs  map[string]Extern
	zeros    map[string]any
	maxSteps int
	steps    int
	logger   *log.Logger
}

// Option configures a Machine.
type Option func(*Machine)

// WithMaxSteps overrides DefaultMaxSteps.
func WithMaxSteps(n int) Option {
	return func(m *Machine) { m.maxSteps = n }
}

// WithLogger sets the logger used for call tracing at debug level.
func WithLogger(l *log.Logger) Option {
	return func(m *Machine) { m.logger = l }
}

// New creates a machine over mod.
func New(mod *module.Module, opts ...Option) *Machine {
	m := &Machine{
		mod:      mod,
		externs:  make(map[string]Extern),
		zeros:    defaultZeros(),
		maxSteps: DefaultMaxSteps,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = logging.OrDiscard(m.logger)
	return m
}

func defaultZeros() map[string]any {
	return map[string]any{
		ir.TypeBoolean.FullName: false,
		ir.TypeInt32.FullName:   int32(0),
		ir.TypeUInt32.FullName:  uint32(0),
		ir.TypeSingle.FullName:  float32(0),
		ir.TypeDouble.FullName:  float64(0),
	}
}

// Module returns the module the machine resolves against.
func (m *Machine) Module() *module.Module {
	return m.mod
}

// Bind registers fn as the implementation of the extern method ref.
func (m *Machine) Bind(ref ir.MethodRef, fn Extern) {
	m.externs[ref.Key()] = fn
}

// SetZero registers the default value for fields of a value type.
func (m *Machine) SetZero(t ir.TypeRef, v any) {
	m.zeros[t.FullName] = v
}

// Zero returns the default value of a type: the registered zero for value
// types and nil for classes.
func (m *Machine) Zero(t ir.TypeRef) any {
	return m.zeros[t.FullName]
}

// Alloc creates an object of type t with every field, including inherited
// ones, set to its zero value. No constructor runs.
func (m *Machine) Alloc(t ir.TypeRef) (*Object, error) {
	td, err := m.mod.ResolveType(t)
	if err != nil {
		return nil, err
	}
	obj := &Object{Type: td, Fields: make(map[string]any)}
	for cur := td; cur != nil; {
		for _, f := range cur.Fields {
			if !f.Static {
				obj.Fields[f.Ref().String()] = m.Zero(f.FieldType)
			}
		}
		if cur, err = m.mod.BaseOf(cur); err != nil {
			return nil, err
		}
	}
	return obj, nil
}

// NewObject allocates an instance of ctor's declaring type and runs ctor
// with args.
func (m *Machine) NewObject(ctor ir.MethodRef, args ...any) (*Object, error) {
	obj, err := m.Alloc(ctor.DeclaringType)
	if err != nil {
		return nil, fmt.Errorf("new %s: %w", ctor.DeclaringType, err)
	}
	if _, err := m.Call(ctor, append([]any{obj}, args...)...); err != nil {
		return nil, err
	}
	return obj, nil
}

// Call invokes ref without virtual dispatch. For instance methods args[0]
// is the receiver.
func (m *Machine) Call(ref ir.MethodRef, args ...any) (any, error) {
	m.steps = 0
	return m.call(ref, args, false)
}

// CallVirtual invokes ref dispatching on the runtime type of args[0].
func (m *Machine) CallVirtual(ref ir.MethodRef, args ...any) (any, error) {
	m.steps = 0
	return m.call(ref, args, true)
}

// GetProperty calls the getter of a property declared on obj's type or a
// base type.
func (m *Machine) GetProperty(obj *Object, name string) (any, error) {
	p, err := m.mod.ResolveProperty(obj.Type.Ref(), name)
	if err != nil {
		return nil, err
	}
	if p.Getter == nil {
		return nil, fmt.Errorf("property %s has no getter", name)
	}
	return m.CallVirtual(p.Getter.Ref(), obj)
}

// SetProperty calls the setter of a property.
func (m *Machine) SetProperty(obj *Object, name string, v any) error {
	p, err := m.mod.ResolveProperty(obj.Type.Ref(), name)
	if err != nil {
		return err
	}
	if p.Setter == nil {
		return fmt.Errorf("property %s has no setter", name)
	}
	_, err = m.CallVirtual(p.Setter.Ref(), obj, v)
	return err
}

// Field reads a field of obj by name, searching the type chain from the
// most derived type.
func (m *Machine) Field(obj *Object, name string) (any, bool) {
	for cur := obj.Type; cur != nil; {
		if f := cur.Field(name); f != nil {
			v, ok := obj.Fields[f.Ref().String()]
			return v, ok
		}
		next, err := m.mod.BaseOf(cur)
		if err != nil {
			return nil, false
		}
		cur = next
	}
	return nil, false
}

func (m *Machine) call(ref ir.MethodRef, args []any, virtual bool) (any, error) {
	md, err := m.mod.ResolveMethod(ref)
	if err != nil {
		return nil, err
	}
	if virtual && md.HasThis() {
		if len(args) == 0 {
			return nil, fmt.Errorf("callvirt %s: missing receiver: %w", ref.Key(), ErrStackUnderflow)
		}
		obj, ok := args[0].(*Object)
		if !ok || obj == nil {
			return nil, fmt.Errorf("callvirt %s: %w", ref.Key(), ErrNullReference)
		}
		if impl := m.mod.FindOverride(obj.Type, ref); impl != nil {
			md = impl
		}
	}

	want := len(md.Params)
	if md.HasThis() {
		want++
	}
	if len(args) != want {
		return nil, fmt.Errorf("call %s: got %d arguments, want %d", md.Ref().Key(), len(args), want)
	}

	if md.Body == nil {
		key := md.Ref().Key()
		fn, ok := m.externs[key]
		if !ok {
			return nil, fmt.Errorf("%s: %w", key, ErrUnboundExtern)
		}
		m.logger.Debug("extern", "method", key)
		return fn(m, args)
	}
	return m.exec(md, args)
}
