// Package module holds the host module: the mutable type table and
// module-level attribute list that generated types are written into, plus
// by-name resolution across read-only reference modules.
//
// A Module is not safe for concurrent use. The build driver serializes all
// mutations of one host module.
package module

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/contentpipe/internal/ir"
)

var (
	ErrDuplicateType  = errors.New("duplicate type")
	ErrTypeNotFound   = errors.New("type not found")
	ErrMemberNotFound = errors.New("member not found")
)

// Module is an ordered table of top-level types and module-level custom
// attributes.
type Module struct {
	Name string

	types  []*ir.TypeDef
	byName map[string]*ir.TypeDef
	attrs  []*ir.CustomAttribute
	refs   []*Module
}

// New creates an empty module that resolves references against refs, in
// order, after its own types.
func New(name string, refs ...*Module) *Module {
	return &Module{
		Name:   name,
		byName: make(map[string]*ir.TypeDef),
		refs:   refs,
	}
}

// References returns the reference modules.
func (m *Module) References() []*Module {
	return m.refs
}

// AddType appends a top-level type. Full names are unique per module.
func (m *Module) AddType(t *ir.TypeDef) error {
	if t.DeclaringType != nil {
		return fmt.Errorf("add type %s: nested types belong to their declaring type", t.FullName())
	}
	name := t.FullName()
	if _, ok := m.byName[name]; ok {
		return fmt.Errorf("add type %s: %w", name, ErrDuplicateType)
	}
	m.types = append(m.types, t)
	m.byName[name] = t
	return nil
}

// RemoveType removes the top-level type with the same full name as t. It
// reports whether a type was removed.
func (m *Module) RemoveType(t *ir.TypeDef) bool {
	return m.RemoveTypeByName(t.FullName())
}

// RemoveTypeByName removes a top-level type by full name.
func (m *Module) RemoveTypeByName(fullName string) bool {
	if _, ok := m.byName[fullName]; !ok {
		return false
	}
	delete(m.byName, fullName)
	m.types = slices.DeleteFunc(m.types, func(x *ir.TypeDef) bool {
		return x.FullName() == fullName
	})
	return true
}

// Types returns the top-level types in insertion order.
func (m *Module) Types() []*ir.TypeDef {
	return slices.Clone(m.types)
}

// HasType reports whether a top-level type with this full name exists in
// this module (reference modules are not searched).
func (m *Module) HasType(fullName string) bool {
	_, ok := m.byName[fullName]
	return ok
}

// Type looks up a type defined in this module by full name. Nested types
// are addressed as "Outer/Inner".
func (m *Module) Type(fullName string) *ir.TypeDef {
	top, rest, nested := strings.Cut(fullName, "/")
	t := m.byName[top]
	if t == nil || !nested {
		return t
	}
	for _, part := range strings.Split(rest, "/") {
		t = t.Nested(part)
		if t == nil {
			return nil
		}
	}
	return t
}

// AddAttribute appends a module-level custom attribute.
func (m *Module) AddAttribute(a *ir.CustomAttribute) {
	m.attrs = append(m.attrs, a)
}

// RemoveAttribute removes a module-level attribute by identity.
func (m *Module) RemoveAttribute(a *ir.CustomAttribute) bool {
	i := slices.Index(m.attrs, a)
	if i < 0 {
		return false
	}
	m.attrs = slices.Delete(m.attrs, i, i+1)
	return true
}

// Attributes returns the module-level attributes in order.
func (m *Module) Attributes() []*ir.CustomAttribute {
	return slices.Clone(m.attrs)
}

// AttributesOf returns the module-level attributes of the given type.
func (m *Module) AttributesOf(attrType string) []*ir.CustomAttribute {
	var out []*ir.CustomAttribute
	for _, a := range m.attrs {
		if a.AttributeType().FullName == attrType {
			out = append(out, a)
		}
	}
	return out
}
