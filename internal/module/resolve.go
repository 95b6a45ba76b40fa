package module

import (
	"fmt"

	"github.com/roach88/contentpipe/internal/ir"
)

// ResolveType finds the definition of ref in this module or a reference
// module.
func (m *Module) ResolveType(ref ir.TypeRef) (*ir.TypeDef, error) {
	if t := m.Type(ref.FullName); t != nil {
		return t, nil
	}
	for _, r := range m.refs {
		if t, err := r.ResolveType(ref); err == nil {
			return t, nil
		}
	}
	return nil, fmt.Errorf("%s: %w", ref.FullName, ErrTypeNotFound)
}

// BaseOf returns the base type definition of t, or nil for roots.
func (m *Module) BaseOf(t *ir.TypeDef) (*ir.TypeDef, error) {
	if t.BaseType.IsZero() {
		return nil, nil
	}
	return m.ResolveType(t.BaseType)
}

// ResolveMethod finds the method named by ref, starting at its declaring
// type and walking up the base chain.
func (m *Module) ResolveMethod(ref ir.MethodRef) (*ir.MethodDef, error) {
	t, err := m.ResolveType(ref.DeclaringType)
	if err != nil {
		return nil, fmt.Errorf("resolve method %s: %w", ref.Key(), err)
	}
	for t != nil {
		if md := t.Method(ref.Name, nonNil(ref.Params)); md != nil {
			return md, nil
		}
		if ref.IsConstructor() {
			break
		}
		if t, err = m.BaseOf(t); err != nil {
			return nil, fmt.Errorf("resolve method %s: %w", ref.Key(), err)
		}
	}
	return nil, fmt.Errorf("method %s: %w", ref.Key(), ErrMemberNotFound)
}

// ResolveField finds the field named by ref, walking up the base chain.
func (m *Module) ResolveField(ref ir.FieldRef) (*ir.FieldDef, error) {
	t, err := m.ResolveType(ref.DeclaringType)
	if err != nil {
		return nil, fmt.Errorf("resolve field %s: %w", ref, err)
	}
	for t != nil {
		if f := t.Field(ref.Name); f != nil {
			return f, nil
		}
		if t, err = m.BaseOf(t); err != nil {
			return nil, fmt.Errorf("resolve field %s: %w", ref, err)
		}
	}
	return nil, fmt.Errorf("field %s: %w", ref, ErrMemberNotFound)
}

// ResolveProperty finds a property by name on t or one of its bases.
func (m *Module) ResolveProperty(ref ir.TypeRef, name string) (*ir.PropertyDef, error) {
	t, err := m.ResolveType(ref)
	if err != nil {
		return nil, fmt.Errorf("resolve property %s::%s: %w", ref, name, err)
	}
	for t != nil {
		if p := t.Property(name); p != nil {
			return p, nil
		}
		if t, err = m.BaseOf(t); err != nil {
			return nil, fmt.Errorf("resolve property %s::%s: %w", ref, name, err)
		}
	}
	return nil, fmt.Errorf("property %s::%s: %w", ref, name, ErrMemberNotFound)
}

// FindOverride returns the most derived virtual implementation of base
// reachable from t, or nil.
func (m *Module) FindOverride(t *ir.TypeDef, base ir.MethodRef) *ir.MethodDef {
	for t != nil {
		if md := t.Method(base.Name, nonNil(base.Params)); md != nil && md.Flags.Has(ir.FlagVirtual) {
			return md
		}
		next, err := m.BaseOf(t)
		if err != nil {
			return nil
		}
		t = next
	}
	return nil
}

// IsAssignable reports whether a value of type from can be used where to
// is expected. Every class is assignable to System.Object.
func (m *Module) IsAssignable(from, to ir.TypeRef) bool {
	if from.FullName == to.FullName || to.FullName == ir.TypeObject.FullName {
		return true
	}
	t, err := m.ResolveType(from)
	for err == nil && t != nil {
		if t.FullName() == to.FullName {
			return true
		}
		t, err = m.BaseOf(t)
	}
	return false
}

// nonNil turns a nil parameter list into an empty one so that lookups of
// parameterless methods do not match arbitrary overloads.
func nonNil(params []ir.TypeRef) []ir.TypeRef {
	if params == nil {
		return []ir.TypeRef{}
	}
	return params
}
