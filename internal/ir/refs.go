package ir

import "strings"

// TypeRef is a by-name reference to a type that may live in the host
// module or in any of its reference modules.
type TypeRef struct {
	FullName  string `json:"full_name"`
	ValueType bool   `json:"value_type,omitempty"`
}

// Well-known references into the system library.
var (
	TypeVoid      = TypeRef{FullName: "System.Void", ValueType: true}
	TypeObject    = TypeRef{FullName: "System.Object"}
	TypeString    = TypeRef{FullName: "System.String"}
	TypeBoolean   = TypeRef{FullName: "System.Boolean", ValueType: true}
	TypeInt32     = TypeRef{FullName: "System.Int32", ValueType: true}
	TypeUInt32    = TypeRef{FullName: "System.UInt32", ValueType: true}
	TypeSingle    = TypeRef{FullName: "System.Single", ValueType: true}
	TypeDouble    = TypeRef{FullName: "System.Double", ValueType: true}
	TypeAttribute = TypeRef{FullName: "System.Attribute"}
)

// Ref returns a reference for a full type name.
func Ref(fullName string) TypeRef {
	return TypeRef{FullName: fullName}
}

// ValueRef returns a value-type reference for a full type name.
func ValueRef(fullName string) TypeRef {
	return TypeRef{FullName: fullName, ValueType: true}
}

// IsZero reports whether the reference is unset.
func (r TypeRef) IsZero() bool {
	return r.FullName == ""
}

// IsVoid reports whether the reference names System.Void.
func (r TypeRef) IsVoid() bool {
	return r.FullName == TypeVoid.FullName
}

// Name returns the simple name (the segment after the last '.' or '/').
func (r TypeRef) Name() string {
	i := strings.LastIndexAny(r.FullName, "./")
	return r.FullName[i+1:]
}

func (r TypeRef) String() string {
	return r.FullName
}

// FieldRef is a by-name reference to a field.
type FieldRef struct {
	DeclaringType TypeRef `json:"declaring_type"`
	Name          string  `json:"name"`
	FieldType     TypeRef `json:"field_type"`
}

func (r FieldRef) String() string {
	return r.DeclaringType.FullName + "::" + r.Name
}

// MethodRef is a by-name reference to a method. Overloads are told apart by
// their parameter types.
type MethodRef struct {
	DeclaringType TypeRef   `json:"declaring_type"`
	Name          string    `json:"name"`
	HasThis       bool      `json:"has_this,omitempty"`
	Params        []TypeRef `json:"params,omitempty"`
	ReturnType    TypeRef   `json:"return_type"`
}

// Key identifies the method signature, e.g.
// "engenious.Graphics.EffectPassParameter::SetValue(System.Single)".
func (r MethodRef) Key() string {
	var b strings.Builder
	b.WriteString(r.DeclaringType.FullName)
	b.WriteString("::")
	b.WriteString(r.Name)
	b.WriteByte('(')
	for i, p := range r.Params {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(p.FullName)
	}
	b.WriteByte(')')
	return b.String()
}

// IsConstructor reports whether the reference names an instance constructor.
func (r MethodRef) IsConstructor() bool {
	return r.Name == ConstructorName
}

func (r MethodRef) String() string {
	return r.Key()
}

// SameSignature reports whether two parameter lists name the same types.
func SameSignature(a, b []TypeRef) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].FullName != b[i].FullName {
			return false
		}
	}
	return true
}
