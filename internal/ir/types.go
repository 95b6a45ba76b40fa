package ir

// ConstructorName is the name of every instance constructor.
const ConstructorName = ".ctor"

// Visibility is the accessibility of a type member.
type Visibility int

const (
	Private Visibility = iota
	Public
	Family
	Assembly
)

var visibilityNames = [...]string{"private", "public", "protected", "internal"}

func (v Visibility) String() string {
	if v < 0 || int(v) >= len(visibilityNames) {
		return "unknown"
	}
	return visibilityNames[v]
}

// MethodFlags carries the non-visibility method attributes.
type MethodFlags uint16

const (
	FlagStatic MethodFlags = 1 << iota
	FlagVirtual
	FlagNewSlot
	FlagHideBySig
	FlagSpecialName
	FlagRTSpecialName
	FlagAbstract
)

// Has reports whether all bits of f are set.
func (m MethodFlags) Has(f MethodFlags) bool {
	return m&f == f
}

// TypeFlags carries type-level attributes.
type TypeFlags uint16

const (
	TypePublic TypeFlags = 1 << iota
	TypeSealed
	TypeNestedPublic
	TypeValueType
	TypeBeforeFieldInit
)

// Has reports whether all bits of f are set.
func (t TypeFlags) Has(f TypeFlags) bool {
	return t&f == f
}

// TypeDef is a mutable class or struct definition.
type TypeDef struct {
	Namespace string
	Name      string
	Flags     TypeFlags
	BaseType  TypeRef

	Fields           []*FieldDef
	Properties       []*PropertyDef
	Methods          []*MethodDef
	NestedTypes      []*TypeDef
	CustomAttributes []*CustomAttribute

	// DeclaringType is set for nested types.
	DeclaringType *TypeDef
}

// NewType creates a public class deriving from base.
func NewType(namespace, name string, base TypeRef) *TypeDef {
	return &TypeDef{
		Namespace: namespace,
		Name:      name,
		Flags:     TypePublic | TypeBeforeFieldInit,
		BaseType:  base,
	}
}

// FullName returns "Namespace.Name" for top-level types and
// "Outer/Inner" for nested types.
func (t *TypeDef) FullName() string {
	if t.DeclaringType != nil {
		return t.DeclaringType.FullName() + "/" + t.Name
	}
	if t.Namespace == "" {
		return t.Name
	}
	return t.Namespace + "." + t.Name
}

// Ref returns a reference to this type.
func (t *TypeDef) Ref() TypeRef {
	return TypeRef{FullName: t.FullName(), ValueType: t.Flags.Has(TypeValueType)}
}

// IsValueType reports whether this is a struct.
func (t *TypeDef) IsValueType() bool {
	return t.Flags.Has(TypeValueType)
}

// AddField appends a field and sets its declaring type.
func (t *TypeDef) AddField(f *FieldDef) {
	f.DeclaringType = t
	t.Fields = append(t.Fields, f)
}

// AddMethod appends a method and sets its declaring type.
func (t *TypeDef) AddMethod(m *MethodDef) {
	m.DeclaringType = t
	t.Methods = append(t.Methods, m)
}

// AddProperty appends a property and sets its declaring type.
func (t *TypeDef) AddProperty(p *PropertyDef) {
	p.DeclaringType = t
	t.Properties = append(t.Properties, p)
}

// AddNestedType nests n inside t.
func (t *TypeDef) AddNestedType(n *TypeDef) {
	n.DeclaringType = t
	n.Namespace = ""
	n.Flags = (n.Flags &^ TypePublic) | TypeNestedPublic
	t.NestedTypes = append(t.NestedTypes, n)
}

// Field finds a field by name.
func (t *TypeDef) Field(name string) *FieldDef {
	for _, f := range t.Fields {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// Property finds a property by name.
func (t *TypeDef) Property(name string) *PropertyDef {
	for _, p := range t.Properties {
		if p.Name == name {
			return p
		}
	}
	return nil
}

// Nested finds a directly nested type by simple name.
func (t *TypeDef) Nested(name string) *TypeDef {
	for _, n := range t.NestedTypes {
		if n.Name == name {
			return n
		}
	}
	return nil
}

// Method finds a method by name and parameter types. A nil params slice
// matches the first method with that name.
func (t *TypeDef) Method(name string, params []TypeRef) *MethodDef {
	for _, m := range t.Methods {
		if m.Name != name {
			continue
		}
		if params == nil || SameSignature(m.ParamTypes(), params) {
			return m
		}
	}
	return nil
}

// Constructors returns all instance constructors.
func (t *TypeDef) Constructors() []*MethodDef {
	var ctors []*MethodDef
	for _, m := range t.Methods {
		if m.Name == ConstructorName && !m.Flags.Has(FlagStatic) {
			ctors = append(ctors, m)
		}
	}
	return ctors
}

// Walk visits t and every nested type, depth first.
func (t *TypeDef) Walk(fn func(*TypeDef)) {
	fn(t)
	for _, n := range t.NestedTypes {
		n.Walk(fn)
	}
}

// FieldDef is a field definition.
type FieldDef struct {
	Name          string
	FieldType     TypeRef
	Visibility    Visibility
	Static        bool
	DeclaringType *TypeDef
}

// Ref returns a reference to this field.
func (f *FieldDef) Ref() FieldRef {
	return FieldRef{DeclaringType: f.DeclaringType.Ref(), Name: f.Name, FieldType: f.FieldType}
}

// ParamDef is a named method parameter.
type ParamDef struct {
	Name      string  `json:"name"`
	ParamType TypeRef `json:"param_type"`
}

// MethodDef is a method definition. Body is nil for methods implemented
// outside the module (reference library methods, abstract methods).
type MethodDef struct {
	Name          string
	Visibility    Visibility
	Flags         MethodFlags
	Params        []ParamDef
	ReturnType    TypeRef
	Body          *MethodBody
	DeclaringType *TypeDef
}

// ParamTypes returns the parameter types in order.
func (m *MethodDef) ParamTypes() []TypeRef {
	types := make([]TypeRef, len(m.Params))
	for i, p := range m.Params {
		types[i] = p.ParamType
	}
	return types
}

// HasThis reports whether the method takes an implicit instance argument.
func (m *MethodDef) HasThis() bool {
	return !m.Flags.Has(FlagStatic)
}

// Ref returns a reference to this method.
func (m *MethodDef) Ref() MethodRef {
	ret := m.ReturnType
	if ret.IsZero() {
		ret = TypeVoid
	}
	return MethodRef{
		DeclaringType: m.DeclaringType.Ref(),
		Name:          m.Name,
		HasThis:       m.HasThis(),
		Params:        m.ParamTypes(),
		ReturnType:    ret,
	}
}

// PropertyDef is a property with optional accessor methods. The accessors
// are also present in the declaring type's Methods.
type PropertyDef struct {
	Name          string
	PropertyType  TypeRef
	Getter        *MethodDef
	Setter        *MethodDef
	DeclaringType *TypeDef
}

// MethodBody is the ordered instruction sequence of a method.
type MethodBody struct {
	Instructions []Instr
}

// Append adds instructions to the end of the body.
func (b *MethodBody) Append(instrs ...Instr) {
	b.Instructions = append(b.Instructions, instrs...)
}

// Len returns the number of instructions.
func (b *MethodBody) Len() int {
	return len(b.Instructions)
}

// CustomAttribute is an attribute application: a constructor plus
// positional constant arguments.
type CustomAttribute struct {
	Constructor MethodRef
	Args        []Value
}

// AttributeType returns the attribute's type.
func (a *CustomAttribute) AttributeType() TypeRef {
	return a.Constructor.DeclaringType
}

// StringArg returns argument i as a string, or "" if it is not a string.
func (a *CustomAttribute) StringArg(i int) string {
	if i < 0 || i >= len(a.Args) {
		return ""
	}
	s, _ := a.Args[i].(String)
	return string(s)
}
