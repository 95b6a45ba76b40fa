package ir

import (
	"encoding/json"
	"fmt"
)

// TypeRecord is the persisted form of a TypeDef. Members that point at
// each other (property accessors) are stored as indices into Methods.
type TypeRecord struct {
	Namespace  string            `json:"namespace,omitempty"`
	Name       string            `json:"name"`
	Flags      TypeFlags         `json:"flags,omitempty"`
	BaseType   TypeRef           `json:"base_type"`
	Fields     []FieldRecord     `json:"fields,omitempty"`
	Properties []PropertyRecord  `json:"properties,omitempty"`
	Methods    []MethodRecord    `json:"methods,omitempty"`
	Nested     []TypeRecord      `json:"nested,omitempty"`
	Attributes []AttributeRecord `json:"attributes,omitempty"`
}

type FieldRecord struct {
	Name       string     `json:"name"`
	FieldType  TypeRef    `json:"field_type"`
	Visibility Visibility `json:"visibility,omitempty"`
	Static     bool       `json:"static,omitempty"`
}

// PropertyRecord refers to its accessors by method index; -1 means absent.
type PropertyRecord struct {
	Name         string  `json:"name"`
	PropertyType TypeRef `json:"property_type"`
	Getter       int     `json:"getter"`
	Setter       int     `json:"setter"`
}

// MethodRecord stores a method. Extern marks methods without a body.
type MethodRecord struct {
	Name       string        `json:"name"`
	Visibility Visibility    `json:"visibility,omitempty"`
	Flags      MethodFlags   `json:"flags,omitempty"`
	Params     []ParamDef    `json:"params,omitempty"`
	ReturnType TypeRef       `json:"return_type"`
	Extern     bool          `json:"extern,omitempty"`
	Body       []InstrRecord `json:"body,omitempty"`
}

// InstrRecord is the flat persisted form of an Instr, e.g.
// {"op":"ldarg","arg":1} or {"op":"br","kind":"false","arg":3}.
type InstrRecord struct {
	Op     Opcode     `json:"op"`
	Arg    int        `json:"arg,omitempty"`
	Str    string     `json:"str,omitempty"`
	Kind   BranchKind `json:"kind,omitempty"`
	Field  *FieldRef  `json:"field,omitempty"`
	Method *MethodRef `json:"method,omitempty"`
	Type   *TypeRef   `json:"type,omitempty"`
}

// AttributeRecord stores a custom attribute with its arguments as JSON
// values.
type AttributeRecord struct {
	Constructor MethodRef         `json:"constructor"`
	Args        []json.RawMessage `json:"args,omitempty"`
}

// RecordOf converts a type and its nested types into records.
func RecordOf(t *TypeDef) (TypeRecord, error) {
	rec := TypeRecord{
		Namespace: t.Namespace,
		Name:      t.Name,
		Flags:     t.Flags,
		BaseType:  t.BaseType,
	}
	for _, f := range t.Fields {
		rec.Fields = append(rec.Fields, FieldRecord{
			Name:       f.Name,
			FieldType:  f.FieldType,
			Visibility: f.Visibility,
			Static:     f.Static,
		})
	}
	index := make(map[*MethodDef]int, len(t.Methods))
	for i, m := range t.Methods {
		index[m] = i
		mr := MethodRecord{
			Name:       m.Name,
			Visibility: m.Visibility,
			Flags:      m.Flags,
			Params:     m.Params,
			ReturnType: m.ReturnType,
			Extern:     m.Body == nil,
		}
		if m.Body != nil {
			for _, in := range m.Body.Instructions {
				mr.Body = append(mr.Body, InstrRecordOf(in))
			}
		}
		rec.Methods = append(rec.Methods, mr)
	}
	for _, p := range t.Properties {
		pr := PropertyRecord{Name: p.Name, PropertyType: p.PropertyType, Getter: -1, Setter: -1}
		if i, ok := index[p.Getter]; ok && p.Getter != nil {
			pr.Getter = i
		}
		if i, ok := index[p.Setter]; ok && p.Setter != nil {
			pr.Setter = i
		}
		rec.Properties = append(rec.Properties, pr)
	}
	for _, n := range t.NestedTypes {
		nr, err := RecordOf(n)
		if err != nil {
			return TypeRecord{}, fmt.Errorf("nested %s: %w", n.Name, err)
		}
		rec.Nested = append(rec.Nested, nr)
	}
	for _, a := range t.CustomAttributes {
		ar, err := AttributeRecordOf(a)
		if err != nil {
			return TypeRecord{}, err
		}
		rec.Attributes = append(rec.Attributes, ar)
	}
	return rec, nil
}

// Build reconstructs the TypeDef described by the record.
func (r TypeRecord) Build() (*TypeDef, error) {
	t := &TypeDef{
		Namespace: r.Namespace,
		Name:      r.Name,
		Flags:     r.Flags,
		BaseType:  r.BaseType,
	}
	for _, f := range r.Fields {
		t.AddField(&FieldDef{
			Name:       f.Name,
			FieldType:  f.FieldType,
			Visibility: f.Visibility,
			Static:     f.Static,
		})
	}
	for _, mr := range r.Methods {
		m := &MethodDef{
			Name:       mr.Name,
			Visibility: mr.Visibility,
			Flags:      mr.Flags,
			Params:     mr.Params,
			ReturnType: mr.ReturnType,
		}
		if !mr.Extern {
			m.Body = &MethodBody{}
			for i, rec := range mr.Body {
				in, err := rec.Instr()
				if err != nil {
					return nil, fmt.Errorf("%s::%s instr %d: %w", t.FullName(), mr.Name, i, err)
				}
				m.Body.Append(in)
			}
		}
		t.AddMethod(m)
	}
	for _, pr := range r.Properties {
		p := &PropertyDef{Name: pr.Name, PropertyType: pr.PropertyType}
		var err error
		if p.Getter, err = methodAt(t, pr.Getter); err != nil {
			return nil, fmt.Errorf("property %s getter: %w", pr.Name, err)
		}
		if p.Setter, err = methodAt(t, pr.Setter); err != nil {
			return nil, fmt.Errorf("property %s setter: %w", pr.Name, err)
		}
		t.AddProperty(p)
	}
	for _, nr := range r.Nested {
		n, err := nr.Build()
		if err != nil {
			return nil, err
		}
		n.DeclaringType = t
		t.NestedTypes = append(t.NestedTypes, n)
	}
	for _, ar := range r.Attributes {
		a, err := ar.Build()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", t.FullName(), err)
		}
		t.CustomAttributes = append(t.CustomAttributes, a)
	}
	return t, nil
}

func methodAt(t *TypeDef, i int) (*MethodDef, error) {
	if i < 0 {
		return nil, nil
	}
	if i >= len(t.Methods) {
		return nil, fmt.Errorf("method index %d out of range", i)
	}
	return t.Methods[i], nil
}

// InstrRecordOf flattens an instruction.
func InstrRecordOf(in Instr) InstrRecord {
	rec := InstrRecord{Op: in.Op()}
	switch v := in.(type) {
	case LoadArg:
		rec.Arg = v.Index
	case LoadField:
		rec.Field = &v.Field
	case StoreField:
		rec.Field = &v.Field
	case LoadString:
		rec.Str = v.Value
	case Call:
		rec.Method = &v.Method
	case CallVirtual:
		rec.Method = &v.Method
	case CastClass:
		rec.Type = &v.Type
	case Branch:
		rec.Kind = v.Kind
		rec.Arg = v.Target
	case Label:
		rec.Arg = v.ID
	}
	return rec
}

// Instr rebuilds the instruction. Missing operands are an error.
func (r InstrRecord) Instr() (Instr, error) {
	switch r.Op {
	case OpLoadArg:
		return LoadArg{Index: r.Arg}, nil
	case OpLoadField, OpStoreField:
		if r.Field == nil {
			return nil, fmt.Errorf("%s: missing field operand", r.Op)
		}
		if r.Op == OpLoadField {
			return LoadField{Field: *r.Field}, nil
		}
		return StoreField{Field: *r.Field}, nil
	case OpLoadString:
		return LoadString{Value: r.Str}, nil
	case OpCall, OpCallVirtual:
		if r.Method == nil {
			return nil, fmt.Errorf("%s: missing method operand", r.Op)
		}
		if r.Op == OpCall {
			return Call{Method: *r.Method}, nil
		}
		return CallVirtual{Method: *r.Method}, nil
	case OpCastClass:
		if r.Type == nil {
			return nil, fmt.Errorf("%s: missing type operand", r.Op)
		}
		return CastClass{Type: *r.Type}, nil
	case OpCompareEq:
		return CompareEqual{}, nil
	case OpBranch:
		kind := r.Kind
		if kind == "" {
			kind = BranchAlways
		}
		switch kind {
		case BranchAlways, BranchIfTrue, BranchIfFalse:
		default:
			return nil, fmt.Errorf("unknown branch kind %q", kind)
		}
		return Branch{Kind: kind, Target: r.Arg}, nil
	case OpLabel:
		return Label{ID: r.Arg}, nil
	case OpPop:
		return Pop{}, nil
	case OpReturn:
		return Return{}, nil
	default:
		return nil, fmt.Errorf("unknown opcode %q", r.Op)
	}
}

// AttributeRecordOf converts an attribute application.
func AttributeRecordOf(a *CustomAttribute) (AttributeRecord, error) {
	rec := AttributeRecord{Constructor: a.Constructor}
	for i, arg := range a.Args {
		data, err := MarshalValue(arg)
		if err != nil {
			return AttributeRecord{}, fmt.Errorf("attribute %s arg %d: %w", a.AttributeType(), i, err)
		}
		rec.Args = append(rec.Args, data)
	}
	return rec, nil
}

// Build reconstructs the attribute.
func (r AttributeRecord) Build() (*CustomAttribute, error) {
	a := &CustomAttribute{Constructor: r.Constructor}
	for i, raw := range r.Args {
		v, err := UnmarshalValue(raw)
		if err != nil {
			return nil, fmt.Errorf("attribute %s arg %d: %w", r.Constructor.DeclaringType, i, err)
		}
		a.Args = append(a.Args, v)
	}
	return a, nil
}
