package emit

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/roach88/contentpipe/internal/ir"
)

// CtorFlags are the flags of an instance constructor.
const CtorFlags = ir.FlagSpecialName | ir.FlagRTSpecialName | ir.FlagHideBySig

// NewConstructor returns an instance constructor with an empty body.
func NewConstructor(vis ir.Visibility, params ...ir.ParamDef) *ir.MethodDef {
	return &ir.MethodDef{
		Name:       ir.ConstructorName,
		Visibility: vis,
		Flags:      CtorFlags,
		Params:     params,
		ReturnType: ir.TypeVoid,
		Body:       &ir.MethodBody{},
	}
}

// EmitBaseCall appends this, every parameter in order, and a call to
// baseCtor. It does not return.
func EmitBaseCall(b *Builder, params []ir.ParamDef, baseCtor ir.MethodRef) {
	b.LoadThis()
	for i := range params {
		b.LoadArg(i + 1)
	}
	b.Call(baseCtor)
}

// AddForwardingConstructor adds a constructor taking params that passes
// them unchanged to baseCtor.
func AddForwardingConstructor(owner *ir.TypeDef, vis ir.Visibility, baseCtor ir.MethodRef, params ...ir.ParamDef) *ir.MethodDef {
	ctor := NewConstructor(vis, params...)
	b := On(ctor.Body)
	EmitBaseCall(b, params, baseCtor)
	b.Return()
	owner.AddMethod(ctor)
	return ctor
}

// AddFieldConstructor adds a constructor that calls the parameterless
// baseCtor and then stores each argument into the matching field. One
// parameter is declared per field, named after it.
func AddFieldConstructor(owner *ir.TypeDef, vis ir.Visibility, baseCtor ir.MethodRef, fields ...*ir.FieldDef) *ir.MethodDef {
	params := make([]ir.ParamDef, len(fields))
	for i, f := range fields {
		params[i] = ir.ParamDef{Name: paramName(f.Name), ParamType: f.FieldType}
	}
	ctor := NewConstructor(vis, params...)
	b := On(ctor.Body)
	EmitBaseCall(b, nil, baseCtor)
	for i, f := range fields {
		b.LoadThis().LoadArg(i + 1).StoreField(f.Ref())
	}
	b.Return()
	owner.AddMethod(ctor)
	return ctor
}

func paramName(field string) string {
	field = strings.TrimLeft(field, "_<")
	field, _, _ = strings.Cut(field, ">")
	if field == "" {
		return "value"
	}
	r, size := utf8.DecodeRuneInString(field)
	return string(unicode.ToLower(r)) + field[size:]
}
