package emit

import "github.com/roach88/contentpipe/internal/ir"

// AddOverride adds a method to owner that overrides base with the same
// signature and visibility. The body is empty.
func AddOverride(owner *ir.TypeDef, base *ir.MethodDef) *ir.MethodDef {
	m := &ir.MethodDef{
		Name:       base.Name,
		Visibility: base.Visibility,
		Flags:      (base.Flags &^ (ir.FlagNewSlot | ir.FlagAbstract)) | ir.FlagVirtual | ir.FlagHideBySig,
		Params:     append([]ir.ParamDef(nil), base.Params...),
		ReturnType: base.ReturnType,
		Body:       &ir.MethodBody{},
	}
	owner.AddMethod(m)
	return m
}
