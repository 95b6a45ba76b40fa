package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTypeDefNames(t *testing.T) {
	outer := NewType("Game", "Basic", Ref("engenious.Graphics.Effect"))
	tech := NewType("Game", "MainTechnique", Ref("engenious.Graphics.EffectTechnique"))
	pass := NewType("", "P0Pass", Ref("engenious.Graphics.EffectPass"))
	outer.AddNestedType(tech)
	tech.AddNestedType(pass)

	assert.Equal(t, "Game.Basic", outer.FullName())
	assert.Equal(t, "Game.Basic/MainTechnique", tech.FullName())
	assert.Equal(t, "Game.Basic/MainTechnique/P0Pass", pass.FullName())
	assert.Empty(t, tech.Namespace)
	assert.True(t, tech.Flags.Has(TypeNestedPublic))
	assert.False(t, tech.Flags.Has(TypePublic))
	assert.Equal(t, "P0Pass", pass.Ref().Name())

	var visited []string
	outer.Walk(func(td *TypeDef) { visited = append(visited, td.Name) })
	assert.Equal(t, []string{"Basic", "MainTechnique", "P0Pass"}, visited)
}

func TestTypeDefMethodLookup(t *testing.T) {
	typ := NewType("engenious.Graphics", "EffectPassParameter", TypeObject)
	typ.AddMethod(&MethodDef{Name: "SetValue", Visibility: Public, Params: []ParamDef{{Name: "value", ParamType: TypeSingle}}})
	typ.AddMethod(&MethodDef{Name: "SetValue", Visibility: Public, Params: []ParamDef{{Name: "value", ParamType: TypeInt32}}})
	typ.AddMethod(&MethodDef{Name: ConstructorName, Visibility: Public})
	typ.AddMethod(&MethodDef{Name: ConstructorName, Flags: FlagStatic})

	m := typ.Method("SetValue", []TypeRef{TypeInt32})
	require.NotNil(t, m)
	assert.Equal(t, TypeInt32, m.Params[0].ParamType)
	assert.Same(t, typ.Methods[0], typ.Method("SetValue", nil))
	assert.Nil(t, typ.Method("SetValue", []TypeRef{TypeDouble}))
	assert.Len(t, typ.Constructors(), 1)

	ref := m.Ref()
	assert.Equal(t, "engenious.Graphics.EffectPassParameter::SetValue(System.Int32)", ref.Key())
	assert.True(t, ref.HasThis)
	assert.True(t, ref.ReturnType.IsVoid())
}

func TestFormat(t *testing.T) {
	field := FieldRef{DeclaringType: Ref("A.B"), Name: "_x", FieldType: TypeSingle}
	tests := []struct {
		in   Instr
		want string
	}{
		{LoadArg{Index: 1}, "ldarg.1"},
		{LoadField{Field: field}, "ldfld A.B::_x"},
		{StoreField{Field: field}, "stfld A.B::_x"},
		{LoadString{Value: "Main"}, `ldstr "Main"`},
		{CompareEqual{}, "ceq"},
		{Branch{Kind: BranchIfFalse, Target: 2}, "brfalse L2"},
		{Branch{Kind: BranchAlways, Target: 2}, "br L2"},
		{Label{ID: 2}, "L2:"},
		{Return{}, "ret"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, Format(tt.in))
		})
	}
}

func TestCustomAttributeStringArg(t *testing.T) {
	a := &CustomAttribute{Args: []Value{String("file.fx"), Int(3)}}
	assert.Equal(t, "file.fx", a.StringArg(0))
	assert.Equal(t, "", a.StringArg(1))
	assert.Equal(t, "", a.StringArg(5))
}
