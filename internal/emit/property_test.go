package emit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/contentpipe/internal/ir"
)

func TestAddEmptyProperty(t *testing.T) {
	tests := []struct {
		name        string
		opts        []PropertyOption
		wantGetter  bool
		wantSetter  bool
		wantField   string
		wantMethods int
	}{
		{"no accessors", nil, false, false, "<Main>k__BackingField", 0},
		{"getter only", []PropertyOption{WithGetter(ir.Public)}, true, false, "<Main>k__BackingField", 1},
		{"both", []PropertyOption{WithGetter(ir.Public), WithSetter(ir.Private)}, true, true, "<Main>k__BackingField", 2},
		{"custom field", []PropertyOption{WithBackingField("_main")}, false, false, "_main", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			owner := ir.NewType("Game", "Basic", ir.TypeObject)
			field, prop := AddEmptyProperty(owner, ir.TypeString, "Main", tt.opts...)

			assert.Equal(t, tt.wantField, field.Name)
			assert.Equal(t, ir.Private, field.Visibility)
			assert.Same(t, owner, field.DeclaringType)
			assert.Same(t, prop, owner.Property("Main"))
			assert.Len(t, owner.Methods, tt.wantMethods)
			assert.Equal(t, tt.wantGetter, prop.Getter != nil)
			assert.Equal(t, tt.wantSetter, prop.Setter != nil)
			if prop.Getter != nil {
				assert.Equal(t, "get_Main", prop.Getter.Name)
				assert.Zero(t, prop.Getter.Body.Len())
				assert.True(t, prop.Getter.Flags.Has(AccessorFlags))
			}
			if prop.Setter != nil {
				assert.Equal(t, "set_Main", prop.Setter.Name)
				assert.Equal(t, ir.Private, prop.Setter.Visibility)
				assert.Equal(t, []ir.TypeRef{ir.TypeString}, prop.Setter.ParamTypes())
			}
		})
	}
}

func TestAddAutoPropertyBodies(t *testing.T) {
	owner := ir.NewType("Game", "Basic", ir.TypeObject)
	field, prop := AddAutoProperty(owner, ir.TypeSingle, "Intensity", WithGetter(ir.Public), WithSetter(ir.Public))

	ref := field.Ref()
	assert.Equal(t, []ir.Instr{ir.LoadArg{Index: 0}, ir.LoadField{Field: ref}, ir.Return{}}, prop.Getter.Body.Instructions)
	assert.Equal(t, []ir.Instr{ir.LoadArg{Index: 0}, ir.LoadArg{Index: 1}, ir.StoreField{Field: ref}, ir.Return{}}, prop.Setter.Body.Instructions)
}

func TestAddForwardingConstructor(t *testing.T) {
	owner := ir.NewType("Game", "Basic", ir.Ref("engenious.Graphics.Effect"))
	base := ir.MethodRef{
		DeclaringType: ir.Ref("engenious.Graphics.Effect"),
		Name:          ir.ConstructorName,
		HasThis:       true,
		Params:        []ir.TypeRef{ir.Ref("engenious.Graphics.GraphicsDevice")},
		ReturnType:    ir.TypeVoid,
	}
	ctor := AddForwardingConstructor(owner, ir.Public, base, ir.ParamDef{Name: "graphicsDevice", ParamType: base.Params[0]})

	require.Len(t, owner.Constructors(), 1)
	assert.Equal(t, []ir.Instr{
		ir.LoadArg{Index: 0},
		ir.LoadArg{Index: 1},
		ir.Call{Method: base},
		ir.Return{},
	}, ctor.Body.Instructions)
}

func TestAddFieldConstructor(t *testing.T) {
	owner := ir.NewType("Game", "Marker", ir.TypeAttribute)
	a := &ir.FieldDef{Name: "<BuildId>k__BackingField", FieldType: ir.TypeString}
	b := &ir.FieldDef{Name: "_file", FieldType: ir.TypeString}
	owner.AddField(a)
	owner.AddField(b)
	base := ir.MethodRef{DeclaringType: ir.TypeAttribute, Name: ir.ConstructorName, HasThis: true, ReturnType: ir.TypeVoid}

	ctor := AddFieldConstructor(owner, ir.Public, base, a, b)

	assert.Equal(t, "buildId", ctor.Params[0].Name)
	assert.Equal(t, "file", ctor.Params[1].Name)
	assert.Equal(t, []ir.Instr{
		ir.LoadArg{Index: 0},
		ir.Call{Method: base},
		ir.LoadArg{Index: 0}, ir.LoadArg{Index: 1}, ir.StoreField{Field: a.Ref()},
		ir.LoadArg{Index: 0}, ir.LoadArg{Index: 2}, ir.StoreField{Field: b.Ref()},
		ir.Return{},
	}, ctor.Body.Instructions)
}

func TestAddOverride(t *testing.T) {
	base := &ir.MethodDef{Name: "Initialize", Visibility: ir.Family, Flags: ir.FlagVirtual | ir.FlagNewSlot | ir.FlagHideBySig}
	owner := ir.NewType("Game", "Basic", ir.TypeObject)

	m := AddOverride(owner, base)

	assert.Equal(t, ir.Family, m.Visibility)
	assert.True(t, m.Flags.Has(ir.FlagVirtual))
	assert.False(t, m.Flags.Has(ir.FlagNewSlot))
	assert.Same(t, owner, m.DeclaringType)
}

func TestBuilderLabels(t *testing.T) {
	b := NewBuilder()
	skip := b.DefineLabel()
	b.LoadArg(1).BranchIfFalse(skip).Return().Mark(skip).Return()

	assert.Equal(t, []ir.Instr{
		ir.LoadArg{Index: 1},
		ir.Branch{Kind: ir.BranchIfFalse, Target: 0},
		ir.Return{},
		ir.Label{ID: 0},
		ir.Return{},
	}, b.Body().Instructions)

	again := On(b.Body())
	assert.Equal(t, Label(1), again.DefineLabel())
}
