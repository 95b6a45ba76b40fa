package ir

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstrRecordJSON(t *testing.T) {
	tests := []struct {
		name     string
		instr    Instr
		expected string
	}{
		{"ldarg", LoadArg{Index: 1}, `{"op":"ldarg","arg":1}`},
		{"ldarg zero", LoadArg{Index: 0}, `{"op":"ldarg"}`},
		{"ldstr", LoadString{Value: "Main"}, `{"op":"ldstr","str":"Main"}`},
		{"brfalse", Branch{Kind: BranchIfFalse, Target: 3}, `{"op":"br","arg":3,"kind":"false"}`},
		{"label", Label{ID: 3}, `{"op":"label","arg":3}`},
		{"castclass", CastClass{Type: Ref("A.B")}, `{"op":"castclass","type":{"full_name":"A.B"}}`},
		{"ret", Return{}, `{"op":"ret"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(InstrRecordOf(tt.instr))
			require.NoError(t, err)
			assert.JSONEq(t, tt.expected, string(data))

			var rec InstrRecord
			require.NoError(t, json.Unmarshal(data, &rec))
			in, err := rec.Instr()
			require.NoError(t, err)
			assert.Equal(t, tt.instr, in)
		})
	}
}

func TestInstrRecordErrors(t *testing.T) {
	tests := []struct {
		name string
		rec  InstrRecord
	}{
		{"unknown op", InstrRecord{Op: "nop"}},
		{"ldfld without field", InstrRecord{Op: OpLoadField}},
		{"call without method", InstrRecord{Op: OpCall}},
		{"castclass without type", InstrRecord{Op: OpCastClass}},
		{"bad branch kind", InstrRecord{Op: OpBranch, Kind: "maybe"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.rec.Instr()
			assert.Error(t, err)
		})
	}
}

func TestTypeRecordRoundTrip(t *testing.T) {
	outer := sampleType()
	getter := &MethodDef{
		Name:       "get_Main",
		Visibility: Public,
		Flags:      FlagSpecialName | FlagHideBySig,
		ReturnType: Ref("Game.Effects.Basic/MainTechnique"),
		Body:       &MethodBody{Instructions: []Instr{LoadArg{}, Return{}}},
	}
	outer.AddMethod(getter)
	outer.AddProperty(&PropertyDef{Name: "Main", PropertyType: getter.ReturnType, Getter: getter})
	outer.AddMethod(&MethodDef{Name: "Extern", Visibility: Public})
	outer.AddNestedType(NewType("", "MainTechnique", Ref("engenious.Graphics.EffectTechnique")))
	outer.CustomAttributes = append(outer.CustomAttributes, &CustomAttribute{
		Constructor: MethodRef{DeclaringType: TypeAttribute, Name: ConstructorName, HasThis: true, ReturnType: TypeVoid},
		Args:        []Value{String("x"), Int(2)},
	})

	rec, err := RecordOf(outer)
	require.NoError(t, err)

	data, err := json.Marshal(rec)
	require.NoError(t, err)
	var decoded TypeRecord
	require.NoError(t, json.Unmarshal(data, &decoded))

	rebuilt, err := decoded.Build()
	require.NoError(t, err)

	assert.Equal(t, "Game.Effects.Basic", rebuilt.FullName())
	require.Len(t, rebuilt.Methods, 3)
	assert.Nil(t, rebuilt.Methods[2].Body)
	assert.Equal(t, outer.Methods[0].Body.Instructions, rebuilt.Methods[0].Body.Instructions)

	prop := rebuilt.Property("Main")
	require.NotNil(t, prop)
	assert.Same(t, rebuilt.Methods[1], prop.Getter)
	assert.Nil(t, prop.Setter)

	nested := rebuilt.Nested("MainTechnique")
	require.NotNil(t, nested)
	assert.Equal(t, "Game.Effects.Basic/MainTechnique", nested.FullName())

	require.Len(t, rebuilt.CustomAttributes, 1)
	assert.Equal(t, []Value{String("x"), Int(2)}, rebuilt.CustomAttributes[0].Args)

	before, err := TypeFingerprint(outer)
	require.NoError(t, err)
	after, err := TypeFingerprint(rebuilt)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestTypeRecordBadAccessorIndex(t *testing.T) {
	rec := TypeRecord{
		Name:       "T",
		Properties: []PropertyRecord{{Name: "P", Getter: 4, Setter: -1}},
	}
	_, err := rec.Build()
	assert.Error(t, err)
}
