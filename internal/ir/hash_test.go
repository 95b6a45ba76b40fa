package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleType() *TypeDef {
	t := NewType("Game.Effects", "Basic", Ref("engenious.Graphics.Effect"))
	t.AddField(&FieldDef{Name: "_world", FieldType: ValueRef("engenious.Matrix")})
	m := &MethodDef{
		Name:       "Initialize",
		Visibility: Family,
		Flags:      FlagVirtual | FlagHideBySig,
		Body:       &MethodBody{},
	}
	m.Body.Append(LoadArg{Index: 0}, LoadString{Value: "Main"}, Pop{}, Pop{}, Return{})
	t.AddMethod(m)
	return t
}

func TestTypeFingerprintDeterminism(t *testing.T) {
	a, err := TypeFingerprint(sampleType())
	require.NoError(t, err)
	b, err := TypeFingerprint(sampleType())
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Len(t, a, 64)
	_, err = hex.DecodeString(a)
	assert.NoError(t, err)
}

func TestTypeFingerprintChangesWithBody(t *testing.T) {
	base, err := TypeFingerprint(sampleType())
	require.NoError(t, err)

	changed := sampleType()
	changed.Methods[0].Body.Instructions[1] = LoadString{Value: "Other"}
	other, err := TypeFingerprint(changed)
	require.NoError(t, err)

	assert.NotEqual(t, base, other)
}

func TestTypeFingerprintIncludesNested(t *testing.T) {
	base, err := TypeFingerprint(sampleType())
	require.NoError(t, err)

	outer := sampleType()
	outer.AddNestedType(NewType("", "MainTechnique", Ref("engenious.Graphics.EffectTechnique")))
	withNested, err := TypeFingerprint(outer)
	require.NoError(t, err)

	assert.NotEqual(t, base, withNested)
}

func TestAttributeFingerprint(t *testing.T) {
	attr := &CustomAttribute{
		Constructor: MethodRef{DeclaringType: Ref("engenious.Pipeline.BuildCacheTypeAttribute"), Name: ConstructorName, HasThis: true},
		Args:        []Value{String("basic.fx"), String("Basic"), String("b1")},
	}
	a, err := AttributeFingerprint(attr)
	require.NoError(t, err)

	attr.Args[2] = String("b2")
	b, err := AttributeFingerprint(attr)
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestAttributeFingerprintRejectsNilArg(t *testing.T) {
	attr := &CustomAttribute{Args: []Value{nil}}
	_, err := AttributeFingerprint(attr)
	assert.Error(t, err)
}

func TestHashWithDomainNullSeparator(t *testing.T) {
	h := sha256.New()
	h.Write([]byte("contentpipe/type/v1"))
	h.Write([]byte{0x00})
	h.Write([]byte("data"))
	expected := hex.EncodeToString(h.Sum(nil))

	assert.Equal(t, expected, hashWithDomain(DomainType, []byte("data")))
	assert.NotEqual(t, hashWithDomain(DomainType, []byte("data")), hashWithDomain(DomainAttribute, []byte("data")))
}
