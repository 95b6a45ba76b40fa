package content

import (
	"bytes"
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/contentpipe/internal/effect"
	"github.com/roach88/contentpipe/internal/geom"
)

func standard(t *testing.T) *Registry {
	t.Helper()
	r, err := NewStandardRegistry()
	require.NoError(t, err)
	return r
}

func TestEffectRoundTrip(t *testing.T) {
	reg := standard(t)
	in := &effect.Content{
		Name: "simple",
		Techniques: []effect.Technique{{
			Name: "Main",
			Passes: []effect.Pass{{
				Name:       "P0",
				Parameters: []effect.Parameter{{Name: "Intensity", Type: effect.TypeFloat}},
			}},
		}},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteFile(&buf, reg, in))

	rec, err := ReadFile(&buf, reg)
	require.NoError(t, err)
	assert.Equal(t, TagEffect, rec.Tag)
	assert.Equal(t, uint32(EffectVersion), rec.Version)

	out, ok := rec.Value.(*effect.Content)
	require.True(t, ok)
	tech, ok := out.Technique("Main")
	require.True(t, ok)
	require.Len(t, tech.Passes, 1)
	pass, ok := tech.Pass("P0")
	require.True(t, ok)
	param, ok := pass.Parameter("Intensity")
	require.True(t, ok)
	assert.Equal(t, effect.TypeFloat, param.Type)
}

func TestEffectRoundTripFull(t *testing.T) {
	reg := standard(t)
	elem := effect.Parameter{Name: "Bones[0]", Type: effect.TypeFloatMat4}
	in := &effect.Content{
		Name:          "lit",
		GeneratedType: "Game.Effects.Lit",
		Techniques: []effect.Technique{{
			Name: "Main",
			Passes: []effect.Pass{{
				Name:         "P0",
				Shaders:      []effect.Shader{{Stage: effect.StageVertex, File: "lit.vert"}, {Stage: effect.StageFragment, File: "lit.frag"}},
				Attributes:   []effect.VertexAttribute{{Name: "position", Location: 0}, {Name: "normal", Location: 1}},
				Blend:        &effect.BlendState{Enabled: true, Source: "SrcAlpha", Destination: "InvSrcAlpha", Operation: "Add"},
				DepthStencil: &effect.DepthStencilState{DepthTest: true, Function: "Less"},
				Rasterizer:   &effect.RasterizerState{CullMode: "Back", FillMode: "Solid"},
				Parameters: []effect.Parameter{
					{Name: "World", Type: effect.TypeFloatMat4, Location: 3},
					{Name: "Light", Type: effect.TypeStruct, Kind: effect.KindStruct, Fields: []effect.Parameter{
						{Name: "Color", Type: effect.TypeFloatVec3},
						{Name: "Power", Type: effect.TypeFloat, Location: 7},
					}},
					{Name: "Bones", Type: effect.TypeFloatMat4, Kind: effect.KindArray, Length: 4, Element: &elem},
				},
			}},
		}},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteFile(&buf, reg, in))
	rec, err := ReadFile(&buf, reg)
	require.NoError(t, err)
	assert.Equal(t, in, rec.Value)
}

func TestPrimitiveLayout(t *testing.T) {
	reg := standard(t)

	tests := []struct {
		name  string
		value any
		tag   string
		size  int
	}{
		{"vector2", geom.NewVector2(1, 2), TagVector2, 8},
		{"vector3", geom.NewVector3(1, 2, 3), TagVector3, 12},
		{"vector4", geom.NewVector4(1, 2, 3, 4), TagVector4, 16},
		{"quaternion", geom.NewQuaternionIdentity(), TagQuaternion, 16},
		{"matrix", geom.NewMatrixIdentity(), TagMatrix, 64},
		{"color", geom.NewColorRGBA8(255, 0, 0, 255), TagColor, 16},
		{"point", geom.Point{X: -1, Y: 2}, TagPoint, 8},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			cw := NewContentWriter(&buf, reg)
			require.NoError(t, cw.WriteObject(tt.value))
			require.NoError(t, cw.Flush())

			header := 1 + len(tt.tag) + 4
			assert.Equal(t, header+tt.size, buf.Len())

			rec, err := NewContentReader(&buf, reg).ReadObject()
			require.NoError(t, err)
			assert.Equal(t, tt.tag, rec.Tag)
			assert.Equal(t, tt.value, rec.Value)
		})
	}
}

func TestVectorFieldOrder(t *testing.T) {
	var buf bytes.Buffer
	cw := NewContentWriter(&buf, NewRegistry())
	cw.WriteStruct(geom.NewVector4(1, 2, 3, 4))
	require.NoError(t, cw.Flush())

	want := []byte{
		0x00, 0x00, 0x80, 0x3f,
		0x00, 0x00, 0x00, 0x40,
		0x00, 0x00, 0x40, 0x40,
		0x00, 0x00, 0x80, 0x40,
	}
	assert.Equal(t, want, buf.Bytes())
}

func TestTagResolution(t *testing.T) {
	reg := standard(t)

	tag, err := reg.Tag(&effect.Content{})
	require.NoError(t, err)
	assert.Equal(t, TagEffect, tag)

	_, err = reg.Tag(effect.Content{})
	assert.ErrorIs(t, err, ErrNoWriter, "writers match the exact runtime type")

	assert.Contains(t, reg.Tags(), TagMatrix)
}

func TestUnregisteredTypeWritesNothing(t *testing.T) {
	reg := standard(t)

	var buf bytes.Buffer
	err := WriteFile(&buf, reg, struct{ X int }{1})
	assert.ErrorIs(t, err, ErrNoWriter)
	assert.Zero(t, buf.Len())

	cw := NewContentWriter(&buf, reg)
	assert.ErrorIs(t, cw.WriteObject(3.5), ErrNoWriter)
	require.NoError(t, cw.Flush())
	assert.Zero(t, buf.Len())
}

func TestWriteIntRejectsOutOfRange(t *testing.T) {
	reg := standard(t)
	location := math.MaxInt32
	location++
	in := &effect.Content{
		Name: "wide",
		Techniques: []effect.Technique{{
			Name: "Main",
			Passes: []effect.Pass{{
				Name:       "P0",
				Parameters: []effect.Parameter{{Name: "Intensity", Type: effect.TypeFloat, Location: location}},
			}},
		}},
	}

	var buf bytes.Buffer
	err := WriteFile(&buf, reg, in)
	assert.ErrorIs(t, err, ErrOutOfRange)

	below := math.MinInt32
	below--
	cw := NewContentWriter(&buf, reg)
	cw.WriteInt(math.MinInt32)
	assert.NoError(t, cw.Err())
	cw.WriteInt(below)
	assert.ErrorIs(t, cw.Err(), ErrOutOfRange)
}

func TestRegistrationCollisions(t *testing.T) {
	reg := standard(t)

	err := Register(reg, "Other.Vector2Reader", 0, func(*ContentWriter, geom.Vector2) error { return nil })
	assert.ErrorIs(t, err, ErrDuplicateWriter)

	err = RegisterReader(reg, TagEffect, func(*ContentReader, uint32) (int, error) { return 0, nil })
	assert.ErrorIs(t, err, ErrDuplicateReader)
}

func TestReadFileErrors(t *testing.T) {
	reg := standard(t)

	var good bytes.Buffer
	require.NoError(t, WriteFile(&good, reg, geom.NewVector2(1, 2)))
	data := good.Bytes()

	tests := []struct {
		name    string
		data    []byte
		wantErr error
		wantMsg string
	}{
		{"bad magic", append([]byte("XYZ"), data[3:]...), ErrBadMagic, ""},
		{"future version", append([]byte("ECF\x02"), data[4:]...), ErrUnsupportedFormat, ""},
		{"unknown tag", append([]byte("ECF\x01\x03abc"), 0, 0, 0, 0), ErrNoReader, ""},
		{"truncated", data[:len(data)-2], nil, "unexpected EOF"},
		{"empty", nil, nil, "EOF"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadFile(bytes.NewReader(tt.data), reg)
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			if tt.wantMsg != "" {
				assert.ErrorContains(t, err, tt.wantMsg)
			}
		})
	}
}

func TestSaveLoad(t *testing.T) {
	reg := standard(t)
	path := filepath.Join(t.TempDir(), "out", "color"+FileExtension)

	require.NoError(t, Save(path, reg, geom.NewColorRGBA8(0, 128, 255, 255)))
	rec, err := Load(path, reg)
	require.NoError(t, err)
	assert.Equal(t, TagColor, rec.Tag)
	assert.Equal(t, geom.NewColorRGBA8(0, 128, 255, 255), rec.Value)
}
