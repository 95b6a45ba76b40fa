package effect

import (
	"fmt"

	"github.com/roach88/contentpipe/internal/corelib"
	"github.com/roach88/contentpipe/internal/ir"
)

// ParameterType is the uniform type reported by the graphics backend,
// spelled as in GLSL.
type ParameterType string

const (
	TypeBool           ParameterType = "bool"
	TypeDouble         ParameterType = "double"
	TypeFloat          ParameterType = "float"
	TypeFloatMat4      ParameterType = "mat4"
	TypeFloatVec2      ParameterType = "vec2"
	TypeFloatVec3      ParameterType = "vec3"
	TypeFloatVec4      ParameterType = "vec4"
	TypeSampler2D      ParameterType = "sampler2D"
	TypeSampler2DArray ParameterType = "sampler2DArray"
	TypeInt            ParameterType = "int"
	TypeIntVec2        ParameterType = "ivec2"
	TypeUnsignedInt    ParameterType = "uint"

	// Reported by backends but without a dedicated value type.
	TypeFloatMat3   ParameterType = "mat3"
	TypeIntVec3     ParameterType = "ivec3"
	TypeIntVec4     ParameterType = "ivec4"
	TypeBoolVec2    ParameterType = "bvec2"
	TypeSampler3D   ParameterType = "sampler3D"
	TypeSamplerCube ParameterType = "samplerCube"
	TypeStruct      ParameterType = "struct"
)

var knownTypes = map[ParameterType]ir.TypeRef{
	TypeBool:           ir.TypeBoolean,
	TypeDouble:         ir.TypeDouble,
	TypeFloat:          ir.TypeSingle,
	TypeFloatMat4:      corelib.Matrix,
	TypeFloatVec2:      corelib.Vector2,
	TypeFloatVec3:      corelib.Vector3,
	TypeFloatVec4:      corelib.Vector4,
	TypeSampler2D:      corelib.Texture2D,
	TypeSampler2DArray: corelib.Texture2DArray,
	TypeInt:            ir.TypeInt32,
	TypeIntVec2:        corelib.Point,
	TypeUnsignedInt:    ir.TypeUInt32,
}

var unmappedTypes = map[ParameterType]bool{
	TypeFloatMat3:   true,
	TypeIntVec3:     true,
	TypeIntVec4:     true,
	TypeBoolVec2:    true,
	TypeSampler3D:   true,
	TypeSamplerCube: true,
	TypeStruct:      true,
}

// ParseParameterType validates a backend type name.
func ParseParameterType(s string) (ParameterType, error) {
	pt := ParameterType(s)
	if _, ok := knownTypes[pt]; ok || unmappedTypes[pt] {
		return pt, nil
	}
	return "", fmt.Errorf("unknown parameter type %q", s)
}

// ValueType maps a backend type to the property type generated for it.
// Anything without a mapping, including struct and array parameters, is
// exposed as the untyped EffectPassParameter.
func (p Parameter) ValueType() ir.TypeRef {
	if p.Kind != KindScalar {
		return corelib.EffectPassParameter
	}
	return ValueTypeOf(p.Type)
}

// ValueTypeOf maps a backend type to a value type.
func ValueTypeOf(t ParameterType) ir.TypeRef {
	if ref, ok := knownTypes[t]; ok {
		return ref
	}
	return corelib.EffectPassParameter
}

// IsUntyped reports whether the parameter is exposed as the untyped
// handle.
func (p Parameter) IsUntyped() bool {
	return p.ValueType().FullName == corelib.EffectPassParameter.FullName
}
