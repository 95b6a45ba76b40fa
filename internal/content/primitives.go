package content

import (
	"fmt"

	"github.com/roach88/contentpipe/internal/geom"
)

// Reader names of the engine primitives.
const (
	TagVector2    = "engenious.Content.Serialization.Vector2Reader"
	TagVector3    = "engenious.Content.Serialization.Vector3Reader"
	TagVector4    = "engenious.Content.Serialization.Vector4Reader"
	TagQuaternion = "engenious.Content.Serialization.QuaternionReader"
	TagMatrix     = "engenious.Content.Serialization.MatrixReader"
	TagColor      = "engenious.Content.Serialization.ColorReader"
	TagPoint      = "engenious.Content.Serialization.PointReader"
)

// Primitives are not versioned independently; their layout never changes.
const primitiveVersion = 0

func registerPrimitive[T any](r *Registry, tag string) error {
	write := func(cw *ContentWriter, v T) error {
		cw.WriteStruct(v)
		return cw.Err()
	}
	read := func(cr *ContentReader, version uint32) (T, error) {
		var v T
		if version != primitiveVersion {
			return v, fmt.Errorf("unsupported version %d", version)
		}
		cr.ReadStruct(&v)
		return v, cr.Err()
	}
	if err := Register(r, tag, primitiveVersion, write); err != nil {
		return err
	}
	return RegisterReader(r, tag, read)
}

// RegisterPrimitives adds writers and readers for the geom value types.
func RegisterPrimitives(r *Registry) error {
	for _, reg := range []func(*Registry) error{
		func(r *Registry) error { return registerPrimitive[geom.Vector2](r, TagVector2) },
		func(r *Registry) error { return registerPrimitive[geom.Vector3](r, TagVector3) },
		func(r *Registry) error { return registerPrimitive[geom.Vector4](r, TagVector4) },
		func(r *Registry) error { return registerPrimitive[geom.Quaternion](r, TagQuaternion) },
		func(r *Registry) error { return registerPrimitive[geom.Matrix](r, TagMatrix) },
		func(r *Registry) error { return registerPrimitive[geom.Color](r, TagColor) },
		func(r *Registry) error { return registerPrimitive[geom.Point](r, TagPoint) },
	} {
		if err := reg(r); err != nil {
			return err
		}
	}
	return nil
}
