// Package geom holds the engine value types written to content files.
// Field order is the serialized order: X, Y, Z, W for vectors and
// quaternions, R, G, B, A for colors, and row-major for matrices.
package geom

// Vector2 represents a 2D vector
type Vector2 struct {
	X, Y float32
}

// Vector3 represents a 3D vector
type Vector3 struct {
	X, Y, Z float32
}

// Vector4 represents a 4D vector
type Vector4 struct {
	X, Y, Z, W float32
}

// Quaternion represents a rotation.
type Quaternion struct {
	X, Y, Z, W float32
}

// Matrix is a 4x4 matrix stored row-major: Data[row*4+col].
type Matrix struct {
	Data [16]float32
}

// Color is a linear RGBA color with components in [0, 1].
type Color struct {
	R, G, B, A float32
}

// Point is an integer 2D position.
type Point struct {
	X, Y int32
}

func NewVector2(x, y float32) Vector2 {
	return Vector2{X: x, Y: y}
}

func NewVector3(x, y, z float32) Vector3 {
	return Vector3{X: x, Y: y, Z: z}
}

func NewVector4(x, y, z, w float32) Vector4 {
	return Vector4{X: x, Y: y, Z: z, W: w}
}

// NewQuaternionIdentity returns the rotation that does nothing.
func NewQuaternionIdentity() Quaternion {
	return Quaternion{W: 1}
}

// NewMatrixIdentity returns the identity matrix.
func NewMatrixIdentity() Matrix {
	m := Matrix{}
	m.Data[0] = 1
	m.Data[5] = 1
	m.Data[10] = 1
	m.Data[15] = 1
	return m
}

// NewMatrixTranslation returns a translation matrix. The translation lives
// in the last row.
func NewMatrixTranslation(v Vector3) Matrix {
	m := NewMatrixIdentity()
	m.Data[12] = v.X
	m.Data[13] = v.Y
	m.Data[14] = v.Z
	return m
}

// At returns the element at row r, column c.
func (m Matrix) At(r, c int) float32 {
	return m.Data[r*4+c]
}

// Mul returns m * other.
func (m Matrix) Mul(other Matrix) Matrix {
	var out Matrix
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			var sum float32
			for k := 0; k < 4; k++ {
				sum += m.Data[r*4+k] * other.Data[k*4+c]
			}
			out.Data[r*4+c] = sum
		}
	}
	return out
}

func (v Vector2) Add(other Vector2) Vector2 {
	return Vector2{X: v.X + other.X, Y: v.Y + other.Y}
}

func (v Vector3) Add(other Vector3) Vector3 {
	return Vector3{X: v.X + other.X, Y: v.Y + other.Y, Z: v.Z + other.Z}
}

// ToVector4 extends v with w.
func (v Vector3) ToVector4(w float32) Vector4 {
	return Vector4{X: v.X, Y: v.Y, Z: v.Z, W: w}
}

// NewColorRGBA8 converts 8-bit channels.
func NewColorRGBA8(r, g, b, a uint8) Color {
	return Color{R: float32(r) / 255, G: float32(g) / 255, B: float32(b) / 255, A: float32(a) / 255}
}
