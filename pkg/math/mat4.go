package math

import "github.com/chewxy/math32"

// Mat4 is a 4x4 matrix stored column-major, as OpenGL expects: element
// (row r, column c) is m[c*4+r], so the translation sits in m[12:15].
type Mat4 [16]float32

// Perspective returns a right-handed projection looking down -Z with depth
// mapped to [-1, 1]. fovY is in radians and aspect is width over height.
func Perspective(fovY, aspect, near, far float32) Mat4 {
	f := 1 / math32.Tan(fovY/2)
	nf := 1 / (near - far)

	var m Mat4
	m[0] = f / aspect
	m[5] = f
	m[10] = (far + near) * nf
	m[11] = -1
	m[14] = 2 * far * near * nf
	return m
}

// Translate returns a translation by (x, y, z).
func Translate(x, y, z float32) Mat4 {
	m := identity()
	m[12], m[13], m[14] = x, y, z
	return m
}

// RotateX, RotateY and RotateZ rotate counter-clockwise by angle radians
// when looking down the axis towards the origin.
func RotateX(angle float32) Mat4 { return rotation(1, 2, angle) }
func RotateY(angle float32) Mat4 { return rotation(2, 0, angle) }
func RotateZ(angle float32) Mat4 { return rotation(0, 1, angle) }

// rotation turns axis a towards axis b in the plane they span.
func rotation(a, b int, angle float32) Mat4 {
	s, c := math32.Sincos(angle)
	m := identity()
	m[a*4+a] = c
	m[a*4+b] = s
	m[b*4+a] = -s
	m[b*4+b] = c
	return m
}

func identity() Mat4 {
	return Mat4{0: 1, 5: 1, 10: 1, 15: 1}
}

// Mul returns m * other, so other applies first.
func (m Mat4) Mul(other Mat4) Mat4 {
	var out Mat4
	for r := 0; r < 4; r++ {
		a, b, c, d := m.Row(r)
		for col := 0; col < 4; col++ {
			out[col*4+r] = a*other[col*4] + b*other[col*4+1] + c*other[col*4+2] + d*other[col*4+3]
		}
	}
	return out
}

// TransformVec3 transforms the point v (w = 1) with the perspective divide.
func (m Mat4) TransformVec3(v Vec3) Vec3 {
	var out [4]float32
	for r := range out {
		a, b, c, d := m.Row(r)
		out[r] = a*v.X + b*v.Y + c*v.Z + d
	}
	if w := out[3]; w != 0 && w != 1 {
		return Vec3{out[0] / w, out[1] / w, out[2] / w}
	}
	return Vec3{out[0], out[1], out[2]}
}

// Row returns row i as (a, b, c, d).
func (m Mat4) Row(i int) (a, b, c, d float32) {
	return m[i], m[4+i], m[8+i], m[12+i]
}

// Ptr returns a pointer to the first element for glUniformMatrix4fv.
func (m *Mat4) Ptr() *float32 {
	return &m[0]
}
