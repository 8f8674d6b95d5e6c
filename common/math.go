package common

import "math"

// Identity resets a 4x4 matrix (flat slice) to the identity matrix.
// The matrix is stored in column-major order.
//
// Parameters:
//   - m: destination slice (must be at least 16 elements)
func Identity(m []float32) {
	for i := range m {
		m[i] = 0
	}
	m[0], m[5], m[10], m[15] = 1, 1, 1, 1
}

// ComposeMatrix builds a column-major 4x4 transform from a translation, a rotation quaternion
// (x, y, z, w) and a scale, applied in scale-rotate-translate order.
//
// Parameters:
//   - t: the translation
//   - q: the rotation quaternion (x, y, z, w)
//   - s: the scale
//
// Returns:
//   - [16]float32: the composed matrix
func ComposeMatrix(t [3]float32, q [4]float32, s [3]float32) [16]float32 {
	x, y, z, w := q[0], q[1], q[2], q[3]
	x2, y2, z2 := x+x, y+y, z+z
	xx, xy, xz := x*x2, x*y2, x*z2
	yy, yz, zz := y*y2, y*z2, z*z2
	wx, wy, wz := w*x2, w*y2, w*z2

	return [16]float32{
		(1 - (yy + zz)) * s[0], (xy + wz) * s[0], (xz - wy) * s[0], 0,
		(xy - wz) * s[1], (1 - (xx + zz)) * s[1], (yz + wx) * s[1], 0,
		(xz + wy) * s[2], (yz - wx) * s[2], (1 - (xx + yy)) * s[2], 0,
		t[0], t[1], t[2], 1,
	}
}

// FaceNormal returns the unit normal of the counter-clockwise triangle (a, b, c).
// Degenerate triangles yield the zero vector.
//
// Parameters:
//   - a, b, c: the triangle corners
//
// Returns:
//   - [3]float32: the normalized face normal
func FaceNormal(a, b, c [3]float32) [3]float32 {
	ux, uy, uz := b[0]-a[0], b[1]-a[1], b[2]-a[2]
	vx, vy, vz := c[0]-a[0], c[1]-a[1], c[2]-a[2]

	return Normalize([3]float32{uy*vz - uz*vy, uz*vx - ux*vz, ux*vy - uy*vx})
}

// Normalize scales v to unit length. Vectors shorter than 1e-6 yield the zero vector.
//
// Parameters:
//   - v: the vector to normalize
//
// Returns:
//   - [3]float32: the unit vector
func Normalize(v [3]float32) [3]float32 {
	length := float32(math.Sqrt(float64(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])))
	if length < 1e-6 {
		return [3]float32{}
	}
	return [3]float32{v[0] / length, v[1] / length, v[2] / length}
}

// Bounds computes the axis-aligned bounding box of a flat xyz position array.
// An empty array yields two zero vectors.
//
// Parameters:
//   - positions: packed xyz triples
//
// Returns:
//   - [3]float32: the minimum corner
//   - [3]float32: the maximum corner
func Bounds(positions []float32) ([3]float32, [3]float32) {
	if len(positions) < 3 {
		return [3]float32{}, [3]float32{}
	}

	lo := [3]float32{positions[0], positions[1], positions[2]}
	hi := lo
	for i := 3; i+2 < len(positions); i += 3 {
		for axis := 0; axis < 3; axis++ {
			v := positions[i+axis]
			lo[axis] = min(lo[axis], v)
			hi[axis] = max(hi[axis], v)
		}
	}
	return lo, hi
}

// EulerToQuaternion converts XYZ-order Euler angles in radians to a quaternion (x, y, z, w).
//
// Parameters:
//   - e: the rotation about x, y and z
//
// Returns:
//   - [4]float32: the rotation quaternion
func EulerToQuaternion(e [3]float32) [4]float32 {
	c1, s1 := math.Cos(float64(e[0])/2), math.Sin(float64(e[0])/2)
	c2, s2 := math.Cos(float64(e[1])/2), math.Sin(float64(e[1])/2)
	c3, s3 := math.Cos(float64(e[2])/2), math.Sin(float64(e[2])/2)

	return [4]float32{
		float32(s1*c2*c3 + c1*s2*s3),
		float32(c1*s2*c3 - s1*c2*s3),
		float32(c1*c2*s3 + s1*s2*c3),
		float32(c1*c2*c3 - s1*s2*s3),
	}
}
