package vec3

// Matrix4 is a row-major 4x4 affine transform, used by object instances
// (spec.md §3 "Instance") to map between object and world space. Only the
// affine subset (no projective row) is exercised by the core.
type Matrix4 struct {
	M [4][4]float64
}

// Identity returns the identity transform.
func Identity() Matrix4 {
	var m Matrix4
	for i := 0; i < 4; i++ {
		m.M[i][i] = 1
	}
	return m
}

// Translate builds a translation matrix.
func Translate(d Vec3) Matrix4 {
	m := Identity()
	m.M[0][3], m.M[1][3], m.M[2][3] = d.X, d.Y, d.Z
	return m
}

// Scale builds a non-uniform scale matrix.
func Scale(s Vec3) Matrix4 {
	m := Identity()
	m.M[0][0], m.M[1][1], m.M[2][2] = s.X, s.Y, s.Z
	return m
}

// Mul composes two transforms: (m Mul n) applied to a point equals
// m.TransformPoint(n.TransformPoint(p)).
func (m Matrix4) Mul(n Matrix4) Matrix4 {
	var r Matrix4
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			var s float64
			for k := 0; k < 4; k++ {
				s += m.M[i][k] * n.M[k][j]
			}
			r.M[i][j] = s
		}
	}
	return r
}

// TransformPoint applies the full affine transform (translation included).
func (m Matrix4) TransformPoint(p Vec3) Vec3 {
	return Vec3{
		m.M[0][0]*p.X + m.M[0][1]*p.Y + m.M[0][2]*p.Z + m.M[0][3],
		m.M[1][0]*p.X + m.M[1][1]*p.Y + m.M[1][2]*p.Z + m.M[1][3],
		m.M[2][0]*p.X + m.M[2][1]*p.Y + m.M[2][2]*p.Z + m.M[2][3],
	}
}

// TransformVector applies only the linear part (no translation), used for
// direction vectors.
func (m Matrix4) TransformVector(v Vec3) Vec3 {
	return Vec3{
		m.M[0][0]*v.X + m.M[0][1]*v.Y + m.M[0][2]*v.Z,
		m.M[1][0]*v.X + m.M[1][1]*v.Y + m.M[1][2]*v.Z,
		m.M[2][0]*v.X + m.M[2][1]*v.Y + m.M[2][2]*v.Z,
	}
}

// TransformNormal applies the transform appropriate for surface normals:
// the transpose of the inverse of the linear part. Callers pass the already
// inverted matrix (instances cache Inverse() once in NewInstance).
func (m Matrix4) TransformNormal(n Vec3) Vec3 {
	return Vec3{
		m.M[0][0]*n.X + m.M[1][0]*n.Y + m.M[2][0]*n.Z,
		m.M[0][1]*n.X + m.M[1][1]*n.Y + m.M[2][1]*n.Z,
		m.M[0][2]*n.X + m.M[1][2]*n.Y + m.M[2][2]*n.Z,
	}
}

// Inverse computes the inverse of an affine matrix via Gauss-Jordan
// elimination on the augmented 4x4. Instances invert once, in NewInstance,
// so this need not be branch-optimised.
func (m Matrix4) Inverse() Matrix4 {
	a := m.M
	inv := Identity().M
	for col := 0; col < 4; col++ {
		pivot := col
		for r := col + 1; r < 4; r++ {
			if abs(a[r][col]) > abs(a[pivot][col]) {
				pivot = r
			}
		}
		a[col], a[pivot] = a[pivot], a[col]
		inv[col], inv[pivot] = inv[pivot], inv[col]

		pv := a[col][col]
		if pv == 0 {
			continue // degenerate transform; leave remaining rows untouched
		}
		for k := 0; k < 4; k++ {
			a[col][k] /= pv
			inv[col][k] /= pv
		}
		for r := 0; r < 4; r++ {
			if r == col {
				continue
			}
			f := a[r][col]
			for k := 0; k < 4; k++ {
				a[r][k] -= f * a[col][k]
				inv[r][k] -= f * inv[col][k]
			}
		}
	}
	return Matrix4{M: inv}
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
