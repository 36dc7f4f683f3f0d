package vec3

import (
	"math"
	"testing"
)

func TestBasisIsOrthonormal(t *testing.T) {
	normals := []Vec3{
		New(0, 0, 1), New(0, 0, -1), New(1, 0, 0),
		New(0.3, -0.5, 0.8).Unit(), New(-0.7, 0.7, 0.1).Unit(),
	}
	for _, n := range normals {
		tg, b := Basis(n)
		for name, pair := range map[string]float64{
			"t·n": tg.Dot(n), "b·n": b.Dot(n), "t·b": tg.Dot(b),
		} {
			if math.Abs(pair) > 1e-9 {
				t.Errorf("n=%v: %s = %v, want 0", n, name, pair)
			}
		}
		if math.Abs(tg.Length()-1) > 1e-9 || math.Abs(b.Length()-1) > 1e-9 {
			t.Errorf("n=%v: basis vectors not unit length (%v, %v)", n, tg.Length(), b.Length())
		}
	}
}

func TestRefractTotalInternalReflection(t *testing.T) {
	n := New(0, 0, 1)
	// grazing incidence from the dense side: sin^2 > 1, must report TIR
	i := New(0.99, 0, -0.14).Unit()
	if _, ok := Refract(i, n, 1.5); ok {
		t.Errorf("expected total internal reflection at grazing incidence with eta=1.5")
	}
	// head-on transmission never undergoes TIR
	if _, ok := Refract(New(0, 0, -1), n, 1.5); !ok {
		t.Errorf("head-on refraction should succeed")
	}
}

func TestMatrixInverseRoundTripsPoints(t *testing.T) {
	m := Translate(New(3, -2, 5)).Mul(Scale(New(2, 0.5, 4)))
	inv := m.Inverse()
	pts := []Vec3{New(0, 0, 0), New(1, 2, 3), New(-4, 0.5, 9)}
	for _, p := range pts {
		back := inv.TransformPoint(m.TransformPoint(p))
		if back.Sub(p).Length() > 1e-9 {
			t.Errorf("inverse round trip moved %v to %v", p, back)
		}
	}
}

func TestTransformVectorIgnoresTranslation(t *testing.T) {
	m := Translate(New(100, 100, 100))
	v := New(1, 2, 3)
	if got := m.TransformVector(v); got != v {
		t.Errorf("TransformVector under pure translation = %v, want %v", got, v)
	}
	if got := m.TransformPoint(v); got == v {
		t.Errorf("TransformPoint under pure translation should move the point")
	}
}
