package math

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestQuatIdentity(t *testing.T) {
	q := QuatIdentity()
	if q.X != 0 || q.Y != 0 || q.Z != 0 || q.W != 1 {
		t.Errorf("Identity quaternion should be (0,0,0,1), got (%v,%v,%v,%v)", q.X, q.Y, q.Z, q.W)
	}
}

func TestQuatNormalize(t *testing.T) {
	q := Quat{X: 1, Y: 2, Z: 3, W: 4}
	n := q.Normalize()

	length := float32(math.Sqrt(float64(n.X*n.X + n.Y*n.Y + n.Z*n.Z + n.W*n.W)))
	if math.Abs(float64(length-1.0)) > 0.0001 {
		t.Errorf("Normalized quaternion length should be 1, got %v", length)
	}
}

func TestQuatToMat4(t *testing.T) {
	if m := QuatIdentity().ToMat4(); !m.ApproxEqual(Identity(), 1e-6) {
		t.Errorf("identity quat ToMat4 = %v, want identity", m)
	}

	q := QuatFromAxisAngle(Vec3{X: 0, Y: 0, Z: 1}, 0.9)
	want := Mat4(mgl32.QuatRotate(0.9, mgl32.Vec3{0, 0, 1}).Mat4())
	if got := q.ToMat4(); !got.ApproxEqual(want, 1e-6) {
		t.Errorf("ToMat4 = %v, want %v", got, want)
	}
}

func TestQuatFromAxisAngle(t *testing.T) {
	// 90 degrees around Y axis
	q := QuatFromAxisAngle(Vec3{X: 0, Y: 1, Z: 0}, float32(math.Pi/2))

	expectedW := float32(math.Cos(math.Pi / 4))
	expectedY := float32(math.Sin(math.Pi / 4))

	if math.Abs(float64(q.W-expectedW)) > 0.001 {
		t.Errorf("QuatFromAxisAngle W: expected %v, got %v", expectedW, q.W)
	}
	if math.Abs(float64(q.Y-expectedY)) > 0.001 {
		t.Errorf("QuatFromAxisAngle Y: expected %v, got %v", expectedY, q.Y)
	}
}

func TestQuatFromMat4(t *testing.T) {
	// Angles chosen to hit every branch of the trace switch.
	tests := []struct {
		name  string
		axis  Vec3
		angle float32
	}{
		{"small", Vec3{0, 1, 0}, 0.3},
		{"x dominant", Vec3{1, 0, 0}, 3.0},
		{"y dominant", Vec3{0, 1, 0}, 3.0},
		{"z dominant", Vec3{0, 0, 1}, 3.0},
		{"oblique", Vec3{0.6, 0, 0.8}, 2.2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := QuatFromAxisAngle(tt.axis, tt.angle)
			got := QuatFromMat4(q.ToMat4())
			if !got.ApproxEqual(q, 1e-5) {
				t.Errorf("QuatFromMat4 = %v, want %v", got, q)
			}
		})
	}
}

func TestQuatInverse(t *testing.T) {
	q := QuatFromAxisAngle(Vec3{0, 0, 1}, 1.3)
	if got := q.Mul(q.Inverse()); !got.ApproxEqual(QuatIdentity(), 1e-6) {
		t.Errorf("q * q^-1 = %v, want identity", got)
	}
}

func TestQuatRotate(t *testing.T) {
	q := QuatFromAxisAngle(Vec3{1, 0, 0}, math.Pi/2)
	got := q.Rotate(Vec3{0, 1, 0})
	if !got.ApproxEqual(Vec3{0, 0, 1}, 1e-6) {
		t.Errorf("Rotate = %v, want (0, 0, 1)", got)
	}
}

func TestQuatMulMatchesMatrices(t *testing.T) {
	a := QuatFromAxisAngle(Vec3{0, 1, 0}, 0.5)
	b := QuatFromAxisAngle(Vec3{1, 0, 0}, -0.8)
	want := a.ToMat4().Mul(b.ToMat4())
	if got := a.Mul(b).ToMat4(); !got.ApproxEqual(want, 1e-6) {
		t.Errorf("(a*b).ToMat4() = %v, want %v", got, want)
	}
}

func TestQuatBetween(t *testing.T) {
	tests := []struct {
		name string
		a, b Vec3
	}{
		{"same", Vec3{0, 1, 0}, Vec3{0, 2, 0}},
		{"quarter", Vec3{0, 1, 0}, Vec3{0, 0, 1}},
		{"opposite", Vec3{0, 1, 0}, Vec3{0, -1, 0}},
		{"oblique", Vec3{1, 1, 0}, Vec3{0, 1, 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := QuatBetween(tt.a, tt.b).Rotate(tt.a.Normalize())
			if !got.ApproxEqual(tt.b.Normalize(), 1e-5) {
				t.Errorf("QuatBetween rotates %v to %v, want %v", tt.a, got, tt.b.Normalize())
			}
		})
	}
}
