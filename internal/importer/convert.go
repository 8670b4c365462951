package importer

import (
	stdmath "math"

	"github.com/Faultbox/gltfscene/internal/host"
	"github.com/Faultbox/gltfscene/pkg/gltfdoc"
	"github.com/Faultbox/gltfscene/pkg/math"
)

// yUpToZUp rotates +90 degrees about X, taking glTF's +Y up axis to +Z.
var yUpToZUp = math.Quat{X: stdmath.Sqrt2 / 2, W: stdmath.Sqrt2 / 2}

// Resolve returns the node's local transform: its matrix when present,
// otherwise T * R * S with identity defaults.
func Resolve(n *gltfdoc.Node) math.Mat4 {
	if n.Matrix != nil {
		return *n.Matrix
	}
	t := math.Vec3{}
	r := math.QuatIdentity()
	sc := math.Vec3{X: 1, Y: 1, Z: 1}
	if n.Translation != nil {
		t = *n.Translation
	}
	if n.Rotation != nil {
		r = *n.Rotation
	}
	if n.Scale != nil {
		sc = *n.Scale
	}
	return math.Compose(t, r, sc)
}

// CorrectionMatrix is the Y-up to Z-up basis change.
func CorrectionMatrix() math.Mat4 {
	return yUpToZUp.ToMat4()
}

// ToNativeSpace expresses a glTF-space transform in host axes.
// It must be applied once per exposed transform.
func ToNativeSpace(m math.Mat4) math.Mat4 {
	return CorrectionMatrix().Mul(m)
}

// VectorToNative maps a glTF direction or offset to host axes: (x, -z, y).
func VectorToNative(v math.Vec3) math.Vec3 {
	return math.Vec3{X: v.X, Y: -v.Z, Z: v.Y}
}

// boneFallbackLocation is the pose location used when the parent bone has no
// bind matrix: (-x, -z, y) of the bind translation.
func boneFallbackLocation(v math.Vec3) math.Vec3 {
	return math.Vec3{X: -v.X, Y: -v.Z, Z: v.Y}
}

// quatToHost remaps glTF (x, y, z, w) to the host's (w, x, y, z).
func quatToHost(q math.Quat) host.Quaternion {
	return host.QuaternionFrom(q)
}
