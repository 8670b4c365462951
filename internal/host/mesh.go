package host

import "github.com/Faultbox/gltfscene/pkg/math"

// Mesh is geometry shared by the objects that use it.
type Mesh struct {
	Name      string
	Vertices  []math.Vec3
	ShapeKeys []string
	Props     map[string]any

	users int
}

// Users is the number of objects instancing the mesh.
func (m *Mesh) Users() int {
	return m.users
}

// Transform moves every vertex by t.
func (m *Mesh) Transform(t math.Mat4) {
	for i, v := range m.Vertices {
		m.Vertices[i] = t.TransformVec3(v)
	}
}

// Camera projection types.
const (
	CameraPerspective  = "PERSP"
	CameraOrthographic = "ORTHO"
)

// Camera is camera data. Angles are radians.
type Camera struct {
	Name       string
	Type       string
	AngleY     float32
	OrthoScale float32
	ClipStart  float32
	ClipEnd    float32
	// SensorFit is "VERTICAL" when AngleY drives the field of view.
	SensorFit string
}

// Image is an image data-block, either linked to a file or packed.
type Image struct {
	Name     string
	Filepath string
	MimeType string
	Packed   []byte
	Props    map[string]any

	// Width and Height are zero when the header could not be decoded.
	Width, Height int
}

// IsPacked reports whether the pixels are stored inside the host data.
func (i *Image) IsPacked() bool {
	return i.Packed != nil
}
