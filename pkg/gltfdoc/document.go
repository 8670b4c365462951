// Package gltfdoc provides the in-memory glTF 2.0 scene document consumed by
// the importer, plus a loader built on github.com/qmuntal/gltf.
package gltfdoc

import (
	"strings"

	"github.com/Faultbox/gltfscene/pkg/math"
)

// Document is a decoded glTF asset. Records are read-only once loaded;
// all cross references are indices into the owning slices.
type Document struct {
	Nodes      []Node
	Meshes     []Mesh
	Skins      []Skin
	Cameras    []Camera
	Images     []Image
	Animations []Animation
	Scenes     []Scene
	Accessors  []Accessor

	// Scene is the default scene index, if the asset declares one.
	Scene *int

	// BaseDir is the directory external URIs are resolved against.
	BaseDir string
}

// Node is a scene graph element.
// Matrix takes precedence over the decomposed TRS fields when set.
type Node struct {
	Index       int
	Name        string
	Matrix      *math.Mat4
	Translation *math.Vec3
	Rotation    *math.Quat // x, y, z, w
	Scale       *math.Vec3
	Children    []int
	Mesh        *int
	Camera      *int
	Skin        *int
	Extras      map[string]any
}

// Skin binds meshes to a set of joint nodes.
type Skin struct {
	Name                string
	Joints              []int
	Skeleton            *int
	InverseBindMatrices *int // accessor index
}

// JointIndex returns the position of node in Joints, or -1.
func (s *Skin) JointIndex(node int) int {
	for i, j := range s.Joints {
		if j == node {
			return i
		}
	}
	return -1
}

// Mesh is a set of primitives sharing a node.
type Mesh struct {
	Name       string
	Primitives []Primitive
	Extras     map[string]any
}

// Primitive maps attribute semantics to accessor indices.
type Primitive struct {
	Attributes map[string]int
	Targets    []map[string]int
}

// TargetNames returns the morph target names stored in the mesh extras
// (the de facto "targetNames" convention). Non-string entries are empty.
func (m *Mesh) TargetNames() []string {
	raw, ok := m.Extras["targetNames"].([]any)
	if !ok {
		return nil
	}
	names := make([]string, len(raw))
	for i, v := range raw {
		names[i], _ = v.(string)
	}
	return names
}

// CameraType distinguishes projection kinds.
type CameraType string

const (
	CameraPerspective  CameraType = "perspective"
	CameraOrthographic CameraType = "orthographic"
)

// Camera holds projection parameters. Unused fields are zero.
type Camera struct {
	Name        string
	Type        CameraType
	YFov        float32
	AspectRatio float32
	XMag        float32
	YMag        float32
	ZNear       float32
	ZFar        float32 // 0 means infinite for perspective cameras
}

// Image references pixel data by URI or buffer view.
type Image struct {
	Name       string
	URI        string
	MimeType   string
	BufferView *int
}

// IsDataURI reports whether the image is embedded as a data: URI.
func (i *Image) IsDataURI() bool {
	return strings.HasPrefix(i.URI, "data:")
}

// Channel paths.
const (
	PathTranslation = "translation"
	PathRotation    = "rotation"
	PathScale       = "scale"
	PathWeights     = "weights"
)

// Animation is a named set of channels.
type Animation struct {
	Name     string
	Channels []Channel
}

// Channel targets one property of one node.
type Channel struct {
	Node *int
	Path string
}

// Scene lists its root nodes.
type Scene struct {
	Name  string
	Nodes []int
}

// Accessor carries the accessor metadata the importer needs.
type Accessor struct {
	Name  string
	Count int
	Type  string
}

// MeshAt returns the mesh at idx, or nil when idx is out of range.
func (d *Document) MeshAt(idx int) *Mesh {
	if idx < 0 || idx >= len(d.Meshes) {
		return nil
	}
	return &d.Meshes[idx]
}

// SkinAt returns the skin at idx, or nil when idx is out of range.
func (d *Document) SkinAt(idx int) *Skin {
	if idx < 0 || idx >= len(d.Skins) {
		return nil
	}
	return &d.Skins[idx]
}

// CameraAt returns the camera at idx, or nil when idx is out of range.
func (d *Document) CameraAt(idx int) *Camera {
	if idx < 0 || idx >= len(d.Cameras) {
		return nil
	}
	return &d.Cameras[idx]
}

// AccessorName returns the accessor name at idx, or "" when out of range.
func (d *Document) AccessorName(idx int) string {
	if idx < 0 || idx >= len(d.Accessors) {
		return ""
	}
	return d.Accessors[idx].Name
}

// Ptr returns a pointer to v. Useful for building documents by hand.
func Ptr[T any](v T) *T {
	return &v
}
