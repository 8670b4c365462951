package gltfdoc

import (
	"io"
	"net/url"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/Faultbox/gltfscene/internal/assets"
	"github.com/Faultbox/gltfscene/pkg/math"
)

// Loader errors.
var (
	ErrNoDocument = errors.New("no glTF document")
	ErrAccessor   = errors.New("accessor error")
	ErrImage      = errors.New("image data not available")
)

// AccessorSource resolves accessor data on demand.
type AccessorSource interface {
	Mat4s(accessor int) ([]math.Mat4, error)
	Vec3s(accessor int) ([]math.Vec3, error)
}

// ImageSource returns the encoded bytes and MIME type of an image.
type ImageSource interface {
	ImageData(image int) ([]byte, string, error)
}

// Binary serves accessor and image data from a decoded qmuntal/gltf document.
// Linked files are read through an asset cache rooted at the document's
// directory.
type Binary struct {
	doc   *gltf.Document
	files *assets.Manager
}

// Load opens a .gltf or .glb file.
func Load(path string) (*Document, *Binary, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "open %s", path)
	}
	return FromGLTF(doc, filepath.Dir(path))
}

// Decode reads a self-contained asset (GLB or embedded buffers) from r.
func Decode(r io.Reader) (*Document, *Binary, error) {
	doc := new(gltf.Document)
	if err := gltf.NewDecoder(r).Decode(doc); err != nil {
		return nil, nil, errors.Wrap(err, "decode glTF")
	}
	return FromGLTF(doc, "")
}

// FromGLTF converts a qmuntal/gltf document. dir is used to resolve
// external image URIs. Nodes built in code must set Scale to
// gltf.DefaultScale (as the decoder does) unless they mean a zero scale;
// NewNode does that.
func FromGLTF(src *gltf.Document, dir string) (*Document, *Binary, error) {
	if src == nil {
		return nil, nil, ErrNoDocument
	}

	doc := &Document{
		Scene:   optIndex(src.Scene),
		BaseDir: dir,
	}

	for i, n := range src.Nodes {
		doc.Nodes = append(doc.Nodes, convertNode(i, n))
	}
	for _, m := range src.Meshes {
		doc.Meshes = append(doc.Meshes, convertMesh(m))
	}
	for _, s := range src.Skins {
		doc.Skins = append(doc.Skins, Skin{
			Name:                s.Name,
			Joints:              indices(s.Joints),
			Skeleton:            optIndex(s.Skeleton),
			InverseBindMatrices: optIndex(s.InverseBindMatrices),
		})
	}
	for _, c := range src.Cameras {
		doc.Cameras = append(doc.Cameras, convertCamera(c))
	}
	for _, img := range src.Images {
		doc.Images = append(doc.Images, Image{
			Name:       img.Name,
			URI:        img.URI,
			MimeType:   img.MimeType,
			BufferView: optIndex(img.BufferView),
		})
	}
	for _, a := range src.Animations {
		anim := Animation{Name: a.Name}
		for _, ch := range a.Channels {
			anim.Channels = append(anim.Channels, Channel{
				Node: optIndex(ch.Target.Node),
				Path: channelPath(ch.Target.Path),
			})
		}
		doc.Animations = append(doc.Animations, anim)
	}
	for _, s := range src.Scenes {
		doc.Scenes = append(doc.Scenes, Scene{Name: s.Name, Nodes: indices(s.Nodes)})
	}
	for _, a := range src.Accessors {
		doc.Accessors = append(doc.Accessors, Accessor{
			Name:  a.Name,
			Count: int(a.Count),
			Type:  accessorType(a.Type),
		})
	}

	return doc, &Binary{doc: src, files: assets.NewManager(dir)}, nil
}

// NewNode returns a node carrying the decoder's default transform, for
// documents assembled in code.
func NewNode(name string) *gltf.Node {
	return &gltf.Node{
		Name:     name,
		Matrix:   gltf.DefaultMatrix,
		Rotation: gltf.DefaultRotation,
		Scale:    gltf.DefaultScale,
	}
}

func convertNode(idx int, n *gltf.Node) Node {
	node := Node{
		Index:    idx,
		Name:     n.Name,
		Children: indices(n.Children),
		Mesh:     optIndex(n.Mesh),
		Camera:   optIndex(n.Camera),
		Skin:     optIndex(n.Skin),
		Extras:   extrasMap(n.Extras),
	}

	// The qmuntal decoder fills absent fields with their defaults, so only
	// non-default values count as present. A zero scale is a real value.
	// Zero matrices and quaternions are not valid transforms and fall back
	// to the defaults the same way qmuntal's *OrDefault helpers do.
	if m := n.MatrixOrDefault(); m != gltf.DefaultMatrix {
		mat := math.Mat4(m)
		node.Matrix = &mat
	}
	if n.Translation != [3]float32{} {
		node.Translation = &math.Vec3{X: n.Translation[0], Y: n.Translation[1], Z: n.Translation[2]}
	}
	if q := n.RotationOrDefault(); q != gltf.DefaultRotation {
		node.Rotation = &math.Quat{X: q[0], Y: q[1], Z: q[2], W: q[3]}
	}
	if n.Scale != gltf.DefaultScale {
		node.Scale = &math.Vec3{X: n.Scale[0], Y: n.Scale[1], Z: n.Scale[2]}
	}
	return node
}

func convertMesh(m *gltf.Mesh) Mesh {
	mesh := Mesh{Name: m.Name, Extras: extrasMap(m.Extras)}
	for _, p := range m.Primitives {
		prim := Primitive{Attributes: attributes(p.Attributes)}
		for _, t := range p.Targets {
			prim.Targets = append(prim.Targets, attributes(t))
		}
		mesh.Primitives = append(mesh.Primitives, prim)
	}
	return mesh
}

func convertCamera(c *gltf.Camera) Camera {
	cam := Camera{Name: c.Name}
	switch {
	case c.Perspective != nil:
		cam.Type = CameraPerspective
		cam.YFov = c.Perspective.Yfov
		cam.ZNear = c.Perspective.Znear
		if c.Perspective.Zfar != nil {
			cam.ZFar = *c.Perspective.Zfar
		}
		if c.Perspective.AspectRatio != nil {
			cam.AspectRatio = *c.Perspective.AspectRatio
		}
	case c.Orthographic != nil:
		cam.Type = CameraOrthographic
		cam.XMag = c.Orthographic.Xmag
		cam.YMag = c.Orthographic.Ymag
		cam.ZNear = c.Orthographic.Znear
		cam.ZFar = c.Orthographic.Zfar
	}
	return cam
}

func channelPath(p gltf.TRSProperty) string {
	switch p {
	case gltf.TRSTranslation:
		return PathTranslation
	case gltf.TRSRotation:
		return PathRotation
	case gltf.TRSScale:
		return PathScale
	case gltf.TRSWeights:
		return PathWeights
	}
	return ""
}

func accessorType(t gltf.AccessorType) string {
	switch t {
	case gltf.AccessorScalar:
		return "SCALAR"
	case gltf.AccessorVec2:
		return "VEC2"
	case gltf.AccessorVec3:
		return "VEC3"
	case gltf.AccessorVec4:
		return "VEC4"
	case gltf.AccessorMat2:
		return "MAT2"
	case gltf.AccessorMat3:
		return "MAT3"
	case gltf.AccessorMat4:
		return "MAT4"
	}
	return ""
}

func optIndex(i *uint32) *int {
	if i == nil {
		return nil
	}
	v := int(*i)
	return &v
}

func indices(in []uint32) []int {
	if len(in) == 0 {
		return nil
	}
	out := make([]int, len(in))
	for i, v := range in {
		out[i] = int(v)
	}
	return out
}

func attributes(a gltf.Attribute) map[string]int {
	out := make(map[string]int, len(a))
	for k, v := range a {
		out[k] = int(v)
	}
	return out
}

func extrasMap(extras interface{}) map[string]any {
	m, _ := extras.(map[string]interface{})
	return m
}

func (b *Binary) accessor(idx int) (*gltf.Accessor, error) {
	if idx < 0 || idx >= len(b.doc.Accessors) {
		return nil, errors.Wrapf(ErrAccessor, "index %d out of range (%d accessors)", idx, len(b.doc.Accessors))
	}
	return b.doc.Accessors[idx], nil
}

// Mat4s reads a MAT4 float accessor as column-major matrices.
func (b *Binary) Mat4s(idx int) ([]math.Mat4, error) {
	acr, err := b.accessor(idx)
	if err != nil {
		return nil, err
	}
	if acr.Type != gltf.AccessorMat4 || acr.ComponentType != gltf.ComponentFloat {
		return nil, errors.Wrapf(ErrAccessor, "accessor %d is not a float MAT4", idx)
	}
	data, err := modeler.ReadAccessor(b.doc, acr, nil)
	if err != nil {
		return nil, errors.Wrapf(ErrAccessor, "accessor %d: %v", idx, err)
	}
	rows, ok := data.([][4][4]float32)
	if !ok {
		return nil, errors.Wrapf(ErrAccessor, "accessor %d: unexpected data %T", idx, data)
	}
	out := make([]math.Mat4, len(rows))
	for i, r := range rows {
		out[i] = math.FromRows(r)
	}
	return out, nil
}

// Vec3s reads a VEC3 float accessor.
func (b *Binary) Vec3s(idx int) ([]math.Vec3, error) {
	acr, err := b.accessor(idx)
	if err != nil {
		return nil, err
	}
	if acr.Type != gltf.AccessorVec3 || acr.ComponentType != gltf.ComponentFloat {
		return nil, errors.Wrapf(ErrAccessor, "accessor %d is not a float VEC3", idx)
	}
	data, err := modeler.ReadAccessor(b.doc, acr, nil)
	if err != nil {
		return nil, errors.Wrapf(ErrAccessor, "accessor %d: %v", idx, err)
	}
	vecs, ok := data.([][3]float32)
	if !ok {
		return nil, errors.Wrapf(ErrAccessor, "accessor %d: unexpected data %T", idx, data)
	}
	out := make([]math.Vec3, len(vecs))
	for i, v := range vecs {
		out[i] = math.Vec3{X: v[0], Y: v[1], Z: v[2]}
	}
	return out, nil
}

// Files returns the asset cache linked images are read through, so an
// importer can share it.
func (b *Binary) Files() *assets.Manager {
	return b.files
}

// ImageData returns the encoded image bytes and MIME type.
func (b *Binary) ImageData(idx int) ([]byte, string, error) {
	if idx < 0 || idx >= len(b.doc.Images) {
		return nil, "", errors.Wrapf(ErrImage, "index %d out of range", idx)
	}
	img := b.doc.Images[idx]

	switch {
	case img.BufferView != nil:
		if int(*img.BufferView) >= len(b.doc.BufferViews) {
			return nil, "", errors.Wrapf(ErrImage, "image %d: buffer view %d out of range", idx, *img.BufferView)
		}
		data, err := modeler.ReadBufferView(b.doc, b.doc.BufferViews[*img.BufferView])
		if err != nil {
			return nil, "", errors.Wrapf(err, "image %d", idx)
		}
		return data, img.MimeType, nil
	case img.IsEmbeddedResource():
		data, err := img.MarshalData()
		if err != nil {
			return nil, "", errors.Wrapf(err, "image %d", idx)
		}
		return data, img.MimeType, nil
	case img.URI != "":
		rel, err := url.PathUnescape(img.URI)
		if err != nil {
			return nil, "", errors.Wrapf(err, "image %d: unescape %q", idx, img.URI)
		}
		data, _, err := b.files.Load(rel)
		if err != nil {
			return nil, "", errors.Wrapf(err, "image %d", idx)
		}
		return data, img.MimeType, nil
	}
	return nil, "", errors.Wrapf(ErrImage, "image %d has no source", idx)
}
