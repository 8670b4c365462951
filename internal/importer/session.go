// Package importer turns a decoded glTF document into host scene objects:
// empties, meshes, cameras, armatures with bones, vertex groups and
// armature modifiers, corrected from glTF's Y-up axes to the host's Z-up.
package importer

import (
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Faultbox/gltfscene/internal/assets"
	"github.com/Faultbox/gltfscene/internal/host"
	"github.com/Faultbox/gltfscene/pkg/gltfdoc"
	"github.com/Faultbox/gltfscene/pkg/math"
)

// DefaultSceneName is used for the implicit scene and for unnamed glTF scenes.
const DefaultSceneName = "Scene"

// Options controls an import.
type Options struct {
	// Logger receives progress and diagnostics. Nil discards them.
	Logger *zap.Logger

	// Files resolves and caches linked image files. Nil searches the
	// document directory with a private cache.
	Files *assets.Manager

	// LoadImages creates host images for every glTF image.
	LoadImages bool
	// PackImages stores image bytes in the host instead of linking files.
	PackImages bool
	// SkipYUpCorrection leaves objects in glTF's Y-up axes.
	SkipYUpCorrection bool
	// ActiveCollection, when set, is the child collection of each scene
	// that receives new objects.
	ActiveCollection string
}

// Source provides accessor and image data for a document.
type Source interface {
	gltfdoc.AccessorSource
	gltfdoc.ImageSource
}

// Result describes what an import produced.
type Result struct {
	SessionID    uuid.UUID
	ActiveObject *host.Object
	Scenes       []*host.Scene
	Stage        Stage
}

// Stage is a step of the scene assembly state machine.
type Stage int

const (
	StageInit Stage = iota
	StagePerSceneInstantiate
	StageBoneChainCorrection
	StageRotationCorrection
	StageVertexBindingFinalize
	StageActiveObjectSelect
	StageDone
)

// String returns the stage name.
func (s Stage) String() string {
	switch s {
	case StageInit:
		return "Init"
	case StagePerSceneInstantiate:
		return "PerSceneInstantiate"
	case StageBoneChainCorrection:
		return "BoneChainCorrection"
	case StageRotationCorrection:
		return "RotationCorrection"
	case StageVertexBindingFinalize:
		return "VertexBindingFinalize"
	case StageActiveObjectSelect:
		return "ActiveObjectSelect"
	case StageDone:
		return "Done"
	default:
		return fmt.Sprintf("Stage(%d)", int(s))
	}
}

// nodeState is the import-time state of one glTF node. Materialized
// fields are written once.
type nodeState struct {
	transform       math.Mat4
	parent          *int // first node listing this one as a child
	isJoint         bool
	skinID          int
	isSkeletonRoot  bool
	weightAnimation bool
	animations      map[int][]int // animation index -> channel indices

	visiting bool
	created  bool

	object     *host.Object
	boneName   *string
	boneMatrix *math.Mat4
	armature   *host.Object
}

type skinState struct {
	armature       *host.Object
	boundMeshNodes []int
	skeleton       int // -1 when the skin has no joints
	boneNodes      map[string]int

	ibms    []math.Mat4
	ibmErr  error
	ibmRead bool
}

type meshState struct {
	data           *host.Mesh
	weightAnimated bool
	shapeKeyNames  []*string
}

type imageState struct {
	image *host.Image
}

// sceneRun records where one glTF scene was instantiated.
type sceneRun struct {
	scene      *host.Scene
	collection *host.Collection
	roots      []int
}

// Session holds all state of one import. It is not safe for concurrent use.
type Session struct {
	ID uuid.UUID

	doc  *gltfdoc.Document
	src  Source
	data *host.Data
	opts Options
	log  *zap.Logger

	files *assets.Manager

	nodes  []nodeState
	skins  []skinState
	meshes []meshState
	images []imageState
	tracks []string

	runs       []sceneRun
	collection *host.Collection
	corrected  map[*host.Object]bool

	nodeCounter int
	stage       Stage
}

// NewSession prepares an import of doc into data. src may be nil when the
// document carries no binary data.
func NewSession(doc *gltfdoc.Document, src Source, data *host.Data, opts Options) *Session {
	if src == nil {
		src = noSource{}
	}
	if data == nil {
		data = host.NewData()
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	files := opts.Files
	if files == nil {
		files = assets.NewManager()
		if doc != nil {
			files.AddRoot(doc.BaseDir)
		}
	}
	id := uuid.New()
	return &Session{
		ID:        id,
		doc:       doc,
		src:       src,
		data:      data,
		opts:      opts,
		log:       log.With(zap.String("session", id.String())),
		files:     files,
		corrected: map[*host.Object]bool{},
	}
}

// Data returns the host database the session writes to.
func (s *Session) Data() *host.Data {
	return s.data
}

// Stage returns the current assembly stage.
func (s *Session) Stage() Stage {
	return s.stage
}

func (s *Session) validNode(idx int) bool {
	return idx >= 0 && idx < len(s.nodes)
}

func nodeName(n *gltfdoc.Node, fallback string) string {
	if n.Name != "" {
		return n.Name
	}
	return fallback
}

func copyProps(dst, src map[string]any) {
	for k, v := range src {
		dst[k] = v
	}
}

type noSource struct{}

func (noSource) Mat4s(idx int) ([]math.Mat4, error) {
	return nil, fmt.Errorf("%w: no binary data for accessor %d", gltfdoc.ErrAccessor, idx)
}

func (noSource) Vec3s(idx int) ([]math.Vec3, error) {
	return nil, fmt.Errorf("%w: no binary data for accessor %d", gltfdoc.ErrAccessor, idx)
}

func (noSource) ImageData(idx int) ([]byte, string, error) {
	return nil, "", fmt.Errorf("%w: no binary data for image %d", gltfdoc.ErrImage, idx)
}
