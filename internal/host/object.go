package host

import (
	"errors"
	"fmt"

	"github.com/Faultbox/gltfscene/pkg/math"
)

// Object errors.
var (
	ErrParentCycle = errors.New("parenting would create a cycle")
	ErrSharedData  = errors.New("cannot apply transform to multi-user data")
	ErrNoMeshData  = errors.New("object has no mesh data")
	ErrNoBone      = errors.New("bone not found")
)

// ObjectType is the kind of data an object instantiates.
type ObjectType int

const (
	ObjectEmpty ObjectType = iota
	ObjectMesh
	ObjectCamera
	ObjectArmature
)

// String returns the host's identifier for the type.
func (t ObjectType) String() string {
	switch t {
	case ObjectEmpty:
		return "EMPTY"
	case ObjectMesh:
		return "MESH"
	case ObjectCamera:
		return "CAMERA"
	case ObjectArmature:
		return "ARMATURE"
	default:
		return fmt.Sprintf("ObjectType(%d)", int(t))
	}
}

// ParentType selects what an object is parented to.
type ParentType int

const (
	ParentObject ParentType = iota
	ParentBone
)

// Quaternion is the host's rotation, stored scalar first.
type Quaternion struct {
	W, X, Y, Z float32
}

// QuaternionFrom converts an (x, y, z, w) rotation.
func QuaternionFrom(q math.Quat) Quaternion {
	return Quaternion{W: q.W, X: q.X, Y: q.Y, Z: q.Z}
}

// Quat converts back to (x, y, z, w).
func (q Quaternion) Quat() math.Quat {
	return math.Quat{X: q.X, Y: q.Y, Z: q.Z, W: q.W}
}

// Object is a placed instance of some data in the scene.
type Object struct {
	Name     string
	Type     ObjectType
	Mesh     *Mesh
	Camera   *Camera
	Armature *Armature

	Parent              *Object
	ParentType          ParentType
	ParentBone          string
	MatrixParentInverse math.Mat4

	Location math.Vec3
	Rotation Quaternion
	Scale    math.Vec3

	VertexGroups []*VertexGroup
	Modifiers    []*Modifier

	// Pose holds per-bone pose channels; armature objects only.
	Pose map[string]*PoseBone

	// AnimationTracks lists the animations targeting this object, by track name.
	AnimationTracks []string

	Props map[string]any
}

func newObject(name string) *Object {
	return &Object{
		Name:                name,
		MatrixParentInverse: math.Identity(),
		Rotation:            Quaternion{W: 1},
		Scale:               math.Vec3{X: 1, Y: 1, Z: 1},
		Props:               map[string]any{},
	}
}

// MatrixBasis is the object's own transform, before parenting.
func (o *Object) MatrixBasis() math.Mat4 {
	return math.Compose(o.Location, o.Rotation.Quat(), o.Scale)
}

// SetMatrixBasis decomposes m into location, rotation and scale.
func (o *Object) SetMatrixBasis(m math.Mat4) {
	loc, rot, scl := m.Decompose()
	o.Location = loc
	o.Rotation = QuaternionFrom(rot)
	o.Scale = scl
}

// MatrixWorld is the object's transform in scene space.
func (o *Object) MatrixWorld() math.Mat4 {
	return o.parentMatrix().Mul(o.MatrixBasis())
}

// SetMatrixWorld sets the basis so that MatrixWorld returns m.
func (o *Object) SetMatrixWorld(m math.Mat4) {
	o.SetMatrixBasis(o.parentMatrix().Inverse().Mul(m))
}

func (o *Object) parentMatrix() math.Mat4 {
	if o.Parent == nil {
		return math.Identity()
	}
	return o.parentFrame().Mul(o.MatrixParentInverse)
}

// parentFrame is the parent's world matrix, or the posed bone tail frame
// for bone parenting.
func (o *Object) parentFrame() math.Mat4 {
	frame := o.Parent.MatrixWorld()
	if o.ParentType != ParentBone || o.Parent.Armature == nil {
		return frame
	}
	bone := o.Parent.Armature.Bone(o.ParentBone)
	if bone == nil {
		return frame
	}
	return frame.Mul(o.Parent.PoseMatrix(bone)).Mul(math.Translate(0, bone.Length(), 0))
}

func (o *Object) checkParent(p *Object) error {
	for cur := p; cur != nil; cur = cur.Parent {
		if cur == o {
			return fmt.Errorf("%w: %s under %s", ErrParentCycle, o.Name, p.Name)
		}
	}
	return nil
}

// SetParent parents o to p without compensation, so the basis becomes
// relative to p. A nil p clears the parent the same way.
func (o *Object) SetParent(p *Object) error {
	if err := o.checkParent(p); err != nil {
		return err
	}
	o.Parent = p
	o.ParentType = ParentObject
	o.ParentBone = ""
	return nil
}

// SetParentKeepTransform parents o to p and records p's inverse world
// matrix so o's world transform is unchanged.
func (o *Object) SetParentKeepTransform(p *Object) error {
	if err := o.checkParent(p); err != nil {
		return err
	}
	world := o.MatrixWorld()
	o.Parent = p
	o.ParentType = ParentObject
	o.ParentBone = ""
	o.MatrixParentInverse = p.MatrixWorld().Inverse()
	o.SetMatrixBasis(world)
	return nil
}

// SetParentBoneKeepTransform parents o to bone of armature object arm,
// keeping o's world transform.
func (o *Object) SetParentBoneKeepTransform(arm *Object, bone string) error {
	if arm.Armature == nil || arm.Armature.Bone(bone) == nil {
		return fmt.Errorf("%w: %q", ErrNoBone, bone)
	}
	if err := o.checkParent(arm); err != nil {
		return err
	}
	world := o.MatrixWorld()
	o.Parent = arm
	o.ParentType = ParentBone
	o.ParentBone = bone
	o.MatrixParentInverse = o.parentFrame().Inverse()
	o.SetMatrixBasis(world)
	return nil
}

// ClearParentKeepTransform unparents o, baking the world transform into the basis.
func (o *Object) ClearParentKeepTransform() {
	world := o.MatrixWorld()
	o.Parent = nil
	o.ParentType = ParentObject
	o.ParentBone = ""
	o.MatrixParentInverse = math.Identity()
	o.SetMatrixBasis(world)
}

// ApplyTransform bakes the basis into the mesh vertices and resets the
// basis to identity. Mesh data shared with other objects is refused.
func (o *Object) ApplyTransform() error {
	if o.Mesh == nil {
		return ErrNoMeshData
	}
	if o.Mesh.Users() > 1 {
		return fmt.Errorf("%w: %s has %d users", ErrSharedData, o.Mesh.Name, o.Mesh.Users())
	}
	o.Mesh.Transform(o.MatrixBasis())
	o.SetMatrixBasis(math.Identity())
	return nil
}

// VertexGroup is a named weight set.
type VertexGroup struct {
	Name  string
	Index int
}

// NewVertexGroup adds a vertex group, making the name unique on this object.
func (o *Object) NewVertexGroup(name string) *VertexGroup {
	vg := &VertexGroup{
		Name:  UniqueName(name, func(n string) bool { return o.VertexGroup(n) != nil }),
		Index: len(o.VertexGroups),
	}
	o.VertexGroups = append(o.VertexGroups, vg)
	return vg
}

// VertexGroup returns the group called name, or nil.
func (o *Object) VertexGroup(name string) *VertexGroup {
	for _, vg := range o.VertexGroups {
		if vg.Name == name {
			return vg
		}
	}
	return nil
}

// ModifierType identifies a modifier.
type ModifierType string

// ModifierArmature deforms a mesh by an armature's bones.
const ModifierArmature ModifierType = "ARMATURE"

// Modifier is a procedural operation on object data.
type Modifier struct {
	Name   string
	Type   ModifierType
	Object *Object
}

// NewModifier appends a modifier, making the name unique on this object.
func (o *Object) NewModifier(name string, typ ModifierType) *Modifier {
	taken := func(n string) bool {
		for _, m := range o.Modifiers {
			if m.Name == n {
				return true
			}
		}
		return false
	}
	m := &Modifier{Name: UniqueName(name, taken), Type: typ}
	o.Modifiers = append(o.Modifiers, m)
	return m
}

// PoseBone holds a bone's pose channels relative to its rest matrix.
type PoseBone struct {
	Name     string
	Location math.Vec3
	Rotation Quaternion
	Scale    math.Vec3
	Props    map[string]any
}

// MatrixBasis is the pose channel transform.
func (pb *PoseBone) MatrixBasis() math.Mat4 {
	return math.Compose(pb.Location, pb.Rotation.Quat(), pb.Scale)
}

// PoseBone returns the pose channel of the named bone, creating it on first
// use. It returns nil for non-armature objects and unknown bones.
func (o *Object) PoseBone(name string) *PoseBone {
	if o.Armature == nil || o.Armature.Bone(name) == nil {
		return nil
	}
	if o.Pose == nil {
		o.Pose = map[string]*PoseBone{}
	}
	pb, ok := o.Pose[name]
	if !ok {
		pb = &PoseBone{
			Name:     name,
			Rotation: Quaternion{W: 1},
			Scale:    math.Vec3{X: 1, Y: 1, Z: 1},
			Props:    map[string]any{},
		}
		o.Pose[name] = pb
	}
	return pb
}

// PoseMatrix returns the posed armature-space matrix of bone.
func (o *Object) PoseMatrix(bone *Bone) math.Mat4 {
	m := bone.Matrix
	if bone.Parent != nil {
		m = o.PoseMatrix(bone.Parent).Mul(bone.Parent.Matrix.Inverse()).Mul(bone.Matrix)
	}
	if pb := o.Pose[bone.Name]; pb != nil {
		m = m.Mul(pb.MatrixBasis())
	}
	return m
}
