package host

import "github.com/Faultbox/gltfscene/pkg/math"

// Armature display types.
const (
	DisplayOctahedral = "OCTAHEDRAL"
	DisplayStick      = "STICK"
)

// Armature is a skeleton: an ordered set of bones in armature space.
type Armature struct {
	Name        string
	DisplayType string
	Bones       []*Bone

	boneNames NameSet
}

// NewBone adds a bone with a unique name. It starts at the origin pointing
// one unit along +Y.
func (a *Armature) NewBone(name string) *Bone {
	if a.boneNames == nil {
		a.boneNames = NameSet{}
	}
	b := &Bone{
		Name:   a.boneNames.Claim(name),
		Tail:   math.Vec3{Y: 1},
		Matrix: math.Identity(),
		Props:  map[string]any{},
	}
	a.Bones = append(a.Bones, b)
	return b
}

// Bone returns the bone called name, or nil.
func (a *Armature) Bone(name string) *Bone {
	for _, b := range a.Bones {
		if b.Name == name {
			return b
		}
	}
	return nil
}

// Roots returns the bones without a parent, in creation order.
func (a *Armature) Roots() []*Bone {
	var out []*Bone
	for _, b := range a.Bones {
		if b.Parent == nil {
			out = append(out, b)
		}
	}
	return out
}

// Bone is a rest-pose bone. Matrix is its armature-space frame: translation
// at Head, Y axis toward Tail, no scale.
type Bone struct {
	Name   string
	Head   math.Vec3
	Tail   math.Vec3
	Matrix math.Mat4
	Parent *Bone
	Props  map[string]any
}

// Length is the head to tail distance.
func (b *Bone) Length() float32 {
	return b.Head.Distance(b.Tail)
}

// Direction is the unit vector from head to tail.
func (b *Bone) Direction() math.Vec3 {
	return b.Tail.Sub(b.Head).Normalize()
}

// SetMatrix places the bone at m's translation and orientation, keeping its length.
// Scale in m is discarded.
func (b *Bone) SetMatrix(m math.Mat4) {
	length := b.Length()
	rot := m.Rotation()
	b.Head = m.Translation()
	b.Matrix = math.Compose(b.Head, rot, math.Vec3{X: 1, Y: 1, Z: 1})
	b.Tail = b.Head.Add(b.Matrix.Column(1).Scale(length))
}

// SetTail moves the tail and turns the bone frame to follow it.
// A tail on top of the head only updates the tail.
func (b *Bone) SetTail(t math.Vec3) {
	oldDir := b.Direction()
	b.Tail = t
	newDir := b.Direction()
	if newDir == (math.Vec3{}) || oldDir == (math.Vec3{}) {
		return
	}
	rot := math.QuatBetween(oldDir, newDir).Mul(b.Matrix.Rotation())
	b.Matrix = math.Compose(b.Head, rot, math.Vec3{X: 1, Y: 1, Z: 1})
}
