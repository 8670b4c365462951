package importer

import (
	"go.uber.org/zap"

	"github.com/Faultbox/gltfscene/internal/host"
	"github.com/Faultbox/gltfscene/pkg/math"
)

// boneChainThreshold is the distance, in armature units, under which a
// child head counts as lying on its parent bone's axis.
const boneChainThreshold = 0.001

// sceneRoots returns the root nodes of glTF scene idx, or of the implicit
// scene when idx is negative.
func (s *Session) sceneRoots(idx int) []int {
	if idx >= 0 {
		return s.doc.Scenes[idx].Nodes
	}
	if len(s.nodes) == 0 {
		return nil
	}
	var roots []int
	for i := range s.nodes {
		if s.nodes[i].parent == nil {
			roots = append(roots, i)
		}
	}
	return roots
}

// beginScene selects or creates the host scene for glTF scene idx and the
// collection new objects go to.
func (s *Session) beginScene(idx int) *sceneRun {
	name := DefaultSceneName
	if idx >= 0 && s.doc.Scenes[idx].Name != "" {
		name = s.doc.Scenes[idx].Name
	}
	scene := s.data.SceneByNameOrNew(name)
	s.collection = scene.Collection
	if s.opts.ActiveCollection != "" {
		s.collection = scene.Collection.Child(s.opts.ActiveCollection)
	}
	s.runs = append(s.runs, sceneRun{scene: scene, collection: s.collection, roots: s.sceneRoots(idx)})
	s.log.Info("instantiate scene", zap.String("scene", scene.Name), zap.Int("roots", len(s.runs[len(s.runs)-1].roots)))
	return &s.runs[len(s.runs)-1]
}

// correctBoneChains extends parent bones to meet children lying on their axis.
// Parenting is never changed.
func (s *Session) correctBoneChains() {
	for si := range s.skins {
		armObj := s.skins[si].armature
		if armObj == nil {
			continue
		}
		for _, bone := range armObj.Armature.Bones {
			correctBoneChain(bone)
		}
	}
}

func correctBoneChain(bone *host.Bone) {
	parent := bone.Parent
	if parent == nil {
		return
	}
	// Coincident heads are siblings of a fork, not a chain.
	if bone.Head.Distance(parent.Head) < boneChainThreshold {
		return
	}
	u := parent.Direction()
	if u == (math.Vec3{}) {
		return
	}
	distance := bone.Head.Sub(parent.Head).Cross(u).Length()
	if distance >= boneChainThreshold {
		return
	}

	oldDir := u
	oldTail := parent.Tail
	oldMatrix := parent.Matrix
	parent.SetTail(bone.Head)
	if parent.Direction().Dot(oldDir) < 0.9 {
		parent.Tail = oldTail
		parent.Matrix = oldMatrix
	}
}

// correctRotation moves every top-level object from Y-up to Z-up by
// parenting it under a temporary rotated empty and flattening the relation.
// Objects that already have a parent, or were corrected by an earlier
// scene, are left alone.
func (s *Session) correctRotation() {
	var targets []*host.Object
	add := func(obj *host.Object) {
		if obj == nil || obj.Parent != nil || s.corrected[obj] {
			return
		}
		for _, t := range targets {
			if t == obj {
				return
			}
		}
		targets = append(targets, obj)
	}

	for _, run := range s.runs {
		for _, r := range run.roots {
			if !s.validNode(r) {
				continue
			}
			st := &s.nodes[r]
			if st.isJoint {
				if st.armature == nil || st.armature.Parent != nil {
					s.log.Debug("root armature already parented, not corrected", zap.Int("node", r))
					continue
				}
				add(st.armature)
			}
			add(st.object)
		}
	}
	if len(targets) == 0 {
		return
	}

	corr := s.data.NewObject("Yup2Zup", nil)
	corr.Rotation = quatToHost(yUpToZUp)
	if len(s.runs) > 0 {
		s.runs[0].collection.Link(corr)
	}

	for _, obj := range targets {
		if err := obj.SetParent(corr); err != nil {
			s.log.Error("parent to correction", zap.String("object", obj.Name), zap.Error(err))
			continue
		}
	}
	for _, obj := range targets {
		if obj.Parent != corr {
			continue
		}
		obj.ClearParentKeepTransform()
		s.corrected[obj] = true
	}
	s.data.RemoveObject(corr)
}

// finalizeVertexBinding runs the vertex group pass, then the modifier pass,
// for every skin in order, then attaches joint objects to their bones.
func (s *Session) finalizeVertexBinding() {
	for si := range s.skins {
		if len(s.skins[si].boundMeshNodes) > 0 {
			s.createVertexGroups(si)
		}
	}
	for si := range s.skins {
		if len(s.skins[si].boundMeshNodes) > 0 {
			s.createArmatureModifiers(si)
		}
	}
	s.parentJointObjects()
}

// selectActive focuses the first root of the default scene: its object, or
// its armature when the root is a bare joint.
func (s *Session) selectActive() *host.Object {
	if len(s.runs) == 0 {
		return nil
	}
	run := s.runs[0]
	if s.doc.Scene != nil && *s.doc.Scene >= 0 && *s.doc.Scene < len(s.runs) {
		run = s.runs[*s.doc.Scene]
	}
	if len(run.roots) == 0 || !s.validNode(run.roots[0]) {
		return nil
	}
	st := &s.nodes[run.roots[0]]
	obj := st.object
	if obj == nil {
		obj = st.armature
	}
	if obj != nil {
		s.data.SetActive(obj)
	}
	return obj
}
