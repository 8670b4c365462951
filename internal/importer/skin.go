package importer

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/gltfscene/internal/host"
	"github.com/Faultbox/gltfscene/pkg/math"
)

// createArmature makes the armature object for skin si and parents it to
// the parent node's object, if any.
func (s *Session) createArmature(si int, parent *int) {
	skin := &s.doc.Skins[si]
	name := skin.Name
	if name == "" {
		name = fmt.Sprintf("Armature_%d", si)
	}
	arm := s.data.NewArmature(name)
	arm.DisplayType = host.DisplayStick
	obj := s.data.NewObject(name, arm)
	s.collection.Link(obj)
	s.skins[si].armature = obj
	s.log.Info("create armature", zap.Int("skin", si), zap.String("name", obj.Name))

	if parent == nil {
		return
	}
	if p := s.nodes[*parent].object; p != nil {
		if err := obj.SetParent(p); err != nil {
			s.log.Error("set armature parent", zap.String("armature", obj.Name), zap.Error(err))
		}
		return
	}
	s.log.Error("armature parent not found", zap.String("armature", obj.Name), zap.Int("parent", *parent))
}

// createBone adds the bone for joint node idx to skin si's armature and
// sets its bind matrix and pose.
func (s *Session) createBone(si, idx int, parent *int) {
	node := &s.doc.Nodes[idx]
	st := &s.nodes[idx]
	armObj := s.skins[si].armature
	arm := armObj.Armature

	bone := arm.NewBone(nodeName(node, fmt.Sprintf("Bone_%d", idx)))
	name := bone.Name
	st.boneName = &name
	st.armature = armObj
	s.skins[si].boneNodes[name] = idx

	// Bones need a nonzero length; the chain pass fixes it up later.
	sy := armObj.MatrixWorld().ScaleVec().Y
	if sy < 0 {
		sy = -sy
	}
	if sy == 0 {
		sy = 1
	}
	bone.SetTail(math.Vec3{Y: 1 / sy})
	copyProps(bone.Props, node.Extras)

	bind := s.bindMatrix(si, idx)
	st.boneMatrix = &bind
	bone.SetMatrix(bind)

	var parentMat *math.Mat4
	if parent != nil {
		ps := &s.nodes[*parent]
		if ps.boneName != nil {
			if ps.armature == armObj {
				bone.Parent = arm.Bone(*ps.boneName)
			} else {
				s.log.Warn("parent bone belongs to another armature",
					zap.String("bone", name), zap.String("parent", *ps.boneName))
			}
		}
		parentMat = ps.boneMatrix
	}

	pb := armObj.PoseBone(name)
	loc, rot, scl := poseTransform(bind, st.transform, parentMat)
	pb.Location = loc
	pb.Rotation = quatToHost(rot)
	pb.Scale = scl
	copyProps(pb.Props, node.Extras)
}

// bindMatrix is the inverse of the joint's inverse bind matrix, or identity
// when the node is not listed in the skin or no matrix is available.
func (s *Session) bindMatrix(si, idx int) math.Mat4 {
	skin := &s.doc.Skins[si]
	ji := skin.JointIndex(idx)
	if ji < 0 || skin.InverseBindMatrices == nil {
		return math.Identity()
	}

	ss := &s.skins[si]
	if !ss.ibmRead {
		ss.ibmRead = true
		ss.ibms, ss.ibmErr = s.src.Mat4s(*skin.InverseBindMatrices)
		if ss.ibmErr != nil {
			s.log.Error("read inverse bind matrices", zap.Int("skin", si), zap.Error(ss.ibmErr))
		}
	}
	if ss.ibmErr != nil {
		return math.Identity()
	}
	if ji >= len(ss.ibms) {
		s.log.Error("inverse bind matrix missing for joint",
			zap.Int("skin", si), zap.Int("joint", ji), zap.Int("matrices", len(ss.ibms)))
		return math.Identity()
	}
	return ss.ibms[ji].Inverse()
}

// poseTransform computes a bone's pose channels from its bind matrix, its
// local node transform and the parent bone's bind matrix.
func poseTransform(bind, local math.Mat4, parentMat *math.Mat4) (math.Vec3, math.Quat, math.Vec3) {
	bindLoc := bind.Translation()
	bindRot := bind.Rotation()
	bindScale := bind.ScaleVec()
	loc, rot, scl := local.Decompose()

	if parentMat != nil {
		armSpace := math.TranslateVec3(bindLoc.Scale(-1)).Mul(*parentMat).Mul(math.TranslateVec3(loc)).Translation()
		poseLoc := bindRot.Inverse().Rotate(armSpace)
		poseRot := bind.Inverse().Mul(*parentMat).Mul(local).Rotation()
		inv := math.Vec3{X: 1, Y: 1, Z: 1}.DivSafe(bindScale)
		poseScale := math.ScaleVec3(inv).Mul(*parentMat).Mul(math.ScaleVec3(scl)).ScaleVec()
		return poseLoc, poseRot, poseScale
	}

	return boneFallbackLocation(bindLoc), bindRot.Inverse().Mul(rot), scl.DivSafe(bindScale)
}

// createVertexGroups adds one vertex group per joint, named after its bone,
// to every mesh object bound to skin si.
func (s *Session) createVertexGroups(si int) {
	skin := &s.doc.Skins[si]
	for _, ni := range s.skins[si].boundMeshNodes {
		obj := s.nodes[ni].object
		if obj == nil {
			s.log.Error("skinned mesh node was not materialized", zap.Int("skin", si), zap.Int("node", ni))
			continue
		}
		for _, j := range skin.Joints {
			if !s.validNode(j) || s.nodes[j].boneName == nil {
				s.log.Error("joint has no bone", zap.Int("skin", si), zap.Int("joint", j))
				continue
			}
			obj.NewVertexGroup(*s.nodes[j].boneName)
		}
	}
}

// createArmatureModifiers reparents every mesh bound to skin si under its
// armature and adds an armature modifier.
func (s *Session) createArmatureModifiers(si int) {
	armObj := s.skins[si].armature
	if armObj == nil {
		s.log.Error("skin has no armature, modifiers skipped", zap.Int("skin", si))
		return
	}

	for _, ni := range s.skins[si].boundMeshNodes {
		obj := s.nodes[ni].object
		if obj == nil {
			continue
		}

		for _, root := range armObj.Armature.Roots() {
			bi, ok := s.skins[si].boneNodes[root.Name]
			if !ok || s.nodes[bi].boneMatrix == nil {
				continue
			}
			obj.Location = obj.Location.Add(VectorToNative(s.nodes[bi].boneMatrix.Translation()))
		}

		if err := obj.SetParentKeepTransform(armObj); err != nil {
			s.log.Error("parent skinned mesh to armature", zap.String("object", obj.Name), zap.Error(err))
			continue
		}
		mod := obj.NewModifier("Armature", host.ModifierArmature)
		mod.Object = armObj
	}
}

// parentJointObjects attaches objects made for joint nodes to their own
// bone, keeping their world transform.
func (s *Session) parentJointObjects() {
	for i := range s.nodes {
		st := &s.nodes[i]
		if !st.isJoint || st.object == nil || st.armature == nil || st.boneName == nil {
			continue
		}
		if err := st.object.SetParentBoneKeepTransform(st.armature, *st.boneName); err != nil {
			s.log.Error("parent joint object to bone", zap.String("object", st.object.Name), zap.Error(err))
		}
	}
}
