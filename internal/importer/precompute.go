package importer

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/gltfscene/internal/host"
	"github.com/Faultbox/gltfscene/pkg/gltfdoc"
)

// precompute derives per-node, per-skin and per-mesh state before any
// object is created.
func (s *Session) precompute() {
	doc := s.doc
	s.nodes = make([]nodeState, len(doc.Nodes))
	s.skins = make([]skinState, len(doc.Skins))
	s.meshes = make([]meshState, len(doc.Meshes))
	s.images = make([]imageState, len(doc.Images))

	for i := range doc.Nodes {
		s.nodes[i].transform = Resolve(&doc.Nodes[i])
		s.nodes[i].skinID = -1
	}
	for i, n := range doc.Nodes {
		for _, c := range n.Children {
			if !s.validNode(c) {
				s.log.Warn("child index out of range", zap.Int("node", i), zap.Int("child", c))
				continue
			}
			if s.nodes[c].parent == nil {
				p := i
				s.nodes[c].parent = &p
			}
		}
	}

	for i, n := range doc.Nodes {
		if n.Skin == nil || n.Mesh == nil {
			continue
		}
		if doc.SkinAt(*n.Skin) == nil || doc.MeshAt(*n.Mesh) == nil {
			s.log.Warn("skinned mesh node references a missing skin or mesh", zap.Int("node", i))
			continue
		}
		s.skins[*n.Skin].boundMeshNodes = append(s.skins[*n.Skin].boundMeshNodes, i)
	}

	// A node listed by several skins belongs to the first one.
	for si, skin := range doc.Skins {
		s.skins[si].skeleton = -1
		s.skins[si].boneNodes = map[string]int{}
		for _, j := range skin.Joints {
			if !s.validNode(j) {
				s.log.Warn("joint index out of range", zap.Int("skin", si), zap.Int("joint", j))
				continue
			}
			if !s.nodes[j].isJoint {
				s.nodes[j].isJoint = true
				s.nodes[j].skinID = si
			}
		}
	}
	for si := range doc.Skins {
		root := s.skeletonRoot(si)
		if root < 0 {
			continue
		}
		s.skins[si].skeleton = root
		s.nodes[root].isSkeletonRoot = true
		if !s.nodes[root].isJoint {
			s.nodes[root].isJoint = true
			s.nodes[root].skinID = si
		}
	}

	s.dispatchAnimations()

	for mi := range doc.Meshes {
		s.meshes[mi].shapeKeyNames = s.shapeKeyNames(&doc.Meshes[mi])
	}
}

// skeletonRoot returns the declared skeleton of the skin, or the first joint
// whose parent is not a joint of the same skin.
func (s *Session) skeletonRoot(si int) int {
	skin := &s.doc.Skins[si]
	if skin.Skeleton != nil {
		if s.validNode(*skin.Skeleton) {
			return *skin.Skeleton
		}
		s.log.Warn("skeleton index out of range", zap.Int("skin", si), zap.Int("skeleton", *skin.Skeleton))
	}
	for _, j := range skin.Joints {
		if !s.validNode(j) {
			continue
		}
		p := s.nodes[j].parent
		if p == nil || skin.JointIndex(*p) < 0 {
			return j
		}
	}
	return -1
}

// dispatchAnimations gives every animation a unique track name and records,
// per node, which channels target it.
func (s *Session) dispatchAnimations() {
	used := host.NameSet{}
	s.tracks = make([]string, len(s.doc.Animations))
	for ai, anim := range s.doc.Animations {
		desired := anim.Name
		if desired == "" {
			desired = fmt.Sprintf("Anim_%d", ai)
		}
		s.tracks[ai] = used.Claim(desired)

		for ci, ch := range anim.Channels {
			if ch.Node == nil {
				continue
			}
			if !s.validNode(*ch.Node) {
				s.log.Warn("animation channel targets a missing node",
					zap.Int("animation", ai), zap.Int("channel", ci), zap.Int("node", *ch.Node))
				continue
			}
			n := &s.nodes[*ch.Node]
			if n.animations == nil {
				n.animations = map[int][]int{}
			}
			n.animations[ai] = append(n.animations[ai], ci)
			if ch.Path == gltfdoc.PathWeights {
				n.weightAnimation = true
			}
		}
	}
}

// shapeKeyNames names the morph targets of the mesh's first primitive.
// Targets without POSITION get nil.
func (s *Session) shapeKeyNames(mesh *gltfdoc.Mesh) []*string {
	if len(mesh.Primitives) == 0 {
		return nil
	}
	targets := mesh.Primitives[0].Targets
	if len(targets) == 0 {
		return nil
	}

	extras := mesh.TargetNames()
	used := host.NameSet{}
	names := make([]*string, len(targets))
	for i, t := range targets {
		pos, ok := t["POSITION"]
		if !ok {
			continue
		}
		desired := ""
		if i < len(extras) {
			desired = extras[i]
		}
		if desired == "" {
			desired = s.doc.AccessorName(pos)
		}
		if desired == "" {
			desired = fmt.Sprintf("target_%d", i)
		}
		name := used.Claim(desired)
		names[i] = &name
	}
	return names
}
