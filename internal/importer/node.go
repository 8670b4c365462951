package importer

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/gltfscene/internal/host"
	"github.com/Faultbox/gltfscene/pkg/gltfdoc"
)

// materialize creates the host objects for node idx and, depth first, for
// its children. parent is the node whose object the new objects attach to.
func (s *Session) materialize(idx int, parent *int) {
	if !s.validNode(idx) {
		s.log.Error("node index out of range", zap.Int("node", idx), zap.Int("nodes", len(s.nodes)))
		return
	}
	st := &s.nodes[idx]
	if st.visiting {
		s.log.Error("node hierarchy has a cycle", zap.Int("node", idx))
		return
	}
	if st.created {
		s.log.Debug("node already materialized, linking", zap.Int("node", idx))
		s.linkSubtree(idx)
		return
	}
	st.visiting = true
	defer func() { st.visiting = false }()
	st.created = true

	node := &s.doc.Nodes[idx]
	s.nodeCounter++
	s.log.Debug(fmt.Sprintf("Node %d of %d (idx %d)", s.nodeCounter, len(s.nodes), idx))

	handled := false

	if st.isJoint {
		handled = true
		s.log.Info("create bone node", zap.Int("node", idx), zap.String("name", node.Name))
		if s.skins[st.skinID].armature == nil {
			s.createArmature(st.skinID, parent)
		}
		s.createBone(st.skinID, idx, parent)
	}

	if node.Mesh != nil {
		if mesh := s.doc.MeshAt(*node.Mesh); mesh != nil {
			handled = true
			s.createMeshObject(idx, *node.Mesh, parent)
		} else {
			s.log.Warn("node references a missing mesh", zap.Int("node", idx), zap.Int("mesh", *node.Mesh))
		}
	}

	if node.Camera != nil {
		if cam := s.doc.CameraAt(*node.Camera); cam != nil {
			handled = true
			s.createCameraObject(idx, *node.Camera, parent)
		} else {
			s.log.Warn("node references a missing camera", zap.Int("node", idx), zap.Int("camera", *node.Camera))
		}
	}

	if !handled {
		s.log.Info("create empty node", zap.Int("node", idx), zap.String("name", node.Name))
		obj := s.data.NewObject(nodeName(node, "Node"), nil)
		copyProps(obj.Props, node.Extras)
		s.collection.Link(obj)
		obj.SetMatrixWorld(st.transform)
		s.recordObject(idx, obj)
		s.setParent(obj, parent)
	}

	for _, c := range node.Children {
		child := idx
		s.materialize(c, &child)
	}
}

// meshInstance returns the host mesh node idx should use for mesh mi,
// creating a new one unless the shared instance may be reused.
func (s *Session) meshInstance(mi, idx int) *host.Mesh {
	ms := &s.meshes[mi]
	st := &s.nodes[idx]

	var mesh *host.Mesh
	if ms.data != nil && !st.weightAnimation && !ms.weightAnimated {
		mesh = ms.data
	} else {
		mesh = s.createMesh(mi)
		if ms.data == nil {
			ms.data = mesh
		}
	}
	if st.weightAnimation {
		ms.weightAnimated = true
	}
	return mesh
}

func (s *Session) createMeshObject(idx, mi int, parent *int) {
	node := &s.doc.Nodes[idx]
	st := &s.nodes[idx]
	gm := &s.doc.Meshes[mi]
	s.log.Info("create mesh node", zap.Int("node", idx), zap.String("name", node.Name))

	mesh := s.meshInstance(mi, idx)

	name := node.Name
	if name == "" {
		name = gm.Name
	}
	if name == "" {
		name = fmt.Sprintf("Object_%d", idx)
	}
	obj := s.data.NewObject(name, mesh)
	copyProps(obj.Props, node.Extras)
	obj.AnimationTracks = s.trackNames(st)
	s.collection.Link(obj)

	if node.Skin != nil && s.doc.SkinAt(*node.Skin) != nil {
		// Bake the inverse into the geometry so skinning sees bind space,
		// then put the forward transform back.
		obj.SetMatrixWorld(st.transform.Inverse())
		if err := obj.ApplyTransform(); err != nil {
			s.log.Error("apply transform skipped", zap.Int("node", idx), zap.Error(err))
		}
	}
	obj.SetMatrixWorld(st.transform)

	s.recordObject(idx, obj)
	s.setParent(obj, parent)
}

func (s *Session) createMesh(mi int) *host.Mesh {
	gm := &s.doc.Meshes[mi]
	name := gm.Name
	if name == "" {
		name = fmt.Sprintf("Mesh_%d", mi)
	}
	mesh := s.data.NewMesh(name)
	copyProps(mesh.Props, gm.Extras)

	for pi, prim := range gm.Primitives {
		pos, ok := prim.Attributes["POSITION"]
		if !ok {
			continue
		}
		verts, err := s.src.Vec3s(pos)
		if err != nil {
			s.log.Error("read positions", zap.Int("mesh", mi), zap.Int("primitive", pi), zap.Error(err))
			continue
		}
		mesh.Vertices = append(mesh.Vertices, verts...)
	}

	names := s.meshes[mi].shapeKeyNames
	for _, n := range names {
		if n == nil {
			continue
		}
		if len(mesh.ShapeKeys) == 0 {
			mesh.ShapeKeys = append(mesh.ShapeKeys, "Basis")
		}
		mesh.ShapeKeys = append(mesh.ShapeKeys, *n)
	}
	return mesh
}

func (s *Session) createCameraObject(idx, ci int, parent *int) {
	node := &s.doc.Nodes[idx]
	st := &s.nodes[idx]
	gc := s.doc.CameraAt(ci)
	s.log.Info("create camera node", zap.Int("node", idx), zap.String("name", node.Name))

	dataName := gc.Name
	if dataName == "" {
		dataName = "Camera"
	}
	cam := s.data.NewCamera(dataName)
	switch gc.Type {
	case gltfdoc.CameraOrthographic:
		cam.Type = host.CameraOrthographic
		cam.OrthoScale = max(gc.XMag, gc.YMag) * 2
		cam.ClipStart = gc.ZNear
		cam.ClipEnd = gc.ZFar
	default:
		cam.Type = host.CameraPerspective
		cam.SensorFit = "VERTICAL"
		cam.AngleY = gc.YFov
		cam.ClipStart = gc.ZNear
		cam.ClipEnd = gc.ZFar
		if cam.ClipEnd == 0 {
			cam.ClipEnd = 1000
		}
	}

	name := node.Name
	if name == "" {
		name = gc.Name
	}
	if name == "" {
		name = fmt.Sprintf("Camera_%d", idx)
	}
	obj := s.data.NewObject(name, cam)
	copyProps(obj.Props, node.Extras)
	s.collection.Link(obj)
	obj.SetMatrixWorld(st.transform)

	s.recordObject(idx, obj)
	s.setParent(obj, parent)
}

// recordObject stores obj as the node's object unless one is already set.
// A node with both a mesh and a camera keeps its mesh object.
func (s *Session) recordObject(idx int, obj *host.Object) {
	if s.nodes[idx].object == nil {
		s.nodes[idx].object = obj
	}
}

// setParent attaches obj to parent's object with plain object parenting.
func (s *Session) setParent(obj *host.Object, parent *int) {
	if parent == nil {
		return
	}
	if s.validNode(*parent) {
		if p := s.nodes[*parent].object; p != nil {
			if err := obj.SetParent(p); err != nil {
				s.log.Error("set parent", zap.String("object", obj.Name), zap.Error(err))
			}
			return
		}
	}
	s.log.Error("parent not found", zap.String("object", obj.Name), zap.Int("parent", *parent))
}

func (s *Session) trackNames(st *nodeState) []string {
	if len(st.animations) == 0 {
		return nil
	}
	var out []string
	for ai := range s.tracks {
		if _, ok := st.animations[ai]; ok {
			out = append(out, s.tracks[ai])
		}
	}
	return out
}

// linkSubtree links the objects already made for idx and its descendants
// into the current collection.
func (s *Session) linkSubtree(idx int) {
	seen := map[int]bool{}
	var walk func(int)
	walk = func(i int) {
		if !s.validNode(i) || seen[i] {
			return
		}
		seen[i] = true
		st := &s.nodes[i]
		if st.object != nil {
			s.collection.Link(st.object)
		}
		if st.armature != nil {
			s.collection.Link(st.armature)
		}
		for _, c := range s.doc.Nodes[i].Children {
			walk(c)
		}
	}
	walk(idx)
}
