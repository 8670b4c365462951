package importer

import (
	"context"
	"slices"
	"testing"

	"github.com/Faultbox/gltfscene/internal/host"
	"github.com/Faultbox/gltfscene/pkg/gltfdoc"
	"github.com/Faultbox/gltfscene/pkg/math"
)

func TestMeshInstancing(t *testing.T) {
	mesh := gltfdoc.Mesh{Name: "box", Primitives: []gltfdoc.Primitive{{Attributes: map[string]int{"POSITION": 0}}}}
	src := &fakeSource{vecs: map[int][]math.Vec3{0: {{X: 1}}}}

	tests := []struct {
		name       string
		animations []gltfdoc.Animation
		wantMeshes int
	}{
		{"shared", nil, 1},
		{
			"weight animated",
			[]gltfdoc.Animation{{Channels: []gltfdoc.Channel{{Node: gltfdoc.Ptr(1), Path: gltfdoc.PathWeights}}}},
			2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := &gltfdoc.Document{
				Nodes: []gltfdoc.Node{
					{Index: 0, Name: "a", Mesh: gltfdoc.Ptr(0)},
					{Index: 1, Name: "b", Mesh: gltfdoc.Ptr(0)},
				},
				Meshes:     []gltfdoc.Mesh{mesh},
				Animations: tt.animations,
				Scenes:     []gltfdoc.Scene{{Nodes: []int{0, 1}}},
			}
			data := host.NewData()

			if _, err := Import(context.Background(), doc, src, data, Options{}); err != nil {
				t.Fatalf("Import() error = %v", err)
			}

			if len(data.Meshes) != tt.wantMeshes {
				t.Fatalf("meshes = %d, want %d", len(data.Meshes), tt.wantMeshes)
			}
			if tt.wantMeshes == 1 && data.Meshes[0].Users() != 2 {
				t.Errorf("shared mesh users = %d, want 2", data.Meshes[0].Users())
			}
		})
	}
}

func TestMaterializeKinds(t *testing.T) {
	doc := &gltfdoc.Document{
		Nodes: []gltfdoc.Node{
			{Index: 0, Children: []int{1, 2, 3}},
			{Index: 1, Camera: gltfdoc.Ptr(0)},
			{Index: 2, Name: "ortho", Camera: gltfdoc.Ptr(1)},
			{Index: 3, Name: "both", Mesh: gltfdoc.Ptr(0), Camera: gltfdoc.Ptr(0)},
		},
		Meshes: []gltfdoc.Mesh{{}},
		Cameras: []gltfdoc.Camera{
			{Name: "lens", Type: gltfdoc.CameraPerspective, YFov: 0.8, ZNear: 0.1},
			{Type: gltfdoc.CameraOrthographic, XMag: 2, YMag: 3, ZNear: 0.5, ZFar: 50},
		},
		Scenes: []gltfdoc.Scene{{Nodes: []int{0}}},
	}
	s, _ := newTestSession(t, doc, nil, Options{SkipYUpCorrection: true})

	if _, err := s.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	root := s.nodes[0].object
	if root == nil || root.Name != "Node" || root.Type != host.ObjectEmpty {
		t.Fatalf("root = %+v, want empty named Node", root)
	}

	persp := s.nodes[1].object
	if persp == nil {
		t.Fatal("perspective camera node has no object")
	}
	if persp.Name != "lens" || persp.Parent != root {
		t.Errorf("perspective object = %q under %v", persp.Name, persp.Parent)
	}
	cam := persp.Camera
	if cam.Type != host.CameraPerspective || cam.SensorFit != "VERTICAL" || cam.AngleY != 0.8 || cam.ClipEnd != 1000 {
		t.Errorf("perspective camera = %+v", cam)
	}

	ortho := s.nodes[2].object
	if ortho == nil {
		t.Fatal("orthographic camera node has no object")
	}
	if c := ortho.Camera; c.Type != host.CameraOrthographic || c.OrthoScale != 6 || c.ClipEnd != 50 {
		t.Errorf("orthographic camera = %+v", c)
	}

	both := s.nodes[3].object
	if both == nil || both.Type != host.ObjectMesh {
		t.Errorf("mesh and camera node: object = %+v, want the mesh object", both)
	}
	if n := len(objectsOfType(s.Data(), host.ObjectCamera)); n != 3 {
		t.Errorf("camera objects = %d, want 3", n)
	}
}

func TestMaterializeHierarchy(t *testing.T) {
	doc := &gltfdoc.Document{
		Nodes: []gltfdoc.Node{
			{Index: 0, Name: "root", Translation: &math.Vec3{X: 1}, Children: []int{1}},
			{Index: 1, Name: "child", Translation: &math.Vec3{X: 2}, Extras: map[string]any{"tag": "x"}},
		},
		Scenes: []gltfdoc.Scene{{Nodes: []int{0}}},
	}
	s, _ := newTestSession(t, doc, nil, Options{SkipYUpCorrection: true})

	if _, err := s.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	child := s.nodes[1].object
	if child == nil || child.Parent != s.nodes[0].object {
		t.Fatalf("child = %+v, want parented to root", child)
	}
	if child.Props["tag"] != "x" {
		t.Errorf("child props = %v", child.Props)
	}
	// Plain parenting composes the local transform with the parent.
	if got := child.MatrixWorld().Translation(); !got.ApproxEqual(math.Vec3{X: 3}, tol) {
		t.Errorf("child world = %v, want (3, 0, 0)", got)
	}
}

func TestMaterializeCycle(t *testing.T) {
	doc := &gltfdoc.Document{
		Nodes: []gltfdoc.Node{
			{Index: 0, Children: []int{1}},
			{Index: 1, Children: []int{0}},
		},
		Scenes: []gltfdoc.Scene{{Nodes: []int{0}}},
	}
	s, logs := newTestSession(t, doc, nil, Options{})

	if _, err := s.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if n := len(s.Data().Objects); n != 2 {
		t.Errorf("objects = %d, want 2", n)
	}
	if n := logs.FilterMessage("node hierarchy has a cycle").Len(); n != 1 {
		t.Errorf("cycle errors = %d, want 1", n)
	}
}

func TestMaterializeBadReferences(t *testing.T) {
	doc := &gltfdoc.Document{
		Nodes: []gltfdoc.Node{
			{Index: 0, Mesh: gltfdoc.Ptr(4), Children: []int{9}},
		},
		Scenes: []gltfdoc.Scene{{Nodes: []int{0, 3}}},
	}
	s, logs := newTestSession(t, doc, nil, Options{})

	if _, err := s.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if obj := s.nodes[0].object; obj == nil || obj.Type != host.ObjectEmpty {
		t.Errorf("node 0 object = %+v, want empty", obj)
	}
	if n := logs.FilterMessage("node references a missing mesh").Len(); n != 1 {
		t.Errorf("missing mesh warnings = %d, want 1", n)
	}
	if n := logs.FilterMessage("node index out of range").Len(); n != 2 {
		t.Errorf("out of range warnings = %d, want 2", n)
	}
}

func TestMissingParentLogged(t *testing.T) {
	doc := &gltfdoc.Document{
		Nodes:  []gltfdoc.Node{{Index: 0}, {Index: 1}},
		Scenes: []gltfdoc.Scene{{Nodes: []int{0}}},
	}
	s, logs := newTestSession(t, doc, nil, Options{})
	s.precompute()
	s.beginScene(0)

	parent := 1
	s.materialize(0, &parent)

	obj := s.nodes[0].object
	if obj == nil || obj.Parent != nil {
		t.Fatalf("node 0 object = %+v, want unparented", obj)
	}
	if n := logs.FilterMessage("parent not found").Len(); n != 1 {
		t.Errorf("parent not found errors = %d, want 1", n)
	}
}

func TestSkinnedMeshBakesBindSpace(t *testing.T) {
	doc := &gltfdoc.Document{
		Nodes: []gltfdoc.Node{
			{Index: 0, Translation: &math.Vec3{X: 2}, Mesh: gltfdoc.Ptr(0), Skin: gltfdoc.Ptr(0)},
			{Index: 1, Name: "bone"},
		},
		Meshes: []gltfdoc.Mesh{{Primitives: []gltfdoc.Primitive{{Attributes: map[string]int{"POSITION": 0}}}}},
		Skins:  []gltfdoc.Skin{{Joints: []int{1}}},
		Scenes: []gltfdoc.Scene{{Nodes: []int{0}}},
	}
	src := &fakeSource{vecs: map[int][]math.Vec3{0: {{X: 1}}}}
	s, _ := newTestSession(t, doc, src, Options{SkipYUpCorrection: true})

	s.precompute()
	s.beginScene(0)
	s.materialize(0, nil)

	obj := s.nodes[0].object
	if obj == nil {
		t.Fatal("skinned node has no object")
	}
	if v := obj.Mesh.Vertices[0]; !v.ApproxEqual(math.Vec3{X: -1}, tol) {
		t.Errorf("vertex = %v, want (-1, 0, 0)", v)
	}
	if got := obj.MatrixWorld().Translation(); !got.ApproxEqual(math.Vec3{X: 2}, tol) {
		t.Errorf("world location = %v, want (2, 0, 0)", got)
	}
}

func TestShapeKeysAndTracks(t *testing.T) {
	doc := &gltfdoc.Document{
		Nodes: []gltfdoc.Node{{Index: 0, Name: "face", Mesh: gltfdoc.Ptr(0)}},
		Meshes: []gltfdoc.Mesh{{
			Extras: map[string]any{"targetNames": []any{"smile"}},
			Primitives: []gltfdoc.Primitive{{
				Attributes: map[string]int{"POSITION": 0},
				Targets: []map[string]int{
					{"POSITION": 1},
					{"NORMAL": 2},
					{"POSITION": 3},
					{"POSITION": 4},
				},
			}},
		}},
		Accessors: []gltfdoc.Accessor{{}, {}, {}, {Name: "frown"}, {}},
		Animations: []gltfdoc.Animation{
			{Name: "talk", Channels: []gltfdoc.Channel{{Node: gltfdoc.Ptr(0), Path: gltfdoc.PathWeights}}},
			{Name: "talk", Channels: []gltfdoc.Channel{{Node: gltfdoc.Ptr(0), Path: gltfdoc.PathRotation}}},
			{Channels: []gltfdoc.Channel{{Node: gltfdoc.Ptr(5), Path: gltfdoc.PathTranslation}}},
		},
		Scenes: []gltfdoc.Scene{{Nodes: []int{0}}},
	}
	src := &fakeSource{vecs: map[int][]math.Vec3{0: {{}}}}
	s, logs := newTestSession(t, doc, src, Options{})

	if _, err := s.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	obj := s.nodes[0].object
	if obj == nil {
		t.Fatal("face node has no object")
	}
	if want := []string{"Basis", "smile", "frown", "target_3"}; !slices.Equal(obj.Mesh.ShapeKeys, want) {
		t.Errorf("shape keys = %q, want %q", obj.Mesh.ShapeKeys, want)
	}
	if want := []string{"talk", "talk.001"}; !slices.Equal(obj.AnimationTracks, want) {
		t.Errorf("object tracks = %q, want %q", obj.AnimationTracks, want)
	}
	if want := []string{"talk", "talk.001", "Anim_2"}; !slices.Equal(s.tracks, want) {
		t.Errorf("session tracks = %q, want %q", s.tracks, want)
	}
	if !s.nodes[0].weightAnimation {
		t.Error("weight animation not flagged")
	}
	if n := logs.FilterMessage("animation channel targets a missing node").Len(); n != 1 {
		t.Errorf("missing node warnings = %d, want 1", n)
	}
}
