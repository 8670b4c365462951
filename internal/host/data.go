// Package host models the native scene an import populates: data-blocks
// (objects, meshes, armatures, cameras, images), scenes with their
// collections, parenting, bones, vertex groups and modifiers.
package host

import "slices"

// Data owns every data-block. Names are unique per block kind.
type Data struct {
	Objects   []*Object
	Meshes    []*Mesh
	Armatures []*Armature
	Cameras   []*Camera
	Images    []*Image
	Scenes    []*Scene

	// Active is the focused object, if any.
	Active *Object

	objectNames   NameSet
	meshNames     NameSet
	armatureNames NameSet
	cameraNames   NameSet
	imageNames    NameSet
	sceneNames    NameSet
}

// NewData returns an empty host database.
func NewData() *Data {
	return &Data{
		objectNames:   NameSet{},
		meshNames:     NameSet{},
		armatureNames: NameSet{},
		cameraNames:   NameSet{},
		imageNames:    NameSet{},
		sceneNames:    NameSet{},
	}
}

// NewObject creates an object named after name (made unique) that uses data.
// data may be nil (an empty), *Mesh, *Camera or *Armature.
func (d *Data) NewObject(name string, data any) *Object {
	obj := newObject(d.objectNames.Claim(name))
	switch v := data.(type) {
	case *Mesh:
		obj.Type = ObjectMesh
		obj.Mesh = v
		v.users++
	case *Camera:
		obj.Type = ObjectCamera
		obj.Camera = v
	case *Armature:
		obj.Type = ObjectArmature
		obj.Armature = v
		obj.Pose = map[string]*PoseBone{}
	}
	d.Objects = append(d.Objects, obj)
	return obj
}

// Object returns the object with the given name, or nil.
func (d *Data) Object(name string) *Object {
	for _, o := range d.Objects {
		if o.Name == name {
			return o
		}
	}
	return nil
}

// RemoveObject deletes obj, unlinking it from every scene. Its children lose
// their parent; their basis is left untouched.
func (d *Data) RemoveObject(obj *Object) {
	idx := slices.Index(d.Objects, obj)
	if idx < 0 {
		return
	}
	d.Objects = slices.Delete(d.Objects, idx, idx+1)
	delete(d.objectNames, obj.Name)

	for _, o := range d.Objects {
		if o.Parent == obj {
			o.Parent = nil
			o.ParentType = ParentObject
			o.ParentBone = ""
		}
	}
	for _, s := range d.Scenes {
		s.Collection.unlinkAll(obj)
	}
	if obj.Mesh != nil {
		obj.Mesh.users--
	}
	if d.Active == obj {
		d.Active = nil
	}
}

// NewMesh creates mesh data.
func (d *Data) NewMesh(name string) *Mesh {
	m := &Mesh{Name: d.meshNames.Claim(name), Props: map[string]any{}}
	d.Meshes = append(d.Meshes, m)
	return m
}

// NewArmature creates armature data with the default display type.
func (d *Data) NewArmature(name string) *Armature {
	a := &Armature{
		Name:        d.armatureNames.Claim(name),
		DisplayType: DisplayOctahedral,
		boneNames:   NameSet{},
	}
	d.Armatures = append(d.Armatures, a)
	return a
}

// NewCamera creates camera data.
func (d *Data) NewCamera(name string) *Camera {
	c := &Camera{Name: d.cameraNames.Claim(name), Type: CameraPerspective}
	d.Cameras = append(d.Cameras, c)
	return c
}

// NewImage creates an image data-block.
func (d *Data) NewImage(name string) *Image {
	img := &Image{Name: d.imageNames.Claim(name), Props: map[string]any{}}
	d.Images = append(d.Images, img)
	return img
}

// ImageByFilepath returns the first image loaded from path, or nil.
func (d *Data) ImageByFilepath(path string) *Image {
	for _, img := range d.Images {
		if img.Filepath != "" && img.Filepath == path {
			return img
		}
	}
	return nil
}

// ImageByProp returns the first image whose custom property key equals value.
func (d *Data) ImageByProp(key string, value any) *Image {
	for _, img := range d.Images {
		if v, ok := img.Props[key]; ok && v == value {
			return img
		}
	}
	return nil
}

// NewScene creates a scene with its own master collection.
func (d *Data) NewScene(name string) *Scene {
	name = d.sceneNames.Claim(name)
	s := &Scene{Name: name, Collection: &Collection{Name: name}}
	d.Scenes = append(d.Scenes, s)
	return s
}

// Scene returns the scene with the given name, or nil.
func (d *Data) Scene(name string) *Scene {
	for _, s := range d.Scenes {
		if s.Name == name {
			return s
		}
	}
	return nil
}

// SceneByNameOrNew returns the scene called name, creating it when missing.
func (d *Data) SceneByNameOrNew(name string) *Scene {
	if s := d.Scene(name); s != nil {
		return s
	}
	return d.NewScene(name)
}

// SetActive focuses obj.
func (d *Data) SetActive(obj *Object) {
	d.Active = obj
}

// Scene is a top-level container with a master collection.
type Scene struct {
	Name       string
	Collection *Collection
}

// Collection groups objects; collections nest.
type Collection struct {
	Name     string
	Objects  []*Object
	Children []*Collection
}

// Link adds obj to the collection. Linking twice is a no-op.
func (c *Collection) Link(obj *Object) {
	if !slices.Contains(c.Objects, obj) {
		c.Objects = append(c.Objects, obj)
	}
}

// Unlink removes obj from this collection only.
func (c *Collection) Unlink(obj *Object) {
	if i := slices.Index(c.Objects, obj); i >= 0 {
		c.Objects = slices.Delete(c.Objects, i, i+1)
	}
}

// Child returns the direct child collection called name, creating it when missing.
func (c *Collection) Child(name string) *Collection {
	for _, ch := range c.Children {
		if ch.Name == name {
			return ch
		}
	}
	ch := &Collection{Name: name}
	c.Children = append(c.Children, ch)
	return ch
}

// AllObjects returns the objects of c and of every nested collection, once each.
func (c *Collection) AllObjects() []*Object {
	var out []*Object
	var walk func(*Collection)
	walk = func(col *Collection) {
		for _, o := range col.Objects {
			if !slices.Contains(out, o) {
				out = append(out, o)
			}
		}
		for _, ch := range col.Children {
			walk(ch)
		}
	}
	walk(c)
	return out
}

func (c *Collection) unlinkAll(obj *Object) {
	c.Unlink(obj)
	for _, ch := range c.Children {
		ch.unlinkAll(obj)
	}
}
