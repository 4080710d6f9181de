package scene

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Faultbox/scenegraph/internal/engine/buffer"
	"github.com/Faultbox/scenegraph/internal/engine/gpu"
	"github.com/Faultbox/scenegraph/internal/engine/texture"
	"github.com/Faultbox/scenegraph/internal/logger"
	"github.com/Faultbox/scenegraph/pkg/mesh"
)

// Material defaults applied by RestoreDefaults.
var (
	DefaultMaterialColor = mgl32.Vec4{1, 1, 1, 1}
	DefaultAmbientColor  = mgl32.Vec4{0.15, 0.15, 0.15, 1}
	DefaultSpecularColor = mgl32.Vec4{0.15, 0.15, 0.15, 1}
)

const DefaultShininess float32 = 15

// RenderHook runs immediately before or after a mesh draw.
type RenderHook func(m *MeshComponent, f *Frame)

type meshOptions struct {
	name     string
	keepCopy bool
	usage    gpu.Usage
	optimize bool
}

// MeshOption configures a new MeshComponent.
type MeshOption func(*meshOptions)

func WithName(name string) MeshOption {
	return func(o *meshOptions) { o.name = name }
}

// WithKeepCopy retains the CPU vertex and index arrays after upload.
func WithKeepCopy(keep bool) MeshOption {
	return func(o *meshOptions) { o.keepCopy = keep }
}

func WithUsage(usage gpu.Usage) MeshOption {
	return func(o *meshOptions) { o.usage = usage }
}

// WithOptimize folds identical vertices when indices are generated.
func WithOptimize(optimize bool) MeshOption {
	return func(o *meshOptions) { o.optimize = optimize }
}

// MeshComponent is a leaf node drawing one indexed triangle list.
//
// Clones share the geometry, index and binding objects by reference count.
// Any vertex mutation on a mesh whose geometry is shared first moves it onto
// private buffers, so the other holders never observe the change.
//
// A MeshComponent is not safe for concurrent use.
type MeshComponent struct {
	parentLink

	name string

	geometry *buffer.GeometryBuffer
	indices  *buffer.IndexBuffer
	binding  *buffer.VertexBinding

	// vertices is the CPU copy. It is nil once flushed unless keepCopy is set.
	vertices    []mesh.Vertex
	vertexCount int
	indexCount  int
	dirty       bool
	keepCopy    bool
	clone       bool
	updating    int
	usage       gpu.Usage
	ctx         gpu.Context

	textures []texture.Texture
	wrap     gpu.WrapMode

	location   mgl32.Vec3
	rotation   mgl32.Vec3
	scale      mgl32.Vec3
	world      mgl32.Mat4
	worldValid bool
	custom     *mgl32.Mat4

	visible    bool
	culling    bool
	wireframe  bool
	lowOpacity bool
	alpha      float32

	color     mgl32.Vec4
	ambient   mgl32.Vec4
	specular  mgl32.Vec4
	shininess float32

	onBegin, onEnd RenderHook

	disposed bool
}

// NewMeshComponent builds a mesh from vertices and indices. With nil
// indices the vertices are taken as one polygon outline and triangulated.
// The mesh takes over the caller's reference to tex.
func NewMeshComponent(tex texture.Texture, vertices []mesh.Vertex, indices *mesh.Indices, opts ...MeshOption) (*MeshComponent, error) {
	o := applyMeshOptions(opts)

	var ix mesh.Indices
	if indices == nil {
		tris, err := mesh.TriangulatePolygon(vertices)
		if err != nil {
			return nil, errors.Wrap(err, "triangulate mesh")
		}
		vertices, ix = mesh.GenerateIndices(tris, o.optimize)
	} else {
		ix = indices.Clone()
		for i, v := range ix.Values {
			if int(v) >= len(vertices) {
				return nil, errors.Wrapf(mesh.ErrIndexOutOfRange, "index %d at %d, %d vertices", v, i, len(vertices))
			}
		}
	}
	return newMesh(tex, vertices, ix, o), nil
}

// NewMeshFromVertices builds a mesh from a flat triangle list, generating
// its indices.
func NewMeshFromVertices(tex texture.Texture, vertices []mesh.Vertex, optimize bool, opts ...MeshOption) *MeshComponent {
	o := applyMeshOptions(opts)
	pool, ix := mesh.GenerateIndices(vertices, optimize)
	return newMesh(tex, pool, ix, o)
}

func applyMeshOptions(opts []MeshOption) meshOptions {
	o := meshOptions{usage: gpu.StaticDraw, optimize: true}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func newMesh(tex texture.Texture, vertices []mesh.Vertex, ix mesh.Indices, o meshOptions) *MeshComponent {
	m := &MeshComponent{
		name:        o.name,
		geometry:    buffer.NewGeometryBuffer(),
		indices:     buffer.NewIndexBuffer(ix, o.keepCopy),
		binding:     buffer.NewVertexBinding(),
		vertices:    append([]mesh.Vertex{}, vertices...),
		vertexCount: len(vertices),
		indexCount:  ix.Len(),
		dirty:       true,
		keepCopy:    o.keepCopy,
		usage:       o.usage,
		scale:       mgl32.Vec3{1, 1, 1},
		visible:     true,
		alpha:       1,
	}
	if tex != nil {
		m.textures = []texture.Texture{tex}
	}
	m.RestoreDefaults()
	return m
}

func (m *MeshComponent) Name() string        { return m.name }
func (m *MeshComponent) SetName(name string) { m.name = name }

func (m *MeshComponent) Visible() bool           { return m.visible }
func (m *MeshComponent) SetVisible(visible bool) { m.visible = visible }

func (m *MeshComponent) Alpha() float32         { return m.alpha }
func (m *MeshComponent) SetAlpha(alpha float32) { m.alpha = alpha }

// CumulativeAlpha is the product of the mesh alpha and every ancestor's.
func (m *MeshComponent) CumulativeAlpha() float32 {
	return cumulativeAlpha(m.alpha, m.Parent())
}

func (m *MeshComponent) Vertices() int  { return m.vertexCount }
func (m *MeshComponent) Indices() int   { return m.indexCount }
func (m *MeshComponent) Triangles() int { return m.indexCount / 3 }

// IsClone reports whether the mesh was produced by Clone.
func (m *MeshComponent) IsClone() bool { return m.clone }

// Shared reports whether another mesh holds the same geometry.
func (m *MeshComponent) Shared() bool {
	return !m.disposed && m.geometry.References() > 1
}

func (m *MeshComponent) Disposed() bool { return m.disposed }

func (m *MeshComponent) Culling() bool             { return m.culling }
func (m *MeshComponent) SetCulling(enabled bool)   { m.culling = enabled }
func (m *MeshComponent) Wireframe() bool           { return m.wireframe }
func (m *MeshComponent) SetWireframe(enabled bool) { m.wireframe = enabled }

// LowOpacity forces the translucent path: no depth writes and no culling.
func (m *MeshComponent) LowOpacity() bool       { return m.lowOpacity }
func (m *MeshComponent) SetLowOpacity(low bool) { m.lowOpacity = low }

func (m *MeshComponent) KeepCopyInMemory() bool { return m.keepCopy }

// SetKeepCopyInMemory controls whether the CPU arrays survive an upload.
func (m *MeshComponent) SetKeepCopyInMemory(keep bool) {
	m.keepCopy = keep
	m.indices.SetKeepCopy(keep)
}

func (m *MeshComponent) Usage() gpu.Usage         { return m.usage }
func (m *MeshComponent) SetUsage(usage gpu.Usage) { m.usage = usage }

func (m *MeshComponent) Color() mgl32.Vec4             { return m.color }
func (m *MeshComponent) SetColor(c mgl32.Vec4)         { m.color = c }
func (m *MeshComponent) AmbientColor() mgl32.Vec4      { return m.ambient }
func (m *MeshComponent) SetAmbientColor(c mgl32.Vec4)  { m.ambient = c }
func (m *MeshComponent) SpecularColor() mgl32.Vec4     { return m.specular }
func (m *MeshComponent) SetSpecularColor(c mgl32.Vec4) { m.specular = c }
func (m *MeshComponent) Shininess() float32            { return m.shininess }
func (m *MeshComponent) SetShininess(s float32)        { m.shininess = s }

func (m *MeshComponent) WrapMode() gpu.WrapMode        { return m.wrap }
func (m *MeshComponent) SetWrapMode(mode gpu.WrapMode) { m.wrap = mode }

// RestoreDefaults resets the material colors and shininess.
func (m *MeshComponent) RestoreDefaults() {
	m.color = DefaultMaterialColor
	m.ambient = DefaultAmbientColor
	m.specular = DefaultSpecularColor
	m.shininess = DefaultShininess
}

// SetRenderHooks installs functions run around every draw. Either may be nil.
func (m *MeshComponent) SetRenderHooks(begin, end RenderHook) {
	m.onBegin, m.onEnd = begin, end
}

// Texture returns the primary texture, or nil.
func (m *MeshComponent) Texture() texture.Texture {
	if len(m.textures) == 0 {
		return nil
	}
	return m.textures[0]
}

func (m *MeshComponent) Textures() []texture.Texture {
	return append([]texture.Texture(nil), m.textures...)
}

// SetTexture replaces every texture with tex, taking over the caller's
// reference and releasing the previous ones.
func (m *MeshComponent) SetTexture(tex texture.Texture) {
	old := m.textures
	m.textures = nil
	if tex != nil {
		m.textures = []texture.Texture{tex}
	}
	for _, t := range old {
		t.Dispose()
	}
}

// AddTexture appends a secondary texture, taking over the caller's reference.
func (m *MeshComponent) AddTexture(tex texture.Texture) {
	if tex != nil {
		m.textures = append(m.textures, tex)
	}
}

func (m *MeshComponent) Location() mgl32.Vec3 { return m.location }
func (m *MeshComponent) Rotation() mgl32.Vec3 { return m.rotation }
func (m *MeshComponent) Scale() mgl32.Vec3    { return m.scale }

func (m *MeshComponent) SetLocation(v mgl32.Vec3) {
	m.location = v
	m.worldValid = false
}

// SetRotation sets the Euler angles in radians.
func (m *MeshComponent) SetRotation(v mgl32.Vec3) {
	m.rotation = v
	m.worldValid = false
}

func (m *MeshComponent) SetScale(v mgl32.Vec3) {
	m.scale = v
	m.worldValid = false
}

// SetTransform overrides the composed world matrix. Nil restores it.
func (m *MeshComponent) SetTransform(t *mgl32.Mat4) {
	if t == nil {
		m.custom = nil
		return
	}
	c := *t
	m.custom = &c
}

// WorldMatrix returns the custom transform when set, otherwise
// translation * rotZ * rotX * rotY * scale, recomputed only after a change.
func (m *MeshComponent) WorldMatrix() mgl32.Mat4 {
	if m.custom != nil {
		return *m.custom
	}
	if !m.worldValid {
		r := m.rotation
		m.world = mgl32.Translate3D(m.location[0], m.location[1], m.location[2]).
			Mul4(mgl32.HomogRotate3DZ(r[2])).
			Mul4(mgl32.HomogRotate3DX(r[0])).
			Mul4(mgl32.HomogRotate3DY(r[1])).
			Mul4(mgl32.Scale3D(m.scale[0], m.scale[1], m.scale[2]))
		m.worldValid = true
	}
	return m.world
}

// BeginUpdateMesh makes the vertex array writable. Brackets nest; the
// outermost one loads the vertices back from the GPU when no CPU copy is
// kept and forks storage shared with clones.
func (m *MeshComponent) BeginUpdateMesh() error {
	if m.disposed {
		return ErrDisposed
	}
	if m.updating == 0 {
		if err := m.load(); err != nil {
			return err
		}
		if m.geometry.References() > 1 {
			m.fork()
		}
	}
	m.updating++
	return nil
}

// EndUpdateMesh closes a bracket opened by BeginUpdateMesh.
func (m *MeshComponent) EndUpdateMesh() {
	if m.updating > 0 {
		m.updating--
	}
}

// UpdateVertices runs fn over the vertex array inside an update bracket.
func (m *MeshComponent) UpdateVertices(fn func(vertices []mesh.Vertex)) error {
	if err := m.BeginUpdateMesh(); err != nil {
		return err
	}
	defer m.EndUpdateMesh()
	fn(m.vertices)
	m.dirty = true
	return nil
}

func (m *MeshComponent) TranslateMesh(v mgl32.Vec3) error {
	return m.UpdateVertices(func(vs []mesh.Vertex) { mesh.Translate(vs, v) })
}

// ScaleMesh scales vertex positions about center.
func (m *MeshComponent) ScaleMesh(factor, center mgl32.Vec3) error {
	return m.UpdateVertices(func(vs []mesh.Vertex) { mesh.Scale(vs, factor, center) })
}

// ScaleMeshUniform scales by the same factor on every axis.
func (m *MeshComponent) ScaleMeshUniform(factor float32, center mgl32.Vec3) error {
	return m.ScaleMesh(mgl32.Vec3{factor, factor, factor}, center)
}

// RotateMesh rotates vertices about the origin by Euler angles in radians.
func (m *MeshComponent) RotateMesh(angles mgl32.Vec3) error {
	return m.UpdateVertices(func(vs []mesh.Vertex) { mesh.Rotate(vs, angles) })
}

func (m *MeshComponent) ApplyMatrix(t mgl32.Mat4) error {
	return m.UpdateVertices(func(vs []mesh.Vertex) { mesh.Apply(vs, t) })
}

// SetGeometry replaces the vertices and indices. Ancestors' counters follow.
func (m *MeshComponent) SetGeometry(vertices []mesh.Vertex, ix mesh.Indices) error {
	for i, v := range ix.Values {
		if int(v) >= len(vertices) {
			return errors.Wrapf(mesh.ErrIndexOutOfRange, "index %d at %d, %d vertices", v, i, len(vertices))
		}
	}
	if err := m.BeginUpdateMesh(); err != nil {
		return err
	}
	defer m.EndUpdateMesh()

	if m.indices.References() > 1 {
		old := m.indices
		m.indices = buffer.NewIndexBuffer(ix, m.keepCopy)
		old.Dispose(false)
	} else if err := m.indices.Replace(ix); err != nil {
		return err
	}

	dv, di := len(vertices)-m.vertexCount, ix.Len()-m.indexCount
	m.vertices = append([]mesh.Vertex{}, vertices...)
	m.vertexCount, m.indexCount = len(vertices), ix.Len()
	m.dirty = true
	if p := m.Parent(); p != nil {
		p.propagate(dv, di)
	}
	return nil
}

// load makes sure the CPU vertex array is present.
func (m *MeshComponent) load() error {
	if m.vertices != nil || m.vertexCount == 0 {
		return nil
	}
	vs, err := m.geometry.ReadBack(m.ctx, m.vertexCount)
	if err != nil {
		return errors.Wrap(err, "load mesh vertices")
	}
	m.vertices = vs
	return nil
}

// fork moves the mesh onto private geometry and binding objects. The index
// buffer stays shared since mutations never change topology.
func (m *MeshComponent) fork() {
	oldGeometry, oldBinding := m.geometry, m.binding
	m.geometry = buffer.NewGeometryBuffer()
	m.binding = buffer.NewVertexBinding()
	oldGeometry.Dispose(false)
	oldBinding.Dispose(false)

	m.vertices = append([]mesh.Vertex{}, m.vertices...)
	m.clone = false
	m.dirty = true
}

// FlushBuffer uploads pending vertices. Unless KeepCopyInMemory is set the
// CPU array is dropped afterwards and later reads go through ctx.
func (m *MeshComponent) FlushBuffer(ctx gpu.Context) error {
	if m.disposed {
		return ErrDisposed
	}
	m.ctx = ctx
	if !m.dirty || m.updating > 0 {
		return nil
	}
	if err := m.geometry.Upload(ctx, m.vertices, m.usage); err != nil {
		return errors.Wrap(err, "flush mesh")
	}
	m.geometry.Unbind(ctx)
	m.dirty = false
	if !m.keepCopy {
		m.vertices = nil
	}
	return nil
}

// VertexData returns a copy of the vertex array, read back from the GPU
// when no CPU copy is kept.
func (m *MeshComponent) VertexData() ([]mesh.Vertex, error) {
	vs, err := m.snapshot()
	if err != nil {
		return nil, err
	}
	if m.vertices != nil {
		vs = append([]mesh.Vertex{}, vs...)
	}
	return vs, nil
}

// IndexData returns a copy of the index array.
func (m *MeshComponent) IndexData() (mesh.Indices, error) {
	if m.disposed {
		return mesh.Indices{}, ErrDisposed
	}
	return m.indices.ReadBack(m.ctx)
}

// Bounds scans the vertices in model space. It is not cached.
func (m *MeshComponent) Bounds() (mesh.Bounds, error) {
	vs, err := m.snapshot()
	if err != nil {
		return mesh.Bounds{}, err
	}
	return mesh.BoundsOf(vs), nil
}

func (m *MeshComponent) snapshot() ([]mesh.Vertex, error) {
	if m.disposed {
		return nil, ErrDisposed
	}
	if m.vertices != nil || m.vertexCount == 0 {
		return m.vertices, nil
	}
	vs, err := m.geometry.ReadBack(m.ctx, m.vertexCount)
	if err != nil {
		return nil, errors.Wrap(err, "read mesh vertices")
	}
	return vs, nil
}

// Clone returns a mesh sharing this one's buffers and textures.
func (m *MeshComponent) Clone() Node {
	return m.CloneMesh()
}

func (m *MeshComponent) CloneMesh() *MeshComponent {
	m.geometry.AddReference()
	m.indices.AddReference()
	m.binding.AddReference()
	for _, t := range m.textures {
		t.AddReference()
	}

	c := &MeshComponent{
		name:        m.name,
		geometry:    m.geometry,
		indices:     m.indices,
		binding:     m.binding,
		vertices:    m.vertices,
		vertexCount: m.vertexCount,
		indexCount:  m.indexCount,
		dirty:       m.dirty,
		keepCopy:    m.keepCopy,
		clone:       true,
		usage:       m.usage,
		ctx:         m.ctx,
		textures:    append([]texture.Texture(nil), m.textures...),
		wrap:        m.wrap,
		location:    m.location,
		rotation:    m.rotation,
		scale:       m.scale,
		visible:     m.visible,
		culling:     m.culling,
		wireframe:   m.wireframe,
		lowOpacity:  m.lowOpacity,
		alpha:       m.alpha,
		color:       m.color,
		ambient:     m.ambient,
		specular:    m.specular,
		shininess:   m.shininess,
		onBegin:     m.onBegin,
		onEnd:       m.onEnd,
	}
	c.SetTransform(m.custom)
	return c
}

// Dispose detaches the mesh and releases its references. It is idempotent.
func (m *MeshComponent) Dispose() {
	if m.disposed {
		return
	}
	if p := m.Parent(); p != nil {
		p.Remove(m)
	}
	m.disposed = true

	m.geometry.Dispose(false)
	m.indices.Dispose(false)
	m.binding.Dispose(false)
	for _, t := range m.textures {
		t.Dispose()
	}
	m.textures = nil
	m.vertices = nil
	m.vertexCount, m.indexCount = 0, 0

	logger.Named("scene").Debug("mesh disposed", zap.String("mesh", m.name))
}
