package scene

import (
	"bytes"
	"sync"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/Faultbox/scenegraph/internal/engine/texture"
	"github.com/Faultbox/scenegraph/internal/logger"
	"github.com/Faultbox/scenegraph/pkg/mesh"
)

// minScale replaces zero scale components so cascades stay invertible.
const minScale = 1e-6

// hierarchyMu serializes inserts so the ancestor check and the link it
// guards happen atomically.
var hierarchyMu sync.Mutex

// Model is a composite node holding an ordered list of children.
//
// Transforms cascade: setting the location, rotation or scale of a model
// applies the change to every child instead of being resolved at draw time.
// The child list and the aggregate counters are guarded by a mutex; a model
// never holds its lock while acquiring an ancestor's.
type Model struct {
	parentLink

	id uuid.UUID
	// self is the node registered with the parent, which differs from the
	// model when it is embedded.
	self Node

	mu       sync.Mutex
	name     string
	children []Node
	vertices int
	indices  int
	location mgl32.Vec3
	rotation mgl32.Vec3
	scale    mgl32.Vec3
	visible  bool
	alpha    float32
	disposed bool
}

// NewModel returns an empty visible model.
func NewModel(name string) *Model {
	return &Model{
		id:      uuid.New(),
		name:    name,
		scale:   mgl32.Vec3{1, 1, 1},
		visible: true,
		alpha:   1,
	}
}

// NewModelWith returns a model holding nodes.
func NewModelWith(name string, nodes ...Node) (*Model, error) {
	m := NewModel(name)
	for _, n := range nodes {
		if err := m.Add(n); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// ID identifies the model for the lifetime of the process.
func (m *Model) ID() uuid.UUID { return m.id }

func (m *Model) node() Node {
	if m.self != nil {
		return m.self
	}
	return m
}

func (m *Model) Name() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.name
}

func (m *Model) SetName(name string) {
	m.mu.Lock()
	m.name = name
	m.mu.Unlock()
}

func (m *Model) Visible() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.visible
}

// SetVisible hides or shows the model and everything below it.
func (m *Model) SetVisible(visible bool) {
	m.mu.Lock()
	m.visible = visible
	m.mu.Unlock()
}

func (m *Model) Alpha() float32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.alpha
}

// SetAlpha sets the opacity factor multiplied into every descendant.
func (m *Model) SetAlpha(alpha float32) {
	m.mu.Lock()
	m.alpha = alpha
	m.mu.Unlock()
}

func (m *Model) Disposed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.disposed
}

// Vertices returns the aggregate vertex count of all children.
func (m *Model) Vertices() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.vertices
}

// Indices returns the aggregate index count of all children.
func (m *Model) Indices() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.indices
}

func (m *Model) Triangles() int {
	return m.Indices() / 3
}

func (m *Model) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.children)
}

// At returns the child at i, or nil when i is out of range.
func (m *Model) At(i int) Node {
	m.mu.Lock()
	defer m.mu.Unlock()
	if i < 0 || i >= len(m.children) {
		return nil
	}
	return m.children[i]
}

// Children returns a snapshot of the child list.
func (m *Model) Children() []Node {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Node(nil), m.children...)
}

func (m *Model) IndexOf(n Node) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.indexLocked(n)
}

func (m *Model) Contains(n Node) bool {
	return m.IndexOf(n) >= 0
}

func (m *Model) indexLocked(n Node) int {
	for i, c := range m.children {
		if c == n {
			return i
		}
	}
	return -1
}

// Add appends n. A node held by another model is detached from it first.
func (m *Model) Add(n Node) error {
	return m.insert(-1, n)
}

// Insert places n at position i.
func (m *Model) Insert(i int, n Node) error {
	if i < 0 {
		return errors.Wrapf(ErrIndexRange, "insert at %d", i)
	}
	return m.insert(i, n)
}

func (m *Model) insert(i int, n Node) error {
	if n == nil {
		return errors.Wrap(ErrInvalidHierarchy, "nil node")
	}
	hierarchyMu.Lock()
	defer hierarchyMu.Unlock()

	if cm := asModel(n); cm != nil && isAncestor(cm, m) {
		return errors.Wrapf(ErrInvalidHierarchy, "%q is an ancestor of %q", cm.Name(), m.Name())
	}
	if old := n.Parent(); old != nil {
		old.Remove(n)
	}

	m.mu.Lock()
	if m.disposed {
		m.mu.Unlock()
		return ErrDisposed
	}
	if i < 0 {
		i = len(m.children)
	}
	if i > len(m.children) {
		m.mu.Unlock()
		return errors.Wrapf(ErrIndexRange, "insert at %d of %d", i, len(m.children))
	}
	m.children = append(m.children, nil)
	copy(m.children[i+1:], m.children[i:])
	m.children[i] = n
	dv, di := n.Vertices(), n.Indices()
	m.vertices += dv
	m.indices += di
	n.link().parent.Store(m)
	m.mu.Unlock()

	m.propagateUp(dv, di)
	return nil
}

// Set replaces the child at i with n and returns the previous child.
func (m *Model) Set(i int, n Node) (Node, error) {
	old := m.At(i)
	if old == nil {
		return nil, errors.Wrapf(ErrIndexRange, "set at %d", i)
	}
	if old == n {
		return old, nil
	}
	if err := m.Replace(old, n); err != nil {
		return nil, err
	}
	return old, nil
}

// Replace swaps old for n at the same position.
func (m *Model) Replace(old, n Node) error {
	i := m.IndexOf(old)
	if i < 0 {
		return errors.Wrapf(ErrIndexRange, "%q is not a child of %q", old.Name(), m.Name())
	}
	if old == n {
		return nil
	}
	if err := m.insert(i, n); err != nil {
		return err
	}
	m.Remove(old)
	return nil
}

// Remove detaches n and reports whether it was a child.
func (m *Model) Remove(n Node) bool {
	m.mu.Lock()
	i := m.indexLocked(n)
	if i < 0 {
		m.mu.Unlock()
		return false
	}
	dv, di := m.detachLocked(i)
	m.mu.Unlock()

	m.propagateUp(-dv, -di)
	return true
}

// RemoveAt detaches and returns the child at i, or nil.
func (m *Model) RemoveAt(i int) Node {
	m.mu.Lock()
	if i < 0 || i >= len(m.children) {
		m.mu.Unlock()
		return nil
	}
	n := m.children[i]
	dv, di := m.detachLocked(i)
	m.mu.Unlock()

	m.propagateUp(-dv, -di)
	return n
}

func (m *Model) detachLocked(i int) (dv, di int) {
	n := m.children[i]
	m.children = append(m.children[:i], m.children[i+1:]...)
	dv, di = n.Vertices(), n.Indices()
	m.vertices -= dv
	m.indices -= di
	n.link().parent.CompareAndSwap(m, nil)
	return dv, di
}

// Clear detaches every child without disposing them.
func (m *Model) Clear() {
	m.mu.Lock()
	children := m.children
	m.children = nil
	dv, di := m.vertices, m.indices
	m.vertices, m.indices = 0, 0
	for _, c := range children {
		c.link().parent.CompareAndSwap(m, nil)
	}
	m.mu.Unlock()

	m.propagateUp(-dv, -di)
}

// adoptLocked appends n to a model no other goroutine can reach yet or whose
// lock is held, skipping the hierarchy checks.
func (m *Model) adoptLocked(n Node) {
	m.children = append(m.children, n)
	m.vertices += n.Vertices()
	m.indices += n.Indices()
	n.link().parent.Store(m)
}

// propagate applies a counter change coming from a child.
func (m *Model) propagate(dv, di int) {
	if dv == 0 && di == 0 {
		return
	}
	m.mu.Lock()
	m.vertices += dv
	m.indices += di
	m.mu.Unlock()
	m.propagateUp(dv, di)
}

func (m *Model) propagateUp(dv, di int) {
	if p := m.Parent(); p != nil {
		p.propagate(dv, di)
	}
}

func (m *Model) Location() mgl32.Vec3 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.location
}

func (m *Model) Rotation() mgl32.Vec3 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rotation
}

func (m *Model) Scale() mgl32.Vec3 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.scale
}

// SetLocation moves every child by the difference to the previous location.
func (m *Model) SetLocation(v mgl32.Vec3) {
	m.mu.Lock()
	delta := v.Sub(m.location)
	m.location = v
	children := append([]Node(nil), m.children...)
	m.mu.Unlock()

	for _, c := range children {
		c.SetLocation(c.Location().Add(delta))
	}
}

// SetRotation rotates every child by the difference to the previous angles.
func (m *Model) SetRotation(v mgl32.Vec3) {
	m.mu.Lock()
	delta := v.Sub(m.rotation)
	m.rotation = v
	children := append([]Node(nil), m.children...)
	m.mu.Unlock()

	for _, c := range children {
		c.SetRotation(c.Rotation().Add(delta))
	}
}

// SetScale multiplies every child's scale by the ratio to the previous scale.
// Zero components are stored as a tiny positive value.
func (m *Model) SetScale(v mgl32.Vec3) {
	v = clampScale(v)
	m.mu.Lock()
	old := m.scale
	m.scale = v
	children := append([]Node(nil), m.children...)
	m.mu.Unlock()

	ratio := mgl32.Vec3{v[0] / old[0], v[1] / old[1], v[2] / old[2]}
	for _, c := range children {
		s := c.Scale()
		c.SetScale(mgl32.Vec3{s[0] * ratio[0], s[1] * ratio[1], s[2] * ratio[2]})
	}
}

func clampScale(v mgl32.Vec3) mgl32.Vec3 {
	for i := range v {
		if v[i] == 0 {
			v[i] = minScale
		}
	}
	return v
}

// Bounds is the union of every child's bounds in model space.
func (m *Model) Bounds() (mesh.Bounds, error) {
	b := mesh.EmptyBounds()
	for _, c := range m.Children() {
		if c.Vertices() == 0 {
			continue
		}
		cb, err := c.Bounds()
		if err != nil {
			return mesh.Bounds{}, err
		}
		b = b.Union(cb)
	}
	if b.IsEmpty() {
		return mesh.Bounds{}, nil
	}
	return b, nil
}

func (m *Model) each(fn func(Node) error) error {
	var err error
	for _, c := range m.Children() {
		err = multierr.Append(err, fn(c))
	}
	return err
}

func (m *Model) TranslateMesh(v mgl32.Vec3) error {
	return m.each(func(n Node) error { return n.TranslateMesh(v) })
}

func (m *Model) ScaleMesh(factor, center mgl32.Vec3) error {
	return m.each(func(n Node) error { return n.ScaleMesh(factor, center) })
}

func (m *Model) RotateMesh(angles mgl32.Vec3) error {
	return m.each(func(n Node) error { return n.RotateMesh(angles) })
}

func (m *Model) ApplyMatrix(t mgl32.Mat4) error {
	return m.each(func(n Node) error { return n.ApplyMatrix(t) })
}

func (m *Model) SetCulling(enabled bool) {
	for _, c := range m.Children() {
		c.SetCulling(enabled)
	}
}

func (m *Model) SetWireframe(enabled bool) {
	for _, c := range m.Children() {
		c.SetWireframe(enabled)
	}
}

func (m *Model) SetKeepCopyInMemory(keep bool) {
	for _, c := range m.Children() {
		c.SetKeepCopyInMemory(keep)
	}
}

// ApplyTexture gives every mesh below the model its own reference to tex.
// The caller keeps its reference.
func (m *Model) ApplyTexture(tex texture.Texture) {
	Walk(m, func(n Node) {
		if mc, ok := n.(*MeshComponent); ok && !mc.Disposed() {
			tex.AddReference()
			mc.SetTexture(tex)
		}
	})
}

// CheckPairable reports whether next can be rendered as the interpolation
// partner of m: a model with the same number of children, pairwise of the
// same kind and vertex count.
func (m *Model) CheckPairable(next Node) error {
	nm := asModel(next)
	if nm == nil {
		return errors.Wrapf(ErrMismatchedFrames, "%q is not a model", next.Name())
	}
	mine, theirs := m.Children(), nm.Children()
	if len(mine) != len(theirs) {
		return errors.Wrapf(ErrMismatchedFrames, "%d children against %d", len(mine), len(theirs))
	}
	for i := range mine {
		a, b := mine[i], theirs[i]
		if (asModel(a) == nil) != (asModel(b) == nil) {
			return errors.Wrapf(ErrMismatchedFrames, "child %d differs in kind", i)
		}
		if a.Vertices() != b.Vertices() {
			return errors.Wrapf(ErrMismatchedFrames, "child %d has %d vertices against %d", i, a.Vertices(), b.Vertices())
		}
	}
	return nil
}

// Render draws the children. With next, each child is paired positionally
// with next's child for interpolation; a tree that does not pair is logged
// and drawn without a partner.
func (m *Model) Render(f *Frame, next Node) {
	m.mu.Lock()
	skip := m.disposed || !m.visible || m.alpha <= 0
	children := append([]Node(nil), m.children...)
	m.mu.Unlock()
	if skip {
		return
	}

	if next == nil {
		for _, c := range children {
			c.Render(f, nil)
		}
		return
	}
	if err := m.CheckPairable(next); err != nil {
		logger.Named("scene").Warn("rendering without interpolation",
			zap.String("model", m.Name()), zap.Error(err))
		for _, c := range children {
			c.Render(f, nil)
		}
		return
	}
	partners := asModel(next).Children()
	for i, c := range children {
		c.Render(f, partners[i])
	}
}

// Clone returns a deep copy: every descendant is cloned, and meshes share
// their buffers with the originals until mutated.
func (m *Model) Clone() Node {
	return m.CloneModel()
}

func (m *Model) CloneModel() *Model {
	m.mu.Lock()
	c := NewModel(m.name)
	c.location, c.rotation, c.scale = m.location, m.rotation, m.scale
	c.visible, c.alpha = m.visible, m.alpha
	children := append([]Node(nil), m.children...)
	m.mu.Unlock()

	c.mu.Lock()
	for _, ch := range children {
		c.adoptLocked(ch.Clone())
	}
	c.mu.Unlock()
	return c
}

// Dispose detaches the model and disposes its children.
func (m *Model) Dispose() {
	m.DisposeWith(true, true)
}

// DisposeWith releases the model. Children are detached, and disposed too
// when disposeChildren is set. It is idempotent.
func (m *Model) DisposeWith(disposeChildren, removeFromParent bool) {
	m.mu.Lock()
	if m.disposed {
		m.mu.Unlock()
		return
	}
	m.disposed = true
	m.mu.Unlock()

	if removeFromParent {
		if p := m.Parent(); p != nil {
			p.Remove(m.node())
		}
	}

	m.mu.Lock()
	children := m.children
	m.children = nil
	dv, di := m.vertices, m.indices
	m.vertices, m.indices = 0, 0
	for _, c := range children {
		c.link().parent.CompareAndSwap(m, nil)
	}
	m.mu.Unlock()
	m.propagateUp(-dv, -di)

	if disposeChildren {
		for _, c := range children {
			c.Dispose()
		}
	}
	logger.Named("scene").Debug("model disposed",
		zap.String("model", m.Name()), zap.Int("children", len(children)))
}

// lockPair locks a and b in id order and returns the matching unlock.
func lockPair(a, b *Model) func() {
	if a == b {
		a.mu.Lock()
		return a.mu.Unlock
	}
	first, second := a, b
	if bytes.Compare(b.id[:], a.id[:]) < 0 {
		first, second = b, a
	}
	first.mu.Lock()
	second.mu.Lock()
	return func() {
		second.mu.Unlock()
		first.mu.Unlock()
	}
}
