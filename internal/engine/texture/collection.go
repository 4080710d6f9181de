package texture

import (
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"

	"github.com/Faultbox/scenegraph/internal/engine/gpu"
)

var nextCollectionID atomic.Uint64

// Collection is an ordered list of textures that binds one current element.
// Until SetCurrent is called the current element is the last one added.
type Collection struct {
	id   uint64
	name string

	mu      sync.Mutex
	items   []Texture
	current int
}

func NewCollection(name string, items ...Texture) *Collection {
	return &Collection{
		id:      nextCollectionID.Add(1),
		name:    name,
		items:   append([]Texture(nil), items...),
		current: -1,
	}
}

func (c *Collection) Name() string { return c.name }

// Add appends t; the collection takes over the caller's reference.
func (c *Collection) Add(t Texture) {
	c.mu.Lock()
	c.items = append(c.items, t)
	c.mu.Unlock()
}

func (c *Collection) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

func (c *Collection) At(i int) Texture {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i < 0 || i >= len(c.items) {
		return nil
	}
	return c.items[i]
}

// Items returns a snapshot of the elements.
func (c *Collection) Items() []Texture {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Texture(nil), c.items...)
}

// SetCurrent selects the element Bind uses. -1 restores the last element.
func (c *Collection) SetCurrent(i int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i < -1 || i >= len(c.items) {
		return errors.Errorf("texture index %d out of range [0,%d)", i, len(c.items))
	}
	c.current = i
	return nil
}

// Current returns the element Bind uses, or Empty.
func (c *Collection) Current() Texture {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.currentLocked()
}

func (c *Collection) currentLocked() Texture {
	switch {
	case len(c.items) == 0:
		return Empty
	case c.current < 0 || c.current >= len(c.items):
		return c.items[len(c.items)-1]
	}
	return c.items[c.current]
}

func (c *Collection) Bind(ctx gpu.Context, wrap gpu.WrapMode) error {
	return c.Current().Bind(ctx, wrap)
}

func (c *Collection) Unbind(ctx gpu.Context) {
	c.Current().Unbind(ctx)
}

func (c *Collection) AddReference() {
	for _, t := range c.Items() {
		t.AddReference()
	}
}

// Dispose releases one reference on every element and empties the collection.
func (c *Collection) Dispose() {
	c.mu.Lock()
	items := c.items
	c.items = nil
	c.current = -1
	c.mu.Unlock()
	for _, t := range items {
		t.Dispose()
	}
}

func (c *Collection) Handle() uint32      { return c.Current().Handle() }
func (c *Collection) Premultiplied() bool { return c.Current().Premultiplied() }
func (c *Collection) IsEmpty() bool       { return c.Current().IsEmpty() }

// lockPair locks a and b in id order and returns the matching unlock.
func lockPair(a, b *Collection) func() {
	if a == b {
		a.mu.Lock()
		return a.mu.Unlock
	}
	first, second := a, b
	if b.id < a.id {
		first, second = b, a
	}
	first.mu.Lock()
	second.mu.Lock()
	return func() {
		second.mu.Unlock()
		first.mu.Unlock()
	}
}
