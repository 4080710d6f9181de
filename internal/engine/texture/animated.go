package texture

import (
	"time"

	"github.com/pkg/errors"

	"github.com/Faultbox/scenegraph/internal/engine/animation"
	"github.com/Faultbox/scenegraph/internal/engine/gpu"
)

// ErrSelfCombine is returned when an animation is combined with itself or nil.
var ErrSelfCombine = errors.New("cannot combine with itself or nil")

// Animated is a collection whose current element follows a frame clock.
type Animated struct {
	*Collection
	clock *animation.Clock

	// bound is the frame of the last Bind, guarded by the collection mutex.
	bound Texture
}

// NewAnimated returns an animated texture over frames.
func NewAnimated(name string, interval time.Duration, loop bool, frames ...Texture) (*Animated, error) {
	clock, err := animation.NewClock(interval, loop)
	if err != nil {
		return nil, err
	}
	return &Animated{
		Collection: NewCollection(name, frames...),
		clock:      clock,
	}, nil
}

// Clock exposes the frame clock for stepping and timing control.
func (a *Animated) Clock() *animation.Clock {
	return a.clock
}

// Frame returns the index of the frame the clock currently selects.
func (a *Animated) Frame() int {
	return a.clock.Select(a.Len(), false).Frame
}

func (a *Animated) GoToNextFrame()     { a.clock.Next() }
func (a *Animated) GoToPreviousFrame() { a.clock.Previous() }
func (a *Animated) Restart()           { a.clock.RequestRestart() }

// Bind starts the clock on first use and binds the selected frame.
func (a *Animated) Bind(ctx gpu.Context, wrap gpu.WrapMode) error {
	a.clock.Activate()
	t := a.frameTexture()
	a.mu.Lock()
	a.bound = t
	a.mu.Unlock()
	return t.Bind(ctx, wrap)
}

// Unbind releases the frame bound by the last Bind, even if the clock has
// moved on since.
func (a *Animated) Unbind(ctx gpu.Context) {
	a.mu.Lock()
	t := a.bound
	a.bound = nil
	a.mu.Unlock()
	if t != nil {
		t.Unbind(ctx)
	}
}

func (a *Animated) Handle() uint32      { return a.frameTexture().Handle() }
func (a *Animated) Premultiplied() bool { return a.frameTexture().Premultiplied() }
func (a *Animated) IsEmpty() bool       { return a.frameTexture().IsEmpty() }

func (a *Animated) frameTexture() Texture {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.items) == 0 {
		return Empty
	}
	return a.items[a.clock.Select(len(a.items), false).Frame]
}

// CombineWith merges other's frames into a's index by index so each frame
// becomes a collection of both originals. An empty a adopts other's frames.
// other's frame is layered on top: the pair binds it as its current element.
func (a *Animated) CombineWith(other *Animated) error {
	if other == nil || other == a {
		return ErrSelfCombine
	}
	unlock := lockPair(a.Collection, other.Collection)
	defer unlock()

	if len(a.items) == 0 {
		for _, t := range other.items {
			t.AddReference()
			a.items = append(a.items, t)
		}
		return nil
	}
	if len(a.items) != len(other.items) {
		return errors.Wrapf(ErrFrameCountMismatch, "%d vs %d", len(a.items), len(other.items))
	}
	for i, t := range a.items {
		partner := other.items[i]
		partner.AddReference()
		pair := NewCollection(t.Name()+"+"+partner.Name(), t, partner)
		pair.current = 1
		a.items[i] = pair
	}
	return nil
}
