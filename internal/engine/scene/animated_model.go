package scene

import (
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Faultbox/scenegraph/internal/engine/animation"
	"github.com/Faultbox/scenegraph/internal/logger"
)

var (
	_ Node = (*MeshComponent)(nil)
	_ Node = (*Model)(nil)
	_ Node = (*AnimatedModel)(nil)
)

// AnimatedModel is a model whose children are frames of the same shape.
// Render draws the frame selected by its clock, blended toward the next
// frame when interpolation is on.
type AnimatedModel struct {
	*Model
	clock       *animation.Clock
	interpolate atomic.Bool
}

// NewAnimatedModel returns an animated model over frames.
func NewAnimatedModel(name string, interval time.Duration, loop, interpolate bool, frames ...Node) (*AnimatedModel, error) {
	clock, err := animation.NewClock(interval, loop)
	if err != nil {
		return nil, err
	}
	a := &AnimatedModel{Model: NewModel(name), clock: clock}
	a.Model.self = a
	a.interpolate.Store(interpolate)
	for _, f := range frames {
		if err := a.Add(f); err != nil {
			return nil, err
		}
	}
	return a, nil
}

// Clock exposes the frame clock for timing control.
func (a *AnimatedModel) Clock() *animation.Clock { return a.clock }

func (a *AnimatedModel) Interpolate() bool            { return a.interpolate.Load() }
func (a *AnimatedModel) SetInterpolate(on bool)       { a.interpolate.Store(on) }
func (a *AnimatedModel) FrameInterval() time.Duration { return a.clock.Interval() }
func (a *AnimatedModel) Loop() bool                   { return a.clock.Loop() }
func (a *AnimatedModel) SetLoop(loop bool)            { a.clock.SetLoop(loop) }

// SetFrameInterval changes the time per frame, keeping the current position.
func (a *AnimatedModel) SetFrameInterval(d time.Duration) error {
	return a.clock.SetInterval(d)
}

// CurrentFrame returns the index of the frame the clock selects now.
func (a *AnimatedModel) CurrentFrame() int {
	return a.clock.Select(a.Len(), false).Frame
}

func (a *AnimatedModel) GoToNextFrame()     { a.clock.Next() }
func (a *AnimatedModel) GoToPreviousFrame() { a.clock.Previous() }

// Restart rewinds to the first frame on the next render.
func (a *AnimatedModel) Restart() { a.clock.RequestRestart() }

// Render starts the clock on first use and draws the selected frame.
// The next argument is ignored; frames interpolate among themselves.
func (a *AnimatedModel) Render(f *Frame, _ Node) {
	a.mu.Lock()
	skip := a.disposed || !a.visible || a.alpha <= 0
	frames := append([]Node(nil), a.children...)
	a.mu.Unlock()
	if skip || len(frames) == 0 {
		return
	}

	a.clock.Activate()
	sel := a.clock.Select(len(frames), a.Interpolate())
	if sel.Next != sel.Frame {
		frames[sel.Frame].Render(f.WithWeight(sel.Weight), frames[sel.Next])
		return
	}
	frames[sel.Frame].Render(f, nil)
}

// Clone returns an animated model with cloned frames and a fresh clock.
func (a *AnimatedModel) Clone() Node {
	return a.CloneAnimated()
}

func (a *AnimatedModel) CloneAnimated() *AnimatedModel {
	clock, _ := animation.NewClock(a.clock.Interval(), a.clock.Loop())
	c := &AnimatedModel{Model: a.Model.CloneModel(), clock: clock}
	c.Model.self = c
	c.interpolate.Store(a.Interpolate())
	return c
}

// CombineWith merges other's frames into a's. When a has no frames it
// adopts clones of other's; otherwise both must have the same count and
// frame i becomes a model holding a's frame i and a clone of other's.
func (a *AnimatedModel) CombineWith(other *AnimatedModel) error {
	if other == nil || other == a {
		return errors.Wrap(ErrInvalidHierarchy, "combine with itself")
	}
	if isAncestor(a.Model, other.Model) || isAncestor(other.Model, a.Model) {
		return errors.Wrapf(ErrInvalidHierarchy, "%q and %q are nested", a.Name(), other.Name())
	}

	unlock := lockPair(a.Model, other.Model)
	mine := a.children
	theirs := append([]Node(nil), other.children...)
	if len(mine) != 0 && len(mine) != len(theirs) {
		unlock()
		return errors.Wrapf(ErrFrameCountMismatch, "%d frames against %d", len(mine), len(theirs))
	}

	dv, di := a.vertices, a.indices
	if len(mine) == 0 {
		for _, t := range theirs {
			a.adoptLocked(t.Clone())
		}
	} else {
		for i, f := range mine {
			f.link().parent.Store(nil)
			partner := theirs[i].Clone()
			composite := NewModel(f.Name() + "+" + partner.Name())
			composite.adoptLocked(f)
			composite.adoptLocked(partner)

			a.vertices += partner.Vertices()
			a.indices += partner.Indices()
			a.children[i] = composite
			composite.link().parent.Store(a.Model)
		}
	}
	dv, di = a.vertices-dv, a.indices-di
	unlock()

	a.propagateUp(dv, di)
	logger.Named("scene").Debug("animations combined",
		zap.String("model", a.Name()), zap.Int("frames", a.Len()))
	return nil
}
