package gpu

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"
)

var (
	// ErrReleased is returned when binding an object whose handle was already freed.
	ErrReleased = errors.New("resource released")
	// ErrNotAllocated is returned when reading from an object that was never bound.
	ErrNotAllocated = errors.New("resource not allocated")
	// ErrNoContext is returned when a GPU call is attempted without a current context.
	ErrNoContext = errors.New("no current graphics context")
)

// Resource owns one native handle shared by reference counting.
// A new Resource holds one reference and no handle; the handle is
// generated on first Ensure and freed exactly once.
type Resource struct {
	kind Kind

	// refs counts references beyond the first.
	refs   atomic.Int32
	handle atomic.Uint32
	dead   atomic.Bool

	mu  sync.Mutex
	ctx Context
}

// NewResource returns an unallocated resource of the given kind.
func NewResource(kind Kind) *Resource {
	return &Resource{kind: kind}
}

func (r *Resource) Kind() Kind {
	return r.kind
}

// Handle returns the native handle, or 0 when unallocated or released.
func (r *Resource) Handle() uint32 {
	return r.handle.Load()
}

// Released reports whether the handle has been given up for good.
func (r *Resource) Released() bool {
	return r.dead.Load()
}

// References returns the current reference count.
func (r *Resource) References() int {
	if r.dead.Load() {
		return 0
	}
	return int(r.refs.Load()) + 1
}

// AddReference adds a reference and returns the new count.
func (r *Resource) AddReference() int {
	return int(r.refs.Add(1)) + 1
}

// Ensure returns the native handle, generating it on ctx if needed.
// allocated is true when this call created the handle.
func (r *Resource) Ensure(ctx Context) (handle uint32, allocated bool, err error) {
	if r.dead.Load() {
		return 0, false, ErrReleased
	}
	if h := r.handle.Load(); h != 0 {
		return h, false, nil
	}
	if ctx == nil || !ctx.IsCurrent() {
		return 0, false, ErrNoContext
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if h := r.handle.Load(); h != 0 {
		return h, false, nil
	}
	h := r.kind.gen(ctx.Device())
	if h == 0 {
		return 0, false, errors.Errorf("failed to generate %s", r.kind)
	}
	r.ctx = ctx
	r.handle.Store(h)
	return h, true, nil
}

// Release drops one reference, or every reference when force is set.
// It returns true on the call that gives up the handle. owner is reported
// in leak events if the handle cannot be deleted.
func (r *Resource) Release(force bool, owner any) bool {
	if r.dead.Load() {
		return false
	}
	if !force && r.refs.Add(-1) >= 0 {
		return false
	}
	if !r.dead.CompareAndSwap(false, true) {
		return false
	}
	r.free(owner, PhaseDisposing)
	return true
}

// Orphan handles an owner that became unreachable without disposing.
// It raises a Finalizing leak and defers deletion to the owning context;
// no device call is made from the calling goroutine.
func (r *Resource) Orphan(owner any) {
	if !r.dead.CompareAndSwap(false, true) {
		return
	}
	r.free(owner, PhaseFinalizing)
}

func (r *Resource) free(owner any, phase LeakPhase) {
	h := r.handle.Swap(0)
	if h == 0 {
		return
	}
	r.mu.Lock()
	ctx := r.ctx
	r.ctx = nil
	r.mu.Unlock()

	kind := r.kind
	if ctx == nil {
		RaiseLeak(LeakEvent{Object: owner, Phase: phase, Kind: kind, Handle: h, Err: ErrNoContext})
		return
	}

	if phase == PhaseDisposing && ctx.IsCurrent() {
		if err := kind.delete(ctx.Device(), h); err != nil {
			RaiseLeak(LeakEvent{Object: owner, Phase: phase, Kind: kind, Handle: h, Err: err})
		}
		return
	}

	// The queued action must not keep owner reachable.
	name := fmt.Sprintf("%T", owner)
	queued := ctx.Enqueue(func(d Device) {
		if err := kind.delete(d, h); err != nil {
			RaiseLeak(LeakEvent{Object: name, Phase: phase, Kind: kind, Handle: h, Err: err})
		}
	})
	switch {
	case !queued:
		RaiseLeak(LeakEvent{Object: owner, Phase: phase, Kind: kind, Handle: h, Err: ErrNoContext})
	case phase == PhaseFinalizing:
		RaiseLeak(LeakEvent{Object: owner, Phase: phase, Kind: kind, Handle: h})
	}
}
