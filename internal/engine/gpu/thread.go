package gpu

import (
	"runtime"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/Faultbox/scenegraph/internal/logger"
)

var (
	nextContextID atomic.Uint64
	current       atomic.Pointer[Thread]
)

// Current returns the context running a frame on the calling goroutine, or nil.
func Current() *Thread {
	if t := current.Load(); t != nil && t.IsCurrent() {
		return t
	}
	return nil
}

// Thread dispatches work to a single graphics context. The context is
// current only on the OS thread executing Run or Sweep; any other goroutine
// that releases GPU objects gets its deletions queued until the next frame.
type Thread struct {
	id     uint64
	device Device

	active atomic.Bool
	closed atomic.Bool
	// owner is the OS thread id of the goroutine inside Run.
	owner atomic.Int64

	mu    sync.Mutex
	queue []func(Device)
}

// NewThread wraps device in a context dispatcher.
func NewThread(device Device) *Thread {
	return &Thread{
		id:     nextContextID.Add(1),
		device: device,
	}
}

func (t *Thread) ID() uint64 {
	return t.id
}

func (t *Thread) Device() Device {
	return t.device
}

// IsCurrent reports whether the calling goroutine is the one running a
// frame on this context.
func (t *Thread) IsCurrent() bool {
	return t.active.Load() && !t.closed.Load() && t.owner.Load() == osThreadID()
}

// Enqueue schedules action for the next Run or Sweep.
func (t *Thread) Enqueue(action func(Device)) bool {
	if t.closed.Load() {
		return false
	}
	t.mu.Lock()
	t.queue = append(t.queue, action)
	t.mu.Unlock()
	return true
}

// Pending returns the number of queued actions.
func (t *Thread) Pending() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.queue)
}

// Run makes the context current, drains queued actions, runs fn and drains again.
// It must be called from the OS thread that owns the native context.
func (t *Thread) Run(fn func(Device)) {
	t.run(fn)
}

// Sweep reclaims orphaned resources by running every queued action.
// It returns the number of actions executed.
func (t *Thread) Sweep() int {
	return t.run(nil)
}

func (t *Thread) run(fn func(Device)) int {
	if t.closed.Load() {
		return 0
	}
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	prevOwner := t.owner.Swap(osThreadID())
	prev := current.Swap(t)
	wasActive := t.active.Swap(true)
	defer func() {
		t.active.Store(wasActive)
		t.owner.Store(prevOwner)
		current.Store(prev)
	}()

	n := t.drain()
	if fn != nil {
		fn(t.device)
	}
	return n + t.drain()
}

// Close sweeps the queue one last time and rejects further work.
func (t *Thread) Close() {
	if n := t.Sweep(); n > 0 {
		logger.Named("gpu").Debug("swept queue on close", zap.Uint64("context", t.id), zap.Int("actions", n))
	}
	t.closed.Store(true)
	t.mu.Lock()
	dropped := len(t.queue)
	t.queue = nil
	t.mu.Unlock()
	if dropped > 0 {
		logger.Named("gpu").Warn("context closed with pending actions",
			zap.Uint64("context", t.id), zap.Int("dropped", dropped))
	}
}

func (t *Thread) drain() int {
	var n int
	for {
		t.mu.Lock()
		batch := t.queue
		t.queue = nil
		t.mu.Unlock()
		if len(batch) == 0 {
			return n
		}
		for _, action := range batch {
			action(t.device)
		}
		n += len(batch)
	}
}
