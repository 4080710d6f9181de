package gpu

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/Faultbox/scenegraph/internal/logger"
)

// LeakPhase is the point in an object's life where its handle escaped.
type LeakPhase uint8

const (
	// PhaseFinalizing means the owner became unreachable without being disposed.
	PhaseFinalizing LeakPhase = iota
	// PhaseDisposing means an explicit dispose could not free the handle.
	PhaseDisposing
)

func (p LeakPhase) String() string {
	if p == PhaseFinalizing {
		return "finalizing"
	}
	return "disposing"
}

// LeakEvent describes a native handle that could not be freed deterministically.
type LeakEvent struct {
	Object any
	Phase  LeakPhase
	Kind   Kind
	Handle uint32
	Err    error
}

var (
	leakMu       sync.RWMutex
	leakHandlers = map[int]func(LeakEvent){}
	leakNextID   int
)

// OnLeak registers fn to receive leak events. Call cancel to unregister.
// Handlers may run on any goroutine, including the finalizer goroutine.
func OnLeak(fn func(LeakEvent)) (cancel func()) {
	leakMu.Lock()
	id := leakNextID
	leakNextID++
	leakHandlers[id] = fn
	leakMu.Unlock()

	return func() {
		leakMu.Lock()
		delete(leakHandlers, id)
		leakMu.Unlock()
	}
}

// RaiseLeak logs ev and delivers it to every registered handler.
func RaiseLeak(ev LeakEvent) {
	fields := []zap.Field{
		zap.String("object", fmt.Sprintf("%T", ev.Object)),
		zap.Stringer("phase", ev.Phase),
		zap.Stringer("kind", ev.Kind),
		zap.Uint32("handle", ev.Handle),
	}
	if ev.Err != nil {
		fields = append(fields, zap.Error(ev.Err))
	}
	logger.Named("gpu").Warn("resource leaked", fields...)

	leakMu.RLock()
	handlers := make([]func(LeakEvent), 0, len(leakHandlers))
	for _, fn := range leakHandlers {
		handlers = append(handlers, fn)
	}
	leakMu.RUnlock()

	for _, fn := range handlers {
		fn(ev)
	}
}
