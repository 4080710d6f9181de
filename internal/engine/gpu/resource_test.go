package gpu_test

import (
	"sync"
	"testing"

	"github.com/pkg/errors"

	"github.com/Faultbox/scenegraph/internal/engine/gpu"
	"github.com/Faultbox/scenegraph/internal/engine/gpu/gputest"
)

func collectLeaks(t *testing.T) *[]gpu.LeakEvent {
	t.Helper()
	var mu sync.Mutex
	events := &[]gpu.LeakEvent{}
	cancel := gpu.OnLeak(func(ev gpu.LeakEvent) {
		mu.Lock()
		*events = append(*events, ev)
		mu.Unlock()
	})
	t.Cleanup(cancel)
	return events
}

func allocate(t *testing.T, ctx *gpu.Thread, r *gpu.Resource) uint32 {
	t.Helper()
	var h uint32
	ctx.Run(func(gpu.Device) {
		var err error
		h, _, err = r.Ensure(ctx)
		if err != nil {
			t.Fatalf("ensure failed: %v", err)
		}
	})
	return h
}

func TestResourceReferenceCounting(t *testing.T) {
	tests := []struct {
		name string
		refs int
	}{
		{"single owner", 0},
		{"one extra", 1},
		{"three extra", 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, dev := gputest.NewContext()
			r := gpu.NewResource(gpu.KindBuffer)
			h := allocate(t, ctx, r)

			for i := 0; i < tt.refs; i++ {
				r.AddReference()
			}
			if got := r.References(); got != tt.refs+1 {
				t.Fatalf("expected %d references, got %d", tt.refs+1, got)
			}

			ctx.Run(func(gpu.Device) {
				for i := 0; i < tt.refs; i++ {
					if r.Release(false, r) {
						t.Fatalf("release %d freed early", i)
					}
				}
				if !r.Release(false, r) {
					t.Fatal("last release did not free")
				}
				if r.Release(false, r) {
					t.Fatal("extra release freed twice")
				}
			})

			if del := dev.Deleted(gpu.KindBuffer); len(del) != 1 || del[0] != h {
				t.Errorf("expected exactly one delete of %d, got %v", h, del)
			}
			if r.Handle() != 0 {
				t.Errorf("handle should reset to 0, got %d", r.Handle())
			}
		})
	}
}

func TestResourceForceReleaseIdempotent(t *testing.T) {
	ctx, dev := gputest.NewContext()
	r := gpu.NewResource(gpu.KindVertexArray)
	allocate(t, ctx, r)
	r.AddReference()
	r.AddReference()

	ctx.Run(func(gpu.Device) {
		if !r.Release(true, r) {
			t.Fatal("forced release should free")
		}
		if r.Release(true, r) || r.Release(false, r) {
			t.Fatal("second release should be a no-op")
		}
	})

	if n := len(dev.Deleted(gpu.KindVertexArray)); n != 1 {
		t.Errorf("expected 1 delete, got %d", n)
	}
	if r.References() != 0 {
		t.Errorf("released resource should report 0 references, got %d", r.References())
	}
}

func TestResourceEnsure(t *testing.T) {
	ctx, _ := gputest.NewContext()
	r := gpu.NewResource(gpu.KindTexture)

	if _, _, err := r.Ensure(ctx); !errors.Is(err, gpu.ErrNoContext) {
		t.Errorf("expected ErrNoContext outside Run, got %v", err)
	}

	ctx.Run(func(gpu.Device) {
		h1, allocated, err := r.Ensure(ctx)
		if err != nil || !allocated || h1 == 0 {
			t.Fatalf("first ensure: handle %d allocated %v err %v", h1, allocated, err)
		}
		h2, allocated, _ := r.Ensure(ctx)
		if h2 != h1 || allocated {
			t.Errorf("second ensure should reuse handle %d, got %d (allocated %v)", h1, h2, allocated)
		}
		r.Release(true, r)
		if _, _, err := r.Ensure(ctx); !errors.Is(err, gpu.ErrReleased) {
			t.Errorf("expected ErrReleased, got %v", err)
		}
	})
}

func TestResourceReleaseOffThreadIsDeferred(t *testing.T) {
	ctx, dev := gputest.NewContext()
	leaks := collectLeaks(t)
	r := gpu.NewResource(gpu.KindBuffer)
	allocate(t, ctx, r)

	if !r.Release(false, r) {
		t.Fatal("release should give up the handle")
	}
	if n := len(dev.Deleted(gpu.KindBuffer)); n != 0 {
		t.Fatalf("delete must wait for the context, got %d deletes", n)
	}
	if ctx.Pending() != 1 {
		t.Fatalf("expected 1 queued action, got %d", ctx.Pending())
	}

	if n := ctx.Sweep(); n != 1 {
		t.Errorf("expected sweep to run 1 action, ran %d", n)
	}
	if n := len(dev.Deleted(gpu.KindBuffer)); n != 1 {
		t.Errorf("expected 1 delete after sweep, got %d", n)
	}
	if len(*leaks) != 0 {
		t.Errorf("deferred delete is not a leak, got %v", *leaks)
	}
}

func TestResourceDeleteFailureRaisesLeak(t *testing.T) {
	ctx, dev := gputest.NewContext()
	leaks := collectLeaks(t)
	r := gpu.NewResource(gpu.KindBuffer)
	h := allocate(t, ctx, r)

	dev.FailDeletes(gpu.KindBuffer, errors.New("device lost"))
	ctx.Run(func(gpu.Device) {
		r.Release(false, r)
	})

	if len(*leaks) != 1 {
		t.Fatalf("expected 1 leak event, got %d", len(*leaks))
	}
	ev := (*leaks)[0]
	if ev.Phase != gpu.PhaseDisposing || ev.Handle != h || ev.Kind != gpu.KindBuffer {
		t.Errorf("unexpected event %+v", ev)
	}
	if ev.Object != r {
		t.Errorf("expected owner in event, got %T", ev.Object)
	}
}

func TestResourceOrphan(t *testing.T) {
	ctx, dev := gputest.NewContext()
	leaks := collectLeaks(t)
	r := gpu.NewResource(gpu.KindTexture)
	h := allocate(t, ctx, r)

	r.Orphan(r)
	r.Orphan(r)

	if len(*leaks) != 1 || (*leaks)[0].Phase != gpu.PhaseFinalizing || (*leaks)[0].Handle != h {
		t.Fatalf("expected one finalizing leak for %d, got %+v", h, *leaks)
	}
	if n := len(dev.Deleted(gpu.KindTexture)); n != 0 {
		t.Fatal("orphan must not touch the device directly")
	}
	ctx.Sweep()
	if n := len(dev.Deleted(gpu.KindTexture)); n != 1 {
		t.Errorf("expected deferred delete after sweep, got %d", n)
	}
}

func TestResourceOrphanUnallocated(t *testing.T) {
	leaks := collectLeaks(t)
	r := gpu.NewResource(gpu.KindBuffer)
	r.Orphan(r)
	if len(*leaks) != 0 {
		t.Errorf("unallocated resource cannot leak, got %+v", *leaks)
	}
}

func TestResourceReleaseAfterContextClosed(t *testing.T) {
	ctx, _ := gputest.NewContext()
	leaks := collectLeaks(t)
	r := gpu.NewResource(gpu.KindBuffer)
	allocate(t, ctx, r)
	ctx.Close()

	r.Release(false, r)
	if len(*leaks) != 1 {
		t.Fatalf("expected leak when context is gone, got %d", len(*leaks))
	}
	if !errors.Is((*leaks)[0].Err, gpu.ErrNoContext) {
		t.Errorf("expected ErrNoContext, got %v", (*leaks)[0].Err)
	}
}

func TestResourceReleaseFromWorkerDuringRun(t *testing.T) {
	ctx, dev := gputest.NewContext()
	leaks := collectLeaks(t)
	r := gpu.NewResource(gpu.KindBuffer)
	allocate(t, ctx, r)
	other := gpu.NewResource(gpu.KindBuffer)

	ctx.Run(func(gpu.Device) {
		done := make(chan error)
		go func() {
			r.Release(false, r)
			_, _, err := other.Ensure(ctx)
			done <- err
		}()
		if err := <-done; !errors.Is(err, gpu.ErrNoContext) {
			t.Errorf("allocation off the context goroutine should fail, got %v", err)
		}
		if n := len(dev.Deleted(gpu.KindBuffer)); n != 0 {
			t.Errorf("worker release must not delete directly, got %d deletes", n)
		}
		if ctx.Pending() != 1 {
			t.Errorf("expected the delete to be queued, got %d pending", ctx.Pending())
		}
	})

	if n := len(dev.Deleted(gpu.KindBuffer)); n != 1 {
		t.Errorf("expected the queued delete to run at the end of the frame, got %d", n)
	}
	if len(*leaks) != 0 {
		t.Errorf("deferred delete is not a leak, got %v", *leaks)
	}
}

func TestResourceConcurrentReferences(t *testing.T) {
	ctx, dev := gputest.NewContext()
	r := gpu.NewResource(gpu.KindBuffer)
	allocate(t, ctx, r)

	const workers = 16
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.AddReference()
		}()
	}
	wg.Wait()

	var freed int
	var mu sync.Mutex
	for i := 0; i < workers+1; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if r.Release(false, r) {
				mu.Lock()
				freed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	ctx.Sweep()

	if freed != 1 {
		t.Errorf("expected exactly one freeing release, got %d", freed)
	}
	if n := len(dev.Deleted(gpu.KindBuffer)); n != 1 {
		t.Errorf("expected 1 delete, got %d", n)
	}
}
