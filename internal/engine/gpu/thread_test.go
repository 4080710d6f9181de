package gpu_test

import (
	"testing"

	"github.com/Faultbox/scenegraph/internal/engine/gpu"
	"github.com/Faultbox/scenegraph/internal/engine/gpu/gputest"
)

func TestThreadRun(t *testing.T) {
	ctx, _ := gputest.NewContext()

	if ctx.IsCurrent() {
		t.Fatal("context should not be current outside Run")
	}

	var order []string
	ctx.Enqueue(func(gpu.Device) { order = append(order, "queued") })
	ctx.Run(func(gpu.Device) {
		if !ctx.IsCurrent() {
			t.Error("context should be current inside Run")
		}
		if gpu.Current() != ctx {
			t.Error("Current should return the running context")
		}
		order = append(order, "frame")
		ctx.Enqueue(func(gpu.Device) { order = append(order, "late") })
	})

	want := []string{"queued", "frame", "late"}
	if len(order) != len(want) {
		t.Fatalf("expected %v, got %v", want, order)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("step %d: expected %s, got %s", i, want[i], order[i])
		}
	}
	if gpu.Current() != nil {
		t.Error("Current should be nil after Run")
	}
}

func TestThreadNestedSweep(t *testing.T) {
	ctx, _ := gputest.NewContext()
	ctx.Run(func(gpu.Device) {
		ctx.Sweep()
		if !ctx.IsCurrent() {
			t.Error("nested sweep must not clear the outer frame")
		}
	})
}

func TestThreadIDsAreUnique(t *testing.T) {
	a, _ := gputest.NewContext()
	b, _ := gputest.NewContext()
	if a.ID() == b.ID() {
		t.Errorf("expected distinct ids, both %d", a.ID())
	}
}

func TestThreadClose(t *testing.T) {
	ctx, _ := gputest.NewContext()
	ran := false
	ctx.Enqueue(func(gpu.Device) { ran = true })
	ctx.Close()

	if !ran {
		t.Error("close should sweep pending actions")
	}
	if ctx.Enqueue(func(gpu.Device) {}) {
		t.Error("enqueue after close should be rejected")
	}
	if ctx.IsCurrent() {
		t.Error("closed context cannot be current")
	}
}

func TestParseUsage(t *testing.T) {
	tests := []struct {
		in      string
		want    gpu.Usage
		wantErr bool
	}{
		{"", gpu.StaticDraw, false},
		{"static", gpu.StaticDraw, false},
		{"Dynamic", gpu.DynamicDraw, false},
		{"stream", gpu.StreamDraw, false},
		{"often", gpu.StaticDraw, true},
	}

	for _, tt := range tests {
		got, err := gpu.ParseUsage(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseUsage(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseUsage(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestThreadCurrentOnlyOnRunningGoroutine(t *testing.T) {
	ctx, _ := gputest.NewContext()
	ctx.Run(func(gpu.Device) {
		done := make(chan bool)
		go func() {
			done <- ctx.IsCurrent() || gpu.Current() != nil
		}()
		if <-done {
			t.Error("context must not be current on another goroutine during Run")
		}
		if !ctx.IsCurrent() {
			t.Error("context should stay current for the running goroutine")
		}
	})
}
