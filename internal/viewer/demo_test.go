package viewer

import (
	"testing"

	"github.com/Faultbox/scenegraph/internal/config"
	"github.com/Faultbox/scenegraph/internal/engine/gpu"
	"github.com/Faultbox/scenegraph/internal/engine/gpu/gputest"
	"github.com/Faultbox/scenegraph/internal/engine/scene"
)

func buildTestDemo(t *testing.T) *Demo {
	t.Helper()
	d, err := BuildDemo(config.Default(), nil)
	if err != nil {
		t.Fatalf("BuildDemo failed: %v", err)
	}
	t.Cleanup(d.Root.Dispose)
	return d
}

func TestGrid(t *testing.T) {
	vs, ix := grid(2, 2)
	if len(vs) != 9 {
		t.Errorf("expected 9 vertices, got %d", len(vs))
	}
	if ix.Len() != 24 {
		t.Errorf("expected 24 indices, got %d", ix.Len())
	}
	for _, v := range ix.Values {
		if int(v) >= len(vs) {
			t.Fatalf("index %d out of range", v)
		}
	}
}

func TestBuildDemoCounts(t *testing.T) {
	d := buildTestDemo(t)

	const (
		floorVertices = 6
		waveVertices  = (gridCells + 1) * (gridCells + 1)
		ringVertices  = ringSegments
	)
	if d.Floor.Vertices() != floorVertices {
		t.Errorf("floor: expected %d vertices, got %d", floorVertices, d.Floor.Vertices())
	}
	if d.Wave.Len() != demoFrames {
		t.Fatalf("expected %d frames, got %d", demoFrames, d.Wave.Len())
	}
	want := floorVertices + demoFrames*(waveVertices+ringVertices)
	if d.Root.Vertices() != want {
		t.Errorf("root: expected %d vertices, got %d", want, d.Root.Vertices())
	}
	if d.Root.Triangles() != d.Floor.Triangles()+d.Wave.Triangles() {
		t.Error("root triangles should sum its children")
	}
}

func TestBuildDemoFramesAreCombined(t *testing.T) {
	d := buildTestDemo(t)

	for i := 0; i < d.Wave.Len(); i++ {
		composite, ok := d.Wave.At(i).(*scene.Model)
		if !ok {
			t.Fatalf("frame %d: expected a composite model, got %T", i, d.Wave.At(i))
		}
		if composite.Len() != 2 {
			t.Fatalf("frame %d: expected 2 parts, got %d", i, composite.Len())
		}
		if err := composite.CheckPairable(d.Wave.At((i + 1) % d.Wave.Len())); err != nil {
			t.Errorf("frame %d should pair with its successor: %v", i, err)
		}
	}
	if got := d.Wave.At(3).Name(); got != "wave03+ring03" {
		t.Errorf("unexpected composite name %q", got)
	}
}

func TestBuildDemoFramesForked(t *testing.T) {
	d := buildTestDemo(t)

	first := d.Wave.At(0).(*scene.Model).At(0).(*scene.MeshComponent)
	later := d.Wave.At(6).(*scene.Model).At(0).(*scene.MeshComponent)
	if first.Shared() || later.Shared() {
		t.Error("displaced frames should own their geometry")
	}

	a, err := first.VertexData()
	if err != nil {
		t.Fatal(err)
	}
	b, err := later.VertexData()
	if err != nil {
		t.Fatal(err)
	}
	same := true
	for i := range a {
		if a[i].Position != b[i].Position {
			same = false
			break
		}
	}
	if same {
		t.Error("frames with different phases should have different vertices")
	}
}

func TestBuildDemoRenders(t *testing.T) {
	d := buildTestDemo(t)
	ctx, dev := gputest.NewContext()
	f := scene.NewFrame(ctx, gputest.NewMaterial())

	ctx.Run(func(gpu.Device) { d.Root.Render(f, nil) })

	// floor plus the two parts of the current composite frame
	if got := len(dev.Draws()); got != 3 {
		t.Errorf("expected 3 draws, got %d", got)
	}
}

func TestBuildDemoInvalidUsage(t *testing.T) {
	cfg := config.Default()
	cfg.Scene.UsageHint = "sometimes"
	if _, err := BuildDemo(cfg, nil); err == nil {
		t.Error("expected error for unknown usage hint")
	}
}
