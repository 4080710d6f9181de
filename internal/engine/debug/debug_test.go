package debug

import (
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/scenegraph/pkg/mesh"
)

func TestBoundsBox(t *testing.T) {
	b := mesh.Bounds{Min: mgl32.Vec3{-1, 0, -1}, Max: mgl32.Vec3{1, 2, 1}}
	box, err := BoundsBox("bounds", b, 0.5)
	if err != nil {
		t.Fatalf("BoundsBox failed: %v", err)
	}
	defer box.Dispose()

	if box.Vertices() != 8 || box.Triangles() != 12 {
		t.Errorf("expected 8 vertices and 12 triangles, got %d and %d", box.Vertices(), box.Triangles())
	}
	if !box.Wireframe() {
		t.Error("box should draw as wireframe")
	}

	got, err := box.Bounds()
	if err != nil {
		t.Fatal(err)
	}
	want := mesh.Bounds{Min: mgl32.Vec3{-1.5, -0.5, -1.5}, Max: mgl32.Vec3{1.5, 2.5, 1.5}}
	if got != want {
		t.Errorf("expected %v, got %v", want, got)
	}

	if err := FitBox(box, mesh.Bounds{Max: mgl32.Vec3{4, 4, 4}}, 0); err != nil {
		t.Fatalf("FitBox failed: %v", err)
	}
	if got, _ := box.Bounds(); got.Max != (mgl32.Vec3{4, 4, 4}) {
		t.Errorf("expected refit max (4,4,4), got %v", got.Max)
	}
}

func TestBoxIndicesInRange(t *testing.T) {
	if len(boxIndices) != 36 {
		t.Fatalf("expected 36 indices, got %d", len(boxIndices))
	}
	for i, v := range boxIndices {
		if v > 7 {
			t.Errorf("index %d out of range: %d", i, v)
		}
	}
}

func TestCaptureFromPixels(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "shots")
	sc := NewScreenshotCapture(dir, "scene")
	sc.now = func() time.Time { return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC) }

	// 1x2 image: bottom row red, top row blue, stored bottom-up
	pixels := []byte{255, 0, 0, 255, 0, 0, 255, 255}
	path, err := sc.CaptureFromPixels(pixels, 1, 2)
	if err != nil {
		t.Fatalf("capture failed: %v", err)
	}
	if filepath.Base(path) != "scene_2024-01-02_03-04-05.000.png" {
		t.Errorf("unexpected file name %s", filepath.Base(path))
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatal(err)
	}
	if _, _, b, _ := img.At(0, 0).RGBA(); b == 0 {
		t.Error("top row should be blue after flipping")
	}
	if r, _, _, _ := img.At(0, 1).RGBA(); r == 0 {
		t.Error("bottom row should be red after flipping")
	}

	if _, err := sc.CaptureFromPixels(pixels[:4], 1, 2); err == nil {
		t.Error("expected size mismatch error")
	}
}
