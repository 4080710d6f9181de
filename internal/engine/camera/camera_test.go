package camera

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/scenegraph/pkg/mesh"
)

func TestOrbitPosition(t *testing.T) {
	tests := []struct {
		name       string
		pitch, yaw float32
		want       mgl32.Vec3
	}{
		{"front", 0, 0, mgl32.Vec3{0, 0, 5}},
		{"side", 0, math.Pi / 2, mgl32.Vec3{5, 0, 0}},
		{"above", math.Pi / 2, 0, mgl32.Vec3{0, 5, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewOrbitCamera()
			c.Distance, c.Pitch, c.Yaw = 5, tt.pitch, tt.yaw
			if got := c.Position(); !got.ApproxEqualThreshold(tt.want, 1e-4) {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestOrbitClamps(t *testing.T) {
	c := NewOrbitCamera()

	c.HandleDrag(0, 1e6)
	if c.Pitch != c.MaxPitch {
		t.Errorf("pitch should clamp to %f, got %f", c.MaxPitch, c.Pitch)
	}
	c.HandleDrag(0, -1e6)
	if c.Pitch != c.MinPitch {
		t.Errorf("pitch should clamp to %f, got %f", c.MinPitch, c.Pitch)
	}

	c.HandleZoom(100)
	if c.Distance != c.MinDistance {
		t.Errorf("distance should clamp to %f, got %f", c.MinDistance, c.Distance)
	}
}

func TestFitToBounds(t *testing.T) {
	c := NewOrbitCamera()
	b := mesh.Bounds{Min: mgl32.Vec3{-1, -1, -1}, Max: mgl32.Vec3{3, 1, 1}}
	c.FitToBounds(b)

	if c.Center != (mgl32.Vec3{1, 0, 0}) {
		t.Errorf("expected center (1,0,0), got %v", c.Center)
	}
	if c.Distance <= b.Size().Len()/2 {
		t.Errorf("distance %f should exceed the bounding radius", c.Distance)
	}

	before := *c
	c.FitToBounds(mesh.EmptyBounds())
	if *c != before {
		t.Error("empty bounds should leave the camera unchanged")
	}
}

func TestProjectionAspect(t *testing.T) {
	c := NewOrbitCamera()
	wide := c.ProjectionMatrix(200, 100)
	square := c.ProjectionMatrix(100, 0)
	if math.Abs(float64(wide.At(0, 0)*2-square.At(0, 0))) > 1e-5 {
		t.Errorf("wide aspect should halve the x scale: %f vs %f", wide.At(0, 0), square.At(0, 0))
	}
}
