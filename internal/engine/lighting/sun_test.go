package lighting

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/scenegraph/internal/engine/gpu/gputest"
	"github.com/Faultbox/scenegraph/internal/engine/shader"
)

func TestSunDirection(t *testing.T) {
	tests := []struct {
		name     string
		lon, lat float32
		want     mgl32.Vec3
	}{
		{"zenith", 0, 90, mgl32.Vec3{0, 1, 0}},
		{"south horizon", 0, 0, mgl32.Vec3{0, 0, 1}},
		{"east horizon", 90, 0, mgl32.Vec3{1, 0, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SunDirection(tt.lon, tt.lat)
			if !got.ApproxEqualThreshold(tt.want, 1e-5) {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}

	if p := SunPosition(0, 90, 10); !p.ApproxEqualThreshold(mgl32.Vec3{0, 10, 0}, 1e-4) {
		t.Errorf("expected sun 10 units up, got %v", p)
	}
}

func TestApply(t *testing.T) {
	m := gputest.NewMaterial()
	l := Default()
	if err := l.Apply(m); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if v, _ := m.Value(shader.LightingEnabled); v != true {
		t.Errorf("expected lighting enabled, got %v", v)
	}
	if v, _ := m.Value(shader.LightPosition); v != l.Position {
		t.Errorf("expected position %v, got %v", l.Position, v)
	}

	m = gputest.NewMaterial()
	if err := (Light{}).Apply(m); err != nil {
		t.Fatal(err)
	}
	if v, _ := m.Value(shader.LightingEnabled); v != false {
		t.Errorf("expected lighting disabled, got %v", v)
	}
	if _, ok := m.Value(shader.LightColor); ok {
		t.Error("disabled light should not write its color")
	}
}
