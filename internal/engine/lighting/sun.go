// Package lighting provides the light the mesh material shades with.
package lighting

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/multierr"

	"github.com/Faultbox/scenegraph/internal/engine/shader"
)

// Light is a single point light. A disabled light leaves meshes unshaded.
type Light struct {
	Enabled  bool
	Position mgl32.Vec3
	Color    mgl32.Vec4
}

// Default returns a white light placed like an afternoon sun.
func Default() Light {
	return Light{
		Enabled:  true,
		Position: SunPosition(45, 50, 100),
		Color:    mgl32.Vec4{1, 1, 1, 1},
	}
}

// SunDirection converts longitude/latitude in degrees to a unit vector
// pointing at the sun. Longitude rotates around Y; latitude is elevation
// above the horizon.
func SunDirection(longitude, latitude float32) mgl32.Vec3 {
	lon := float64(mgl32.DegToRad(longitude))
	lat := float64(mgl32.DegToRad(latitude))
	return mgl32.Vec3{
		float32(math.Cos(lat) * math.Sin(lon)),
		float32(math.Sin(lat)),
		float32(math.Cos(lat) * math.Cos(lon)),
	}
}

// SunPosition places a point light distance units toward the sun.
func SunPosition(longitude, latitude, distance float32) mgl32.Vec3 {
	return SunDirection(longitude, latitude).Mul(distance)
}

// Apply writes the light uniforms to m, now if m is current and
// otherwise on its next bind.
func (l Light) Apply(m shader.Material) error {
	err := m.SetUniform(shader.LightingEnabled, l.Enabled, shader.IfContextAvailable)
	if !l.Enabled {
		return err
	}
	return multierr.Combine(err,
		m.SetUniform(shader.LightPosition, l.Position, shader.IfContextAvailable),
		m.SetUniform(shader.LightColor, l.Color, shader.IfContextAvailable),
	)
}
