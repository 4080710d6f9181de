// Package camera provides the orbit camera used to view a scene.
package camera

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/scenegraph/pkg/mesh"
)

// OrbitCamera orbits around a center point.
type OrbitCamera struct {
	Center mgl32.Vec3

	// Spherical coordinates
	Distance float32
	Pitch    float32 // radians
	Yaw      float32 // radians

	MinDistance float32
	MaxDistance float32
	MinPitch    float32
	MaxPitch    float32

	DragSensitivity float32
	ZoomSensitivity float32

	// Perspective
	FOV  float32 // degrees
	Near float32
	Far  float32
}

// NewOrbitCamera creates an orbit camera with default settings.
func NewOrbitCamera() *OrbitCamera {
	return &OrbitCamera{
		Distance:        5,
		Pitch:           0.5,
		MinDistance:     0.1,
		MaxDistance:     5000,
		MinPitch:        -1.5,
		MaxPitch:        1.5,
		DragSensitivity: 0.005,
		ZoomSensitivity: 0.1,
		FOV:             45,
		Near:            0.01,
		Far:             10000,
	}
}

// Position returns the camera position in world space.
func (c *OrbitCamera) Position() mgl32.Vec3 {
	cp, sp := cosSin(c.Pitch)
	cy, sy := cosSin(c.Yaw)
	return c.Center.Add(mgl32.Vec3{
		c.Distance * cp * sy,
		c.Distance * sp,
		c.Distance * cp * cy,
	})
}

// ViewMatrix returns the view matrix for this camera.
func (c *OrbitCamera) ViewMatrix() mgl32.Mat4 {
	return mgl32.LookAtV(c.Position(), c.Center, mgl32.Vec3{0, 1, 0})
}

// ProjectionMatrix returns a perspective projection for a viewport of
// the given size. A zero height is treated as square.
func (c *OrbitCamera) ProjectionMatrix(width, height int) mgl32.Mat4 {
	aspect := float32(1)
	if height > 0 {
		aspect = float32(width) / float32(height)
	}
	return mgl32.Perspective(mgl32.DegToRad(c.FOV), aspect, c.Near, c.Far)
}

// HandleDrag updates rotation based on mouse drag delta.
func (c *OrbitCamera) HandleDrag(deltaX, deltaY float32) {
	c.Yaw -= deltaX * c.DragSensitivity
	c.Pitch = mgl32.Clamp(c.Pitch+deltaY*c.DragSensitivity, c.MinPitch, c.MaxPitch)
}

// HandleZoom updates distance based on scroll wheel delta.
func (c *OrbitCamera) HandleZoom(delta float32) {
	c.Distance = mgl32.Clamp(c.Distance-delta*c.Distance*c.ZoomSensitivity, c.MinDistance, c.MaxDistance)
}

// FitToBounds centers the camera on b and backs off far enough to see it.
// Empty bounds leave the camera unchanged.
func (c *OrbitCamera) FitToBounds(b mesh.Bounds) {
	if b.IsEmpty() {
		return
	}
	c.Center = b.Center()

	radius := b.Size().Len() / 2
	half := mgl32.DegToRad(c.FOV) / 2
	d := radius / float32(math.Sin(float64(half)))
	c.Distance = mgl32.Clamp(d, c.MinDistance, c.MaxDistance)
}

func cosSin(a float32) (float32, float32) {
	s, co := math.Sincos(float64(a))
	return float32(co), float32(s)
}
