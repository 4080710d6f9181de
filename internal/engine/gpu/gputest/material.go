package gputest

import (
	"sync"

	"github.com/Faultbox/scenegraph/internal/engine/gpu"
	"github.com/Faultbox/scenegraph/internal/engine/shader"
)

// Attribute locations reported by Material.
var attribLocations = map[shader.AttribKey]uint32{
	shader.PositionAttrib:  0,
	shader.TexCoordAttrib:  1,
	shader.NormalAttrib:    2,
	shader.Position2Attrib: 3,
	shader.Normal2Attrib:   4,
}

// UniformSet records one SetUniform call.
type UniformSet struct {
	Key   shader.Key
	Value any
	Mode  shader.SetMode
}

// Material is a recording shader.Material.
type Material struct {
	mu     sync.Mutex
	Result shader.BindResult
	binds  int
	sets   []UniformSet
	values map[shader.Key]any
}

func NewMaterial() *Material {
	return &Material{values: map[shader.Key]any{}}
}

var _ shader.Material = (*Material)(nil)

func (m *Material) Bind(gpu.Context) shader.BindResult {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.binds++
	return m.Result
}

func (m *Material) SetUniform(key shader.Key, value any, mode shader.SetMode) error {
	if err := shader.ValidateValue(value); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sets = append(m.sets, UniformSet{Key: key, Value: value, Mode: mode})
	m.values[key] = value
	return nil
}

func (m *Material) Attrib(key shader.AttribKey) (uint32, bool) {
	loc, ok := attribLocations[key]
	return loc, ok
}

// Binds returns the number of Bind calls.
func (m *Material) Binds() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.binds
}

// Value returns the last value written to key.
func (m *Material) Value(key shader.Key) (any, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	return v, ok
}

// History returns every value written to key, in order.
func (m *Material) History(key shader.Key) []any {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []any
	for _, s := range m.sets {
		if s.Key == key {
			out = append(out, s.Value)
		}
	}
	return out
}
