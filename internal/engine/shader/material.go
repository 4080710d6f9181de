package shader

import (
	"sync"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"

	"github.com/Faultbox/scenegraph/internal/engine/gpu"
)

var (
	// ErrNotBound is returned by Immediate sets when the material is not current.
	ErrNotBound = errors.New("material not bound")
	// ErrUnsupportedValue is returned for uniform values of an unknown type.
	ErrUnsupportedValue = errors.New("unsupported uniform value")
)

// BindResult is the outcome of making a material current.
type BindResult uint8

const (
	Bound BindResult = iota
	CompilationFailed
	LinkingFailed
)

func (r BindResult) String() string {
	switch r {
	case Bound:
		return "bound"
	case CompilationFailed:
		return "compilation failed"
	case LinkingFailed:
		return "linking failed"
	}
	return "unknown"
}

// SetMode controls when a uniform value reaches the program.
type SetMode uint8

const (
	// Immediate applies now and fails if the material is not current.
	Immediate SetMode = iota
	// IfContextAvailable applies now when possible, otherwise on next bind.
	IfContextAvailable
	// OnNextBind always defers to the next bind.
	OnNextBind
)

// Key names a uniform the engine writes.
type Key string

const (
	ProjectionMatrix    Key = "uProjection"
	ModelViewMatrix     Key = "uModelView"
	WorldViewMatrix     Key = "uWorldView"
	MaterialColor       Key = "uMaterialColor"
	AmbientColor        Key = "uAmbientColor"
	SpecularColor       Key = "uSpecularColor"
	Shininess           Key = "uShininess"
	InterpolationWeight Key = "uInterpolate"
	TextureEnabled      Key = "uUseTexture"
	LightingEnabled     Key = "uLightingEnabled"
	LightPosition       Key = "uLightPosition"
	LightColor          Key = "uLightColor"
)

// AttribKey names a vertex attribute the engine feeds.
type AttribKey string

const (
	PositionAttrib  AttribKey = "aPosition"
	TexCoordAttrib  AttribKey = "aTexCoord"
	NormalAttrib    AttribKey = "aNormal"
	Position2Attrib AttribKey = "aPosition2"
	Normal2Attrib   AttribKey = "aNormal2"
)

// Material is the shader program contract the scene graph renders through.
type Material interface {
	Bind(ctx gpu.Context) BindResult
	SetUniform(key Key, value any, mode SetMode) error
	// Attrib returns the location of an attribute, or false if the program does not use it.
	Attrib(key AttribKey) (uint32, bool)
}

// ValidateValue reports whether value can be written to a uniform.
func ValidateValue(value any) error {
	switch value.(type) {
	case float32, int32, int, bool, mgl32.Vec2, mgl32.Vec3, mgl32.Vec4, mgl32.Mat3, mgl32.Mat4:
		return nil
	}
	return errors.Wrapf(ErrUnsupportedValue, "%T", value)
}

// Entry is one stored uniform value.
type Entry struct {
	Key   Key
	Value any
}

// Store holds uniform values waiting for the next bind. Later sets of the
// same key replace earlier ones; drain order is first-set order.
type Store struct {
	mu     sync.Mutex
	values map[Key]any
	order  []Key
}

func (s *Store) Set(key Key, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.values == nil {
		s.values = map[Key]any{}
	}
	if _, ok := s.values[key]; !ok {
		s.order = append(s.order, key)
	}
	s.values[key] = value
}

func (s *Store) Get(key Key) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	return v, ok
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.order)
}

// Drain removes and returns every stored value.
func (s *Store) Drain() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Entry, len(s.order))
	for i, k := range s.order {
		out[i] = Entry{Key: k, Value: s.values[k]}
	}
	s.values = nil
	s.order = nil
	return out
}
