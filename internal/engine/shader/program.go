package shader

import (
	_ "embed"
	"sync"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Faultbox/scenegraph/internal/engine/gpu"
	"github.com/Faultbox/scenegraph/internal/logger"
)

//go:embed shaders/mesh.vert
var meshVertexSource string

//go:embed shaders/mesh.frag
var meshFragmentSource string

var allAttribs = []AttribKey{PositionAttrib, TexCoordAttrib, NormalAttrib, Position2Attrib, Normal2Attrib}

// Program is a GL program implementing Material. It compiles lazily on
// the first Bind; a failed build is remembered and not retried.
type Program struct {
	vertexSrc   string
	fragmentSrc string

	mu       sync.Mutex
	id       uint32
	built    bool
	result   BindResult
	ctxID    uint64
	uniforms map[Key]int32
	attribs  map[AttribKey]uint32
	pending  Store
}

// NewProgram returns an unbuilt program from GLSL sources.
func NewProgram(vertexSrc, fragmentSrc string) *Program {
	return &Program{
		vertexSrc:   vertexSrc,
		fragmentSrc: fragmentSrc,
		uniforms:    map[Key]int32{},
		attribs:     map[AttribKey]uint32{},
	}
}

// NewMeshProgram returns the built-in program that blends primary and
// secondary vertex streams by the interpolation weight.
func NewMeshProgram() *Program {
	return NewProgram(meshVertexSource, meshFragmentSource)
}

var _ Material = (*Program)(nil)

// Bind makes the program current and applies deferred uniform values.
func (p *Program) Bind(ctx gpu.Context) BindResult {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.built {
		p.build()
	}
	if p.result != Bound {
		return p.result
	}

	gl.UseProgram(p.id)
	p.ctxID = ctx.ID()
	for _, e := range p.pending.Drain() {
		if err := p.apply(e.Key, e.Value); err != nil {
			logger.Named("shader").Warn("deferred uniform rejected", zap.String("key", string(e.Key)), zap.Error(err))
		}
	}
	return Bound
}

func (p *Program) build() {
	p.built = true
	id, err := CompileProgram(p.vertexSrc, p.fragmentSrc)
	p.result = classify(err)
	if err != nil {
		logger.Named("shader").Error("failed to build program",
			zap.Stringer("result", p.result), zap.Error(err))
		return
	}
	p.id = id
	for _, a := range allAttribs {
		if loc := GetAttrib(id, string(a)); loc >= 0 {
			p.attribs[a] = uint32(loc)
		}
	}
	logger.Named("shader").Debug("program built", zap.Uint32("program", id), zap.Int("attribs", len(p.attribs)))
}

// SetUniform writes value according to mode.
func (p *Program) SetUniform(key Key, value any, mode SetMode) error {
	if err := ValidateValue(value); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	switch mode {
	case Immediate:
		if !p.currentLocked() {
			return errors.Wrapf(ErrNotBound, "set %s", key)
		}
		return p.apply(key, value)
	case IfContextAvailable:
		if p.currentLocked() {
			return p.apply(key, value)
		}
	}
	p.pending.Set(key, value)
	return nil
}

// Attrib returns the location of an active attribute.
func (p *Program) Attrib(key AttribKey) (uint32, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	loc, ok := p.attribs[key]
	return loc, ok
}

// Delete frees the program on ctx's thread.
func (p *Program) Delete(ctx gpu.Context) {
	p.mu.Lock()
	id := p.id
	p.id, p.built = 0, false
	p.mu.Unlock()
	if id == 0 {
		return
	}
	if ctx.IsCurrent() {
		gl.DeleteProgram(id)
		return
	}
	ctx.Enqueue(func(gpu.Device) { gl.DeleteProgram(id) })
}

func (p *Program) currentLocked() bool {
	cur := gpu.Current()
	return p.id != 0 && cur != nil && cur.ID() == p.ctxID
}

func (p *Program) location(key Key) int32 {
	if loc, ok := p.uniforms[key]; ok {
		return loc
	}
	loc := GetUniform(p.id, string(key))
	p.uniforms[key] = loc
	return loc
}

func (p *Program) apply(key Key, value any) error {
	loc := p.location(key)
	if loc < 0 {
		// Inactive uniforms are optimized out by the driver.
		return nil
	}
	switch v := value.(type) {
	case float32:
		gl.Uniform1f(loc, v)
	case int32:
		gl.Uniform1i(loc, v)
	case int:
		gl.Uniform1i(loc, int32(v))
	case bool:
		var i int32
		if v {
			i = 1
		}
		gl.Uniform1i(loc, i)
	case mgl32.Vec2:
		gl.Uniform2f(loc, v[0], v[1])
	case mgl32.Vec3:
		gl.Uniform3f(loc, v[0], v[1], v[2])
	case mgl32.Vec4:
		gl.Uniform4f(loc, v[0], v[1], v[2], v[3])
	case mgl32.Mat3:
		gl.UniformMatrix3fv(loc, 1, false, &v[0])
	case mgl32.Mat4:
		gl.UniformMatrix4fv(loc, 1, false, &v[0])
	default:
		return errors.Wrapf(ErrUnsupportedValue, "%T", value)
	}
	return nil
}
