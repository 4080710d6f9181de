package scene

import (
	"go.uber.org/zap"

	"github.com/Faultbox/scenegraph/internal/engine/buffer"
	"github.com/Faultbox/scenegraph/internal/engine/gpu"
	"github.com/Faultbox/scenegraph/internal/engine/shader"
	"github.com/Faultbox/scenegraph/internal/engine/texture"
	"github.com/Faultbox/scenegraph/internal/logger"
	"github.com/Faultbox/scenegraph/pkg/mesh"
)

// lowOpacityThreshold is the cumulative alpha below which meshes take the
// translucent path.
const lowOpacityThreshold = 0.97

// Render draws the mesh. A MeshComponent passed as next becomes the
// interpolation partner.
func (m *MeshComponent) Render(f *Frame, next Node) {
	partner, _ := next.(*MeshComponent)
	m.RenderWith(f, nil, partner)
}

// RenderWith draws the mesh with an optional texture override and
// interpolation partner. Failures are logged and skip the draw.
func (m *MeshComponent) RenderWith(f *Frame, tex texture.Texture, partner *MeshComponent) {
	if m.disposed || !m.visible || m.vertexCount == 0 || m.indexCount == 0 {
		return
	}
	alpha := m.CumulativeAlpha()
	if alpha <= 0 {
		return
	}

	log := logger.Named("scene")
	ctx := f.Context
	if err := m.FlushBuffer(ctx); err != nil {
		log.Warn("mesh upload failed", zap.String("mesh", m.name), zap.Error(err))
		return
	}
	partner = m.usablePartner(ctx, partner)

	if res := f.Material.Bind(ctx); res != shader.Bound {
		log.Warn("material bind failed", zap.String("mesh", m.name), zap.Stringer("result", res))
		return
	}

	if m.onBegin != nil {
		m.onBegin(m, f)
	}
	if m.onEnd != nil {
		defer m.onEnd(m, f)
	}

	tex = m.bindTexture(f, tex)
	defer tex.Unbind(ctx)

	world := m.WorldMatrix()
	color := m.color
	color[3] *= alpha
	m.setUniform(f, shader.ProjectionMatrix, f.Projection)
	m.setUniform(f, shader.ModelViewMatrix, f.View.Mul4(world))
	m.setUniform(f, shader.WorldViewMatrix, world)
	m.setUniform(f, shader.MaterialColor, color)
	m.setUniform(f, shader.AmbientColor, m.ambient)
	m.setUniform(f, shader.SpecularColor, m.specular)
	m.setUniform(f, shader.Shininess, m.shininess)
	m.setUniform(f, shader.TextureEnabled, !tex.IsEmpty())

	d := ctx.Device()
	low := m.lowOpacity || alpha < lowOpacityThreshold
	d.SetDepthMask(!low)
	d.SetCulling(m.culling && !low)
	d.SetWireframe(m.wireframe)
	d.SetPremultipliedBlend(tex.Premultiplied())
	defer restoreState(d)

	if err := m.bindLayout(ctx); err != nil {
		log.Error("vertex binding unrecoverable, skipping draw",
			zap.String("mesh", m.name), zap.Error(err))
		return
	}
	defer m.binding.Unbind(ctx)

	if err := m.bindAttributes(f, partner); err != nil {
		log.Warn("vertex attributes unavailable", zap.String("mesh", m.name), zap.Error(err))
		return
	}
	if err := m.indices.Bind(ctx); err != nil {
		log.Warn("index buffer unavailable", zap.String("mesh", m.name), zap.Error(err))
		return
	}

	var weight float32
	if partner != nil {
		weight = f.Weight()
	}
	m.setUniform(f, shader.InterpolationWeight, weight)
	d.DrawElements(int32(m.indices.Count()), m.indices.Width())
	if weight != 0 {
		m.setUniform(f, shader.InterpolationWeight, float32(0))
	}
}

// usablePartner returns partner when it can feed the secondary stream.
func (m *MeshComponent) usablePartner(ctx gpu.Context, partner *MeshComponent) *MeshComponent {
	if partner == nil || partner == m || partner.disposed {
		return nil
	}
	if partner.vertexCount != m.vertexCount {
		logger.Named("scene").Debug("interpolation partner has a different vertex count",
			zap.String("mesh", m.name),
			zap.Int("vertices", m.vertexCount),
			zap.Int("partner", partner.vertexCount))
		return nil
	}
	if err := partner.FlushBuffer(ctx); err != nil {
		logger.Named("scene").Warn("partner upload failed", zap.String("mesh", partner.name), zap.Error(err))
		return nil
	}
	return partner
}

// bindTexture binds the override, the mesh texture or the frame default,
// in that order of preference, and returns what was bound.
func (m *MeshComponent) bindTexture(f *Frame, tex texture.Texture) texture.Texture {
	if tex == nil {
		tex = m.Texture()
	}
	if tex == nil || tex.IsEmpty() {
		tex = f.defaultTexture()
	}
	if err := tex.Bind(f.Context, m.wrap); err != nil {
		logger.Named("scene").Warn("texture bind failed",
			zap.String("mesh", m.name), zap.String("texture", tex.Name()), zap.Error(err))
		tex = texture.Empty
		_ = tex.Bind(f.Context, m.wrap)
	}
	return tex
}

func (m *MeshComponent) setUniform(f *Frame, key shader.Key, value any) {
	if err := f.Material.SetUniform(key, value, shader.IfContextAvailable); err != nil {
		logger.Named("scene").Debug("uniform not set", zap.String("key", string(key)), zap.Error(err))
	}
}

// bindLayout binds the vertex binding, reallocating it once if the device
// rejects the bind.
func (m *MeshComponent) bindLayout(ctx gpu.Context) error {
	err := m.binding.Bind(ctx)
	if err == nil {
		return nil
	}
	logger.Named("scene").Debug("vertex binding lost, reallocating",
		zap.String("mesh", m.name), zap.Uint32("handle", m.binding.Handle()), zap.Error(err))
	m.binding.Dispose(true)
	m.binding = buffer.NewVertexBinding()
	return m.binding.Bind(ctx)
}

// bindAttributes points the primary stream at the mesh geometry and the
// secondary stream at the partner's, or at the mesh itself without one.
func (m *MeshComponent) bindAttributes(f *Frame, partner *MeshComponent) error {
	ctx := f.Context
	if err := m.geometry.Bind(ctx); err != nil {
		return err
	}
	attribPointer(f, shader.PositionAttrib, 3, mesh.PositionOffset)
	attribPointer(f, shader.TexCoordAttrib, 2, mesh.TexCoordOffset)
	attribPointer(f, shader.NormalAttrib, 3, mesh.NormalOffset)

	secondary := m.geometry
	if partner != nil {
		secondary = partner.geometry
	}
	if err := secondary.Bind(ctx); err != nil {
		return err
	}
	attribPointer(f, shader.Position2Attrib, 3, mesh.PositionOffset)
	attribPointer(f, shader.Normal2Attrib, 3, mesh.NormalOffset)
	return nil
}

func attribPointer(f *Frame, key shader.AttribKey, size int32, offset int) {
	loc, ok := f.Material.Attrib(key)
	if !ok {
		return
	}
	d := f.Context.Device()
	d.EnableVertexAttrib(loc)
	d.VertexAttribPointer(loc, size, int32(mesh.VertexSize), offset)
}

func restoreState(d gpu.Device) {
	d.SetDepthMask(true)
	d.SetCulling(false)
	d.SetWireframe(false)
	d.SetPremultipliedBlend(false)
}
