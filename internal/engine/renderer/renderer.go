// Package renderer provides the OpenGL backend the BSP walker draws through.
package renderer

import (
	"fmt"
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"

	"github.com/Faultbox/blackbloc/internal/engine/bsp"
	"github.com/Faultbox/blackbloc/internal/engine/shader"
	"github.com/Faultbox/blackbloc/internal/engine/texture"
	"github.com/Faultbox/blackbloc/internal/logger"
	"github.com/Faultbox/blackbloc/pkg/math"
)

// floatsPerVertex is position (3), decal UV (2), lightmap UV (2).
const floatsPerVertex = 7

// Config holds renderer configuration.
type Config struct {
	Width  int
	Height int
}

// Stats holds per-frame counters.
type Stats struct {
	DrawCalls int
	Vertices  int
}

var (
	_ bsp.Backend      = (*Renderer)(nil)
	_ texture.Uploader = (*Renderer)(nil)
)

// Renderer implements bsp.Backend and texture.Uploader on OpenGL 4.1 core.
type Renderer struct {
	config Config

	world *shader.Program

	// polygons are streamed through one buffer, one triangle fan per draw
	vao     uint32
	vbo     uint32
	scratch []float32

	layer bsp.UVLayer
	stats Stats
}

// New creates a new renderer.
// Must be called after the OpenGL context is created.
func New(cfg Config) (*Renderer, error) {
	r := &Renderer{
		config: cfg,
		layer:  -1,
	}

	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}

	logger.Info("OpenGL initialized",
		zap.String("version", gl.GoStr(gl.GetString(gl.VERSION))),
		zap.String("renderer", gl.GoStr(gl.GetString(gl.RENDERER))),
	)

	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LEQUAL)
	gl.Enable(gl.CULL_FACE)
	gl.CullFace(gl.BACK)
	gl.ClearColor(0, 0, 0, 1)
	gl.Viewport(0, 0, int32(cfg.Width), int32(cfg.Height))

	var err error
	r.world, err = shader.NewProgram(shader.WorldVertexShader, shader.WorldFragmentShader)
	if err != nil {
		return nil, fmt.Errorf("failed to create world shader: %w", err)
	}
	r.world.Use()
	r.world.SetInt("uTexture", 0)

	r.createStreamBuffer()
	return r, nil
}

func (r *Renderer) createStreamBuffer() {
	gl.GenVertexArrays(1, &r.vao)
	gl.BindVertexArray(r.vao)

	gl.GenBuffers(1, &r.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, r.vbo)

	stride := int32(floatsPerVertex * 4)
	gl.VertexAttribPointer(0, 3, gl.FLOAT, false, stride, nil)
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointer(1, 2, gl.FLOAT, false, stride, unsafe.Pointer(uintptr(3*4)))
	gl.EnableVertexAttribArray(1)
	gl.VertexAttribPointer(2, 2, gl.FLOAT, false, stride, unsafe.Pointer(uintptr(5*4)))
	gl.EnableVertexAttribArray(2)

	logger.Debug("stream buffer created", zap.Uint32("vao", r.vao), zap.Uint32("vbo", r.vbo))
}

// Close cleans up renderer resources.
func (r *Renderer) Close() {
	logger.Info("closing renderer")
	if r.vao != 0 {
		gl.DeleteVertexArrays(1, &r.vao)
	}
	if r.vbo != 0 {
		gl.DeleteBuffers(1, &r.vbo)
	}
	if r.world != nil {
		r.world.Delete()
	}
}

// Resize handles window resize.
func (r *Renderer) Resize(width, height int) {
	r.config.Width = width
	r.config.Height = height
	gl.Viewport(0, 0, int32(width), int32(height))
	logger.Debug("renderer resized", zap.Int("width", width), zap.Int("height", height))
}

// Aspect returns the viewport's width over height.
func (r *Renderer) Aspect() float32 {
	if r.config.Height == 0 {
		return 1
	}
	return float32(r.config.Width) / float32(r.config.Height)
}

// Begin starts a new frame with the given view-projection matrix.
func (r *Renderer) Begin(viewProj math.Mat4) {
	r.stats = Stats{}
	gl.DepthMask(true)
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)

	r.world.Use()
	r.world.SetMat4("uViewProj", viewProj.Ptr())
	gl.BindVertexArray(r.vao)
	gl.BindBuffer(gl.ARRAY_BUFFER, r.vbo)
}

// End finishes the current frame.
func (r *Renderer) End() {
	gl.BindVertexArray(0)
}

// Stats returns the counters of the frame in progress or last finished.
func (r *Renderer) Stats() Stats {
	return r.stats
}

// CreateTexture uploads a lightmap page: linear filtering, no mipmaps.
func (r *Renderer) CreateTexture(width, height int, rgba []byte) (bsp.TextureID, error) {
	return r.UploadTexture(width, height, rgba, false)
}

// UploadTexture creates an RGBA texture. Mipmapped textures repeat; others clamp.
func (r *Renderer) UploadTexture(width, height int, rgba []byte, mipmaps bool) (bsp.TextureID, error) {
	if len(rgba) != width*height*4 {
		return 0, fmt.Errorf("texture data is %d bytes, want %d for %dx%d", len(rgba), width*height*4, width, height)
	}

	var id uint32
	gl.GenTextures(1, &id)
	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindTexture(gl.TEXTURE_2D, id)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, int32(width), int32(height), 0, gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(rgba))

	if mipmaps {
		gl.GenerateMipmap(gl.TEXTURE_2D)
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR_MIPMAP_LINEAR)
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.REPEAT)
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.REPEAT)
	} else {
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	}
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)

	if code := gl.GetError(); code != gl.NO_ERROR {
		gl.DeleteTextures(1, &id)
		return 0, fmt.Errorf("creating %dx%d texture: GL error %#x", width, height, code)
	}
	return bsp.TextureID(id), nil
}

// DeleteTexture releases a texture.
func (r *Renderer) DeleteTexture(id bsp.TextureID) {
	tex := uint32(id)
	gl.DeleteTextures(1, &tex)
}

// BindTexture binds a texture to unit 0.
func (r *Renderer) BindTexture(id bsp.TextureID) {
	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindTexture(gl.TEXTURE_2D, uint32(id))
}

// SetBlend enables or disables blending.
func (r *Renderer) SetBlend(enabled bool) {
	if enabled {
		gl.Enable(gl.BLEND)
	} else {
		gl.Disable(gl.BLEND)
	}
}

// BlendFunc selects the blend equation.
func (r *Renderer) BlendFunc(mode bsp.BlendMode) {
	switch mode {
	case bsp.BlendModulate:
		gl.BlendFunc(gl.ZERO, gl.SRC_COLOR)
	case bsp.BlendAlpha:
		gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)
	}
}

// DepthMask enables or disables depth writes.
func (r *Renderer) DepthMask(enabled bool) {
	gl.DepthMask(enabled)
}

// CullFace selects which faces are culled.
func (r *Renderer) CullFace(face bsp.CullFace) {
	if face == bsp.CullFront {
		gl.CullFace(gl.FRONT)
	} else {
		gl.CullFace(gl.BACK)
	}
}

// DrawPolygon streams one convex polygon and draws it as a triangle fan.
func (r *Renderer) DrawPolygon(verts []bsp.PolyVertex, layer bsp.UVLayer) {
	if len(verts) < 3 {
		return
	}

	r.scratch = packVertices(r.scratch[:0], verts)
	gl.BufferData(gl.ARRAY_BUFFER, len(r.scratch)*4, gl.Ptr(r.scratch), gl.STREAM_DRAW)

	if layer != r.layer {
		r.world.SetInt("uLayer", int32(layer))
		r.layer = layer
	}
	gl.DrawArrays(gl.TRIANGLE_FAN, 0, int32(len(verts)))

	r.stats.DrawCalls++
	r.stats.Vertices += len(verts)
}

// packVertices appends the interleaved vertex stream for verts to dst.
func packVertices(dst []float32, verts []bsp.PolyVertex) []float32 {
	for _, v := range verts {
		dst = append(dst, v.Pos.X, v.Pos.Y, v.Pos.Z, v.S, v.T, v.LS, v.LT)
	}
	return dst
}

// ReadPixels returns the back buffer as bottom-up RGBA rows.
func (r *Renderer) ReadPixels() (pixels []byte, width, height int) {
	width, height = r.config.Width, r.config.Height
	pixels = make([]byte, width*height*4)
	gl.PixelStorei(gl.PACK_ALIGNMENT, 1)
	gl.ReadPixels(0, 0, int32(width), int32(height), gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(pixels))
	return pixels, width, height
}
