package bsp

// FileSystem supplies whole files by game path.
// A missing file must be reported with an error wrapping fs.ErrNotExist.
type FileSystem interface {
	Open(name string) ([]byte, error)
}

// Texture is a resolved, reference-counted wall texture.
type Texture interface {
	Name() string
	// Width and Height are the source dimensions used for texture coordinates.
	Width() int
	Height() int
	Bind()
}

// TextureResolver hands out texture references. Every successful Get is
// balanced by exactly one Put.
type TextureResolver interface {
	Get(name string) (Texture, error)
	Put(tex Texture)
}

// TextureID identifies a texture created through a Backend.
type TextureID uint32

// BlendMode selects a blend function.
type BlendMode int

const (
	// BlendModulate multiplies the destination by the source colour (ZERO, SRC_COLOR).
	BlendModulate BlendMode = iota
	// BlendAlpha is conventional alpha blending (SRC_ALPHA, ONE_MINUS_SRC_ALPHA).
	BlendAlpha
)

// CullFace selects which polygon faces are culled.
type CullFace int

const (
	CullBack CullFace = iota
	CullFront
)

// UVLayer selects which texture coordinates of a PolyVertex a draw uses.
type UVLayer int

const (
	// UVDecal uses S, T.
	UVDecal UVLayer = iota
	// UVLightmap uses LS, LT.
	UVLightmap
)

// Backend is the immediate-mode graphics API the map draws through.
type Backend interface {
	CreateTexture(width, height int, rgba []byte) (TextureID, error)
	DeleteTexture(id TextureID)
	BindTexture(id TextureID)

	SetBlend(enabled bool)
	BlendFunc(mode BlendMode)
	DepthMask(enabled bool)
	CullFace(face CullFace)

	// DrawPolygon draws verts as a convex polygon (triangle fan) textured
	// with the currently bound texture.
	DrawPolygon(verts []PolyVertex, layer UVLayer)
}
