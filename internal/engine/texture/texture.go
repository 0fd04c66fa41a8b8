// Package texture loads wall textures and shares them by name with reference counts.
package texture

import (
	"errors"
	"fmt"
	"image"
	"io/fs"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/image/draw"

	"github.com/Faultbox/blackbloc/internal/engine/bsp"
	"github.com/Faultbox/blackbloc/internal/logger"
	"github.com/Faultbox/blackbloc/pkg/formats"
)

// PalettePath is the image whose trailing palette colours WAL textures.
const PalettePath = "pics/colormap.pcx"

// maxSize bounds the resampled dimensions.
const maxSize = 1024

// Uploader creates and binds GPU textures.
type Uploader interface {
	UploadTexture(width, height int, rgba []byte, mipmaps bool) (bsp.TextureID, error)
	BindTexture(id bsp.TextureID)
	DeleteTexture(id bsp.TextureID)
}

// Texture is one shared wall texture. Pixels are kept on the CPU until the
// first Bind, then uploaded and dropped.
type Texture struct {
	name          string
	width, height int

	rgba   []byte
	id     bsp.TextureID
	refs   int
	failed bool

	registry *Registry
}

// Name returns the texture name without directory prefix or extension.
func (t *Texture) Name() string { return t.name }

// Width returns the source width, before power-of-two resampling.
func (t *Texture) Width() int { return t.width }

// Height returns the source height, before power-of-two resampling.
func (t *Texture) Height() int { return t.height }

// Uploaded reports whether the texture has a GPU copy.
func (t *Texture) Uploaded() bool { return t.id != 0 }

// Bind uploads the texture on first use and makes it current. A texture whose
// upload failed binds texture 0 from then on, so its surfaces draw untextured.
func (t *Texture) Bind() {
	r := t.registry
	if t.id == 0 && !t.failed {
		if err := r.upload(t); err != nil {
			r.log.Warn("texture upload failed", zap.String("texture", t.name), zap.Error(err))
			t.failed = true
		}
	}
	r.gpu.BindTexture(t.id)
}

// Registry hands out textures by name. Get and Put must be balanced; the GPU
// copy is deleted when the last reference is returned.
type Registry struct {
	fsys    bsp.FileSystem
	gpu     Uploader
	palette *[768]byte

	mu       sync.Mutex
	textures map[string]*Texture

	log *zap.Logger
}

// NewRegistry creates a texture registry reading files through fsys.
func NewRegistry(fsys bsp.FileSystem, gpu Uploader) *Registry {
	return &Registry{
		fsys:     fsys,
		gpu:      gpu,
		textures: make(map[string]*Texture),
		log:      logger.Named("texture"),
	}
}

// LoadPalette reads the WAL palette from pics/colormap.pcx.
func (r *Registry) LoadPalette() error {
	data, err := r.fsys.Open(PalettePath)
	if err != nil {
		return fmt.Errorf("loading palette: %w", err)
	}
	pal, err := formats.ParsePCXPalette(data)
	if err != nil {
		return fmt.Errorf("loading palette: %w", err)
	}
	r.palette = pal
	return nil
}

// Get returns the named texture, loading it on first request.
// It satisfies bsp.TextureResolver.
func (r *Registry) Get(name string) (bsp.Texture, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if t, ok := r.textures[name]; ok {
		t.refs++
		return t, nil
	}

	rgba, w, h, err := r.load(name)
	if err != nil {
		return nil, err
	}

	t := &Texture{name: name, width: w, height: h, rgba: rgba, refs: 1, registry: r}
	r.textures[name] = t
	r.log.Debug("texture loaded", zap.String("texture", name), zap.Int("width", w), zap.Int("height", h))
	return t, nil
}

// Put returns a reference obtained from Get.
func (r *Registry) Put(tex bsp.Texture) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.textures[tex.Name()]
	if !ok || t != tex {
		r.log.Warn("put of unknown texture", zap.String("texture", tex.Name()))
		return
	}

	t.refs--
	if t.refs > 0 {
		return
	}
	if t.id != 0 {
		r.gpu.DeleteTexture(t.id)
		t.id = 0
	}
	delete(r.textures, t.name)
}

// Len returns the number of live textures.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.textures)
}

// Refs returns the reference count of a live texture, or zero.
func (r *Registry) Refs(name string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.textures[name]; ok {
		return t.refs
	}
	return 0
}

// load decodes textures/<name>.wal, falling back to textures/<name>.tga.
func (r *Registry) load(name string) (rgba []byte, w, h int, err error) {
	walPath := "textures/" + name + ".wal"
	data, err := r.fsys.Open(walPath)
	if err == nil {
		if r.palette == nil {
			return nil, 0, 0, fmt.Errorf("%s: no palette loaded", walPath)
		}
		wal, err := formats.ParseWAL(data)
		if err != nil {
			return nil, 0, 0, fmt.Errorf("%s: %w", walPath, err)
		}
		return wal.RGBA(r.palette), wal.Width, wal.Height, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, 0, 0, err
	}

	tgaPath := "textures/" + name + ".tga"
	data, tgaErr := r.fsys.Open(tgaPath)
	if tgaErr != nil {
		// report the WAL miss; the TGA is only an alternative
		return nil, 0, 0, err
	}
	img, err := DecodeTGA(data)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("%s: %w", tgaPath, err)
	}
	return img.Pix, img.Rect.Dx(), img.Rect.Dy(), nil
}

func (r *Registry) upload(t *Texture) error {
	rgba, w, h := resampleToPowerOfTwo(t.rgba, t.width, t.height)
	id, err := r.gpu.UploadTexture(w, h, rgba, true)
	if err != nil {
		return err
	}
	t.id = id
	t.rgba = nil
	return nil
}

// nextPowerOfTwo returns the smallest power of two >= n, capped at maxSize.
func nextPowerOfTwo(n int) int {
	p := 1
	for p < n && p < maxSize {
		p <<= 1
	}
	return p
}

// resampleToPowerOfTwo scales an RGBA image up to power-of-two dimensions.
// Images that already have them are returned as is.
func resampleToPowerOfTwo(rgba []byte, w, h int) ([]byte, int, int) {
	pw, ph := nextPowerOfTwo(w), nextPowerOfTwo(h)
	if pw == w && ph == h {
		return rgba, w, h
	}

	src := &image.RGBA{Pix: rgba, Stride: w * 4, Rect: image.Rect(0, 0, w, h)}
	dst := image.NewRGBA(image.Rect(0, 0, pw, ph))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return dst.Pix, pw, ph
}
