package main

import (
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"sort"

	"golang.org/x/image/bmp"

	"github.com/Faultbox/blackbloc/internal/assets"
	"github.com/Faultbox/blackbloc/internal/engine/bsp"
	"github.com/Faultbox/blackbloc/pkg/formats"
)

// readMap returns the bytes of a map given as a disk path or, failing that,
// as a game path under -basedir and -pak.
func readMap(name string) ([]byte, error) {
	data, err := os.ReadFile(name)
	if err == nil {
		return data, nil
	}
	if !errors.Is(err, os.ErrNotExist) || (*flagBaseDir == "" && len(flagPaks) == 0) {
		return nil, err
	}

	m, err := assets.OpenGameDir(*flagBaseDir, flagPaks)
	if err != nil {
		return nil, err
	}
	defer m.Close()
	return m.Open(name)
}

// placeholder stands in for wall textures, which the tool never draws.
type placeholder string

func (p placeholder) Name() string { return string(p) }
func (p placeholder) Width() int   { return 64 }
func (p placeholder) Height() int  { return 64 }
func (p placeholder) Bind()        {}

// placeholderTextures resolves every texture name and counts references.
type placeholderTextures struct {
	refs map[string]int
}

func newPlaceholderTextures() *placeholderTextures {
	return &placeholderTextures{refs: make(map[string]int)}
}

func (r *placeholderTextures) Get(name string) (bsp.Texture, error) {
	r.refs[name]++
	return placeholder(name), nil
}

func (r *placeholderTextures) Put(tex bsp.Texture) {
	r.refs[tex.Name()]--
}

// names returns the distinct texture names in order.
func (r *placeholderTextures) names() []string {
	out := make([]string, 0, len(r.refs))
	for n := range r.refs {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// captureBackend keeps created textures in memory and ignores drawing.
type captureBackend struct {
	pages [][]byte
}

func (c *captureBackend) CreateTexture(width, height int, rgba []byte) (bsp.TextureID, error) {
	if len(rgba) != width*height*4 {
		return 0, fmt.Errorf("texture data is %d bytes, want %d", len(rgba), width*height*4)
	}
	c.pages = append(c.pages, append([]byte(nil), rgba...))
	return bsp.TextureID(len(c.pages)), nil
}

func (c *captureBackend) DeleteTexture(bsp.TextureID)               {}
func (c *captureBackend) BindTexture(bsp.TextureID)                 {}
func (c *captureBackend) SetBlend(bool)                             {}
func (c *captureBackend) BlendFunc(bsp.BlendMode)                   {}
func (c *captureBackend) DepthMask(bool)                            {}
func (c *captureBackend) CullFace(bsp.CullFace)                     {}
func (c *captureBackend) DrawPolygon([]bsp.PolyVertex, bsp.UVLayer) {}

// buildMap loads a map with placeholder textures and a capturing backend.
func buildMap(name string, data []byte) (*bsp.Map, *captureBackend, *placeholderTextures, error) {
	gpu := &captureBackend{}
	textures := newPlaceholderTextures()
	m, err := bsp.LoadBytes(name, data, textures, gpu)
	if err != nil {
		return nil, nil, nil, err
	}
	return m, gpu, textures, nil
}

func cmdInfo(args []string) error {
	if len(args) < 1 {
		return errors.New("usage: bsptool info <map>")
	}
	data, err := readMap(args[0])
	if err != nil {
		return err
	}
	return writeInfo(os.Stdout, args[0], data)
}

func writeInfo(w io.Writer, name string, data []byte) error {
	hdr, err := formats.ParseBSPHeader(data)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "Map:     %s\n", name)
	fmt.Fprintf(w, "Size:    %d bytes\n", len(data))
	fmt.Fprintf(w, "Version: %d\n\n", hdr.Version)
	fmt.Fprintln(w, "Lumps:")
	for i, l := range hdr.Lumps {
		fmt.Fprintf(w, "  %-12s offset %8d  length %8d\n", formats.LumpName(i), l.Offset, l.Length)
	}

	m, _, textures, err := buildMap(name, data)
	if err != nil {
		return err
	}
	defer m.Free()

	st := m.Stats()
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Contents:")
	fmt.Fprintf(w, "  planes        %d\n", st.Planes)
	fmt.Fprintf(w, "  vertices      %d\n", st.Vertices)
	fmt.Fprintf(w, "  edges         %d\n", st.Edges)
	fmt.Fprintf(w, "  texinfo       %d\n", st.TexInfos)
	fmt.Fprintf(w, "  surfaces      %d\n", st.Surfaces)
	fmt.Fprintf(w, "  marksurfaces  %d\n", st.MarkSurfaces)
	fmt.Fprintf(w, "  leafs         %d\n", st.Leaves)
	fmt.Fprintf(w, "  nodes         %d\n", st.Nodes)
	fmt.Fprintf(w, "  models        %d\n", st.Models)
	fmt.Fprintf(w, "  clusters      %d\n", st.Clusters)
	fmt.Fprintf(w, "  lightmaps     %d pages\n", st.LightmapPages)
	fmt.Fprintf(w, "  entities      %d\n", len(m.Entities))
	fmt.Fprintf(w, "  textures      %d\n", len(textures.names()))

	if sp, ok := m.SpawnPoint(); ok {
		fmt.Fprintf(w, "\nSpawn: %.0f %.0f %.0f yaw %.0f\n", sp.Origin.X, sp.Origin.Y, sp.Origin.Z, sp.Yaw)
	}
	return nil
}

func cmdEntities(args []string) error {
	if len(args) < 1 {
		return errors.New("usage: bsptool entities <map>")
	}
	data, err := readMap(args[0])
	if err != nil {
		return err
	}
	return writeEntities(os.Stdout, data)
}

// writeEntities prints the entity lump back in its text form.
func writeEntities(w io.Writer, data []byte) error {
	hdr, err := formats.ParseBSPHeader(data)
	if err != nil {
		return err
	}
	ents, err := formats.ParseEntities(hdr.LumpData(data, formats.LumpEntities))
	if err != nil {
		return err
	}

	for _, e := range ents {
		fmt.Fprintln(w, "{")
		for _, k := range e.Keys {
			fmt.Fprintf(w, "%q %q\n", k, e.Values[k])
		}
		fmt.Fprintln(w, "}")
	}
	return nil
}

func cmdLightmaps(args []string) error {
	if len(args) < 2 {
		return errors.New("usage: bsptool lightmaps <map> <outdir>")
	}
	data, err := readMap(args[0])
	if err != nil {
		return err
	}

	paths, err := writeLightmaps(args[0], data, args[1])
	if err != nil {
		return err
	}
	for _, p := range paths {
		fmt.Printf("Wrote: %s\n", p)
	}
	fmt.Fprintf(os.Stderr, "\n%d lightmap pages\n", len(paths))
	return nil
}

// writeLightmaps builds the atlas and writes each page as lightmap_NN.bmp.
func writeLightmaps(name string, data []byte, outDir string) ([]string, error) {
	m, gpu, _, err := buildMap(name, data)
	if err != nil {
		return nil, err
	}
	defer m.Free()

	if err := os.MkdirAll(outDir, 0755); err != nil {
		return nil, err
	}

	var paths []string
	for i, page := range gpu.pages {
		img := &image.RGBA{
			Pix:    page,
			Stride: bsp.LightmapBlockWidth * 4,
			Rect:   image.Rect(0, 0, bsp.LightmapBlockWidth, bsp.LightmapBlockHeight),
		}
		path := filepath.Join(outDir, fmt.Sprintf("lightmap_%02d.bmp", i))
		if err := writeBMP(path, img); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func writeBMP(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := bmp.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	return f.Close()
}
