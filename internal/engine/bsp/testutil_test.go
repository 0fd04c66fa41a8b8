package bsp

import (
	"fmt"
	"io/fs"
	"testing"

	"github.com/Faultbox/blackbloc/internal/engine/bsp/bsptest"
)

// createSingleLeafMap builds a map with no nodes, one leaf in cluster 0 and
// one floor quad.
func createSingleLeafMap(texFlags int32) *bsptest.Builder {
	b := bsptest.NewBuilder()
	b.Entities = `{ "classname" "worldspawn" }`
	plane := b.AddPlane([3]float32{0, 0, 1}, 0, 2)
	ti := b.AddTexInfo("e1u1/floor1_1", texFlags, 0)
	face := b.AddFace(plane, false, ti, bsptest.FloorQuad, bsptest.OneStyle, -1)
	b.AddLeaf(ContentsEmpty, 0, bsptest.RoomMins, bsptest.RoomMaxs, int16(face))
	// zero run skipping 8 clusters: cluster 0 does not list itself
	b.SetVisibility([]byte{0x00, 0x01})
	return b
}

// createSplitMap builds one node splitting two rooms at on-disk x = 0
// (engine z = 0). Each side of the split owns a wall facing into its room.
//
//	leaf 0: solid, no cluster
//	leaf 1: x > 0, cluster 0, marks the front wall
//	leaf 2: x < 0, cluster 1, marks the back wall
func createSplitMap() *bsptest.Builder {
	return bsptest.SplitRooms("e1u1/wall")
}

type drawCall struct {
	verts   []PolyVertex
	layer   UVLayer
	texture string
}

// recordingBackend records every call made on it.
type recordingBackend struct {
	calls   []string
	draws   []drawCall
	created map[TextureID][]byte
	deleted []TextureID
	nextID  TextureID
	bound   string

	failCreate bool
}

func newRecordingBackend() *recordingBackend {
	return &recordingBackend{created: make(map[TextureID][]byte), nextID: 1}
}

func (r *recordingBackend) CreateTexture(width, height int, rgba []byte) (TextureID, error) {
	if r.failCreate {
		return 0, fmt.Errorf("no texture memory")
	}
	if len(rgba) != width*height*4 {
		return 0, fmt.Errorf("bad texture data: %d bytes for %dx%d", len(rgba), width, height)
	}
	id := r.nextID
	r.nextID++
	r.created[id] = append([]byte(nil), rgba...)
	r.calls = append(r.calls, fmt.Sprintf("create %d", id))
	return id, nil
}

func (r *recordingBackend) DeleteTexture(id TextureID) {
	r.deleted = append(r.deleted, id)
	r.calls = append(r.calls, fmt.Sprintf("delete %d", id))
}

func (r *recordingBackend) BindTexture(id TextureID) {
	r.bound = fmt.Sprintf("lightmap%d", id)
	r.calls = append(r.calls, "bind "+r.bound)
}

func (r *recordingBackend) SetBlend(enabled bool) {
	r.calls = append(r.calls, "blend "+onOff(enabled))
}

func (r *recordingBackend) BlendFunc(mode BlendMode) {
	name := "modulate"
	if mode == BlendAlpha {
		name = "alpha"
	}
	r.calls = append(r.calls, "blendfunc "+name)
}

func (r *recordingBackend) DepthMask(enabled bool) {
	r.calls = append(r.calls, "depthmask "+onOff(enabled))
}

func (r *recordingBackend) CullFace(face CullFace) {
	name := "back"
	if face == CullFront {
		name = "front"
	}
	r.calls = append(r.calls, "cull "+name)
}

func (r *recordingBackend) DrawPolygon(verts []PolyVertex, layer UVLayer) {
	name := "decal"
	if layer == UVLightmap {
		name = "lightmap"
	}
	r.draws = append(r.draws, drawCall{verts: verts, layer: layer, texture: r.bound})
	r.calls = append(r.calls, fmt.Sprintf("draw %s %d", name, len(verts)))
}

func (r *recordingBackend) reset() {
	r.calls = nil
	r.draws = nil
}

func (r *recordingBackend) drawsOf(layer UVLayer) []drawCall {
	var out []drawCall
	for _, d := range r.draws {
		if d.layer == layer {
			out = append(out, d)
		}
	}
	return out
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

type fakeTexture struct {
	name          string
	width, height int
	backend       *recordingBackend
}

func (t *fakeTexture) Name() string { return t.name }
func (t *fakeTexture) Width() int   { return t.width }
func (t *fakeTexture) Height() int  { return t.height }

func (t *fakeTexture) Bind() {
	t.backend.bound = t.name
	t.backend.calls = append(t.backend.calls, "bind "+t.name)
}

// fakeResolver hands out 64x64 textures unless sizes says otherwise and
// counts outstanding references.
type fakeResolver struct {
	backend *recordingBackend
	sizes   map[string][2]int
	missing map[string]bool
	refs    map[string]int
}

func newFakeResolver(backend *recordingBackend) *fakeResolver {
	return &fakeResolver{
		backend: backend,
		sizes:   make(map[string][2]int),
		missing: make(map[string]bool),
		refs:    make(map[string]int),
	}
}

func (r *fakeResolver) Get(name string) (Texture, error) {
	if r.missing[name] {
		return nil, fmt.Errorf("textures/%s.wal: %w", name, fs.ErrNotExist)
	}
	size, ok := r.sizes[name]
	if !ok {
		size = [2]int{64, 64}
	}
	r.refs[name]++
	return &fakeTexture{name: name, width: size[0], height: size[1], backend: r.backend}, nil
}

func (r *fakeResolver) Put(tex Texture) {
	r.refs[tex.Name()]--
}

func (r *fakeResolver) outstanding() int {
	n := 0
	for _, c := range r.refs {
		n += c
	}
	return n
}

// mapFS serves files from memory.
type mapFS map[string][]byte

func (f mapFS) Open(name string) ([]byte, error) {
	data, ok := f[name]
	if !ok {
		return nil, fmt.Errorf("%s: %w", name, fs.ErrNotExist)
	}
	return data, nil
}

// loadTestMap loads b with a fresh recording backend and resolver.
func loadTestMap(t *testing.T, b *bsptest.Builder) (*Map, *recordingBackend, *fakeResolver) {
	t.Helper()
	gpu := newRecordingBackend()
	textures := newFakeResolver(gpu)
	m, err := LoadBytes("maps/test.bsp", b.Bytes(), textures, gpu)
	if err != nil {
		t.Fatalf("LoadBytes failed: %v", err)
	}
	return m, gpu, textures
}
