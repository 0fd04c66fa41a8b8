package bsp

// Lightmap atlas page geometry.
const (
	LightmapBlockWidth  = 128
	LightmapBlockHeight = 128
	lightmapBytes       = 4

	// blockLights holds one RGB float triple per light-grid cell.
	maxBlockLights = 34 * 34 * 3
	// maxLightmapCells bounds smax*tmax; larger grids get no lightmap.
	maxLightmapCells = maxBlockLights * 4 / 16
)

// lightGrid returns the number of light cells covering the surface, in s and t.
func (s *Surface) lightGrid() (smax, tmax int) {
	return s.Extents[0]>>4 + 1, s.Extents[1]>>4 + 1
}

// atlasBuilder packs surface lightmaps into 128x128 RGBA pages during a load.
// Pages stay in memory until the map is fully built, then get uploaded together.
type atlasBuilder struct {
	allocated [LightmapBlockWidth]int
	pages     [][]byte
	used      bool // current page holds at least one lightmap

	blockLights []float32
}

func newAtlasBuilder() *atlasBuilder {
	return &atlasBuilder{
		pages:       [][]byte{newLightmapPage()},
		blockLights: make([]float32, maxBlockLights),
	}
}

func newLightmapPage() []byte {
	return make([]byte, LightmapBlockWidth*LightmapBlockHeight*lightmapBytes)
}

// allocBlock finds room for a w x h block on the current page. It picks the
// column whose tallest column in the window is lowest, scanning left to right.
func (a *atlasBuilder) allocBlock(w, h int) (x, y int, ok bool) {
	best := LightmapBlockHeight

	for i := 0; i < LightmapBlockWidth-w; i++ {
		best2 := 0
		j := 0
		for ; j < w; j++ {
			if a.allocated[i+j] >= best {
				break
			}
			if a.allocated[i+j] > best2 {
				best2 = a.allocated[i+j]
			}
		}
		if j == w {
			x = i
			y = best2
			best = best2
		}
	}

	if best+h > LightmapBlockHeight {
		return 0, 0, false
	}

	for i := 0; i < w; i++ {
		a.allocated[x+i] = best + h
	}
	return x, y, true
}

// flush closes the current page and starts an empty one.
func (a *atlasBuilder) flush() {
	if a.used {
		a.pages = append(a.pages, newLightmapPage())
		a.used = false
	}
	a.allocated = [LightmapBlockWidth]int{}
}

// place allocates a lightmap for s and fills it from samples.
// On failure the surface is left without a lightmap.
func (a *atlasBuilder) place(s *Surface, samples []byte) {
	s.LightmapPage = -1

	smax, tmax := s.lightGrid()
	if smax*tmax > maxLightmapCells {
		return
	}

	x, y, ok := a.allocBlock(smax, tmax)
	if !ok {
		a.flush()
		if x, y, ok = a.allocBlock(smax, tmax); !ok {
			return
		}
	}
	a.used = true

	page := len(a.pages) - 1
	s.LightmapPage = page
	s.LightS = x
	s.LightT = y

	base := (y*LightmapBlockWidth + x) * lightmapBytes
	buildLightmap(a.pages[page][base:], LightmapBlockWidth*lightmapBytes, smax, tmax, s.Styles, samples, a.blockLights)
}

// finish returns the filled pages, dropping a trailing page nothing was packed into.
func (a *atlasBuilder) finish() [][]byte {
	if !a.used {
		return a.pages[:len(a.pages)-1]
	}
	return a.pages
}

// buildLightmap writes smax x tmax RGBA texels to dest, one row every stride bytes.
// Without samples the block is full-bright; otherwise every active style's RGB
// samples are summed and texels brighter than 255 are scaled down keeping hue.
// Alpha carries the brightest channel.
func buildLightmap(dest []byte, stride, smax, tmax int, styles [MaxLightStyles]uint8, samples []byte, blockLights []float32) {
	size := smax * tmax
	bl := blockLights[:size*3]

	if samples == nil {
		for i := range bl {
			bl[i] = 255
		}
	} else {
		clear(bl)
		for maps := 0; maps < MaxLightStyles && styles[maps] != lightStyleNone; maps++ {
			for i := range bl {
				bl[i] += float32(samples[i])
			}
			samples = samples[size*3:]
		}
	}

	for t := 0; t < tmax; t++ {
		row := dest[t*stride:]
		for s := 0; s < smax; s++ {
			c := bl[(t*smax+s)*3:]
			r, g, b := max(int(c[0]), 0), max(int(c[1]), 0), max(int(c[2]), 0)

			brightest := max(r, g, b)
			a := brightest
			if brightest > 255 {
				r = r * 255 / brightest
				g = g * 255 / brightest
				b = b * 255 / brightest
				a = 255
			}

			texel := row[s*lightmapBytes:]
			texel[0] = byte(r)
			texel[1] = byte(g)
			texel[2] = byte(b)
			texel[3] = byte(a)
		}
	}
}
