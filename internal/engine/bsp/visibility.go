package bsp

import (
	"github.com/Faultbox/blackbloc/pkg/formats"
	"github.com/Faultbox/blackbloc/pkg/math"
)

// visibility is the PVS table plus the per-map viewer state.
type visibility struct {
	numClusters int
	offsets     [][2]uint32
	data        []byte

	// bits is the decompressed PVS row of viewCluster.
	bits []byte

	oldCluster  int
	viewCluster int
	frame       int
}

// DecompressVis expands the run-length encoded PVS row starting at data[offset]
// into out, one bit per cluster. A zero byte skips 8*n clusters where n is the
// following byte; any other byte marks cluster c+b for each set bit b.
// Decoding stops at numClusters or at the end of data.
func DecompressVis(data []byte, offset, numClusters int, out []byte) {
	clear(out)

	c := 0
	for v := offset; c < numClusters && v < len(data); v++ {
		if data[v] == 0 {
			v++
			if v >= len(data) {
				break
			}
			c += 8 * int(data[v])
			continue
		}

		for b := 0; b < 8; b, c = b+1, c+1 {
			if data[v]&(1<<b) != 0 && c < numClusters {
				out[c>>3] |= 1 << (c & 7)
			}
		}
	}
}

// clusterVisible reports whether cluster c is set in a decompressed row.
func clusterVisible(bits []byte, c int) bool {
	return c>>3 < len(bits) && bits[c>>3]&(1<<(c&7)) != 0
}

// PointInLeaf descends from the root to the leaf containing p.
func (m *Map) PointInLeaf(p math.Vec3) int {
	ref := m.root
	for !ref.Leaf {
		n := &m.Nodes[ref.Index]
		if m.Planes[n.Plane].Distance(p) > 0 {
			ref = n.Children[0]
		} else {
			ref = n.Children[1]
		}
	}
	return ref.Index
}

// MarkLeafs stamps every leaf whose cluster is set in bits, and its ancestors,
// with frame. Each walk towards the root stops at the first ancestor already
// stamped. It returns the number of nodes and leaves stamped.
func (m *Map) MarkLeafs(frame int, bits []byte) int {
	marked := 0
	for i := range m.Leaves {
		leaf := &m.Leaves[i]
		if leaf.Cluster == -1 || !clusterVisible(bits, leaf.Cluster) {
			continue
		}
		if leaf.VisFrame == frame {
			continue
		}
		leaf.VisFrame = frame
		marked++

		for n := leaf.Parent; n >= 0; n = m.Nodes[n].Parent {
			node := &m.Nodes[n]
			if node.VisFrame == frame {
				break
			}
			node.VisFrame = frame
			marked++
		}
	}
	return marked
}

// MarkAll stamps every leaf and node with frame.
func (m *Map) MarkAll(frame int) {
	for i := range m.Leaves {
		m.Leaves[i].VisFrame = frame
	}
	for i := range m.Nodes {
		m.Nodes[i].VisFrame = frame
	}
}

// UpdateVisibility locates the viewer's cluster and, when it changed since the
// previous call (or on the first call), advances the visframe and re-marks the
// potentially visible leaves. It returns the current visframe.
func (m *Map) UpdateVisibility(eye math.Vec3) int {
	v := &m.vis
	if len(m.Leaves) == 0 {
		return v.frame
	}

	v.oldCluster = v.viewCluster
	v.viewCluster = m.Leaves[m.PointInLeaf(eye)].Cluster

	if v.oldCluster == v.viewCluster && v.frame != 0 {
		return v.frame
	}
	v.frame++

	c := v.viewCluster
	if c == -1 || v.numClusters == 0 {
		m.MarkAll(v.frame)
		return v.frame
	}

	DecompressVis(v.data, int(v.offsets[c][formats.VisPVS]), v.numClusters, v.bits)
	v.bits[c>>3] |= 1 << (c & 7)
	m.MarkLeafs(v.frame, v.bits)
	return v.frame
}

// ClusterBits returns the decompressed PVS row of the current view cluster.
func (m *Map) ClusterBits() []byte {
	return m.vis.bits
}
