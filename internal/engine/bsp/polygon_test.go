package bsp

import (
	"testing"

	"github.com/Faultbox/blackbloc/pkg/math"
)

func TestSurfaceVertex_EdgeDirection(t *testing.T) {
	m := &Map{
		Vertices:  []math.Vec3{{X: 0}, {X: 1}, {X: 2}, {X: 3}},
		Edges:     []Edge{{0, 1}, {2, 3}},
		SurfEdges: []int32{1, -1, 0},
	}
	s := &Surface{FirstEdge: 0, NumEdges: 3}

	tests := []struct {
		name  string
		index int
		wantX float32
	}{
		{"positive takes the first vertex", 0, 2},
		{"negative takes the second vertex", 1, 3},
		{"zero takes the second vertex", 2, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := m.surfaceVertex(s, tt.index)
			if got.X != tt.wantX {
				t.Errorf("expected vertex %v, got %v", tt.wantX, got.X)
			}
		})
	}
}
