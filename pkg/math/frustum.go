package math

// Plane is the half-space Normal·p + D >= 0.
type Plane struct {
	Normal Vec3
	D      float32
}

// DistanceTo returns the signed distance from pt to the plane; positive is inside.
func (p Plane) DistanceTo(pt Vec3) float32 {
	return p.Normal.Dot(pt) + p.D
}

// AABB is an axis-aligned bounding box.
type AABB struct {
	Min, Max Vec3
}

// Frustum holds six inward-facing clip planes: left, right, bottom, top, near, far.
type Frustum struct {
	Planes [6]Plane
}

// FrustumFromMatrix extracts the clip planes of a combined projection*view matrix
// (Gribb/Hartmann). Planes are normalized so distances are in world units.
func FrustumFromMatrix(vp Mat4) Frustum {
	x0, x1, x2, x3 := vp.Row(0)
	y0, y1, y2, y3 := vp.Row(1)
	z0, z1, z2, z3 := vp.Row(2)
	w0, w1, w2, w3 := vp.Row(3)

	var f Frustum
	f.Planes[0] = normalizePlane(w0+x0, w1+x1, w2+x2, w3+x3)
	f.Planes[1] = normalizePlane(w0-x0, w1-x1, w2-x2, w3-x3)
	f.Planes[2] = normalizePlane(w0+y0, w1+y1, w2+y2, w3+y3)
	f.Planes[3] = normalizePlane(w0-y0, w1-y1, w2-y2, w3-y3)
	f.Planes[4] = normalizePlane(w0+z0, w1+z1, w2+z2, w3+z3)
	f.Planes[5] = normalizePlane(w0-z0, w1-z1, w2-z2, w3-z3)
	return f
}

func normalizePlane(a, b, c, d float32) Plane {
	l := Vec3{a, b, c}.Length()
	if l == 0 {
		return Plane{}
	}
	return Plane{Normal: Vec3{a / l, b / l, c / l}, D: d / l}
}

// IntersectsBox reports whether any part of box may be inside the frustum.
// It tests the corner furthest along each plane normal, so it can report
// false positives near frustum edges but never false negatives.
func (f *Frustum) IntersectsBox(box AABB) bool {
	for _, p := range f.Planes {
		v := box.Max
		if p.Normal.X < 0 {
			v.X = box.Min.X
		}
		if p.Normal.Y < 0 {
			v.Y = box.Min.Y
		}
		if p.Normal.Z < 0 {
			v.Z = box.Min.Z
		}
		if p.DistanceTo(v) < 0 {
			return false
		}
	}
	return true
}
