package geometry

import "math"

const epsilon = 1e-12

// TriangulatePolygon splits a simple planar polygon into triangles by ear
// clipping. It returns index triples into points. A closing point equal to
// the first one is ignored.
func TriangulatePolygon(points []Vec3) [][3]int {
	n := len(points)
	if n > 1 && points[0] == points[n-1] {
		n--
	}
	if n < 3 {
		return nil
	}
	if n == 3 {
		return [][3]int{{0, 1, 2}}
	}

	pts := project(points[:n])

	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	if signedArea(pts) < 0 {
		for i, j := 0, n-1; i < j; i, j = i+1, j-1 {
			idx[i], idx[j] = idx[j], idx[i]
		}
	}

	tris := make([][3]int, 0, n-2)
	for len(idx) > 3 {
		ear := -1
		for i := range idx {
			a, b, c := idx[(i+len(idx)-1)%len(idx)], idx[i], idx[(i+1)%len(idx)]
			if cross2(pts[a], pts[b], pts[c]) <= epsilon {
				continue
			}
			if containsAny(pts, idx, a, b, c) {
				continue
			}
			ear = i
			break
		}
		if ear < 0 {
			// degenerate or self-intersecting: fan the remainder
			for i := 1; i+1 < len(idx); i++ {
				tris = append(tris, [3]int{idx[0], idx[i], idx[i+1]})
			}
			return tris
		}
		a, b, c := idx[(ear+len(idx)-1)%len(idx)], idx[ear], idx[(ear+1)%len(idx)]
		tris = append(tris, [3]int{a, b, c})
		idx = append(idx[:ear], idx[ear+1:]...)
	}
	return append(tris, [3]int{idx[0], idx[1], idx[2]})
}

// project drops the dominant axis of the polygon normal (Newell's method)
func project(points []Vec3) [][2]float64 {
	var normal Vec3
	for i := range points {
		cur, next := points[i], points[(i+1)%len(points)]
		normal[0] += (cur[1] - next[1]) * (cur[2] + next[2])
		normal[1] += (cur[2] - next[2]) * (cur[0] + next[0])
		normal[2] += (cur[0] - next[0]) * (cur[1] + next[1])
	}

	ax, ay := 0, 1
	nx, ny, nz := math.Abs(normal[0]), math.Abs(normal[1]), math.Abs(normal[2])
	switch {
	case nx >= ny && nx >= nz:
		ax, ay = 1, 2
	case ny >= nx && ny >= nz:
		ax, ay = 2, 0
	}

	out := make([][2]float64, len(points))
	for i, p := range points {
		out[i] = [2]float64{p[ax], p[ay]}
	}
	return out
}

func signedArea(pts [][2]float64) float64 {
	area := 0.0
	for i := range pts {
		j := (i + 1) % len(pts)
		area += pts[i][0]*pts[j][1] - pts[j][0]*pts[i][1]
	}
	return area / 2
}

func cross2(a, b, c [2]float64) float64 {
	return (b[0]-a[0])*(c[1]-a[1]) - (b[1]-a[1])*(c[0]-a[0])
}

func containsAny(pts [][2]float64, idx []int, a, b, c int) bool {
	for _, p := range idx {
		if p == a || p == b || p == c {
			continue
		}
		if pts[p] == pts[a] || pts[p] == pts[b] || pts[p] == pts[c] {
			continue
		}
		if cross2(pts[a], pts[b], pts[p]) >= 0 &&
			cross2(pts[b], pts[c], pts[p]) >= 0 &&
			cross2(pts[c], pts[a], pts[p]) >= 0 {
			return true
		}
	}
	return false
}
