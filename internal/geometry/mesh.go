package geometry

import (
	"fmt"
	"math"
)

// Vec3 is a point or direction in model coordinates
type Vec3 [3]float64

func (a Vec3) Add(b Vec3) Vec3 { return Vec3{a[0] + b[0], a[1] + b[1], a[2] + b[2]} }
func (a Vec3) Sub(b Vec3) Vec3 { return Vec3{a[0] - b[0], a[1] - b[1], a[2] - b[2]} }
func (a Vec3) Scale(s float64) Vec3 {
	return Vec3{a[0] * s, a[1] * s, a[2] * s}
}

func (a Vec3) Cross(b Vec3) Vec3 {
	return Vec3{
		a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0],
	}
}

func (a Vec3) Norm() float64 {
	return math.Sqrt(a[0]*a[0] + a[1]*a[1] + a[2]*a[2])
}

// Mesh is a triangulated surface: a vertex list and index triples into it
type Mesh struct {
	Vertices []Vec3
	Faces    [][3]int
}

// Append merges o into m, shifting o's indices
func (m *Mesh) Append(o Mesh) {
	offset := len(m.Vertices)
	m.Vertices = append(m.Vertices, o.Vertices...)
	for _, f := range o.Faces {
		m.Faces = append(m.Faces, [3]int{f[0] + offset, f[1] + offset, f[2] + offset})
	}
}

// TriangleArea returns 0.5 * |(v1-v0) x (v2-v0)|
func TriangleArea(v0, v1, v2 Vec3) float64 {
	return 0.5 * v1.Sub(v0).Cross(v2.Sub(v0)).Norm()
}

// Area sums the triangle areas in face order.
// A face indexing outside the vertex list is an error.
func (m Mesh) Area() (float64, error) {
	total := 0.0
	for i, f := range m.Faces {
		for _, idx := range f {
			if idx < 0 || idx >= len(m.Vertices) {
				return 0, fmt.Errorf("face %d: vertex index %d out of range [0,%d)", i, idx, len(m.Vertices))
			}
		}
		total += TriangleArea(m.Vertices[f[0]], m.Vertices[f[1]], m.Vertices[f[2]])
	}
	return total, nil
}
