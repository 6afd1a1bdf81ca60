package geometry

import (
	"errors"
	"fmt"
	"math"

	"github.com/rs/zerolog/log"

	"bim-rag/internal/ifc"
)

const (
	defaultCircleSegments = 36
	maxMappingDepth       = 16
)

// ErrMalformedGeometry marks geometry that references missing or mistyped data
var ErrMalformedGeometry = errors.New("malformed geometry")

// representation types tried when no "Body" representation is present
var bodyRepresentationTypes = map[string]bool{
	"Tessellation":         true,
	"Brep":                 true,
	"SweptSolid":           true,
	"SurfaceModel":         true,
	"MappedRepresentation": true,
	"Clipping":             true,
	"CSG":                  true,
}

// Kernel triangulates the body geometry of model elements.
// Placements are not applied: area is invariant under rigid motion.
type Kernel struct {
	model          *ifc.Model
	CircleSegments int
}

func NewKernel(model *ifc.Model) *Kernel {
	return &Kernel{model: model, CircleSegments: defaultCircleSegments}
}

// Triangulate returns the body mesh of el. Elements without a body
// representation yield an empty mesh. Unsupported items are skipped.
func (k *Kernel) Triangulate(el *ifc.Element) (Mesh, error) {
	var mesh Mesh

	rep, ok := el.Attribute("Representation")
	if !ok || rep.IsNull() {
		return mesh, nil
	}
	shape, err := k.resolve(rep, "IFCPRODUCTDEFINITIONSHAPE")
	if err != nil {
		return mesh, fmt.Errorf("element %s: %w", el.GlobalID(), err)
	}

	reps, err := k.bodyRepresentations(shape)
	if err != nil {
		return mesh, fmt.Errorf("element %s: %w", el.GlobalID(), err)
	}
	for _, r := range reps {
		m, err := k.representation(r, 0)
		if err != nil {
			return Mesh{}, fmt.Errorf("element %s: %w", el.GlobalID(), err)
		}
		mesh.Append(m)
	}
	return mesh, nil
}

func (k *Kernel) bodyRepresentations(shape *ifc.Entity) ([]*ifc.Entity, error) {
	list := shape.Arg(2)
	if list.Kind != ifc.KindList {
		return nil, k.malformed(shape, "Representations is not a list")
	}

	var body, fallback []*ifc.Entity
	for _, v := range list.List {
		r, err := k.resolve(v, "")
		if err != nil {
			return nil, err
		}
		id, _ := r.Arg(1).Text()
		typ, _ := r.Arg(2).Text()
		switch {
		case id == "Body":
			body = append(body, r)
		case bodyRepresentationTypes[typ]:
			fallback = append(fallback, r)
		}
	}
	if len(body) > 0 {
		return body, nil
	}
	return fallback, nil
}

func (k *Kernel) representation(r *ifc.Entity, depth int) (Mesh, error) {
	if depth > maxMappingDepth {
		return Mesh{}, k.malformed(r, "mapped representation nesting too deep")
	}
	items := r.Arg(3)
	if items.Kind != ifc.KindList {
		return Mesh{}, k.malformed(r, "Items is not a list")
	}

	var mesh Mesh
	for _, v := range items.List {
		item, err := k.resolve(v, "")
		if err != nil {
			return Mesh{}, err
		}
		m, err := k.item(item, depth)
		if err != nil {
			return Mesh{}, err
		}
		mesh.Append(m)
	}
	return mesh, nil
}

func (k *Kernel) item(item *ifc.Entity, depth int) (Mesh, error) {
	switch item.Type {
	case "IFCTRIANGULATEDFACESET", "IFCTRIANGULATEDIRREGULARNETWORK":
		return k.triangulatedFaceSet(item)
	case "IFCPOLYGONALFACESET":
		return k.polygonalFaceSet(item)
	case "IFCFACETEDBREP", "IFCFACETEDBREPWITHVOIDS":
		return k.shells(item, 0, 1)
	case "IFCSHELLBASEDSURFACEMODEL", "IFCFACEBASEDSURFACEMODEL":
		return k.shells(item, 0)
	case "IFCCLOSEDSHELL", "IFCOPENSHELL", "IFCCONNECTEDFACESET":
		return k.faces(item)
	case "IFCEXTRUDEDAREASOLID":
		return k.extrusion(item)
	case "IFCMAPPEDITEM":
		return k.mappedItem(item, depth)
	case "IFCBOOLEANRESULT", "IFCBOOLEANCLIPPINGRESULT":
		// the first operand approximates the clipped solid
		operand, err := k.resolve(item.Arg(1), "")
		if err != nil {
			return Mesh{}, err
		}
		return k.item(operand, depth)
	}

	log.Warn().Int("item", item.ID).Str("type", item.Type).Msg("Skipping unsupported geometry item")
	return Mesh{}, nil
}

func (k *Kernel) triangulatedFaceSet(item *ifc.Entity) (Mesh, error) {
	coords, err := k.pointList(item.Arg(0))
	if err != nil {
		return Mesh{}, err
	}
	pn, err := indexList(item.Arg(4))
	if err != nil {
		return Mesh{}, k.malformed(item, err.Error())
	}

	triples := item.Arg(3)
	if triples.Kind != ifc.KindList {
		return Mesh{}, k.malformed(item, "CoordIndex is not a list")
	}

	mesh := Mesh{Vertices: coords}
	for _, t := range triples.List {
		idx, err := indexList(t)
		if err != nil || len(idx) != 3 {
			return Mesh{}, k.malformed(item, "CoordIndex entry is not a triple")
		}
		var face [3]int
		for i, n := range idx {
			face[i], err = resolveIndex(n, pn)
			if err != nil {
				return Mesh{}, k.malformed(item, err.Error())
			}
		}
		mesh.Faces = append(mesh.Faces, face)
	}
	return mesh, nil
}

func (k *Kernel) polygonalFaceSet(item *ifc.Entity) (Mesh, error) {
	coords, err := k.pointList(item.Arg(0))
	if err != nil {
		return Mesh{}, err
	}
	pn, err := indexList(item.Arg(3))
	if err != nil {
		return Mesh{}, k.malformed(item, err.Error())
	}

	faces := item.Arg(2)
	if faces.Kind != ifc.KindList {
		return Mesh{}, k.malformed(item, "Faces is not a list")
	}

	var mesh Mesh
	for _, v := range faces.List {
		face, err := k.resolve(v, "")
		if err != nil {
			return Mesh{}, err
		}
		idx, err := indexList(face.Arg(0))
		if err != nil {
			return Mesh{}, k.malformed(face, err.Error())
		}
		loop := make([]Vec3, len(idx))
		for i, n := range idx {
			j, err := resolveIndex(n, pn)
			if err != nil || j >= len(coords) {
				return Mesh{}, k.malformed(face, fmt.Sprintf("coordinate index %d out of range", n))
			}
			loop[i] = coords[j]
		}
		mesh.Append(polygonMesh(loop))
	}
	return mesh, nil
}

// shells triangulates the shell lists found at the given attribute positions
func (k *Kernel) shells(item *ifc.Entity, attrs ...int) (Mesh, error) {
	var mesh Mesh
	for _, a := range attrs {
		v := item.Arg(a)
		if v.IsNull() {
			continue
		}
		refs := []ifc.Value{v}
		if v.Kind == ifc.KindList {
			refs = v.List
		}
		for _, ref := range refs {
			shell, err := k.resolve(ref, "")
			if err != nil {
				return Mesh{}, err
			}
			m, err := k.faces(shell)
			if err != nil {
				return Mesh{}, err
			}
			mesh.Append(m)
		}
	}
	return mesh, nil
}

func (k *Kernel) faces(shell *ifc.Entity) (Mesh, error) {
	list := shell.Arg(0)
	if list.Kind != ifc.KindList {
		return Mesh{}, k.malformed(shell, "CfsFaces is not a list")
	}

	var mesh Mesh
	for _, v := range list.List {
		face, err := k.resolve(v, "")
		if err != nil {
			return Mesh{}, err
		}
		loop, err := k.outerLoop(face)
		if err != nil {
			return Mesh{}, err
		}
		mesh.Append(polygonMesh(loop))
	}
	return mesh, nil
}

// outerLoop returns the outer polyloop of a face. Inner bounds are ignored.
func (k *Kernel) outerLoop(face *ifc.Entity) ([]Vec3, error) {
	bounds := face.Arg(0)
	if bounds.Kind != ifc.KindList || len(bounds.List) == 0 {
		return nil, k.malformed(face, "Bounds is empty")
	}

	var outer *ifc.Entity
	for _, v := range bounds.List {
		b, err := k.resolve(v, "")
		if err != nil {
			return nil, err
		}
		if b.Type == "IFCFACEOUTERBOUND" {
			outer = b
			break
		}
		if outer == nil {
			outer = b
		}
	}

	loop, err := k.resolve(outer.Arg(0), "")
	if err != nil {
		return nil, err
	}
	if loop.Type != "IFCPOLYLOOP" {
		log.Warn().Int("loop", loop.ID).Str("type", loop.Type).Msg("Skipping unsupported face bound")
		return nil, nil
	}
	return k.points(loop.Arg(0))
}

func (k *Kernel) extrusion(item *ifc.Entity) (Mesh, error) {
	profile, err := k.resolve(item.Arg(0), "")
	if err != nil {
		return Mesh{}, err
	}
	outline, err := k.profile(profile)
	if err != nil || outline == nil {
		return Mesh{}, err
	}

	dir, err := k.direction(item.Arg(2))
	if err != nil {
		return Mesh{}, err
	}
	depth, ok := item.Arg(3).Number()
	if !ok {
		return Mesh{}, k.malformed(item, "Depth is not a number")
	}
	return prism(outline, dir.Scale(depth)), nil
}

func (k *Kernel) profile(p *ifc.Entity) ([]Vec3, error) {
	switch p.Type {
	case "IFCRECTANGLEPROFILEDEF":
		x, okX := p.Arg(3).Number()
		y, okY := p.Arg(4).Number()
		if !okX || !okY {
			return nil, k.malformed(p, "rectangle dimensions are not numbers")
		}
		return []Vec3{{-x / 2, -y / 2, 0}, {x / 2, -y / 2, 0}, {x / 2, y / 2, 0}, {-x / 2, y / 2, 0}}, nil
	case "IFCCIRCLEPROFILEDEF":
		r, ok := p.Arg(3).Number()
		if !ok {
			return nil, k.malformed(p, "Radius is not a number")
		}
		n := k.CircleSegments
		if n < 3 {
			n = defaultCircleSegments
		}
		pts := make([]Vec3, n)
		for i := range pts {
			a := 2 * math.Pi * float64(i) / float64(n)
			pts[i] = Vec3{r * math.Cos(a), r * math.Sin(a), 0}
		}
		return pts, nil
	case "IFCARBITRARYCLOSEDPROFILEDEF", "IFCARBITRARYPROFILEDEFWITHVOIDS":
		curve, err := k.resolve(p.Arg(2), "")
		if err != nil {
			return nil, err
		}
		return k.curve(curve)
	}

	log.Warn().Int("profile", p.ID).Str("type", p.Type).Msg("Skipping unsupported profile")
	return nil, nil
}

func (k *Kernel) curve(c *ifc.Entity) ([]Vec3, error) {
	switch c.Type {
	case "IFCPOLYLINE":
		return k.points(c.Arg(0))
	case "IFCINDEXEDPOLYCURVE":
		// arc segments are approximated by their control points
		return k.pointList(c.Arg(0))
	}
	log.Warn().Int("curve", c.ID).Str("type", c.Type).Msg("Skipping unsupported profile curve")
	return nil, nil
}

func (k *Kernel) mappedItem(item *ifc.Entity, depth int) (Mesh, error) {
	source, err := k.resolve(item.Arg(0), "IFCREPRESENTATIONMAP")
	if err != nil {
		return Mesh{}, err
	}
	rep, err := k.resolve(source.Arg(1), "")
	if err != nil {
		return Mesh{}, err
	}
	mesh, err := k.representation(rep, depth+1)
	if err != nil {
		return Mesh{}, err
	}

	target, err := k.resolve(item.Arg(1), "")
	if err != nil {
		return Mesh{}, err
	}
	if s, ok := target.Arg(3).Number(); ok && s != 1 {
		for i := range mesh.Vertices {
			mesh.Vertices[i] = mesh.Vertices[i].Scale(s)
		}
	}
	return mesh, nil
}

func (k *Kernel) direction(v ifc.Value) (Vec3, error) {
	if v.IsNull() {
		return Vec3{0, 0, 1}, nil
	}
	d, err := k.resolve(v, "IFCDIRECTION")
	if err != nil {
		return Vec3{}, err
	}
	vec, err := coordinates(d.Arg(0))
	if err != nil {
		return Vec3{}, k.malformed(d, err.Error())
	}
	n := vec.Norm()
	if n == 0 {
		return Vec3{}, k.malformed(d, "zero direction")
	}
	return vec.Scale(1 / n), nil
}

// points resolves a list of IfcCartesianPoint references
func (k *Kernel) points(v ifc.Value) ([]Vec3, error) {
	if v.Kind != ifc.KindList {
		return nil, fmt.Errorf("%w: point list expected", ErrMalformedGeometry)
	}
	pts := make([]Vec3, 0, len(v.List))
	for _, ref := range v.List {
		p, err := k.resolve(ref, "IFCCARTESIANPOINT")
		if err != nil {
			return nil, err
		}
		c, err := coordinates(p.Arg(0))
		if err != nil {
			return nil, k.malformed(p, err.Error())
		}
		pts = append(pts, c)
	}
	return pts, nil
}

// pointList reads an IfcCartesianPointList2D/3D
func (k *Kernel) pointList(v ifc.Value) ([]Vec3, error) {
	list, err := k.resolve(v, "")
	if err != nil {
		return nil, err
	}
	if list.Type != "IFCCARTESIANPOINTLIST3D" && list.Type != "IFCCARTESIANPOINTLIST2D" {
		return nil, k.malformed(list, "expected a cartesian point list")
	}
	coords := list.Arg(0)
	if coords.Kind != ifc.KindList {
		return nil, k.malformed(list, "CoordList is not a list")
	}
	pts := make([]Vec3, len(coords.List))
	for i, c := range coords.List {
		pts[i], err = coordinates(c)
		if err != nil {
			return nil, k.malformed(list, err.Error())
		}
	}
	return pts, nil
}

func (k *Kernel) resolve(v ifc.Value, want string) (*ifc.Entity, error) {
	e, err := k.model.Resolve(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedGeometry, err)
	}
	if want != "" && e.Type != want {
		return nil, k.malformed(e, "expected "+want)
	}
	return e, nil
}

func (k *Kernel) malformed(e *ifc.Entity, msg string) error {
	return fmt.Errorf("%w: #%d %s: %s", ErrMalformedGeometry, e.ID, e.Type, msg)
}

func coordinates(v ifc.Value) (Vec3, error) {
	var out Vec3
	if v.Kind != ifc.KindList || len(v.List) < 2 || len(v.List) > 3 {
		return out, fmt.Errorf("coordinates must have 2 or 3 components")
	}
	for i, c := range v.List {
		n, ok := c.Number()
		if !ok {
			return out, fmt.Errorf("coordinate %d is not a number", i)
		}
		out[i] = n
	}
	return out, nil
}

// indexList reads a list of 1-based indices; a null value gives nil
func indexList(v ifc.Value) ([]int, error) {
	if v.IsNull() {
		return nil, nil
	}
	if v.Kind != ifc.KindList {
		return nil, fmt.Errorf("index list expected")
	}
	out := make([]int, len(v.List))
	for i, item := range v.List {
		n, ok := item.Number()
		if !ok {
			return nil, fmt.Errorf("index %d is not a number", i)
		}
		out[i] = int(n)
	}
	return out, nil
}

// resolveIndex turns a 1-based index into a 0-based vertex index, through PnIndex when present
func resolveIndex(n int, pn []int) (int, error) {
	if pn != nil {
		if n < 1 || n > len(pn) {
			return 0, fmt.Errorf("PnIndex position %d out of range", n)
		}
		n = pn[n-1]
	}
	if n < 1 {
		return 0, fmt.Errorf("coordinate index %d out of range", n)
	}
	return n - 1, nil
}

func polygonMesh(loop []Vec3) Mesh {
	tris := TriangulatePolygon(loop)
	if len(tris) == 0 {
		return Mesh{}
	}
	return Mesh{Vertices: loop, Faces: tris}
}

// prism sweeps a closed outline along offset, producing both caps and the side walls
func prism(outline []Vec3, offset Vec3) Mesh {
	n := len(outline)
	if n > 1 && outline[0] == outline[n-1] {
		outline = outline[:n-1]
		n--
	}
	if n < 3 {
		return Mesh{}
	}

	mesh := Mesh{Vertices: make([]Vec3, 0, 2*n)}
	mesh.Vertices = append(mesh.Vertices, outline...)
	for _, p := range outline {
		mesh.Vertices = append(mesh.Vertices, p.Add(offset))
	}

	for _, t := range TriangulatePolygon(outline) {
		mesh.Faces = append(mesh.Faces, [3]int{t[2], t[1], t[0]})
		mesh.Faces = append(mesh.Faces, [3]int{t[0] + n, t[1] + n, t[2] + n})
	}
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		mesh.Faces = append(mesh.Faces, [3]int{i, j, j + n}, [3]int{i, j + n, i + n})
	}
	return mesh
}
