package geometry

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bim-rag/internal/ifc"
)

func TestTriangleArea(t *testing.T) {
	assert.InDelta(t, 0.5, TriangleArea(Vec3{0, 0, 0}, Vec3{1, 0, 0}, Vec3{0, 1, 0}), 1e-12)
	assert.InDelta(t, 6.0, TriangleArea(Vec3{0, 0, 0}, Vec3{0, 4, 0}, Vec3{0, 0, 3}), 1e-12)
	assert.Zero(t, TriangleArea(Vec3{0, 0, 0}, Vec3{1, 1, 1}, Vec3{2, 2, 2}))
}

func TestMeshArea(t *testing.T) {
	square := Mesh{
		Vertices: []Vec3{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0}},
		Faces:    [][3]int{{0, 1, 2}, {0, 2, 3}},
	}
	area, err := square.Area()
	require.NoError(t, err)
	assert.InDelta(t, 1.0, area, 1e-12)

	empty, err := Mesh{}.Area()
	require.NoError(t, err)
	assert.Zero(t, empty)

	bad := Mesh{Vertices: []Vec3{{0, 0, 0}}, Faces: [][3]int{{0, 1, 2}}}
	_, err = bad.Area()
	assert.ErrorContains(t, err, "out of range")
}

func TestMeshAppend(t *testing.T) {
	var m Mesh
	tri := Mesh{Vertices: []Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}}, Faces: [][3]int{{0, 1, 2}}}
	m.Append(tri)
	m.Append(tri)
	assert.Len(t, m.Vertices, 6)
	assert.Equal(t, [3]int{3, 4, 5}, m.Faces[1])

	area, err := m.Area()
	require.NoError(t, err)
	assert.InDelta(t, 1.0, area, 1e-12)
}

func polygonArea(t *testing.T, pts []Vec3) float64 {
	t.Helper()
	area, err := polygonMesh(pts).Area()
	require.NoError(t, err)
	return area
}

func TestTriangulatePolygon(t *testing.T) {
	lShape := []Vec3{{0, 0, 0}, {2, 0, 0}, {2, 1, 0}, {1, 1, 0}, {1, 2, 0}, {0, 2, 0}}
	assert.Len(t, TriangulatePolygon(lShape), 4)
	assert.InDelta(t, 3.0, polygonArea(t, lShape), 1e-9)

	clockwise := []Vec3{{0, 2, 0}, {1, 2, 0}, {1, 1, 0}, {2, 1, 0}, {2, 0, 0}, {0, 0, 0}}
	assert.InDelta(t, 3.0, polygonArea(t, clockwise), 1e-9)

	closed := []Vec3{{0, 0, 0}, {0, 3, 0}, {0, 3, 2}, {0, 0, 2}, {0, 0, 0}}
	assert.InDelta(t, 6.0, polygonArea(t, closed), 1e-9)

	assert.Nil(t, TriangulatePolygon([]Vec3{{0, 0, 0}, {1, 0, 0}}))
}

func TestPrism(t *testing.T) {
	box := prism([]Vec3{{0, 0, 0}, {2, 0, 0}, {2, 3, 0}, {0, 3, 0}}, Vec3{0, 0, 4})
	area, err := box.Area()
	require.NoError(t, err)
	assert.InDelta(t, 52.0, area, 1e-9)
}

const geometryModel = `ISO-10303-21;
HEADER;
FILE_SCHEMA(('IFC4'));
ENDSEC;
DATA;
#1=IFCCARTESIANPOINTLIST3D(((0.,0.,0.),(1.,0.,0.),(1.,1.,0.),(0.,1.,0.)));
#2=IFCTRIANGULATEDFACESET(#1,$,$,((1,2,3),(1,3,4)),$);
#3=IFCSHAPEREPRESENTATION(#100,'Body','Tessellation',(#2));
#4=IFCPRODUCTDEFINITIONSHAPE($,$,(#3));
#5=IFCWALL('w1',$,'Tessellated',$,$,$,#4,$,$);
#10=IFCRECTANGLEPROFILEDEF(.AREA.,$,$,2.,3.);
#11=IFCDIRECTION((0.,0.,1.));
#12=IFCEXTRUDEDAREASOLID(#10,$,#11,4.);
#13=IFCSHAPEREPRESENTATION(#100,'Axis','Curve2D',(#99));
#14=IFCSHAPEREPRESENTATION(#100,'Body','SweptSolid',(#12));
#15=IFCPRODUCTDEFINITIONSHAPE($,$,(#13,#14));
#16=IFCCOLUMN('c1',$,'Extruded',$,$,$,#15,$,$);
#20=IFCCARTESIANPOINT((0.,0.,0.));
#21=IFCCARTESIANPOINT((2.,0.,0.));
#22=IFCCARTESIANPOINT((2.,2.,0.));
#23=IFCCARTESIANPOINT((0.,2.,0.));
#24=IFCPOLYLOOP((#20,#21,#22,#23));
#25=IFCFACEOUTERBOUND(#24,.T.);
#26=IFCFACE((#25));
#27=IFCCLOSEDSHELL((#26));
#28=IFCFACETEDBREP(#27);
#29=IFCSHAPEREPRESENTATION(#100,'Body','Brep',(#28));
#30=IFCREPRESENTATIONMAP(#40,#29);
#31=IFCCARTESIANTRANSFORMATIONOPERATOR3D($,$,#20,2.,$);
#32=IFCMAPPEDITEM(#30,#31);
#33=IFCSHAPEREPRESENTATION(#100,'Body','MappedRepresentation',(#32));
#34=IFCPRODUCTDEFINITIONSHAPE($,$,(#33));
#35=IFCSLAB('s1',$,'Mapped',$,$,$,#34,$,$);
#36=IFCSLAB('s2',$,'No geometry',$,$,$,$,$,$);
#37=IFCSHAPEREPRESENTATION(#100,'Body','Tessellation',(#404));
#38=IFCPRODUCTDEFINITIONSHAPE($,$,(#37));
#39=IFCBEAM('b1',$,'Broken',$,$,$,#38,$,$);
#41=IFCSPHERE(#40,1.);
#42=IFCSHAPEREPRESENTATION(#100,'Body','CSG',(#41));
#43=IFCPRODUCTDEFINITIONSHAPE($,$,(#42));
#44=IFCBEAM('b2',$,'Unsupported',$,$,$,#43,$,$);
ENDSEC;
END-ISO-10303-21;
`

func kernelFor(t *testing.T) (*Kernel, *ifc.Model) {
	t.Helper()
	m, err := ifc.Parse(strings.NewReader(geometryModel))
	require.NoError(t, err)
	return NewKernel(m), m
}

func elementArea(t *testing.T, k *Kernel, el *ifc.Element) float64 {
	t.Helper()
	mesh, err := k.Triangulate(el)
	require.NoError(t, err)
	area, err := mesh.Area()
	require.NoError(t, err)
	return area
}

func TestKernelTriangulate(t *testing.T) {
	k, m := kernelFor(t)

	assert.InDelta(t, 1.0, elementArea(t, k, m.ElementsOf(ifc.Wall)[0]), 1e-9)
	assert.InDelta(t, 52.0, elementArea(t, k, m.ElementsOf(ifc.Column)[0]), 1e-9)

	slabs := m.ElementsOf(ifc.Slab)
	require.Len(t, slabs, 2)
	// mapped 2x2 face scaled by 2
	assert.InDelta(t, 16.0, elementArea(t, k, slabs[0]), 1e-9)
	assert.Zero(t, elementArea(t, k, slabs[1]))
}

func TestKernelMalformed(t *testing.T) {
	k, m := kernelFor(t)
	beams := m.ElementsOf(ifc.Beam)
	require.Len(t, beams, 2)

	_, err := k.Triangulate(beams[0])
	assert.ErrorIs(t, err, ErrMalformedGeometry)

	assert.Zero(t, elementArea(t, k, beams[1]))
}

func TestKernelKeepsVoidedBody(t *testing.T) {
	m, err := ifc.Parse(strings.NewReader(`DATA;
#1=IFCCARTESIANPOINTLIST3D(((0.,0.,0.),(2.,0.,0.),(2.,2.,0.),(0.,2.,0.)));
#2=IFCTRIANGULATEDFACESET(#1,$,$,((1,2,3),(1,3,4)),$);
#3=IFCSHAPEREPRESENTATION($,'Body','Tessellation',(#2));
#4=IFCPRODUCTDEFINITIONSHAPE($,$,(#3));
#5=IFCWALL('w1',$,'Wall with window',$,$,$,#4,$,$);
#6=IFCOPENINGELEMENT('o1',$,'Opening',$,$,$,$,$,$);
#7=IFCRELVOIDSELEMENT('r1',$,$,$,#5,#6);
`))
	require.NoError(t, err)

	// openings are not subtracted from the body
	walls := m.ElementsOf(ifc.Wall)
	require.Len(t, walls, 1)
	assert.InDelta(t, 4.0, elementArea(t, NewKernel(m), walls[0]), 1e-9)
}
