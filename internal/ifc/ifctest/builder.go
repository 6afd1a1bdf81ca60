// Package ifctest writes small IFC4 exchange files for tests.
package ifctest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"bim-rag/internal/ifc"
)

// Builder accumulates DATA section instances
type Builder struct {
	lines []string
	next  int
}

func New() *Builder {
	return &Builder{next: 1}
}

func (b *Builder) add(format string, args ...any) int {
	id := b.next
	b.next++
	b.lines = append(b.lines, fmt.Sprintf("#%d=", id)+fmt.Sprintf(format, args...)+";")
	return id
}

// GlobalID returns the identifier assigned to the instance id
func GlobalID(id int) string {
	return fmt.Sprintf("GID%019d", id)
}

func quote(s string) string {
	if s == "" {
		return "$"
	}
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// Element adds an element without geometry, entity is the STEP name such as "IFCWALL"
func (b *Builder) Element(entity, name string) int {
	id := b.next
	return b.add("%s('%s',$,%s,$,$,$,$,$,$)", entity, GlobalID(id), quote(name))
}

// Elements adds n elements named "<prefix> 1".."<prefix> n"
func (b *Builder) Elements(entity, prefix string, n int) {
	for i := 1; i <= n; i++ {
		b.Element(entity, fmt.Sprintf("%s %d", prefix, i))
	}
}

// ElementWithSquare adds an element whose body is a tessellated size x size square
func (b *Builder) ElementWithSquare(entity, name string, size float64) int {
	pts := b.add("IFCCARTESIANPOINTLIST3D(((0.,0.,0.),(%[1]g,0.,0.),(%[1]g,%[1]g,0.),(0.,%[1]g,0.)))", size)
	tfs := b.add("IFCTRIANGULATEDFACESET(#%d,$,$,((1,2,3),(1,3,4)),$)", pts)
	rep := b.add("IFCSHAPEREPRESENTATION($,'Body','Tessellation',(#%d))", tfs)
	shape := b.add("IFCPRODUCTDEFINITIONSHAPE($,$,(#%d))", rep)
	id := b.next
	return b.add("%s('%s',$,%s,$,$,$,#%d,$,$)", entity, GlobalID(id), quote(name), shape)
}

// Storey adds a building storey; an empty name is written as $
func (b *Builder) Storey(name string, elevation float64) int {
	id := b.next
	return b.add("IFCBUILDINGSTOREY('%s',$,%s,$,$,$,$,$,.ELEMENT.,%s)", GlobalID(id), quote(name), ifc.FormatReal(elevation))
}

// String renders the full exchange structure
func (b *Builder) String() string {
	var sb strings.Builder
	sb.WriteString("ISO-10303-21;\nHEADER;\nFILE_DESCRIPTION(('ViewDefinition [ReferenceView]'),'2;1');\n")
	sb.WriteString("FILE_SCHEMA(('IFC4'));\nENDSEC;\nDATA;\n")
	for _, l := range b.lines {
		sb.WriteString(l)
		sb.WriteByte('\n')
	}
	sb.WriteString("ENDSEC;\nEND-ISO-10303-21;\n")
	return sb.String()
}

// Model parses the built file
func (b *Builder) Model(t testing.TB) *ifc.Model {
	t.Helper()
	m, err := ifc.Parse(strings.NewReader(b.String()))
	if err != nil {
		t.Fatalf("parse built model: %v", err)
	}
	return m
}

// WriteFile stores the built file as dir/model.ifc and returns its path
func (b *Builder) WriteFile(t testing.TB, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "model.ifc")
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		t.Fatalf("write model: %v", err)
	}
	return path
}
