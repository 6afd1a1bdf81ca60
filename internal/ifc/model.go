package ifc

import "fmt"

// ElementType is one of the canonical element type tags answered by the assistant
type ElementType string

const (
	Wall           ElementType = "IfcWall"
	Door           ElementType = "IfcDoor"
	Window         ElementType = "IfcWindow"
	Slab           ElementType = "IfcSlab"
	Column         ElementType = "IfcColumn"
	Beam           ElementType = "IfcBeam"
	Space          ElementType = "IfcSpace"
	BuildingStorey ElementType = "IfcBuildingStorey"
)

// ElementTypes lists the canonical tags in chunking order
var ElementTypes = []ElementType{Wall, Door, Window, Slab, Column, Beam, Space, BuildingStorey}

// entityTags maps STEP entity names, subtypes included, to their canonical tag
var entityTags = map[string]ElementType{
	"IFCWALL":               Wall,
	"IFCWALLSTANDARDCASE":   Wall,
	"IFCWALLELEMENTEDCASE":  Wall,
	"IFCDOOR":               Door,
	"IFCDOORSTANDARDCASE":   Door,
	"IFCWINDOW":             Window,
	"IFCWINDOWSTANDARDCASE": Window,
	"IFCSLAB":               Slab,
	"IFCSLABSTANDARDCASE":   Slab,
	"IFCSLABELEMENTEDCASE":  Slab,
	"IFCCOLUMN":             Column,
	"IFCCOLUMNSTANDARDCASE": Column,
	"IFCBEAM":               Beam,
	"IFCBEAMSTANDARDCASE":   Beam,
	"IFCSPACE":              Space,
	"IFCBUILDINGSTOREY":     BuildingStorey,
}

// Entity is a raw STEP instance
type Entity struct {
	ID   int
	Type string
	Args []Value
}

// Arg returns the i-th attribute or a null value when out of range
func (e *Entity) Arg(i int) Value {
	if i < 0 || i >= len(e.Args) {
		return Value{Kind: KindNull}
	}
	return e.Args[i]
}

// Attribute is a named attribute of an element
type Attribute struct {
	Name  string
	Value Value
}

// Element is a typed building element with a stable global identifier
type Element struct {
	*Entity
	Tag    ElementType
	schema string
}

// GlobalID returns the IfcGloballyUniqueId of the element
func (e *Element) GlobalID() string {
	s, _ := e.Arg(0).Text()
	return s
}

// Name returns the element's Name attribute, empty when absent
func (e *Element) Name() string {
	v, ok := e.Attribute("Name")
	if !ok {
		return ""
	}
	s, _ := v.Text()
	return s
}

// Attribute looks up an attribute by its schema name
func (e *Element) Attribute(name string) (Value, bool) {
	names := attributeNames(e.schema, e.Type)
	for i, n := range names {
		if n == name {
			return e.Arg(i), true
		}
	}
	return Value{}, false
}

// Attributes returns all attributes in schema order
func (e *Element) Attributes() []Attribute {
	names := attributeNames(e.schema, e.Type)
	attrs := make([]Attribute, len(e.Args))
	for i, v := range e.Args {
		name := fmt.Sprintf("Attribute%d", i)
		if i < len(names) {
			name = names[i]
		}
		attrs[i] = Attribute{Name: name, Value: v}
	}
	return attrs
}

// Model is a parsed IFC file. It is immutable once returned by Parse.
type Model struct {
	Schema   string
	entities map[int]*Entity
	order    []int
	elements map[ElementType][]*Element
}

func newModel() *Model {
	return &Model{
		entities: make(map[int]*Entity),
		elements: make(map[ElementType][]*Element),
	}
}

func (m *Model) add(e *Entity) {
	if _, exists := m.entities[e.ID]; !exists {
		m.order = append(m.order, e.ID)
	}
	m.entities[e.ID] = e
}

func (m *Model) index() {
	for _, id := range m.order {
		e := m.entities[id]
		tag, ok := entityTags[e.Type]
		if !ok {
			continue
		}
		m.elements[tag] = append(m.elements[tag], &Element{Entity: e, Tag: tag, schema: m.Schema})
	}
}

// Len returns the number of entity instances
func (m *Model) Len() int {
	return len(m.entities)
}

// Entity returns the instance with the given id
func (m *Model) Entity(id int) (*Entity, bool) {
	e, ok := m.entities[id]
	return e, ok
}

// Resolve follows a reference value to its instance
func (m *Model) Resolve(v Value) (*Entity, error) {
	if v.Kind != KindRef {
		return nil, fmt.Errorf("expected reference, got %s", v.String())
	}
	e, ok := m.entities[v.Ref]
	if !ok {
		return nil, fmt.Errorf("dangling reference #%d", v.Ref)
	}
	return e, nil
}

// ElementsOf returns the elements of a canonical type, subtypes included, in file order
func (m *Model) ElementsOf(t ElementType) []*Element {
	return m.elements[t]
}
