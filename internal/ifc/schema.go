package ifc

import "strings"

var (
	rootAttributes    = []string{"GlobalId", "OwnerHistory", "Name", "Description", "ObjectType", "ObjectPlacement", "Representation"}
	elementAttributes = append(clone(rootAttributes), "Tag")
	spatialAttributes = append(clone(rootAttributes), "LongName", "CompositionType")
)

// attribute names by entity, IFC2X3
var ifc2x3Attributes = map[string][]string{
	"IFCWALL":           elementAttributes,
	"IFCDOOR":           append(clone(elementAttributes), "OverallHeight", "OverallWidth"),
	"IFCWINDOW":         append(clone(elementAttributes), "OverallHeight", "OverallWidth"),
	"IFCSLAB":           append(clone(elementAttributes), "PredefinedType"),
	"IFCCOLUMN":         elementAttributes,
	"IFCBEAM":           elementAttributes,
	"IFCSPACE":          append(clone(spatialAttributes), "InteriorOrExteriorSpace", "ElevationWithFlooring"),
	"IFCBUILDINGSTOREY": append(clone(spatialAttributes), "Elevation"),
}

// attribute names by entity, IFC4 and later
var ifc4Attributes = map[string][]string{
	"IFCWALL":           append(clone(elementAttributes), "PredefinedType"),
	"IFCDOOR":           append(clone(elementAttributes), "OverallHeight", "OverallWidth", "PredefinedType", "OperationType", "UserDefinedOperationType"),
	"IFCWINDOW":         append(clone(elementAttributes), "OverallHeight", "OverallWidth", "PredefinedType", "PartitioningType", "UserDefinedPartitioningType"),
	"IFCSLAB":           append(clone(elementAttributes), "PredefinedType"),
	"IFCCOLUMN":         append(clone(elementAttributes), "PredefinedType"),
	"IFCBEAM":           append(clone(elementAttributes), "PredefinedType"),
	"IFCSPACE":          append(clone(spatialAttributes), "PredefinedType", "ElevationWithFlooring"),
	"IFCBUILDINGSTOREY": append(clone(spatialAttributes), "Elevation"),
}

// subtypes that add no attributes of their own
var attributeAliases = map[string]string{
	"IFCWALLSTANDARDCASE":   "IFCWALL",
	"IFCWALLELEMENTEDCASE":  "IFCWALL",
	"IFCDOORSTANDARDCASE":   "IFCDOOR",
	"IFCWINDOWSTANDARDCASE": "IFCWINDOW",
	"IFCSLABSTANDARDCASE":   "IFCSLAB",
	"IFCSLABELEMENTEDCASE":  "IFCSLAB",
	"IFCCOLUMNSTANDARDCASE": "IFCCOLUMN",
	"IFCBEAMSTANDARDCASE":   "IFCBEAM",
}

func attributeNames(schema, entity string) []string {
	if alias, ok := attributeAliases[entity]; ok {
		entity = alias
	}
	table := ifc4Attributes
	if strings.HasPrefix(schema, "IFC2X") {
		table = ifc2x3Attributes
	}
	if names, ok := table[entity]; ok {
		return names
	}
	return rootAttributes
}

func clone(s []string) []string {
	return append([]string(nil), s...)
}
