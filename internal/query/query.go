// Package query answers structured questions directly from model elements.
package query

import (
	"fmt"
	"sort"

	"github.com/rs/zerolog/log"

	"bim-rag/internal/geometry"
	"bim-rag/internal/ifc"
	"bim-rag/internal/parser"
)

// Triangulator produces the surface mesh of an element
type Triangulator interface {
	Triangulate(el *ifc.Element) (geometry.Mesh, error)
}

// StoreyInfo lists the building storeys
type StoreyInfo struct {
	Count int
	Names []string
}

// Count returns the number of elements of type t
func Count(src parser.ElementSource, t ifc.ElementType) int {
	return len(src.ElementsOf(t))
}

// Area sums the triangle areas of every element of type t, in model units squared
func Area(src parser.ElementSource, tri Triangulator, t ifc.ElementType) (float64, error) {
	total := 0.0
	for _, el := range src.ElementsOf(t) {
		mesh, err := tri.Triangulate(el)
		if err != nil {
			return 0, fmt.Errorf("failed to triangulate %s: %w", t, err)
		}
		area, err := mesh.Area()
		if err != nil {
			return 0, fmt.Errorf("element %s: %w", el.GlobalID(), err)
		}
		total += area
	}
	log.Debug().Str("type", string(t)).Float64("area", total).Msg("Computed surface area")
	return total, nil
}

// Storeys returns the storey count and display names sorted as strings.
// A storey without a name is shown by its elevation, or "None" when it
// has neither.
func Storeys(src parser.ElementSource) StoreyInfo {
	storeys := src.ElementsOf(ifc.BuildingStorey)
	names := make([]string, 0, len(storeys))
	for _, s := range storeys {
		names = append(names, storeyName(s))
	}
	sort.Strings(names)
	return StoreyInfo{Count: len(storeys), Names: names}
}

const missingElevation = "None"

func storeyName(s *ifc.Element) string {
	if name := s.Name(); name != "" {
		return name
	}
	if v, ok := s.Attribute("Elevation"); ok && !v.IsNull() {
		return v.String()
	}
	return missingElevation
}
