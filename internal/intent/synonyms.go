package intent

import (
	"fmt"
	"strings"

	"bim-rag/internal/ifc"
)

// synonyms maps lowercased English and Polish words to element types.
// It is never modified after package initialization.
var synonyms = map[string]ifc.ElementType{
	"ścian":       ifc.Wall,
	"drzwi":       ifc.Door,
	"okien":       ifc.Window,
	"okna":        ifc.Window,
	"słupów":      ifc.Column,
	"belk":        ifc.Beam,
	"belek":       ifc.Beam,
	"stropów":     ifc.Slab,
	"stropow":     ifc.Slab,
	"przestrzeni": ifc.Space,
	"kondygnacji": ifc.BuildingStorey,
	"pięter":      ifc.BuildingStorey,
	"piętro":      ifc.BuildingStorey,

	"walls":   ifc.Wall,
	"wall":    ifc.Wall,
	"doors":   ifc.Door,
	"door":    ifc.Door,
	"windows": ifc.Window,
	"window":  ifc.Window,
	"columns": ifc.Column,
	"column":  ifc.Column,
	"beams":   ifc.Beam,
	"beam":    ifc.Beam,
	"slabs":   ifc.Slab,
	"slab":    ifc.Slab,
	"spaces":  ifc.Space,
	"space":   ifc.Space,
	"storeys": ifc.BuildingStorey,
	"storey":  ifc.BuildingStorey,
	"floors":  ifc.BuildingStorey,
	"floor":   ifc.BuildingStorey,
	"levels":  ifc.BuildingStorey,
	"level":   ifc.BuildingStorey,
}

// storeyWords select the storey listing instead of a plain count
var storeyWords = []string{"storey", "floor", "level", "kondygnacji", "pięter", "piętro"}

// UnrecognizedTypeError is returned for a word missing from the synonym table
type UnrecognizedTypeError struct {
	Token string
}

func (e *UnrecognizedTypeError) Error() string {
	return fmt.Sprintf("unrecognized element type %q", e.Token)
}

// Lookup maps an already lowercased word to its element type
func Lookup(token string) (ifc.ElementType, error) {
	if t, ok := synonyms[token]; ok {
		return t, nil
	}
	return "", &UnrecognizedTypeError{Token: token}
}

// IsStoreyWord reports whether token names storeys, floors or levels
func IsStoreyWord(token string) bool {
	for _, w := range storeyWords {
		if strings.Contains(token, w) {
			return true
		}
	}
	return false
}
