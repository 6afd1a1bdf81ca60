package intent

import (
	"errors"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bim-rag/internal/ifc"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		question string
		kind     Kind
		lang     Language
		token    string
		typ      ifc.ElementType
	}{
		{name: "english count", question: "How many walls are there?", kind: Count, lang: English, token: "walls", typ: ifc.Wall},
		{name: "polish count", question: "Ile jest drzwi?", kind: Count, lang: Polish, token: "drzwi", typ: ifc.Door},
		{name: "polish count with mam", question: "  ile mam okien  ", kind: Count, lang: Polish, token: "okien", typ: ifc.Window},
		{name: "english count singular", question: "how many is beam", kind: Count, lang: English, token: "beam", typ: ifc.Beam},
		{name: "english storeys", question: "How many floors does it have?", kind: StoreyCount, lang: English, token: "floors", typ: ifc.BuildingStorey},
		{name: "polish storeys", question: "Ile jest kondygnacji?", kind: StoreyCount, lang: Polish, token: "kondygnacji", typ: ifc.BuildingStorey},
		{name: "polish floors word", question: "Ile pięter ma budynek?", kind: StoreyCount, lang: Polish, token: "pięter", typ: ifc.BuildingStorey},
		{name: "area", question: "powierzchnia ścian", kind: Area, lang: Polish, token: "ścian", typ: ifc.Wall},
		{name: "area inflected", question: "Jaka jest powierzchnię stropów?", kind: Area, lang: Polish, token: "stropów", typ: ifc.Slab},
		{name: "count unknown falls to area", question: "ile powierzchni słupów", kind: Area, lang: Polish, token: "słupów", typ: ifc.Column},
		{name: "count unknown falls back", question: "how many cats are there", kind: SemanticFallback, lang: English},
		{name: "free text", question: "What material is the roof?", kind: SemanticFallback, lang: Polish},
		{name: "count beats area", question: "ile ścian i powierzchnia okien", kind: Count, lang: Polish, token: "ścian", typ: ifc.Wall},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Classify(tt.question)
			assert.Equal(t, tt.kind, d.Kind)
			assert.Equal(t, tt.lang, d.Language)
			assert.Equal(t, tt.token, d.Token)
			assert.Equal(t, tt.typ, d.Type)
			assert.Nil(t, d.Err)
		})
	}
}

func TestClassifyUnknownAreaType(t *testing.T) {
	d := Classify("powierzchnia garaży")
	assert.Equal(t, Area, d.Kind)
	assert.Equal(t, "garaży", d.Token)
	require.NotNil(t, d.Err)
	assert.Equal(t, "garaży", d.Err.Token)
}

func TestLookup(t *testing.T) {
	typ, err := Lookup("okna")
	require.NoError(t, err)
	assert.Equal(t, ifc.Window, typ)

	_, err = Lookup("Walls")
	var unknown *UnrecognizedTypeError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, "Walls", unknown.Token)
}

func TestSynonymsAreCanonical(t *testing.T) {
	for token, tag := range synonyms {
		assert.True(t, slices.Contains(ifc.ElementTypes, tag), token)
	}
}

func TestIsStoreyWord(t *testing.T) {
	assert.True(t, IsStoreyWord("storeys"))
	assert.True(t, IsStoreyWord("piętro"))
	assert.False(t, IsStoreyWord("walls"))
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "count", Count.String())
	assert.Equal(t, "storeys", StoreyCount.String())
	assert.Equal(t, "semantic", SemanticFallback.String())
}
