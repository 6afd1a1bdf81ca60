package parser

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bim-rag/internal/config"
	"bim-rag/internal/ifc"
	"bim-rag/internal/ifc/ifctest"
	"bim-rag/internal/models"
)

func TestParseModelBatches(t *testing.T) {
	b := ifctest.New()
	b.Storey("Parter", 0)
	b.Elements("IFCWALL", "Wall", 23)
	b.Elements("IFCDOOR", "Door", 3)
	m := b.Model(t)

	chunks := ParseModel(m, nil)
	require.Len(t, chunks, 5)

	wantTypes := []string{"IfcWall", "IfcWall", "IfcWall", "IfcDoor", "IfcBuildingStorey"}
	wantSizes := []int{10, 10, 3, 3, 1}
	for i, c := range chunks {
		assert.Equal(t, i, c.ChunkID)
		assert.Equal(t, wantTypes[i], c.ElementType)
		assert.Equal(t, wantSizes[i], strings.Count(c.Content, models.ContextSeparator)+1, "chunk %d", i)
	}
	assert.Equal(t, 2, chunks[2].Batch)
	assert.True(t, strings.HasPrefix(chunks[3].Content, "IfcDoor "+ifctest.GlobalID(25)))
}

func TestParseModelBatchSize(t *testing.T) {
	b := ifctest.New()
	b.Elements("IFCWALL", "Wall", 5)
	m := b.Model(t)

	cfg := config.Default()
	cfg.RAG.BatchSize = 2
	chunks := ParseModel(m, cfg)
	assert.Len(t, chunks, 3)
}

func TestParseModelIdempotent(t *testing.T) {
	b := ifctest.New()
	b.Elements("IFCWALL", "Wall", 12)
	b.Elements("IFCSLAB", "Slab", 2)
	m := b.Model(t)

	assert.Equal(t, ParseModel(m, nil), ParseModel(m, nil))
}

func TestParseModelEmpty(t *testing.T) {
	m := ifctest.New().Model(t)
	assert.Empty(t, ParseModel(m, nil))
}

func TestTextualize(t *testing.T) {
	b := ifctest.New()
	b.ElementWithSquare("IFCWALLSTANDARDCASE", "Ściana 'A'", 1)
	m := b.Model(t)

	walls := m.ElementsOf(ifc.Wall)
	require.Len(t, walls, 1)

	text := Textualize(ifc.Wall, walls[0])
	want := "IfcWall " + walls[0].GlobalID() + "\n" +
		"GlobalId: " + walls[0].GlobalID() + "\n" +
		"Name: Ściana 'A'"
	assert.Equal(t, want, text)
	assert.NotContains(t, text, "Representation")
}

func TestTextualizeStorey(t *testing.T) {
	b := ifctest.New()
	b.Storey("", 3000)
	m := b.Model(t)

	text := Textualize(ifc.BuildingStorey, m.ElementsOf(ifc.BuildingStorey)[0])
	assert.Contains(t, text, "CompositionType: ELEMENT")
	assert.Contains(t, text, "Elevation: 3000.0")
	assert.NotContains(t, text, "Name:")
}
