package report

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"bim-rag/internal/geometry"
	"bim-rag/internal/ifc"
	"bim-rag/internal/ifc/ifctest"
)

func TestBuild(t *testing.T) {
	b := ifctest.New()
	b.ElementWithSquare("IFCWALL", "A", 1)
	b.ElementWithSquare("IFCWALL", "B", 2)
	b.Elements("IFCDOOR", "Drzwi", 3)
	b.Storey("Parter", 0)
	m := b.Model(t)

	s, err := Build(m, geometry.NewKernel(m))
	require.NoError(t, err)
	require.Len(t, s.Rows, len(ifc.ElementTypes))

	assert.Equal(t, Row{Type: ifc.Wall, Count: 2, Area: 5}, s.Rows[0])
	assert.Equal(t, Row{Type: ifc.Door, Count: 3}, s.Rows[1])
	assert.Equal(t, 1, s.Storeys.Count)
}

func TestWriteXLSX(t *testing.T) {
	b := ifctest.New()
	b.ElementWithSquare("IFCSLAB", "Strop", 1.5)
	b.Storey("Parter", 0)
	b.Storey("", 3000)
	m := b.Model(t)

	s, err := Build(m, geometry.NewKernel(m))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "schedule.xlsx")
	require.NoError(t, s.WriteXLSX(path))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{quantitiesSheet, storeysSheet}, f.GetSheetList())

	rows, err := f.GetRows(quantitiesSheet)
	require.NoError(t, err)
	require.Len(t, rows, len(ifc.ElementTypes)+1)
	assert.Equal(t, []string{"Type", "Count", "Area [m²]"}, rows[0])
	assert.Equal(t, []string{"IfcSlab", "1", "2.25"}, rows[4])

	storeys, err := f.GetRows(storeysSheet)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"Storey"}, {"3000.0"}, {"Parter"}}, storeys)
}

func TestRoundArea(t *testing.T) {
	assert.Equal(t, 2.25, roundArea(2.2499999999))
	assert.Equal(t, 0.0, roundArea(0))
	assert.Equal(t, 1.01, roundArea(1.005000001))
}
