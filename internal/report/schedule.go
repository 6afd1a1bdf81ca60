// Package report exports element quantities of the model to a spreadsheet.
package report

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/xuri/excelize/v2"

	"bim-rag/internal/ifc"
	"bim-rag/internal/parser"
	"bim-rag/internal/query"
)

const (
	quantitiesSheet = "Quantities"
	storeysSheet    = "Storeys"
)

// Row is the quantity line of one element type
type Row struct {
	Type  ifc.ElementType
	Count int
	Area  float64
}

type Schedule struct {
	Rows    []Row
	Storeys query.StoreyInfo
}

// Build computes counts and surface areas for every recognized element type
func Build(src parser.ElementSource, tri query.Triangulator) (*Schedule, error) {
	s := &Schedule{Storeys: query.Storeys(src)}
	for _, t := range ifc.ElementTypes {
		area, err := query.Area(src, tri, t)
		if err != nil {
			return nil, err
		}
		s.Rows = append(s.Rows, Row{Type: t, Count: query.Count(src, t), Area: area})
	}
	return s, nil
}

// WriteXLSX saves the schedule with one sheet of quantities and one of storeys
func (s *Schedule) WriteXLSX(path string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", quantitiesSheet); err != nil {
		return err
	}
	if err := f.SetSheetRow(quantitiesSheet, "A1", &[]any{"Type", "Count", "Area [m²]"}); err != nil {
		return err
	}
	for i, r := range s.Rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(quantitiesSheet, cell, &[]any{string(r.Type), r.Count, roundArea(r.Area)}); err != nil {
			return err
		}
	}

	if _, err := f.NewSheet(storeysSheet); err != nil {
		return err
	}
	if err := f.SetSheetRow(storeysSheet, "A1", &[]any{"Storey"}); err != nil {
		return err
	}
	for i, name := range s.Storeys.Names {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetCellStr(storeysSheet, cell, name); err != nil {
			return err
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save schedule: %w", err)
	}
	log.Info().Str("path", path).Int("types", len(s.Rows)).Int("storeys", s.Storeys.Count).Msg("Wrote schedule")
	return nil
}

func roundArea(a float64) float64 {
	return float64(int64(a*100+0.5)) / 100
}
