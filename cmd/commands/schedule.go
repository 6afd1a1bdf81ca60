package commands

import (
	"github.com/spf13/cobra"

	"bim-rag/internal/report"
)

var scheduleOut string

func NewScheduleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Export element counts, areas and storeys to xlsx",
		Args:  cobra.NoArgs,
		RunE:  runSchedule,
	}
	cmd.Flags().StringVarP(&scheduleOut, "out", "o", "schedule.xlsx", "Output spreadsheet")
	return cmd
}

func runSchedule(cmd *cobra.Command, args []string) error {
	r, closeStore, err := newRAG(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	model, kernel, err := r.Model()
	if err != nil {
		return err
	}
	s, err := report.Build(model, kernel)
	if err != nil {
		return err
	}
	return s.WriteXLSX(scheduleOut)
}
