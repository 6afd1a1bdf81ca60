package commands

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"bim-rag/internal/helper"
)

var resetIndex bool

func NewIndexCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index",
		Short: "Rebuild the retrieval index for the model",
		Long: `Rebuild the retrieval index for the model.

Useful together with rag.reuse_index, so that the first question does not
pay for the build. With --reset the stored index is removed instead.`,
		Args: cobra.NoArgs,
		RunE: runIndex,
	}
	cmd.Flags().BoolVar(&resetIndex, "reset", false, "Remove the stored index without rebuilding it")
	return cmd
}

func runIndex(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	r, closeStore, err := newRAG(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	if resetIndex {
		return r.ResetIndex(ctx)
	}

	manifest, err := r.BuildIndex(ctx)
	if err != nil {
		return err
	}
	log.Info().Str("model", r.ModelPath()).Int("chunks", manifest.Count).Msg("Index ready")
	helper.PrettyPrint(manifest)
	return nil
}
