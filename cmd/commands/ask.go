package commands

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func NewAskCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ask <question>",
		Short: "Answer one question and exit",
		Example: `  bim-rag ask "How many walls are there?"
  bim-rag ask "powierzchnia ścian"`,
		Args: cobra.MinimumNArgs(1),
		RunE: runAsk,
	}
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	question := strings.Join(args, " ")

	r, closeStore, err := newRAG(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	response, err := r.Query(ctx, question)
	if err != nil {
		return err
	}

	log.Info().Str("source", response.Source).Msg("Answered")
	fmt.Fprintln(cmd.OutOrStdout(), response.Content)
	return nil
}
