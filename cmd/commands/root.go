package commands

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"bim-rag/internal/config"
	"bim-rag/internal/helper"
)

const defaultConfigPath = "./configs/config.yaml"

var (
	configPath string
	modelPath  string
	cfg        *config.Config

	version = "dev"
	commit  = "none"
)

func SetVersion(v, c string) {
	version = v
	commit = c
}

// NewRootCmd creates the root command with every subcommand attached
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bim-rag",
		Short: "Answer questions about an IFC building model",
		Long: `Answer natural-language questions about an IFC building model.

Counts, surface areas and storey listings are computed directly from the
model. Other questions are answered by retrieving textualized model
fragments and asking a generative model.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := config.LoadConfig(configPath)
			if err != nil {
				return err
			}
			if modelPath != "" {
				loaded.Model.Path = modelPath
			}
			cfg = loaded
			helper.SetupLogger(&cfg.Logging)
			log.Debug().Str("config", configPath).Str("model", cfg.Model.Path).Str("store", cfg.RAG.VectorStore).Msg("Loaded config")
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", defaultConfigPath, "Path to the YAML config file")
	cmd.PersistentFlags().StringVarP(&modelPath, "model", "m", "", "IFC model to load, overrides model.path")

	cmd.AddCommand(
		NewServeCmd(),
		NewAskCmd(),
		NewIndexCmd(),
		NewScheduleCmd(),
		NewMCPCmd(),
		NewVersionCmd(),
	)
	return cmd
}

// Execute runs the root command
func Execute() error {
	return NewRootCmd().Execute()
}
