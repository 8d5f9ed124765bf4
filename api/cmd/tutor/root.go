package main

import (
	"github.com/spf13/cobra"

	"task-helper/api/internal/config"
	"task-helper/api/internal/logging"
)

var (
	cfgFile string
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "tutor",
	Short: "Homework helper: finds a numbered exercise in a PDF textbook and explains it with AI",
	Long: `tutor finds a numbered exercise in a PDF textbook and asks an AI model
to explain it step by step for a school student.

  tutor serve                           # HTTP API + static web client
  tutor find --book algebra.pdf --task 535 --page 12
  tutor ask --type math "Що таке дріб?"
  tutor config init tutor.yaml`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		cfg = c
		logging.SetupTo(cmd.ErrOrStderr(), cfg.LogLevel, cfg.LogFormat)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./tutor.yaml, env overrides file)",
	)
	rootCmd.AddCommand(serveCmd, findCmd, askCmd, configCmd)
}
