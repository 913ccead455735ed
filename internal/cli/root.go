// Package cli implements the teamtask command line.
package cli

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/Stachugit-s/teamtaskmanager2/internal/config"
	"github.com/Stachugit-s/teamtaskmanager2/internal/logging"
)

var (
	configPath string
	logger     *logrus.Logger
)

var rootCmd = &cobra.Command{
	Use:   "teamtask",
	Short: "Team task manager API",
	Long:  `Team, project, task and comment management with per-team authorization.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.LoadConfig(configPath); err != nil {
			return err
		}
		l, err := logging.New(config.App.LogLevel, config.App.LogFormat, cmd.OutOrStdout())
		if err != nil {
			return err
		}
		logger = l
		return nil
	},
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a config file (default: ./config/teamtask.yaml or ./teamtask.yaml)")
}
