package main

import (
	"github.com/spf13/cobra"

	"github.com/vovakirdan/tui-flappy/internal/config"
)

var flagDefault bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration",
	Long: `Print the configuration flappy would run with, as YAML.

Configuration is read from the first of:
  --config <path>
  ~/.flappy/config.yaml
  ./configs/flappy.yaml
  built-in defaults

Keys missing from a file keep their default values.`,
	Args: cobra.NoArgs,
	RunE: runConfig,
}

func init() {
	configCmd.Flags().BoolVar(&flagDefault, "default", false, "Print the built-in defaults instead")
}

func runConfig(cmd *cobra.Command, _ []string) error {
	if flagDefault {
		_, err := cmd.OutOrStdout().Write(config.DefaultYAML())
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	data, err := config.Marshal(cfg)
	if err != nil {
		return err
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}
