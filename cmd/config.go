package cmd

import (
	"github.com/spf13/cobra"
)

// configCmd prints the effective configuration.
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration as YAML",
	Long: `Print the configuration after applying defaults, the config file and
GAMESNIFF_* environment overrides. The output can be saved and passed back
with --config.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		return cfg.Dump(cmd.OutOrStdout())
	},
}
