package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/optionsim/config"
)

var configCmd = &cobra.Command{
	Use:   "config [path]",
	Short: "Write a default configuration file",
	Long: `Config writes the fully documented default configuration to the given
path (YAML or JSON by extension, default optionsim.yaml).`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := "optionsim.yaml"
		if len(args) == 1 {
			path = args[0]
		}

		cfg := config.Default()
		if err := cfg.SaveToFile(path); err != nil {
			return err
		}

		fmt.Printf("Wrote default config to %s\n", path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
}
