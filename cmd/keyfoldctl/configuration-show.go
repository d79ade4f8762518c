package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/keyfoldhq/keyfold/pkg/config"
)

// configurationShowCmd represents the configuration show command
var configurationShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show configuration attributes and their sources",
	Long: `Show Keyfold configuration attributes and their sources.

The values displayed by this command reflect the current state of the
configuration sources, the config file and environment variables. They may
not reflect the values used by an already running server.

Config file location: /etc/keyfold/config/keyfold.yml (or KEYFOLD_CONFIG_PATH)

Example:
  keyfoldctl configuration show
  keyfoldctl configuration show --output json`,
	Run: func(cmd *cobra.Command, args []string) {
		output, _ := cmd.Flags().GetString("output")

		cfg, err := config.Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
			os.Exit(1)
		}

		if output == "json" {
			jsonOutput, err := cfg.FormatJSON()
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(1)
			}
			fmt.Println(jsonOutput)
			return
		}

		fmt.Print(cfg.FormatText())
	},
}

// configurationTestCmd represents the configuration test command
var configurationTestCmd = &cobra.Command{
	Use:   "test",
	Short: "Validate the configuration",
	Long: `Validate the current state of the configuration sources without
starting the server.

Example:
  keyfoldctl configuration test`,
	Run: func(cmd *cobra.Command, args []string) {
		if _, err := loadConfig(); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		fmt.Println("Configuration is valid")
	},
}

func init() {
	configurationCmd.AddCommand(configurationShowCmd)
	configurationCmd.AddCommand(configurationTestCmd)
	configurationShowCmd.Flags().StringP("output", "o", "text", "Output format (text or json)")
}
