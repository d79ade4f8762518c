package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "keyfoldctl",
	Short: "Keyfold secret storage server and admin tooling",
	Long: `keyfoldctl runs and administers a Keyfold server.

Keyfold stores secrets per project and config, layers configs through
inheritance, and controls access with scoped API tokens.

Configuration is read from /etc/keyfold/config/keyfold.yml (override with
KEYFOLD_CONFIG_PATH) and KEYFOLD_* environment variables.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func main() {
	Execute()
}
