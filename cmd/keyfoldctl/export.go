package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/keyfoldhq/keyfold/pkg/secrets"
)

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export <project> <config>",
	Short: "Export a config's secrets",
	Long: `Export a config's effective secrets, including values inherited from
parent configs.

The env format writes KEY=value lines suitable for dotenv files; json writes
a flat object. Use --no-inherit to export only the config's own values.

Example:
  keyfoldctl export backend production
  keyfoldctl export backend production --format json --out secrets.json`,
	Args: cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		format, _ := cmd.Flags().GetString("format")
		if format != "env" && format != "json" {
			fmt.Fprintln(os.Stderr, "format must be json or env")
			os.Exit(1)
		}

		s, err := openServer()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}

		_, config, err := resolveConfig(s, args[0], args[1])
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}

		noInherit, _ := cmd.Flags().GetBool("no-inherit")
		values, _, err := s.SecretsEngine.Export(config.ID, !noInherit, false)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Export failed: %v\n", err)
			os.Exit(1)
		}

		var output []byte
		if format == "json" {
			output, err = json.MarshalIndent(values, "", "  ")
			if err == nil {
				output = append(output, '\n')
			}
		} else {
			var env string
			env, err = secrets.ToEnv(values)
			output = []byte(env)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Export failed: %v\n", err)
			os.Exit(1)
		}

		out, _ := cmd.Flags().GetString("out")
		if out == "" || out == "-" {
			_, _ = os.Stdout.Write(output)
			return
		}
		if err := os.WriteFile(out, output, 0600); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to write %s: %v\n", out, err)
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "Exported %d secrets to %s\n", len(values), out)
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringP("format", "f", "env", "Output format (env or json)")
	exportCmd.Flags().StringP("out", "o", "", "Output file (default: stdout)")
	exportCmd.Flags().Bool("no-inherit", false, "Export only the config's own values")
}
