package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/keyfoldhq/keyfold/pkg/model"
	"github.com/keyfoldhq/keyfold/pkg/secrets"
	"github.com/keyfoldhq/keyfold/pkg/server"
)

// secretsImportCmd represents the secrets import command
var secretsImportCmd = &cobra.Command{
	Use:   "import <project> <config> <file>",
	Short: "Import secrets from an env file",
	Long: `Import secrets from a dotenv-style file into a config.

Each KEY=value line is written as a secret; existing values for the same
keys are overwritten. With --watch the file is kept under observation and
re-imported whenever it changes, until interrupted.

Example:
  keyfoldctl secrets import backend production .env
  keyfoldctl secrets import backend production /run/keyfold/env --watch`,
	Args: cobra.ExactArgs(3),
	Run: func(cmd *cobra.Command, args []string) {
		projectSlug, configSlug, filename := args[0], args[1], args[2]

		s, err := openServer()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}

		_, config, err := resolveConfig(s, projectSlug, configSlug)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}

		count, err := importEnvFile(s, config, filename)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Import failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Imported %d secrets into %s/%s\n", count, projectSlug, configSlug)

		if watch, _ := cmd.Flags().GetBool("watch"); watch {
			if err := watchEnvFile(s, config, filename); err != nil {
				fmt.Fprintf(os.Stderr, "Failed to watch %s: %v\n", filename, err)
				os.Exit(1)
			}
		}
	},
}

func init() {
	secretsCmd.AddCommand(secretsImportCmd)
	secretsImportCmd.Flags().BoolP("watch", "w", false, "Keep watching the file and re-import on change")
}

func importEnvFile(s *server.Server, config *model.Config, filename string) (int, error) {
	content, err := os.ReadFile(filename)
	if err != nil {
		return 0, err
	}

	values, err := secrets.ParseEnv(string(content))
	if err != nil {
		return 0, err
	}

	for key, value := range values {
		if _, err := s.SecretsEngine.Put(config.ID, key, value, "keyfoldctl", ""); err != nil {
			return 0, fmt.Errorf("key %s: %w", key, err)
		}
	}
	return len(values), nil
}

// watchEnvFile re-imports the file on every write until interrupted.
func watchEnvFile(s *server.Server, config *model.Config, filename string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()

	if err := watcher.Add(filename); err != nil {
		return err
	}

	fmt.Printf("Watching %s for changes\n", filename)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			fmt.Printf("[%s] File modified, re-importing...\n", time.Now().Format(time.RFC3339))
			count, err := importEnvFile(s, config, filename)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Import failed: %v\n", err)
				continue
			}
			fmt.Printf("Imported %d secrets\n", count)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(os.Stderr, "Watcher error: %v\n", err)
		case <-sigChan:
			fmt.Println("\nShutting down...")
			return nil
		}
	}
}
