package main

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/keyfoldhq/keyfold/pkg/refs"
	"github.com/keyfoldhq/keyfold/pkg/server"
	"github.com/keyfoldhq/keyfold/pkg/server/store"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run <project> <config> -- <command> [args...]",
	Short: "Run a command with a config's secrets in its environment",
	Long: `Run a command with a config's effective secrets merged into its
environment.

Secrets are exported with inheritance, references are resolved, and the
result is layered over the current environment before the child process
starts. The child's exit code becomes keyfoldctl's exit code.

Example:
  keyfoldctl run backend production -- ./bin/api
  keyfoldctl run backend dev --print-env -- npm start`,
	Args: func(cmd *cobra.Command, args []string) error {
		if cmd.ArgsLenAtDash() != 2 {
			return errors.New("expected: run <project> <config> -- <command> [args...]")
		}
		if len(args) < 3 {
			return errors.New("command is required after --")
		}
		return nil
	},
	Run: func(cmd *cobra.Command, args []string) {
		s, err := openServer()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}

		project, config, err := resolveConfig(s, args[0], args[1])
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}

		values, _, err := s.SecretsEngine.Export(config.ID, true, false)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Export failed: %v\n", err)
			os.Exit(1)
		}

		resolver, err := newRunResolver(s, project.Slug, config.Slug, values)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		values, err = resolver.ResolveMap(values)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Reference resolution failed: %v\n", err)
			os.Exit(1)
		}

		if printEnv, _ := cmd.Flags().GetBool("print-env"); printEnv {
			showValues, _ := cmd.Flags().GetBool("show-values")
			printEnvKeys(values, showValues)
		}

		os.Exit(runWithEnv(args[2], args[3:], values))
	},
}

// newRunResolver builds a resolver over the live stores. The CLI runs with
// operator access, so foreign contexts are not scope gated.
func newRunResolver(s *server.Server, projectSlug, configSlug string, rootData map[string]string) (*refs.Resolver, error) {
	workspace, err := s.Workspaces.EnsureDefault()
	if err != nil {
		return nil, err
	}
	return refs.NewResolver(refs.Options{
		ProjectSlug: projectSlug,
		ConfigSlug:  configSlug,
		GetProjectBySlug: func(slug string) (string, bool, error) {
			project, err := s.Projects.GetBySlug(workspace.ID, slug)
			if err != nil {
				if errors.Is(err, store.ErrProjectNotFound) {
					return "", false, nil
				}
				return "", false, err
			}
			return project.ID, true, nil
		},
		GetConfigBySlug: func(projectID, slug string) (string, bool, error) {
			config, err := s.Configs.GetBySlug(projectID, slug)
			if err != nil {
				if errors.Is(err, store.ErrConfigNotFound) {
					return "", false, nil
				}
				return "", false, err
			}
			return config.ID, true, nil
		},
		ExportConfig: func(configID string) (map[string]string, error) {
			data, _, err := s.SecretsEngine.Export(configID, true, false)
			return data, err
		},
		RequireScope: func(action, projectID, configID string) error { return nil },
		MaxDepth:     s.Config.MaxReferenceDepth,
		RootData:     rootData,
	})
}

func printEnvKeys(values map[string]string, showValues bool) {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if showValues {
			fmt.Fprintf(os.Stderr, "%s=%s\n", key, values[key])
		} else {
			fmt.Fprintln(os.Stderr, key)
		}
	}
}

// runWithEnv execs the child with the secrets layered over the inherited
// environment and returns its exit code.
func runWithEnv(name string, args []string, values map[string]string) int {
	child := exec.Command(name, args...)
	child.Stdin = os.Stdin
	child.Stdout = os.Stdout
	child.Stderr = os.Stderr
	child.Env = mergeEnv(os.Environ(), values)

	if err := child.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return exitErr.ExitCode()
		}
		fmt.Fprintf(os.Stderr, "Failed to run %s: %v\n", name, err)
		return 1
	}
	return 0
}

// mergeEnv layers the secret values over base, replacing any variable of the
// same name.
func mergeEnv(base []string, values map[string]string) []string {
	merged := make([]string, 0, len(base)+len(values))
	for _, entry := range base {
		name, _, _ := strings.Cut(entry, "=")
		if _, shadowed := values[name]; !shadowed {
			merged = append(merged, entry)
		}
	}
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		merged = append(merged, key+"="+values[key])
	}
	return merged
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().Bool("print-env", false, "Print the resolved keys before running the command")
	runCmd.Flags().Bool("show-values", false, "Show values with --print-env")
}
