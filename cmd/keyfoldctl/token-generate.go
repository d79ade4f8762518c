package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/keyfoldhq/keyfold/pkg/authn"
	"github.com/keyfoldhq/keyfold/pkg/model"
)

// tokenGenerateCmd represents the token generate command
var tokenGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate an API token",
	Long: `Generate an API token.

With --user a personal token is minted for that user; its effective access
follows the user's live role. With --service a service token is minted with
exactly the given actions, optionally scoped to a project and config.

The token plaintext is printed once and never stored.

Example:
  keyfoldctl token generate --user admin
  keyfoldctl token generate --service ci --project backend --config production \
    --action secrets:read --action secrets:export`,
	Run: func(cmd *cobra.Command, args []string) {
		user, _ := cmd.Flags().GetString("user")
		service, _ := cmd.Flags().GetString("service")
		if (user == "") == (service == "") {
			fmt.Fprintln(os.Stderr, "exactly one of --user or --service is required")
			os.Exit(1)
		}

		s, err := openServer()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}

		params := authn.CreateTokenParams{CreatedBy: "keyfoldctl"}

		if ttl, _ := cmd.Flags().GetDuration("ttl"); ttl > 0 {
			expiresAt := time.Now().UTC().Add(ttl)
			params.ExpiresAt = &expiresAt
		}

		if user != "" {
			params.Type = model.TokenTypePersonal
			params.SubjectUser = user
			params.Scopes = authn.GlobalScopes()
		} else {
			actions, _ := cmd.Flags().GetStringArray("action")
			if len(actions) == 0 {
				fmt.Fprintln(os.Stderr, "at least one --action is required for service tokens")
				os.Exit(1)
			}

			scope := model.Scope{Actions: actions}
			projectSlug, _ := cmd.Flags().GetString("project")
			configSlug, _ := cmd.Flags().GetString("config")
			if configSlug != "" && projectSlug == "" {
				fmt.Fprintln(os.Stderr, "--config requires --project")
				os.Exit(1)
			}
			if projectSlug != "" {
				workspace, err := s.Workspaces.EnsureDefault()
				if err != nil {
					fmt.Fprintln(os.Stderr, err)
					os.Exit(1)
				}
				project, err := s.Projects.GetBySlug(workspace.ID, projectSlug)
				if err != nil {
					fmt.Fprintf(os.Stderr, "project %q: %v\n", projectSlug, err)
					os.Exit(1)
				}
				scope.ProjectID = project.ID
				if configSlug != "" {
					config, err := s.Configs.GetBySlug(project.ID, configSlug)
					if err != nil {
						fmt.Fprintf(os.Stderr, "config %q: %v\n", configSlug, err)
						os.Exit(1)
					}
					scope.ConfigID = config.ID
				}
			}

			params.Type = model.TokenTypeService
			params.SubjectServiceName = service
			params.Scopes = model.ScopeList{scope}
		}

		created, err := s.TokenEngine.CreateToken(params)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to create token: %v\n", err)
			os.Exit(1)
		}

		fmt.Println(created.Token)
	},
}

func init() {
	tokenCmd.AddCommand(tokenGenerateCmd)

	tokenGenerateCmd.Flags().StringP("user", "u", "", "Mint a personal token for this user")
	tokenGenerateCmd.Flags().StringP("service", "s", "", "Mint a service token with this service name")
	tokenGenerateCmd.Flags().String("project", "", "Scope the service token to this project slug")
	tokenGenerateCmd.Flags().String("config", "", "Scope the service token to this config slug")
	tokenGenerateCmd.Flags().StringArrayP("action", "a", nil, "Action granted to the service token (repeatable)")
	tokenGenerateCmd.Flags().Duration("ttl", 0, "Token lifetime, e.g. 720h (default: no expiry)")
}
