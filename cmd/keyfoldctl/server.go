package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/keyfoldhq/keyfold/pkg/db"
	"github.com/keyfoldhq/keyfold/pkg/server"
	"github.com/keyfoldhq/keyfold/pkg/server/endpoints"
)

// serverCmd represents the server command
var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Run the Keyfold application server",
	Long: `Run the Keyfold application server.

The server requires a database; set KEYFOLD_DATABASE_URL (or DATABASE_URL)
or the database_url attribute in the config file.

By default, database migrations are run on startup. Use --no-migrate to skip.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}

		if listen, _ := cmd.Flags().GetString("listen"); listen != "" {
			cfg.ListenAddr = listen
		}
		if cfg.DatabaseURL == "" {
			fmt.Fprintln(os.Stderr, "database URL is required (set KEYFOLD_DATABASE_URL or DATABASE_URL)")
			os.Exit(1)
		}
		if cfg.TokenSalt == "" {
			fmt.Fprintln(os.Stderr, "token salt is required (set KEYFOLD_TOKEN_SALT)")
			os.Exit(1)
		}

		log := newLogger(cfg)

		noMigrate, _ := cmd.Flags().GetBool("no-migrate")
		if !noMigrate {
			log.Info("running database migrations")
			if err := runMigrations(cfg.DatabaseURL); err != nil {
				log.WithError(err).Fatal("migration failed")
			}
		}

		database, err := db.Connect(db.Config{URL: cfg.DatabaseURL, LogLevel: cfg.LogLevel})
		if err != nil {
			log.WithError(err).Fatal("unable to connect to database")
		}

		s := server.NewServer(cfg, database, log)
		endpoints.RegisterAll(s)

		log.Fatal(s.Start())
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)

	serverCmd.Flags().StringP("listen", "l", "", "bind address, e.g. :8080 (overrides config)")
	serverCmd.Flags().Bool("no-migrate", false, "skip running database migrations on start")
}
