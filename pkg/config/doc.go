// Package config loads server configuration from a YAML file and KEYFOLD_*
// environment variables, environment winning. Each attribute remembers where
// its value came from so operators can inspect the effective configuration.
//
// # Configuration Sources
//
//   - /etc/keyfold/config/keyfold.yml (or KEYFOLD_CONFIG_PATH)
//   - KEYFOLD_* environment variables
//
// # Key Configuration Options
//
//   - KEYFOLD_LISTEN_ADDR: HTTP bind address
//   - KEYFOLD_DATABASE_URL / DATABASE_URL: Database connection
//   - KEYFOLD_TOKEN_SALT: Token hashing salt
//   - KEYFOLD_LOG_LEVEL: Logging verbosity
package config
