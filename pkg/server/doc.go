// Package server provides the HTTP server for the Keyfold API.
//
// The Server struct wires the gorm-backed stores and the domain engines
// (secrets, references, RBAC, tokens, onboarding, audit) to a gorilla/mux
// router.
//
// # Server Setup
//
//	srv := server.NewServer(cfg, db, log)
//	endpoints.RegisterAll(srv)
//	if err := srv.Start(); err != nil {
//	    log.Fatal(err)
//	}
//
// # Endpoints
//
// API endpoints live under /v1 and are registered via the endpoints
// subpackage:
//
//   - /v1/projects, /v1/projects/{project}/configs - registries
//   - /v1/projects/{project}/configs/{config}/secrets - secret CRUD + export
//   - /v1/projects/{project}/compare/secrets/{key} - cross-config comparison
//   - /v1/auth/tokens, /v1/auth/tokens/v2 - token issue/revoke
//   - /v1/auth/userpass, /v1/onboarding - accounts and first-time setup
//   - /v1/workspace - members, groups and settings
//   - /v1/audit/events, /v1/me, /v1/version
package server
