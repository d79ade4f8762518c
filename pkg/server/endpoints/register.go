package endpoints

import "github.com/keyfoldhq/keyfold/pkg/server"

// RegisterAll mounts every API route on the server's router.
func RegisterAll(s *server.Server) {
	RegisterOnboardingEndpoints(s)
	RegisterVersionEndpoints(s)
	RegisterUserpassEndpoints(s)
	RegisterTokensEndpoints(s)
	RegisterMeEndpoints(s)
	RegisterProjectsEndpoints(s)
	RegisterConfigsEndpoints(s)
	RegisterSecretsEndpoints(s)
	RegisterCompareEndpoints(s)
	RegisterWorkspaceEndpoints(s)
	RegisterGroupsEndpoints(s)
	RegisterAuditEndpoints(s)
}
