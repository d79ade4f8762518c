package authn

import "github.com/keyfoldhq/keyfold/pkg/model"

// DefaultTokenActionScopes is the full action set granted to session and
// bootstrap tokens. Effective rights are still narrowed by the holder's live
// RBAC state at authentication time.
var DefaultTokenActionScopes = []string{
	"projects:read",
	"projects:write",
	"configs:read",
	"configs:write",
	"secrets:read",
	"secrets:write",
	"secrets:delete",
	"secrets:export",
	"tokens:manage",
	"audit:read",
	"users:manage",
	"workspace:settings:read",
	"workspace:settings:manage",
	"workspace:members:read",
	"workspace:members:manage",
	"workspace:groups:read",
	"workspace:groups:manage",
	"workspace:project-members:read",
	"workspace:project-members:manage",
	"workspace:mappings:read",
	"workspace:mappings:manage",
}

// GlobalScopes wraps an action list in a single unscoped scope. With no
// arguments it grants DefaultTokenActionScopes.
func GlobalScopes(actions ...string) model.ScopeList {
	if len(actions) == 0 {
		actions = DefaultTokenActionScopes
	}
	return model.ScopeList{{Actions: append([]string(nil), actions...)}}
}
