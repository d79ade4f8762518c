package authn

import "github.com/keyfoldhq/keyfold/pkg/model"

// ActorType distinguishes how a request was authenticated.
type ActorType string

const (
	ActorToken    ActorType = "token"
	ActorUserpass ActorType = "userpass"
)

// Actor is the authenticated identity attached to a request. Scopes carry the
// effective rights; TokenScopes, when non-nil, additionally clamp them to what
// the token was minted with.
type Actor struct {
	Type               ActorType           `json:"type"`
	TokenID            string              `json:"tokenId,omitempty"`
	TokenType          model.TokenType     `json:"tokenType,omitempty"`
	SubjectUser        string              `json:"subjectUser,omitempty"`
	SubjectServiceName string              `json:"subjectServiceName,omitempty"`
	Scopes             model.ScopeList     `json:"scopes"`
	TokenScopes        model.ScopeList     `json:"tokenScopes,omitempty"`
	HasTokenScopes     bool                `json:"-"`
	WorkspaceID        string              `json:"workspaceId,omitempty"`
	WorkspaceSlug      string              `json:"workspaceSlug,omitempty"`
	WorkspaceRole      model.WorkspaceRole `json:"workspaceRole"`
	VisibleProjectIDs  []string            `json:"visibleProjectIds,omitempty"`
}

// Owner is the user or service the actor acts as.
func (a *Actor) Owner() string {
	if a.SubjectUser != "" {
		return a.SubjectUser
	}
	return a.SubjectServiceName
}

// hasScope checks one scope list. Config-narrowed scopes need an exact config
// match, project-narrowed scopes an exact project match, and unscoped entries
// match everything.
func hasScope(scopes model.ScopeList, action, projectID, configID string) bool {
	for _, scope := range scopes {
		if !scope.HasAction(action) {
			continue
		}
		if scope.ConfigID != "" {
			if configID != "" && configID == scope.ConfigID {
				return true
			}
			continue
		}
		if scope.ProjectID != "" {
			if projectID != "" && projectID == scope.ProjectID {
				return true
			}
			continue
		}
		return true
	}
	return false
}

// Authorize reports whether the actor may perform action against the given
// project/config. Both the effective scopes and, for api tokens, the minted
// token scopes must grant it.
func Authorize(actor *Actor, action, projectID, configID string) bool {
	if actor == nil {
		return false
	}
	if !hasScope(actor.Scopes, action, projectID, configID) {
		return false
	}
	if !actor.HasTokenScopes {
		return true
	}
	return hasScope(actor.TokenScopes, action, projectID, configID)
}
