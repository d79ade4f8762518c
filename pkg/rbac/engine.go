package rbac

import (
	"errors"
	"sort"

	"github.com/keyfoldhq/keyfold/pkg/model"
	"github.com/keyfoldhq/keyfold/pkg/server/store"
)

// Actor is a user's resolved authorization state: workspace role, the action
// scopes that role and the user's project memberships grant, and which
// projects are visible at all.
type Actor struct {
	Username          string                       `json:"username"`
	WorkspaceID       string                       `json:"workspaceId"`
	WorkspaceSlug     string                       `json:"workspaceSlug"`
	WorkspaceRole     model.WorkspaceRole          `json:"workspaceRole"`
	Scopes            model.ScopeList              `json:"scopes"`
	VisibleProjectIDs []string                     `json:"visibleProjectIds"`
	ProjectRoles      map[string]model.ProjectRole `json:"projectRoles"`
	Disabled          bool                         `json:"disabled"`
}

// Engine resolves users to actors and keeps workspace memberships consistent.
type Engine struct {
	workspaces  store.Workspaces
	users       store.Users
	memberships store.Memberships
	groups      store.Groups
	projects    store.Projects
	onboarding  store.OnboardingStates
}

// NewEngine wires the engine to its stores. onboarding may be nil; the
// bootstrap-owner rule is then skipped.
func NewEngine(
	workspaces store.Workspaces,
	users store.Users,
	memberships store.Memberships,
	groups store.Groups,
	projects store.Projects,
	onboarding store.OnboardingStates,
) *Engine {
	return &Engine{
		workspaces:  workspaces,
		users:       users,
		memberships: memberships,
		groups:      groups,
		projects:    projects,
		onboarding:  onboarding,
	}
}

// bootstrapOwnerUsername returns who completed onboarding, if recorded. The
// bootstrap owner is always forced back to the owner role.
func (e *Engine) bootstrapOwnerUsername() string {
	if e.onboarding == nil {
		return ""
	}
	state, err := e.onboarding.Get()
	if err != nil || state.InitializedBy == nil {
		return ""
	}
	return *state.InitializedBy
}

// EnsureMembership returns the user's workspace membership, creating it on
// first contact. The first member of a workspace becomes owner, as does
// anyone joining an ownerless workspace and the recorded bootstrap owner.
// Everyone else gets the workspace's default role.
func (e *Engine) EnsureMembership(username string) (*model.Workspace, *model.User, *model.WorkspaceMembership, error) {
	workspace, err := e.workspaces.EnsureDefault()
	if err != nil {
		return nil, nil, nil, err
	}
	user, err := e.users.Ensure(username)
	if err != nil {
		return nil, nil, nil, err
	}

	bootstrapOwner := e.bootstrapOwnerUsername()

	membership, err := e.memberships.GetWorkspaceMembership(workspace.ID, username)
	if err == nil {
		if bootstrapOwner != "" && username == bootstrapOwner && membership.WorkspaceRole != model.WorkspaceRoleOwner {
			membership, err = e.memberships.UpsertWorkspaceMembership(workspace.ID, username, model.WorkspaceRoleOwner)
			if err != nil {
				return nil, nil, nil, err
			}
		}
		return workspace, user, membership, nil
	}
	if !errors.Is(err, store.ErrMembershipNotFound) {
		return nil, nil, nil, err
	}

	role := workspace.Settings.DefaultWorkspaceRole
	switch {
	case bootstrapOwner != "" && username == bootstrapOwner:
		role = model.WorkspaceRoleOwner
	default:
		count, err := e.memberships.CountWorkspaceMembers(workspace.ID)
		if err != nil {
			return nil, nil, nil, err
		}
		if count == 0 {
			role = model.WorkspaceRoleOwner
			break
		}
		hasOwner, err := e.memberships.HasWorkspaceRole(workspace.ID, model.WorkspaceRoleOwner)
		if err != nil {
			return nil, nil, nil, err
		}
		if !hasOwner {
			role = model.WorkspaceRoleOwner
		}
	}

	membership, err = e.memberships.UpsertWorkspaceMembership(workspace.ID, username, role)
	if err != nil {
		return nil, nil, nil, err
	}
	return workspace, user, membership, nil
}

// projectRolesForUser collapses direct and group project memberships to the
// highest role per project.
func (e *Engine) projectRolesForUser(workspaceID, username string) (map[string]model.ProjectRole, error) {
	groupIDs, err := e.groups.ListUserGroupIDs(workspaceID, username)
	if err != nil {
		return nil, err
	}
	rows, err := e.memberships.ListProjectMembershipsForSubjects(workspaceID, username, groupIDs)
	if err != nil {
		return nil, err
	}

	roles := map[string]model.ProjectRole{}
	for _, row := range rows {
		if row.ProjectID == "" {
			continue
		}
		roles[row.ProjectID] = model.MaxProjectRole(roles[row.ProjectID], row.ProjectRole)
	}
	return roles, nil
}

// ResolvePersonalActor computes the live authorization state of a user.
// Disabled users keep their membership but resolve to an empty-scope actor.
func (e *Engine) ResolvePersonalActor(username string) (*Actor, error) {
	workspace, user, membership, err := e.EnsureMembership(username)
	if err != nil {
		return nil, err
	}

	actor := &Actor{
		Username:      username,
		WorkspaceID:   workspace.ID,
		WorkspaceSlug: workspace.Slug,
		WorkspaceRole: membership.WorkspaceRole,
		Scopes:        model.ScopeList{},
		ProjectRoles:  map[string]model.ProjectRole{},
	}

	if user.Disabled() {
		actor.Disabled = true
		return actor, nil
	}

	if globalActions := WorkspaceRoleGlobalActions[actor.WorkspaceRole]; len(globalActions) > 0 {
		actor.Scopes = append(actor.Scopes, model.Scope{Actions: append([]string(nil), globalActions...)})
	}

	if actor.WorkspaceRole >= model.WorkspaceRoleAdmin {
		projects, err := e.projects.List(workspace.ID)
		if err != nil {
			return nil, err
		}
		for _, project := range projects {
			actor.VisibleProjectIDs = append(actor.VisibleProjectIDs, project.ID)
			actor.ProjectRoles[project.ID] = model.ProjectRoleAdmin
		}
		return actor, nil
	}

	roles, err := e.projectRolesForUser(workspace.ID, username)
	if err != nil {
		return nil, err
	}
	projectIDs := make([]string, 0, len(roles))
	for projectID := range roles {
		projectIDs = append(projectIDs, projectID)
	}
	sort.Strings(projectIDs)
	for _, projectID := range projectIDs {
		role := roles[projectID]
		actions := ProjectRoleActions[role]
		if len(actions) == 0 {
			continue
		}
		actor.Scopes = append(actor.Scopes, model.Scope{
			ProjectID: projectID,
			Actions:   append([]string(nil), actions...),
		})
		actor.VisibleProjectIDs = append(actor.VisibleProjectIDs, projectID)
		actor.ProjectRoles[projectID] = role
	}
	return actor, nil
}

// ScopeSummary condenses a scope list for display.
type ScopeSummary struct {
	GlobalActions     []string `json:"globalActions"`
	ProjectScopeCount int      `json:"projectScopeCount"`
}

// SummarizeScopes separates global actions from project- or config-narrowed
// scopes.
func SummarizeScopes(scopes model.ScopeList) ScopeSummary {
	global := map[string]struct{}{}
	summary := ScopeSummary{GlobalActions: []string{}}
	for _, scope := range scopes {
		if !scope.Global() {
			summary.ProjectScopeCount++
			continue
		}
		for _, action := range scope.Actions {
			global[action] = struct{}{}
		}
	}
	for action := range global {
		summary.GlobalActions = append(summary.GlobalActions, action)
	}
	sort.Strings(summary.GlobalActions)
	return summary
}
