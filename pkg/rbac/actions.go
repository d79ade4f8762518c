package rbac

import (
	"sort"

	"github.com/keyfoldhq/keyfold/pkg/model"
)

// ProjectRoleActions lists what each project role may do within its project.
var ProjectRoleActions = map[model.ProjectRole][]string{
	model.ProjectRoleNone: {},
	model.ProjectRoleViewer: {
		"projects:read",
		"configs:read",
		"secrets:read",
		"secrets:export",
		"audit:read",
	},
	model.ProjectRoleCollaborator: {
		"projects:read",
		"configs:read",
		"configs:write",
		"secrets:read",
		"secrets:write",
		"secrets:export",
		"audit:read",
	},
	model.ProjectRoleAdmin: {
		"projects:read",
		"configs:read",
		"configs:write",
		"secrets:read",
		"secrets:write",
		"secrets:delete",
		"secrets:export",
		"audit:read",
	},
}

// WorkspaceRoleGlobalActions lists the workspace-wide actions of each
// workspace role. Admin and owner subsume full project-admin rights.
var WorkspaceRoleGlobalActions = map[model.WorkspaceRole][]string{
	model.WorkspaceRoleViewer:       {"workspace:members:read"},
	model.WorkspaceRoleCollaborator: {"workspace:members:read"},
	model.WorkspaceRoleAdmin: sortedUnion(ProjectRoleActions[model.ProjectRoleAdmin], []string{
		"projects:write",
		"tokens:manage",
		"workspace:settings:read",
		"workspace:members:read",
		"workspace:groups:read",
		"workspace:groups:manage",
		"workspace:project-members:read",
		"workspace:project-members:manage",
		"workspace:mappings:read",
		"workspace:mappings:manage",
	}),
	model.WorkspaceRoleOwner: sortedUnion(ProjectRoleActions[model.ProjectRoleAdmin], []string{
		"projects:write",
		"tokens:manage",
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
	}),
}

func sortedUnion(lists ...[]string) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, list := range lists {
		for _, action := range list {
			if _, dup := seen[action]; dup {
				continue
			}
			seen[action] = struct{}{}
			out = append(out, action)
		}
	}
	sort.Strings(out)
	return out
}
