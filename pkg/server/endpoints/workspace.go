package endpoints

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/keyfoldhq/keyfold/pkg/authn"
	"github.com/keyfoldhq/keyfold/pkg/model"
	"github.com/keyfoldhq/keyfold/pkg/server"
	"github.com/keyfoldhq/keyfold/pkg/server/store"
)

// MemberPayload is the wire form of a workspace member.
type MemberPayload struct {
	Username      string              `json:"username"`
	Email         *string             `json:"email"`
	FullName      *string             `json:"fullName"`
	WorkspaceRole model.WorkspaceRole `json:"workspaceRole"`
	Disabled      bool                `json:"disabled"`
	CreatedAt     time.Time           `json:"createdAt"`
}

func memberPayload(user *model.User, membership *model.WorkspaceMembership) MemberPayload {
	payload := MemberPayload{
		Username:  user.Username,
		Email:     user.Email,
		FullName:  user.FullName,
		Disabled:  user.Disabled(),
		CreatedAt: user.CreatedAt,
	}
	if membership != nil {
		payload.WorkspaceRole = membership.WorkspaceRole
	}
	return payload
}

// RegisterWorkspaceEndpoints registers the workspace administration routes:
// settings, members and project role assignments.
func RegisterWorkspaceEndpoints(s *server.Server) {
	router := s.Router.PathPrefix("/v1/workspace").Subrouter()
	router.Use(s.Auth.Middleware)

	router.HandleFunc("/settings", handleGetWorkspaceSettings(s)).Methods("GET")
	router.HandleFunc("/settings", handlePatchWorkspaceSettings(s)).Methods("PATCH")
	router.HandleFunc("/members", handleListWorkspaceMembers(s)).Methods("GET")
	router.HandleFunc("/members", handleCreateWorkspaceMember(s)).Methods("POST")
	router.HandleFunc("/members/{username}", handlePatchWorkspaceMember(s)).Methods("PATCH")
	router.HandleFunc("/members/{username}", handleDeleteWorkspaceMember(s)).Methods("DELETE")
	router.HandleFunc("/projects/{project}/members", handleListProjectMembers(s)).Methods("GET")
	router.HandleFunc("/projects/{project}/members", handlePutProjectMember(s)).Methods("PUT")
	router.HandleFunc("/projects/{project}/members/{subjectType}/{subjectId}", handleDeleteProjectMember(s)).Methods("DELETE")
}

func workspaceSettingsPayload(workspace *model.Workspace) map[string]interface{} {
	return map[string]interface{}{
		"status": "OK",
		"workspace": map[string]string{
			"id":   workspace.ID,
			"slug": workspace.Slug,
			"name": workspace.Name,
		},
		"settings": workspace.Settings,
	}
}

func handleGetWorkspaceSettings(s *server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := requireScope(w, r, "workspace:settings:read", "", ""); !ok {
			return
		}
		workspace, err := s.Workspaces.EnsureDefault()
		if err != nil {
			respondWithMessage(w, http.StatusInternalServerError, err.Error())
			return
		}
		respondWithJSON(w, http.StatusOK, workspaceSettingsPayload(workspace))
	}
}

func handlePatchWorkspaceSettings(s *server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		id, ok := requireScope(w, r, "workspace:settings:manage", "", "")
		if !ok {
			return
		}
		workspace, err := s.Workspaces.EnsureDefault()
		if err != nil {
			respondWithMessage(w, http.StatusInternalServerError, err.Error())
			return
		}

		var fields map[string]json.RawMessage
		if !decodeJSONBody(w, r, &fields) {
			return
		}

		settings := workspace.Settings
		for field, raw := range fields {
			switch field {
			case "defaultWorkspaceRole":
				var value string
				if err := json.Unmarshal(raw, &value); err != nil {
					respondWithMessage(w, http.StatusBadRequest, "Invalid defaultWorkspaceRole")
					return
				}
				role, err := model.WorkspaceRoleString(value)
				if err != nil {
					respondWithMessage(w, http.StatusBadRequest, "Invalid defaultWorkspaceRole")
					return
				}
				settings.DefaultWorkspaceRole = role
			case "defaultProjectRole":
				var value string
				if err := json.Unmarshal(raw, &value); err != nil {
					respondWithMessage(w, http.StatusBadRequest, "Invalid defaultProjectRole")
					return
				}
				role, err := model.ProjectRoleString(value)
				if err != nil {
					respondWithMessage(w, http.StatusBadRequest, "Invalid defaultProjectRole")
					return
				}
				settings.DefaultProjectRole = role
			case "referencingEnabled":
				var value bool
				if err := json.Unmarshal(raw, &value); err != nil {
					respondWithMessage(w, http.StatusBadRequest, "referencingEnabled must be boolean")
					return
				}
				settings.ReferencingEnabled = value
			default:
				respondWithMessage(w, http.StatusBadRequest, "Unknown setting: "+field)
				return
			}
		}

		if err := s.Workspaces.UpdateSettings(workspace.ID, settings); err != nil {
			respondWithMessage(w, http.StatusInternalServerError, err.Error())
			return
		}
		workspace.Settings = settings

		auditRequest(s, r, id, "workspace.settings", "", "", http.StatusOK, started, "")
		respondWithJSON(w, http.StatusOK, workspaceSettingsPayload(workspace))
	}
}

func handleListWorkspaceMembers(s *server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := requireScope(w, r, "workspace:members:read", "", ""); !ok {
			return
		}
		workspace, err := s.Workspaces.EnsureDefault()
		if err != nil {
			respondWithMessage(w, http.StatusInternalServerError, err.Error())
			return
		}

		memberships, err := s.Memberships.ListWorkspaceMemberships(workspace.ID)
		if err != nil {
			respondWithMessage(w, http.StatusInternalServerError, err.Error())
			return
		}
		users, err := s.Users.List()
		if err != nil {
			respondWithMessage(w, http.StatusInternalServerError, err.Error())
			return
		}
		usersByName := make(map[string]*model.User, len(users))
		for i := range users {
			usersByName[users[i].Username] = &users[i]
		}

		members := make([]MemberPayload, 0, len(memberships))
		for i := range memberships {
			membership := &memberships[i]
			user, ok := usersByName[membership.Username]
			if !ok {
				user, err = s.Users.Ensure(membership.Username)
				if err != nil {
					respondWithMessage(w, http.StatusInternalServerError, err.Error())
					return
				}
			}
			members = append(members, memberPayload(user, membership))
		}
		respondWithJSON(w, http.StatusOK, map[string]interface{}{"status": "OK", "members": members})
	}
}

func handleCreateWorkspaceMember(s *server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		id, ok := requireScope(w, r, "workspace:members:manage", "", "")
		if !ok {
			return
		}
		workspace, err := s.Workspaces.EnsureDefault()
		if err != nil {
			respondWithMessage(w, http.StatusInternalServerError, err.Error())
			return
		}

		var req struct {
			Username      string  `json:"username"`
			Password      string  `json:"password"`
			Email         *string `json:"email"`
			FullName      *string `json:"fullName"`
			WorkspaceRole string  `json:"workspaceRole"`
		}
		if !decodeJSONBody(w, r, &req) {
			return
		}
		username := strings.TrimSpace(req.Username)
		if username == "" || req.Password == "" {
			respondWithMessage(w, http.StatusBadRequest, "username and password are required")
			return
		}
		if _, err := s.Users.Get(username); err == nil {
			respondWithMessage(w, http.StatusBadRequest, "User already exists")
			return
		} else if !errors.Is(err, store.ErrUserNotFound) {
			respondWithMessage(w, http.StatusInternalServerError, err.Error())
			return
		}

		if err := s.Userpass.Register(username, req.Password); err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, authn.ErrUserExists) {
				status = http.StatusBadRequest
			}
			respondWithMessage(w, status, err.Error())
			return
		}
		user, err := s.Users.Ensure(username)
		if err != nil {
			respondWithMessage(w, http.StatusInternalServerError, err.Error())
			return
		}
		if req.Email != nil || req.FullName != nil {
			user.Email = req.Email
			user.FullName = req.FullName
			if err := s.Users.Update(user); err != nil {
				respondWithMessage(w, http.StatusInternalServerError, err.Error())
				return
			}
		}

		role := workspace.Settings.DefaultWorkspaceRole
		if req.WorkspaceRole != "" {
			role, err = model.WorkspaceRoleString(req.WorkspaceRole)
			if err != nil {
				respondWithMessage(w, http.StatusBadRequest, "Invalid workspace role")
				return
			}
		}
		membership, err := s.Memberships.UpsertWorkspaceMembership(workspace.ID, username, role)
		if err != nil {
			respondWithMessage(w, http.StatusInternalServerError, err.Error())
			return
		}

		auditRequest(s, r, id, "workspace.members", "", "", http.StatusCreated, started, "")
		respondWithJSON(w, http.StatusCreated, map[string]interface{}{
			"status": "OK",
			"member": memberPayload(user, membership),
		})
	}
}

func handlePatchWorkspaceMember(s *server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		id, ok := requireScope(w, r, "workspace:members:manage", "", "")
		if !ok {
			return
		}
		workspace, err := s.Workspaces.EnsureDefault()
		if err != nil {
			respondWithMessage(w, http.StatusInternalServerError, err.Error())
			return
		}

		username := mux.Vars(r)["username"]
		user, err := s.Users.Get(username)
		if err != nil {
			if errors.Is(err, store.ErrUserNotFound) {
				respondWithMessage(w, http.StatusNotFound, "User not found")
				return
			}
			respondWithMessage(w, http.StatusInternalServerError, err.Error())
			return
		}

		var fields map[string]json.RawMessage
		if !decodeJSONBody(w, r, &fields) {
			return
		}

		if rawEmail, hasEmail := fields["email"]; hasEmail {
			if err := json.Unmarshal(rawEmail, &user.Email); err != nil {
				respondWithMessage(w, http.StatusBadRequest, "Invalid JSON payload")
				return
			}
		}
		if rawName, hasName := fields["fullName"]; hasName {
			if err := json.Unmarshal(rawName, &user.FullName); err != nil {
				respondWithMessage(w, http.StatusBadRequest, "Invalid JSON payload")
				return
			}
		}
		if raw, has := fields["disabled"]; has {
			var disabled bool
			if err := json.Unmarshal(raw, &disabled); err != nil {
				respondWithMessage(w, http.StatusBadRequest, "disabled must be boolean")
				return
			}
			if disabled {
				now := time.Now().UTC()
				user.DisabledAt = &now
			} else {
				user.DisabledAt = nil
			}
		}
		if err := s.Users.Update(user); err != nil {
			respondWithMessage(w, http.StatusInternalServerError, err.Error())
			return
		}

		membership, err := s.Memberships.GetWorkspaceMembership(workspace.ID, username)
		if err != nil {
			if !errors.Is(err, store.ErrMembershipNotFound) {
				respondWithMessage(w, http.StatusInternalServerError, err.Error())
				return
			}
			membership, err = s.Memberships.UpsertWorkspaceMembership(workspace.ID, username, model.WorkspaceRoleViewer)
			if err != nil {
				respondWithMessage(w, http.StatusInternalServerError, err.Error())
				return
			}
		}
		if raw, has := fields["workspaceRole"]; has {
			var value string
			if err := json.Unmarshal(raw, &value); err != nil {
				respondWithMessage(w, http.StatusBadRequest, "Invalid workspace role")
				return
			}
			role, err := model.WorkspaceRoleString(value)
			if err != nil {
				respondWithMessage(w, http.StatusBadRequest, "Invalid workspace role")
				return
			}
			membership, err = s.Memberships.UpsertWorkspaceMembership(workspace.ID, username, role)
			if err != nil {
				respondWithMessage(w, http.StatusInternalServerError, err.Error())
				return
			}
		}

		user, err = s.Users.Get(username)
		if err != nil {
			respondWithMessage(w, http.StatusInternalServerError, err.Error())
			return
		}

		auditRequest(s, r, id, "workspace.members", "", "", http.StatusOK, started, "")
		respondWithJSON(w, http.StatusOK, map[string]interface{}{
			"status": "OK",
			"member": memberPayload(user, membership),
		})
	}
}

// handleDeleteWorkspaceMember disables the account rather than removing the
// row, so audit attribution survives.
func handleDeleteWorkspaceMember(s *server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		id, ok := requireScope(w, r, "workspace:members:manage", "", "")
		if !ok {
			return
		}
		workspace, err := s.Workspaces.EnsureDefault()
		if err != nil {
			respondWithMessage(w, http.StatusInternalServerError, err.Error())
			return
		}

		username := mux.Vars(r)["username"]
		user, err := s.Users.Get(username)
		if err != nil {
			if errors.Is(err, store.ErrUserNotFound) {
				respondWithMessage(w, http.StatusNotFound, "User not found")
				return
			}
			respondWithMessage(w, http.StatusInternalServerError, err.Error())
			return
		}

		now := time.Now().UTC()
		user.DisabledAt = &now
		if err := s.Users.Update(user); err != nil {
			respondWithMessage(w, http.StatusInternalServerError, err.Error())
			return
		}

		membership, err := s.Memberships.GetWorkspaceMembership(workspace.ID, username)
		if err != nil && !errors.Is(err, store.ErrMembershipNotFound) {
			respondWithMessage(w, http.StatusInternalServerError, err.Error())
			return
		}

		auditRequest(s, r, id, "workspace.members", "", "", http.StatusOK, started, "")
		respondWithJSON(w, http.StatusOK, map[string]interface{}{
			"status": "OK",
			"member": memberPayload(user, membership),
		})
	}
}

// ProjectMemberPayload is the wire form of a project role assignment. Group
// subjects carry their slug alongside the opaque id.
type ProjectMemberPayload struct {
	SubjectType model.SubjectType `json:"subjectType"`
	SubjectID   string            `json:"subjectId"`
	Role        model.ProjectRole `json:"role"`
	GroupSlug   *string           `json:"groupSlug,omitempty"`
}

func handleListProjectMembers(s *server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := requireScope(w, r, "workspace:project-members:read", "", ""); !ok {
			return
		}
		workspace, err := s.Workspaces.EnsureDefault()
		if err != nil {
			respondWithMessage(w, http.StatusInternalServerError, err.Error())
			return
		}
		project, ok := resolveProject(s, w, mux.Vars(r)["project"])
		if !ok {
			return
		}

		memberships, err := s.Memberships.ListProjectMemberships(workspace.ID, project.ID)
		if err != nil {
			respondWithMessage(w, http.StatusInternalServerError, err.Error())
			return
		}

		items := make([]ProjectMemberPayload, 0, len(memberships))
		for _, membership := range memberships {
			item := ProjectMemberPayload{
				SubjectType: membership.SubjectType,
				SubjectID:   membership.SubjectID,
				Role:        membership.ProjectRole,
			}
			if membership.SubjectType == model.SubjectGroup {
				group, err := s.Groups.GetByID(workspace.ID, membership.SubjectID)
				if err == nil {
					item.GroupSlug = &group.Slug
				} else if !errors.Is(err, store.ErrGroupNotFound) {
					respondWithMessage(w, http.StatusInternalServerError, err.Error())
					return
				}
			}
			items = append(items, item)
		}
		respondWithJSON(w, http.StatusOK, map[string]interface{}{"status": "OK", "members": items})
	}
}

func handlePutProjectMember(s *server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		id, ok := requireScope(w, r, "workspace:project-members:manage", "", "")
		if !ok {
			return
		}
		workspace, err := s.Workspaces.EnsureDefault()
		if err != nil {
			respondWithMessage(w, http.StatusInternalServerError, err.Error())
			return
		}
		project, ok := resolveProject(s, w, mux.Vars(r)["project"])
		if !ok {
			return
		}

		var req struct {
			SubjectType string `json:"subjectType"`
			SubjectID   string `json:"subjectId"`
			Role        string `json:"role"`
		}
		if !decodeJSONBody(w, r, &req) {
			return
		}

		role, err := model.ProjectRoleString(req.Role)
		if err != nil {
			respondWithMessage(w, http.StatusBadRequest, "Invalid project role")
			return
		}

		var subjectID string
		switch model.SubjectType(req.SubjectType) {
		case model.SubjectUser:
			if _, err := s.Users.Get(req.SubjectID); err != nil {
				if errors.Is(err, store.ErrUserNotFound) {
					respondWithMessage(w, http.StatusNotFound, "User not found")
					return
				}
				respondWithMessage(w, http.StatusInternalServerError, err.Error())
				return
			}
			subjectID = req.SubjectID
		case model.SubjectGroup:
			group, err := s.Groups.GetBySlug(workspace.ID, req.SubjectID)
			if err != nil {
				if errors.Is(err, store.ErrGroupNotFound) {
					respondWithMessage(w, http.StatusNotFound, "Group not found")
					return
				}
				respondWithMessage(w, http.StatusInternalServerError, err.Error())
				return
			}
			subjectID = group.ID
		default:
			respondWithMessage(w, http.StatusBadRequest, "subjectType must be user or group")
			return
		}

		_, err = s.Memberships.UpsertProjectMembership(&model.ProjectMembership{
			WorkspaceID: workspace.ID,
			ProjectID:   project.ID,
			SubjectType: model.SubjectType(req.SubjectType),
			SubjectID:   subjectID,
			ProjectRole: role,
		})
		if err != nil {
			respondWithMessage(w, http.StatusInternalServerError, err.Error())
			return
		}

		auditRequest(s, r, id, "workspace.project-members", project.ID, "", http.StatusOK, started, "")
		respondWithJSON(w, http.StatusOK, map[string]string{"status": "OK"})
	}
}

func handleDeleteProjectMember(s *server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		id, ok := requireScope(w, r, "workspace:project-members:manage", "", "")
		if !ok {
			return
		}
		workspace, err := s.Workspaces.EnsureDefault()
		if err != nil {
			respondWithMessage(w, http.StatusInternalServerError, err.Error())
			return
		}
		vars := mux.Vars(r)
		project, ok := resolveProject(s, w, vars["project"])
		if !ok {
			return
		}

		subjectType := model.SubjectType(vars["subjectType"])
		subjectID := vars["subjectId"]
		if subjectType == model.SubjectGroup {
			if group, err := s.Groups.GetBySlug(workspace.ID, subjectID); err == nil {
				subjectID = group.ID
			} else if !errors.Is(err, store.ErrGroupNotFound) {
				respondWithMessage(w, http.StatusInternalServerError, err.Error())
				return
			}
		}

		if err := s.Memberships.RemoveProjectMembership(workspace.ID, project.ID, subjectType, subjectID); err != nil {
			if errors.Is(err, store.ErrMembershipNotFound) {
				respondWithMessage(w, http.StatusNotFound, "Membership not found")
				return
			}
			respondWithMessage(w, http.StatusInternalServerError, err.Error())
			return
		}

		auditRequest(s, r, id, "workspace.project-members", project.ID, "", http.StatusOK, started, "")
		respondWithJSON(w, http.StatusOK, map[string]string{"status": "OK"})
	}
}
