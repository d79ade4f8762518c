package endpoints

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/keyfoldhq/keyfold/pkg/model"
	"github.com/keyfoldhq/keyfold/pkg/server"
	"github.com/keyfoldhq/keyfold/pkg/server/store"
	"github.com/keyfoldhq/keyfold/pkg/validate"
)

// GroupPayload is the wire form of a group.
type GroupPayload struct {
	ID          string    `json:"id"`
	Slug        string    `json:"slug"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
}

func groupPayload(group *model.Group) GroupPayload {
	return GroupPayload{
		ID:          group.ID,
		Slug:        group.Slug,
		Name:        group.Name,
		Description: group.Description,
		CreatedAt:   group.CreatedAt,
	}
}

// supportedMappingProviders lists the identity providers group mappings may
// reference. Only manual assignment exists today.
var supportedMappingProviders = map[string]bool{"manual": true}

// GroupMappingPayload is the wire form of a group mapping.
type GroupMappingPayload struct {
	ID               string    `json:"id"`
	Provider         string    `json:"provider"`
	ExternalGroupKey string    `json:"externalGroupKey"`
	GroupSlug        *string   `json:"groupSlug"`
	CreatedAt        time.Time `json:"createdAt"`
}

// RegisterGroupsEndpoints registers the workspace group and group-mapping
// routes.
func RegisterGroupsEndpoints(s *server.Server) {
	router := s.Router.PathPrefix("/v1/workspace/groups").Subrouter()
	router.Use(s.Auth.Middleware)

	router.HandleFunc("", handleListGroups(s)).Methods("GET")
	router.HandleFunc("", handleCreateGroup(s)).Methods("POST")
	router.HandleFunc("/{group}", handlePatchGroup(s)).Methods("PATCH")
	router.HandleFunc("/{group}", handleDeleteGroup(s)).Methods("DELETE")
	router.HandleFunc("/{group}/members", handleListGroupMembers(s)).Methods("GET")
	router.HandleFunc("/{group}/members", handleUpdateGroupMembers(s)).Methods("PUT")

	mappings := s.Router.PathPrefix("/v1/workspace/group-mappings").Subrouter()
	mappings.Use(s.Auth.Middleware)

	mappings.HandleFunc("", handleListGroupMappings(s)).Methods("GET")
	mappings.HandleFunc("", handleCreateGroupMapping(s)).Methods("POST")
	mappings.HandleFunc("/{mapping}", handleDeleteGroupMapping(s)).Methods("DELETE")
}

func resolveGroup(s *server.Server, w http.ResponseWriter, workspaceID, slug string) (*model.Group, bool) {
	group, err := s.Groups.GetBySlug(workspaceID, slug)
	if err != nil {
		if errors.Is(err, store.ErrGroupNotFound) {
			respondWithMessage(w, http.StatusNotFound, "Group not found")
			return nil, false
		}
		respondWithMessage(w, http.StatusInternalServerError, err.Error())
		return nil, false
	}
	return group, true
}

func handleListGroups(s *server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := requireScope(w, r, "workspace:groups:read", "", ""); !ok {
			return
		}
		workspace, err := s.Workspaces.EnsureDefault()
		if err != nil {
			respondWithMessage(w, http.StatusInternalServerError, err.Error())
			return
		}
		groups, err := s.Groups.List(workspace.ID)
		if err != nil {
			respondWithMessage(w, http.StatusInternalServerError, err.Error())
			return
		}
		payload := make([]GroupPayload, 0, len(groups))
		for i := range groups {
			payload = append(payload, groupPayload(&groups[i]))
		}
		respondWithJSON(w, http.StatusOK, map[string]interface{}{"status": "OK", "groups": payload})
	}
}

func handleCreateGroup(s *server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		id, ok := requireScope(w, r, "workspace:groups:manage", "", "")
		if !ok {
			return
		}
		workspace, err := s.Workspaces.EnsureDefault()
		if err != nil {
			respondWithMessage(w, http.StatusInternalServerError, err.Error())
			return
		}

		var req struct {
			Slug        string  `json:"slug"`
			Name        string  `json:"name"`
			Description *string `json:"description"`
		}
		if !decodeJSONBody(w, r, &req) {
			return
		}
		if !validate.Slug(req.Slug) {
			respondWithMessage(w, http.StatusBadRequest, "Invalid group slug")
			return
		}
		name := req.Name
		if name == "" {
			name = req.Slug
		}

		group := &model.Group{
			WorkspaceID: workspace.ID,
			Slug:        req.Slug,
			Name:        name,
			Description: req.Description,
		}
		if err := s.Groups.Create(group); err != nil {
			if errors.Is(err, store.ErrGroupExists) {
				respondWithMessage(w, http.StatusConflict, "Group already exists")
				return
			}
			respondWithMessage(w, http.StatusInternalServerError, err.Error())
			return
		}

		auditRequest(s, r, id, "workspace.groups", "", "", http.StatusCreated, started, "")
		respondWithJSON(w, http.StatusCreated, map[string]interface{}{"status": "OK", "group": groupPayload(group)})
	}
}

func handlePatchGroup(s *server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		id, ok := requireScope(w, r, "workspace:groups:manage", "", "")
		if !ok {
			return
		}
		workspace, err := s.Workspaces.EnsureDefault()
		if err != nil {
			respondWithMessage(w, http.StatusInternalServerError, err.Error())
			return
		}
		group, ok := resolveGroup(s, w, workspace.ID, mux.Vars(r)["group"])
		if !ok {
			return
		}

		var req struct {
			Name        *string `json:"name"`
			Description *string `json:"description"`
		}
		if !decodeJSONBody(w, r, &req) {
			return
		}
		if req.Name != nil {
			group.Name = *req.Name
		}
		if req.Description != nil {
			group.Description = req.Description
		}
		if err := s.Groups.Update(group); err != nil {
			respondWithMessage(w, http.StatusInternalServerError, err.Error())
			return
		}

		auditRequest(s, r, id, "workspace.groups", "", "", http.StatusOK, started, "")
		respondWithJSON(w, http.StatusOK, map[string]interface{}{"status": "OK", "group": groupPayload(group)})
	}
}

func handleDeleteGroup(s *server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		id, ok := requireScope(w, r, "workspace:groups:manage", "", "")
		if !ok {
			return
		}
		workspace, err := s.Workspaces.EnsureDefault()
		if err != nil {
			respondWithMessage(w, http.StatusInternalServerError, err.Error())
			return
		}
		group, ok := resolveGroup(s, w, workspace.ID, mux.Vars(r)["group"])
		if !ok {
			return
		}

		if err := s.Groups.Delete(workspace.ID, group.ID); err != nil {
			respondWithMessage(w, http.StatusInternalServerError, err.Error())
			return
		}
		// Project memberships granted to the group must go with it, or they
		// keep surfacing in project member listings.
		if err := s.Memberships.RemoveAllForSubject(workspace.ID, model.SubjectGroup, group.ID); err != nil {
			respondWithMessage(w, http.StatusInternalServerError, err.Error())
			return
		}

		auditRequest(s, r, id, "workspace.groups", "", "", http.StatusOK, started, "")
		respondWithJSON(w, http.StatusOK, map[string]string{"status": "OK"})
	}
}

// groupMappingPayload resolves the mapped group's slug; a dangling mapping
// keeps a null slug rather than failing the listing.
func groupMappingPayload(s *server.Server, workspaceID string, mapping *model.GroupMapping) GroupMappingPayload {
	payload := GroupMappingPayload{
		ID:               mapping.ID,
		Provider:         mapping.Provider,
		ExternalGroupKey: mapping.ExternalGroupKey,
		CreatedAt:        mapping.CreatedAt,
	}
	if group, err := s.Groups.GetByID(workspaceID, mapping.GroupID); err == nil {
		slug := group.Slug
		payload.GroupSlug = &slug
	}
	return payload
}

func handleListGroupMappings(s *server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := requireScope(w, r, "workspace:mappings:read", "", ""); !ok {
			return
		}
		workspace, err := s.Workspaces.EnsureDefault()
		if err != nil {
			respondWithMessage(w, http.StatusInternalServerError, err.Error())
			return
		}
		mappings, err := s.Groups.ListMappings(workspace.ID)
		if err != nil {
			respondWithMessage(w, http.StatusInternalServerError, err.Error())
			return
		}
		payload := make([]GroupMappingPayload, 0, len(mappings))
		for i := range mappings {
			payload = append(payload, groupMappingPayload(s, workspace.ID, &mappings[i]))
		}
		respondWithJSON(w, http.StatusOK, map[string]interface{}{"status": "OK", "mappings": payload})
	}
}

func handleCreateGroupMapping(s *server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		id, ok := requireScope(w, r, "workspace:mappings:manage", "", "")
		if !ok {
			return
		}
		workspace, err := s.Workspaces.EnsureDefault()
		if err != nil {
			respondWithMessage(w, http.StatusInternalServerError, err.Error())
			return
		}

		var req struct {
			Provider         string `json:"provider"`
			ExternalGroupKey string `json:"externalGroupKey"`
			GroupSlug        string `json:"groupSlug"`
		}
		if !decodeJSONBody(w, r, &req) {
			return
		}
		if !supportedMappingProviders[req.Provider] {
			respondWithMessage(w, http.StatusBadRequest, "Unsupported mapping provider")
			return
		}
		key := strings.TrimSpace(req.ExternalGroupKey)
		if key == "" {
			respondWithMessage(w, http.StatusBadRequest, "externalGroupKey is required")
			return
		}
		group, ok := resolveGroup(s, w, workspace.ID, req.GroupSlug)
		if !ok {
			return
		}

		mapping := &model.GroupMapping{
			WorkspaceID:      workspace.ID,
			Provider:         req.Provider,
			ExternalGroupKey: key,
			GroupID:          group.ID,
		}
		if err := s.Groups.CreateMapping(mapping); err != nil {
			if errors.Is(err, store.ErrGroupMappingExists) {
				respondWithMessage(w, http.StatusBadRequest, "Group mapping already exists")
				return
			}
			respondWithMessage(w, http.StatusInternalServerError, err.Error())
			return
		}

		auditRequest(s, r, id, "workspace.mappings", "", "", http.StatusCreated, started, "")
		respondWithJSON(w, http.StatusCreated, map[string]interface{}{
			"status":  "OK",
			"mapping": groupMappingPayload(s, workspace.ID, mapping),
		})
	}
}

func handleDeleteGroupMapping(s *server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		id, ok := requireScope(w, r, "workspace:mappings:manage", "", "")
		if !ok {
			return
		}
		workspace, err := s.Workspaces.EnsureDefault()
		if err != nil {
			respondWithMessage(w, http.StatusInternalServerError, err.Error())
			return
		}

		if err := s.Groups.DeleteMapping(workspace.ID, mux.Vars(r)["mapping"]); err != nil {
			if errors.Is(err, store.ErrGroupMappingNotFound) {
				respondWithMessage(w, http.StatusNotFound, "Group mapping not found")
				return
			}
			respondWithMessage(w, http.StatusInternalServerError, err.Error())
			return
		}

		auditRequest(s, r, id, "workspace.mappings", "", "", http.StatusOK, started, "")
		respondWithJSON(w, http.StatusOK, map[string]string{"status": "OK"})
	}
}

func groupMemberUsernames(members []model.GroupMember) []string {
	usernames := make([]string, 0, len(members))
	for _, member := range members {
		usernames = append(usernames, member.Username)
	}
	return usernames
}

func handleListGroupMembers(s *server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := requireScope(w, r, "workspace:groups:read", "", ""); !ok {
			return
		}
		workspace, err := s.Workspaces.EnsureDefault()
		if err != nil {
			respondWithMessage(w, http.StatusInternalServerError, err.Error())
			return
		}
		group, ok := resolveGroup(s, w, workspace.ID, mux.Vars(r)["group"])
		if !ok {
			return
		}

		members, err := s.Groups.ListMembers(workspace.ID, group.ID)
		if err != nil {
			respondWithMessage(w, http.StatusInternalServerError, err.Error())
			return
		}
		respondWithJSON(w, http.StatusOK, map[string]interface{}{
			"status":  "OK",
			"members": groupMemberUsernames(members),
		})
	}
}

func handleUpdateGroupMembers(s *server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		id, ok := requireScope(w, r, "workspace:groups:manage", "", "")
		if !ok {
			return
		}
		workspace, err := s.Workspaces.EnsureDefault()
		if err != nil {
			respondWithMessage(w, http.StatusInternalServerError, err.Error())
			return
		}
		group, ok := resolveGroup(s, w, workspace.ID, mux.Vars(r)["group"])
		if !ok {
			return
		}

		var req struct {
			Add    []string `json:"add"`
			Remove []string `json:"remove"`
		}
		if !decodeJSONBody(w, r, &req) {
			return
		}

		for _, username := range req.Add {
			if _, err := s.Users.Get(username); err != nil {
				if errors.Is(err, store.ErrUserNotFound) {
					respondWithMessage(w, http.StatusNotFound, "User not found: "+username)
					return
				}
				respondWithMessage(w, http.StatusInternalServerError, err.Error())
				return
			}
		}

		for _, username := range req.Add {
			if err := s.Groups.AddMember(workspace.ID, group.ID, username); err != nil {
				respondWithMessage(w, http.StatusInternalServerError, err.Error())
				return
			}
		}
		for _, username := range req.Remove {
			if err := s.Groups.RemoveMember(workspace.ID, group.ID, username); err != nil {
				respondWithMessage(w, http.StatusInternalServerError, err.Error())
				return
			}
		}

		members, err := s.Groups.ListMembers(workspace.ID, group.ID)
		if err != nil {
			respondWithMessage(w, http.StatusInternalServerError, err.Error())
			return
		}

		auditRequest(s, r, id, "workspace.groups", "", "", http.StatusOK, started, "")
		respondWithJSON(w, http.StatusOK, map[string]interface{}{
			"status":  "OK",
			"members": groupMemberUsernames(members),
		})
	}
}
