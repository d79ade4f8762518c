package endpoints

import (
	"encoding/json"
	"net/http"
	"sort"
	"strings"

	"github.com/keyfoldhq/keyfold/pkg/identity"
	"github.com/keyfoldhq/keyfold/pkg/rbac"
	"github.com/keyfoldhq/keyfold/pkg/server"
)

// RegisterMeEndpoints registers /v1/me.
func RegisterMeEndpoints(s *server.Server) {
	router := s.Router.PathPrefix("/v1/me").Subrouter()
	router.Use(s.Auth.Middleware)

	router.HandleFunc("", handleGetMe(s)).Methods("GET")
	router.HandleFunc("", handlePatchMe(s)).Methods("PATCH")
}

// requireUserSubject resolves the request to a personal subject. Service
// tokens have no profile to show.
func requireUserSubject(w http.ResponseWriter, r *http.Request) (*identity.Identity, string, bool) {
	id, ok := requireIdentity(w, r)
	if !ok {
		return nil, "", false
	}
	username := id.Actor.SubjectUser
	if username == "" {
		respondWithMessage(w, http.StatusForbidden, "Service tokens do not have a user profile")
		return nil, "", false
	}
	return id, username, true
}

func serializeMe(s *server.Server, w http.ResponseWriter, username string) (map[string]interface{}, bool) {
	actor, err := s.RBAC.ResolvePersonalActor(username)
	if err != nil {
		respondWithMessage(w, http.StatusInternalServerError, err.Error())
		return nil, false
	}
	user, err := s.Users.Ensure(username)
	if err != nil {
		respondWithMessage(w, http.StatusInternalServerError, err.Error())
		return nil, false
	}
	return map[string]interface{}{
		"status":                      "OK",
		"username":                    username,
		"email":                       user.Email,
		"fullName":                    user.FullName,
		"workspaceRole":               actor.WorkspaceRole,
		"workspaceSlug":               actor.WorkspaceSlug,
		"effectivePermissionsSummary": rbac.SummarizeScopes(actor.Scopes),
	}, true
}

func handleGetMe(s *server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, username, ok := requireUserSubject(w, r)
		if !ok {
			return
		}
		payload, ok := serializeMe(s, w, username)
		if !ok {
			return
		}
		respondWithJSON(w, http.StatusOK, payload)
	}
}

func handlePatchMe(s *server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, username, ok := requireUserSubject(w, r)
		if !ok {
			return
		}

		var fields map[string]json.RawMessage
		if !decodeJSONBody(w, r, &fields) {
			return
		}
		var unknown []string
		for field := range fields {
			if field != "email" && field != "fullName" {
				unknown = append(unknown, field)
			}
		}
		if len(unknown) > 0 {
			sort.Strings(unknown)
			respondWithMessage(w, http.StatusBadRequest, "Unknown fields: "+strings.Join(unknown, ", "))
			return
		}

		user, err := s.Users.Ensure(username)
		if err != nil {
			respondWithMessage(w, http.StatusInternalServerError, err.Error())
			return
		}
		if raw, ok := fields["email"]; ok {
			var email *string
			if err := json.Unmarshal(raw, &email); err != nil {
				respondWithMessage(w, http.StatusBadRequest, "Invalid JSON payload")
				return
			}
			user.Email = email
		}
		if raw, ok := fields["fullName"]; ok {
			var fullName *string
			if err := json.Unmarshal(raw, &fullName); err != nil {
				respondWithMessage(w, http.StatusBadRequest, "Invalid JSON payload")
				return
			}
			user.FullName = fullName
		}
		if err := s.Users.Update(user); err != nil {
			respondWithMessage(w, http.StatusInternalServerError, err.Error())
			return
		}

		payload, ok := serializeMe(s, w, username)
		if !ok {
			return
		}
		respondWithJSON(w, http.StatusOK, payload)
	}
}
