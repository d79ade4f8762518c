package endpoints

import (
	"errors"
	"net/http"
	"time"

	"github.com/keyfoldhq/keyfold/pkg/authn"
	"github.com/keyfoldhq/keyfold/pkg/model"
	"github.com/keyfoldhq/keyfold/pkg/server"
	"github.com/keyfoldhq/keyfold/pkg/server/store"
)

// RegisterUserpassEndpoints registers the username/password credential
// routes. Registration stays open until the system is bootstrapped, so the
// routes carry no blanket auth middleware.
func RegisterUserpassEndpoints(s *server.Server) {
	s.Router.HandleFunc("/v1/auth/userpass/register", handleUserpassRegister(s)).Methods("POST")
	s.Router.HandleFunc("/v1/auth/userpass/delete", handleUserpassDelete(s)).Methods("DELETE")
}

type userpassRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// authenticateInline runs the token middleware checks for routes registered
// outside an authenticated subrouter.
func authenticateInline(s *server.Server, w http.ResponseWriter, r *http.Request) (*http.Request, bool) {
	var out *http.Request
	passed := false
	s.Auth.Middleware(http.HandlerFunc(func(_ http.ResponseWriter, inner *http.Request) {
		out = inner
		passed = true
	})).ServeHTTP(w, r)
	if !passed {
		return nil, false
	}
	return out, true
}

func handleUserpassRegister(s *server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		initialized, err := s.OnboardingEngine.IsInitialized()
		if err != nil {
			respondWithMessage(w, http.StatusInternalServerError, err.Error())
			return
		}

		// The first registration bootstraps the system unauthenticated;
		// every later one needs users:manage.
		if !initialized {
			var req userpassRequest
			if !decodeJSONBody(w, r, &req) {
				return
			}
			if req.Username == "" || req.Password == "" {
				respondWithMessage(w, http.StatusBadRequest, "username and password are required")
				return
			}
			if _, err := s.OnboardingEngine.Bootstrap(req.Username, req.Password, false); err != nil {
				respondWithMessage(w, statusErrorCode(err), err.Error())
				return
			}
			respondWithJSON(w, http.StatusOK, map[string]string{"status": "OK", "username": req.Username})
			return
		}

		r, ok := authenticateInline(s, w, r)
		if !ok {
			return
		}
		id, ok := requireScope(w, r, "users:manage", "", "")
		if !ok {
			return
		}

		var req userpassRequest
		if !decodeJSONBody(w, r, &req) {
			return
		}
		if req.Username == "" || req.Password == "" {
			respondWithMessage(w, http.StatusBadRequest, "username and password are required")
			return
		}

		if err := s.Userpass.Register(req.Username, req.Password); err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, authn.ErrUserExists) {
				status = http.StatusConflict
			}
			respondWithMessage(w, status, err.Error())
			return
		}

		workspace, err := s.Workspaces.EnsureDefault()
		if err != nil {
			respondWithMessage(w, http.StatusInternalServerError, err.Error())
			return
		}
		if _, err := s.Users.Ensure(req.Username); err != nil {
			respondWithMessage(w, http.StatusInternalServerError, err.Error())
			return
		}
		role := workspace.Settings.DefaultWorkspaceRole
		if _, err := s.Memberships.UpsertWorkspaceMembership(workspace.ID, req.Username, role); err != nil {
			respondWithMessage(w, http.StatusInternalServerError, err.Error())
			return
		}

		auditRequest(s, r, id, "users.register", "", "", http.StatusOK, started, "")
		respondWithJSON(w, http.StatusOK, map[string]string{"status": "OK", "username": req.Username})
	}
}

func handleUserpassDelete(s *server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		r, ok := authenticateInline(s, w, r)
		if !ok {
			return
		}
		id, ok := requireScope(w, r, "users:manage", "", "")
		if !ok {
			return
		}

		var req struct {
			Username string `json:"username"`
		}
		if !decodeJSONBody(w, r, &req) {
			return
		}
		if req.Username == "" {
			respondWithMessage(w, http.StatusBadRequest, "username is required")
			return
		}

		if err := s.Userpass.Remove(req.Username); err != nil {
			if errors.Is(err, store.ErrCredentialNotFound) {
				respondWithMessage(w, http.StatusNotFound, "User not found")
				return
			}
			respondWithMessage(w, http.StatusInternalServerError, err.Error())
			return
		}

		workspace, err := s.Workspaces.EnsureDefault()
		if err != nil {
			respondWithMessage(w, http.StatusInternalServerError, err.Error())
			return
		}
		// Membership and group cleanup is best effort; the credential is
		// already gone.
		_ = s.Memberships.RemoveWorkspaceMembership(workspace.ID, req.Username)
		_ = s.Memberships.RemoveAllForSubject(workspace.ID, model.SubjectUser, req.Username)
		_ = s.Groups.RemoveUserFromAllGroups(workspace.ID, req.Username)
		_ = s.Users.Delete(req.Username)

		auditRequest(s, r, id, "users.delete", "", "", http.StatusOK, started, "")
		respondWithJSON(w, http.StatusOK, map[string]string{"status": "OK", "username": req.Username})
	}
}

// statusErrorCode extracts the HTTP status from flow errors, defaulting to
// 500.
func statusErrorCode(err error) int {
	var statusErr *authn.StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode
	}
	return http.StatusInternalServerError
}
