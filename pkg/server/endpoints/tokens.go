package endpoints

import (
	"errors"
	"net/http"
	"time"

	"github.com/keyfoldhq/keyfold/pkg/authn"
	"github.com/keyfoldhq/keyfold/pkg/model"
	"github.com/keyfoldhq/keyfold/pkg/server"
)

const (
	defaultServiceTokenTTL  = 3600 * time.Second
	defaultPersonalTokenTTL = 86400 * time.Second

	// API-minted personal tokens are attributed to the managing system, not
	// to a workspace user.
	managedTokenSubject = "managed-user"
	systemActor         = "system"
)

// RegisterTokensEndpoints registers the token minting and session routes.
func RegisterTokensEndpoints(s *server.Server) {
	v2 := s.Router.PathPrefix("/v1/auth/tokens/v2").Subrouter()
	v2.Use(s.Auth.Middleware)
	v2.HandleFunc("/service", handleCreateServiceToken(s)).Methods("POST")
	v2.HandleFunc("/personal", handleCreatePersonalToken(s)).Methods("POST")
	v2.HandleFunc("/revoke", handleRevokeToken(s)).Methods("POST")
	v2.HandleFunc("", handleListTokens(s)).Methods("GET")

	// Session login uses HTTP basic auth, so it sits outside the token
	// middleware.
	s.Router.HandleFunc("/v1/auth/tokens", handleSessionLogin(s)).Methods("GET")
}

// scopeFromRequest turns optional project/config slugs plus an action list
// into a one-element scope list. No project means a global scope.
func scopeFromRequest(s *server.Server, w http.ResponseWriter, projectSlug, configSlug string, actions []string) (model.ScopeList, bool) {
	if actions == nil {
		actions = []string{}
	}
	if projectSlug == "" {
		return model.ScopeList{{Actions: actions}}, true
	}
	if configSlug != "" {
		project, config, ok := resolveProjectConfig(s, w, projectSlug, configSlug)
		if !ok {
			return nil, false
		}
		return model.ScopeList{{ProjectID: project.ID, ConfigID: config.ID, Actions: actions}}, true
	}
	project, ok := resolveProject(s, w, projectSlug)
	if !ok {
		return nil, false
	}
	return model.ScopeList{{ProjectID: project.ID, Actions: actions}}, true
}

func createdTokenPayload(created *authn.CreatedToken) map[string]interface{} {
	return map[string]interface{}{
		"status":     "OK",
		"token":      created.Token,
		"expires_at": created.ExpiresAt,
		"type":       created.Type,
	}
}

func handleCreateServiceToken(s *server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		id, ok := requireScope(w, r, "tokens:manage", "", "")
		if !ok {
			return
		}

		var req struct {
			ServiceName string   `json:"service_name"`
			Project     string   `json:"project"`
			Config      string   `json:"config"`
			Actions     []string `json:"actions"`
			TTLSeconds  int      `json:"ttl_seconds"`
		}
		if !decodeJSONBody(w, r, &req) {
			return
		}
		if req.ServiceName == "" {
			respondWithMessage(w, http.StatusBadRequest, "service_name is required")
			return
		}
		if len(req.Actions) == 0 {
			respondWithMessage(w, http.StatusBadRequest, "actions is required")
			return
		}

		scopes, ok := scopeFromRequest(s, w, req.Project, req.Config, req.Actions)
		if !ok {
			return
		}
		ttl := defaultServiceTokenTTL
		if req.TTLSeconds > 0 {
			ttl = time.Duration(req.TTLSeconds) * time.Second
		}
		expiresAt := time.Now().UTC().Add(ttl)

		created, err := s.TokenEngine.CreateToken(authn.CreateTokenParams{
			Type:               model.TokenTypeService,
			CreatedBy:          systemActor,
			SubjectServiceName: req.ServiceName,
			Scopes:             scopes,
			ExpiresAt:          &expiresAt,
		})
		if err != nil {
			respondWithMessage(w, http.StatusInternalServerError, err.Error())
			return
		}

		auditRequest(s, r, id, "tokens.create", "", "", http.StatusCreated, started, "")
		respondWithJSON(w, http.StatusCreated, createdTokenPayload(created))
	}
}

func handleCreatePersonalToken(s *server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		id, ok := requireScope(w, r, "tokens:manage", "", "")
		if !ok {
			return
		}

		var req struct {
			Project    string   `json:"project"`
			Config     string   `json:"config"`
			Actions    []string `json:"actions"`
			TTLSeconds int      `json:"ttl_seconds"`
		}
		if !decodeJSONBody(w, r, &req) {
			return
		}

		scopes, ok := scopeFromRequest(s, w, req.Project, req.Config, req.Actions)
		if !ok {
			return
		}
		ttl := defaultPersonalTokenTTL
		if req.TTLSeconds > 0 {
			ttl = time.Duration(req.TTLSeconds) * time.Second
		}
		expiresAt := time.Now().UTC().Add(ttl)

		created, err := s.TokenEngine.CreateToken(authn.CreateTokenParams{
			Type:        model.TokenTypePersonal,
			CreatedBy:   systemActor,
			SubjectUser: managedTokenSubject,
			Scopes:      scopes,
			ExpiresAt:   &expiresAt,
		})
		if err != nil {
			respondWithMessage(w, http.StatusInternalServerError, err.Error())
			return
		}

		auditRequest(s, r, id, "tokens.create", "", "", http.StatusCreated, started, "")
		respondWithJSON(w, http.StatusCreated, createdTokenPayload(created))
	}
}

func handleRevokeToken(s *server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		id, ok := requireScope(w, r, "tokens:manage", "", "")
		if !ok {
			return
		}

		var req struct {
			Token string `json:"token"`
		}
		if !decodeJSONBody(w, r, &req) {
			return
		}
		if req.Token == "" {
			respondWithMessage(w, http.StatusBadRequest, "token is required")
			return
		}

		if err := s.TokenEngine.Revoke(authn.RevokeParams{Token: req.Token}); err != nil {
			status := http.StatusInternalServerError
			switch {
			case errors.Is(err, authn.ErrTokenNotFound):
				status = http.StatusNotFound
			case errors.Is(err, authn.ErrNotAllowed):
				status = http.StatusForbidden
			}
			auditRequest(s, r, id, "tokens.revoke", "", "", status, started, err.Error())
			respondWithMessage(w, status, err.Error())
			return
		}

		auditRequest(s, r, id, "tokens.revoke", "", "", http.StatusOK, started, "")
		respondWithJSON(w, http.StatusOK, map[string]string{"status": "OK"})
	}
}

// tokenMetadataPayload is the listing form of a token. The plaintext is never
// part of it.
type tokenMetadataPayload struct {
	TokenID            string             `json:"token_id"`
	Type               model.TokenType    `json:"type"`
	Purpose            model.TokenPurpose `json:"purpose"`
	SubjectUser        *string            `json:"subject_user"`
	SubjectServiceName *string            `json:"subject_service_name"`
	Scopes             model.ScopeList    `json:"scopes"`
	ExpiresAt          *time.Time         `json:"expires_at"`
	LastUsedAt         *time.Time         `json:"last_used_at"`
	RevokedAt          *time.Time         `json:"revoked_at"`
	CreatedAt          time.Time          `json:"created_at"`
	CreatedBy          string             `json:"created_by"`
}

func handleListTokens(s *server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := requireScope(w, r, "tokens:manage", "", ""); !ok {
			return
		}

		tokens, err := s.TokenEngine.List(boolQuery(r, "include_revoked", false))
		if err != nil {
			respondWithMessage(w, http.StatusInternalServerError, err.Error())
			return
		}

		payload := make([]tokenMetadataPayload, 0, len(tokens))
		for _, token := range tokens {
			payload = append(payload, tokenMetadataPayload{
				TokenID:            token.ID,
				Type:               token.Type,
				Purpose:            token.Purpose,
				SubjectUser:        token.SubjectUser,
				SubjectServiceName: token.SubjectServiceName,
				Scopes:             token.Scopes,
				ExpiresAt:          token.ExpiresAt,
				LastUsedAt:         token.LastUsedAt,
				RevokedAt:          token.RevokedAt,
				CreatedAt:          token.CreatedAt,
				CreatedBy:          token.CreatedBy,
			})
		}
		respondWithJSON(w, http.StatusOK, map[string]interface{}{"status": "OK", "tokens": payload})
	}
}

// handleSessionLogin exchanges HTTP basic credentials for a short-lived
// session token.
func handleSessionLogin(s *server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		username, password, ok := r.BasicAuth()
		if !ok || !s.Userpass.IsAuthorized(username, password) {
			respondWithMessage(w, http.StatusUnauthorized, "Invalid credentials")
			return
		}

		created, err := s.TokenEngine.Generate(username, s.Config.SessionTTL())
		if err != nil {
			respondWithMessage(w, http.StatusInternalServerError, err.Error())
			return
		}
		respondWithJSON(w, http.StatusOK, createdTokenPayload(created))
	}
}
