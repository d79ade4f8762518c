package endpoints

import (
	"net/http"

	"github.com/keyfoldhq/keyfold/pkg/server"
)

// RegisterOnboardingEndpoints registers the public first-time setup routes.
func RegisterOnboardingEndpoints(s *server.Server) {
	s.Router.HandleFunc("/v1/onboarding/status", handleOnboardingStatus(s)).Methods("GET")
	s.Router.HandleFunc("/v1/onboarding/bootstrap", handleOnboardingBootstrap(s)).Methods("POST")
}

func handleOnboardingStatus(s *server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state, err := s.OnboardingEngine.State()
		if err != nil {
			respondWithMessage(w, http.StatusInternalServerError, err.Error())
			return
		}
		respondWithJSON(w, http.StatusOK, map[string]interface{}{
			"status":     "OK",
			"onboarding": state,
		})
	}
}

func handleOnboardingBootstrap(s *server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req userpassRequest
		if !decodeJSONBody(w, r, &req) {
			return
		}
		if req.Username == "" || req.Password == "" {
			respondWithMessage(w, http.StatusBadRequest, "username and password are required")
			return
		}

		result, err := s.OnboardingEngine.Bootstrap(req.Username, req.Password, true)
		if err != nil {
			respondWithMessage(w, statusErrorCode(err), err.Error())
			return
		}

		payload := map[string]interface{}{
			"status":     "OK",
			"onboarding": result.State,
		}
		status := http.StatusOK
		if result.Token != nil {
			payload["token"] = result.Token.Token
			payload["expires_at"] = result.Token.ExpiresAt
			payload["type"] = result.Token.Type
			status = http.StatusCreated
		}
		respondWithJSON(w, status, payload)
	}
}
