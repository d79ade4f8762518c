package endpoints

import (
	"net/http"

	"github.com/keyfoldhq/keyfold/pkg/server"
)

// Version is stamped at build time via -ldflags.
var Version = "dev"

// RegisterVersionEndpoints registers the public /v1/version route.
func RegisterVersionEndpoints(s *server.Server) {
	s.Router.HandleFunc("/v1/version", handleGetVersion()).Methods("GET")
}

func handleGetVersion() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respondWithJSON(w, http.StatusOK, map[string]string{"status": "OK", "version": Version})
	}
}
