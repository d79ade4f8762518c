package endpoints

import (
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/keyfoldhq/keyfold/pkg/secrets"
	"github.com/keyfoldhq/keyfold/pkg/server"
	"github.com/keyfoldhq/keyfold/pkg/server/store"
)

// RegisterSecretsEndpoints registers the config-scoped secret routes.
func RegisterSecretsEndpoints(s *server.Server) {
	router := s.Router.PathPrefix("/v1/projects/{project}/configs/{config}/secrets").Subrouter()
	router.Use(s.Auth.Middleware)

	router.HandleFunc("", handleExportSecrets(s)).Methods("GET")
	router.HandleFunc("/{key}", handlePutSecret(s)).Methods("PUT")
	router.HandleFunc("/{key}", handleGetSecret(s)).Methods("GET")
	router.HandleFunc("/{key}", handleDeleteSecret(s)).Methods("DELETE")
}

func handlePutSecret(s *server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		vars := mux.Vars(r)
		project, config, ok := resolveProjectConfig(s, w, vars["project"], vars["config"])
		if !ok {
			return
		}
		id, ok := requireScope(w, r, "secrets:write", project.ID, config.ID)
		if !ok {
			return
		}

		var req struct {
			Value string `json:"value"`
			Icon  string `json:"icon"`
		}
		if !decodeJSONBody(w, r, &req) {
			return
		}

		key := vars["key"]
		secret, err := s.SecretsEngine.Put(config.ID, key, req.Value, id.Username(), req.Icon)
		if err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, secrets.ErrInvalidKey) {
				status = http.StatusBadRequest
			}
			auditRequest(s, r, id, "secrets.write", project.ID, config.ID, status, started, err.Error())
			respondWithMessage(w, status, err.Error())
			return
		}

		auditRequest(s, r, id, "secrets.write", project.ID, config.ID, http.StatusOK, started, "")
		respondWithJSON(w, http.StatusOK, map[string]interface{}{
			"status": "OK",
			"key":    key,
			"icon":   secret.IconSlug,
		})
	}
}

func handleGetSecret(s *server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		vars := mux.Vars(r)
		project, config, ok := resolveProjectConfig(s, w, vars["project"], vars["config"])
		if !ok {
			return
		}
		id, ok := requireScope(w, r, "secrets:read", project.ID, config.ID)
		if !ok {
			return
		}

		key := vars["key"]
		value, meta, err := s.SecretsEngine.Get(config.ID, key)
		if err != nil {
			status := http.StatusInternalServerError
			message := err.Error()
			switch {
			case errors.Is(err, secrets.ErrInvalidKey):
				status = http.StatusBadRequest
			case errors.Is(err, store.ErrSecretNotFound):
				status = http.StatusNotFound
				message = "Secret not found"
			}
			auditRequest(s, r, id, "secrets.read", project.ID, config.ID, status, started, message)
			respondWithMessage(w, status, message)
			return
		}

		auditRequest(s, r, id, "secrets.read", project.ID, config.ID, http.StatusOK, started, "")
		respondWithJSON(w, http.StatusOK, map[string]interface{}{
			"status": "OK",
			"key":    key,
			"value":  value,
			"meta":   meta,
		})
	}
}

func handleDeleteSecret(s *server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		vars := mux.Vars(r)
		project, config, ok := resolveProjectConfig(s, w, vars["project"], vars["config"])
		if !ok {
			return
		}
		id, ok := requireScope(w, r, "secrets:delete", project.ID, config.ID)
		if !ok {
			return
		}

		key := vars["key"]
		if err := s.SecretsEngine.Delete(config.ID, key); err != nil {
			status := http.StatusInternalServerError
			message := err.Error()
			switch {
			case errors.Is(err, secrets.ErrInvalidKey):
				status = http.StatusBadRequest
			case errors.Is(err, store.ErrSecretNotFound):
				status = http.StatusNotFound
				message = "Secret not found"
			}
			auditRequest(s, r, id, "secrets.delete", project.ID, config.ID, status, started, message)
			respondWithMessage(w, status, message)
			return
		}

		auditRequest(s, r, id, "secrets.delete", project.ID, config.ID, http.StatusOK, started, "")
		respondWithJSON(w, http.StatusOK, map[string]interface{}{"status": "OK", "key": key})
	}
}

func handleExportSecrets(s *server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		vars := mux.Vars(r)
		project, config, ok := resolveProjectConfig(s, w, vars["project"], vars["config"])
		if !ok {
			return
		}
		id, ok := requireScope(w, r, "secrets:export", project.ID, config.ID)
		if !ok {
			return
		}

		includeParent := boolQuery(r, "include_parent", true)
		includeMeta := boolQuery(r, "include_meta", true)
		format := r.URL.Query().Get("format")
		if format == "" {
			format = "json"
		}
		if format != "json" && format != "env" {
			respondWithMessage(w, http.StatusBadRequest, "format must be json or env")
			return
		}

		data, meta, err := s.SecretsEngine.Export(config.ID, includeParent, includeMeta)
		if err != nil {
			status := http.StatusInternalServerError
			message := err.Error()
			switch {
			case errors.Is(err, store.ErrConfigNotFound):
				status = http.StatusNotFound
				message = "Config not found"
			case errors.Is(err, secrets.ErrInheritanceCycle):
				status = http.StatusBadRequest
			}
			auditRequest(s, r, id, "secrets.export", project.ID, config.ID, status, started, message)
			respondWithMessage(w, status, message)
			return
		}

		auditRequest(s, r, id, "secrets.export", project.ID, config.ID, http.StatusOK, started, "")

		if format == "env" {
			blob, err := secrets.ToEnv(data)
			if err != nil {
				respondWithMessage(w, http.StatusBadRequest, err.Error())
				return
			}
			w.Header().Set("Content-Type", "text/plain")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(blob))
			return
		}

		response := map[string]interface{}{"status": "OK", "data": data}
		if includeMeta {
			response["meta"] = meta
		}
		respondWithJSON(w, http.StatusOK, response)
	}
}
