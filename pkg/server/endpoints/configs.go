package endpoints

import (
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/keyfoldhq/keyfold/pkg/model"
	"github.com/keyfoldhq/keyfold/pkg/server"
	"github.com/keyfoldhq/keyfold/pkg/server/store"
	"github.com/keyfoldhq/keyfold/pkg/validate"
)

// ConfigPayload is the wire form of a config. ParentSlug is resolved from the
// parent pointer.
type ConfigPayload struct {
	Slug       string    `json:"slug"`
	Name       string    `json:"name"`
	ParentSlug *string   `json:"parentSlug"`
	CreatedAt  time.Time `json:"createdAt"`
}

// RegisterConfigsEndpoints registers /v1/projects/{project}/configs.
func RegisterConfigsEndpoints(s *server.Server) {
	router := s.Router.PathPrefix("/v1/projects/{project}/configs").Subrouter()
	router.Use(s.Auth.Middleware)

	router.HandleFunc("", handleListConfigs(s)).Methods("GET")
	router.HandleFunc("", handleCreateConfig(s)).Methods("POST")
}

func handleListConfigs(s *server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		project, ok := resolveProject(s, w, mux.Vars(r)["project"])
		if !ok {
			return
		}
		if _, ok := requireScope(w, r, "configs:read", project.ID, ""); !ok {
			return
		}

		configs, err := s.Configs.List(project.ID)
		if err != nil {
			respondWithMessage(w, http.StatusInternalServerError, err.Error())
			return
		}

		slugByID := make(map[string]string, len(configs))
		for _, config := range configs {
			slugByID[config.ID] = config.Slug
		}
		payload := make([]ConfigPayload, 0, len(configs))
		for _, config := range configs {
			item := ConfigPayload{Slug: config.Slug, Name: config.Name, CreatedAt: config.CreatedAt}
			if config.ParentConfigID != nil {
				if slug, ok := slugByID[*config.ParentConfigID]; ok {
					parentSlug := slug
					item.ParentSlug = &parentSlug
				}
			}
			payload = append(payload, item)
		}
		respondWithJSON(w, http.StatusOK, map[string]interface{}{"status": "OK", "configs": payload})
	}
}

func handleCreateConfig(s *server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		project, ok := resolveProject(s, w, mux.Vars(r)["project"])
		if !ok {
			return
		}
		id, ok := requireScope(w, r, "configs:write", project.ID, "")
		if !ok {
			return
		}

		var req struct {
			Slug   string `json:"slug"`
			Name   string `json:"name"`
			Parent string `json:"parent"`
		}
		if !decodeJSONBody(w, r, &req) {
			return
		}
		if !validate.Slug(req.Slug) {
			respondWithMessage(w, http.StatusBadRequest, "Invalid config slug")
			return
		}
		name := req.Name
		if name == "" {
			name = req.Slug
		}

		var parentID *string
		var parentSlug *string
		if req.Parent != "" {
			parent, err := s.Configs.GetBySlug(project.ID, req.Parent)
			if err != nil {
				if errors.Is(err, store.ErrConfigNotFound) {
					respondWithMessage(w, http.StatusNotFound, "Config not found")
					return
				}
				respondWithMessage(w, http.StatusInternalServerError, err.Error())
				return
			}
			parentID = &parent.ID
			parentSlug = &parent.Slug
		}

		config := &model.Config{
			ProjectID:      project.ID,
			Slug:           req.Slug,
			Name:           name,
			ParentConfigID: parentID,
		}
		if err := s.Configs.Create(config); err != nil {
			if errors.Is(err, store.ErrConfigExists) {
				respondWithMessage(w, http.StatusConflict, "Config already exists")
				return
			}
			respondWithMessage(w, http.StatusInternalServerError, err.Error())
			return
		}

		auditRequest(s, r, id, "configs.write", project.ID, config.ID, http.StatusCreated, started, "")
		respondWithJSON(w, http.StatusCreated, map[string]interface{}{
			"status": "OK",
			"config": ConfigPayload{
				Slug:       config.Slug,
				Name:       config.Name,
				ParentSlug: parentSlug,
				CreatedAt:  config.CreatedAt,
			},
		})
	}
}
