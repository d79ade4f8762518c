package endpoints

import (
	"errors"
	"net/http"
	"time"

	"github.com/keyfoldhq/keyfold/pkg/model"
	"github.com/keyfoldhq/keyfold/pkg/server"
	"github.com/keyfoldhq/keyfold/pkg/server/store"
	"github.com/keyfoldhq/keyfold/pkg/validate"
)

// ProjectPayload is the wire form of a project.
type ProjectPayload struct {
	Slug      string    `json:"slug"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

func projectPayload(p model.Project) ProjectPayload {
	return ProjectPayload{Slug: p.Slug, Name: p.Name, CreatedAt: p.CreatedAt}
}

// RegisterProjectsEndpoints registers /v1/projects.
func RegisterProjectsEndpoints(s *server.Server) {
	router := s.Router.PathPrefix("/v1/projects").Subrouter()
	router.Use(s.Auth.Middleware)

	router.HandleFunc("", handleListProjects(s)).Methods("GET")
	router.HandleFunc("", handleCreateProject(s)).Methods("POST")
}

func handleListProjects(s *server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := requireScope(w, r, "projects:read", "", ""); !ok {
			return
		}

		workspace, err := s.Workspaces.EnsureDefault()
		if err != nil {
			respondWithMessage(w, http.StatusInternalServerError, err.Error())
			return
		}
		projects, err := s.Projects.List(workspace.ID)
		if err != nil {
			respondWithMessage(w, http.StatusInternalServerError, err.Error())
			return
		}

		payload := make([]ProjectPayload, 0, len(projects))
		for _, project := range projects {
			payload = append(payload, projectPayload(project))
		}
		respondWithJSON(w, http.StatusOK, map[string]interface{}{"status": "OK", "projects": payload})
	}
}

func handleCreateProject(s *server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		id, ok := requireScope(w, r, "projects:write", "", "")
		if !ok {
			return
		}

		var req struct {
			Slug string `json:"slug"`
			Name string `json:"name"`
		}
		if !decodeJSONBody(w, r, &req) {
			return
		}
		if !validate.Slug(req.Slug) {
			respondWithMessage(w, http.StatusBadRequest, "Invalid project slug")
			return
		}
		name := req.Name
		if name == "" {
			name = req.Slug
		}

		workspace, err := s.Workspaces.EnsureDefault()
		if err != nil {
			respondWithMessage(w, http.StatusInternalServerError, err.Error())
			return
		}
		project := &model.Project{WorkspaceID: workspace.ID, Slug: req.Slug, Name: name}
		if err := s.Projects.Create(project); err != nil {
			if errors.Is(err, store.ErrProjectExists) {
				respondWithMessage(w, http.StatusConflict, "Project already exists")
				return
			}
			respondWithMessage(w, http.StatusInternalServerError, err.Error())
			return
		}

		auditRequest(s, r, id, "projects.write", project.ID, "", http.StatusCreated, started, "")
		respondWithJSON(w, http.StatusCreated, map[string]interface{}{
			"status":  "OK",
			"project": projectPayload(*project),
		})
	}
}
