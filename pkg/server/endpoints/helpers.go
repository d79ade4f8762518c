package endpoints

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/keyfoldhq/keyfold/pkg/audit"
	"github.com/keyfoldhq/keyfold/pkg/authn"
	"github.com/keyfoldhq/keyfold/pkg/identity"
	"github.com/keyfoldhq/keyfold/pkg/model"
	"github.com/keyfoldhq/keyfold/pkg/refs"
	"github.com/keyfoldhq/keyfold/pkg/server"
	"github.com/keyfoldhq/keyfold/pkg/server/store"
)

// resolveProject looks up a project by slug, writing a 404 on a miss.
func resolveProject(s *server.Server, w http.ResponseWriter, projectSlug string) (*model.Project, bool) {
	workspace, err := s.Workspaces.EnsureDefault()
	if err != nil {
		respondWithMessage(w, http.StatusInternalServerError, err.Error())
		return nil, false
	}
	project, err := s.Projects.GetBySlug(workspace.ID, projectSlug)
	if err != nil {
		if errors.Is(err, store.ErrProjectNotFound) {
			respondWithMessage(w, http.StatusNotFound, "Project not found")
			return nil, false
		}
		respondWithMessage(w, http.StatusInternalServerError, err.Error())
		return nil, false
	}
	return project, true
}

// resolveProjectConfig looks up a project and one of its configs by slug.
func resolveProjectConfig(s *server.Server, w http.ResponseWriter, projectSlug, configSlug string) (*model.Project, *model.Config, bool) {
	project, ok := resolveProject(s, w, projectSlug)
	if !ok {
		return nil, nil, false
	}
	config, err := s.Configs.GetBySlug(project.ID, configSlug)
	if err != nil {
		if errors.Is(err, store.ErrConfigNotFound) {
			respondWithMessage(w, http.StatusNotFound, "Config not found")
			return nil, nil, false
		}
		respondWithMessage(w, http.StatusInternalServerError, err.Error())
		return nil, nil, false
	}
	return project, config, true
}

// requireIdentity pulls the authenticated identity set by the middleware.
func requireIdentity(w http.ResponseWriter, r *http.Request) (*identity.Identity, bool) {
	id, ok := identity.Get(r.Context())
	if !ok || id.Actor == nil {
		respondWithMessage(w, http.StatusUnauthorized, "Not Authorized to access the requested resource")
		return nil, false
	}
	return id, true
}

// requireScope enforces one action scope, writing a 403 on a miss.
func requireScope(w http.ResponseWriter, r *http.Request, action, projectID, configID string) (*identity.Identity, bool) {
	id, ok := requireIdentity(w, r)
	if !ok {
		return nil, false
	}
	if !authn.Authorize(id.Actor, action, projectID, configID) {
		respondWithMessage(w, http.StatusForbidden, fmt.Sprintf("Missing scope: %s", action))
		return nil, false
	}
	return id, true
}

// auditRequest records one request-level audit event.
func auditRequest(s *server.Server, r *http.Request, id *identity.Identity, action string, projectID, configID string, statusCode int, started time.Time, reason string) {
	if s.Recorder == nil {
		return
	}
	event := audit.RequestEvent{
		Action:     action,
		ProjectID:  projectID,
		ConfigID:   configID,
		Method:     r.Method,
		Path:       r.URL.Path,
		UserAgent:  r.UserAgent(),
		StatusCode: statusCode,
		LatencyMS:  time.Since(started).Milliseconds(),
		Reason:     reason,
	}
	if id != nil {
		event.ActorID = id.Username()
		event.TokenID = id.TokenID()
		if id.RemoteIP != nil {
			event.IP = id.RemoteIP.String()
		}
		if id.Actor != nil {
			event.ActorType = string(id.Actor.Type)
		}
	}
	s.Recorder.Record(event)
}

// newReferenceResolver builds a resolver rooted at one config, backed by the
// live stores. Foreign contexts are gated on the actor's secrets:read scope.
func newReferenceResolver(s *server.Server, actor *authn.Actor, projectSlug, configSlug string, maxDepth int, rootData map[string]string) (*refs.Resolver, error) {
	workspace, err := s.Workspaces.EnsureDefault()
	if err != nil {
		return nil, err
	}
	return refs.NewResolver(refs.Options{
		ProjectSlug: projectSlug,
		ConfigSlug:  configSlug,
		GetProjectBySlug: func(slug string) (string, bool, error) {
			project, err := s.Projects.GetBySlug(workspace.ID, slug)
			if err != nil {
				if errors.Is(err, store.ErrProjectNotFound) {
					return "", false, nil
				}
				return "", false, err
			}
			return project.ID, true, nil
		},
		GetConfigBySlug: func(projectID, slug string) (string, bool, error) {
			config, err := s.Configs.GetBySlug(projectID, slug)
			if err != nil {
				if errors.Is(err, store.ErrConfigNotFound) {
					return "", false, nil
				}
				return "", false, err
			}
			return config.ID, true, nil
		},
		ExportConfig: func(configID string) (map[string]string, error) {
			data, _, err := s.SecretsEngine.Export(configID, true, false)
			return data, err
		},
		RequireScope: func(action, projectID, configID string) error {
			if authn.Authorize(actor, action, projectID, configID) {
				return nil
			}
			return refs.NewError("Unresolved reference due to missing access scope", http.StatusForbidden)
		},
		MaxDepth: maxDepth,
		RootData: rootData,
	})
}
