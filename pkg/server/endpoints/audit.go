package endpoints

import (
	"net/http"
	"time"

	"github.com/keyfoldhq/keyfold/pkg/model"
	"github.com/keyfoldhq/keyfold/pkg/server"
	"github.com/keyfoldhq/keyfold/pkg/server/store"
)

const defaultAuditQueryLimit = 100

// auditEventPayload keeps the persisted snake_case field names on the wire.
type auditEventPayload struct {
	Ts         time.Time `json:"ts"`
	ActorType  string    `json:"actor_type"`
	ActorID    string    `json:"actor_id"`
	TokenID    *string   `json:"token_id"`
	Action     string    `json:"action"`
	ProjectID  *string   `json:"project_id"`
	ConfigID   *string   `json:"config_id"`
	Method     string    `json:"method"`
	Path       string    `json:"path"`
	IP         string    `json:"ip"`
	UserAgent  string    `json:"user_agent"`
	StatusCode int       `json:"status_code"`
	LatencyMS  int64     `json:"latency_ms"`
	Reason     string    `json:"reason,omitempty"`
}

func auditPayload(event model.AuditEvent) auditEventPayload {
	return auditEventPayload{
		Ts:         event.Ts,
		ActorType:  event.ActorType,
		ActorID:    event.ActorID,
		TokenID:    event.TokenID,
		Action:     event.Action,
		ProjectID:  event.ProjectID,
		ConfigID:   event.ConfigID,
		Method:     event.Method,
		Path:       event.Path,
		IP:         event.IP,
		UserAgent:  event.UserAgent,
		StatusCode: event.StatusCode,
		LatencyMS:  event.LatencyMS,
		Reason:     event.Reason,
	}
}

// RegisterAuditEndpoints registers /v1/audit.
func RegisterAuditEndpoints(s *server.Server) {
	router := s.Router.PathPrefix("/v1/audit").Subrouter()
	router.Use(s.Auth.Middleware)

	router.HandleFunc("/events", handleQueryAuditEvents(s)).Methods("GET")
}

func handleQueryAuditEvents(s *server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()

		var projectID, configID string
		if projectSlug := query.Get("project"); projectSlug != "" {
			project, ok := resolveProject(s, w, projectSlug)
			if !ok {
				return
			}
			projectID = project.ID
			if configSlug := query.Get("config"); configSlug != "" {
				_, config, ok := resolveProjectConfig(s, w, projectSlug, configSlug)
				if !ok {
					return
				}
				configID = config.ID
			}
		}

		if _, ok := requireScope(w, r, "audit:read", projectID, configID); !ok {
			return
		}

		filter := store.AuditFilter{
			ProjectID: projectID,
			ConfigID:  configID,
			Limit:     intQuery(r, "limit", defaultAuditQueryLimit),
		}
		if raw := query.Get("since"); raw != "" {
			since, err := time.Parse(time.RFC3339, raw)
			if err != nil {
				respondWithMessage(w, http.StatusBadRequest, "since must be an RFC 3339 timestamp")
				return
			}
			filter.Since = &since
		}

		events, err := s.Recorder.Query(filter)
		if err != nil {
			respondWithMessage(w, http.StatusInternalServerError, err.Error())
			return
		}
		payload := make([]auditEventPayload, 0, len(events))
		for _, event := range events {
			payload = append(payload, auditPayload(event))
		}
		respondWithJSON(w, http.StatusOK, map[string]interface{}{"status": "OK", "events": payload})
	}
}
