package audit

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/keyfoldhq/keyfold/pkg/model"
)

// RequestEvent is one audited API request: who did what to which resource,
// and how the request ended.
type RequestEvent struct {
	ActorType  string
	ActorID    string
	TokenID    string
	Action     string
	ProjectID  string
	ConfigID   string
	Method     string
	Path       string
	IP         string
	UserAgent  string
	StatusCode int
	LatencyMS  int64
	Reason     string
}

func (e RequestEvent) MessageID() string {
	return e.Action
}

func (e RequestEvent) Message() string {
	actor := e.ActorID
	if actor == "" {
		actor = "anonymous"
	}
	msg := fmt.Sprintf("%s %s %s %s (%d)", actor, e.Action, e.Method, e.Path, e.StatusCode)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

func (e RequestEvent) Severity() Severity {
	switch {
	case e.StatusCode >= http.StatusInternalServerError:
		return SeverityError
	case e.StatusCode >= http.StatusBadRequest:
		return SeverityWarning
	}
	return SeverityInfo
}

func (e RequestEvent) Facility() int {
	return FacilityAuthPriv
}

func (e RequestEvent) StructuredData() map[string]map[string]string {
	sd := map[string]map[string]string{
		SDIDAuth: {
			"actor_type": e.ActorType,
			"actor":      e.ActorID,
		},
		SDIDAction: {
			"operation": e.Action,
			"status":    strconv.Itoa(e.StatusCode),
		},
		SDIDClient: {
			"ip": e.IP,
		},
	}
	if e.TokenID != "" {
		sd[SDIDAuth]["token"] = e.TokenID
	}
	if e.UserAgent != "" {
		sd[SDIDClient]["user_agent"] = e.UserAgent
	}
	if e.ProjectID != "" || e.ConfigID != "" {
		subject := map[string]string{}
		if e.ProjectID != "" {
			subject["project"] = e.ProjectID
		}
		if e.ConfigID != "" {
			subject["config"] = e.ConfigID
		}
		sd[SDIDSubject] = subject
	}
	if e.Reason != "" {
		sd[SDIDAction]["reason"] = e.Reason
	}
	return sd
}

// Row converts the event to its persistent form.
func (e RequestEvent) Row() *model.AuditEvent {
	row := &model.AuditEvent{
		ActorType:  e.ActorType,
		ActorID:    e.ActorID,
		Action:     e.Action,
		Method:     e.Method,
		Path:       e.Path,
		IP:         e.IP,
		UserAgent:  e.UserAgent,
		StatusCode: e.StatusCode,
		LatencyMS:  e.LatencyMS,
		Reason:     e.Reason,
	}
	if e.TokenID != "" {
		tokenID := e.TokenID
		row.TokenID = &tokenID
	}
	if e.ProjectID != "" {
		projectID := e.ProjectID
		row.ProjectID = &projectID
	}
	if e.ConfigID != "" {
		configID := e.ConfigID
		row.ConfigID = &configID
	}
	return row
}
