package endpoints

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuditTrailRecordsSecretWrites(t *testing.T) {
	s, f := newTestServer(t)
	token := bootstrapOwner(t, s, "admin")
	project := f.addProject("backend")
	f.addConfig(project, "dev", nil)

	w := doRequest(s, "PUT", "/v1/projects/backend/configs/dev/secrets/KEY", token,
		map[string]string{"value": "x"})
	require.Equal(t, http.StatusOK, w.Code)

	w = doRequest(s, "GET", "/v1/audit/events", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	events := decodeBody(t, w)["events"].([]interface{})
	require.NotEmpty(t, events)

	var write map[string]interface{}
	for _, raw := range events {
		event := raw.(map[string]interface{})
		if event["action"] == "secrets.write" {
			write = event
		}
	}
	require.NotNil(t, write, "secrets.write event missing")
	assert.Equal(t, "admin", write["actor_id"])
	assert.Equal(t, "token", write["actor_type"])
	assert.Equal(t, "PUT", write["method"])
	assert.Equal(t, "/v1/projects/backend/configs/dev/secrets/KEY", write["path"])
	assert.Equal(t, float64(http.StatusOK), write["status_code"])
	assert.Equal(t, project.ID, write["project_id"])
	assert.NotEmpty(t, write["token_id"])
}

func TestAuditTrailRecordsAuthFailures(t *testing.T) {
	s, _ := newTestServer(t)
	token := bootstrapOwner(t, s, "admin")

	w := doRequest(s, "GET", "/v1/projects", "bogus-token", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w = doRequest(s, "GET", "/v1/audit/events", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	found := false
	for _, raw := range decodeBody(t, w)["events"].([]interface{}) {
		event := raw.(map[string]interface{})
		if event["action"] == "auth.fail" {
			found = true
			assert.Equal(t, float64(http.StatusUnauthorized), event["status_code"])
			assert.NotEmpty(t, event["reason"])
		}
	}
	assert.True(t, found, "auth.fail event missing")
}

func TestAuditQueryFiltersByProject(t *testing.T) {
	s, f := newTestServer(t)
	token := bootstrapOwner(t, s, "admin")
	backend := f.addProject("backend")
	f.addConfig(backend, "dev", nil)
	frontend := f.addProject("frontend")
	f.addConfig(frontend, "dev", nil)

	doRequest(s, "PUT", "/v1/projects/backend/configs/dev/secrets/KEY", token, map[string]string{"value": "x"})
	doRequest(s, "PUT", "/v1/projects/frontend/configs/dev/secrets/KEY", token, map[string]string{"value": "y"})

	w := doRequest(s, "GET", "/v1/audit/events?project=backend", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	events := decodeBody(t, w)["events"].([]interface{})
	require.NotEmpty(t, events)
	for _, raw := range events {
		assert.Equal(t, backend.ID, raw.(map[string]interface{})["project_id"])
	}

	w = doRequest(s, "GET", "/v1/audit/events?project=nope", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAuditQueryLimit(t *testing.T) {
	s, f := newTestServer(t)
	token := bootstrapOwner(t, s, "admin")
	project := f.addProject("backend")
	f.addConfig(project, "dev", nil)

	for i := 0; i < 5; i++ {
		doRequest(s, "PUT", "/v1/projects/backend/configs/dev/secrets/KEY", token, map[string]string{"value": "x"})
	}

	w := doRequest(s, "GET", "/v1/audit/events?limit=2", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeBody(t, w)["events"].([]interface{}), 2)
}

func TestAuditQueryRejectsBadSince(t *testing.T) {
	s, _ := newTestServer(t)
	token := bootstrapOwner(t, s, "admin")

	w := doRequest(s, "GET", "/v1/audit/events?since=yesterday", token, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "since must be an RFC 3339 timestamp", decodeBody(t, w)["message"])
}
