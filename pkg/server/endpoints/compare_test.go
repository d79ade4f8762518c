package endpoints

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rowsBySlug(t *testing.T, body map[string]interface{}) map[string]map[string]interface{} {
	t.Helper()
	rows := map[string]map[string]interface{}{}
	for _, raw := range body["configs"].([]interface{}) {
		row := raw.(map[string]interface{})
		rows[row["configSlug"].(string)] = row
	}
	return rows
}

func TestCompareSecretAcrossConfigs(t *testing.T) {
	s, f := newTestServer(t)
	token := bootstrapOwner(t, s, "admin")
	project := f.addProject("backend")
	dev := f.addConfig(project, "dev", nil)
	staging := f.addConfig(project, "staging", nil)
	f.addConfig(project, "prod", nil)
	f.setSecret(dev, "DB_URL", "postgres://dev")
	f.setSecret(staging, "DB_URL", "postgres://staging")

	w := doRequest(s, "GET", "/v1/projects/backend/compare/secrets/DB_URL", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "backend", body["project"])
	assert.Equal(t, "DB_URL", body["key"])

	rows := rowsBySlug(t, body)
	require.Len(t, rows, 3)
	assert.Equal(t, "postgres://dev", rows["dev"]["effective"].(map[string]interface{})["value"])
	assert.Equal(t, false, rows["dev"]["hasIssues"])
	assert.Nil(t, rows["prod"]["effective"])
	assert.Equal(t, true, rows["prod"]["hasIssues"])
	issues := rows["prod"]["issues"].([]interface{})
	require.Len(t, issues, 1)
	assert.Equal(t, "missing_effective_value", issues[0].(map[string]interface{})["code"])

	summary := body["summary"].(map[string]interface{})
	assert.Equal(t, float64(2), summary["uniqueEffectiveValues"])
	assert.Equal(t, float64(1), summary["missingCount"])
	assert.Equal(t, true, summary["conflict"])

	issuesSummary := body["issuesSummary"].(map[string]interface{})
	assert.Equal(t, float64(1), issuesSummary["totalIssues"])
	assert.Equal(t, float64(1), issuesSummary["affectedConfigs"])
}

func TestCompareInheritsEffectiveValues(t *testing.T) {
	s, f := newTestServer(t)
	token := bootstrapOwner(t, s, "admin")
	project := f.addProject("backend")
	base := f.addConfig(project, "base", nil)
	f.addConfig(project, "dev", base)
	f.setSecret(base, "KEY", "shared")

	w := doRequest(s, "GET", "/v1/projects/backend/compare/secrets/KEY", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	rows := rowsBySlug(t, decodeBody(t, w))

	devEffective := rows["dev"]["effective"].(map[string]interface{})
	assert.Equal(t, "shared", devEffective["value"])
	assert.Equal(t, "base", devEffective["source"])
	assert.Equal(t, true, devEffective["isInherited"])
	assert.Equal(t, false, rows["dev"]["direct"].(map[string]interface{})["exists"])

	baseEffective := rows["base"]["effective"].(map[string]interface{})
	assert.Equal(t, false, baseEffective["isInherited"])
}

func TestCompareResolvesReferences(t *testing.T) {
	s, f := newTestServer(t)
	token := bootstrapOwner(t, s, "admin")
	project := f.addProject("backend")
	dev := f.addConfig(project, "dev", nil)
	f.setSecret(dev, "HOST", "localhost")
	f.setSecret(dev, "URL", "http://${HOST}/api")

	w := doRequest(s, "GET", "/v1/projects/backend/compare/secrets/URL", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	rows := rowsBySlug(t, decodeBody(t, w))

	row := rows["dev"]
	assert.Equal(t, false, row["hasIssues"])
	assert.Equal(t, "http://localhost/api", row["effective"].(map[string]interface{})["value"])
	// The stored value is untouched.
	assert.Equal(t, "http://${HOST}/api", f.secrets[dev.ID]["URL"].ValueEnc)
}

func TestCompareRawKeepsPlaceholders(t *testing.T) {
	s, f := newTestServer(t)
	token := bootstrapOwner(t, s, "admin")
	project := f.addProject("backend")
	dev := f.addConfig(project, "dev", nil)
	f.setSecret(dev, "HOST", "localhost")
	f.setSecret(dev, "URL", "http://${HOST}/api")

	w := doRequest(s, "GET", "/v1/projects/backend/compare/secrets/URL?raw=1", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	rows := rowsBySlug(t, decodeBody(t, w))

	row := rows["dev"]
	assert.Equal(t, false, row["hasIssues"])
	assert.Equal(t, "http://${HOST}/api", row["effective"].(map[string]interface{})["value"])
}

func TestCompareFlagsUnresolvedReference(t *testing.T) {
	s, f := newTestServer(t)
	token := bootstrapOwner(t, s, "admin")
	project := f.addProject("backend")
	dev := f.addConfig(project, "dev", nil)
	f.setSecret(dev, "URL", "http://${MISSING_HOST}/api")

	w := doRequest(s, "GET", "/v1/projects/backend/compare/secrets/URL", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	rows := rowsBySlug(t, decodeBody(t, w))

	row := rows["dev"]
	assert.Equal(t, true, row["hasIssues"])
	issues := row["issues"].([]interface{})
	require.Len(t, issues, 1)
	issue := issues[0].(map[string]interface{})
	assert.Equal(t, "broken_reference_unresolved", issue["code"])
	assert.Contains(t, issue["message"], "Unresolved reference")
	// The broken value is left unresolved.
	assert.Equal(t, "http://${MISSING_HOST}/api", row["effective"].(map[string]interface{})["value"])

	issuesSummary := decodeBody(t, w)["issuesSummary"].(map[string]interface{})
	byCode := issuesSummary["byCode"].([]interface{})
	require.Len(t, byCode, 1)
	assert.Equal(t, "broken_reference_unresolved", byCode[0].(map[string]interface{})["code"])
}

func TestCompareFlagsReferenceCycle(t *testing.T) {
	s, f := newTestServer(t)
	token := bootstrapOwner(t, s, "admin")
	project := f.addProject("backend")
	dev := f.addConfig(project, "dev", nil)
	f.setSecret(dev, "A", "${B}")
	f.setSecret(dev, "B", "${A}")

	w := doRequest(s, "GET", "/v1/projects/backend/compare/secrets/A", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	rows := rowsBySlug(t, decodeBody(t, w))

	row := rows["dev"]
	assert.Equal(t, true, row["hasIssues"])
	issues := row["issues"].([]interface{})
	require.NotEmpty(t, issues)
	assert.Equal(t, "broken_reference_cycle_or_depth", issues[0].(map[string]interface{})["code"])
}

func TestCompareValidatesInput(t *testing.T) {
	s, f := newTestServer(t)
	token := bootstrapOwner(t, s, "admin")
	f.addProject("backend")

	w := doRequest(s, "GET", "/v1/projects/backend/compare/secrets/bad-key", token, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid secret key", decodeBody(t, w)["message"])

	w = doRequest(s, "GET", "/v1/projects/backend/compare/secrets/KEY?limit_configs=0", token, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "limit_configs must be >= 1", decodeBody(t, w)["message"])

	w = doRequest(s, "GET", "/v1/projects/backend/compare/secrets/KEY?limit_configs=501", token, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "limit_configs must be <= 500", decodeBody(t, w)["message"])
}

func TestCompareFiltersConfigsByExportScope(t *testing.T) {
	s, f := newTestServer(t)
	ownerToken := bootstrapOwner(t, s, "admin")
	project := f.addProject("backend")
	dev := f.addConfig(project, "dev", nil)
	staging := f.addConfig(project, "staging", nil)
	f.setSecret(dev, "KEY", "dev-value")
	f.setSecret(staging, "KEY", "staging-value")

	w := doRequest(s, "POST", "/v1/auth/tokens/v2/service", ownerToken, map[string]interface{}{
		"service_name": "ci",
		"project":      "backend",
		"config":       "dev",
		"actions":      []string{"secrets:read", "secrets:export"},
	})
	require.Equal(t, http.StatusCreated, w.Code)
	serviceToken := decodeBody(t, w)["token"].(string)

	w = doRequest(s, "GET", "/v1/projects/backend/compare/secrets/KEY", serviceToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	rows := rowsBySlug(t, decodeBody(t, w))
	require.Len(t, rows, 1)
	assert.Contains(t, rows, "dev")
}
