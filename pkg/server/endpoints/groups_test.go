package endpoints

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keyfoldhq/keyfold/pkg/model"
)

func TestGroupLifecycle(t *testing.T) {
	s, _ := newTestServer(t)
	token := bootstrapOwner(t, s, "admin")

	w := doRequest(s, "POST", "/v1/workspace/groups", token,
		map[string]string{"slug": "platform", "name": "Platform Team"})
	require.Equal(t, http.StatusCreated, w.Code)
	group := decodeBody(t, w)["group"].(map[string]interface{})
	assert.Equal(t, "platform", group["slug"])
	assert.Equal(t, "Platform Team", group["name"])
	assert.NotEmpty(t, group["id"])

	// Name falls back to the slug.
	w = doRequest(s, "POST", "/v1/workspace/groups", token, map[string]string{"slug": "oncall"})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "oncall", decodeBody(t, w)["group"].(map[string]interface{})["name"])

	w = doRequest(s, "GET", "/v1/workspace/groups", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	groups := decodeBody(t, w)["groups"].([]interface{})
	require.Len(t, groups, 2)
	assert.Equal(t, "oncall", groups[0].(map[string]interface{})["slug"])
	assert.Equal(t, "platform", groups[1].(map[string]interface{})["slug"])

	w = doRequest(s, "PATCH", "/v1/workspace/groups/platform", token,
		map[string]string{"description": "Owns shared infrastructure"})
	require.Equal(t, http.StatusOK, w.Code)
	group = decodeBody(t, w)["group"].(map[string]interface{})
	assert.Equal(t, "Owns shared infrastructure", group["description"])

	w = doRequest(s, "DELETE", "/v1/workspace/groups/oncall", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = doRequest(s, "GET", "/v1/workspace/groups", token, nil)
	assert.Len(t, decodeBody(t, w)["groups"].([]interface{}), 1)
}

func TestCreateGroupValidation(t *testing.T) {
	s, _ := newTestServer(t)
	token := bootstrapOwner(t, s, "admin")

	w := doRequest(s, "POST", "/v1/workspace/groups", token, map[string]string{"slug": "Bad Slug"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid group slug", decodeBody(t, w)["message"])

	w = doRequest(s, "POST", "/v1/workspace/groups", token, map[string]string{"slug": "platform"})
	require.Equal(t, http.StatusCreated, w.Code)
	w = doRequest(s, "POST", "/v1/workspace/groups", token, map[string]string{"slug": "platform"})
	require.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "Group already exists", decodeBody(t, w)["message"])

	w = doRequest(s, "PATCH", "/v1/workspace/groups/missing", token, map[string]string{"name": "x"})
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Group not found", decodeBody(t, w)["message"])
}

func TestGroupMembership(t *testing.T) {
	s, _ := newTestServer(t)
	token := bootstrapOwner(t, s, "admin")
	require.NoError(t, s.Users.Create(&model.User{Username: "bob"}))
	require.NoError(t, s.Users.Create(&model.User{Username: "carol"}))

	w := doRequest(s, "POST", "/v1/workspace/groups", token, map[string]string{"slug": "platform"})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doRequest(s, "PUT", "/v1/workspace/groups/platform/members", token,
		map[string][]string{"add": {"bob", "carol"}})
	require.Equal(t, http.StatusOK, w.Code)
	assert.ElementsMatch(t, []interface{}{"bob", "carol"}, decodeBody(t, w)["members"].([]interface{}))

	w = doRequest(s, "PUT", "/v1/workspace/groups/platform/members", token,
		map[string][]string{"remove": {"carol"}})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []interface{}{"bob"}, decodeBody(t, w)["members"].([]interface{}))

	w = doRequest(s, "GET", "/v1/workspace/groups/platform/members", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []interface{}{"bob"}, decodeBody(t, w)["members"].([]interface{}))

	// Unknown users are rejected before any change is applied.
	w = doRequest(s, "PUT", "/v1/workspace/groups/platform/members", token,
		map[string][]string{"add": {"ghost"}})
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "User not found: ghost", decodeBody(t, w)["message"])
}

func TestDeleteGroupRemovesProjectMemberships(t *testing.T) {
	s, f := newTestServer(t)
	token := bootstrapOwner(t, s, "admin")
	f.addProject("backend")

	w := doRequest(s, "POST", "/v1/workspace/groups", token, map[string]string{"slug": "platform"})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doRequest(s, "PUT", "/v1/workspace/projects/backend/members", token,
		map[string]string{"subjectType": "group", "subjectId": "platform", "role": "admin"})
	require.Equal(t, http.StatusOK, w.Code)

	w = doRequest(s, "DELETE", "/v1/workspace/groups/platform", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	// The group's grant must not survive as a stale membership row.
	assert.Empty(t, f.projMembers)
	w = doRequest(s, "GET", "/v1/workspace/projects/backend/members", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decodeBody(t, w)["members"].([]interface{}))
}

func TestGroupMappingLifecycle(t *testing.T) {
	s, _ := newTestServer(t)
	token := bootstrapOwner(t, s, "admin")

	w := doRequest(s, "POST", "/v1/workspace/groups", token, map[string]string{"slug": "platform"})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doRequest(s, "POST", "/v1/workspace/group-mappings", token, map[string]string{
		"provider": "manual", "externalGroupKey": "idp:platform-eng", "groupSlug": "platform"})
	require.Equal(t, http.StatusCreated, w.Code)
	mapping := decodeBody(t, w)["mapping"].(map[string]interface{})
	assert.Equal(t, "manual", mapping["provider"])
	assert.Equal(t, "idp:platform-eng", mapping["externalGroupKey"])
	assert.Equal(t, "platform", mapping["groupSlug"])
	mappingID := mapping["id"].(string)
	require.NotEmpty(t, mappingID)

	// The same provider/key pair can only be mapped once.
	w = doRequest(s, "POST", "/v1/workspace/group-mappings", token, map[string]string{
		"provider": "manual", "externalGroupKey": "idp:platform-eng", "groupSlug": "platform"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Group mapping already exists", decodeBody(t, w)["message"])

	w = doRequest(s, "GET", "/v1/workspace/group-mappings", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	mappings := decodeBody(t, w)["mappings"].([]interface{})
	require.Len(t, mappings, 1)
	assert.Equal(t, "idp:platform-eng", mappings[0].(map[string]interface{})["externalGroupKey"])

	w = doRequest(s, "DELETE", "/v1/workspace/group-mappings/"+mappingID, token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doRequest(s, "DELETE", "/v1/workspace/group-mappings/"+mappingID, token, nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Group mapping not found", decodeBody(t, w)["message"])
}

func TestCreateGroupMappingValidation(t *testing.T) {
	s, _ := newTestServer(t)
	token := bootstrapOwner(t, s, "admin")

	w := doRequest(s, "POST", "/v1/workspace/groups", token, map[string]string{"slug": "platform"})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doRequest(s, "POST", "/v1/workspace/group-mappings", token, map[string]string{
		"provider": "okta", "externalGroupKey": "k", "groupSlug": "platform"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Unsupported mapping provider", decodeBody(t, w)["message"])

	w = doRequest(s, "POST", "/v1/workspace/group-mappings", token, map[string]string{
		"provider": "manual", "externalGroupKey": "   ", "groupSlug": "platform"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "externalGroupKey is required", decodeBody(t, w)["message"])

	w = doRequest(s, "POST", "/v1/workspace/group-mappings", token, map[string]string{
		"provider": "manual", "externalGroupKey": "k", "groupSlug": "ghost"})
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Group not found", decodeBody(t, w)["message"])
}

func TestDeleteGroupRemovesMappings(t *testing.T) {
	s, _ := newTestServer(t)
	token := bootstrapOwner(t, s, "admin")

	w := doRequest(s, "POST", "/v1/workspace/groups", token, map[string]string{"slug": "platform"})
	require.Equal(t, http.StatusCreated, w.Code)
	w = doRequest(s, "POST", "/v1/workspace/group-mappings", token, map[string]string{
		"provider": "manual", "externalGroupKey": "idp:platform-eng", "groupSlug": "platform"})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doRequest(s, "DELETE", "/v1/workspace/groups/platform", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doRequest(s, "GET", "/v1/workspace/group-mappings", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decodeBody(t, w)["mappings"].([]interface{}))
}
