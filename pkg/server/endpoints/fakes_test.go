package endpoints

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/keyfoldhq/keyfold/pkg/audit"
	"github.com/keyfoldhq/keyfold/pkg/authn"
	"github.com/keyfoldhq/keyfold/pkg/config"
	"github.com/keyfoldhq/keyfold/pkg/model"
	"github.com/keyfoldhq/keyfold/pkg/rbac"
	"github.com/keyfoldhq/keyfold/pkg/secrets"
	"github.com/keyfoldhq/keyfold/pkg/server"
	"github.com/keyfoldhq/keyfold/pkg/server/middleware"
	"github.com/keyfoldhq/keyfold/pkg/server/store"
)

// fixture is an in-memory backend implementing every store the server needs.
type fixture struct {
	workspace    model.Workspace
	users        map[string]*model.User
	credentials  map[string]*model.UserCredential
	wsMembers    map[string]model.WorkspaceRole
	projMembers  []model.ProjectMembership
	groups        map[string]*model.Group
	groupMembers  map[string][]string
	groupMappings map[string]*model.GroupMapping
	projects     []*model.Project
	configs      []*model.Config
	secrets      map[string]map[string]*model.Secret
	tokens       map[string]*model.Token
	onboarding   *model.OnboardingState
	events       []*model.AuditEvent
}

func newFixture() *fixture {
	return &fixture{
		workspace: model.Workspace{
			ID:       "ws-1",
			Slug:     model.DefaultWorkspaceSlug,
			Name:     model.DefaultWorkspaceName,
			Settings: model.DefaultWorkspaceSettings(),
		},
		users:        map[string]*model.User{},
		credentials:  map[string]*model.UserCredential{},
		wsMembers:    map[string]model.WorkspaceRole{},
		groups:        map[string]*model.Group{},
		groupMembers:  map[string][]string{},
		groupMappings: map[string]*model.GroupMapping{},
		secrets:      map[string]map[string]*model.Secret{},
		tokens:       map[string]*model.Token{},
	}
}

func (f *fixture) addProject(slug string) *model.Project {
	project := &model.Project{ID: uuid.NewString(), WorkspaceID: f.workspace.ID, Slug: slug, Name: slug, CreatedAt: time.Now().UTC()}
	f.projects = append(f.projects, project)
	return project
}

func (f *fixture) addConfig(project *model.Project, slug string, parent *model.Config) *model.Config {
	config := &model.Config{ID: uuid.NewString(), ProjectID: project.ID, Slug: slug, Name: slug, CreatedAt: time.Now().UTC()}
	if parent != nil {
		parentID := parent.ID
		config.ParentConfigID = &parentID
	}
	f.configs = append(f.configs, config)
	return config
}

func (f *fixture) setSecret(config *model.Config, key, value string) {
	if f.secrets[config.ID] == nil {
		f.secrets[config.ID] = map[string]*model.Secret{}
	}
	f.secrets[config.ID][key] = &model.Secret{
		ConfigID:  config.ID,
		Key:       key,
		ValueEnc:  value,
		IconSlug:  "key",
		UpdatedAt: time.Now().UTC(),
		UpdatedBy: "seed",
	}
}

// newTestServer wires a server onto the fixture's stores and mounts every
// endpoint.
func newTestServer(t *testing.T) (*server.Server, *fixture) {
	t.Helper()
	f := newFixture()

	log := logrus.New()
	log.SetOutput(io.Discard)

	s := &server.Server{
		Config: &config.Config{
			SessionTokenTTL:   86400,
			MaxReferenceDepth: 8,
			AuditEnabled:      true,
		},
		Log:         log,
		Workspaces:  (*fakeWorkspaces)(f),
		Users:       (*fakeUsers)(f),
		Credentials: (*fakeCredentials)(f),
		Memberships: (*fakeMemberships)(f),
		Groups:      (*fakeGroups)(f),
		Projects:    (*fakeProjects)(f),
		Configs:     (*fakeConfigs)(f),
		Secrets:     (*fakeSecrets)(f),
		Tokens:      (*fakeTokens)(f),
		Onboarding:  (*fakeOnboarding)(f),
		AuditEvents: (*fakeAuditEvents)(f),
	}

	s.SecretsEngine = secrets.NewEngine(s.Secrets, s.Configs, secrets.PassthroughCodec{})
	s.RBAC = rbac.NewEngine(s.Workspaces, s.Users, s.Memberships, s.Groups, s.Projects, s.Onboarding)
	s.TokenEngine = authn.NewTokenEngine(s.Tokens, "test-salt", s.RBAC.ResolvePersonalActor)
	s.Userpass = authn.NewUserpass(s.Credentials, s.Users)
	s.OnboardingEngine = authn.NewOnboarding(s.Onboarding, s.Userpass, s.TokenEngine, s.Workspaces, s.Users, s.Memberships)

	auditLogger := audit.NewLogger()
	auditLogger.SetWriter(io.Discard)
	s.Recorder = audit.NewRecorder(auditLogger, s.AuditEvents, log)
	s.Auth = middleware.NewTokenAuthenticator(s.TokenEngine, s.Recorder, func(string) bool { return false })

	s.Router = mux.NewRouter().UseEncodedPath()
	RegisterAll(s)
	return s, f
}

// bootstrapOwner initializes the system and returns the owner's token.
func bootstrapOwner(t *testing.T, s *server.Server, username string) string {
	t.Helper()
	result, err := s.OnboardingEngine.Bootstrap(username, "password123", true)
	require.NoError(t, err)
	require.NotNil(t, result.Token)
	return result.Token.Token
}

// mintToken issues a token directly against the engine.
func mintToken(t *testing.T, s *server.Server, params authn.CreateTokenParams) string {
	t.Helper()
	created, err := s.TokenEngine.CreateToken(params)
	require.NoError(t, err)
	return created.Token
}

func doRequest(s *server.Server, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		encoded, _ := json.Marshal(body)
		reader = bytes.NewReader(encoded)
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.Router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payload))
	return payload
}

type fakeWorkspaces fixture

var _ store.Workspaces = (*fakeWorkspaces)(nil)

func (f *fakeWorkspaces) EnsureDefault() (*model.Workspace, error) {
	ws := f.workspace
	return &ws, nil
}

func (f *fakeWorkspaces) Create(*model.Workspace) error { return store.ErrWorkspaceExists }

func (f *fakeWorkspaces) GetByID(id string) (*model.Workspace, error) {
	if id != f.workspace.ID {
		return nil, store.ErrWorkspaceNotFound
	}
	ws := f.workspace
	return &ws, nil
}

func (f *fakeWorkspaces) GetBySlug(slug string) (*model.Workspace, error) {
	if slug != f.workspace.Slug {
		return nil, store.ErrWorkspaceNotFound
	}
	ws := f.workspace
	return &ws, nil
}

func (f *fakeWorkspaces) UpdateSettings(id string, settings model.WorkspaceSettings) error {
	f.workspace.Settings = settings
	return nil
}

type fakeUsers fixture

var _ store.Users = (*fakeUsers)(nil)

func (f *fakeUsers) Get(username string) (*model.User, error) {
	user, ok := f.users[username]
	if !ok {
		return nil, store.ErrUserNotFound
	}
	u := *user
	return &u, nil
}

func (f *fakeUsers) List() ([]model.User, error) {
	usernames := make([]string, 0, len(f.users))
	for username := range f.users {
		usernames = append(usernames, username)
	}
	sort.Strings(usernames)
	out := make([]model.User, 0, len(usernames))
	for _, username := range usernames {
		out = append(out, *f.users[username])
	}
	return out, nil
}

func (f *fakeUsers) Create(user *model.User) error {
	if _, ok := f.users[user.Username]; ok {
		return store.ErrUserExists
	}
	u := *user
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	f.users[user.Username] = &u
	return nil
}

func (f *fakeUsers) Ensure(username string) (*model.User, error) {
	if user, ok := f.users[username]; ok {
		u := *user
		return &u, nil
	}
	user := &model.User{Username: username, CreatedAt: time.Now().UTC()}
	f.users[username] = user
	u := *user
	return &u, nil
}

func (f *fakeUsers) Update(user *model.User) error {
	existing, ok := f.users[user.Username]
	if !ok {
		return store.ErrUserNotFound
	}
	existing.Email = user.Email
	existing.FullName = user.FullName
	existing.DisabledAt = user.DisabledAt
	return nil
}

func (f *fakeUsers) Delete(username string) error {
	if _, ok := f.users[username]; !ok {
		return store.ErrUserNotFound
	}
	delete(f.users, username)
	return nil
}

type fakeCredentials fixture

var _ store.UserCredentials = (*fakeCredentials)(nil)

func (f *fakeCredentials) Get(username string) (*model.UserCredential, error) {
	credential, ok := f.credentials[username]
	if !ok {
		return nil, store.ErrCredentialNotFound
	}
	c := *credential
	return &c, nil
}

func (f *fakeCredentials) Upsert(credential *model.UserCredential) error {
	c := *credential
	f.credentials[credential.Username] = &c
	return nil
}

func (f *fakeCredentials) Delete(username string) error {
	if _, ok := f.credentials[username]; !ok {
		return store.ErrCredentialNotFound
	}
	delete(f.credentials, username)
	return nil
}

type fakeMemberships fixture

var _ store.Memberships = (*fakeMemberships)(nil)

func (f *fakeMemberships) GetWorkspaceMembership(workspaceID, username string) (*model.WorkspaceMembership, error) {
	role, ok := f.wsMembers[username]
	if !ok {
		return nil, store.ErrMembershipNotFound
	}
	return &model.WorkspaceMembership{WorkspaceID: workspaceID, Username: username, WorkspaceRole: role}, nil
}

func (f *fakeMemberships) ListWorkspaceMemberships(workspaceID string) ([]model.WorkspaceMembership, error) {
	usernames := make([]string, 0, len(f.wsMembers))
	for username := range f.wsMembers {
		usernames = append(usernames, username)
	}
	sort.Strings(usernames)
	out := make([]model.WorkspaceMembership, 0, len(usernames))
	for _, username := range usernames {
		out = append(out, model.WorkspaceMembership{
			WorkspaceID:   workspaceID,
			Username:      username,
			WorkspaceRole: f.wsMembers[username],
		})
	}
	return out, nil
}

func (f *fakeMemberships) UpsertWorkspaceMembership(workspaceID, username string, role model.WorkspaceRole) (*model.WorkspaceMembership, error) {
	f.wsMembers[username] = role
	return &model.WorkspaceMembership{WorkspaceID: workspaceID, Username: username, WorkspaceRole: role}, nil
}

func (f *fakeMemberships) RemoveWorkspaceMembership(workspaceID, username string) error {
	if _, ok := f.wsMembers[username]; !ok {
		return store.ErrMembershipNotFound
	}
	delete(f.wsMembers, username)
	return nil
}

func (f *fakeMemberships) CountWorkspaceMembers(workspaceID string) (int64, error) {
	return int64(len(f.wsMembers)), nil
}

func (f *fakeMemberships) HasWorkspaceRole(workspaceID string, role model.WorkspaceRole) (bool, error) {
	for _, r := range f.wsMembers {
		if r == role {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeMemberships) UpsertProjectMembership(m *model.ProjectMembership) (*model.ProjectMembership, error) {
	for i := range f.projMembers {
		existing := &f.projMembers[i]
		if existing.ProjectID == m.ProjectID && existing.SubjectType == m.SubjectType && existing.SubjectID == m.SubjectID {
			existing.ProjectRole = m.ProjectRole
			out := *existing
			return &out, nil
		}
	}
	f.projMembers = append(f.projMembers, *m)
	out := *m
	return &out, nil
}

func (f *fakeMemberships) RemoveProjectMembership(workspaceID, projectID string, subjectType model.SubjectType, subjectID string) error {
	for i := range f.projMembers {
		m := f.projMembers[i]
		if m.ProjectID == projectID && m.SubjectType == subjectType && m.SubjectID == subjectID {
			f.projMembers = append(f.projMembers[:i], f.projMembers[i+1:]...)
			return nil
		}
	}
	return store.ErrMembershipNotFound
}

func (f *fakeMemberships) ListProjectMemberships(workspaceID, projectID string) ([]model.ProjectMembership, error) {
	var out []model.ProjectMembership
	for _, m := range f.projMembers {
		if m.ProjectID == projectID {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SubjectID < out[j].SubjectID })
	return out, nil
}

func (f *fakeMemberships) ListProjectMembershipsForSubjects(workspaceID, username string, groupIDs []string) ([]model.ProjectMembership, error) {
	groups := map[string]struct{}{}
	for _, id := range groupIDs {
		groups[id] = struct{}{}
	}
	var out []model.ProjectMembership
	for _, m := range f.projMembers {
		switch m.SubjectType {
		case model.SubjectUser:
			if m.SubjectID == username {
				out = append(out, m)
			}
		case model.SubjectGroup:
			if _, ok := groups[m.SubjectID]; ok {
				out = append(out, m)
			}
		}
	}
	return out, nil
}

func (f *fakeMemberships) RemoveAllForSubject(workspaceID string, subjectType model.SubjectType, subjectID string) error {
	kept := f.projMembers[:0]
	for _, m := range f.projMembers {
		if m.SubjectType != subjectType || m.SubjectID != subjectID {
			kept = append(kept, m)
		}
	}
	f.projMembers = kept
	return nil
}

type fakeGroups fixture

var _ store.Groups = (*fakeGroups)(nil)

func (f *fakeGroups) Create(group *model.Group) error {
	for _, existing := range f.groups {
		if existing.Slug == group.Slug {
			return store.ErrGroupExists
		}
	}
	if group.ID == "" {
		group.ID = uuid.NewString()
	}
	if group.CreatedAt.IsZero() {
		group.CreatedAt = time.Now().UTC()
	}
	g := *group
	f.groups[group.ID] = &g
	return nil
}

func (f *fakeGroups) GetBySlug(workspaceID, slug string) (*model.Group, error) {
	for _, group := range f.groups {
		if group.Slug == slug {
			g := *group
			return &g, nil
		}
	}
	return nil, store.ErrGroupNotFound
}

func (f *fakeGroups) GetByID(workspaceID, id string) (*model.Group, error) {
	group, ok := f.groups[id]
	if !ok {
		return nil, store.ErrGroupNotFound
	}
	g := *group
	return &g, nil
}

func (f *fakeGroups) List(workspaceID string) ([]model.Group, error) {
	out := make([]model.Group, 0, len(f.groups))
	for _, group := range f.groups {
		out = append(out, *group)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slug < out[j].Slug })
	return out, nil
}

func (f *fakeGroups) Update(group *model.Group) error {
	existing, ok := f.groups[group.ID]
	if !ok {
		return store.ErrGroupNotFound
	}
	existing.Name = group.Name
	existing.Description = group.Description
	return nil
}

func (f *fakeGroups) Delete(workspaceID, id string) error {
	if _, ok := f.groups[id]; !ok {
		return store.ErrGroupNotFound
	}
	delete(f.groups, id)
	delete(f.groupMembers, id)
	for mappingID, mapping := range f.groupMappings {
		if mapping.GroupID == id {
			delete(f.groupMappings, mappingID)
		}
	}
	return nil
}

func (f *fakeGroups) ListMembers(workspaceID, groupID string) ([]model.GroupMember, error) {
	usernames := append([]string(nil), f.groupMembers[groupID]...)
	sort.Strings(usernames)
	out := make([]model.GroupMember, 0, len(usernames))
	for _, username := range usernames {
		out = append(out, model.GroupMember{WorkspaceID: workspaceID, GroupID: groupID, Username: username})
	}
	return out, nil
}

func (f *fakeGroups) AddMember(workspaceID, groupID, username string) error {
	for _, member := range f.groupMembers[groupID] {
		if member == username {
			return nil
		}
	}
	f.groupMembers[groupID] = append(f.groupMembers[groupID], username)
	return nil
}

func (f *fakeGroups) RemoveMember(workspaceID, groupID, username string) error {
	members := f.groupMembers[groupID]
	for i, member := range members {
		if member == username {
			f.groupMembers[groupID] = append(members[:i], members[i+1:]...)
			return nil
		}
	}
	return nil
}

func (f *fakeGroups) ListUserGroupIDs(workspaceID, username string) ([]string, error) {
	var out []string
	for groupID, members := range f.groupMembers {
		for _, member := range members {
			if member == username {
				out = append(out, groupID)
				break
			}
		}
	}
	return out, nil
}

func (f *fakeGroups) RemoveUserFromAllGroups(workspaceID, username string) error {
	for groupID := range f.groupMembers {
		_ = (*fakeGroups)(f).RemoveMember(workspaceID, groupID, username)
	}
	return nil
}

func (f *fakeGroups) ListMappings(workspaceID string) ([]model.GroupMapping, error) {
	out := make([]model.GroupMapping, 0, len(f.groupMappings))
	for _, mapping := range f.groupMappings {
		out = append(out, *mapping)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ExternalGroupKey < out[j].ExternalGroupKey })
	return out, nil
}

func (f *fakeGroups) CreateMapping(mapping *model.GroupMapping) error {
	for _, existing := range f.groupMappings {
		if existing.Provider == mapping.Provider && existing.ExternalGroupKey == mapping.ExternalGroupKey {
			return store.ErrGroupMappingExists
		}
	}
	if mapping.ID == "" {
		mapping.ID = uuid.NewString()
	}
	if mapping.CreatedAt.IsZero() {
		mapping.CreatedAt = time.Now().UTC()
	}
	stored := *mapping
	f.groupMappings[mapping.ID] = &stored
	return nil
}

func (f *fakeGroups) DeleteMapping(workspaceID, id string) error {
	if _, ok := f.groupMappings[id]; !ok {
		return store.ErrGroupMappingNotFound
	}
	delete(f.groupMappings, id)
	return nil
}

type fakeProjects fixture

var _ store.Projects = (*fakeProjects)(nil)

func (f *fakeProjects) Create(project *model.Project) error {
	for _, p := range f.projects {
		if p.Slug == project.Slug {
			return store.ErrProjectExists
		}
	}
	if project.ID == "" {
		project.ID = uuid.NewString()
	}
	if project.CreatedAt.IsZero() {
		project.CreatedAt = time.Now().UTC()
	}
	p := *project
	f.projects = append(f.projects, &p)
	return nil
}

func (f *fakeProjects) GetBySlug(workspaceID, slug string) (*model.Project, error) {
	for _, p := range f.projects {
		if p.Slug == slug {
			out := *p
			return &out, nil
		}
	}
	return nil, store.ErrProjectNotFound
}

func (f *fakeProjects) GetByID(id string) (*model.Project, error) {
	for _, p := range f.projects {
		if p.ID == id {
			out := *p
			return &out, nil
		}
	}
	return nil, store.ErrProjectNotFound
}

func (f *fakeProjects) List(workspaceID string) ([]model.Project, error) {
	out := make([]model.Project, 0, len(f.projects))
	for _, p := range f.projects {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slug < out[j].Slug })
	return out, nil
}

func (f *fakeProjects) Delete(id string) error {
	for i, p := range f.projects {
		if p.ID == id {
			f.projects = append(f.projects[:i], f.projects[i+1:]...)
			return nil
		}
	}
	return store.ErrProjectNotFound
}

type fakeConfigs fixture

var _ store.Configs = (*fakeConfigs)(nil)

func (f *fakeConfigs) Create(config *model.Config) error {
	for _, c := range f.configs {
		if c.ProjectID == config.ProjectID && c.Slug == config.Slug {
			return store.ErrConfigExists
		}
	}
	if config.ID == "" {
		config.ID = uuid.NewString()
	}
	if config.CreatedAt.IsZero() {
		config.CreatedAt = time.Now().UTC()
	}
	c := *config
	f.configs = append(f.configs, &c)
	return nil
}

func (f *fakeConfigs) GetByID(id string) (*model.Config, error) {
	for _, c := range f.configs {
		if c.ID == id {
			out := *c
			return &out, nil
		}
	}
	return nil, store.ErrConfigNotFound
}

func (f *fakeConfigs) GetBySlug(projectID, slug string) (*model.Config, error) {
	for _, c := range f.configs {
		if c.ProjectID == projectID && c.Slug == slug {
			out := *c
			return &out, nil
		}
	}
	return nil, store.ErrConfigNotFound
}

func (f *fakeConfigs) List(projectID string) ([]model.Config, error) {
	var out []model.Config
	for _, c := range f.configs {
		if c.ProjectID == projectID {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slug < out[j].Slug })
	return out, nil
}

func (f *fakeConfigs) Delete(id string) error {
	for i, c := range f.configs {
		if c.ID == id {
			f.configs = append(f.configs[:i], f.configs[i+1:]...)
			return nil
		}
	}
	return store.ErrConfigNotFound
}

type fakeSecrets fixture

var _ store.Secrets = (*fakeSecrets)(nil)

func (f *fakeSecrets) Upsert(secret *model.Secret) error {
	if f.secrets[secret.ConfigID] == nil {
		f.secrets[secret.ConfigID] = map[string]*model.Secret{}
	}
	s := *secret
	f.secrets[secret.ConfigID][secret.Key] = &s
	return nil
}

func (f *fakeSecrets) Get(configID, key string) (*model.Secret, error) {
	secret, ok := f.secrets[configID][key]
	if !ok {
		return nil, store.ErrSecretNotFound
	}
	s := *secret
	return &s, nil
}

func (f *fakeSecrets) Delete(configID, key string) error {
	if _, ok := f.secrets[configID][key]; !ok {
		return store.ErrSecretNotFound
	}
	delete(f.secrets[configID], key)
	return nil
}

func (f *fakeSecrets) ListByConfig(configID string) ([]model.Secret, error) {
	keys := make([]string, 0, len(f.secrets[configID]))
	for key := range f.secrets[configID] {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	out := make([]model.Secret, 0, len(keys))
	for _, key := range keys {
		out = append(out, *f.secrets[configID][key])
	}
	return out, nil
}

func (f *fakeSecrets) FindKeyAcrossConfigs(configIDs []string, key string) ([]model.Secret, error) {
	var out []model.Secret
	for _, configID := range configIDs {
		if secret, ok := f.secrets[configID][key]; ok {
			out = append(out, *secret)
		}
	}
	return out, nil
}

type fakeTokens fixture

var _ store.Tokens = (*fakeTokens)(nil)

func (f *fakeTokens) Insert(token *model.Token) error {
	if token.ID == "" {
		token.ID = uuid.NewString()
	}
	t := *token
	f.tokens[token.ID] = &t
	return nil
}

func (f *fakeTokens) GetByHash(hash string) (*model.Token, error) {
	for _, token := range f.tokens {
		if token.TokenHash == hash {
			t := *token
			return &t, nil
		}
	}
	return nil, store.ErrTokenNotFound
}

func (f *fakeTokens) GetByID(id string) (*model.Token, error) {
	token, ok := f.tokens[id]
	if !ok {
		return nil, store.ErrTokenNotFound
	}
	t := *token
	return &t, nil
}

func (f *fakeTokens) List(includeRevoked bool, now time.Time) ([]model.Token, error) {
	var out []model.Token
	for _, token := range f.tokens {
		if !includeRevoked && (token.Revoked() || token.Expired(now)) {
			continue
		}
		out = append(out, *token)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeTokens) TouchLastUsed(id string, at time.Time) error {
	token, ok := f.tokens[id]
	if !ok {
		return store.ErrTokenNotFound
	}
	token.LastUsedAt = &at
	return nil
}

func (f *fakeTokens) Revoke(id string, at time.Time) error {
	token, ok := f.tokens[id]
	if !ok {
		return store.ErrTokenNotFound
	}
	if token.RevokedAt == nil {
		token.RevokedAt = &at
	}
	return nil
}

func (f *fakeTokens) RevokeActiveSessionTokens(username string, legacyScopes model.ScopeList, at time.Time) error {
	for _, token := range f.tokens {
		if token.Type != model.TokenTypePersonal || token.Revoked() || token.Expired(at) {
			continue
		}
		if token.SubjectUser == nil || *token.SubjectUser != username {
			continue
		}
		if token.Purpose == model.TokenPurposeSession {
			token.RevokedAt = &at
		}
	}
	return nil
}

type fakeOnboarding fixture

var _ store.OnboardingStates = (*fakeOnboarding)(nil)

func (f *fakeOnboarding) Get() (*model.OnboardingState, error) {
	if f.onboarding == nil {
		return nil, store.ErrOnboardingNotFound
	}
	state := *f.onboarding
	return &state, nil
}

func (f *fakeOnboarding) Insert(state *model.OnboardingState) error {
	if f.onboarding != nil {
		return store.ErrOnboardingExists
	}
	s := *state
	f.onboarding = &s
	return nil
}

func (f *fakeOnboarding) Update(state *model.OnboardingState) error {
	s := *state
	f.onboarding = &s
	return nil
}

type fakeAuditEvents fixture

var _ store.AuditEvents = (*fakeAuditEvents)(nil)

func (f *fakeAuditEvents) Write(event *model.AuditEvent) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Ts.IsZero() {
		event.Ts = time.Now().UTC()
	}
	e := *event
	f.events = append(f.events, &e)
	return nil
}

func (f *fakeAuditEvents) Query(filter store.AuditFilter) ([]model.AuditEvent, error) {
	var out []model.AuditEvent
	for _, event := range f.events {
		if filter.ProjectID != "" && (event.ProjectID == nil || *event.ProjectID != filter.ProjectID) {
			continue
		}
		if filter.ConfigID != "" && (event.ConfigID == nil || *event.ConfigID != filter.ConfigID) {
			continue
		}
		if filter.Since != nil && event.Ts.Before(*filter.Since) {
			continue
		}
		out = append(out, *event)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Ts.After(out[j].Ts) })
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}
