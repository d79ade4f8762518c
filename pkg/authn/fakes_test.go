package authn

import (
	"fmt"
	"reflect"
	"sort"
	"time"

	"github.com/keyfoldhq/keyfold/pkg/model"
	"github.com/keyfoldhq/keyfold/pkg/server/store"
)

type fakeTokens struct {
	rows map[string]*model.Token
	seq  int
}

var _ store.Tokens = (*fakeTokens)(nil)

func newFakeTokens() *fakeTokens {
	return &fakeTokens{rows: map[string]*model.Token{}}
}

func (f *fakeTokens) Insert(token *model.Token) error {
	if token.ID == "" {
		f.seq++
		token.ID = fmt.Sprintf("tok-%d", f.seq)
	}
	row := *token
	f.rows[token.ID] = &row
	return nil
}

func (f *fakeTokens) GetByHash(hash string) (*model.Token, error) {
	for _, row := range f.rows {
		if row.TokenHash == hash {
			out := *row
			return &out, nil
		}
	}
	return nil, store.ErrTokenNotFound
}

func (f *fakeTokens) GetByID(id string) (*model.Token, error) {
	row, ok := f.rows[id]
	if !ok {
		return nil, store.ErrTokenNotFound
	}
	out := *row
	return &out, nil
}

func (f *fakeTokens) List(includeRevoked bool, now time.Time) ([]model.Token, error) {
	var out []model.Token
	for _, row := range f.rows {
		if !includeRevoked && (row.Revoked() || row.Expired(now)) {
			continue
		}
		out = append(out, *row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeTokens) TouchLastUsed(id string, at time.Time) error {
	row, ok := f.rows[id]
	if !ok {
		return store.ErrTokenNotFound
	}
	row.LastUsedAt = &at
	return nil
}

func (f *fakeTokens) Revoke(id string, at time.Time) error {
	row, ok := f.rows[id]
	if !ok {
		return store.ErrTokenNotFound
	}
	if row.RevokedAt == nil {
		row.RevokedAt = &at
	}
	return nil
}

func (f *fakeTokens) RevokeActiveSessionTokens(username string, legacyScopes model.ScopeList, at time.Time) error {
	for _, row := range f.rows {
		if row.Type != model.TokenTypePersonal || row.SubjectUser == nil || *row.SubjectUser != username {
			continue
		}
		if row.RevokedAt != nil {
			continue
		}
		if row.Purpose == model.TokenPurposeSession || reflect.DeepEqual(row.Scopes, legacyScopes) {
			row.RevokedAt = &at
		}
	}
	return nil
}

type fakeCredentials struct {
	rows map[string]*model.UserCredential
}

var _ store.UserCredentials = (*fakeCredentials)(nil)

func newFakeCredentials() *fakeCredentials {
	return &fakeCredentials{rows: map[string]*model.UserCredential{}}
}

func (f *fakeCredentials) Get(username string) (*model.UserCredential, error) {
	row, ok := f.rows[username]
	if !ok {
		return nil, store.ErrCredentialNotFound
	}
	out := *row
	return &out, nil
}

func (f *fakeCredentials) Upsert(credential *model.UserCredential) error {
	row := *credential
	f.rows[credential.Username] = &row
	return nil
}

func (f *fakeCredentials) Delete(username string) error {
	if _, ok := f.rows[username]; !ok {
		return store.ErrCredentialNotFound
	}
	delete(f.rows, username)
	return nil
}

type fakeUsers struct {
	rows map[string]*model.User
}

var _ store.Users = (*fakeUsers)(nil)

func newFakeUsers() *fakeUsers {
	return &fakeUsers{rows: map[string]*model.User{}}
}

func (f *fakeUsers) Get(username string) (*model.User, error) {
	row, ok := f.rows[username]
	if !ok {
		return nil, store.ErrUserNotFound
	}
	out := *row
	return &out, nil
}

func (f *fakeUsers) List() ([]model.User, error) { return nil, nil }

func (f *fakeUsers) Create(user *model.User) error {
	if _, ok := f.rows[user.Username]; ok {
		return store.ErrUserExists
	}
	row := *user
	f.rows[user.Username] = &row
	return nil
}

func (f *fakeUsers) Ensure(username string) (*model.User, error) {
	if row, ok := f.rows[username]; ok {
		out := *row
		return &out, nil
	}
	row := &model.User{Username: username}
	f.rows[username] = row
	out := *row
	return &out, nil
}

func (f *fakeUsers) Update(user *model.User) error { return nil }

func (f *fakeUsers) Delete(username string) error {
	delete(f.rows, username)
	return nil
}

type fakeWorkspaces struct {
	workspace model.Workspace
}

var _ store.Workspaces = (*fakeWorkspaces)(nil)

func newFakeWorkspaces() *fakeWorkspaces {
	return &fakeWorkspaces{workspace: model.Workspace{
		ID:       "ws-1",
		Slug:     model.DefaultWorkspaceSlug,
		Settings: model.DefaultWorkspaceSettings(),
	}}
}

func (f *fakeWorkspaces) EnsureDefault() (*model.Workspace, error) {
	ws := f.workspace
	return &ws, nil
}

func (f *fakeWorkspaces) Create(*model.Workspace) error { return nil }

func (f *fakeWorkspaces) GetByID(string) (*model.Workspace, error) {
	ws := f.workspace
	return &ws, nil
}

func (f *fakeWorkspaces) GetBySlug(string) (*model.Workspace, error) {
	ws := f.workspace
	return &ws, nil
}

func (f *fakeWorkspaces) UpdateSettings(string, model.WorkspaceSettings) error { return nil }

type fakeMemberships struct {
	roles map[string]model.WorkspaceRole
}

var _ store.Memberships = (*fakeMemberships)(nil)

func newFakeMemberships() *fakeMemberships {
	return &fakeMemberships{roles: map[string]model.WorkspaceRole{}}
}

func (f *fakeMemberships) GetWorkspaceMembership(workspaceID, username string) (*model.WorkspaceMembership, error) {
	role, ok := f.roles[username]
	if !ok {
		return nil, store.ErrMembershipNotFound
	}
	return &model.WorkspaceMembership{WorkspaceID: workspaceID, Username: username, WorkspaceRole: role}, nil
}

func (f *fakeMemberships) ListWorkspaceMemberships(string) ([]model.WorkspaceMembership, error) {
	return nil, nil
}

func (f *fakeMemberships) UpsertWorkspaceMembership(workspaceID, username string, role model.WorkspaceRole) (*model.WorkspaceMembership, error) {
	f.roles[username] = role
	return &model.WorkspaceMembership{WorkspaceID: workspaceID, Username: username, WorkspaceRole: role}, nil
}

func (f *fakeMemberships) RemoveWorkspaceMembership(string, string) error { return nil }

func (f *fakeMemberships) CountWorkspaceMembers(string) (int64, error) {
	return int64(len(f.roles)), nil
}

func (f *fakeMemberships) HasWorkspaceRole(workspaceID string, role model.WorkspaceRole) (bool, error) {
	for _, r := range f.roles {
		if r == role {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeMemberships) UpsertProjectMembership(m *model.ProjectMembership) (*model.ProjectMembership, error) {
	return m, nil
}

func (f *fakeMemberships) RemoveProjectMembership(string, string, model.SubjectType, string) error {
	return nil
}

func (f *fakeMemberships) ListProjectMemberships(string, string) ([]model.ProjectMembership, error) {
	return nil, nil
}

func (f *fakeMemberships) ListProjectMembershipsForSubjects(string, string, []string) ([]model.ProjectMembership, error) {
	return nil, nil
}

func (f *fakeMemberships) RemoveAllForSubject(string, model.SubjectType, string) error { return nil }

type fakeOnboardingStates struct {
	row *model.OnboardingState
}

var _ store.OnboardingStates = (*fakeOnboardingStates)(nil)

func (f *fakeOnboardingStates) Get() (*model.OnboardingState, error) {
	if f.row == nil {
		return nil, store.ErrOnboardingNotFound
	}
	out := *f.row
	return &out, nil
}

func (f *fakeOnboardingStates) Insert(state *model.OnboardingState) error {
	if f.row != nil {
		return store.ErrOnboardingExists
	}
	state.ID = model.OnboardingStateID
	row := *state
	f.row = &row
	return nil
}

func (f *fakeOnboardingStates) Update(state *model.OnboardingState) error {
	state.ID = model.OnboardingStateID
	row := *state
	f.row = &row
	return nil
}
