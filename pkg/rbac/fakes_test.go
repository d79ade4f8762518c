package rbac

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/keyfoldhq/keyfold/pkg/model"
	"github.com/keyfoldhq/keyfold/pkg/server/store"
)

// fixture is an in-memory backend implementing every store the engine needs.
type fixture struct {
	workspace          model.Workspace
	users              map[string]*model.User
	workspaceMembers   map[string]model.WorkspaceRole
	projectMemberships []model.ProjectMembership
	groupMembers       map[string][]string // groupID -> usernames
	projects           []model.Project
	onboarding         *model.OnboardingState
}

func newFixture() *fixture {
	return &fixture{
		workspace: model.Workspace{
			ID:       "ws-1",
			Slug:     model.DefaultWorkspaceSlug,
			Name:     model.DefaultWorkspaceName,
			Settings: model.DefaultWorkspaceSettings(),
		},
		users:            map[string]*model.User{},
		workspaceMembers: map[string]model.WorkspaceRole{},
		groupMembers:     map[string][]string{},
	}
}

func (f *fixture) engine() *Engine {
	var onboarding store.OnboardingStates
	if f.onboarding != nil {
		onboarding = (*fakeOnboarding)(f)
	}
	return NewEngine(
		(*fakeWorkspaces)(f),
		(*fakeUsers)(f),
		(*fakeMemberships)(f),
		(*fakeGroups)(f),
		(*fakeProjects)(f),
		onboarding,
	)
}

type fakeWorkspaces fixture

var _ store.Workspaces = (*fakeWorkspaces)(nil)

func (f *fakeWorkspaces) EnsureDefault() (*model.Workspace, error) {
	ws := f.workspace
	return &ws, nil
}

func (f *fakeWorkspaces) Create(*model.Workspace) error { return nil }

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
	var out []model.User
	for _, user := range f.users {
		out = append(out, *user)
	}
	return out, nil
}

func (f *fakeUsers) Create(user *model.User) error {
	if _, ok := f.users[user.Username]; ok {
		return store.ErrUserExists
	}
	u := *user
	f.users[user.Username] = &u
	return nil
}

func (f *fakeUsers) Ensure(username string) (*model.User, error) {
	if user, ok := f.users[username]; ok {
		u := *user
		return &u, nil
	}
	user := &model.User{Username: username, CreatedAt: time.Now()}
	f.users[username] = user
	u := *user
	return &u, nil
}

func (f *fakeUsers) Update(user *model.User) error {
	if _, ok := f.users[user.Username]; !ok {
		return store.ErrUserNotFound
	}
	u := *user
	f.users[user.Username] = &u
	return nil
}

func (f *fakeUsers) Delete(username string) error {
	if _, ok := f.users[username]; !ok {
		return store.ErrUserNotFound
	}
	delete(f.users, username)
	return nil
}

type fakeMemberships fixture

var _ store.Memberships = (*fakeMemberships)(nil)

func (f *fakeMemberships) GetWorkspaceMembership(workspaceID, username string) (*model.WorkspaceMembership, error) {
	role, ok := f.workspaceMembers[username]
	if !ok {
		return nil, store.ErrMembershipNotFound
	}
	return &model.WorkspaceMembership{WorkspaceID: workspaceID, Username: username, WorkspaceRole: role}, nil
}

func (f *fakeMemberships) ListWorkspaceMemberships(workspaceID string) ([]model.WorkspaceMembership, error) {
	usernames := make([]string, 0, len(f.workspaceMembers))
	for username := range f.workspaceMembers {
		usernames = append(usernames, username)
	}
	sort.Strings(usernames)
	out := make([]model.WorkspaceMembership, 0, len(usernames))
	for _, username := range usernames {
		out = append(out, model.WorkspaceMembership{
			WorkspaceID:   workspaceID,
			Username:      username,
			WorkspaceRole: f.workspaceMembers[username],
		})
	}
	return out, nil
}

func (f *fakeMemberships) UpsertWorkspaceMembership(workspaceID, username string, role model.WorkspaceRole) (*model.WorkspaceMembership, error) {
	f.workspaceMembers[username] = role
	return &model.WorkspaceMembership{WorkspaceID: workspaceID, Username: username, WorkspaceRole: role}, nil
}

func (f *fakeMemberships) RemoveWorkspaceMembership(workspaceID, username string) error {
	if _, ok := f.workspaceMembers[username]; !ok {
		return store.ErrMembershipNotFound
	}
	delete(f.workspaceMembers, username)
	return nil
}

func (f *fakeMemberships) CountWorkspaceMembers(workspaceID string) (int64, error) {
	return int64(len(f.workspaceMembers)), nil
}

func (f *fakeMemberships) HasWorkspaceRole(workspaceID string, role model.WorkspaceRole) (bool, error) {
	for _, r := range f.workspaceMembers {
		if r == role {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeMemberships) UpsertProjectMembership(m *model.ProjectMembership) (*model.ProjectMembership, error) {
	f.projectMemberships = append(f.projectMemberships, *m)
	return m, nil
}

func (f *fakeMemberships) RemoveProjectMembership(workspaceID, projectID string, subjectType model.SubjectType, subjectID string) error {
	return nil
}

func (f *fakeMemberships) ListProjectMemberships(workspaceID, projectID string) ([]model.ProjectMembership, error) {
	var out []model.ProjectMembership
	for _, m := range f.projectMemberships {
		if m.ProjectID == projectID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeMemberships) ListProjectMembershipsForSubjects(workspaceID, username string, groupIDs []string) ([]model.ProjectMembership, error) {
	groups := map[string]struct{}{}
	for _, id := range groupIDs {
		groups[id] = struct{}{}
	}
	var out []model.ProjectMembership
	for _, m := range f.projectMemberships {
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
	return nil
}

type fakeGroups fixture

var _ store.Groups = (*fakeGroups)(nil)

func (f *fakeGroups) Create(group *model.Group) error {
	if group.ID == "" {
		group.ID = uuid.NewString()
	}
	f.groupMembers[group.ID] = nil
	return nil
}

func (f *fakeGroups) GetBySlug(workspaceID, slug string) (*model.Group, error) {
	return nil, store.ErrGroupNotFound
}

func (f *fakeGroups) GetByID(workspaceID, id string) (*model.Group, error) {
	if _, ok := f.groupMembers[id]; !ok {
		return nil, store.ErrGroupNotFound
	}
	return &model.Group{ID: id, WorkspaceID: workspaceID}, nil
}

func (f *fakeGroups) List(workspaceID string) ([]model.Group, error) { return nil, nil }

func (f *fakeGroups) Update(group *model.Group) error { return nil }

func (f *fakeGroups) Delete(workspaceID, id string) error {
	delete(f.groupMembers, id)
	return nil
}

func (f *fakeGroups) ListMembers(workspaceID, groupID string) ([]model.GroupMember, error) {
	var out []model.GroupMember
	for _, username := range f.groupMembers[groupID] {
		out = append(out, model.GroupMember{GroupID: groupID, Username: username})
	}
	return out, nil
}

func (f *fakeGroups) AddMember(workspaceID, groupID, username string) error {
	f.groupMembers[groupID] = append(f.groupMembers[groupID], username)
	return nil
}

func (f *fakeGroups) RemoveMember(workspaceID, groupID, username string) error { return nil }

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

func (f *fakeGroups) RemoveUserFromAllGroups(workspaceID, username string) error { return nil }

func (f *fakeGroups) ListMappings(workspaceID string) ([]model.GroupMapping, error) {
	return nil, nil
}

func (f *fakeGroups) CreateMapping(mapping *model.GroupMapping) error { return nil }

func (f *fakeGroups) DeleteMapping(workspaceID, id string) error { return nil }

type fakeProjects fixture

var _ store.Projects = (*fakeProjects)(nil)

func (f *fakeProjects) Create(project *model.Project) error {
	f.projects = append(f.projects, *project)
	return nil
}

func (f *fakeProjects) GetBySlug(workspaceID, slug string) (*model.Project, error) {
	for _, p := range f.projects {
		if p.Slug == slug {
			p := p
			return &p, nil
		}
	}
	return nil, store.ErrProjectNotFound
}

func (f *fakeProjects) GetByID(id string) (*model.Project, error) {
	for _, p := range f.projects {
		if p.ID == id {
			p := p
			return &p, nil
		}
	}
	return nil, store.ErrProjectNotFound
}

func (f *fakeProjects) List(workspaceID string) ([]model.Project, error) {
	return append([]model.Project(nil), f.projects...), nil
}

func (f *fakeProjects) Delete(id string) error { return nil }

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
