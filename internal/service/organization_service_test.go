package service

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/learnhub-backend/internal/model"
	"github.com/stemsi/learnhub-backend/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeOrgs struct {
	OrganizationStore
	byID map[uuid.UUID]*model.Organization
}

func (f *fakeOrgs) Create(_ context.Context, o *model.Organization) error {
	for _, existing := range f.byID {
		if existing.Slug == o.Slug {
			return repository.ErrDuplicate
		}
	}
	o.ID = uuid.New()
	cp := *o
	f.byID[o.ID] = &cp
	return nil
}

func (f *fakeOrgs) GetByID(_ context.Context, id uuid.UUID) (*model.Organization, error) {
	o, ok := f.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (f *fakeOrgs) Delete(_ context.Context, id uuid.UUID) error {
	delete(f.byID, id)
	return nil
}

func (f *fakeUsers) PromoteToOrgAdmin(_ context.Context, id, orgID uuid.UUID) error {
	u := f.byID[id]
	u.OrganizationID = &orgID
	if u.Role != model.RoleAdmin {
		u.Role = model.RoleOrgAdmin
	}
	return nil
}

func (f *fakeUsers) SetOrganization(_ context.Context, id uuid.UUID, orgID *uuid.UUID) error {
	f.byID[id].OrganizationID = orgID
	return nil
}

func (f *fakeUsers) UpdateRole(_ context.Context, id uuid.UUID, role model.Role) error {
	f.byID[id].Role = role
	return nil
}

func (f *fakeUsers) ListByOrganization(_ context.Context, orgID uuid.UUID) ([]model.User, error) {
	var out []model.User
	for _, u := range f.byID {
		if u.OrganizationID != nil && *u.OrganizationID == orgID {
			out = append(out, *u)
		}
	}
	return out, nil
}

func newOrganizationService(env *testEnv) (*OrganizationService, *fakeOrgs) {
	orgs := &fakeOrgs{byID: map[uuid.UUID]*model.Organization{}}
	log := zerolog.Nop()
	svc := NewOrganizationService(orgs, env.users,
		NewNotificationService(env.notifyDB, env.rdb, log), NewActivityService(env.rdb, nil, log), log)
	return svc, orgs
}

func TestOrganizationService_CreateRetriesTakenSlug(t *testing.T) {
	env := newTestEnv(t)
	svc, _ := newOrganizationService(env)

	first := env.users.add(&model.User{Email: "a@example.com", Role: model.RoleInstructor})
	second := env.users.add(&model.User{Email: "b@example.com", Role: model.RoleInstructor})

	a, err := svc.Create(t.Context(), &Actor{UserID: first.ID, Role: first.Role}, model.OrganizationRequest{Name: "  Go Academy "}, RequestMeta{})
	require.NoError(t, err)
	assert.Equal(t, "Go Academy", a.Name)
	assert.Equal(t, "go-academy", a.Slug)
	assert.Equal(t, model.RoleOrgAdmin, env.users.byID[first.ID].Role)

	b, err := svc.Create(t.Context(), &Actor{UserID: second.ID, Role: second.Role}, model.OrganizationRequest{Name: "Go Academy"}, RequestMeta{})
	require.NoError(t, err)
	assert.NotEqual(t, a.Slug, b.Slug)
	assert.True(t, strings.HasPrefix(b.Slug, "go-academy-"), b.Slug)

	_, err = svc.Create(t.Context(), &Actor{UserID: first.ID, Role: model.RoleOrgAdmin, OrganizationID: &a.ID},
		model.OrganizationRequest{Name: "Second Org"}, RequestMeta{})
	assert.ErrorIs(t, err, ErrActionForbidden)
}

func TestOrganizationService_Members(t *testing.T) {
	env := newTestEnv(t)
	svc, _ := newOrganizationService(env)

	owner := env.users.add(&model.User{Email: "owner@example.com", Role: model.RoleInstructor})
	org, err := svc.Create(t.Context(), &Actor{UserID: owner.ID, Role: owner.Role}, model.OrganizationRequest{Name: "Acme"}, RequestMeta{})
	require.NoError(t, err)
	ownerActor := &Actor{UserID: owner.ID, Role: model.RoleOrgAdmin, OrganizationID: &org.ID}

	member := env.users.add(&model.User{Email: "member@example.com", Role: model.RoleOrgAdmin})
	outsider := &Actor{UserID: uuid.New(), Role: model.RoleInstructor}

	_, err = svc.AddMember(t.Context(), outsider, org.ID, member.Email, RequestMeta{})
	assert.ErrorIs(t, err, ErrForbidden)

	added, err := svc.AddMember(t.Context(), ownerActor, org.ID, "  MEMBER@example.com ", RequestMeta{})
	require.NoError(t, err)
	require.NotNil(t, added.OrganizationID)
	assert.Equal(t, org.ID, *added.OrganizationID)
	assert.Contains(t, env.notifyDB.types(member.ID), model.NotificationOrganization)

	again, err := svc.AddMember(t.Context(), ownerActor, org.ID, member.Email, RequestMeta{})
	require.NoError(t, err)
	assert.Equal(t, member.ID, again.ID)

	members, err := svc.Members(t.Context(), ownerActor, org.ID)
	require.NoError(t, err)
	assert.Len(t, members, 2)

	err = svc.RemoveMember(t.Context(), ownerActor, org.ID, owner.ID, RequestMeta{})
	assert.ErrorIs(t, err, ErrActionForbidden)

	require.NoError(t, svc.RemoveMember(t.Context(), ownerActor, org.ID, member.ID, RequestMeta{}))
	assert.Nil(t, env.users.byID[member.ID].OrganizationID)
	assert.Equal(t, model.RoleInstructor, env.users.byID[member.ID].Role)

	assert.ErrorIs(t, svc.RemoveMember(t.Context(), ownerActor, org.ID, member.ID, RequestMeta{}), ErrNotFound)
}

func TestOrganizationService_DeleteDemotesOrgAdmins(t *testing.T) {
	env := newTestEnv(t)
	svc, orgs := newOrganizationService(env)

	owner := env.users.add(&model.User{Email: "owner@example.com", Role: model.RoleInstructor})
	org, err := svc.Create(t.Context(), &Actor{UserID: owner.ID, Role: owner.Role}, model.OrganizationRequest{Name: "Acme"}, RequestMeta{})
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Delete(t.Context(), &Actor{UserID: uuid.New(), Role: model.RoleInstructor}, org.ID), ErrForbidden)

	require.NoError(t, svc.Delete(t.Context(), &Actor{UserID: owner.ID, Role: model.RoleOrgAdmin, OrganizationID: &org.ID}, org.ID))
	assert.Empty(t, orgs.byID)
	assert.Equal(t, model.RoleInstructor, env.users.byID[owner.ID].Role)
}
