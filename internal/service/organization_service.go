package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/learnhub-backend/internal/model"
	"github.com/stemsi/learnhub-backend/internal/repository"
)

const slugAttempts = 3

// OrganizationService manages organizations and their members.
type OrganizationService struct {
	orgs          OrganizationStore
	users         UserStore
	notifications *NotificationService
	activity      *ActivityService
	log           zerolog.Logger
}

// NewOrganizationService creates a new OrganizationService.
func NewOrganizationService(orgs OrganizationStore, users UserStore, notifications *NotificationService, activity *ActivityService, log zerolog.Logger) *OrganizationService {
	return &OrganizationService{
		orgs:          orgs,
		users:         users,
		notifications: notifications,
		activity:      activity,
		log:           log.With().Str("component", "organizations").Logger(),
	}
}

func (s *OrganizationService) canManage(actor *Actor, org *model.Organization) bool {
	return actor.IsAdmin() || org.OwnerID == actor.UserID || actor.InOrganization(&org.ID)
}

// Create makes a new organization owned by the caller, who becomes its
// ORG_ADMIN. Platform admins keep their role.
func (s *OrganizationService) Create(ctx context.Context, actor *Actor, req model.OrganizationRequest, meta RequestMeta) (*model.Organization, error) {
	if !actor.IsAdmin() && actor.OrganizationID != nil {
		return nil, fmt.Errorf("%w: already a member of an organization", ErrActionForbidden)
	}

	org := &model.Organization{
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		LogoURL:     req.LogoURL,
		OwnerID:     actor.UserID,
	}
	base := slugify(org.Name)
	org.Slug = base

	var err error
	for i := 0; i < slugAttempts; i++ {
		if err = s.orgs.Create(ctx, org); !errors.Is(err, repository.ErrDuplicate) {
			break
		}
		org.Slug = withSuffix(base)
	}
	if err != nil {
		return nil, fmt.Errorf("create organization: %w", err)
	}

	if err := s.users.PromoteToOrgAdmin(ctx, actor.UserID, org.ID); err != nil {
		return nil, fmt.Errorf("promote owner: %w", err)
	}
	org.MemberCount = 1

	s.activity.Record(ctx, &actor.UserID, model.ActivityOrgCreated, "organization", org.ID.String(), meta,
		map[string]interface{}{"name": org.Name})
	return org, nil
}

// Get returns one organization.
func (s *OrganizationService) Get(ctx context.Context, id uuid.UUID) (*model.Organization, error) {
	return s.orgs.GetByID(ctx, id)
}

// List returns organizations, paginated.
func (s *OrganizationService) List(ctx context.Context, p model.OrganizationListParams) ([]model.Organization, int, error) {
	p.Normalize()
	return s.orgs.List(ctx, p)
}

// Update edits name, description and logo. The slug is kept stable.
func (s *OrganizationService) Update(ctx context.Context, actor *Actor, id uuid.UUID, req model.OrganizationRequest) (*model.Organization, error) {
	org, err := s.orgs.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.canManage(actor, org) {
		return nil, ErrForbidden
	}
	org.Name = strings.TrimSpace(req.Name)
	org.Description = req.Description
	org.LogoURL = req.LogoURL
	if err := s.orgs.Update(ctx, org); err != nil {
		return nil, err
	}
	return org, nil
}

// Delete removes an organization. Only its owner or a platform admin may do
// this. Org admins fall back to INSTRUCTOR; memberships are cleared by the
// foreign key.
func (s *OrganizationService) Delete(ctx context.Context, actor *Actor, id uuid.UUID) error {
	org, err := s.orgs.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !actor.IsAdmin() && org.OwnerID != actor.UserID {
		return ErrForbidden
	}

	members, err := s.users.ListByOrganization(ctx, id)
	if err != nil {
		return err
	}
	for _, m := range members {
		if m.Role == model.RoleOrgAdmin {
			if err := s.users.UpdateRole(ctx, m.ID, model.RoleInstructor); err != nil {
				return fmt.Errorf("demote %s: %w", m.ID, err)
			}
		}
	}
	return s.orgs.Delete(ctx, id)
}

// Members lists the users of an organization. Visible to its members and admins.
func (s *OrganizationService) Members(ctx context.Context, actor *Actor, id uuid.UUID) ([]model.User, error) {
	org, err := s.orgs.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	isMember := actor.OrganizationID != nil && *actor.OrganizationID == org.ID
	if !isMember && !s.canManage(actor, org) {
		return nil, ErrForbidden
	}
	return s.users.ListByOrganization(ctx, id)
}

// AddMember attaches an existing user, found by email, to the organization.
func (s *OrganizationService) AddMember(ctx context.Context, actor *Actor, id uuid.UUID, email string, meta RequestMeta) (*model.User, error) {
	org, err := s.orgs.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.canManage(actor, org) {
		return nil, ErrForbidden
	}

	u, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, err
	}
	if u.OrganizationID != nil {
		if *u.OrganizationID == org.ID {
			return u, nil
		}
		return nil, fmt.Errorf("%w: user belongs to another organization", ErrConflict)
	}
	if err := s.users.SetOrganization(ctx, u.ID, &org.ID); err != nil {
		return nil, err
	}
	u.OrganizationID = &org.ID

	s.notifications.Notify(ctx, u.ID, model.NotificationOrganization,
		"Added to "+org.Name, "You are now a member of "+org.Name+".",
		map[string]interface{}{"organization_id": org.ID})
	s.activity.Record(ctx, &actor.UserID, model.ActivityOrgMemberAdded, "organization", org.ID.String(), meta,
		map[string]interface{}{"user_id": u.ID})
	return u, nil
}

// RemoveMember detaches a user. The owner cannot be removed, and a removed
// ORG_ADMIN becomes an INSTRUCTOR.
func (s *OrganizationService) RemoveMember(ctx context.Context, actor *Actor, id, userID uuid.UUID, meta RequestMeta) error {
	org, err := s.orgs.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !s.canManage(actor, org) {
		return ErrForbidden
	}
	if userID == org.OwnerID {
		return fmt.Errorf("%w: the owner cannot be removed", ErrActionForbidden)
	}

	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if u.OrganizationID == nil || *u.OrganizationID != org.ID {
		return ErrNotFound
	}
	if err := s.users.SetOrganization(ctx, userID, nil); err != nil {
		return err
	}
	if u.Role == model.RoleOrgAdmin {
		if err := s.users.UpdateRole(ctx, userID, model.RoleInstructor); err != nil {
			return err
		}
	}
	s.activity.Record(ctx, &actor.UserID, model.ActivityOrgMemberRemoved, "organization", org.ID.String(), meta,
		map[string]interface{}{"user_id": userID})
	return nil
}
