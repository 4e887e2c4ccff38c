package service

import (
	"github.com/google/uuid"
	"github.com/stemsi/learnhub-backend/internal/model"
)

// Actor is the authenticated caller as seen by the services.
type Actor struct {
	UserID         uuid.UUID
	Role           model.Role
	OrganizationID *uuid.UUID
}

// IsAdmin reports whether the actor is a platform administrator.
func (a *Actor) IsAdmin() bool {
	return a != nil && a.Role == model.RoleAdmin
}

// InOrganization reports whether the actor is an org admin of orgID.
func (a *Actor) InOrganization(orgID *uuid.UUID) bool {
	return a != nil && a.Role == model.RoleOrgAdmin && orgID != nil && a.OrganizationID != nil && *a.OrganizationID == *orgID
}

// CanManageCourse reports whether the actor may edit c and its content.
func (a *Actor) CanManageCourse(c *model.Course) bool {
	if a == nil || c == nil {
		return false
	}
	return a.IsAdmin() || c.InstructorID == a.UserID || a.InOrganization(c.OrganizationID)
}

// RequestMeta is request context recorded in the activity log.
type RequestMeta struct {
	IP        string
	UserAgent string
}
