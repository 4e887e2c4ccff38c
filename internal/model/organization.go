package model

import (
	"time"

	"github.com/google/uuid"
)

// Organization groups instructors and their courses.
type Organization struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description"`
	LogoURL     *string   `json:"logo_url,omitempty"`
	OwnerID     uuid.UUID `json:"owner_id"`
	MemberCount int       `json:"member_count"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// OrganizationRequest is the payload for creating or updating an organization.
type OrganizationRequest struct {
	Name        string  `json:"name" binding:"required,min=2,max=150"`
	Description string  `json:"description" binding:"max=2000"`
	LogoURL     *string `json:"logo_url" binding:"omitempty,url,max=500"`
}

// AddMemberRequest adds an existing user to an organization by email.
type AddMemberRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// OrganizationListParams filters the organization list.
type OrganizationListParams struct {
	PageQuery
	Query string `form:"q" binding:"omitempty,max=100"`
}
