package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPageQuery_Normalize(t *testing.T) {
	tests := []struct {
		name       string
		in         PageQuery
		wantPage   int
		wantPer    int
		wantOffset int
	}{
		{"defaults", PageQuery{}, 1, DefaultPerPage, 0},
		{"clamped", PageQuery{Page: 3, PerPage: 500}, 3, MaxPerPage, 200},
		{"custom", PageQuery{Page: 2, PerPage: 15}, 2, 15, 15},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := tt.in
			p.Normalize()
			assert.Equal(t, tt.wantPage, p.Page)
			assert.Equal(t, tt.wantPer, p.PerPage)
			assert.Equal(t, tt.wantOffset, p.Offset())
		})
	}
}

func TestPermissionsFor(t *testing.T) {
	assert.Empty(t, PermissionsFor(RoleStudent))
	assert.True(t, HasPermission(PermissionsFor(RoleInstructor), PermissionCoursesWrite))
	assert.False(t, HasPermission(PermissionsFor(RoleInstructor), PermissionCoursesModerate))
	assert.True(t, HasPermission(PermissionsFor(RoleOrgAdmin), PermissionOrganizationsMembers))
	assert.Len(t, PermissionsFor(RoleAdmin), len(AllPermissions))
	assert.False(t, Role("ROOT").Valid())
	assert.True(t, RoleOrgAdmin.Valid())
}

func TestOTP_Usable(t *testing.T) {
	now := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	consumed := now.Add(-time.Minute)

	tests := []struct {
		name string
		otp  OTP
		want bool
	}{
		{"fresh", OTP{ExpiresAt: now.Add(time.Minute)}, true},
		{"expired", OTP{ExpiresAt: now.Add(-time.Second)}, false},
		{"consumed", OTP{ExpiresAt: now.Add(time.Minute), ConsumedAt: &consumed}, false},
		{"too many attempts", OTP{ExpiresAt: now.Add(time.Minute), Attempts: 5}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.otp.Usable(now, 5))
		})
	}
}

func TestCourse_IsFree(t *testing.T) {
	assert.True(t, (&Course{PriceCents: 0}).IsFree())
	assert.False(t, (&Course{PriceCents: 1999}).IsFree())
}
