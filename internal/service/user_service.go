package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/learnhub-backend/internal/config"
	"github.com/stemsi/learnhub-backend/internal/model"
	"github.com/stemsi/learnhub-backend/internal/storage"
)

// Avatar bounds; larger uploads are scaled down to fit.
const (
	avatarMaxSide = 512
)

// UserService handles profile management and admin user operations.
type UserService struct {
	cfg      *config.Config
	users    UserStore
	rdb      *redis.Client
	store    storage.Storage
	activity *ActivityService
	log      zerolog.Logger
}

// NewUserService creates a new UserService.
func NewUserService(cfg *config.Config, users UserStore, rdb *redis.Client, store storage.Storage, activity *ActivityService, log zerolog.Logger) *UserService {
	return &UserService{
		cfg:      cfg,
		users:    users,
		rdb:      rdb,
		store:    store,
		activity: activity,
		log:      log.With().Str("component", "users").Logger(),
	}
}

// Me returns the caller's own account.
func (s *UserService) Me(ctx context.Context, userID uuid.UUID) (*model.User, error) {
	return s.users.GetByID(ctx, userID)
}

// UpdateProfile changes the caller's display name.
func (s *UserService) UpdateProfile(ctx context.Context, userID uuid.UUID, req model.UpdateProfileRequest) (*model.User, error) {
	if err := s.users.UpdateProfile(ctx, userID, strings.TrimSpace(req.Name)); err != nil {
		return nil, err
	}
	return s.users.GetByID(ctx, userID)
}

// UploadAvatar resizes the image, stores it as JPEG and saves its URL.
func (s *UserService) UploadAvatar(ctx context.Context, userID uuid.UUID, r io.Reader, size int64) (*model.User, error) {
	if size > s.cfg.MaxUploadBytes {
		return nil, fmt.Errorf("%w: %d bytes (max: %d)", ErrFileTooLarge, size, s.cfg.MaxUploadBytes)
	}
	img, err := storage.ResizeToJPEG(r, avatarMaxSide, avatarMaxSide)
	if err != nil {
		if errors.Is(err, storage.ErrNotAnImage) {
			return nil, fmt.Errorf("%w: %v", ErrUnsupportedFile, err)
		}
		return nil, err
	}
	obj, err := s.store.Put(ctx, storage.NewKey("avatars", ".jpg"), img, "image/jpeg")
	if err != nil {
		return nil, fmt.Errorf("store avatar: %w", err)
	}
	if err := s.users.UpdateAvatar(ctx, userID, obj.URL); err != nil {
		return nil, err
	}
	return s.users.GetByID(ctx, userID)
}

// List returns users for the admin console.
func (s *UserService) List(ctx context.Context, p model.UserListParams) ([]model.User, int, error) {
	p.Normalize()
	return s.users.List(ctx, p)
}

// UpdateRole changes a user's role. Admins cannot change their own role.
// Leaving ORG_ADMIN keeps the organization membership.
func (s *UserService) UpdateRole(ctx context.Context, actor *Actor, userID uuid.UUID, role model.Role, meta RequestMeta) (*model.User, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", ErrActionForbidden, role)
	}
	if actor.UserID == userID {
		return nil, fmt.Errorf("%w: cannot change your own role", ErrActionForbidden)
	}
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if role == model.RoleOrgAdmin && u.OrganizationID == nil {
		return nil, fmt.Errorf("%w: ORG_ADMIN requires an organization", ErrActionForbidden)
	}
	if err := s.users.UpdateRole(ctx, userID, role); err != nil {
		return nil, err
	}
	s.activity.Record(ctx, &actor.UserID, model.ActivityUserRoleChanged, "user", userID.String(), meta,
		map[string]interface{}{"from": u.Role, "to": role})
	u.Role = role
	return u, nil
}

// UpdateStatus (de)activates an account. Deactivation also blocks tokens
// that were already issued until they would have expired.
func (s *UserService) UpdateStatus(ctx context.Context, actor *Actor, userID uuid.UUID, active bool, meta RequestMeta) (*model.User, error) {
	if actor.UserID == userID && !active {
		return nil, fmt.Errorf("%w: cannot deactivate yourself", ErrActionForbidden)
	}
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.users.UpdateStatus(ctx, userID, active); err != nil {
		return nil, err
	}

	key := config.CacheKey.DisabledUserKey(userID.String())
	if active {
		err = s.rdb.Del(ctx, key).Err()
	} else {
		err = s.rdb.Set(ctx, key, 1, s.cfg.JWTExpiry).Err()
	}
	if err != nil {
		return nil, fmt.Errorf("update token block: %w", err)
	}

	s.activity.Record(ctx, &actor.UserID, model.ActivityUserStatusChange, "user", userID.String(), meta,
		map[string]interface{}{"is_active": active})
	u.IsActive = active
	return u, nil
}
