package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Skotchmaster/blog_backend/internal/apperr"
	"github.com/Skotchmaster/blog_backend/internal/auth"
	"github.com/Skotchmaster/blog_backend/internal/events"
	"github.com/Skotchmaster/blog_backend/internal/logging"
	"github.com/Skotchmaster/blog_backend/internal/models"
	"github.com/Skotchmaster/blog_backend/internal/transport"
)

type UserRepo interface {
	FindUserByUsername(ctx context.Context, username string) (*models.User, error)
	FindUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	ListUsers(ctx context.Context, limit int) ([]models.User, error)
	InsertUser(ctx context.Context, u *models.User) error
	UpdateUser(ctx context.Context, u *models.User) error
	DeleteUser(ctx context.Context, id uuid.UUID) error
	SetUserRole(ctx context.Context, userID, roleID uuid.UUID, at time.Time) error
	FindRoleByName(ctx context.Context, name string) (*models.Role, error)
	FindImageByName(ctx context.Context, name string) (*models.Image, error)
}

type PasswordHasher interface {
	Hash(password string) (string, error)
}

type UserService struct {
	Repo      UserRepo
	Hasher    PasswordHasher
	Authority *auth.Authority
	Events    events.Publisher
	Reserved  []string
	Now       func() time.Time
}

func (s *UserService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *UserService) reserved(username string) bool {
	for _, r := range s.Reserved {
		if strings.EqualFold(r, username) {
			return true
		}
	}
	return false
}

func (s *UserService) Register(ctx context.Context, req transport.CreateUserRequest) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "user.register", "username", req.Username)

	if s.reserved(req.Username) {
		l.Warn("register_error", "status", 400, "reason", "reserved username")
		return nil, apperr.BadRequest("Username is reserved")
	}
	if _, err := s.Repo.FindUserByUsername(ctx, req.Username); err == nil {
		l.Warn("register_error", "status", 400, "reason", "user already exist")
		return nil, apperr.Conflict("User already exists")
	} else if apperr.KindOf(err) != apperr.KindNotFound {
		return nil, err
	}

	role, err := s.Repo.FindRoleByName(ctx, models.RoleUser)
	if err != nil {
		l.Error("register_error", "status", 500, "reason", "default role missing", "error", err)
		return nil, err
	}

	digest, err := s.Hasher.Hash(req.Password)
	if err != nil {
		l.Warn("register_error", "reason", "cannot hash the password", "error", err)
		return nil, err
	}

	now := s.now()
	user := &models.User{
		Username:       req.Username,
		PasswordHash:   digest,
		RoleID:         role.ID,
		RoleAssignedAt: now,
	}
	if avatar, err := s.Repo.FindImageByName(ctx, models.DefaultAvatarName); err == nil {
		user.AvatarID = &avatar.ID
	}

	if err := s.Repo.InsertUser(ctx, user); err != nil {
		l.Warn("register_error", "reason", "cannot insert user", "error", err)
		return nil, err
	}

	created, err := s.Repo.FindUserByID(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, created, events.UserRegistered)
	l.Info("register_successful", "user_id", created.ID)
	return created, nil
}

func (s *UserService) Get(ctx context.Context, username string) (*models.User, error) {
	return s.Repo.FindUserByUsername(ctx, username)
}

func (s *UserService) List(ctx context.Context, limit int) ([]models.User, error) {
	return s.Repo.ListUsers(ctx, limit)
}

// Update changes the caller's own username and/or password. A rename returns a fresh access
// token because the subject of the current one is stale.
func (s *UserService) Update(ctx context.Context, p *auth.Principal, username string, req transport.PatchUserRequest) (*models.User, string, error) {
	l := logging.FromContext(ctx).With("svc", "user.update", "username", username)

	if req.Empty() {
		return nil, "", apperr.BadRequest("Nothing to update")
	}

	user, err := s.Repo.FindUserByUsername(ctx, username)
	if err != nil {
		return nil, "", err
	}
	if err := s.Authority.Gate().RequireSelf(p, user); err != nil {
		l.Warn("update_user_failed", "status", 403, "reason", "not own account", "user_id", p.UserID)
		return nil, "", err
	}

	renamed := false
	if req.Username != nil && *req.Username != user.Username {
		if s.reserved(*req.Username) {
			return nil, "", apperr.BadRequest("Username is reserved")
		}
		user.Username = *req.Username
		renamed = true
	}
	if req.Password != nil {
		digest, err := s.Hasher.Hash(*req.Password)
		if err != nil {
			return nil, "", err
		}
		user.PasswordHash = digest
	}

	if err := s.Repo.UpdateUser(ctx, user); err != nil {
		l.Warn("update_user_failed", "reason", "cannot update user", "error", err)
		return nil, "", err
	}

	var access string
	if renamed {
		issued, err := s.Authority.IssueAccess(user, p.Extra)
		if err != nil {
			return nil, "", err
		}
		access = issued.Token
	}

	s.publish(ctx, user, events.UserUpdated)
	l.Info("update_user_successful", "renamed", renamed)
	return user, access, nil
}

// Delete revokes the token used for the request and then removes the caller's own account.
// Once the revocation is stored the removal runs to completion even if ctx is cancelled.
func (s *UserService) Delete(ctx context.Context, p *auth.Principal, username string) error {
	l := logging.FromContext(ctx).With("svc", "user.delete", "username", username)

	user, err := s.Repo.FindUserByUsername(ctx, username)
	if err != nil {
		return err
	}
	if err := s.Authority.Gate().RequireSelf(p, user); err != nil {
		l.Warn("delete_user_failed", "status", 403, "reason", "not own account", "user_id", p.UserID)
		return err
	}

	if err := s.Authority.RevokePrincipal(ctx, p); err != nil {
		l.Error("delete_user_failed", "status", 503, "reason", "cannot revoke token", "error", err)
		return err
	}

	wctx, cancel := auth.Detached(ctx)
	defer cancel()
	if err := s.Repo.DeleteUser(wctx, user.ID); err != nil {
		l.Error("delete_user_failed", "reason", "cannot delete user", "error", err)
		return err
	}

	s.publish(ctx, user, events.UserDeleted)
	l.Info("delete_user_successful")
	return nil
}

// SetRole assigns a role by name and stamps the assignment time. Tokens minted before this
// moment no longer pass admin checks.
func (s *UserService) SetRole(ctx context.Context, username, roleName string) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "user.set_role", "username", username, "role", roleName)

	user, err := s.Repo.FindUserByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	role, err := s.Repo.FindRoleByName(ctx, roleName)
	if err != nil {
		return nil, err
	}
	if err := s.Repo.SetUserRole(ctx, user.ID, role.ID, s.now()); err != nil {
		return nil, err
	}

	updated, err := s.Repo.FindUserByID(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, updated, events.UserRoleChanged)
	l.Info("set_role_successful")
	return updated, nil
}

func (s *UserService) publish(ctx context.Context, user *models.User, typ string) {
	if s.Events == nil {
		return
	}
	ev := events.UserEvent{
		Type:     typ,
		UserID:   user.ID.String(),
		Username: user.Username,
		Role:     user.Role.Name,
		At:       s.now(),
	}
	if err := s.Events.Publish(ctx, events.TopicUserEvents, ev.UserID, ev); err != nil {
		logging.FromContext(ctx).Warn("event_publish_failed", "type", typ, "error", err)
	}
}
