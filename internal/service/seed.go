package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Skotchmaster/blog_backend/internal/apperr"
	"github.com/Skotchmaster/blog_backend/internal/logging"
	"github.com/Skotchmaster/blog_backend/internal/models"
	"github.com/Skotchmaster/blog_backend/internal/repo"
)

const defaultAvatarFile = "_default.png"

type SeedConfig struct {
	SuperUserName     string
	SuperUserPassword string
}

type FileSizer interface {
	Size(location string) (int64, error)
}

// Seed creates the built-in roles, the default avatar row and the super user. Existing rows
// are left untouched so it is safe to run on every start.
func Seed(ctx context.Context, r *repo.GormRepo, hasher PasswordHasher, files FileSizer, cfg SeedConfig) error {
	l := logging.FromContext(ctx).With("svc", "seed")

	roles := map[string]string{
		models.RoleUser:  "Regular user",
		models.RoleAdmin: "Administrator",
	}
	for name, desc := range roles {
		if _, err := r.FindRoleByName(ctx, name); err == nil {
			continue
		} else if !errors.Is(err, apperr.ErrNotFound) {
			return fmt.Errorf("seed role %s: %w", name, err)
		}
		if err := r.InsertRole(ctx, &models.Role{Name: name, Description: desc}); err != nil && !errors.Is(err, apperr.ErrConflict) {
			return fmt.Errorf("seed role %s: %w", name, err)
		}
		l.Info("role_created", "role", name)
	}

	if _, err := r.FindImageByName(ctx, models.DefaultAvatarName); errors.Is(err, apperr.ErrNotFound) && files != nil {
		if size, err := files.Size(defaultAvatarFile); err == nil {
			img := &models.Image{Name: models.DefaultAvatarName, Size: size, Location: defaultAvatarFile, ContentType: "image/png"}
			if err := r.InsertImage(ctx, img); err != nil && !errors.Is(err, apperr.ErrConflict) {
				return fmt.Errorf("seed default avatar: %w", err)
			}
		} else {
			l.Warn("default_avatar_missing", "error", err)
		}
	}

	if cfg.SuperUserPassword == "" {
		l.Warn("super_user_skipped", "reason", "SUPER_USER_PASSWORD is empty")
		return nil
	}
	if _, err := r.FindUserByUsername(ctx, cfg.SuperUserName); err == nil {
		return nil
	} else if !errors.Is(err, apperr.ErrNotFound) {
		return fmt.Errorf("seed super user: %w", err)
	}

	admin, err := r.FindRoleByName(ctx, models.RoleAdmin)
	if err != nil {
		return fmt.Errorf("seed super user: %w", err)
	}
	digest, err := hasher.Hash(cfg.SuperUserPassword)
	if err != nil {
		return fmt.Errorf("seed super user: %w", err)
	}
	su := &models.User{
		Username:       cfg.SuperUserName,
		PasswordHash:   digest,
		RoleID:         admin.ID,
		RoleAssignedAt: time.Now().UTC(),
	}
	if avatar, err := r.FindImageByName(ctx, models.DefaultAvatarName); err == nil {
		su.AvatarID = &avatar.ID
	}
	if err := r.InsertUser(ctx, su); err != nil && !errors.Is(err, apperr.ErrConflict) {
		return fmt.Errorf("seed super user: %w", err)
	}
	l.Info("super_user_created", "username", cfg.SuperUserName)
	return nil
}
