package service

import (
	"context"
	"io"

	"github.com/google/uuid"

	"github.com/Skotchmaster/blog_backend/internal/apperr"
	"github.com/Skotchmaster/blog_backend/internal/auth"
	"github.com/Skotchmaster/blog_backend/internal/logging"
	"github.com/Skotchmaster/blog_backend/internal/models"
	"github.com/Skotchmaster/blog_backend/internal/storage"
)

type ImageRepo interface {
	InsertImage(ctx context.Context, img *models.Image) error
	FindImageByID(ctx context.Context, id uuid.UUID) (*models.Image, error)
	DeleteImage(ctx context.Context, id uuid.UUID) error
	SetUserAvatar(ctx context.Context, userID, imageID uuid.UUID) error
	FindUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type ImageStore interface {
	Save(ctx context.Context, name string, r io.Reader) (storage.Stored, error)
	Remove(location string) error
}

type ImageService struct {
	Repo     ImageRepo
	Store    ImageStore
	MaxBytes int64
}

func (s *ImageService) Get(ctx context.Context, id uuid.UUID) (*models.Image, error) {
	return s.Repo.FindImageByID(ctx, id)
}

// SetAvatar stores the upload as the caller's avatar and drops the previous one unless it
// is the shared default.
func (s *ImageService) SetAvatar(ctx context.Context, p *auth.Principal, filename string, size int64, r io.Reader) (*models.Image, error) {
	l := logging.FromContext(ctx).With("svc", "image.set_avatar", "user_id", p.UserID)

	if s.MaxBytes > 0 && size > s.MaxBytes {
		return nil, apperr.Validation("File is too large")
	}

	user, err := s.Repo.FindUserByID(ctx, p.UserID)
	if err != nil {
		return nil, err
	}

	stored, err := s.Store.Save(ctx, filename, r)
	if err != nil {
		l.Warn("set_avatar_failed", "reason", "cannot store file", "error", err)
		return nil, err
	}

	img := &models.Image{
		Name:        stored.Name,
		Size:        stored.Size,
		Location:    stored.Location,
		ContentType: stored.ContentType,
	}
	if err := s.Repo.InsertImage(ctx, img); err != nil {
		_ = s.Store.Remove(stored.Location)
		return nil, err
	}
	if err := s.Repo.SetUserAvatar(ctx, user.ID, img.ID); err != nil {
		return nil, err
	}

	if prev := user.Avatar; prev != nil && prev.Name != models.DefaultAvatarName {
		if err := s.Repo.DeleteImage(ctx, prev.ID); err != nil {
			l.Warn("old_avatar_cleanup_failed", "image_id", prev.ID, "error", err)
		} else if err := s.Store.Remove(prev.Location); err != nil {
			l.Warn("old_avatar_cleanup_failed", "image_id", prev.ID, "error", err)
		}
	}

	l.Info("set_avatar_successful", "image_id", img.ID)
	return img, nil
}
