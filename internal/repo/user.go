package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/blog_backend/internal/models"
)

const userEntity = "User"

func (r *GormRepo) userQuery(ctx context.Context) *gorm.DB {
	return r.DB.WithContext(ctx).Preload("Role").Preload("Avatar")
}

func (r *GormRepo) FindUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := r.userQuery(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		return nil, mapErr(err, userEntity)
	}
	return &user, nil
}

func (r *GormRepo) FindUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.userQuery(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, mapErr(err, userEntity)
	}
	return &user, nil
}

func (r *GormRepo) ListUsers(ctx context.Context, limit int) ([]models.User, error) {
	var users []models.User
	if err := r.userQuery(ctx).Order("username ASC").Limit(limit).Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (r *GormRepo) InsertUser(ctx context.Context, u *models.User) error {
	if err := r.DB.WithContext(ctx).Omit(clause.Associations).Create(u).Error; err != nil {
		return mapErr(err, userEntity)
	}
	return nil
}

func (r *GormRepo) UpdateUser(ctx context.Context, u *models.User) error {
	res := r.DB.WithContext(ctx).Model(&models.User{}).Where("id = ?", u.ID).Updates(map[string]any{
		"username":      u.Username,
		"password_hash": u.PasswordHash,
		"updated_at":    time.Now().UTC(),
	})
	if res.Error != nil {
		return mapErr(res.Error, userEntity)
	}
	if res.RowsAffected == 0 {
		return mapErr(gorm.ErrRecordNotFound, userEntity)
	}
	return nil
}

// SetUserRole stores the assignment time rounded up to the microsecond, the precision both
// postgres and token issue times carry. Rounding up keeps a token minted in the same instant
// on the unprivileged side.
func (r *GormRepo) SetUserRole(ctx context.Context, userID, roleID uuid.UUID, at time.Time) error {
	at = at.UTC()
	if t := at.Truncate(time.Microsecond); !t.Equal(at) {
		at = t.Add(time.Microsecond)
	}
	res := r.DB.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Updates(map[string]any{
		"role_id":          roleID,
		"role_assigned_at": at,
	})
	if res.Error != nil {
		return mapErr(res.Error, userEntity)
	}
	if res.RowsAffected == 0 {
		return mapErr(gorm.ErrRecordNotFound, userEntity)
	}
	return nil
}

func (r *GormRepo) SetUserAvatar(ctx context.Context, userID, imageID uuid.UUID) error {
	res := r.DB.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Update("avatar_id", imageID)
	if res.Error != nil {
		return mapErr(res.Error, userEntity)
	}
	if res.RowsAffected == 0 {
		return mapErr(gorm.ErrRecordNotFound, userEntity)
	}
	return nil
}

// DeleteUser removes the user together with the posts they own.
func (r *GormRepo) DeleteUser(ctx context.Context, id uuid.UUID) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("owner_id = ?", id).Delete(&models.Post{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.User{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return mapErr(gorm.ErrRecordNotFound, userEntity)
		}
		return nil
	})
}
