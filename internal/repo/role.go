package repo

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/blog_backend/internal/apperr"
	"github.com/Skotchmaster/blog_backend/internal/models"
)

const roleEntity = "Role"

func (r *GormRepo) FindRoleByName(ctx context.Context, name string) (*models.Role, error) {
	var role models.Role
	if err := r.DB.WithContext(ctx).Where("name = ?", name).First(&role).Error; err != nil {
		return nil, mapErr(err, roleEntity)
	}
	return &role, nil
}

func (r *GormRepo) ListRoles(ctx context.Context) ([]models.Role, error) {
	var roles []models.Role
	if err := r.DB.WithContext(ctx).Order("name ASC").Find(&roles).Error; err != nil {
		return nil, err
	}
	return roles, nil
}

func (r *GormRepo) InsertRole(ctx context.Context, role *models.Role) error {
	if err := r.DB.WithContext(ctx).Create(role).Error; err != nil {
		return mapErr(err, roleEntity)
	}
	return nil
}

func (r *GormRepo) UpdateRole(ctx context.Context, role *models.Role) error {
	res := r.DB.WithContext(ctx).Model(&models.Role{}).Where("id = ?", role.ID).Updates(map[string]any{
		"name":        role.Name,
		"description": role.Description,
	})
	if res.Error != nil {
		return mapErr(res.Error, roleEntity)
	}
	if res.RowsAffected == 0 {
		return mapErr(gorm.ErrRecordNotFound, roleEntity)
	}
	return nil
}

// DeleteRole refuses to remove a role that is still assigned to someone.
func (r *GormRepo) DeleteRole(ctx context.Context, id uuid.UUID) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var inUse int64
		if err := tx.Model(&models.User{}).Where("role_id = ?", id).Count(&inUse).Error; err != nil {
			return err
		}
		if inUse > 0 {
			return apperr.Conflict("Role is assigned to users")
		}
		res := tx.Delete(&models.Role{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return mapErr(gorm.ErrRecordNotFound, roleEntity)
		}
		return nil
	})
}
