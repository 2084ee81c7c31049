package repo

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/blog_backend/internal/models"
)

const imageEntity = "Image"

func (r *GormRepo) InsertImage(ctx context.Context, img *models.Image) error {
	if err := r.DB.WithContext(ctx).Create(img).Error; err != nil {
		return mapErr(err, imageEntity)
	}
	return nil
}

func (r *GormRepo) FindImageByID(ctx context.Context, id uuid.UUID) (*models.Image, error) {
	var img models.Image
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&img).Error; err != nil {
		return nil, mapErr(err, imageEntity)
	}
	return &img, nil
}

func (r *GormRepo) FindImageByName(ctx context.Context, name string) (*models.Image, error) {
	var img models.Image
	if err := r.DB.WithContext(ctx).Where("name = ?", name).Order("created_at ASC").First(&img).Error; err != nil {
		return nil, mapErr(err, imageEntity)
	}
	return &img, nil
}

func (r *GormRepo) DeleteImage(ctx context.Context, id uuid.UUID) error {
	res := r.DB.WithContext(ctx).Delete(&models.Image{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return mapErr(gorm.ErrRecordNotFound, imageEntity)
	}
	return nil
}
