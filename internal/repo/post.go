package repo

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/blog_backend/internal/models"
)

const postEntity = "Post"

func (r *GormRepo) postQuery(ctx context.Context) *gorm.DB {
	return r.DB.WithContext(ctx).Preload("Owner").Preload("Owner.Role")
}

func (r *GormRepo) ListPosts(ctx context.Context, offset, limit int) (int64, []models.Post, error) {
	var total int64
	if err := r.DB.WithContext(ctx).Model(&models.Post{}).Count(&total).Error; err != nil {
		return 0, nil, err
	}

	var items []models.Post
	if err := r.postQuery(ctx).Order("created_at DESC").Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return 0, nil, err
	}
	return total, items, nil
}

func (r *GormRepo) FindPostByID(ctx context.Context, id uuid.UUID) (*models.Post, error) {
	var post models.Post
	if err := r.postQuery(ctx).Where("id = ?", id).First(&post).Error; err != nil {
		return nil, mapErr(err, postEntity)
	}
	return &post, nil
}

// FindPostsByIDs keeps the order of ids, dropping ids that no longer exist.
func (r *GormRepo) FindPostsByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Post, error) {
	if len(ids) == 0 {
		return []models.Post{}, nil
	}
	var found []models.Post
	if err := r.postQuery(ctx).Where("id IN ?", ids).Find(&found).Error; err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]models.Post, len(found))
	for _, p := range found {
		byID[p.ID] = p
	}
	out := make([]models.Post, 0, len(found))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *GormRepo) InsertPost(ctx context.Context, p *models.Post) error {
	if err := r.DB.WithContext(ctx).Omit(clause.Associations).Create(p).Error; err != nil {
		return mapErr(err, postEntity)
	}
	return nil
}

func (r *GormRepo) UpdatePost(ctx context.Context, p *models.Post) error {
	res := r.DB.WithContext(ctx).Model(&models.Post{}).Where("id = ?", p.ID).Updates(map[string]any{
		"title": p.Title,
		"text":  p.Text,
	})
	if res.Error != nil {
		return mapErr(res.Error, postEntity)
	}
	if res.RowsAffected == 0 {
		return mapErr(gorm.ErrRecordNotFound, postEntity)
	}
	return nil
}

func (r *GormRepo) DeletePost(ctx context.Context, id uuid.UUID) error {
	res := r.DB.WithContext(ctx).Delete(&models.Post{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return mapErr(gorm.ErrRecordNotFound, postEntity)
	}
	return nil
}

// SearchPosts is a case-insensitive substring match over title and text.
func (r *GormRepo) SearchPosts(ctx context.Context, q string, offset, limit int) (int64, []models.Post, error) {
	pattern := "%" + escapeLike(strings.ToLower(q)) + "%"
	where := "LOWER(title) LIKE ? ESCAPE '\\' OR LOWER(text) LIKE ? ESCAPE '\\'"

	var total int64
	if err := r.DB.WithContext(ctx).Model(&models.Post{}).Where(where, pattern, pattern).Count(&total).Error; err != nil {
		return 0, nil, err
	}

	var items []models.Post
	if err := r.postQuery(ctx).
		Where(where, pattern, pattern).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&items).Error; err != nil {
		return 0, nil, err
	}
	return total, items, nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
