package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/Skotchmaster/blog_backend/internal/apperr"
	"github.com/Skotchmaster/blog_backend/internal/auth"
	"github.com/Skotchmaster/blog_backend/internal/events"
	"github.com/Skotchmaster/blog_backend/internal/logging"
	"github.com/Skotchmaster/blog_backend/internal/models"
	"github.com/Skotchmaster/blog_backend/internal/search"
	"github.com/Skotchmaster/blog_backend/internal/transport"
)

type PostRepo interface {
	ListPosts(ctx context.Context, offset, limit int) (int64, []models.Post, error)
	FindPostByID(ctx context.Context, id uuid.UUID) (*models.Post, error)
	FindPostsByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Post, error)
	InsertPost(ctx context.Context, p *models.Post) error
	UpdatePost(ctx context.Context, p *models.Post) error
	DeletePost(ctx context.Context, id uuid.UUID) error
	SearchPosts(ctx context.Context, q string, offset, limit int) (int64, []models.Post, error)
}

type PostService struct {
	Repo   PostRepo
	Gate   *auth.Gate
	Index  search.Index
	Events events.Publisher
}

func (s *PostService) List(ctx context.Context, offset, limit int) (int64, []models.Post, error) {
	return s.Repo.ListPosts(ctx, offset, limit)
}

func (s *PostService) Get(ctx context.Context, id uuid.UUID) (*models.Post, error) {
	return s.Repo.FindPostByID(ctx, id)
}

func (s *PostService) Create(ctx context.Context, p *auth.Principal, req transport.PostRequest) (*models.Post, error) {
	l := logging.FromContext(ctx).With("svc", "post.create", "user_id", p.UserID)

	post := &models.Post{Title: req.Title, Text: req.Text, OwnerID: p.UserID}
	if err := s.Repo.InsertPost(ctx, post); err != nil {
		l.Warn("create_post_failed", "error", err)
		return nil, err
	}
	created, err := s.Repo.FindPostByID(ctx, post.ID)
	if err != nil {
		return nil, err
	}

	s.index(ctx, created)
	s.publish(ctx, created, events.PostCreated)
	l.Info("create_post_successful", "post_id", created.ID)
	return created, nil
}

func (s *PostService) Update(ctx context.Context, p *auth.Principal, id uuid.UUID, req transport.PatchPostRequest) (*models.Post, error) {
	if req.Empty() {
		return nil, apperr.BadRequest("Nothing to update")
	}
	post, err := s.editable(ctx, p, id)
	if err != nil {
		return nil, err
	}
	if req.Title != nil {
		post.Title = *req.Title
	}
	if req.Text != nil {
		post.Text = *req.Text
	}
	if err := s.Repo.UpdatePost(ctx, post); err != nil {
		return nil, err
	}
	updated, err := s.Repo.FindPostByID(ctx, id)
	if err != nil {
		return nil, err
	}

	s.index(ctx, updated)
	s.publish(ctx, updated, events.PostUpdated)
	return updated, nil
}

func (s *PostService) Delete(ctx context.Context, p *auth.Principal, id uuid.UUID) error {
	post, err := s.editable(ctx, p, id)
	if err != nil {
		return err
	}
	if err := s.Repo.DeletePost(ctx, id); err != nil {
		return err
	}
	if s.Index != nil {
		if err := s.Index.DeletePost(ctx, id); err != nil {
			logging.FromContext(ctx).Warn("search_unindex_failed", "post_id", id, "error", err)
		}
	}
	s.publish(ctx, post, events.PostDeleted)
	return nil
}

// Search uses the full text index when one is configured and falls back to the database
// when it is absent or failing.
func (s *PostService) Search(ctx context.Context, q string, offset, limit int) (int64, []models.Post, error) {
	if s.Index != nil {
		total, ids, err := s.Index.SearchPosts(ctx, q, offset, limit)
		if err == nil {
			posts, err := s.Repo.FindPostsByIDs(ctx, ids)
			return total, posts, err
		}
		logging.FromContext(ctx).Warn("search_index_failed", "reason", "falling back to database", "error", err)
	}
	return s.Repo.SearchPosts(ctx, q, offset, limit)
}

// editable loads a post the principal may change: their own, or any post for an admin.
func (s *PostService) editable(ctx context.Context, p *auth.Principal, id uuid.UUID) (*models.Post, error) {
	post, err := s.Repo.FindPostByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if post.OwnerID == p.UserID {
		return post, nil
	}
	if err := s.Gate.RequireAdmin(ctx, p); err != nil {
		return nil, err
	}
	return post, nil
}

func (s *PostService) index(ctx context.Context, post *models.Post) {
	if s.Index == nil {
		return
	}
	if err := s.Index.IndexPost(ctx, post); err != nil {
		logging.FromContext(ctx).Warn("search_index_failed", "post_id", post.ID, "error", err)
	}
}

func (s *PostService) publish(ctx context.Context, post *models.Post, typ string) {
	if s.Events == nil {
		return
	}
	ev := events.PostEvent{
		Type:    typ,
		PostID:  post.ID.String(),
		OwnerID: post.OwnerID.String(),
		Title:   post.Title,
		At:      time.Now().UTC(),
	}
	if err := s.Events.Publish(ctx, events.TopicPostEvents, ev.PostID, ev); err != nil {
		logging.FromContext(ctx).Warn("event_publish_failed", "type", typ, "error", err)
	}
}
