package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/Skotchmaster/blog_backend/internal/apperr"
	"github.com/Skotchmaster/blog_backend/internal/logging"
	"github.com/Skotchmaster/blog_backend/internal/models"
	"github.com/Skotchmaster/blog_backend/internal/transport"
)

type RoleRepo interface {
	FindRoleByName(ctx context.Context, name string) (*models.Role, error)
	ListRoles(ctx context.Context) ([]models.Role, error)
	InsertRole(ctx context.Context, role *models.Role) error
	UpdateRole(ctx context.Context, role *models.Role) error
	DeleteRole(ctx context.Context, id uuid.UUID) error
}

type RoleService struct {
	Repo RoleRepo
}

func (s *RoleService) List(ctx context.Context) ([]models.Role, error) {
	return s.Repo.ListRoles(ctx)
}

func (s *RoleService) Get(ctx context.Context, name string) (*models.Role, error) {
	return s.Repo.FindRoleByName(ctx, name)
}

func (s *RoleService) Create(ctx context.Context, req transport.RoleRequest) (*models.Role, error) {
	role := &models.Role{Name: req.Name, Description: req.Description}
	if err := s.Repo.InsertRole(ctx, role); err != nil {
		logging.FromContext(ctx).Warn("create_role_failed", "name", req.Name, "error", err)
		return nil, err
	}
	return role, nil
}

func (s *RoleService) Update(ctx context.Context, name string, req transport.PatchRoleRequest) (*models.Role, error) {
	if req.Empty() {
		return nil, apperr.BadRequest("Nothing to update")
	}
	role, err := s.Repo.FindRoleByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if builtinRole(role.Name) && req.Name != nil && *req.Name != role.Name {
		return nil, apperr.BadRequest("Built-in roles cannot be renamed")
	}
	if req.Name != nil {
		role.Name = *req.Name
	}
	if req.Description != nil {
		role.Description = *req.Description
	}
	if err := s.Repo.UpdateRole(ctx, role); err != nil {
		return nil, err
	}
	return role, nil
}

func (s *RoleService) Delete(ctx context.Context, name string) error {
	role, err := s.Repo.FindRoleByName(ctx, name)
	if err != nil {
		return err
	}
	if builtinRole(role.Name) {
		return apperr.BadRequest("Built-in roles cannot be deleted")
	}
	return s.Repo.DeleteRole(ctx, role.ID)
}

func builtinRole(name string) bool {
	return name == models.RoleUser || name == models.RoleAdmin
}
