package repo

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/blog_backend/internal/apperr"
	"github.com/Skotchmaster/blog_backend/internal/db"
	"github.com/Skotchmaster/blog_backend/internal/models"
)

func newPostgresRepo(t *testing.T) *GormRepo {
	t.Helper()

	dsn := os.Getenv("BLOG_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("BLOG_TEST_DATABASE_URL is required for postgres tests")
	}

	ctx := context.Background()
	gdb, err := db.Open(ctx, dsn)
	require.NoError(t, err)
	require.NoError(t, db.Migrate(ctx, gdb))

	t.Cleanup(func() {
		truncateTables(gdb)
		_ = db.Close(gdb)
	})
	truncateTables(gdb)
	return New(gdb)
}

func truncateTables(gdb *gorm.DB) {
	gdb.Exec("TRUNCATE TABLE posts, users, images, roles CASCADE")
}

func TestPostgres_ConflictsAndCascade(t *testing.T) {
	r := newPostgresRepo(t)
	ctx := context.Background()

	role := &models.Role{Name: models.RoleUser, Description: "regular user"}
	require.NoError(t, r.InsertRole(ctx, role))
	err := r.InsertRole(ctx, &models.Role{Name: models.RoleUser})
	assert.ErrorIs(t, err, apperr.ErrConflict)

	name := "u_" + uuid.NewString()[:8]
	u := &models.User{Username: name, PasswordHash: "x", RoleID: role.ID, RoleAssignedAt: time.Now().UTC()}
	require.NoError(t, r.InsertUser(ctx, u))
	err = r.InsertUser(ctx, &models.User{Username: name, PasswordHash: "x", RoleID: role.ID, RoleAssignedAt: time.Now().UTC()})
	assert.ErrorIs(t, err, apperr.ErrConflict)

	post := &models.Post{Title: "Postgres", Text: "Rows with foreign keys", OwnerID: u.ID}
	require.NoError(t, r.InsertPost(ctx, post))

	assert.ErrorIs(t, r.DeleteRole(ctx, role.ID), apperr.ErrConflict)

	require.NoError(t, r.DeleteUser(ctx, u.ID))
	_, err = r.FindPostByID(ctx, post.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}
