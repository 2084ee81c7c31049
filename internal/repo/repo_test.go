package repo

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/blog_backend/internal/apperr"
	"github.com/Skotchmaster/blog_backend/internal/db"
	"github.com/Skotchmaster/blog_backend/internal/models"
)

type testEnv struct {
	Repo  *GormRepo
	User  *models.Role
	Admin *models.Role
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	gdb, err := db.Open(ctx, db.MemoryDSN(uuid.NewString()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close(gdb) })
	require.NoError(t, db.Migrate(ctx, gdb))

	r := New(gdb)
	user := &models.Role{Name: models.RoleUser, Description: "regular user"}
	admin := &models.Role{Name: models.RoleAdmin, Description: "administrator"}
	require.NoError(t, r.InsertRole(ctx, user))
	require.NoError(t, r.InsertRole(ctx, admin))
	return &testEnv{Repo: r, User: user, Admin: admin}
}

func (env *testEnv) addUser(t *testing.T, name string) *models.User {
	t.Helper()
	u := &models.User{Username: name, PasswordHash: "x", RoleID: env.User.ID, RoleAssignedAt: time.Now().UTC()}
	require.NoError(t, env.Repo.InsertUser(context.Background(), u))
	return u
}

func TestUsers_CRUD(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()

	u := env.addUser(t, "alex")

	got, err := env.Repo.FindUserByUsername(ctx, "alex")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.Equal(t, models.RoleUser, got.Role.Name)

	got.Username = "alexander"
	require.NoError(t, env.Repo.UpdateUser(ctx, got))

	byID, err := env.Repo.FindUserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "alexander", byID.Username)

	users, err := env.Repo.ListUsers(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, users, 1)

	require.NoError(t, env.Repo.DeleteUser(ctx, u.ID))
	_, err = env.Repo.FindUserByID(ctx, u.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.Equal(t, "User not found", apperr.DetailOf(err))
}

func TestUsers_DuplicateUsername(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	env.addUser(t, "alex")
	err := env.Repo.InsertUser(context.Background(), &models.User{Username: "alex", PasswordHash: "y", RoleID: env.User.ID})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrConflict)
	assert.Equal(t, "User already exists", apperr.DetailOf(err))
}

func TestUsers_SetRole(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()

	u := env.addUser(t, "alex")
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, env.Repo.SetUserRole(ctx, u.ID, env.Admin.ID, at))

	got, err := env.Repo.FindUserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, got.IsAdmin())
	assert.True(t, at.Equal(got.RoleAssignedAt))

	require.NoError(t, env.Repo.SetUserRole(ctx, u.ID, env.Admin.ID, at.Add(1500*time.Nanosecond)))
	got, err = env.Repo.FindUserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, at.Add(2*time.Microsecond).Equal(got.RoleAssignedAt))

	err = env.Repo.SetUserRole(ctx, uuid.New(), env.Admin.ID, at)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestUsers_DeleteCascadesPosts(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()

	u := env.addUser(t, "alex")
	p := &models.Post{Title: "hello", Text: "first post text here", OwnerID: u.ID}
	require.NoError(t, env.Repo.InsertPost(ctx, p))

	require.NoError(t, env.Repo.DeleteUser(ctx, u.ID))
	_, err := env.Repo.FindPostByID(ctx, p.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestRoles(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()

	err := env.Repo.InsertRole(ctx, &models.Role{Name: models.RoleAdmin})
	assert.ErrorIs(t, err, apperr.ErrConflict)
	assert.Equal(t, "Role already exists", apperr.DetailOf(err))

	editor := &models.Role{Name: "editor", Description: "edits posts"}
	require.NoError(t, env.Repo.InsertRole(ctx, editor))

	editor.Description = "edits everything"
	require.NoError(t, env.Repo.UpdateRole(ctx, editor))

	roles, err := env.Repo.ListRoles(ctx)
	require.NoError(t, err)
	assert.Len(t, roles, 3)

	env.addUser(t, "alex")
	err = env.Repo.DeleteRole(ctx, env.User.ID)
	assert.ErrorIs(t, err, apperr.ErrConflict)

	require.NoError(t, env.Repo.DeleteRole(ctx, editor.ID))
	_, err = env.Repo.FindRoleByName(ctx, "editor")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.Equal(t, "Role not found", apperr.DetailOf(err))
}

func TestPosts(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()

	u := env.addUser(t, "alex")
	first := &models.Post{Title: "Go tips", Text: "use 100% of the context", OwnerID: u.ID}
	second := &models.Post{Title: "Cooking", Text: "how to boil an egg quickly", OwnerID: u.ID}
	require.NoError(t, env.Repo.InsertPost(ctx, first))
	require.NoError(t, env.Repo.InsertPost(ctx, second))

	err := env.Repo.InsertPost(ctx, &models.Post{Title: "Go tips", Text: "duplicate title text", OwnerID: u.ID})
	assert.ErrorIs(t, err, apperr.ErrConflict)

	total, items, err := env.Repo.ListPosts(ctx, 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, items, 2)
	assert.Equal(t, "alex", items[0].Owner.Username)

	total, found, err := env.Repo.SearchPosts(ctx, "GO", 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, found, 1)
	assert.Equal(t, first.ID, found[0].ID)

	total, _, err = env.Repo.SearchPosts(ctx, "100%", 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)

	ordered, err := env.Repo.FindPostsByIDs(ctx, []uuid.UUID{second.ID, uuid.New(), first.ID})
	require.NoError(t, err)
	require.Len(t, ordered, 2)
	assert.Equal(t, second.ID, ordered[0].ID)
	assert.Equal(t, first.ID, ordered[1].ID)

	first.Text = "updated text for the post"
	require.NoError(t, env.Repo.UpdatePost(ctx, first))
	got, err := env.Repo.FindPostByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "updated text for the post", got.Text)

	require.NoError(t, env.Repo.DeletePost(ctx, first.ID))
	assert.ErrorIs(t, env.Repo.DeletePost(ctx, first.ID), apperr.ErrNotFound)
}

func TestImages(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()

	img := &models.Image{Name: models.DefaultAvatarName, Size: 10, Location: "static/_default.png", ContentType: "image/png"}
	require.NoError(t, env.Repo.InsertImage(ctx, img))

	got, err := env.Repo.FindImageByName(ctx, models.DefaultAvatarName)
	require.NoError(t, err)
	assert.Equal(t, img.ID, got.ID)

	u := env.addUser(t, "alex")
	require.NoError(t, env.Repo.SetUserAvatar(ctx, u.ID, img.ID))
	withAvatar, err := env.Repo.FindUserByID(ctx, u.ID)
	require.NoError(t, err)
	require.NotNil(t, withAvatar.Avatar)
	assert.Equal(t, img.Location, withAvatar.Avatar.Location)

	dup := &models.Image{Name: "other", Size: 1, Location: img.Location}
	assert.ErrorIs(t, env.Repo.InsertImage(ctx, dup), apperr.ErrConflict)

	_, err = env.Repo.FindImageByID(ctx, uuid.New())
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}
