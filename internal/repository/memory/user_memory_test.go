package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"userdir/internal/dto"
	"userdir/internal/model"
	"userdir/internal/repository"
)

func TestUserMemory_CreateThenFindByID(t *testing.T) {
	repo := NewUserMemory()
	ctx := context.Background()

	created, err := repo.Create(ctx, &model.User{Username: "ann", Email: "ann@x.com"})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.False(t, created.CreatedAt.IsZero())

	found, err := repo.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, found)
}

func TestUserMemory_CreateConflicts(t *testing.T) {
	repo := NewUserMemory()
	ctx := context.Background()

	_, err := repo.Create(ctx, &model.User{Username: "ann", Email: "ann@x.com"})
	require.NoError(t, err)

	_, err = repo.Create(ctx, &model.User{Username: "ann", Email: "other@x.com"})
	assert.ErrorIs(t, err, repository.ErrConflict)

	_, err = repo.Create(ctx, &model.User{Username: "bob", Email: "ann@x.com"})
	assert.ErrorIs(t, err, repository.ErrConflict)
}

func TestUserMemory_DeleteThenFindByID(t *testing.T) {
	repo := NewUserMemory()
	ctx := context.Background()

	created, err := repo.Create(ctx, &model.User{Username: "ann", Email: "ann@x.com"})
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, created.ID))

	_, err = repo.FindByID(ctx, created.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	err = repo.Delete(ctx, created.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestUserMemory_Update(t *testing.T) {
	repo := NewUserMemory()
	ctx := context.Background()

	created, err := repo.Create(ctx, &model.User{Username: "ann", Email: "ann@x.com"})
	require.NoError(t, err)

	t.Run("partial update", func(t *testing.T) {
		name := "Ann A."
		updated, err := repo.Update(ctx, created.ID, dto.UpdateUser{DisplayName: &name})
		require.NoError(t, err)
		assert.Equal(t, "Ann A.", updated.DisplayName)
		assert.Equal(t, "ann", updated.Username)
		assert.Equal(t, created.ID, updated.ID)
	})

	t.Run("unknown id", func(t *testing.T) {
		name := "nobody"
		_, err := repo.Update(ctx, "missing", dto.UpdateUser{DisplayName: &name})
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})

	t.Run("username conflict with another user", func(t *testing.T) {
		other, err := repo.Create(ctx, &model.User{Username: "bob", Email: "bob@x.com"})
		require.NoError(t, err)

		taken := "ann"
		_, err = repo.Update(ctx, other.ID, dto.UpdateUser{Username: &taken})
		assert.ErrorIs(t, err, repository.ErrConflict)
	})
}

func TestUserMemory_ListPagination(t *testing.T) {
	repo := NewUserMemory()
	ctx := context.Background()

	names := []string{"ann", "bob", "cay"}
	for _, n := range names {
		_, err := repo.Create(ctx, &model.User{Username: n, Email: n + "@x.com"})
		require.NoError(t, err)
	}

	page1, err := repo.List(ctx, repository.PageQuery{Limit: 2, Offset: 0})
	require.NoError(t, err)
	assert.Equal(t, 3, page1.Total)
	assert.Len(t, page1.Items, 2)

	page2, err := repo.List(ctx, repository.PageQuery{Limit: 2, Offset: 2})
	require.NoError(t, err)
	assert.Len(t, page2.Items, 1)

	// Restartable: re-issuing the first offset yields the same page.
	again, err := repo.List(ctx, repository.PageQuery{Limit: 2, Offset: 0})
	require.NoError(t, err)
	assert.Equal(t, page1.Items, again.Items)

	seen := map[string]bool{}
	for _, u := range append(page1.Items, page2.Items...) {
		seen[u.Username] = true
	}
	assert.Len(t, seen, 3)
}

func TestUserMemory_ListClampsNegativeBounds(t *testing.T) {
	repo := NewUserMemory()
	ctx := context.Background()

	_, err := repo.Create(ctx, &model.User{Username: "ann", Email: "ann@x.com"})
	require.NoError(t, err)

	res, err := repo.List(ctx, repository.PageQuery{Limit: 10, Offset: -1})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Total)
	assert.Len(t, res.Items, 1)

	res, err = repo.List(ctx, repository.PageQuery{Limit: -3, Offset: -7})
	require.NoError(t, err)
	assert.Len(t, res.Items, 1)
}

func TestUserMemory_SetAvatarPath(t *testing.T) {
	repo := NewUserMemory()
	ctx := context.Background()

	created, err := repo.Create(ctx, &model.User{Username: "ann", Email: "ann@x.com"})
	require.NoError(t, err)

	updated, err := repo.SetAvatarPath(ctx, created.ID, "avatars/a.png")
	require.NoError(t, err)
	assert.Equal(t, "avatars/a.png", updated.AvatarPath)

	_, err = repo.SetAvatarPath(ctx, "missing", "avatars/x.png")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
