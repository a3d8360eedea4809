package models

import (
	"context"
	"errors"
	"strings"
	"testing"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategories(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	id, err := store.CreateCategory(ctx, "tech")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(id, "cat-"))

	_, err = store.CreateCategory(ctx, "tech")
	assert.ErrorIs(t, err, ErrDuplicateName)

	life, err := store.CreateCategory(ctx, "life")
	require.NoError(t, err)

	t.Run("rename", func(t *testing.T) {
		require.NoError(t, store.RenameCategory(ctx, id, "technology"))
		cats, err := store.ListCategories(ctx)
		require.NoError(t, err)
		require.Len(t, cats, 2)
		// renaming bumps updated_at, so the renamed category sorts last
		assert.Equal(t, life, cats[0].ID)
		assert.Equal(t, "technology", cats[1].Name)
		assert.True(t, cats[1].UpdatedAt.After(cats[1].CreatedAt))
	})

	t.Run("rename onto an existing name", func(t *testing.T) {
		assert.ErrorIs(t, store.RenameCategory(ctx, id, "life"), ErrDuplicateName)
	})

	t.Run("rename unknown id", func(t *testing.T) {
		assert.ErrorIs(t, store.RenameCategory(ctx, "cat-missing", "whatever"), ErrNotFound)
	})

	t.Run("empty name", func(t *testing.T) {
		_, err := store.CreateCategory(ctx, "")
		var verrs validation.Errors
		require.True(t, errors.As(err, &verrs))
		assert.Contains(t, verrs, "name")
	})
}

func TestTags(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	id, err := store.CreateTag(ctx, "go")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(id, "tag-"))

	_, err = store.CreateTag(ctx, "go")
	assert.ErrorIs(t, err, ErrDuplicateName)

	// categories and tags are separate namespaces
	_, err = store.CreateCategory(ctx, "go")
	assert.NoError(t, err)

	require.NoError(t, store.RenameTag(ctx, id, "golang"))
	tags, err := store.ListTags(ctx)
	require.NoError(t, err)
	require.Len(t, tags, 1)
	assert.Equal(t, "golang", tags[0].Name)

	assert.ErrorIs(t, store.RenameTag(ctx, "tag-missing", "x"), ErrNotFound)
}

func TestStats(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	cat, _ := store.CreateCategory(ctx, "c")
	_, _ = store.CreateTag(ctx, "t1")
	_, _ = store.CreateTag(ctx, "t2")
	keep, err := store.CreateArticle(ctx, NewArticle{Title: "keep", CategoryID: cat})
	require.NoError(t, err)
	drop, err := store.CreateArticle(ctx, NewArticle{Title: "drop", CategoryID: cat})
	require.NoError(t, err)
	require.NoError(t, store.DeleteArticle(ctx, drop))

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, Stats{Articles: 1, Categories: 1, Tags: 2}, stats)
	assert.NotEmpty(t, keep)
}
