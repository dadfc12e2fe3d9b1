package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terra-clan/skillhub/internal/models"
)

func seedSkill(t *testing.T, repo Repository, id, category string) *models.Skill {
	t.Helper()
	s := &models.Skill{
		ID:         id,
		Title:      models.LocalizedText{Ko: id, En: id},
		CategoryID: category,
		Tags:       []string{"a", "b"},
	}
	require.NoError(t, repo.CreateSkill(context.Background(), s))
	return s
}

func TestMemorySkillLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	created := &models.Skill{Title: models.LocalizedText{En: "New"}, CategoryID: "dev"}
	require.NoError(t, repo.CreateSkill(ctx, created))
	assert.NotEmpty(t, created.ID)
	assert.False(t, created.CreatedAt.IsZero())

	assert.Error(t, repo.CreateSkill(ctx, &models.Skill{ID: created.ID}))

	got, err := repo.GetSkill(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "New", got.Title.En)

	// Mutating a returned copy must not leak into the store
	got.Title.En = "changed"
	again, _ := repo.GetSkill(ctx, created.ID)
	assert.Equal(t, "New", again.Title.En)

	missing, err := repo.GetSkill(ctx, "missing")
	assert.NoError(t, err)
	assert.Nil(t, missing)

	err = repo.UpdateSkill(ctx, &models.Skill{ID: "missing"})
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestMemoryUpdateKeepsCounters(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	s := seedSkill(t, repo, "s1", "dev")

	_, err := repo.IncrementViews(ctx, "s1")
	require.NoError(t, err)
	require.NoError(t, repo.SetLikesCount(ctx, "s1", 4))
	require.NoError(t, repo.SetCommentStats(ctx, "s1", models.CommentStats{Count: 2, Rating: 4.5}))

	s.Title.En = "renamed"
	s.LikesCount = 100
	require.NoError(t, repo.UpdateSkill(ctx, s))

	got, _ := repo.GetSkill(ctx, "s1")
	assert.Equal(t, "renamed", got.Title.En)
	assert.Equal(t, 4, got.LikesCount)
	assert.Equal(t, 1, got.ViewsCount)
	assert.Equal(t, 2, got.CommentsCount)
	assert.Equal(t, 4.5, got.Rating)
}

func TestMemoryListSkillsByCategory(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	seedSkill(t, repo, "a", "dev")
	seedSkill(t, repo, "b", "creative")
	c := &models.Skill{ID: "c", CategoryID: "creative", Categories: []string{"dev"}}
	require.NoError(t, repo.CreateSkill(ctx, c))

	all, err := repo.ListSkills(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	dev, err := repo.ListSkills(ctx, "dev")
	require.NoError(t, err)
	var ids []string
	for _, s := range dev {
		ids = append(ids, s.ID)
	}
	assert.Equal(t, []string{"a", "c"}, ids)
}

func TestMemoryToggleLike(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	seedSkill(t, repo, "s1", "dev")

	liked, err := repo.ToggleLike(ctx, "u1", "s1")
	require.NoError(t, err)
	assert.True(t, liked)

	liked, err = repo.ToggleLike(ctx, "u1", "s1")
	require.NoError(t, err)
	assert.False(t, liked)

	_, err = repo.ToggleLike(ctx, "u2", "s1")
	require.NoError(t, err)
	n, _ := repo.CountLikes(ctx, "s1")
	assert.Equal(t, 1, n)

	ids, _ := repo.ListLikedSkillIDs(ctx, "u2")
	assert.Equal(t, []string{"s1"}, ids)

	_, err = repo.ToggleLike(ctx, "u1", "missing")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestMemoryUpsertComment(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	seedSkill(t, repo, "s1", "dev")
	require.NoError(t, repo.UpsertUser(ctx, &models.User{ID: "u1", Nickname: "neo"}))

	first := &models.Comment{UserID: "u1", SkillID: "s1", Rating: 5, Text: "great"}
	action, err := repo.UpsertComment(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, models.CommentInserted, action)
	assert.NotEmpty(t, first.ID)

	second := &models.Comment{UserID: "u1", SkillID: "s1", Rating: 3, Text: "ok"}
	action, err = repo.UpsertComment(ctx, second)
	require.NoError(t, err)
	assert.Equal(t, models.CommentUpdated, action)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.CreatedAt, second.CreatedAt)

	comments, err := repo.ListComments(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.Equal(t, "ok", comments[0].Text)
	assert.Equal(t, 3, comments[0].Rating)
	require.NotNil(t, comments[0].User)
	assert.Equal(t, "neo", comments[0].User.Nickname)

	ratings, _ := repo.CommentRatings(ctx, "s1")
	assert.Equal(t, []int{3}, ratings)

	ok, err := repo.DeleteComment(ctx, first.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, _ = repo.DeleteComment(ctx, first.ID)
	assert.False(t, ok)
}

func TestMemoryContentsAndLicense(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	seedSkill(t, repo, "s1", "dev")

	require.NoError(t, repo.UpsertContent(ctx, &models.Content{SkillID: "s1", Type: models.ContentWhatIs, Text: "v1"}))
	require.NoError(t, repo.UpsertContent(ctx, &models.Content{SkillID: "s1", Type: models.ContentWhatIs, Text: "v2"}))
	require.NoError(t, repo.UpsertContent(ctx, &models.Content{SkillID: "s1", Type: models.ContentHowToUse, Text: "steps"}))

	contents, err := repo.GetContents(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, contents, 2)
	assert.Equal(t, "v2", contents[0].Text)

	lic, err := repo.GetLicense(ctx, "s1")
	require.NoError(t, err)
	assert.Nil(t, lic)

	require.NoError(t, repo.UpsertLicense(ctx, &models.License{SkillID: "s1", Type: "github", URL: "https://github.com/x/y"}))
	require.NoError(t, repo.UpsertLicense(ctx, &models.License{SkillID: "s1", URL: "https://example.com"}))
	lic, _ = repo.GetLicense(ctx, "s1")
	assert.Equal(t, "", lic.Type)
	assert.Equal(t, "https://example.com", lic.URL)
}

func TestMemoryCategories(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	c := &models.Category{Name: models.LocalizedText{Ko: "개발", En: "Dev"}}
	require.NoError(t, repo.CreateCategory(ctx, c))
	assert.NotEmpty(t, c.ID)

	found, err := repo.FindCategoryByName(ctx, models.LocalizedText{En: "Dev"})
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, c.ID, found.ID)

	found, _ = repo.FindCategoryByName(ctx, models.LocalizedText{Ko: "개발"})
	assert.NotNil(t, found)

	found, _ = repo.FindCategoryByName(ctx, models.LocalizedText{})
	assert.Nil(t, found)
}
