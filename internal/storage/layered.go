package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/terra-clan/skillhub/internal/models"
)

// LayeredRepository composes a primary store with a static fallback.
// Reads merge both, de-duplicated by id with the primary winning. Every write lands in the
// primary: the first write to a fallback-only skill copies the skill into the primary
// together with its category, contents and license.
type LayeredRepository struct {
	primary  Repository
	fallback Repository
}

// NewLayeredRepository creates a repository reading through primary then fallback
func NewLayeredRepository(primary, fallback Repository) *LayeredRepository {
	return &LayeredRepository{primary: primary, fallback: fallback}
}

// owner returns the store holding skillID for reads, defaulting to the primary
func (r *LayeredRepository) owner(ctx context.Context, skillID string) (Repository, error) {
	s, err := r.primary.GetSkill(ctx, skillID)
	if err != nil {
		return nil, err
	}
	if s != nil {
		return r.primary, nil
	}
	s, err = r.fallback.GetSkill(ctx, skillID)
	if err != nil {
		return nil, err
	}
	if s != nil {
		return r.fallback, nil
	}
	return r.primary, nil
}

// writable makes sure the primary holds skillID before a write touches it
func (r *LayeredRepository) writable(ctx context.Context, skillID string) error {
	live, err := r.primary.GetSkill(ctx, skillID)
	if err != nil || live != nil {
		return err
	}
	seed, err := r.fallback.GetSkill(ctx, skillID)
	if err != nil || seed == nil {
		return err
	}
	return r.promoteSkill(ctx, seed)
}

// promoteSkill copies a fallback skill and its child rows into the primary
func (r *LayeredRepository) promoteSkill(ctx context.Context, seed *models.Skill) error {
	if err := r.promoteCategory(ctx, seed.CategoryID); err != nil {
		return fmt.Errorf("failed to promote category: %w", err)
	}
	if err := r.primary.CreateSkill(ctx, seed.Clone()); err != nil {
		// Another replica may have promoted it first
		if live, gerr := r.primary.GetSkill(ctx, seed.ID); gerr == nil && live != nil {
			return nil
		}
		return fmt.Errorf("failed to promote skill %s: %w", seed.ID, err)
	}

	contents, err := r.fallback.GetContents(ctx, seed.ID)
	if err != nil {
		return fmt.Errorf("failed to read seed contents: %w", err)
	}
	for i := range contents {
		if err := r.primary.UpsertContent(ctx, &contents[i]); err != nil {
			return fmt.Errorf("failed to promote content: %w", err)
		}
	}

	license, err := r.fallback.GetLicense(ctx, seed.ID)
	if err != nil {
		return fmt.Errorf("failed to read seed license: %w", err)
	}
	if license != nil {
		if err := r.primary.UpsertLicense(ctx, license); err != nil {
			return fmt.Errorf("failed to promote license: %w", err)
		}
	}

	slog.Info("seed skill promoted to primary store", "skill_id", seed.ID)
	return nil
}

// Ping checks the primary store
func (r *LayeredRepository) Ping(ctx context.Context) error {
	return r.primary.Ping(ctx)
}

// Close closes both stores
func (r *LayeredRepository) Close() error {
	return errors.Join(r.primary.Close(), r.fallback.Close())
}

// ListSkills merges both stores. A failing primary degrades to the fallback alone.
func (r *LayeredRepository) ListSkills(ctx context.Context, categoryID string) ([]*models.Skill, error) {
	primary, err := r.primary.ListSkills(ctx, categoryID)
	if err != nil {
		slog.Warn("primary store unavailable, serving fallback skills", "error", err)
		primary = nil
	}
	fallback, ferr := r.fallback.ListSkills(ctx, categoryID)
	if ferr != nil {
		if err != nil {
			return nil, fmt.Errorf("failed to list skills: %w", errors.Join(err, ferr))
		}
		return nil, ferr
	}
	return mergeByID(primary, fallback, func(s *models.Skill) string { return s.ID }), nil
}

// GetSkill prefers the primary copy
func (r *LayeredRepository) GetSkill(ctx context.Context, id string) (*models.Skill, error) {
	s, err := r.primary.GetSkill(ctx, id)
	if err != nil || s != nil {
		return s, err
	}
	return r.fallback.GetSkill(ctx, id)
}

// CreateSkill writes to the primary
func (r *LayeredRepository) CreateSkill(ctx context.Context, s *models.Skill) error {
	if err := r.promoteCategory(ctx, s.CategoryID); err != nil {
		return err
	}
	return r.primary.CreateSkill(ctx, s)
}

// UpdateSkill writes to the primary
func (r *LayeredRepository) UpdateSkill(ctx context.Context, s *models.Skill) error {
	if err := r.writable(ctx, s.ID); err != nil {
		return err
	}
	if err := r.promoteCategory(ctx, s.CategoryID); err != nil {
		return err
	}
	return r.primary.UpdateSkill(ctx, s)
}

// promoteCategory copies a fallback-only category into the primary so a primary skill
// can reference it
func (r *LayeredRepository) promoteCategory(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	c, err := r.primary.GetCategory(ctx, id)
	if err != nil || c != nil {
		return err
	}
	c, err = r.fallback.GetCategory(ctx, id)
	if err != nil || c == nil {
		return err
	}
	if err := r.primary.CreateCategory(ctx, c); err != nil {
		if live, gerr := r.primary.GetCategory(ctx, id); gerr == nil && live != nil {
			return nil
		}
		return err
	}
	return nil
}

// IncrementViews writes to the primary
func (r *LayeredRepository) IncrementViews(ctx context.Context, id string) (int, error) {
	if err := r.writable(ctx, id); err != nil {
		return 0, err
	}
	return r.primary.IncrementViews(ctx, id)
}

// SetViews writes to the primary
func (r *LayeredRepository) SetViews(ctx context.Context, id string, views int) error {
	if err := r.writable(ctx, id); err != nil {
		return err
	}
	return r.primary.SetViews(ctx, id, views)
}

// SetLikesCount writes to the primary
func (r *LayeredRepository) SetLikesCount(ctx context.Context, id string, count int) error {
	if err := r.writable(ctx, id); err != nil {
		return err
	}
	return r.primary.SetLikesCount(ctx, id, count)
}

// SetCommentStats writes to the primary
func (r *LayeredRepository) SetCommentStats(ctx context.Context, id string, stats models.CommentStats) error {
	if err := r.writable(ctx, id); err != nil {
		return err
	}
	return r.primary.SetCommentStats(ctx, id, stats)
}

// GetContents reads from the store holding the skill
func (r *LayeredRepository) GetContents(ctx context.Context, skillID string) ([]models.Content, error) {
	repo, err := r.owner(ctx, skillID)
	if err != nil {
		return nil, err
	}
	return repo.GetContents(ctx, skillID)
}

// UpsertContent writes to the primary
func (r *LayeredRepository) UpsertContent(ctx context.Context, c *models.Content) error {
	if err := r.writable(ctx, c.SkillID); err != nil {
		return err
	}
	return r.primary.UpsertContent(ctx, c)
}

// GetLicense reads from the store holding the skill
func (r *LayeredRepository) GetLicense(ctx context.Context, skillID string) (*models.License, error) {
	repo, err := r.owner(ctx, skillID)
	if err != nil {
		return nil, err
	}
	return repo.GetLicense(ctx, skillID)
}

// UpsertLicense writes to the primary
func (r *LayeredRepository) UpsertLicense(ctx context.Context, l *models.License) error {
	if err := r.writable(ctx, l.SkillID); err != nil {
		return err
	}
	return r.primary.UpsertLicense(ctx, l)
}

// ListCategories merges both stores. A failing primary degrades to the fallback alone.
func (r *LayeredRepository) ListCategories(ctx context.Context) ([]*models.Category, error) {
	primary, err := r.primary.ListCategories(ctx)
	if err != nil {
		slog.Warn("primary store unavailable, serving fallback categories", "error", err)
		primary = nil
	}
	fallback, ferr := r.fallback.ListCategories(ctx)
	if ferr != nil {
		if err != nil {
			return nil, fmt.Errorf("failed to list categories: %w", errors.Join(err, ferr))
		}
		return nil, ferr
	}
	return mergeByID(primary, fallback, func(c *models.Category) string { return c.ID }), nil
}

// GetCategory prefers the primary copy
func (r *LayeredRepository) GetCategory(ctx context.Context, id string) (*models.Category, error) {
	c, err := r.primary.GetCategory(ctx, id)
	if err != nil || c != nil {
		return c, err
	}
	return r.fallback.GetCategory(ctx, id)
}

// FindCategoryByName prefers the primary copy
func (r *LayeredRepository) FindCategoryByName(ctx context.Context, name models.LocalizedText) (*models.Category, error) {
	c, err := r.primary.FindCategoryByName(ctx, name)
	if err != nil || c != nil {
		return c, err
	}
	return r.fallback.FindCategoryByName(ctx, name)
}

// CreateCategory writes to the primary
func (r *LayeredRepository) CreateCategory(ctx context.Context, c *models.Category) error {
	return r.primary.CreateCategory(ctx, c)
}

// ToggleLike writes to the primary
func (r *LayeredRepository) ToggleLike(ctx context.Context, userID, skillID string) (bool, error) {
	if err := r.writable(ctx, skillID); err != nil {
		return false, err
	}
	return r.primary.ToggleLike(ctx, userID, skillID)
}

// CountLikes reads from the store holding the skill
func (r *LayeredRepository) CountLikes(ctx context.Context, skillID string) (int, error) {
	repo, err := r.owner(ctx, skillID)
	if err != nil {
		return 0, err
	}
	return repo.CountLikes(ctx, skillID)
}

// ListLikedSkillIDs merges both stores, primary first
func (r *LayeredRepository) ListLikedSkillIDs(ctx context.Context, userID string) ([]string, error) {
	primary, err := r.primary.ListLikedSkillIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	fallback, err := r.fallback.ListLikedSkillIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	return mergeByID(primary, fallback, func(id string) string { return id }), nil
}

// UpsertComment writes to the primary
func (r *LayeredRepository) UpsertComment(ctx context.Context, c *models.Comment) (models.CommentAction, error) {
	if err := r.writable(ctx, c.SkillID); err != nil {
		return "", err
	}
	return r.primary.UpsertComment(ctx, c)
}

// GetComment prefers the primary copy
func (r *LayeredRepository) GetComment(ctx context.Context, id string) (*models.Comment, error) {
	c, err := r.primary.GetComment(ctx, id)
	if err != nil || c != nil {
		return c, err
	}
	return r.fallback.GetComment(ctx, id)
}

// DeleteComment removes the comment from whichever store holds it
func (r *LayeredRepository) DeleteComment(ctx context.Context, id string) (bool, error) {
	ok, err := r.primary.DeleteComment(ctx, id)
	if err != nil || ok {
		return ok, err
	}
	return r.fallback.DeleteComment(ctx, id)
}

// ListComments reads from the store holding the skill
func (r *LayeredRepository) ListComments(ctx context.Context, skillID string) ([]*models.Comment, error) {
	repo, err := r.owner(ctx, skillID)
	if err != nil {
		return nil, err
	}
	return repo.ListComments(ctx, skillID)
}

// CommentRatings reads from the store holding the skill
func (r *LayeredRepository) CommentRatings(ctx context.Context, skillID string) ([]int, error) {
	repo, err := r.owner(ctx, skillID)
	if err != nil {
		return nil, err
	}
	return repo.CommentRatings(ctx, skillID)
}

// UpsertUser writes to the primary
func (r *LayeredRepository) UpsertUser(ctx context.Context, u *models.User) error {
	return r.primary.UpsertUser(ctx, u)
}

// GetUser prefers the primary copy
func (r *LayeredRepository) GetUser(ctx context.Context, id string) (*models.User, error) {
	u, err := r.primary.GetUser(ctx, id)
	if err != nil || u != nil {
		return u, err
	}
	return r.fallback.GetUser(ctx, id)
}

// mergeByID appends fallback items whose id the primary does not already hold
func mergeByID[T any](primary, fallback []T, id func(T) string) []T {
	seen := make(map[string]struct{}, len(primary))
	out := make([]T, 0, len(primary)+len(fallback))
	for _, item := range primary {
		seen[id(item)] = struct{}{}
		out = append(out, item)
	}
	for _, item := range fallback {
		if _, dup := seen[id(item)]; dup {
			continue
		}
		out = append(out, item)
	}
	return out
}
