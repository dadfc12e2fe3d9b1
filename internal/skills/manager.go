// Package skills implements the catalog operations: search, detail, administrative
// create and update, likes and comments.
package skills

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/terra-clan/skillhub/internal/lock"
	"github.com/terra-clan/skillhub/internal/models"
	"github.com/terra-clan/skillhub/internal/search"
	"github.com/terra-clan/skillhub/internal/storage"
)

// Permissions checked by the manager
const (
	PermSkillsWrite    = "skills:write"
	PermCommentsDelete = "comments:delete"
)

// Manager defines the catalog operations
type Manager interface {
	List(ctx context.Context, filters models.ListFilters) (*models.SkillPage, error)
	Get(ctx context.Context, id string) (*models.SkillDetail, error)
	Create(ctx context.Context, p *models.Principal, draft *models.SkillDraft) (string, error)
	Update(ctx context.Context, p *models.Principal, id string, patch *models.SkillPatch) error
	ToggleLike(ctx context.Context, p *models.Principal, skillID string) (*models.LikeResult, error)
	SubmitComment(ctx context.Context, p *models.Principal, skillID string, in CommentInput) (*models.CommentResult, error)
	DeleteComment(ctx context.Context, p *models.Principal, skillID, commentID string) (bool, error)
	ListComments(ctx context.Context, skillID string) ([]*models.Comment, error)
	ListCategories(ctx context.Context) ([]*models.Category, error)
	GetCategory(ctx context.Context, id string) (*models.Category, error)
	LikedSkills(ctx context.Context, p *models.Principal) ([]*models.Skill, error)
	Reconcile(ctx context.Context, skillID string) (bool, error)
	ReconcileAll(ctx context.Context) (int, error)
	Ping(ctx context.Context) error
}

// CategoryCache holds the category list between writes
type CategoryCache interface {
	Get(ctx context.Context) ([]*models.Category, bool, error)
	Set(ctx context.Context, categories []*models.Category) error
	Invalidate(ctx context.Context) error
}

// CommentInput is a comment submission
type CommentInput struct {
	Text   string `json:"comment_text" validate:"required,max=2000"`
	Rating int    `json:"rating" validate:"min=1,max=5"`
}

// CatalogManager implements Manager on top of a Repository
type CatalogManager struct {
	repo   storage.Repository
	locker lock.Locker
	cache  CategoryCache
}

// NewManager creates a CatalogManager. A nil locker falls back to a process-local one;
// a nil cache disables category caching.
func NewManager(repo storage.Repository, locker lock.Locker, cache CategoryCache) *CatalogManager {
	if locker == nil {
		locker = lock.NewLocalLocker()
	}
	return &CatalogManager{repo: repo, locker: locker, cache: cache}
}

// Ping checks the backing store
func (m *CatalogManager) Ping(ctx context.Context) error {
	if err := m.repo.Ping(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	return nil
}

// List searches the catalog. Category narrowing happens in the store.
func (m *CatalogManager) List(ctx context.Context, filters models.ListFilters) (*models.SkillPage, error) {
	categoryID := ""
	if filters.HasCategory() {
		categoryID = filters.CategoryID
	}

	all, err := m.repo.ListSkills(ctx, categoryID)
	if err != nil {
		return nil, fmt.Errorf("failed to list skills: %w", err)
	}
	return search.Run(all, filters), nil
}

// Get returns the joined detail view and counts one view
func (m *CatalogManager) Get(ctx context.Context, id string) (*models.SkillDetail, error) {
	skill, err := m.repo.GetSkill(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get skill: %w", err)
	}
	if skill == nil {
		return nil, notFound("skill", id)
	}

	skill.ViewsCount = m.countView(ctx, skill)

	detail := &models.SkillDetail{Skill: skill}

	if skill.CategoryID != "" {
		detail.Category, err = m.repo.GetCategory(ctx, skill.CategoryID)
		if err != nil {
			return nil, fmt.Errorf("failed to get category: %w", err)
		}
	}

	detail.Contents, err = m.repo.GetContents(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get contents: %w", err)
	}

	detail.License, err = m.repo.GetLicense(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get license: %w", err)
	}

	return detail, nil
}

// countView increments the view counter. When the atomic path fails it falls back to a
// read-modify-write; a failure there is logged and the detail is still served.
func (m *CatalogManager) countView(ctx context.Context, skill *models.Skill) int {
	views, err := m.repo.IncrementViews(ctx, skill.ID)
	if err == nil {
		return views
	}
	slog.Warn("atomic view increment failed, falling back", "skill_id", skill.ID, "error", err)

	views = skill.ViewsCount + 1
	if err := m.repo.SetViews(ctx, skill.ID, views); err != nil {
		slog.Warn("failed to update view count", "skill_id", skill.ID, "error", err)
		return skill.ViewsCount
	}
	return views
}

// Create stores a new skill submitted by an administrator and returns its id
func (m *CatalogManager) Create(ctx context.Context, p *models.Principal, draft *models.SkillDraft) (string, error) {
	if err := authorize(p, PermSkillsWrite); err != nil {
		return "", err
	}
	if strings.TrimSpace(draft.TitleKo) == "" && strings.TrimSpace(draft.TitleEn) == "" {
		return "", invalid("title", "is required")
	}

	blocks := draft.Blocks()
	for i := range blocks {
		if blocks[i].Type == "" {
			blocks[i].Type = models.ContentWhatIs
		}
		if err := validContentType(blocks[i].Type); err != nil {
			return "", err
		}
	}

	categoryID, err := m.resolveCategory(ctx, draft.CategoryID,
		models.LocalizedText{Ko: draft.CategoryNameKo, En: draft.CategoryNameEn})
	if err != nil {
		return "", err
	}

	derived := DeriveDownload(draft.URL)
	draft.DownloadURL = derived.DownloadURL
	draft.LicenseType = derived.LicenseType

	skill := &models.Skill{
		Title:       models.LocalizedText{Ko: draft.TitleKo, En: draft.TitleEn},
		Subtitle:    models.LocalizedText{Ko: draft.SubTitleKo, En: draft.SubTitleEn},
		CategoryID:  categoryID,
		Icon:        draft.Icon,
		Tags:        []string(draft.Tags),
		DownloadURL: draft.DownloadURL,
		Repository:  strings.TrimSpace(draft.URL),
	}
	if skill.Tags == nil {
		skill.Tags = []string{}
	}

	if err := m.repo.CreateSkill(ctx, skill); err != nil {
		return "", fmt.Errorf("failed to create skill: %w", err)
	}

	for _, block := range blocks {
		content := &models.Content{SkillID: skill.ID, Type: block.Type, Text: block.Text}
		if err := m.repo.UpsertContent(ctx, content); err != nil {
			return skill.ID, fmt.Errorf("failed to store content: %w", err)
		}
	}

	if skill.Repository != "" {
		license := &models.License{SkillID: skill.ID, Type: draft.LicenseType, URL: skill.Repository}
		if err := m.repo.UpsertLicense(ctx, license); err != nil {
			return skill.ID, fmt.Errorf("failed to store license: %w", err)
		}
	}

	slog.Info("skill created", "skill_id", skill.ID, "category_id", categoryID, "user_id", p.MaskedUserID())
	return skill.ID, nil
}

// Update applies a partial update. Omitted fields keep their value, fields present with
// an empty value are cleared. A changed source URL re-derives the download link.
func (m *CatalogManager) Update(ctx context.Context, p *models.Principal, id string, patch *models.SkillPatch) error {
	if err := authorize(p, PermSkillsWrite); err != nil {
		return err
	}

	skill, err := m.repo.GetSkill(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get skill: %w", err)
	}
	if skill == nil {
		return notFound("skill", id)
	}

	if patch.IsEmpty() {
		return invalid("body", "no fields to update")
	}

	url, urlSet := patch.URL.Get()
	var derived Download
	if urlSet {
		url = strings.TrimSpace(url)
		patch.URL = models.Some(url)
		derived = DeriveDownload(url)
		patch.DownloadURL = models.Some(derived.DownloadURL)
		patch.LicenseType = models.Some(derived.LicenseType)
	}

	// Everything that can reject the request is checked before the first write
	text, hasContent := patch.ContentText.Get()
	ct := models.ContentWhatIs
	if hasContent {
		if v, ok := patch.ContentType.Get(); ok && v != "" {
			ct = v
		}
		if err := validContentType(ct); err != nil {
			return err
		}
	}

	updated := *skill
	patch.Apply(&updated)
	if updated.Title.IsZero() {
		return invalid("title", "cannot clear both titles")
	}

	if err := m.applyCategory(ctx, &updated, patch); err != nil {
		return err
	}

	if err := m.repo.UpdateSkill(ctx, &updated); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return notFound("skill", id)
		}
		return fmt.Errorf("failed to update skill: %w", err)
	}

	if hasContent {
		if err := m.repo.UpsertContent(ctx, &models.Content{SkillID: id, Type: ct, Text: text}); err != nil {
			return fmt.Errorf("failed to store content: %w", err)
		}
	}

	if urlSet {
		license := &models.License{SkillID: id, Type: derived.LicenseType, URL: url}
		if err := m.repo.UpsertLicense(ctx, license); err != nil {
			return fmt.Errorf("failed to store license: %w", err)
		}
	}

	slog.Info("skill updated", "skill_id", id, "user_id", p.MaskedUserID())
	return nil
}

// applyCategory resolves the category fields of a patch onto the skill
func (m *CatalogManager) applyCategory(ctx context.Context, skill *models.Skill, patch *models.SkillPatch) error {
	id, idSet := patch.CategoryID.Get()
	name := models.LocalizedText{Ko: patch.CategoryNameKo.Value, En: patch.CategoryNameEn.Value}

	if !idSet && name.IsZero() {
		return nil
	}
	if idSet && id == "" && name.IsZero() {
		skill.CategoryID = ""
		skill.Categories = nil
		return nil
	}

	resolved, err := m.resolveCategory(ctx, id, name)
	if err != nil {
		return err
	}
	if resolved != skill.CategoryID {
		skill.CategoryID = resolved
		skill.Categories = nil
	}
	return nil
}

// resolveCategory attaches to an existing category by id, or finds or creates one by name
func (m *CatalogManager) resolveCategory(ctx context.Context, id string, name models.LocalizedText) (string, error) {
	id = strings.TrimSpace(id)
	if id != "" {
		c, err := m.repo.GetCategory(ctx, id)
		if err != nil {
			return "", fmt.Errorf("failed to get category: %w", err)
		}
		if c == nil {
			return "", notFound("category", id)
		}
		return c.ID, nil
	}

	name = models.LocalizedText{Ko: strings.TrimSpace(name.Ko), En: strings.TrimSpace(name.En)}
	if name.IsZero() {
		return "", nil
	}

	existing, err := m.repo.FindCategoryByName(ctx, name)
	if err != nil {
		return "", fmt.Errorf("failed to find category: %w", err)
	}
	if existing != nil {
		return existing.ID, nil
	}

	c := &models.Category{Name: name}
	if err := m.repo.CreateCategory(ctx, c); err != nil {
		return "", fmt.Errorf("failed to create category: %w", err)
	}
	m.invalidateCategories(ctx)

	slog.Info("category created", "category_id", c.ID, "name_en", name.En)
	return c.ID, nil
}

// ToggleLike flips the caller's like and recounts the skill's likes
func (m *CatalogManager) ToggleLike(ctx context.Context, p *models.Principal, skillID string) (*models.LikeResult, error) {
	if err := authenticate(p); err != nil {
		return nil, err
	}

	unlock, err := m.locker.Lock(ctx, lock.Key("like", p.UserID, skillID))
	if err != nil {
		return nil, fmt.Errorf("failed to lock like: %w", err)
	}
	defer unlock()

	liked, err := m.repo.ToggleLike(ctx, p.UserID, skillID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, notFound("skill", skillID)
		}
		return nil, fmt.Errorf("failed to toggle like: %w", err)
	}

	count, err := m.recountLikes(ctx, skillID)
	if err != nil {
		return nil, err
	}

	return &models.LikeResult{Liked: liked, LikesCount: count}, nil
}

func (m *CatalogManager) recountLikes(ctx context.Context, skillID string) (int, error) {
	count, err := m.repo.CountLikes(ctx, skillID)
	if err != nil {
		return 0, fmt.Errorf("failed to count likes: %w", err)
	}
	if err := m.repo.SetLikesCount(ctx, skillID, count); err != nil {
		return 0, fmt.Errorf("failed to store likes count: %w", err)
	}
	return count, nil
}

// SubmitComment inserts the caller's review of a skill or rewrites the existing one,
// then recomputes the skill's comment count and rating
func (m *CatalogManager) SubmitComment(ctx context.Context, p *models.Principal, skillID string, in CommentInput) (*models.CommentResult, error) {
	if err := authenticate(p); err != nil {
		return nil, err
	}

	in.Text = strings.TrimSpace(in.Text)
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	unlock, err := m.locker.Lock(ctx, lock.Key("comment", p.UserID, skillID))
	if err != nil {
		return nil, fmt.Errorf("failed to lock comment: %w", err)
	}
	defer unlock()

	if err := m.ensureUser(ctx, p); err != nil {
		return nil, err
	}

	comment := &models.Comment{UserID: p.UserID, SkillID: skillID, Rating: in.Rating, Text: in.Text}
	action, err := m.repo.UpsertComment(ctx, comment)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, notFound("skill", skillID)
		}
		return nil, fmt.Errorf("failed to store comment: %w", err)
	}

	stats, err := m.recomputeComments(ctx, skillID)
	if err != nil {
		return nil, err
	}

	return &models.CommentResult{
		Action:        action,
		SkillID:       skillID,
		CommentsCount: stats.Count,
		Rating:        stats.Rating,
	}, nil
}

// DeleteComment removes a comment of the skill. Only its author or a holder of
// comments:delete may remove it.
func (m *CatalogManager) DeleteComment(ctx context.Context, p *models.Principal, skillID, commentID string) (bool, error) {
	if err := authenticate(p); err != nil {
		return false, err
	}

	comment, err := m.repo.GetComment(ctx, commentID)
	if err != nil {
		return false, fmt.Errorf("failed to get comment: %w", err)
	}
	if comment == nil || comment.SkillID != skillID {
		return false, notFound("comment", commentID)
	}
	if comment.UserID != p.UserID && !p.HasPermission(PermCommentsDelete) {
		return false, ErrForbidden
	}

	unlock, err := m.locker.Lock(ctx, lock.Key("comment", comment.UserID, skillID))
	if err != nil {
		return false, fmt.Errorf("failed to lock comment: %w", err)
	}
	defer unlock()

	deleted, err := m.repo.DeleteComment(ctx, commentID)
	if err != nil {
		return false, fmt.Errorf("failed to delete comment: %w", err)
	}

	if _, err := m.recomputeComments(ctx, skillID); err != nil {
		return deleted, err
	}
	return deleted, nil
}

func (m *CatalogManager) recomputeComments(ctx context.Context, skillID string) (models.CommentStats, error) {
	ratings, err := m.repo.CommentRatings(ctx, skillID)
	if err != nil {
		return models.CommentStats{}, fmt.Errorf("failed to read ratings: %w", err)
	}
	stats := models.ComputeCommentStats(ratings)
	if err := m.repo.SetCommentStats(ctx, skillID, stats); err != nil {
		return models.CommentStats{}, fmt.Errorf("failed to store comment stats: %w", err)
	}
	return stats, nil
}

// ensureUser records the caller's profile so comments can show their author
func (m *CatalogManager) ensureUser(ctx context.Context, p *models.Principal) error {
	nickname := p.Name
	if nickname == "" {
		nickname, _, _ = strings.Cut(p.Email, "@")
	}
	stored, err := m.repo.GetUser(ctx, p.UserID)
	if err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}
	if stored != nil && stored.Email == p.Email && stored.Nickname == nickname {
		return nil
	}

	u := &models.User{ID: p.UserID, Email: p.Email, Nickname: nickname}
	if stored != nil {
		u.AvatarURL = stored.AvatarURL
	}
	if err := m.repo.UpsertUser(ctx, u); err != nil {
		return fmt.Errorf("failed to store user: %w", err)
	}
	return nil
}

// ListComments returns a skill's comments, newest first. Author emails are not exposed.
func (m *CatalogManager) ListComments(ctx context.Context, skillID string) ([]*models.Comment, error) {
	skill, err := m.repo.GetSkill(ctx, skillID)
	if err != nil {
		return nil, fmt.Errorf("failed to get skill: %w", err)
	}
	if skill == nil {
		return nil, notFound("skill", skillID)
	}

	comments, err := m.repo.ListComments(ctx, skillID)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	for _, c := range comments {
		if c.User != nil {
			c.User.Email = ""
		}
	}
	return comments, nil
}

// ListCategories returns every category, served from the cache when present
func (m *CatalogManager) ListCategories(ctx context.Context) ([]*models.Category, error) {
	if m.cache != nil {
		cached, ok, err := m.cache.Get(ctx)
		if err != nil {
			slog.Warn("category cache read failed", "error", err)
		} else if ok {
			return cached, nil
		}
	}

	categories, err := m.repo.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}

	if m.cache != nil {
		if err := m.cache.Set(ctx, categories); err != nil {
			slog.Warn("category cache write failed", "error", err)
		}
	}
	return categories, nil
}

// GetCategory returns one category
func (m *CatalogManager) GetCategory(ctx context.Context, id string) (*models.Category, error) {
	c, err := m.repo.GetCategory(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get category: %w", err)
	}
	if c == nil {
		return nil, notFound("category", id)
	}
	return c, nil
}

func (m *CatalogManager) invalidateCategories(ctx context.Context) {
	if m.cache == nil {
		return
	}
	if err := m.cache.Invalidate(ctx); err != nil {
		slog.Warn("category cache invalidation failed", "error", err)
	}
}

// LikedSkills returns the skills the caller likes, most recent first
func (m *CatalogManager) LikedSkills(ctx context.Context, p *models.Principal) ([]*models.Skill, error) {
	if err := authenticate(p); err != nil {
		return nil, err
	}

	ids, err := m.repo.ListLikedSkillIDs(ctx, p.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to list likes: %w", err)
	}

	liked := make([]*models.Skill, 0, len(ids))
	for _, id := range ids {
		s, err := m.repo.GetSkill(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to get skill: %w", err)
		}
		if s != nil {
			liked = append(liked, s)
		}
	}
	return liked, nil
}

// Reconcile recomputes a skill's derived counters from its likes and comments.
// It reports whether any stored value changed.
func (m *CatalogManager) Reconcile(ctx context.Context, skillID string) (bool, error) {
	skill, err := m.repo.GetSkill(ctx, skillID)
	if err != nil {
		return false, fmt.Errorf("failed to get skill: %w", err)
	}
	if skill == nil {
		return false, notFound("skill", skillID)
	}

	likes, err := m.repo.CountLikes(ctx, skillID)
	if err != nil {
		return false, fmt.Errorf("failed to count likes: %w", err)
	}
	ratings, err := m.repo.CommentRatings(ctx, skillID)
	if err != nil {
		return false, fmt.Errorf("failed to read ratings: %w", err)
	}
	stats := models.ComputeCommentStats(ratings)

	changed := false
	if likes != skill.LikesCount {
		if err := m.repo.SetLikesCount(ctx, skillID, likes); err != nil {
			return false, fmt.Errorf("failed to store likes count: %w", err)
		}
		changed = true
	}
	if stats.Count != skill.CommentsCount || stats.Rating != skill.Rating {
		if err := m.repo.SetCommentStats(ctx, skillID, stats); err != nil {
			return false, fmt.Errorf("failed to store comment stats: %w", err)
		}
		changed = true
	}
	return changed, nil
}

// ReconcileAll reconciles every skill and returns how many were corrected
func (m *CatalogManager) ReconcileAll(ctx context.Context) (int, error) {
	all, err := m.repo.ListSkills(ctx, "")
	if err != nil {
		return 0, fmt.Errorf("failed to list skills: %w", err)
	}

	fixed := 0
	for _, s := range all {
		if err := ctx.Err(); err != nil {
			return fixed, err
		}
		changed, err := m.Reconcile(ctx, s.ID)
		if err != nil {
			slog.Error("failed to reconcile skill", "skill_id", s.ID, "error", err)
			continue
		}
		if changed {
			fixed++
		}
	}
	return fixed, nil
}

func authenticate(p *models.Principal) error {
	if p == nil || p.UserID == "" {
		return ErrUnauthenticated
	}
	return nil
}

func authorize(p *models.Principal, perm string) error {
	if err := authenticate(p); err != nil {
		return err
	}
	if !p.HasPermission(perm) {
		return ErrForbidden
	}
	return nil
}

func validContentType(ct models.ContentType) error {
	switch ct {
	case models.ContentWhatIs, models.ContentHowToUse, models.ContentKeyFeatures:
		return nil
	}
	return invalid("content_type", "unknown content type %q", ct)
}
