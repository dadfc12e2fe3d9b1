package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/terra-clan/skillhub/internal/models"
)

// MemoryRepository implements Repository in process memory.
// It holds the static seed catalog and backs tests.
type MemoryRepository struct {
	mu sync.RWMutex

	skills     map[string]*models.Skill
	skillOrder []string

	categories    map[string]*models.Category
	categoryOrder []string

	contents map[string][]models.Content
	licenses map[string]*models.License
	likes    map[likeKey]*models.Like
	comments map[string]*models.Comment
	users    map[string]*models.User

	now func() time.Time
}

type likeKey struct {
	userID  string
	skillID string
}

// NewMemoryRepository creates an empty in-memory repository
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		skills:     make(map[string]*models.Skill),
		categories: make(map[string]*models.Category),
		contents:   make(map[string][]models.Content),
		licenses:   make(map[string]*models.License),
		likes:      make(map[likeKey]*models.Like),
		comments:   make(map[string]*models.Comment),
		users:      make(map[string]*models.User),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Ping always succeeds
func (r *MemoryRepository) Ping(ctx context.Context) error {
	return nil
}

// Close is a no-op
func (r *MemoryRepository) Close() error {
	return nil
}

// ListSkills returns skills in insertion order, optionally narrowed to a category
func (r *MemoryRepository) ListSkills(ctx context.Context, categoryID string) ([]*models.Skill, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*models.Skill, 0, len(r.skillOrder))
	for _, id := range r.skillOrder {
		s := r.skills[id]
		if categoryID != "" && !s.InCategory(categoryID) {
			continue
		}
		out = append(out, s.Clone())
	}
	return out, nil
}

// GetSkill retrieves a skill by ID
func (r *MemoryRepository) GetSkill(ctx context.Context, id string) (*models.Skill, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.skills[id]
	if !ok {
		return nil, nil
	}
	return s.Clone(), nil
}

// CreateSkill stores a new skill, assigning an ID when empty
func (r *MemoryRepository) CreateSkill(ctx context.Context, s *models.Skill) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	if _, exists := r.skills[s.ID]; exists {
		return fmt.Errorf("skill already exists: %s", s.ID)
	}
	now := r.now()
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	if s.UpdatedAt.IsZero() {
		s.UpdatedAt = s.CreatedAt
	}

	r.skills[s.ID] = s.Clone()
	r.skillOrder = append(r.skillOrder, s.ID)
	return nil
}

// UpdateSkill replaces the editable fields of a stored skill. Counters are kept.
func (r *MemoryRepository) UpdateSkill(ctx context.Context, s *models.Skill) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.skills[s.ID]
	if !ok {
		return fmt.Errorf("skill %s: %w", s.ID, ErrNotFound)
	}

	next := s.Clone()
	next.LikesCount = cur.LikesCount
	next.ViewsCount = cur.ViewsCount
	next.CommentsCount = cur.CommentsCount
	next.Rating = cur.Rating
	next.CreatedAt = cur.CreatedAt
	next.UpdatedAt = r.now()
	r.skills[s.ID] = next
	return nil
}

// IncrementViews adds one view and returns the new count
func (r *MemoryRepository) IncrementViews(ctx context.Context, id string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.skills[id]
	if !ok {
		return 0, fmt.Errorf("skill %s: %w", id, ErrNotFound)
	}
	s.ViewsCount++
	return s.ViewsCount, nil
}

// SetViews overwrites the view counter
func (r *MemoryRepository) SetViews(ctx context.Context, id string, views int) error {
	return r.withSkill(id, func(s *models.Skill) { s.ViewsCount = views })
}

// SetLikesCount overwrites the like counter
func (r *MemoryRepository) SetLikesCount(ctx context.Context, id string, count int) error {
	return r.withSkill(id, func(s *models.Skill) { s.LikesCount = count })
}

// SetCommentStats overwrites the comment counter and rating
func (r *MemoryRepository) SetCommentStats(ctx context.Context, id string, stats models.CommentStats) error {
	return r.withSkill(id, func(s *models.Skill) {
		s.CommentsCount = stats.Count
		s.Rating = stats.Rating
	})
}

func (r *MemoryRepository) withSkill(id string, fn func(*models.Skill)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.skills[id]
	if !ok {
		return fmt.Errorf("skill %s: %w", id, ErrNotFound)
	}
	fn(s)
	return nil
}

// GetContents returns the documentation blocks of a skill
func (r *MemoryRepository) GetContents(ctx context.Context, skillID string) ([]models.Content, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return append([]models.Content{}, r.contents[skillID]...), nil
}

// UpsertContent stores a block, replacing any block of the same type
func (r *MemoryRepository) UpsertContent(ctx context.Context, c *models.Content) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	blocks := r.contents[c.SkillID]
	for i := range blocks {
		if blocks[i].Type == c.Type {
			c.ID = blocks[i].ID
			blocks[i] = *c
			return nil
		}
	}
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	r.contents[c.SkillID] = append(blocks, *c)
	return nil
}

// GetLicense retrieves the license row of a skill
func (r *MemoryRepository) GetLicense(ctx context.Context, skillID string) (*models.License, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	l, ok := r.licenses[skillID]
	if !ok {
		return nil, nil
	}
	cp := *l
	return &cp, nil
}

// UpsertLicense stores the license row of a skill
func (r *MemoryRepository) UpsertLicense(ctx context.Context, l *models.License) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cur, ok := r.licenses[l.SkillID]; ok {
		l.ID = cur.ID
	} else if l.ID == "" {
		l.ID = uuid.New().String()
	}
	cp := *l
	r.licenses[l.SkillID] = &cp
	return nil
}

// ListCategories returns categories in insertion order
func (r *MemoryRepository) ListCategories(ctx context.Context) ([]*models.Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*models.Category, 0, len(r.categoryOrder))
	for _, id := range r.categoryOrder {
		cp := *r.categories[id]
		out = append(out, &cp)
	}
	return out, nil
}

// GetCategory retrieves a category by ID
func (r *MemoryRepository) GetCategory(ctx context.Context, id string) (*models.Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.categories[id]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

// FindCategoryByName matches on either locale's name
func (r *MemoryRepository) FindCategoryByName(ctx context.Context, name models.LocalizedText) (*models.Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, id := range r.categoryOrder {
		c := r.categories[id]
		if (name.Ko != "" && c.Name.Ko == name.Ko) || (name.En != "" && c.Name.En == name.En) {
			cp := *c
			return &cp, nil
		}
	}
	return nil, nil
}

// CreateCategory stores a new category, assigning an ID when empty
func (r *MemoryRepository) CreateCategory(ctx context.Context, c *models.Category) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	if _, exists := r.categories[c.ID]; exists {
		return fmt.Errorf("category already exists: %s", c.ID)
	}
	cp := *c
	r.categories[c.ID] = &cp
	r.categoryOrder = append(r.categoryOrder, c.ID)
	return nil
}

// ToggleLike inserts the like when absent and removes it when present.
// It reports whether the like exists afterwards.
func (r *MemoryRepository) ToggleLike(ctx context.Context, userID, skillID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.skills[skillID]; !ok {
		return false, fmt.Errorf("skill %s: %w", skillID, ErrNotFound)
	}

	key := likeKey{userID: userID, skillID: skillID}
	if _, ok := r.likes[key]; ok {
		delete(r.likes, key)
		return false, nil
	}
	r.likes[key] = &models.Like{
		ID:        uuid.New().String(),
		UserID:    userID,
		SkillID:   skillID,
		CreatedAt: r.now(),
	}
	return true, nil
}

// CountLikes counts like rows for a skill
func (r *MemoryRepository) CountLikes(ctx context.Context, skillID string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for key := range r.likes {
		if key.skillID == skillID {
			n++
		}
	}
	return n, nil
}

// ListLikedSkillIDs returns the skills a user likes, newest first
func (r *MemoryRepository) ListLikedSkillIDs(ctx context.Context, userID string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var liked []*models.Like
	for key, l := range r.likes {
		if key.userID == userID {
			liked = append(liked, l)
		}
	}
	sort.SliceStable(liked, func(i, j int) bool {
		if liked[i].CreatedAt.Equal(liked[j].CreatedAt) {
			return liked[i].SkillID < liked[j].SkillID
		}
		return liked[i].CreatedAt.After(liked[j].CreatedAt)
	})

	ids := make([]string, len(liked))
	for i, l := range liked {
		ids[i] = l.SkillID
	}
	return ids, nil
}

// UpsertComment inserts the comment or, when the user already reviewed the skill,
// rewrites its text and rating keeping the original creation time. c is filled
// with the stored row.
func (r *MemoryRepository) UpsertComment(ctx context.Context, c *models.Comment) (models.CommentAction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.skills[c.SkillID]; !ok {
		return "", fmt.Errorf("skill %s: %w", c.SkillID, ErrNotFound)
	}

	now := r.now()
	for _, cur := range r.comments {
		if cur.UserID == c.UserID && cur.SkillID == c.SkillID {
			cur.Text = c.Text
			cur.Rating = c.Rating
			cur.UpdatedAt = now
			*c = *cur
			return models.CommentUpdated, nil
		}
	}

	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	c.CreatedAt = now
	c.UpdatedAt = now
	cp := *c
	cp.User = nil
	r.comments[c.ID] = &cp
	return models.CommentInserted, nil
}

// GetComment retrieves a comment by ID
func (r *MemoryRepository) GetComment(ctx context.Context, id string) (*models.Comment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.comments[id]
	if !ok {
		return nil, nil
	}
	return r.withAuthor(c), nil
}

// DeleteComment removes a comment and reports whether it existed
func (r *MemoryRepository) DeleteComment(ctx context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.comments[id]; !ok {
		return false, nil
	}
	delete(r.comments, id)
	return true, nil
}

// ListComments returns the comments of a skill, newest first, with their authors
func (r *MemoryRepository) ListComments(ctx context.Context, skillID string) ([]*models.Comment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*models.Comment, 0)
	for _, c := range r.comments {
		if c.SkillID == skillID {
			out = append(out, r.withAuthor(c))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// CommentRatings returns every rating left on a skill
func (r *MemoryRepository) CommentRatings(ctx context.Context, skillID string) ([]int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var ratings []int
	for _, c := range r.comments {
		if c.SkillID == skillID {
			ratings = append(ratings, c.Rating)
		}
	}
	return ratings, nil
}

// withAuthor copies a comment and attaches its author. Caller holds the lock.
func (r *MemoryRepository) withAuthor(c *models.Comment) *models.Comment {
	cp := *c
	if u, ok := r.users[c.UserID]; ok {
		user := *u
		cp.User = &user
	}
	return &cp
}

// UpsertUser stores or replaces a user profile
func (r *MemoryRepository) UpsertUser(ctx context.Context, u *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cp := *u
	r.users[u.ID] = &cp
	return nil
}

// GetUser retrieves a user by ID
func (r *MemoryRepository) GetUser(ctx context.Context, id string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}
