package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/terra-clan/skillhub/internal/models"
)

// foreign_key_violation
const pgForeignKeyViolation = "23503"

// PostgresRepository implements Repository using PostgreSQL
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// PostgresConfig holds PostgreSQL connection configuration
type PostgresConfig struct {
	DSN          string
	MaxOpenConns int32
	MaxIdleConns int32
	MaxLifetime  time.Duration
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(ctx context.Context, cfg PostgresConfig) (*PostgresRepository, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to parse DSN: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		poolConfig.MaxConns = cfg.MaxOpenConns
	} else {
		poolConfig.MaxConns = 25
	}

	if cfg.MaxIdleConns > 0 {
		poolConfig.MinConns = cfg.MaxIdleConns
	} else {
		poolConfig.MinConns = 2
	}

	if cfg.MaxLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.MaxLifetime
	} else {
		poolConfig.MaxConnLifetime = 30 * time.Minute
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresRepository{pool: pool}, nil
}

// Ping checks database connectivity
func (r *PostgresRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// Close closes the database connection pool
func (r *PostgresRepository) Close() error {
	r.pool.Close()
	return nil
}

const skillColumns = `
	id, category_id, categories, title_ko, title_en, sub_title_ko, sub_title_en, icon, tags,
	likes_count, views_count, comments_count, rating, download_url, author, license, repository,
	featured, created_at, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanSkill(row scanner) (*models.Skill, error) {
	var s models.Skill
	var categoryID, icon, downloadURL, author, license, repository sql.NullString
	var tags string

	err := row.Scan(
		&s.ID,
		&categoryID,
		&s.Categories,
		&s.Title.Ko,
		&s.Title.En,
		&s.Subtitle.Ko,
		&s.Subtitle.En,
		&icon,
		&tags,
		&s.LikesCount,
		&s.ViewsCount,
		&s.CommentsCount,
		&s.Rating,
		&downloadURL,
		&author,
		&license,
		&repository,
		&s.Featured,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	s.CategoryID = categoryID.String
	s.Icon = icon.String
	s.Tags = models.ParseTags(tags)
	s.DownloadURL = downloadURL.String
	s.Author = author.String
	s.License = license.String
	s.Repository = repository.String
	return &s, nil
}

// ListSkills returns skills ordered by creation, optionally narrowed to a category
func (r *PostgresRepository) ListSkills(ctx context.Context, categoryID string) ([]*models.Skill, error) {
	query := `SELECT ` + skillColumns + ` FROM skills`
	args := make([]interface{}, 0, 1)

	if categoryID != "" {
		query += ` WHERE category_id = $1 OR $1 = ANY(categories)`
		args = append(args, categoryID)
	}
	query += ` ORDER BY created_at ASC, id ASC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list skills: %w", err)
	}
	defer rows.Close()

	skills := make([]*models.Skill, 0)
	for rows.Next() {
		s, err := scanSkill(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan skill: %w", err)
		}
		skills = append(skills, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating skills: %w", err)
	}

	return skills, nil
}

// GetSkill retrieves a skill by ID
func (r *PostgresRepository) GetSkill(ctx context.Context, id string) (*models.Skill, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+skillColumns+` FROM skills WHERE id = $1`, id)
	s, err := scanSkill(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("failed to get skill: %w", err)
	}
	return s, nil
}

// CreateSkill creates a new skill record
func (r *PostgresRepository) CreateSkill(ctx context.Context, s *models.Skill) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}
	if s.UpdatedAt.IsZero() {
		s.UpdatedAt = s.CreatedAt
	}

	query := `
		INSERT INTO skills (` + skillColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
	`

	_, err := r.pool.Exec(ctx, query,
		s.ID,
		nullString(s.CategoryID),
		nonNil(s.Categories),
		s.Title.Ko,
		s.Title.En,
		s.Subtitle.Ko,
		s.Subtitle.En,
		nullString(s.Icon),
		models.FormatTags(s.Tags),
		s.LikesCount,
		s.ViewsCount,
		s.CommentsCount,
		s.Rating,
		nullString(s.DownloadURL),
		nullString(s.Author),
		nullString(s.License),
		nullString(s.Repository),
		s.Featured,
		s.CreatedAt,
		s.UpdatedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("category %s: %w", s.CategoryID, ErrNotFound)
		}
		return fmt.Errorf("failed to create skill: %w", err)
	}

	return nil
}

// UpdateSkill updates the editable fields of a skill. Counters are not touched.
func (r *PostgresRepository) UpdateSkill(ctx context.Context, s *models.Skill) error {
	query := `
		UPDATE skills
		SET category_id = $2, categories = $3, title_ko = $4, title_en = $5, sub_title_ko = $6,
		    sub_title_en = $7, icon = $8, tags = $9, download_url = $10, author = $11, license = $12,
		    repository = $13, featured = $14, updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.pool.Exec(ctx, query,
		s.ID,
		nullString(s.CategoryID),
		nonNil(s.Categories),
		s.Title.Ko,
		s.Title.En,
		s.Subtitle.Ko,
		s.Subtitle.En,
		nullString(s.Icon),
		models.FormatTags(s.Tags),
		nullString(s.DownloadURL),
		nullString(s.Author),
		nullString(s.License),
		nullString(s.Repository),
		s.Featured,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("category %s: %w", s.CategoryID, ErrNotFound)
		}
		return fmt.Errorf("failed to update skill: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("skill %s: %w", s.ID, ErrNotFound)
	}

	return nil
}

// IncrementViews atomically adds one view and returns the new count
func (r *PostgresRepository) IncrementViews(ctx context.Context, id string) (int, error) {
	var views int
	err := r.pool.QueryRow(ctx,
		`UPDATE skills SET views_count = views_count + 1 WHERE id = $1 RETURNING views_count`, id,
	).Scan(&views)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, fmt.Errorf("skill %s: %w", id, ErrNotFound)
		}
		return 0, fmt.Errorf("failed to increment views: %w", err)
	}
	return views, nil
}

// SetViews overwrites the view counter
func (r *PostgresRepository) SetViews(ctx context.Context, id string, views int) error {
	return r.execSkill(ctx, "set views", `UPDATE skills SET views_count = $2 WHERE id = $1`, id, views)
}

// SetLikesCount overwrites the like counter
func (r *PostgresRepository) SetLikesCount(ctx context.Context, id string, count int) error {
	return r.execSkill(ctx, "set likes count", `UPDATE skills SET likes_count = $2 WHERE id = $1`, id, count)
}

// SetCommentStats overwrites the comment counter and rating
func (r *PostgresRepository) SetCommentStats(ctx context.Context, id string, stats models.CommentStats) error {
	return r.execSkill(ctx, "set comment stats",
		`UPDATE skills SET comments_count = $2, rating = $3 WHERE id = $1`, id, stats.Count, stats.Rating)
}

func (r *PostgresRepository) execSkill(ctx context.Context, op, query, id string, args ...any) error {
	result, err := r.pool.Exec(ctx, query, append([]any{id}, args...)...)
	if err != nil {
		return fmt.Errorf("failed to %s: %w", op, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("skill %s: %w", id, ErrNotFound)
	}
	return nil
}

// GetContents returns the documentation blocks of a skill
func (r *PostgresRepository) GetContents(ctx context.Context, skillID string) ([]models.Content, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, skill_id, content_type, content_text
		FROM contents
		WHERE skill_id = $1
		ORDER BY content_type
	`, skillID)
	if err != nil {
		return nil, fmt.Errorf("failed to get contents: %w", err)
	}
	defer rows.Close()

	contents := make([]models.Content, 0)
	for rows.Next() {
		var c models.Content
		var ct string
		if err := rows.Scan(&c.ID, &c.SkillID, &ct, &c.Text); err != nil {
			return nil, fmt.Errorf("failed to scan content: %w", err)
		}
		c.Type = models.ContentType(ct)
		contents = append(contents, c)
	}

	return contents, rows.Err()
}

// UpsertContent stores a block, replacing any block of the same type
func (r *PostgresRepository) UpsertContent(ctx context.Context, c *models.Content) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}

	err := r.pool.QueryRow(ctx, `
		INSERT INTO contents (id, skill_id, content_type, content_text)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (skill_id, content_type) DO UPDATE SET content_text = EXCLUDED.content_text
		RETURNING id
	`, c.ID, c.SkillID, string(c.Type), c.Text).Scan(&c.ID)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("skill %s: %w", c.SkillID, ErrNotFound)
		}
		return fmt.Errorf("failed to upsert content: %w", err)
	}
	return nil
}

// GetLicense retrieves the license row of a skill
func (r *PostgresRepository) GetLicense(ctx context.Context, skillID string) (*models.License, error) {
	var l models.License
	var licenseType, url sql.NullString

	err := r.pool.QueryRow(ctx, `
		SELECT id, skill_id, license_type, github_url FROM licenses WHERE skill_id = $1
	`, skillID).Scan(&l.ID, &l.SkillID, &licenseType, &url)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get license: %w", err)
	}

	l.Type = licenseType.String
	l.URL = url.String
	return &l, nil
}

// UpsertLicense stores the license row of a skill
func (r *PostgresRepository) UpsertLicense(ctx context.Context, l *models.License) error {
	if l.ID == "" {
		l.ID = uuid.New().String()
	}

	err := r.pool.QueryRow(ctx, `
		INSERT INTO licenses (id, skill_id, license_type, github_url)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (skill_id) DO UPDATE SET license_type = EXCLUDED.license_type, github_url = EXCLUDED.github_url
		RETURNING id
	`, l.ID, l.SkillID, nullString(l.Type), nullString(l.URL)).Scan(&l.ID)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("skill %s: %w", l.SkillID, ErrNotFound)
		}
		return fmt.Errorf("failed to upsert license: %w", err)
	}
	return nil
}

// ListCategories returns all categories
func (r *PostgresRepository) ListCategories(ctx context.Context) ([]*models.Category, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name_ko, name_en, icon FROM categories ORDER BY created_at ASC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	categories := make([]*models.Category, 0)
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, c)
	}

	return categories, rows.Err()
}

func scanCategory(row scanner) (*models.Category, error) {
	var c models.Category
	var icon sql.NullString
	if err := row.Scan(&c.ID, &c.Name.Ko, &c.Name.En, &icon); err != nil {
		return nil, err
	}
	c.Icon = icon.String
	return &c, nil
}

// GetCategory retrieves a category by ID
func (r *PostgresRepository) GetCategory(ctx context.Context, id string) (*models.Category, error) {
	row := r.pool.QueryRow(ctx, `SELECT id, name_ko, name_en, icon FROM categories WHERE id = $1`, id)
	c, err := scanCategory(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get category: %w", err)
	}
	return c, nil
}

// FindCategoryByName matches on either locale's name
func (r *PostgresRepository) FindCategoryByName(ctx context.Context, name models.LocalizedText) (*models.Category, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name_ko, name_en, icon FROM categories
		WHERE ($1 <> '' AND name_ko = $1) OR ($2 <> '' AND name_en = $2)
		ORDER BY created_at ASC
		LIMIT 1
	`, name.Ko, name.En)
	c, err := scanCategory(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find category: %w", err)
	}
	return c, nil
}

// CreateCategory creates a new category record
func (r *PostgresRepository) CreateCategory(ctx context.Context, c *models.Category) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO categories (id, name_ko, name_en, icon) VALUES ($1, $2, $3, $4)
	`, c.ID, c.Name.Ko, c.Name.En, nullString(c.Icon))
	if err != nil {
		return fmt.Errorf("failed to create category: %w", err)
	}
	return nil
}

// ToggleLike deletes the like when present and inserts it otherwise, in one transaction.
// The (user_id, skill_id) unique constraint keeps concurrent toggles to one row.
func (r *PostgresRepository) ToggleLike(ctx context.Context, userID, skillID string) (bool, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	result, err := tx.Exec(ctx, `DELETE FROM likes WHERE user_id = $1 AND skill_id = $2`, userID, skillID)
	if err != nil {
		return false, fmt.Errorf("failed to delete like: %w", err)
	}

	liked := false
	if result.RowsAffected() == 0 {
		_, err = tx.Exec(ctx, `
			INSERT INTO likes (id, user_id, skill_id) VALUES ($1, $2, $3)
			ON CONFLICT (user_id, skill_id) DO NOTHING
		`, uuid.New().String(), userID, skillID)
		if err != nil {
			if isForeignKeyViolation(err) {
				return false, fmt.Errorf("skill %s: %w", skillID, ErrNotFound)
			}
			return false, fmt.Errorf("failed to insert like: %w", err)
		}
		liked = true
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("failed to commit like toggle: %w", err)
	}
	return liked, nil
}

// CountLikes counts like rows for a skill
func (r *PostgresRepository) CountLikes(ctx context.Context, skillID string) (int, error) {
	var n int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM likes WHERE skill_id = $1`, skillID).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count likes: %w", err)
	}
	return n, nil
}

// ListLikedSkillIDs returns the skills a user likes, newest first
func (r *PostgresRepository) ListLikedSkillIDs(ctx context.Context, userID string) ([]string, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT skill_id FROM likes WHERE user_id = $1 ORDER BY created_at DESC, skill_id ASC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list likes: %w", err)
	}
	defer rows.Close()

	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan like: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// UpsertComment inserts the comment or rewrites the caller's existing one for the skill.
// The (user_id, skill_id) unique constraint makes this a single atomic statement; xmax is
// zero only for a freshly inserted row.
func (r *PostgresRepository) UpsertComment(ctx context.Context, c *models.Comment) (models.CommentAction, error) {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}

	var inserted bool
	err := r.pool.QueryRow(ctx, `
		INSERT INTO comments (id, user_id, skill_id, rating, comment_text)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id, skill_id) DO UPDATE
		SET rating = EXCLUDED.rating, comment_text = EXCLUDED.comment_text, updated_at = NOW()
		RETURNING id, created_at, updated_at, (xmax = 0)
	`, c.ID, c.UserID, c.SkillID, c.Rating, c.Text).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt, &inserted)
	if err != nil {
		if isForeignKeyViolation(err) {
			return "", fmt.Errorf("skill %s: %w", c.SkillID, ErrNotFound)
		}
		return "", fmt.Errorf("failed to upsert comment: %w", err)
	}

	if inserted {
		return models.CommentInserted, nil
	}
	return models.CommentUpdated, nil
}

const commentColumns = `
	c.id, c.user_id, c.skill_id, c.rating, c.comment_text, c.created_at, c.updated_at,
	u.id, u.email, u.nickname, u.avatar_url`

func scanComment(row scanner) (*models.Comment, error) {
	var c models.Comment
	var uid, email, nickname, avatar sql.NullString

	err := row.Scan(
		&c.ID,
		&c.UserID,
		&c.SkillID,
		&c.Rating,
		&c.Text,
		&c.CreatedAt,
		&c.UpdatedAt,
		&uid,
		&email,
		&nickname,
		&avatar,
	)
	if err != nil {
		return nil, err
	}

	if uid.Valid {
		c.User = &models.User{
			ID:        uid.String,
			Email:     email.String,
			Nickname:  nickname.String,
			AvatarURL: avatar.String,
		}
	}
	return &c, nil
}

// GetComment retrieves a comment by ID
func (r *PostgresRepository) GetComment(ctx context.Context, id string) (*models.Comment, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+commentColumns+`
		FROM comments c LEFT JOIN users u ON u.id = c.user_id
		WHERE c.id = $1
	`, id)
	c, err := scanComment(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get comment: %w", err)
	}
	return c, nil
}

// DeleteComment removes a comment and reports whether it existed
func (r *PostgresRepository) DeleteComment(ctx context.Context, id string) (bool, error) {
	result, err := r.pool.Exec(ctx, `DELETE FROM comments WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete comment: %w", err)
	}
	return result.RowsAffected() > 0, nil
}

// ListComments returns the comments of a skill, newest first, with their authors
func (r *PostgresRepository) ListComments(ctx context.Context, skillID string) ([]*models.Comment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+commentColumns+`
		FROM comments c LEFT JOIN users u ON u.id = c.user_id
		WHERE c.skill_id = $1
		ORDER BY c.created_at DESC, c.id ASC
	`, skillID)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	defer rows.Close()

	comments := make([]*models.Comment, 0)
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan comment: %w", err)
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

// CommentRatings returns every rating left on a skill
func (r *PostgresRepository) CommentRatings(ctx context.Context, skillID string) ([]int, error) {
	rows, err := r.pool.Query(ctx, `SELECT rating FROM comments WHERE skill_id = $1`, skillID)
	if err != nil {
		return nil, fmt.Errorf("failed to get ratings: %w", err)
	}
	defer rows.Close()

	var ratings []int
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("failed to scan rating: %w", err)
		}
		ratings = append(ratings, v)
	}
	return ratings, rows.Err()
}

// UpsertUser stores a user profile. Empty fields keep the stored value.
func (r *PostgresRepository) UpsertUser(ctx context.Context, u *models.User) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO users (id, email, nickname, avatar_url) VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
			email = COALESCE(EXCLUDED.email, users.email),
			nickname = COALESCE(EXCLUDED.nickname, users.nickname),
			avatar_url = COALESCE(EXCLUDED.avatar_url, users.avatar_url)
	`, u.ID, nullString(u.Email), nullString(u.Nickname), nullString(u.AvatarURL))
	if err != nil {
		return fmt.Errorf("failed to upsert user: %w", err)
	}
	return nil
}

// GetUser retrieves a user by ID
func (r *PostgresRepository) GetUser(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	var email, nickname, avatar sql.NullString

	err := r.pool.QueryRow(ctx, `
		SELECT id, email, nickname, avatar_url FROM users WHERE id = $1
	`, id).Scan(&u.ID, &email, &nickname, &avatar)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	u.Email = email.String
	u.Nickname = nickname.String
	u.AvatarURL = avatar.String
	return &u, nil
}

// Helper functions for nullable values

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nonNil(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation
}
