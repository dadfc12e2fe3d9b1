package storage

import (
	"context"

	"github.com/terra-clan/skillhub/internal/models"
)

// Repository defines the interface for catalog persistence.
// Getters return nil, nil when the row does not exist.
type Repository interface {
	// Skills
	ListSkills(ctx context.Context, categoryID string) ([]*models.Skill, error)
	GetSkill(ctx context.Context, id string) (*models.Skill, error)
	CreateSkill(ctx context.Context, s *models.Skill) error
	UpdateSkill(ctx context.Context, s *models.Skill) error
	IncrementViews(ctx context.Context, id string) (int, error)
	SetViews(ctx context.Context, id string, views int) error
	SetLikesCount(ctx context.Context, id string, count int) error
	SetCommentStats(ctx context.Context, id string, stats models.CommentStats) error

	// Contents and licenses
	GetContents(ctx context.Context, skillID string) ([]models.Content, error)
	UpsertContent(ctx context.Context, c *models.Content) error
	GetLicense(ctx context.Context, skillID string) (*models.License, error)
	UpsertLicense(ctx context.Context, l *models.License) error

	// Categories
	ListCategories(ctx context.Context) ([]*models.Category, error)
	GetCategory(ctx context.Context, id string) (*models.Category, error)
	FindCategoryByName(ctx context.Context, name models.LocalizedText) (*models.Category, error)
	CreateCategory(ctx context.Context, c *models.Category) error

	// Likes
	ToggleLike(ctx context.Context, userID, skillID string) (bool, error)
	CountLikes(ctx context.Context, skillID string) (int, error)
	ListLikedSkillIDs(ctx context.Context, userID string) ([]string, error)

	// Comments
	UpsertComment(ctx context.Context, c *models.Comment) (models.CommentAction, error)
	GetComment(ctx context.Context, id string) (*models.Comment, error)
	DeleteComment(ctx context.Context, id string) (bool, error)
	ListComments(ctx context.Context, skillID string) ([]*models.Comment, error)
	CommentRatings(ctx context.Context, skillID string) ([]int, error)

	// Users
	UpsertUser(ctx context.Context, u *models.User) error
	GetUser(ctx context.Context, id string) (*models.User, error)

	// Health
	Ping(ctx context.Context) error
	Close() error
}
