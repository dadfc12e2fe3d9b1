package models

import (
	"encoding/json"
	"time"
)

// Rating bounds and comment length limit
const (
	MinRating       = 1
	MaxRating       = 5
	MaxCommentRunes = 2000
)

// User is a registered member who can like and review skills
type User struct {
	ID        string `json:"id"`
	Email     string `json:"email,omitempty"`
	Nickname  string `json:"nickname,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

// Comment is one user's review of one skill. At most one exists per (user, skill).
type Comment struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	SkillID   string    `json:"skill_id"`
	Rating    int       `json:"rating"`
	Text      string    `json:"comment_text"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	User      *User     `json:"user,omitempty"`
}

// Edited reports whether the comment was changed after it was first posted
func (c *Comment) Edited() bool {
	return c.UpdatedAt.After(c.CreatedAt)
}

// MarshalJSON adds the derived edited flag
func (c Comment) MarshalJSON() ([]byte, error) {
	type comment Comment
	return json.Marshal(struct {
		comment
		Edited bool `json:"edited"`
	}{comment(c), c.Edited()})
}

// Like marks that a user liked a skill. At most one exists per (user, skill).
type Like struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	SkillID   string    `json:"skill_id"`
	CreatedAt time.Time `json:"created_at"`
}

// LikeResult is returned by a like toggle
type LikeResult struct {
	Liked      bool `json:"is_liked"`
	LikesCount int  `json:"likes_count"`
}

// CommentAction describes what a comment submission did
type CommentAction string

const (
	CommentInserted CommentAction = "inserted"
	CommentUpdated  CommentAction = "updated"
)

// CommentResult is returned by a comment submission
type CommentResult struct {
	Action        CommentAction `json:"action"`
	SkillID       string        `json:"skill_id"`
	CommentsCount int           `json:"comments_count"`
	Rating        float64       `json:"rating"`
}

// CommentStats is the derived aggregate stored on a skill
type CommentStats struct {
	Count  int
	Rating float64
}

// ComputeCommentStats averages ratings rounded to one decimal, ties rounding half up.
// Integer arithmetic keeps 4.45 from drifting to 4.4.
func ComputeCommentStats(ratings []int) CommentStats {
	if len(ratings) == 0 {
		return CommentStats{}
	}
	sum := 0
	for _, r := range ratings {
		sum += r
	}
	n := len(ratings)
	tenths := (20*sum + n) / (2 * n)
	return CommentStats{Count: n, Rating: float64(tenths) / 10}
}
