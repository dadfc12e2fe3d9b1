package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/terra-clan/skillhub/internal/models"
)

// Client is a Go SDK for the skillhub API
type Client struct {
	baseURL string
	token   string
	locale  string
	http    *resty.Client
}

// Option configures the client
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.http = resty.NewWithClient(client)
	}
}

// WithTimeout sets the client timeout
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.http.SetTimeout(timeout)
	}
}

// WithToken sends a bearer token on every request
func WithToken(token string) Option {
	return func(c *Client) {
		c.token = token
	}
}

// WithLocale asks the server for messages in the given language
func WithLocale(locale string) Option {
	return func(c *Client) {
		c.locale = locale
	}
}

// NewClient creates a new skillhub client
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		http:    resty.New().SetTimeout(30 * time.Second),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// APIError is a failed response decoded from the error envelope
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

func (e *APIError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("API error %d: %s - %s (%s)", e.Status, e.Code, e.Message, e.Field)
	}
	return fmt.Sprintf("API error %d: %s - %s", e.Status, e.Code, e.Message)
}

// ListOptions contains options for listing skills
type ListOptions struct {
	Keyword    string
	CategoryID string
	Sort       models.SortKey
	Page       int
	Limit      int
}

// Category is a category with its localized label and display style
type Category struct {
	*models.Category
	Label string `json:"label"`
	Icon  string `json:"icon"`
	Color string `json:"color"`
}

// CommentRequest is the body of a comment submission
type CommentRequest struct {
	Text   string `json:"comment_text"`
	Rating int    `json:"rating"`
}

// InquiryRequest is the body of a contact form submission
type InquiryRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message"`
	Type    string `json:"type,omitempty"`
}

// ListSkills retrieves a page of skills
func (c *Client) ListSkills(ctx context.Context, opts ListOptions) (*models.SkillPage, error) {
	query := map[string]string{}
	if opts.Keyword != "" {
		query["q"] = opts.Keyword
	}
	if opts.CategoryID != "" {
		query["category_id"] = opts.CategoryID
	}
	if opts.Sort != "" {
		query["sort"] = string(opts.Sort)
	}
	if opts.Page > 0 {
		query["page"] = strconv.Itoa(opts.Page)
	}
	if opts.Limit > 0 {
		query["limit"] = strconv.Itoa(opts.Limit)
	}

	var page models.SkillPage
	if err := c.do(ctx, http.MethodGet, "/api/v1/skills", query, nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// GetSkill retrieves a skill with its category, contents and license.
// Every call counts as a view.
func (c *Client) GetSkill(ctx context.Context, id string) (*models.SkillDetail, error) {
	var detail models.SkillDetail
	if err := c.do(ctx, http.MethodGet, "/api/v1/skills/"+id, nil, nil, &detail); err != nil {
		return nil, err
	}
	return &detail, nil
}

// CreateSkill registers a new skill and returns its ID
func (c *Client) CreateSkill(ctx context.Context, draft *models.SkillDraft) (string, error) {
	var result struct {
		ID string `json:"id"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/v1/skills", nil, draft, &result); err != nil {
		return "", err
	}
	return result.ID, nil
}

// UpdateSkill applies a partial update to a skill
func (c *Client) UpdateSkill(ctx context.Context, id string, patch *models.SkillPatch) error {
	return c.do(ctx, http.MethodPatch, "/api/v1/skills/"+id, nil, patch, nil)
}

// ToggleLike flips the caller's like on a skill
func (c *Client) ToggleLike(ctx context.Context, skillID string) (*models.LikeResult, error) {
	var result models.LikeResult
	if err := c.do(ctx, http.MethodPost, "/api/v1/skills/"+skillID+"/like", nil, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ListComments retrieves the comments on a skill, newest first
func (c *Client) ListComments(ctx context.Context, skillID string) ([]*models.Comment, error) {
	var result struct {
		Comments []*models.Comment `json:"comments"`
		Total    int               `json:"total"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/skills/"+skillID+"/comments", nil, nil, &result); err != nil {
		return nil, err
	}
	return result.Comments, nil
}

// SubmitComment creates or replaces the caller's comment on a skill
func (c *Client) SubmitComment(ctx context.Context, skillID string, req CommentRequest) (*models.CommentResult, error) {
	var result models.CommentResult
	if err := c.do(ctx, http.MethodPost, "/api/v1/skills/"+skillID+"/comments", nil, req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// DeleteComment removes a comment and reports whether it existed
func (c *Client) DeleteComment(ctx context.Context, skillID, commentID string) (bool, error) {
	var result struct {
		Deleted bool `json:"deleted"`
	}
	path := "/api/v1/skills/" + skillID + "/comments/" + commentID
	if err := c.do(ctx, http.MethodDelete, path, nil, nil, &result); err != nil {
		return false, err
	}
	return result.Deleted, nil
}

// LikedSkills retrieves the skills the caller has liked
func (c *Client) LikedSkills(ctx context.Context) ([]*models.Skill, error) {
	var result struct {
		Skills []*models.Skill `json:"skills"`
		Total  int             `json:"total"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/me/likes", nil, nil, &result); err != nil {
		return nil, err
	}
	return result.Skills, nil
}

// ListCategories retrieves all categories
func (c *Client) ListCategories(ctx context.Context) ([]*Category, error) {
	var result struct {
		Categories []*Category `json:"categories"`
		Total      int         `json:"total"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/categories", nil, nil, &result); err != nil {
		return nil, err
	}
	return result.Categories, nil
}

// GetCategory retrieves a category by ID
func (c *Client) GetCategory(ctx context.Context, id string) (*Category, error) {
	var category Category
	if err := c.do(ctx, http.MethodGet, "/api/v1/categories/"+id, nil, nil, &category); err != nil {
		return nil, err
	}
	return &category, nil
}

// SendInquiry submits the contact form and returns the acknowledgement
func (c *Client) SendInquiry(ctx context.Context, req InquiryRequest) (string, error) {
	var result struct {
		Message string `json:"message"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/v1/inquiries", nil, req, &result); err != nil {
		return "", err
	}
	return result.Message, nil
}

// Translations retrieves the UI dictionary for a locale
func (c *Client) Translations(ctx context.Context, locale string) (map[string]string, error) {
	var result struct {
		Locale   string            `json:"locale"`
		Messages map[string]string `json:"messages"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/translations/"+locale, nil, nil, &result); err != nil {
		return nil, err
	}
	return result.Messages, nil
}

// Health checks if the service is healthy
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", nil, nil, nil)
}

// envelope mirrors the server's response wrapper
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *APIError       `json:"error"`
}

// do performs a request and decodes the envelope data into out
func (c *Client) do(ctx context.Context, method, path string, query map[string]string, body, out any) error {
	req := c.http.R().
		SetContext(ctx).
		SetHeader("Accept", "application/json").
		SetQueryParams(query)
	if body != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(body)
	}
	if c.token != "" {
		req.SetAuthToken(c.token)
	}
	if c.locale != "" {
		req.SetHeader("Accept-Language", c.locale)
	}

	resp, err := req.Execute(method, c.baseURL+path)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(resp.Body(), &env); err != nil {
		if resp.IsError() {
			return &APIError{Status: resp.StatusCode(), Code: "http_error", Message: resp.String()}
		}
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if !env.Success || resp.IsError() {
		apiErr := env.Error
		if apiErr == nil {
			apiErr = &APIError{Code: "http_error", Message: resp.Status()}
		}
		apiErr.Status = resp.StatusCode()
		return apiErr
	}

	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("failed to unmarshal response data: %w", err)
	}
	return nil
}
