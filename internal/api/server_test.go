package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terra-clan/skillhub/internal/auth"
	"github.com/terra-clan/skillhub/internal/config"
	"github.com/terra-clan/skillhub/internal/i18n"
	"github.com/terra-clan/skillhub/internal/models"
	"github.com/terra-clan/skillhub/internal/notify"
	"github.com/terra-clan/skillhub/internal/skills"
	"github.com/terra-clan/skillhub/internal/storage"
)

type fakeInquiries struct {
	got    []notify.Inquiry
	err    error
	health map[string]error
}

func (f *fakeInquiries) Send(ctx context.Context, inquiry notify.Inquiry) error {
	f.got = append(f.got, inquiry)
	return f.err
}

func (f *fakeInquiries) HealthCheck(ctx context.Context) map[string]error {
	return f.health
}

type testEnv struct {
	srv       *httptest.Server
	verifier  *auth.Verifier
	inquiries *fakeInquiries
	admin     string
	alice     string
	bob       string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	repo := storage.NewMemoryRepository()
	require.NoError(t, repo.CreateCategory(ctx, &models.Category{ID: "creative", Name: models.LocalizedText{Ko: "크리에이티브", En: "Creative"}}))
	require.NoError(t, repo.CreateSkill(ctx, &models.Skill{
		ID:         "algorithmic-art",
		Title:      models.LocalizedText{Ko: "알고리즘 아트", En: "Algorithmic Art"},
		CategoryID: "creative",
		Tags:       []string{"p5.js"},
	}))
	require.NoError(t, repo.CreateSkill(ctx, &models.Skill{
		ID:         "canvas-design",
		Title:      models.LocalizedText{Ko: "캔버스 디자인", En: "Canvas Design"},
		CategoryID: "creative",
		Tags:       []string{"png"},
	}))

	bundle, err := i18n.Load()
	require.NoError(t, err)

	verifier := auth.NewVerifier("test-secret", "skillhub")
	inquiries := &fakeInquiries{}
	server := NewServer(config.ServerConfig{}, skills.NewManager(repo, nil, nil), inquiries, bundle, verifier, nil)

	env := &testEnv{
		srv:       httptest.NewServer(server.Router()),
		verifier:  verifier,
		inquiries: inquiries,
	}
	t.Cleanup(env.srv.Close)

	env.admin = env.token(t, &models.Principal{UserID: "admin-0001", Permissions: []string{"skills:*", "comments:delete"}})
	env.alice = env.token(t, &models.Principal{UserID: "alice-0001", Email: "alice@example.com"})
	env.bob = env.token(t, &models.Principal{UserID: "bob-000001", Email: "bob@example.com"})
	return env
}

func (e *testEnv) token(t *testing.T, p *models.Principal) string {
	t.Helper()
	tok, err := e.verifier.Issue(p, time.Hour)
	require.NoError(t, err)
	return tok
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *apiError       `json:"error"`
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) (int, envelope) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		switch b := body.(type) {
		case string:
			reader = strings.NewReader(b)
		default:
			data, err := json.Marshal(b)
			require.NoError(t, err)
			reader = bytes.NewReader(data)
		}
	}

	req, err := http.NewRequest(method, e.srv.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp.StatusCode, env
}

func decodeData[T any](t *testing.T, env envelope) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(env.Data, &v))
	return v
}

func TestHealthAndReady(t *testing.T) {
	env := newTestEnv(t)

	status, body := env.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.True(t, body.Success)

	status, _ = env.do(t, http.MethodGet, "/ready", "", nil)
	assert.Equal(t, http.StatusOK, status)
}

func TestReadyReportsInquiryChannels(t *testing.T) {
	env := newTestEnv(t)
	env.inquiries.health = map[string]error{
		"email": nil,
		"slack": errors.New("webhook URL is not configured"),
	}

	status, body := env.do(t, http.MethodGet, "/ready", "", nil)
	require.Equal(t, http.StatusOK, status)

	ready := decodeData[struct {
		Status   string            `json:"status"`
		Channels map[string]string `json:"inquiry_channels"`
	}](t, body)
	assert.Equal(t, "degraded", ready.Status)
	assert.Equal(t, map[string]string{
		"email": "ok",
		"slack": "webhook URL is not configured",
	}, ready.Channels)

	env.inquiries.health = map[string]error{"email": nil}
	_, body = env.do(t, http.MethodGet, "/ready", "", nil)
	assert.Equal(t, "ready", decodeData[map[string]any](t, body)["status"])
}

func TestListSkills(t *testing.T) {
	env := newTestEnv(t)

	status, body := env.do(t, http.MethodGet, "/api/v1/skills?q="+url.QueryEscape("ㅋㅂㅅ")+"&category_id=creative", "", nil)
	require.Equal(t, http.StatusOK, status)

	page := decodeData[models.SkillPage](t, body)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "canvas-design", page.Items[0].ID)
	assert.Equal(t, 1, page.Meta.Total)

	status, body = env.do(t, http.MethodGet, "/api/v1/skills?limit=1&page=2&sort=title", "", nil)
	require.Equal(t, http.StatusOK, status)
	page = decodeData[models.SkillPage](t, body)
	assert.Len(t, page.Items, 1)
	assert.Equal(t, 2, page.Meta.Total)
}

func TestGetSkillCountsViewsAndLocalizesNotFound(t *testing.T) {
	env := newTestEnv(t)

	_, body := env.do(t, http.MethodGet, "/api/v1/skills/canvas-design", "", nil)
	_, body = env.do(t, http.MethodGet, "/api/v1/skills/canvas-design", "", nil)
	detail := decodeData[models.SkillDetail](t, body)
	assert.Equal(t, 2, detail.ViewsCount)
	require.NotNil(t, detail.Category)
	assert.Equal(t, "creative", detail.Category.ID)

	status, body := env.do(t, http.MethodGet, "/api/v1/skills/missing", "", nil)
	assert.Equal(t, http.StatusNotFound, status)
	require.NotNil(t, body.Error)
	assert.Equal(t, "not_found", body.Error.Code)
	assert.Equal(t, "요청한 항목을 찾을 수 없습니다", body.Error.Message)

	_, body = env.do(t, http.MethodGet, "/api/v1/skills/missing?lang=en", "", nil)
	assert.Equal(t, "The requested item was not found", body.Error.Message)
}

func TestCreateAndUpdateSkill(t *testing.T) {
	env := newTestEnv(t)
	draft := map[string]any{
		"title_ko":         "PDF 처리기",
		"title_en":         "PDF Processor",
		"category_name_en": "Office",
		"tags":             "pdf, documents",
		"url":              "https://github.com/anthropics/skills/tree/main/pdf",
	}

	status, body := env.do(t, http.MethodPost, "/api/v1/skills", "", draft)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "unauthenticated", body.Error.Code)

	status, body = env.do(t, http.MethodPost, "/api/v1/skills", env.alice, draft)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "forbidden", body.Error.Code)

	status, body = env.do(t, http.MethodPost, "/api/v1/skills", env.admin, draft)
	require.Equal(t, http.StatusCreated, status)
	id := decodeData[map[string]string](t, body)["id"]
	require.NotEmpty(t, id)

	status, _ = env.do(t, http.MethodPatch, "/api/v1/skills/"+id, env.admin, `{"title_en": ""}`)
	require.Equal(t, http.StatusOK, status)

	_, body = env.do(t, http.MethodGet, "/api/v1/skills/"+id, "", nil)
	detail := decodeData[models.SkillDetail](t, body)
	assert.Equal(t, "", detail.Title.En)
	assert.Equal(t, "PDF 처리기", detail.Title.Ko)
	assert.Equal(t, []string{"pdf", "documents"}, detail.Tags)
	assert.True(t, strings.HasPrefix(detail.DownloadURL, "https://downgit.github.io/#/home?url="))
	require.NotNil(t, detail.License)
	assert.Equal(t, "github", detail.License.Type)

	status, body = env.do(t, http.MethodPost, "/api/v1/skills", env.admin, map[string]any{"title_en": ""})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "validation_error", body.Error.Code)
	assert.Equal(t, "title", body.Error.Field)

	status, body = env.do(t, http.MethodPost, "/api/v1/skills", env.admin, "{not json")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "invalid_request", body.Error.Code)
}

func TestToggleLike(t *testing.T) {
	env := newTestEnv(t)

	status, _ := env.do(t, http.MethodPost, "/api/v1/skills/canvas-design/like", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	_, body := env.do(t, http.MethodPost, "/api/v1/skills/canvas-design/like", env.alice, nil)
	assert.Equal(t, models.LikeResult{Liked: true, LikesCount: 1}, decodeData[models.LikeResult](t, body))

	_, body = env.do(t, http.MethodPost, "/api/v1/skills/canvas-design/like", env.bob, nil)
	assert.Equal(t, 2, decodeData[models.LikeResult](t, body).LikesCount)

	_, body = env.do(t, http.MethodGet, "/api/v1/me/likes", env.alice, nil)
	liked := decodeData[struct {
		Skills []*models.Skill `json:"skills"`
		Total  int             `json:"total"`
	}](t, body)
	require.Equal(t, 1, liked.Total)
	assert.Equal(t, "canvas-design", liked.Skills[0].ID)

	_, body = env.do(t, http.MethodPost, "/api/v1/skills/canvas-design/like", env.alice, nil)
	assert.Equal(t, models.LikeResult{Liked: false, LikesCount: 1}, decodeData[models.LikeResult](t, body))

	status, _ = env.do(t, http.MethodPost, "/api/v1/skills/missing/like", env.alice, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestComments(t *testing.T) {
	env := newTestEnv(t)
	path := "/api/v1/skills/algorithmic-art/comments"

	status, body := env.do(t, http.MethodPost, path, env.alice, map[string]any{"comment_text": "great", "rating": 5})
	require.Equal(t, http.StatusCreated, status)
	result := decodeData[models.CommentResult](t, body)
	assert.Equal(t, models.CommentInserted, result.Action)

	status, body = env.do(t, http.MethodPost, path, env.alice, map[string]any{"comment_text": "ok", "rating": 3})
	require.Equal(t, http.StatusOK, status)
	result = decodeData[models.CommentResult](t, body)
	assert.Equal(t, models.CommentUpdated, result.Action)
	assert.Equal(t, 1, result.CommentsCount)
	assert.Equal(t, 3.0, result.Rating)

	status, body = env.do(t, http.MethodPost, path, env.bob, map[string]any{"comment_text": "x", "rating": 9})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "rating", body.Error.Field)

	_, body = env.do(t, http.MethodGet, path, "", nil)
	list := decodeData[struct {
		Comments []*models.Comment `json:"comments"`
		Total    int               `json:"total"`
	}](t, body)
	require.Equal(t, 1, list.Total)
	commentID := list.Comments[0].ID
	assert.Empty(t, list.Comments[0].User.Email)
	raw := decodeData[struct {
		Comments []map[string]any `json:"comments"`
	}](t, body)
	assert.Contains(t, raw.Comments[0], "edited")

	status, _ = env.do(t, http.MethodDelete, path+"/"+commentID, env.bob, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, body = env.do(t, http.MethodDelete, path+"/"+commentID, env.alice, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, map[string]bool{"deleted": true}, decodeData[map[string]bool](t, body))

	_, body = env.do(t, http.MethodGet, "/api/v1/skills/algorithmic-art", "", nil)
	detail := decodeData[models.SkillDetail](t, body)
	assert.Equal(t, 0, detail.CommentsCount)
	assert.Equal(t, 0.0, detail.Rating)
}

func TestInvalidTokenRejected(t *testing.T) {
	env := newTestEnv(t)

	status, body := env.do(t, http.MethodGet, "/api/v1/skills", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "unauthenticated", body.Error.Code)
}

func TestCategories(t *testing.T) {
	env := newTestEnv(t)

	_, body := env.do(t, http.MethodGet, "/api/v1/categories?lang=en", "", nil)
	list := decodeData[struct {
		Categories []categoryView `json:"categories"`
		Total      int            `json:"total"`
	}](t, body)
	require.Equal(t, 1, list.Total)
	assert.Equal(t, "Creative", list.Categories[0].Label)
	assert.Equal(t, "🎨", list.Categories[0].Icon)
	assert.Equal(t, "#8b5cf6", list.Categories[0].Color)

	_, body = env.do(t, http.MethodGet, "/api/v1/categories/creative", "", nil)
	assert.Equal(t, "크리에이티브", decodeData[categoryView](t, body).Label)

	status, _ := env.do(t, http.MethodGet, "/api/v1/categories/none", "", nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestTranslations(t *testing.T) {
	env := newTestEnv(t)

	status, body := env.do(t, http.MethodGet, "/api/v1/translations/en", "", nil)
	require.Equal(t, http.StatusOK, status)
	data := decodeData[struct {
		Locale   string            `json:"locale"`
		Messages map[string]string `json:"messages"`
	}](t, body)
	assert.Equal(t, "en", data.Locale)
	assert.Equal(t, "Like", data.Messages["skillDetail.like"])

	status, _ = env.do(t, http.MethodGet, "/api/v1/translations/fr", "", nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestSendInquiry(t *testing.T) {
	env := newTestEnv(t)
	in := map[string]string{"name": "Kim", "email": "kim@example.com", "message": "hello"}

	status, body := env.do(t, http.MethodPost, "/api/v1/inquiries?lang=en", "", in)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Thanks Kim, your inquiry has been received.", decodeData[map[string]string](t, body)["message"])
	require.Len(t, env.inquiries.got, 1)

	env.inquiries.err = &notify.DeliveryError{Failures: map[string]error{"slack": errors.New("down")}}
	status, body = env.do(t, http.MethodPost, "/api/v1/inquiries", "", in)
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "문의 전송 중 오류가 발생했습니다. 다시 시도해주세요.", body.Error.Message)

	env.inquiries.err = notify.ErrNotConfigured
	status, body = env.do(t, http.MethodPost, "/api/v1/inquiries", "", in)
	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.Equal(t, "not_configured", body.Error.Code)

	env.inquiries.err = errors.Join(notify.ErrInvalidInquiry, errors.New("email failed email"))
	status, body = env.do(t, http.MethodPost, "/api/v1/inquiries", "", in)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "validation_error", body.Error.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t)
	env.do(t, http.MethodPost, "/api/v1/skills/canvas-design/like", env.alice, nil)

	resp, err := http.Get(env.srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	text := string(raw)
	assert.Contains(t, text, `skillhub_interactions_total{kind="like"} 1`)
	assert.Contains(t, text, `route="/api/v1/skills/{id}/like"`)
}
