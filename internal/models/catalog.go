package models

import (
	"strings"
	"time"
)

// Locale identifies a supported display language
type Locale string

const (
	LocaleKo Locale = "ko"
	LocaleEn Locale = "en"
)

// DefaultLocale is used when the caller expresses no preference
const DefaultLocale = LocaleKo

// ParseLocale maps a loose language string ("en-US", "KO") onto a supported locale
func ParseLocale(s string) (Locale, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch {
	case strings.HasPrefix(s, "ko"):
		return LocaleKo, true
	case strings.HasPrefix(s, "en"):
		return LocaleEn, true
	}
	return DefaultLocale, false
}

// LocalizedText holds a display string in both supported locales
type LocalizedText struct {
	Ko string `json:"ko" yaml:"ko"`
	En string `json:"en" yaml:"en"`
}

// Resolve returns the text for the requested locale, then the other locale, then ""
func (t LocalizedText) Resolve(locale Locale) string {
	if locale == LocaleEn {
		if t.En != "" {
			return t.En
		}
		return t.Ko
	}
	if t.Ko != "" {
		return t.Ko
	}
	return t.En
}

// IsZero reports whether neither locale has a value
func (t LocalizedText) IsZero() bool {
	return t.Ko == "" && t.En == ""
}

// Skill is one installable capability in the catalog
type Skill struct {
	ID       string        `json:"id"`
	Title    LocalizedText `json:"title"`
	Subtitle LocalizedText `json:"subtitle"`

	// CategoryID is the primary category. Seeded skills may list more in Categories.
	CategoryID string   `json:"category_id,omitempty"`
	Categories []string `json:"categories,omitempty"`
	Icon       string   `json:"icon,omitempty"`
	Tags       []string `json:"tags"`

	LikesCount    int     `json:"likes_count"`
	ViewsCount    int     `json:"views_count"`
	CommentsCount int     `json:"comments_count"`
	Rating        float64 `json:"rating"`

	DownloadURL string `json:"download_url,omitempty"`
	Author      string `json:"author,omitempty"`
	License     string `json:"license,omitempty"`
	Repository  string `json:"repository,omitempty"`
	Featured    bool   `json:"featured,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// InCategory reports whether the skill belongs to the given category
func (s *Skill) InCategory(categoryID string) bool {
	if s.CategoryID == categoryID {
		return true
	}
	for _, c := range s.Categories {
		if c == categoryID {
			return true
		}
	}
	return false
}

// Clone returns a copy that shares no slices with s
func (s *Skill) Clone() *Skill {
	c := *s
	c.Categories = append([]string(nil), s.Categories...)
	c.Tags = append([]string(nil), s.Tags...)
	return &c
}

// ContentType identifies a block of long-form skill documentation
type ContentType string

const (
	ContentWhatIs      ContentType = "what_is"
	ContentHowToUse    ContentType = "how_to_use"
	ContentKeyFeatures ContentType = "key_features"
)

// Content is a documentation block attached to a skill
type Content struct {
	ID      string      `json:"id"`
	SkillID string      `json:"skill_id"`
	Type    ContentType `json:"content_type"`
	Text    string      `json:"content_text"`
}

// License records where a skill's source lives and how it is distributed
type License struct {
	ID      string `json:"id"`
	SkillID string `json:"skill_id"`
	Type    string `json:"license_type,omitempty"` // "github" or empty
	URL     string `json:"github_url,omitempty"`
}

// SkillDetail is the joined view served by the detail page
type SkillDetail struct {
	*Skill
	Category *Category `json:"category"`
	Contents []Content `json:"contents"`
	License  *License  `json:"license"`
}

// Category groups skills
type Category struct {
	ID   string        `json:"id"`
	Name LocalizedText `json:"name"`
	Icon string        `json:"icon,omitempty"`
}

// CategoryStyle is the icon and accent colour used to render a category
type CategoryStyle struct {
	Icon  string `json:"icon"`
	Color string `json:"color"`
}

const (
	DefaultCategoryIcon  = "📦"
	DefaultCategoryColor = "#6366f1"
)

var categoryStyles = map[string]CategoryStyle{
	"dev":           {Icon: "💻", Color: "#3b82f6"},
	"creative":      {Icon: "🎨", Color: "#8b5cf6"},
	"design":        {Icon: "🎨", Color: "#ec4899"},
	"office":        {Icon: "📄", Color: "#6366f1"},
	"productivity":  {Icon: "📈", Color: "#10b981"},
	"communication": {Icon: "💬", Color: "#f59e0b"},
	"meta":          {Icon: "🧩", Color: "#06b6d4"},
}

// Style resolves the display style, preferring the stored icon and falling back to defaults
func (c *Category) Style() CategoryStyle {
	style, ok := categoryStyles[strings.ToLower(c.Name.En)]
	if !ok {
		style, ok = categoryStyles[strings.ToLower(c.ID)]
	}
	if !ok {
		style = CategoryStyle{Icon: DefaultCategoryIcon, Color: DefaultCategoryColor}
	}
	if c.Icon != "" {
		style.Icon = c.Icon
	}
	return style
}
