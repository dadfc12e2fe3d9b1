package models

import (
	"bytes"
	"encoding/json"
)

// Optional distinguishes a field that was omitted from one explicitly set, including to
// null or "". An explicit null decodes as Set with the zero value.
type Optional[T any] struct {
	Value T
	Set   bool
}

// Some returns a set Optional holding v
func Some[T any](v T) Optional[T] {
	return Optional[T]{Value: v, Set: true}
}

// Get returns the value and whether it was set
func (o Optional[T]) Get() (T, bool) {
	return o.Value, o.Set
}

// UnmarshalJSON implements json.Unmarshaler
func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		var zero T
		o.Value = zero
		return nil
	}
	return json.Unmarshal(data, &o.Value)
}

// SortKey orders search results
type SortKey string

const (
	SortTitle    SortKey = "title"
	SortLikes    SortKey = "likes"
	SortViews    SortKey = "views"
	SortComments SortKey = "comments"
)

// ParseSortKey returns the key, falling back to title ordering for unknown input
func ParseSortKey(s string) SortKey {
	switch k := SortKey(s); k {
	case SortLikes, SortViews, SortComments:
		return k
	}
	return SortTitle
}

// Pagination defaults
const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// ListFilters defines the search, filter, sort and page window for listing skills
type ListFilters struct {
	Keyword    string
	CategoryID string // "" or "all" means every category
	Sort       SortKey
	Page       int
	Limit      int
}

// HasCategory reports whether a concrete category filter is requested
func (f ListFilters) HasCategory() bool {
	return f.CategoryID != "" && f.CategoryID != "all"
}

// Normalized clamps page and limit to usable values
func (f ListFilters) Normalized() ListFilters {
	if f.Page < 1 {
		f.Page = DefaultPage
	}
	if f.Limit <= 0 {
		f.Limit = DefaultLimit
	}
	if f.Limit > MaxLimit {
		f.Limit = MaxLimit
	}
	f.Sort = ParseSortKey(string(f.Sort))
	return f
}

// PageMeta describes a page window over a filtered result set
type PageMeta struct {
	Total    int `json:"total"`
	Page     int `json:"page"`
	Limit    int `json:"limit"`
	LastPage int `json:"last_page"`
}

// SkillPage is one page of search results
type SkillPage struct {
	Items []*Skill `json:"data"`
	Meta  PageMeta `json:"meta"`
}

// ContentBlock is a documentation block supplied on create or update
type ContentBlock struct {
	Type ContentType `json:"content_type"`
	Text string      `json:"content_text"`
}

// SkillDraft is the administrative create request
type SkillDraft struct {
	CategoryID     string `json:"category_id"`
	CategoryNameKo string `json:"category_name_ko"`
	CategoryNameEn string `json:"category_name_en"`

	TitleKo    string `json:"title_ko"`
	TitleEn    string `json:"title_en"`
	SubTitleKo string `json:"sub_title_ko"`
	SubTitleEn string `json:"sub_title_en"`

	Icon string  `json:"icon"`
	Tags TagList `json:"tags"`

	ContentText string         `json:"content_text"`
	ContentType ContentType    `json:"content_type"`
	Contents    []ContentBlock `json:"contents"`

	// URL is the user supplied source location, kept on the license row either way
	URL string `json:"url"`

	// Derived from URL before persisting
	DownloadURL string `json:"-"`
	LicenseType string `json:"-"`
}

// Blocks merges the single content field with the block list
func (d *SkillDraft) Blocks() []ContentBlock {
	blocks := append([]ContentBlock(nil), d.Contents...)
	if d.ContentText != "" {
		ct := d.ContentType
		if ct == "" {
			ct = ContentWhatIs
		}
		blocks = append(blocks, ContentBlock{Type: ct, Text: d.ContentText})
	}
	return blocks
}

// SkillPatch is the administrative partial update. Omitted fields keep their stored value;
// fields present with null or "" clear it.
type SkillPatch struct {
	CategoryID     Optional[string] `json:"category_id"`
	CategoryNameKo Optional[string] `json:"category_name_ko"`
	CategoryNameEn Optional[string] `json:"category_name_en"`

	TitleKo    Optional[string] `json:"title_ko"`
	TitleEn    Optional[string] `json:"title_en"`
	SubTitleKo Optional[string] `json:"sub_title_ko"`
	SubTitleEn Optional[string] `json:"sub_title_en"`

	Icon Optional[string]  `json:"icon"`
	Tags Optional[TagList] `json:"tags"`

	ContentText Optional[string]      `json:"content_text"`
	ContentType Optional[ContentType] `json:"content_type"`

	URL Optional[string] `json:"url"`

	DownloadURL Optional[string] `json:"-"`
	LicenseType Optional[string] `json:"-"`
}

// MarshalJSON emits only the fields that are set, so a round trip keeps omitted fields omitted
func (p SkillPatch) MarshalJSON() ([]byte, error) {
	m := make(map[string]any)
	put := func(key string, set bool, v any) {
		if set {
			m[key] = v
		}
	}
	put("category_id", p.CategoryID.Set, p.CategoryID.Value)
	put("category_name_ko", p.CategoryNameKo.Set, p.CategoryNameKo.Value)
	put("category_name_en", p.CategoryNameEn.Set, p.CategoryNameEn.Value)
	put("title_ko", p.TitleKo.Set, p.TitleKo.Value)
	put("title_en", p.TitleEn.Set, p.TitleEn.Value)
	put("sub_title_ko", p.SubTitleKo.Set, p.SubTitleKo.Value)
	put("sub_title_en", p.SubTitleEn.Set, p.SubTitleEn.Value)
	put("icon", p.Icon.Set, p.Icon.Value)
	put("tags", p.Tags.Set, []string(p.Tags.Value))
	put("content_text", p.ContentText.Set, p.ContentText.Value)
	put("content_type", p.ContentType.Set, p.ContentType.Value)
	put("url", p.URL.Set, p.URL.Value)
	return json.Marshal(m)
}

// IsEmpty reports whether the patch changes nothing
func (p *SkillPatch) IsEmpty() bool {
	return !(p.CategoryID.Set || p.CategoryNameKo.Set || p.CategoryNameEn.Set ||
		p.TitleKo.Set || p.TitleEn.Set || p.SubTitleKo.Set || p.SubTitleEn.Set ||
		p.Icon.Set || p.Tags.Set || p.ContentText.Set || p.ContentType.Set || p.URL.Set)
}

// Apply writes the set fields onto a stored skill. Category and content fields are
// resolved by the caller.
func (p *SkillPatch) Apply(s *Skill) {
	if v, ok := p.TitleKo.Get(); ok {
		s.Title.Ko = v
	}
	if v, ok := p.TitleEn.Get(); ok {
		s.Title.En = v
	}
	if v, ok := p.SubTitleKo.Get(); ok {
		s.Subtitle.Ko = v
	}
	if v, ok := p.SubTitleEn.Get(); ok {
		s.Subtitle.En = v
	}
	if v, ok := p.Icon.Get(); ok {
		s.Icon = v
	}
	if v, ok := p.Tags.Get(); ok {
		s.Tags = append([]string(nil), v...)
	}
	if v, ok := p.DownloadURL.Get(); ok {
		s.DownloadURL = v
	}
	if v, ok := p.URL.Get(); ok {
		s.Repository = v
	}
}
