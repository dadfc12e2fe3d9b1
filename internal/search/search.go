// Package search filters, orders and pages catalog entries in memory.
package search

import (
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/terra-clan/skillhub/internal/models"
)

// Matcher tests skills against one keyword. Build it once per query.
type Matcher struct {
	keyword  string
	jamo     string
	initials bool
	compact  string // keyword without spaces, for initials matching
}

// NewMatcher prepares a keyword. An empty or blank keyword matches everything.
func NewMatcher(keyword string) *Matcher {
	kw := strings.ToLower(strings.TrimSpace(keyword))
	return &Matcher{
		keyword:  kw,
		jamo:     Disassemble(kw),
		initials: IsInitialsQuery(kw),
		compact:  stripSpaces(kw),
	}
}

// Empty reports whether the matcher applies no filter
func (m *Matcher) Empty() bool {
	return m.keyword == ""
}

// MatchText reports whether one normalized field matches. The jamo comparison subsumes a
// plain substring check and also accepts a partially typed final syllable. A keyword of
// bare consonants is additionally compared against the field's leading consonants,
// ignoring spaces on both sides.
func (m *Matcher) MatchText(field string) bool {
	if m.Empty() {
		return true
	}
	if field == "" {
		return false
	}
	if strings.Contains(Disassemble(field), m.jamo) {
		return true
	}
	return m.initials && strings.Contains(stripSpaces(Initials(field)), m.compact)
}

func stripSpaces(s string) string {
	return strings.Join(strings.Fields(s), "")
}

// Match reports whether any searchable field of the skill matches
func (m *Matcher) Match(s *models.Skill) bool {
	if m.Empty() {
		return true
	}
	fields := [...]string{
		NormalizeField(s.Title.Ko),
		NormalizeField(s.Title.En),
		NormalizeField(s.Subtitle.Ko),
		NormalizeField(s.Subtitle.En),
		NormalizeList(s.Tags),
	}
	for _, f := range fields {
		if m.MatchText(f) {
			return true
		}
	}
	return false
}

// Filter keeps skills in the category (when one is given) that match the keyword.
// Input order is preserved.
func Filter(skills []*models.Skill, categoryID, keyword string) []*models.Skill {
	f := models.ListFilters{CategoryID: categoryID}
	m := NewMatcher(keyword)

	out := make([]*models.Skill, 0, len(skills))
	for _, s := range skills {
		if f.HasCategory() && !s.InCategory(categoryID) {
			continue
		}
		if !m.Match(s) {
			continue
		}
		out = append(out, s)
	}
	return out
}

// Sort orders skills in place. Counter keys sort descending, title sorts ascending with
// Korean collation on the Korean title. Ties keep their input order.
func Sort(skills []*models.Skill, key models.SortKey) {
	var less func(a, b *models.Skill) bool
	switch models.ParseSortKey(string(key)) {
	case models.SortLikes:
		less = func(a, b *models.Skill) bool { return a.LikesCount > b.LikesCount }
	case models.SortViews:
		less = func(a, b *models.Skill) bool { return a.ViewsCount > b.ViewsCount }
	case models.SortComments:
		less = func(a, b *models.Skill) bool { return a.CommentsCount > b.CommentsCount }
	default:
		// Collator keeps internal buffers; one per call.
		col := collate.New(language.Korean)
		less = func(a, b *models.Skill) bool { return col.CompareString(a.Title.Ko, b.Title.Ko) < 0 }
	}
	sort.SliceStable(skills, func(i, j int) bool { return less(skills[i], skills[j]) })
}

// Paginate slices one page. total counts the whole input; a page past the end is empty.
func Paginate(skills []*models.Skill, page, limit int) ([]*models.Skill, models.PageMeta) {
	f := models.ListFilters{Page: page, Limit: limit}.Normalized()
	total := len(skills)
	meta := models.PageMeta{
		Total:    total,
		Page:     f.Page,
		Limit:    f.Limit,
		LastPage: (total + f.Limit - 1) / f.Limit,
	}

	start := (f.Page - 1) * f.Limit
	if start >= total {
		return []*models.Skill{}, meta
	}
	end := start + f.Limit
	if end > total {
		end = total
	}
	return skills[start:end], meta
}

// Run applies category narrowing, keyword filtering, sorting and pagination.
// The input slice is not modified.
func Run(skills []*models.Skill, filters models.ListFilters) *models.SkillPage {
	f := filters.Normalized()
	matched := Filter(skills, f.CategoryID, f.Keyword)
	Sort(matched, f.Sort)
	items, meta := Paginate(matched, f.Page, f.Limit)
	return &models.SkillPage{Items: items, Meta: meta}
}
