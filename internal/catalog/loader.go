// Package catalog loads the static seed catalog from YAML files.
package catalog

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"regexp"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/terra-clan/skillhub/internal/models"
	"github.com/terra-clan/skillhub/internal/skills"
	"github.com/terra-clan/skillhub/internal/storage"
)

var idPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*$`)

// Entry is one seeded skill with its documentation
type Entry struct {
	Skill    *models.Skill
	Contents []models.Content
	License  *models.License
}

// Loader reads categories.yaml and skills/*.yaml from a seed directory
type Loader struct {
	mu sync.RWMutex

	categories    map[string]*models.Category
	categoryOrder []string

	entries map[string]*Entry
	order   []string
}

// NewLoader creates a new catalog loader
func NewLoader() *Loader {
	return &Loader{
		categories: make(map[string]*models.Category),
		entries:    make(map[string]*Entry),
	}
}

// LoadFromDir loads the seed catalog rooted at dir
func (l *Loader) LoadFromDir(dir string) error {
	slog.Info("loading catalog from directory", "dir", dir)
	return l.LoadFS(os.DirFS(dir))
}

// LoadFS loads the seed catalog from fsys. Categories must parse; a broken skill file is
// logged and skipped.
func (l *Loader) LoadFS(fsys fs.FS) error {
	if err := l.loadCategories(fsys, "categories.yaml"); err != nil {
		return err
	}

	var files []string
	for _, pattern := range []string{"skills/*.yaml", "skills/*.yml"} {
		matches, err := fs.Glob(fsys, pattern)
		if err != nil {
			continue
		}
		files = append(files, matches...)
	}

	loaded := 0
	for _, file := range files {
		if err := l.loadSkill(fsys, file); err != nil {
			slog.Warn("failed to load skill", "file", file, "error", err)
			continue
		}
		loaded++
	}

	slog.Info("catalog loaded", "categories", len(l.categoryOrder), "skills", loaded, "total_files", len(files))
	return nil
}

func (l *Loader) loadCategories(fsys fs.FS, name string) error {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", name, err)
	}

	var cf categoriesFile
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return fmt.Errorf("failed to parse %s: %w", name, err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	for _, c := range cf.Categories {
		if !idPattern.MatchString(c.ID) {
			return fmt.Errorf("invalid category id %q", c.ID)
		}
		if c.Name.IsZero() {
			return fmt.Errorf("category %s: name is required", c.ID)
		}
		if _, dup := l.categories[c.ID]; dup {
			return fmt.Errorf("duplicate category id %q", c.ID)
		}
		l.categories[c.ID] = &models.Category{ID: c.ID, Name: c.Name, Icon: c.Icon}
		l.categoryOrder = append(l.categoryOrder, c.ID)
	}
	return nil
}

func (l *Loader) loadSkill(fsys fs.FS, file string) error {
	data, err := fs.ReadFile(fsys, file)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	var sf skillFile
	if err := yaml.Unmarshal(data, &sf); err != nil {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}

	// Use id from YAML, fall back to filename without extension
	id := sf.ID
	if id == "" {
		base := path.Base(file)
		id = strings.TrimSuffix(base, path.Ext(base))
	}
	if !idPattern.MatchString(id) {
		return fmt.Errorf("invalid skill id %q", id)
	}
	if sf.Title.IsZero() {
		return fmt.Errorf("skill title is required")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, dup := l.entries[id]; dup {
		return fmt.Errorf("duplicate skill id %q", id)
	}
	for _, c := range sf.Categories {
		if _, ok := l.categories[c]; !ok {
			return fmt.Errorf("unknown category %q", c)
		}
	}

	created := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	if sf.LastUpdate != "" {
		if t, err := time.Parse("2006-01-02", sf.LastUpdate); err == nil {
			created = t
		}
	}

	skill := &models.Skill{
		ID:         id,
		Title:      sf.Title,
		Subtitle:   sf.Subtitle,
		Categories: sf.Categories,
		Icon:       sf.Icon,
		Tags:       sf.Tags,
		ViewsCount: sf.Views,
		Author:     sf.Author,
		License:    sf.License,
		Repository: sf.Repository,
		Featured:   sf.Featured,
		CreatedAt:  created,
		UpdatedAt:  created,
	}
	if len(sf.Categories) > 0 {
		skill.CategoryID = sf.Categories[0]
	}

	entry := &Entry{Skill: skill}
	if sf.Repository != "" {
		derived := skills.DeriveDownload(sf.Repository)
		skill.DownloadURL = derived.DownloadURL
		entry.License = &models.License{SkillID: id, Type: derived.LicenseType, URL: sf.Repository}
	}
	entry.Contents = sf.Contents.blocks(id)

	l.entries[id] = entry
	l.order = append(l.order, id)
	return nil
}

// Categories returns the loaded categories in file order
func (l *Loader) Categories() []*models.Category {
	l.mu.RLock()
	defer l.mu.RUnlock()

	result := make([]*models.Category, 0, len(l.categoryOrder))
	for _, id := range l.categoryOrder {
		result = append(result, l.categories[id])
	}
	return result
}

// Entries returns the loaded skills in file order
func (l *Loader) Entries() []*Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	result := make([]*Entry, 0, len(l.order))
	for _, id := range l.order {
		result = append(result, l.entries[id])
	}
	return result
}

// Get returns a seeded skill entry by ID
func (l *Loader) Get(id string) *Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.entries[id]
}

// Seed writes every loaded category and skill into repo
func (l *Loader) Seed(ctx context.Context, repo storage.Repository) error {
	for _, c := range l.Categories() {
		cp := *c
		if err := repo.CreateCategory(ctx, &cp); err != nil {
			return fmt.Errorf("failed to seed category %s: %w", c.ID, err)
		}
	}

	for _, e := range l.Entries() {
		if err := repo.CreateSkill(ctx, e.Skill.Clone()); err != nil {
			return fmt.Errorf("failed to seed skill %s: %w", e.Skill.ID, err)
		}
		for _, c := range e.Contents {
			if err := repo.UpsertContent(ctx, &c); err != nil {
				return fmt.Errorf("failed to seed content for %s: %w", e.Skill.ID, err)
			}
		}
		if e.License != nil {
			lic := *e.License
			if err := repo.UpsertLicense(ctx, &lic); err != nil {
				return fmt.Errorf("failed to seed license for %s: %w", e.Skill.ID, err)
			}
		}
	}
	return nil
}

// --- YAML file structs ---

// categoriesFile represents categories.yaml
type categoriesFile struct {
	Categories []struct {
		ID   string               `yaml:"id"`
		Name models.LocalizedText `yaml:"name"`
		Icon string               `yaml:"icon"`
	} `yaml:"categories"`
}

// skillFile represents one skills/*.yaml file
type skillFile struct {
	ID         string               `yaml:"id"`
	Title      models.LocalizedText `yaml:"title"`
	Subtitle   models.LocalizedText `yaml:"subtitle"`
	Categories []string             `yaml:"categories"`
	Icon       string               `yaml:"icon"`
	Featured   bool                 `yaml:"featured"`
	Author     string               `yaml:"author"`
	License    string               `yaml:"license"`
	Repository string               `yaml:"repository"`
	Views      int                  `yaml:"views"`
	Tags       []string             `yaml:"tags"`
	LastUpdate string               `yaml:"last_update"`
	Contents   contentsFile         `yaml:"contents"`
}

type contentsFile struct {
	WhatIs      string   `yaml:"what_is"`
	HowToUse    string   `yaml:"how_to_use"`
	KeyFeatures []string `yaml:"key_features"`
}

func (c contentsFile) blocks(skillID string) []models.Content {
	var out []models.Content
	add := func(t models.ContentType, text string) {
		if text = strings.TrimSpace(text); text != "" {
			out = append(out, models.Content{SkillID: skillID, Type: t, Text: text})
		}
	}
	add(models.ContentWhatIs, c.WhatIs)
	add(models.ContentHowToUse, c.HowToUse)
	add(models.ContentKeyFeatures, strings.Join(c.KeyFeatures, "\n"))
	return out
}
