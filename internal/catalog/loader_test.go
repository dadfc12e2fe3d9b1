package catalog

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/terra-clan/skillhub/internal/storage"
)

func TestLoadSeedCatalog(t *testing.T) {
	// Use the actual seed directory
	catalogDir := filepath.Join("..", "..", "catalog")

	if _, err := os.Stat(catalogDir); os.IsNotExist(err) {
		t.Skip("catalog directory not found, skipping")
	}

	loader := NewLoader()
	if err := loader.LoadFromDir(catalogDir); err != nil {
		t.Fatalf("LoadFromDir failed: %v", err)
	}

	if n := len(loader.Categories()); n != 7 {
		t.Errorf("expected 7 categories, got %d", n)
	}
	if n := len(loader.Entries()); n < 10 {
		t.Errorf("expected at least 10 skills, got %d", n)
	}

	art := loader.Get("algorithmic-art")
	if art == nil {
		t.Fatal("algorithmic-art not found")
	}
	if art.Skill.Title.En != "Algorithmic Art" {
		t.Errorf("unexpected title: %s", art.Skill.Title.En)
	}
	if art.Skill.CategoryID != "creative" {
		t.Errorf("expected primary category creative, got %s", art.Skill.CategoryID)
	}
	if !art.Skill.InCategory("dev") {
		t.Error("expected algorithmic-art to also be in dev")
	}
	if art.License == nil || art.License.Type != "github" {
		t.Errorf("expected github license, got %+v", art.License)
	}
	if art.Skill.DownloadURL == "" {
		t.Error("expected derived download url")
	}
	if len(art.Contents) != 3 {
		t.Errorf("expected 3 content blocks, got %d", len(art.Contents))
	}
}

func TestLoadFSSkipsBrokenSkills(t *testing.T) {
	fsys := fstest.MapFS{
		"categories.yaml": {Data: []byte(`
categories:
  - id: dev
    name: {ko: 개발, en: Dev}
`)},
		"skills/good.yaml": {Data: []byte(`
title: {en: Good}
categories: [dev]
tags: [a, b]
repository: https://example.com/good
`)},
		"skills/untitled.yaml":     {Data: []byte("id: untitled\n")},
		"skills/bad-category.yaml": {Data: []byte("title: {en: Bad}\ncategories: [nope]\n")},
		"skills/Bad_ID.yaml":       {Data: []byte("title: {en: Bad id}\n")},
		"skills/garbage.yaml":      {Data: []byte("title: [unterminated\n")},
	}

	loader := NewLoader()
	if err := loader.LoadFS(fsys); err != nil {
		t.Fatalf("LoadFS failed: %v", err)
	}

	entries := loader.Entries()
	if len(entries) != 1 {
		t.Fatalf("expected 1 skill, got %d", len(entries))
	}

	good := loader.Get("good")
	if good == nil {
		t.Fatal("id should fall back to the file name")
	}
	if good.License == nil || good.License.Type != "" || good.License.URL != "https://example.com/good" {
		t.Errorf("unexpected license: %+v", good.License)
	}
	if good.Skill.DownloadURL != "" {
		t.Errorf("non github repository must not derive a download url, got %s", good.Skill.DownloadURL)
	}
}

func TestLoadFSRequiresCategories(t *testing.T) {
	loader := NewLoader()
	if err := loader.LoadFS(fstest.MapFS{}); err == nil {
		t.Fatal("expected error without categories.yaml")
	}

	dup := fstest.MapFS{"categories.yaml": {Data: []byte(`
categories:
  - {id: dev, name: {en: Dev}}
  - {id: dev, name: {en: Dev again}}
`)}}
	if err := NewLoader().LoadFS(dup); err == nil {
		t.Fatal("expected error for duplicate category id")
	}
}

func TestSeedIntoRepository(t *testing.T) {
	fsys := fstest.MapFS{
		"categories.yaml": {Data: []byte("categories:\n  - {id: dev, name: {en: Dev}}\n")},
		"skills/tool.yaml": {Data: []byte(`
title: {ko: 도구, en: Tool}
categories: [dev]
repository: https://github.com/acme/tool
contents:
  what_is: A tool
  key_features: [fast, small]
`)},
	}

	loader := NewLoader()
	if err := loader.LoadFS(fsys); err != nil {
		t.Fatalf("LoadFS failed: %v", err)
	}

	ctx := context.Background()
	repo := storage.NewMemoryRepository()
	if err := loader.Seed(ctx, repo); err != nil {
		t.Fatalf("Seed failed: %v", err)
	}

	skill, err := repo.GetSkill(ctx, "tool")
	if err != nil || skill == nil {
		t.Fatalf("seeded skill missing: %v", err)
	}
	contents, _ := repo.GetContents(ctx, "tool")
	if len(contents) != 2 {
		t.Errorf("expected 2 content blocks, got %d", len(contents))
	}
	if contents[1].Text != "fast\nsmall" {
		t.Errorf("unexpected key features text: %q", contents[1].Text)
	}
	lic, _ := repo.GetLicense(ctx, "tool")
	if lic == nil || lic.Type != "github" {
		t.Errorf("unexpected license: %+v", lic)
	}
	if c, _ := repo.GetCategory(ctx, "dev"); c == nil {
		t.Error("seeded category missing")
	}
}
