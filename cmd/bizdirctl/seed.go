package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/devrev/bizdir/internal/model"
	"github.com/devrev/bizdir/internal/service"
	"github.com/devrev/bizdir/internal/validation"
	"gopkg.in/yaml.v3"
)

// seedDocument is the layout of a categories YAML file:
//
//	categories:
//	  - name: Restaurants
//	    subcategories:
//	      - name: Pizza
type seedDocument struct {
	Categories []*model.Category `yaml:"categories"`
}

type seedStats struct {
	CategoriesCreated    int
	CategoriesSkipped    int
	SubcategoriesCreated int
	SubcategoriesSkipped int
}

type categoryWriter interface {
	List(ctx context.Context) ([]*model.Category, error)
	Create(ctx context.Context, in service.CategoryInput) (*model.Category, error)
	CreateSubcategory(ctx context.Context, categoryID string, in service.CategoryInput) (*model.Subcategory, error)
}

func loadSeedFile(path string) ([]*model.Category, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}
	return parseSeed(data)
}

func parseSeed(data []byte) ([]*model.Category, error) {
	var doc seedDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse seed file: %w", err)
	}
	for i, c := range doc.Categories {
		if c == nil || strings.TrimSpace(c.Name) == "" {
			return nil, fmt.Errorf("category %d has no name", i+1)
		}
	}
	return doc.Categories, nil
}

func seedSlug(name, slug string) string {
	if s := strings.TrimSpace(slug); s != "" {
		return s
	}
	return validation.Slugify(strings.TrimSpace(name))
}

// seedCategories creates what is missing and leaves existing slugs alone.
func seedCategories(ctx context.Context, categories categoryWriter, seed []*model.Category) (seedStats, error) {
	var stats seedStats

	existing, err := categories.List(ctx)
	if err != nil {
		return stats, err
	}
	bySlug := make(map[string]*model.Category, len(existing))
	for _, c := range existing {
		bySlug[c.Slug] = c
	}

	for _, want := range seed {
		slug := seedSlug(want.Name, want.Slug)
		current, ok := bySlug[slug]
		if ok {
			stats.CategoriesSkipped++
		} else {
			current, err = categories.Create(ctx, service.CategoryInput{
				Name:        want.Name,
				Slug:        slug,
				Description: want.Description,
			})
			if err != nil {
				return stats, fmt.Errorf("category %q: %w", slug, err)
			}
			bySlug[slug] = current
			stats.CategoriesCreated++
		}

		have := make(map[string]bool, len(current.Subcategories))
		for _, sub := range current.Subcategories {
			have[sub.Slug] = true
		}
		for _, sub := range want.Subcategories {
			subSlug := seedSlug(sub.Name, sub.Slug)
			if have[subSlug] {
				stats.SubcategoriesSkipped++
				continue
			}
			if _, err := categories.CreateSubcategory(ctx, current.ID, service.CategoryInput{Name: sub.Name, Slug: subSlug}); err != nil {
				return stats, fmt.Errorf("subcategory %q of %q: %w", subSlug, slug, err)
			}
			have[subSlug] = true
			stats.SubcategoriesCreated++
		}
	}
	return stats, nil
}
