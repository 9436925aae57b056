package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"vividplate/internal/service"

	"gopkg.in/yaml.v3"
)

type menuFile struct {
	Categories []menuFileCategory `yaml:"categories"`
}

type menuFileCategory struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Items       []menuFileItem `yaml:"items"`
}

type menuFileItem struct {
	Name        string          `yaml:"name"`
	Description string          `yaml:"description"`
	Price       string          `yaml:"price"`
	Tags        []string        `yaml:"tags"`
	Allergens   []string        `yaml:"allergens"`
	DietaryInfo map[string]bool `yaml:"dietary_info"`
	Calories    *int            `yaml:"calories"`
	Unavailable bool            `yaml:"unavailable"`
}

func parseMenuFile(raw []byte) (*menuFile, error) {
	var f menuFile
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("parse menu file: %w", err)
	}
	if len(f.Categories) == 0 {
		return nil, errors.New("menu file has no categories")
	}
	for i, c := range f.Categories {
		if strings.TrimSpace(c.Name) == "" {
			return nil, fmt.Errorf("category %d has no name", i+1)
		}
	}
	return &f, nil
}

// importMenu creates everything through the menu service so the usual
// validation and cache invalidation apply.
func importMenu(ctx context.Context, menus *service.MenuService, restaurantID uint, f *menuFile) (int, int, error) {
	actor := service.Actor{IsAdmin: true}
	cats, items := 0, 0
	for _, c := range f.Categories {
		name, desc := c.Name, c.Description
		cat, err := menus.CreateCategory(ctx, actor, restaurantID, service.CategoryInput{Name: &name, Description: &desc})
		if err != nil {
			return cats, items, fmt.Errorf("category %q: %w", c.Name, err)
		}
		cats++

		for order, it := range c.Items {
			in := service.ItemInput{
				Name:         &it.Name,
				Description:  &it.Description,
				Price:        &it.Price,
				Calories:     it.Calories,
				DisplayOrder: &order,
			}
			if it.Tags != nil {
				in.Tags = &it.Tags
			}
			if it.Allergens != nil {
				in.Allergens = &it.Allergens
			}
			if it.DietaryInfo != nil {
				in.DietaryInfo = &it.DietaryInfo
			}
			available := !it.Unavailable
			in.IsAvailable = &available

			if _, err := menus.CreateItem(ctx, actor, cat.ID, in); err != nil {
				return cats, items, fmt.Errorf("item %q: %w", it.Name, err)
			}
			items++
		}
	}
	return cats, items, nil
}
