package recipe

import (
	"errors"
	"fmt"
	"strings"
)

// MealType is the slot a recipe may be served in.
type MealType string

const (
	Lunch  MealType = "pranzo"
	Dinner MealType = "cena"
)

// Category is the food group used for weekly quota accounting.
type Category string

const (
	Fish    Category = "pesce"
	Meat    Category = "carne"
	Cheese  Category = "formaggio"
	Eggs    Category = "uova"
	Legumes Category = "legumi"
)

// Categories lists every valid categoria value.
var Categories = []Category{Fish, Meat, Cheese, Eggs, Legumes}

// IsValid reports whether c is one of the known food groups.
func (c Category) IsValid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Ids of the fixed weekend dinners. Catalog recipes may not use them.
const (
	PizzaID  = "pizza"
	LiberoID = "libero"
)

// IsReservedID reports whether id belongs to a fixed weekend dinner.
func IsReservedID(id string) bool {
	return id == PizzaID || id == LiberoID
}

// ErrNotFound is returned by the repository when a recipe id is unknown.
var ErrNotFound = errors.New("recipe not found")

// Recipe is a dish available for menu selection. JSON and YAML field names
// match the ones used by the catalog files and the stored menus.
type Recipe struct {
	ID          string   `json:"id" yaml:"id"`
	Name        string   `json:"nome" yaml:"nome"`
	Type        MealType `json:"tipo,omitempty" yaml:"tipo,omitempty"`
	Category    Category `json:"categoria,omitempty" yaml:"categoria,omitempty"`
	Ingredients []string `json:"ingredienti" yaml:"ingredienti"`
	Seasons     []string `json:"stagioni,omitempty" yaml:"stagioni,omitempty"`
}

// FitsMeal reports whether the recipe can be served for the given meal.
// Recipes without a type fit both.
func (r Recipe) FitsMeal(meal MealType) bool {
	return r.Type == "" || r.Type == meal
}

// Validate checks the catalog constraints a recipe must satisfy before it is
// stored. The menu engine itself assumes recipes are already valid.
func (r Recipe) Validate() error {
	if strings.TrimSpace(r.ID) == "" {
		return fmt.Errorf("recipe %q: empty id", r.Name)
	}
	if IsReservedID(r.ID) {
		return fmt.Errorf("recipe %s: id is reserved", r.ID)
	}
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("recipe %s: empty name", r.ID)
	}
	if r.Type != "" && r.Type != Lunch && r.Type != Dinner {
		return fmt.Errorf("recipe %s: unknown tipo %q", r.ID, r.Type)
	}
	if r.Category != "" && !r.Category.IsValid() {
		return fmt.Errorf("recipe %s: unknown categoria %q", r.ID, r.Category)
	}
	if len(r.Ingredients) == 0 {
		return fmt.Errorf("recipe %s: no ingredients", r.ID)
	}
	for i, line := range r.Ingredients {
		if strings.TrimSpace(line) == "" {
			return fmt.Errorf("recipe %s: ingredient %d is empty", r.ID, i)
		}
	}
	for _, s := range r.Seasons {
		switch s {
		case "spring", "summer", "autumn", "winter":
		default:
			return fmt.Errorf("recipe %s: unknown season %q", r.ID, s)
		}
	}
	return nil
}

// Index maps recipes by id for quick lookup.
func Index(recipes []Recipe) map[string]Recipe {
	idx := make(map[string]Recipe, len(recipes))
	for _, r := range recipes {
		idx[r.ID] = r
	}
	return idx
}
