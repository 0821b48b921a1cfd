package planner

import (
	"errors"
	"time"

	"meal-planner/internal/recipe"
)

// DaysPerWeek is the number of days in a menu, Monday first.
const DaysPerWeek = 7

// DayNames are the Italian day names, indexed Monday = 0.
var DayNames = [DaysPerWeek]string{
	"Lunedì", "Martedì", "Mercoledì", "Giovedì", "Venerdì", "Sabato", "Domenica",
}

// ErrMenuNotFound is returned when a stored menu does not exist.
var ErrMenuNotFound = errors.New("menu not found")

// Menu is one week's plan. A nil slot means no eligible recipe was found.
type Menu struct {
	ID        int64                       `json:"id,omitempty"`
	CreatedAt time.Time                   `json:"created_at,omitempty"`
	Lunch     [DaysPerWeek]*recipe.Recipe `json:"pranzo"`
	Dinner    [DaysPerWeek]*recipe.Recipe `json:"cena"`
}

// Slot returns the recipe planned for a day and meal, or nil.
func (m *Menu) Slot(day int, meal recipe.MealType) *recipe.Recipe {
	if day < 0 || day >= DaysPerWeek {
		return nil
	}
	if meal == recipe.Dinner {
		return m.Dinner[day]
	}
	return m.Lunch[day]
}

func (m *Menu) set(day int, meal recipe.MealType, r *recipe.Recipe) {
	if meal == recipe.Dinner {
		m.Dinner[day] = r
		return
	}
	m.Lunch[day] = r
}

// RecipeIDs returns the ids of every filled slot, lunches first.
func (m *Menu) RecipeIDs() []string {
	var ids []string
	for _, slots := range [][DaysPerWeek]*recipe.Recipe{m.Lunch, m.Dinner} {
		for _, r := range slots {
			if r != nil {
				ids = append(ids, r.ID)
			}
		}
	}
	return ids
}

// Synthetic recipes pinned to the weekend dinners.
var (
	Pizza  = recipe.Recipe{ID: recipe.PizzaID, Name: "Pizza", Type: recipe.Dinner}
	Libero = recipe.Recipe{ID: recipe.LiberoID, Name: "Libero", Type: recipe.Dinner}
)

// IsSynthetic reports whether id belongs to one of the pinned recipes.
func IsSynthetic(id string) bool {
	return id == Pizza.ID || id == Libero.ID
}

// pinned returns the fixed recipe for a slot, if any: pizza on Saturday
// dinner and free choice on Sunday dinner.
func pinned(day int, meal recipe.MealType) *recipe.Recipe {
	if meal != recipe.Dinner {
		return nil
	}
	switch day {
	case 5:
		r := Pizza
		return &r
	case 6:
		r := Libero
		return &r
	}
	return nil
}
