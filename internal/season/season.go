// Package season restricts a recipe catalog to the dishes that fit the
// current time of year.
package season

import (
	"fmt"
	"time"

	"meal-planner/internal/recipe"
)

// Season is one of the four recipe season tags.
type Season string

const (
	Spring Season = "spring"
	Summer Season = "summer"
	Autumn Season = "autumn"
	Winter Season = "winter"
)

// Parse converts a season tag, returning an error for unknown values.
func Parse(s string) (Season, error) {
	switch Season(s) {
	case Spring, Summer, Autumn, Winter:
		return Season(s), nil
	}
	return "", fmt.Errorf("unknown season %q", s)
}

// ForDate returns the meteorological season of t in the northern hemisphere.
func ForDate(t time.Time) Season {
	switch t.Month() {
	case time.March, time.April, time.May:
		return Spring
	case time.June, time.July, time.August:
		return Summer
	case time.September, time.October, time.November:
		return Autumn
	default:
		return Winter
	}
}

// Filter returns the recipes eligible in s. Recipes without season tags are
// always eligible. When enabled is false the input is returned unchanged.
func Filter(recipes []recipe.Recipe, s Season, enabled bool) []recipe.Recipe {
	if !enabled {
		return recipes
	}
	out := make([]recipe.Recipe, 0, len(recipes))
	for _, r := range recipes {
		if Matches(r, s) {
			out = append(out, r)
		}
	}
	return out
}

// Matches reports whether a single recipe is eligible in s.
func Matches(r recipe.Recipe, s Season) bool {
	if len(r.Seasons) == 0 {
		return true
	}
	for _, tag := range r.Seasons {
		if Season(tag) == s {
			return true
		}
	}
	return false
}
