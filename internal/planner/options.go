package planner

import (
	"maps"

	"meal-planner/internal/recipe"
	"meal-planner/internal/season"
)

// Options tunes a single generation run. The engine never modifies them.
type Options struct {
	// MaxRepetitionWeeks is how many of the most recent history entries are
	// excluded from reselection.
	MaxRepetitionWeeks int `json:"maxRepetitionWeeks" mapstructure:"max_repetition_weeks"`

	UseQuotas bool `json:"useQuotas" mapstructure:"use_quotas"`
	// MealTypeQuotas caps how many recipes of each categoria one week may hold.
	// Keys that match no categoria never limit anything.
	MealTypeQuotas map[string]int `json:"mealTypeQuotas" mapstructure:"meal_type_quotas"`

	// UseWeightedSelection favours recipes that appear less often in history.
	UseWeightedSelection bool `json:"useWeightedSelection" mapstructure:"use_weighted_selection"`

	EnableSeasonalFiltering bool          `json:"enableSeasonalFiltering" mapstructure:"enable_seasonal_filtering"`
	CurrentSeason           season.Season `json:"currentSeason" mapstructure:"current_season"`
}

// DefaultOptions returns the settings used when the caller has none.
func DefaultOptions() Options {
	return Options{
		MaxRepetitionWeeks: 2,
		UseQuotas:          true,
		MealTypeQuotas: map[string]int{
			string(recipe.Fish):    2,
			string(recipe.Meat):    3,
			string(recipe.Cheese):  2,
			string(recipe.Eggs):    2,
			string(recipe.Legumes): 3,
		},
		UseWeightedSelection: true,
	}
}

// Clone returns a deep copy of o.
func (o Options) Clone() Options {
	c := o
	c.MealTypeQuotas = maps.Clone(o.MealTypeQuotas)
	return c
}

// UnknownQuotaKeys lists quota keys that are not a known categoria.
func (o Options) UnknownQuotaKeys() []string {
	var unknown []string
	for k := range o.MealTypeQuotas {
		if !recipe.Category(k).IsValid() {
			unknown = append(unknown, k)
		}
	}
	return unknown
}
