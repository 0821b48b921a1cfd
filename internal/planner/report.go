package planner

import "meal-planner/internal/recipe"

// Stage records how a slot was filled.
type Stage int

const (
	StageUnfilled  Stage = iota // no recipe even with every rule relaxed
	StageStrict                 // all rules applied
	StageNoQuotas               // category quotas ignored
	StageNoSeason               // quotas and season ignored
	StageNoHistory              // quotas, season and history ignored
	StagePinned                 // fixed weekend dinner
)

func (s Stage) String() string {
	switch s {
	case StageStrict:
		return "strict"
	case StageNoQuotas:
		return "no-quotas"
	case StageNoSeason:
		return "no-season"
	case StageNoHistory:
		return "no-history"
	case StagePinned:
		return "pinned"
	default:
		return "unfilled"
	}
}

// SlotResult describes the outcome for one slot.
type SlotResult struct {
	Day      int             `json:"day"`
	Meal     recipe.MealType `json:"meal"`
	RecipeID string          `json:"recipe_id,omitempty"`
	Stage    Stage           `json:"stage"`
}

// Report explains a generated menu. Slots are in fill order.
type Report struct {
	Slots            []SlotResult   `json:"slots"`
	EmptyCatalog     bool           `json:"empty_catalog"`
	UnknownQuotaKeys []string       `json:"unknown_quota_keys,omitempty"`
	RemainingQuotas  map[string]int `json:"remaining_quotas,omitempty"`
}

// StageFor returns the stage of the given slot.
func (r Report) StageFor(day int, meal recipe.MealType) Stage {
	for _, s := range r.Slots {
		if s.Day == day && s.Meal == meal {
			return s.Stage
		}
	}
	return StageUnfilled
}

// Relaxed counts slots filled only after relaxing at least one rule.
func (r Report) Relaxed() int {
	n := 0
	for _, s := range r.Slots {
		if s.Stage == StageNoQuotas || s.Stage == StageNoSeason || s.Stage == StageNoHistory {
			n++
		}
	}
	return n
}

// Unfilled counts empty slots.
func (r Report) Unfilled() int {
	n := 0
	for _, s := range r.Slots {
		if s.Stage == StageUnfilled {
			n++
		}
	}
	return n
}
