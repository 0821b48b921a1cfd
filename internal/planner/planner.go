// Package planner builds weekly lunch and dinner menus from a recipe
// catalog, honoring repetition history, seasonality and per-category quotas.
package planner

import (
	"maps"
	"math/rand/v2"
	"sync"

	"meal-planner/internal/recipe"
	"meal-planner/internal/season"
)

// RandomSource supplies the randomness used for shuffling and picking.
// *rand.Rand from math/rand/v2 satisfies it.
type RandomSource interface {
	IntN(n int) int
	Float64() float64
}

// Engine generates menus. It is safe for concurrent use.
type Engine struct {
	mu  sync.Mutex
	rnd RandomSource
}

// NewEngine creates a new Engine. A nil source uses the global generator.
func NewEngine(rnd RandomSource) *Engine {
	if rnd == nil {
		rnd = globalSource{}
	}
	return &Engine{rnd: rnd}
}

type globalSource struct{}

func (globalSource) IntN(n int) int   { return rand.IntN(n) }
func (globalSource) Float64() float64 { return rand.Float64() }

// lockedSource serializes access to a shared RandomSource.
type lockedSource struct {
	mu  *sync.Mutex
	src RandomSource
}

func (l lockedSource) IntN(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.src.IntN(n)
}

func (l lockedSource) Float64() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.src.Float64()
}

// relaxation is one step of the eligibility ladder.
type relaxation struct {
	stage         Stage
	ignoreQuotas  bool
	ignoreSeason  bool
	ignoreHistory bool
}

var ladder = []relaxation{
	{stage: StageStrict},
	{stage: StageNoQuotas, ignoreQuotas: true},
	{stage: StageNoSeason, ignoreQuotas: true, ignoreSeason: true},
	{stage: StageNoHistory, ignoreQuotas: true, ignoreSeason: true, ignoreHistory: true},
}

type slot struct {
	day  int
	meal recipe.MealType
}

// generation holds the mutable state of a single Generate call.
type generation struct {
	opts     Options
	recipes  []recipe.Recipe
	inSeason []recipe.Recipe
	rnd      RandomSource

	usedThisWeek map[string]struct{}
	recentlyUsed map[string]struct{}
	quotas       map[string]int
	usage        map[string]int
}

// Generate fills the fourteen slots of a week. Recipes, history and options
// are read only. Slots with no eligible recipe, even after every
// relaxation, are left nil and reported as StageUnfilled.
func (e *Engine) Generate(recipes []recipe.Recipe, history []Menu, opts Options) (Menu, Report) {
	g := &generation{
		opts:         opts,
		recipes:      recipes,
		inSeason:     season.Filter(recipes, opts.CurrentSeason, opts.EnableSeasonalFiltering),
		rnd:          lockedSource{mu: &e.mu, src: e.rnd},
		usedThisWeek: map[string]struct{}{Pizza.ID: {}, Libero.ID: {}},
		recentlyUsed: recentIDs(history, opts.MaxRepetitionWeeks),
	}
	if opts.UseQuotas {
		g.quotas = maps.Clone(opts.MealTypeQuotas)
		if g.quotas == nil {
			g.quotas = map[string]int{}
		}
	}
	if opts.UseWeightedSelection {
		g.usage = usageCounts(history)
	}

	report := Report{
		EmptyCatalog:     len(recipes) == 0,
		UnknownQuotaKeys: opts.UnknownQuotaKeys(),
	}

	var menu Menu
	for _, s := range g.shuffledSlots() {
		r, stage := g.fill(s)
		menu.set(s.day, s.meal, r)

		res := SlotResult{Day: s.day, Meal: s.meal, Stage: stage}
		if r != nil {
			res.RecipeID = r.ID
		}
		report.Slots = append(report.Slots, res)
	}
	report.RemainingQuotas = g.quotas
	return menu, report
}

// shuffledSlots returns all fourteen slots in a Fisher-Yates shuffled order.
func (g *generation) shuffledSlots() []slot {
	slots := make([]slot, 0, DaysPerWeek*2)
	for day := 0; day < DaysPerWeek; day++ {
		slots = append(slots, slot{day, recipe.Lunch}, slot{day, recipe.Dinner})
	}
	for i := len(slots) - 1; i > 0; i-- {
		j := g.rnd.IntN(i + 1)
		slots[i], slots[j] = slots[j], slots[i]
	}
	return slots
}

func (g *generation) fill(s slot) (*recipe.Recipe, Stage) {
	if r := pinned(s.day, s.meal); r != nil {
		g.usedThisWeek[r.ID] = struct{}{}
		return r, StagePinned
	}

	for _, step := range ladder {
		candidates := g.candidates(s.meal, step)
		if len(candidates) == 0 {
			continue
		}
		chosen := g.pick(candidates)
		g.consume(chosen)
		r := chosen
		return &r, step.stage
	}
	return nil, StageUnfilled
}

func (g *generation) candidates(meal recipe.MealType, step relaxation) []recipe.Recipe {
	pool := g.inSeason
	if step.ignoreSeason {
		pool = g.recipes
	}
	var out []recipe.Recipe
	for _, r := range pool {
		if g.canUse(r, meal, step.ignoreQuotas, step.ignoreHistory) {
			out = append(out, r)
		}
	}
	return out
}

func (g *generation) canUse(r recipe.Recipe, meal recipe.MealType, ignoreQuotas, ignoreHistory bool) bool {
	if _, used := g.usedThisWeek[r.ID]; used {
		return false
	}
	if !ignoreHistory {
		if _, recent := g.recentlyUsed[r.ID]; recent {
			return false
		}
	}
	if !r.FitsMeal(meal) {
		return false
	}
	if !ignoreQuotas && g.quotas != nil && r.Category != "" {
		if left, limited := g.quotas[string(r.Category)]; limited && left <= 0 {
			return false
		}
	}
	return true
}

// pick chooses one candidate, weighting by 1/(uses+1) when enabled.
func (g *generation) pick(candidates []recipe.Recipe) recipe.Recipe {
	if g.usage == nil {
		return candidates[g.rnd.IntN(len(candidates))]
	}

	weights := make([]float64, len(candidates))
	var total float64
	for i, r := range candidates {
		weights[i] = 1 / float64(g.usage[r.ID]+1)
		total += weights[i]
	}
	x := g.rnd.Float64() * total
	for i, w := range weights {
		x -= w
		if x < 0 {
			return candidates[i]
		}
	}
	return candidates[len(candidates)-1]
}

func (g *generation) consume(r recipe.Recipe) {
	g.usedThisWeek[r.ID] = struct{}{}
	if g.quotas == nil || r.Category == "" {
		return
	}
	if left, limited := g.quotas[string(r.Category)]; limited && left > 0 {
		g.quotas[string(r.Category)] = left - 1
	}
}

// recentIDs collects the recipe ids of the last n menus in history.
func recentIDs(history []Menu, n int) map[string]struct{} {
	ids := make(map[string]struct{})
	if n <= 0 {
		return ids
	}
	start := max(len(history)-n, 0)
	for i := start; i < len(history); i++ {
		for _, id := range history[i].RecipeIDs() {
			ids[id] = struct{}{}
		}
	}
	return ids
}

// usageCounts counts how many times each recipe appears in the whole history.
func usageCounts(history []Menu) map[string]int {
	counts := make(map[string]int)
	for i := range history {
		for _, id := range history[i].RecipeIDs() {
			counts[id]++
		}
	}
	return counts
}
