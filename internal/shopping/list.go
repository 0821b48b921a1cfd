// Package shopping aggregates the ingredients of a menu into a shopping
// list grouped by store section.
package shopping

import (
	"cmp"
	"slices"

	"meal-planner/internal/ingredient"
	"meal-planner/internal/planner"
	"meal-planner/internal/recipe"
)

// List maps each store section to its merged ingredients, sorted by name.
type List map[ingredient.Category][]ingredient.Parsed

// Categories returns the non-empty sections in display order. Sections not
// in ingredient.DisplayOrder come last, alphabetically.
func (l List) Categories() []ingredient.Category {
	var out []ingredient.Category
	for _, c := range ingredient.DisplayOrder {
		if len(l[c]) > 0 {
			out = append(out, c)
		}
	}
	var extra []ingredient.Category
	for c, items := range l {
		if len(items) > 0 && !slices.Contains(ingredient.DisplayOrder, c) {
			extra = append(extra, c)
		}
	}
	slices.Sort(extra)
	return append(out, extra...)
}

// Len returns the number of distinct items in the list.
func (l List) Len() int {
	n := 0
	for _, items := range l {
		n += len(items)
	}
	return n
}

// Build walks every filled slot of the menu, parses the ingredient lines
// of the matching catalog recipe and merges lines sharing name and unit.
// The pinned weekend dinners and slots whose recipe is not in the catalog
// contribute nothing. The result does not depend on slot order.
func Build(menu planner.Menu, recipes []recipe.Recipe) List {
	index := recipe.Index(recipes)

	var parsed []ingredient.Parsed
	for _, id := range menu.RecipeIDs() {
		if planner.IsSynthetic(id) {
			continue
		}
		r, ok := index[id]
		if !ok {
			continue
		}
		for _, line := range r.Ingredients {
			parsed = append(parsed, ingredient.Parse(line))
		}
	}

	// Sorting first makes quantity sums and joined texts independent of the
	// order slots were visited in.
	slices.SortFunc(parsed, func(a, b ingredient.Parsed) int {
		return cmp.Or(cmp.Compare(a.Key(), b.Key()), cmp.Compare(a.OriginalText, b.OriginalText))
	})

	merged := make(map[string]ingredient.Parsed)
	var keys []string
	for _, p := range parsed {
		prev, seen := merged[p.Key()]
		if !seen {
			merged[p.Key()] = p
			keys = append(keys, p.Key())
			continue
		}
		combined, err := ingredient.Combine(prev, p)
		if err != nil {
			// Equal keys always combine.
			continue
		}
		merged[p.Key()] = combined
	}

	list := make(List)
	for _, k := range keys {
		p := merged[k]
		list[p.Category] = append(list[p.Category], p)
	}
	for c := range list {
		slices.SortStableFunc(list[c], func(a, b ingredient.Parsed) int {
			return cmp.Or(cmp.Compare(a.Name, b.Name), cmp.Compare(a.Unit, b.Unit))
		})
	}
	return list
}
