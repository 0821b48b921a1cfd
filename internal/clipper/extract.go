package clipper

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"meal-planner/internal/ghost"
	"meal-planner/internal/recipe"
)

// Extracted is what could be read from a recipe page without an LLM.
type Extracted struct {
	Name        string
	Ingredients []string
}

// ExtractHTML reads the recipe name and ingredient lines from a page. It
// prefers schema.org Recipe JSON-LD and falls back to the list that follows
// an "Ingredienti" heading.
func ExtractHTML(doc *goquery.Document) Extracted {
	var out Extracted
	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if name, ingredients, ok := fromJSONLD([]byte(s.Text())); ok {
			out = Extracted{Name: name, Ingredients: ingredients}
			return false
		}
		return true
	})
	if len(out.Ingredients) > 0 {
		if out.Name == "" {
			out.Name = pageTitle(doc)
		}
		return out
	}

	out.Name = pageTitle(doc)
	out.Ingredients = listAfterHeading(doc.Selection, "ingredienti", "ingredients")
	return out
}

func pageTitle(doc *goquery.Document) string {
	if og, ok := doc.Find(`meta[property="og:title"]`).Attr("content"); ok && strings.TrimSpace(og) != "" {
		return strings.TrimSpace(og)
	}
	if h1 := strings.TrimSpace(doc.Find("h1").First().Text()); h1 != "" {
		return h1
	}
	return strings.TrimSpace(doc.Find("title").First().Text())
}

// fromJSONLD looks for a Recipe node in a JSON-LD blob, which may be a
// single object, an array or an object with an @graph.
func fromJSONLD(raw []byte) (string, []string, bool) {
	var node any
	if err := json.Unmarshal(raw, &node); err != nil {
		return "", nil, false
	}
	return findRecipeNode(node)
}

func findRecipeNode(node any) (string, []string, bool) {
	switch v := node.(type) {
	case []any:
		for _, item := range v {
			if name, ing, ok := findRecipeNode(item); ok {
				return name, ing, true
			}
		}
	case map[string]any:
		if graph, ok := v["@graph"]; ok {
			if name, ing, ok := findRecipeNode(graph); ok {
				return name, ing, true
			}
		}
		if !isRecipeType(v["@type"]) {
			return "", nil, false
		}
		var ingredients []string
		if list, ok := v["recipeIngredient"].([]any); ok {
			for _, item := range list {
				if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
					ingredients = append(ingredients, cleanLine(s))
				}
			}
		}
		name, _ := v["name"].(string)
		return strings.TrimSpace(name), ingredients, len(ingredients) > 0
	}
	return "", nil, false
}

func isRecipeType(t any) bool {
	switch v := t.(type) {
	case string:
		return v == "Recipe"
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok && s == "Recipe" {
				return true
			}
		}
	}
	return false
}

// listAfterHeading returns the items of the first list that follows a
// heading containing one of the given words.
func listAfterHeading(root *goquery.Selection, words ...string) []string {
	var items []string
	root.Find("h1, h2, h3, h4, p > strong, p > b").EachWithBreak(func(_ int, h *goquery.Selection) bool {
		text := strings.ToLower(h.Text())
		matched := false
		for _, w := range words {
			if strings.Contains(text, w) {
				matched = true
				break
			}
		}
		if !matched {
			return true
		}

		anchor := h
		if goquery.NodeName(h) == "strong" || goquery.NodeName(h) == "b" {
			anchor = h.Parent()
		}
		list := anchor.NextAllFiltered("ul, ol").First()
		list.Find("li").Each(func(_ int, li *goquery.Selection) {
			if line := cleanLine(li.Text()); line != "" {
				items = append(items, line)
			}
		})
		return len(items) == 0
	})
	return items
}

func cleanLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

var seasonTags = map[string]string{
	"spring": "spring", "primavera": "spring",
	"summer": "summer", "estate": "summer",
	"autumn": "autumn", "autunno": "autumn",
	"winter": "winter", "inverno": "winter",
}

// FromPost converts a Ghost recipe post into a catalog recipe. Tags named
// after a meal, a food group or a season fill tipo, categoria and stagioni.
func FromPost(post ghost.Post) (recipe.Recipe, error) {
	r := recipe.Recipe{
		ID:   "ghost-" + post.ID,
		Name: strings.TrimSpace(post.Title),
	}

	for _, tag := range post.Tags {
		name := strings.ToLower(strings.TrimSpace(tag.Name))
		switch {
		case name == string(recipe.Lunch) || name == string(recipe.Dinner):
			r.Type = recipe.MealType(name)
		case recipe.Category(name).IsValid():
			r.Category = recipe.Category(name)
		case seasonTags[name] != "":
			r.Seasons = append(r.Seasons, seasonTags[name])
		}
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(post.HTML))
	if err != nil {
		return recipe.Recipe{}, fmt.Errorf("failed to parse post %s: %w", post.ID, err)
	}
	r.Ingredients = ExtractHTML(doc).Ingredients
	if len(r.Ingredients) == 0 {
		// Older posts list ingredients without a heading.
		doc.Find("ul").First().Find("li").Each(func(_ int, li *goquery.Selection) {
			if line := cleanLine(li.Text()); line != "" {
				r.Ingredients = append(r.Ingredients, line)
			}
		})
	}

	if err := r.Validate(); err != nil {
		return recipe.Recipe{}, err
	}
	return r, nil
}
