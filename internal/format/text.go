// Package format renders menus and shopping lists for people: plain text
// for terminals, HTML for email and Markdown for chat.
package format

import (
	"fmt"
	"strings"

	"meal-planner/internal/ingredient"
	"meal-planner/internal/planner"
	"meal-planner/internal/recipe"
	"meal-planner/internal/shopping"
)

// Unavailable replaces the name of an empty slot.
const Unavailable = "Non disponibile"

func slotName(r *recipe.Recipe) string {
	if r == nil {
		return Unavailable
	}
	return r.Name
}

// PlainText renders the seven days of a menu, Monday first.
func PlainText(menu planner.Menu) string {
	var sb strings.Builder
	for day, name := range planner.DayNames {
		fmt.Fprintf(&sb, "%s\n", name)
		fmt.Fprintf(&sb, "  Pranzo: %s\n", slotName(menu.Lunch[day]))
		fmt.Fprintf(&sb, "  Cena: %s\n", slotName(menu.Dinner[day]))
	}
	return sb.String()
}

// ShoppingText renders a shopping list grouped by section. Pantry staples
// are marked with an asterisk.
func ShoppingText(list shopping.List) string {
	if list.Len() == 0 {
		return "Lista della spesa vuota\n"
	}
	var sb strings.Builder
	for i, c := range list.Categories() {
		if i > 0 {
			sb.WriteString("\n")
		}
		fmt.Fprintf(&sb, "%s\n", c)
		for _, item := range list[c] {
			mark := ""
			if ingredient.IsPantryStaple(item.Name) {
				mark = " *"
			}
			fmt.Fprintf(&sb, "  - %s%s\n", item, mark)
		}
	}
	return sb.String()
}
