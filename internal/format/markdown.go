package format

import (
	"fmt"
	"strings"

	"meal-planner/internal/ingredient"
	"meal-planner/internal/planner"
	"meal-planner/internal/shopping"
)

var markdownEscaper = strings.NewReplacer("_", "\\_", "*", "\\*", "`", "\\`", "[", "\\[")

// EscapeMarkdown escapes the characters that legacy Telegram Markdown treats
// as formatting.
func EscapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}

// Markdown renders a menu and its shopping list as two chat messages.
func Markdown(menu planner.Menu, list shopping.List) (string, string) {
	var pb strings.Builder
	pb.WriteString("📅 *Menu della settimana*\n\n")
	for day, name := range planner.DayNames {
		pb.WriteString(fmt.Sprintf("*%s*\n", name))
		pb.WriteString(fmt.Sprintf("Pranzo: %s\n", EscapeMarkdown(slotName(menu.Lunch[day]))))
		pb.WriteString(fmt.Sprintf("Cena: %s\n\n", EscapeMarkdown(slotName(menu.Dinner[day]))))
	}

	var sb strings.Builder
	sb.WriteString("🛒 *Lista della spesa*\n")
	if list.Len() == 0 {
		sb.WriteString("\n_Nessun ingrediente_\n")
	}
	for _, c := range list.Categories() {
		sb.WriteString(fmt.Sprintf("\n*%s*\n", c))
		for _, item := range list[c] {
			line := EscapeMarkdown(item.String())
			if ingredient.IsPantryStaple(item.Name) {
				line = "_" + line + "_"
			}
			sb.WriteString(fmt.Sprintf("• %s\n", line))
		}
	}

	return pb.String(), sb.String()
}
