package format

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"

	"meal-planner/internal/ingredient"
	"meal-planner/internal/planner"
	"meal-planner/internal/recipe"
	"meal-planner/internal/shopping"
)

//go:embed templates/*.tmpl
var templatesFS embed.FS

var emailTemplate = template.Must(template.ParseFS(templatesFS, "templates/email.html.tmpl"))

type emailDay struct {
	Name   string
	Lunch  string
	Dinner string
}

type emailItem struct {
	Text   string
	Staple bool
}

type emailSection struct {
	Name  string
	Items []emailItem
}

type emailData struct {
	Days     []emailDay
	Sections []emailSection
}

// HTMLEmail renders the menu and its shopping list, built from recipes, as
// a standalone HTML document. Pantry staples carry the "staple" class.
func HTMLEmail(menu planner.Menu, recipes []recipe.Recipe) (string, error) {
	data := emailData{}
	for day, name := range planner.DayNames {
		data.Days = append(data.Days, emailDay{
			Name:   name,
			Lunch:  slotName(menu.Lunch[day]),
			Dinner: slotName(menu.Dinner[day]),
		})
	}

	list := shopping.Build(menu, recipes)
	for _, c := range list.Categories() {
		section := emailSection{Name: string(c)}
		for _, item := range list[c] {
			section.Items = append(section.Items, emailItem{
				Text:   item.String(),
				Staple: ingredient.IsPantryStaple(item.Name),
			})
		}
		data.Sections = append(data.Sections, section)
	}

	var buf bytes.Buffer
	if err := emailTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render email template: %w", err)
	}
	return buf.String(), nil
}
