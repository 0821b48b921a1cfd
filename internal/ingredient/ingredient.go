// Package ingredient turns free-text Italian ingredient lines into
// quantities, canonical units, normalized names and store sections.
package ingredient

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Category is the store section an ingredient is shopped in.
type Category string

const (
	Produce  Category = "Frutta e Verdura"
	MeatFish Category = "Carne e Pesce"
	Dairy    Category = "Latticini"
	Pantry   Category = "Dispensa"
	Other    Category = "Varie"
)

// DisplayOrder is the order sections are shown in shopping lists.
var DisplayOrder = []Category{Produce, MeatFish, Dairy, Pantry, Other}

// DefaultUnit is used when a line carries no recognizable unit.
const DefaultUnit = "pz"

// ErrIncompatible is returned when combining ingredients whose name or unit differ.
var ErrIncompatible = errors.New("ingredients have different name or unit")

// Parsed is a single ingredient line after parsing.
type Parsed struct {
	Name         string   `json:"name"`
	Quantity     float64  `json:"quantity"`
	Unit         string   `json:"unit"`
	OriginalText string   `json:"original_text"`
	Category     Category `json:"category"`
}

// Key identifies ingredients that may be merged.
func (p Parsed) Key() string {
	return p.Name + "-" + p.Unit
}

// String renders the ingredient for a shopping list line.
func (p Parsed) String() string {
	qty := strconv.FormatFloat(p.Quantity, 'f', -1, 64)
	if p.Unit == DefaultUnit {
		if p.Quantity == 1 {
			return p.Name
		}
		return fmt.Sprintf("%s (%s)", p.Name, qty)
	}
	return fmt.Sprintf("%s %s %s", qty, p.Unit, p.Name)
}

const number = `(\d+(?:[.,]\d+)?)`

// Weight, volume and piece patterns, tried in order; the first match wins.
var unitPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^` + number + `\s*(g|gr|grammi|grammo|kg|chili|chilo|chilogrammi|chilogrammo)\.?\s+(?:di\s+)?(.+)$`),
	regexp.MustCompile(`^` + number + `\s*(ml|millilitri|l|lt|litro|litri)\.?\s+(?:di\s+)?(.+)$`),
	regexp.MustCompile(`^` + number + `\s*(pezzi|pezzo|pz|n°|numero)\.?\s+(?:di\s+)?(.+)$`),
}

var bareNumber = regexp.MustCompile(`^` + number + `\s+(.+)$`)

var unitSynonyms = map[string]string{
	"g":           "g",
	"gr":          "g",
	"grammi":      "g",
	"grammo":      "g",
	"kg":          "kg",
	"chili":       "kg",
	"chilo":       "kg",
	"chilogrammi": "kg",
	"chilogrammo": "kg",
	"ml":          "ml",
	"millilitri":  "ml",
	"l":           "l",
	"lt":          "l",
	"litro":       "l",
	"litri":       "l",
	"pezzi":       "pz",
	"pezzo":       "pz",
	"pz":          "pz",
	"n°":          "pz",
	"numero":      "pz",
}

// NormalizeUnit maps a unit token to its canonical short form.
func NormalizeUnit(unit string) string {
	if canonical, ok := unitSynonyms[strings.ToLower(unit)]; ok {
		return canonical
	}
	return DefaultUnit
}

// Parse reads a free-text ingredient line. It never fails: text that
// matches no pattern becomes a single piece named after the whole line.
func Parse(text string) Parsed {
	original := strings.TrimSpace(text)
	lower := strings.ToLower(original)

	for _, re := range unitPatterns {
		if m := re.FindStringSubmatch(lower); m != nil {
			return build(original, m[3], parseQuantity(m[1]), NormalizeUnit(m[2]))
		}
	}
	if m := bareNumber.FindStringSubmatch(lower); m != nil {
		return build(original, m[2], parseQuantity(m[1]), DefaultUnit)
	}
	return build(original, lower, 1, DefaultUnit)
}

func build(original, rawName string, qty float64, unit string) Parsed {
	name := NormalizeName(rawName)
	if name == "" {
		name = strings.TrimSpace(rawName)
	}
	return Parsed{
		Name:         name,
		Quantity:     qty,
		Unit:         unit,
		OriginalText: original,
		Category:     Categorize(name),
	}
}

// parseQuantity accepts "1,5" and "1.5" alike. There is no thousands
// separator: "1.000" is one, not a thousand.
func parseQuantity(s string) float64 {
	q, err := strconv.ParseFloat(strings.Replace(s, ",", ".", 1), 64)
	if err != nil || q <= 0 {
		return 1
	}
	return q
}

// Combine merges two parsed ingredients with the same name and unit,
// summing quantities and keeping both original lines.
func Combine(a, b Parsed) (Parsed, error) {
	if a.Name != b.Name || a.Unit != b.Unit {
		return Parsed{}, fmt.Errorf("%w: %s vs %s", ErrIncompatible, a.Key(), b.Key())
	}
	merged := a
	merged.Quantity = a.Quantity + b.Quantity
	merged.OriginalText = a.OriginalText + " + " + b.OriginalText
	return merged, nil
}
