package clipper

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"meal-planner/internal/llm"
	"meal-planner/internal/recipe"
	"meal-planner/internal/shared"
)

// ErrNoRecipe is returned when a page holds no readable ingredient list.
var ErrNoRecipe = errors.New("no recipe found on page")

// maxPromptChars bounds the page text sent to the model.
const maxPromptChars = 12000

// Clipper handles fetching and extracting recipes from URLs.
type Clipper struct {
	httpClient *http.Client
	textGen    llm.TextGenerator
}

// NewClipper creates a new Clipper instance. textGen may be nil, in which
// case only pages with structured ingredient data can be clipped.
func NewClipper(textGen llm.TextGenerator) *Clipper {
	return &Clipper{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		textGen:    textGen,
	}
}

// Clipped is a recipe read from a web page.
type Clipped struct {
	Recipe    recipe.Recipe
	SourceURL string
	// Meta is set when the model was used.
	Meta *shared.AgentMeta
}

// extractedRecipe is the JSON shape the model is asked to return.
type extractedRecipe struct {
	Name        string   `json:"nome"`
	Type        string   `json:"tipo"`
	Category    string   `json:"categoria"`
	Ingredients []string `json:"ingredienti"`
	Seasons     []string `json:"stagioni"`
}

// ClipURL fetches the URL and turns it into a catalog recipe with a fresh id.
func (c *Clipper) ClipURL(ctx context.Context, url string) (*Clipped, error) {
	doc, err := c.fetch(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch content: %w", err)
	}

	clipped := &Clipped{SourceURL: url}
	if ex := ExtractHTML(doc); len(ex.Ingredients) > 0 {
		clipped.Recipe = recipe.Recipe{Name: ex.Name, Ingredients: ex.Ingredients}
	} else {
		if c.textGen == nil {
			return nil, ErrNoRecipe
		}
		zap.S().Infow("No structured ingredients, asking the model", "url", url)
		r, meta, err := c.extractWithLLM(ctx, cleanText(doc))
		if err != nil {
			return nil, err
		}
		clipped.Recipe = r
		clipped.Meta = meta
	}

	clipped.Recipe.ID = uuid.NewString()
	if err := clipped.Recipe.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoRecipe, err)
	}
	return clipped, nil
}

func (c *Clipper) fetch(ctx context.Context, url string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "meal-planner/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch URL: status %d", resp.StatusCode)
	}

	return goquery.NewDocumentFromReader(resp.Body)
}

// cleanText strips noise from the page to save tokens and returns the
// body text.
func cleanText(doc *goquery.Document) string {
	doc.Find("script, style, nav, footer, iframe, ads, .ads, #ads").Remove()
	text := strings.Join(strings.Fields(doc.Find("body").Text()), " ")
	if len(text) > maxPromptChars {
		text = text[:maxPromptChars]
	}
	return text
}

func (c *Clipper) extractWithLLM(ctx context.Context, content string) (recipe.Recipe, *shared.AgentMeta, error) {
	prompt := fmt.Sprintf(`
Sei un esperto di ricette. Estrai la ricetta dal testo seguente.
Rispondi solo con un oggetto JSON con questa struttura:
{
  "nome": "Nome della ricetta",
  "tipo": "pranzo" | "cena" | "",
  "categoria": "pesce" | "carne" | "formaggio" | "uova" | "legumi" | "",
  "ingredienti": ["200 g pasta", "2 pomodori", ...],
  "stagioni": ["spring" | "summer" | "autumn" | "winter", ...]
}
Lascia vuoti i campi che non puoi dedurre.

Testo:
%s
`, content)

	start := time.Now()
	resp, err := c.textGen.GenerateContent(ctx, prompt)
	if err != nil {
		return recipe.Recipe{}, nil, fmt.Errorf("ai extraction failed: %w", err)
	}
	meta := &shared.AgentMeta{AgentName: "clipper", Usage: resp.Usage, Latency: time.Since(start)}

	var ex extractedRecipe
	if err := json.Unmarshal([]byte(stripFences(resp.Content)), &ex); err != nil {
		return recipe.Recipe{}, meta, fmt.Errorf("failed to parse AI response: %w. Response: %s", err, resp.Content)
	}

	r := recipe.Recipe{Name: strings.TrimSpace(ex.Name), Ingredients: ex.Ingredients}
	// Values outside the known sets are dropped rather than rejected.
	if mt := recipe.MealType(ex.Type); mt == recipe.Lunch || mt == recipe.Dinner {
		r.Type = mt
	}
	if cat := recipe.Category(ex.Category); cat.IsValid() {
		r.Category = cat
	}
	for _, s := range ex.Seasons {
		if canonical := seasonTags[strings.ToLower(s)]; canonical != "" {
			r.Seasons = append(r.Seasons, canonical)
		}
	}
	return r, meta, nil
}

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// RecipeHTML renders a clipped recipe as the body of a Ghost post, with the
// ingredients under the heading FromPost looks for.
func RecipeHTML(r recipe.Recipe, sourceURL string) string {
	var sb strings.Builder
	if sourceURL != "" {
		u := html.EscapeString(sourceURL)
		sb.WriteString(fmt.Sprintf("<p><i>Importata da: <a href=\"%s\">%s</a></i></p>", u, u))
	}

	sb.WriteString("<h2>Ingredienti</h2><ul>")
	for _, ing := range r.Ingredients {
		sb.WriteString(fmt.Sprintf("<li>%s</li>", html.EscapeString(ing)))
	}
	sb.WriteString("</ul>")
	return sb.String()
}

// Tags returns the Ghost tags that FromPost maps back onto the recipe.
func Tags(r recipe.Recipe) []string {
	var tags []string
	if r.Type != "" {
		tags = append(tags, string(r.Type))
	}
	if r.Category != "" {
		tags = append(tags, string(r.Category))
	}
	return append(tags, r.Seasons...)
}
