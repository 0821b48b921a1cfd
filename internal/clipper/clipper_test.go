package clipper

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"meal-planner/internal/ghost"
	"meal-planner/internal/llm"
	"meal-planner/internal/recipe"
	"meal-planner/internal/shared"
)

type MockTextGenerator struct {
	Response    string
	ShouldError bool
	Prompts     []string
}

func (m *MockTextGenerator) GenerateContent(ctx context.Context, prompt string) (llm.ContentResponse, error) {
	m.Prompts = append(m.Prompts, prompt)
	if m.ShouldError {
		return llm.ContentResponse{}, fmt.Errorf("mock ai error")
	}
	return llm.ContentResponse{
		Content: m.Response,
		Usage:   shared.TokenUsage{PromptTokens: 10, CompletionTokens: 5, Model: "mock"},
	}, nil
}

func serve(t *testing.T, body string) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(body))
	}))
	t.Cleanup(ts.Close)
	return ts
}

const jsonLDPage = `<html><head>
<title>Sito | Pasta</title>
<script type="application/ld+json">
{"@context": "https://schema.org", "@graph": [
  {"@type": "WebPage", "name": "Pagina"},
  {"@type": ["Recipe"], "name": "Pasta al pomodoro",
   "recipeIngredient": ["320 g  spaghetti", "400 g pomodori pelati", " "]}
]}
</script></head><body><h1>Altro</h1></body></html>`

const headingPage = `<html><head><meta property="og:title" content="Frittata di zucchine"></head>
<body>
  <h1>Una frittata</h1>
  <p>Introduzione.</p>
  <h2>Ingredienti per 4 persone</h2>
  <p>Servono:</p>
  <ul><li>6 uova</li><li>2 zucchine</li><li>sale q.b.</li></ul>
  <h2>Preparazione</h2>
  <ol><li>Sbattere le uova.</li></ol>
</body></html>`

const plainPage = `<html>
<head><script>alert('bad');</script></head>
<body>
  <h1>Vellutata</h1>
  <div class="ads">Buy stuff!</div>
  <p>Prendi una zucca e due patate, cuoci tutto.</p>
  <script>more_bad_stuff()</script>
  <footer>Copyright 2024</footer>
</body></html>`

func TestExtractHTML(t *testing.T) {
	t.Run("JSONLD", func(t *testing.T) {
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(jsonLDPage))
		require.NoError(t, err)

		ex := ExtractHTML(doc)
		assert.Equal(t, "Pasta al pomodoro", ex.Name)
		assert.Equal(t, []string{"320 g spaghetti", "400 g pomodori pelati"}, ex.Ingredients)
	})

	t.Run("Heading", func(t *testing.T) {
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(headingPage))
		require.NoError(t, err)

		ex := ExtractHTML(doc)
		assert.Equal(t, "Frittata di zucchine", ex.Name)
		assert.Equal(t, []string{"6 uova", "2 zucchine", "sale q.b."}, ex.Ingredients)
	})

	t.Run("BoldHeading", func(t *testing.T) {
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(
			`<body><p><strong>Ingredients</strong></p><ul><li>1 egg</li></ul></body>`))
		require.NoError(t, err)

		assert.Equal(t, []string{"1 egg"}, ExtractHTML(doc).Ingredients)
	})

	t.Run("Nothing", func(t *testing.T) {
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(plainPage))
		require.NoError(t, err)

		ex := ExtractHTML(doc)
		assert.Equal(t, "Vellutata", ex.Name)
		assert.Empty(t, ex.Ingredients)
	})
}

func TestClipURL(t *testing.T) {
	ctx := context.Background()

	t.Run("StructuredPageSkipsModel", func(t *testing.T) {
		gen := &MockTextGenerator{}
		c := NewClipper(gen)

		clipped, err := c.ClipURL(ctx, serve(t, jsonLDPage).URL)
		require.NoError(t, err)
		assert.Equal(t, "Pasta al pomodoro", clipped.Recipe.Name)
		assert.Len(t, clipped.Recipe.Ingredients, 2)
		assert.Nil(t, clipped.Meta)
		assert.Empty(t, gen.Prompts)

		_, err = uuid.Parse(clipped.Recipe.ID)
		assert.NoError(t, err)
	})

	t.Run("ModelFallback", func(t *testing.T) {
		gen := &MockTextGenerator{Response: "```json\n" + `{
			"nome": "Vellutata di zucca",
			"tipo": "cena",
			"categoria": "verdura",
			"ingredienti": ["500 g zucca", "2 patate"],
			"stagioni": ["autunno", "winter", "monsoon"]
		}` + "\n```"}
		c := NewClipper(gen)
		ts := serve(t, plainPage)

		clipped, err := c.ClipURL(ctx, ts.URL)
		require.NoError(t, err)
		assert.Equal(t, "Vellutata di zucca", clipped.Recipe.Name)
		assert.Equal(t, recipe.Dinner, clipped.Recipe.Type)
		assert.Empty(t, clipped.Recipe.Category, "unknown categoria is dropped")
		assert.Equal(t, []string{"autumn", "winter"}, clipped.Recipe.Seasons)
		assert.Equal(t, ts.URL, clipped.SourceURL)
		require.NotNil(t, clipped.Meta)
		assert.Equal(t, "clipper", clipped.Meta.AgentName)
		assert.Equal(t, 10, clipped.Meta.Usage.PromptTokens)

		require.Len(t, gen.Prompts, 1)
		prompt := gen.Prompts[0]
		assert.Contains(t, prompt, "Prendi una zucca")
		assert.NotContains(t, prompt, "alert('bad')")
		assert.NotContains(t, prompt, "Buy stuff!")
		assert.NotContains(t, prompt, "Copyright 2024")
	})

	t.Run("NoModel", func(t *testing.T) {
		c := NewClipper(nil)
		_, err := c.ClipURL(ctx, serve(t, plainPage).URL)
		assert.ErrorIs(t, err, ErrNoRecipe)
	})

	t.Run("ModelError", func(t *testing.T) {
		c := NewClipper(&MockTextGenerator{ShouldError: true})
		_, err := c.ClipURL(ctx, serve(t, plainPage).URL)
		assert.ErrorContains(t, err, "ai extraction failed")
	})

	t.Run("ModelReturnsGarbage", func(t *testing.T) {
		c := NewClipper(&MockTextGenerator{Response: "non lo so"})
		_, err := c.ClipURL(ctx, serve(t, plainPage).URL)
		assert.ErrorContains(t, err, "failed to parse AI response")
	})

	t.Run("ModelFindsNoIngredients", func(t *testing.T) {
		c := NewClipper(&MockTextGenerator{Response: `{"nome": "Vuota", "ingredienti": []}`})
		_, err := c.ClipURL(ctx, serve(t, plainPage).URL)
		assert.True(t, errors.Is(err, ErrNoRecipe))
	})

	t.Run("HTTPError", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer ts.Close()

		_, err := NewClipper(nil).ClipURL(ctx, ts.URL)
		assert.ErrorContains(t, err, "status 404")
	})
}

func TestRecipeHTMLRoundTrip(t *testing.T) {
	r := recipe.Recipe{
		ID:          "x",
		Name:        "Pasta & fagioli",
		Type:        recipe.Lunch,
		Category:    recipe.Legumes,
		Ingredients: []string{"200 g pasta", "<b>fagioli</b>"},
		Seasons:     []string{"winter"},
	}

	html := RecipeHTML(r, "https://example.com/?a=1&b=2")
	assert.Contains(t, html, "&lt;b&gt;fagioli&lt;/b&gt;")
	assert.Contains(t, html, "a=1&amp;b=2")
	assert.Equal(t, []string{"pranzo", "legumi", "winter"}, Tags(r))

	var tags []ghost.Tag
	for _, name := range Tags(r) {
		tags = append(tags, ghost.Tag{Name: name})
	}
	got, err := FromPost(ghost.Post{ID: "p1", Title: r.Name, HTML: html, Tags: tags})
	require.NoError(t, err)
	assert.Equal(t, "ghost-p1", got.ID)
	assert.Equal(t, r.Type, got.Type)
	assert.Equal(t, r.Category, got.Category)
	assert.Equal(t, r.Seasons, got.Seasons)
	assert.Equal(t, r.Ingredients, got.Ingredients)
}

func TestFromPost(t *testing.T) {
	t.Run("ItalianTagsAndBareList", func(t *testing.T) {
		got, err := FromPost(ghost.Post{
			ID:    "7",
			Title: " Minestrone ",
			HTML:  `<p>Ricetta della nonna.</p><ul><li>2 carote</li><li>1 patata</li></ul>`,
			Tags:  []ghost.Tag{{Name: "Pranzo"}, {Name: "Estate"}, {Name: "vegetariano"}},
		})
		require.NoError(t, err)
		assert.Equal(t, "Minestrone", got.Name)
		assert.Equal(t, recipe.Lunch, got.Type)
		assert.Equal(t, []string{"summer"}, got.Seasons)
		assert.Equal(t, []string{"2 carote", "1 patata"}, got.Ingredients)
	})

	t.Run("NoIngredients", func(t *testing.T) {
		_, err := FromPost(ghost.Post{ID: "8", Title: "Solo testo", HTML: "<p>niente</p>"})
		assert.ErrorContains(t, err, "no ingredients")
	})
}
