package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const catalog = `
- {id: carbonara, nome: Carbonara, tipo: pranzo, categoria: uova, ingredienti: ["200 g pasta", "2 uova"]}
- {id: ceci, nome: Pasta e ceci, tipo: pranzo, categoria: legumi, ingredienti: ["100 g pasta", "400 g ceci"]}
- {id: insalata, nome: Insalata, ingredienti: ["1 lattuga", "2 pomodori"]}
- {id: orata, nome: Orata al forno, tipo: cena, categoria: pesce, ingredienti: ["2 orate", "1 limone"]}
- {id: frittata, nome: Frittata, tipo: cena, categoria: uova, ingredienti: ["6 uova", "2 zucchine"]}
`

func setupEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	for _, k := range []string{"GHOST_API_URL", "GHOST_CONTENT_API_KEY", "GHOST_ADMIN_API_KEY", "GEMINI_API_KEY",
		"MENU_CONFIG_PATH", "TELEGRAM_ALLOWED_USER_IDS", "ADMIN_TELEGRAM_ID"} {
		t.Setenv(k, "")
	}
	t.Setenv("DATABASE_PATH", filepath.Join(dir, "test.db"))
	t.Setenv("LOG_LEVEL", "error")
	return dir
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestCLI(t *testing.T) {
	dir := setupEnv(t)
	catalogPath := filepath.Join(dir, "catalog.yaml")
	require.NoError(t, os.WriteFile(catalogPath, []byte(catalog), 0o644))

	t.Run("ShoppingListBeforeAnyMenu", func(t *testing.T) {
		_, err := run(t, "shopping-list")
		assert.ErrorContains(t, err, "menu not found")
	})

	t.Run("Import", func(t *testing.T) {
		out, err := run(t, "recipes", "import", catalogPath)
		require.NoError(t, err)
		assert.Contains(t, out, "Imported 5 recipes.")
	})

	t.Run("List", func(t *testing.T) {
		out, err := run(t, "recipes", "list")
		require.NoError(t, err)
		assert.Contains(t, out, "carbonara")
		assert.Contains(t, out, "Orata al forno")
	})

	t.Run("GenerateDryRunJSON", func(t *testing.T) {
		out, err := run(t, "generate", "--dry-run", "--seed", "42", "--format", "json")
		require.NoError(t, err)

		start := bytes.IndexByte([]byte(out), '{')
		require.GreaterOrEqual(t, start, 0)
		var got struct {
			Menu struct {
				Cena []*struct {
					ID string `json:"id"`
				} `json:"cena"`
			} `json:"menu"`
		}
		require.NoError(t, json.Unmarshal([]byte(out[start:]), &got))
		require.Len(t, got.Menu.Cena, 7)
		assert.Equal(t, "pizza", got.Menu.Cena[5].ID)
		assert.Equal(t, "libero", got.Menu.Cena[6].ID)

		out, err = run(t, "history")
		require.NoError(t, err)
		assert.Contains(t, out, "No menus yet.")
	})

	t.Run("GenerateAndShop", func(t *testing.T) {
		out, err := run(t, "generate", "--seed", "1")
		require.NoError(t, err)
		assert.Contains(t, out, "Menu #1")
		assert.Contains(t, out, "Sabato")
		assert.Contains(t, out, "Cena: Pizza")

		out, err = run(t, "shopping-list", "1")
		require.NoError(t, err)
		assert.Contains(t, out, "Menu #1")

		out, err = run(t, "history", "--limit", "1")
		require.NoError(t, err)
		assert.Contains(t, out, "Menu #1")
	})

	t.Run("BadArgs", func(t *testing.T) {
		_, err := run(t, "generate", "--format", "pdf")
		assert.ErrorContains(t, err, "unknown format")

		_, err = run(t, "shopping-list", "abc")
		assert.ErrorContains(t, err, "invalid menu id")

		_, err = run(t, "metrics-cleanup", "--days", "0")
		assert.Error(t, err)
	})

	t.Run("GhostNotConfigured", func(t *testing.T) {
		_, err := run(t, "ingest")
		assert.ErrorContains(t, err, "GHOST_API_URL")

		_, err = run(t, "publish")
		assert.ErrorContains(t, err, "GHOST_API_URL")
	})

	t.Run("MetricsCleanup", func(t *testing.T) {
		out, err := run(t, "metrics-cleanup", "--days", "30")
		require.NoError(t, err)
		assert.Contains(t, out, "removed 0 old metric records")
	})
}
