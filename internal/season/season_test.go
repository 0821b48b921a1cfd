package season

import (
	"testing"
	"time"

	"meal-planner/internal/recipe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilter(t *testing.T) {
	recipes := []recipe.Recipe{
		{ID: "any", Name: "Minestrone"},
		{ID: "summer", Name: "Panzanella", Seasons: []string{"summer"}},
		{ID: "cold", Name: "Polenta", Seasons: []string{"autumn", "winter"}},
	}

	t.Run("Disabled", func(t *testing.T) {
		got := Filter(recipes, Winter, false)
		assert.Equal(t, recipes, got)
	})

	t.Run("Winter", func(t *testing.T) {
		got := Filter(recipes, Winter, true)
		require.Len(t, got, 2)
		assert.Equal(t, "any", got[0].ID)
		assert.Equal(t, "cold", got[1].ID)
	})

	t.Run("Summer", func(t *testing.T) {
		got := Filter(recipes, Summer, true)
		require.Len(t, got, 2)
		assert.Equal(t, "summer", got[1].ID)
	})

	t.Run("EmptyInput", func(t *testing.T) {
		assert.Empty(t, Filter(nil, Spring, true))
	})
}

func TestForDate(t *testing.T) {
	cases := map[time.Month]Season{
		time.January:   Winter,
		time.March:     Spring,
		time.July:      Summer,
		time.October:   Autumn,
		time.December:  Winter,
		time.September: Autumn,
	}
	for month, want := range cases {
		got := ForDate(time.Date(2026, month, 15, 12, 0, 0, 0, time.UTC))
		assert.Equal(t, want, got, month.String())
	}
}

func TestParse(t *testing.T) {
	s, err := Parse("autumn")
	require.NoError(t, err)
	assert.Equal(t, Autumn, s)

	_, err = Parse("monsoon")
	assert.Error(t, err)
}
