package recipe

import (
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// LoadCatalog reads a list of recipes from YAML (or JSON, which is valid
// YAML). Entries without an id get a random one. Every recipe is validated.
func LoadCatalog(r io.Reader) ([]Recipe, error) {
	var recipes []Recipe
	if err := yaml.NewDecoder(r).Decode(&recipes); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to decode recipe catalog: %w", err)
	}

	seen := make(map[string]struct{}, len(recipes))
	for i := range recipes {
		rec := &recipes[i]
		rec.Name = strings.TrimSpace(rec.Name)
		if strings.TrimSpace(rec.ID) == "" {
			rec.ID = uuid.NewString()
		}
		if err := rec.Validate(); err != nil {
			return nil, fmt.Errorf("invalid catalog entry %d: %w", i, err)
		}
		if _, dup := seen[rec.ID]; dup {
			return nil, fmt.Errorf("invalid catalog entry %d: duplicate id %s", i, rec.ID)
		}
		seen[rec.ID] = struct{}{}
	}
	return recipes, nil
}
