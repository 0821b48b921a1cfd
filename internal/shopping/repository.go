package shopping

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"meal-planner/internal/database"
)

// ErrNotFound is returned when no shopping list is stored for a menu.
var ErrNotFound = errors.New("shopping list not found")

// Repository handles persistence of shopping lists.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new shopping list repository.
func NewRepository(d *sql.DB) *Repository {
	return &Repository{db: d}
}

// Save stores the shopping list for a menu, replacing any previous one.
func (r *Repository) Save(ctx context.Context, menuID int64, list List) error {
	data, err := json.Marshal(list)
	if err != nil {
		return fmt.Errorf("failed to marshal shopping list: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO shopping_lists (menu_id, data, created_at) VALUES (?, ?, ?)
		 ON CONFLICT(menu_id) DO UPDATE SET data = excluded.data, created_at = excluded.created_at`,
		menuID, string(data), database.Timestamp(time.Now()),
	)
	if err != nil {
		return fmt.Errorf("failed to save shopping list for menu %d: %w", menuID, err)
	}
	return nil
}

// GetByMenuID retrieves the shopping list stored for a menu.
func (r *Repository) GetByMenuID(ctx context.Context, menuID int64) (List, error) {
	var data string
	err := r.db.QueryRowContext(ctx, `SELECT data FROM shopping_lists WHERE menu_id = ?`, menuID).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get shopping list by menu ID: %w", err)
	}

	var list List
	if err := json.Unmarshal([]byte(data), &list); err != nil {
		return nil, fmt.Errorf("failed to unmarshal shopping list: %w", err)
	}
	return list, nil
}

// DeleteByMenuID deletes the shopping list of a menu.
func (r *Repository) DeleteByMenuID(ctx context.Context, menuID int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM shopping_lists WHERE menu_id = ?`, menuID); err != nil {
		return fmt.Errorf("failed to delete shopping list for menu %d: %w", menuID, err)
	}
	return nil
}
