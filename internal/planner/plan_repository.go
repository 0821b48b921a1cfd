package planner

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"time"

	"meal-planner/internal/database"
)

// PlanRepository is a database-backed repository for generated menus. It
// is the history consulted by the repetition rules.
type PlanRepository struct {
	db *sql.DB
}

// NewPlanRepository creates a new PlanRepository.
func NewPlanRepository(d *sql.DB) *PlanRepository {
	return &PlanRepository{db: d}
}

// Save inserts a menu and returns its new id. The menu's ID and CreatedAt
// are set on success.
func (r *PlanRepository) Save(ctx context.Context, m *Menu) (int64, error) {
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC().Truncate(time.Second)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO menus (data, created_at) VALUES ('{}', ?)`,
		database.Timestamp(m.CreatedAt),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert menu: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read menu id: %w", err)
	}

	m.ID = id
	data, err := json.Marshal(m)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal menu to JSON: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `UPDATE menus SET data = ? WHERE id = ?`, string(data), id); err != nil {
		return 0, fmt.Errorf("failed to store menu data: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit menu: %w", err)
	}
	return id, nil
}

// Replace overwrites the stored menu with m.ID, keeping its place in the
// history. It returns ErrMenuNotFound when no such menu exists.
func (r *PlanRepository) Replace(ctx context.Context, m *Menu) error {
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC().Truncate(time.Second)
	}
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to marshal menu to JSON: %w", err)
	}

	res, err := r.db.ExecContext(ctx,
		`UPDATE menus SET data = ?, created_at = ? WHERE id = ?`,
		string(data), database.Timestamp(m.CreatedAt), m.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to replace menu %d: %w", m.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return ErrMenuNotFound
	}
	return nil
}

// Get retrieves a menu by id.
func (r *PlanRepository) Get(ctx context.Context, id int64) (*Menu, error) {
	var data string
	err := r.db.QueryRowContext(ctx, `SELECT data FROM menus WHERE id = ?`, id).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMenuNotFound
		}
		return nil, fmt.Errorf("failed to get menu %d: %w", id, err)
	}
	return decodeMenu(data)
}

// Latest returns the most recently saved menu.
func (r *PlanRepository) Latest(ctx context.Context) (*Menu, error) {
	menus, err := r.ListRecent(ctx, 1)
	if err != nil {
		return nil, err
	}
	if len(menus) == 0 {
		return nil, ErrMenuNotFound
	}
	return &menus[0], nil
}

// ListRecent retrieves up to limit of the most recent menus, ordered
// oldest first as the engine expects its history.
func (r *PlanRepository) ListRecent(ctx context.Context, limit int) ([]Menu, error) {
	if limit <= 0 {
		return nil, nil
	}

	rows, err := r.db.QueryContext(ctx, `SELECT data FROM menus ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent menus: %w", err)
	}
	defer rows.Close()

	var menus []Menu
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("failed to scan menu row: %w", err)
		}
		m, err := decodeMenu(data)
		if err != nil {
			return nil, err
		}
		menus = append(menus, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate menus: %w", err)
	}

	slices.Reverse(menus)
	return menus, nil
}

func decodeMenu(data string) (*Menu, error) {
	var m Menu
	if err := json.Unmarshal([]byte(data), &m); err != nil {
		return nil, fmt.Errorf("failed to unmarshal menu JSON: %w", err)
	}
	return &m, nil
}
