package metrics

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"meal-planner/internal/database"
	"meal-planner/internal/planner"
	"meal-planner/internal/shared"
)

// ExecutionMetric records metadata for a single LLM call.
type ExecutionMetric struct {
	AgentName        string
	Model            string
	PromptTokens     int
	CompletionTokens int
	LatencyMS        int64
	Timestamp        time.Time
}

// GenerationMetric records the outcome of one menu generation.
type GenerationMetric struct {
	MenuID      int64
	CatalogSize int
	Filled      int
	Relaxed     int
	Unfilled    int
	LatencyMS   int64
	Timestamp   time.Time
}

// NewGenerationMetric summarizes a generation report.
func NewGenerationMetric(menuID int64, catalogSize int, report planner.Report, latency time.Duration) GenerationMetric {
	unfilled := report.Unfilled()
	return GenerationMetric{
		MenuID:      menuID,
		CatalogSize: catalogSize,
		Filled:      len(report.Slots) - unfilled,
		Relaxed:     report.Relaxed(),
		Unfilled:    unfilled,
		LatencyMS:   latency.Milliseconds(),
		Timestamp:   time.Now().UTC(),
	}
}

// Store handles persistence of metrics to SQLite.
type Store struct {
	db *sql.DB
}

// NewStore initializes the Store with an existing database connection.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

func stamp(ts time.Time) string {
	if ts.IsZero() {
		ts = time.Now()
	}
	return database.Timestamp(ts)
}

// Record saves an LLM execution metric.
func (s *Store) Record(ctx context.Context, m ExecutionMetric) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO execution_metrics (agent_name, model, prompt_tokens, completion_tokens, latency_ms, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		m.AgentName, m.Model, m.PromptTokens, m.CompletionTokens, m.LatencyMS, stamp(m.Timestamp),
	)
	if err != nil {
		return fmt.Errorf("failed to record execution metric: %w", err)
	}
	return nil
}

// RecordMeta records metrics directly from shared.AgentMeta. Calls that
// used no tokens are not recorded.
func (s *Store) RecordMeta(ctx context.Context, meta shared.AgentMeta) error {
	if meta.Usage.PromptTokens == 0 && meta.Usage.CompletionTokens == 0 {
		return nil
	}
	return s.Record(ctx, MapUsage(meta.AgentName, meta.Usage, meta.Latency))
}

// RecordGeneration saves a menu generation metric.
func (s *Store) RecordGeneration(ctx context.Context, m GenerationMetric) error {
	var menuID any
	if m.MenuID != 0 {
		menuID = m.MenuID
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO generation_metrics (menu_id, catalog_size, filled, relaxed, unfilled, latency_ms, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		menuID, m.CatalogSize, m.Filled, m.Relaxed, m.Unfilled, m.LatencyMS, stamp(m.Timestamp),
	)
	if err != nil {
		return fmt.Errorf("failed to record generation metric: %w", err)
	}
	return nil
}

// DailyUsage represents token totals for a single day.
type DailyUsage struct {
	Date            string
	TotalPrompt     int
	TotalCompletion int
	TotalExecution  int
}

// GetDailyUsage retrieves LLM usage for the last N days, newest first.
func (s *Store) GetDailyUsage(ctx context.Context, days int) ([]DailyUsage, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT substr(created_at, 1, 10) AS day, SUM(prompt_tokens), SUM(completion_tokens), COUNT(*)
		 FROM execution_metrics WHERE created_at >= ?
		 GROUP BY day ORDER BY day DESC`,
		since(days),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily usage: %w", err)
	}
	defer rows.Close()

	var results []DailyUsage
	for rows.Next() {
		var u DailyUsage
		if err := rows.Scan(&u.Date, &u.TotalPrompt, &u.TotalCompletion, &u.TotalExecution); err != nil {
			return nil, fmt.Errorf("failed to scan daily usage: %w", err)
		}
		results = append(results, u)
	}
	return results, rows.Err()
}

// DailyGenerations summarizes the menus generated on a single day.
type DailyGenerations struct {
	Date         string
	Menus        int
	Relaxed      int
	Unfilled     int
	AvgLatencyMS float64
}

// GetDailyGenerations retrieves generation totals for the last N days, newest first.
func (s *Store) GetDailyGenerations(ctx context.Context, days int) ([]DailyGenerations, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT substr(created_at, 1, 10) AS day, COUNT(*), SUM(relaxed), SUM(unfilled), AVG(latency_ms)
		 FROM generation_metrics WHERE created_at >= ?
		 GROUP BY day ORDER BY day DESC`,
		since(days),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily generations: %w", err)
	}
	defer rows.Close()

	var results []DailyGenerations
	for rows.Next() {
		var g DailyGenerations
		if err := rows.Scan(&g.Date, &g.Menus, &g.Relaxed, &g.Unfilled, &g.AvgLatencyMS); err != nil {
			return nil, fmt.Errorf("failed to scan daily generations: %w", err)
		}
		results = append(results, g)
	}
	return results, rows.Err()
}

// Cleanup removes records older than the specified number of days and
// returns how many rows were deleted.
func (s *Store) Cleanup(ctx context.Context, olderThanDays int) (int64, error) {
	threshold := since(olderThanDays)
	var total int64
	for _, table := range []string{"execution_metrics", "generation_metrics"} {
		res, err := s.db.ExecContext(ctx, `DELETE FROM `+table+` WHERE created_at < ?`, threshold)
		if err != nil {
			return total, fmt.Errorf("failed to clean up %s: %w", table, err)
		}
		n, _ := res.RowsAffected()
		total += n
	}
	return total, nil
}

func since(days int) string {
	return database.Timestamp(time.Now().AddDate(0, 0, -days))
}

// MapUsage converts shared.TokenUsage to an ExecutionMetric.
func MapUsage(agentName string, usage shared.TokenUsage, latency time.Duration) ExecutionMetric {
	return ExecutionMetric{
		AgentName:        agentName,
		Model:            usage.Model,
		PromptTokens:     usage.PromptTokens,
		CompletionTokens: usage.CompletionTokens,
		LatencyMS:        latency.Milliseconds(),
		Timestamp:        time.Now().UTC(),
	}
}
