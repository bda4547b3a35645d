package goal

import (
	"context"
	"time"

	"github.com/robertterquin/RIdeTrack/internal/db"

	"github.com/google/uuid"
)

// PgStore persists goals in Postgres. Engine writes go through
// UpdateProgress and Deactivate only, which touch nothing beyond
// current_value, is_active and completed_at.
type PgStore struct {
	db db.Querier
}

func NewStore(db db.Querier) *PgStore {
	return &PgStore{db: db}
}

func (s *PgStore) Insert(ctx context.Context, input Goal) (Goal, error) {
	if input.ID == "" {
		input.ID = uuid.NewString()
	}
	if err := input.Validate(); err != nil {
		return Goal{}, err
	}

	row := s.db.QueryRow(ctx, `
		INSERT INTO goals (id, user_id, name, metric, target_value, current_value, period, period_start, period_end, is_active, completed_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		RETURNING created_at
	`, input.ID, input.UserID, input.Name, string(input.Metric), input.TargetValue, input.CurrentValue,
		string(input.Period), input.PeriodStart, input.PeriodEnd, input.IsActive, input.CompletedAt)
	if err := row.Scan(&input.CreatedAt); err != nil {
		return Goal{}, err
	}
	return input, nil
}

func (s *PgStore) Get(ctx context.Context, id string) (Goal, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, user_id, name, metric, target_value, current_value, period, period_start, period_end, is_active, created_at, completed_at
		FROM goals WHERE id=$1
	`, id)
	var g Goal
	if err := row.Scan(&g.ID, &g.UserID, &g.Name, &g.Metric, &g.TargetValue, &g.CurrentValue,
		&g.Period, &g.PeriodStart, &g.PeriodEnd, &g.IsActive, &g.CreatedAt, &g.CompletedAt); err != nil {
		return Goal{}, err
	}
	return g, nil
}

func (s *PgStore) ListByUser(ctx context.Context, userID string, activeOnly bool) ([]Goal, error) {
	query := `
		SELECT id, user_id, name, metric, target_value, current_value, period, period_start, period_end, is_active, created_at, completed_at
		FROM goals WHERE user_id=$1
		ORDER BY created_at DESC
	`
	if activeOnly {
		query = `
		SELECT id, user_id, name, metric, target_value, current_value, period, period_start, period_end, is_active, created_at, completed_at
		FROM goals WHERE user_id=$1 AND is_active
		ORDER BY created_at DESC
	`
	}

	rows, err := s.db.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var goals []Goal
	for rows.Next() {
		var g Goal
		if err := rows.Scan(&g.ID, &g.UserID, &g.Name, &g.Metric, &g.TargetValue, &g.CurrentValue,
			&g.Period, &g.PeriodStart, &g.PeriodEnd, &g.IsActive, &g.CreatedAt, &g.CompletedAt); err != nil {
			return nil, err
		}
		goals = append(goals, g)
	}
	return goals, rows.Err()
}

// UpdateProgress applies the engine's per-goal result as a partial update.
func (s *PgStore) UpdateProgress(ctx context.Context, id string, currentValue float64, isActive bool, completedAt *time.Time) error {
	_, err := s.db.Exec(ctx, `
		UPDATE goals SET current_value=$2, is_active=$3, completed_at=$4 WHERE id=$1
	`, id, currentValue, isActive, completedAt)
	return err
}

// Deactivate freezes an expired goal without touching its progress.
func (s *PgStore) Deactivate(ctx context.Context, id string) error {
	_, err := s.db.Exec(ctx, `UPDATE goals SET is_active=false WHERE id=$1`, id)
	return err
}

// ActiveUserIDs lists users with at least one active goal, for the
// recalculation scheduler.
func (s *PgStore) ActiveUserIDs(ctx context.Context) ([]string, error) {
	rows, err := s.db.Query(ctx, `SELECT DISTINCT user_id FROM goals WHERE is_active`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
