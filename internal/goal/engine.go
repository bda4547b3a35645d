package goal

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/robertterquin/RIdeTrack/internal/ride"
	"github.com/robertterquin/RIdeTrack/internal/shared/clock"
)

var ErrPeriodNotElapsed = errors.New("goal: period has not elapsed")

// RideSource reads a user's ride history. The engine never writes rides.
type RideSource interface {
	ListByUser(ctx context.Context, userID string) ([]ride.Ride, error)
}

// Store is the goal persistence contract the engine drives. Progress writes
// are partial: current_value, is_active and completed_at only.
type Store interface {
	Insert(ctx context.Context, g Goal) (Goal, error)
	ListByUser(ctx context.Context, userID string, activeOnly bool) ([]Goal, error)
	UpdateProgress(ctx context.Context, id string, currentValue float64, isActive bool, completedAt *time.Time) error
	Deactivate(ctx context.Context, id string) error
}

// Engine recomputes goal progress from ride history and applies lifecycle
// transitions. One Recalculate call handles one user; calls for different
// users are independent and may run concurrently.
type Engine struct {
	goals Store
	rides RideSource
	clock clock.Clock
}

// Result reports a per-user recalculation pass. Failed lists goal IDs whose
// update did not apply; goals that succeeded stay committed regardless.
type Result struct {
	Updated int      `json:"updated"`
	Failed  []string `json:"failed,omitempty"`
}

func NewEngine(goals Store, rides RideSource, c clock.Clock) *Engine {
	if c == nil {
		c = clock.System()
	}
	return &Engine{goals: goals, rides: rides, clock: c}
}

// Create inserts a fresh goal whose period starts now.
func (e *Engine) Create(ctx context.Context, g Goal) (Goal, error) {
	now := e.clock.Now()
	g.CurrentValue = 0
	g.IsActive = true
	g.CompletedAt = nil
	g.PeriodStart = now
	g.PeriodEnd = periodEnd(now, g.Period)
	return e.goals.Insert(ctx, g)
}

// Recalculate recomputes every active goal of userID. A failure on one goal
// is logged, recorded in the result and does not stop the others; nothing is
// rolled back across goals.
func (e *Engine) Recalculate(ctx context.Context, userID string) (Result, error) {
	goals, err := e.goals.ListByUser(ctx, userID, true)
	if err != nil {
		return Result{}, err
	}

	var res Result
	for _, g := range goals {
		if err := e.recalculateOne(ctx, g); err != nil {
			log.Printf("goal %s recalculation failed: %v", g.ID, err)
			res.Failed = append(res.Failed, g.ID)
			continue
		}
		res.Updated++
	}
	return res, nil
}

func (e *Engine) recalculateOne(ctx context.Context, g Goal) error {
	now := e.clock.Now()

	// Expired goals are frozen, not recomputed.
	if now.After(g.PeriodEnd) {
		return e.goals.Deactivate(ctx, g.ID)
	}

	rides, err := e.rides.ListByUser(ctx, g.UserID)
	if err != nil {
		return err
	}

	current, err := aggregate(g, rides)
	if err != nil {
		return err
	}

	isActive := true
	completedAt := g.CompletedAt
	if current >= g.TargetValue && completedAt == nil {
		t := now
		completedAt = &t
		isActive = false
	}
	return e.goals.UpdateProgress(ctx, g.ID, current, isActive, completedAt)
}

// aggregate folds the rides inside the goal's period into its metric value.
// The window is exclusive on both ends: a ride starting exactly at
// periodStart or periodEnd does not count. That boundary policy is carried
// over from the original behavior and is relied on by clients.
func aggregate(g Goal, rides []ride.Ride) (float64, error) {
	var current float64
	for _, r := range rides {
		if !r.StartedAt.After(g.PeriodStart) || !r.StartedAt.Before(g.PeriodEnd) {
			continue
		}
		if err := r.Validate(); err != nil {
			return 0, fmt.Errorf("ride %s: %w", r.ID, err)
		}

		switch g.Metric {
		case MetricDistance:
			current += r.DistanceM / 1000
		case MetricRides:
			current++
		case MetricCalories:
			current += r.DistanceM / 1000 * KcalPerKm
		default:
			return 0, fmt.Errorf("metric %q unknown", g.Metric)
		}
	}
	return current, nil
}

// Renew creates a new goal covering the next period of an expired one. The
// expired goal is left exactly as it is; renewal is a new record, never a
// mutation.
func (e *Engine) Renew(ctx context.Context, g Goal) (Goal, error) {
	now := e.clock.Now()
	if !now.After(g.PeriodEnd) {
		return Goal{}, ErrPeriodNotElapsed
	}

	next := Goal{
		UserID:      g.UserID,
		Name:        g.Name,
		Metric:      g.Metric,
		TargetValue: g.TargetValue,
		Period:      g.Period,
		PeriodStart: now,
		PeriodEnd:   periodEnd(now, g.Period),
		IsActive:    true,
	}
	return e.goals.Insert(ctx, next)
}

func periodEnd(start time.Time, p Period) time.Time {
	if p == PeriodWeekly {
		return start.Add(7 * 24 * time.Hour)
	}
	return addOneMonthClamped(start)
}

// addOneMonthClamped advances t by one calendar month, clamping the
// day-of-month to the target month's length. time.AddDate would normalize
// Jan 31 into Mar 2/3 instead.
func addOneMonthClamped(t time.Time) time.Time {
	year, month, day := t.Date()
	firstOfNext := time.Date(year, month+1, 1, 0, 0, 0, 0, t.Location())
	lastDay := firstOfNext.AddDate(0, 1, -1).Day()
	if day > lastDay {
		day = lastDay
	}
	return time.Date(year, month+1, day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}
