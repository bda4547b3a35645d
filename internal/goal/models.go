package goal

import (
	"errors"
	"time"
)

type Metric string

const (
	MetricDistance Metric = "distance" // kilometers ridden in the period
	MetricRides    Metric = "rides"    // number of rides in the period
	MetricCalories Metric = "calories" // estimated kcal, distance based
)

type Period string

const (
	PeriodWeekly  Period = "weekly"
	PeriodMonthly Period = "monthly"
)

// KcalPerKm converts ridden kilometers into an estimated calorie burn. The
// calories metric always uses this estimate, never a ride's own calorie
// field, so rides without one aggregate consistently.
const KcalPerKm = 50.0

type Goal struct {
	ID           string     `json:"id"`
	UserID       string     `json:"user_id"`
	Name         string     `json:"name"`
	Metric       Metric     `json:"metric"`
	TargetValue  float64    `json:"target_value"`
	CurrentValue float64    `json:"current_value"`
	Period       Period     `json:"period"`
	PeriodStart  time.Time  `json:"period_start"`
	PeriodEnd    time.Time  `json:"period_end"`
	IsActive     bool       `json:"is_active"`
	CreatedAt    time.Time  `json:"created_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
}

func (g Goal) Validate() error {
	if g.UserID == "" {
		return errors.New("goal missing user id")
	}
	if g.Name == "" {
		return errors.New("goal missing name")
	}
	switch g.Metric {
	case MetricDistance, MetricRides, MetricCalories:
	default:
		return errors.New("goal metric unknown")
	}
	switch g.Period {
	case PeriodWeekly, PeriodMonthly:
	default:
		return errors.New("goal period unknown")
	}
	if g.TargetValue <= 0 {
		return errors.New("goal target must be positive")
	}
	if g.CurrentValue < 0 {
		return errors.New("goal progress negative")
	}
	if !g.PeriodEnd.After(g.PeriodStart) {
		return errors.New("goal period end must follow period start")
	}
	return nil
}
