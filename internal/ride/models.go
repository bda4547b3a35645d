package ride

import (
	"errors"
	"time"
)

// Position is a single located sample on a route. RecordedAt is the provider
// timestamp, which may be duplicated or out of order relative to arrival.
type Position struct {
	Lat        float64   `json:"lat"`
	Lng        float64   `json:"lng"`
	SpeedMps   float64   `json:"speed_mps"`
	AccuracyM  float64   `json:"accuracy_m,omitempty"`
	RecordedAt time.Time `json:"recorded_at"`
}

// Ride is a finalized (or in-flight) tracked activity. Average speed is
// always derived from distance and duration, never stored on its own.
type Ride struct {
	ID             string     `json:"id"`
	UserID         string     `json:"user_id"`
	Name           string     `json:"name"`
	ActivityType   string     `json:"activity_type"`
	StartedAt      time.Time  `json:"started_at"`
	EndedAt        *time.Time `json:"ended_at,omitempty"`
	DistanceM      float64    `json:"distance_m"`
	DurationSec    int64      `json:"duration_sec"`
	AvgSpeedMps    float64    `json:"avg_speed_mps"`
	Calories       *float64   `json:"calories,omitempty"`
	Route          []Position `json:"route"`
	PlannedRouteID string     `json:"planned_route_id,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// AvgSpeed derives meters per second from distance and duration; a zero
// duration yields zero rather than dividing.
func AvgSpeed(distanceM float64, durationSec int64) float64 {
	if durationSec <= 0 {
		return 0
	}
	return distanceM / float64(durationSec)
}

// Validate checks the record invariants a finalized ride must hold.
func (r Ride) Validate() error {
	if r.UserID == "" {
		return errors.New("ride missing user id")
	}
	if r.DistanceM < 0 {
		return errors.New("ride distance negative")
	}
	if r.DurationSec < 0 {
		return errors.New("ride duration negative")
	}
	if r.StartedAt.IsZero() {
		return errors.New("ride missing start time")
	}
	if r.EndedAt != nil && r.EndedAt.Before(r.StartedAt) {
		return errors.New("ride ends before it starts")
	}
	return nil
}
