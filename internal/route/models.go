package route

import (
	"time"

	"github.com/robertterquin/RIdeTrack/internal/ride"
)

// PlannedRoute is a precomputed course a ride may reference. Its positions
// are independent of any recorded route.
type PlannedRoute struct {
	ID          string          `json:"id"`
	UserID      string          `json:"user_id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	DistanceM   float64         `json:"distance_m"`
	Positions   []ride.Position `json:"positions"`
	CreatedAt   time.Time       `json:"created_at"`
}
