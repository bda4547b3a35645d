package ride

import (
	"context"
	"encoding/json"

	"github.com/robertterquin/RIdeTrack/internal/db"

	"github.com/google/uuid"
)

type Store struct {
	db db.Querier
}

func NewStore(db db.Querier) *Store {
	return &Store{db: db}
}

func (s *Store) Save(ctx context.Context, input Ride) (Ride, error) {
	if input.ID == "" {
		input.ID = uuid.NewString()
	}
	if err := input.Validate(); err != nil {
		return Ride{}, err
	}

	routeJSON, err := json.Marshal(input.Route)
	if err != nil {
		return Ride{}, err
	}

	row := s.db.QueryRow(ctx, `
		INSERT INTO rides (id, user_id, name, activity_type, started_at, ended_at, distance_m, duration_sec, calories, route, planned_route_id)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,NULLIF($11,''))
		RETURNING created_at
	`, input.ID, input.UserID, input.Name, input.ActivityType, input.StartedAt, input.EndedAt,
		input.DistanceM, input.DurationSec, input.Calories, routeJSON, input.PlannedRouteID)
	if err := row.Scan(&input.CreatedAt); err != nil {
		return Ride{}, err
	}
	input.AvgSpeedMps = AvgSpeed(input.DistanceM, input.DurationSec)
	return input, nil
}

// ListByUser returns every ride owned by userID, newest first. The goal
// engine reads this and filters by period in memory.
func (s *Store) ListByUser(ctx context.Context, userID string) ([]Ride, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, user_id, name, activity_type, started_at, ended_at, distance_m, duration_sec, calories, route, COALESCE(planned_route_id,''), created_at
		FROM rides WHERE user_id=$1
		ORDER BY started_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rides []Ride
	for rows.Next() {
		r, err := scanRide(rows)
		if err != nil {
			return nil, err
		}
		rides = append(rides, r)
	}
	return rides, rows.Err()
}

func (s *Store) Get(ctx context.Context, id string) (Ride, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, user_id, name, activity_type, started_at, ended_at, distance_m, duration_sec, calories, route, COALESCE(planned_route_id,''), created_at
		FROM rides WHERE id=$1
	`, id)
	return scanRide(row)
}

func (s *Store) Delete(ctx context.Context, id, userID string) error {
	_, err := s.db.Exec(ctx, `DELETE FROM rides WHERE id=$1 AND user_id=$2`, id, userID)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRide(row rowScanner) (Ride, error) {
	var r Ride
	var routeJSON []byte
	if err := row.Scan(&r.ID, &r.UserID, &r.Name, &r.ActivityType, &r.StartedAt, &r.EndedAt,
		&r.DistanceM, &r.DurationSec, &r.Calories, &routeJSON, &r.PlannedRouteID, &r.CreatedAt); err != nil {
		return Ride{}, err
	}
	if len(routeJSON) > 0 {
		if err := json.Unmarshal(routeJSON, &r.Route); err != nil {
			return Ride{}, err
		}
	}
	r.AvgSpeedMps = AvgSpeed(r.DistanceM, r.DurationSec)
	return r, nil
}
