package route

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/robertterquin/RIdeTrack/internal/db"
	"github.com/robertterquin/RIdeTrack/internal/shared/geo"

	"github.com/google/uuid"
)

type Service struct {
	db db.Querier
}

func NewService(db db.Querier) *Service {
	return &Service{db: db}
}

func (s *Service) Create(ctx context.Context, input PlannedRoute) (PlannedRoute, error) {
	if len(input.Positions) < 2 {
		return PlannedRoute{}, errors.New("planned route needs at least two positions")
	}

	input.ID = uuid.NewString()
	input.DistanceM = plannedDistanceM(input)

	positionsJSON, err := json.Marshal(input.Positions)
	if err != nil {
		return PlannedRoute{}, err
	}

	row := s.db.QueryRow(ctx, `
		INSERT INTO planned_routes (id, user_id, name, description, distance_m, positions)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING created_at
	`, input.ID, input.UserID, input.Name, input.Description, input.DistanceM, positionsJSON)
	if err := row.Scan(&input.CreatedAt); err != nil {
		return PlannedRoute{}, err
	}
	return input, nil
}

func (s *Service) Get(ctx context.Context, id string) (PlannedRoute, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, user_id, name, description, distance_m, positions, created_at
		FROM planned_routes WHERE id=$1
	`, id)

	var pr PlannedRoute
	var positionsJSON []byte
	if err := row.Scan(&pr.ID, &pr.UserID, &pr.Name, &pr.Description, &pr.DistanceM, &positionsJSON, &pr.CreatedAt); err != nil {
		return PlannedRoute{}, err
	}
	if err := json.Unmarshal(positionsJSON, &pr.Positions); err != nil {
		return PlannedRoute{}, err
	}
	return pr, nil
}

// ListByUser returns route summaries without position payloads.
func (s *Service) ListByUser(ctx context.Context, userID string) ([]PlannedRoute, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, user_id, name, description, distance_m, created_at
		FROM planned_routes WHERE user_id=$1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var routes []PlannedRoute
	for rows.Next() {
		var pr PlannedRoute
		if err := rows.Scan(&pr.ID, &pr.UserID, &pr.Name, &pr.Description, &pr.DistanceM, &pr.CreatedAt); err != nil {
			return nil, err
		}
		routes = append(routes, pr)
	}
	return routes, rows.Err()
}

func (s *Service) Delete(ctx context.Context, id, userID string) error {
	_, err := s.db.Exec(ctx, `DELETE FROM planned_routes WHERE id=$1 AND user_id=$2`, id, userID)
	return err
}

func plannedDistanceM(pr PlannedRoute) float64 {
	var total float64
	for i := 1; i < len(pr.Positions); i++ {
		prev, cur := pr.Positions[i-1], pr.Positions[i]
		total += geo.DistanceM(prev.Lat, prev.Lng, cur.Lat, cur.Lng)
	}
	return total
}
