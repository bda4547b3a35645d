package telemetry

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/robertterquin/RIdeTrack/internal/ride"
	"github.com/robertterquin/RIdeTrack/internal/shared/clock"

	"github.com/google/uuid"
)

// RideSaver persists a finalized ride. Satisfied by *ride.Store.
type RideSaver interface {
	Save(ctx context.Context, r ride.Ride) (ride.Ride, error)
}

// Broadcaster fans live samples out to websocket subscribers. Satisfied by
// *stream.Hub; nil disables broadcasting.
type Broadcaster interface {
	Broadcast(sessionID string, payload []byte)
}

type session struct {
	id           string
	name         string
	activityType string
	plannedRoute string
	agg          *Aggregator
}

// Manager holds at most one live session per user and routes control and
// sample traffic to that session's aggregator.
type Manager struct {
	mu       sync.Mutex
	clock    clock.Clock
	rides    RideSaver
	hub      Broadcaster
	sessions map[string]*session
}

// Session is the public view of a live session.
type Session struct {
	ID           string `json:"id"`
	UserID       string `json:"user_id"`
	Name         string `json:"name"`
	ActivityType string `json:"activity_type"`
	Stats        Stats  `json:"stats"`
}

func NewManager(rides RideSaver, hub Broadcaster, c clock.Clock) *Manager {
	if c == nil {
		c = clock.System()
	}
	return &Manager{
		clock:    c,
		rides:    rides,
		hub:      hub,
		sessions: map[string]*session{},
	}
}

func (m *Manager) Start(userID, name, activityType, plannedRouteID string, initial *ride.Position) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[userID]; ok {
		return Session{}, ErrAlreadyActive
	}

	if name == "" {
		name = "Ride"
	}
	if activityType == "" {
		activityType = "cycling"
	}

	sess := &session{
		id:           uuid.NewString(),
		name:         name,
		activityType: activityType,
		plannedRoute: plannedRouteID,
		agg:          NewAggregator(m.clock),
	}
	if err := sess.agg.Start(initial); err != nil {
		return Session{}, err
	}
	m.sessions[userID] = sess

	return m.viewLocked(userID, sess), nil
}

func (m *Manager) Accept(userID string, p ride.Position) error {
	sess, err := m.lookup(userID)
	if err != nil {
		return err
	}
	if err := sess.agg.Accept(p); err != nil {
		return err
	}

	if m.hub != nil {
		if payload, err := json.Marshal(p); err == nil {
			m.hub.Broadcast(sess.id, payload)
		}
	}
	return nil
}

func (m *Manager) Pause(userID string) error {
	sess, err := m.lookup(userID)
	if err != nil {
		return err
	}
	return sess.agg.Pause()
}

func (m *Manager) Resume(userID string) error {
	sess, err := m.lookup(userID)
	if err != nil {
		return err
	}
	return sess.agg.Resume()
}

// Finalize closes the user's session, persists the ride and returns the
// stored record. The session is removed even while the save is attempted, so
// a new ride can start; a failed save returns the error with the snapshot
// already detached from live state.
func (m *Manager) Finalize(ctx context.Context, userID string) (ride.Ride, error) {
	m.mu.Lock()
	sess, ok := m.sessions[userID]
	if !ok {
		m.mu.Unlock()
		return ride.Ride{}, ErrNotActive
	}
	delete(m.sessions, userID)
	m.mu.Unlock()

	snapshot, err := sess.agg.Finalize()
	if err != nil {
		return ride.Ride{}, err
	}
	snapshot.UserID = userID
	snapshot.Name = sess.name
	snapshot.ActivityType = sess.activityType
	snapshot.PlannedRouteID = sess.plannedRoute

	if m.rides == nil {
		return snapshot, nil
	}
	return m.rides.Save(ctx, snapshot)
}

func (m *Manager) Current(userID string) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, ok := m.sessions[userID]
	if !ok {
		return Session{}, ErrNotActive
	}
	return m.viewLocked(userID, sess), nil
}

func (m *Manager) lookup(userID string) (*session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, ok := m.sessions[userID]
	if !ok {
		return nil, ErrNotActive
	}
	return sess, nil
}

func (m *Manager) viewLocked(userID string, sess *session) Session {
	stats, _ := sess.agg.Snapshot()
	return Session{
		ID:           sess.id,
		UserID:       userID,
		Name:         sess.name,
		ActivityType: sess.activityType,
		Stats:        stats,
	}
}
