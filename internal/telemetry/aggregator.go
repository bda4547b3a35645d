package telemetry

import (
	"errors"
	"sync"
	"time"

	"github.com/robertterquin/RIdeTrack/internal/ride"
	"github.com/robertterquin/RIdeTrack/internal/shared/clock"
	"github.com/robertterquin/RIdeTrack/internal/shared/geo"
)

// MaxPlausibleSpeedMps caps the distance increment accepted between two
// consecutive samples. Segments implying a faster speed are GPS jump
// artifacts: they stay in the route but never count toward distance.
const MaxPlausibleSpeedMps = 120.0 / 3.6

var (
	ErrNotActive     = errors.New("telemetry: no active session")
	ErrAlreadyActive = errors.New("telemetry: session already active")
)

type sessionState int

const (
	stateIdle sessionState = iota
	stateActive
	statePaused
)

// Aggregator accumulates one ride session's statistics from a stream of
// position samples. All state is in memory and guarded by a single mutex so
// a sample racing a control transition is applied entirely before or
// entirely after it.
type Aggregator struct {
	mu    sync.Mutex
	clock clock.Clock

	state       sessionState
	startTime   time.Time
	activeSince time.Time
	accrued     time.Duration
	distanceM   float64
	last        *ride.Position
	route       []ride.Position
	sampleCount int
}

// Stats is a live snapshot of the running session.
type Stats struct {
	State       string  `json:"state"`
	DistanceM   float64 `json:"distance_m"`
	DurationSec int64   `json:"duration_sec"`
	AvgSpeedMps float64 `json:"avg_speed_mps"`
	SampleCount int     `json:"sample_count"`
}

func NewAggregator(c clock.Clock) *Aggregator {
	if c == nil {
		c = clock.System()
	}
	return &Aggregator{clock: c}
}

// Start begins a new session. initial, when known, seeds the route and the
// distance reference point. Starting an already running session is an error.
func (a *Aggregator) Start(initial *ride.Position) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.state != stateIdle {
		return ErrAlreadyActive
	}

	now := a.clock.Now()
	a.state = stateActive
	a.startTime = now
	a.activeSince = now
	a.accrued = 0
	a.distanceM = 0
	a.last = nil
	a.route = nil
	a.sampleCount = 0

	if initial != nil {
		p := *initial
		if p.RecordedAt.IsZero() {
			p.RecordedAt = now
		}
		a.route = append(a.route, p)
		a.last = &p
		a.sampleCount = 1
	}
	return nil
}

// Accept folds one sample into the session. While paused the sample is
// dropped silently so in-flight samples arriving just after a pause request
// are not treated as misuse. The route records every sample received; the
// distance sum only grows by segments below the plausibility threshold.
func (a *Aggregator) Accept(p ride.Position) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	switch a.state {
	case stateIdle:
		return ErrNotActive
	case statePaused:
		return nil
	}

	if p.RecordedAt.IsZero() {
		p.RecordedAt = a.clock.Now()
	}

	a.route = append(a.route, p)
	a.sampleCount++

	if a.last != nil {
		elapsed := p.RecordedAt.Sub(a.last.RecordedAt)
		segment := geo.DistanceM(a.last.Lat, a.last.Lng, p.Lat, p.Lng)
		// elapsed <= 0 covers duplicated and reordered timestamps: the
		// plausible distance for no elapsed time is zero.
		if elapsed > 0 && segment <= elapsed.Seconds()*MaxPlausibleSpeedMps {
			a.distanceM += segment
		}
	}
	a.last = &p
	return nil
}

// Pause suspends sample acceptance and duration accrual. Pausing twice is a
// no-op.
func (a *Aggregator) Pause() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	switch a.state {
	case stateIdle:
		return ErrNotActive
	case statePaused:
		return nil
	}

	a.accrued += a.clock.Now().Sub(a.activeSince)
	a.state = statePaused
	return nil
}

// Resume restarts a paused session. Resuming an active session is a no-op.
func (a *Aggregator) Resume() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	switch a.state {
	case stateIdle:
		return ErrNotActive
	case stateActive:
		return nil
	}

	a.activeSince = a.clock.Now()
	a.state = stateActive
	return nil
}

// Finalize snapshots the session into an immutable ride record and resets
// the aggregator to idle. A session with no samples still finalizes into a
// zero-stat ride with an empty route.
func (a *Aggregator) Finalize() (ride.Ride, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.state == stateIdle {
		return ride.Ride{}, ErrNotActive
	}

	now := a.clock.Now()
	duration := a.accrued
	if a.state == stateActive {
		duration += now.Sub(a.activeSince)
	}
	durationSec := int64(duration.Seconds())

	ended := now
	snapshot := ride.Ride{
		StartedAt:   a.startTime,
		EndedAt:     &ended,
		DistanceM:   a.distanceM,
		DurationSec: durationSec,
		AvgSpeedMps: ride.AvgSpeed(a.distanceM, durationSec),
		Route:       append([]ride.Position(nil), a.route...),
	}

	a.state = stateIdle
	a.startTime = time.Time{}
	a.activeSince = time.Time{}
	a.accrued = 0
	a.distanceM = 0
	a.last = nil
	a.route = nil
	a.sampleCount = 0

	return snapshot, nil
}

// Snapshot reports the running statistics without changing state.
func (a *Aggregator) Snapshot() (Stats, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.state == stateIdle {
		return Stats{}, ErrNotActive
	}

	duration := a.accrued
	if a.state == stateActive {
		duration += a.clock.Now().Sub(a.activeSince)
	}
	durationSec := int64(duration.Seconds())

	stateName := "active"
	if a.state == statePaused {
		stateName = "paused"
	}

	return Stats{
		State:       stateName,
		DistanceM:   a.distanceM,
		DurationSec: durationSec,
		AvgSpeedMps: ride.AvgSpeed(a.distanceM, durationSec),
		SampleCount: a.sampleCount,
	}, nil
}
