package telemetry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/robertterquin/RIdeTrack/internal/ride"
	"github.com/robertterquin/RIdeTrack/internal/shared/clock"
)

type fakeRideSaver struct {
	saved []ride.Ride
	err   error
}

func (f *fakeRideSaver) Save(_ context.Context, r ride.Ride) (ride.Ride, error) {
	if f.err != nil {
		return ride.Ride{}, f.err
	}
	r.ID = "ride-1"
	f.saved = append(f.saved, r)
	return r, nil
}

type fakeBroadcaster struct {
	sessions []string
	payloads [][]byte
}

func (f *fakeBroadcaster) Broadcast(sessionID string, payload []byte) {
	f.sessions = append(f.sessions, sessionID)
	f.payloads = append(f.payloads, payload)
}

func TestManagerOneSessionPerUser(t *testing.T) {
	mgr := NewManager(&fakeRideSaver{}, nil, &clock.Fixed{Current: sessionStartTime})

	if _, err := mgr.Start("user-1", "", "", "", nil); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := mgr.Start("user-1", "", "", "", nil); err != ErrAlreadyActive {
		t.Fatalf("expected ErrAlreadyActive, got %v", err)
	}
	// another user is unaffected
	if _, err := mgr.Start("user-2", "", "", "", nil); err != nil {
		t.Fatalf("start other user: %v", err)
	}
}

func TestManagerAcceptBroadcasts(t *testing.T) {
	hub := &fakeBroadcaster{}
	mgr := NewManager(&fakeRideSaver{}, hub, &clock.Fixed{Current: sessionStartTime})

	session, err := mgr.Start("user-1", "Morning loop", "cycling", "", nil)
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	if err := mgr.Accept("user-1", pos(52.52, 13.405, sessionStartTime)); err != nil {
		t.Fatalf("accept: %v", err)
	}
	if len(hub.sessions) != 1 || hub.sessions[0] != session.ID {
		t.Fatalf("expected broadcast on session %s, got %v", session.ID, hub.sessions)
	}
}

func TestManagerAcceptWithoutSession(t *testing.T) {
	mgr := NewManager(&fakeRideSaver{}, nil, nil)
	if err := mgr.Accept("user-1", pos(52.52, 13.405, time.Now())); err != ErrNotActive {
		t.Fatalf("expected ErrNotActive, got %v", err)
	}
}

func TestManagerFinalizePersistsRide(t *testing.T) {
	saver := &fakeRideSaver{}
	fc := &clock.Fixed{Current: sessionStartTime}
	mgr := NewManager(saver, nil, fc)

	if _, err := mgr.Start("user-1", "Commute", "cycling", "route-9", nil); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := mgr.Accept("user-1", pos(52.520, 13.405, sessionStartTime)); err != nil {
		t.Fatalf("accept: %v", err)
	}
	if err := mgr.Accept("user-1", pos(52.521, 13.405, sessionStartTime.Add(time.Minute))); err != nil {
		t.Fatalf("accept: %v", err)
	}
	fc.Advance(time.Minute)

	record, err := mgr.Finalize(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if record.UserID != "user-1" || record.Name != "Commute" || record.PlannedRouteID != "route-9" {
		t.Fatalf("unexpected record: %+v", record)
	}
	if len(saver.saved) != 1 {
		t.Fatalf("expected ride saved")
	}
	if record.DistanceM <= 0 || record.DurationSec != 60 {
		t.Fatalf("unexpected stats: %+v", record)
	}

	// the session is gone; a new one can start
	if _, err := mgr.Finalize(context.Background(), "user-1"); err != ErrNotActive {
		t.Fatalf("expected ErrNotActive, got %v", err)
	}
	if _, err := mgr.Start("user-1", "", "", "", nil); err != nil {
		t.Fatalf("restart: %v", err)
	}
}

func TestManagerFinalizeSaveError(t *testing.T) {
	saver := &fakeRideSaver{err: errors.New("db down")}
	mgr := NewManager(saver, nil, &clock.Fixed{Current: sessionStartTime})

	if _, err := mgr.Start("user-1", "", "", "", nil); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := mgr.Finalize(context.Background(), "user-1"); err == nil {
		t.Fatalf("expected save error")
	}
}

func TestManagerCurrent(t *testing.T) {
	mgr := NewManager(&fakeRideSaver{}, nil, &clock.Fixed{Current: sessionStartTime})

	if _, err := mgr.Current("user-1"); err != ErrNotActive {
		t.Fatalf("expected ErrNotActive, got %v", err)
	}

	started, err := mgr.Start("user-1", "Morning loop", "", "", nil)
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	current, err := mgr.Current("user-1")
	if err != nil {
		t.Fatalf("current: %v", err)
	}
	if current.ID != started.ID || current.Stats.State != "active" {
		t.Fatalf("unexpected session: %+v", current)
	}
}

func TestManagerPauseResume(t *testing.T) {
	mgr := NewManager(&fakeRideSaver{}, nil, &clock.Fixed{Current: sessionStartTime})

	if err := mgr.Pause("user-1"); err != ErrNotActive {
		t.Fatalf("expected ErrNotActive, got %v", err)
	}

	if _, err := mgr.Start("user-1", "", "", "", nil); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := mgr.Pause("user-1"); err != nil {
		t.Fatalf("pause: %v", err)
	}
	current, err := mgr.Current("user-1")
	if err != nil || current.Stats.State != "paused" {
		t.Fatalf("expected paused state, got %+v (%v)", current, err)
	}
	if err := mgr.Resume("user-1"); err != nil {
		t.Fatalf("resume: %v", err)
	}
}
