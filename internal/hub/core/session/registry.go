package session

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/looplab/fsm"

	"github.com/Azlouk-Ahmed/iot-delivery-tracking-system-sub000/internal/hub/core"
	"github.com/Azlouk-Ahmed/iot-delivery-tracking-system-sub000/internal/hub/core/model"
	"github.com/Azlouk-Ahmed/iot-delivery-tracking-system-sub000/internal/pkg/metrics"
	"github.com/Azlouk-Ahmed/iot-delivery-tracking-system-sub000/pkg/log"
)

// Registry is the single source of truth for which vehicles are currently
// reporting. It owns one heartbeat timer per active session and produces
// the domain events the fan-out layer delivers.
//
// All state mutation for a vehicle goes through the registry mutex, so
// concurrent reports for the same vehicle can never create two sessions or
// two timers. Events are emitted to the sink while the lock is held, which
// is what guarantees per-vehicle ordering; the sink contract is therefore
// strictly non-blocking.
type Registry struct {
	window time.Duration
	sink   core.EventSink

	mu       sync.Mutex
	sessions map[string]*activeSession
	closed   bool
}

// activeSession pairs the session record with its state machine and the
// live heartbeat timer. gen invalidates timers scheduled before the most
// recent accepted report, so a stale callback that lost the race for the
// lock becomes a no-op.
type activeSession struct {
	model.VehicleSession

	machine *fsm.FSM
	timer   *time.Timer
	gen     uint64
}

// NewRegistry creates a Registry with the given heartbeat window.
func NewRegistry(window time.Duration, sink core.EventSink) *Registry {
	return &Registry{
		window:   window,
		sink:     sink,
		sessions: make(map[string]*activeSession),
	}
}

// IgnitionOn applies a status=ON report for an already-resolved vehicle.
//
// If no session exists, one is created with a fresh session id and a
// STARTED event fires. If a session is already active the report is an
// idempotent refresh: lastSeenAt advances and the heartbeat timer resets,
// keeping the existing session id. No second timer is ever created.
func (r *Registry) IgnitionOn(ctx context.Context, vehicle *model.Vehicle, company *model.Company, ts time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return fmt.Errorf("session registry is closed")
	}

	if s, ok := r.sessions[vehicle.ID]; ok {
		s.LastSeenAt = ts
		r.resetTimer(s)
		log.Debug("Refreshed active session", "vehicleID", vehicle.ID, "sessionID", s.SessionID)
		return nil
	}

	s := &activeSession{
		VehicleSession: model.VehicleSession{
			VehicleID:   vehicle.ID,
			SessionID:   uuid.NewString(),
			DriverName:  vehicle.DriverName,
			Model:       vehicle.Model,
			CompanyID:   vehicle.CompanyID,
			CompanyName: company.Name,
			StartedAt:   ts,
			LastSeenAt:  ts,
		},
	}
	s.machine = newSessionMachine(r)
	r.sessions[vehicle.ID] = s

	if err := s.machine.Event(ctx, eventIgnitionOn, s, ts); err != nil {
		delete(r.sessions, vehicle.ID)
		return fmt.Errorf("session transition failed: %w", err)
	}

	metrics.ActiveSessions.Set(float64(len(r.sessions)))
	return nil
}

// IgnitionOff applies a status=OFF report. An OFF for a vehicle with no
// active session is a no-op.
func (r *Registry) IgnitionOff(ctx context.Context, vehicleID string, ts time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[vehicleID]
	if !ok {
		log.Debug("OFF report with no active session", "vehicleID", vehicleID)
		return nil
	}

	s.LastSeenAt = ts
	if err := s.machine.Event(ctx, eventIgnitionOff, s, ts); err != nil {
		return fmt.Errorf("session transition failed: %w", err)
	}

	metrics.ActiveSessions.Set(float64(len(r.sessions)))
	return nil
}

// Location applies a location report. If the vehicle has an active session
// the report refreshes the heartbeat, a location event fires, and a copy of
// the session (carrying the session id to stamp the point with) is
// returned. With no active session the report is dropped: ok is false and
// nothing happens.
func (r *Registry) Location(vehicleID string, latitude, longitude float64, ts time.Time) (model.VehicleSession, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[vehicleID]
	if !ok {
		return model.VehicleSession{}, false
	}

	s.LastSeenAt = ts
	r.resetTimer(s)

	snapshot := s.VehicleSession
	r.emit(model.Event{
		Type:    model.EventLocation,
		Session: snapshot,
		Point: &model.TrajectoryPoint{
			VehicleID: vehicleID,
			SessionID: s.SessionID,
			Latitude:  latitude,
			Longitude: longitude,
			Timestamp: ts,
		},
		Timestamp: ts,
	})

	return snapshot, true
}

// Snapshot returns a copy of every active session, ordered by vehicle id.
func (r *Registry) Snapshot() []model.VehicleSession {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]model.VehicleSession, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, s.VehicleSession)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].VehicleID < out[j].VehicleID })
	return out
}

// Len returns the number of active sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Close cancels every pending heartbeat timer and rejects further reports.
// Active sessions are discarded without events: in-memory state does not
// survive a restart and vehicles re-establish sessions on their next report.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.closed = true
	for _, s := range r.sessions {
		if s.timer != nil {
			s.timer.Stop()
		}
	}
	r.sessions = make(map[string]*activeSession)
	metrics.ActiveSessions.Set(0)
}

// --- state machine callbacks (run with r.mu held) ---

// onSessionStarted fires on entering "on": announce the session and arm the
// heartbeat timer.
func (r *Registry) onSessionStarted(ctx context.Context, e *fsm.Event) error {
	s := e.Args[0].(*activeSession)
	ts := e.Args[1].(time.Time)

	r.armTimer(s)

	log.Info("Vehicle session started",
		"vehicleID", s.VehicleID,
		"sessionID", s.SessionID,
		"company", s.CompanyName,
	)

	r.emit(model.Event{
		Type:      model.EventStarted,
		Session:   s.VehicleSession,
		Status:    model.StatusOn,
		Timestamp: ts,
	})
	return nil
}

// onSessionEnded fires on entering "off" from either an explicit OFF report
// or heartbeat expiry. It releases the timer exactly once, removes the
// session, and emits the matching event.
func (r *Registry) onSessionEnded(ctx context.Context, e *fsm.Event) error {
	s := e.Args[0].(*activeSession)
	ts := e.Args[1].(time.Time)

	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	delete(r.sessions, s.VehicleID)

	event := model.Event{
		Session:   s.VehicleSession,
		Status:    model.StatusOff,
		Timestamp: ts,
	}

	switch e.Event {
	case eventIgnitionOff:
		event.Type = model.EventStopped
		log.Info("Vehicle session stopped", "vehicleID", s.VehicleID, "sessionID", s.SessionID)
	case eventExpire:
		event.Type = model.EventTimedOut
		event.Status = model.StatusTimeout
		event.Reason = "no report within timeout window"
		metrics.HeartbeatTimeouts.Inc()
		log.Warn("Vehicle session timed out",
			"vehicleID", s.VehicleID,
			"sessionID", s.SessionID,
			"window", r.window,
		)
	}

	r.emit(event)
	return nil
}

// --- heartbeat timers ---

// armTimer schedules expiry for the session's current generation.
func (r *Registry) armTimer(s *activeSession) {
	gen := s.gen
	vehicleID := s.VehicleID
	s.timer = time.AfterFunc(r.window, func() {
		r.expire(vehicleID, gen)
	})
}

// resetTimer invalidates the prior schedule and starts a fresh window.
// Bumping gen first means an already-fired callback waiting on the lock
// observes a generation mismatch and does nothing.
func (r *Registry) resetTimer(s *activeSession) {
	s.gen++
	if s.timer != nil {
		s.timer.Stop()
	}
	r.armTimer(s)
}

// expire is the timer callback.
func (r *Registry) expire(vehicleID string, gen uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[vehicleID]
	if !ok || s.gen != gen {
		// Session already ended, or a report reset the window after this
		// timer fired.
		return
	}

	if err := s.machine.Event(context.Background(), eventExpire, s, time.Now()); err != nil {
		log.Error(err, "Failed to expire session", "vehicleID", vehicleID)
	}

	metrics.ActiveSessions.Set(float64(len(r.sessions)))
}

func (r *Registry) emit(event model.Event) {
	if r.sink != nil {
		r.sink.Publish(event)
	}
}
