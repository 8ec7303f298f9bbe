package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Azlouk-Ahmed/iot-delivery-tracking-system-sub000/internal/hub/core/model"
	"github.com/Azlouk-Ahmed/iot-delivery-tracking-system-sub000/internal/hub/core/session"
)

type fakeVehicles struct {
	vehicles map[string]*model.Vehicle
	err      error
}

func (f *fakeVehicles) Get(_ context.Context, id string) (*model.Vehicle, error) {
	if f.err != nil {
		return nil, f.err
	}
	v, ok := f.vehicles[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	return v, nil
}

type fakeCompanies struct {
	companies map[string]*model.Company
}

func (f *fakeCompanies) Get(_ context.Context, id string) (*model.Company, error) {
	c, ok := f.companies[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	return c, nil
}

func (f *fakeCompanies) GetByAdmin(_ context.Context, _ string) (*model.Company, error) {
	return nil, model.ErrNotFound
}

type fakeTrajectories struct {
	mu     sync.Mutex
	points []model.TrajectoryPoint
	err    error
}

func (f *fakeTrajectories) Insert(_ context.Context, p *model.TrajectoryPoint) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.points = append(f.points, *p)
	return nil
}

func (f *fakeTrajectories) FindBySession(_ context.Context, vehicleID, sessionID string) ([]model.TrajectoryPoint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.TrajectoryPoint
	for _, p := range f.points {
		if p.VehicleID == vehicleID && p.SessionID == sessionID {
			out = append(out, p)
		}
	}
	return out, nil
}

type recordingSink struct {
	mu     sync.Mutex
	events []model.Event
}

func (r *recordingSink) Publish(e model.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recordingSink) ofType(t model.EventType) []model.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Event
	for _, e := range r.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

func newTestService(t *testing.T) (*TrackingService, *fakeTrajectories, *recordingSink) {
	t.Helper()
	sink := &recordingSink{}
	registry := session.NewRegistry(time.Minute, sink)
	t.Cleanup(registry.Close)
	trajectories := &fakeTrajectories{}
	svc := NewTrackingService(
		&fakeVehicles{vehicles: map[string]*model.Vehicle{
			"truck-1": {ID: "truck-1", DriverName: "Sami", Model: "Partner", CompanyID: "acme"},
		}},
		&fakeCompanies{companies: map[string]*model.Company{
			"acme": {ID: "acme", Name: "Acme Delivery"},
		}},
		registry,
		trajectories,
		sink,
	)
	return svc, trajectories, sink
}

func TestStatusOnStartsSessionWithDirectoryData(t *testing.T) {
	svc, _, sink := newTestService(t)

	require.NoError(t, svc.HandleStatus(context.Background(), "truck-1", model.StatusOn, time.Now()))

	started := sink.ofType(model.EventStarted)
	require.Len(t, started, 1)
	assert.Equal(t, "Sami", started[0].Session.DriverName)
	assert.Equal(t, "Acme Delivery", started[0].Session.CompanyName)
}

func TestStatusForUnknownVehicleIsDropped(t *testing.T) {
	svc, _, sink := newTestService(t)

	require.NoError(t, svc.HandleStatus(context.Background(), "stranger", model.StatusOn, time.Now()))

	assert.Empty(t, sink.events)
	assert.Empty(t, svc.Sessions())
}

func TestDirectoryFailureEmitsBrokerError(t *testing.T) {
	sink := &recordingSink{}
	registry := session.NewRegistry(time.Minute, sink)
	t.Cleanup(registry.Close)
	svc := NewTrackingService(
		&fakeVehicles{err: errors.New("connection reset")},
		&fakeCompanies{},
		registry,
		&fakeTrajectories{},
		sink,
	)

	err := svc.HandleStatus(context.Background(), "truck-1", model.StatusOn, time.Now())
	require.Error(t, err)
	assert.Len(t, sink.ofType(model.EventBrokerError), 1)
}

func TestLocationPersistsPointStampedWithSession(t *testing.T) {
	svc, trajectories, _ := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.HandleStatus(ctx, "truck-1", model.StatusOn, time.Now()))
	require.NoError(t, svc.HandleLocation(ctx, "truck-1", 36.8, 10.18, time.Now()))

	sessions := svc.Sessions()
	require.Len(t, sessions, 1)

	require.Len(t, trajectories.points, 1)
	assert.Equal(t, sessions[0].SessionID, trajectories.points[0].SessionID)
	assert.Equal(t, 36.8, trajectories.points[0].Latitude)
}

func TestLocationWithoutSessionNotPersisted(t *testing.T) {
	svc, trajectories, sink := newTestService(t)

	require.NoError(t, svc.HandleLocation(context.Background(), "truck-1", 36.8, 10.18, time.Now()))

	assert.Empty(t, trajectories.points)
	assert.Empty(t, sink.events)
}

func TestPersistenceFailureKeepsSessionAlive(t *testing.T) {
	sink := &recordingSink{}
	registry := session.NewRegistry(time.Minute, sink)
	t.Cleanup(registry.Close)
	trajectories := &fakeTrajectories{err: errors.New("write concern timeout")}
	svc := NewTrackingService(
		&fakeVehicles{vehicles: map[string]*model.Vehicle{
			"truck-1": {ID: "truck-1", CompanyID: "acme"},
		}},
		&fakeCompanies{companies: map[string]*model.Company{"acme": {ID: "acme", Name: "Acme"}}},
		registry,
		trajectories,
		sink,
	)
	ctx := context.Background()

	require.NoError(t, svc.HandleStatus(ctx, "truck-1", model.StatusOn, time.Now()))
	err := svc.HandleLocation(ctx, "truck-1", 36.8, 10.18, time.Now())
	require.Error(t, err)

	// The live location event was already fanned out and the session survives.
	assert.Len(t, sink.ofType(model.EventLocation), 1)
	assert.Len(t, sink.ofType(model.EventBrokerError), 1)
	assert.Len(t, svc.Sessions(), 1)
}

func TestStatusOffEndsSession(t *testing.T) {
	svc, _, sink := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.HandleStatus(ctx, "truck-1", model.StatusOn, time.Now()))
	require.NoError(t, svc.HandleStatus(ctx, "truck-1", model.StatusOff, time.Now()))

	assert.Empty(t, svc.Sessions())
	assert.Len(t, sink.ofType(model.EventStopped), 1)
}
