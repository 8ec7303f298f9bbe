package mqtt

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Azlouk-Ahmed/iot-delivery-tracking-system-sub000/internal/hub/core/model"
	"github.com/Azlouk-Ahmed/iot-delivery-tracking-system-sub000/internal/hub/core/service"
	"github.com/Azlouk-Ahmed/iot-delivery-tracking-system-sub000/internal/hub/core/session"
)

type vehiclesStub struct{}

func (vehiclesStub) Get(_ context.Context, id string) (*model.Vehicle, error) {
	if id == "truck-1" {
		return &model.Vehicle{ID: "truck-1", DriverName: "Yass", CompanyID: "acme"}, nil
	}
	return nil, model.ErrNotFound
}

type companiesStub struct{}

func (companiesStub) Get(_ context.Context, id string) (*model.Company, error) {
	return &model.Company{ID: id, Name: "Acme"}, nil
}

func (companiesStub) GetByAdmin(_ context.Context, _ string) (*model.Company, error) {
	return nil, model.ErrNotFound
}

type trajectoriesStub struct {
	mu     sync.Mutex
	points []model.TrajectoryPoint
}

func (s *trajectoriesStub) Insert(_ context.Context, p *model.TrajectoryPoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.points = append(s.points, *p)
	return nil
}

func (s *trajectoriesStub) FindBySession(context.Context, string, string) ([]model.TrajectoryPoint, error) {
	return nil, nil
}

type nopSink struct{}

func (nopSink) Publish(model.Event) {}

func newTestServer(t *testing.T) (*Server, *trajectoriesStub, *session.Registry) {
	t.Helper()
	registry := session.NewRegistry(time.Minute, nopSink{})
	t.Cleanup(registry.Close)
	trajectories := &trajectoriesStub{}
	svc := service.NewTrackingService(vehiclesStub{}, companiesStub{}, registry, trajectories, nopSink{})
	return &Server{svc: svc}, trajectories, registry
}

func TestHandleStatusMalformedPayloadIsDropped(t *testing.T) {
	s, _, registry := newTestServer(t)

	s.handleStatus(context.Background(), "truck-1", []byte(`{not json`))
	s.handleStatus(context.Background(), "truck-1", []byte(`{"timestamp":"2026-08-30T10:00:00Z"}`))

	assert.Equal(t, 0, registry.Len())
}

func TestHandleStatusStartsAndStopsSessions(t *testing.T) {
	s, _, registry := newTestServer(t)
	ctx := context.Background()

	s.handleStatus(ctx, "truck-1", []byte(`{"status":"ON","timestamp":"2026-08-30T10:00:00Z"}`))
	assert.Equal(t, 1, registry.Len())

	s.handleStatus(ctx, "truck-1", []byte(`{"status":"OFF","timestamp":"2026-08-30T10:05:00Z"}`))
	assert.Equal(t, 0, registry.Len())
}

func TestHandleStatusUnknownVehicleIsDropped(t *testing.T) {
	s, _, registry := newTestServer(t)

	s.handleStatus(context.Background(), "stranger", []byte(`{"status":"ON"}`))
	assert.Equal(t, 0, registry.Len())
}

func TestHandleGPSPersistsDuringSession(t *testing.T) {
	s, trajectories, _ := newTestServer(t)
	ctx := context.Background()

	// Before any session: dropped.
	s.handleGPS(ctx, "truck-1", []byte(`{"latitude":36.8,"longitude":10.18}`))
	assert.Empty(t, trajectories.points)

	s.handleStatus(ctx, "truck-1", []byte(`{"status":"ON"}`))
	s.handleGPS(ctx, "truck-1", []byte(`{"latitude":36.8,"longitude":10.18}`))

	require.Len(t, trajectories.points, 1)
	assert.Equal(t, "truck-1", trajectories.points[0].VehicleID)
}

func TestDispatcherSerializesPerVehicle(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d := newDispatcher(ctx, 4, 16)

	var mu sync.Mutex
	seen := map[string][]int{}
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		i := i
		for _, vehicle := range []string{"V1", "V2", "V3"} {
			vehicle := vehicle
			wg.Add(1)
			d.submit(vehicle, func(context.Context) {
				defer wg.Done()
				mu.Lock()
				seen[vehicle] = append(seen[vehicle], i)
				mu.Unlock()
			})
		}
	}
	wg.Wait()
	d.close()

	for vehicle, order := range seen {
		require.Len(t, order, 50, vehicle)
		for i := 1; i < len(order); i++ {
			assert.Less(t, order[i-1], order[i], "per-vehicle order violated for %s", vehicle)
		}
	}
}

func TestDispatcherDropsSubmitAfterClose(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d := newDispatcher(ctx, 4, 16)

	var ran bool
	d.close()
	assert.NotPanics(t, func() {
		d.submit("truck-42", func(context.Context) { ran = true })
	})
	assert.False(t, ran, "report submitted after close must be dropped")

	// close is idempotent.
	assert.NotPanics(t, d.close)
}
