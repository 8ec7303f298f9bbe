package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Azlouk-Ahmed/iot-delivery-tracking-system-sub000/internal/hub/core/model"
	"github.com/Azlouk-Ahmed/iot-delivery-tracking-system-sub000/internal/hub/core/service"
	"github.com/Azlouk-Ahmed/iot-delivery-tracking-system-sub000/internal/hub/core/session"
	"github.com/Azlouk-Ahmed/iot-delivery-tracking-system-sub000/pkg/options"
)

type vehiclesStub struct{}

func (vehiclesStub) Get(_ context.Context, id string) (*model.Vehicle, error) {
	return &model.Vehicle{ID: id, DriverName: "Aziz", CompanyID: "acme"}, nil
}

type companiesStub struct{}

func (companiesStub) Get(_ context.Context, id string) (*model.Company, error) {
	return &model.Company{ID: id, Name: "Acme"}, nil
}

func (companiesStub) GetByAdmin(context.Context, string) (*model.Company, error) {
	return nil, model.ErrNotFound
}

type trajectoriesStub struct {
	points []model.TrajectoryPoint
}

func (s *trajectoriesStub) Insert(_ context.Context, p *model.TrajectoryPoint) error {
	s.points = append(s.points, *p)
	return nil
}

func (s *trajectoriesStub) FindBySession(_ context.Context, vehicleID, sessionID string) ([]model.TrajectoryPoint, error) {
	var out []model.TrajectoryPoint
	for _, p := range s.points {
		if p.VehicleID == vehicleID && p.SessionID == sessionID {
			out = append(out, p)
		}
	}
	return out, nil
}

type nopSink struct{}

func (nopSink) Publish(model.Event) {}

func newTestHandler(t *testing.T, checks map[string]ReadyCheck) (http.Handler, *service.TrackingService) {
	t.Helper()
	registry := session.NewRegistry(time.Minute, nopSink{})
	t.Cleanup(registry.Close)
	svc := service.NewTrackingService(vehiclesStub{}, companiesStub{}, registry, &trajectoriesStub{}, nopSink{})
	srv := NewServer(options.NewHttpOptions(), "/ws", http.NotFoundHandler(), svc, checks)
	return srv.server.Handler, svc
}

func TestHealthz(t *testing.T) {
	handler, _ := newTestHandler(t, nil)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadyzReflectsChecks(t *testing.T) {
	down := errors.New("connection refused")
	checks := map[string]ReadyCheck{
		"mongodb": func(context.Context) error { return down },
	}
	handler, _ := newTestHandler(t, checks)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	down = nil
	checks["mongodb"] = func(context.Context) error { return nil }
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSessionsSnapshot(t *testing.T) {
	handler, svc := newTestHandler(t, nil)

	require.NoError(t, svc.HandleStatus(context.Background(), "truck-1", model.StatusOn, time.Now()))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/sessions", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var sessions []model.VehicleSession
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sessions))
	require.Len(t, sessions, 1)
	assert.Equal(t, "truck-1", sessions[0].VehicleID)
	assert.Equal(t, "Aziz", sessions[0].DriverName)
}

func TestTraceEndpoint(t *testing.T) {
	handler, svc := newTestHandler(t, nil)
	ctx := context.Background()

	require.NoError(t, svc.HandleStatus(ctx, "truck-1", model.StatusOn, time.Now()))
	require.NoError(t, svc.HandleLocation(ctx, "truck-1", 36.8065, 10.1815, time.Now()))
	sessionID := svc.Sessions()[0].SessionID

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/trace/truck-1/"+sessionID, nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var points []model.TrajectoryPoint
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &points))
	require.Len(t, points, 1)
	assert.Equal(t, "truck-1", points[0].VehicleID)
	assert.Equal(t, 36.8065, points[0].Latitude)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/trace/truck-1/unknown-session", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMetricsEndpointServes(t *testing.T) {
	handler, _ := newTestHandler(t, nil)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "trackhub_active_sessions")
}
