package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Azlouk-Ahmed/iot-delivery-tracking-system-sub000/internal/hub/core"
	"github.com/Azlouk-Ahmed/iot-delivery-tracking-system-sub000/internal/hub/core/model"
	"github.com/Azlouk-Ahmed/iot-delivery-tracking-system-sub000/internal/hub/core/session"
	"github.com/Azlouk-Ahmed/iot-delivery-tracking-system-sub000/internal/pkg/metrics"
	"github.com/Azlouk-Ahmed/iot-delivery-tracking-system-sub000/pkg/log"
)

// TrackingService sits between the broker ingestion layer and the session
// registry. It resolves vehicles against the directory, routes status and
// location reports, and persists trajectory points. Reports for vehicles
// the directory does not know are dropped.
type TrackingService struct {
	vehicles     core.VehicleDirectory
	companies    core.CompanyDirectory
	registry     *session.Registry
	trajectories core.TrajectoryStore
	sink         core.EventSink
}

func NewTrackingService(
	vehicles core.VehicleDirectory,
	companies core.CompanyDirectory,
	registry *session.Registry,
	trajectories core.TrajectoryStore,
	sink core.EventSink,
) *TrackingService {
	return &TrackingService{
		vehicles:     vehicles,
		companies:    companies,
		registry:     registry,
		trajectories: trajectories,
		sink:         sink,
	}
}

// HandleStatus processes a status report from the broker.
func (s *TrackingService) HandleStatus(ctx context.Context, vehicleID, status string, ts time.Time) error {
	switch status {
	case model.StatusOn:
		vehicle, company, err := s.resolve(ctx, vehicleID)
		if err != nil {
			if errors.Is(err, model.ErrNotFound) {
				metrics.MessagesDropped.WithLabelValues("unknown_vehicle").Inc()
				log.Warn("Dropping status report for unknown vehicle", "vehicleID", vehicleID)
				return nil
			}
			s.reportFailure(ts, fmt.Sprintf("directory lookup for vehicle %s failed", vehicleID))
			return err
		}
		return s.registry.IgnitionOn(ctx, vehicle, company, ts)
	case model.StatusOff:
		return s.registry.IgnitionOff(ctx, vehicleID, ts)
	default:
		metrics.MessagesDropped.WithLabelValues("malformed").Inc()
		log.Warn("Dropping status report with unknown status", "vehicleID", vehicleID, "status", status)
		return nil
	}
}

// HandleLocation processes a location report from the broker. Points for
// vehicles without an active session are dropped. A persistence failure is
// surfaced as a broker-error event but never rolls back the session state;
// the live fan-out already happened.
func (s *TrackingService) HandleLocation(ctx context.Context, vehicleID string, latitude, longitude float64, ts time.Time) error {
	snapshot, ok := s.registry.Location(vehicleID, latitude, longitude, ts)
	if !ok {
		metrics.MessagesDropped.WithLabelValues("no_session").Inc()
		log.Debug("Dropping location report without active session", "vehicleID", vehicleID)
		return nil
	}

	point := &model.TrajectoryPoint{
		VehicleID: vehicleID,
		SessionID: snapshot.SessionID,
		Latitude:  latitude,
		Longitude: longitude,
		Timestamp: ts,
	}
	if err := s.trajectories.Insert(ctx, point); err != nil {
		metrics.TrajectoryWriteFailures.Inc()
		s.reportFailure(ts, fmt.Sprintf("failed to persist trajectory point for vehicle %s", vehicleID))
		return fmt.Errorf("insert trajectory point: %w", err)
	}
	return nil
}

// Sessions returns a snapshot of all active sessions.
func (s *TrackingService) Sessions() []model.VehicleSession {
	return s.registry.Snapshot()
}

// Trace returns the persisted trajectory of one session.
func (s *TrackingService) Trace(ctx context.Context, vehicleID, sessionID string) ([]model.TrajectoryPoint, error) {
	return s.trajectories.FindBySession(ctx, vehicleID, sessionID)
}

func (s *TrackingService) resolve(ctx context.Context, vehicleID string) (*model.Vehicle, *model.Company, error) {
	vehicle, err := s.vehicles.Get(ctx, vehicleID)
	if err != nil {
		return nil, nil, err
	}
	company, err := s.companies.Get(ctx, vehicle.CompanyID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			// A vehicle pointing at a missing company is a data problem,
			// not a reason to lose the session.
			log.Warn("Vehicle references unknown company", "vehicleID", vehicleID, "companyID", vehicle.CompanyID)
			return vehicle, &model.Company{ID: vehicle.CompanyID}, nil
		}
		return nil, nil, err
	}
	return vehicle, company, nil
}

func (s *TrackingService) reportFailure(ts time.Time, reason string) {
	if s.sink == nil {
		return
	}
	s.sink.Publish(model.Event{
		Type:      model.EventBrokerError,
		Reason:    reason,
		Timestamp: ts,
	})
}
