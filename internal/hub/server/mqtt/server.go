package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Azlouk-Ahmed/iot-delivery-tracking-system-sub000/internal/hub/core/service"
	"github.com/Azlouk-Ahmed/iot-delivery-tracking-system-sub000/internal/pkg/metrics"
	"github.com/Azlouk-Ahmed/iot-delivery-tracking-system-sub000/pkg/log"
	pkgmqtt "github.com/Azlouk-Ahmed/iot-delivery-tracking-system-sub000/pkg/mqtt"
	"github.com/Azlouk-Ahmed/iot-delivery-tracking-system-sub000/pkg/mqtt/topic"
)

const (
	subscribeQoS = 1

	dispatchShards     = 16
	dispatchQueueDepth = 128
)

// statusReport is the payload of the status topic.
type statusReport struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// gpsReport is the payload of the gps topic.
type gpsReport struct {
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Timestamp time.Time `json:"timestamp"`
}

// Server is the telemetry ingress: it subscribes to the vehicle topics and
// feeds decoded reports to the tracking service through a per-vehicle
// serialized dispatcher.
type Server struct {
	client pkgmqtt.Client
	topics *topic.Builder
	svc    *service.TrackingService
}

func NewServer(client pkgmqtt.Client, builder *topic.Builder, svc *service.TrackingService) *Server {
	return &Server{
		client: client,
		topics: builder,
		svc:    svc,
	}
}

// Start connects to the broker, subscribes, and serves until ctx ends.
func (s *Server) Start(ctx context.Context) error {
	if err := s.client.Start(ctx); err != nil {
		return err
	}

	log.Info("Waiting for MQTT connection...")
	if err := s.client.AwaitConnection(ctx); err != nil {
		s.disconnect()
		return err
	}
	log.Info("MQTT Connected")

	d := newDispatcher(ctx, dispatchShards, dispatchQueueDepth)

	if err := s.initSubscriptions(ctx, d); err != nil {
		s.disconnect()
		d.close()
		return err
	}

	<-ctx.Done()

	// The receive loop must stop before the shard queues close so a
	// late report cannot hit a closed queue.
	s.disconnect()
	d.close()
	return nil
}

func (s *Server) disconnect() {
	log.Info("Disconnecting MQTT client...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.client.Disconnect(shutdownCtx)
	log.Info("MQTT client disconnected")
}

func (s *Server) initSubscriptions(ctx context.Context, d *dispatcher) error {
	subscriptions := map[string]func(ctx context.Context, vehicleID string, payload []byte){
		s.topics.StatusWildcard(): s.handleStatus,
		s.topics.GPSWildcard():    s.handleGPS,
	}

	for filter, handler := range subscriptions {
		handler := handler
		err := s.client.Subscribe(ctx, filter, subscribeQoS, func(c context.Context, t string, p []byte) {
			vehicleID, err := s.topics.VehicleID(t)
			if err != nil {
				metrics.MessagesDropped.WithLabelValues("malformed").Inc()
				log.Warn("Dropping message on unparseable topic", "topic", t)
				return
			}
			d.submit(vehicleID, func(jobCtx context.Context) {
				handler(jobCtx, vehicleID, p)
			})
		})
		if err != nil {
			return fmt.Errorf("failed to subscribe to topic: %s, err: %w", filter, err)
		}
	}
	return nil
}

// handleStatus decodes and applies one status report. Malformed payloads
// are dropped with no state change.
func (s *Server) handleStatus(ctx context.Context, vehicleID string, payload []byte) {
	var report statusReport
	if err := json.Unmarshal(payload, &report); err != nil || report.Status == "" {
		metrics.MessagesDropped.WithLabelValues("malformed").Inc()
		log.Warn("Dropping malformed status payload", "vehicleID", vehicleID)
		return
	}
	metrics.MessagesIngested.WithLabelValues("status").Inc()

	ts := report.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	if err := s.svc.HandleStatus(ctx, vehicleID, report.Status, ts); err != nil {
		log.Error(err, "Status report handling failed", "vehicleID", vehicleID, "status", report.Status)
	}
}

func (s *Server) handleGPS(ctx context.Context, vehicleID string, payload []byte) {
	var report gpsReport
	if err := json.Unmarshal(payload, &report); err != nil {
		metrics.MessagesDropped.WithLabelValues("malformed").Inc()
		log.Warn("Dropping malformed gps payload", "vehicleID", vehicleID)
		return
	}
	metrics.MessagesIngested.WithLabelValues("gps").Inc()

	ts := report.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	if err := s.svc.HandleLocation(ctx, vehicleID, report.Latitude, report.Longitude, ts); err != nil {
		log.Error(err, "Location report handling failed", "vehicleID", vehicleID)
	}
}
