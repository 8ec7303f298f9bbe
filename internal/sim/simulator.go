package sim

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Azlouk-Ahmed/iot-delivery-tracking-system-sub000/pkg/log"
	"github.com/Azlouk-Ahmed/iot-delivery-tracking-system-sub000/pkg/mqtt"
	"github.com/Azlouk-Ahmed/iot-delivery-tracking-system-sub000/pkg/mqtt/topic"
	"github.com/Azlouk-Ahmed/iot-delivery-tracking-system-sub000/pkg/options"
)

const publishQoS = 1

// Config controls one simulated fleet run.
type Config struct {
	Mqtt       *options.MqttOptions
	VehicleIDs []string

	// ReportInterval is the gap between gps reports per vehicle.
	ReportInterval time.Duration

	// StartLatitude and StartLongitude anchor the random walk.
	StartLatitude  float64
	StartLongitude float64
}

type statusReport struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

type gpsReport struct {
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Timestamp time.Time `json:"timestamp"`
}

// Simulator drives a fleet of fake vehicles against the broker. Each
// vehicle gets its own connection so the broker's last-will mechanism
// publishes OFF if the process dies mid-run.
type Simulator struct {
	cfg    Config
	topics *topic.Builder
}

func New(cfg Config) *Simulator {
	return &Simulator{
		cfg:    cfg,
		topics: topic.NewBuilder(cfg.Mqtt.TopicRoot),
	}
}

// Run drives all vehicles until ctx is cancelled, then reports OFF for
// each and disconnects.
func (s *Simulator) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, vehicleID := range s.cfg.VehicleIDs {
		vehicleID := vehicleID
		g.Go(func() error {
			return s.drive(ctx, vehicleID)
		})
	}
	return g.Wait()
}

func (s *Simulator) drive(ctx context.Context, vehicleID string) error {
	client, err := s.connect(ctx, vehicleID)
	if err != nil {
		return fmt.Errorf("vehicle %s: %w", vehicleID, err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		client.Disconnect(shutdownCtx)
	}()

	if err := s.publishStatus(ctx, client, vehicleID, "ON"); err != nil {
		return err
	}
	log.Info("Vehicle started", "vehicleID", vehicleID)

	lat := s.cfg.StartLatitude + rand.Float64()*0.05
	lng := s.cfg.StartLongitude + rand.Float64()*0.05

	ticker := time.NewTicker(s.cfg.ReportInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			lat += (rand.Float64() - 0.5) * 0.001
			lng += (rand.Float64() - 0.5) * 0.001
			if err := s.publishGPS(ctx, client, vehicleID, lat, lng); err != nil {
				log.Error(err, "Failed to publish gps report", "vehicleID", vehicleID)
			}
		case <-ctx.Done():
			// Clean shutdown: explicit OFF so the hub ends the session
			// without waiting for the heartbeat window.
			offCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			err := s.publishStatus(offCtx, client, vehicleID, "OFF")
			cancel()
			if err != nil {
				log.Error(err, "Failed to publish final OFF", "vehicleID", vehicleID)
			}
			log.Info("Vehicle stopped", "vehicleID", vehicleID)
			return nil
		}
	}
}

// connect dials the broker with a last-will OFF report on the vehicle's
// status topic.
func (s *Simulator) connect(ctx context.Context, vehicleID string) (mqtt.Client, error) {
	will, err := json.Marshal(statusReport{Status: "OFF", Timestamp: time.Now()})
	if err != nil {
		return nil, err
	}

	cfg := s.cfg.Mqtt.ToClientConfig()
	cfg.ClientID = "track-sim-" + vehicleID
	cfg.WillTopic = s.topics.Status(vehicleID)
	cfg.WillPayload = will
	cfg.WillQoS = byte(publishQoS)

	client, err := mqtt.NewClient(cfg)
	if err != nil {
		return nil, err
	}
	if err := client.Start(ctx); err != nil {
		return nil, err
	}
	if err := client.AwaitConnection(ctx); err != nil {
		return nil, err
	}
	return client, nil
}

func (s *Simulator) publishStatus(ctx context.Context, client mqtt.Client, vehicleID, status string) error {
	payload, err := json.Marshal(statusReport{Status: status, Timestamp: time.Now()})
	if err != nil {
		return err
	}
	return client.Publish(ctx, s.topics.Status(vehicleID), publishQoS, false, payload)
}

func (s *Simulator) publishGPS(ctx context.Context, client mqtt.Client, vehicleID string, lat, lng float64) error {
	payload, err := json.Marshal(gpsReport{Latitude: lat, Longitude: lng, Timestamp: time.Now()})
	if err != nil {
		return err
	}
	return client.Publish(ctx, s.topics.GPS(vehicleID), publishQoS, false, payload)
}
