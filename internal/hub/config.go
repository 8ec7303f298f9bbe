package hub

import (
	"context"
	"fmt"
	"os"

	"github.com/Azlouk-Ahmed/iot-delivery-tracking-system-sub000/internal/hub/core"
	"github.com/Azlouk-Ahmed/iot-delivery-tracking-system-sub000/internal/hub/core/archive"
	"github.com/Azlouk-Ahmed/iot-delivery-tracking-system-sub000/internal/hub/core/service"
	"github.com/Azlouk-Ahmed/iot-delivery-tracking-system-sub000/internal/hub/core/session"
	"github.com/Azlouk-Ahmed/iot-delivery-tracking-system-sub000/internal/hub/mongodb"
	"github.com/Azlouk-Ahmed/iot-delivery-tracking-system-sub000/internal/hub/server"
	hubhttp "github.com/Azlouk-Ahmed/iot-delivery-tracking-system-sub000/internal/hub/server/http"
	hubmqtt "github.com/Azlouk-Ahmed/iot-delivery-tracking-system-sub000/internal/hub/server/mqtt"
	"github.com/Azlouk-Ahmed/iot-delivery-tracking-system-sub000/internal/hub/server/ws"
	"github.com/Azlouk-Ahmed/iot-delivery-tracking-system-sub000/internal/hub/storage"
	"github.com/Azlouk-Ahmed/iot-delivery-tracking-system-sub000/pkg/log"
	"github.com/Azlouk-Ahmed/iot-delivery-tracking-system-sub000/pkg/mqtt"
	"github.com/Azlouk-Ahmed/iot-delivery-tracking-system-sub000/pkg/mqtt/topic"
	"github.com/Azlouk-Ahmed/iot-delivery-tracking-system-sub000/pkg/options"
)

type Config struct {
	MqttOptions      *options.MqttOptions
	HttpOptions      *options.HttpOptions
	MongoOptions     *options.MongoOptions
	S3Options        *options.S3Options
	SessionOptions   *options.SessionOptions
	WebsocketOptions *options.WebsocketOptions
}

// NewHubServer wires the full pipeline: broker ingestion, session
// registry, trajectory persistence, and dashboard fan-out.
func (cfg *Config) NewHubServer(ctx context.Context) (*HubServer, error) {
	// 1. Infrastructure: directories and trajectory store.
	store, err := mongodb.Connect(ctx, cfg.MongoOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to init mongodb: %w", err)
	}

	// 2. Fan-out: connection registry and event router.
	connections := ws.NewRegistry()
	var sink core.EventSink = ws.NewRouter(connections)

	// 3. Optional trace archival decorating the sink.
	var archiveSink *archive.Sink
	if cfg.S3Options.Enabled {
		minioAdapter, err := storage.NewMinIO(cfg.S3Options)
		if err != nil {
			return nil, fmt.Errorf("failed to init object storage: %w", err)
		}
		if err := minioAdapter.CheckBucket(ctx); err != nil {
			return nil, err
		}
		archiveSink = archive.NewSink(sink, store.Trajectories, minioAdapter)
		sink = archiveSink
	}

	// 4. Core domain: session registry and tracking service.
	registry := session.NewRegistry(cfg.SessionOptions.HeartbeatWindow, sink)
	svc := service.NewTrackingService(store.Vehicles, store.Companies, registry, store.Trajectories, sink)

	// 5. Ingress servers.
	mqttClient, err := initMQTTClient(cfg.MqttOptions)
	if err != nil {
		return nil, err
	}
	topics := topic.NewBuilder(cfg.MqttOptions.TopicRoot)
	mqttSrv := hubmqtt.NewServer(mqttClient, topics, svc)

	authenticator := ws.NewAuthenticator(cfg.WebsocketOptions.JWTSecret, store.Companies)
	gateway := ws.NewGateway(cfg.WebsocketOptions, authenticator, connections, store.Vehicles)

	httpSrv := hubhttp.NewServer(cfg.HttpOptions, cfg.WebsocketOptions.Path, gateway, svc, map[string]hubhttp.ReadyCheck{
		"mongodb": store.Ping,
		"mqtt":    mqttClient.AwaitConnection,
	})

	return &HubServer{
		serverManager: server.NewManager(mqttSrv, httpSrv),
		store:         store,
		registry:      registry,
		archiveSink:   archiveSink,
	}, nil
}

func initMQTTClient(opts *options.MqttOptions) (mqtt.Client, error) {
	cfg := opts.ToClientConfig()

	if cfg.ClientID == "" {
		hostname, _ := os.Hostname()
		cfg.ClientID = fmt.Sprintf("track-hub-%s", hostname)
	}

	client, err := mqtt.NewClient(cfg)
	if err != nil {
		log.Error(err, "failed to new mqtt client")
		return nil, err
	}
	return client, nil
}
