package app

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/Azlouk-Ahmed/iot-delivery-tracking-system-sub000/cmd/track-hub/app/options"
	"github.com/Azlouk-Ahmed/iot-delivery-tracking-system-sub000/pkg/app"
	"github.com/Azlouk-Ahmed/iot-delivery-tracking-system-sub000/pkg/log"
)

const (
	commandName = "track-hub"
	commandDesc = `The tracking hub ingests live status and location reports from the
delivery fleet over MQTT, tracks each vehicle's delivery session with
heartbeat timeouts, persists location traces, and fans events out to
dashboard clients over WebSocket, filtered by role, company and
assignment.`
)

func NewApp() *app.App {
	opts := options.NewHubOptions()
	return app.NewApp(
		commandName,
		"Launch the vehicle tracking hub",
		app.WithDescription(commandDesc),
		app.WithOptions(opts),
		app.WithDefaultValidArgs(),
		app.WithRunFunc(run(opts)),
	)
}

func run(opts *options.HubOptions) app.RunFunc {
	return func() error {
		log.Init(opts.Log)
		defer log.Sync()

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		cfg, err := opts.Config()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		server, err := cfg.NewHubServer(ctx)
		if err != nil {
			return fmt.Errorf("failed to create hub server: %w", err)
		}

		return server.Run(ctx)
	}
}
