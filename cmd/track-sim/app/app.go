package app

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/Azlouk-Ahmed/iot-delivery-tracking-system-sub000/cmd/track-sim/app/options"
	"github.com/Azlouk-Ahmed/iot-delivery-tracking-system-sub000/internal/sim"
	"github.com/Azlouk-Ahmed/iot-delivery-tracking-system-sub000/pkg/app"
	"github.com/Azlouk-Ahmed/iot-delivery-tracking-system-sub000/pkg/log"
)

const (
	commandName = "track-sim"
	commandDesc = `Drives a fleet of simulated delivery vehicles against the broker:
each vehicle reports ON, walks a random route with periodic gps
reports, and reports OFF on shutdown. Connections register a last-will
OFF so a killed simulator still ends its sessions.`
)

func NewApp() *app.App {
	opts := options.NewSimOptions()
	return app.NewApp(
		commandName,
		"Simulate a reporting delivery fleet",
		app.WithDescription(commandDesc),
		app.WithOptions(opts),
		app.WithDefaultValidArgs(),
		app.WithRunFunc(run(opts)),
	)
}

func run(opts *options.SimOptions) app.RunFunc {
	return func() error {
		log.Init(opts.Log)
		defer log.Sync()

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		return sim.New(opts.Config()).Run(ctx)
	}
}
