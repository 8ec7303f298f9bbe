package options

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/pflag"

	"github.com/Azlouk-Ahmed/iot-delivery-tracking-system-sub000/internal/sim"
	"github.com/Azlouk-Ahmed/iot-delivery-tracking-system-sub000/pkg/app"
	"github.com/Azlouk-Ahmed/iot-delivery-tracking-system-sub000/pkg/log"
	"github.com/Azlouk-Ahmed/iot-delivery-tracking-system-sub000/pkg/options"
)

// SimOptions aggregates every option group of the simulator command.
type SimOptions struct {
	MqttOptions *options.MqttOptions `json:"mqtt" mapstructure:"mqtt"`
	Log         *log.Options         `json:"log" mapstructure:"log"`

	VehicleIDs     []string      `json:"vehicles" mapstructure:"vehicles"`
	ReportInterval time.Duration `json:"report-interval" mapstructure:"report-interval"`
	StartLatitude  float64       `json:"start-latitude" mapstructure:"start-latitude"`
	StartLongitude float64       `json:"start-longitude" mapstructure:"start-longitude"`
}

var _ app.CliOptions = (*SimOptions)(nil)

func NewSimOptions() *SimOptions {
	return &SimOptions{
		MqttOptions:    options.NewMqttOptions(),
		Log:            log.NewOptions(),
		VehicleIDs:     []string{"sim-truck-1", "sim-truck-2", "sim-truck-3"},
		ReportInterval: 5 * time.Second,
		// Central Tunis by default.
		StartLatitude:  36.8065,
		StartLongitude: 10.1815,
	}
}

func (o *SimOptions) AddFlags(fs *pflag.FlagSet) {
	o.MqttOptions.AddFlags(fs)
	o.Log.AddFlags(fs)

	fs.StringSliceVar(&o.VehicleIDs, "sim.vehicles", o.VehicleIDs, "Vehicle ids to simulate.")
	fs.DurationVar(&o.ReportInterval, "sim.report-interval", o.ReportInterval, "Gap between gps reports per vehicle.")
	fs.Float64Var(&o.StartLatitude, "sim.start-latitude", o.StartLatitude, "Latitude anchor of the random walk.")
	fs.Float64Var(&o.StartLongitude, "sim.start-longitude", o.StartLongitude, "Longitude anchor of the random walk.")
}

func (o *SimOptions) Complete() error {
	return nil
}

func (o *SimOptions) Validate() error {
	var errs []error
	errs = append(errs, o.MqttOptions.Validate()...)
	errs = append(errs, o.Log.Validate()...)
	if len(o.VehicleIDs) == 0 {
		errs = append(errs, errors.New("at least one vehicle id is required"))
	}
	if o.ReportInterval <= 0 {
		errs = append(errs, fmt.Errorf("report interval must be positive, got %s", o.ReportInterval))
	}
	return errors.Join(errs...)
}

func (o *SimOptions) Config() sim.Config {
	return sim.Config{
		Mqtt:           o.MqttOptions,
		VehicleIDs:     o.VehicleIDs,
		ReportInterval: o.ReportInterval,
		StartLatitude:  o.StartLatitude,
		StartLongitude: o.StartLongitude,
	}
}
