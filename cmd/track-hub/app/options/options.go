package options

import (
	"errors"

	"github.com/spf13/pflag"

	"github.com/Azlouk-Ahmed/iot-delivery-tracking-system-sub000/internal/hub"
	"github.com/Azlouk-Ahmed/iot-delivery-tracking-system-sub000/pkg/app"
	"github.com/Azlouk-Ahmed/iot-delivery-tracking-system-sub000/pkg/log"
	"github.com/Azlouk-Ahmed/iot-delivery-tracking-system-sub000/pkg/options"
)

// HubOptions aggregates every option group of the hub command.
type HubOptions struct {
	MqttOptions      *options.MqttOptions      `json:"mqtt" mapstructure:"mqtt"`
	HttpOptions      *options.HttpOptions      `json:"http" mapstructure:"http"`
	MongoOptions     *options.MongoOptions     `json:"mongo" mapstructure:"mongo"`
	S3Options        *options.S3Options        `json:"s3" mapstructure:"s3"`
	SessionOptions   *options.SessionOptions   `json:"session" mapstructure:"session"`
	WebsocketOptions *options.WebsocketOptions `json:"ws" mapstructure:"ws"`
	Log              *log.Options              `json:"log" mapstructure:"log"`
}

var _ app.CliOptions = (*HubOptions)(nil)

func NewHubOptions() *HubOptions {
	return &HubOptions{
		MqttOptions:      options.NewMqttOptions(),
		HttpOptions:      options.NewHttpOptions(),
		MongoOptions:     options.NewMongoOptions(),
		S3Options:        options.NewS3Options(),
		SessionOptions:   options.NewSessionOptions(),
		WebsocketOptions: options.NewWebsocketOptions(),
		Log:              log.NewOptions(),
	}
}

func (o *HubOptions) AddFlags(fs *pflag.FlagSet) {
	o.MqttOptions.AddFlags(fs)
	o.HttpOptions.AddFlags(fs)
	o.MongoOptions.AddFlags(fs)
	o.S3Options.AddFlags(fs)
	o.SessionOptions.AddFlags(fs)
	o.WebsocketOptions.AddFlags(fs)
	o.Log.AddFlags(fs)
}

func (o *HubOptions) Complete() error {
	return nil
}

func (o *HubOptions) Validate() error {
	var errs []error
	errs = append(errs, o.MqttOptions.Validate()...)
	errs = append(errs, o.HttpOptions.Validate()...)
	errs = append(errs, o.MongoOptions.Validate()...)
	errs = append(errs, o.S3Options.Validate()...)
	errs = append(errs, o.SessionOptions.Validate()...)
	errs = append(errs, o.WebsocketOptions.Validate()...)
	errs = append(errs, o.Log.Validate()...)
	return errors.Join(errs...)
}

func (o *HubOptions) Config() (*hub.Config, error) {
	return &hub.Config{
		MqttOptions:      o.MqttOptions,
		HttpOptions:      o.HttpOptions,
		MongoOptions:     o.MongoOptions,
		S3Options:        o.S3Options,
		SessionOptions:   o.SessionOptions,
		WebsocketOptions: o.WebsocketOptions,
	}, nil
}
