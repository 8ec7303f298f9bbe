package options

import (
	"errors"

	"github.com/spf13/pflag"
)

var _ IOptions = (*WebsocketOptions)(nil)

// WebsocketOptions contains configuration for the realtime dashboard
// endpoint served on the HTTP listener.
type WebsocketOptions struct {
	// Path is the upgrade endpoint.
	Path string `json:"path" mapstructure:"path"`

	// JWTSecret signs/verifies the handshake tokens carrying the client
	// identity context.
	JWTSecret string `json:"jwt-secret" mapstructure:"jwt-secret"`

	// SendBuffer is the per-connection outbound queue length. A client
	// that falls this far behind loses frames rather than blocking fan-out.
	SendBuffer int `json:"send-buffer" mapstructure:"send-buffer"`
}

// NewWebsocketOptions creates a WebsocketOptions object with default parameters.
func NewWebsocketOptions() *WebsocketOptions {
	return &WebsocketOptions{
		Path:       "/ws",
		SendBuffer: 256,
	}
}

// Validate is used to parse and validate the parameters entered by the user
// at the command line when the program starts.
func (o *WebsocketOptions) Validate() []error {
	if o == nil {
		return nil
	}

	var errs []error

	if o.JWTSecret == "" {
		errs = append(errs, errors.New("websocket jwt secret is required"))
	}
	if o.SendBuffer <= 0 {
		errs = append(errs, errors.New("websocket send buffer must be positive"))
	}

	return errs
}

// AddFlags adds flags for WebsocketOptions to the specified FlagSet.
func (o *WebsocketOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.StringVar(&o.Path, "ws.path", o.Path, "HTTP path of the websocket upgrade endpoint.")
	fs.StringVar(&o.JWTSecret, "ws.jwt-secret", o.JWTSecret, "Secret used to verify handshake JWTs.")
	fs.IntVar(&o.SendBuffer, "ws.send-buffer", o.SendBuffer, "Per-connection outbound event queue length.")
}
