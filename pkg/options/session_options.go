package options

import (
	"errors"
	"time"

	"github.com/spf13/pflag"
)

var _ IOptions = (*SessionOptions)(nil)

// SessionOptions contains configuration for the vehicle session registry.
type SessionOptions struct {
	// HeartbeatWindow is the maximum silence interval after which an active
	// session is presumed dead and TIMED_OUT fires.
	HeartbeatWindow time.Duration `json:"heartbeat-window" mapstructure:"heartbeat-window"`
}

// NewSessionOptions creates a SessionOptions object with default parameters.
func NewSessionOptions() *SessionOptions {
	return &SessionOptions{
		HeartbeatWindow: 30 * time.Second,
	}
}

// Validate is used to parse and validate the parameters entered by the user
// at the command line when the program starts.
func (o *SessionOptions) Validate() []error {
	if o == nil {
		return nil
	}

	var errs []error

	if o.HeartbeatWindow <= 0 {
		errs = append(errs, errors.New("heartbeat window must be positive"))
	}

	return errs
}

// AddFlags adds flags for SessionOptions to the specified FlagSet.
func (o *SessionOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.DurationVar(&o.HeartbeatWindow, "session.heartbeat-window", o.HeartbeatWindow, "Silence interval after which an active vehicle session times out.")
}
