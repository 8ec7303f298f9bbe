package options

import (
	"errors"
	"time"

	"github.com/spf13/pflag"
)

var _ IOptions = (*MongoOptions)(nil)

// MongoOptions contains configuration for the MongoDB connection backing the
// vehicle/company directories and the trajectory store.
type MongoOptions struct {
	URI      string `json:"uri" mapstructure:"uri"`
	Database string `json:"database" mapstructure:"database"`

	// ConnectTimeout bounds the initial connect + ping.
	ConnectTimeout time.Duration `json:"connect-timeout" mapstructure:"connect-timeout"`

	// OperationTimeout bounds individual lookups and inserts.
	OperationTimeout time.Duration `json:"operation-timeout" mapstructure:"operation-timeout"`
}

// NewMongoOptions creates a MongoOptions object with default parameters.
func NewMongoOptions() *MongoOptions {
	return &MongoOptions{
		URI:              "mongodb://localhost:27017",
		Database:         "delivery_tracking",
		ConnectTimeout:   10 * time.Second,
		OperationTimeout: 5 * time.Second,
	}
}

// Validate is used to parse and validate the parameters entered by the user
// at the command line when the program starts.
func (o *MongoOptions) Validate() []error {
	if o == nil {
		return nil
	}

	var errs []error

	if o.URI == "" {
		errs = append(errs, errors.New("mongo uri is required"))
	}
	if o.Database == "" {
		errs = append(errs, errors.New("mongo database is required"))
	}

	return errs
}

// AddFlags adds flags for MongoOptions to the specified FlagSet.
func (o *MongoOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.StringVar(&o.URI, "mongo.uri", o.URI, "MongoDB connection URI.")
	fs.StringVar(&o.Database, "mongo.database", o.Database, "MongoDB database name.")
	fs.DurationVar(&o.ConnectTimeout, "mongo.connect-timeout", o.ConnectTimeout, "Timeout for the initial MongoDB connection.")
	fs.DurationVar(&o.OperationTimeout, "mongo.operation-timeout", o.OperationTimeout, "Timeout for individual MongoDB operations.")
}
