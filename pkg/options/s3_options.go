package options

import (
	"errors"

	"github.com/spf13/pflag"
)

var _ IOptions = (*S3Options)(nil)

// S3Options contains configuration for the S3-compatible object store used
// to archive completed trajectory traces.
type S3Options struct {
	// Enabled toggles trace archival. The hub runs fine without it.
	Enabled bool `json:"enabled" mapstructure:"enabled"`

	Endpoint        string `json:"endpoint" mapstructure:"endpoint"`
	AccessKeyID     string `json:"access-key-id" mapstructure:"access-key-id"`
	SecretAccessKey string `json:"secret-access-key" mapstructure:"secret-access-key"`
	UseSSL          bool   `json:"use-ssl" mapstructure:"use-ssl"`
	BucketName      string `json:"bucket-name" mapstructure:"bucket-name"`
	Region          string `json:"region" mapstructure:"region"`
}

// NewS3Options creates a S3Options object with default parameters.
func NewS3Options() *S3Options {
	return &S3Options{
		Enabled:    false,
		Endpoint:   "localhost:9000",
		UseSSL:     false,
		BucketName: "trajectory-traces",
		Region:     "us-east-1",
	}
}

// Validate is used to parse and validate the parameters entered by the user
// at the command line when the program starts.
func (o *S3Options) Validate() []error {
	if o == nil || !o.Enabled {
		return nil
	}

	var errs []error

	if o.Endpoint == "" {
		errs = append(errs, errors.New("s3 endpoint is required when archival is enabled"))
	}
	if o.BucketName == "" {
		errs = append(errs, errors.New("s3 bucket name is required when archival is enabled"))
	}

	return errs
}

// AddFlags adds flags for S3Options to the specified FlagSet.
func (o *S3Options) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.BoolVar(&o.Enabled, "s3.enabled", o.Enabled, "Enable archival of completed traces to object storage.")
	fs.StringVar(&o.Endpoint, "s3.endpoint", o.Endpoint, "S3 service endpoint (e.g. s3.amazonaws.com or minio.local:9000).")
	fs.StringVar(&o.AccessKeyID, "s3.access-key-id", o.AccessKeyID, "S3 access key ID.")
	fs.StringVar(&o.SecretAccessKey, "s3.secret-access-key", o.SecretAccessKey, "S3 secret access key.")
	fs.BoolVar(&o.UseSSL, "s3.use-ssl", o.UseSSL, "Enable SSL for the S3 connection.")
	fs.StringVar(&o.BucketName, "s3.bucket-name", o.BucketName, "S3 bucket name for trace archives.")
	fs.StringVar(&o.Region, "s3.region", o.Region, "S3 region.")
}
