package options

import (
	"errors"
	"time"

	"github.com/spf13/pflag"
)

var _ IOptions = (*APIOptions)(nil)

// APIOptions configures the backend REST client.
type APIOptions struct {
	// BaseURL is the root of the backend API, e.g. http://gcs:8080/api.
	BaseURL string `json:"base-url" mapstructure:"base-url"`

	// Timeout applies to each request.
	Timeout time.Duration `json:"timeout" mapstructure:"timeout"`
}

// NewAPIOptions creates an APIOptions object with default parameters.
func NewAPIOptions() *APIOptions {
	return &APIOptions{
		BaseURL: "http://localhost:8080/api",
		Timeout: 10 * time.Second,
	}
}

// Validate checks the backend options.
func (o *APIOptions) Validate() []error {
	if o == nil {
		return nil
	}

	errs := []error{}
	if err := ValidateURL("api.base-url", o.BaseURL, "http", "https"); err != nil {
		errs = append(errs, err)
	}
	if o.Timeout <= 0 {
		errs = append(errs, errors.New("api.timeout must be positive"))
	}
	return errs
}

// AddFlags adds the backend client flags to the specified FlagSet.
func (o *APIOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.StringVar(&o.BaseURL, "api.base-url", o.BaseURL, "Base URL of the ground-control backend API.")
	fs.DurationVar(&o.Timeout, "api.timeout", o.Timeout, "Timeout of each backend request.")
}
