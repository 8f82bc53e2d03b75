package options

import (
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"
)

func TestValidateAddress(t *testing.T) {
	tests := []struct {
		addr    string
		wantErr bool
	}{
		{"0.0.0.0:8088", false},
		{":8088", false},
		{"localhost:80", false},
		{"[::1]:443", false},
		{"8088", true},
		{"example.com:80", true},
		{"0.0.0.0:99999", true},
	}
	for _, tt := range tests {
		if err := ValidateAddress(tt.addr); (err != nil) != tt.wantErr {
			t.Errorf("ValidateAddress(%q) = %v, wantErr %v", tt.addr, err, tt.wantErr)
		}
	}
}

func TestDefaultsValidate(t *testing.T) {
	groups := map[string]IOptions{
		"mqtt":     NewMqttOptions(),
		"http":     NewHttpOptions(),
		"api":      NewAPIOptions(),
		"s3":       NewS3Options(),
		"geofence": NewGeofenceOptions(),
		"mission":  NewMissionOptions(),
	}
	for name, o := range groups {
		if errs := o.Validate(); len(errs) != 0 {
			t.Errorf("%s defaults invalid: %v", name, errs)
		}
	}
}

func TestMqttOptionsFlags(t *testing.T) {
	o := NewMqttOptions()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	o.AddFlags(fs)

	err := fs.Parse([]string{"--mqtt.broker=ws://broker:8083/mqtt", "--mqtt.qos=3", "--mqtt.keep-alive=30s"})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	errs := o.Validate()
	if len(errs) != 1 || !strings.Contains(errs[0].Error(), "qos") {
		t.Errorf("errs = %v", errs)
	}

	cfg := o.ToClientConfig()
	if cfg.KeepAlive != 30 || !strings.HasPrefix(cfg.ClientID, "fleetconsole-") {
		t.Errorf("client config = %+v", cfg)
	}
}

func TestS3OptionsDisabledByDefault(t *testing.T) {
	o := NewS3Options()
	if o.Enabled() {
		t.Fatal("s3 enabled without endpoint")
	}
	o.Endpoint = "minio:9000"
	o.PresignExpiry = 30 * 24 * time.Hour
	if errs := o.Validate(); len(errs) != 1 {
		t.Errorf("errs = %v", errs)
	}
}

func TestAPIOptionsValidate(t *testing.T) {
	o := NewAPIOptions()
	o.BaseURL = "ftp://gcs/api"
	o.Timeout = 0
	if errs := o.Validate(); len(errs) != 2 {
		t.Errorf("errs = %v", errs)
	}
}

func TestGeofenceOptionsMissingFile(t *testing.T) {
	o := NewGeofenceOptions()
	o.ZonesFile = "/nonexistent/zones.yaml"
	if errs := o.Validate(); len(errs) != 1 {
		t.Errorf("errs = %v", errs)
	}
}
