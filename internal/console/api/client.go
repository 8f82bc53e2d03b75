// Package api is the request/response client of the ground-control backend.
package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/autopeer-io/fleetconsole/internal/console/codec"
	"github.com/autopeer-io/fleetconsole/internal/console/model"
	"github.com/autopeer-io/fleetconsole/internal/pkg/metrics"
	"github.com/autopeer-io/fleetconsole/pkg/log"
)

// ErrTransport is wrapped by every request failure: I/O errors and non-2xx answers.
var ErrTransport = errors.New("transport error")

// HeaderRequestID carries a per-request correlation id.
const HeaderRequestID = "X-Request-ID"

// maxErrorBody bounds how much of a failed response body is kept in the error.
const maxErrorBody = 512

// StatusError is returned, wrapped in ErrTransport, for non-2xx answers.
type StatusError struct {
	Method string
	URL    string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("%s %s: status %d", e.Method, e.URL, e.Code)
	if e.Body != "" {
		msg += ": " + e.Body
	}
	return msg
}

// Client talks to the backend REST API rooted at a base URL such as
// "http://gcs:8080/api".
type Client struct {
	base   string
	client *http.Client
}

// NewClient creates a Client. A zero timeout means 10s.
func NewClient(baseURL string, timeout time.Duration) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid backend url %q", baseURL)
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		base:   strings.TrimRight(baseURL, "/"),
		client: &http.Client{Timeout: timeout},
	}, nil
}

// BaseURL returns the backend base URL without a trailing slash.
func (c *Client) BaseURL() string { return c.base }

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body []byte) ([]byte, error) {
	target := c.base + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, rd)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	reqID := uuid.NewString()
	req.Header.Set(HeaderRequestID, reqID)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %v", ErrTransport, method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s response: %v", ErrTransport, path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if len(data) > maxErrorBody {
			data = data[:maxErrorBody]
		}
		return nil, fmt.Errorf("%w: %w", ErrTransport, &StatusError{
			Method: method, URL: path, Code: resp.StatusCode, Body: strings.TrimSpace(string(data)),
		})
	}

	log.Debug("Backend request done", "method", method, "path", path, "status", resp.StatusCode, "requestID", reqID)
	return data, nil
}

// Vehicles fetches the vehicle list.
func (c *Client) Vehicles(ctx context.Context) ([]model.Vehicle, error) {
	data, err := c.do(ctx, http.MethodGet, "/vehicles", nil, nil)
	if err != nil {
		return nil, err
	}
	return codec.DecodeVehicles(data)
}

// Detections fetches the detection list.
func (c *Client) Detections(ctx context.Context) ([]model.Detection, error) {
	data, err := c.do(ctx, http.MethodGet, "/detections", nil, nil)
	if err != nil {
		return nil, err
	}
	return codec.DecodeDetectionList(data)
}

// Zones fetches the geofence zones.
func (c *Client) Zones(ctx context.Context) ([]model.Zone, error) {
	data, err := c.do(ctx, http.MethodGet, "/geofence", nil, nil)
	if err != nil {
		return nil, err
	}
	return codec.DecodeZones(data)
}

// UploadMission posts an encoded mission to a vehicle.
func (c *Client) UploadMission(ctx context.Context, vehicleID string, items []model.MissionItem) error {
	body, err := codec.EncodeMissionItems(items)
	if err != nil {
		return err
	}

	start := time.Now()
	_, err = c.do(ctx, http.MethodPost, "/vehicles/"+url.PathEscape(vehicleID)+"/mission-upload", nil, body)
	observe("mission", start, err)
	return err
}

// SendCommand posts a vehicle command. Mission fetch requests go to the
// vehicle's mission-fetch endpoint; every other command to command/{name}.
func (c *Client) SendCommand(ctx context.Context, vehicleID string, cmd model.VehicleCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	q := url.Values{}
	switch cmd.Name {
	case model.CmdTakeoff:
		q.Set("altitude", formatFloat(cmd.Altitude))
	case model.CmdMode:
		q.Set("mode", cmd.Mode)
	case model.CmdGoto:
		q.Set("lat", formatFloat(cmd.Target.Lat))
		q.Set("lon", formatFloat(cmd.Target.Lon))
		q.Set("alt", formatFloat(cmd.Target.Alt))
	}

	path := "/vehicles/" + url.PathEscape(vehicleID) + "/command/" + string(cmd.Name)
	if cmd.Name == model.CmdMissionFetch {
		path = "/vehicles/" + url.PathEscape(vehicleID) + "/mission-fetch"
	}

	start := time.Now()
	_, err := c.do(ctx, http.MethodPost, path, q, nil)
	observe(string(cmd.Name), start, err)
	return err
}

// ApproveDetection marks a detection as approved on the backend. The store
// learns about it through the push channel.
func (c *Client) ApproveDetection(ctx context.Context, id string) error {
	start := time.Now()
	_, err := c.do(ctx, http.MethodPost, "/detections/"+url.PathEscape(id)+"/approve", nil, nil)
	observe("approve", start, err)
	return err
}

func observe(kind string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "failed"
	}
	metrics.DispatchRequests.WithLabelValues(kind, status).Inc()
	metrics.DispatchLatency.WithLabelValues(kind).Observe(time.Since(start).Seconds())
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
