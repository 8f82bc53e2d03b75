package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/autopeer-io/fleetconsole/internal/console/codec"
	"github.com/autopeer-io/fleetconsole/internal/console/model"
)

type captured struct {
	method string
	path   string
	query  string
	reqID  string
	body   []byte
}

func newBackend(t *testing.T, status int, response string) (*Client, *captured) {
	t.Helper()
	got := &captured{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got.method = r.Method
		got.path = r.URL.Path
		got.query = r.URL.RawQuery
		got.reqID = r.Header.Get(HeaderRequestID)
		got.body, _ = io.ReadAll(r.Body)
		w.WriteHeader(status)
		_, _ = io.WriteString(w, response)
	}))
	t.Cleanup(srv.Close)

	c, err := NewClient(srv.URL+"/api/", 0)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return c, got
}

func TestNewClientRejectsBadURL(t *testing.T) {
	for _, u := range []string{"", "gcs:8080", "://nope"} {
		if _, err := NewClient(u, 0); err == nil {
			t.Errorf("NewClient(%q) succeeded", u)
		}
	}
}

func TestFetchCollections(t *testing.T) {
	ctx := context.Background()

	c, got := newBackend(t, http.StatusOK, `[{"id":"scout","type":"SCOUT","battery":77}]`)
	vs, err := c.Vehicles(ctx)
	if err != nil || len(vs) != 1 || vs[0].Battery != 77 {
		t.Fatalf("Vehicles = %+v, %v", vs, err)
	}
	if got.method != http.MethodGet || got.path != "/api/vehicles" || got.reqID == "" {
		t.Errorf("request = %+v", got)
	}

	c, got = newBackend(t, http.StatusOK, `[{"id":1,"confidence":0.4}]`)
	ds, err := c.Detections(ctx)
	if err != nil || len(ds) != 1 || ds[0].ID != "1" {
		t.Fatalf("Detections = %+v, %v", ds, err)
	}
	if got.path != "/api/detections" {
		t.Errorf("path = %s", got.path)
	}

	c, got = newBackend(t, http.StatusOK, `[{"id":1,"zoneType":"INCLUSION","points":[
		{"sequence":0,"latitude":0,"longitude":0},{"sequence":1,"latitude":0,"longitude":1},{"sequence":2,"latitude":1,"longitude":1}]}]`)
	zs, err := c.Zones(ctx)
	if err != nil || len(zs) != 1 {
		t.Fatalf("Zones = %+v, %v", zs, err)
	}
	if got.path != "/api/geofence" {
		t.Errorf("path = %s", got.path)
	}
}

func TestNon2xxIsTransportError(t *testing.T) {
	c, _ := newBackend(t, http.StatusServiceUnavailable, "backend down")

	_, err := c.Vehicles(context.Background())
	if !errors.Is(err, ErrTransport) {
		t.Fatalf("got %v, want ErrTransport", err)
	}
	var se *StatusError
	if !errors.As(err, &se) || se.Code != http.StatusServiceUnavailable || se.Body != "backend down" {
		t.Errorf("status error = %+v", se)
	}
}

func TestUnreachableBackendIsTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	c, err := NewClient(srv.URL, 0)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if _, err := c.Detections(context.Background()); !errors.Is(err, ErrTransport) {
		t.Errorf("got %v, want ErrTransport", err)
	}
}

func TestMalformedResponseIsParseError(t *testing.T) {
	c, _ := newBackend(t, http.StatusOK, `{"not":"a list"}`)
	if _, err := c.Vehicles(context.Background()); !errors.Is(err, codec.ErrParse) {
		t.Errorf("got %v, want ErrParse", err)
	}
}

func TestUploadMission(t *testing.T) {
	c, got := newBackend(t, http.StatusOK, "")
	items := []model.MissionItem{
		{Seq: 0, Frame: model.FrameGlobalRelativeAlt, Command: model.CommandWaypoint, Current: true, AutoContinue: true, Lat: 1, Lon: 2, Alt: 30},
	}

	if err := c.UploadMission(context.Background(), "scout", items); err != nil {
		t.Fatalf("UploadMission: %v", err)
	}
	if got.method != http.MethodPost || got.path != "/api/vehicles/scout/mission-upload" {
		t.Errorf("request = %s %s", got.method, got.path)
	}
	var sent []codec.MissionItem
	if err := json.Unmarshal(got.body, &sent); err != nil || len(sent) != 1 || sent[0].Command != 16 || sent[0].X != 1 {
		t.Errorf("body = %s (%v)", got.body, err)
	}
}

func TestSendCommand(t *testing.T) {
	tests := []struct {
		name      string
		cmd       model.VehicleCommand
		wantPath  string
		wantQuery string
	}{
		{"arm", model.VehicleCommand{Name: model.CmdArm}, "/api/vehicles/scout/command/arm", ""},
		{"rtl", model.VehicleCommand{Name: model.CmdRTL}, "/api/vehicles/scout/command/rtl", ""},
		{"stream", model.VehicleCommand{Name: model.CmdStream}, "/api/vehicles/scout/command/stream", ""},
		{"mission fetch", model.VehicleCommand{Name: model.CmdMissionFetch}, "/api/vehicles/scout/mission-fetch", ""},
		{"takeoff", model.VehicleCommand{Name: model.CmdTakeoff, Altitude: 25}, "/api/vehicles/scout/command/takeoff", "altitude=25"},
		{"mode", model.VehicleCommand{Name: model.CmdMode, Mode: "GUIDED"}, "/api/vehicles/scout/command/mode", "mode=GUIDED"},
		{
			"goto",
			model.VehicleCommand{Name: model.CmdGoto, Target: model.Position{Lat: 47.5, Lon: 8.25, Alt: 40}},
			"/api/vehicles/scout/command/goto", "alt=40&lat=47.5&lon=8.25",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, got := newBackend(t, http.StatusOK, "")
			if err := c.SendCommand(context.Background(), "scout", tt.cmd); err != nil {
				t.Fatalf("SendCommand: %v", err)
			}
			if got.method != http.MethodPost || got.path != tt.wantPath || got.query != tt.wantQuery {
				t.Errorf("got %s?%s, want %s?%s", got.path, got.query, tt.wantPath, tt.wantQuery)
			}
		})
	}
}

func TestSendCommandValidates(t *testing.T) {
	c, got := newBackend(t, http.StatusOK, "")
	err := c.SendCommand(context.Background(), "scout", model.VehicleCommand{Name: model.CmdTakeoff})
	if err == nil {
		t.Fatal("expected validation error")
	}
	if got.method != "" {
		t.Error("invalid command reached the backend")
	}
}
