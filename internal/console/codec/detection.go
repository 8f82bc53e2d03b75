package codec

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/autopeer-io/fleetconsole/internal/console/model"
)

var errMissingID = errors.New("missing id")

// Detection is the wire representation of a detection.
type Detection struct {
	ID         flexID      `json:"id"`
	VehicleID  string      `json:"vehicleId"`
	Lat        float64     `json:"lat"`
	Lon        float64     `json:"lon"`
	Confidence float64     `json:"confidence"`
	Approved   bool        `json:"approved"`
	ImageURL   string      `json:"imageUrl"`
	Timestamp  epochMillis `json:"timestamp"`
}

func (d *Detection) toModel() (model.Detection, error) {
	if d.ID == "" {
		return model.Detection{}, parseErr("detection", errMissingID)
	}
	return model.Detection{
		ID:         string(d.ID),
		VehicleID:  d.VehicleID,
		Lat:        d.Lat,
		Lon:        d.Lon,
		Confidence: model.NormalizeConfidence(d.Confidence),
		Approved:   d.Approved,
		ImageRef:   d.ImageURL,
		Timestamp:  d.Timestamp.Time(),
	}, nil
}

// FromDetection converts a model detection to its wire form.
func FromDetection(d model.Detection) Detection {
	return Detection{
		ID:         flexID(d.ID),
		VehicleID:  d.VehicleID,
		Lat:        d.Lat,
		Lon:        d.Lon,
		Confidence: d.Confidence,
		Approved:   d.Approved,
		ImageURL:   d.ImageRef,
		Timestamp:  toEpochMillis(d.Timestamp),
	}
}

// PayloadKind tells the two detection payload shapes apart.
type PayloadKind int

const (
	// Single carries one detection to merge into the collection.
	Single PayloadKind = iota + 1
	// Batch carries the complete detection collection.
	Batch
)

func (k PayloadKind) String() string {
	switch k {
	case Single:
		return "single"
	case Batch:
		return "batch"
	}
	return fmt.Sprintf("PayloadKind(%d)", int(k))
}

// DetectionPayload is a decoded message of the detections topic. Exactly one
// of Detection or Batch is meaningful, selected by Kind.
type DetectionPayload struct {
	Kind      PayloadKind
	Detection model.Detection
	Batch     []model.Detection
}

// DecodeDetections decodes either a single detection object or a full list.
func DecodeDetections(payload []byte) (DetectionPayload, error) {
	switch firstByte(payload) {
	case '{':
		var w Detection
		if err := json.Unmarshal(payload, &w); err != nil {
			return DetectionPayload{}, parseErr("detection", err)
		}
		d, err := w.toModel()
		if err != nil {
			return DetectionPayload{}, err
		}
		return DetectionPayload{Kind: Single, Detection: d}, nil
	case '[':
		batch, err := DecodeDetectionList(payload)
		if err != nil {
			return DetectionPayload{}, err
		}
		return DetectionPayload{Kind: Batch, Batch: batch}, nil
	}
	return DetectionPayload{}, parseErr("detections", errors.New("payload is neither an object nor an array"))
}

// DecodeDetectionList decodes a list of detections.
func DecodeDetectionList(payload []byte) ([]model.Detection, error) {
	var ws []Detection
	if err := json.Unmarshal(payload, &ws); err != nil {
		return nil, parseErr("detections", err)
	}
	out := make([]model.Detection, 0, len(ws))
	for i := range ws {
		d, err := ws[i].toModel()
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}
