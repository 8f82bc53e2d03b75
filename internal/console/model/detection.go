package model

import "time"

// Detection is an AI-detected target reported by a vehicle.
type Detection struct {
	ID        string
	VehicleID string
	Lat       float64
	Lon       float64

	// Confidence is normalised to [0,1].
	Confidence float64

	// Approved only ever moves from false to true on the upsert path.
	Approved bool

	// ImageRef is an absolute URL or an object key relative to the image store.
	ImageRef string

	Timestamp time.Time
}

// NormalizeConfidence maps a score reported either as a fraction or as a
// percentage onto [0,1].
func NormalizeConfidence(c float64) float64 {
	if c > 1 {
		c /= 100
	}
	switch {
	case c < 0:
		return 0
	case c > 1:
		return 1
	}
	return c
}
