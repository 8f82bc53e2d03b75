package model

import "time"

// VehicleKind classifies a vehicle. SCOUT and DELIVERY are the stock kinds;
// other registered kinds are carried through unchanged.
type VehicleKind string

const (
	VehicleKindScout    VehicleKind = "SCOUT"
	VehicleKindDelivery VehicleKind = "DELIVERY"
)

// Position is a geographic position; Alt is in meters.
type Position struct {
	Lat float64
	Lon float64
	Alt float64
}

// Vehicle is the reconciled state of one fleet vehicle.
type Vehicle struct {
	// ID is the stable vehicle identifier (e.g. "scout").
	ID string

	Kind     VehicleKind
	Position Position

	// Heading in degrees.
	Heading float64

	// Battery percentage, 0-100.
	Battery float64

	// Status is the vehicle-defined operating status (IDLE, ARMED, FLYING, ...).
	Status string

	// Mode is the autopilot flight mode, free-form.
	Mode string

	// LastHeartbeat is when the vehicle was last heard from; zero if unknown.
	LastHeartbeat time.Time
}
