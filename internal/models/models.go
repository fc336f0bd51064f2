package models

import "time"

type Coord struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Place is a resolved point plus the address shown to people.
type Place struct {
	Coords  Coord  `json:"coords"`
	Address string `json:"address"`
}

// Candidate is one geocoding result. Confidence is provider specific and may be absent.
type Candidate struct {
	Coords           Coord  `json:"coords"`
	FormattedAddress string `json:"formatted_address"`
	Confidence       *int   `json:"confidence,omitempty"`
}

// Leg is a single routed hop.
type Leg struct {
	DistanceKm  float64 `json:"distance_km"`
	DurationMin int     `json:"duration_min"`
}

// Route holds the operator pickup leg and the ride leg.
type Route struct {
	DriverToClient      Leg     `json:"driver_to_client"`
	ClientToDestination Leg     `json:"client_to_destination"`
	TotalDistanceKm     float64 `json:"total_distance_km"`
	TotalDurationMin    int     `json:"total_duration_min"`
}

type VehicleType string

const (
	VehicleNormal  VehicleType = "NORMAL"
	VehicleComfort VehicleType = "COMFORT"
	VehiclePremium VehicleType = "PREMIUM"
)

type Price struct {
	DistanceKm     float64     `json:"distance_km"`
	VehicleType    VehicleType `json:"vehicle_type"`
	BaseFare       float64     `json:"base_fare"`
	DistanceFare   float64     `json:"distance_fare"`
	Multiplier     float64     `json:"multiplier"`
	Total          float64     `json:"total"`
	FormattedTotal string      `json:"formatted_total"`
}

type RideStatus string

const (
	RidePending    RideStatus = "PENDING"
	RideScheduled  RideStatus = "SCHEDULED"
	RideConfirmed  RideStatus = "CONFIRMED"
	RideInProgress RideStatus = "IN_PROGRESS"
	RideCompleted  RideStatus = "COMPLETED"
	RideCancelled  RideStatus = "CANCELLED"
)

// Ride is a committed booking. Only Status and UpdatedAt change after creation.
type Ride struct {
	ID             int64       `json:"id"`
	ClientIdentity string      `json:"client_identity"`
	Origin         Place       `json:"origin"`
	Destination    Place       `json:"destination"`
	Route          Route       `json:"route"`
	Price          Price       `json:"price"`
	VehicleType    VehicleType `json:"vehicle_type"`
	Status         RideStatus  `json:"status"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
	ScheduledTime  *time.Time  `json:"scheduled_time,omitempty"`
}

// OperatorLocation is the operator's last known position.
type OperatorLocation struct {
	OperatorID string    `json:"operator_id"`
	Loc        Coord     `json:"loc"`
	Accuracy   float64   `json:"accuracy"`
	Address    string    `json:"address,omitempty"`
	City       string    `json:"city,omitempty"`
	Region     string    `json:"region,omitempty"`
	Country    string    `json:"country,omitempty"`
	Source     string    `json:"source"`
	Updated    time.Time `json:"updated"`
}
