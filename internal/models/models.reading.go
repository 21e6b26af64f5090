// FilePath: internal/models/models.reading.go
package models

import "time"

// Reading is the canonical sensor record used throughout the gateway.
// DeviceTimestamp is device-local epoch milliseconds, monotonic only within
// one boot session. ReceivedAt is server-assigned and is the sole ordering
// key for storage and range queries.
type Reading struct {
	ID              string    `json:"id" db:"id"`
	DeviceID        string    `json:"device_id" db:"device_id"`
	Temperature     float64   `json:"temperature" db:"temperature"`
	Humidity        float64   `json:"humidity" db:"humidity"`
	ShockG          float64   `json:"shock_g" db:"shock_g"`
	Lat             *float64  `json:"lat,omitempty" db:"lat"`
	Lon             *float64  `json:"lon,omitempty" db:"lon"`
	Battery         *float64  `json:"battery,omitempty" db:"battery"`
	DoorOpen        bool      `json:"door_open" db:"door_open"`
	DeviceTimestamp int64     `json:"device_timestamp" db:"device_timestamp"`
	ReceivedAt      time.Time `json:"received_at" db:"received_at"`
}

// TelemetryPayload is the edge -> broker wire shape for periodic telemetry.
type TelemetryPayload struct {
	DeviceID string   `json:"device_id"`
	Temp     float64  `json:"temp"`
	Hum      float64  `json:"hum"`
	ShockG   float64  `json:"shock_g"`
	Lat      *float64 `json:"lat,omitempty"`
	Lon      *float64 `json:"lon,omitempty"`
	DoorOpen bool     `json:"door_open"`
	Ts       int64    `json:"ts"`
}

// LegacyTelemetryPayload is the older producer shape still accepted on the
// flat compatibility topic: ISO timestamp string, nested location object.
type LegacyTelemetryPayload struct {
	DeviceID    string  `json:"device_id"`
	Timestamp   string  `json:"timestamp"`
	Temperature float64 `json:"temperature"`
	Humidity    float64 `json:"humidity"`
	Battery     float64 `json:"battery"`
	Location    struct {
		Lat float64 `json:"lat"`
		Lon float64 `json:"lon"`
	} `json:"location"`
}
