// FilePath: internal/models/models.alert.go
package models

import "time"

// ShockAlertEvent is emitted by the edge device itself when instantaneous
// acceleration exceeds its local threshold. The device already applied the
// threshold, so the gateway treats it as critical without re-evaluation.
type ShockAlertEvent struct {
	ID              string    `json:"id" db:"id"`
	DeviceID        string    `json:"device_id" db:"device_id"`
	ShockG          float64   `json:"shock_g" db:"shock_g"`
	Lat             *float64  `json:"lat,omitempty" db:"lat"`
	Lon             *float64  `json:"lon,omitempty" db:"lon"`
	DeviceTimestamp int64     `json:"device_timestamp" db:"device_timestamp"`
	ReceivedAt      time.Time `json:"received_at" db:"received_at"`
}

// ShockAlertPayload is the edge -> broker wire shape for an immediate alert.
type ShockAlertPayload struct {
	DeviceID string   `json:"device_id"`
	Alert    string   `json:"alert"`
	ShockG   float64  `json:"shock_g"`
	Lat      *float64 `json:"lat,omitempty"`
	Lon      *float64 `json:"lon,omitempty"`
	Ts       int64    `json:"ts"`
}

// AlertShockDetected is the marker value carried in ShockAlertPayload.Alert.
const AlertShockDetected = "SHOCK_DETECTED"

// ThresholdAlert is derived from a Reading by the gateway-side evaluator.
// It is a view over its source reading, never stored independently.
type ThresholdAlert struct {
	DeviceID string   `json:"device_id"`
	Reasons  []string `json:"reasons"`
	Reading  *Reading `json:"reading"`
}
