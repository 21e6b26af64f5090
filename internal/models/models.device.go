// FilePath: internal/models/models.device.go
package models

import "time"

// DeviceSeen reports when a device last delivered a message to the gateway
type DeviceSeen struct {
	DeviceID string    `json:"device_id"`
	LastSeen time.Time `json:"last_seen"`
}
