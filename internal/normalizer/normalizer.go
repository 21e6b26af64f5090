// FilePath: internal/normalizer/normalizer.go

// Package normalizer reconciles the known inbound payload shapes into the
// canonical Reading. Classification happens once, up front; each shape then
// maps through its own typed struct so reconciliation rules stay in one place.
package normalizer

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/coldroute/cargomon/internal/errors"
	"github.com/coldroute/cargomon/internal/models"
)

type shape int

const (
	shapeUnknown shape = iota
	shapeEdge          // current firmware: {device_id, temp, hum, shock_g, lat, lon, door_open, ts}
	shapeLegacy        // older producers: {device_id, temperature, location:{lat,lon}, timestamp: ISO string}
	shapeCanonical     // an already-normalized Reading re-entering the pipeline
)

// edgePayload mirrors the current firmware wire shape. Pointer fields keep
// absent-vs-zero distinguishable for the required-field checks.
type edgePayload struct {
	DeviceID    *string  `json:"device_id"`
	Temp        *float64 `json:"temp"`
	Temperature *float64 `json:"temperature"`
	Hum         *float64 `json:"hum"`
	Humidity    *float64 `json:"humidity"`
	ShockG      *float64 `json:"shock_g"`
	Shock       *float64 `json:"shock"`
	Lat         *float64 `json:"lat"`
	Lon         *float64 `json:"lon"`
	Battery     *float64 `json:"battery"`
	DoorOpen    *bool    `json:"door_open"`
	Ts          *int64   `json:"ts"`
}

type legacyPayload struct {
	DeviceID    *string         `json:"device_id"`
	Timestamp   json.RawMessage `json:"timestamp"` // ISO string or raw epoch millis
	Temperature *float64        `json:"temperature"`
	Temp        *float64        `json:"temp"`
	Humidity    *float64        `json:"humidity"`
	Hum         *float64        `json:"hum"`
	ShockG      *float64        `json:"shock_g"`
	Shock       *float64        `json:"shock"`
	Battery     *float64        `json:"battery"`
	Lat         *float64        `json:"lat"`
	Lon         *float64        `json:"lon"`
	DoorOpen    *bool           `json:"door_open"`
	Location    *struct {
		Lat *float64 `json:"lat"`
		Lon *float64 `json:"lon"`
	} `json:"location"`
}

type canonicalPayload struct {
	ID              string   `json:"id"`
	DeviceID        *string  `json:"device_id"`
	Temperature     *float64 `json:"temperature"`
	Humidity        *float64 `json:"humidity"`
	ShockG          *float64 `json:"shock_g"`
	Lat             *float64 `json:"lat"`
	Lon             *float64 `json:"lon"`
	Battery         *float64 `json:"battery"`
	DoorOpen        *bool    `json:"door_open"`
	DeviceTimestamp *int64   `json:"device_timestamp"`
}

// Normalize parses one inbound telemetry payload into a canonical Reading.
// receivedAt is the server-assigned receipt time and becomes the reading's
// sole ordering key. A payload lacking device id, temperature, or timestamp
// is rejected as a whole; no partial record is ever produced.
func Normalize(raw []byte, receivedAt time.Time) (*models.Reading, error) {
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(raw, &keys); err != nil {
		return nil, errors.NewValidationError("payload is not a JSON object", err)
	}

	switch classify(keys) {
	case shapeEdge:
		return normalizeEdge(raw, receivedAt)
	case shapeLegacy:
		return normalizeLegacy(raw, receivedAt)
	case shapeCanonical:
		return normalizeCanonical(raw, receivedAt)
	default:
		return nil, errors.NewValidationError("payload carries no recognizable timestamp field", nil)
	}
}

func classify(keys map[string]json.RawMessage) shape {
	if _, ok := keys["ts"]; ok {
		return shapeEdge
	}
	if _, ok := keys["timestamp"]; ok {
		return shapeLegacy
	}
	if _, ok := keys["device_timestamp"]; ok {
		return shapeCanonical
	}
	return shapeUnknown
}

func normalizeEdge(raw []byte, receivedAt time.Time) (*models.Reading, error) {
	var p edgePayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, errors.NewValidationError("malformed edge telemetry payload", err)
	}
	if p.DeviceID == nil || *p.DeviceID == "" {
		return nil, errors.NewValidationError("edge payload missing device_id", nil)
	}
	temp := firstNonNil(p.Temp, p.Temperature)
	if temp == nil {
		return nil, errors.NewValidationError("edge payload missing temperature", nil)
	}
	if p.Ts == nil {
		return nil, errors.NewValidationError("edge payload missing ts", nil)
	}

	return &models.Reading{
		DeviceID:        *p.DeviceID,
		Temperature:     *temp,
		Humidity:        fallback(p.Hum, fallback(p.Humidity, 0)),
		ShockG:          fallback(p.ShockG, fallback(p.Shock, 0)),
		Lat:             p.Lat,
		Lon:             p.Lon,
		Battery:         p.Battery,
		DoorOpen:        p.DoorOpen != nil && *p.DoorOpen,
		DeviceTimestamp: *p.Ts,
		ReceivedAt:      receivedAt,
	}, nil
}

func normalizeLegacy(raw []byte, receivedAt time.Time) (*models.Reading, error) {
	var p legacyPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, errors.NewValidationError("malformed legacy telemetry payload", err)
	}
	if p.DeviceID == nil || *p.DeviceID == "" {
		return nil, errors.NewValidationError("legacy payload missing device_id", nil)
	}
	temp := firstNonNil(p.Temp, p.Temperature)
	if temp == nil {
		return nil, errors.NewValidationError("legacy payload missing temperature", nil)
	}
	ts, err := parseTimestamp(p.Timestamp)
	if err != nil {
		return nil, err
	}

	lat, lon := p.Lat, p.Lon
	if p.Location != nil {
		lat = firstNonNil(lat, p.Location.Lat)
		lon = firstNonNil(lon, p.Location.Lon)
	}

	return &models.Reading{
		DeviceID:        *p.DeviceID,
		Temperature:     *temp,
		Humidity:        fallback(p.Hum, fallback(p.Humidity, 0)),
		ShockG:          fallback(p.ShockG, fallback(p.Shock, 0)),
		Lat:             lat,
		Lon:             lon,
		Battery:         p.Battery,
		DoorOpen:        p.DoorOpen != nil && *p.DoorOpen,
		DeviceTimestamp: ts,
		ReceivedAt:      receivedAt,
	}, nil
}

func normalizeCanonical(raw []byte, receivedAt time.Time) (*models.Reading, error) {
	var p canonicalPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, errors.NewValidationError("malformed canonical reading payload", err)
	}
	if p.DeviceID == nil || *p.DeviceID == "" {
		return nil, errors.NewValidationError("canonical payload missing device_id", nil)
	}
	if p.Temperature == nil {
		return nil, errors.NewValidationError("canonical payload missing temperature", nil)
	}
	if p.DeviceTimestamp == nil {
		return nil, errors.NewValidationError("canonical payload missing device_timestamp", nil)
	}

	return &models.Reading{
		ID:              p.ID,
		DeviceID:        *p.DeviceID,
		Temperature:     *p.Temperature,
		Humidity:        fallback(p.Humidity, 0),
		ShockG:          fallback(p.ShockG, 0),
		Lat:             p.Lat,
		Lon:             p.Lon,
		Battery:         p.Battery,
		DoorOpen:        p.DoorOpen != nil && *p.DoorOpen,
		DeviceTimestamp: *p.DeviceTimestamp,
		ReceivedAt:      receivedAt,
	}, nil
}

// ParseShockAlert validates a device-originated shock alert payload.
// The device already applied its own threshold, so the value itself is not
// re-checked here.
func ParseShockAlert(raw []byte, receivedAt time.Time) (*models.ShockAlertEvent, error) {
	var p struct {
		DeviceID *string  `json:"device_id"`
		Alert    string   `json:"alert"`
		ShockG   *float64 `json:"shock_g"`
		Lat      *float64 `json:"lat"`
		Lon      *float64 `json:"lon"`
		Ts       *int64   `json:"ts"`
	}
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, errors.NewValidationError("malformed shock alert payload", err)
	}
	if p.DeviceID == nil || *p.DeviceID == "" {
		return nil, errors.NewValidationError("shock alert missing device_id", nil)
	}
	if p.ShockG == nil {
		return nil, errors.NewValidationError("shock alert missing shock_g", nil)
	}
	if p.Ts == nil {
		return nil, errors.NewValidationError("shock alert missing ts", nil)
	}

	return &models.ShockAlertEvent{
		DeviceID:        *p.DeviceID,
		ShockG:          *p.ShockG,
		Lat:             p.Lat,
		Lon:             p.Lon,
		DeviceTimestamp: *p.Ts,
		ReceivedAt:      receivedAt,
	}, nil
}

// parseTimestamp accepts either an ISO calendar string or a raw numeric
// epoch-millisecond value and returns epoch milliseconds.
func parseTimestamp(raw json.RawMessage) (int64, error) {
	if len(raw) == 0 {
		return 0, errors.NewValidationError("legacy payload missing timestamp", nil)
	}

	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		t, err := time.Parse(time.RFC3339, asString)
		if err != nil {
			return 0, errors.NewValidationError(
				fmt.Sprintf("unparseable timestamp %q", asString), err)
		}
		return t.UnixMilli(), nil
	}

	var asNumber int64
	if err := json.Unmarshal(raw, &asNumber); err != nil {
		return 0, errors.NewValidationError("timestamp is neither string nor integer", err)
	}
	return asNumber, nil
}

func fallback(v *float64, def float64) float64 {
	if v != nil {
		return *v
	}
	return def
}

func firstNonNil(values ...*float64) *float64 {
	for _, v := range values {
		if v != nil {
			return v
		}
	}
	return nil
}
