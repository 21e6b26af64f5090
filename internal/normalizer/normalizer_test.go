// FilePath: internal/normalizer/normalizer_test.go
package normalizer

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/coldroute/cargomon/internal/errors"
	"github.com/coldroute/cargomon/internal/models"
)

var receivedAt = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func TestNormalizeEdgeShape(t *testing.T) {
	raw := []byte(`{"device_id":"CARGO-ESP32-001","temp":4.2,"hum":61.5,"shock_g":0.3,"lat":1.3521,"lon":103.8198,"door_open":true,"ts":17000}`)

	reading, err := Normalize(raw, receivedAt)
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}

	if reading.DeviceID != "CARGO-ESP32-001" {
		t.Errorf("DeviceID = %q, want CARGO-ESP32-001", reading.DeviceID)
	}
	if reading.Temperature != 4.2 {
		t.Errorf("Temperature = %v, want 4.2", reading.Temperature)
	}
	if reading.Humidity != 61.5 {
		t.Errorf("Humidity = %v, want 61.5", reading.Humidity)
	}
	if reading.ShockG != 0.3 {
		t.Errorf("ShockG = %v, want 0.3", reading.ShockG)
	}
	if !reading.DoorOpen {
		t.Error("DoorOpen = false, want true")
	}
	if reading.DeviceTimestamp != 17000 {
		t.Errorf("DeviceTimestamp = %d, want 17000", reading.DeviceTimestamp)
	}
	if !reading.ReceivedAt.Equal(receivedAt) {
		t.Errorf("ReceivedAt = %v, want %v", reading.ReceivedAt, receivedAt)
	}
}

func TestNormalizeEdgeShapeWithLongFieldNames(t *testing.T) {
	// Field name fallbacks apply to the edge shape too: a device-local
	// timestamp with long-form names still normalizes.
	raw := []byte(`{"device_id":"D1","temperature":4.2,"humidity":61.5,"ts":17000}`)

	reading, err := Normalize(raw, receivedAt)
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if reading.Temperature != 4.2 {
		t.Errorf("Temperature = %v, want 4.2", reading.Temperature)
	}
	if reading.Humidity != 61.5 {
		t.Errorf("Humidity = %v, want 61.5", reading.Humidity)
	}
	if reading.DeviceTimestamp != 17000 {
		t.Errorf("DeviceTimestamp = %d, want 17000", reading.DeviceTimestamp)
	}
}

func TestNormalizeLegacyReconciliation(t *testing.T) {
	// The documented reconciliation case: sparse legacy payload with a
	// nested location and an ISO timestamp.
	raw := []byte(`{"device_id":"D1","temperature":5,"location":{"lat":1,"lon":2},"timestamp":"2024-01-01T00:00:00Z"}`)

	reading, err := Normalize(raw, receivedAt)
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}

	if reading.Temperature != 5 {
		t.Errorf("Temperature = %v, want 5", reading.Temperature)
	}
	if reading.Lat == nil || *reading.Lat != 1 {
		t.Errorf("Lat = %v, want 1", reading.Lat)
	}
	if reading.Lon == nil || *reading.Lon != 2 {
		t.Errorf("Lon = %v, want 2", reading.Lon)
	}
	if reading.Humidity != 0 {
		t.Errorf("Humidity = %v, want 0", reading.Humidity)
	}
	if reading.ShockG != 0 {
		t.Errorf("ShockG = %v, want 0", reading.ShockG)
	}
	wantTs := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).UnixMilli()
	if reading.DeviceTimestamp != wantTs {
		t.Errorf("DeviceTimestamp = %d, want %d", reading.DeviceTimestamp, wantTs)
	}
}

func TestNormalizeLegacyNumericTimestampPassesThrough(t *testing.T) {
	raw := []byte(`{"device_id":"D1","temperature":5,"timestamp":1704067200000}`)

	reading, err := Normalize(raw, receivedAt)
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if reading.DeviceTimestamp != 1704067200000 {
		t.Errorf("DeviceTimestamp = %d, want 1704067200000", reading.DeviceTimestamp)
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	lat, lon := 1.35, 103.81
	original := &models.Reading{
		ID:              "rd_abc123",
		DeviceID:        "CARGO-ESP32-002",
		Temperature:     6.1,
		Humidity:        55,
		ShockG:          0.2,
		Lat:             &lat,
		Lon:             &lon,
		DoorOpen:        true,
		DeviceTimestamp: 98765,
		ReceivedAt:      receivedAt,
	}

	raw, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	again, err := Normalize(raw, receivedAt)
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}

	if again.ID != original.ID ||
		again.DeviceID != original.DeviceID ||
		again.Temperature != original.Temperature ||
		again.Humidity != original.Humidity ||
		again.ShockG != original.ShockG ||
		*again.Lat != *original.Lat ||
		*again.Lon != *original.Lon ||
		again.DoorOpen != original.DoorOpen ||
		again.DeviceTimestamp != original.DeviceTimestamp ||
		!again.ReceivedAt.Equal(original.ReceivedAt) {
		t.Errorf("normalizing a canonical reading changed it:\n got %+v\nwant %+v", again, original)
	}
}

func TestNormalizeRejectsIncompletePayloads(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{"missing device_id", `{"temp":4.0,"ts":1000}`},
		{"missing temperature", `{"device_id":"D1","hum":50,"ts":1000}`},
		{"missing timestamp", `{"device_id":"D1","temp":4.0}`},
		{"bad timestamp string", `{"device_id":"D1","temperature":4.0,"timestamp":"yesterday"}`},
		{"not an object", `[1,2,3]`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Normalize([]byte(tc.raw), receivedAt)
			if err == nil {
				t.Fatalf("expected rejection for %s", tc.name)
			}
			if !errors.IsValidation(err) {
				t.Errorf("expected validation error, got %v", err)
			}
		})
	}
}

func TestParseShockAlert(t *testing.T) {
	raw := []byte(`{"device_id":"D1","alert":"SHOCK_DETECTED","shock_g":4.7,"lat":1.3,"lon":103.8,"ts":5000}`)

	event, err := ParseShockAlert(raw, receivedAt)
	if err != nil {
		t.Fatalf("ParseShockAlert failed: %v", err)
	}
	if event.DeviceID != "D1" || event.ShockG != 4.7 || event.DeviceTimestamp != 5000 {
		t.Errorf("unexpected event: %+v", event)
	}

	if _, err := ParseShockAlert([]byte(`{"alert":"SHOCK_DETECTED","ts":1}`), receivedAt); err == nil {
		t.Error("expected rejection for alert without device_id and shock_g")
	}
}
