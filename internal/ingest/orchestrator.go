// FilePath: internal/ingest/orchestrator.go

// Package ingest sequences the gateway pipeline for one inbound message:
// normalize, evaluate, persist, fan out. Exactly one path runs per message,
// and a failure in one step halts further effects for that message only.
package ingest

import (
	"context"
	"encoding/json"
	"time"

	"github.com/coldroute/cargomon/internal/alerting"
	"github.com/coldroute/cargomon/internal/config"
	"github.com/coldroute/cargomon/internal/fanout"
	"github.com/coldroute/cargomon/internal/models"
	"github.com/coldroute/cargomon/internal/normalizer"
	"github.com/coldroute/cargomon/internal/repository"
	nuts "github.com/vaudience/go-nuts"
)

// Broadcaster pushes events to live viewers
type Broadcaster interface {
	Broadcast(event string, payload any)
}

// Internal event names observed by monitoring
const (
	EventReadingPersisted = "reading.persisted"
	EventAlertBroadcast   = "alert.broadcast"
	EventMessageDropped   = "message.dropped"
)

// Orchestrator routes inbound broker messages through the ingest pipeline
type Orchestrator struct {
	readings    repository.ReadingRepository
	shockAlerts repository.ShockAlertRepository
	registry    repository.DeviceRegistry
	evaluator   *alerting.Evaluator
	broadcaster Broadcaster
	events      *nuts.EventEmitter
	policy      string
	alertTopic  string
	now         func() time.Time
}

func NewOrchestrator(
	readings repository.ReadingRepository,
	shockAlerts repository.ShockAlertRepository,
	registry repository.DeviceRegistry,
	evaluator *alerting.Evaluator,
	broadcaster Broadcaster,
	policy string,
	alertTopic string,
) *Orchestrator {
	return &Orchestrator{
		readings:    readings,
		shockAlerts: shockAlerts,
		registry:    registry,
		evaluator:   evaluator,
		broadcaster: broadcaster,
		events:      nuts.NewEventEmitter(),
		policy:      policy,
		alertTopic:  alertTopic,
		now:         time.Now,
	}
}

// Events exposes the internal event emitter for monitoring hooks
func (o *Orchestrator) Events() *nuts.EventEmitter {
	return o.events
}

// HandleMessage processes one inbound broker message. It never returns an
// error: every failure mode is contained to this message, logged with a
// reason, and surfaced as an internal event. Silent loss does not happen
// past this boundary.
func (o *Orchestrator) HandleMessage(ctx context.Context, topic string, payload []byte) {
	if o.isShockAlert(topic, payload) {
		o.handleShockAlert(ctx, payload)
		return
	}
	o.handleTelemetry(ctx, payload)
}

// isShockAlert classifies a message by its topic, falling back to the
// decoded alert marker for producers that publish alerts on a telemetry
// topic. Decoding keeps classification independent of how the producer
// formatted its JSON.
func (o *Orchestrator) isShockAlert(topic string, payload []byte) bool {
	if topic == o.alertTopic {
		return true
	}
	var marker struct {
		Alert string `json:"alert"`
	}
	if err := json.Unmarshal(payload, &marker); err != nil {
		return false
	}
	return marker.Alert == models.AlertShockDetected
}

func (o *Orchestrator) handleTelemetry(ctx context.Context, payload []byte) {
	reading, err := normalizer.Normalize(payload, o.now().UTC())
	if err != nil {
		nuts.L.Warnf("[Ingest] Dropping telemetry message: %v", err)
		o.events.Emit(EventMessageDropped, "telemetry")
		return
	}

	reasons := o.evaluator.Evaluate(reading)

	// Under broadcast-first, a storage outage must not suppress an
	// already-computed threshold breach.
	if len(reasons) > 0 && o.policy == config.IngestPolicyBroadcastFirst {
		o.broadcastThresholdAlert(reading, reasons)
	}

	if err := o.readings.Insert(ctx, reading); err != nil {
		nuts.L.Errorf("[Ingest] Failed to persist reading from %s: %v", reading.DeviceID, err)
		o.events.Emit(EventMessageDropped, "telemetry_persist")
		return
	}
	o.events.Emit(EventReadingPersisted, reading.DeviceID)
	o.touchDevice(ctx, reading.DeviceID, reading.ReceivedAt)

	if len(reasons) > 0 && o.policy == config.IngestPolicyPersistFirst {
		o.broadcastThresholdAlert(reading, reasons)
	}

	o.broadcaster.Broadcast(fanout.EventTelemetry, reading)
}

func (o *Orchestrator) handleShockAlert(ctx context.Context, payload []byte) {
	event, err := normalizer.ParseShockAlert(payload, o.now().UTC())
	if err != nil {
		nuts.L.Warnf("[Ingest] Dropping shock alert message: %v", err)
		o.events.Emit(EventMessageDropped, "shock_alert")
		return
	}

	// The stored record is the system of record: a storage failure
	// stops the broadcast.
	if err := o.shockAlerts.Insert(ctx, event); err != nil {
		nuts.L.Errorf("[Ingest] Failed to persist shock alert from %s: %v", event.DeviceID, err)
		o.events.Emit(EventMessageDropped, "shock_alert_persist")
		return
	}
	o.touchDevice(ctx, event.DeviceID, event.ReceivedAt)

	o.broadcaster.Broadcast(fanout.EventShockAlert, event)
	o.events.Emit(EventAlertBroadcast, event.DeviceID)
	nuts.L.Infof("[Ingest] Shock alert from %s: %.2fg", event.DeviceID, event.ShockG)
}

func (o *Orchestrator) broadcastThresholdAlert(reading *models.Reading, reasons []string) {
	o.broadcaster.Broadcast(fanout.EventThresholdAlert, &models.ThresholdAlert{
		DeviceID: reading.DeviceID,
		Reasons:  reasons,
		Reading:  reading,
	})
	o.events.Emit(EventAlertBroadcast, reading.DeviceID)
	nuts.L.Infof("[Ingest] Threshold alert for %s: %v", reading.DeviceID, reasons)
}

// touchDevice updates the last-seen registry; registry trouble never affects
// the message that triggered the update.
func (o *Orchestrator) touchDevice(ctx context.Context, deviceID string, seenAt time.Time) {
	if o.registry == nil {
		return
	}
	if err := o.registry.Touch(ctx, deviceID, seenAt); err != nil {
		nuts.L.Warnf("[Ingest] Failed to update last-seen for %s: %v", deviceID, err)
	}
}
