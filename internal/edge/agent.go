// FilePath: internal/edge/agent.go

// Package edge wires the acquisition/buffering/publishing loop that runs on
// the container-mounted device.
package edge

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"runtime"
	"time"

	"github.com/coldroute/cargomon/internal/config"
	"github.com/coldroute/cargomon/internal/edge/buffer"
	"github.com/coldroute/cargomon/internal/edge/scheduler"
	"github.com/coldroute/cargomon/internal/edge/sensors"
	"github.com/coldroute/cargomon/internal/models"
	nuts "github.com/vaudience/go-nuts"
)

// Transport is the publishing session the agent talks through. Publish must
// fail fast when the session is down so the agent can buffer synchronously.
type Transport interface {
	Connect() bool
	IsConnected() bool
	Publish(topic string, payload []byte) bool
}

// Agent owns the edge state machine. All of its methods run on the
// scheduler goroutine; nothing here is safe for concurrent use.
type Agent struct {
	cfg       config.EdgeConfig
	shockMax  float64
	sampler   sensors.Sampler
	buf       *buffer.Buffer
	transport Transport

	telemetryTopic string
	alertTopic     string

	bootTime   time.Time
	lastShockG float64
	// pendingShock latches the worst sample above threshold since the last
	// emit check, so an alert goes out ahead of the next periodic reading.
	pendingShock *models.ShockAlertPayload
	lastLat      *float64
	lastLon      *float64
}

func NewAgent(cfg *config.Config, sampler sensors.Sampler, transport Transport) *Agent {
	return &Agent{
		cfg:            cfg.Edge,
		shockMax:       cfg.Thresholds.ShockMax,
		sampler:        sampler,
		buf:            buffer.New(cfg.Edge.BufferPath, cfg.Edge.BufferMaxRecords),
		transport:      transport,
		telemetryTopic: fmt.Sprintf("%s/%s", cfg.MQTT.TelemetryTopic, cfg.Edge.DeviceID),
		alertTopic:     cfg.MQTT.AlertTopic,
		bootTime:       time.Now(),
	}
}

// Run installs the task table and loops until ctx ends. Task order mirrors
// the device's priorities: keep the link up, catch shocks, emit alerts ahead
// of telemetry, then drain the backlog.
func (a *Agent) Run(ctx context.Context) {
	s := scheduler.New()
	s.AddTask("connectivity", a.cfg.ConnectInterval, a.maintainConnectivity)
	s.AddTask("motion", a.cfg.MotionInterval, a.sampleMotion)
	s.AddTask("shock-emit", 0, a.emitPendingShock)
	s.AddTask("telemetry", a.cfg.ReportInterval, a.reportTelemetry)
	s.AddTask("drain", 0, a.drainBuffer)

	nuts.L.Infof("[Edge] Agent %s starting (report every %v, motion every %v)",
		a.cfg.DeviceID, a.cfg.ReportInterval, a.cfg.MotionInterval)
	s.Run(ctx)
}

func (a *Agent) maintainConnectivity(now time.Time) {
	if a.transport.IsConnected() {
		return
	}
	a.transport.Connect()
}

func (a *Agent) sampleMotion(now time.Time) {
	g := a.sampler.SampleMotion()
	if math.IsNaN(g) {
		return // sensor glitch, skip this tick
	}
	a.lastShockG = g

	if g > a.shockMax && (a.pendingShock == nil || g > a.pendingShock.ShockG) {
		a.pendingShock = &models.ShockAlertPayload{
			DeviceID: a.cfg.DeviceID,
			Alert:    models.AlertShockDetected,
			ShockG:   g,
			Lat:      a.lastLat,
			Lon:      a.lastLon,
			Ts:       a.deviceTimestamp(now),
		}
	}
}

func (a *Agent) emitPendingShock(now time.Time) {
	if a.pendingShock == nil {
		return
	}
	payload, err := json.Marshal(a.pendingShock)
	a.pendingShock = nil
	if err != nil {
		nuts.L.Errorf("[Edge] Failed to marshal shock alert: %v", err)
		return
	}
	nuts.L.Warnf("[Edge] Shock detected, emitting immediate alert")
	a.publishOrBuffer(a.alertTopic, payload)
}

func (a *Agent) reportTelemetry(now time.Time) {
	env := a.sampler.SampleEnvironment()
	if math.IsNaN(env.Temperature) || math.IsNaN(env.Humidity) ||
		math.IsNaN(env.Lat) || math.IsNaN(env.Lon) {
		nuts.L.Warnf("[Edge] Sensor read failed, skipping this reading")
		return // no partial records
	}

	lat, lon := env.Lat, env.Lon
	a.lastLat, a.lastLon = &lat, &lon

	payload, err := json.Marshal(&models.TelemetryPayload{
		DeviceID: a.cfg.DeviceID,
		Temp:     round1(env.Temperature),
		Hum:      round1(env.Humidity),
		ShockG:   a.lastShockG,
		Lat:      &lat,
		Lon:      &lon,
		DoorOpen: env.DoorOpen,
		Ts:       a.deviceTimestamp(now),
	})
	if err != nil {
		nuts.L.Errorf("[Edge] Failed to marshal telemetry: %v", err)
		return
	}
	a.publishOrBuffer(a.telemetryTopic, payload)
}

func (a *Agent) drainBuffer(now time.Time) {
	if !a.transport.IsConnected() || !a.buf.HasPending() {
		return
	}
	// Buffered shock alerts republish on the telemetry topic; the gateway
	// classifies them by their payload marker.
	a.buf.Drain(func(payload []byte) bool {
		return a.transport.Publish(a.telemetryTopic, payload)
	}, runtime.Gosched)
}

func (a *Agent) publishOrBuffer(topic string, payload []byte) {
	if a.transport.Publish(topic, payload) {
		return
	}
	a.buf.Append(payload)
}

// deviceTimestamp is milliseconds since boot: monotonic within this session,
// meaningless across reboots. The gateway's receipt time orders storage.
func (a *Agent) deviceTimestamp(now time.Time) int64 {
	return now.Sub(a.bootTime).Milliseconds()
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
