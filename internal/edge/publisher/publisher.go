// FilePath: internal/edge/publisher/publisher.go

// Package publisher wraps the persistent MQTT session on the edge device.
// It never retries on its own: reconnect policy belongs to the scheduler so
// retry behavior stays centralized and observable.
package publisher

import (
	"crypto/tls"
	"strings"
	"time"

	"github.com/coldroute/cargomon/internal/config"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	nuts "github.com/vaudience/go-nuts"
)

type Publisher struct {
	client         mqtt.Client
	connectTimeout time.Duration
}

func New(cfg config.MQTTConfig, clientID string) *Publisher {
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.BrokerURL).
		SetClientID(clientID).
		SetUsername(cfg.Username).
		SetPassword(cfg.Password).
		SetAutoReconnect(false).
		SetConnectTimeout(cfg.ConnectTimeout)

	if strings.HasPrefix(cfg.BrokerURL, "ssl://") || strings.HasPrefix(cfg.BrokerURL, "tls://") {
		opts.SetTLSConfig(&tls.Config{MinVersion: tls.VersionTLS12})
	}

	return &Publisher{
		client:         mqtt.NewClient(opts),
		connectTimeout: cfg.ConnectTimeout,
	}
}

// Connect attempts to establish the session, bounded by the configured
// connect timeout. It returns false on failure and leaves retrying to the
// caller's schedule.
func (p *Publisher) Connect() bool {
	if p.client.IsConnectionOpen() {
		return true
	}
	token := p.client.Connect()
	if !token.WaitTimeout(p.connectTimeout) {
		nuts.L.Warnf("[Publisher] Connect timed out after %v", p.connectTimeout)
		return false
	}
	if err := token.Error(); err != nil {
		nuts.L.Warnf("[Publisher] Connect failed: %v", err)
		return false
	}
	nuts.L.Infof("[Publisher] Session established")
	return true
}

func (p *Publisher) IsConnected() bool {
	return p.client.IsConnectionOpen()
}

// Publish sends one payload at QoS 1. It returns false immediately when the
// session is down so callers can fall back to the offline buffer
// synchronously; when the session is up it waits for the broker ack, bounded
// by the connect timeout.
func (p *Publisher) Publish(topic string, payload []byte) bool {
	if !p.client.IsConnectionOpen() {
		return false
	}
	token := p.client.Publish(topic, 1, false, payload)
	if !token.WaitTimeout(p.connectTimeout) {
		nuts.L.Warnf("[Publisher] Publish to %s timed out", topic)
		return false
	}
	if err := token.Error(); err != nil {
		nuts.L.Warnf("[Publisher] Publish to %s failed: %v", topic, err)
		return false
	}
	return true
}

func (p *Publisher) Disconnect() {
	p.client.Disconnect(250)
}
