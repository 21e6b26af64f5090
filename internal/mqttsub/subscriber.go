// FilePath: internal/mqttsub/subscriber.go

// Package mqttsub binds the gateway's broker subscriptions to the ingest
// pipeline: one wildcard per-device telemetry topic, the dedicated shock
// alert topic, and the flat legacy topic kept for older producers.
package mqttsub

import (
	"context"
	"crypto/tls"
	"strings"
	"time"

	"github.com/coldroute/cargomon/internal/config"
	"github.com/coldroute/cargomon/internal/errors"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	nuts "github.com/vaudience/go-nuts"
)

// handleTimeout bounds the ingest work done for a single inbound message.
const handleTimeout = 30 * time.Second

// MessageHandler receives each inbound message exactly once, in arrival
// order per connection.
type MessageHandler interface {
	HandleMessage(ctx context.Context, topic string, payload []byte)
}

type Subscriber struct {
	client  mqtt.Client
	cfg     config.MQTTConfig
	handler MessageHandler
}

func New(cfg config.MQTTConfig, handler MessageHandler) *Subscriber {
	s := &Subscriber{cfg: cfg, handler: handler}

	clientID := cfg.ClientID
	if clientID == "" {
		clientID = nuts.NID("gw", 8)
	}

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.BrokerURL).
		SetClientID(clientID).
		SetUsername(cfg.Username).
		SetPassword(cfg.Password).
		SetAutoReconnect(true).
		SetConnectTimeout(cfg.ConnectTimeout).
		SetOnConnectHandler(s.onConnect).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			nuts.L.Warnf("[MQTT] Connection lost, auto-reconnect pending: %v", err)
		})

	if strings.HasPrefix(cfg.BrokerURL, "ssl://") || strings.HasPrefix(cfg.BrokerURL, "tls://") {
		opts.SetTLSConfig(&tls.Config{MinVersion: tls.VersionTLS12})
	}

	s.client = mqtt.NewClient(opts)
	return s
}

// Start connects to the broker. Subscriptions are installed by the
// on-connect handler so they survive reconnects.
func (s *Subscriber) Start() error {
	token := s.client.Connect()
	if !token.WaitTimeout(s.cfg.ConnectTimeout) {
		return errors.NewUnavailableError("broker connect timed out", nil)
	}
	if err := token.Error(); err != nil {
		return errors.NewUnavailableError("failed to connect to broker", err)
	}
	return nil
}

func (s *Subscriber) onConnect(client mqtt.Client) {
	topics := map[string]byte{
		s.cfg.TelemetryTopic + "/+": 1, // one topic per device
		s.cfg.AlertTopic:            1,
		s.cfg.LegacyTopic:           1, // flat compatibility topic
	}
	token := client.SubscribeMultiple(topics, s.onMessage)
	if token.Wait() && token.Error() != nil {
		nuts.L.Errorf("[MQTT] Subscribe failed: %v", token.Error())
		return
	}
	nuts.L.Infof("[MQTT] Subscribed to %d topic filters", len(topics))
}

func (s *Subscriber) onMessage(_ mqtt.Client, msg mqtt.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), handleTimeout)
	defer cancel()
	s.handler.HandleMessage(ctx, msg.Topic(), msg.Payload())
}

func (s *Subscriber) Stop() {
	s.client.Disconnect(250)
	nuts.L.Infof("[MQTT] Subscriber stopped")
}
