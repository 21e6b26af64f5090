// FilePath: cmd/edge/main.go
package main

import (
	"context"
	"log"
	"time"

	"github.com/coldroute/cargomon/internal/config"
	"github.com/coldroute/cargomon/internal/edge"
	"github.com/coldroute/cargomon/internal/edge/publisher"
	"github.com/coldroute/cargomon/internal/edge/sensors"
	nuts "github.com/vaudience/go-nuts"
)

func main() {
	nuts.InitVersion()
	nuts.L.Infof("[Main] Starting CargoMon Edge Agent v%s", nuts.GetVersion())

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.Edge.DeviceID == "" {
		cfg.Edge.DeviceID = nuts.NID("CARGO", 8)
		nuts.L.Warnf("[Main] No device id configured, using %s", cfg.Edge.DeviceID)
	}

	sampler := sensors.NewSimulated(time.Now().UnixNano())
	transport := publisher.New(cfg.MQTT, cfg.Edge.DeviceID)

	// The loop runs until the process is killed; on a real device only a
	// reset ends it.
	agent := edge.NewAgent(cfg, sampler, transport)
	agent.Run(context.Background())
}
