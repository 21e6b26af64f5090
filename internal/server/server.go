// FilePath: internal/server/server.go
package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coldroute/cargomon/api"
	"github.com/coldroute/cargomon/internal/alerting"
	"github.com/coldroute/cargomon/internal/config"
	"github.com/coldroute/cargomon/internal/database"
	"github.com/coldroute/cargomon/internal/fanout"
	"github.com/coldroute/cargomon/internal/gatewayservice"
	"github.com/coldroute/cargomon/internal/ingest"
	"github.com/coldroute/cargomon/internal/monitoring"
	"github.com/coldroute/cargomon/internal/mqttsub"
	"github.com/coldroute/cargomon/internal/repository/redisreg"
	"github.com/coldroute/cargomon/internal/repository/timescale"
	"github.com/coldroute/cargomon/internal/retention"
	nuts "github.com/vaudience/go-nuts"
)

const databasePingTimeout = 5 * time.Second

// Server runs the gateway: broker subscriptions feeding the ingest
// pipeline, plus the HTTP surface for viewers.
type Server struct {
	config      *config.Config
	srv         *http.Server
	service     *gatewayservice.GatewayService
	subscriber  *mqttsub.Subscriber
	monitoring  *monitoring.Service
	retention   *retention.Service
	stopSweeper context.CancelFunc
}

// New creates a new server instance
func New(cfg *config.Config) *Server {
	return &Server{
		config:     cfg,
		monitoring: monitoring.NewService(),
	}
}

// Start wires dependencies and runs until interrupted. Startup failures
// (store, registry, broker) are fatal; once running, no single bad message
// or transient outage terminates the process.
func (s *Server) Start() error {
	s.service = s.initializeGatewayService()
	s.setupMonitoringHooks()
	s.startRetentionSweeper()

	s.subscriber = mqttsub.New(s.config.MQTT, s.service.Ingest)
	if err := s.subscriber.Start(); err != nil {
		return fmt.Errorf("failed to start broker subscriber: %w", err)
	}

	router := api.NewRouter(s.service, s.monitoring)
	s.srv = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port),
		Handler:      router.Handler(),
		ReadTimeout:  s.config.Server.ReadTimeout,
		WriteTimeout: s.config.Server.WriteTimeout,
	}

	go func() {
		nuts.L.Infof("[Server] Listening on %s", s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			nuts.L.Errorf("[Server] Error starting server: %v", err)
			os.Exit(1)
		}
	}()

	return s.waitForShutdown()
}

// waitForShutdown waits for interrupt signal and gracefully shuts down
func (s *Server) waitForShutdown() error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	nuts.L.Infof("[Server] Shutting down...")
	s.stopSweeper()
	s.subscriber.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), s.config.Server.ShutdownTimeout)
	defer cancel()

	if err := s.srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("error shutting down server: %w", err)
	}

	nuts.L.Infof("[Server] Shut down successfully")
	return nil
}

// initializeGatewayService connects backing stores and assembles the
// ingest pipeline
func (s *Server) initializeGatewayService() *gatewayservice.GatewayService {
	tsdb := initTimescaleDB(s.config.Database.TimescaleDB)

	readings, err := timescale.NewReadingRepository(tsdb)
	if err != nil {
		nuts.L.Fatalf("[Server] Failed to initialize readings repository: %v", err)
	}
	shockAlerts, err := timescale.NewShockAlertRepository(tsdb)
	if err != nil {
		nuts.L.Fatalf("[Server] Failed to initialize shock alert repository: %v", err)
	}

	registry, err := redisreg.New(s.config.Redis)
	if err != nil {
		nuts.L.Fatalf("[Server] Failed to connect device registry: %v", err)
	}

	hub := fanout.NewHub()
	evaluator := alerting.NewEvaluator(s.config.Thresholds)
	orchestrator := ingest.NewOrchestrator(
		readings, shockAlerts, registry, evaluator, hub,
		s.config.Ingest.Policy, s.config.MQTT.AlertTopic,
	)

	svc := gatewayservice.New(readings, shockAlerts, registry, hub, orchestrator)
	if err := svc.Validate(); err != nil {
		nuts.L.Fatalf("[Server] Invalid service wiring: %v", err)
	}
	return svc
}

// setupMonitoringHooks counts pipeline outcomes via the orchestrator's
// internal events
func (s *Server) setupMonitoringHooks() {
	hooks := []string{
		ingest.EventReadingPersisted,
		ingest.EventAlertBroadcast,
		ingest.EventMessageDropped,
	}
	for _, event := range hooks {
		event := event
		s.service.Ingest.Events().On(event, "monitoring", func(args ...interface{}) {
			label := ""
			if len(args) > 0 {
				if v, ok := args[0].(string); ok {
					label = v
				}
			}
			s.monitoring.RecordEvent(event, map[string]string{"subject": label})
		})
	}
}

// startRetentionSweeper runs the periodic trim of old readings alongside
// the hypertable retention policy
func (s *Server) startRetentionSweeper() {
	s.retention = retention.New(s.service.Readings, s.config.Retention)
	s.retention.OnSweep(func(cutoff string) {
		s.monitoring.RecordEvent("retention.swept", map[string]string{"cutoff": cutoff})
	})

	ctx, cancel := context.WithCancel(context.Background())
	s.stopSweeper = cancel
	go s.retention.Run(ctx)
}

func initTimescaleDB(cfg config.PostgresConfig) database.DB {
	wrappedDB, err := database.NewTimescaleDB(cfg)
	if err != nil {
		nuts.L.Fatalf("[Server] Failed to connect to TimescaleDB: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), databasePingTimeout)
	defer cancel()
	if err := wrappedDB.Ping(ctx); err != nil {
		nuts.L.Fatalf("[Server] Failed to ping TimescaleDB: %v", err)
	}
	return wrappedDB
}
