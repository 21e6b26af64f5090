package api

import (
	"net/http"

	"github.com/coldroute/cargomon/api/resources"
	"github.com/coldroute/cargomon/internal/fanout"
	"github.com/coldroute/cargomon/internal/gatewayservice"
	"github.com/coldroute/cargomon/internal/monitoring"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	nuts "github.com/vaudience/go-nuts"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Viewers connect from arbitrary dashboard origins.
	CheckOrigin: func(r *http.Request) bool { return true },
}

type Router struct {
	router    *mux.Router
	hub       *fanout.Hub
	resources *resources.Resources
}

func NewRouter(svc *gatewayservice.GatewayService, mon *monitoring.Service) *Router {
	r := &Router{
		router:    mux.NewRouter(),
		hub:       svc.Fanout,
		resources: resources.NewResources(svc, mon),
	}

	r.setupRoutes()
	return r
}

func (r *Router) setupRoutes() {
	// API version prefix
	api := r.router.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/health", r.resources.Devices.Health).Methods(http.MethodGet)

	// Devices
	api.HandleFunc("/devices", r.resources.Devices.ListDevices).Methods(http.MethodGet)
	api.HandleFunc("/devices/{id}/readings", r.resources.Readings.GetLatestReadings).Methods(http.MethodGet)
	api.HandleFunc("/devices/{id}/alerts", r.resources.Readings.GetLatestShockAlerts).Methods(http.MethodGet)

	// Live fan-out subscription
	r.router.HandleFunc("/ws", r.handleSubscribe)
}

// handleSubscribe upgrades a viewer connection and hands it to the hub
func (r *Router) handleSubscribe(w http.ResponseWriter, req *http.Request) {
	conn, err := upgrader.Upgrade(w, req, nil)
	if err != nil {
		nuts.L.Warnf("[API] WebSocket upgrade failed: %v", err)
		return
	}
	fanout.NewClient(r.hub, conn).Start()
}

func (r *Router) Handler() http.Handler {
	return handlers.CombinedLoggingHandler(logWriter{}, handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{http.MethodGet}),
	)(r.router))
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.router.ServeHTTP(w, req)
}

// logWriter routes access logs through the shared logger
type logWriter struct{}

func (logWriter) Write(p []byte) (int, error) {
	nuts.L.Debugf("[API] %s", string(p))
	return len(p), nil
}
