// FilePath: api/resources/api.resource.devices.go
package resources

import (
	"net/http"
	"time"

	"github.com/coldroute/cargomon/internal/errors"
	"github.com/coldroute/cargomon/internal/gatewayservice"
	"github.com/coldroute/cargomon/internal/monitoring"
	nuts "github.com/vaudience/go-nuts"
)

const defaultSeenWindow = 24 * time.Hour

// DeviceHandlers encapsulates the device-related HTTP handlers
type DeviceHandlers struct {
	svc        *gatewayservice.GatewayService
	monitoring *monitoring.Service
}

// @Summary List recently seen devices
// @Description List devices that delivered a message within the trailing window
// @Tags devices
// @Produce json
// @Param window query string false "Trailing window as Go duration (default 24h)"
// @Success 200 {array} models.DeviceSeen
// @Failure 400 {object} errors.APIError
// @Router /devices [get]
func (h *DeviceHandlers) ListDevices(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)

	window := defaultSeenWindow
	if raw := r.URL.Query().Get("window"); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil || parsed <= 0 {
			respondWithError(w, errors.NewValidationError("invalid window duration", err).WithRequestID(requestID))
			return
		}
		window = parsed
	}

	devices, err := h.svc.Registry.SeenSince(r.Context(), window)
	if err != nil {
		respondWithError(w, errors.NewInternalError("failed to list devices", err).WithRequestID(requestID))
		return
	}

	respondWithJSON(w, http.StatusOK, devices)
}

// @Summary Health check
// @Description Service liveness with version, subscriber count, and ingest counters
// @Tags health
// @Produce json
// @Success 200 {object} map[string]any
// @Router /health [get]
func (h *DeviceHandlers) Health(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]any{
		"status":      "ok",
		"version":     nuts.GetVersion(),
		"subscribers": h.svc.Fanout.SubscriberCount(),
		"events":      h.monitoring.Counters(),
	})
}
