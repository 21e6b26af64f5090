// FilePath: api/resources/api.resource.readings.go
package resources

import (
	"net/http"

	"github.com/coldroute/cargomon/internal/errors"
	"github.com/coldroute/cargomon/internal/gatewayservice"
	"github.com/coldroute/cargomon/internal/repository"
	"github.com/gorilla/mux"
	"github.com/gorilla/schema"
	nuts "github.com/vaudience/go-nuts"
)

var queryDecoder = func() *schema.Decoder {
	d := schema.NewDecoder()
	d.IgnoreUnknownKeys(true)
	return d
}()

// ReadingHandlers encapsulates the reading-related HTTP handlers
type ReadingHandlers struct {
	svc *gatewayservice.GatewayService
}

type listQuery struct {
	Limit int `schema:"limit"`
}

// @Summary Get latest readings
// @Description Get the most recent readings for a device, newest first by receipt time
// @Tags readings
// @Produce json
// @Param id path string true "Device ID"
// @Param limit query int false "Number of readings (default 100, max 500)"
// @Success 200 {array} models.Reading
// @Failure 500 {object} errors.APIError
// @Router /devices/{id}/readings [get]
func (h *ReadingHandlers) GetLatestReadings(w http.ResponseWriter, r *http.Request) {
	deviceID := mux.Vars(r)["id"]
	requestID := nuts.NID("req", 12)

	var q listQuery
	if err := queryDecoder.Decode(&q, r.URL.Query()); err != nil {
		respondWithError(w, errors.NewValidationError("invalid query parameters", err).WithRequestID(requestID))
		return
	}

	limit := repository.ClampLimit(q.Limit, repository.DefaultReadingLimit)
	readings, err := h.svc.Readings.GetLatest(r.Context(), deviceID, limit)
	if err != nil {
		respondWithError(w, errors.NewInternalError("failed to get readings", err).WithRequestID(requestID))
		return
	}

	respondWithJSON(w, http.StatusOK, readings)
}

// @Summary Get latest shock alerts
// @Description Get the most recent device-originated shock alerts for a device
// @Tags readings
// @Produce json
// @Param id path string true "Device ID"
// @Param limit query int false "Number of alerts (default 50, max 500)"
// @Success 200 {array} models.ShockAlertEvent
// @Failure 500 {object} errors.APIError
// @Router /devices/{id}/alerts [get]
func (h *ReadingHandlers) GetLatestShockAlerts(w http.ResponseWriter, r *http.Request) {
	deviceID := mux.Vars(r)["id"]
	requestID := nuts.NID("req", 12)

	var q listQuery
	if err := queryDecoder.Decode(&q, r.URL.Query()); err != nil {
		respondWithError(w, errors.NewValidationError("invalid query parameters", err).WithRequestID(requestID))
		return
	}

	limit := repository.ClampLimit(q.Limit, repository.DefaultAlertLimit)
	alerts, err := h.svc.ShockAlerts.GetLatest(r.Context(), deviceID, limit)
	if err != nil {
		respondWithError(w, errors.NewInternalError("failed to get shock alerts", err).WithRequestID(requestID))
		return
	}

	respondWithJSON(w, http.StatusOK, alerts)
}
