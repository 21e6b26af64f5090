// FilePath: api/resources/resources.go
package resources

import (
	"encoding/json"
	"net/http"

	"github.com/coldroute/cargomon/internal/errors"
	"github.com/coldroute/cargomon/internal/gatewayservice"
	"github.com/coldroute/cargomon/internal/monitoring"
	nuts "github.com/vaudience/go-nuts"
)

// Resources holds all HTTP resource handlers
type Resources struct {
	Devices  *DeviceHandlers
	Readings *ReadingHandlers
}

// NewResources creates a new Resources instance
func NewResources(svc *gatewayservice.GatewayService, mon *monitoring.Service) *Resources {
	return &Resources{
		Devices:  &DeviceHandlers{svc: svc, monitoring: mon},
		Readings: &ReadingHandlers{svc: svc},
	}
}

func respondWithJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		nuts.L.Errorf("[API] Failed to encode response: %v", err)
	}
}

func respondWithError(w http.ResponseWriter, apiErr *errors.APIError) {
	nuts.L.Warnf("[API] %v", apiErr)
	respondWithJSON(w, apiErr.Code, apiErr)
}
