// FilePath: internal/gatewayservice/gatewayservice.go
package gatewayservice

import (
	"github.com/coldroute/cargomon/internal/errors"
	"github.com/coldroute/cargomon/internal/fanout"
	"github.com/coldroute/cargomon/internal/ingest"
	"github.com/coldroute/cargomon/internal/repository"
)

// GatewayService contains all repositories and service-wide dependencies
type GatewayService struct {
	Readings    repository.ReadingRepository
	ShockAlerts repository.ShockAlertRepository
	Registry    repository.DeviceRegistry
	Fanout      *fanout.Hub
	Ingest      *ingest.Orchestrator
}

// New creates a new GatewayService instance
func New(
	readings repository.ReadingRepository,
	shockAlerts repository.ShockAlertRepository,
	registry repository.DeviceRegistry,
	hub *fanout.Hub,
	orchestrator *ingest.Orchestrator,
) *GatewayService {
	return &GatewayService{
		Readings:    readings,
		ShockAlerts: shockAlerts,
		Registry:    registry,
		Fanout:      hub,
		Ingest:      orchestrator,
	}
}

// Validate checks if all required dependencies are initialized
func (s *GatewayService) Validate() error {
	if s.Readings == nil {
		return ErrMissingDependency("readings")
	}
	if s.ShockAlerts == nil {
		return ErrMissingDependency("shockAlerts")
	}
	if s.Registry == nil {
		return ErrMissingDependency("registry")
	}
	if s.Fanout == nil {
		return ErrMissingDependency("fanout")
	}
	if s.Ingest == nil {
		return ErrMissingDependency("ingest")
	}
	return nil
}

func ErrMissingDependency(name string) error {
	return errors.NewInternalError("missing dependency: "+name, nil)
}
