// FilePath: internal/repository/repository.go
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/coldroute/cargomon/internal/models"
)

// ErrInvalidInput indicates that a record is missing required fields
var ErrInvalidInput = errors.New("invalid input")

// Query caps enforced server-side regardless of what the caller asks for.
const (
	DefaultReadingLimit = 100
	DefaultAlertLimit   = 50
	MaxQueryLimit       = 500
)

// ReadingRepository defines storage operations for canonical readings
type ReadingRepository interface {
	Insert(ctx context.Context, reading *models.Reading) error
	GetLatest(ctx context.Context, deviceID string, limit int) ([]models.Reading, error)
	DeleteOldData(ctx context.Context, before time.Time) error
}

// ShockAlertRepository defines storage operations for device-originated
// shock alerts, kept for audit alongside the reading stream
type ShockAlertRepository interface {
	Insert(ctx context.Context, alert *models.ShockAlertEvent) error
	GetLatest(ctx context.Context, deviceID string, limit int) ([]models.ShockAlertEvent, error)
}

// DeviceRegistry tracks when each device was last seen
type DeviceRegistry interface {
	Touch(ctx context.Context, deviceID string, seenAt time.Time) error
	SeenSince(ctx context.Context, window time.Duration) ([]models.DeviceSeen, error)
}

// ClampLimit applies default and maximum bounds to a requested page size
func ClampLimit(requested, fallback int) int {
	if requested <= 0 {
		return fallback
	}
	if requested > MaxQueryLimit {
		return MaxQueryLimit
	}
	return requested
}
