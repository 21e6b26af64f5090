// FilePath: internal/repository/timescale/timescale_test.go
package timescale

import (
	"context"
	"errors"
	"testing"

	"github.com/coldroute/cargomon/internal/models"
	"github.com/coldroute/cargomon/internal/repository"
)

// The device id guard runs before any database access, so a zero-value
// repo is enough to cover it.

func TestReadingInsertRejectsMissingDeviceID(t *testing.T) {
	repo := &ReadingRepo{}

	err := repo.Insert(context.Background(), &models.Reading{Temperature: 4.2})
	if !errors.Is(err, repository.ErrInvalidInput) {
		t.Errorf("Insert without device id = %v, want ErrInvalidInput", err)
	}

	if err := repo.Insert(context.Background(), nil); !errors.Is(err, repository.ErrInvalidInput) {
		t.Errorf("Insert(nil) = %v, want ErrInvalidInput", err)
	}
}

func TestShockAlertInsertRejectsMissingDeviceID(t *testing.T) {
	repo := &ShockAlertRepo{}

	err := repo.Insert(context.Background(), &models.ShockAlertEvent{ShockG: 4.0})
	if !errors.Is(err, repository.ErrInvalidInput) {
		t.Errorf("Insert without device id = %v, want ErrInvalidInput", err)
	}
}
