// FilePath: internal/repository/timescale/timescale.shock_alerts.go
package timescale

import (
	"context"
	"fmt"

	"github.com/coldroute/cargomon/internal/database"
	"github.com/coldroute/cargomon/internal/errors"
	"github.com/coldroute/cargomon/internal/models"
	"github.com/coldroute/cargomon/internal/repository"
	nuts "github.com/vaudience/go-nuts"
)

type ShockAlertRepo struct {
	db database.DB
}

func NewShockAlertRepository(db database.DB) (*ShockAlertRepo, error) {
	repo := &ShockAlertRepo{db: db}
	err := repo.initializeSchema()
	if err != nil {
		return nil, err
	}
	return repo, nil
}

func (r *ShockAlertRepo) initializeSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS shock_alerts (
			id TEXT NOT NULL,
			device_id TEXT NOT NULL,
			shock_g DOUBLE PRECISION NOT NULL,
			lat DOUBLE PRECISION,
			lon DOUBLE PRECISION,
			device_timestamp BIGINT NOT NULL,
			received_at TIMESTAMPTZ NOT NULL
		)`,
		`SELECT create_hypertable('shock_alerts', 'received_at',
			chunk_time_interval => INTERVAL '7 days',
			if_not_exists => TRUE
		)`,
		`CREATE INDEX IF NOT EXISTS idx_shock_alerts_device_received
		 ON shock_alerts(device_id, received_at DESC)`,
	}

	for _, query := range queries {
		_, err := r.db.GetDB().Exec(query)
		if err != nil {
			return errors.NewDatabaseError("failed to initialize shock_alerts schema", err)
		}
	}
	return nil
}

func (r *ShockAlertRepo) Insert(ctx context.Context, alert *models.ShockAlertEvent) error {
	if alert == nil || alert.DeviceID == "" {
		return fmt.Errorf("%w: shock alert requires a device id", repository.ErrInvalidInput)
	}
	if alert.ID == "" {
		alert.ID = nuts.NID("sa", 12)
	}
	query := `
		INSERT INTO shock_alerts (id, device_id, shock_g, lat, lon,
			device_timestamp, received_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.db.GetDB().ExecContext(ctx, query,
		alert.ID, alert.DeviceID, alert.ShockG, alert.Lat, alert.Lon,
		alert.DeviceTimestamp, alert.ReceivedAt)
	if err != nil {
		return errors.NewDatabaseError("failed to insert shock alert", err)
	}
	return nil
}

func (r *ShockAlertRepo) GetLatest(ctx context.Context, deviceID string, limit int) ([]models.ShockAlertEvent, error) {
	limit = repository.ClampLimit(limit, repository.DefaultAlertLimit)

	alerts := []models.ShockAlertEvent{}
	query := `
		SELECT id, device_id, shock_g, lat, lon, device_timestamp, received_at
		FROM shock_alerts
		WHERE device_id = $1
		ORDER BY received_at DESC
		LIMIT $2`

	err := r.db.GetDB().SelectContext(ctx, &alerts, query, deviceID, limit)
	if err != nil {
		return nil, errors.NewDatabaseError("failed to get latest shock alerts", err)
	}
	return alerts, nil
}
