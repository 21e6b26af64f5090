// FilePath: internal/repository/timescale/timescale.readings.go
package timescale

import (
	"context"
	"fmt"
	"time"

	"github.com/coldroute/cargomon/internal/database"
	"github.com/coldroute/cargomon/internal/errors"
	"github.com/coldroute/cargomon/internal/models"
	"github.com/coldroute/cargomon/internal/repository"
	nuts "github.com/vaudience/go-nuts"
)

type ReadingRepo struct {
	db database.DB
}

func NewReadingRepository(db database.DB) (*ReadingRepo, error) {
	repo := &ReadingRepo{db: db}
	err := repo.initializeSchema()
	if err != nil {
		return nil, err
	}
	return repo, nil
}

func (r *ReadingRepo) initializeSchema() error {
	// received_at is the sole ordering key: device timestamps are only
	// monotonic within one boot session and are stored as opaque values.
	queries := []string{
		`CREATE TABLE IF NOT EXISTS readings (
			id TEXT NOT NULL,
			device_id TEXT NOT NULL,
			temperature DOUBLE PRECISION NOT NULL,
			humidity DOUBLE PRECISION NOT NULL,
			shock_g DOUBLE PRECISION NOT NULL,
			lat DOUBLE PRECISION,
			lon DOUBLE PRECISION,
			battery DOUBLE PRECISION,
			door_open BOOLEAN NOT NULL DEFAULT FALSE,
			device_timestamp BIGINT NOT NULL,
			received_at TIMESTAMPTZ NOT NULL
		)`,
		`SELECT create_hypertable('readings', 'received_at',
			chunk_time_interval => INTERVAL '1 day',
			if_not_exists => TRUE
		)`,
		`CREATE INDEX IF NOT EXISTS idx_readings_device_received
		 ON readings(device_id, received_at DESC)`,
	}

	for _, query := range queries {
		_, err := r.db.GetDB().Exec(query)
		if err != nil {
			return errors.NewDatabaseError("failed to initialize readings schema", err)
		}
	}

	r.setupRetentionPolicy()
	return nil
}

func (r *ReadingRepo) setupRetentionPolicy() {
	query := `
		SELECT add_retention_policy('readings',
			INTERVAL '13 months',
			if_not_exists => TRUE
		)`

	_, err := r.db.GetDB().Exec(query)
	if err != nil {
		nuts.L.Errorf("[TimescaleDB] Failed to set up readings retention policy: %v", err)
	}
}

func (r *ReadingRepo) Insert(ctx context.Context, reading *models.Reading) error {
	if reading == nil || reading.DeviceID == "" {
		return fmt.Errorf("%w: reading requires a device id", repository.ErrInvalidInput)
	}
	if reading.ID == "" {
		reading.ID = nuts.NID("rd", 12)
	}
	query := `
		INSERT INTO readings (id, device_id, temperature, humidity, shock_g,
			lat, lon, battery, door_open, device_timestamp, received_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := r.db.GetDB().ExecContext(ctx, query,
		reading.ID, reading.DeviceID, reading.Temperature, reading.Humidity,
		reading.ShockG, reading.Lat, reading.Lon, reading.Battery,
		reading.DoorOpen, reading.DeviceTimestamp, reading.ReceivedAt)
	if err != nil {
		return errors.NewDatabaseError("failed to insert reading", err)
	}
	return nil
}

func (r *ReadingRepo) GetLatest(ctx context.Context, deviceID string, limit int) ([]models.Reading, error) {
	limit = repository.ClampLimit(limit, repository.DefaultReadingLimit)

	readings := []models.Reading{}
	query := `
		SELECT id, device_id, temperature, humidity, shock_g, lat, lon,
			battery, door_open, device_timestamp, received_at
		FROM readings
		WHERE device_id = $1
		ORDER BY received_at DESC
		LIMIT $2`

	err := r.db.GetDB().SelectContext(ctx, &readings, query, deviceID, limit)
	if err != nil {
		return nil, errors.NewDatabaseError("failed to get latest readings", err)
	}
	return readings, nil
}

func (r *ReadingRepo) DeleteOldData(ctx context.Context, before time.Time) error {
	query := `DELETE FROM readings WHERE received_at < $1`

	result, err := r.db.GetDB().ExecContext(ctx, query, before)
	if err != nil {
		return errors.NewDatabaseError("failed to delete old readings", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return errors.NewDatabaseError("failed to get rows affected", err)
	}

	nuts.L.Infof("[TimescaleDB] Deleted %d old readings before %v", rows, before)
	return nil
}
