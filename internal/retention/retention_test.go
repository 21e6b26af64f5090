// FilePath: internal/retention/retention_test.go
package retention

import (
	"context"
	"testing"
	"time"

	"github.com/coldroute/cargomon/internal/config"
	"github.com/coldroute/cargomon/internal/models"
)

type sweepingReadingRepo struct {
	deletedBefore []time.Time
	failDelete    bool
}

func (f *sweepingReadingRepo) Insert(ctx context.Context, reading *models.Reading) error {
	return nil
}

func (f *sweepingReadingRepo) GetLatest(ctx context.Context, deviceID string, limit int) ([]models.Reading, error) {
	return nil, nil
}

func (f *sweepingReadingRepo) DeleteOldData(ctx context.Context, before time.Time) error {
	if f.failDelete {
		return context.DeadlineExceeded
	}
	f.deletedBefore = append(f.deletedBefore, before)
	return nil
}

func newTestService(repo *sweepingReadingRepo, now time.Time) *Service {
	s := New(repo, config.RetentionConfig{
		MaxAge:        30 * 24 * time.Hour,
		SweepInterval: time.Hour,
	})
	s.now = func() time.Time { return now }
	return s
}

func TestSweepDeletesBeforeRetentionHorizon(t *testing.T) {
	repo := &sweepingReadingRepo{}
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	s := newTestService(repo, now)

	if err := s.Sweep(context.Background()); err != nil {
		t.Fatalf("Sweep failed: %v", err)
	}

	if len(repo.deletedBefore) != 1 {
		t.Fatalf("expected exactly one delete call, got %d", len(repo.deletedBefore))
	}
	want := now.Add(-30 * 24 * time.Hour)
	if !repo.deletedBefore[0].Equal(want) {
		t.Errorf("cutoff = %v, want %v", repo.deletedBefore[0], want)
	}
}

func TestSweepEmitsEventOnSuccess(t *testing.T) {
	repo := &sweepingReadingRepo{}
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	s := newTestService(repo, now)

	cutoffs := make(chan string, 1)
	s.OnSweep(func(cutoff string) { cutoffs <- cutoff })

	if err := s.Sweep(context.Background()); err != nil {
		t.Fatalf("Sweep failed: %v", err)
	}

	want := now.Add(-30 * 24 * time.Hour).Format(time.RFC3339)
	select {
	case got := <-cutoffs:
		if got != want {
			t.Errorf("event cutoff = %q, want %q", got, want)
		}
	case <-time.After(time.Second):
		t.Fatal("no sweep event observed")
	}
}

func TestSweepFailureLeavesDataInPlace(t *testing.T) {
	repo := &sweepingReadingRepo{failDelete: true}
	s := newTestService(repo, time.Now())

	if err := s.Sweep(context.Background()); err == nil {
		t.Fatal("expected sweep error when delete fails")
	}
	if len(repo.deletedBefore) != 0 {
		t.Errorf("failed sweep must not record a delete, got %v", repo.deletedBefore)
	}
}
