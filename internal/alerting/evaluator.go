// FilePath: internal/alerting/evaluator.go
package alerting

import (
	"fmt"

	"github.com/coldroute/cargomon/internal/config"
	"github.com/coldroute/cargomon/internal/models"
)

// Evaluator applies threshold rules to canonical readings. It is stateless:
// the same reading and thresholds always produce the same reasons, in the
// same order. Device-originated shock alerts never pass through here; the
// device already applied its own threshold.
type Evaluator struct {
	thresholds config.ThresholdsConfig
}

func NewEvaluator(thresholds config.ThresholdsConfig) *Evaluator {
	return &Evaluator{thresholds: thresholds}
}

// Evaluate returns zero or more human-readable breach reasons. A reading
// triggers a threshold alert if and only if the list is non-empty.
func (e *Evaluator) Evaluate(reading *models.Reading) []string {
	var reasons []string

	if reading.Temperature > e.thresholds.TemperatureMax {
		reasons = append(reasons, fmt.Sprintf(
			"temperature %.2f exceeds threshold %.2f",
			reading.Temperature, e.thresholds.TemperatureMax))
	}
	if reading.ShockG > e.thresholds.ShockMax {
		reasons = append(reasons, fmt.Sprintf(
			"shock %.2fg exceeds threshold %.2fg",
			reading.ShockG, e.thresholds.ShockMax))
	}

	return reasons
}
