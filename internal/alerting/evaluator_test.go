// FilePath: internal/alerting/evaluator_test.go
package alerting

import (
	"strings"
	"testing"

	"github.com/coldroute/cargomon/internal/config"
	"github.com/coldroute/cargomon/internal/models"
)

func newTestEvaluator() *Evaluator {
	return NewEvaluator(config.ThresholdsConfig{
		TemperatureMax: 8.0,
		ShockMax:       2.5,
	})
}

func TestEvaluateWithinThresholds(t *testing.T) {
	e := newTestEvaluator()

	cases := []models.Reading{
		{DeviceID: "D1", Temperature: 4.0, ShockG: 0.1},
		{DeviceID: "D1", Temperature: 8.0, ShockG: 2.5}, // exactly at threshold is fine
		{DeviceID: "D1", Temperature: -20.0, ShockG: 0},
	}

	for _, reading := range cases {
		if reasons := e.Evaluate(&reading); len(reasons) != 0 {
			t.Errorf("Evaluate(temp=%v shock=%v) = %v, want empty",
				reading.Temperature, reading.ShockG, reasons)
		}
	}
}

func TestEvaluateTemperatureBreach(t *testing.T) {
	e := newTestEvaluator()

	reasons := e.Evaluate(&models.Reading{DeviceID: "D1", Temperature: 9.0, ShockG: 0.1})
	if len(reasons) != 1 {
		t.Fatalf("expected exactly one reason, got %v", reasons)
	}
	if !strings.Contains(reasons[0], "9.00") || !strings.Contains(reasons[0], "8.00") {
		t.Errorf("reason %q should name observed value and threshold", reasons[0])
	}
	if !strings.Contains(reasons[0], "temperature") {
		t.Errorf("reason %q should name the metric", reasons[0])
	}
}

func TestEvaluateShockBreach(t *testing.T) {
	e := newTestEvaluator()

	reasons := e.Evaluate(&models.Reading{DeviceID: "D1", Temperature: 4.0, ShockG: 3.1})
	if len(reasons) != 1 {
		t.Fatalf("expected exactly one reason, got %v", reasons)
	}
	if !strings.Contains(reasons[0], "shock") || !strings.Contains(reasons[0], "3.10") {
		t.Errorf("unexpected shock reason: %q", reasons[0])
	}
}

func TestEvaluateBothBreachedKeepsOrder(t *testing.T) {
	e := newTestEvaluator()

	reasons := e.Evaluate(&models.Reading{DeviceID: "D1", Temperature: 12.0, ShockG: 5.0})
	if len(reasons) != 2 {
		t.Fatalf("expected two reasons, got %v", reasons)
	}
	if !strings.Contains(reasons[0], "temperature") || !strings.Contains(reasons[1], "shock") {
		t.Errorf("reasons out of order: %v", reasons)
	}
}
