// FilePath: internal/edge/sensors/sensors.go
package sensors

// Environment is one low-rate environmental sample
type Environment struct {
	Temperature float64
	Humidity    float64
	Lat         float64
	Lon         float64
	DoorOpen    bool
}

// Sampler reads the onboard sensors. A reading that cannot be taken is
// reported as NaN so the caller can skip that tick without publishing a
// partial record.
type Sampler interface {
	// SampleMotion returns instantaneous acceleration in g. Called at the
	// high-rate cadence; must be cheap.
	SampleMotion() float64
	// SampleEnvironment returns the low-rate environmental readings.
	SampleEnvironment() Environment
}
