// FilePath: internal/edge/sensors/sensors.simulated.go
package sensors

import (
	"math/rand"
)

// Simulated produces plausible reefer-container readings for bench runs:
// temperature random-walks around a cold-chain setpoint, position drifts
// around a fixed origin, and shocks spike rarely.
type Simulated struct {
	rng         *rand.Rand
	temperature float64
	humidity    float64
	lat         float64
	lon         float64
	doorOpen    bool
	shockChance float64
}

func NewSimulated(seed int64) *Simulated {
	return &Simulated{
		rng:         rand.New(rand.NewSource(seed)),
		temperature: 4.2,
		humidity:    60.0,
		lat:         1.3521,
		lon:         103.8198,
		shockChance: 0.0005,
	}
}

func (s *Simulated) SampleMotion() float64 {
	if s.rng.Float64() < s.shockChance {
		return 2.5 + s.rng.Float64()*5.0
	}
	return s.rng.Float64() * 0.4
}

func (s *Simulated) SampleEnvironment() Environment {
	s.temperature += s.rng.Float64()*0.4 - 0.2
	s.humidity += s.rng.Float64()*2.0 - 1.0
	s.lat += s.rng.Float64()*0.002 - 0.001
	s.lon += s.rng.Float64()*0.002 - 0.001
	if s.rng.Float64() < 0.01 {
		s.doorOpen = !s.doorOpen
	}

	return Environment{
		Temperature: s.temperature,
		Humidity:    s.humidity,
		Lat:         s.lat,
		Lon:         s.lon,
		DoorOpen:    s.doorOpen,
	}
}
