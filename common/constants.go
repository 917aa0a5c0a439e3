package common

const (
	BaseWidth  = 800
	BaseHeight = 600

	// DefaultZoom is the camera zoom in pixels per meter.
	DefaultZoom = 32.0

	// EarthGravity is the downward acceleration in m/s².
	EarthGravity = -9.81

	TicksPerSecond = 60
	// MaxFrameDelta caps the dt handed to a single step after a stall.
	MaxFrameDelta = 2.0 / TicksPerSecond
)
