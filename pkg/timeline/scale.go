package timeline

// Scale converts between pixel space and the time domain. It is the only
// place pixel arithmetic happens; the gesture controller and layout engine
// stay in seconds.
type Scale struct {
	// PixelsPerSecond is the zoom level of the timeline view.
	PixelsPerSecond float64
}

// Seconds converts a pixel delta to seconds.
func (s Scale) Seconds(pixels float64) float64 {
	if s.PixelsPerSecond <= 0 {
		return 0
	}
	return pixels / s.PixelsPerSecond
}

// Pixels converts seconds to a pixel offset.
func (s Scale) Pixels(seconds float64) float64 {
	return seconds * s.PixelsPerSecond
}
