package spawn

// Cadence remembers where a category last spawned and decides whether enough
// distance has been travelled for another spawn. Travel decreases the
// coordinate, so distance travelled is last - center.
type Cadence struct {
	spacing float64
	last    float64
}

// NewCadence creates a tracker with the given spacing and initial marker.
func NewCadence(spacing, initial float64) *Cadence {
	return &Cadence{spacing: spacing, last: initial}
}

// Due reports whether a spawn centred at center is permitted.
func (c *Cadence) Due(center float64) bool {
	return c.last-center >= c.spacing
}

// Mark records a spawn at center
func (c *Cadence) Mark(center float64) {
	c.last = center
}

// Last returns the last recorded spawn coordinate
func (c *Cadence) Last() float64 {
	return c.last
}
