// Package clock abstracts time for components that stamp events, so tests
// can drive time explicitly.
package clock

import "time"

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

// RealClock is the production Clock backed by time.Now.
type RealClock struct{}

// Now returns the current wall-clock time.
func (RealClock) Now() time.Time { return time.Now() }

// MockClock is a manually advanced Clock for tests.
type MockClock struct {
	CurrentTime time.Time
}

// Now returns the mock's current time.
func (c *MockClock) Now() time.Time { return c.CurrentTime }

// Advance moves the mock clock forward by d.
func (c *MockClock) Advance(d time.Duration) {
	c.CurrentTime = c.CurrentTime.Add(d)
}
