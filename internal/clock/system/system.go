// Package system provides a real clock implementation.
package system

import "time"

// Clock implements menu.Clock using time.Now.
type Clock struct{}

// New creates a new Clock.
func New() *Clock {
	return &Clock{}
}

// Now returns the current time in UTC.
func (Clock) Now() time.Time {
	return time.Now().UTC()
}

// Today returns the current UTC date truncated to midnight. It is the
// anchor date that day offsets are computed relative to.
func (c Clock) Today() time.Time {
	return c.Now().Truncate(24 * time.Hour)
}
