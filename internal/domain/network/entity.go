package network

import (
	"time"
)

// Network is a tenant. Policy knobs live in the settings_values JSON column
// and are decoded once at load into Settings (see settings.go).
type Network struct {
	ID        string
	Name      string
	Code      *string
	Settings  Settings
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Clock is minutes from midnight, local to the shop.
type Clock int

// ClockOf converts a time of day into a Clock.
func ClockOf(hour, minute int) Clock {
	return Clock(hour*60 + minute)
}

// At anchors the clock on the calendar day of d in d's location.
func (c Clock) At(d time.Time) time.Time {
	return time.Date(d.Year(), d.Month(), d.Day(), int(c)/60, int(c)%60, 0, 0, d.Location())
}

func (c Clock) String() string {
	h := int(c) / 60
	m := int(c) % 60
	return time.Date(0, 1, 1, h, m, 0, 0, time.UTC).Format("15:04")
}
