package calendar

import "errors"

var (
	ErrRegionNotFound = errors.New("region not found")
	ErrDayNotFound    = errors.New("production day not found")
)
