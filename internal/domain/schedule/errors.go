package schedule

import "errors"

var (
	ErrScheduleNotFound = errors.New("shop schedule not found")
)
