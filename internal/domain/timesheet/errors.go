package timesheet

import "errors"

var (
	ErrUnknownDivider = errors.New("unknown timesheet divider strategy")
)
