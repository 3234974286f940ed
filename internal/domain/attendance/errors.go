package attendance

import "errors"

var (
	ErrNoEmployment     = errors.New("no active employment matches the tick")
	ErrShiftTooLong     = errors.New("tick exceeds the maximum shift length")
	ErrRecordNotFound   = errors.New("attendance record not found")
)
