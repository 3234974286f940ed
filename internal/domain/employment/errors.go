package employment

import "errors"

var (
	ErrEmploymentNotFound = errors.New("employment not found")
	ErrShopNotFound       = errors.New("shop not found")
	ErrPositionNotFound   = errors.New("position not found")
	ErrNoActiveEmployment = errors.New("no active employment on the requested date")
)
