package network

import "errors"

var (
	ErrNetworkNotFound = errors.New("network not found")
	ErrSawhNotFound    = errors.New("no SAWH rule matches the shop and position")
)
