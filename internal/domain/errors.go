package domain

import "errors"

var (
	ErrNotFound     = errors.New("room not found")
	ErrUnauthorized = errors.New("not authorized to join this call")
	ErrSessionEnded = errors.New("call has ended")
	ErrDecode       = errors.New("invalid message format")
	ErrUnknownType  = errors.New("unknown message type")
	ErrRateLimited  = errors.New("rate limited")
)
