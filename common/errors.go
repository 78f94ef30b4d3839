package common

import "errors"

// Error taxonomy. Every failure surfaced by the SDK wraps exactly one of
// these sentinels, so callers can classify with errors.Is. None of them is
// retried internally; retry policy belongs to the caller.
var (
	// ErrConfig missing or inconsistent configuration detected before login
	ErrConfig = errors.New("config error")
	// ErrValidation caller-supplied arguments failed preconditions
	ErrValidation = errors.New("validation error")
	// ErrSession operation attempted before authentication, or login failed
	// to obtain a session token
	ErrSession = errors.New("session error")
	// ErrTransport network or TLS failure at the transport boundary
	ErrTransport = errors.New("transport error")
	// ErrProtocol response could not be transcoded, or the expected response
	// shape was absent
	ErrProtocol = errors.New("protocol error")
)
