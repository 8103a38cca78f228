package domain

import "errors"

var (
	// Raised by upstream calls when the provider rejects the credential (HTTP 401 equivalent)
	ErrUnauthorized = errors.New("unauthorized")
	// The upstream call failed (network error, unexpected status, malformed response)
	ErrUpstreamFailure = errors.New("upstream failure")
	// The cookie/crumb handshake failed
	ErrAcquisitionFailure = errors.New("credential acquisition failed")
	// The upstream is believed to be intermittently unavailable. The call may be retried later.
	ErrTemporarilyUnavailable = errors.New("temporarily unavailable")
	// The upstream has no data for the requested key. Resolvers leave the key out of their result.
	ErrNotFound = errors.New("not found")

	ErrInvalidSymbol   = errors.New("invalid symbol")
	ErrInvalidArgument = errors.New("invalid argument")
)
