package cloud

import (
	"errors"
)

var (
	// ErrUnauthorized is returned when the cloud API rejects the access
	// token (HTTP 401/403). The caller is expected to trigger
	// reauthentication; the client never retries on its own.
	ErrUnauthorized = errors.New("cloud: unauthorized")

	// ErrAPI is returned for any other remote failure: transport errors,
	// 5xx responses and malformed response bodies.
	ErrAPI = errors.New("cloud: api error")
)
