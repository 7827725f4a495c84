package authz

import (
	"errors"
	"fmt"
)

// ErrConfig tags deployment defects: cyclic role graphs, grants that
// reference unknown roles or resources, evaluation against a resource no
// module registered. Callers must never fold these into a normal deny.
var ErrConfig = errors.New("authz: configuration error")

// ConfigError carries the defect detail. It unwraps to ErrConfig so callers
// can match with errors.Is without depending on the concrete type.
type ConfigError struct {
	Detail string
}

func (e *ConfigError) Error() string {
	return "authz: configuration error: " + e.Detail
}

func (e *ConfigError) Unwrap() error {
	return ErrConfig
}

func configErrorf(format string, args ...any) error {
	return &ConfigError{Detail: fmt.Sprintf(format, args...)}
}

// ErrIdentityUnavailable tags an exhausted identity resolution: the session
// store kept failing past the retry bound. Distinct from anonymous; the
// request must abort rather than proceed with an ambiguous identity.
var ErrIdentityUnavailable = errors.New("authz: identity unavailable")

// IdentityError reports how resolution failed and after how many attempts.
type IdentityError struct {
	Attempts int
	Err      error
}

func (e *IdentityError) Error() string {
	return fmt.Sprintf("authz: identity resolution failed after %d attempts: %v", e.Attempts, e.Err)
}

func (e *IdentityError) Unwrap() error {
	return ErrIdentityUnavailable
}
