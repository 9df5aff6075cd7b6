package pipeline

import "errors"

// ErrNotReady is returned by LiveReference before the first publish.
var ErrNotReady = errors.New("no artifact published yet")

// tenantNotFoundError signals an unknown tenant id for 404 mapping.
type tenantNotFoundError struct{ id string }

func (e tenantNotFoundError) Error() string { return "tenant not found: " + e.id }

func ErrTenantNotFound(id string) error { return tenantNotFoundError{id: id} }

// IsTenantNotFound reports whether the error indicates an unknown tenant id.
func IsTenantNotFound(err error) bool {
	var e tenantNotFoundError
	return errors.As(err, &e)
}

// noSourceError marks a render skipped because the tenant has no active
// document. It is not a failure: the live slot is simply left as-is.
type noSourceError struct{ id string }

func (e noSourceError) Error() string { return "no source document for tenant: " + e.id }

func ErrNoSource(id string) error { return noSourceError{id: id} }

// IsNoSource reports whether the error indicates a missing source document.
func IsNoSource(err error) bool {
	var e noSourceError
	return errors.As(err, &e)
}

// rasterFailedError wraps a rasterizer failure (timeout, crash, bad input).
type rasterFailedError struct{ err error }

func (e rasterFailedError) Error() string { return "rasterization failed: " + e.err.Error() }
func (e rasterFailedError) Unwrap() error { return e.err }

// IsRasterFailed reports whether the error came from the rasterizer.
func IsRasterFailed(err error) bool {
	var e rasterFailedError
	return errors.As(err, &e)
}

// publishFailedError wraps a filesystem failure while moving the artifact
// into its slot. The live pointer is never flipped when this occurs.
type publishFailedError struct{ err error }

func (e publishFailedError) Error() string { return "publish failed: " + e.err.Error() }
func (e publishFailedError) Unwrap() error { return e.err }

// IsPublishFailed reports whether the error occurred during publish.
func IsPublishFailed(err error) bool {
	var e publishFailedError
	return errors.As(err, &e)
}
