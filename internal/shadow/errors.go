package shadow

import "errors"

// Sentinel errors for malformed-trace conditions. All are fatal contract
// violations of the trace: the caller (internal/trace) wraps them with
// the offending line and treats them as fatal, never retries.
var (
	ErrUnknownCref     = errors.New("shadow: unknown or removed cref")
	ErrUnknownUnit     = errors.New("shadow: no learned unit registered")
	ErrLearnedMismatch = errors.New("shadow: finalized clause does not match the declared literals")
)
