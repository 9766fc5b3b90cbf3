package stats

import "errors"

// ErrContractViolation marks a programmer error: calling a locked operation
// without holding the registry lock, registering an out-of-range counter
// kind, mixing dynamic and static registrations on the same key, or
// unregistering a handle that doesn't match the cluster it's unregistered
// from. These are assertion-class failures, not runtime conditions — a
// caller is never expected to recover from one and keep going, only to
// crash loudly during development.
var ErrContractViolation = errors.New("stats: contract violation")

// ErrShutdown is returned by a publish-and-prune pass that starts after the
// registry has been closed. Registration calls do not check for Close: after
// Close they operate on the registry's fresh, empty cluster map.
var ErrShutdown = errors.New("stats: registry is shut down")

// violate panics with an error wrapping ErrContractViolation. Contract
// violations are not returned because the contract itself says they are
// fatal — a caller cannot usefully inspect and continue past one.
func violate(msg string) {
	panic(&contractViolation{msg: msg})
}

type contractViolation struct {
	msg string
}

func (e *contractViolation) Error() string {
	return e.msg + ": " + ErrContractViolation.Error()
}

func (e *contractViolation) Unwrap() error {
	return ErrContractViolation
}
