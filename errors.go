package caparoc

import (
	"errors"
	"fmt"
)

var (
	ErrPoolClosed = errors.New("caparoc pool is closed")
	ErrFactoryNil = errors.New("factory cannot be nil")

	// ErrTransport marks failures where a register request did not complete.
	ErrTransport = errors.New("transport request failed")
	// ErrValidation marks module/channel identifiers rejected against the
	// live topology, including an unreadable topology.
	ErrValidation = errors.New("validation failed")
	// ErrPolicy marks writes rejected because the target module only
	// supports manual configuration.
	ErrPolicy = errors.New("policy violation")
	// ErrVerification marks writes whose read-back never matched within the
	// retry bound. The register may hold either the old or the new value.
	ErrVerification = errors.New("write verification failed")
)

// TransportError wraps a failed register read or write. The layer does not
// distinguish transport failures any further: a short response and a broken
// connection look the same to callers.
type TransportError struct {
	Op   string
	Addr uint16
	Err  error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s at 0x%04X: %v", e.Op, e.Addr, e.Err)
}

func (e *TransportError) Is(target error) bool { return target == ErrTransport }

func (e *TransportError) Unwrap() error { return e.Err }

func transportErr(op string, addr uint16, err error) error {
	return &TransportError{Op: op, Addr: addr, Err: err}
}

// ValidationError reports a module or channel number outside the bounds
// freshly read from the device.
type ValidationError struct {
	Module  int
	Channel int // 0 when the module number itself was rejected
	Max     int
	Err     error // non-nil when the topology read failed
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		if e.Channel > 0 {
			return fmt.Sprintf("read channel count for module %d: %v", e.Module, e.Err)
		}
		return fmt.Sprintf("read connected module count: %v", e.Err)
	}
	if e.Channel > 0 {
		return fmt.Sprintf("invalid channel number %d for module %d: expected 1..%d", e.Channel, e.Module, e.Max)
	}
	return fmt.Sprintf("invalid module number %d: expected 1..%d (connected modules)", e.Module, e.Max)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

func (e *ValidationError) Unwrap() error { return e.Err }

// PolicyError reports a module whose nominal current can only be set via its
// rotary dials.
type PolicyError struct {
	Module      int
	ProductName string
}

func (e *PolicyError) Error() string {
	return fmt.Sprintf("module %d is %s: nominal current must be set via the rotary dials", e.Module, e.ProductName)
}

func (e *PolicyError) Is(target error) bool { return target == ErrPolicy }

// VerificationError reports a nominal-current write whose read-back never
// matched. The relock was still attempted; the device may be in either the
// old or the new state and should be re-read before manual recovery.
type VerificationError struct {
	Module   int
	Channel  int
	Want     uint16
	Attempts int
}

func (e *VerificationError) Error() string {
	return fmt.Sprintf("nominal current %d A on module %d channel %d not confirmed after %d attempts",
		e.Want, e.Module, e.Channel, e.Attempts)
}

func (e *VerificationError) Is(target error) bool { return target == ErrVerification }
