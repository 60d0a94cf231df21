package domain

import "fmt"

// ConnectorError is a transport, auth or rate-limit failure from a remote
// provider. In the audit path it is captured per source; in the ingestion
// path it aborts the current record only.
type ConnectorError struct {
	Source string
	Err    error
}

func (e *ConnectorError) Error() string {
	return fmt.Sprintf("connector %s: %v", e.Source, e.Err)
}

func (e *ConnectorError) Unwrap() error { return e.Err }

// NormalizationError reports a required field missing or malformed in a
// provider payload. The offending record is skipped, siblings continue.
type NormalizationError struct {
	Entity string
	Field  string
}

func (e *NormalizationError) Error() string {
	return fmt.Sprintf("normalize %s: missing or invalid field %q", e.Entity, e.Field)
}

// StoreError wraps a persistence failure. It halts the current record's
// pipeline stage but never crashes the process.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// DeliveryError is a failed outbound call: non-2xx, timeout or transport
// failure. Code is 0 for transport-level failures.
type DeliveryError struct {
	EventType string
	Code      int
	Err       error
}

func (e *DeliveryError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("deliver %s: %v", e.EventType, e.Err)
	}
	return fmt.Sprintf("deliver %s: status %d", e.EventType, e.Code)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

// OrchestrationError is a fault in the audit driver itself, as opposed to a
// single source failing. It is the only error kind that flips an audit to
// failed.
type OrchestrationError struct {
	Phase string
	Err   error
}

func (e *OrchestrationError) Error() string {
	return fmt.Sprintf("audit %s: %v", e.Phase, e.Err)
}

func (e *OrchestrationError) Unwrap() error { return e.Err }
