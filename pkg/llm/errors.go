package llm

import "fmt"

// TimeoutError reports that the generation call exceeded its deadline.
type TimeoutError struct {
	Err error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("generation timed out: %v", e.Err)
}

func (e *TimeoutError) Unwrap() error { return e.Err }

// TransportError reports a network or HTTP-level failure.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("generation transport failure: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// QuotaError reports that the provider rejected the call for quota/billing
// reasons (HTTP 429/402).
type QuotaError struct {
	StatusCode int
}

func (e *QuotaError) Error() string {
	return fmt.Sprintf("generation quota exceeded (status %d)", e.StatusCode)
}
