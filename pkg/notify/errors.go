package notify

import "errors"

// ErrInvalidArgument marks a malformed trigger or registration. It is the
// caller's fault and is surfaced before any side effect happens.
var ErrInvalidArgument = errors.New("invalid argument")

// ErrInternal marks an orchestration failure (e.g. the subscription list could
// not be read). No partial summary accompanies it.
var ErrInternal = errors.New("internal")

// SendError is returned by push senders with the delivery failure already
// classified. Classification happens once, at the provider boundary.
type SendError struct {
	Reason Reason
	Err    error
}

func (e *SendError) Error() string {
	return string(e.Reason) + ": " + e.Err.Error()
}

func (e *SendError) Unwrap() error { return e.Err }

// ClassifyReason extracts the delivery reason from a sender error. Anything
// a sender did not classify itself counts as a provider error.
func ClassifyReason(err error) Reason {
	var se *SendError
	if errors.As(err, &se) {
		return se.Reason
	}
	return ReasonProviderError
}
