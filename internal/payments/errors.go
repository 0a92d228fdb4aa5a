package payments

import "errors"

// Verification errors. The delivery is rejected before any order is touched.
var (
	ErrSignatureInvalid = errors.New("signature invalid")
	ErrMerchantMismatch = errors.New("merchant id mismatch")
	ErrMalformedPayload = errors.New("malformed payload")
)

// Reconciliation anomalies. The provider still gets a 2xx acknowledgement.
var (
	ErrOrderNotFound          = errors.New("order not found")
	ErrInvalidStateTransition = errors.New("invalid order state transition")
)

// ErrNotificationFailed is only ever logged.
var ErrNotificationFailed = errors.New("notification failed")

// IsVerificationError reports whether err must be answered with a non-2xx status
func IsVerificationError(err error) bool {
	return errors.Is(err, ErrSignatureInvalid) ||
		errors.Is(err, ErrMerchantMismatch) ||
		errors.Is(err, ErrMalformedPayload)
}

// IsAcknowledgedAnomaly reports whether err is absorbed with a 2xx acknowledgement
func IsAcknowledgedAnomaly(err error) bool {
	return errors.Is(err, ErrOrderNotFound) || errors.Is(err, ErrInvalidStateTransition)
}
