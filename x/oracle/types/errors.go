package types

import (
	"errors"

	sdkerrors "cosmossdk.io/errors"
)

// Oracle module sentinel errors
var (
	// Verification errors
	ErrInvalidKeyEncoding = sdkerrors.Register(ModuleName, 2, "invalid public key encoding")
	ErrInvalidSignature   = sdkerrors.Register(ModuleName, 3, "invalid signature")
	ErrMalformedMessage   = sdkerrors.Register(ModuleName, 4, "malformed price message")
	ErrNonceReused        = sdkerrors.Register(ModuleName, 5, "nonce has already been used")

	// Authorization errors
	ErrUnauthorized = sdkerrors.Register(ModuleName, 6, "admin badge required")

	// State errors
	ErrNotInstantiated     = sdkerrors.Register(ModuleName, 7, "oracle is not instantiated")
	ErrAlreadyInstantiated = sdkerrors.Register(ModuleName, 8, "oracle is already instantiated")
	ErrInvalidGenesis      = sdkerrors.Register(ModuleName, 9, "invalid genesis state")
)

// ErrorWithRecovery wraps an error with recovery suggestions
type ErrorWithRecovery struct {
	Err      error
	Recovery string
}

func (e *ErrorWithRecovery) Error() string {
	return e.Err.Error()
}

func (e *ErrorWithRecovery) Unwrap() error {
	return e.Err
}

// Cause lets errorsmod.ABCIInfo and registered Error.Is see the wrapped error.
func (e *ErrorWithRecovery) Cause() error {
	return e.Err
}

// RecoverySuggestions provides actionable recovery steps for each error type.
// None of the oracle errors is retryable as-is: the caller has to obtain a
// fresh, correctly signed message.
var RecoverySuggestions = map[error]string{
	ErrInvalidKeyEncoding:  "Public keys are 48-byte compressed BLS12-381 G1 points encoded as 96 hex characters. Check for a stray 0x prefix or a G2 key.",
	ErrInvalidSignature:    "Signature does not verify against the current oracle key. Re-sign the exact message bytes with the authorized key; the key may have been rotated.",
	ErrMalformedMessage:    "Message must be nonce|symbol|price|timestamp, batches joined with ','. Check field count, decimal nonce and non-negative price.",
	ErrNonceReused:         "This nonce has already been consumed. Request a freshly signed message with an unused nonce.",
	ErrUnauthorized:        "Only the holder of the oracle admin badge can rotate the public key.",
	ErrNotInstantiated:     "Instantiate the oracle with an initial public key (oracled init) before submitting prices.",
	ErrAlreadyInstantiated: "The oracle already has an authorized key. Use key rotation instead of a second instantiation.",
	ErrInvalidGenesis:      "Genesis must carry a valid public key (or none) and unique nonces.",
}

// WrapWithRecovery wraps an error with recovery suggestion
func WrapWithRecovery(err error, msg string, args ...interface{}) error {
	wrapped := sdkerrors.Wrapf(err, msg, args...)

	if suggestion, ok := RecoverySuggestions[err]; ok {
		return &ErrorWithRecovery{
			Err:      wrapped,
			Recovery: suggestion,
		}
	}

	return wrapped
}

// GetRecoverySuggestion returns the recovery suggestion for an error
func GetRecoverySuggestion(err error) string {
	for sentinel, suggestion := range RecoverySuggestions {
		if errors.Is(err, sentinel) {
			return suggestion
		}
	}

	return "No recovery suggestion available. Check error message for details."
}
