package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrWalletNotInstalled is returned when the targeted extension did not
	// register its entry point, or it disappeared in the meantime.
	ErrWalletNotInstalled = errors.New("wallet_not_installed")
	// ErrUserCancelled is returned when the user dismissed the extension prompt
	// or the extension returned no accounts.
	ErrUserCancelled = errors.New("user_cancelled")
	// ErrConnectionFailed ...
	ErrConnectionFailed = errors.New("connection_failed")
	// ErrWalletNotConnected is returned when attempting to sign without an
	// active wallet, or through a revoked one.
	ErrWalletNotConnected = errors.New("wallet_not_connected")
	// ErrSigningFailed ...
	ErrSigningFailed = errors.New("signing_failed")
	// ErrUnsupportedWallet ...
	ErrUnsupportedWallet = errors.New("unsupported_wallet")
	// ErrUnsupportedNetwork ...
	ErrUnsupportedNetwork = errors.New("unsupported_network")
	// ErrConnectionInProgress is returned by connect while another operation
	// is still loading.
	ErrConnectionInProgress = errors.New("connection_in_progress")
	// ErrSigningInProgress is returned by sign calls while another operation
	// is still loading.
	ErrSigningInProgress = errors.New("signing_in_progress")
	// ErrInvalidRequest ...
	ErrInvalidRequest = errors.New("invalid_request")

	errorKinds = []error{
		ErrWalletNotInstalled,
		ErrUserCancelled,
		ErrConnectionFailed,
		ErrWalletNotConnected,
		ErrSigningFailed,
		ErrUnsupportedWallet,
		ErrUnsupportedNetwork,
		ErrConnectionInProgress,
		ErrSigningInProgress,
		ErrInvalidRequest,
	}
)

// WalletError is the error returned by connectors and by the wallet service.
// Kind is one of the sentinel errors of this package and is matched by
// errors.Is, while Err holds the underlying cause, if any.
type WalletError struct {
	Wallet WalletName
	Op     string
	Kind   error
	Err    error
}

// NewWalletError returns a *WalletError for the given kind and cause.
func NewWalletError(
	wallet WalletName, op string, kind, cause error,
) *WalletError {
	return &WalletError{
		Wallet: wallet,
		Op:     op,
		Kind:   kind,
		Err:    cause,
	}
}

func (e *WalletError) Error() string {
	msg := e.Kind.Error()
	if e.Op != "" {
		msg = fmt.Sprintf("%s: %s", e.Op, msg)
	}
	if e.Wallet != "" {
		msg = fmt.Sprintf("%s %s", e.Wallet, msg)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %s", msg, e.Err)
	}
	return msg
}

func (e *WalletError) Is(target error) bool {
	return target == e.Kind
}

func (e *WalletError) Unwrap() error {
	return e.Err
}

// KindOf returns the kind code of the given error, ie. "user_cancelled", or
// an empty string if err does not carry any of the known kinds.
func KindOf(err error) string {
	if err == nil {
		return ""
	}
	var werr *WalletError
	if errors.As(err, &werr) && werr.Kind != nil {
		return werr.Kind.Error()
	}
	for _, kind := range errorKinds {
		if errors.Is(err, kind) {
			return kind.Error()
		}
	}
	return ""
}
