package httpinterface

import (
	"context"
	"errors"
	"net/http"

	"github.com/tdex-network/btc-wallet-adapter/internal/core/domain"
)

var (
	// ErrMalformedBody ...
	ErrMalformedBody = errors.New("malformed request body")
	// ErrBridgeDisabled ...
	ErrBridgeDisabled = errors.New("bridge is not enabled")
	// ErrUnauthorized ...
	ErrUnauthorized = errors.New("missing or invalid pairing token")
)

type kindStatus struct {
	kind   error
	status int
}

// statusByKind is matched in order, the first kind found in the error chain
// wins.
var statusByKind = []kindStatus{
	{ErrUnauthorized, http.StatusUnauthorized},
	{ErrBridgeDisabled, http.StatusNotFound},
	{ErrMalformedBody, http.StatusBadRequest},
	{domain.ErrInvalidRequest, http.StatusBadRequest},
	{domain.ErrUnsupportedWallet, http.StatusBadRequest},
	{domain.ErrUnsupportedNetwork, http.StatusBadRequest},
	{domain.ErrActivityNotFound, http.StatusNotFound},
	{domain.ErrWalletNotConnected, http.StatusConflict},
	{domain.ErrConnectionInProgress, http.StatusConflict},
	{domain.ErrSigningInProgress, http.StatusConflict},
	{domain.ErrUserCancelled, http.StatusForbidden},
	{domain.ErrWalletNotInstalled, http.StatusServiceUnavailable},
	{domain.ErrConnectionFailed, http.StatusBadGateway},
	{domain.ErrSigningFailed, http.StatusBadGateway},
}

// statusOf maps an error to the status code of the response. Timeouts of
// the extension are reported as gateway timeouts whatever their kind,
// otherwise the kind of the outermost wallet error decides.
func statusOf(err error) int {
	if errors.Is(err, context.DeadlineExceeded) {
		return http.StatusGatewayTimeout
	}

	var werr *domain.WalletError
	if errors.As(err, &werr) {
		if status, ok := lookupStatus(werr.Kind); ok {
			return status
		}
	}
	if status, ok := lookupStatus(err); ok {
		return status
	}
	return http.StatusInternalServerError
}

func lookupStatus(err error) (int, bool) {
	if err == nil {
		return 0, false
	}
	for _, s := range statusByKind {
		if errors.Is(err, s.kind) {
			return s.status, true
		}
	}
	return 0, false
}
