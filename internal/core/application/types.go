package application

import (
	"github.com/tdex-network/btc-wallet-adapter/internal/core/domain"
)

type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
)

// State is a snapshot of the connection state machine.
// Connected is true if and only if Wallet is not nil.
type State struct {
	Wallet    *domain.Wallet
	Status    Status
	Connected bool
}

func (s State) OrdinalsAddress() string {
	if s.Wallet == nil {
		return ""
	}
	return s.Wallet.OrdinalsAddress().Address
}

func (s State) PaymentAddress() string {
	if s.Wallet == nil {
		return ""
	}
	return s.Wallet.PaymentAddress().Address
}

func (s State) Addresses() []string {
	if s.Wallet == nil {
		return []string{}
	}
	return s.Wallet.AddressStrings()
}

// WalletInfo describes a supported wallet for a selection UI.
type WalletInfo struct {
	Name        domain.WalletName
	DisplayName string
	Detected    bool
}

// SignHandlers are optional lifecycle callbacks of a signing operation.
type SignHandlers struct {
	OnSuccess func()
	OnError   func(err error)
}

func (h *SignHandlers) success() {
	if h != nil && h.OnSuccess != nil {
		h.OnSuccess()
	}
}

func (h *SignHandlers) failure(err error) {
	if h != nil && h.OnError != nil {
		h.OnError(err)
	}
}

// ActivityListener is notified, synchronously and in registration order, of
// every settled transition of the wallet service.
type ActivityListener interface {
	OnActivity(activity domain.Activity) error
}

type ActivityListenerFunc func(activity domain.Activity) error

func (f ActivityListenerFunc) OnActivity(activity domain.Activity) error {
	return f(activity)
}
