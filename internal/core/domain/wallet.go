package domain

import (
	"context"
	"errors"
	"sync/atomic"
)

var (
	// ErrMissingOrdinalsAddress ...
	ErrMissingOrdinalsAddress = errors.New("missing ordinals address")
	// ErrMissingSigner is returned when building a wallet without its signing
	// capabilities.
	ErrMissingSigner = errors.New("missing signing capabilities")
)

// Address is a single account exposed by an extension. It's a value type and
// must not be modified once built.
type Address struct {
	Address     string
	PublicKey   string
	Purpose     AddressPurpose
	AddressType string
	WalletType  WalletType
}

type InputToSign struct {
	Address        string
	SigningIndexes []int
	SigHash        *int
}

// UnsignedPsbt is forwarded as is to the extension. Psbt is base64 encoded.
type UnsignedPsbt struct {
	Psbt         string
	InputsToSign []InputToSign
}

func (u UnsignedPsbt) Validate() error {
	if u.Psbt == "" {
		return NewWalletError("", "", ErrInvalidRequest, errors.New("missing psbt"))
	}
	return nil
}

// PsbtSigner and MessageSigner are the capabilities a connector binds to the
// extension session it opened.
type PsbtSigner func(ctx context.Context, req UnsignedPsbt) (string, error)
type MessageSigner func(
	ctx context.Context, msg string, scheme MessageScheme,
) (string, error)

type WalletArgs struct {
	WalletName  WalletName
	Network     Network
	Addresses   []Address
	SignPsbt    PsbtSigner
	SignMessage MessageSigner
}

func (a WalletArgs) validate() error {
	if !a.WalletName.IsValid() {
		return NewWalletError(a.WalletName, "", ErrUnsupportedWallet, nil)
	}
	if !a.Network.IsValid() {
		return NewWalletError(a.WalletName, "", ErrUnsupportedNetwork, nil)
	}
	if len(a.Addresses) <= 0 || a.Addresses[0].Address == "" {
		return ErrMissingOrdinalsAddress
	}
	if a.SignPsbt == nil || a.SignMessage == nil {
		return ErrMissingSigner
	}
	return nil
}

// Wallet is the canonical, provider agnostic, representation of a connected
// extension. It's never mutated after creation, apart from being revoked.
type Wallet struct {
	walletName      WalletName
	network         Network
	ordinalsAddress Address
	paymentAddress  Address
	addresses       []Address

	signPsbt    PsbtSigner
	signMessage MessageSigner
	revoked     atomic.Bool
}

// NewWallet maps the addresses positionally: the first one is the ordinals
// address, the second one, if any, is the payment address. The payment
// address defaults to the ordinals one.
func NewWallet(args WalletArgs) (*Wallet, error) {
	if err := args.validate(); err != nil {
		return nil, err
	}

	addresses := make([]Address, len(args.Addresses))
	copy(addresses, args.Addresses)

	paymentAddress := addresses[0]
	if len(addresses) > 1 {
		paymentAddress = addresses[1]
	}

	return &Wallet{
		walletName:      args.WalletName,
		network:         args.Network,
		ordinalsAddress: addresses[0],
		paymentAddress:  paymentAddress,
		addresses:       addresses,
		signPsbt:        args.SignPsbt,
		signMessage:     args.SignMessage,
	}, nil
}

func (w *Wallet) WalletName() WalletName {
	return w.walletName
}

func (w *Wallet) Network() Network {
	return w.network
}

// OrdinalsAddress is also known as the rune address.
func (w *Wallet) OrdinalsAddress() Address {
	return w.ordinalsAddress
}

func (w *Wallet) PaymentAddress() Address {
	return w.paymentAddress
}

func (w *Wallet) Addresses() []Address {
	addresses := make([]Address, len(w.addresses))
	copy(addresses, w.addresses)
	return addresses
}

// AddressStrings returns the flattened list of addresses.
func (w *Wallet) AddressStrings() []string {
	addresses := make([]string, 0, len(w.addresses))
	for _, addr := range w.addresses {
		addresses = append(addresses, addr.Address)
	}
	return addresses
}

// Revoke invalidates the signing capabilities of the wallet. It's idempotent.
func (w *Wallet) Revoke() {
	w.revoked.Store(true)
}

func (w *Wallet) IsRevoked() bool {
	return w.revoked.Load()
}

func (w *Wallet) SignPsbt(ctx context.Context, req UnsignedPsbt) (string, error) {
	if w.IsRevoked() {
		return "", NewWalletError(w.walletName, "sign psbt", ErrWalletNotConnected, nil)
	}
	if err := req.Validate(); err != nil {
		return "", err
	}
	return w.signPsbt(ctx, req)
}

func (w *Wallet) SignMessage(
	ctx context.Context, msg string, scheme MessageScheme,
) (string, error) {
	if w.IsRevoked() {
		return "", NewWalletError(
			w.walletName, "sign message", ErrWalletNotConnected, nil,
		)
	}
	scheme = scheme.OrDefault()
	if !scheme.IsValid() {
		return "", NewWalletError(
			w.walletName, "sign message", ErrInvalidRequest,
			errors.New("unknown message scheme "+string(scheme)),
		)
	}
	return w.signMessage(ctx, msg, scheme)
}
