package domain

import (
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/chaincfg"
)

type WalletName string

const (
	WalletUnisat    WalletName = "unisat"
	WalletXverse    WalletName = "xverse"
	WalletMagicEden WalletName = "magic-eden"
)

// SupportedWallets lists the wallets in the order they are presented to the
// user.
var SupportedWallets = []WalletName{
	WalletUnisat,
	WalletXverse,
	WalletMagicEden,
}

var walletDisplayNames = map[WalletName]string{
	WalletUnisat:    "UniSat",
	WalletXverse:    "Xverse",
	WalletMagicEden: "Magic Eden",
}

func (w WalletName) IsValid() bool {
	_, ok := walletDisplayNames[w]
	return ok
}

func (w WalletName) DisplayName() string {
	if name, ok := walletDisplayNames[w]; ok {
		return name
	}
	return string(w)
}

func (w WalletName) String() string {
	return string(w)
}

// ParseWalletName is case insensitive.
func ParseWalletName(name string) (WalletName, error) {
	w := WalletName(strings.ToLower(strings.TrimSpace(name)))
	if !w.IsValid() {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedWallet, name)
	}
	return w, nil
}

type Network string

const (
	NetworkMainnet Network = "mainnet"
	NetworkTestnet Network = "testnet"
)

func (n Network) IsValid() bool {
	return n == NetworkMainnet || n == NetworkTestnet
}

func (n Network) String() string {
	return string(n)
}

// Params returns the btcd chain parameters of the network.
func (n Network) Params() *chaincfg.Params {
	if n == NetworkMainnet {
		return &chaincfg.MainNetParams
	}
	return &chaincfg.TestNet3Params
}

// ParseNetwork accepts also the btcd name of the test network (testnet3).
func ParseNetwork(name string) (Network, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case NetworkMainnet.String(), chaincfg.MainNetParams.Name:
		return NetworkMainnet, nil
	case NetworkTestnet.String(), chaincfg.TestNet3Params.Name:
		return NetworkTestnet, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedNetwork, name)
	}
}

type AddressPurpose string

const (
	PurposeOrdinals AddressPurpose = "ordinals"
	PurposePayment  AddressPurpose = "payment"
)

type WalletType string

const (
	WalletTypeSoftware WalletType = "software"
	WalletTypeHardware WalletType = "hardware"
)

// Address types as reported by extensions.
const (
	AddressTypeP2TR   = "p2tr"
	AddressTypeP2WPKH = "p2wpkh"
	AddressTypeP2SH   = "p2sh"
)

type MessageScheme string

const (
	SchemeECDSA        MessageScheme = "ecdsa"
	SchemeBIP322Simple MessageScheme = "bip322-simple"
)

func (s MessageScheme) IsValid() bool {
	return s == SchemeECDSA || s == SchemeBIP322Simple
}

// OrDefault returns ECDSA for the zero value.
func (s MessageScheme) OrDefault() MessageScheme {
	if s == "" {
		return SchemeECDSA
	}
	return s
}
