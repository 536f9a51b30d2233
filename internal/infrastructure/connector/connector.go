package connector

import (
	"encoding/json"
	"errors"
	"sort"

	"github.com/golang-jwt/jwt"
	"github.com/tdex-network/btc-wallet-adapter/internal/core/domain"
	"github.com/tdex-network/btc-wallet-adapter/internal/core/ports"
)

const (
	opConnect     = "connect"
	opSignPsbt    = "sign psbt"
	opSignMessage = "sign message"

	// connectMessage is shown by the extensions that support a custom message
	// in the account access prompt.
	connectMessage = "Connect your wallet to continue"
)

var (
	// ErrInvalidPsbtEncoding ...
	ErrInvalidPsbtEncoding = errors.New("psbt must be base64 encoded")
	// ErrInvalidProviderResponse ...
	ErrInvalidProviderResponse = errors.New("unexpected response from provider")
)

// NewConnectors returns one connector for every supported wallet, all
// looking up their provider through the given host.
func NewConnectors(host ports.ProviderHost) []ports.Connector {
	return []ports.Connector{
		NewUnisatConnector(host),
		NewXverseConnector(host),
		NewMagicEdenConnector(host),
	}
}

func notInstalled(wallet domain.WalletName, op string) error {
	return domain.NewWalletError(wallet, op, domain.ErrWalletNotInstalled, nil)
}

// connectError classifies an error returned by an extension during the
// account access negotiation.
func connectError(wallet domain.WalletName, err error) error {
	var werr *domain.WalletError
	if errors.As(err, &werr) {
		return err
	}

	kind := domain.ErrConnectionFailed
	switch {
	case errors.Is(err, ports.ErrProviderUnavailable):
		kind = domain.ErrWalletNotInstalled
	case ports.IsUserRejection(err):
		kind = domain.ErrUserCancelled
	}
	return domain.NewWalletError(wallet, opConnect, kind, err)
}

// signError classifies an error returned by an extension native sign call.
// A rejected signing prompt is a signing failure, the provider error is kept
// as cause.
func signError(wallet domain.WalletName, op string, err error) error {
	var werr *domain.WalletError
	if errors.As(err, &werr) {
		return err
	}

	kind := domain.ErrSigningFailed
	if errors.Is(err, ports.ErrProviderUnavailable) {
		kind = domain.ErrWalletNotInstalled
	}
	return domain.NewWalletError(wallet, op, kind, err)
}

// newWallet builds the canonical wallet out of the accounts returned by an
// extension. Accounts the domain refuses, like an empty address, make the
// connection fail.
func newWallet(args domain.WalletArgs) (*domain.Wallet, error) {
	w, err := domain.NewWallet(args)
	if err != nil {
		return nil, domain.NewWalletError(
			args.WalletName, opConnect, domain.ErrConnectionFailed, err,
		)
	}
	return w, nil
}

// rawAccount is the account format shared by sats-connect based extensions.
type rawAccount struct {
	Address     string `json:"address"`
	PublicKey   string `json:"publicKey"`
	Purpose     string `json:"purpose"`
	AddressType string `json:"addressType"`
	WalletType  string `json:"walletType"`
}

// sortAccounts moves the ordinals account first and the payment one second,
// preserving the order of the others.
func sortAccounts(accounts []rawAccount) []rawAccount {
	rank := func(purpose string) int {
		switch domain.AddressPurpose(purpose) {
		case domain.PurposeOrdinals:
			return 0
		case domain.PurposePayment:
			return 1
		default:
			return 2
		}
	}
	sorted := append([]rawAccount{}, accounts...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return rank(sorted[i].Purpose) < rank(sorted[j].Purpose)
	})
	return sorted
}

// mapAccounts assigns purposes positionally. Address and wallet types
// reported by the extension win over the provider defaults.
func mapAccounts(
	accounts []rawAccount, defaultAddressType string,
	defaultWalletType domain.WalletType,
) []domain.Address {
	addresses := make([]domain.Address, 0, len(accounts))
	for i, account := range accounts {
		purpose := domain.PurposePayment
		if i == 0 {
			purpose = domain.PurposeOrdinals
		}
		addressType := account.AddressType
		if addressType == "" {
			addressType = defaultAddressType
		}
		walletType := defaultWalletType
		switch account.WalletType {
		case "ledger", "keystone", string(domain.WalletTypeHardware):
			walletType = domain.WalletTypeHardware
		case string(domain.WalletTypeSoftware):
			walletType = domain.WalletTypeSoftware
		}

		addresses = append(addresses, domain.Address{
			Address:     account.Address,
			PublicKey:   account.PublicKey,
			Purpose:     purpose,
			AddressType: addressType,
			WalletType:  walletType,
		})
	}
	return addresses
}

// encodeUnsecuredToken encodes the payload as the claims of a JWT with the
// "none" algorithm, as expected by sats-connect v1 providers.
func encodeUnsecuredToken(payload interface{}) (string, error) {
	buf, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	claims := jwt.MapClaims{}
	if err := json.Unmarshal(buf, &claims); err != nil {
		return "", err
	}

	return jwt.NewWithClaims(jwt.SigningMethodNone, claims).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
}
