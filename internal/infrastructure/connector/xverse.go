package connector

import (
	"context"
	"encoding/json"
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/tdex-network/btc-wallet-adapter/internal/core/domain"
	"github.com/tdex-network/btc-wallet-adapter/internal/core/ports"
)

// sats-connect RPC methods.
const (
	xverseMethodGetAccounts = "getAccounts"
	xverseMethodSignPsbt    = "signPsbt"
	xverseMethodSignMessage = "signMessage"

	xverseProtocolECDSA  = "ECDSA"
	xverseProtocolBIP322 = "BIP322"
)

type xverseGetAccountsParams struct {
	Purposes []domain.AddressPurpose `json:"purposes"`
	Message  string                  `json:"message,omitempty"`
}

type xverseSignPsbtParams struct {
	Psbt       string           `json:"psbt"`
	SignInputs map[string][]int `json:"signInputs,omitempty"`
	// Broadcast is always false, the signed psbt goes back to the caller.
	Broadcast bool `json:"broadcast"`
}

type xverseSignPsbtResult struct {
	Psbt string `json:"psbt"`
	Txid string `json:"txid,omitempty"`
}

type xverseSignMessageParams struct {
	Address  string `json:"address"`
	Message  string `json:"message"`
	Protocol string `json:"protocol"`
}

type xverseSignMessageResult struct {
	Signature   string `json:"signature"`
	MessageHash string `json:"messageHash"`
	Address     string `json:"address"`
}

type xverseConnector struct {
	lookup func() ports.XverseProvider
}

// NewXverseConnector returns a connector for the Xverse extension, that is
// driven through its sats-connect JSON-RPC BitcoinProvider.
func NewXverseConnector(host ports.ProviderHost) ports.Connector {
	lookup := func() ports.XverseProvider { return nil }
	if host != nil {
		lookup = host.Xverse
	}
	return &xverseConnector{lookup}
}

func (c *xverseConnector) Name() domain.WalletName {
	return domain.WalletXverse
}

func (c *xverseConnector) Installed() bool {
	return c.lookup() != nil
}

func (c *xverseConnector) Connect(
	ctx context.Context, network domain.Network,
) (*domain.Wallet, error) {
	provider := c.lookup()
	if provider == nil {
		return nil, notInstalled(c.Name(), opConnect)
	}

	res, err := provider.Request(ctx, xverseMethodGetAccounts, xverseGetAccountsParams{
		Purposes: []domain.AddressPurpose{
			domain.PurposeOrdinals, domain.PurposePayment,
		},
		Message: connectMessage,
	})
	if err != nil {
		return nil, connectError(c.Name(), err)
	}

	var accounts []rawAccount
	if err := json.Unmarshal(res, &accounts); err != nil {
		return nil, domain.NewWalletError(
			c.Name(), opConnect, domain.ErrConnectionFailed,
			fmt.Errorf("%w: %s", ErrInvalidProviderResponse, err),
		)
	}
	if len(accounts) <= 0 {
		return nil, domain.NewWalletError(
			c.Name(), opConnect, domain.ErrUserCancelled, nil,
		)
	}

	addresses := mapAccounts(
		sortAccounts(accounts), domain.AddressTypeP2TR, domain.WalletTypeSoftware,
	)

	log.Debugf("xverse: got %d account(s) on %s", len(addresses), network)

	session := &xverseSession{xverseConnector: c}
	w, err := newWallet(domain.WalletArgs{
		WalletName:  c.Name(),
		Network:     network,
		Addresses:   addresses,
		SignPsbt:    session.signPsbt,
		SignMessage: session.signMessage,
	})
	if err != nil {
		return nil, err
	}
	session.signingAddress = w.PaymentAddress().Address
	return w, nil
}

// xverseSession binds the signing calls to the address used for signing
// messages.
type xverseSession struct {
	*xverseConnector
	signingAddress string
}

func (s *xverseSession) signPsbt(
	ctx context.Context, req domain.UnsignedPsbt,
) (string, error) {
	provider := s.lookup()
	if provider == nil {
		return "", notInstalled(s.Name(), opSignPsbt)
	}

	signInputs := make(map[string][]int)
	for _, in := range req.InputsToSign {
		signInputs[in.Address] = append(signInputs[in.Address], in.SigningIndexes...)
	}

	res, err := provider.Request(ctx, xverseMethodSignPsbt, xverseSignPsbtParams{
		Psbt:       req.Psbt,
		SignInputs: signInputs,
		Broadcast:  false,
	})
	if err != nil {
		return "", signError(s.Name(), opSignPsbt, err)
	}

	var result xverseSignPsbtResult
	if err := json.Unmarshal(res, &result); err != nil || result.Psbt == "" {
		return "", domain.NewWalletError(
			s.Name(), opSignPsbt, domain.ErrSigningFailed, ErrInvalidProviderResponse,
		)
	}
	return result.Psbt, nil
}

func (s *xverseSession) signMessage(
	ctx context.Context, msg string, scheme domain.MessageScheme,
) (string, error) {
	provider := s.lookup()
	if provider == nil {
		return "", notInstalled(s.Name(), opSignMessage)
	}

	protocol := xverseProtocolECDSA
	if scheme == domain.SchemeBIP322Simple {
		protocol = xverseProtocolBIP322
	}

	res, err := provider.Request(ctx, xverseMethodSignMessage, xverseSignMessageParams{
		Address:  s.signingAddress,
		Message:  msg,
		Protocol: protocol,
	})
	if err != nil {
		return "", signError(s.Name(), opSignMessage, err)
	}

	var result xverseSignMessageResult
	if err := json.Unmarshal(res, &result); err != nil || result.Signature == "" {
		return "", domain.NewWalletError(
			s.Name(), opSignMessage, domain.ErrSigningFailed,
			ErrInvalidProviderResponse,
		)
	}
	return result.Signature, nil
}
