package connector

import (
	"context"
	"encoding/json"
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/tdex-network/btc-wallet-adapter/internal/core/domain"
	"github.com/tdex-network/btc-wallet-adapter/internal/core/ports"
)

const (
	meNetworkMainnet = "Mainnet"
	meNetworkTestnet = "Testnet"
)

type meNetwork struct {
	Type string `json:"type"`
}

type meGetAddressPayload struct {
	Purposes []domain.AddressPurpose `json:"purposes"`
	Message  string                  `json:"message"`
	Network  meNetwork               `json:"network"`
}

type meGetAddressResponse struct {
	Addresses []rawAccount `json:"addresses"`
}

type meInputToSign struct {
	Address        string `json:"address"`
	SigningIndexes []int  `json:"signingIndexes"`
	SigHash        *int   `json:"sigHash,omitempty"`
}

type meSignTransactionPayload struct {
	Network      meNetwork       `json:"network"`
	Message      string          `json:"message"`
	PsbtBase64   string          `json:"psbtBase64"`
	Broadcast    bool            `json:"broadcast"`
	InputsToSign []meInputToSign `json:"inputsToSign"`
}

type meSignTransactionResponse struct {
	PsbtBase64 string `json:"psbtBase64"`
	TxID       string `json:"txId,omitempty"`
}

type meSignMessagePayload struct {
	Network  meNetwork `json:"network"`
	Address  string    `json:"address"`
	Message  string    `json:"message"`
	Protocol string    `json:"protocol,omitempty"`
}

type magicEdenConnector struct {
	lookup func() ports.MagicEdenProvider
}

// NewMagicEdenConnector returns a connector for the Magic Eden extension,
// that speaks the sats-connect v1 protocol where requests are unsecured JWTs.
func NewMagicEdenConnector(host ports.ProviderHost) ports.Connector {
	lookup := func() ports.MagicEdenProvider { return nil }
	if host != nil {
		lookup = host.MagicEden
	}
	return &magicEdenConnector{lookup}
}

func (c *magicEdenConnector) Name() domain.WalletName {
	return domain.WalletMagicEden
}

func (c *magicEdenConnector) Installed() bool {
	return c.lookup() != nil
}

func (c *magicEdenConnector) Connect(
	ctx context.Context, network domain.Network,
) (*domain.Wallet, error) {
	provider := c.lookup()
	if provider == nil {
		return nil, notInstalled(c.Name(), opConnect)
	}

	token, err := encodeUnsecuredToken(meGetAddressPayload{
		Purposes: []domain.AddressPurpose{
			domain.PurposeOrdinals, domain.PurposePayment,
		},
		Message: connectMessage,
		Network: toMeNetwork(network),
	})
	if err != nil {
		return nil, domain.NewWalletError(
			c.Name(), opConnect, domain.ErrConnectionFailed, err,
		)
	}

	res, err := provider.Connect(ctx, token)
	if err != nil {
		return nil, connectError(c.Name(), err)
	}

	var resp meGetAddressResponse
	if err := json.Unmarshal(res, &resp); err != nil {
		return nil, domain.NewWalletError(
			c.Name(), opConnect, domain.ErrConnectionFailed,
			fmt.Errorf("%w: %s", ErrInvalidProviderResponse, err),
		)
	}
	if len(resp.Addresses) <= 0 {
		return nil, domain.NewWalletError(
			c.Name(), opConnect, domain.ErrUserCancelled, nil,
		)
	}

	addresses := mapAccounts(
		sortAccounts(resp.Addresses), domain.AddressTypeP2TR,
		domain.WalletTypeSoftware,
	)

	log.Debugf("magic-eden: got %d account(s) on %s", len(addresses), network)

	session := &magicEdenSession{magicEdenConnector: c, network: network}
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

type magicEdenSession struct {
	*magicEdenConnector
	network        domain.Network
	signingAddress string
}

func (s *magicEdenSession) signPsbt(
	ctx context.Context, req domain.UnsignedPsbt,
) (string, error) {
	provider := s.lookup()
	if provider == nil {
		return "", notInstalled(s.Name(), opSignPsbt)
	}

	inputs := make([]meInputToSign, 0, len(req.InputsToSign))
	for _, in := range req.InputsToSign {
		inputs = append(inputs, meInputToSign{
			Address:        in.Address,
			SigningIndexes: in.SigningIndexes,
			SigHash:        in.SigHash,
		})
	}

	token, err := encodeUnsecuredToken(meSignTransactionPayload{
		Network:      toMeNetwork(s.network),
		Message:      "Sign transaction",
		PsbtBase64:   req.Psbt,
		Broadcast:    false,
		InputsToSign: inputs,
	})
	if err != nil {
		return "", domain.NewWalletError(
			s.Name(), opSignPsbt, domain.ErrInvalidRequest, err,
		)
	}

	res, err := provider.SignTransaction(ctx, token)
	if err != nil {
		return "", signError(s.Name(), opSignPsbt, err)
	}

	var resp meSignTransactionResponse
	if err := json.Unmarshal(res, &resp); err != nil || resp.PsbtBase64 == "" {
		return "", domain.NewWalletError(
			s.Name(), opSignPsbt, domain.ErrSigningFailed, ErrInvalidProviderResponse,
		)
	}
	return resp.PsbtBase64, nil
}

func (s *magicEdenSession) signMessage(
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

	token, err := encodeUnsecuredToken(meSignMessagePayload{
		Network:  toMeNetwork(s.network),
		Address:  s.signingAddress,
		Message:  msg,
		Protocol: protocol,
	})
	if err != nil {
		return "", domain.NewWalletError(
			s.Name(), opSignMessage, domain.ErrInvalidRequest, err,
		)
	}

	sig, err := provider.SignMessage(ctx, token)
	if err != nil {
		return "", signError(s.Name(), opSignMessage, err)
	}
	if sig == "" {
		return "", domain.NewWalletError(
			s.Name(), opSignMessage, domain.ErrSigningFailed,
			ErrInvalidProviderResponse,
		)
	}
	return sig, nil
}

func toMeNetwork(network domain.Network) meNetwork {
	if network == domain.NetworkMainnet {
		return meNetwork{meNetworkMainnet}
	}
	return meNetwork{meNetworkTestnet}
}
