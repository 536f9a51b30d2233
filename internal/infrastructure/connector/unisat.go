package connector

import (
	"context"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/tdex-network/btc-wallet-adapter/internal/core/domain"
	"github.com/tdex-network/btc-wallet-adapter/internal/core/ports"
)

// UniSat chain identifiers.
const (
	UnisatChainMainnet  = "BITCOIN_MAINNET"
	UnisatChainTestnet  = "BITCOIN_TESTNET"
	UnisatChainTestnet4 = "BITCOIN_TESTNET4"
)

type unisatConnector struct {
	lookup func() ports.UnisatProvider
}

// NewUnisatConnector returns a connector for the UniSat extension. UniSat
// only exposes taproot software accounts through the calls used here.
func NewUnisatConnector(host ports.ProviderHost) ports.Connector {
	lookup := func() ports.UnisatProvider { return nil }
	if host != nil {
		lookup = host.Unisat
	}
	return &unisatConnector{lookup}
}

func (c *unisatConnector) Name() domain.WalletName {
	return domain.WalletUnisat
}

func (c *unisatConnector) Installed() bool {
	return c.lookup() != nil
}

func (c *unisatConnector) Connect(
	ctx context.Context, network domain.Network,
) (*domain.Wallet, error) {
	provider := c.lookup()
	if provider == nil {
		return nil, notInstalled(c.Name(), opConnect)
	}

	if err := c.ensureChain(ctx, provider, network); err != nil {
		return nil, connectError(c.Name(), err)
	}

	accounts, err := provider.RequestAccounts(ctx)
	if err != nil {
		return nil, connectError(c.Name(), err)
	}
	if len(accounts) <= 0 {
		return nil, domain.NewWalletError(
			c.Name(), opConnect, domain.ErrUserCancelled, nil,
		)
	}

	publicKey, err := provider.GetPublicKey(ctx)
	if err != nil {
		return nil, connectError(c.Name(), err)
	}

	rawAccounts := make([]rawAccount, 0, len(accounts))
	for _, addr := range accounts {
		rawAccounts = append(rawAccounts, rawAccount{
			Address:   addr,
			PublicKey: publicKey,
		})
	}
	addresses := mapAccounts(
		rawAccounts, domain.AddressTypeP2TR, domain.WalletTypeSoftware,
	)

	log.Debugf("unisat: got %d account(s) on %s", len(addresses), network)

	return newWallet(domain.WalletArgs{
		WalletName:  c.Name(),
		Network:     network,
		Addresses:   addresses,
		SignPsbt:    c.signPsbt,
		SignMessage: c.signMessage,
	})
}

// ensureChain switches the extension to the requested network if needed.
// Releases of the extension without getChain are used as they are.
func (c *unisatConnector) ensureChain(
	ctx context.Context, provider ports.UnisatProvider, network domain.Network,
) error {
	chain, err := provider.GetChain(ctx)
	if err != nil {
		if errors.Is(err, ports.ErrMethodUnsupported) {
			log.Debug("unisat: getChain not supported, skipping chain check")
			return nil
		}
		return err
	}

	wanted := UnisatChainTestnet
	accepted := map[string]bool{
		UnisatChainTestnet:  true,
		UnisatChainTestnet4: true,
	}
	if network == domain.NetworkMainnet {
		wanted = UnisatChainMainnet
		accepted = map[string]bool{UnisatChainMainnet: true}
	}
	if accepted[chain] {
		return nil
	}

	log.Debugf("unisat: switching chain from %s to %s", chain, wanted)
	return provider.SwitchChain(ctx, wanted)
}

func (c *unisatConnector) signPsbt(
	ctx context.Context, req domain.UnsignedPsbt,
) (string, error) {
	provider := c.lookup()
	if provider == nil {
		return "", notInstalled(c.Name(), opSignPsbt)
	}

	buf, err := base64.StdEncoding.DecodeString(req.Psbt)
	if err != nil {
		return "", domain.NewWalletError(
			c.Name(), opSignPsbt, domain.ErrInvalidRequest, ErrInvalidPsbtEncoding,
		)
	}

	opts := ports.UnisatSignPsbtOptions{AutoFinalized: false}
	for _, in := range req.InputsToSign {
		var sighashTypes []int
		if in.SigHash != nil {
			sighashTypes = []int{*in.SigHash}
		}
		for _, index := range in.SigningIndexes {
			opts.ToSignInputs = append(opts.ToSignInputs, ports.UnisatToSignInput{
				Index:        index,
				Address:      in.Address,
				SighashTypes: sighashTypes,
			})
		}
	}

	signedHex, err := provider.SignPsbt(ctx, hex.EncodeToString(buf), opts)
	if err != nil {
		return "", signError(c.Name(), opSignPsbt, err)
	}

	signed, err := hex.DecodeString(signedHex)
	if err != nil {
		return "", domain.NewWalletError(
			c.Name(), opSignPsbt, domain.ErrSigningFailed,
			fmt.Errorf("%w: %s", ErrInvalidProviderResponse, err),
		)
	}
	return base64.StdEncoding.EncodeToString(signed), nil
}

func (c *unisatConnector) signMessage(
	ctx context.Context, msg string, scheme domain.MessageScheme,
) (string, error) {
	provider := c.lookup()
	if provider == nil {
		return "", notInstalled(c.Name(), opSignMessage)
	}

	sig, err := provider.SignMessage(ctx, msg, string(scheme.OrDefault()))
	if err != nil {
		return "", signError(c.Name(), opSignMessage, err)
	}
	return sig, nil
}
