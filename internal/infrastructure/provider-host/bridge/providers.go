package bridgehost

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/tdex-network/btc-wallet-adapter/internal/core/domain"
	"github.com/tdex-network/btc-wallet-adapter/internal/core/ports"
)

// unisatProxy relays calls to window.unisat.
type unisatProxy struct {
	host *Host
}

func (p *unisatProxy) RequestAccounts(ctx context.Context) ([]string, error) {
	var accounts []string
	if err := p.call(ctx, &accounts, "requestAccounts"); err != nil {
		return nil, err
	}
	return accounts, nil
}

func (p *unisatProxy) GetPublicKey(ctx context.Context) (string, error) {
	var publicKey string
	if err := p.call(ctx, &publicKey, "getPublicKey"); err != nil {
		return "", err
	}
	return publicKey, nil
}

func (p *unisatProxy) GetChain(ctx context.Context) (string, error) {
	var raw json.RawMessage
	if err := p.call(ctx, &raw, "getChain"); err != nil {
		return "", err
	}
	return ports.DecodeUnisatChain(raw)
}

func (p *unisatProxy) SwitchChain(ctx context.Context, chain string) error {
	return p.call(ctx, nil, "switchChain", chain)
}

func (p *unisatProxy) SignPsbt(
	ctx context.Context, psbtHex string, opts ports.UnisatSignPsbtOptions,
) (string, error) {
	var signed string
	if err := p.call(ctx, &signed, "signPsbt", psbtHex, opts); err != nil {
		return "", err
	}
	return signed, nil
}

func (p *unisatProxy) SignMessage(
	ctx context.Context, msg, msgType string,
) (string, error) {
	var sig string
	if err := p.call(ctx, &sig, "signMessage", msg, msgType); err != nil {
		return "", err
	}
	return sig, nil
}

func (p *unisatProxy) call(
	ctx context.Context, out interface{}, method string, params ...interface{},
) error {
	res, err := p.host.call(ctx, domain.WalletUnisat, method, params...)
	if err != nil {
		return err
	}
	return decodeResult(res, out)
}

// xverseProxy relays calls to window.XverseProviders.BitcoinProvider.
type xverseProxy struct {
	host *Host
}

// rpcResponse is the JSON-RPC envelope returned by sats-connect providers.
type rpcResponse struct {
	Result json.RawMessage      `json:"result"`
	Error  *ports.ProviderError `json:"error"`
}

func (p *xverseProxy) Request(
	ctx context.Context, method string, params interface{},
) (json.RawMessage, error) {
	res, err := p.host.call(ctx, domain.WalletXverse, "request", method, params)
	if err != nil {
		return nil, err
	}

	var resp rpcResponse
	if err := json.Unmarshal(res, &resp); err != nil {
		return nil, fmt.Errorf("invalid rpc response: %s", err)
	}
	if resp.Error != nil {
		return nil, resp.Error
	}
	return resp.Result, nil
}

// magicEdenProxy relays calls to window.magicEden.bitcoin.
type magicEdenProxy struct {
	host *Host
}

func (p *magicEdenProxy) Connect(
	ctx context.Context, request string,
) (json.RawMessage, error) {
	return p.host.call(ctx, domain.WalletMagicEden, "connect", request)
}

func (p *magicEdenProxy) SignTransaction(
	ctx context.Context, request string,
) (json.RawMessage, error) {
	return p.host.call(ctx, domain.WalletMagicEden, "signTransaction", request)
}

func (p *magicEdenProxy) SignMessage(
	ctx context.Context, request string,
) (string, error) {
	res, err := p.host.call(ctx, domain.WalletMagicEden, "signMessage", request)
	if err != nil {
		return "", err
	}
	var sig string
	if err := decodeResult(res, &sig); err != nil {
		return "", err
	}
	return sig, nil
}

func decodeResult(res json.RawMessage, out interface{}) error {
	if out == nil || len(res) <= 0 {
		return nil
	}
	if err := json.Unmarshal(res, out); err != nil {
		return fmt.Errorf("invalid result: %s", err)
	}
	return nil
}
