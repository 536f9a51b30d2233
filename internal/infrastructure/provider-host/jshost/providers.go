//go:build js && wasm

package jshost

import (
	"context"
	"encoding/json"
	"fmt"
	"syscall/js"

	"github.com/tdex-network/btc-wallet-adapter/internal/core/ports"
)

type unisat struct {
	v js.Value
}

func (p *unisat) RequestAccounts(ctx context.Context) ([]string, error) {
	var accounts []string
	err := p.call(ctx, &accounts, "requestAccounts")
	return accounts, err
}

func (p *unisat) GetPublicKey(ctx context.Context) (string, error) {
	var publicKey string
	err := p.call(ctx, &publicKey, "getPublicKey")
	return publicKey, err
}

func (p *unisat) GetChain(ctx context.Context) (string, error) {
	var raw json.RawMessage
	if err := p.call(ctx, &raw, "getChain"); err != nil {
		return "", err
	}
	return ports.DecodeUnisatChain(raw)
}

func (p *unisat) SwitchChain(ctx context.Context, chain string) error {
	return p.call(ctx, nil, "switchChain", chain)
}

func (p *unisat) SignPsbt(
	ctx context.Context, psbtHex string, opts ports.UnisatSignPsbtOptions,
) (string, error) {
	var signed string
	err := p.call(ctx, &signed, "signPsbt", psbtHex, opts)
	return signed, err
}

func (p *unisat) SignMessage(
	ctx context.Context, msg, msgType string,
) (string, error) {
	var sig string
	err := p.call(ctx, &sig, "signMessage", msg, msgType)
	return sig, err
}

func (p *unisat) call(
	ctx context.Context, out interface{}, method string, args ...interface{},
) error {
	res, err := call(ctx, p.v, method, args...)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(res, out); err != nil {
		return fmt.Errorf("invalid %s result: %s", method, err)
	}
	return nil
}

type xverse struct {
	v js.Value
}

func (p *xverse) Request(
	ctx context.Context, method string, params interface{},
) (json.RawMessage, error) {
	res, err := call(ctx, p.v, "request", method, params)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Result json.RawMessage      `json:"result"`
		Error  *ports.ProviderError `json:"error"`
	}
	if err := json.Unmarshal(res, &resp); err != nil {
		return nil, fmt.Errorf("invalid rpc response: %s", err)
	}
	if resp.Error != nil {
		return nil, resp.Error
	}
	return resp.Result, nil
}

type magicEden struct {
	v js.Value
}

func (p *magicEden) Connect(
	ctx context.Context, request string,
) (json.RawMessage, error) {
	return call(ctx, p.v, "connect", request)
}

func (p *magicEden) SignTransaction(
	ctx context.Context, request string,
) (json.RawMessage, error) {
	return call(ctx, p.v, "signTransaction", request)
}

func (p *magicEden) SignMessage(
	ctx context.Context, request string,
) (string, error) {
	res, err := call(ctx, p.v, "signMessage", request)
	if err != nil {
		return "", err
	}
	var sig string
	if err := json.Unmarshal(res, &sig); err != nil {
		return "", fmt.Errorf("invalid signMessage result: %s", err)
	}
	return sig, nil
}
