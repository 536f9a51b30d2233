package ports

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// Provider error codes used by the supported extensions to signal that the
// user rejected a request.
const (
	CodeUserRejected     = 4001
	CodeRpcUserRejection = -32000
	CodeRpcAccessDenied  = -32002

	// CodeMethodNotFound is the JSON-RPC code for a method the extension does
	// not implement.
	CodeMethodNotFound = -32601
)

var (
	// ErrProviderUnavailable is returned by a provider whose entry point went
	// away while a call was in progress.
	ErrProviderUnavailable = errors.New("provider is no longer available")
	// ErrMethodUnsupported is returned by a provider whose extension is
	// installed but does not implement the called method, ie. older releases.
	ErrMethodUnsupported = errors.New("method not supported by provider")
)

// ProviderError is an error reported by an extension.
type ProviderError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider error %d: %s", e.Code, e.Message)
}

func (e *ProviderError) Is(target error) bool {
	return target == ErrMethodUnsupported && e.Code == CodeMethodNotFound
}

// IsUserRejection returns whether err is a provider error signaling that the
// user dismissed the extension prompt.
func IsUserRejection(err error) bool {
	var perr *ProviderError
	if !errors.As(err, &perr) {
		return false
	}
	switch perr.Code {
	case CodeUserRejected, CodeRpcUserRejection, CodeRpcAccessDenied:
		return true
	default:
		return false
	}
}

// ProviderHost gives access to the global entry points registered by the
// wallet extensions. Every method returns nil if the extension is not
// installed and must be safe to call outside of a browser environment.
type ProviderHost interface {
	Unisat() UnisatProvider
	Xverse() XverseProvider
	MagicEden() MagicEdenProvider
}

// UnisatProvider mirrors window.unisat.
type UnisatProvider interface {
	RequestAccounts(ctx context.Context) ([]string, error)
	GetPublicKey(ctx context.Context) (string, error)
	GetChain(ctx context.Context) (string, error)
	SwitchChain(ctx context.Context, chain string) error
	// SignPsbt takes and returns a hex encoded psbt.
	SignPsbt(
		ctx context.Context, psbtHex string, opts UnisatSignPsbtOptions,
	) (string, error)
	SignMessage(ctx context.Context, msg, msgType string) (string, error)
}

// DecodeUnisatChain accepts both the chain enum returned by getChain and the
// {enum, name, network} object returned by recent versions of the extension.
func DecodeUnisatChain(raw json.RawMessage) (string, error) {
	var chain string
	if err := json.Unmarshal(raw, &chain); err == nil && chain != "" {
		return chain, nil
	}
	var info struct {
		Enum string `json:"enum"`
	}
	if err := json.Unmarshal(raw, &info); err != nil {
		return "", fmt.Errorf("invalid getChain result: %s", err)
	}
	if info.Enum == "" {
		return "", errors.New("invalid getChain result: missing chain enum")
	}
	return info.Enum, nil
}

type UnisatSignPsbtOptions struct {
	AutoFinalized bool                `json:"autoFinalized"`
	ToSignInputs  []UnisatToSignInput `json:"toSignInputs,omitempty"`
}

type UnisatToSignInput struct {
	Index        int    `json:"index"`
	Address      string `json:"address,omitempty"`
	SighashTypes []int  `json:"sighashTypes,omitempty"`
}

// XverseProvider mirrors window.XverseProviders.BitcoinProvider, that is a
// sats-connect JSON-RPC endpoint.
type XverseProvider interface {
	Request(
		ctx context.Context, method string, params interface{},
	) (json.RawMessage, error)
}

// MagicEdenProvider mirrors window.magicEden.bitcoin. Every request is an
// unsecured JWT whose claims are the request payload.
type MagicEdenProvider interface {
	Connect(ctx context.Context, request string) (json.RawMessage, error)
	SignTransaction(ctx context.Context, request string) (json.RawMessage, error)
	SignMessage(ctx context.Context, request string) (string, error)
}
