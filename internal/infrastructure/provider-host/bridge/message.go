package bridgehost

import (
	"encoding/json"

	"github.com/tdex-network/btc-wallet-adapter/internal/core/domain"
	"github.com/tdex-network/btc-wallet-adapter/internal/core/ports"
)

const (
	msgTypeProviders = "providers"
	msgTypeCall      = "call"
	msgTypeResult    = "result"
)

// message is the envelope of every frame exchanged with the page.
//
//	page -> host: {"type":"providers","providers":["unisat", ...]}
//	host -> page: {"type":"call","id":"...","provider":"unisat","method":"requestAccounts","params":[]}
//	page -> host: {"type":"result","id":"...","result":...,"error":{"code":4001,"message":"..."}}
type message struct {
	Type      string               `json:"type"`
	ID        string               `json:"id,omitempty"`
	Providers []domain.WalletName  `json:"providers,omitempty"`
	Provider  domain.WalletName    `json:"provider,omitempty"`
	Method    string               `json:"method,omitempty"`
	Params    []interface{}        `json:"params"`
	Result    json.RawMessage      `json:"result,omitempty"`
	Error     *ports.ProviderError `json:"error,omitempty"`
}
