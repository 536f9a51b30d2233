package bridgehost_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
	"github.com/tdex-network/btc-wallet-adapter/internal/core/domain"
	"github.com/tdex-network/btc-wallet-adapter/internal/core/ports"
	"github.com/tdex-network/btc-wallet-adapter/internal/infrastructure/connector"
	bridgehost "github.com/tdex-network/btc-wallet-adapter/internal/infrastructure/provider-host/bridge"
)

var ctx = context.Background()

type pageCall struct {
	ID       string            `json:"id"`
	Provider string            `json:"provider"`
	Method   string            `json:"method"`
	Params   []json.RawMessage `json:"params"`
}

type pageResult struct {
	result interface{}
	err    *ports.ProviderError
	drop   bool
}

func TestBridgeUnisat(t *testing.T) {
	host, page := newTestBridge(t)
	require.Nil(t, host.Unisat())

	announce(t, page, "unisat", "leather")
	require.Eventually(t, func() bool {
		return host.Unisat() != nil
	}, time.Second, 5*time.Millisecond)
	require.Nil(t, host.Xverse())
	require.Nil(t, host.MagicEden())
	require.Equal(t, []domain.WalletName{domain.WalletUnisat}, host.Providers())

	chCalls := make(chan pageCall, 10)
	go servePage(page, func(call pageCall) pageResult {
		chCalls <- call
		switch call.Method {
		case "getChain":
			return pageResult{result: map[string]string{
				"enum": "BITCOIN_TESTNET", "name": "Bitcoin Testnet",
			}}
		case "requestAccounts":
			return pageResult{result: []string{"addr1", "addr2"}}
		case "getPublicKey":
			return pageResult{result: "pk"}
		case "signPsbt":
			return pageResult{result: "70736274ff01"}
		default:
			return pageResult{err: &ports.ProviderError{Code: -1, Message: "unknown"}}
		}
	})

	c := connector.NewUnisatConnector(host)
	require.True(t, c.Installed())

	wallet, err := c.Connect(ctx, domain.NetworkTestnet)
	require.NoError(t, err)
	require.Equal(t, "addr1", wallet.OrdinalsAddress().Address)
	require.Equal(t, "addr2", wallet.PaymentAddress().Address)
	require.Equal(t, "pk", wallet.PaymentAddress().PublicKey)

	for _, method := range []string{"getChain", "requestAccounts", "getPublicKey"} {
		call := <-chCalls
		require.Equal(t, "unisat", call.Provider)
		require.Equal(t, method, call.Method)
		require.NotEmpty(t, call.ID)
	}

	signed, err := wallet.SignPsbt(ctx, domain.UnsignedPsbt{
		Psbt: base64.StdEncoding.EncodeToString([]byte{0x70, 0x73, 0x62, 0x74, 0xff}),
	})
	require.NoError(t, err)
	require.Equal(
		t,
		base64.StdEncoding.EncodeToString([]byte{0x70, 0x73, 0x62, 0x74, 0xff, 0x01}),
		signed,
	)

	call := <-chCalls
	require.Equal(t, "signPsbt", call.Method)
	require.Len(t, call.Params, 2)
	require.JSONEq(t, `"70736274ff"`, string(call.Params[0]))
	require.JSONEq(t, `{"autoFinalized":false}`, string(call.Params[1]))
}

func TestBridgeUnisatWithoutGetChain(t *testing.T) {
	host, page := newTestBridge(t)
	announce(t, page, "unisat")
	require.Eventually(t, func() bool {
		return host.Unisat() != nil
	}, time.Second, 5*time.Millisecond)

	go servePage(page, func(call pageCall) pageResult {
		switch call.Method {
		case "requestAccounts":
			return pageResult{result: []string{"addr1"}}
		case "getPublicKey":
			return pageResult{result: "pk"}
		default:
			return pageResult{err: &ports.ProviderError{
				Code: ports.CodeMethodNotFound, Message: "method not found",
			}}
		}
	})

	wallet, err := connector.NewUnisatConnector(host).Connect(ctx, domain.NetworkMainnet)
	require.NoError(t, err)
	require.Equal(t, "addr1", wallet.OrdinalsAddress().Address)
	require.Equal(t, "addr1", wallet.PaymentAddress().Address)
}

func TestBridgeProviderErrors(t *testing.T) {
	host, page := newTestBridge(t)
	announce(t, page, "unisat", "xverse")
	require.Eventually(t, func() bool {
		return host.Xverse() != nil
	}, time.Second, 5*time.Millisecond)

	go servePage(page, func(call pageCall) pageResult {
		switch call.Method {
		case "getChain":
			return pageResult{result: "BITCOIN_TESTNET"}
		case "requestAccounts":
			return pageResult{err: &ports.ProviderError{
				Code: ports.CodeUserRejected, Message: "User rejected the request.",
			}}
		case "request":
			return pageResult{result: map[string]interface{}{
				"jsonrpc": "2.0",
				"error": map[string]interface{}{
					"code": ports.CodeRpcUserRejection, "message": "User rejected",
				},
			}}
		default:
			return pageResult{drop: true}
		}
	})

	_, err := connector.NewUnisatConnector(host).Connect(ctx, domain.NetworkTestnet)
	require.ErrorIs(t, err, domain.ErrUserCancelled)

	_, err = connector.NewXverseConnector(host).Connect(ctx, domain.NetworkTestnet)
	require.ErrorIs(t, err, domain.ErrUserCancelled)
}

func TestBridgeXverse(t *testing.T) {
	host, page := newTestBridge(t)
	announce(t, page, "xverse")
	require.Eventually(t, func() bool {
		return host.Xverse() != nil
	}, time.Second, 5*time.Millisecond)

	go servePage(page, func(call pageCall) pageResult {
		var method string
		json.Unmarshal(call.Params[0], &method)
		if method != "getAccounts" {
			return pageResult{drop: true}
		}
		return pageResult{result: map[string]interface{}{
			"jsonrpc": "2.0",
			"result": []map[string]string{
				{"address": "ord", "purpose": "ordinals", "addressType": "p2tr"},
				{"address": "pay", "purpose": "payment", "addressType": "p2sh"},
			},
		}}
	})

	wallet, err := connector.NewXverseConnector(host).Connect(ctx, domain.NetworkMainnet)
	require.NoError(t, err)
	require.Equal(t, "ord", wallet.OrdinalsAddress().Address)
	require.Equal(t, domain.AddressTypeP2SH, wallet.PaymentAddress().AddressType)
}

func TestBridgeUnpaired(t *testing.T) {
	t.Run("page_leaves_mid_call", func(t *testing.T) {
		host, page := newTestBridge(t)
		announce(t, page, "unisat")
		require.Eventually(t, func() bool {
			return host.Unisat() != nil
		}, time.Second, 5*time.Millisecond)

		go func() {
			var call pageCall
			page.ReadJSON(&call)
			page.Close()
		}()

		_, err := connector.NewUnisatConnector(host).Connect(ctx, domain.NetworkTestnet)
		require.ErrorIs(t, err, domain.ErrWalletNotInstalled)

		require.Eventually(t, func() bool {
			return !host.Paired()
		}, time.Second, 5*time.Millisecond)
		require.Nil(t, host.Unisat())
	})

	t.Run("no_reply", func(t *testing.T) {
		host, page := newTestBridge(t)
		announce(t, page, "magic-eden")
		require.Eventually(t, func() bool {
			return host.MagicEden() != nil
		}, time.Second, 5*time.Millisecond)

		go servePage(page, func(call pageCall) pageResult {
			return pageResult{drop: true}
		})

		ctx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
		defer cancel()

		_, err := host.MagicEden().Connect(ctx, "token")
		require.ErrorIs(t, err, context.DeadlineExceeded)
		require.True(t, host.Paired())
	})

	t.Run("replaced", func(t *testing.T) {
		host, first := newTestBridge(t)
		announce(t, first, "unisat")
		require.Eventually(t, func() bool {
			return host.Unisat() != nil
		}, time.Second, 5*time.Millisecond)

		second := dialBridge(t, host)
		announce(t, second, "xverse")
		require.Eventually(t, func() bool {
			return host.Xverse() != nil
		}, time.Second, 5*time.Millisecond)
		require.Nil(t, host.Unisat())

		var msg json.RawMessage
		err := first.ReadJSON(&msg)
		require.Error(t, err)

		host.Close()
		require.False(t, host.Paired())
	})
}

func newTestBridge(t *testing.T) (*bridgehost.Host, *websocket.Conn) {
	host := bridgehost.NewHost()
	t.Cleanup(host.Close)
	return host, dialBridge(t, host)
}

func dialBridge(t *testing.T, host *bridgehost.Host) *websocket.Conn {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			conn, err := upgrader.Upgrade(w, r, nil)
			if err != nil {
				return
			}
			host.Serve(conn)
		},
	))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	page, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { page.Close() })
	return page
}

func announce(t *testing.T, page *websocket.Conn, providers ...string) {
	err := page.WriteJSON(map[string]interface{}{
		"type":      "providers",
		"providers": providers,
	})
	require.NoError(t, err)
}

// servePage acts as the browser page until the connection drops.
func servePage(page *websocket.Conn, handler func(pageCall) pageResult) {
	for {
		var call pageCall
		if err := page.ReadJSON(&call); err != nil {
			return
		}

		res := handler(call)
		if res.drop {
			continue
		}

		msg := map[string]interface{}{"type": "result", "id": call.ID}
		if res.err != nil {
			msg["error"] = res.err
		} else {
			msg["result"] = res.result
		}
		if err := page.WriteJSON(msg); err != nil {
			return
		}
	}
}
