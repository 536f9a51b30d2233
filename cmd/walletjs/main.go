//go:build js && wasm

// walletjs exposes the wallet service to the page that loads the wasm module.
// Every function of the exported object returns a Promise.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"syscall/js"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/tdex-network/btc-wallet-adapter/internal/core/application"
	"github.com/tdex-network/btc-wallet-adapter/internal/core/domain"
	"github.com/tdex-network/btc-wallet-adapter/internal/infrastructure/connector"
	"github.com/tdex-network/btc-wallet-adapter/internal/infrastructure/provider-host/jshost"
	"github.com/tdex-network/btc-wallet-adapter/internal/infrastructure/storage/db/inmemory"
)

const (
	exportName     = "btcWalletAdapter"
	connectTimeout = 2 * time.Minute
	signTimeout    = 5 * time.Minute
)

type adapter struct {
	svc          application.WalletService
	detector     *application.Detector
	activityRepo domain.ActivityRepository
}

func main() {
	log.SetFormatter(&log.TextFormatter{DisableColors: true})

	connectors := connector.NewConnectors(jshost.NewHost())
	activityRepo := inmemory.NewActivityRepositoryImpl()
	a := &adapter{
		svc: application.NewWalletService(
			connectors, connectTimeout, signTimeout,
			application.NewActivityRecorder(activityRepo),
		),
		detector:     application.NewDetector(connectors),
		activityRepo: activityRepo,
	}

	exports := map[string]interface{}{
		"providers":   promiseFunc(a.providers),
		"state":       promiseFunc(a.state),
		"connect":     promiseFunc(a.connect),
		"disconnect":  promiseFunc(a.disconnect),
		"signPsbt":    promiseFunc(a.signPsbt),
		"signMessage": promiseFunc(a.signMessage),
		"activity":    promiseFunc(a.activity),
	}
	a.svc.AddListener(application.ActivityListenerFunc(a.dispatchActivity))

	js.Global().Set(exportName, js.ValueOf(exports))
	log.Debugf("%s is ready", exportName)

	select {}
}

func (a *adapter) providers([]js.Value) (interface{}, error) {
	wallets := a.detector.Wallets()
	providers := make([]map[string]interface{}, 0, len(wallets))
	for _, w := range wallets {
		providers = append(providers, map[string]interface{}{
			"name":        w.Name.String(),
			"displayName": w.DisplayName,
			"detected":    w.Detected,
		})
	}
	return providers, nil
}

func (a *adapter) state([]js.Value) (interface{}, error) {
	return stateOf(a.svc.State()), nil
}

// connect(wallet, network?)
func (a *adapter) connect(args []js.Value) (interface{}, error) {
	name, err := domain.ParseWalletName(stringArg(args, 0))
	if err != nil {
		return nil, err
	}
	network := domain.NetworkTestnet
	if n := stringArg(args, 1); n != "" {
		if network, err = domain.ParseNetwork(n); err != nil {
			return nil, err
		}
	}

	if _, err := a.svc.Connect(context.Background(), name, network); err != nil {
		return nil, err
	}
	return stateOf(a.svc.State()), nil
}

func (a *adapter) disconnect([]js.Value) (interface{}, error) {
	a.svc.Disconnect()
	return stateOf(a.svc.State()), nil
}

// signPsbt({psbt, inputsToSign, broadcast})
func (a *adapter) signPsbt(args []js.Value) (interface{}, error) {
	var req struct {
		Psbt         string `json:"psbt"`
		InputsToSign []struct {
			Address        string `json:"address"`
			SigningIndexes []int  `json:"signingIndexes"`
			SigHash        *int   `json:"sigHash"`
		} `json:"inputsToSign"`
		Broadcast bool `json:"broadcast"`
	}
	if err := objectArg(args, 0, &req); err != nil {
		return nil, err
	}

	unsigned := domain.UnsignedPsbt{Psbt: req.Psbt}
	for _, in := range req.InputsToSign {
		unsigned.InputsToSign = append(unsigned.InputsToSign, domain.InputToSign{
			Address:        in.Address,
			SigningIndexes: in.SigningIndexes,
			SigHash:        in.SigHash,
		})
	}

	signed, err := a.svc.SignPsbt(context.Background(), unsigned, req.Broadcast, nil)
	if err != nil {
		return nil, err
	}
	return signed, nil
}

// signMessage(message, scheme?)
func (a *adapter) signMessage(args []js.Value) (interface{}, error) {
	msg := stringArg(args, 0)
	if msg == "" {
		return nil, fmt.Errorf("%w: missing message", domain.ErrInvalidRequest)
	}
	sig, err := a.svc.SignMessage(
		context.Background(), msg, domain.MessageScheme(stringArg(args, 1)), nil,
	)
	if err != nil {
		return nil, err
	}
	return sig, nil
}

// activity(wallet?)
func (a *adapter) activity(args []js.Value) (interface{}, error) {
	var wallet domain.WalletName
	if name := stringArg(args, 0); name != "" {
		var err error
		if wallet, err = domain.ParseWalletName(name); err != nil {
			return nil, err
		}
	}

	activities, err := a.activityRepo.ListActivities(
		context.Background(), wallet, domain.NewPage(0, 0),
	)
	if err != nil {
		return nil, err
	}
	return toJSValue(activities)
}

// dispatchActivity calls the onActivity callback of the exported object, if
// the page defined one.
func (a *adapter) dispatchActivity(activity domain.Activity) error {
	cb := js.Global().Get(exportName).Get("onActivity")
	if cb.Type() != js.TypeFunction {
		return nil
	}
	v, err := toJSValue(activity)
	if err != nil {
		return err
	}
	cb.Invoke(v)
	return nil
}

type handlerFunc func(args []js.Value) (interface{}, error)

// promiseFunc runs the handler in its own goroutine. A js callback must never
// block, the providers reply through the same event loop.
func promiseFunc(handler handlerFunc) js.Func {
	return js.FuncOf(func(_ js.Value, args []js.Value) interface{} {
		promise := js.Global().Get("Promise")

		executor := js.FuncOf(func(_ js.Value, cbs []js.Value) interface{} {
			resolve, reject := cbs[0], cbs[1]
			go func() {
				res, err := handler(args)
				if err != nil {
					reject.Invoke(toJSError(err))
					return
				}
				v, err := toJSValue(res)
				if err != nil {
					reject.Invoke(toJSError(err))
					return
				}
				resolve.Invoke(v)
			}()
			return nil
		})
		defer executor.Release()

		return promise.New(executor)
	})
}

func toJSError(err error) js.Value {
	jsErr := js.Global().Get("Error").New(err.Error())
	jsErr.Set("kind", domain.KindOf(err))
	return jsErr
}

func toJSValue(v interface{}) (js.Value, error) {
	switch val := v.(type) {
	case js.Value:
		return val, nil
	case string:
		return js.ValueOf(val), nil
	}
	buf, err := json.Marshal(v)
	if err != nil {
		return js.Undefined(), err
	}
	return js.Global().Get("JSON").Call("parse", string(buf)), nil
}

func stringArg(args []js.Value, i int) string {
	if i >= len(args) || args[i].Type() != js.TypeString {
		return ""
	}
	return args[i].String()
}

func objectArg(args []js.Value, i int, dest interface{}) error {
	if i >= len(args) || args[i].Type() != js.TypeObject {
		return fmt.Errorf("%w: argument %d must be an object", domain.ErrInvalidRequest, i)
	}
	str := js.Global().Get("JSON").Call("stringify", args[i]).String()
	if err := json.Unmarshal([]byte(str), dest); err != nil {
		return fmt.Errorf("%w: %s", domain.ErrInvalidRequest, err)
	}
	return nil
}

func stateOf(state application.State) map[string]interface{} {
	resp := map[string]interface{}{
		"connected":       state.Connected,
		"status":          string(state.Status),
		"ordinalsAddress": state.OrdinalsAddress(),
		"paymentAddress":  state.PaymentAddress(),
		"addresses":       state.Addresses(),
	}
	if state.Wallet != nil {
		resp["wallet"] = state.Wallet.WalletName().String()
		resp["network"] = state.Wallet.Network().String()
	}
	return resp
}
