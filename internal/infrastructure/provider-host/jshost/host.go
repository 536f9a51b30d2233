//go:build js && wasm

package jshost

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"syscall/js"

	"github.com/tdex-network/btc-wallet-adapter/internal/core/ports"
)

// Host looks up the extension entry points in the global object of the
// browser page the module runs in. Lookups are never cached.
type Host struct {
	global js.Value
}

func NewHost() *Host {
	return &Host{js.Global()}
}

func (h *Host) Unisat() ports.UnisatProvider {
	v, ok := lookup(h.global, "unisat")
	if !ok {
		return nil
	}
	return &unisat{v}
}

func (h *Host) Xverse() ports.XverseProvider {
	v, ok := lookup(h.global, "XverseProviders", "BitcoinProvider")
	if !ok {
		return nil
	}
	return &xverse{v}
}

func (h *Host) MagicEden() ports.MagicEdenProvider {
	v, ok := lookup(h.global, "magicEden", "bitcoin")
	if !ok {
		return nil
	}
	return &magicEden{v}
}

func lookup(v js.Value, path ...string) (js.Value, bool) {
	for _, key := range path {
		if !isObject(v) {
			return js.Undefined(), false
		}
		v = v.Get(key)
	}
	return v, isObject(v)
}

func isObject(v js.Value) bool {
	return v.Type() == js.TypeObject || v.Type() == js.TypeFunction
}

// call invokes the given method of the provider object, awaits the returned
// promise, if any, and returns its JSON encoded result.
func call(
	ctx context.Context, provider js.Value, method string, args ...interface{},
) (json.RawMessage, error) {
	if !isObject(provider) {
		return nil, ports.ErrProviderUnavailable
	}
	if provider.Get(method).Type() != js.TypeFunction {
		return nil, fmt.Errorf("%w: %s", ports.ErrMethodUnsupported, method)
	}

	jsArgs := make([]interface{}, 0, len(args))
	for _, arg := range args {
		v, err := toJS(arg)
		if err != nil {
			return nil, err
		}
		jsArgs = append(jsArgs, v)
	}

	res, err := invoke(provider, method, jsArgs)
	if err != nil {
		return nil, err
	}
	if res.Type() == js.TypeObject && res.Get("then").Type() == js.TypeFunction {
		if res, err = await(ctx, res); err != nil {
			return nil, err
		}
	}
	return fromJS(res), nil
}

func invoke(provider js.Value, method string, args []interface{}) (res js.Value, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			if jsErr, ok := rec.(js.Error); ok {
				err = toProviderError(jsErr.Value)
				return
			}
			err = fmt.Errorf("%v", rec)
		}
	}()
	return provider.Call(method, args...), nil
}

func await(ctx context.Context, promise js.Value) (js.Value, error) {
	chRes := make(chan js.Value, 1)
	chErr := make(chan error, 1)

	onResolve := js.FuncOf(func(_ js.Value, args []js.Value) interface{} {
		res := js.Undefined()
		if len(args) > 0 {
			res = args[0]
		}
		chRes <- res
		return nil
	})
	defer onResolve.Release()

	onReject := js.FuncOf(func(_ js.Value, args []js.Value) interface{} {
		reason := js.Undefined()
		if len(args) > 0 {
			reason = args[0]
		}
		chErr <- toProviderError(reason)
		return nil
	})
	defer onReject.Release()

	promise.Call("then", onResolve, onReject)

	select {
	case res := <-chRes:
		return res, nil
	case err := <-chErr:
		return js.Undefined(), err
	case <-ctx.Done():
		return js.Undefined(), ctx.Err()
	}
}

// toProviderError maps a rejection reason, usually an Error object with a
// numeric code, to a *ports.ProviderError.
func toProviderError(reason js.Value) error {
	if !isObject(reason) {
		if reason.Type() == js.TypeString {
			return &ports.ProviderError{Message: reason.String()}
		}
		return errors.New("provider call rejected")
	}

	perr := &ports.ProviderError{}
	if code := reason.Get("code"); code.Type() == js.TypeNumber {
		perr.Code = code.Int()
	}
	if msg := reason.Get("message"); msg.Type() == js.TypeString {
		perr.Message = msg.String()
	}
	return perr
}

func toJS(v interface{}) (js.Value, error) {
	if s, ok := v.(string); ok {
		return js.ValueOf(s), nil
	}
	buf, err := json.Marshal(v)
	if err != nil {
		return js.Undefined(), err
	}
	return js.Global().Get("JSON").Call("parse", string(buf)), nil
}

func fromJS(v js.Value) json.RawMessage {
	if v.IsUndefined() {
		return json.RawMessage("null")
	}
	return json.RawMessage(js.Global().Get("JSON").Call("stringify", v).String())
}
