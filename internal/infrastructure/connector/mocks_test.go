package connector_test

import (
	"context"
	"encoding/json"

	"github.com/stretchr/testify/mock"
	"github.com/tdex-network/btc-wallet-adapter/internal/core/ports"
)

type mockUnisat struct {
	mock.Mock
}

func (m *mockUnisat) RequestAccounts(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)

	var res []string
	if a := args.Get(0); a != nil {
		res = a.([]string)
	}
	return res, args.Error(1)
}

func (m *mockUnisat) GetPublicKey(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *mockUnisat) GetChain(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *mockUnisat) SwitchChain(ctx context.Context, chain string) error {
	args := m.Called(ctx, chain)
	return args.Error(0)
}

func (m *mockUnisat) SignPsbt(
	ctx context.Context, psbtHex string, opts ports.UnisatSignPsbtOptions,
) (string, error) {
	args := m.Called(ctx, psbtHex, opts)
	return args.String(0), args.Error(1)
}

func (m *mockUnisat) SignMessage(
	ctx context.Context, msg, msgType string,
) (string, error) {
	args := m.Called(ctx, msg, msgType)
	return args.String(0), args.Error(1)
}

type mockXverse struct {
	mock.Mock
}

func (m *mockXverse) Request(
	ctx context.Context, method string, params interface{},
) (json.RawMessage, error) {
	args := m.Called(ctx, method, params)

	var res json.RawMessage
	if a := args.Get(0); a != nil {
		res = a.(json.RawMessage)
	}
	return res, args.Error(1)
}

type mockMagicEden struct {
	mock.Mock
}

func (m *mockMagicEden) Connect(
	ctx context.Context, request string,
) (json.RawMessage, error) {
	args := m.Called(ctx, request)

	var res json.RawMessage
	if a := args.Get(0); a != nil {
		res = a.(json.RawMessage)
	}
	return res, args.Error(1)
}

func (m *mockMagicEden) SignTransaction(
	ctx context.Context, request string,
) (json.RawMessage, error) {
	args := m.Called(ctx, request)

	var res json.RawMessage
	if a := args.Get(0); a != nil {
		res = a.(json.RawMessage)
	}
	return res, args.Error(1)
}

func (m *mockMagicEden) SignMessage(
	ctx context.Context, request string,
) (string, error) {
	args := m.Called(ctx, request)
	return args.String(0), args.Error(1)
}
