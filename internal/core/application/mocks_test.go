package application_test

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"
	"github.com/tdex-network/btc-wallet-adapter/internal/core/domain"
	"github.com/tdex-network/btc-wallet-adapter/internal/core/ports"
)

// **** Connector ****

type mockConnector struct {
	mock.Mock
	name domain.WalletName
}

func newMockConnector(name domain.WalletName) *mockConnector {
	return &mockConnector{name: name}
}

func (m *mockConnector) Name() domain.WalletName {
	return m.name
}

func (m *mockConnector) Installed() bool {
	args := m.Called()
	return args.Bool(0)
}

func (m *mockConnector) Connect(
	ctx context.Context, network domain.Network,
) (*domain.Wallet, error) {
	args := m.Called(ctx, network)

	var res *domain.Wallet
	if a := args.Get(0); a != nil {
		res = a.(*domain.Wallet)
	}
	return res, args.Error(1)
}

// **** UniSat provider ****

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

// **** Activity listener ****

type activityRecorder struct {
	lock       sync.Mutex
	activities []domain.Activity
}

func (r *activityRecorder) OnActivity(activity domain.Activity) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.activities = append(r.activities, activity)
	return nil
}

func (r *activityRecorder) list() []domain.Activity {
	r.lock.Lock()
	defer r.lock.Unlock()
	return append([]domain.Activity{}, r.activities...)
}

func (r *activityRecorder) last() domain.Activity {
	list := r.list()
	if len(list) <= 0 {
		return domain.Activity{}
	}
	return list[len(list)-1]
}
