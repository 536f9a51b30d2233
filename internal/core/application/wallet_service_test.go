package application_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/tdex-network/btc-wallet-adapter/internal/core/application"
	"github.com/tdex-network/btc-wallet-adapter/internal/core/domain"
	"github.com/tdex-network/btc-wallet-adapter/internal/core/ports"
	"github.com/tdex-network/btc-wallet-adapter/internal/infrastructure/connector"
	inmemoryhost "github.com/tdex-network/btc-wallet-adapter/internal/infrastructure/provider-host/inmemory"
)

var (
	ctx       = context.Background()
	psbt      = "cHNidP8BAAoCAAAAAAAAAAAAAAAA"
	unsigned  = domain.UnsignedPsbt{Psbt: psbt}
	noTimeout = time.Duration(0)
)

func TestConnectWithoutExtensions(t *testing.T) {
	recorder := &activityRecorder{}
	svc := application.NewWalletService(
		connector.NewConnectors(inmemoryhost.NewHost()), time.Minute, time.Minute,
		recorder,
	)

	for _, name := range domain.SupportedWallets {
		t.Run(name.String(), func(t *testing.T) {
			for _, network := range []domain.Network{
				domain.NetworkMainnet, domain.NetworkTestnet,
			} {
				wallet, err := svc.Connect(ctx, name, network)
				require.Error(t, err)
				require.ErrorIs(t, err, domain.ErrWalletNotInstalled)
				require.Equal(t, "wallet_not_installed", domain.KindOf(err))
				require.Nil(t, wallet)

				require.False(t, svc.Connected())
				require.Nil(t, svc.Wallet())
				require.Equal(t, application.StatusIdle, svc.Status())
				require.Empty(t, svc.Addresses())
				require.NotNil(t, svc.Addresses())
				require.Empty(t, svc.PaymentAddress())
				require.Empty(t, svc.OrdinalsAddress())
				require.Equal(
					t, domain.ActivityConnectFailed, recorder.last().Type,
				)
			}
		})
	}
}

func TestConnectUnisat(t *testing.T) {
	tests := []struct {
		name                    string
		accounts                []string
		expectedOrdinalsAddress string
		expectedPaymentAddress  string
	}{
		{
			name:                    "two_accounts",
			accounts:                []string{"addr1", "addr2"},
			expectedOrdinalsAddress: "addr1",
			expectedPaymentAddress:  "addr2",
		},
		{
			name:                    "single_account",
			accounts:                []string{"addr1"},
			expectedOrdinalsAddress: "addr1",
			expectedPaymentAddress:  "addr1",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			host := inmemoryhost.NewHost()
			host.SetUnisat(newUnisatProvider(tt.accounts))
			svc := application.NewWalletService(
				connector.NewConnectors(host), time.Minute, time.Minute,
			)

			wallet, err := svc.Connect(ctx, domain.WalletUnisat, domain.NetworkTestnet)
			require.NoError(t, err)
			require.NotNil(t, wallet)

			require.True(t, svc.Connected())
			require.Equal(t, wallet, svc.Wallet())
			require.Equal(t, application.StatusIdle, svc.Status())
			require.Equal(t, domain.NetworkTestnet, wallet.Network())
			require.Equal(t, domain.WalletUnisat, wallet.WalletName())
			require.Equal(
				t, tt.expectedOrdinalsAddress, wallet.OrdinalsAddress().Address,
			)
			require.Equal(
				t, tt.expectedPaymentAddress, wallet.PaymentAddress().Address,
			)
			require.Equal(t, "pk", wallet.OrdinalsAddress().PublicKey)
			require.Equal(t, tt.expectedPaymentAddress, svc.PaymentAddress())
			require.Equal(t, tt.expectedOrdinalsAddress, svc.OrdinalsAddress())
			require.Equal(t, tt.accounts, svc.Addresses())

			state := svc.State()
			require.True(t, state.Connected)
			require.Equal(t, wallet, state.Wallet)
		})
	}
}

func TestConnectUnsupported(t *testing.T) {
	svc := application.NewWalletService(
		connector.NewConnectors(inmemoryhost.NewHost()), noTimeout, noTimeout,
	)

	_, err := svc.Connect(ctx, domain.WalletName("leather"), domain.NetworkMainnet)
	require.ErrorIs(t, err, domain.ErrUnsupportedWallet)

	_, err = svc.Connect(ctx, domain.WalletUnisat, domain.Network("regtest"))
	require.ErrorIs(t, err, domain.ErrUnsupportedNetwork)

	require.False(t, svc.Connected())
	require.Equal(t, application.StatusIdle, svc.Status())
}

func TestDisconnect(t *testing.T) {
	recorder := &activityRecorder{}
	host := inmemoryhost.NewHost()
	host.SetUnisat(newUnisatProvider([]string{"addr1", "addr2"}))
	svc := application.NewWalletService(
		connector.NewConnectors(host), noTimeout, noTimeout, recorder,
	)

	t.Run("without_wallet", func(t *testing.T) {
		svc.Disconnect()
		svc.Disconnect()

		require.False(t, svc.Connected())
		require.Nil(t, svc.Wallet())
		require.Empty(t, recorder.list())
	})

	t.Run("with_wallet", func(t *testing.T) {
		wallet, err := svc.Connect(ctx, domain.WalletUnisat, domain.NetworkMainnet)
		require.NoError(t, err)

		svc.Disconnect()
		once := svc.State()
		svc.Disconnect()
		twice := svc.State()

		require.Equal(t, once, twice)
		require.False(t, twice.Connected)
		require.Nil(t, twice.Wallet)
		require.True(t, wallet.IsRevoked())

		activities := recorder.list()
		require.Len(t, activities, 2)
		require.Equal(t, domain.ActivityConnected, activities[0].Type)
		require.Equal(t, domain.ActivityDisconnected, activities[1].Type)
	})
}

func TestSwitchWallet(t *testing.T) {
	var signedByFirst, signedBySecond int32
	first := newTestWallet(t, domain.WalletUnisat, &signedByFirst)
	second := newTestWallet(t, domain.WalletXverse, &signedBySecond)

	unisat := newMockConnector(domain.WalletUnisat)
	unisat.On("Connect", mock.Anything, domain.NetworkTestnet).Return(first, nil)
	xverse := newMockConnector(domain.WalletXverse)
	xverse.On("Connect", mock.Anything, domain.NetworkTestnet).Return(second, nil)

	svc := application.NewWalletService(
		[]ports.Connector{unisat, xverse}, noTimeout, noTimeout,
	)

	_, err := svc.Connect(ctx, domain.WalletUnisat, domain.NetworkTestnet)
	require.NoError(t, err)
	_, err = svc.Connect(ctx, domain.WalletXverse, domain.NetworkTestnet)
	require.NoError(t, err)

	require.Equal(t, domain.WalletXverse, svc.Wallet().WalletName())
	require.True(t, first.IsRevoked())
	require.False(t, second.IsRevoked())

	signed, err := svc.SignPsbt(ctx, unsigned, false, nil)
	require.NoError(t, err)
	require.Equal(t, "signed_"+psbt, signed)

	_, err = first.SignPsbt(ctx, unsigned)
	require.ErrorIs(t, err, domain.ErrWalletNotConnected)

	require.Zero(t, atomic.LoadInt32(&signedByFirst))
	require.Equal(t, int32(1), atomic.LoadInt32(&signedBySecond))
}

func TestConnectFailureKeepsState(t *testing.T) {
	var signed int32
	wallet := newTestWallet(t, domain.WalletUnisat, &signed)

	unisat := newMockConnector(domain.WalletUnisat)
	unisat.On("Connect", mock.Anything, domain.NetworkTestnet).Return(wallet, nil)
	xverse := newMockConnector(domain.WalletXverse)
	xverse.On("Connect", mock.Anything, domain.NetworkTestnet).Return(
		nil, domain.NewWalletError(
			domain.WalletXverse, "connect", domain.ErrUserCancelled, nil,
		),
	)

	svc := application.NewWalletService(
		[]ports.Connector{unisat, xverse}, noTimeout, noTimeout,
	)

	_, err := svc.Connect(ctx, domain.WalletUnisat, domain.NetworkTestnet)
	require.NoError(t, err)

	_, err = svc.Connect(ctx, domain.WalletXverse, domain.NetworkTestnet)
	require.ErrorIs(t, err, domain.ErrUserCancelled)

	require.True(t, svc.Connected())
	require.Equal(t, wallet, svc.Wallet())
	require.False(t, wallet.IsRevoked())
	require.Equal(t, application.StatusIdle, svc.Status())
}

func TestConnectWithoutWallet(t *testing.T) {
	unisat := newMockConnector(domain.WalletUnisat)
	unisat.On("Connect", mock.Anything, domain.NetworkTestnet).Return(nil, nil)
	recorder := &activityRecorder{}

	svc := application.NewWalletService(
		[]ports.Connector{unisat}, noTimeout, noTimeout, recorder,
	)

	wallet, err := svc.Connect(ctx, domain.WalletUnisat, domain.NetworkTestnet)
	require.ErrorIs(t, err, domain.ErrConnectionFailed)
	require.ErrorIs(t, err, application.ErrMissingWallet)
	require.Nil(t, wallet)

	require.False(t, svc.Connected())
	require.Nil(t, svc.Wallet())
	require.Equal(t, application.StatusIdle, svc.Status())
	require.Equal(t, domain.ActivityConnectFailed, recorder.last().Type)
}

func TestConcurrentConnect(t *testing.T) {
	var signed int32
	wallet := newTestWallet(t, domain.WalletUnisat, &signed)
	release := make(chan struct{})

	unisat := newMockConnector(domain.WalletUnisat)
	unisat.On("Connect", mock.Anything, domain.NetworkTestnet).
		Run(func(_ mock.Arguments) { <-release }).
		Return(wallet, nil)

	svc := application.NewWalletService(
		[]ports.Connector{unisat}, noTimeout, noTimeout,
	)

	chErr := make(chan error, 1)
	go func() {
		_, err := svc.Connect(ctx, domain.WalletUnisat, domain.NetworkTestnet)
		chErr <- err
	}()

	require.Eventually(t, func() bool {
		return svc.Status() == application.StatusLoading
	}, time.Second, 5*time.Millisecond)

	_, err := svc.Connect(ctx, domain.WalletUnisat, domain.NetworkTestnet)
	require.ErrorIs(t, err, domain.ErrConnectionInProgress)
	require.Equal(t, application.StatusLoading, svc.Status())

	close(release)
	require.NoError(t, <-chErr)
	require.True(t, svc.Connected())
	require.Equal(t, application.StatusIdle, svc.Status())
	unisat.AssertNumberOfCalls(t, "Connect", 1)
}

func TestDisconnectAbortsConnect(t *testing.T) {
	var signed int32
	wallet := newTestWallet(t, domain.WalletUnisat, &signed)

	unisat := newMockConnector(domain.WalletUnisat)
	unisat.On("Connect", mock.Anything, domain.NetworkTestnet).
		Run(func(args mock.Arguments) {
			<-args.Get(0).(context.Context).Done()
		}).
		Return(wallet, nil)

	svc := application.NewWalletService(
		[]ports.Connector{unisat}, noTimeout, noTimeout,
	)

	chErr := make(chan error, 1)
	go func() {
		_, err := svc.Connect(ctx, domain.WalletUnisat, domain.NetworkTestnet)
		chErr <- err
	}()

	require.Eventually(t, func() bool {
		return svc.Status() == application.StatusLoading
	}, time.Second, 5*time.Millisecond)

	svc.Disconnect()

	err := <-chErr
	require.ErrorIs(t, err, domain.ErrUserCancelled)
	require.ErrorIs(t, err, application.ErrConnectionAborted)
	require.False(t, svc.Connected())
	require.True(t, wallet.IsRevoked())
	require.Equal(t, application.StatusIdle, svc.Status())
}

func TestConnectTimeout(t *testing.T) {
	provider := &mockUnisat{}
	provider.On("GetChain", mock.Anything).Return(connector.UnisatChainTestnet, nil)
	provider.On("RequestAccounts", mock.Anything).
		Run(func(args mock.Arguments) {
			<-args.Get(0).(context.Context).Done()
		}).
		Return(nil, context.DeadlineExceeded)

	host := inmemoryhost.NewHost()
	host.SetUnisat(provider)
	svc := application.NewWalletService(
		connector.NewConnectors(host), 50*time.Millisecond, noTimeout,
	)

	_, err := svc.Connect(ctx, domain.WalletUnisat, domain.NetworkTestnet)
	require.ErrorIs(t, err, domain.ErrConnectionFailed)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.False(t, svc.Connected())
	require.Equal(t, application.StatusIdle, svc.Status())
}

func TestSignPsbt(t *testing.T) {
	t.Run("not_connected", func(t *testing.T) {
		recorder := &activityRecorder{}
		svc := application.NewWalletService(nil, noTimeout, noTimeout, recorder)

		var onErrorCalled bool
		signed, err := svc.SignPsbt(ctx, unsigned, true, &application.SignHandlers{
			OnError: func(error) { onErrorCalled = true },
		})
		require.ErrorIs(t, err, domain.ErrWalletNotConnected)
		require.Equal(t, "wallet_not_connected", domain.KindOf(err))
		require.Empty(t, signed)
		require.False(t, onErrorCalled)
		require.Equal(t, application.StatusIdle, svc.Status())
		require.Empty(t, recorder.list())
	})

	t.Run("success", func(t *testing.T) {
		var signedCount int32
		recorder := &activityRecorder{}
		svc := connectedService(t, newTestWallet(t, domain.WalletUnisat, &signedCount), recorder)

		var onSuccessCalled bool
		var statusDuringCallback application.Status
		signed, err := svc.SignPsbt(ctx, unsigned, true, &application.SignHandlers{
			OnSuccess: func() {
				onSuccessCalled = true
				statusDuringCallback = svc.Status()
			},
		})
		require.NoError(t, err)
		require.Equal(t, "signed_"+psbt, signed)
		require.True(t, onSuccessCalled)
		require.Equal(t, application.StatusLoading, statusDuringCallback)
		require.Equal(t, application.StatusIdle, svc.Status())

		activity := recorder.last()
		require.Equal(t, domain.ActivityPsbtSigned, activity.Type)
		require.True(t, activity.Broadcast)
		require.False(t, activity.Failed())
	})

	t.Run("failure", func(t *testing.T) {
		recorder := &activityRecorder{}
		wallet, err := domain.NewWallet(domain.WalletArgs{
			WalletName: domain.WalletUnisat,
			Network:    domain.NetworkTestnet,
			Addresses:  []domain.Address{{Address: "addr1"}},
			SignPsbt: func(context.Context, domain.UnsignedPsbt) (string, error) {
				return "", domain.NewWalletError(
					domain.WalletUnisat, "sign psbt", domain.ErrSigningFailed,
					errors.New("boom"),
				)
			},
			SignMessage: func(
				context.Context, string, domain.MessageScheme,
			) (string, error) {
				return "", nil
			},
		})
		require.NoError(t, err)
		svc := connectedService(t, wallet, recorder)

		var gotErr error
		_, err = svc.SignPsbt(ctx, unsigned, false, &application.SignHandlers{
			OnError: func(err error) { gotErr = err },
		})
		require.ErrorIs(t, err, domain.ErrSigningFailed)
		require.Equal(t, err, gotErr)
		require.Equal(t, application.StatusIdle, svc.Status())
		require.True(t, svc.Connected())

		activity := recorder.last()
		require.Equal(t, domain.ActivityPsbtSignFailed, activity.Type)
		require.Equal(t, "signing_failed", activity.ErrorKind)
	})

	t.Run("missing_psbt", func(t *testing.T) {
		var signedCount int32
		svc := connectedService(t, newTestWallet(t, domain.WalletUnisat, &signedCount), nil)

		_, err := svc.SignPsbt(ctx, domain.UnsignedPsbt{}, false, nil)
		require.ErrorIs(t, err, domain.ErrInvalidRequest)
		require.Zero(t, atomic.LoadInt32(&signedCount))
		require.Equal(t, application.StatusIdle, svc.Status())
	})

	t.Run("in_progress", func(t *testing.T) {
		release := make(chan struct{})
		wallet, err := domain.NewWallet(domain.WalletArgs{
			WalletName: domain.WalletUnisat,
			Network:    domain.NetworkTestnet,
			Addresses:  []domain.Address{{Address: "addr1"}},
			SignPsbt: func(context.Context, domain.UnsignedPsbt) (string, error) {
				<-release
				return "signed", nil
			},
			SignMessage: func(
				context.Context, string, domain.MessageScheme,
			) (string, error) {
				return "sig", nil
			},
		})
		require.NoError(t, err)
		svc := connectedService(t, wallet, nil)

		chErr := make(chan error, 1)
		go func() {
			_, err := svc.SignPsbt(ctx, unsigned, false, nil)
			chErr <- err
		}()

		require.Eventually(t, func() bool {
			return svc.Status() == application.StatusLoading
		}, time.Second, 5*time.Millisecond)

		_, err = svc.SignMessage(ctx, "hello", "", nil)
		require.ErrorIs(t, err, domain.ErrSigningInProgress)
		_, err = svc.Connect(ctx, domain.WalletUnisat, domain.NetworkTestnet)
		require.ErrorIs(t, err, domain.ErrConnectionInProgress)

		close(release)
		require.NoError(t, <-chErr)
		require.Equal(t, application.StatusIdle, svc.Status())
	})
}

func TestSignMessage(t *testing.T) {
	provider := newUnisatProvider([]string{"addr1", "addr2"})
	provider.On("SignMessage", mock.Anything, "hello", "ecdsa").Return("sig_ecdsa", nil)
	provider.On("SignMessage", mock.Anything, "hello", "bip322-simple").
		Return("sig_bip322", nil)

	host := inmemoryhost.NewHost()
	host.SetUnisat(provider)
	recorder := &activityRecorder{}
	svc := application.NewWalletService(
		connector.NewConnectors(host), noTimeout, noTimeout, recorder,
	)

	_, err := svc.SignMessage(ctx, "hello", "", nil)
	require.ErrorIs(t, err, domain.ErrWalletNotConnected)

	_, err = svc.Connect(ctx, domain.WalletUnisat, domain.NetworkTestnet)
	require.NoError(t, err)

	sig, err := svc.SignMessage(ctx, "hello", "", nil)
	require.NoError(t, err)
	require.Equal(t, "sig_ecdsa", sig)

	sig, err = svc.SignMessage(ctx, "hello", domain.SchemeBIP322Simple, nil)
	require.NoError(t, err)
	require.Equal(t, "sig_bip322", sig)
	require.Equal(t, domain.ActivityMessageSigned, recorder.last().Type)

	host.SetUnisat(nil)
	_, err = svc.SignMessage(ctx, "hello", "", nil)
	require.ErrorIs(t, err, domain.ErrWalletNotInstalled)
	require.Equal(t, domain.ActivityMessageSignFailed, recorder.last().Type)
}

func newUnisatProvider(accounts []string) *mockUnisat {
	provider := &mockUnisat{}
	provider.On("GetChain", mock.Anything).Return(connector.UnisatChainTestnet, nil)
	provider.On("SwitchChain", mock.Anything, mock.Anything).Return(nil)
	provider.On("RequestAccounts", mock.Anything).Return(accounts, nil)
	provider.On("GetPublicKey", mock.Anything).Return("pk", nil)
	return provider
}

func newTestWallet(
	t *testing.T, name domain.WalletName, signed *int32,
) *domain.Wallet {
	wallet, err := domain.NewWallet(domain.WalletArgs{
		WalletName: name,
		Network:    domain.NetworkTestnet,
		Addresses: []domain.Address{
			{
				Address:     "addr1",
				PublicKey:   "pk",
				Purpose:     domain.PurposeOrdinals,
				AddressType: domain.AddressTypeP2TR,
				WalletType:  domain.WalletTypeSoftware,
			},
		},
		SignPsbt: func(_ context.Context, req domain.UnsignedPsbt) (string, error) {
			atomic.AddInt32(signed, 1)
			return "signed_" + req.Psbt, nil
		},
		SignMessage: func(
			context.Context, string, domain.MessageScheme,
		) (string, error) {
			return "sig", nil
		},
	})
	require.NoError(t, err)
	return wallet
}

func connectedService(
	t *testing.T, wallet *domain.Wallet, listener application.ActivityListener,
) application.WalletService {
	c := newMockConnector(wallet.WalletName())
	c.On("Connect", mock.Anything, wallet.Network()).Return(wallet, nil)

	svc := application.NewWalletService([]ports.Connector{c}, noTimeout, noTimeout)
	_, err := svc.Connect(ctx, wallet.WalletName(), wallet.Network())
	require.NoError(t, err)
	if listener != nil {
		svc.AddListener(listener)
	}
	return svc
}
