package application

import (
	"context"
	"errors"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/tdex-network/btc-wallet-adapter/internal/core/domain"
	"github.com/tdex-network/btc-wallet-adapter/internal/core/ports"
)

var (
	// ErrConnectionAborted is the cause of the error returned by a connect
	// call that was still in progress when Disconnect was called.
	ErrConnectionAborted = errors.New("connection aborted by disconnect")
	// ErrMissingWallet is the cause of the error returned when a connector
	// reports success without a wallet.
	ErrMissingWallet = errors.New("connector returned no wallet")
)

// WalletService holds at most one active canonical wallet and is the only
// entry point to connect, disconnect and sign with it.
type WalletService interface {
	// Connect replaces the active wallet, if any, with a new one for the
	// given extension. On failure the state is left unchanged.
	Connect(
		ctx context.Context, name domain.WalletName, network domain.Network,
	) (*domain.Wallet, error)
	// Disconnect clears the active wallet. It's idempotent.
	Disconnect()
	SignPsbt(
		ctx context.Context, req domain.UnsignedPsbt, broadcast bool,
		handlers *SignHandlers,
	) (string, error)
	SignMessage(
		ctx context.Context, msg string, scheme domain.MessageScheme,
		handlers *SignHandlers,
	) (string, error)

	Wallet() *domain.Wallet
	Connected() bool
	Status() Status
	State() State
	// OrdinalsAddress is also known as the rune address.
	OrdinalsAddress() string
	PaymentAddress() string
	Addresses() []string

	AddListener(listener ActivityListener)
}

type walletService struct {
	connectors     map[domain.WalletName]ports.Connector
	connectTimeout time.Duration
	signTimeout    time.Duration

	lock       *sync.RWMutex
	wallet     *domain.Wallet
	status     Status
	generation uint64
	cancelOp   context.CancelFunc

	listenersLock *sync.RWMutex
	listeners     []ActivityListener
}

// NewWalletService returns a WalletService dispatching connections to the
// given connectors. Connect and sign calls are bound to the given timeouts,
// a non positive value disables the bound.
func NewWalletService(
	connectors []ports.Connector,
	connectTimeout, signTimeout time.Duration,
	listeners ...ActivityListener,
) WalletService {
	return newWalletService(connectors, connectTimeout, signTimeout, listeners...)
}

func newWalletService(
	connectors []ports.Connector,
	connectTimeout, signTimeout time.Duration,
	listeners ...ActivityListener,
) *walletService {
	return &walletService{
		connectors:     indexConnectors(connectors),
		connectTimeout: connectTimeout,
		signTimeout:    signTimeout,
		lock:           &sync.RWMutex{},
		status:         StatusIdle,
		listenersLock:  &sync.RWMutex{},
		listeners:      append([]ActivityListener{}, listeners...),
	}
}

func (s *walletService) Connect(
	ctx context.Context, name domain.WalletName, network domain.Network,
) (*domain.Wallet, error) {
	connector, ok := s.connectors[name]
	if !ok {
		return nil, domain.NewWalletError(
			name, "connect", domain.ErrUnsupportedWallet, nil,
		)
	}
	if !network.IsValid() {
		return nil, domain.NewWalletError(
			name, "connect", domain.ErrUnsupportedNetwork, nil,
		)
	}

	ctx, cancel := withTimeout(ctx, s.connectTimeout)
	defer cancel()

	generation, err := s.beginConnect(name, cancel)
	if err != nil {
		return nil, err
	}

	log.Debugf("connecting to %s on %s", name, network)

	wallet, err := connector.Connect(ctx, network)
	if err == nil && wallet == nil {
		err = domain.NewWalletError(
			name, "connect", domain.ErrConnectionFailed, ErrMissingWallet,
		)
	}

	prevWallet, aborted := s.endConnect(generation, wallet, err)
	if aborted {
		if wallet != nil {
			wallet.Revoke()
		}
		err = domain.NewWalletError(
			name, "connect", domain.ErrUserCancelled, ErrConnectionAborted,
		)
	}

	if err != nil {
		log.WithError(err).Warnf("failed to connect to %s", name)
		s.notify(
			domain.NewActivity(domain.ActivityConnectFailed, name, network).
				WithError(err),
		)
		return nil, err
	}

	if prevWallet != nil && prevWallet != wallet {
		prevWallet.Revoke()
	}

	log.Infof(
		"connected to %s on %s with address %s",
		name, network, wallet.PaymentAddress().Address,
	)
	activity := domain.NewActivity(domain.ActivityConnected, name, network)
	activity.Address = wallet.PaymentAddress().Address
	s.notify(activity)

	return wallet, nil
}

func (s *walletService) Disconnect() {
	s.lock.Lock()
	wallet := s.wallet
	cancel := s.cancelOp
	s.wallet = nil
	s.cancelOp = nil
	s.generation++
	s.lock.Unlock()

	if cancel != nil {
		cancel()
	}
	if wallet == nil {
		return
	}

	wallet.Revoke()
	log.Infof("disconnected from %s", wallet.WalletName())

	activity := domain.NewActivity(
		domain.ActivityDisconnected, wallet.WalletName(), wallet.Network(),
	)
	activity.Address = wallet.PaymentAddress().Address
	s.notify(activity)
}

func (s *walletService) SignPsbt(
	ctx context.Context, req domain.UnsignedPsbt, broadcast bool,
	handlers *SignHandlers,
) (string, error) {
	ctx, cancel := withTimeout(ctx, s.signTimeout)
	defer cancel()

	wallet, err := s.beginSigning(cancel)
	if err != nil {
		return "", err
	}

	signed, err := s.signPsbt(ctx, wallet, req, handlers)

	activityType := domain.ActivityPsbtSigned
	if err != nil {
		activityType = domain.ActivityPsbtSignFailed
		log.WithError(err).Warnf("failed to sign psbt with %s", wallet.WalletName())
	}
	activity := domain.NewActivity(
		activityType, wallet.WalletName(), wallet.Network(),
	).WithError(err)
	activity.Address = wallet.PaymentAddress().Address
	activity.Broadcast = broadcast
	s.notify(activity)

	return signed, err
}

func (s *walletService) SignMessage(
	ctx context.Context, msg string, scheme domain.MessageScheme,
	handlers *SignHandlers,
) (string, error) {
	ctx, cancel := withTimeout(ctx, s.signTimeout)
	defer cancel()

	wallet, err := s.beginSigning(cancel)
	if err != nil {
		return "", err
	}

	sig, err := s.signMessage(ctx, wallet, msg, scheme, handlers)

	activityType := domain.ActivityMessageSigned
	if err != nil {
		activityType = domain.ActivityMessageSignFailed
		log.WithError(err).Warnf(
			"failed to sign message with %s", wallet.WalletName(),
		)
	}
	activity := domain.NewActivity(
		activityType, wallet.WalletName(), wallet.Network(),
	).WithError(err)
	activity.Address = wallet.PaymentAddress().Address
	s.notify(activity)

	return sig, err
}

func (s *walletService) Wallet() *domain.Wallet {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.wallet
}

func (s *walletService) Connected() bool {
	return s.Wallet() != nil
}

func (s *walletService) Status() Status {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.status
}

func (s *walletService) State() State {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return State{
		Wallet:    s.wallet,
		Status:    s.status,
		Connected: s.wallet != nil,
	}
}

func (s *walletService) OrdinalsAddress() string {
	return s.State().OrdinalsAddress()
}

func (s *walletService) PaymentAddress() string {
	return s.State().PaymentAddress()
}

func (s *walletService) Addresses() []string {
	return s.State().Addresses()
}

func (s *walletService) AddListener(listener ActivityListener) {
	if listener == nil {
		return
	}
	s.listenersLock.Lock()
	defer s.listenersLock.Unlock()
	s.listeners = append(s.listeners, listener)
}

// beginConnect moves the state machine to loading, unless another operation
// is already in flight.
func (s *walletService) beginConnect(
	name domain.WalletName, cancel context.CancelFunc,
) (uint64, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.status == StatusLoading {
		return 0, domain.NewWalletError(
			name, "connect", domain.ErrConnectionInProgress, nil,
		)
	}
	s.status = StatusLoading
	s.cancelOp = cancel
	return s.generation, nil
}

// beginSigning checks for an active wallet before touching the status.
func (s *walletService) beginSigning(
	cancel context.CancelFunc,
) (*domain.Wallet, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.wallet == nil {
		return nil, domain.ErrWalletNotConnected
	}
	if s.status == StatusLoading {
		return nil, domain.NewWalletError(
			s.wallet.WalletName(), "", domain.ErrSigningInProgress, nil,
		)
	}
	s.status = StatusLoading
	s.cancelOp = cancel
	return s.wallet, nil
}

func (s *walletService) end() {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.status = StatusIdle
	s.cancelOp = nil
}

// endConnect stores the new wallet if the connection succeeded and was not
// aborted in the meantime. It returns the replaced wallet, if any.
func (s *walletService) endConnect(
	generation uint64, wallet *domain.Wallet, err error,
) (*domain.Wallet, bool) {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.status = StatusIdle
	s.cancelOp = nil

	if s.generation != generation {
		return nil, true
	}
	if err != nil || wallet == nil {
		return nil, false
	}

	prevWallet := s.wallet
	s.wallet = wallet
	return prevWallet, false
}

func (s *walletService) signPsbt(
	ctx context.Context, wallet *domain.Wallet, req domain.UnsignedPsbt,
	handlers *SignHandlers,
) (string, error) {
	defer s.end()

	signed, err := wallet.SignPsbt(ctx, req)
	if err != nil {
		handlers.failure(err)
		return "", err
	}
	handlers.success()
	return signed, nil
}

func (s *walletService) signMessage(
	ctx context.Context, wallet *domain.Wallet, msg string,
	scheme domain.MessageScheme, handlers *SignHandlers,
) (string, error) {
	defer s.end()

	sig, err := wallet.SignMessage(ctx, msg, scheme)
	if err != nil {
		handlers.failure(err)
		return "", err
	}
	handlers.success()
	return sig, nil
}

func (s *walletService) notify(activity domain.Activity) {
	s.listenersLock.RLock()
	listeners := append([]ActivityListener{}, s.listeners...)
	s.listenersLock.RUnlock()

	for _, l := range listeners {
		if err := l.OnActivity(activity); err != nil {
			log.WithError(err).Warnf("failed to handle %s activity", activity.Type)
		}
	}
}

func withTimeout(
	ctx context.Context, timeout time.Duration,
) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}
