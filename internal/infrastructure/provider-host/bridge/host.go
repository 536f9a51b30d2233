package bridgehost

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"github.com/tdex-network/btc-wallet-adapter/internal/core/domain"
	"github.com/tdex-network/btc-wallet-adapter/internal/core/ports"
	"github.com/tdex-network/btc-wallet-adapter/pkg/circuitbreaker"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

var (
	// ErrSessionReplaced is the reason a session is closed when another page
	// pairs with the host.
	ErrSessionReplaced = errors.New("bridge session replaced by a new one")
)

// Host is a ports.ProviderHost relaying every provider call to a paired
// browser page, that owns the real extension entry points, over a websocket.
// At most one page is paired at any time, the last one wins.
type Host struct {
	lock    *sync.RWMutex
	session *session
	breaker *gobreaker.CircuitBreaker
}

func NewHost() *Host {
	return &Host{
		lock:    &sync.RWMutex{},
		breaker: circuitbreaker.NewCircuitBreaker("bridge"),
	}
}

// Serve pairs the host with the page at the other end of the given
// connection and blocks until the connection drops. Calls in flight when
// that happens fail with ports.ErrProviderUnavailable.
func (h *Host) Serve(conn *websocket.Conn) error {
	s := newSession(conn)

	h.lock.Lock()
	prev := h.session
	h.session = s
	h.lock.Unlock()

	if prev != nil {
		prev.close(ErrSessionReplaced)
	}

	log.Info("bridge: page paired")

	err := s.run()

	h.lock.Lock()
	if h.session == s {
		h.session = nil
	}
	h.lock.Unlock()

	log.WithError(err).Info("bridge: page unpaired")
	return err
}

// Close drops the current session, if any.
func (h *Host) Close() {
	h.lock.Lock()
	s := h.session
	h.session = nil
	h.lock.Unlock()

	if s != nil {
		s.close(nil)
	}
}

// Paired returns whether a page is currently connected.
func (h *Host) Paired() bool {
	return h.current() != nil
}

// Providers returns the wallets whose entry point was announced by the
// paired page.
func (h *Host) Providers() []domain.WalletName {
	s := h.current()
	if s == nil {
		return nil
	}
	return s.announced()
}

func (h *Host) Unisat() ports.UnisatProvider {
	if !h.has(domain.WalletUnisat) {
		return nil
	}
	return &unisatProxy{h}
}

func (h *Host) Xverse() ports.XverseProvider {
	if !h.has(domain.WalletXverse) {
		return nil
	}
	return &xverseProxy{h}
}

func (h *Host) MagicEden() ports.MagicEdenProvider {
	if !h.has(domain.WalletMagicEden) {
		return nil
	}
	return &magicEdenProxy{h}
}

func (h *Host) current() *session {
	h.lock.RLock()
	defer h.lock.RUnlock()
	return h.session
}

func (h *Host) has(name domain.WalletName) bool {
	s := h.current()
	return s != nil && s.has(name)
}

// call sends a call message to the paired page and waits for its result.
// Only transport failures are counted by the circuit breaker, errors reported
// by the extension are not.
func (h *Host) call(
	ctx context.Context, provider domain.WalletName, method string,
	params ...interface{},
) (json.RawMessage, error) {
	s := h.current()
	if s == nil || !s.has(provider) {
		return nil, ports.ErrProviderUnavailable
	}

	if params == nil {
		params = []interface{}{}
	}
	msg := message{
		Type:     msgTypeCall,
		ID:       uuid.New().String(),
		Provider: provider,
		Method:   method,
		Params:   params,
	}

	chRes := s.register(msg.ID)
	defer s.unregister(msg.ID)

	if _, err := h.breaker.Execute(func() (interface{}, error) {
		return nil, s.write(msg)
	}); err != nil {
		log.WithError(err).Warnf("bridge: failed to relay %s.%s", provider, method)
		return nil, fmt.Errorf("%w: %s", ports.ErrProviderUnavailable, err)
	}

	log.Debugf("bridge: relayed %s.%s call %s", provider, method, msg.ID)

	select {
	case res := <-chRes:
		if res.Error != nil {
			return nil, res.Error
		}
		return res.Result, nil
	case <-s.done:
		return nil, ports.ErrProviderUnavailable
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

type session struct {
	conn      *websocket.Conn
	writeLock *sync.Mutex

	lock      *sync.RWMutex
	providers map[domain.WalletName]bool
	pending   map[string]chan message

	closeOnce *sync.Once
	done      chan struct{}
	reason    error
}

func newSession(conn *websocket.Conn) *session {
	return &session{
		conn:      conn,
		writeLock: &sync.Mutex{},
		lock:      &sync.RWMutex{},
		providers: make(map[domain.WalletName]bool),
		pending:   make(map[string]chan message),
		closeOnce: &sync.Once{},
		done:      make(chan struct{}),
	}
}

func (s *session) run() error {
	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	go s.keepAlive()

	for {
		var msg message
		if err := s.conn.ReadJSON(&msg); err != nil {
			if isDecodeError(err) {
				log.WithError(err).Warn("bridge: dropped malformed message")
				continue
			}
			s.close(err)
			return s.err()
		}

		switch msg.Type {
		case msgTypeProviders:
			s.announce(msg.Providers)
		case msgTypeResult:
			s.deliver(msg)
		default:
			log.Warnf("bridge: dropped message of unknown type %q", msg.Type)
		}
	}
}

func (s *session) keepAlive() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.writeLock.Lock()
			err := s.conn.WriteControl(
				websocket.PingMessage, nil, time.Now().Add(writeWait),
			)
			s.writeLock.Unlock()
			if err != nil {
				s.close(err)
				return
			}
		case <-s.done:
			return
		}
	}
}

func (s *session) write(msg message) error {
	select {
	case <-s.done:
		return s.err()
	default:
	}

	s.writeLock.Lock()
	defer s.writeLock.Unlock()

	s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteJSON(msg)
}

func (s *session) close(reason error) {
	s.closeOnce.Do(func() {
		s.lock.Lock()
		s.reason = reason
		s.lock.Unlock()

		s.writeLock.Lock()
		s.conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(writeWait),
		)
		s.writeLock.Unlock()

		s.conn.Close()
		close(s.done)
	})
}

func (s *session) err() error {
	s.lock.RLock()
	defer s.lock.RUnlock()
	if s.reason == nil {
		return ports.ErrProviderUnavailable
	}
	return s.reason
}

func (s *session) announce(providers []domain.WalletName) {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.providers = make(map[domain.WalletName]bool, len(providers))
	for _, name := range providers {
		if !name.IsValid() {
			log.Warnf("bridge: ignored unknown provider %q", name)
			continue
		}
		s.providers[name] = true
	}
	log.Debugf("bridge: page announced %d provider(s)", len(s.providers))
}

func (s *session) announced() []domain.WalletName {
	s.lock.RLock()
	defer s.lock.RUnlock()

	providers := make([]domain.WalletName, 0, len(s.providers))
	for _, name := range domain.SupportedWallets {
		if s.providers[name] {
			providers = append(providers, name)
		}
	}
	return providers
}

func (s *session) has(name domain.WalletName) bool {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.providers[name]
}

func (s *session) register(id string) chan message {
	ch := make(chan message, 1)
	s.lock.Lock()
	s.pending[id] = ch
	s.lock.Unlock()
	return ch
}

func (s *session) unregister(id string) {
	s.lock.Lock()
	delete(s.pending, id)
	s.lock.Unlock()
}

func (s *session) deliver(msg message) {
	s.lock.RLock()
	ch, ok := s.pending[msg.ID]
	s.lock.RUnlock()

	if !ok {
		log.Debugf("bridge: dropped result of unknown call %s", msg.ID)
		return
	}
	select {
	case ch <- msg:
	default:
	}
}

func isDecodeError(err error) bool {
	var typeErr *json.UnmarshalTypeError
	var syntaxErr *json.SyntaxError
	return errors.As(err, &typeErr) || errors.As(err, &syntaxErr)
}
