package httpinterface

import (
	"sync"

	log "github.com/sirupsen/logrus"
	"github.com/tdex-network/btc-wallet-adapter/internal/core/application"
	"github.com/tdex-network/btc-wallet-adapter/internal/core/domain"
)

const subscriberBufferSize = 16

// eventHub fans out the activity of the wallet service, together with the
// resulting state, to the websocket subscribers.
type eventHub struct {
	state func() application.State

	lock        *sync.RWMutex
	subscribers map[chan event]struct{}
	closed      bool
}

func newEventHub(state func() application.State) *eventHub {
	return &eventHub{
		state:       state,
		lock:        &sync.RWMutex{},
		subscribers: make(map[chan event]struct{}),
	}
}

func (h *eventHub) OnActivity(a domain.Activity) error {
	act := toActivity(a)
	ev := event{Activity: &act, State: toStateResponse(h.state())}

	h.lock.RLock()
	defer h.lock.RUnlock()

	for ch := range h.subscribers {
		select {
		case ch <- ev:
		default:
			log.Warnf("events: dropped %s event for slow subscriber", a.Type)
		}
	}
	return nil
}

// subscribe returns a channel of events and the function to release it. The
// channel is closed once released or when the hub is closed.
func (h *eventHub) subscribe() (<-chan event, func()) {
	ch := make(chan event, subscriberBufferSize)

	h.lock.Lock()
	defer h.lock.Unlock()

	if h.closed {
		close(ch)
		return ch, func() {}
	}
	h.subscribers[ch] = struct{}{}

	once := &sync.Once{}
	return ch, func() {
		once.Do(func() {
			h.lock.Lock()
			defer h.lock.Unlock()
			if _, ok := h.subscribers[ch]; ok {
				delete(h.subscribers, ch)
				close(ch)
			}
		})
	}
}

func (h *eventHub) close() {
	h.lock.Lock()
	defer h.lock.Unlock()

	if h.closed {
		return
	}
	h.closed = true
	for ch := range h.subscribers {
		delete(h.subscribers, ch)
		close(ch)
	}
}
