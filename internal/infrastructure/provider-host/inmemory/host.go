package inmemoryhost

import (
	"sync"

	"github.com/tdex-network/btc-wallet-adapter/internal/core/ports"
)

// Host is a ports.ProviderHost whose providers are registered
// programmatically. Registering a nil provider uninstalls it.
type Host struct {
	lock      *sync.RWMutex
	unisat    ports.UnisatProvider
	xverse    ports.XverseProvider
	magicEden ports.MagicEdenProvider
}

func NewHost() *Host {
	return &Host{lock: &sync.RWMutex{}}
}

func (h *Host) Unisat() ports.UnisatProvider {
	h.lock.RLock()
	defer h.lock.RUnlock()
	return h.unisat
}

func (h *Host) Xverse() ports.XverseProvider {
	h.lock.RLock()
	defer h.lock.RUnlock()
	return h.xverse
}

func (h *Host) MagicEden() ports.MagicEdenProvider {
	h.lock.RLock()
	defer h.lock.RUnlock()
	return h.magicEden
}

func (h *Host) SetUnisat(p ports.UnisatProvider) {
	h.lock.Lock()
	defer h.lock.Unlock()
	h.unisat = p
}

func (h *Host) SetXverse(p ports.XverseProvider) {
	h.lock.Lock()
	defer h.lock.Unlock()
	h.xverse = p
}

func (h *Host) SetMagicEden(p ports.MagicEdenProvider) {
	h.lock.Lock()
	defer h.lock.Unlock()
	h.magicEden = p
}

// Clear uninstalls all providers.
func (h *Host) Clear() {
	h.lock.Lock()
	defer h.lock.Unlock()
	h.unisat = nil
	h.xverse = nil
	h.magicEden = nil
}
