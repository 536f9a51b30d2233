package ports

import (
	"context"

	"github.com/tdex-network/btc-wallet-adapter/internal/core/domain"
)

// Connector negotiates a connection with a specific extension and maps it to
// the canonical wallet representation.
type Connector interface {
	Name() domain.WalletName
	// Installed reports whether the extension entry point is registered.
	Installed() bool
	Connect(ctx context.Context, network domain.Network) (*domain.Wallet, error)
}
