package application

import (
	"github.com/tdex-network/btc-wallet-adapter/internal/core/domain"
	"github.com/tdex-network/btc-wallet-adapter/internal/core/ports"
)

// Detector checks which wallet extensions are installed. Results are never
// cached since extensions might be installed at any time.
type Detector struct {
	connectors map[domain.WalletName]ports.Connector
}

func NewDetector(connectors []ports.Connector) *Detector {
	return &Detector{indexConnectors(connectors)}
}

// Detect returns whether the extension of the given wallet registered its
// entry point. Unknown wallets are never detected.
func (d *Detector) Detect(name domain.WalletName) bool {
	connector, ok := d.connectors[name]
	if !ok {
		return false
	}
	return connector.Installed()
}

func (d *Detector) DetectAll() map[domain.WalletName]bool {
	detections := make(map[domain.WalletName]bool, len(domain.SupportedWallets))
	for _, name := range domain.SupportedWallets {
		detections[name] = d.Detect(name)
	}
	return detections
}

// Wallets returns the info of all supported wallets, in presentation order.
func (d *Detector) Wallets() []WalletInfo {
	wallets := make([]WalletInfo, 0, len(domain.SupportedWallets))
	for _, name := range domain.SupportedWallets {
		wallets = append(wallets, WalletInfo{
			Name:        name,
			DisplayName: name.DisplayName(),
			Detected:    d.Detect(name),
		})
	}
	return wallets
}

func indexConnectors(
	connectors []ports.Connector,
) map[domain.WalletName]ports.Connector {
	m := make(map[domain.WalletName]ports.Connector, len(connectors))
	for _, c := range connectors {
		if c == nil {
			continue
		}
		m[c.Name()] = c
	}
	return m
}
