package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/tdex-network/btc-wallet-adapter/internal/core/domain"
)

const namespace = "wallet_adapter"

// Listener keeps prometheus collectors up to date with the activity of the
// wallet service.
type Listener struct {
	registry   *prometheus.Registry
	operations *prometheus.CounterVec
	failures   *prometheus.CounterVec
	connected  *prometheus.GaugeVec
	providers  *prometheus.GaugeVec
}

// NewListener registers the collectors, plus the go runtime and process
// ones, on a dedicated registry.
func NewListener() *Listener {
	l := &Listener{
		registry: prometheus.NewRegistry(),
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Number of settled operations by wallet and type.",
		}, []string{"wallet", "type"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "failures_total",
			Help:      "Number of failed operations by wallet and error kind.",
		}, []string{"wallet", "kind"}),
		connected: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "connected",
			Help:      "Whether a wallet is currently connected.",
		}, []string{"wallet", "network"}),
		providers: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "provider_detected",
			Help:      "Whether the extension of a wallet is currently detected.",
		}, []string{"wallet"}),
	}

	l.registry.MustRegister(
		l.operations, l.failures, l.connected, l.providers,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return l
}

func (l *Listener) Registry() *prometheus.Registry {
	return l.registry
}

func (l *Listener) OnActivity(activity domain.Activity) error {
	wallet := activity.Wallet.String()
	l.operations.WithLabelValues(wallet, string(activity.Type)).Inc()

	if activity.Failed() {
		l.failures.WithLabelValues(wallet, activity.ErrorKind).Inc()
	}

	switch activity.Type {
	case domain.ActivityConnected:
		l.connected.Reset()
		l.connected.WithLabelValues(wallet, string(activity.Network)).Set(1)
	case domain.ActivityDisconnected:
		l.connected.Reset()
	}
	return nil
}

// SetDetected records the outcome of a provider detection.
func (l *Listener) SetDetected(detections map[domain.WalletName]bool) {
	for name, detected := range detections {
		value := 0.0
		if detected {
			value = 1
		}
		l.providers.WithLabelValues(name.String()).Set(value)
	}
}
