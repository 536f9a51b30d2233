package httpinterface

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/tdex-network/btc-wallet-adapter/internal/core/application"
	"github.com/tdex-network/btc-wallet-adapter/internal/core/domain"
	"github.com/tdex-network/btc-wallet-adapter/internal/infrastructure/metrics"
	bridgehost "github.com/tdex-network/btc-wallet-adapter/internal/infrastructure/provider-host/bridge"
	"github.com/tdex-network/btc-wallet-adapter/internal/interfaces"
)

const shutdownTimeout = 5 * time.Second

type ServiceOpts struct {
	Address string

	WalletSvc    application.WalletService
	Detector     *application.Detector
	ActivityRepo domain.ActivityRepository

	// Bridge and Pairing are optional, the bridge endpoint is disabled if
	// either is missing.
	Bridge         *bridgehost.Host
	Pairing        *bridgehost.Pairing
	AllowedOrigins []string

	// Metrics is optional, /metrics is not served if missing.
	Metrics *metrics.Listener

	DefaultNetwork domain.Network
	// PromptRateLimit is the max number of connect and sign requests per
	// second. A non positive value disables the limit.
	PromptRateLimit int
}

func (o ServiceOpts) validate() error {
	if o.WalletSvc == nil {
		return fmt.Errorf("missing wallet service")
	}
	if o.Detector == nil {
		return fmt.Errorf("missing provider detector")
	}
	if o.ActivityRepo == nil {
		return fmt.Errorf("missing activity repository")
	}
	if o.DefaultNetwork != "" && !o.DefaultNetwork.IsValid() {
		return fmt.Errorf("%w: %s", domain.ErrUnsupportedNetwork, o.DefaultNetwork)
	}
	if (o.Bridge == nil) != (o.Pairing == nil) {
		return fmt.Errorf("bridge host and pairing must be either both defined or not")
	}
	return nil
}

type service struct {
	opts     ServiceOpts
	handler  *handler
	server   *http.Server
	listener net.Listener
}

func NewService(opts ServiceOpts) (interfaces.Service, error) {
	if err := opts.validate(); err != nil {
		return nil, fmt.Errorf("invalid opts: %s", err)
	}
	if opts.Address == "" {
		return nil, fmt.Errorf("invalid opts: missing listening address")
	}

	h := newHandler(opts)
	return &service{
		opts:    opts,
		handler: h,
		server: &http.Server{
			Handler:           h.routes(),
			ReadHeaderTimeout: 10 * time.Second,
		},
	}, nil
}

// NewHandler returns the routes of the interface without starting any
// server, for embedding or testing.
func NewHandler(opts ServiceOpts) (http.Handler, error) {
	if err := opts.validate(); err != nil {
		return nil, fmt.Errorf("invalid opts: %s", err)
	}
	return newHandler(opts).routes(), nil
}

func (s *service) Start() error {
	listener, err := net.Listen("tcp", s.opts.Address)
	if err != nil {
		return err
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil &&
			!errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("http interface stopped unexpectedly")
		}
	}()

	log.Infof("http interface listening on %s", listener.Addr())
	return nil
}

func (s *service) Stop() {
	s.handler.events.close()

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := s.server.Shutdown(ctx); err != nil {
		log.WithError(err).Warn("failed to gracefully stop http interface")
	}
	log.Debug("disabled http interface")
}
