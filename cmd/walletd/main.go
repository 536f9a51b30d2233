package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/tdex-network/btc-wallet-adapter/internal/config"
	"github.com/tdex-network/btc-wallet-adapter/internal/core/application"
	"github.com/tdex-network/btc-wallet-adapter/internal/core/domain"
	"github.com/tdex-network/btc-wallet-adapter/internal/infrastructure/connector"
	"github.com/tdex-network/btc-wallet-adapter/internal/infrastructure/metrics"
	bridgehost "github.com/tdex-network/btc-wallet-adapter/internal/infrastructure/provider-host/bridge"
	badgerdb "github.com/tdex-network/btc-wallet-adapter/internal/infrastructure/storage/db/badger"
	inmemorydb "github.com/tdex-network/btc-wallet-adapter/internal/infrastructure/storage/db/inmemory"
	httpinterface "github.com/tdex-network/btc-wallet-adapter/internal/interfaces/http"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"

	app = &cobra.Command{
		Use:           "walletd",
		Short:         "bitcoin browser wallet adapter daemon",
		Long:          "walletd connects to the UniSat, Xverse and Magic Eden extensions of a paired browser page and exposes them through a single HTTP API",
		Version:       formatVersion(),
		RunE:          action,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

func init() {
	flags := app.Flags()
	flags.String("datadir", "", "the directory where to store the daemon's state")
	flags.Int("log-level", int(log.InfoLevel), "the logrus level, from 0 (panic) to 6 (trace)")
	flags.Int("http-listening-port", 7070, "the port where the HTTP interface listens on")
	flags.String("db-type", config.DBBadger, "the activity store, either badger or inmemory")
	flags.String("default-network", domain.NetworkTestnet.String(), "the network used when not specified by a connect request")
	flags.StringSlice("bridge-allowed-origins", nil, "the origins allowed to open a websocket with the daemon")
}

func main() {
	if err := app.Execute(); err != nil {
		log.Fatal(err)
	}
}

func action(cmd *cobra.Command, _ []string) error {
	if err := config.InitConfig(cmd.Flags()); err != nil {
		return err
	}
	log.SetLevel(log.Level(config.GetInt(config.LogLevelKey)))

	activityRepo, err := newActivityRepository()
	if err != nil {
		return fmt.Errorf("error while opening activity store: %s", err)
	}
	defer activityRepo.Close()

	pairing, err := bridgehost.NewPairing(config.GetString(config.BridgeSecretKey))
	if err != nil {
		return err
	}
	bridge := bridgehost.NewHost()
	defer bridge.Close()

	connectors := connector.NewConnectors(bridge)
	walletSvc := application.NewWalletService(
		connectors,
		config.GetDuration(config.ConnectTimeoutKey),
		config.GetDuration(config.SignTimeoutKey),
		application.NewActivityRecorder(activityRepo),
	)

	var metricsListener *metrics.Listener
	if config.GetBool(config.EnableMetricsKey) {
		metricsListener = metrics.NewListener()
		walletSvc.AddListener(metricsListener)
	}

	httpSvc, err := httpinterface.NewService(httpinterface.ServiceOpts{
		Address:         fmt.Sprintf(":%d", config.GetInt(config.HTTPListeningPortKey)),
		WalletSvc:       walletSvc,
		Detector:        application.NewDetector(connectors),
		ActivityRepo:    activityRepo,
		Bridge:          bridge,
		Pairing:         pairing,
		AllowedOrigins:  config.GetAllowedOrigins(),
		Metrics:         metricsListener,
		DefaultNetwork:  config.GetDefaultNetwork(),
		PromptRateLimit: config.GetInt(config.PromptRateLimitKey),
	})
	if err != nil {
		return err
	}

	token, err := pairing.IssueToken(config.GetDuration(config.BridgeTokenTTLKey))
	if err != nil {
		return err
	}

	if err := httpSvc.Start(); err != nil {
		return fmt.Errorf("error while starting HTTP interface: %s", err)
	}
	defer httpSvc.Stop()

	log.Infof(
		"HTTP interface is listening on :%d", config.GetInt(config.HTTPListeningPortKey),
	)
	log.Infof(
		"pair the bridge page with ws://localhost:%d/v1/bridge?token=%s",
		config.GetInt(config.HTTPListeningPortKey), token,
	)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT, os.Interrupt)
	<-sigChan

	log.Info("shutting down daemon")
	walletSvc.Disconnect()

	return nil
}

func newActivityRepository() (domain.ActivityRepository, error) {
	if config.GetString(config.DBTypeKey) == config.DBInmemory {
		return inmemorydb.NewActivityRepositoryImpl(), nil
	}
	return badgerdb.NewActivityRepositoryImpl(config.GetDbDir(), log.StandardLogger())
}

func formatVersion() string {
	return fmt.Sprintf(
		"Version: %s\nCommit: %s\nDate: %s",
		version, commit, date,
	)
}
