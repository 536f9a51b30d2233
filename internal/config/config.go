package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/btcsuite/btcd/btcutil"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/tdex-network/btc-wallet-adapter/internal/core/domain"
	"github.com/thanhpk/randstr"
)

const (
	// DatadirKey is the local data directory to store the internal state of daemon
	DatadirKey = "DATADIR"
	// LogLevelKey are the different logging levels. For reference on the values https://godoc.org/github.com/sirupsen/logrus#Level
	LogLevelKey = "LOG_LEVEL"
	// HTTPListeningPortKey is the port where the HTTP interface will listen on
	HTTPListeningPortKey = "HTTP_LISTENING_PORT"
	// DBTypeKey is used to switch database type between those supported
	DBTypeKey = "DB_TYPE"
	// DefaultNetworkKey is the network used by connect requests that don't
	// specify one. Either "mainnet" or "testnet"
	DefaultNetworkKey = "DEFAULT_NETWORK"
	// ConnectTimeoutKey bounds the time the user has to approve a connection
	ConnectTimeoutKey = "CONNECT_TIMEOUT"
	// SignTimeoutKey bounds the time the user has to approve a signature
	SignTimeoutKey = "SIGN_TIMEOUT"
	// BridgeSecretKey is the secret used to sign the pairing tokens of the
	// bridge page. A random one is generated at every start if not set
	BridgeSecretKey = "BRIDGE_SECRET"
	// BridgeTokenTTLKey is the validity of the pairing token logged at startup
	BridgeTokenTTLKey = "BRIDGE_TOKEN_TTL"
	// BridgeAllowedOriginsKey is the list of origins allowed to open a websocket
	// with the daemon
	BridgeAllowedOriginsKey = "BRIDGE_ALLOWED_ORIGINS"
	// PromptRateLimitKey is the max number of requests per second that can
	// prompt the user
	PromptRateLimitKey = "PROMPT_RATE_LIMIT"
	// EnableMetricsKey exposes prometheus metrics on /metrics
	EnableMetricsKey = "ENABLE_METRICS"

	DbLocation = "db"

	DBBadger   = "badger"
	DBInmemory = "inmemory"
)

var (
	vip            *viper.Viper
	defaultDatadir = btcutil.AppDataDir("wallet-adapter", false)

	supportedDBTypes = map[string]bool{
		DBBadger:   true,
		DBInmemory: true,
	}
)

// InitConfig loads the config from env vars. Flags of the given set, if any,
// override the corresponding env var, ie. --http-listening-port overrides
// WALLET_HTTP_LISTENING_PORT.
func InitConfig(flags *pflag.FlagSet) error {
	vip = viper.New()
	vip.SetEnvPrefix("WALLET")
	vip.AutomaticEnv()

	if flags != nil {
		var err error
		flags.VisitAll(func(flag *pflag.Flag) {
			key := strings.ToUpper(strings.ReplaceAll(flag.Name, "-", "_"))
			if bindErr := vip.BindPFlag(key, flag); bindErr != nil && err == nil {
				err = bindErr
			}
		})
		if err != nil {
			return fmt.Errorf("error while binding flags: %s", err)
		}
	}

	vip.SetDefault(DatadirKey, defaultDatadir)
	vip.SetDefault(LogLevelKey, int(log.InfoLevel))
	vip.SetDefault(HTTPListeningPortKey, 7070)
	vip.SetDefault(DBTypeKey, DBBadger)
	vip.SetDefault(DefaultNetworkKey, domain.NetworkTestnet.String())
	vip.SetDefault(ConnectTimeoutKey, 2*time.Minute)
	vip.SetDefault(SignTimeoutKey, 5*time.Minute)
	vip.SetDefault(BridgeTokenTTLKey, 24*time.Hour)
	vip.SetDefault(PromptRateLimitKey, 2)
	vip.SetDefault(EnableMetricsKey, true)

	if err := validate(); err != nil {
		return fmt.Errorf("error while validating config: %s", err)
	}

	if !vip.IsSet(BridgeSecretKey) || GetString(BridgeSecretKey) == "" {
		vip.Set(BridgeSecretKey, randstr.Hex(32))
	}

	if err := initDatadir(); err != nil {
		return fmt.Errorf("error while creating datadir: %s", err)
	}

	return nil
}

func Set(key string, value interface{}) {
	vip.Set(key, value)
}

func GetString(key string) string {
	return vip.GetString(key)
}

func GetInt(key string) int {
	return vip.GetInt(key)
}

func GetStringSlice(key string) []string {
	return vip.GetStringSlice(key)
}

func GetDuration(key string) time.Duration {
	return vip.GetDuration(key)
}

func GetBool(key string) bool {
	return vip.GetBool(key)
}

func GetDatadir() string {
	return GetString(DatadirKey)
}

func GetDbDir() string {
	return filepath.Join(GetDatadir(), DbLocation)
}

func GetDefaultNetwork() domain.Network {
	network, _ := domain.ParseNetwork(GetString(DefaultNetworkKey))
	return network
}

// GetAllowedOrigins accepts both a list and a comma separated string.
func GetAllowedOrigins() []string {
	origins := make([]string, 0)
	for _, entry := range GetStringSlice(BridgeAllowedOriginsKey) {
		for _, origin := range strings.Split(entry, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				origins = append(origins, origin)
			}
		}
	}
	return origins
}

func validate() error {
	datadir := GetString(DatadirKey)
	if len(datadir) <= 0 {
		return fmt.Errorf("missing datadir")
	}

	dbType := GetString(DBTypeKey)
	if !supportedDBTypes[dbType] {
		return fmt.Errorf(
			"%s must be one of %s, %s", DBTypeKey, DBBadger, DBInmemory,
		)
	}

	if _, err := domain.ParseNetwork(GetString(DefaultNetworkKey)); err != nil {
		return fmt.Errorf("invalid %s: %s", DefaultNetworkKey, err)
	}

	for _, key := range []string{ConnectTimeoutKey, SignTimeoutKey} {
		if GetDuration(key) < 0 {
			return fmt.Errorf("%s must not be negative", key)
		}
	}
	if GetDuration(BridgeTokenTTLKey) <= 0 {
		return fmt.Errorf("%s must be greater than zero", BridgeTokenTTLKey)
	}

	if GetInt(PromptRateLimitKey) < 0 {
		return fmt.Errorf("%s must not be negative", PromptRateLimitKey)
	}

	return nil
}

func initDatadir() error {
	datadir := GetDatadir()
	if GetString(DBTypeKey) == DBBadger {
		return makeDirectoryIfNotExists(filepath.Join(datadir, DbLocation))
	}
	return makeDirectoryIfNotExists(datadir)
}

func makeDirectoryIfNotExists(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return os.MkdirAll(path, os.ModeDir|0755)
	}
	return nil
}
