package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/spf13/viper"
	"github.com/vulpemventures/softwallet/internal/infrastructure/seed-cipher/aes256gcm"
	"github.com/vulpemventures/softwallet/pkg/wallet/hd"
)

const (
	// DatadirKey is the key to customize the softwallet datadir.
	DatadirKey = "DATADIR"
	// DatabaseTypeKey is the key to customize the type of database to use.
	DatabaseTypeKey = "DATABASE_TYPE"
	// NetworkKey is the key to customize the network (mainnet, testnet or
	// regtest) used to derive bitcoin and liquid accounts.
	NetworkKey = "NETWORK"
	// LogLevelKey is the key to customize the log level to catch more specific
	// or more high level logs.
	LogLevelKey = "LOG_LEVEL"
	// SessionTimeoutKey is the key to customize the inactivity timeout after
	// which the primary wallet is locked.
	SessionTimeoutKey = "SESSION_TIMEOUT_IN_SECONDS"
	// GroupSessionTimeoutKey is the key to customize the timeout after which
	// any other unlocked wallet group is locked. 0 means no timeout.
	GroupSessionTimeoutKey = "GROUP_SESSION_TIMEOUT_IN_SECONDS"
	// KdfIterationsKey is the key to customize the pbkdf2 iteration count used
	// to derive encryption keys from pins.
	KdfIterationsKey = "KDF_ITERATIONS"
	// NoProfilerKey is the key to disable Prometheus metrics.
	NoProfilerKey = "NO_PROFILER"
	// StatsDirKey is the key to customize where metrics are dumped on exit.
	StatsDirKey = "STATS_DIR"

	// DbLocation is the folder inside the datadir containing db files.
	DbLocation = "db"
	// ProfilerLocation is the folder inside the datadir containing profiler
	// stats files.
	ProfilerLocation = "stats"
	// DbUserKey is user used to connect to db
	DbUserKey = "DB_USER"
	// DbPassKey is password used to connect to db
	DbPassKey = "DB_PASS"
	// DbHostKey is host where db is installed
	DbHostKey = "DB_HOST"
	// DbPortKey is port on which db is listening
	DbPortKey = "DB_PORT"
	// DbNameKey is name of database
	DbNameKey = "DB_NAME"
	// DbMigrationPath is the path to migration files
	DbMigrationPath = "DB_MIGRATION_PATH"
)

var (
	vip *viper.Viper

	defaultDatadir             = btcutil.AppDataDir("softwallet", false)
	defaultDbType              = "badger"
	defaultLogLevel            = 4
	defaultNetwork             = hd.Mainnet.Name
	defaultSessionTimeout      = 300 // 5 minutes
	defaultGroupSessionTimeout = 0
	defaultKdfIterations       = aes256gcm.DefaultIterations

	SupportedDbs = supportedType{
		"badger":   {},
		"inmemory": {},
		"postgres": {},
		"sqlite":   {},
	}
)

func init() {
	vip = viper.New()
	vip.SetEnvPrefix("SOFTWALLET")
	vip.AutomaticEnv()

	vip.SetDefault(DatadirKey, defaultDatadir)
	vip.SetDefault(DatabaseTypeKey, defaultDbType)
	vip.SetDefault(NetworkKey, defaultNetwork)
	vip.SetDefault(LogLevelKey, defaultLogLevel)
	vip.SetDefault(SessionTimeoutKey, defaultSessionTimeout)
	vip.SetDefault(GroupSessionTimeoutKey, defaultGroupSessionTimeout)
	vip.SetDefault(KdfIterationsKey, defaultKdfIterations)
	vip.SetDefault(NoProfilerKey, false)
	vip.SetDefault(DbUserKey, "root")
	vip.SetDefault(DbPassKey, "secret")
	vip.SetDefault(DbHostKey, "127.0.0.1")
	vip.SetDefault(DbPortKey, 5432)
	vip.SetDefault(DbNameKey, "softwallet-db-pg")
	vip.SetDefault(DbMigrationPath, "file://internal/infrastructure/storage/db/postgres/migration")

	if err := Validate(); err != nil {
		log.Fatalf("invalid config: %s", err)
	}

	if err := initDatadir(); err != nil {
		log.Fatalf("config: error while creating datadir: %s", err)
	}
}

// Validate checks the current configuration.
func Validate() error {
	datadir := GetString(DatadirKey)
	if len(datadir) <= 0 {
		return fmt.Errorf("datadir must not be null")
	}

	net := GetString(NetworkKey)
	if len(net) == 0 {
		return fmt.Errorf("network must not be null")
	}
	if _, err := hd.NetworkFromName(net); err != nil {
		return fmt.Errorf(
			"unknown network, must be one of: %v", hd.SupportedNetworks(),
		)
	}

	dbType := GetString(DatabaseTypeKey)
	if _, ok := SupportedDbs[dbType]; !ok {
		return fmt.Errorf("unsupported database type, must be one of %s", SupportedDbs)
	}

	if GetInt(SessionTimeoutKey) <= 0 {
		return fmt.Errorf("session timeout must be a positive number of seconds")
	}
	if GetInt(GroupSessionTimeoutKey) < 0 {
		return fmt.Errorf("group session timeout must not be negative")
	}
	if GetInt(KdfIterationsKey) < aes256gcm.MinIterations {
		return fmt.Errorf(
			"kdf iterations must be at least %d", aes256gcm.MinIterations,
		)
	}

	return nil
}

func GetDatadir() string {
	return filepath.Join(GetString(DatadirKey), GetString(NetworkKey))
}

func GetDbDir() string {
	return filepath.Join(GetDatadir(), DbLocation)
}

func GetStatsDir() string {
	if dir := GetString(StatsDirKey); dir != "" {
		return dir
	}
	return filepath.Join(GetDatadir(), ProfilerLocation)
}

func GetNetwork() *hd.Network {
	net, _ := hd.NetworkFromName(GetString(NetworkKey))
	return net
}

func GetSessionTimeout() time.Duration {
	return time.Duration(GetInt(SessionTimeoutKey)) * time.Second
}

func GetGroupSessionTimeout() time.Duration {
	return time.Duration(GetInt(GroupSessionTimeoutKey)) * time.Second
}

func GetString(key string) string {
	return vip.GetString(key)
}

func GetInt(key string) int {
	return vip.GetInt(key)
}

func GetBool(key string) bool {
	return vip.GetBool(key)
}

func Set(key string, val interface{}) {
	vip.Set(key, val)
}

func Unset(key string) {
	vip.Set(key, nil)
}

func IsSet(key string) bool {
	return vip.IsSet(key)
}

func initDatadir() error {
	if GetString(DatabaseTypeKey) == "inmemory" {
		return nil
	}
	if err := makeDirectoryIfNotExists(GetDbDir()); err != nil {
		return err
	}

	noProfiler := GetBool(NoProfilerKey)
	if !noProfiler {
		if err := makeDirectoryIfNotExists(GetStatsDir()); err != nil {
			return err
		}
	}
	return nil
}

func makeDirectoryIfNotExists(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return os.MkdirAll(path, os.ModeDir|0700)
	}
	return nil
}

type supportedType map[string]struct{}

func (t supportedType) String() string {
	types := make([]string, 0, len(t))
	for tt := range t {
		types = append(types, tt)
	}
	sort.Strings(types)
	return strings.Join(types, " | ")
}
