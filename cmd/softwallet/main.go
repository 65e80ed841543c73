package main

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	appconfig "github.com/vulpemventures/softwallet/internal/app-config"
	"github.com/vulpemventures/softwallet/internal/config"
	postgresdb "github.com/vulpemventures/softwallet/internal/infrastructure/storage/db/postgres"
)

var (
	// Build info.
	version = "dev"
	commit  = "none"
	date    = "unknown"

	// Config from env vars.
	dbType              = config.GetString(config.DatabaseTypeKey)
	logLevel            = config.GetInt(config.LogLevelKey)
	network             = config.GetNetwork()
	dbDir               = config.GetDbDir()
	statsDir            = config.GetStatsDir()
	noProfiler          = config.GetBool(config.NoProfilerKey)
	sessionTimeout      = config.GetSessionTimeout()
	groupSessionTimeout = config.GetGroupSessionTimeout()
	kdfIterations       = config.GetInt(config.KdfIterationsKey)

	appCfg *appconfig.AppConfig

	rootCmd = &cobra.Command{
		Use:   "softwallet",
		Short: "CLI for softwallet",
		Long: "This CLI lets you manage the encrypted seeds of your wallet " +
			"groups and sign messages and transactions for EVM, Bitcoin, " +
			"Solana, TRON and Liquid accounts",
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			log.SetLevel(log.Level(logLevel))
			return initAppConfig()
		},
		SilenceUsage: true,
		Version:      formatVersion(),
	}
)

func init() {
	rootCmd.AddCommand(
		walletGenSeedCmd, walletSetupCmd, walletStatusCmd, walletChangePinCmd,
		walletResetCmd, groupCmd, accountCmd, signCmd,
	)
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		printErr(err)
		os.Exit(1)
	}
}

// run executes the command for the given args. Stats are dumped and the db
// is closed whether the command succeeds or not.
func run(args []string) error {
	defer closeAppConfig()

	rootCmd.SetArgs(args)
	return rootCmd.Execute()
}

func initAppConfig() error {
	var rmConfig interface{} = dbDir
	if dbType == "postgres" {
		rmConfig = postgresdb.DbConfig{
			DbUser:             config.GetString(config.DbUserKey),
			DbPassword:         config.GetString(config.DbPassKey),
			DbHost:             config.GetString(config.DbHostKey),
			DbPort:             config.GetInt(config.DbPortKey),
			DbName:             config.GetString(config.DbNameKey),
			MigrationSourceURL: config.GetString(config.DbMigrationPath),
		}
	}

	appCfg = &appconfig.AppConfig{
		Network:             network,
		SessionTimeout:      sessionTimeout,
		GroupSessionTimeout: groupSessionTimeout,
		KdfIterations:       kdfIterations,
		WithMetrics:         !noProfiler,
		RepoManagerType:     dbType,
		RepoManagerConfig:   rmConfig,
	}
	if err := appCfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func closeAppConfig() {
	if appCfg == nil {
		return
	}
	if mtr := appCfg.Metrics(); mtr != nil {
		if path, err := mtr.Dump(statsDir); err != nil {
			log.WithError(err).Warn("profiler: failed to dump stats")
		} else {
			log.Debugf("profiler: stats dumped to %s", path)
		}
	}
	if rm := appCfg.RepoManager(); rm != nil {
		rm.Close()
	}
	appCfg = nil
}
