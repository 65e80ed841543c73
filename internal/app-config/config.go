package appconfig

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/vulpemventures/softwallet/internal/config"
	"github.com/vulpemventures/softwallet/internal/core/application"
	"github.com/vulpemventures/softwallet/internal/core/domain"
	"github.com/vulpemventures/softwallet/internal/core/ports"
	"github.com/vulpemventures/softwallet/internal/infrastructure/metrics"
	timer_scheduler "github.com/vulpemventures/softwallet/internal/infrastructure/scheduler/timer"
	"github.com/vulpemventures/softwallet/internal/infrastructure/seed-cipher/aes256gcm"
	dbbadger "github.com/vulpemventures/softwallet/internal/infrastructure/storage/db/badger"
	"github.com/vulpemventures/softwallet/internal/infrastructure/storage/db/inmemory"
	postgresdb "github.com/vulpemventures/softwallet/internal/infrastructure/storage/db/postgres"
	sqlitedb "github.com/vulpemventures/softwallet/internal/infrastructure/storage/db/sqlite"
	"github.com/vulpemventures/softwallet/pkg/wallet/hd"
)

// AppConfig is the struct holding all configuration options for
// every application service (wallet, group, signing and notification).
// This data structure acts also as a factory of the mentioned application
// services and the portable services used by them.
// Public config args:
//   - Network - (required) The network used for bitcoin and liquid addresses.
//   - RepoManagerType - (required) One of the supported repository manager types.
//   - RepoManagerConfig - (optional) Custom config args for the repository manager based on its type.
//   - SessionTimeout - (optional) Inactivity timeout of the primary wallet (defaults to 5 minutes).
//   - GroupSessionTimeout - (optional) Timeout of any other unlocked group (defaults to none).
//   - KdfIterations - (optional) PBKDF2 iterations (defaults to aes256gcm.DefaultIterations).
//   - WithMetrics - (optional) Whether to collect prometheus metrics.
type AppConfig struct {
	Network             *hd.Network
	SessionTimeout      time.Duration
	GroupSessionTimeout time.Duration
	KdfIterations       int
	WithMetrics         bool

	RepoManagerType   string
	RepoManagerConfig interface{}

	rm         ports.RepoManager
	cipher     domain.SeedCipher
	scheduler  ports.Scheduler
	notifySvc  *application.NotificationService
	walletSvc  *application.WalletService
	groupSvc   *application.GroupService
	signingSvc *application.SigningService
	mtr        *metrics.Metrics
}

func (c *AppConfig) Validate() error {
	if c.Network == nil {
		return fmt.Errorf("missing network")
	}
	if c.SessionTimeout < 0 {
		return fmt.Errorf("session timeout must not be negative")
	}
	if c.GroupSessionTimeout < 0 {
		return fmt.Errorf("group session timeout must not be negative")
	}
	if len(c.RepoManagerType) == 0 {
		return fmt.Errorf("missing repo manager type")
	}
	if _, ok := config.SupportedDbs[c.RepoManagerType]; !ok {
		return fmt.Errorf(
			"repo manager type not supported, must be one of: %s",
			config.SupportedDbs,
		)
	}
	if _, err := c.seedCipher(); err != nil {
		return err
	}
	if _, err := c.repoManager(); err != nil {
		return err
	}

	return nil
}

func (c *AppConfig) RepoManager() ports.RepoManager {
	return c.rm
}

func (c *AppConfig) WalletService() *application.WalletService {
	return c.walletService()
}

func (c *AppConfig) GroupService() *application.GroupService {
	return c.groupService()
}

func (c *AppConfig) SigningService() *application.SigningService {
	return c.signingService()
}

func (c *AppConfig) NotificationService() *application.NotificationService {
	return c.notificationService()
}

// Metrics returns nil if metrics are disabled.
func (c *AppConfig) Metrics() *metrics.Metrics {
	return c.metrics()
}

func (c *AppConfig) repoManager() (ports.RepoManager, error) {
	if c.rm != nil {
		return c.rm, nil
	}

	switch c.RepoManagerType {
	case "inmemory":
		c.rm = inmemory.NewRepoManager()
		return c.rm, nil
	case "badger":
		if c.RepoManagerConfig == nil {
			return nil, fmt.Errorf("missing repo manager config args")
		}
		datadir, ok := c.RepoManagerConfig.(string)
		if !ok {
			return nil, fmt.Errorf("invalid repo manager config type, must be string")
		}
		rm, err := dbbadger.NewRepoManager(datadir, log.New())
		if err != nil {
			return nil, err
		}
		c.rm = rm
		return c.rm, nil
	case "sqlite":
		if c.RepoManagerConfig == nil {
			return nil, fmt.Errorf("missing repo manager config args")
		}
		datadir, ok := c.RepoManagerConfig.(string)
		if !ok {
			return nil, fmt.Errorf("invalid repo manager config type, must be string")
		}
		rm, err := sqlitedb.NewRepoManager(datadir)
		if err != nil {
			return nil, err
		}
		c.rm = rm
		return c.rm, nil
	case "postgres":
		dbConfig, ok := c.RepoManagerConfig.(postgresdb.DbConfig)
		if !ok {
			return nil, fmt.Errorf("invalid repo manager config type, must be postgresdb.DbConfig")
		}

		rm, err := postgresdb.NewRepoManager(dbConfig)
		if err != nil {
			return nil, err
		}

		c.rm = rm
		return c.rm, nil
	default:
		return nil, fmt.Errorf("unknown repo manager type")
	}
}

func (c *AppConfig) seedCipher() (domain.SeedCipher, error) {
	if c.cipher != nil {
		return c.cipher, nil
	}

	iterations := c.KdfIterations
	if iterations == 0 {
		iterations = aes256gcm.DefaultIterations
	}
	cipher, err := aes256gcm.NewAES256GCMCipher(iterations)
	if err != nil {
		return nil, err
	}
	c.cipher = cipher
	return c.cipher, nil
}

func (c *AppConfig) notificationService() *application.NotificationService {
	if c.notifySvc != nil {
		return c.notifySvc
	}

	rm, _ := c.repoManager()
	c.notifySvc = application.NewNotificationService(rm)
	return c.notifySvc
}

func (c *AppConfig) walletService() *application.WalletService {
	if c.walletSvc != nil {
		return c.walletSvc
	}

	if c.scheduler == nil {
		c.scheduler = timer_scheduler.NewScheduler()
	}
	rm, _ := c.repoManager()
	cipher, _ := c.seedCipher()
	c.walletSvc = application.NewWalletService(
		rm, cipher, c.scheduler, c.notificationService(), c.SessionTimeout,
	)
	if mtr := c.metrics(); mtr != nil {
		c.walletSvc.Subscribe(mtr.HandleWalletEvent)
	}
	return c.walletSvc
}

func (c *AppConfig) groupService() *application.GroupService {
	if c.groupSvc != nil {
		return c.groupSvc
	}

	c.groupSvc = application.NewGroupService(
		c.walletService(), c.GroupSessionTimeout,
	)
	return c.groupSvc
}

func (c *AppConfig) signingService() *application.SigningService {
	if c.signingSvc != nil {
		return c.signingSvc
	}

	c.signingSvc = application.NewSigningService(c.groupService(), c.Network)
	return c.signingSvc
}

func (c *AppConfig) metrics() *metrics.Metrics {
	if !c.WithMetrics {
		return nil
	}
	if c.mtr != nil {
		return c.mtr
	}

	c.mtr = metrics.NewMetrics(func() int {
		return len(c.groupService().UnlockedGroups(context.Background()))
	})
	return c.mtr
}
