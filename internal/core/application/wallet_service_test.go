package application_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/vulpemventures/softwallet/internal/core/application"
	"github.com/vulpemventures/softwallet/internal/core/domain"
	"github.com/vulpemventures/softwallet/internal/core/ports"
	"github.com/vulpemventures/softwallet/internal/infrastructure/seed-cipher/aes256gcm"
	"github.com/vulpemventures/softwallet/internal/infrastructure/storage/db/inmemory"
	"github.com/vulpemventures/softwallet/pkg/wallet/hd"
	"github.com/vulpemventures/softwallet/pkg/wallet/mnemonic"
)

var (
	ctx = context.Background()

	pin      = "1234"
	wrongPin = "9999"
	newPin   = "4321"

	primaryMnemonic = "abandon abandon abandon abandon abandon abandon abandon " +
		"abandon abandon abandon abandon about"
	groupMnemonic = "legal winner thank year wave sausage worth useful legal " +
		"winner thank yellow"
	otherGroupMnemonic = strings.Repeat("zoo ", 23) + "wrong"

	primaryEvmAddress = "0x9858EfFD232B4033E47d90003D41EC34EcaEda94"
)

type testServices struct {
	scheduler   *manualScheduler
	repoManager ports.RepoManager
	wallet      *application.WalletService
	groups      *application.GroupService
	signer      *application.SigningService
	events      *eventRecorder
}

func newTestServices(
	t *testing.T, cipher domain.SeedCipher, groupTimeout time.Duration,
) *testServices {
	repoManager := inmemory.NewRepoManager()
	t.Cleanup(repoManager.Close)
	return newTestServicesWithRepo(t, repoManager, cipher, groupTimeout)
}

func newTestServicesWithRepo(
	t *testing.T, repoManager ports.RepoManager, cipher domain.SeedCipher,
	groupTimeout time.Duration,
) *testServices {
	if cipher == nil {
		cipher = aes256gcm.NewInsecureCipher(1000)
	}
	scheduler := newManualScheduler()
	walletSvc := application.NewWalletService(
		repoManager, cipher, scheduler, nil, 0,
	)
	groupSvc := application.NewGroupService(walletSvc, groupTimeout)
	signingSvc := application.NewSigningService(groupSvc, &hd.Mainnet)
	events, unsubscribe := newEventRecorder(walletSvc)
	t.Cleanup(unsubscribe)

	return &testServices{
		scheduler:   scheduler,
		repoManager: repoManager,
		wallet:      walletSvc,
		groups:      groupSvc,
		signer:      signingSvc,
		events:      events,
	}
}

func TestWalletService(t *testing.T) {
	t.Run("setup_lock_unlock", func(t *testing.T) {
		svc := newTestServices(t, nil, 0)

		status := svc.wallet.GetStatus(ctx)
		require.Equal(t, domain.StatusDisconnected, status.Status)
		require.False(t, status.HasWallet)

		err := svc.wallet.Setup(ctx, "  Abandon abandon abandon abandon abandon "+
			"abandon\tabandon abandon abandon abandon abandon ABOUT\n", pin)
		require.NoError(t, err)
		require.True(t, svc.wallet.IsUnlocked(ctx))
		require.Equal(t, domain.StatusUnlocked, svc.wallet.GetStatus(ctx).Status)

		account, err := svc.signer.GetAccount(ctx, "", hd.ChainEVM, 0)
		require.NoError(t, err)
		require.Equal(t, primaryEvmAddress, account.Address)

		svc.wallet.Lock(ctx)
		status = svc.wallet.GetStatus(ctx)
		require.Equal(t, domain.StatusLocked, status.Status)
		require.True(t, status.HasWallet)

		_, err = svc.signer.GetAccount(ctx, "", hd.ChainEVM, 0)
		require.ErrorIs(t, err, domain.ErrWalletLocked)

		err = svc.wallet.Unlock(ctx, pin)
		require.NoError(t, err)
		account, err = svc.signer.GetAccount(ctx, "", hd.ChainEVM, 0)
		require.NoError(t, err)
		require.Equal(t, primaryEvmAddress, account.Address)

		svc.wallet.Lock(ctx)
		err = svc.wallet.Unlock(ctx, wrongPin)
		require.ErrorIs(t, err, domain.ErrIncorrectPin)
		status = svc.wallet.GetStatus(ctx)
		require.Equal(t, domain.StatusLocked, status.Status)
		require.ErrorIs(t, status.Error, domain.ErrIncorrectPin)

		err = svc.wallet.Setup(ctx, groupMnemonic, pin)
		require.ErrorIs(t, err, domain.ErrAlreadySetUp)

		require.Equal(t, []domain.WalletEventType{
			domain.WalletSetUp,
			domain.WalletLocked,
			domain.WalletUnlocked,
			domain.WalletLocked,
			domain.WalletError,
			domain.WalletError,
		}, svc.events.types())
	})

	t.Run("invalid_setup", func(t *testing.T) {
		tests := []struct {
			name        string
			seedPhrase  string
			pin         string
			expectedErr error
		}{
			{"word_count", "abandon abandon abandon", pin, domain.ErrInvalidWordCount},
			{"checksum", strings.Repeat("abandon ", 12), pin, domain.ErrInvalidSeedPhrase},
			{"missing_pin", primaryMnemonic, "", domain.ErrMissingPin},
		}
		for _, tt := range tests {
			tt := tt
			t.Run(tt.name, func(t *testing.T) {
				svc := newTestServices(t, nil, 0)

				err := svc.wallet.Setup(ctx, tt.seedPhrase, tt.pin)
				require.ErrorIs(t, err, tt.expectedErr)
				require.Equal(t, domain.ErrKindValidation, domain.Classify(err))

				status := svc.wallet.GetStatus(ctx)
				require.Equal(t, domain.StatusDisconnected, status.Status)
				require.ErrorIs(t, status.Error, tt.expectedErr)
				require.Zero(t, svc.scheduler.pending())
			})
		}
	})

	t.Run("unlock_not_set_up", func(t *testing.T) {
		svc := newTestServices(t, nil, 0)

		err := svc.wallet.Unlock(ctx, pin)
		require.ErrorIs(t, err, domain.ErrNotSetUp)
		require.Equal(t, domain.StatusDisconnected, svc.wallet.GetStatus(ctx).Status)

		err = svc.wallet.ChangePin(ctx, pin, newPin)
		require.ErrorIs(t, err, domain.ErrNotSetUp)
	})

	t.Run("session_expiry", func(t *testing.T) {
		svc := newTestServices(t, nil, 0)

		require.NoError(t, svc.wallet.Setup(ctx, primaryMnemonic, pin))
		require.Equal(t, 1, svc.scheduler.pending())
		require.Equal(t, application.DefaultSessionTimeout, svc.scheduler.task(0).delay)

		require.Equal(t, 1, svc.scheduler.fire())
		require.False(t, svc.wallet.IsUnlocked(ctx))
		require.Equal(t, domain.StatusLocked, svc.wallet.GetStatus(ctx).Status)
		require.Equal(t, domain.WalletSessionExpired, svc.events.last().EventType)

		_, err := svc.groups.GetSeed(ctx, domain.PrimaryGroupID)
		require.ErrorIs(t, err, domain.ErrWalletLocked)
	})

	t.Run("reunlock_cancels_stale_timer", func(t *testing.T) {
		svc := newTestServices(t, nil, 0)

		require.NoError(t, svc.wallet.Setup(ctx, primaryMnemonic, pin))
		require.NoError(t, svc.wallet.Unlock(ctx, pin))

		staleTask := svc.scheduler.task(0)
		require.True(t, staleTask.isCancelled())
		require.Equal(t, 1, svc.scheduler.pending())

		// A timer that fires despite being cancelled must not lock the new
		// session.
		staleTask.forceRun()
		require.True(t, svc.wallet.IsUnlocked(ctx))

		require.Equal(t, 1, svc.scheduler.fire())
		require.False(t, svc.wallet.IsUnlocked(ctx))
	})

	t.Run("reset_session_timeout", func(t *testing.T) {
		svc := newTestServices(t, nil, 0)

		require.False(t, svc.wallet.ResetSessionTimeout(ctx))

		require.NoError(t, svc.wallet.Setup(ctx, primaryMnemonic, pin))
		require.True(t, svc.wallet.ResetSessionTimeout(ctx))
		require.True(t, svc.scheduler.task(0).isCancelled())
		require.Equal(t, 1, svc.scheduler.pending())

		svc.wallet.Lock(ctx)
		require.Zero(t, svc.scheduler.pending())
		require.False(t, svc.wallet.ResetSessionTimeout(ctx))
	})

	t.Run("idempotent_lock", func(t *testing.T) {
		svc := newTestServices(t, nil, 0)

		require.NoError(t, svc.wallet.Setup(ctx, primaryMnemonic, pin))
		svc.events.reset()

		svc.wallet.Lock(ctx)
		svc.wallet.Lock(ctx)
		require.Equal(t, domain.StatusLocked, svc.wallet.GetStatus(ctx).Status)
		require.Equal(t, []domain.WalletEventType{domain.WalletLocked}, svc.events.types())
	})

	t.Run("change_pin", func(t *testing.T) {
		svc := newTestServices(t, nil, 0)

		require.NoError(t, svc.wallet.Setup(ctx, primaryMnemonic, pin))

		err := svc.wallet.ChangePin(ctx, wrongPin, newPin)
		require.ErrorIs(t, err, domain.ErrIncorrectPin)
		require.True(t, svc.wallet.IsUnlocked(ctx))

		require.NoError(t, svc.wallet.ChangePin(ctx, pin, newPin))
		require.False(t, svc.wallet.IsUnlocked(ctx))
		require.Equal(t, domain.WalletPinChanged, svc.events.last().EventType)

		require.ErrorIs(t, svc.wallet.Unlock(ctx, pin), domain.ErrIncorrectPin)
		require.NoError(t, svc.wallet.Unlock(ctx, newPin))

		account, err := svc.signer.GetAccount(ctx, "", hd.ChainEVM, 0)
		require.NoError(t, err)
		require.Equal(t, primaryEvmAddress, account.Address)
	})

	t.Run("reset", func(t *testing.T) {
		svc := newTestServices(t, nil, 0)

		require.NoError(t, svc.wallet.Setup(ctx, primaryMnemonic, pin))
		require.NoError(t, svc.groups.ImportGroup(ctx, "grp-2", groupMnemonic, pin, ""))
		require.NoError(t, svc.groups.UnlockGroup(ctx, "grp-2", pin))

		require.NoError(t, svc.wallet.Reset(ctx))

		status := svc.wallet.GetStatus(ctx)
		require.Equal(t, domain.StatusDisconnected, status.Status)
		require.False(t, status.HasWallet)
		require.Empty(t, svc.groups.UnlockedGroups(ctx))
		require.Zero(t, svc.scheduler.pending())

		groups, err := svc.groups.ListGroups(ctx)
		require.NoError(t, err)
		require.Empty(t, groups)

		require.ErrorIs(t, svc.wallet.Unlock(ctx, pin), domain.ErrNotSetUp)
		require.NoError(t, svc.wallet.Setup(ctx, groupMnemonic, newPin))
	})

	t.Run("restart", func(t *testing.T) {
		repoManager := inmemory.NewRepoManager()
		t.Cleanup(repoManager.Close)

		svc := newTestServicesWithRepo(t, repoManager, nil, 0)
		require.NoError(t, svc.wallet.Setup(ctx, primaryMnemonic, pin))

		restarted := newTestServicesWithRepo(t, repoManager, nil, 0)
		status := restarted.wallet.GetStatus(ctx)
		require.Equal(t, domain.StatusLocked, status.Status)
		require.True(t, status.HasWallet)
		require.NoError(t, restarted.wallet.Unlock(ctx, pin))
	})

	t.Run("gen_seed", func(t *testing.T) {
		svc := newTestServices(t, nil, 0)

		seed, err := svc.wallet.GenSeed(ctx)
		require.NoError(t, err)
		require.Len(t, strings.Split(seed, " "), 12)
		require.True(t, mnemonic.IsValid(seed))

		otherSeed, err := svc.wallet.GenSeed(ctx)
		require.NoError(t, err)
		require.NotEqual(t, seed, otherSeed)
	})
}
