package application_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/vulpemventures/softwallet/internal/core/domain"
)

func TestGroupService(t *testing.T) {
	t.Run("group_isolation", func(t *testing.T) {
		svc := newTestServices(t, nil, 0)

		require.NoError(t, svc.wallet.Setup(ctx, primaryMnemonic, pin))
		require.NoError(t, svc.groups.ImportGroup(ctx, "grp-2", groupMnemonic, pin, ""))
		require.NoError(t, svc.groups.ImportGroup(ctx, "grp-3", otherGroupMnemonic, newPin, ""))

		for _, primaryUnlocked := range []bool{true, false} {
			if !primaryUnlocked {
				svc.groups.LockGroup(ctx, domain.PrimaryGroupID)
			}
			require.NoError(t, svc.groups.UnlockGroup(ctx, "grp-2", pin))
			require.True(t, svc.groups.IsGroupUnlocked(ctx, "grp-2"))
			require.False(t, svc.groups.IsGroupUnlocked(ctx, "grp-3"))
			require.Equal(t, primaryUnlocked, svc.groups.IsGroupUnlocked(ctx, domain.PrimaryGroupID))
			require.Equal(t, primaryUnlocked, svc.groups.IsGroupUnlocked(ctx, ""))
			svc.groups.LockGroup(ctx, "grp-2")
		}

		require.NoError(t, svc.groups.UnlockGroup(ctx, "grp-3", newPin))
		seed2, err := svc.groups.GetSeed(ctx, "grp-2")
		require.ErrorIs(t, err, domain.ErrWalletLocked)
		require.Empty(t, seed2)
		seed3, err := svc.groups.GetSeed(ctx, "grp-3")
		require.NoError(t, err)
		require.Equal(t, otherGroupMnemonic, seed3)

		// Each group has its own pin.
		err = svc.groups.UnlockGroup(ctx, "grp-2", newPin)
		require.ErrorIs(t, err, domain.ErrIncorrectPin)
		require.False(t, svc.groups.IsGroupUnlocked(ctx, "grp-2"))
	})

	t.Run("unlock_errors", func(t *testing.T) {
		svc := newTestServices(t, nil, 0)
		require.NoError(t, svc.groups.ImportGroup(ctx, "grp-2", groupMnemonic, pin, ""))

		tests := []struct {
			name        string
			groupID     string
			pin         string
			expectedErr error
		}{
			{"not_found", "grp-404", pin, domain.ErrNotFound},
			{"incorrect_pin", "grp-2", wrongPin, domain.ErrIncorrectPin},
			{"empty_pin", "grp-2", "", domain.ErrIncorrectPin},
			{"primary_not_set_up", domain.PrimaryGroupID, pin, domain.ErrNotSetUp},
		}
		for _, tt := range tests {
			err := svc.groups.UnlockGroup(ctx, tt.groupID, tt.pin)
			require.ErrorIs(t, err, tt.expectedErr, tt.name)
			require.False(t, svc.groups.IsGroupUnlocked(ctx, tt.groupID), tt.name)
		}
		require.Equal(t, domain.WalletError, svc.events.last().EventType)
		require.Empty(t, svc.groups.UnlockedGroups(ctx))
	})

	t.Run("idempotent_lock", func(t *testing.T) {
		svc := newTestServices(t, nil, 0)
		require.NoError(t, svc.groups.ImportGroup(ctx, "grp-2", groupMnemonic, pin, ""))
		require.NoError(t, svc.groups.UnlockGroup(ctx, "grp-2", pin))
		svc.events.reset()

		svc.groups.LockGroup(ctx, "grp-2")
		svc.groups.LockGroup(ctx, "grp-2")
		svc.groups.LockGroup(ctx, "grp-404")

		require.False(t, svc.groups.IsGroupUnlocked(ctx, "grp-2"))
		require.Equal(t, []domain.WalletEventType{domain.WalletGroupLocked}, svc.events.types())
	})

	t.Run("unlock_without_timeout", func(t *testing.T) {
		svc := newTestServices(t, nil, 0)
		require.NoError(t, svc.groups.ImportGroup(ctx, "grp-2", groupMnemonic, pin, ""))

		require.NoError(t, svc.groups.UnlockGroup(ctx, "grp-2", pin))
		require.Zero(t, svc.scheduler.pending())
		require.Zero(t, svc.scheduler.fire())
		require.True(t, svc.groups.IsGroupUnlocked(ctx, "grp-2"))
	})

	t.Run("unlock_with_timeout", func(t *testing.T) {
		svc := newTestServices(t, nil, time.Minute)
		require.NoError(t, svc.groups.ImportGroup(ctx, "grp-2", groupMnemonic, pin, ""))

		require.NoError(t, svc.groups.UnlockGroup(ctx, "grp-2", pin))
		require.Equal(t, time.Minute, svc.scheduler.task(0).delay)

		// Re-unlocking replaces the session and cancels the previous timer.
		require.NoError(t, svc.groups.UnlockGroup(ctx, "grp-2", pin))
		require.True(t, svc.scheduler.task(0).isCancelled())
		svc.scheduler.task(0).forceRun()
		require.True(t, svc.groups.IsGroupUnlocked(ctx, "grp-2"))

		require.Equal(t, 1, svc.scheduler.fire())
		require.False(t, svc.groups.IsGroupUnlocked(ctx, "grp-2"))

		last := svc.events.last()
		require.Equal(t, domain.WalletSessionExpired, last.EventType)
		require.Equal(t, "grp-2", last.GroupID)
	})

	t.Run("lock_all", func(t *testing.T) {
		svc := newTestServices(t, nil, 0)
		require.NoError(t, svc.wallet.Setup(ctx, primaryMnemonic, pin))
		require.NoError(t, svc.groups.ImportGroup(ctx, "grp-2", groupMnemonic, pin, ""))
		require.NoError(t, svc.groups.ImportGroup(ctx, "grp-3", otherGroupMnemonic, pin, ""))
		require.NoError(t, svc.groups.UnlockGroup(ctx, "grp-2", pin))
		require.NoError(t, svc.groups.UnlockGroup(ctx, "grp-3", pin))
		require.Equal(
			t, []string{"grp-2", "grp-3", domain.PrimaryGroupID},
			svc.groups.UnlockedGroups(ctx),
		)

		svc.groups.LockAll(ctx)
		require.Empty(t, svc.groups.UnlockedGroups(ctx))
		require.Equal(t, domain.StatusLocked, svc.wallet.GetStatus(ctx).Status)
		require.Zero(t, svc.scheduler.pending())
	})

	t.Run("verify_and_decrypt", func(t *testing.T) {
		svc := newTestServices(t, nil, 0)
		require.NoError(t, svc.wallet.Setup(ctx, primaryMnemonic, pin))
		require.NoError(t, svc.groups.ImportGroup(ctx, "grp-2", groupMnemonic, pin, ""))

		seed, err := svc.groups.VerifyAndDecryptGroup(ctx, "grp-2", pin)
		require.NoError(t, err)
		require.Equal(t, groupMnemonic, seed)
		require.False(t, svc.groups.IsGroupUnlocked(ctx, "grp-2"))

		seed, err = svc.groups.VerifyAndDecryptGroup(ctx, "", pin)
		require.NoError(t, err)
		require.Equal(t, primaryMnemonic, seed)

		_, err = svc.groups.VerifyAndDecryptGroup(ctx, "grp-2", wrongPin)
		require.ErrorIs(t, err, domain.ErrIncorrectPin)
		_, err = svc.groups.VerifyAndDecryptGroup(ctx, "grp-404", pin)
		require.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("corrupted_data", func(t *testing.T) {
		cipher := &mockSeedCipher{}
		cipher.On("Encrypt", mock.Anything, mock.Anything).Return([]byte("blob"), nil)
		cipher.On("HashPin", mock.Anything, mock.Anything).Return([]byte("hash"), []byte("salt"), nil)
		cipher.On("VerifyPin", []byte(pin), mock.Anything, mock.Anything).Return(true)
		cipher.On("VerifyPin", mock.Anything, mock.Anything, mock.Anything).Return(false)
		cipher.On("Decrypt", mock.Anything, mock.Anything).Return(nil, domain.ErrCorruptedData)

		svc := newTestServices(t, cipher, 0)
		require.NoError(t, svc.groups.ImportGroup(ctx, "grp-2", groupMnemonic, pin, ""))

		err := svc.groups.UnlockGroup(ctx, "grp-2", pin)
		require.ErrorIs(t, err, domain.ErrCorruptedData)
		require.Equal(t, domain.ErrKindCorruptedData, domain.Classify(err))
		require.False(t, svc.groups.IsGroupUnlocked(ctx, "grp-2"))

		err = svc.groups.UnlockGroup(ctx, "grp-2", wrongPin)
		require.ErrorIs(t, err, domain.ErrIncorrectPin)
		cipher.AssertNumberOfCalls(t, "Decrypt", 1)
	})

	t.Run("create_and_list", func(t *testing.T) {
		svc := newTestServices(t, nil, 0)
		require.NoError(t, svc.wallet.Setup(ctx, primaryMnemonic, pin))

		groupID, err := svc.groups.CreateGroup(ctx, "", pin, "savings")
		require.NoError(t, err)
		require.NotEmpty(t, groupID)
		require.Equal(t, domain.WalletGroupCreated, svc.events.last().EventType)

		seed, err := svc.groups.VerifyAndDecryptGroup(ctx, groupID, pin)
		require.NoError(t, err)
		require.NotEqual(t, primaryMnemonic, seed)

		otherGroupID, err := svc.groups.CreateGroup(ctx, groupMnemonic, pin, "")
		require.NoError(t, err)
		require.NotEqual(t, groupID, otherGroupID)

		groups, err := svc.groups.ListGroups(ctx)
		require.NoError(t, err)
		require.Len(t, groups, 3)

		byID := make(map[string]bool)
		for _, g := range groups {
			byID[g.GroupID] = g.IsUnlocked
			if g.GroupID == groupID {
				require.Equal(t, "savings", g.Label)
			}
			require.Equal(t, g.GroupID == domain.PrimaryGroupID, g.IsPrimary)
		}
		require.True(t, byID[domain.PrimaryGroupID])
		require.False(t, byID[groupID])
		require.False(t, byID[otherGroupID])
	})

	t.Run("invalid_import", func(t *testing.T) {
		svc := newTestServices(t, nil, 0)
		require.NoError(t, svc.groups.ImportGroup(ctx, "grp-2", groupMnemonic, pin, ""))

		tests := []struct {
			name        string
			groupID     string
			seedPhrase  string
			pin         string
			expectedErr error
		}{
			{"already_exists", "grp-2", groupMnemonic, pin, domain.ErrGroupAlreadyExists},
			{"reserved_id", domain.PrimaryGroupID, groupMnemonic, pin, domain.ErrReservedGroupID},
			{"missing_id", "", groupMnemonic, pin, domain.ErrMissingGroupID},
			{"missing_pin", "grp-3", groupMnemonic, "", domain.ErrMissingPin},
			{"word_count", "grp-3", "legal winner thank", pin, domain.ErrInvalidWordCount},
		}
		for _, tt := range tests {
			err := svc.groups.ImportGroup(ctx, tt.groupID, tt.seedPhrase, tt.pin, "")
			require.ErrorIs(t, err, tt.expectedErr, tt.name)
			require.Equal(t, domain.ErrKindValidation, domain.Classify(err), tt.name)
		}
	})

	t.Run("encrypt_seed_for_group", func(t *testing.T) {
		svc := newTestServices(t, nil, 0)

		record, err := svc.groups.EncryptSeedForGroup(groupMnemonic, pin, "grp-2")
		require.NoError(t, err)
		require.Equal(t, "grp-2", record.GroupID)
		require.NotEmpty(t, record.Ciphertext)
		require.NotEmpty(t, record.PinHash)
		require.NotEmpty(t, record.PinSalt)

		// The record is not persisted.
		_, err = svc.groups.VerifyAndDecryptGroup(ctx, "grp-2", pin)
		require.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("change_group_pin", func(t *testing.T) {
		svc := newTestServices(t, nil, 0)
		require.NoError(t, svc.groups.ImportGroup(ctx, "grp-2", groupMnemonic, pin, ""))
		require.NoError(t, svc.groups.UnlockGroup(ctx, "grp-2", pin))

		err := svc.groups.ChangeGroupPin(ctx, "grp-2", wrongPin, newPin)
		require.ErrorIs(t, err, domain.ErrIncorrectPin)
		require.True(t, svc.groups.IsGroupUnlocked(ctx, "grp-2"))

		require.NoError(t, svc.groups.ChangeGroupPin(ctx, "grp-2", pin, newPin))
		require.False(t, svc.groups.IsGroupUnlocked(ctx, "grp-2"))

		require.ErrorIs(t, svc.groups.UnlockGroup(ctx, "grp-2", pin), domain.ErrIncorrectPin)
		require.NoError(t, svc.groups.UnlockGroup(ctx, "grp-2", newPin))

		err = svc.groups.ChangeGroupPin(ctx, "grp-404", pin, newPin)
		require.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("delete_group", func(t *testing.T) {
		svc := newTestServices(t, nil, 0)
		require.NoError(t, svc.wallet.Setup(ctx, primaryMnemonic, pin))
		require.NoError(t, svc.groups.ImportGroup(ctx, "grp-2", groupMnemonic, pin, ""))
		require.NoError(t, svc.groups.UnlockGroup(ctx, "grp-2", pin))

		err := svc.groups.DeleteGroup(ctx, "grp-2", wrongPin)
		require.ErrorIs(t, err, domain.ErrIncorrectPin)
		require.True(t, svc.groups.IsGroupUnlocked(ctx, "grp-2"))

		err = svc.groups.DeleteGroup(ctx, domain.PrimaryGroupID, pin)
		require.ErrorIs(t, err, domain.ErrReservedGroupID)

		require.NoError(t, svc.groups.DeleteGroup(ctx, "grp-2", pin))
		require.False(t, svc.groups.IsGroupUnlocked(ctx, "grp-2"))
		require.Equal(t, domain.WalletGroupDeleted, svc.events.last().EventType)

		err = svc.groups.UnlockGroup(ctx, "grp-2", pin)
		require.ErrorIs(t, err, domain.ErrNotFound)
		require.True(t, svc.wallet.IsUnlocked(ctx))
	})

	t.Run("reimported_group_keeps_session", func(t *testing.T) {
		svc := newTestServices(t, nil, 0)
		require.NoError(t, svc.groups.ImportGroup(ctx, "grp-2", groupMnemonic, pin, ""))
		require.NoError(t, svc.groups.UnlockGroup(ctx, "grp-2", pin))

		require.NoError(t, svc.groups.DeleteGroup(ctx, "grp-2", pin))
		require.NoError(t, svc.groups.ImportGroup(ctx, "grp-2", otherGroupMnemonic, newPin, ""))
		require.NoError(t, svc.groups.UnlockGroup(ctx, "grp-2", newPin))

		// Let the deletion event reach the handlers.
		time.Sleep(50 * time.Millisecond)

		require.True(t, svc.groups.IsGroupUnlocked(ctx, "grp-2"))
		seed, err := svc.groups.GetSeed(ctx, "grp-2")
		require.NoError(t, err)
		require.Equal(t, otherGroupMnemonic, seed)
	})

	t.Run("deleted_record_evicts_session", func(t *testing.T) {
		svc := newTestServices(t, nil, 0)
		require.NoError(t, svc.groups.ImportGroup(ctx, "grp-2", groupMnemonic, pin, ""))
		require.NoError(t, svc.groups.UnlockGroup(ctx, "grp-2", pin))

		err := svc.repoManager.SeedRecordRepository().DeleteRecord(ctx, "grp-2")
		require.NoError(t, err)

		require.Eventually(t, func() bool {
			return !svc.groups.IsGroupUnlocked(ctx, "grp-2")
		}, time.Second, 10*time.Millisecond)
	})
}
