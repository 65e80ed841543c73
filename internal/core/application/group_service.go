package application

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"github.com/vulpemventures/softwallet/internal/core/domain"
	"github.com/vulpemventures/softwallet/internal/core/ports"
)

// GroupService manages the wallet groups, each an independent seed phrase
// with its own pin and unlock session:
//   - Create or import a wallet group.
//   - Unlock and lock a wallet group, or all of them at once.
//   - Verify the pin of a group and decrypt its seed without unlocking it,
//     for one-shot signing and secret reveal flows.
//   - Change the pin of a group or delete it.
//
// Any operation on the primary group is delegated to the WalletService.
// Sessions of secondary groups expire after groupTimeout if positive, and
// persist until explicitly locked otherwise.
type GroupService struct {
	repoManager  ports.RepoManager
	cipher       domain.SeedCipher
	wallet       *WalletService
	sessions     *sessionStore
	notifier     *NotificationService
	groupTimeout time.Duration

	log  func(format string, a ...interface{})
	warn func(err error, format string, a ...interface{})
}

func NewGroupService(
	walletSvc *WalletService, groupTimeout time.Duration,
) *GroupService {
	logFn := func(format string, a ...interface{}) {
		format = fmt.Sprintf("group service: %s", format)
		log.Debugf(format, a...)
	}
	warnFn := func(err error, format string, a ...interface{}) {
		format = fmt.Sprintf("group service: %s", format)
		log.WithError(err).Warnf(format, a...)
	}

	gs := &GroupService{
		repoManager:  walletSvc.repoManager,
		cipher:       walletSvc.cipher,
		wallet:       walletSvc,
		sessions:     walletSvc.sessions,
		notifier:     walletSvc.notifier,
		groupTimeout: groupTimeout,
		log:          logFn,
		warn:         warnFn,
	}
	gs.registerHandlerForSeedRecordEvents()
	return gs
}

// CreateGroup stores the given seed phrase, or a newly generated one if
// empty, as a new wallet group with a random id. The group is left locked.
func (gs *GroupService) CreateGroup(
	ctx context.Context, seedPhrase, pin, label string,
) (string, error) {
	if seedPhrase == "" {
		phrase, err := gs.wallet.GenSeed(ctx)
		if err != nil {
			return "", err
		}
		seedPhrase = phrase
	}
	groupID := uuid.New().String()
	if err := gs.ImportGroup(ctx, groupID, seedPhrase, pin, label); err != nil {
		return "", err
	}
	return groupID, nil
}

// ImportGroup stores the given seed phrase as a new wallet group with the
// given id. The group is left locked.
func (gs *GroupService) ImportGroup(
	ctx context.Context, groupID, seedPhrase, pin, label string,
) error {
	if groupID == domain.PrimaryGroupID {
		return domain.ErrReservedGroupID
	}

	repo := gs.repoManager.SeedRecordRepository()
	exists, err := repo.HasRecord(ctx, groupID)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("%w: %s", domain.ErrGroupAlreadyExists, groupID)
	}

	record, err := gs.EncryptSeedForGroup(seedPhrase, pin, groupID)
	if err != nil {
		return err
	}
	record.Label = label
	if err := repo.PutRecord(ctx, record); err != nil {
		return err
	}
	gs.log("created wallet group %s", groupID)

	gs.notifier.publish(domain.WalletEvent{
		EventType: domain.WalletGroupCreated,
		GroupID:   groupID,
	})
	return nil
}

// EncryptSeedForGroup returns the seed record for the given group without
// persisting it.
func (gs *GroupService) EncryptSeedForGroup(
	seedPhrase, pin, groupID string,
) (*domain.SeedRecord, error) {
	return domain.NewSeedRecord(gs.cipher, groupID, "", seedPhrase, pin)
}

// UnlockGroup verifies the pin and decrypts the seed of the group into a new
// session, replacing any existing one.
func (gs *GroupService) UnlockGroup(
	ctx context.Context, groupID, pin string,
) error {
	if isPrimary(groupID) {
		return gs.wallet.Unlock(ctx, pin)
	}

	seed, err := gs.openSeed(ctx, groupID, pin)
	if err != nil {
		gs.warn(err, "failed to unlock wallet group %s", groupID)
		gs.notifier.publish(domain.WalletEvent{
			EventType: domain.WalletError,
			GroupID:   groupID,
			Err:       err,
		})
		return err
	}

	gs.sessions.install(groupID, seed, gs.groupTimeout, func() {
		gs.onSessionExpired(groupID)
	})
	clear(seed)
	gs.log("unlocked wallet group %s", groupID)

	gs.notifier.publish(domain.WalletEvent{
		EventType: domain.WalletGroupUnlocked,
		GroupID:   groupID,
	})
	return nil
}

// LockGroup removes the session of the group, if any.
func (gs *GroupService) LockGroup(ctx context.Context, groupID string) {
	if isPrimary(groupID) {
		gs.wallet.Lock(ctx)
		return
	}
	gs.lockGroup(groupID)
}

// LockAll locks every secondary wallet group and the primary wallet.
func (gs *GroupService) LockAll(ctx context.Context) {
	for _, groupID := range gs.sessions.ids() {
		if groupID == domain.PrimaryGroupID {
			continue
		}
		gs.lockGroup(groupID)
	}
	gs.wallet.Lock(ctx)
}

// IsGroupUnlocked returns whether the group has an active session. An empty
// id refers to the primary group.
func (gs *GroupService) IsGroupUnlocked(_ context.Context, groupID string) bool {
	if isPrimary(groupID) {
		groupID = domain.PrimaryGroupID
	}
	return gs.sessions.has(groupID)
}

// UnlockedGroups returns the sorted ids of the unlocked groups.
func (gs *GroupService) UnlockedGroups(_ context.Context) []string {
	return gs.sessions.ids()
}

// GetSeed returns the in-memory seed of an unlocked group. It never decrypts
// anything and fails with ErrWalletLocked if the group is locked.
func (gs *GroupService) GetSeed(_ context.Context, groupID string) (string, error) {
	seed, err := gs.sessionSeed(groupID)
	if err != nil {
		return "", err
	}
	defer clear(seed)

	return string(seed), nil
}

// VerifyAndDecryptGroup verifies the pin and returns the seed of the group
// regardless of its session, without creating one.
func (gs *GroupService) VerifyAndDecryptGroup(
	ctx context.Context, groupID, pin string,
) (string, error) {
	seed, err := gs.openSeed(ctx, groupID, pin)
	if err != nil {
		return "", err
	}
	defer clear(seed)

	return string(seed), nil
}

// ChangeGroupPin re-encrypts the seed of the group with the new pin and
// locks it.
func (gs *GroupService) ChangeGroupPin(
	ctx context.Context, groupID, currentPin, newPin string,
) error {
	if isPrimary(groupID) {
		return gs.wallet.ChangePin(ctx, currentPin, newPin)
	}

	repo := gs.repoManager.SeedRecordRepository()
	record, err := repo.GetRecord(ctx, groupID)
	if err != nil {
		return err
	}
	if err := record.ChangePin(gs.cipher, currentPin, newPin); err != nil {
		return err
	}
	if err := repo.PutRecord(ctx, record); err != nil {
		return err
	}

	gs.sessions.evict(groupID)
	gs.log("changed pin of wallet group %s", groupID)

	gs.notifier.publish(domain.WalletEvent{
		EventType: domain.WalletPinChanged,
		GroupID:   groupID,
	})
	return nil
}

// DeleteGroup verifies the pin, locks the group and deletes its record.
// The primary group can only be deleted by resetting the wallet.
func (gs *GroupService) DeleteGroup(
	ctx context.Context, groupID, pin string,
) error {
	if isPrimary(groupID) {
		return domain.ErrReservedGroupID
	}
	seed, err := gs.openSeed(ctx, groupID, pin)
	if err != nil {
		return err
	}
	clear(seed)

	gs.sessions.evict(groupID)
	if err := gs.repoManager.SeedRecordRepository().DeleteRecord(
		ctx, groupID,
	); err != nil {
		return err
	}
	gs.log("deleted wallet group %s", groupID)

	gs.notifier.publish(domain.WalletEvent{
		EventType: domain.WalletGroupDeleted,
		GroupID:   groupID,
	})
	return nil
}

// ListGroups returns info about every stored wallet group, primary
// included, sorted by creation time.
func (gs *GroupService) ListGroups(ctx context.Context) ([]GroupInfo, error) {
	records, err := gs.repoManager.SeedRecordRepository().ListRecords(ctx)
	if err != nil {
		return nil, err
	}

	groups := make([]GroupInfo, 0, len(records))
	for _, r := range records {
		groups = append(groups, GroupInfo{
			GroupID:    r.GroupID,
			Label:      r.Label,
			CreatedAt:  r.CreatedAt,
			IsPrimary:  r.IsPrimary(),
			IsUnlocked: gs.sessions.has(r.GroupID),
		})
	}
	return groups, nil
}

// openSeed verifies the pin and returns the decrypted seed phrase of the
// group. The caller must clear it.
func (gs *GroupService) openSeed(
	ctx context.Context, groupID, pin string,
) ([]byte, error) {
	if isPrimary(groupID) {
		groupID = domain.PrimaryGroupID
	}
	record, err := gs.repoManager.SeedRecordRepository().GetRecord(ctx, groupID)
	if err != nil {
		return nil, err
	}
	return record.Open(gs.cipher, pin)
}

// sessionSeed returns a copy of the in-memory seed of an unlocked group that
// the caller must clear.
func (gs *GroupService) sessionSeed(groupID string) ([]byte, error) {
	if isPrimary(groupID) {
		groupID = domain.PrimaryGroupID
	}
	seed, ok := gs.sessions.seed(groupID)
	if !ok {
		return nil, domain.ErrWalletLocked
	}
	return seed, nil
}

func (gs *GroupService) lockGroup(groupID string) {
	if !gs.sessions.evict(groupID) {
		return
	}
	gs.log("locked wallet group %s", groupID)

	gs.notifier.publish(domain.WalletEvent{
		EventType: domain.WalletGroupLocked,
		GroupID:   groupID,
	})
}

func (gs *GroupService) onSessionExpired(groupID string) {
	gs.log("session of wallet group %s expired", groupID)

	gs.notifier.publish(domain.WalletEvent{
		EventType: domain.WalletSessionExpired,
		GroupID:   groupID,
	})
}

// registerHandlerForSeedRecordEvents makes sure that a record deleted from
// the store never leaves behind an unlocked session. Events are delivered
// asynchronously, so the record is looked up again before evicting: a group
// re-created in the meantime keeps its new session.
func (gs *GroupService) registerHandlerForSeedRecordEvents() {
	gs.repoManager.RegisterHandlerForSeedRecordEvent(
		domain.SeedRecordDeleted, func(event domain.SeedRecordEvent) {
			if event.GroupID == domain.PrimaryGroupID {
				return
			}
			evicted := gs.sessions.evictUnless(event.GroupID, func() bool {
				exists, err := gs.repoManager.SeedRecordRepository().HasRecord(
					context.Background(), event.GroupID,
				)
				if err != nil {
					gs.warn(err, "failed to look up wallet group %s", event.GroupID)
					return false
				}
				return exists
			})
			if evicted {
				gs.log("evicted session of deleted wallet group %s", event.GroupID)
			}
		},
	)
}

func isPrimary(groupID string) bool {
	return groupID == "" || groupID == domain.PrimaryGroupID
}
