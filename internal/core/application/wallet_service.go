package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/vulpemventures/softwallet/internal/core/domain"
	"github.com/vulpemventures/softwallet/internal/core/ports"
	"github.com/vulpemventures/softwallet/pkg/wallet/mnemonic"
)

const DefaultSessionTimeout = 5 * time.Minute

// WalletService is responsible for the lifecycle of the primary wallet group:
//   - Generate a new random 12-words mnemonic.
//   - Set up the wallet with a given mnemonic locked with a pin.
//   - Unlock and lock the wallet, with an inactivity timeout that external
//     clients can reset on user activity.
//   - Change the wallet pin.
//   - Reset the wallet, erasing every wallet group.
//   - Get the status of the wallet (disconnected, locked, unlocked).
//
// The decrypted seed of the primary wallet lives in the session store shared
// with the GroupService, so the wallet is unlocked if and only if it has a
// session there.
type WalletService struct {
	repoManager    ports.RepoManager
	cipher         domain.SeedCipher
	sessions       *sessionStore
	notifier       *NotificationService
	sessionTimeout time.Duration

	hasWallet bool
	lastErr   error
	lock      *sync.RWMutex

	log  func(format string, a ...interface{})
	warn func(err error, format string, a ...interface{})
}

func NewWalletService(
	repoManager ports.RepoManager, cipher domain.SeedCipher,
	scheduler ports.Scheduler, notifier *NotificationService,
	sessionTimeout time.Duration,
) *WalletService {
	logFn := func(format string, a ...interface{}) {
		format = fmt.Sprintf("wallet service: %s", format)
		log.Debugf(format, a...)
	}
	warnFn := func(err error, format string, a ...interface{}) {
		format = fmt.Sprintf("wallet service: %s", format)
		log.WithError(err).Warnf(format, a...)
	}
	if sessionTimeout <= 0 {
		sessionTimeout = DefaultSessionTimeout
	}
	if notifier == nil {
		notifier = NewNotificationService(repoManager)
	}

	ws := &WalletService{
		repoManager:    repoManager,
		cipher:         cipher,
		sessions:       newSessionStore(scheduler),
		notifier:       notifier,
		sessionTimeout: sessionTimeout,
		lock:           &sync.RWMutex{},
		log:            logFn,
		warn:           warnFn,
	}

	hasWallet, err := repoManager.SeedRecordRepository().HasRecord(
		context.Background(), domain.PrimaryGroupID,
	)
	if err != nil {
		warnFn(err, "failed to check for existing wallet")
	}
	ws.hasWallet = hasWallet
	return ws
}

// GenSeed returns a new random 12-words mnemonic.
func (ws *WalletService) GenSeed(_ context.Context) (string, error) {
	words, err := mnemonic.NewMnemonic(mnemonic.NewMnemonicArgs{})
	if err != nil {
		return "", err
	}
	return strings.Join(words, " "), nil
}

// Setup encrypts and stores the given seed phrase as the primary wallet and
// leaves the wallet unlocked.
func (ws *WalletService) Setup(
	ctx context.Context, seedPhrase, pin string,
) (err error) {
	defer func() {
		if err != nil {
			ws.setError(err)
		}
	}()

	if ws.isSetUp() {
		return domain.ErrAlreadySetUp
	}
	exists, err := ws.repoManager.SeedRecordRepository().HasRecord(
		ctx, domain.PrimaryGroupID,
	)
	if err != nil {
		return err
	}
	if exists {
		ws.setReady(true)
		return domain.ErrAlreadySetUp
	}

	seed, err := domain.ValidateSeedPhrase(seedPhrase)
	if err != nil {
		return err
	}
	record, err := domain.NewSeedRecord(
		ws.cipher, domain.PrimaryGroupID, "", seed, pin,
	)
	if err != nil {
		return err
	}
	if err = ws.repoManager.SeedRecordRepository().PutRecord(
		ctx, record,
	); err != nil {
		return err
	}

	buf := []byte(seed)
	ws.sessions.install(
		domain.PrimaryGroupID, buf, ws.sessionTimeout, ws.onSessionExpired,
	)
	clear(buf)
	ws.setReady(true)
	ws.log("wallet set up")

	ws.notifier.publish(domain.WalletEvent{
		EventType: domain.WalletSetUp,
		GroupID:   domain.PrimaryGroupID,
	})
	return nil
}

// Unlock verifies the pin, decrypts the primary seed and (re)starts the
// inactivity timer. On failure the status of the wallet is left untouched.
func (ws *WalletService) Unlock(ctx context.Context, pin string) (err error) {
	defer func() {
		if err != nil {
			ws.setError(err)
		}
	}()

	record, err := ws.repoManager.SeedRecordRepository().GetRecord(
		ctx, domain.PrimaryGroupID,
	)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotSetUp
		}
		return err
	}

	seed, err := record.Open(ws.cipher, pin)
	if err != nil {
		return err
	}

	ws.sessions.install(
		domain.PrimaryGroupID, seed, ws.sessionTimeout, ws.onSessionExpired,
	)
	clear(seed)
	ws.setReady(true)
	ws.log("wallet unlocked")

	ws.notifier.publish(domain.WalletEvent{
		EventType: domain.WalletUnlocked,
		GroupID:   domain.PrimaryGroupID,
	})
	return nil
}

// Lock clears the primary seed from memory and cancels the inactivity
// timer. Locking a locked wallet is a no-op.
func (ws *WalletService) Lock(_ context.Context) {
	if !ws.sessions.evict(domain.PrimaryGroupID) {
		return
	}
	ws.log("wallet locked")

	ws.notifier.publish(domain.WalletEvent{
		EventType: domain.WalletLocked,
		GroupID:   domain.PrimaryGroupID,
	})
}

// ResetSessionTimeout restarts the inactivity timer of the unlocked wallet.
// Returns false if the wallet is not unlocked.
func (ws *WalletService) ResetSessionTimeout(_ context.Context) bool {
	return ws.sessions.resetTimer(
		domain.PrimaryGroupID, ws.sessionTimeout, ws.onSessionExpired,
	)
}

// Reset locks every wallet group and erases all the stored seed records.
// It's irreversible.
func (ws *WalletService) Reset(ctx context.Context) error {
	ws.sessions.evictAll()

	repo := ws.repoManager.SeedRecordRepository()
	records, err := repo.ListRecords(ctx)
	if err != nil {
		ws.setError(err)
		return err
	}
	for _, r := range records {
		if err := repo.DeleteRecord(ctx, r.GroupID); err != nil {
			ws.setError(err)
			return fmt.Errorf("failed to delete wallet group %s: %w", r.GroupID, err)
		}
	}

	ws.setReady(false)
	ws.log("wallet reset, %d wallet group(s) deleted", len(records))

	ws.notifier.publish(domain.WalletEvent{
		EventType: domain.WalletReset,
		GroupID:   domain.PrimaryGroupID,
	})
	return nil
}

// ChangePin re-encrypts the primary seed with the new pin and locks the
// wallet.
func (ws *WalletService) ChangePin(
	ctx context.Context, currentPin, newPin string,
) (err error) {
	defer func() {
		if err != nil {
			ws.setError(err)
		}
	}()

	repo := ws.repoManager.SeedRecordRepository()
	record, err := repo.GetRecord(ctx, domain.PrimaryGroupID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotSetUp
		}
		return err
	}
	if err = record.ChangePin(ws.cipher, currentPin, newPin); err != nil {
		return err
	}
	if err = repo.PutRecord(ctx, record); err != nil {
		return err
	}

	ws.sessions.evict(domain.PrimaryGroupID)
	ws.log("wallet pin changed")

	ws.notifier.publish(domain.WalletEvent{
		EventType: domain.WalletPinChanged,
		GroupID:   domain.PrimaryGroupID,
	})
	return nil
}

func (ws *WalletService) GetStatus(_ context.Context) domain.PrimaryWalletState {
	ws.lock.RLock()
	defer ws.lock.RUnlock()

	status := domain.StatusDisconnected
	if ws.hasWallet {
		status = domain.StatusLocked
		if ws.sessions.has(domain.PrimaryGroupID) {
			status = domain.StatusUnlocked
		}
	}
	return domain.PrimaryWalletState{
		Status:    status,
		HasWallet: ws.hasWallet,
		Error:     ws.lastErr,
	}
}

func (ws *WalletService) IsUnlocked(_ context.Context) bool {
	return ws.sessions.has(domain.PrimaryGroupID)
}

func (ws *WalletService) Subscribe(handler WalletEventHandler) func() {
	return ws.notifier.Subscribe(handler)
}

func (ws *WalletService) onSessionExpired() {
	ws.log("session expired, wallet locked")

	ws.notifier.publish(domain.WalletEvent{
		EventType: domain.WalletSessionExpired,
		GroupID:   domain.PrimaryGroupID,
	})
}

func (ws *WalletService) isSetUp() bool {
	ws.lock.RLock()
	defer ws.lock.RUnlock()

	return ws.hasWallet
}

// setReady records whether the wallet exists and clears the last error.
func (ws *WalletService) setReady(hasWallet bool) {
	ws.lock.Lock()
	defer ws.lock.Unlock()

	ws.hasWallet = hasWallet
	ws.lastErr = nil
}

func (ws *WalletService) setError(err error) {
	ws.lock.Lock()
	ws.lastErr = err
	ws.lock.Unlock()

	ws.warn(err, "operation failed")

	ws.notifier.publish(domain.WalletEvent{
		EventType: domain.WalletError,
		GroupID:   domain.PrimaryGroupID,
		Err:       err,
	})
}
