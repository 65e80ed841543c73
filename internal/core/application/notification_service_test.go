package application_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/vulpemventures/softwallet/internal/core/application"
	"github.com/vulpemventures/softwallet/internal/core/domain"
)

func TestNotificationService(t *testing.T) {
	t.Run("subscribe_unsubscribe", func(t *testing.T) {
		svc := newTestServices(t, nil, 0)

		received := make([]domain.WalletEventType, 0)
		unsubscribe := svc.wallet.Subscribe(func(event domain.WalletEvent) {
			received = append(received, event.EventType)
		})

		require.NoError(t, svc.wallet.Setup(ctx, primaryMnemonic, pin))
		svc.wallet.Lock(ctx)

		unsubscribe()
		unsubscribe()

		require.NoError(t, svc.wallet.Unlock(ctx, pin))
		require.Equal(t, []domain.WalletEventType{
			domain.WalletSetUp, domain.WalletLocked,
		}, received)

		// Other subscribers are not affected.
		require.Equal(t, domain.WalletUnlocked, svc.events.last().EventType)
	})

	t.Run("handler_can_call_back", func(t *testing.T) {
		svc := newTestServices(t, nil, 0)

		statuses := make([]domain.WalletStatus, 0)
		unsubscribe := svc.wallet.Subscribe(func(event domain.WalletEvent) {
			statuses = append(statuses, svc.wallet.GetStatus(ctx).Status)
		})
		defer unsubscribe()

		require.NoError(t, svc.wallet.Setup(ctx, primaryMnemonic, pin))
		svc.wallet.Lock(ctx)
		require.Equal(t, []domain.WalletStatus{
			domain.StatusUnlocked, domain.StatusLocked,
		}, statuses)
	})

	t.Run("seed_record_channel", func(t *testing.T) {
		svc := newTestServices(t, nil, 0)
		notificationSvc := application.NewNotificationService(svc.repoManager)

		chEvents, err := notificationSvc.GetSeedRecordChannel(ctx)
		require.NoError(t, err)

		go func() {
			svc.wallet.Setup(ctx, primaryMnemonic, pin)
		}()

		select {
		case event := <-chEvents:
			require.Equal(t, domain.SeedRecordCreated, event.EventType)
			require.Equal(t, domain.PrimaryGroupID, event.GroupID)
		case <-time.After(5 * time.Second):
			t.Fatal("timeout waiting for seed record event")
		}
	})
}
