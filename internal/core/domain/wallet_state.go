package domain

const (
	StatusDisconnected WalletStatus = iota
	StatusLocked
	StatusUnlocked
)

const (
	WalletSetUp WalletEventType = iota
	WalletUnlocked
	WalletLocked
	WalletSessionExpired
	WalletReset
	WalletError
	WalletGroupCreated
	WalletGroupUnlocked
	WalletGroupLocked
	WalletGroupDeleted
	WalletPinChanged
	WalletSignRequest
)

var (
	walletStatusString = map[WalletStatus]string{
		StatusDisconnected: "disconnected",
		StatusLocked:       "locked",
		StatusUnlocked:     "unlocked",
	}
	walletTypeString = map[WalletEventType]string{
		WalletSetUp:          "WalletSetUp",
		WalletUnlocked:       "WalletUnlocked",
		WalletLocked:         "WalletLocked",
		WalletSessionExpired: "WalletSessionExpired",
		WalletReset:          "WalletReset",
		WalletError:          "WalletError",
		WalletGroupCreated:   "WalletGroupCreated",
		WalletGroupUnlocked:  "WalletGroupUnlocked",
		WalletGroupLocked:    "WalletGroupLocked",
		WalletGroupDeleted:   "WalletGroupDeleted",
		WalletPinChanged:     "WalletPinChanged",
		WalletSignRequest:    "WalletSignRequest",
	}
)

type WalletStatus int

func (s WalletStatus) String() string {
	return walletStatusString[s]
}

type WalletEventType int

func (t WalletEventType) String() string {
	return walletTypeString[t]
}

// WalletEvent describes a state transition of the primary wallet or of a
// wallet group session. Sign request events carry the chain and signing mode
// and a non-nil Err if the request failed.
type WalletEvent struct {
	EventType WalletEventType
	GroupID   string
	Err       error
	Chain     string
	OneShot   bool
}

// PrimaryWalletState is a snapshot of the primary wallet lifecycle.
// Status unlocked implies the primary seed is held in memory.
type PrimaryWalletState struct {
	Status    WalletStatus
	HasWallet bool
	Error     error
}

// IsUnlocked returns whether the primary wallet is unlocked.
func (s PrimaryWalletState) IsUnlocked() bool {
	return s.Status == StatusUnlocked
}

// DerivedAccount is the public view of a key derived from a wallet group
// seed. It is never persisted.
type DerivedAccount struct {
	GroupID        string
	Chain          string
	AccountIndex   uint32
	DerivationPath string
	Address        string
	PublicKey      string
}
