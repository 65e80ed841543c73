package domain

import (
	"errors"
	"fmt"
)

var (
	ErrIncorrectPin      = fmt.Errorf("incorrect pin")
	ErrCorruptedData     = fmt.Errorf("unable to decrypt seed")
	ErrNotFound          = fmt.Errorf("wallet group not found")
	ErrNotSetUp          = fmt.Errorf("wallet is not set up")
	ErrWalletLocked      = fmt.Errorf("wallet is locked")
	ErrDerivationFailure = fmt.Errorf("failed to derive account key")
	ErrValidation        = fmt.Errorf("invalid argument")

	ErrAlreadySetUp       = fmt.Errorf("wallet is already set up")
	ErrGroupAlreadyExists = fmt.Errorf("wallet group already exists")

	ErrMissingPin          = fmt.Errorf("%w: missing pin", ErrValidation)
	ErrMissingGroupID      = fmt.Errorf("%w: missing wallet group id", ErrValidation)
	ErrReservedGroupID     = fmt.Errorf("%w: wallet group id %q is reserved", ErrValidation, PrimaryGroupID)
	ErrInvalidWordCount    = fmt.Errorf("%w: seed phrase must have 12 or 24 words", ErrValidation)
	ErrInvalidSeedPhrase   = fmt.Errorf("%w: seed phrase is not a valid mnemonic", ErrValidation)
	ErrMalformedSeedRecord = fmt.Errorf("%w: malformed seed record", ErrCorruptedData)
)

// ErrorKind is the classification of any error returned by the wallet core.
type ErrorKind int

const (
	ErrKindUnknown ErrorKind = iota
	ErrKindIncorrectPin
	ErrKindCorruptedData
	ErrKindNotFound
	ErrKindNotSetUp
	ErrKindWalletLocked
	ErrKindDerivationFailure
	ErrKindValidation
)

var (
	errorKindString = map[ErrorKind]string{
		ErrKindUnknown:           "Unknown",
		ErrKindIncorrectPin:      "IncorrectPin",
		ErrKindCorruptedData:     "CorruptedData",
		ErrKindNotFound:          "NotFound",
		ErrKindNotSetUp:          "NotSetUp",
		ErrKindWalletLocked:      "WalletLocked",
		ErrKindDerivationFailure: "DerivationFailure",
		ErrKindValidation:        "ValidationError",
	}

	errorKinds = []struct {
		target error
		kind   ErrorKind
	}{
		{ErrIncorrectPin, ErrKindIncorrectPin},
		{ErrCorruptedData, ErrKindCorruptedData},
		{ErrNotFound, ErrKindNotFound},
		{ErrNotSetUp, ErrKindNotSetUp},
		{ErrWalletLocked, ErrKindWalletLocked},
		{ErrDerivationFailure, ErrKindDerivationFailure},
		{ErrValidation, ErrKindValidation},
		{ErrAlreadySetUp, ErrKindValidation},
		{ErrGroupAlreadyExists, ErrKindValidation},
	}
)

func (k ErrorKind) String() string {
	return errorKindString[k]
}

// Classify maps the given error to its kind. A nil error is ErrKindUnknown.
func Classify(err error) ErrorKind {
	if err == nil {
		return ErrKindUnknown
	}
	for _, e := range errorKinds {
		if errors.Is(err, e.target) {
			return e.kind
		}
	}
	return ErrKindUnknown
}
