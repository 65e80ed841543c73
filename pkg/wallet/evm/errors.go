package evm

import (
	"fmt"
)

var (
	ErrMissingPrivateKey     = fmt.Errorf("missing private key")
	ErrMissingChainID        = fmt.Errorf("missing or invalid chain id")
	ErrMissingGasLimit       = fmt.Errorf("missing gas limit")
	ErrMissingFee            = fmt.Errorf("missing gas price or max fee per gas")
	ErrInvalidToAddress      = fmt.Errorf("invalid recipient address")
	ErrInvalidSignature      = fmt.Errorf("invalid signature")
	ErrMissingTypes          = fmt.Errorf("missing typed data types")
	ErrMissingMessage        = fmt.Errorf("missing typed data message")
	ErrAmbiguousPrimaryType  = fmt.Errorf("unable to infer typed data primary type")
	ErrUnknownPrimaryType    = fmt.Errorf("primary type not found in typed data types")
	ErrInvalidTypedDataField = fmt.Errorf("invalid typed data field")
)
