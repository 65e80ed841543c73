package bitcoin

import (
	"fmt"
)

var (
	ErrMissingPrivateKey     = fmt.Errorf("missing private key")
	ErrMissingTx             = fmt.Errorf("missing transaction")
	ErrMissingInputs         = fmt.Errorf("transaction has no inputs")
	ErrMissingPrevOutAmounts = fmt.Errorf(
		"prevout amounts must be provided for every input",
	)
	ErrInvalidPrevOutAmount = fmt.Errorf("prevout amount must be positive")
)
