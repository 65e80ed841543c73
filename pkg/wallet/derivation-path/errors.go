package path

import (
	"fmt"
)

var (
	ErrMissingDerivationPath   = fmt.Errorf("missing derivation path")
	ErrMalformedDerivationPath = fmt.Errorf("path must not start or end with a '/'")
	ErrOutOfRangeIndex         = fmt.Errorf("purpose and coin type must be in non hardened range")
	ErrOutOfRangeAccount       = fmt.Errorf("account index must be in non hardened range")
)
