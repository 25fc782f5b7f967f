package vector

import (
	"fmt"

	"github.com/nerrad567/vectorlink/internal/credential"
)

// ErrMissingCredential is returned by Connect when no bundle is stored for
// the robot. Run the grant flow first. It matches credential.ErrNotFound.
var ErrMissingCredential = fmt.Errorf("vector: missing credential: %w", credential.ErrNotFound)
