package gateway

import (
	"github.com/pkg/errors"
)

// ErrNotConfigured is returned by a gateway whose credentials are missing.
// The process still starts; every send through it fails and is logged.
var ErrNotConfigured = errors.New("gateway not configured")
