package pagination

import (
	"errors"
	"fmt"
)

// ErrNilEnvelope is returned when a PageFetcher reports success without an envelope.
var ErrNilEnvelope = errors.New("page fetcher returned nil envelope")

// ConfigError reports invalid pagination parameters. It is returned before
// any page is requested.
type ConfigError struct {
	Field string
	Value int
	Rule  string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid pagination config: %s=%d (%s)", e.Field, e.Value, e.Rule)
}
