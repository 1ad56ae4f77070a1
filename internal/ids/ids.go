// Package ids generates sortable identifiers for stored entities.
package ids

import (
	"time"

	"github.com/oklog/ulid/v2"
)

// New returns a ULID for the current instant.
func New() string {
	return ulid.Make().String()
}

// NewAt returns a ULID whose timestamp component is t, so ids sort like creation times.
func NewAt(t time.Time) string {
	return ulid.MustNew(ulid.Timestamp(t), ulid.DefaultEntropy()).String()
}
