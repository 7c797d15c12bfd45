// Package callbackid generates identifiers for callback registrations.
package callbackid

import "github.com/oklog/ulid/v2"

// New returns a fresh callback identifier.
//
// Identifiers are ULIDs: 48 bits of millisecond timestamp plus 80 bits of
// entropy, so collisions are negligible for any realistic number of
// concurrent registrations. They are also lexicographically ordered by
// creation time, which keeps registry dumps readable.
//
// Safe for concurrent use.
func New() string {
	return ulid.Make().String()
}
