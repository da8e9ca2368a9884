package storage

import "github.com/oklog/ulid/v2"

// IDLength is the fixed length of every entity id (a ULID string).
const IDLength = 26

// NewID mints a fresh entity id. ULIDs are lexicographically sortable by
// creation time, which keeps inserted rows roughly clustered.
func NewID() string {
	return ulid.Make().String()
}
