package id

import (
	"crypto/rand"

	"github.com/oklog/ulid/v2"
)

// New returns a fresh ULID string. ULIDs sort lexicographically by creation
// time, which makes them usable both as DynamoDB partition keys and as range
// keys in created_at-ordered indexes.
func New() string {
	return ulid.MustNew(ulid.Now(), rand.Reader).String()
}
