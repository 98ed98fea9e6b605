package model

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// UserID identifies a user account
type UserID string

// GroupID identifies a group
type GroupID string

// EventID identifies an event within its group
type EventID int

// SessionID identifies one browser persistence unit (survives reconnects)
type SessionID string

// ConnectionID identifies one live transport link of a session
type ConnectionID string

// ShortIDLength is the number of hex characters used for user and group ids
const ShortIDLength = 10

// idNamespace seeds the name-based UUIDs produced by IDGenerator
var idNamespace = uuid.MustParse("8f6b1f52-3c0e-4d7a-9a51-6c2f0e4b9d13")

// IDGenerator produces unique opaque identifiers from a monotonically
// incremented counter mixed with the current timestamp. The counter is part
// of the backend state so ids stay unique across restarts that reuse a seed.
type IDGenerator struct {
	Counter uint64 `json:"counter"`
}

// next advances the counter and returns a 32 character hex id
func (g *IDGenerator) next(now time.Time) string {
	g.Counter++
	seed := strconv.FormatUint(g.Counter, 10) + ":" + strconv.FormatInt(now.UnixNano(), 10)
	return strings.ReplaceAll(uuid.NewSHA1(idNamespace, []byte(seed)).String(), "-", "")
}

// LongID returns an id from the full id space, used for tokens.
// It never returns an id for which exists reports true.
func (g *IDGenerator) LongID(now time.Time, exists func(string) bool) string {
	for {
		id := g.next(now)
		if exists == nil || !exists(id) {
			return id
		}
	}
}

// ShortID returns an id from the reduced short id space, used for users
// and groups. Collisions are far more likely here, so it keeps advancing
// the counter until a free slot is found.
func (g *IDGenerator) ShortID(now time.Time, exists func(string) bool) string {
	for {
		id := g.next(now)[:ShortIDLength]
		if exists == nil || !exists(id) {
			return id
		}
	}
}
