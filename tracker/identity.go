package tracker

import "hash/fnv"

// identitySpace bounds derived user IDs to 0–999999.
const identitySpace = 1_000_000

// DeriveUserID maps a username to a synthetic user ID for targets added on a
// member's behalf. The Bot API cannot resolve usernames to real user IDs, so
// this is a deliberately degenerate identity: deterministic (the same
// username always yields the same ID) but not collision-free — two usernames
// can share an ID, and such a collision makes them share target records.
func DeriveUserID(username string) int64 {
	h := fnv.New32a()
	h.Write([]byte(username))
	return int64(h.Sum32() % identitySpace)
}
