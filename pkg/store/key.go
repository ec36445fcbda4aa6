package store

import "strings"

// Snapshot parts, one Redis key each.
const (
	PartHTML     = "html"
	PartMetadata = "metadata"
	PartStoredAt = "stored_at"
)

// KeyPrefix is the namespace of all store keys.
const KeyPrefix = "seal:contract"

// Key identifies one part of a stored contract snapshot.
type Key struct {
	ContractID string
	Part       string
}

// String generates the Redis key.
// Format: seal:contract:{id}:{part}
func (k Key) String() string {
	return strings.Join([]string{KeyPrefix, k.ContractID, k.Part}, ":")
}

// keysFor returns the keys of every part of contract id, in Snapshot order.
func keysFor(id string) []string {
	return []string{
		Key{ContractID: id, Part: PartHTML}.String(),
		Key{ContractID: id, Part: PartMetadata}.String(),
		Key{ContractID: id, Part: PartStoredAt}.String(),
	}
}
