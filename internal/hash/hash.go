// internal/hash/hash.go
package hash

import (
	"crypto/sha256"
	"encoding/hex"
)

// LobbyID derives the canonical lobby id from its display name. The mapping
// is deterministic, so two lobbies can never share a name.
func LobbyID(name string) string {
	sum := sha256.Sum256([]byte(name))
	return hex.EncodeToString(sum[:])
}
