// Package credential derives the password digest stored in the user table.
//
// The digest is the lowercase hex SHA-224 of "username:password" with no
// salt, which is what trojan servers compare client hashes against.
package credential

import (
	"crypto/sha256"
	"encoding/hex"
)

// Size is the length of a hex encoded digest.
const Size = sha256.Size224 * 2

func Hash(username, password string) string {
	sum := sha256.Sum224([]byte(username + ":" + password))
	return hex.EncodeToString(sum[:])
}
