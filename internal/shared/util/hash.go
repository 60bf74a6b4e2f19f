package util

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashOwnerKey maps a family ID to the directory name its files live under,
// so object keys never carry the raw identifier.
func HashOwnerKey(familyID string) string {
	sum := sha256.Sum256([]byte(familyID))
	return hex.EncodeToString(sum[:])
}
