// Package cache provides the per-session parsed-file cache, content hashing
// and the import dependency graph used by watch mode.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
)

// HashContent returns the hex SHA-256 of src.
func HashContent(src []byte) string {
	sum := sha256.Sum256(src)
	return hex.EncodeToString(sum[:])
}

// HashFile hashes the current contents of path.
func HashFile(path string) (string, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return HashContent(src), nil
}
