// Package shared provides common utility functions used across multiple
// packages in the depspin codebase.
package shared

import "strings"

// ShortHashLength is how many hex digits of a commit hash are shown.
const ShortHashLength = 12

// ShortHash abbreviates a commit hash for display.
func ShortHash(hash string) string {
	hash = strings.TrimSpace(hash)
	if len(hash) > ShortHashLength {
		return hash[:ShortHashLength]
	}
	return hash
}
