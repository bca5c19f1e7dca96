package utils

import (
	"crypto/md5"
	"fmt"
	"strings"
)

// GetGravatarURL builds the avatar URL shown on account profiles. Sizes at or
// below zero fall back to 200px. The "mp" default serves a neutral silhouette
// for addresses without a Gravatar profile.
func GetGravatarURL(email string, size int) string {
	if size <= 0 {
		size = 200
	}

	// Gravatar hashes the trimmed, lowercased address.
	email = strings.ToLower(strings.TrimSpace(email))
	hash := md5.Sum([]byte(email))

	return fmt.Sprintf("https://www.gravatar.com/avatar/%x?s=%d&d=mp", hash, size)
}
