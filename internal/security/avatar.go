package security

import (
	"crypto/md5"
	"encoding/hex"
	"strings"
)

const (
	gravatarBase   = "https://www.gravatar.com/avatar/"
	gravatarParams = "?s=200&r=pg&d=mm"
)

// GravatarURL returns the 200px, pg-rated avatar for an email address,
// falling back to the mystery-man image.
func GravatarURL(email string) string {
	sum := md5.Sum([]byte(strings.ToLower(strings.TrimSpace(email))))

	return gravatarBase + hex.EncodeToString(sum[:]) + gravatarParams
}
