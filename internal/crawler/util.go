package crawler

import (
	"crypto/sha1"
	"encoding/hex"
	"net/url"
	"strings"
)

// HashURL returns a short hex digest of a URL, used in raw document filenames.
func HashURL(raw string) string {
	sum := sha1.Sum([]byte(raw))
	return hex.EncodeToString(sum[:])[:12]
}

// HostOf extracts the lowercased hostname from a URL, or "" if unparseable.
func HostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}
