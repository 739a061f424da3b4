// Package txref resolves user supplied transaction references (bare hashes or
// block explorer links) into canonical transaction hashes.
package txref

import (
	"net/url"
	"regexp"
	"strings"
)

var (
	// bareHashPattern matches a complete 32-byte hex transaction hash
	bareHashPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{64}$`)

	// embeddedHashPattern finds the first hash-shaped substring anywhere in the input
	embeddedHashPattern = regexp.MustCompile(`0x[0-9a-fA-F]{64}`)
)

// ExtractTransactionHash returns the lowercase 0x-prefixed transaction hash referenced by input.
//
// Input may be a bare hash, an explorer URL with a "tx" path segment followed by the hash
// (e.g. https://scrollscan.com/tx/0x...), or any text containing a hash.
// The second return value is false when no hash can be found.
func ExtractTransactionHash(input string) (string, bool) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", false
	}

	if bareHashPattern.MatchString(input) {
		return strings.ToLower(input), true
	}

	if hash, ok := hashFromURL(input); ok {
		return hash, true
	}

	// Fall back to scanning for any hash-shaped substring (copy-pasted fragments, malformed URLs)
	match := embeddedHashPattern.FindString(input)
	if match == "" {
		return "", false
	}

	return strings.ToLower(match), true
}

// hashFromURL extracts the hash following a "tx" path segment
func hashFromURL(input string) (string, bool) {
	u, err := url.Parse(input)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", false
	}

	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i := 0; i < len(segments)-1; i++ {
		if !strings.EqualFold(segments[i], "tx") {
			continue
		}

		candidate := segments[i+1]
		if bareHashPattern.MatchString(candidate) {
			return strings.ToLower(candidate), true
		}
	}

	return "", false
}

// IsTransactionHash reports whether s is a canonical transaction hash
func IsTransactionHash(s string) bool {
	return bareHashPattern.MatchString(s)
}
