package sqlparams

import (
	"fmt"
	"regexp"

	"github.com/cespare/xxhash/v2"
)

var hashSuffix = regexp.MustCompile(`\s*/\* HASH [^*]* \*/\s*$`)

// QueryHash digests query text, ignoring a parameter hash appended by AppendHash.
func QueryHash(text string) string {
	return fmt.Sprintf("%016X", xxhash.Sum64String(StripHash(text)))
}

func StripHash(text string) string {
	return hashSuffix.ReplaceAllString(text, "")
}

// AppendHash tags text with the parameter hash, so that plans differing only
// in hash-relevant parameters are cached apart.
func AppendHash(text, hash string) string {
	return StripHash(text) + "\n/* HASH " + hash + " */"
}
