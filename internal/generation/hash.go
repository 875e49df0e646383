package generation

import (
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// HashText returns a short non-cryptographic fingerprint of the source
// text for audit bookkeeping. Collisions are acceptable.
func HashText(s string) string {
	return strconv.FormatUint(xxhash.Sum64String(s), 16)
}
