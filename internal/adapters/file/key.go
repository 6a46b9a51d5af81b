package file

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"
)

// hashedPrefix marks file names derived from a digest instead of the raw ID.
const hashedPrefix = "sid-"

var safeKeyPattern = regexp.MustCompile(`^[A-Za-z0-9._-]{1,128}$`)

// Key maps a session or loop ID to the file name stem it is stored under.
// IDs that are safe as file names are used verbatim so the directory stays
// readable; anything else is replaced by a sha256 digest. The mapping is
// deterministic, so independent processes addressing one ID meet on one file.
func Key(id string) string {
	if safeKeyPattern.MatchString(id) && strings.Trim(id, ".") != "" {
		return id
	}
	sum := sha256.Sum256([]byte(id))
	return hashedPrefix + hex.EncodeToString(sum[:])
}
