package secret

import (
	"crypto/md5"
	"encoding/hex"
	"strconv"
	"time"
)

// CheckStamp returns the MD5 content hash of a claim tuple, used for claim
// set-membership comparisons. The stamp is a comparison key, not a
// credential.
func CheckStamp(claimType, claimValue string) string {
	sum := md5.Sum([]byte(claimType + ":" + claimValue))
	return hex.EncodeToString(sum[:])
}

// TokenSymbol derives the opaque bearer symbol handed to a client. The
// symbol is only a cache lookup key; the cached record is the actual
// authorization artifact.
func TokenSymbol(userName string, at time.Time) string {
	sum := md5.Sum([]byte(userName + ":" + strconv.FormatInt(at.Unix(), 10)))
	return hex.EncodeToString(sum[:])
}
