package catalog

import "github.com/shamank/infraproxy-sdk-go/pkg/model"

// VerifiedIDs are the listings whose providers have been verified.
var VerifiedIDs = []string{
	"0x268060691fbe57a86e16d41a8ba0a277441a7566beb9ddb2774430d68ef4a912", // SuperNode RPC
}

// IsVerified reports whether id is in ids, or in VerifiedIDs when ids is empty.
func IsVerified(id string, ids ...string) bool {
	if len(ids) == 0 {
		ids = VerifiedIDs
	}
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

// MarkVerified sets Verified on every listing whose id is in ids (VerifiedIDs
// when empty) and returns how many it marked. It never clears the flag.
func MarkVerified(listings []*model.Listing, ids ...string) int {
	n := 0
	for _, l := range listings {
		if l != nil && !l.Verified && IsVerified(l.ID, ids...) {
			l.Verified = true
			n++
		}
	}
	return n
}
