package user

import "strings"

// Principal is the caller identity supplied by the trusted gateway.
type Principal struct {
	UserID         string
	IsCommissioner bool
}

func (p Principal) Anonymous() bool {
	return strings.TrimSpace(p.UserID) == ""
}

// CanAdminister reports whether p may run commissioner actions on a pool owned by commissionerID.
func (p Principal) CanAdminister(commissionerID string) bool {
	return !p.Anonymous() && p.IsCommissioner && p.UserID == commissionerID
}
