package domain

import "time"

// Session is the authenticated caller of one request. It is built from the bearer
// token by the auth middleware and passed explicitly to services.
type Session struct {
	UserID    string
	Role      Role
	TokenID   string
	ExpiresAt time.Time
}

func (s *Session) Authenticated() bool {
	return s != nil && s.UserID != ""
}

func (s *Session) IsAdmin() bool {
	return s.Authenticated() && s.Role == RoleAdmin
}

// CanAccess reports whether the session may read or modify a submission owned by userID.
func (s *Session) CanAccess(ownerID string) bool {
	return s.IsAdmin() || (s.Authenticated() && s.UserID == ownerID)
}
