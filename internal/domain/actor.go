package domain

// Actor is the authenticated user a service call is made on behalf of.
type Actor struct {
	UserID string
	Role   UserRole
}
