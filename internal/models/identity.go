package models

// Identity is the authenticated caller, resolved once per request and passed
// explicitly to services.
type Identity struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
}

// IsZero reports whether no caller was resolved.
func (i Identity) IsZero() bool {
	return i.ID == 0
}
