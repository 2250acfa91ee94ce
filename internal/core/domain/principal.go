package domain

// Principal is the identity attached to a request once its bearer token has
// been verified. It is built from token claims only, never from the store.
type Principal struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

// IsAdmin reports whether the principal holds exactly the admin role.
func (p *Principal) IsAdmin() bool {
	return p != nil && p.Role == RoleAdmin
}

// CanActOn is the ownership rule for account mutations: the caller owns the
// target, or the caller is an admin.
func (p *Principal) CanActOn(targetID int64) bool {
	if p == nil {
		return false
	}
	return p.ID == targetID || p.IsAdmin()
}

// TokenClaims is the signed payload of a bearer token. On the wire the
// fields are sub, email, name and role; Subject maps to Principal.ID.
type TokenClaims struct {
	Subject int64
	Email   string
	Name    string
	Role    string
}

// ClaimsFor builds the claims issued for u.
func ClaimsFor(u *User) TokenClaims {
	return TokenClaims{
		Subject: u.ID,
		Email:   u.Email,
		Name:    u.DisplayName,
		Role:    u.Role.Name,
	}
}

func (c TokenClaims) Principal() *Principal {
	return &Principal{
		ID:    c.Subject,
		Email: c.Email,
		Name:  c.Name,
		Role:  c.Role,
	}
}
