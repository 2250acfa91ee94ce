package domain

import "time"

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// Role is a named permission tier. Names are unique.
type Role struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// User models a registered account. It is never rendered directly; callers
// shape it with Public or Profile so the password hash stays inside the core.
type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	DisplayName  string    `json:"name"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// DisplayName derives the public name of a user from its first and last name.
func DisplayName(firstName, lastName string) string {
	return firstName + " " + lastName
}

// PublicUser is the {id, email, name, role} view returned by login and registration.
type PublicUser struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

// Profile is the full account view returned to the account owner.
type Profile struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Name      string    `json:"name"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (u *User) Public() PublicUser {
	return PublicUser{
		ID:    u.ID,
		Email: u.Email,
		Name:  u.DisplayName,
		Role:  u.Role.Name,
	}
}

func (u *User) Profile() Profile {
	return Profile{
		ID:        u.ID,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Name:      u.DisplayName,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// UserPatch carries a partial update. Nil fields are left untouched.
type UserPatch struct {
	Email        *string
	FirstName    *string
	LastName     *string
	DisplayName  *string
	PasswordHash *string
}

// IsEmpty reports whether the patch changes nothing.
func (p UserPatch) IsEmpty() bool {
	return p.Email == nil && p.FirstName == nil && p.LastName == nil &&
		p.DisplayName == nil && p.PasswordHash == nil
}
