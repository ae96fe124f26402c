package auth

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

type Role string

const (
	RoleAdmin     Role = "admin"
	RoleModerator Role = "moderator"
	RoleUser      Role = "user"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleModerator, RoleUser:
		return true
	}
	return false
}

func ParseRole(s string) (Role, error) {
	r := Role(s)
	if s == "" || r.Valid() {
		return r, nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

type Credential struct {
	Username     string `json:"username" yaml:"username"`
	Password     string `json:"-" yaml:"password"`
	PasswordHash string `json:"-" yaml:"password_hash"`
	Role         Role   `json:"role,omitempty" yaml:"role"`
	Name         string `json:"name" yaml:"name"`
	Email        string `json:"email,omitempty" yaml:"email"`
}

// Claims carries only the allow-listed credential fields plus iat/exp.
type Claims struct {
	Username string `json:"username"`
	Role     Role   `json:"role,omitempty"`
	Name     string `json:"name"`
	Email    string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

type UserSummary struct {
	Username string `json:"username"`
	Role     Role   `json:"role,omitempty"`
	Name     string `json:"name"`
	Email    string `json:"email,omitempty"`
}

func (c *Claims) Summary() UserSummary {
	return UserSummary{Username: c.Username, Role: c.Role, Name: c.Name, Email: c.Email}
}

func DefaultCredentials() []Credential {
	return []Credential{
		{Username: "demo", Password: "secret123", Role: RoleUser, Name: "Demo User", Email: "demo@example.com"},
		{Username: "admin", Password: "admin123", Role: RoleAdmin, Name: "Admin User"},
		{Username: "moderator", Password: "moderator123", Role: RoleModerator, Name: "Moderator User"},
		{Username: "user", Password: "user123", Role: RoleUser, Name: "Regular User"},
	}
}
