package model

import "github.com/golang-jwt/jwt/v5"

// Role of an authenticated user inside live rooms
type Role string

const (
	RoleMentor  Role = "mentor"
	RoleLearner Role = "learner"
)

// Identity is who sits behind a connection
type Identity struct {
	UserID    string `json:"userId"`
	Username  string `json:"username"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Role      Role   `json:"role"`
}

// MentorIdentity returns the identity as a room mentor
func (i *Identity) MentorIdentity() MentorIdentity {
	return MentorIdentity{
		ID:        i.UserID,
		Username:  i.Username,
		FirstName: i.FirstName,
		LastName:  i.LastName,
	}
}

// UserClaims are JWT claims issued by the platform's auth service
type UserClaims struct {
	UserID    string `json:"userId"`
	Username  string `json:"username"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Role      Role   `json:"role"`
	jwt.RegisteredClaims
}

// Identity extracts the connection identity from the claims
func (c *UserClaims) Identity() *Identity {
	return &Identity{
		UserID:    c.UserID,
		Username:  c.Username,
		FirstName: c.FirstName,
		LastName:  c.LastName,
		Role:      c.Role,
	}
}
