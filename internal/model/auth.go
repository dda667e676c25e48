package model

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// Role is the closed set of actors the system knows about
type Role string

const (
	RoleCandidate   Role = "candidate"
	RoleInterviewer Role = "interviewer"
	RoleAdmin       Role = "admin"
)

// ParseRole validates a role string
func ParseRole(s string) (Role, error) {
	switch r := Role(s); r {
	case RoleCandidate, RoleInterviewer, RoleAdmin:
		return r, nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// Identity is the authenticated caller attached to requests and connections
type Identity struct {
	UserID string `json:"userId"`
	Role   Role   `json:"role"`
	Name   string `json:"name"`
}

func (i Identity) IsAdmin() bool { return i.Role == RoleAdmin }

// UserClaims are JWT claims for every role
type UserClaims struct {
	UserID string `json:"userId"`
	Role   Role   `json:"role"`
	Name   string `json:"name"`
	jwt.RegisteredClaims
}

// Identity returns the identity carried by the claims
func (c *UserClaims) Identity() Identity {
	return Identity{UserID: c.UserID, Role: c.Role, Name: c.Name}
}

// TokenRequest is the request body for issuing a development token
type TokenRequest struct {
	UserID string `json:"userId"`
	Role   string `json:"role"`
	Name   string `json:"name"`
}

// TokenResponse is returned after a token is issued
type TokenResponse struct {
	Token  string `json:"token"`
	UserID string `json:"userId"`
	Role   Role   `json:"role"`
}
