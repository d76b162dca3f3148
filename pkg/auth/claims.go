// Package auth issues and validates the bearer tokens accepted by boostd.
package auth

import (
	"slices"

	"github.com/golang-jwt/jwt/v5"
)

// Role names carried in tokens.
const (
	RoleAdmin    = "admin"
	RoleReviewer = "reviewer"
	RoleCustomer = "customer"
)

// Claims are the JWT claims for a boost user or operator.
type Claims struct {
	jwt.RegisteredClaims
	UserID string   `json:"uid"`
	Roles  []string `json:"roles"`
}

// HasRole reports whether the claims include role.
func (c Claims) HasRole(role string) bool {
	return slices.Contains(c.Roles, role)
}

// HasAnyRole reports whether the claims include at least one of roles.
func (c Claims) HasAnyRole(roles ...string) bool {
	for _, r := range roles {
		if c.HasRole(r) {
			return true
		}
	}
	return false
}
