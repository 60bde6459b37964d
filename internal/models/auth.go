package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// LoginRequest holds credentials for authenticating a user.
type LoginRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required"`
	IP        string `json:"-"`
	UserAgent string `json:"-"`
}

// LoginResponse returns the issued token and user info.
type LoginResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresIn   int64     `json:"expires_in"`
	User        UserInfo  `json:"user"`
	IssuedAt    time.Time `json:"issued_at"`
}

// UserInfo describes the authenticated user in responses.
type UserInfo struct {
	ID       int64  `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Role     Role   `json:"role"`
}

// JWTClaims represents the JWT payload for access tokens.
type JWTClaims struct {
	UserID int64  `json:"user_id"`
	Role   Role   `json:"role"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// RequestIdentity is the request-scoped projection of the authenticated
// caller. It is built by the authentication filter from verified claims
// and discarded when the request ends.
type RequestIdentity struct {
	UserID      int64
	Email       string
	Role        Role
	Permissions []string
}

// IdentityFromClaims derives a request identity, expanding the
// role-based permission set.
func IdentityFromClaims(claims *JWTClaims) *RequestIdentity {
	if claims == nil {
		return nil
	}
	return &RequestIdentity{
		UserID:      claims.UserID,
		Email:       claims.Email,
		Role:        claims.Role,
		Permissions: PermissionsForRole(claims.Role),
	}
}

// HasPermission reports whether the identity carries the permission.
func (i *RequestIdentity) HasPermission(perm string) bool {
	if i == nil {
		return false
	}
	for _, p := range i.Permissions {
		if p == perm {
			return true
		}
	}
	return false
}

// AuditStamp renders the "<email> - <role>" marker stored in the
// created_by / modified_by columns. Anonymous callers stamp "system".
func (i *RequestIdentity) AuditStamp() string {
	if i == nil {
		return "system"
	}
	return i.Email + " - " + string(i.Role)
}
