// Package auth exposes the signed-in learner as an opaque capability.
// Token verification is the backend's job; the client only reads claims.
package auth

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/golang-jwt/jwt/v5"
)

// RoleStudent is the role assumed when a token carries none.
const RoleStudent = "student"

// User is the current learner.
type User struct {
	ID   string
	Role string
}

// Anonymous is the signed-out user.
var Anonymous = User{}

// Authenticated reports whether u identifies a signed-in learner.
func (u User) Authenticated() bool { return u.ID != "" }

// ErrNoSubject is returned when a token names no user.
var ErrNoSubject = errors.New("token has no subject")

// FromToken reads the user from a bearer token without verifying its
// signature. An empty token yields Anonymous.
func FromToken(token string) (User, error) {
	if token == "" {
		return Anonymous, nil
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return Anonymous, fmt.Errorf("parse token: %w", err)
	}

	id := claimString(claims, "user_id")
	if id == "" {
		sub, err := claims.GetSubject()
		if err != nil {
			return Anonymous, fmt.Errorf("read subject: %w", err)
		}
		id = sub
	}
	if id == "" {
		return Anonymous, ErrNoSubject
	}

	role := claimString(claims, "role")
	if role == "" {
		role = RoleStudent
	}
	return User{ID: id, Role: role}, nil
}

// claimString reads a claim that may be encoded as a string or a number.
func claimString(claims jwt.MapClaims, name string) string {
	switch v := claims[name].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatInt(int64(v), 10)
	}
	return ""
}
