package auth

import "errors"

var (
	ErrInvalidToken = errors.New("invalid or expired token")
	ErrTokenExpired = errors.New("token has expired")
	ErrAccessDenied = errors.New("report access requires admin or hr role")
)
