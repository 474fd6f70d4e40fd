package jwt

import (
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/auth"
	"github.com/go-chi/jwtauth/v5"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

// Service verifies bearer tokens issued by the auth service. Both sides share
// the HS256 secret.
type Service interface {
	JWTAuth() *jwtauth.JWTAuth
	GenerateAccessToken(userID string, role auth.Role, ttl time.Duration) (token string, expiresAt int64, err error)
}

type JWTService struct {
	tokenAuth *jwtauth.JWTAuth
}

func (j *JWTService) JWTAuth() *jwtauth.JWTAuth {
	return j.tokenAuth
}

func NewJWTService(secretKey string) Service {
	return &JWTService{
		tokenAuth: jwtauth.New("HS256", []byte(secretKey), nil, jwt.WithAcceptableSkew(30*time.Second)),
	}
}

// GenerateAccessToken mints a token in the auth service's format. Used by
// tests and local tooling; production tokens come from the auth service.
func (j *JWTService) GenerateAccessToken(userID string, role auth.Role, ttl time.Duration) (token string, expiresAt int64, err error) {
	expiresAt = time.Now().Add(ttl).Unix()

	claims := map[string]interface{}{
		"user_id": userID,
		"role":    string(role),
		"type":    "access",
		"exp":     expiresAt,
	}

	_, tokenString, err := j.tokenAuth.Encode(claims)
	return tokenString, expiresAt, err
}
