package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"medbook/pkg/model"
)

var ErrBadToken = errors.New("invalid token")

// Claims carries the caller identity the upstream identity service signed.
// Subject is the directory id of the doctor or patient (empty for admins).
type Claims struct {
	Subject string `json:"sub_id"`
	Email   string `json:"email"`
	Role    string `json:"role"`
	jwt.RegisteredClaims
}

// MakeToken issues a short-lived access token. Kept for tests and local
// tooling; production tokens come from the identity service.
func MakeToken(caller model.Caller, secret string, ttl time.Duration) (string, error) {
	c := Claims{
		Subject: caller.SubjectID,
		Email:   caller.Email,
		Role:    string(caller.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString([]byte(secret))
}

func ParseToken(raw, secret string) (model.Caller, error) {
	tok, err := jwt.ParseWithClaims(raw, &Claims{}, func(t *jwt.Token) (any, error) {
		// block alg confusion
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrBadToken
		}
		return []byte(secret), nil
	})
	if err != nil {
		return model.Caller{}, err
	}

	c, ok := tok.Claims.(*Claims)
	if !ok || !tok.Valid {
		return model.Caller{}, ErrBadToken
	}

	role, ok := model.ParseRole(c.Role)
	if !ok {
		return model.Caller{}, ErrBadToken
	}

	return model.Caller{
		SubjectID: c.Subject,
		Email:     c.Email,
		Role:      role,
	}, nil
}
