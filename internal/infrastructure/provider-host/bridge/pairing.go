package bridgehost

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt"
)

const pairingSubject = "bridge"

var (
	// ErrMissingSecret ...
	ErrMissingSecret = errors.New("bridge secret must not be empty")
	// ErrInvalidPairingToken ...
	ErrInvalidPairingToken = errors.New("invalid pairing token")
)

// Pairing issues and verifies the HS256 tokens a page must present to open a
// bridge session.
type Pairing struct {
	secret []byte
}

func NewPairing(secret string) (*Pairing, error) {
	if len(secret) <= 0 {
		return nil, ErrMissingSecret
	}
	return &Pairing{[]byte(secret)}, nil
}

// IssueToken returns a token valid for the given duration. A non positive
// ttl issues a token that never expires.
func (p *Pairing) IssueToken(ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.StandardClaims{
		Subject:  pairingSubject,
		IssuedAt: now.Unix(),
	}
	if ttl > 0 {
		claims.ExpiresAt = now.Add(ttl).Unix()
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(p.secret)
}

func (p *Pairing) VerifyToken(tokenString string) error {
	claims := &jwt.StandardClaims{}
	token, err := jwt.ParseWithClaims(
		tokenString, claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
			}
			return p.secret, nil
		},
	)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidPairingToken, err)
	}
	if !token.Valid || claims.Subject != pairingSubject {
		return ErrInvalidPairingToken
	}
	return nil
}
