package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type Role string

const (
	RoleCreator  Role = "creator"
	RolePanelist Role = "panelist"
)

const issuer = "hackjudge"

var ErrInvalidToken = errors.New("invalid or expired token")

// Claims identify the caller. For a panelist HackathonID names the only
// hackathon the token is good for.
type Claims struct {
	Email       string `json:"email"`
	Role        Role   `json:"role"`
	HackathonID string `json:"hackathonId,omitempty"`
	jwt.RegisteredClaims
}

// ActorID is the user id for creators and the panelist id for panelists.
func (c *Claims) ActorID() string {
	return c.Subject
}

type Tokens struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokens(secret string, ttl time.Duration) *Tokens {
	return &Tokens{secret: []byte(secret), ttl: ttl, now: time.Now}
}

func (t *Tokens) Issue(subject, email string, role Role, hackathonID string) (string, error) {
	now := t.now()
	claims := Claims{
		Email:       email,
		Role:        role,
		HackathonID: hackathonID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func (t *Tokens) Verify(raw string) (*Claims, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(t.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" || (claims.Role != RoleCreator && claims.Role != RolePanelist) {
		return nil, ErrInvalidToken
	}
	return &claims, nil
}
