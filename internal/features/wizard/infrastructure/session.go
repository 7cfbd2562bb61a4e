package infrastructure

import (
	"context"
	"fmt"
	"sync"
	"time"

	"crazy-bakery/backend/internal/features/wizard/domain"

	"github.com/golang-jwt/jwt/v5"
)

// Claims are the contents of a session token.
type Claims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and checks HS256 session tokens.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenIssuer creates an issuer whose tokens live for ttl.
func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret), ttl: ttl}
}

// Issue returns a signed token for userID.
func (i *TokenIssuer) Issue(userID string) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(i.secret)
}

// Validate parses tokenStr and checks signature and expiry.
func (i *TokenIssuer) Validate(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return i.secret, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}

// ProfileReader loads the customer behind a user id.
type ProfileReader interface {
	Profile(ctx context.Context, userID string) (*domain.Identity, error)
}

// TokenSession is the session of one browser, carried by its token. An
// invalid or expired token reads as signed out.
type TokenSession struct {
	issuer   *TokenIssuer
	profiles ProfileReader

	mu    sync.RWMutex
	token string
}

// Session returns a session starting from token, which may be empty.
func (i *TokenIssuer) Session(token string, profiles ProfileReader) *TokenSession {
	return &TokenSession{issuer: i, profiles: profiles, token: token}
}

// Current returns the signed-in customer, or nil.
func (s *TokenSession) Current(ctx context.Context) (*domain.Identity, error) {
	s.mu.RLock()
	token := s.token
	s.mu.RUnlock()
	if token == "" {
		return nil, nil
	}
	claims, err := s.issuer.Validate(token)
	if err != nil {
		s.mu.Lock()
		if s.token == token {
			s.token = ""
		}
		s.mu.Unlock()
		return nil, nil
	}
	return s.profiles.Profile(ctx, claims.UserID)
}

// Establish replaces the session token.
func (s *TokenSession) Establish(creds domain.Credentials) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = creds.Token
}

// Token returns the current session token.
func (s *TokenSession) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}
