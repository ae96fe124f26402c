package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

type TokenConfig struct {
	Secret []byte
	TTL    time.Duration
	// ExpiresIn is the lifetime exactly as configured, echoed to clients.
	ExpiresIn   string
	IncludeRole bool
}

type Service struct {
	store CredentialStore
	cfg   TokenConfig
	now   func() time.Time
}

func NewService(store CredentialStore, cfg TokenConfig) *Service {
	return &Service{
		store: store,
		cfg:   cfg,
		now:   time.Now,
	}
}

var ErrInvalidCredentials = errors.New("invalid credentials")

func (s *Service) ExpiresIn() string {
	return s.cfg.ExpiresIn
}

func (s *Service) Authenticate(ctx context.Context, username, password string) (*Credential, error) {
	cred, err := s.store.FindByUsername(ctx, username)
	if errors.Is(err, ErrCredentialNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("lookup credential: %w", err)
	}
	if !passwordMatches(cred, password) {
		return nil, ErrInvalidCredentials
	}
	return cred, nil
}

func passwordMatches(c *Credential, password string) bool {
	if c.PasswordHash != "" {
		return bcrypt.CompareHashAndPassword([]byte(c.PasswordHash), []byte(password)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(c.Password), []byte(password)) == 1
}

func (s *Service) IssueToken(c *Credential) (string, time.Time, error) {
	now := s.now().UTC()
	exp := now.Add(s.cfg.TTL)
	claims := Claims{
		Username: c.Username,
		Name:     c.Name,
		Email:    c.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	if s.cfg.IncludeRole {
		claims.Role = c.Role
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(s.cfg.Secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, exp, nil
}

// Summary is the user block returned alongside a fresh token. It mirrors the
// token payload, so the role is present only when tokens carry it.
func (s *Service) Summary(c *Credential) UserSummary {
	u := UserSummary{Username: c.Username, Name: c.Name, Email: c.Email}
	if s.cfg.IncludeRole {
		u.Role = c.Role
	}
	return u
}

func (s *Service) ParseToken(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.cfg.Secret, nil
	},
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}
