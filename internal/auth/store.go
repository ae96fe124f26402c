package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/singleflight"
)

// Store reads credentials from the credentials table. Only bcrypt hashes are
// persisted; plaintext passwords are hashed on seeding.
type Store struct {
	db    *sql.DB
	group singleflight.Group
}

const lookupTimeout = 5 * time.Second

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// FindByUsername coalesces concurrent lookups of the same username. The
// shared query is not tied to any one caller's context; each caller stops
// waiting when its own context ends.
func (s *Store) FindByUsername(ctx context.Context, username string) (*Credential, error) {
	ch := s.group.DoChan(username, func() (interface{}, error) {
		qctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), lookupTimeout)
		defer cancel()
		return s.queryByUsername(qctx, username)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		c := *res.Val.(*Credential)
		return &c, nil
	}
}

func (s *Store) queryByUsername(ctx context.Context, username string) (*Credential, error) {
	const q = `SELECT username, password_hash, role, name, email FROM credentials WHERE username = $1`
	row := s.db.QueryRowContext(ctx, q, username)
	c := &Credential{}
	var role string
	if err := row.Scan(&c.Username, &c.PasswordHash, &role, &c.Name, &c.Email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCredentialNotFound
		}
		return nil, err
	}
	c.Role = Role(role)
	return c, nil
}

func (s *Store) Create(ctx context.Context, c Credential) error {
	hash := c.PasswordHash
	if hash == "" {
		b, err := bcrypt.GenerateFromPassword([]byte(c.Password), bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		hash = string(b)
	}
	const q = `
		INSERT INTO credentials (username, password_hash, role, name, email)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := s.db.ExecContext(ctx, q, c.Username, hash, string(c.Role), c.Name, c.Email)
	return err
}

// SeedFromFile inserts users from a credentials file that are not already
// present. Existing rows are never updated.
func (s *Store) SeedFromFile(ctx context.Context, path string) error {
	creds, err := readCredentialsFile(path)
	if err != nil {
		return err
	}
	return s.Seed(ctx, creds)
}

func (s *Store) Seed(ctx context.Context, creds []Credential) error {
	for _, c := range creds {
		if _, err := s.queryByUsername(ctx, c.Username); err == nil {
			continue
		} else if !errors.Is(err, ErrCredentialNotFound) {
			return err
		}
		if err := s.Create(ctx, c); err != nil {
			return fmt.Errorf("seed %q: %w", c.Username, err)
		}
	}
	return nil
}
