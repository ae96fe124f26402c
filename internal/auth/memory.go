package auth

import (
	"context"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

var ErrCredentialNotFound = errors.New("credential not found")

type CredentialStore interface {
	FindByUsername(ctx context.Context, username string) (*Credential, error)
}

var (
	_ CredentialStore = (*MemoryStore)(nil)
	_ CredentialStore = (*Store)(nil)
)

// MemoryStore is fixed at construction; lookups return copies.
type MemoryStore struct {
	byUsername map[string]Credential
}

func NewMemoryStore(creds []Credential) *MemoryStore {
	m := make(map[string]Credential, len(creds))
	for _, c := range creds {
		if _, dup := m[c.Username]; dup {
			continue
		}
		m[c.Username] = c
	}
	return &MemoryStore{byUsername: m}
}

func (s *MemoryStore) FindByUsername(_ context.Context, username string) (*Credential, error) {
	c, ok := s.byUsername[username]
	if !ok {
		return nil, ErrCredentialNotFound
	}
	return &c, nil
}

func (s *MemoryStore) Len() int {
	return len(s.byUsername)
}

type credentialsFile struct {
	Users []Credential `yaml:"users"`
}

func readCredentialsFile(path string) ([]Credential, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cf credentialsFile
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	out := make([]Credential, 0, len(cf.Users))
	for _, u := range cf.Users {
		if u.Username == "" || (u.Password == "" && u.PasswordHash == "") {
			continue
		}
		if _, err := ParseRole(string(u.Role)); err != nil {
			return nil, fmt.Errorf("user %q: %w", u.Username, err)
		}
		out = append(out, u)
	}
	return out, nil
}

func LoadCredentialsFile(path string) (*MemoryStore, error) {
	creds, err := readCredentialsFile(path)
	if err != nil {
		return nil, err
	}
	return NewMemoryStore(creds), nil
}
