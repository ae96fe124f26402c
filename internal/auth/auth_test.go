package auth

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

func newTestService(t *testing.T, includeRole bool) *Service {
	t.Helper()
	return NewService(NewMemoryStore(DefaultCredentials()), TokenConfig{
		Secret:      []byte("test-secret"),
		TTL:         time.Hour,
		ExpiresIn:   "1h",
		IncludeRole: includeRole,
	})
}

func decodePayload(t *testing.T, token string) map[string]any {
	t.Helper()
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		t.Fatalf("token has %d parts", len(parts))
	}
	raw, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	return m
}

func TestAuthenticateRejectsUnknownPairs(t *testing.T) {
	svc := newTestService(t, true)
	ctx := context.Background()
	pairs := [][2]string{
		{"demo", "wrong"},
		{"nobody", "secret123"},
		{"DEMO", "secret123"},
		{"demo", ""},
		{"", ""},
		{"admin", "secret123"},
	}
	for _, p := range pairs {
		cred, err := svc.Authenticate(ctx, p[0], p[1])
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("Authenticate(%q, %q) err = %v, want ErrInvalidCredentials", p[0], p[1], err)
		}
		if cred != nil {
			t.Errorf("Authenticate(%q, %q) returned a credential", p[0], p[1])
		}
	}
}

func TestAuthenticateBcryptHash(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	svc := NewService(NewMemoryStore([]Credential{
		{Username: "ops", PasswordHash: string(hash), Role: RoleAdmin, Name: "Ops"},
	}), TokenConfig{Secret: []byte("x"), TTL: time.Minute})

	if _, err := svc.Authenticate(context.Background(), "ops", "hunter2"); err != nil {
		t.Fatalf("expected bcrypt match: %v", err)
	}
	if _, err := svc.Authenticate(context.Background(), "ops", "hunter3"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials, got %v", err)
	}
}

type failingStore struct{}

func (failingStore) FindByUsername(context.Context, string) (*Credential, error) {
	return nil, errors.New("connection refused")
}

func TestAuthenticateSurfacesStoreErrors(t *testing.T) {
	svc := NewService(failingStore{}, TokenConfig{Secret: []byte("x"), TTL: time.Minute})
	_, err := svc.Authenticate(context.Background(), "demo", "secret123")
	if err == nil || errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected wrapped store error, got %v", err)
	}
}

func TestIssueTokenPayloadFields(t *testing.T) {
	svc := newTestService(t, true)
	cred, err := svc.Authenticate(context.Background(), "demo", "secret123")
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	token, exp, err := svc.IssueToken(cred)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	if time.Until(exp) <= 59*time.Minute {
		t.Errorf("expiry %v too soon", exp)
	}

	payload := decodePayload(t, token)
	want := map[string]bool{"username": true, "role": true, "name": true, "email": true, "iat": true, "exp": true}
	for k := range payload {
		if !want[k] {
			t.Errorf("unexpected claim %q in payload", k)
		}
	}
	for k := range want {
		if _, ok := payload[k]; !ok {
			t.Errorf("missing claim %q", k)
		}
	}
	if strings.Contains(token, base64.RawURLEncoding.EncodeToString([]byte("secret123"))) {
		t.Error("token leaks password")
	}
	if payload["username"] != "demo" || payload["role"] != "user" || payload["name"] != "Demo User" {
		t.Errorf("unexpected payload: %v", payload)
	}
}

func TestIssueTokenOmitsRoleWithoutRBAC(t *testing.T) {
	svc := newTestService(t, false)
	cred, _ := svc.Authenticate(context.Background(), "admin", "admin123")
	token, _, err := svc.IssueToken(cred)
	if err != nil {
		t.Fatal(err)
	}
	payload := decodePayload(t, token)
	if _, ok := payload["role"]; ok {
		t.Errorf("role should be omitted, got payload %v", payload)
	}
	if _, ok := payload["email"]; ok {
		t.Errorf("empty email should be omitted, got payload %v", payload)
	}
}

func TestParseTokenRoundTrip(t *testing.T) {
	svc := newTestService(t, true)
	cred, _ := svc.Authenticate(context.Background(), "moderator", "moderator123")
	token, _, err := svc.IssueToken(cred)
	if err != nil {
		t.Fatal(err)
	}
	claims, err := svc.ParseToken(token)
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}
	if claims.Username != "moderator" || claims.Role != RoleModerator || claims.Name != "Moderator User" {
		t.Errorf("unexpected claims: %+v", claims)
	}
}

func TestParseTokenRejectsExpired(t *testing.T) {
	svc := newTestService(t, true)
	issuedAt := time.Now().Add(-2 * time.Hour)
	svc.now = func() time.Time { return issuedAt }
	cred, _ := svc.Authenticate(context.Background(), "demo", "secret123")
	token, _, err := svc.IssueToken(cred)
	if err != nil {
		t.Fatal(err)
	}
	svc.now = time.Now

	_, err = svc.ParseToken(token)
	if !errors.Is(err, jwt.ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
	if tag := TokenErrorTag(err); tag != TagTokenExpired {
		t.Errorf("tag = %q", tag)
	}
}

func TestParseTokenRejectsTampering(t *testing.T) {
	svc := newTestService(t, true)
	cred, _ := svc.Authenticate(context.Background(), "user", "user123")
	token, _, err := svc.IssueToken(cred)
	if err != nil {
		t.Fatal(err)
	}

	parts := strings.Split(token, ".")
	payload := decodePayload(t, token)
	payload["role"] = "admin"
	raw, _ := json.Marshal(payload)
	forged := parts[0] + "." + base64.RawURLEncoding.EncodeToString(raw) + "." + parts[2]

	_, err = svc.ParseToken(forged)
	if !errors.Is(err, jwt.ErrTokenSignatureInvalid) {
		t.Fatalf("expected signature error, got %v", err)
	}
	if tag := TokenErrorTag(err); tag != TagTokenSignature {
		t.Errorf("tag = %q", tag)
	}

	other := NewService(NewMemoryStore(nil), TokenConfig{Secret: []byte("other-secret"), TTL: time.Hour})
	if _, err := other.ParseToken(token); err == nil {
		t.Fatal("token signed with a different secret must be rejected")
	}
}

func TestParseTokenRejectsNoneAlgorithm(t *testing.T) {
	svc := newTestService(t, true)
	claims := Claims{
		Username: "admin",
		Role:     RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatal(err)
	}
	_, err = svc.ParseToken(unsigned)
	if err == nil {
		t.Fatal("unsigned token must be rejected")
	}
	if tag := TokenErrorTag(err); tag != TagTokenUnverified {
		t.Errorf("tag = %q", tag)
	}
}

func TestParseTokenRequiresExpiry(t *testing.T) {
	svc := newTestService(t, true)
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{Username: "demo"}).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatal(err)
	}
	_, err = svc.ParseToken(tok)
	if err == nil {
		t.Fatal("token without exp must be rejected")
	}
	if tag := TokenErrorTag(err); tag != TagTokenClaims {
		t.Errorf("tag = %q", tag)
	}
}

func TestTokenErrorTagMalformed(t *testing.T) {
	svc := newTestService(t, true)
	_, err := svc.ParseToken("not-a-jwt")
	if tag := TokenErrorTag(err); tag != TagTokenMalformed {
		t.Errorf("tag = %q (%v)", tag, err)
	}
	if tag := TokenErrorTag(errors.New("boom")); tag != TagTokenInvalid {
		t.Errorf("fallback tag = %q", tag)
	}
}
