package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

type contextKey string

const claimsContextKey contextKey = "tokengate_claims"

func WithClaims(ctx context.Context, c *Claims) context.Context {
	return context.WithValue(ctx, claimsContextKey, c)
}

func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	c, ok := ctx.Value(claimsContextKey).(*Claims)
	return c, ok
}

type TokenParser interface {
	ParseToken(token string) (*Claims, error)
}

// Rejection describes why a request was turned away before reaching its
// handler. Details is empty when there is nothing beyond Message to report.
// Tags classify the rejection for the audit log and are never sent to the
// client.
type Rejection struct {
	Status  int
	Message string
	Details string
	Tags    []string
}

// RejectFunc writes a rejection to the client.
type RejectFunc func(w http.ResponseWriter, r *http.Request, rej Rejection)

const (
	msgHeaderRequired = "Authorization header required"
	msgHeaderFormat   = "Authorization header format must be Bearer <token>"
	msgInvalidToken   = "Invalid or expired token"
)

const (
	TagHeaderMissing   = "header.missing"
	TagHeaderFormat    = "header.format"
	TagTokenExpired    = "token.expired"
	TagTokenSignature  = "token.signature"
	TagTokenMalformed  = "token.malformed"
	TagTokenUnverified = "token.unverifiable"
	TagTokenClaims     = "token.claims"
	TagTokenInvalid    = "token.invalid"
)

const (
	routeTagPrefix     = "route:"
	roleTagPrefix      = "role:"
	roleTagUnspecified = "none"
)

// TokenErrorTag names the class of a token verification failure.
func TokenErrorTag(err error) string {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return TagTokenExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return TagTokenSignature
	case errors.Is(err, jwt.ErrTokenMalformed):
		return TagTokenMalformed
	case errors.Is(err, jwt.ErrTokenUnverifiable):
		return TagTokenUnverified
	case errors.Is(err, jwt.ErrTokenInvalidClaims), errors.Is(err, jwt.ErrTokenRequiredClaimMissing):
		return TagTokenClaims
	default:
		return TagTokenInvalid
	}
}

func RouteTag(route string) string {
	return routeTagPrefix + route
}

func RoleTag(role Role) string {
	if role == "" {
		return roleTagPrefix + roleTagUnspecified
	}
	return roleTagPrefix + string(role)
}

// BearerToken extracts the token from a header of the exact form
// "Bearer <token>".
func BearerToken(header string) (string, bool) {
	parts := strings.Split(header, " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

func JWTMiddleware(parser TokenParser, reject RejectFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := r.Header.Get("Authorization")
			if h == "" {
				reject(w, r, Rejection{Status: http.StatusUnauthorized, Message: msgHeaderRequired, Tags: []string{TagHeaderMissing}})
				return
			}
			token, ok := BearerToken(h)
			if !ok {
				reject(w, r, Rejection{Status: http.StatusUnauthorized, Message: msgHeaderFormat, Tags: []string{TagHeaderFormat}})
				return
			}
			claims, err := parser.ParseToken(token)
			if err != nil {
				reject(w, r, Rejection{
					Status:  http.StatusUnauthorized,
					Message: msgInvalidToken,
					Details: err.Error(),
					Tags:    []string{TokenErrorTag(err)},
				})
				return
			}
			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

func RequireRoute(policy *Policy, route string, reject RejectFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsFromContext(r.Context())
			if !ok {
				reject(w, r, Rejection{Status: http.StatusUnauthorized, Message: msgHeaderRequired, Tags: []string{TagHeaderMissing, RouteTag(route)}})
				return
			}
			if err := policy.Authorize(claims, route); err != nil {
				reject(w, r, Rejection{
					Status:  http.StatusForbidden,
					Message: "Access denied: insufficient role",
					Details: err.Error(),
					Tags:    []string{RouteTag(route), RoleTag(claims.Role)},
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
