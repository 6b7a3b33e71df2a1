package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"pathtech-academy/internal/infra/logging"
)

// Identity is the caller as asserted by the identity provider.
type Identity struct {
	UserID  string
	IsAdmin bool
}

// Claims matches the access tokens of a managed auth provider: the role lives
// either at the top level (service tokens) or under app_metadata.
type Claims struct {
	Role        string `json:"role"`
	AppMetadata struct {
		Role string `json:"role"`
	} `json:"app_metadata"`
	jwt.RegisteredClaims
}

func (c *Claims) isAdmin() bool {
	return c.AppMetadata.Role == "admin" || c.Role == "service_role"
}

// TokenVerifier checks HS256 bearer tokens.
type TokenVerifier struct {
	secret []byte
	opts   []jwt.ParserOption
}

func NewTokenVerifier(secret, issuer string) *TokenVerifier {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}
	return &TokenVerifier{secret: []byte(secret), opts: opts}
}

var errMissingToken = errors.New("missing token")

func (v *TokenVerifier) ParseFromRequest(r *http.Request) (*Identity, error) {
	// Authorization: Bearer <jwt>
	hdr := r.Header.Get("Authorization")
	if len(hdr) < 7 || !strings.EqualFold(hdr[:7], "bearer ") {
		return nil, errMissingToken
	}
	return v.Parse(strings.TrimSpace(hdr[7:]))
}

func (v *TokenVerifier) Parse(tok string) (*Identity, error) {
	claims := &Claims{}
	tkn, err := jwt.ParseWithClaims(tok, claims, func(t *jwt.Token) (any, error) {
		return v.secret, nil
	}, v.opts...)
	if err != nil || !tkn.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.Subject == "" {
		return nil, errors.New("token has no subject")
	}
	return &Identity{UserID: claims.Subject, IsAdmin: claims.isAdmin()}, nil
}

type identityKey struct{}

// identityHolder lets outer middleware see the identity set further in.
type identityHolder struct{ *Identity }

func withIdentityHolder(ctx context.Context) (context.Context, *identityHolder) {
	h := &identityHolder{}
	return context.WithValue(ctx, identityKey{}, h), h
}

// IdentityFrom returns the authenticated caller, or nil.
func IdentityFrom(ctx context.Context) *Identity {
	if h, ok := ctx.Value(identityKey{}).(*identityHolder); ok {
		return h.Identity
	}
	return nil
}

// Authenticate rejects requests without a valid token and stores the identity.
func Authenticate(v *TokenVerifier) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := v.ParseFromRequest(r)
			if err != nil {
				writeJSON(w, http.StatusUnauthorized, errorBody("unauthorized", err.Error()))
				return
			}
			ctx := r.Context()
			h, ok := ctx.Value(identityKey{}).(*identityHolder)
			if !ok {
				ctx, h = withIdentityHolder(ctx)
			}
			h.Identity = id
			ctx = logging.WithUserID(ctx, id.UserID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin lets through only identities carrying the admin role.
func RequireAdmin() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := IdentityFrom(r.Context())
			if id == nil {
				writeJSON(w, http.StatusUnauthorized, errorBody("unauthorized", "missing token"))
				return
			}
			if !id.IsAdmin {
				writeJSON(w, http.StatusForbidden, errorBody("forbidden", "admin role required"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// identityScope installs the holder read by RequestLog.
func identityScope() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, _ := withIdentityHolder(r.Context())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
