// Package auth validates session tokens and extracts the caller's identity.
package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/MicahParks/keyfunc"
	"github.com/golang-jwt/jwt/v4"
)

var (
	// ErrMissingToken is returned when a request carries no token.
	ErrMissingToken = errors.New("missing authorization header")
	// ErrBadHeader is returned for a malformed Authorization header.
	ErrBadHeader = errors.New("bad auth header")
	// ErrInvalidToken is returned when a token fails verification.
	ErrInvalidToken = errors.New("invalid token")
)

// Identity is the authenticated caller.
type Identity struct {
	UserID string
	Email  string
	Name   string
}

// Auth validates JWTs signed with a shared HMAC secret or by keys published
// at a JWKS endpoint.
type Auth struct {
	JWKS     *keyfunc.JWKS
	Secret   []byte
	Audience string
	Issuer   string

	now func() time.Time
}

// New creates an Auth. At least one of jwks or secret must be set.
func New(jwks *keyfunc.JWKS, secret []byte, audience, issuer string) (*Auth, error) {
	if jwks == nil && len(secret) == 0 {
		return nil, errors.New("either a JWKS or a JWT secret is required")
	}
	return &Auth{JWKS: jwks, Secret: secret, Audience: audience, Issuer: issuer, now: time.Now}, nil
}

// FromRequest authenticates r using the Authorization header or, when it is
// absent, the token query parameter.
func (a *Auth) FromRequest(r *http.Request) (Identity, error) {
	h := r.Header.Get("Authorization")
	if h == "" {
		if token := r.URL.Query().Get("token"); token != "" {
			h = "Bearer " + token
		}
	}
	return a.IdentityFromAuthHeader(h)
}

// UserIDFromAuthHeader extracts the user identifier from an Authorization header.
func (a *Auth) UserIDFromAuthHeader(h string) (string, error) {
	id, err := a.IdentityFromAuthHeader(h)
	if err != nil {
		return "", err
	}
	return id.UserID, nil
}

// IdentityFromAuthHeader verifies a bearer token and returns its claims.
func (a *Auth) IdentityFromAuthHeader(h string) (Identity, error) {
	if h == "" {
		return Identity{}, ErrMissingToken
	}
	scheme, tokenStr, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.Count(tokenStr, ".") != 2 {
		return Identity{}, ErrBadHeader
	}

	token, err := a.parser().Parse(tokenStr, a.keyfunc)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Identity{}, fmt.Errorf("%w: invalid claims", ErrInvalidToken)
	}
	if err := a.verifyClaims(claims); err != nil {
		return Identity{}, err
	}

	sub, _ := claims["sub"].(string)
	if sub == "" {
		return Identity{}, fmt.Errorf("%w: missing sub", ErrInvalidToken)
	}
	email, _ := claims["email"].(string)
	name, _ := claims["name"].(string)
	return Identity{UserID: sub, Email: email, Name: name}, nil
}

func (a *Auth) parser() *jwt.Parser {
	methods := []string{}
	if len(a.Secret) > 0 {
		methods = append(methods, "HS256", "HS384", "HS512")
	}
	if a.JWKS != nil {
		methods = append(methods, "RS256", "ES256")
	}
	// Expiry is checked in verifyClaims against a.now.
	return jwt.NewParser(jwt.WithValidMethods(methods), jwt.WithoutClaimsValidation())
}

func (a *Auth) keyfunc(token *jwt.Token) (interface{}, error) {
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); ok {
		if len(a.Secret) == 0 {
			return nil, errors.New("invalid signing method")
		}
		return a.Secret, nil
	}
	if a.JWKS == nil {
		return nil, errors.New("invalid signing method")
	}
	return a.JWKS.Keyfunc(token)
}

func (a *Auth) verifyClaims(claims jwt.MapClaims) error {
	now := a.now().Unix()
	if !claims.VerifyExpiresAt(now, true) {
		return fmt.Errorf("%w: token expired", ErrInvalidToken)
	}
	if !claims.VerifyNotBefore(now+int64(time.Minute/time.Second), false) {
		return fmt.Errorf("%w: token not valid yet", ErrInvalidToken)
	}
	if a.Audience != "" && !claims.VerifyAudience(a.Audience, true) {
		return fmt.Errorf("%w: invalid audience", ErrInvalidToken)
	}
	if a.Issuer != "" && !claims.VerifyIssuer(a.Issuer, true) {
		return fmt.Errorf("%w: invalid issuer", ErrInvalidToken)
	}
	return nil
}

// Sign issues an HMAC-signed token for id valid for ttl. It is used by the
// CLI to mint development tokens.
func (a *Auth) Sign(id Identity, ttl time.Duration) (string, error) {
	if len(a.Secret) == 0 {
		return "", errors.New("signing requires a JWT secret")
	}
	now := a.now()
	claims := jwt.MapClaims{
		"sub": id.UserID,
		"iat": now.Unix(),
		"exp": now.Add(ttl).Unix(),
	}
	if id.Email != "" {
		claims["email"] = id.Email
	}
	if id.Name != "" {
		claims["name"] = id.Name
	}
	if a.Audience != "" {
		claims["aud"] = a.Audience
	}
	if a.Issuer != "" {
		claims["iss"] = a.Issuer
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.Secret)
}
