package inject

import (
	"fmt"
	"regexp"
	"time"

	jwt "github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"

	"github.com/slimloans/inject/errors"
)

var (
	bearerMatcher = regexp.MustCompile(`[bB]earer\s(.+)`)

	// ErrorExpiredClaim jwt token is expired
	ErrorExpiredClaim = fmt.Errorf("jwt token is expired")

	// ErrorInvalidClaim claim failed validation
	ErrorInvalidClaim = fmt.Errorf("invalid claim for token")

	// ErrorMissingToken no usable bearer token on the request
	ErrorMissingToken = fmt.Errorf("no bearer token present")
)

// Claims is the JWT identity resolved by BearerClaims.
type Claims struct {
	jwt.StandardClaims
}

// IsValid returns an error when the claim is expired or not yet valid.
func (c Claims) IsValid() error {
	if !c.StandardClaims.VerifyExpiresAt(time.Now().Unix(), true) {
		return errors.WrapForbidden(ErrorExpiredClaim)
	}

	if !c.StandardClaims.VerifyNotBefore(time.Now().Unix(), true) {
		return errors.WrapForbidden(ErrorInvalidClaim)
	}

	return nil
}

// Token signs the claims with the given secret.
func (c Claims) Token(secret []byte) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	return token.SignedString(secret)
}

// Issue stamps issue/expiry times onto the claims.
func (c Claims) Issue(ttl time.Duration) Claims {
	c.IssuedAt = time.Now().Unix()
	c.ExpiresAt = time.Now().Add(ttl).Unix()
	c.NotBefore = c.IssuedAt
	return c
}

// NewClaims returns fresh claims for a subject.
func NewClaims(subject string) Claims {
	id, _ := uuid.NewRandom()
	return Claims{
		StandardClaims: jwt.StandardClaims{
			Id:      id.String(),
			Subject: subject,
		},
	}
}

// BearerClaims builds a security dependency that reads the Authorization
// header, parses the bearer token against the given secret and returns the
// validated Claims. Wire it through the Security marker:
//
//	Security(BearerClaims(secret), "read:items")
func BearerClaims(secret []byte) func(ctx *Context) (Identity, error) {
	return func(ctx *Context) (Identity, error) {
		header, ok := ctx.HeaderValue("Authorization")
		if !ok {
			return nil, errors.WrapNotAuthorized(ErrorMissingToken)
		}

		matches := bearerMatcher.FindStringSubmatch(header)
		if len(matches) < 2 {
			return nil, errors.WrapNotAuthorized(ErrorMissingToken)
		}

		claims := Claims{}
		_, err := jwt.ParseWithClaims(matches[1], &claims, func(*jwt.Token) (interface{}, error) {
			return secret, nil
		})
		if err != nil {
			return nil, errors.WrapNotAuthorized(err)
		}

		if err := claims.IsValid(); err != nil {
			return nil, err
		}

		IdentityToContext(ctx, claims)
		return claims, nil
	}
}
