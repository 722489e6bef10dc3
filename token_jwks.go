package session

import (
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"
	goerrors "github.com/goliatone/go-errors"
)

// RemoteValidator validates access tokens issued by a hosted backend that
// publishes its signing keys as a JWK Set. It lets sessions be rebuilt from
// raw tokens (session restore, cross-tab) without sharing a signing key.
type RemoteValidator struct {
	jwks   *keyfunc.JWKS
	issuer string
	logger Logger
}

// RemoteValidatorOption customizes a RemoteValidator.
type RemoteValidatorOption func(*RemoteValidator)

// WithRemoteIssuer pins the expected token issuer.
func WithRemoteIssuer(issuer string) RemoteValidatorOption {
	return func(v *RemoteValidator) {
		v.issuer = issuer
	}
}

// WithRemoteLogger overrides the logger.
func WithRemoteLogger(l Logger) RemoteValidatorOption {
	return func(v *RemoteValidator) {
		if l != nil {
			v.logger = l
		}
	}
}

// NewRemoteValidator fetches the JWK Set from the given URL and keeps it
// refreshed in the background. Call Close when done.
func NewRemoteValidator(jwksURL string, opts ...RemoteValidatorOption) (*RemoteValidator, error) {
	v := &RemoteValidator{
		logger: defLogger{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(v)
		}
	}

	jwks, err := keyfunc.Get(jwksURL, keyfunc.Options{
		RefreshInterval: time.Hour,
		RefreshErrorHandler: func(err error) {
			v.logger.Warn("JWKS refresh failed: %v", err)
		},
	})
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryOperation, "failed to fetch JWK Set").
			WithMetadata(map[string]any{"url": jwksURL})
	}

	v.jwks = jwks

	return v, nil
}

// Validate parses and verifies a hosted-backend token.
func (v *RemoteValidator) Validate(tokenString string) (*SessionClaims, error) {
	parserOptions := []jwt.ParserOption{
		jwt.WithValidMethods([]string{"RS256", "ES256"}),
	}
	if v.issuer != "" {
		parserOptions = append(parserOptions, jwt.WithIssuer(v.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, v.jwks.Keyfunc, parserOptions...)
	if err != nil {
		if goerrors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrSessionExpired
		}
		return nil, goerrors.Wrap(err, ErrTokenMalformed.Category, ErrTokenMalformed.Message).
			WithTextCode(ErrTokenMalformed.TextCode)
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid {
		v.logger.Error("remote validate could not decode claims")
		return nil, ErrTokenMalformed
	}

	return claims, nil
}

// Close stops the background JWKS refresh.
func (v *RemoteValidator) Close() {
	if v.jwks != nil {
		v.jwks.EndBackground()
	}
}

var _ TokenValidator = (*RemoteValidator)(nil)
