package session

import (
	goerrors "github.com/goliatone/go-errors"
)

// ErrAuthenticationFailed is returned when the backend rejects a login. The
// generic message is replaced with the backend's own message when it has one.
var ErrAuthenticationFailed = goerrors.New("Login failed", goerrors.CategoryAuth).
	WithTextCode("LOGIN_FAILED").
	WithCode(goerrors.CodeUnauthorized)

// ErrRegistrationFailed is returned when sign-up is rejected or incomplete.
var ErrRegistrationFailed = goerrors.New("Registration failed", goerrors.CategoryAuth).
	WithTextCode("REGISTRATION_FAILED").
	WithCode(goerrors.CodeBadRequest)

// ErrProfileResolution is the internal failure produced when the profile
// lookup still fails after its single retry. It never reaches UI code; the
// controller absorbs it and reports "no current user".
var ErrProfileResolution = goerrors.New("profile resolution failed", goerrors.CategoryOperation).
	WithTextCode("PROFILE_RESOLUTION_FAILED")

// ErrAccountExists is returned by LocalStore sign-up for an email that is
// already registered.
var ErrAccountExists = goerrors.New("User already registered", goerrors.CategoryConflict).
	WithTextCode("ACCOUNT_EXISTS").
	WithCode(goerrors.CodeConflict)

// ErrInvalidCredentials is the LocalStore mismatch error for sign-in.
var ErrInvalidCredentials = goerrors.New("Invalid login credentials", goerrors.CategoryAuth).
	WithTextCode("INVALID_CREDENTIALS").
	WithCode(goerrors.CodeUnauthorized)

// ErrSessionExpired is returned when a stored session's token is past expiry.
var ErrSessionExpired = goerrors.New("session expired", goerrors.CategoryAuth).
	WithTextCode("SESSION_EXPIRED").
	WithCode(goerrors.CodeUnauthorized)

// ErrTokenMalformed is returned for tokens that fail parsing or verification.
var ErrTokenMalformed = goerrors.New("token is malformed", goerrors.CategoryAuth).
	WithTextCode("TOKEN_MALFORMED").
	WithCode(goerrors.CodeUnauthorized)

// ErrNoEmptyString rejects empty passwords before hashing.
var ErrNoEmptyString = goerrors.New("password must not be empty", goerrors.CategoryValidation).
	WithTextCode("EMPTY_PASSWORD")

// authenticationError wraps a backend sign-in failure, keeping the backend's
// message for direct display when present.
func authenticationError(err error) error {
	if err == nil {
		return nil
	}

	return goerrors.Wrap(err, goerrors.CategoryAuth, backendMessage(err, ErrAuthenticationFailed.Message)).
		WithTextCode("LOGIN_FAILED").
		WithCode(goerrors.CodeUnauthorized)
}

// registrationError wraps a backend sign-up failure the same way.
func registrationError(err error) error {
	if err == nil {
		return nil
	}

	return goerrors.Wrap(err, goerrors.CategoryAuth, backendMessage(err, ErrRegistrationFailed.Message)).
		WithTextCode("REGISTRATION_FAILED").
		WithCode(goerrors.CodeBadRequest)
}

// backendMessage extracts the display text from a backend error, falling back
// to the generic message only when the error carries no text at all.
func backendMessage(err error, generic string) string {
	var rich *goerrors.Error
	if goerrors.As(err, &rich) {
		if rich.Message != "" {
			return rich.Message
		}
		return generic
	}

	if msg := err.Error(); msg != "" {
		return msg
	}
	return generic
}

// IsAuthenticationError reports whether err is a login rejection.
func IsAuthenticationError(err error) bool {
	return hasTextCode(err, "LOGIN_FAILED")
}

// IsRegistrationError reports whether err is a sign-up rejection.
func IsRegistrationError(err error) bool {
	return hasTextCode(err, "REGISTRATION_FAILED")
}

// IsResolutionError reports whether err came out of the profile resolver.
func IsResolutionError(err error) bool {
	return hasTextCode(err, "PROFILE_RESOLUTION_FAILED")
}

func hasTextCode(err error, code string) bool {
	if err == nil {
		return false
	}
	var rich *goerrors.Error
	if !goerrors.As(err, &rich) {
		return false
	}
	return rich.TextCode == code
}
