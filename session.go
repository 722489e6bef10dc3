package session

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Session holds the attributes of an authenticated backend session. The
// Store issues and expires it; this package only reads it.
type Session struct {
	Subject     string         `json:"subject,omitempty"`
	Email       string         `json:"email,omitempty"`
	AccessToken string         `json:"access_token,omitempty"`
	IssuedAt    *time.Time     `json:"issued_at,omitempty"`
	ExpiresAt   *time.Time     `json:"expires_at,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// SubjectUUID parses the session subject as a UUID.
func (s *Session) SubjectUUID() (uuid.UUID, error) {
	return uuid.Parse(s.Subject)
}

// Expired reports whether the session is past its expiry. Sessions without
// an expiry never expire here; the backend owns that case.
func (s *Session) Expired(now time.Time) bool {
	if s == nil || s.ExpiresAt == nil {
		return false
	}
	return now.After(*s.ExpiresAt)
}

// MetadataString returns a string metadata value, or "" when absent or not
// a string.
func (s *Session) MetadataString(key string) string {
	if s == nil || s.Metadata == nil {
		return ""
	}
	v, ok := s.Metadata[key].(string)
	if !ok {
		return ""
	}
	return v
}

// MetadataRole returns the role attached to session metadata when it is one
// of the known roles.
func (s *Session) MetadataRole() (Role, bool) {
	raw := s.MetadataString("role")
	if raw == "" {
		return "", false
	}
	return ParseRole(raw)
}

func (s Session) String() string {
	expires := "<nil>"
	if s.ExpiresAt != nil {
		expires = s.ExpiresAt.Format(time.RFC1123)
	}
	return fmt.Sprintf("subject=%s email=%s exp=%s", s.Subject, s.Email, expires)
}

// sessionFromClaims rebuilds a Session from validated token claims.
func sessionFromClaims(claims *SessionClaims, raw string) (*Session, error) {
	if claims == nil {
		return nil, ErrTokenMalformed
	}

	sess := &Session{
		Subject:     claims.Subject,
		Email:       claims.Email,
		AccessToken: raw,
		Metadata:    claims.Metadata,
	}

	if claims.IssuedAt != nil {
		iat := claims.IssuedAt.Time
		sess.IssuedAt = &iat
	}

	if claims.ExpiresAt != nil {
		exp := claims.ExpiresAt.Time
		sess.ExpiresAt = &exp
	}

	return sess, nil
}
