package domain

import (
	"fmt"
	"strconv"
)

// Role identifies which actor a session belongs to.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// ParseRole converts a stored role tag back into a Role.
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleUser, RoleAdmin:
		return Role(s), true
	}
	return "", false
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	_, ok := ParseRole(string(r))
	return ok
}

// LoginPath is the view an unauthenticated actor of this role is sent to.
func (r Role) LoginPath() string {
	return "/" + string(r) + "/login"
}

// HomePath is the view shown after a successful login.
func (r Role) HomePath() string {
	return "/" + string(r) + "/dashboard"
}

// Session is the authenticated identity held by the client.
// Token and Role are always set together; Profile is whatever the
// login response returned and may be nil when the stored blob is unreadable.
type Session struct {
	Token   string         `json:"token"`
	Role    Role           `json:"role"`
	Profile map[string]any `json:"profile,omitempty"`
}

// UserID returns the remote user id stored in the profile.
func (s *Session) UserID() (string, error) {
	if s.Profile == nil {
		return "", &ErrSession{Message: "Your session data was not found. Please log in again."}
	}
	switch v := s.Profile["userId"].(type) {
	case string:
		if v != "" {
			return v, nil
		}
	case float64:
		if v > 0 {
			return strconv.FormatFloat(v, 'f', -1, 64), nil
		}
	case int:
		if v > 0 {
			return strconv.Itoa(v), nil
		}
	}
	return "", &ErrSession{Message: "Could not find your user ID in the session data. Please log in again."}
}

// DisplayName returns the profile's full name, accepting both spellings the
// remote service has used.
func (s *Session) DisplayName() string {
	return s.profileString("full_name", "fullName")
}

// Email returns the profile email, if any.
func (s *Session) Email() string {
	return s.profileString("email")
}

func (s *Session) profileString(keys ...string) string {
	if s.Profile == nil {
		return ""
	}
	for _, k := range keys {
		if v, ok := s.Profile[k]; ok && v != nil {
			if str := fmt.Sprint(v); str != "" {
				return str
			}
		}
	}
	return ""
}
