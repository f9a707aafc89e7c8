// Package session stores the logged-in identity between gatepass invocations.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/Flyrell/gatepass/internal/member"
	"github.com/golang-jwt/jwt/v5"
)

// Role is the user's role as reported by the backend.
type Role string

const (
	RoleAdmin            Role = "admin"
	RoleGroupResponsible Role = "group_responsible"
	RoleScanner          Role = "scanner"
)

var (
	// ErrNoSession is returned when nobody is logged in.
	ErrNoSession = errors.New("not logged in")
	// ErrForbidden is returned when the session's role may not use a command.
	ErrForbidden = errors.New("not allowed for this role")
	// ErrSessionExpired is returned when the stored token has expired.
	ErrSessionExpired = errors.New("session expired")
)

// Session is the persisted login.
type Session struct {
	ID    member.ID `json:"id"`
	Name  string    `json:"name"`
	Role  Role      `json:"role"`
	Token string    `json:"token,omitempty"`
}

// ParseRole maps a backend role string to a Role. The legacy
// "responsable_group" spelling is accepted.
func ParseRole(s string) Role {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "admin":
		return RoleAdmin
	case "group_responsible", "responsable_group", "responsable":
		return RoleGroupResponsible
	case "scanner":
		return RoleScanner
	}
	return Role(s)
}

// Dir returns the gatepass state directory.
func Dir(homeDir string) string {
	return filepath.Join(homeDir, ".gatepass")
}

// Path returns the path to session.json.
func Path(homeDir string) string {
	return filepath.Join(Dir(homeDir), "session.json")
}

// Load reads the stored session. A missing file yields ErrNoSession. A file
// that cannot be decoded is removed and also yields ErrNoSession.
func Load(homeDir string) (*Session, error) {
	path := Path(homeDir)
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, err
	}

	var s Session
	if err := json.Unmarshal(data, &s); err != nil || s.ID.IsZero() {
		slog.Warn("discarding unreadable session", "path", path, "error", err)
		if rmErr := os.Remove(path); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			return nil, rmErr
		}
		return nil, ErrNoSession
	}
	s.Role = ParseRole(string(s.Role))
	return &s, nil
}

// Save writes the session, creating the state directory if needed. The file
// is only readable by the owner since it may hold a bearer token.
func Save(homeDir string, s *Session) error {
	if s == nil || s.ID.IsZero() {
		return errors.New("session has no user id")
	}
	if err := os.MkdirAll(Dir(homeDir), 0700); err != nil {
		return err
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(Path(homeDir), data, 0600)
}

// Clear removes the stored session. Clearing an absent session is not an error.
func Clear(homeDir string) error {
	err := os.Remove(Path(homeDir))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// ExpiresAt returns the exp claim of the session token, if the token is a JWT
// carrying one. The signature is not verified; the backend does that.
func (s *Session) ExpiresAt() (time.Time, bool) {
	if s == nil || s.Token == "" {
		return time.Time{}, false
	}
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(s.Token, &claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}

// Valid returns ErrSessionExpired when the token's exp lies before now.
func (s *Session) Valid(now time.Time) error {
	if exp, ok := s.ExpiresAt(); ok && !now.Before(exp) {
		return ErrSessionExpired
	}
	return nil
}

// Require returns ErrForbidden unless the session has one of roles.
func Require(s *Session, roles ...Role) error {
	if s == nil {
		return ErrNoSession
	}
	if len(roles) == 0 || slices.Contains(roles, s.Role) {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrForbidden, s.Role)
}

// Authorize loads the session and checks expiry and role in one step.
func Authorize(homeDir string, now time.Time, roles ...Role) (*Session, error) {
	s, err := Load(homeDir)
	if err != nil {
		return nil, err
	}
	if err := s.Valid(now); err != nil {
		return nil, err
	}
	if err := Require(s, roles...); err != nil {
		return nil, err
	}
	return s, nil
}

// HomeCommand returns the command a role lands on after login.
func HomeCommand(role Role) string {
	switch role {
	case RoleAdmin:
		return "admin dashboard"
	case RoleGroupResponsible:
		return "responsable grant"
	case RoleScanner:
		return "scanner scan"
	}
	return ""
}
