// Package session manages logins, roles, and the cookie-backed session
// registry shared by the REST API and the realtime hub.
package session

import (
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/ashfall-games/wasteland/internal/gamerr"
)

// Role is a participant's table role.
type Role string

const (
	RolePlayer Role = "player"
	RoleDM     Role = "dm"
)

// dmTokenRe matches the in-name DM markers: a "dm:" prefix, "#dm", or
// "[dm]". Any of them grants the dm role and is stripped from the name.
var dmTokenRe = regexp.MustCompile(`(?i)(^dm:)|(#dm\b)|(\[dm\])`)

// User is a logged-in participant.
type User struct {
	ID   string `json:"userId"`
	Name string `json:"name"`
	Role Role   `json:"role"`
}

// Registry holds users and live sessions. Safe for concurrent use.
//
// Invariant: every session id maps to a user present in the users map.
type Registry struct {
	mu        sync.RWMutex
	users     map[string]User // user id -> user
	sessions  map[string]string
	dmKeyHash string
	logger    *zap.Logger
}

// NewRegistry creates an empty Registry. dmKeyHash is the bcrypt hash the DM
// key is checked against; empty disables key-based DM logins.
//
// Precondition: logger must be non-nil.
func NewRegistry(dmKeyHash string, logger *zap.Logger) *Registry {
	return &Registry{
		users:     make(map[string]User),
		sessions:  make(map[string]string),
		dmKeyHash: dmKeyHash,
		logger:    logger,
	}
}

// Login authenticates a participant and opens a session.
//
// The name is trimmed and stripped of DM tokens; carrying one, or presenting
// the correct DM key, upgrades the requested role to dm. Users are deduped
// by (name, role) so reconnecting resumes the same identity. Returns the
// user and a fresh session id.
//
// Postcondition: on success Resolve(sid) returns the same user until Logout.
func (r *Registry) Login(name string, role Role, dmKey string) (User, string, error) {
	cleanName := strings.TrimSpace(name)
	if cleanName == "" {
		return User{}, "", fmt.Errorf("name required: %w", gamerr.ErrValidation)
	}

	hasDMToken := dmTokenRe.MatchString(cleanName)
	if hasDMToken {
		cleanName = strings.TrimSpace(dmTokenRe.ReplaceAllString(cleanName, ""))
		if cleanName == "" {
			return User{}, "", fmt.Errorf("name required: %w", gamerr.ErrValidation)
		}
	}

	if dmKey != "" && r.dmKeyHash != "" &&
		bcrypt.CompareHashAndPassword([]byte(r.dmKeyHash), []byte(dmKey)) == nil {
		role = RoleDM
	}
	if hasDMToken {
		role = RoleDM
	}
	if role != RolePlayer && role != RoleDM {
		return User{}, "", fmt.Errorf("invalid role %q: %w", role, gamerr.ErrValidation)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var user User
	found := false
	for _, u := range r.users {
		if u.Name == cleanName && u.Role == role {
			user = u
			found = true
			break
		}
	}
	if !found {
		prefix := "p-"
		if role == RoleDM {
			prefix = "dm-"
		}
		user = User{ID: prefix + uuid.NewString(), Name: cleanName, Role: role}
		r.users[user.ID] = user
	}

	sid := uuid.NewString()
	r.sessions[sid] = user.ID

	r.logger.Info("login",
		zap.String("userId", user.ID),
		zap.String("name", user.Name),
		zap.String("role", string(user.Role)),
	)
	return user, sid, nil
}

// Resolve returns the user owning the session id.
func (r *Registry) Resolve(sid string) (User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	userID, ok := r.sessions[sid]
	if !ok {
		return User{}, gamerr.ErrNotAuthenticated
	}
	user, ok := r.users[userID]
	if !ok {
		return User{}, gamerr.ErrNotAuthenticated
	}
	return user, nil
}

// Lookup returns a user by id.
func (r *Registry) Lookup(userID string) (User, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[userID]
	return u, ok
}

// Logout closes the session. Unknown ids are a no-op.
func (r *Registry) Logout(sid string) {
	r.mu.Lock()
	delete(r.sessions, sid)
	r.mu.Unlock()
}
