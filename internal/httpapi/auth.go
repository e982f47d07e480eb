package httpapi

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/ashfall-games/wasteland/internal/session"
)

// sessionMaxAge keeps the cookie alive for a full table day.
const sessionMaxAge = 24 * 60 * 60

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name  string       `json:"name"`
		Role  session.Role `json:"role"`
		DMKey string       `json:"dmKey"`
	}
	if err := a.readJSON(r, &req); err != nil {
		a.writeError(w, err)
		return
	}

	user, sid, err := a.sessions.Login(req.Name, req.Role, req.DMKey)
	if err != nil {
		a.writeError(w, err)
		return
	}
	a.setSessionCookie(w, sid, sessionMaxAge)

	ch, err := a.svc.MyCharacter(r.Context(), user)
	if err != nil {
		a.logger.Warn("loading character at login", zap.Error(err))
		ch = nil
	}
	a.writeJSON(w, http.StatusOK, map[string]any{
		"user":      user,
		"character": ch,
	})
}

func (a *API) handleLogout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(a.cookieName); err == nil {
		a.sessions.Logout(cookie.Value)
	}
	a.setSessionCookie(w, "", -1)
	a.writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (a *API) handleMe(w http.ResponseWriter, r *http.Request) {
	a.writeJSON(w, http.StatusOK, map[string]any{"user": actor(r)})
}
