// Package httpapi exposes the REST surface: login, character and shop
// CRUD, crafting, and the rules document. Realtime traffic rides the
// WebSocket hub mounted at /ws; both layers share the same session cookie.
package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/ashfall-games/wasteland/internal/game/service"
	"github.com/ashfall-games/wasteland/internal/gamerr"
	"github.com/ashfall-games/wasteland/internal/rules"
	"github.com/ashfall-games/wasteland/internal/session"
)

const maxBodyBytes = 1 << 20

// API wires the HTTP routes over the game service.
type API struct {
	svc        *service.GameService
	sessions   *session.Registry
	rules      *rules.Dataset
	ws         http.Handler
	cookieName string
	logger     *zap.Logger
}

// New creates the API. ws may be nil when the realtime layer is not
// mounted (tests).
func New(svc *service.GameService, sessions *session.Registry, ruleset *rules.Dataset, ws http.Handler, cookieName string, logger *zap.Logger) *API {
	return &API{
		svc:        svc,
		sessions:   sessions,
		rules:      ruleset,
		ws:         ws,
		cookieName: cookieName,
		logger:     logger,
	}
}

// Routes builds the request multiplexer.
func (a *API) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/login", a.handleLogin)
	mux.HandleFunc("POST /api/logout", a.handleLogout)
	mux.HandleFunc("GET /api/me", a.authed(a.handleMe))

	mux.HandleFunc("GET /api/characters", a.authed(a.handleListCharacters))
	mux.HandleFunc("GET /api/characters/{id}", a.authed(a.handleGetCharacter))
	mux.HandleFunc("GET /api/my/character", a.authed(a.handleMyCharacter))
	mux.HandleFunc("POST /api/character", a.authed(a.handleCreateCharacter))
	mux.HandleFunc("POST /api/characters/{id}", a.authed(a.handlePatchCharacter))
	mux.HandleFunc("POST /api/characters/{id}/shop", a.authed(a.handleShopAccess))
	mux.HandleFunc("POST /api/characters/{id}/materials", a.authed(a.handleMaterials))

	mux.HandleFunc("GET /api/shop", a.authed(a.handleListShop))
	mux.HandleFunc("POST /api/shop", a.authed(a.handleCreateShopItem))
	mux.HandleFunc("PATCH /api/shop/{id}", a.authed(a.handleUpdateShopItem))
	mux.HandleFunc("DELETE /api/shop/{id}", a.authed(a.handleDeleteShopItem))
	mux.HandleFunc("POST /api/shop/{id}/buy", a.authed(a.handleBuy))

	mux.HandleFunc("POST /api/craft", a.authed(a.handleCraft))

	mux.HandleFunc("GET /rules.json", a.handleRules)

	if a.ws != nil {
		mux.Handle("GET /ws", a.ws)
	}

	return a.logged(mux)
}

// logged wraps the mux with request logging.
func (a *API) logged(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r)
		a.logger.Debug("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("remote", r.RemoteAddr),
		)
	})
}

// userKey carries the resolved session user through the handler chain via
// the request context.
type userKey struct{}

// authed resolves the session cookie and rejects unauthenticated requests.
func (a *API) authed(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, err := a.currentUser(r)
		if err != nil {
			a.writeError(w, err)
			return
		}
		next(w, r.WithContext(session.WithUser(r.Context(), user)))
	}
}

func (a *API) currentUser(r *http.Request) (session.User, error) {
	cookie, err := r.Cookie(a.cookieName)
	if err != nil {
		return session.User{}, gamerr.ErrNotAuthenticated
	}
	return a.sessions.Resolve(cookie.Value)
}

func actor(r *http.Request) session.User {
	user, _ := session.UserFrom(r.Context())
	return user
}

func (a *API) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		a.logger.Error("encoding response", zap.Error(err))
	}
}

func (a *API) writeError(w http.ResponseWriter, err error) {
	status := gamerr.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		a.logger.Error("request failed", zap.Error(err))
	}
	a.writeJSON(w, status, map[string]any{
		"error": map[string]any{
			"code":    gamerr.Code(err),
			"message": err.Error(),
		},
	})
}

func (a *API) readJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("malformed request body: %w", gamerr.ErrValidation)
	}
	return nil
}

// setSessionCookie issues the http-only session cookie.
func (a *API) setSessionCookie(w http.ResponseWriter, sid string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     a.cookieName,
		Value:    sid,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   maxAge,
	})
}

func (a *API) handleRules(w http.ResponseWriter, r *http.Request) {
	a.writeJSON(w, http.StatusOK, a.rules)
}
