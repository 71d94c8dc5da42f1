package handler

import (
	"net/http"
	"time"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/oauth2"
	"github.com/disgoorg/disgo/rest"
	"github.com/striketeam/warden/internal/auth"
	sessionMiddleware "github.com/striketeam/warden/internal/rest/middleware/session"
	restTypes "github.com/striketeam/warden/internal/rest/types"
	"github.com/striketeam/warden/internal/setup/config"
	"github.com/uptrace/bunrouter"
	"go.uber.org/zap"
)

// AuthHandler implements the Discord OAuth sign-in flow and session
// endpoints.
type AuthHandler struct {
	oauth    oauth2.Client
	sessions *auth.Store
	config   *config.Config
	logger   *zap.Logger
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(
	oauth oauth2.Client, sessions *auth.Store, config *config.Config, logger *zap.Logger,
) *AuthHandler {
	return &AuthHandler{
		oauth:    oauth,
		sessions: sessions,
		config:   config,
		logger:   logger,
	}
}

// Login redirects the browser to the Discord authorization page. The state
// parameter is generated and tracked by the OAuth client.
func (h *AuthHandler) Login(w http.ResponseWriter, req bunrouter.Request) error {
	url, _ := h.oauth.GenerateAuthorizationURLState(oauth2.AuthorizationURLParams{
		RedirectURI: h.config.Server.PublicURL + "/auth/callback",
		Scopes: []discord.OAuth2Scope{
			discord.OAuth2ScopeIdentify,
			discord.OAuth2ScopeGuilds,
		},
	})

	http.Redirect(w, req.Request, url, http.StatusTemporaryRedirect)

	return nil
}

// Callback exchanges the authorization code for a token set, creates a
// server-side session, and sends the browser back to the dashboard.
func (h *AuthHandler) Callback(w http.ResponseWriter, req bunrouter.Request) error {
	query := req.URL.Query()

	code := query.Get("code")
	state := query.Get("state")

	if code == "" || state == "" {
		// The user denied the authorization prompt
		http.Redirect(w, req.Request, h.config.Server.PublicURL+"/signed-out", http.StatusTemporaryRedirect)
		return nil
	}

	ctx := req.Context()

	oauthSession, _, err := h.oauth.StartSession(code, state, rest.WithCtx(ctx))
	if err != nil {
		h.logger.Error("Failed to exchange authorization code", zap.Error(err))
		http.Redirect(w, req.Request, h.config.Server.PublicURL+"/signed-out", http.StatusTemporaryRedirect)

		return nil
	}

	user, err := h.oauth.GetUser(oauthSession, rest.WithCtx(ctx))
	if err != nil {
		h.logger.Error("Failed to fetch user after sign-in", zap.Error(err))
		http.Redirect(w, req.Request, h.config.Server.PublicURL+"/signed-out", http.StatusTemporaryRedirect)

		return nil
	}

	session := &auth.Session{
		UserID:    user.ID,
		Username:  user.Username,
		AvatarURL: user.EffectiveAvatarURL(),
	}
	if user.GlobalName != nil {
		session.GlobalName = *user.GlobalName
	}

	session.UpdateTokens(oauthSession)

	token, err := h.sessions.Create(ctx, session)
	if err != nil {
		h.logger.Error("Failed to create session", zap.Error(err))
		w.WriteHeader(http.StatusInternalServerError)

		return bunrouter.JSON(w, restTypes.ErrorResponse{Error: "failed to create session"})
	}

	http.SetCookie(w, h.sessionCookie(token, time.Duration(h.config.Session.TTLMinutes)*time.Minute))
	http.Redirect(w, req.Request, h.config.Server.PublicURL+"/", http.StatusTemporaryRedirect)

	return nil
}

// Logout destroys the current session and clears the cookie.
func (h *AuthHandler) Logout(w http.ResponseWriter, req bunrouter.Request) error {
	session := sessionMiddleware.FromContext(req.Context())
	if session != nil {
		if err := h.sessions.Delete(req.Context(), session.Token); err != nil {
			h.logger.Error("Failed to delete session", zap.Error(err))
		}
	}

	http.SetCookie(w, h.sessionCookie("", -1))

	return bunrouter.JSON(w, restTypes.AckResponse{OK: true})
}

// Me returns the signed-in user's profile.
func (h *AuthHandler) Me(w http.ResponseWriter, req bunrouter.Request) error {
	session := sessionMiddleware.FromContext(req.Context())
	if session == nil {
		w.WriteHeader(http.StatusUnauthorized)
		return bunrouter.JSON(w, restTypes.ErrorResponse{Error: "not signed in"})
	}

	return bunrouter.JSON(w, restTypes.UserResponse{
		ID:         session.UserID.String(),
		Username:   session.Username,
		GlobalName: session.GlobalName,
		AvatarURL:  session.AvatarURL,
	})
}

func (h *AuthHandler) sessionCookie(token string, maxAge time.Duration) *http.Cookie {
	cookie := &http.Cookie{
		Name:     h.config.Session.CookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.config.Session.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	}

	if maxAge < 0 {
		cookie.MaxAge = -1
	} else {
		cookie.MaxAge = int(maxAge.Seconds())
	}

	return cookie
}
