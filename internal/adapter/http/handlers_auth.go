// Package adapthttp implements the HTTP adapter for the application.
package adapthttp

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"weighttracker/internal/app"

	"github.com/coreos/go-oidc/v3/oidc"
	log "github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
)

const (
	sessionCookie = "session"
	stateCookie   = "oauth_state"
)

// OIDCConfig holds the single sign-on provider settings. A zero value
// disables SSO.
type OIDCConfig struct {
	Enabled        bool
	Provider       *oidc.Provider
	OAuth2Config   oauth2.Config
	AllowedSubject string
}

// NewOIDCConfig discovers the issuer's endpoints and builds an enabled config.
func NewOIDCConfig(ctx context.Context, issuer, clientID, clientSecret, redirectURL, allowedSubject string) (OIDCConfig, error) {
	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return OIDCConfig{}, fmt.Errorf("oidc provider %s: %w", issuer, err)
	}
	return OIDCConfig{
		Enabled:  true,
		Provider: provider,
		OAuth2Config: oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Endpoint:     provider.Endpoint(),
			Scopes:       []string{oidc.ScopeOpenID, "email", "profile"},
		},
		AllowedSubject: allowedSubject,
	}, nil
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if !s.authSvc.PasswordEnabled() {
		writeError(w, http.StatusNotFound, "password login disabled")
		return
	}

	var req struct {
		Password string `json:"password"`
	}
	if err := parseJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	token, err := s.authSvc.Login(r.Context(), req.Password, r.UserAgent())
	if errors.Is(err, app.ErrInvalidCredentials) {
		log.WithField("remote", r.RemoteAddr).Warn("failed login attempt")
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	if err != nil {
		log.WithError(err).Error("login")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	s.setSessionCookie(w, r, token)
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(sessionCookie); err == nil {
		if err := s.authSvc.Logout(r.Context(), cookie.Value); err != nil {
			log.WithError(err).Warn("logout")
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleAuthConfig(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"auth_enabled": s.authRequired(),
		"sso_enabled":  s.oidcConfig.Enabled,
	})
}

func (s *Server) handleSSOLogin(w http.ResponseWriter, r *http.Request) {
	if !s.oidcConfig.Enabled {
		writeError(w, http.StatusNotFound, "sso disabled")
		return
	}
	state, err := app.GenerateState()
	if err != nil {
		log.WithError(err).Error("generate oauth state")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    state,
		Path:     "/",
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode, // cross-site redirect back from the provider
		MaxAge:   300,
	})
	http.Redirect(w, r, s.oidcConfig.OAuth2Config.AuthCodeURL(state), http.StatusFound)
}

func (s *Server) handleSSOCallback(w http.ResponseWriter, r *http.Request) {
	if !s.oidcConfig.Enabled {
		writeError(w, http.StatusNotFound, "sso disabled")
		return
	}

	state, err := r.Cookie(stateCookie)
	if err != nil || !app.ConstantTimeCompare(r.URL.Query().Get("state"), state.Value) {
		writeError(w, http.StatusBadRequest, "invalid state")
		return
	}
	http.SetCookie(w, &http.Cookie{Name: stateCookie, MaxAge: -1, Path: "/"})

	token, err := s.oidcConfig.OAuth2Config.Exchange(r.Context(), r.URL.Query().Get("code"))
	if err != nil {
		log.WithError(err).Error("oauth2 exchange")
		writeError(w, http.StatusInternalServerError, "failed to exchange token")
		return
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok {
		writeError(w, http.StatusInternalServerError, "no id_token")
		return
	}

	verifier := s.oidcConfig.Provider.Verifier(&oidc.Config{ClientID: s.oidcConfig.OAuth2Config.ClientID})
	idToken, err := verifier.Verify(r.Context(), rawIDToken)
	if err != nil {
		log.WithError(err).Error("verify id token")
		writeError(w, http.StatusInternalServerError, "failed to verify token")
		return
	}

	var claims idClaims
	if err = idToken.Claims(&claims); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to parse claims")
		return
	}

	subject, ok := claims.matches(s.oidcConfig.AllowedSubject)
	if !ok {
		log.WithField("subject", subject).Warn("sso login from unexpected subject")
		writeError(w, http.StatusForbidden, "forbidden")
		return
	}

	sessionToken, err := s.authSvc.LoginWithSubject(r.Context(), subject, r.UserAgent())
	if err != nil {
		log.WithError(err).Error("sso login")
		writeError(w, http.StatusInternalServerError, "login failed")
		return
	}

	s.setSessionCookie(w, r, sessionToken)
	http.Redirect(w, r, "/", http.StatusFound)
}

func (s *Server) setSessionCookie(w http.ResponseWriter, r *http.Request, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   int(s.authSvc.SessionTTL().Seconds()),
	})
}

type idClaims struct {
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Sub           string `json:"sub"`
}

// matches reports whether the token belongs to the owner. The email is only
// trusted once the issuer has verified it; otherwise the subject must match.
// An empty allowed value matches nobody.
func (c idClaims) matches(allowed string) (string, bool) {
	if allowed == "" {
		return c.Sub, false
	}
	if c.Email != "" && c.EmailVerified && app.ConstantTimeCompare(c.Email, allowed) {
		return c.Email, true
	}
	if c.Sub != "" && app.ConstantTimeCompare(c.Sub, allowed) {
		return c.Sub, true
	}
	if c.Email != "" {
		return c.Email, false
	}
	return c.Sub, false
}
