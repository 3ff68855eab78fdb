package handler

import (
	"context"
	"database/sql"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/image-search-api/internal/auth"
	"github.com/iliyamo/image-search-api/internal/config"
	"github.com/iliyamo/image-search-api/internal/middleware"
	"github.com/iliyamo/image-search-api/internal/model"
	"github.com/iliyamo/image-search-api/internal/oauth"
	"github.com/iliyamo/image-search-api/internal/repository"
	"github.com/iliyamo/image-search-api/internal/utils"
)

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
	Cfg       config.Config
	Users     *repository.UserRepo
	Revoked   auth.RevocationStore
	Providers oauth.Registry
	States    oauth.StateStore
}

func NewAuthHandler(cfg config.Config, u *repository.UserRepo, rev auth.RevocationStore, p oauth.Registry, st oauth.StateStore) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: u, Revoked: rev, Providers: p, States: st}
}

// ----- DTOs -----

type signupReq struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}
type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userPart struct {
	ID    uint64 `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}
type authResp struct {
	Token string   `json:"token"`
	User  userPart `json:"user"`
}

func toUserPart(u model.User) userPart {
	return userPart{ID: u.ID, Name: u.Name, Email: u.Email}
}

// Signup: create a local-credentials user and return a session token
// immediately.
func (h *AuthHandler) Signup(c echo.Context) error {
	var req signupReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Name == "" || req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "all fields are required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.Cfg.StoreTimeout)
	defer cancel()

	u, err := h.Users.Create(ctx, req.Name, req.Email, req.Password, h.Cfg.BcryptCost)
	if err != nil {
		if err == repository.ErrEmailExists {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "email already in use"})
		}
		c.Logger().Errorf("signup: create user failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal server error"})
	}

	return h.respondWithToken(c, http.StatusCreated, u)
}

// Login: verify local credentials and return a fresh session token.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email and password are required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.Cfg.StoreTimeout)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid credentials"})
		}
		c.Logger().Errorf("login: query failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal server error"})
	}
	// OAuth-created accounts have no local password; tell the user to use
	// the provider instead of a generic credentials message
	if u.PasswordHash == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "this account uses social login, sign in with the provider"})
	}
	if !utils.VerifyPassword(u.PasswordHash, req.Password) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid credentials"})
	}

	return h.respondWithToken(c, http.StatusOK, u)
}

// Logout: revoke the presented token.  The revocation entry lives exactly
// as long as the token would have, so the store stays bounded.
func (h *AuthHandler) Logout(c echo.Context) error {
	raw, _ := c.Get(middleware.CtxToken).(string)
	exp, _ := c.Get(middleware.CtxTokenExp).(time.Time)

	if err := h.Revoked.Revoke(c.Request().Context(), raw, time.Until(exp)); err != nil {
		c.Logger().Errorf("logout: revoke failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal server error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"ok": true})
}

// Me: return the authenticated user's profile.  The client calls this on
// startup to restore a session from a stored token.
func (h *AuthHandler) Me(c echo.Context) error {
	userID, ok := c.Get(middleware.CtxUserID).(uint64)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "no token provided"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.Cfg.StoreTimeout)
	defer cancel()

	u, err := h.Users.GetByID(ctx, userID)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
		}
		c.Logger().Errorf("me: query failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal server error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"user": toUserPart(u)})
}

// OAuthStart: redirect the browser into the provider's consent flow.  The
// random state value is stored server-side and checked on callback.
func (h *AuthHandler) OAuthStart(c echo.Context) error {
	p, ok := h.Providers[c.Param("provider")]
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "unknown provider"})
	}
	state, err := oauth.NewState()
	if err != nil {
		c.Logger().Errorf("oauth: state generation failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal server error"})
	}
	if err := h.States.Put(c.Request().Context(), state); err != nil {
		c.Logger().Errorf("oauth: state store failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal server error"})
	}
	return c.Redirect(http.StatusFound, p.AuthURL(state))
}

// OAuthCallback: complete the external login.  Resolves the provider
// profile to a local account (find-or-create by email), issues a session
// token and redirects back to the client with token and name in the query.
// Failures redirect to the client root rather than rendering JSON, since
// the browser is mid-navigation here.
func (h *AuthHandler) OAuthCallback(c echo.Context) error {
	p, ok := h.Providers[c.Param("provider")]
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "unknown provider"})
	}

	used, err := h.States.Take(c.Request().Context(), c.QueryParam("state"))
	if err != nil {
		c.Logger().Errorf("oauth: state lookup failed: %v", err)
		return c.Redirect(http.StatusFound, h.Cfg.ClientURL)
	}
	if !used {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid oauth state"})
	}

	code := c.QueryParam("code")
	if code == "" {
		// user denied consent or the provider reported an error
		return c.Redirect(http.StatusFound, h.Cfg.ClientURL)
	}

	profile, err := p.FetchProfile(c.Request().Context(), code)
	if err != nil {
		c.Logger().Errorf("oauth: %s profile fetch failed: %v", p.Name, err)
		return c.Redirect(http.StatusFound, h.Cfg.ClientURL)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.Cfg.StoreTimeout)
	defer cancel()

	u, err := h.Users.FindOrCreateOAuth(ctx, p.DisplayName(profile), p.ResolveEmail(profile))
	if err != nil {
		c.Logger().Errorf("oauth: find-or-create failed: %v", err)
		return c.Redirect(http.StatusFound, h.Cfg.ClientURL)
	}

	tok, err := auth.Issue(h.Cfg.JWTSecret, u.ID, h.Cfg.TokenTTL())
	if err != nil {
		c.Logger().Errorf("oauth: issue token failed: %v", err)
		return c.Redirect(http.StatusFound, h.Cfg.ClientURL)
	}

	target, err := url.Parse(h.Cfg.ClientURL)
	if err != nil {
		c.Logger().Errorf("oauth: bad client url %q: %v", h.Cfg.ClientURL, err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal server error"})
	}
	q := target.Query()
	q.Set("token", tok.Token)
	q.Set("name", u.Name)
	target.RawQuery = q.Encode()
	return c.Redirect(http.StatusFound, target.String())
}

// respondWithToken issues a session token for u and writes the auth
// response.  A missing signing secret is a server misconfiguration and is
// reported as such, never worked around.
func (h *AuthHandler) respondWithToken(c echo.Context, status int, u model.User) error {
	tok, err := auth.Issue(h.Cfg.JWTSecret, u.ID, h.Cfg.TokenTTL())
	if err != nil {
		if err == auth.ErrMissingSecret {
			c.Logger().Error("issue token: signing secret is not configured")
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "server configuration error"})
		}
		c.Logger().Errorf("issue token failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal server error"})
	}
	return c.JSON(status, authResp{Token: tok.Token, User: toUserPart(u)})
}
