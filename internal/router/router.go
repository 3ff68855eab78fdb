package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/image-search-api/internal/handler"
)

// RegisterRoutes registers routes that do not belong to the API surface.
// Currently it exposes only a health check used by load balancers and
// monitoring.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers the authentication endpoints under /api/auth.
// Signup and login are public but sit behind the credential rate limiter;
// logout and me require a valid session token.  The OAuth start/callback
// pair is one generic flow — the :provider segment selects the
// configuration, not the code path.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, authMW, loginLimit echo.MiddlewareFunc) {
	g := e.Group("/api/auth")
	g.POST("/signup", a.Signup, loginLimit)
	g.POST("/login", a.Login, loginLimit)
	g.POST("/logout", a.Logout, authMW)
	g.GET("/me", a.Me, authMW)
	g.GET("/:provider", a.OAuthStart)
	g.GET("/:provider/callback", a.OAuthCallback)
}

// RegisterSearch registers the search-history endpoints.  Everything
// under /api/search is token-gated; /api/top-searches is public and sits
// behind the response cache because its payload is identical for every
// caller.
func RegisterSearch(e *echo.Echo, s *handler.SearchHandler, authMW, topCache echo.MiddlewareFunc) {
	g := e.Group("/api/search", authMW)
	g.POST("", s.Record)
	g.GET("", s.List)
	g.GET("/history", s.Recent)
	g.DELETE("", s.Clear)

	e.GET("/api/top-searches", s.TopSearches, topCache)
}
