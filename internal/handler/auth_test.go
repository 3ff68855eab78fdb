package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/image-search-api/internal/auth"
	"github.com/iliyamo/image-search-api/internal/config"
	"github.com/iliyamo/image-search-api/internal/middleware"
)

func testConfig() config.Config {
	return config.Config{
		JWTSecret:    "test-secret",
		TokenTTLDays: 7,
		BcryptCost:   4,
		ClientURL:    "http://localhost:5173",
		StoreTimeout: time.Second,
	}
}

func TestSignup_MissingFields(t *testing.T) {
	t.Parallel()

	h := NewAuthHandler(testConfig(), nil, auth.NewMemoryRevocationStore(), nil, nil)
	e := echo.New()

	bodies := []string{
		`{}`,
		`{"name":"A"}`,
		`{"name":"A","email":"a@x.com"}`,
		`{"email":"a@x.com","password":"p1"}`,
		`{"name":"  ","email":"a@x.com","password":"p1"}`,
	}
	for _, body := range bodies {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/signup", strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()

		if err := h.Signup(e.NewContext(req, rec)); err != nil {
			t.Fatalf("Signup error: %v", err)
		}
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("body %s: status got %d want %d", body, rec.Code, http.StatusBadRequest)
		}
		if !strings.Contains(rec.Body.String(), "all fields are required") {
			t.Fatalf("body %s: response %q", body, rec.Body.String())
		}
	}
}

func TestLogin_MissingFields(t *testing.T) {
	t.Parallel()

	h := NewAuthHandler(testConfig(), nil, auth.NewMemoryRevocationStore(), nil, nil)
	e := echo.New()

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{"email":"a@x.com"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()

	if err := h.Login(e.NewContext(req, rec)); err != nil {
		t.Fatalf("Login error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status got %d want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestLogout_RevokesPresentedToken(t *testing.T) {
	t.Parallel()

	store := auth.NewMemoryRevocationStore()
	h := NewAuthHandler(testConfig(), nil, store, nil, nil)
	e := echo.New()

	tok, err := auth.Issue("test-secret", 5, time.Hour)
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set(middleware.CtxUserID, uint64(5))
	c.Set(middleware.CtxToken, tok.Token)
	c.Set(middleware.CtxTokenExp, tok.Exp)

	if err := h.Logout(c); err != nil {
		t.Fatalf("Logout error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status got %d want %d", rec.Code, http.StatusOK)
	}

	revoked, err := store.IsRevoked(req.Context(), tok.Token)
	if err != nil {
		t.Fatalf("IsRevoked error: %v", err)
	}
	if !revoked {
		t.Fatal("token not in revocation store after logout")
	}
}

func TestOAuthStart_UnknownProvider(t *testing.T) {
	t.Parallel()

	h := NewAuthHandler(testConfig(), nil, auth.NewMemoryRevocationStore(), nil, nil)
	e := echo.New()

	req := httptest.NewRequest(http.MethodGet, "/api/auth/twitter", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("provider")
	c.SetParamValues("twitter")

	if err := h.OAuthStart(c); err != nil {
		t.Fatalf("OAuthStart error: %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status got %d want %d", rec.Code, http.StatusNotFound)
	}
}
