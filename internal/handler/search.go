package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/image-search-api/internal/config"
	"github.com/iliyamo/image-search-api/internal/middleware"
	"github.com/iliyamo/image-search-api/internal/queue"
	"github.com/iliyamo/image-search-api/internal/repository"
	"github.com/iliyamo/image-search-api/internal/service"
)

const (
	defaultPageLimit = 20        // rows per page when the client sends none
	maxPageLimit     = 200       // hard ceiling on rows per page
	maxPage          = 1_000_000 // keeps page*limit OFFSET arithmetic far from overflow
	recentLimit      = 100       // rows returned by the unpaginated history endpoint
	topTermsLimit    = 5         // entries in the top-searches aggregation
)

// SearchHandler bundles dependencies for the search-history endpoints.
type SearchHandler struct {
	Cfg      config.Config
	Searches *repository.SearchRepo
}

func NewSearchHandler(cfg config.Config, s *repository.SearchRepo) *SearchHandler {
	return &SearchHandler{Cfg: cfg, Searches: s}
}

type recordReq struct {
	Term string `json:"term"`
}

// Record appends one search term to the caller's history.  Every submitted
// term becomes a row: no dedup, no rate limit.
func (h *SearchHandler) Record(c echo.Context) error {
	userID, ok := currentUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "no token provided"})
	}
	var req recordReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	term := strings.TrimSpace(req.Term)
	if term == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "term is required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.Cfg.StoreTimeout)
	defer cancel()

	rec, err := h.Searches.Insert(ctx, userID, term)
	if err != nil {
		c.Logger().Errorf("record search: insert failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal server error"})
	}

	if h.Cfg.QueueEnabled {
		// analytics event, best-effort; detached from the request lifetime
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = service.PublishSearchRecorded(ctx, queue.SearchRecordedEvent{
				UserID:    rec.UserID,
				Term:      rec.Term,
				CreatedAt: rec.CreatedAt,
			})
		}()
	}

	return c.JSON(http.StatusCreated, echo.Map{"ok": true, "search": rec})
}

// List returns one page of the caller's history, newest first, with the
// filtered total for pagination UI.  `q` narrows results to terms
// containing the given substring, case-insensitively.
func (h *SearchHandler) List(c echo.Context) error {
	userID, ok := currentUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "no token provided"})
	}

	page := parsePage(c.QueryParam("page"))
	limit := parseLimit(c.QueryParam("limit"))
	q := repository.HistoryQuery{
		UserID: userID,
		Filter: strings.TrimSpace(c.QueryParam("q")),
		Page:   page,
		Limit:  limit,
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.Cfg.StoreTimeout)
	defer cancel()

	items, total, err := h.Searches.List(ctx, q)
	if err != nil {
		c.Logger().Errorf("list history: query failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal server error"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"ok":      true,
		"page":    page,
		"limit":   limit,
		"total":   total,
		"history": items,
	})
}

// Recent returns the caller's latest searches without pagination, for the
// history sidebar in the client.
func (h *SearchHandler) Recent(c echo.Context) error {
	userID, ok := currentUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "no token provided"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.Cfg.StoreTimeout)
	defer cancel()

	items, err := h.Searches.Recent(ctx, userID, recentLimit)
	if err != nil {
		c.Logger().Errorf("recent history: query failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal server error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"ok": true, "history": items})
}

// Clear deletes the caller's entire history.  Irreversible.
func (h *SearchHandler) Clear(c echo.Context) error {
	userID, ok := currentUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "no token provided"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.Cfg.StoreTimeout)
	defer cancel()

	if err := h.Searches.ClearForUser(ctx, userID); err != nil {
		c.Logger().Errorf("clear history: delete failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal server error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"ok": true})
}

// TopSearches returns the globally most frequent normalized terms.  The
// route is public and sits behind the Redis response cache.
func (h *SearchHandler) TopSearches(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.Cfg.StoreTimeout)
	defer cancel()

	top, err := h.Searches.TopTerms(ctx, topTermsLimit)
	if err != nil {
		c.Logger().Errorf("top searches: aggregation failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal server error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"ok": true, "top": top})
}

// currentUserID reads the authenticated user id stored by the JWT
// middleware.
func currentUserID(c echo.Context) (uint64, bool) {
	id, ok := c.Get(middleware.CtxUserID).(uint64)
	return id, ok
}

// parsePage clamps the page number to [1, maxPage].  The ceiling keeps
// the (page-1)*limit OFFSET computation inside int range no matter what
// the query string says; any page past it is empty anyway.
func parsePage(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 1
	}
	if n > maxPage {
		return maxPage
	}
	return n
}

// parseLimit clamps the page size to [1, maxPageLimit], defaulting when
// absent or unparsable.
func parseLimit(s string) int {
	if s == "" {
		return defaultPageLimit
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return defaultPageLimit
	}
	if n < 1 {
		return 1
	}
	if n > maxPageLimit {
		return maxPageLimit
	}
	return n
}
