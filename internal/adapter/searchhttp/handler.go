package searchhttp

import (
	"errors"
	"net/http"
	"strings"

	"site-search/internal/domain"
	"site-search/internal/usecase"

	"github.com/labstack/echo/v4"
)

// Handler serves the search API.
type Handler struct {
	semantic    usecase.SemanticSearchUsecase
	hybrid      usecase.HybridSearchUsecase
	defaultLang string
}

// NewHandler constructs the search handler. defaultLang is used when the
// request carries no lang parameter.
func NewHandler(semantic usecase.SemanticSearchUsecase, hybrid usecase.HybridSearchUsecase, defaultLang string) *Handler {
	return &Handler{
		semantic:    semantic,
		hybrid:      hybrid,
		defaultLang: defaultLang,
	}
}

// Register mounts the search routes.
func (h *Handler) Register(e *echo.Echo) {
	e.POST("/api/ai-search", h.AISearch)
	e.POST("/api/hybrid-search", h.HybridSearch)
}

type searchRequest struct {
	Query string `json:"query"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// AISearch runs the semantic retrieval pipeline.
// (POST /api/ai-search?lang=<code>)
func (h *Handler) AISearch(c echo.Context) error {
	var req searchRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "Missing query in request body"})
	}

	results, err := h.semantic.Execute(c.Request().Context(), strings.TrimSpace(req.Query), h.targetLang(c))
	if err != nil {
		return h.writeError(c, err)
	}
	if results == nil {
		results = []domain.SemanticResult{}
	}
	return c.JSON(http.StatusOK, results)
}

// HybridSearch runs the keyword and semantic pipelines concurrently and
// returns the merged, de-duplicated list.
// (POST /api/hybrid-search?lang=<code>)
func (h *Handler) HybridSearch(c echo.Context) error {
	var req searchRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "Missing query in request body"})
	}

	out, err := h.hybrid.Execute(c.Request().Context(), strings.TrimSpace(req.Query), h.targetLang(c))
	if err != nil {
		return h.writeError(c, err)
	}
	if out.Results == nil {
		out.Results = []domain.MergedResult{}
	}
	return c.JSON(http.StatusOK, out)
}

func (h *Handler) targetLang(c echo.Context) string {
	if lang := c.QueryParam("lang"); lang != "" {
		return strings.ToLower(lang)
	}
	return h.defaultLang
}

// writeError maps the domain error taxonomy onto HTTP statuses: validation
// errors are 400, configuration and upstream errors are 500.
func (h *Handler) writeError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, domain.ErrEmptyQuery):
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "Missing query in request body"})
	case errors.Is(err, domain.ErrNoIndexForLanguage):
		return c.JSON(http.StatusInternalServerError, errorResponse{
			Error:   "Configuration error: unsupported language or index binding missing",
			Details: err.Error(),
		})
	default:
		return c.JSON(http.StatusInternalServerError, errorResponse{
			Error:   "Search failed due to an internal error",
			Details: err.Error(),
		})
	}
}
