package pricing

import (
	"net/http"
	"regexp"
	"strconv"

	"github.com/labstack/echo/v4"
)

const defaultRadiusMiles = 10

var zipPattern = regexp.MustCompile(`^\d{5}$`)

type Handler struct {
	engine *Engine
}

func NewHandler(engine *Engine) *Handler {
	return &Handler{engine: engine}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/prices/search", h.SearchPrices)
}

type searchResponse struct {
	Results []Result `json:"results"`
	Count   int      `json:"count"`
}

// SearchPrices handles GET /prices/search?drug=&zip=&radius=&generic=&sort=.
// The engine never fails a search, so validation errors are the only
// non-200 responses.
func (h *Handler) SearchPrices(c echo.Context) error {
	drug := c.QueryParam("drug")
	if drug == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "drug is required")
	}
	zip := c.QueryParam("zip")
	if !zipPattern.MatchString(zip) {
		return echo.NewHTTPError(http.StatusBadRequest, "zip must be a 5-digit code")
	}

	radius := defaultRadiusMiles
	if raw := c.QueryParam("radius"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "radius must be a positive integer")
		}
		radius = n
	}

	includeGeneric := true
	if raw := c.QueryParam("generic"); raw != "" {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "generic must be a boolean")
		}
		includeGeneric = b
	}

	q := Query{
		DrugName:       drug,
		ZipCode:        zip,
		RadiusMiles:    radius,
		IncludeGeneric: includeGeneric,
	}

	var results []Result
	switch c.QueryParam("sort") {
	case "", "price":
		results = h.engine.SearchByPrice(c.Request().Context(), q)
	case "distance":
		results = h.engine.SearchByDistance(c.Request().Context(), q)
	default:
		return echo.NewHTTPError(http.StatusBadRequest, "sort must be price or distance")
	}

	return c.JSON(http.StatusOK, searchResponse{Results: results, Count: len(results)})
}
