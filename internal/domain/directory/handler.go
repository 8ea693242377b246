package directory

import (
	"net/http"
	"regexp"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/scriptscout/scriptscout/pkg/pagination"
)

const defaultRadiusMiles = 10

var zipPattern = regexp.MustCompile(`^\d{5}$`)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/pharmacies", h.ListPharmacies)
	api.GET("/pharmacies/nearby", h.NearbyPharmacies)
	api.POST("/pharmacies", h.CreatePharmacy)
}

// NearbyPharmacies handles GET /pharmacies/nearby?zip=&radius=.
func (h *Handler) NearbyPharmacies(c echo.Context) error {
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

	results := h.svc.Nearby(c.Request().Context(), zip, radius)
	return c.JSON(http.StatusOK, map[string]interface{}{
		"results": results,
		"count":   len(results),
	})
}

func (h *Handler) ListPharmacies(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListPharmacies(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) CreatePharmacy(c echo.Context) error {
	var p Pharmacy
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if p.Name == "" || !zipPattern.MatchString(p.ZipCode) {
		return echo.NewHTTPError(http.StatusBadRequest, "name and a 5-digit zip_code are required")
	}
	if err := h.svc.CreatePharmacy(c.Request().Context(), &p); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusCreated, p)
}
