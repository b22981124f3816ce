package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"tutorbook/internal/finance"
	"tutorbook/internal/services"
)

type dashboardHandler struct {
	ledger *services.LedgerService
}

func RegisterDashboardAPI(g *echo.Group, ledger *services.LedgerService) {
	h := dashboardHandler{ledger: ledger}
	g.GET("/summary", h.summary)
	g.GET("/analytics/monthly", h.monthly)
	g.GET("/analytics/groups", h.groups)
}

func (h dashboardHandler) summary(c echo.Context) error {
	sum, err := h.ledger.Summary(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, sum)
}

func (h dashboardHandler) monthly(c echo.Context) error {
	snap, err := h.ledger.Snapshot(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, orEmpty(finance.MonthlyTotals(snap.Payments, snap.Expenses)))
}

func (h dashboardHandler) groups(c echo.Context) error {
	snap, err := h.ledger.Snapshot(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, orEmpty(finance.GroupDistribution(snap.Payments, snap.Students, snap.Groups)))
}

// orEmpty keeps empty lists from encoding as null.
func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
