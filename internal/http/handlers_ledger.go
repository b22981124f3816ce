package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"tutorbook/internal/core"
	"tutorbook/internal/finance"
	"tutorbook/internal/services"
)

type ledgerHandler struct {
	ledger *services.LedgerService
}

// RegisterLedgerAPI mounts the payment and expense routes.
func RegisterLedgerAPI(g *echo.Group, ledger *services.LedgerService) {
	h := ledgerHandler{ledger: ledger}

	payments := g.Group("/payments")
	payments.GET("", h.listPayments)
	payments.POST("", h.createPayment)
	payments.PUT("/:id", h.updatePayment)
	payments.DELETE("/:id", h.deletePayment)

	expenses := g.Group("/expenses")
	expenses.GET("", h.listExpenses)
	expenses.POST("", h.createExpense)
	expenses.PUT("/:id", h.updateExpense)
	expenses.DELETE("/:id", h.deleteExpense)
}

func (h ledgerHandler) listPayments(c echo.Context) error {
	var q monthQuery
	if err := bindAndValidate(c, &q); err != nil {
		return err
	}
	snap, err := h.ledger.Snapshot(c.Request().Context())
	if err != nil {
		return err
	}
	payments := snap.Payments
	if q.Month != "" {
		payments = finance.FilterByMonth(payments, core.MonthKey(q.Month))
	}
	return c.JSON(http.StatusOK, orEmpty(payments))
}

func (h ledgerHandler) createPayment(c echo.Context) error {
	var req paymentRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	p, err := h.ledger.CreatePayment(c.Request().Context(), req.payment(""))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, p)
}

func (h ledgerHandler) updatePayment(c echo.Context) error {
	var req paymentRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	p, err := h.ledger.UpdatePayment(c.Request().Context(), req.payment(c.Param("id")))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

func (h ledgerHandler) deletePayment(c echo.Context) error {
	if err := h.ledger.DeletePayment(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h ledgerHandler) listExpenses(c echo.Context) error {
	var q monthQuery
	if err := bindAndValidate(c, &q); err != nil {
		return err
	}
	snap, err := h.ledger.Snapshot(c.Request().Context())
	if err != nil {
		return err
	}
	expenses := snap.Expenses
	if q.Month != "" {
		expenses = finance.FilterByMonth(expenses, core.MonthKey(q.Month))
	}
	return c.JSON(http.StatusOK, orEmpty(expenses))
}

func (h ledgerHandler) createExpense(c echo.Context) error {
	var req expenseRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	e, err := h.ledger.CreateExpense(c.Request().Context(), req.expense(""))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, e)
}

func (h ledgerHandler) updateExpense(c echo.Context) error {
	var req expenseRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	e, err := h.ledger.UpdateExpense(c.Request().Context(), req.expense(c.Param("id")))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, e)
}

func (h ledgerHandler) deleteExpense(c echo.Context) error {
	if err := h.ledger.DeleteExpense(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
