package http

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"tutorbook/internal/core"
	"tutorbook/internal/finance"
	"tutorbook/internal/services"
	"tutorbook/internal/storage"
)

type rosterHandler struct {
	ledger *services.LedgerService
}

// RegisterRosterAPI mounts the student and group routes.
func RegisterRosterAPI(g *echo.Group, ledger *services.LedgerService) {
	h := rosterHandler{ledger: ledger}

	students := g.Group("/students")
	students.GET("", h.listStudents)
	students.POST("", h.createStudent)
	students.PUT("/:id", h.updateStudent)
	students.DELETE("/:id", h.deleteStudent)
	students.GET("/:id/payments", h.studentPayments)

	groups := g.Group("/groups")
	groups.GET("", h.listGroups)
	groups.POST("", h.createGroup)
	groups.DELETE("/:id", h.deleteGroup)
}

// listStudents returns the roster, or the name matches when q is given.
func (h rosterHandler) listStudents(c echo.Context) error {
	var q studentQuery
	if err := bindAndValidate(c, &q); err != nil {
		return err
	}
	snap, err := h.ledger.Snapshot(c.Request().Context())
	if err != nil {
		return err
	}
	students := snap.Students
	if c.QueryParams().Has("q") {
		students = finance.SearchStudents(students, q.Q)
	}
	return c.JSON(http.StatusOK, orEmpty(students))
}

func (h rosterHandler) createStudent(c echo.Context) error {
	var req studentRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	st, err := h.ledger.CreateStudent(c.Request().Context(), req.student(""))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, st)
}

func (h rosterHandler) updateStudent(c echo.Context) error {
	var req studentRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	st, err := h.ledger.UpdateStudent(c.Request().Context(), req.student(c.Param("id")))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, st)
}

func (h rosterHandler) deleteStudent(c echo.Context) error {
	if err := h.ledger.DeleteStudent(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h rosterHandler) studentPayments(c echo.Context) error {
	id := c.Param("id")
	snap, err := h.ledger.Snapshot(c.Request().Context())
	if err != nil {
		return err
	}
	if _, ok := snap.Student(id); !ok {
		return fmt.Errorf("student %s: %w", id, storage.ErrNotFound)
	}
	return c.JSON(http.StatusOK, orEmpty(finance.StudentHistory(id, snap.Payments)))
}

func (h rosterHandler) listGroups(c echo.Context) error {
	snap, err := h.ledger.Snapshot(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, orEmpty(snap.Groups))
}

func (h rosterHandler) createGroup(c echo.Context) error {
	var req groupRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	g, err := h.ledger.CreateGroup(c.Request().Context(), core.Group{Name: sanitizeInput(req.Name)})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, g)
}

func (h rosterHandler) deleteGroup(c echo.Context) error {
	if err := h.ledger.DeleteGroup(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
