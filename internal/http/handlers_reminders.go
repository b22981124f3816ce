package http

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"tutorbook/internal/core"
	"tutorbook/internal/services"
	"tutorbook/internal/storage"
)

type reminderHandler struct {
	ledger *services.LedgerService
	now    func() time.Time
}

// RegisterReminderAPI mounts reminder settings, overrides and the due scan.
func RegisterReminderAPI(g *echo.Group, ledger *services.LedgerService, now func() time.Time) {
	h := reminderHandler{ledger: ledger, now: now}

	settings := g.Group("/settings/reminders")
	settings.GET("", h.getSettings)
	settings.PUT("", h.saveSettings)
	settings.PUT("/groups/:id", h.saveGroupOverride)
	settings.PUT("/students/:id", h.saveStudentOverride)

	g.GET("/reminders/effective", h.effective)
	g.GET("/reminders/due", h.due)
}

// getSettings returns the saved settings. When they could not be loaded
// the zero settings the resolver falls back to are returned.
func (h reminderHandler) getSettings(c echo.Context) error {
	snap, err := h.ledger.Snapshot(c.Request().Context())
	if err != nil {
		return err
	}
	var rs core.ReminderSettings
	if snap.Settings != nil {
		rs = *snap.Settings
	}
	return c.JSON(http.StatusOK, rs)
}

func (h reminderHandler) saveSettings(c echo.Context) error {
	var req settingsRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	rs, err := h.ledger.SaveSettings(c.Request().Context(), req.settings())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, rs)
}

func (h reminderHandler) saveGroupOverride(c echo.Context) error {
	var req overrideRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	ctx := c.Request().Context()
	id := c.Param("id")

	snap, err := h.ledger.Snapshot(ctx)
	if err != nil {
		return err
	}
	if _, ok := snap.Group(id); !ok {
		return fmt.Errorf("group %s: %w", id, storage.ErrNotFound)
	}

	o, err := h.ledger.SaveGroupOverride(ctx, core.GroupReminderOverride{GroupID: id, ReminderOverride: req.override()})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, o)
}

func (h reminderHandler) saveStudentOverride(c echo.Context) error {
	var req overrideRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	ctx := c.Request().Context()
	id := c.Param("id")

	snap, err := h.ledger.Snapshot(ctx)
	if err != nil {
		return err
	}
	if _, ok := snap.Student(id); !ok {
		return fmt.Errorf("student %s: %w", id, storage.ErrNotFound)
	}

	o, err := h.ledger.SaveStudentOverride(ctx, core.StudentReminderOverride{StudentID: id, ReminderOverride: req.override()})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, o)
}

func (h reminderHandler) effective(c echo.Context) error {
	var q effectiveQuery
	if err := bindAndValidate(c, &q); err != nil {
		return err
	}
	days, err := h.ledger.EffectiveReminder(c.Request().Context(), q.StudentID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{
		"student_id":           q.StudentID,
		"reminder_days_before": days.Before,
		"reminder_days_after":  days.After,
	})
}

func (h reminderHandler) due(c echo.Context) error {
	due, err := h.ledger.DueReminders(c.Request().Context(), h.now())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, orEmpty(due))
}
