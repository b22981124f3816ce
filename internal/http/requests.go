package http

import (
	"strings"

	"github.com/labstack/echo/v4"

	"tutorbook/internal/core"
)

// Request bodies. Amounts and dates are checked again by the ledger service;
// the tags here reject obviously malformed input early.

type paymentRequest struct {
	StudentID string      `json:"student_id" validate:"max=64"`
	Amount    core.Amount `json:"amount"`
	Date      string      `json:"date" validate:"required,datetime=2006-01-02"`
	Note      string      `json:"note" validate:"max=500"`
}

func (r paymentRequest) payment(id string) core.Payment {
	return core.Payment{
		ID:        id,
		StudentID: strings.TrimSpace(r.StudentID),
		Amount:    r.Amount,
		Date:      core.ParseDate(r.Date),
		Note:      sanitizeInput(r.Note),
	}
}

type expenseRequest struct {
	Description string      `json:"description" validate:"notblank,max=200"`
	Amount      core.Amount `json:"amount"`
	Date        string      `json:"date" validate:"required,datetime=2006-01-02"`
	Note        string      `json:"note" validate:"max=500"`
}

func (r expenseRequest) expense(id string) core.Expense {
	return core.Expense{
		ID:          id,
		Description: sanitizeInput(r.Description),
		Amount:      r.Amount,
		Date:        core.ParseDate(r.Date),
		Note:        sanitizeInput(r.Note),
	}
}

type studentRequest struct {
	Name       string      `json:"name" validate:"notblank,max=100"`
	Phone      string      `json:"phone" validate:"omitempty,phone"`
	GroupID    string      `json:"group_id" validate:"max=64"`
	MonthlyFee core.Amount `json:"monthly_fee"`
	JoinDate   string      `json:"join_date" validate:"omitempty,datetime=2006-01-02"`
	Note       string      `json:"note" validate:"max=500"`
}

func (r studentRequest) student(id string) core.Student {
	return core.Student{
		ID:         id,
		Name:       sanitizeInput(r.Name),
		Phone:      strings.TrimSpace(r.Phone),
		GroupID:    strings.TrimSpace(r.GroupID),
		MonthlyFee: r.MonthlyFee,
		JoinDate:   core.ParseDate(r.JoinDate),
		Note:       sanitizeInput(r.Note),
	}
}

type groupRequest struct {
	Name string `json:"name" validate:"notblank,max=100"`
}

type settingsRequest struct {
	DaysBefore         int  `json:"reminder_days_before" validate:"gte=0,lte=31"`
	DaysAfter          int  `json:"reminder_days_after" validate:"gte=0,lte=31"`
	UseGroupOverride   bool `json:"use_group_override"`
	UseStudentOverride bool `json:"use_student_override"`
}

func (r settingsRequest) settings() core.ReminderSettings {
	return core.ReminderSettings{
		DaysBefore:         r.DaysBefore,
		DaysAfter:          r.DaysAfter,
		UseGroupOverride:   r.UseGroupOverride,
		UseStudentOverride: r.UseStudentOverride,
	}
}

// overrideRequest leaves a field unset (null or absent) to inherit it.
type overrideRequest struct {
	DaysBefore core.Optional[int] `json:"reminder_days_before"`
	DaysAfter  core.Optional[int] `json:"reminder_days_after"`
}

func (r overrideRequest) override() core.ReminderOverride {
	return core.ReminderOverride{DaysBefore: r.DaysBefore, DaysAfter: r.DaysAfter}
}

type monthQuery struct {
	Month string `query:"month" validate:"omitempty,yearmonth"`
}

type studentQuery struct {
	Q string `query:"q" validate:"max=100"`
}

type effectiveQuery struct {
	StudentID string `query:"student_id" validate:"required"`
}

// bindAndValidate binds the request into dst and runs its validation tags.
func bindAndValidate(c echo.Context, dst any) error {
	if err := c.Bind(dst); err != nil {
		return err
	}
	return c.Validate(dst)
}

// sanitizeInput trims s and drops control characters other than tab and
// newlines.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, s)
}
