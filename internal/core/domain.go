package core

import (
	"errors"
	"regexp"
	"strings"
	"time"
)

type (
	// Payment is one income event. StudentID may be empty or point at a
	// student that no longer exists.
	Payment struct {
		ID        string    `json:"id" db:"id"`
		StudentID string    `json:"student_id" db:"student_id"`
		Amount    Amount    `json:"amount" db:"amount"`
		Date      Date      `json:"date" db:"date"`
		Note      string    `json:"note" db:"note"`
		CreatedAt time.Time `json:"created_at" db:"created_at"`
	}

	Expense struct {
		ID          string    `json:"id" db:"id"`
		Description string    `json:"description" db:"description"`
		Amount      Amount    `json:"amount" db:"amount"`
		Date        Date      `json:"date" db:"date"`
		Note        string    `json:"note" db:"note"`
		CreatedAt   time.Time `json:"created_at" db:"created_at"`
	}

	Student struct {
		ID         string    `json:"id" db:"id"`
		Name       string    `json:"name" db:"name"`
		Phone      string    `json:"phone" db:"phone"`
		GroupID    string    `json:"group_id" db:"group_id"`
		MonthlyFee Amount    `json:"monthly_fee" db:"monthly_fee"`
		JoinDate   Date      `json:"join_date" db:"join_date"`
		Note       string    `json:"note" db:"note"`
		CreatedAt  time.Time `json:"created_at" db:"created_at"`
	}

	Group struct {
		ID        string    `json:"id" db:"id"`
		Name      string    `json:"name" db:"name"`
		CreatedAt time.Time `json:"created_at" db:"created_at"`
	}
)

var (
	ErrInvalidDay       = errors.New("invalid day")
	ErrInvalidMonth     = errors.New("invalid month")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrEmptyDescription = errors.New("empty description")
	ErrEmptyName        = errors.New("empty name")
	ErrInvalidPhone     = errors.New("invalid phone number")
	ErrNegativeDays     = errors.New("reminder days cannot be negative")
)

// Egyptian mobile numbers: 010, 011, 012 or 015 followed by eight digits.
var phonePattern = regexp.MustCompile(`^01[0-25][0-9]{8}$`)

// ValidPhone reports whether s is an accepted mobile number.
func ValidPhone(s string) bool {
	return phonePattern.MatchString(strings.TrimSpace(s))
}

func (p Payment) Validate() error {
	if err := p.Date.Validate(); err != nil {
		return err
	}
	return p.Amount.Validate()
}

func (e Expense) Validate() error {
	if err := e.Date.Validate(); err != nil {
		return err
	}
	if len(strings.TrimSpace(e.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(e.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	return e.Amount.Validate()
}

func (s Student) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return ErrEmptyName
	}
	if s.Phone != "" && !ValidPhone(s.Phone) {
		return ErrInvalidPhone
	}
	// A fee is optional but must be sane when given.
	if s.MonthlyFee.Valid() {
		if err := s.MonthlyFee.Validate(); err != nil {
			return err
		}
	}
	if !s.JoinDate.IsEmpty() {
		if err := s.JoinDate.Validate(); err != nil {
			return errors.New("invalid join date: " + err.Error())
		}
	}
	return nil
}

func (g Group) Validate() error {
	if strings.TrimSpace(g.Name) == "" {
		return ErrEmptyName
	}
	return nil
}

// AmountValue and When let the aggregation functions work over payments and
// expenses alike.
func (p Payment) AmountValue() Amount { return p.Amount }
func (p Payment) When() Date          { return p.Date }
func (e Expense) AmountValue() Amount { return e.Amount }
func (e Expense) When() Date          { return e.Date }
