package core

import (
	"errors"
	"strings"
	"time"
)

const (
	StatusActive    ProjectStatus = "active"
	StatusOnHold    ProjectStatus = "on-hold"
	StatusCompleted ProjectStatus = "completed"
)

const (
	DeveloperPayout PaymentType = "developer-payout"
	ClientPayment   PaymentType = "client-payment"
)

const (
	PriorityLow    TaskPriority = "low"
	PriorityMedium TaskPriority = "medium"
	PriorityHigh   TaskPriority = "high"
)

// RoleCoFounder marks an employee that never appears in the
// developer-payout recipient pool.
const RoleCoFounder = "Co-Founder"

// ColumnCompleted is the terminal kanban column; the other columns are
// the configured founder names.
const ColumnCompleted = "Completed"

type (
	ProjectStatus string
	PaymentType   string
	TaskPriority  string

	Money struct {
		Cents int64
	}

	Project struct {
		ID            string
		Name          string
		TotalCost     Money // contract value
		DeveloperCost Money // budget allocated to developers; 0 = direct project
		Status        ProjectStatus
		Progress      int // 0-100, manually set
		Employees     []string
		CreatedAt     time.Time
	}

	Payment struct {
		ID          string
		ProjectID   string
		Amount      Money
		Type        PaymentType
		RecipientID string // employee, developer payouts only
		PaidBy      string
		Description string
		Reason      string // justification recorded when a payout went over budget
		PaidAt      time.Time
	}

	Employee struct {
		ID        string
		Name      string
		Role      string
		Salary    Money
		CreatedAt time.Time
	}

	Client struct {
		ID        string
		Name      string
		Company   string
		Contact   string
		Lat       float64
		Lng       float64
		CreatedAt time.Time
	}

	Notice struct {
		ID        string
		Text      string
		Active    bool
		CreatedAt time.Time
	}

	Task struct {
		ID        string
		Title     string
		Column    string // founder name or ColumnCompleted
		Priority  TaskPriority
		DueDate   time.Time // zero when not set
		CreatedAt time.Time
		UpdatedAt time.Time
	}

	Activity struct {
		ID          string
		Action      string
		Description string
		Timestamp   time.Time
	}
)

var (
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrEmptyName        = errors.New("empty name")
	ErrEmptyDescription = errors.New("empty description")
	ErrEmptyText        = errors.New("empty text")
	ErrMissingProject   = errors.New("missing project reference")
	ErrInvalidStatus    = errors.New("invalid project status")
	ErrInvalidType      = errors.New("invalid payment type")
	ErrInvalidProgress  = errors.New("progress must be between 0 and 100")
	ErrInvalidPriority  = errors.New("invalid task priority")
	ErrEmptyColumn      = errors.New("empty task column")
	ErrEmptyPaidBy      = errors.New("missing paying founder")
)

func (s ProjectStatus) Valid() bool {
	switch s {
	case StatusActive, StatusOnHold, StatusCompleted:
		return true
	}
	return false
}

func (t PaymentType) Valid() bool {
	switch t {
	case DeveloperPayout, ClientPayment:
		return true
	}
	return false
}

func (p TaskPriority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (p Project) Validate() error {
	if len(strings.TrimSpace(p.Name)) == 0 {
		return ErrEmptyName
	}
	if len(p.Name) > 200 {
		return errors.New("name too long (max 200 characters)")
	}
	if p.TotalCost.Cents < 0 || p.DeveloperCost.Cents < 0 {
		return ErrInvalidAmount
	}
	if !p.Status.Valid() {
		return ErrInvalidStatus
	}
	if p.Progress < 0 || p.Progress > 100 {
		return ErrInvalidProgress
	}
	return nil
}

func (p Payment) Validate() error {
	if strings.TrimSpace(p.ProjectID) == "" {
		return ErrMissingProject
	}
	if err := p.Amount.Validate(); err != nil {
		return err
	}
	if !p.Type.Valid() {
		return ErrInvalidType
	}
	if strings.TrimSpace(p.PaidBy) == "" {
		return ErrEmptyPaidBy
	}
	if len(strings.TrimSpace(p.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(p.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	return nil
}

func (e Employee) Validate() error {
	if len(strings.TrimSpace(e.Name)) == 0 {
		return ErrEmptyName
	}
	if strings.TrimSpace(e.Role) == "" {
		return errors.New("empty role")
	}
	if e.Salary.Cents < 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (c Client) Validate() error {
	if len(strings.TrimSpace(c.Name)) == 0 {
		return ErrEmptyName
	}
	return nil
}

func (n Notice) Validate() error {
	if len(strings.TrimSpace(n.Text)) == 0 {
		return ErrEmptyText
	}
	return nil
}

func (t Task) Validate() error {
	if len(strings.TrimSpace(t.Title)) == 0 {
		return errors.New("empty title")
	}
	if len(t.Title) > 200 {
		return errors.New("title too long (max 200 characters)")
	}
	if strings.TrimSpace(t.Column) == "" {
		return ErrEmptyColumn
	}
	if !t.Priority.Valid() {
		return ErrInvalidPriority
	}
	return nil
}

// Overdue reports whether the task's due date has passed. Tasks in the
// Completed column are never overdue, nor are tasks without a due date.
func (t Task) Overdue(now time.Time) bool {
	if t.DueDate.IsZero() || t.Column == ColumnCompleted {
		return false
	}
	return t.DueDate.Before(now)
}

// EffectiveDate resolves a payment's effective date: the supplied date
// when present, otherwise the creation time. The resolved value is
// stored once in PaidAt; the budget guard, list filters and every trend
// computation read the same field.
func EffectiveDate(supplied, createdAt time.Time) time.Time {
	if !supplied.IsZero() {
		return supplied
	}
	return createdAt
}

// PayoutRecipients filters the employee roster down to the pool that
// can receive developer payouts. Co-founders are excluded.
func PayoutRecipients(employees []Employee) []Employee {
	var out []Employee
	for _, e := range employees {
		if e.Role != RoleCoFounder {
			out = append(out, e)
		}
	}
	return out
}
