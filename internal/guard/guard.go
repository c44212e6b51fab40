// Package guard gates developer payouts against the project's
// developer budget. A payout that would push cumulative payouts past
// the budget is held until the operator supplies a written reason;
// everything else passes straight through.
package guard

import (
	"errors"
	"strings"

	"opsdeck/internal/core"
)

type State string

const (
	StateDrafting              State = "drafting"
	StateChecking              State = "checking"
	StateAwaitingJustification State = "awaiting-justification"
	StateCommitting            State = "committing"
	StateFailed                State = "failed"
)

var (
	ErrMissingReason = errors.New("over-budget payout requires a reason")
	ErrNotHeld       = errors.New("submission is not awaiting justification")
	ErrFinished      = errors.New("submission already resolved")
)

// Draft is the payment as entered, before the check. PaymentID is set
// when editing an existing payment so its old amount is excluded from
// the cumulative total.
type Draft struct {
	PaymentID string
	ProjectID string
	Amount    core.Money
	Type      core.PaymentType
	Reason    string
}

// BudgetCheck captures the figures at the moment of evaluation. They
// are recomputed on every submission attempt, never reused.
type BudgetCheck struct {
	Budget          core.Money `json:"budget"`
	ExistingPayouts core.Money `json:"existingPayouts"`
	NewTotal        core.Money `json:"newTotal"`
	Excess          core.Money `json:"excess"`
}

// Exceeded reports whether the draft would overshoot the budget.
func (c BudgetCheck) Exceeded() bool {
	return c.Excess.Cents > 0
}

// CheckPayout evaluates a draft payout against the project's developer
// budget and the payouts already on record. A payment being edited is
// excluded from the existing total by its id.
func CheckPayout(draft Draft, project core.Project, payments []core.Payment) BudgetCheck {
	var existing core.Money
	for _, p := range payments {
		if p.ProjectID != project.ID || p.Type != core.DeveloperPayout {
			continue
		}
		if draft.PaymentID != "" && p.ID == draft.PaymentID {
			continue
		}
		existing = existing.Add(p.Amount)
	}
	newTotal := existing.Add(draft.Amount)
	var excess core.Money
	if newTotal.Cents > project.DeveloperCost.Cents {
		excess = newTotal.Sub(project.DeveloperCost)
	}
	return BudgetCheck{
		Budget:          project.DeveloperCost,
		ExistingPayouts: existing,
		NewTotal:        newTotal,
		Excess:          excess,
	}
}

// Submission walks one draft through the guard. The zero value is not
// usable; construct with NewSubmission.
type Submission struct {
	draft Draft
	state State
	check BudgetCheck
}

func NewSubmission(draft Draft) *Submission {
	return &Submission{draft: draft, state: StateDrafting}
}

func (s *Submission) State() State       { return s.state }
func (s *Submission) Draft() Draft       { return s.draft }
func (s *Submission) Check() BudgetCheck { return s.check }

// Submit runs the budget check. Client payments and within-budget
// payouts move directly to committing. An over-budget payout moves to
// committing only when the draft already carries a reason; otherwise
// it is held awaiting justification and the draft is preserved for the
// resubmission.
func (s *Submission) Submit(project core.Project, payments []core.Payment) (State, error) {
	switch s.state {
	case StateDrafting, StateAwaitingJustification:
	default:
		return s.state, ErrFinished
	}

	if s.draft.Type != core.DeveloperPayout {
		s.state = StateCommitting
		return s.state, nil
	}

	s.state = StateChecking
	s.check = CheckPayout(s.draft, project, payments)
	if !s.check.Exceeded() || strings.TrimSpace(s.draft.Reason) != "" {
		s.state = StateCommitting
		return s.state, nil
	}
	s.state = StateAwaitingJustification
	return s.state, nil
}

// Justify attaches the operator's reason to a held submission and
// releases it for commit. The budget is not re-evaluated: the figures
// shown to the operator are the figures the decision was made on.
func (s *Submission) Justify(reason string) (State, error) {
	if s.state != StateAwaitingJustification {
		return s.state, ErrNotHeld
	}
	if strings.TrimSpace(reason) == "" {
		return s.state, ErrMissingReason
	}
	s.draft.Reason = strings.TrimSpace(reason)
	s.state = StateCommitting
	return s.state, nil
}

// Abandon discards a held or drafting submission.
func (s *Submission) Abandon() (State, error) {
	switch s.state {
	case StateDrafting, StateAwaitingJustification, StateChecking:
		s.state = StateFailed
		return s.state, nil
	default:
		return s.state, ErrFinished
	}
}
