package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"opsdeck/internal/core"
	"opsdeck/internal/guard"
	"opsdeck/internal/ports"
	"opsdeck/internal/snapshot"
)

// PaymentRequest is a payment as submitted by the operator. PaymentID
// is set when editing an existing payment. Date is optional; when zero
// the payment is effective at submission time.
type PaymentRequest struct {
	PaymentID   string
	ProjectID   string
	Amount      core.Money
	Type        core.PaymentType
	RecipientID string
	PaidBy      string
	Description string
	Reason      string
	Date        time.Time
}

// SubmitResult reports how a submission resolved. When State is
// awaiting-justification nothing was written and Check carries the
// figures to show the operator.
type SubmitResult struct {
	State         guard.State
	PaymentID     string
	Check         guard.BudgetCheck
	Notifications []ports.Notification
}

// PaymentService runs payment submissions through the budget guard,
// commits them locally and hands them to the export pipeline. Local
// writes are the source of truth; a publish failure never fails the
// request.
type PaymentService struct {
	projects  ports.ProjectStore
	payments  ports.PaymentStore
	publisher ports.EventPublisher
	hub       *snapshot.Hub
}

func NewPaymentService(projects ports.ProjectStore, payments ports.PaymentStore, publisher ports.EventPublisher, hub *snapshot.Hub) *PaymentService {
	return &PaymentService{
		projects:  projects,
		payments:  payments,
		publisher: publisher,
		hub:       hub,
	}
}

// SubmitPayment runs one submission through the guard. An over-budget
// payout without a reason is held and returned unwritten; resubmitting
// the same request with a reason commits it.
func (s *PaymentService) SubmitPayment(ctx context.Context, req PaymentRequest) (SubmitResult, error) {
	now := time.Now()
	payment := core.Payment{
		ID:          req.PaymentID,
		ProjectID:   req.ProjectID,
		Amount:      req.Amount,
		Type:        req.Type,
		RecipientID: req.RecipientID,
		PaidBy:      req.PaidBy,
		Description: req.Description,
		Reason:      req.Reason,
		PaidAt:      core.EffectiveDate(req.Date, now),
	}
	if err := payment.Validate(); err != nil {
		return SubmitResult{State: guard.StateFailed}, fmt.Errorf("validate payment: %w", err)
	}

	project, err := s.projects.GetProject(ctx, req.ProjectID)
	if err != nil {
		return SubmitResult{State: guard.StateFailed}, fmt.Errorf("load project: %w", err)
	}
	existing, err := s.payments.ListPaymentsByProject(ctx, req.ProjectID)
	if err != nil {
		return SubmitResult{State: guard.StateFailed}, fmt.Errorf("load project payments: %w", err)
	}

	sub := guard.NewSubmission(guard.Draft{
		PaymentID: req.PaymentID,
		ProjectID: req.ProjectID,
		Amount:    req.Amount,
		Type:      req.Type,
		Reason:    req.Reason,
	})
	state, err := sub.Submit(project, existing)
	if err != nil {
		return SubmitResult{State: state}, fmt.Errorf("guard submission: %w", err)
	}

	if state == guard.StateAwaitingJustification {
		check := sub.Check()
		slog.InfoContext(ctx, "Payout held for justification",
			"project_id", project.ID,
			"amount_cents", req.Amount.Cents,
			"excess_cents", check.Excess.Cents)
		return SubmitResult{
			State: state,
			Check: check,
			Notifications: []ports.Notification{{
				Severity: ports.SeverityWarning,
				Message: fmt.Sprintf("Payout exceeds the developer budget by %s. Add a reason to proceed.",
					core.FormatCurrency(check.Excess)),
			}},
		}, nil
	}

	editing := payment.ID != ""
	if !editing {
		payment.ID = uuid.NewString()
	}

	activity := paymentActivity(payment, project, editing, now)
	if err := s.payments.CommitPayment(ctx, payment, activity); err != nil {
		return SubmitResult{State: guard.StateFailed}, fmt.Errorf("commit payment: %w", err)
	}

	s.refresh(ctx)
	s.publish(ctx, payment.ID)

	notifications := []ports.Notification{{
		Severity: ports.SeveritySuccess,
		Message:  fmt.Sprintf("Payment of %s recorded.", core.FormatCurrency(payment.Amount)),
	}}
	if sub.Check().Exceeded() {
		notifications = append(notifications, ports.Notification{
			Severity: ports.SeverityWarning,
			Message:  "Developer budget exceeded; reason recorded.",
		})
	}

	slog.InfoContext(ctx, "Payment committed",
		"id", payment.ID,
		"project_id", payment.ProjectID,
		"type", string(payment.Type),
		"amount_cents", payment.Amount.Cents,
		"over_budget", sub.Check().Exceeded())

	return SubmitResult{
		State:         state,
		PaymentID:     payment.ID,
		Check:         sub.Check(),
		Notifications: notifications,
	}, nil
}

// DeletePayment removes a payment and logs the deletion.
func (s *PaymentService) DeletePayment(ctx context.Context, id string) error {
	payment, err := s.payments.GetPayment(ctx, id)
	if err != nil {
		return fmt.Errorf("load payment: %w", err)
	}
	if err := s.payments.DeletePayment(ctx, id); err != nil {
		return fmt.Errorf("delete payment: %w", err)
	}

	activity := core.Activity{
		ID:          uuid.NewString(),
		Action:      "payment-deleted",
		Description: fmt.Sprintf("Deleted %s of %s", payment.Type, core.FormatCurrency(payment.Amount)),
		Timestamp:   time.Now(),
	}
	if appender, ok := s.payments.(ports.ActivityStore); ok {
		if err := appender.AppendActivity(ctx, activity); err != nil {
			slog.WarnContext(ctx, "Failed to log payment deletion", "id", id, "error", err)
		}
	}

	s.refresh(ctx)
	return nil
}

func (s *PaymentService) refresh(ctx context.Context) {
	if s.hub == nil {
		return
	}
	if err := s.hub.Refresh(ctx); err != nil {
		slog.WarnContext(ctx, "Failed to refresh board snapshot", "error", err)
	}
}

func (s *PaymentService) publish(ctx context.Context, paymentID string) {
	if s.publisher == nil {
		slog.WarnContext(ctx, "Publisher not available, export deferred to reconcile", "id", paymentID)
		return
	}
	if err := s.publisher.PublishPaymentRecorded(ctx, paymentID); err != nil {
		// payment is committed locally; the reconcile loop exports it later
		slog.ErrorContext(ctx, "Failed to publish export message", "id", paymentID, "error", err)
	}
}

func paymentActivity(p core.Payment, project core.Project, editing bool, now time.Time) core.Activity {
	action := "payment-recorded"
	verb := "Recorded"
	if editing {
		action = "payment-updated"
		verb = "Updated"
	}
	description := fmt.Sprintf("%s %s of %s for %s", verb, p.Type, core.FormatCurrency(p.Amount), project.Name)
	if p.Reason != "" {
		description += " (over budget)"
	}
	return core.Activity{
		ID:          uuid.NewString(),
		Action:      action,
		Description: description,
		Timestamp:   now,
	}
}
