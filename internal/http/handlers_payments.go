package http

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"opsdeck/internal/core"
	"opsdeck/internal/guard"
	"opsdeck/internal/ports"
	"opsdeck/internal/services"
	"opsdeck/internal/storage"
)

type paymentPayload struct {
	ProjectID   string      `json:"projectId"`
	Amount      amountField `json:"amount"`
	Type        string      `json:"type"`
	RecipientID string      `json:"recipientId"`
	PaidBy      string      `json:"paidBy"`
	Description string      `json:"description"`
	Reason      string      `json:"reason"`
	Date        dateField   `json:"date"`
}

func (p paymentPayload) toRequest(paymentID string) services.PaymentRequest {
	return services.PaymentRequest{
		PaymentID:   paymentID,
		ProjectID:   sanitizeInput(p.ProjectID),
		Amount:      core.Money{Cents: p.Amount.Cents},
		Type:        core.PaymentType(p.Type),
		RecipientID: sanitizeInput(p.RecipientID),
		PaidBy:      sanitizeInput(p.PaidBy),
		Description: sanitizeInput(p.Description),
		Reason:      sanitizeInput(p.Reason),
		Date:        p.Date.Time,
	}
}

type submissionView struct {
	PaymentID string            `json:"paymentId,omitempty"`
	State     guard.State       `json:"state"`
	Check     guard.BudgetCheck `json:"check"`
}

func (s *Server) handleSubmitPayment(w http.ResponseWriter, r *http.Request) {
	s.submitPayment(w, r, "")
}

func (s *Server) handleEditPayment(w http.ResponseWriter, r *http.Request) {
	s.submitPayment(w, r, r.PathValue("id"))
}

func (s *Server) submitPayment(w http.ResponseWriter, r *http.Request, paymentID string) {
	var payload paymentPayload
	if err := decodeJSON(w, r, &payload); err != nil {
		BadRequestError("Invalid payment payload").Write(w)
		return
	}

	result, err := s.payments.SubmitPayment(r.Context(), payload.toRequest(paymentID))
	if err != nil {
		slog.ErrorContext(r.Context(), "Payment submission failed", "payment_id", paymentID, "error", err)
		ErrorResponse(statusForError(err), "Could not record payment: "+err.Error()).Write(w)
		return
	}

	view := submissionView{PaymentID: result.PaymentID, State: result.State, Check: result.Check}
	status := http.StatusOK
	if result.State == guard.StateAwaitingJustification {
		status = http.StatusConflict
	}
	NewResponse().
		Status(status).
		Data(view).
		Notifications(result.Notifications).
		Trigger("payments:changed", struct{}{}).
		Write(w)
}

func (s *Server) handleDeletePayment(w http.ResponseWriter, r *http.Request) {
	if !confirmRequested(r) {
		BadRequestError("Deleting a payment requires confirm=true").Write(w)
		return
	}
	id := r.PathValue("id")
	if err := s.payments.DeletePayment(r.Context(), id); err != nil {
		slog.ErrorContext(r.Context(), "Payment delete failed", "payment_id", id, "error", err)
		ErrorResponse(statusForError(err), "Could not delete payment").Write(w)
		return
	}
	NewResponse().
		Notify(ports.SeveritySuccess, "Payment deleted.").
		Trigger("payments:changed", struct{}{}).
		Write(w)
}

func (s *Server) handleListPayments(w http.ResponseWriter, r *http.Request) {
	board, err := s.hub.Current(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Payment list failed", "error", err)
		InternalServerError("Could not load payments").Write(w)
		return
	}
	filter := parsePaymentFilter(r)
	NewResponse().Data(filter.apply(board.Payments, time.Now())).Write(w)
}

// statusForError maps service errors onto HTTP status codes. Unknown
// errors read as server faults.
func statusForError(err error) int {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrInvalidAmount),
		errors.Is(err, core.ErrEmptyName),
		errors.Is(err, core.ErrEmptyDescription),
		errors.Is(err, core.ErrEmptyText),
		errors.Is(err, core.ErrMissingProject),
		errors.Is(err, core.ErrInvalidStatus),
		errors.Is(err, core.ErrInvalidType),
		errors.Is(err, core.ErrInvalidProgress),
		errors.Is(err, core.ErrInvalidPriority),
		errors.Is(err, core.ErrEmptyColumn),
		errors.Is(err, core.ErrEmptyPaidBy),
		errors.Is(err, guard.ErrMissingReason):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
