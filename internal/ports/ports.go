// Package ports declares the interfaces the service layer depends on.
// Storage, messaging and export adapters implement them.
package ports

import (
	"context"
	"time"

	"opsdeck/internal/core"
)

// Severity levels for operator notifications.
type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Notification is a transient message surfaced to the operator after
// an operation completes.
type Notification struct {
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
}

type (
	ProjectStore interface {
		CreateProject(ctx context.Context, p core.Project) error
		UpdateProject(ctx context.Context, p core.Project) error
		DeleteProject(ctx context.Context, id string) error
		GetProject(ctx context.Context, id string) (core.Project, error)
		ListProjects(ctx context.Context) ([]core.Project, error)
	}

	PaymentStore interface {
		// CommitPayment writes the payment and its activity entry in
		// one transaction. Edits are distinguished by an existing id.
		CommitPayment(ctx context.Context, p core.Payment, activity core.Activity) error
		DeletePayment(ctx context.Context, id string) error
		GetPayment(ctx context.Context, id string) (core.Payment, error)
		ListPayments(ctx context.Context) ([]core.Payment, error)
		ListPaymentsByProject(ctx context.Context, projectID string) ([]core.Payment, error)
	}

	EmployeeStore interface {
		CreateEmployee(ctx context.Context, e core.Employee) error
		UpdateEmployee(ctx context.Context, e core.Employee) error
		DeleteEmployee(ctx context.Context, id string) error
		GetEmployee(ctx context.Context, id string) (core.Employee, error)
		ListEmployees(ctx context.Context) ([]core.Employee, error)
	}

	ClientStore interface {
		CreateClient(ctx context.Context, c core.Client) error
		UpdateClient(ctx context.Context, c core.Client) error
		DeleteClient(ctx context.Context, id string) error
		ListClients(ctx context.Context) ([]core.Client, error)
	}

	NoticeStore interface {
		CreateNotice(ctx context.Context, n core.Notice) error
		UpdateNotice(ctx context.Context, n core.Notice) error
		DeleteNotice(ctx context.Context, id string) error
		ListNotices(ctx context.Context) ([]core.Notice, error)
	}

	TaskStore interface {
		CreateTask(ctx context.Context, t core.Task) error
		UpdateTask(ctx context.Context, t core.Task) error
		DeleteTask(ctx context.Context, id string) error
		GetTask(ctx context.Context, id string) (core.Task, error)
		ListTasks(ctx context.Context) ([]core.Task, error)
	}

	ActivityStore interface {
		AppendActivity(ctx context.Context, a core.Activity) error
		// ListRecentActivity returns the newest entries first.
		ListRecentActivity(ctx context.Context, limit int) ([]core.Activity, error)
	}

	// ExportQueue tracks which payments still need to reach the
	// external ledger.
	ExportQueue interface {
		ListPendingExport(ctx context.Context, limit int) ([]core.Payment, error)
		MarkExported(ctx context.Context, paymentID string, ref string, at time.Time) error
		MarkExportError(ctx context.Context, paymentID string, exportErr error) error
	}

	// EventPublisher hands committed payments to the export pipeline.
	// Publish failures must never fail the originating request.
	EventPublisher interface {
		PublishPaymentRecorded(ctx context.Context, paymentID string) error
	}

	// LedgerExporter appends a payment row to the external ledger.
	LedgerExporter interface {
		AppendPayment(ctx context.Context, p core.Payment) (rowRef string, err error)
	}
)
