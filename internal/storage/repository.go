package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"opsdeck/internal/core"
	"opsdeck/internal/snapshot"

	_ "modernc.org/sqlite"
)

// Export lifecycle of a payment row.
const (
	ExportPending = "pending"
	ExportDone    = "exported"
	ExportError   = "error"
)

var ErrNotFound = errors.New("record not found")

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	// Run migrations
	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// LoadBoard implements snapshot.Loader.
func (r *SQLiteRepository) LoadBoard(ctx context.Context) (snapshot.Board, error) {
	var board snapshot.Board
	var err error

	if board.Projects, err = r.ListProjects(ctx); err != nil {
		return board, err
	}
	if board.Payments, err = r.ListPayments(ctx); err != nil {
		return board, err
	}
	if board.Employees, err = r.ListEmployees(ctx); err != nil {
		return board, err
	}
	if board.Clients, err = r.ListClients(ctx); err != nil {
		return board, err
	}
	if board.Notices, err = r.ListNotices(ctx); err != nil {
		return board, err
	}
	if board.Tasks, err = r.ListTasks(ctx); err != nil {
		return board, err
	}
	if board.Activity, err = r.ListRecentActivity(ctx, 5); err != nil {
		return board, err
	}
	return board, nil
}

// --- projects ---

func (r *SQLiteRepository) CreateProject(ctx context.Context, p core.Project) error {
	employees, err := json.Marshal(p.Employees)
	if err != nil {
		return fmt.Errorf("encode project employees: %w", err)
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO projects (id, name, total_cost_cents, developer_cost_cents, status, progress, employees, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.TotalCost.Cents, p.DeveloperCost.Cents, string(p.Status), p.Progress, string(employees), p.CreatedAt.Unix())
	if err != nil {
		return fmt.Errorf("create project: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) UpdateProject(ctx context.Context, p core.Project) error {
	employees, err := json.Marshal(p.Employees)
	if err != nil {
		return fmt.Errorf("encode project employees: %w", err)
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE projects SET name = ?, total_cost_cents = ?, developer_cost_cents = ?, status = ?, progress = ?, employees = ?
		 WHERE id = ?`,
		p.Name, p.TotalCost.Cents, p.DeveloperCost.Cents, string(p.Status), p.Progress, string(employees), p.ID)
	if err != nil {
		return fmt.Errorf("update project: %w", err)
	}
	return requireRow(res, "project", p.ID)
}

func (r *SQLiteRepository) DeleteProject(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	return requireRow(res, "project", id)
}

func (r *SQLiteRepository) GetProject(ctx context.Context, id string) (core.Project, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, name, total_cost_cents, developer_cost_cents, status, progress, employees, created_at
		 FROM projects WHERE id = ?`, id)
	p, err := scanProject(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Project{}, fmt.Errorf("project %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return core.Project{}, fmt.Errorf("get project: %w", err)
	}
	return p, nil
}

func (r *SQLiteRepository) ListProjects(ctx context.Context) ([]core.Project, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, total_cost_cents, developer_cost_cents, status, progress, employees, created_at
		 FROM projects ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var projects []core.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProject(row rowScanner) (core.Project, error) {
	var p core.Project
	var totalCost, developerCost sql.NullInt64
	var status, employees string
	var createdAt int64
	if err := row.Scan(&p.ID, &p.Name, &totalCost, &developerCost, &status, &p.Progress, &employees, &createdAt); err != nil {
		return p, err
	}
	// malformed numeric fields read as zero, never as an error
	p.TotalCost = core.Money{Cents: totalCost.Int64}
	p.DeveloperCost = core.Money{Cents: developerCost.Int64}
	p.Status = core.ProjectStatus(status)
	p.CreatedAt = time.Unix(createdAt, 0).UTC()
	if employees != "" {
		if err := json.Unmarshal([]byte(employees), &p.Employees); err != nil {
			p.Employees = nil
		}
	}
	return p, nil
}

// --- payments ---

// CommitPayment writes the payment and its activity entry in one
// transaction. An existing id is overwritten in place and re-queued
// for export.
func (r *SQLiteRepository) CommitPayment(ctx context.Context, p core.Payment, activity core.Activity) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin payment tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO payments (id, project_id, amount_cents, type, recipient_id, paid_by, description, reason, paid_at, export_state)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   project_id = excluded.project_id,
		   amount_cents = excluded.amount_cents,
		   type = excluded.type,
		   recipient_id = excluded.recipient_id,
		   paid_by = excluded.paid_by,
		   description = excluded.description,
		   reason = excluded.reason,
		   paid_at = excluded.paid_at,
		   export_state = excluded.export_state`,
		p.ID, p.ProjectID, p.Amount.Cents, string(p.Type), p.RecipientID, p.PaidBy, p.Description, p.Reason, p.PaidAt.Unix(), ExportPending)
	if err != nil {
		return fmt.Errorf("upsert payment: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO activity_log (id, action, description, timestamp) VALUES (?, ?, ?, ?)`,
		activity.ID, activity.Action, activity.Description, activity.Timestamp.Unix())
	if err != nil {
		return fmt.Errorf("append payment activity: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit payment tx: %w", err)
	}

	slog.InfoContext(ctx, "Payment saved to SQLite",
		"id", p.ID,
		"project_id", p.ProjectID,
		"type", string(p.Type),
		"amount_cents", p.Amount.Cents)
	return nil
}

func (r *SQLiteRepository) DeletePayment(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM payments WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete payment: %w", err)
	}
	return requireRow(res, "payment", id)
}

func (r *SQLiteRepository) GetPayment(ctx context.Context, id string) (core.Payment, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, project_id, amount_cents, type, recipient_id, paid_by, description, reason, paid_at
		 FROM payments WHERE id = ?`, id)
	p, err := scanPayment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Payment{}, fmt.Errorf("payment %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return core.Payment{}, fmt.Errorf("get payment: %w", err)
	}
	return p, nil
}

func (r *SQLiteRepository) ListPayments(ctx context.Context) ([]core.Payment, error) {
	return r.queryPayments(ctx,
		`SELECT id, project_id, amount_cents, type, recipient_id, paid_by, description, reason, paid_at
		 FROM payments ORDER BY paid_at DESC`)
}

func (r *SQLiteRepository) ListPaymentsByProject(ctx context.Context, projectID string) ([]core.Payment, error) {
	return r.queryPayments(ctx,
		`SELECT id, project_id, amount_cents, type, recipient_id, paid_by, description, reason, paid_at
		 FROM payments WHERE project_id = ? ORDER BY paid_at DESC`, projectID)
}

func (r *SQLiteRepository) queryPayments(ctx context.Context, query string, args ...any) ([]core.Payment, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	defer rows.Close()

	var payments []core.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

func scanPayment(row rowScanner) (core.Payment, error) {
	var p core.Payment
	var amount sql.NullInt64
	var typ string
	var paidAt int64
	if err := row.Scan(&p.ID, &p.ProjectID, &amount, &typ, &p.RecipientID, &p.PaidBy, &p.Description, &p.Reason, &paidAt); err != nil {
		return p, err
	}
	p.Amount = core.Money{Cents: amount.Int64}
	p.Type = core.PaymentType(typ)
	p.PaidAt = time.Unix(paidAt, 0).UTC()
	return p, nil
}

// --- export queue ---

func (r *SQLiteRepository) ListPendingExport(ctx context.Context, limit int) ([]core.Payment, error) {
	return r.queryPayments(ctx,
		`SELECT id, project_id, amount_cents, type, recipient_id, paid_by, description, reason, paid_at
		 FROM payments WHERE export_state = ? ORDER BY paid_at LIMIT ?`, ExportPending, limit)
}

func (r *SQLiteRepository) MarkExported(ctx context.Context, paymentID string, ref string, at time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE payments SET export_state = ?, export_ref = ?, exported_at = ?, export_error = '' WHERE id = ?`,
		ExportDone, ref, at.Unix(), paymentID)
	if err != nil {
		return fmt.Errorf("mark payment exported: %w", err)
	}
	if err := requireRow(res, "payment", paymentID); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Payment marked as exported", "id", paymentID, "ref", ref)
	return nil
}

func (r *SQLiteRepository) MarkExportError(ctx context.Context, paymentID string, exportErr error) error {
	msg := ""
	if exportErr != nil {
		msg = exportErr.Error()
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE payments SET export_state = ?, export_error = ? WHERE id = ?`,
		ExportError, msg, paymentID)
	if err != nil {
		return fmt.Errorf("mark payment export error: %w", err)
	}
	if err := requireRow(res, "payment", paymentID); err != nil {
		return err
	}
	slog.WarnContext(ctx, "Payment marked with export error", "id", paymentID, "error", msg)
	return nil
}

// --- employees ---

func (r *SQLiteRepository) CreateEmployee(ctx context.Context, e core.Employee) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO employees (id, name, role, salary_cents, created_at) VALUES (?, ?, ?, ?, ?)`,
		e.ID, e.Name, e.Role, e.Salary.Cents, e.CreatedAt.Unix())
	if err != nil {
		return fmt.Errorf("create employee: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) UpdateEmployee(ctx context.Context, e core.Employee) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE employees SET name = ?, role = ?, salary_cents = ? WHERE id = ?`,
		e.Name, e.Role, e.Salary.Cents, e.ID)
	if err != nil {
		return fmt.Errorf("update employee: %w", err)
	}
	return requireRow(res, "employee", e.ID)
}

func (r *SQLiteRepository) DeleteEmployee(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM employees WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete employee: %w", err)
	}
	return requireRow(res, "employee", id)
}

func (r *SQLiteRepository) GetEmployee(ctx context.Context, id string) (core.Employee, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, name, role, salary_cents, created_at FROM employees WHERE id = ?`, id)
	e, err := scanEmployee(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Employee{}, fmt.Errorf("employee %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return core.Employee{}, fmt.Errorf("get employee: %w", err)
	}
	return e, nil
}

func (r *SQLiteRepository) ListEmployees(ctx context.Context) ([]core.Employee, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, role, salary_cents, created_at FROM employees ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list employees: %w", err)
	}
	defer rows.Close()

	var employees []core.Employee
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, fmt.Errorf("scan employee: %w", err)
		}
		employees = append(employees, e)
	}
	return employees, rows.Err()
}

func scanEmployee(row rowScanner) (core.Employee, error) {
	var e core.Employee
	var salary sql.NullInt64
	var createdAt int64
	if err := row.Scan(&e.ID, &e.Name, &e.Role, &salary, &createdAt); err != nil {
		return e, err
	}
	e.Salary = core.Money{Cents: salary.Int64}
	e.CreatedAt = time.Unix(createdAt, 0).UTC()
	return e, nil
}

// --- clients ---

func (r *SQLiteRepository) CreateClient(ctx context.Context, c core.Client) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO clients (id, name, company, contact, lat, lng, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.Name, c.Company, c.Contact, c.Lat, c.Lng, c.CreatedAt.Unix())
	if err != nil {
		return fmt.Errorf("create client: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) UpdateClient(ctx context.Context, c core.Client) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE clients SET name = ?, company = ?, contact = ?, lat = ?, lng = ? WHERE id = ?`,
		c.Name, c.Company, c.Contact, c.Lat, c.Lng, c.ID)
	if err != nil {
		return fmt.Errorf("update client: %w", err)
	}
	return requireRow(res, "client", c.ID)
}

func (r *SQLiteRepository) DeleteClient(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM clients WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete client: %w", err)
	}
	return requireRow(res, "client", id)
}

func (r *SQLiteRepository) ListClients(ctx context.Context) ([]core.Client, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, company, contact, lat, lng, created_at FROM clients ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}
	defer rows.Close()

	var clients []core.Client
	for rows.Next() {
		var c core.Client
		var createdAt int64
		if err := rows.Scan(&c.ID, &c.Name, &c.Company, &c.Contact, &c.Lat, &c.Lng, &createdAt); err != nil {
			return nil, fmt.Errorf("scan client: %w", err)
		}
		c.CreatedAt = time.Unix(createdAt, 0).UTC()
		clients = append(clients, c)
	}
	return clients, rows.Err()
}

// --- notices ---

func (r *SQLiteRepository) CreateNotice(ctx context.Context, n core.Notice) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO notices (id, text, active, created_at) VALUES (?, ?, ?, ?)`,
		n.ID, n.Text, boolToInt(n.Active), n.CreatedAt.Unix())
	if err != nil {
		return fmt.Errorf("create notice: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) UpdateNotice(ctx context.Context, n core.Notice) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE notices SET text = ?, active = ? WHERE id = ?`,
		n.Text, boolToInt(n.Active), n.ID)
	if err != nil {
		return fmt.Errorf("update notice: %w", err)
	}
	return requireRow(res, "notice", n.ID)
}

func (r *SQLiteRepository) DeleteNotice(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM notices WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete notice: %w", err)
	}
	return requireRow(res, "notice", id)
}

func (r *SQLiteRepository) ListNotices(ctx context.Context) ([]core.Notice, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, text, active, created_at FROM notices ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list notices: %w", err)
	}
	defer rows.Close()

	var notices []core.Notice
	for rows.Next() {
		var n core.Notice
		var active int
		var createdAt int64
		if err := rows.Scan(&n.ID, &n.Text, &active, &createdAt); err != nil {
			return nil, fmt.Errorf("scan notice: %w", err)
		}
		n.Active = active != 0
		n.CreatedAt = time.Unix(createdAt, 0).UTC()
		notices = append(notices, n)
	}
	return notices, rows.Err()
}

// --- tasks ---

func (r *SQLiteRepository) CreateTask(ctx context.Context, t core.Task) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO tasks (id, title, column_name, priority, due_date, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Title, t.Column, string(t.Priority), unixOrNil(t.DueDate), t.CreatedAt.Unix(), t.UpdatedAt.Unix())
	if err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) UpdateTask(ctx context.Context, t core.Task) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE tasks SET title = ?, column_name = ?, priority = ?, due_date = ?, updated_at = ? WHERE id = ?`,
		t.Title, t.Column, string(t.Priority), unixOrNil(t.DueDate), t.UpdatedAt.Unix(), t.ID)
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	return requireRow(res, "task", t.ID)
}

func (r *SQLiteRepository) DeleteTask(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	return requireRow(res, "task", id)
}

func (r *SQLiteRepository) GetTask(ctx context.Context, id string) (core.Task, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, title, column_name, priority, due_date, created_at, updated_at FROM tasks WHERE id = ?`, id)
	t, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Task{}, fmt.Errorf("task %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return core.Task{}, fmt.Errorf("get task: %w", err)
	}
	return t, nil
}

func (r *SQLiteRepository) ListTasks(ctx context.Context) ([]core.Task, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, title, column_name, priority, due_date, created_at, updated_at FROM tasks ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []core.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func scanTask(row rowScanner) (core.Task, error) {
	var t core.Task
	var priority string
	var dueDate sql.NullInt64
	var createdAt, updatedAt int64
	if err := row.Scan(&t.ID, &t.Title, &t.Column, &priority, &dueDate, &createdAt, &updatedAt); err != nil {
		return t, err
	}
	t.Priority = core.TaskPriority(priority)
	if dueDate.Valid {
		t.DueDate = time.Unix(dueDate.Int64, 0).UTC()
	}
	t.CreatedAt = time.Unix(createdAt, 0).UTC()
	t.UpdatedAt = time.Unix(updatedAt, 0).UTC()
	return t, nil
}

// --- activity log ---

func (r *SQLiteRepository) AppendActivity(ctx context.Context, a core.Activity) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO activity_log (id, action, description, timestamp) VALUES (?, ?, ?, ?)`,
		a.ID, a.Action, a.Description, a.Timestamp.Unix())
	if err != nil {
		return fmt.Errorf("append activity: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) ListRecentActivity(ctx context.Context, limit int) ([]core.Activity, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, action, description, timestamp FROM activity_log ORDER BY timestamp DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent activity: %w", err)
	}
	defer rows.Close()

	var activity []core.Activity
	for rows.Next() {
		var a core.Activity
		var ts int64
		if err := rows.Scan(&a.ID, &a.Action, &a.Description, &ts); err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		a.Timestamp = time.Unix(ts, 0).UTC()
		activity = append(activity, a)
	}
	return activity, rows.Err()
}

func requireRow(res sql.Result, kind, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", kind, id, ErrNotFound)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func unixOrNil(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.Unix()
}
