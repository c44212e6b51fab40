package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"opsdeck/internal/core"
	"opsdeck/internal/ports"
	"opsdeck/internal/snapshot"
)

// RegistryStore is the storage surface the registry works against. The
// SQLite repository satisfies it in full.
type RegistryStore interface {
	ports.ProjectStore
	ports.EmployeeStore
	ports.ClientStore
	ports.NoticeStore
	ports.TaskStore
	ports.ActivityStore
}

// RegistryService owns CRUD for the non-payment collections. Every
// mutation appends an activity entry and refreshes the board snapshot.
type RegistryService struct {
	store RegistryStore
	hub   *snapshot.Hub
}

func NewRegistryService(store RegistryStore, hub *snapshot.Hub) *RegistryService {
	return &RegistryService{store: store, hub: hub}
}

// --- projects ---

func (s *RegistryService) CreateProject(ctx context.Context, p core.Project) (core.Project, error) {
	p.ID = uuid.NewString()
	p.CreatedAt = time.Now()
	if err := p.Validate(); err != nil {
		return core.Project{}, fmt.Errorf("validate project: %w", err)
	}
	if err := s.store.CreateProject(ctx, p); err != nil {
		return core.Project{}, err
	}
	s.logActivity(ctx, "project-created", fmt.Sprintf("Created project %s", p.Name))
	s.refresh(ctx)
	return p, nil
}

func (s *RegistryService) UpdateProject(ctx context.Context, p core.Project) error {
	if err := p.Validate(); err != nil {
		return fmt.Errorf("validate project: %w", err)
	}
	if err := s.store.UpdateProject(ctx, p); err != nil {
		return err
	}
	s.logActivity(ctx, "project-updated", fmt.Sprintf("Updated project %s", p.Name))
	s.refresh(ctx)
	return nil
}

func (s *RegistryService) DeleteProject(ctx context.Context, id string) error {
	project, err := s.store.GetProject(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.DeleteProject(ctx, id); err != nil {
		return err
	}
	s.logActivity(ctx, "project-deleted", fmt.Sprintf("Deleted project %s", project.Name))
	s.refresh(ctx)
	return nil
}

// --- employees ---

func (s *RegistryService) CreateEmployee(ctx context.Context, e core.Employee) (core.Employee, error) {
	e.ID = uuid.NewString()
	e.CreatedAt = time.Now()
	if err := e.Validate(); err != nil {
		return core.Employee{}, fmt.Errorf("validate employee: %w", err)
	}
	if err := s.store.CreateEmployee(ctx, e); err != nil {
		return core.Employee{}, err
	}
	s.logActivity(ctx, "employee-added", fmt.Sprintf("Added %s (%s)", e.Name, e.Role))
	s.refresh(ctx)
	return e, nil
}

func (s *RegistryService) UpdateEmployee(ctx context.Context, e core.Employee) error {
	if err := e.Validate(); err != nil {
		return fmt.Errorf("validate employee: %w", err)
	}
	if err := s.store.UpdateEmployee(ctx, e); err != nil {
		return err
	}
	s.logActivity(ctx, "employee-updated", fmt.Sprintf("Updated %s", e.Name))
	s.refresh(ctx)
	return nil
}

func (s *RegistryService) DeleteEmployee(ctx context.Context, id string) error {
	employee, err := s.store.GetEmployee(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.DeleteEmployee(ctx, id); err != nil {
		return err
	}
	s.logActivity(ctx, "employee-removed", fmt.Sprintf("Removed %s", employee.Name))
	s.refresh(ctx)
	return nil
}

// --- clients ---

func (s *RegistryService) CreateClient(ctx context.Context, c core.Client) (core.Client, error) {
	c.ID = uuid.NewString()
	c.CreatedAt = time.Now()
	if err := c.Validate(); err != nil {
		return core.Client{}, fmt.Errorf("validate client: %w", err)
	}
	if err := s.store.CreateClient(ctx, c); err != nil {
		return core.Client{}, err
	}
	s.logActivity(ctx, "client-added", fmt.Sprintf("Added client %s", c.Name))
	s.refresh(ctx)
	return c, nil
}

func (s *RegistryService) UpdateClient(ctx context.Context, c core.Client) error {
	if err := c.Validate(); err != nil {
		return fmt.Errorf("validate client: %w", err)
	}
	if err := s.store.UpdateClient(ctx, c); err != nil {
		return err
	}
	s.logActivity(ctx, "client-updated", fmt.Sprintf("Updated client %s", c.Name))
	s.refresh(ctx)
	return nil
}

func (s *RegistryService) DeleteClient(ctx context.Context, id string) error {
	if err := s.store.DeleteClient(ctx, id); err != nil {
		return err
	}
	s.logActivity(ctx, "client-removed", "Removed a client")
	s.refresh(ctx)
	return nil
}

// --- notices ---

func (s *RegistryService) CreateNotice(ctx context.Context, n core.Notice) (core.Notice, error) {
	n.ID = uuid.NewString()
	n.CreatedAt = time.Now()
	n.Active = true
	if err := n.Validate(); err != nil {
		return core.Notice{}, fmt.Errorf("validate notice: %w", err)
	}
	if err := s.store.CreateNotice(ctx, n); err != nil {
		return core.Notice{}, err
	}
	s.logActivity(ctx, "notice-posted", "Posted a notice")
	s.refresh(ctx)
	return n, nil
}

func (s *RegistryService) UpdateNotice(ctx context.Context, n core.Notice) error {
	if err := n.Validate(); err != nil {
		return fmt.Errorf("validate notice: %w", err)
	}
	if err := s.store.UpdateNotice(ctx, n); err != nil {
		return err
	}
	s.logActivity(ctx, "notice-updated", "Updated a notice")
	s.refresh(ctx)
	return nil
}

func (s *RegistryService) DeleteNotice(ctx context.Context, id string) error {
	if err := s.store.DeleteNotice(ctx, id); err != nil {
		return err
	}
	s.logActivity(ctx, "notice-removed", "Removed a notice")
	s.refresh(ctx)
	return nil
}

// --- tasks ---

func (s *RegistryService) CreateTask(ctx context.Context, t core.Task) (core.Task, error) {
	t.ID = uuid.NewString()
	t.CreatedAt = time.Now()
	t.UpdatedAt = t.CreatedAt
	if err := t.Validate(); err != nil {
		return core.Task{}, fmt.Errorf("validate task: %w", err)
	}
	if err := s.store.CreateTask(ctx, t); err != nil {
		return core.Task{}, err
	}
	s.logActivity(ctx, "task-created", fmt.Sprintf("Created task %q", t.Title))
	s.refresh(ctx)
	return t, nil
}

func (s *RegistryService) UpdateTask(ctx context.Context, t core.Task) error {
	t.UpdatedAt = time.Now()
	if err := t.Validate(); err != nil {
		return fmt.Errorf("validate task: %w", err)
	}
	if err := s.store.UpdateTask(ctx, t); err != nil {
		return err
	}
	s.logActivity(ctx, "task-updated", fmt.Sprintf("Updated task %q", t.Title))
	s.refresh(ctx)
	return nil
}

// MoveTask relocates a task to another kanban column.
func (s *RegistryService) MoveTask(ctx context.Context, id, column string) (core.Task, error) {
	task, err := s.store.GetTask(ctx, id)
	if err != nil {
		return core.Task{}, err
	}
	task.Column = column
	task.UpdatedAt = time.Now()
	if err := task.Validate(); err != nil {
		return core.Task{}, fmt.Errorf("validate task: %w", err)
	}
	if err := s.store.UpdateTask(ctx, task); err != nil {
		return core.Task{}, err
	}
	action := "task-moved"
	description := fmt.Sprintf("Moved task %q to %s", task.Title, column)
	if column == core.ColumnCompleted {
		action = "task-completed"
		description = fmt.Sprintf("Completed task %q", task.Title)
	}
	s.logActivity(ctx, action, description)
	s.refresh(ctx)
	return task, nil
}

func (s *RegistryService) DeleteTask(ctx context.Context, id string) error {
	task, err := s.store.GetTask(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.DeleteTask(ctx, id); err != nil {
		return err
	}
	s.logActivity(ctx, "task-deleted", fmt.Sprintf("Deleted task %q", task.Title))
	s.refresh(ctx)
	return nil
}

// RecentActivity returns the newest activity entries, newest first.
// The board snapshot only carries the feed's head; the full log view
// pages through here.
func (s *RegistryService) RecentActivity(ctx context.Context, limit int) ([]core.Activity, error) {
	return s.store.ListRecentActivity(ctx, limit)
}

func (s *RegistryService) logActivity(ctx context.Context, action, description string) {
	activity := core.Activity{
		ID:          uuid.NewString(),
		Action:      action,
		Description: description,
		Timestamp:   time.Now(),
	}
	if err := s.store.AppendActivity(ctx, activity); err != nil {
		slog.WarnContext(ctx, "Failed to append activity", "action", action, "error", err)
	}
}

func (s *RegistryService) refresh(ctx context.Context) {
	if s.hub == nil {
		return
	}
	if err := s.hub.Refresh(ctx); err != nil {
		slog.WarnContext(ctx, "Failed to refresh board snapshot", "error", err)
	}
}
