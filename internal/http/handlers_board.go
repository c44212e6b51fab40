package http

import (
	"log/slog"
	"net/http"
	"time"

	"opsdeck/internal/core"
	"opsdeck/internal/ports"
)

type noticePayload struct {
	Text   string `json:"text"`
	Active *bool  `json:"active"`
}

type taskPayload struct {
	Title    string    `json:"title"`
	Column   string    `json:"column"`
	Priority string    `json:"priority"`
	DueDate  dateField `json:"dueDate"`
}

func (p taskPayload) toTask(id string) core.Task {
	priority := core.TaskPriority(p.Priority)
	if p.Priority == "" {
		priority = core.PriorityMedium
	}
	return core.Task{
		ID:       id,
		Title:    sanitizeInput(p.Title),
		Column:   sanitizeInput(p.Column),
		Priority: priority,
		DueDate:  p.DueDate.Time,
	}
}

type taskView struct {
	core.Task
	Overdue bool `json:"overdue"`
}

type boardColumn struct {
	Name  string     `json:"name"`
	Tasks []taskView `json:"tasks"`
}

// handleBoard returns the kanban columns: one per configured founder
// plus the terminal Completed column.
func (s *Server) handleBoard(w http.ResponseWriter, r *http.Request) {
	board, err := s.hub.Current(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Board read failed", "error", err)
		InternalServerError("Could not load board").Write(w)
		return
	}

	now := time.Now()
	columns := make([]boardColumn, 0, len(s.founders)+1)
	for _, name := range append(append([]string{}, s.founders...), core.ColumnCompleted) {
		col := boardColumn{Name: name, Tasks: []taskView{}}
		for _, t := range board.Tasks {
			if t.Column == name {
				col.Tasks = append(col.Tasks, taskView{Task: t, Overdue: t.Overdue(now)})
			}
		}
		columns = append(columns, col)
	}
	NewResponse().Data(columns).Write(w)
}

func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	var payload taskPayload
	if err := decodeJSON(w, r, &payload); err != nil {
		BadRequestError("Invalid task payload").Write(w)
		return
	}
	created, err := s.registry.CreateTask(r.Context(), payload.toTask(""))
	if err != nil {
		ErrorResponse(statusForError(err), "Could not create task: "+err.Error()).Write(w)
		return
	}
	NewResponse().
		Status(http.StatusCreated).
		Data(created).
		Notify(ports.SeveritySuccess, "Task created.").
		Trigger("board:changed", struct{}{}).
		Write(w)
}

func (s *Server) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	var payload taskPayload
	if err := decodeJSON(w, r, &payload); err != nil {
		BadRequestError("Invalid task payload").Write(w)
		return
	}
	task := payload.toTask(r.PathValue("id"))
	if err := s.registry.UpdateTask(r.Context(), task); err != nil {
		ErrorResponse(statusForError(err), "Could not update task: "+err.Error()).Write(w)
		return
	}
	NewResponse().
		Data(task).
		Notify(ports.SeveritySuccess, "Task updated.").
		Trigger("board:changed", struct{}{}).
		Write(w)
}

func (s *Server) handleMoveTask(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Column string `json:"column"`
	}
	if err := decodeJSON(w, r, &payload); err != nil {
		BadRequestError("Invalid move payload").Write(w)
		return
	}
	moved, err := s.registry.MoveTask(r.Context(), r.PathValue("id"), sanitizeInput(payload.Column))
	if err != nil {
		ErrorResponse(statusForError(err), "Could not move task").Write(w)
		return
	}
	NewResponse().
		Data(moved).
		Trigger("board:changed", struct{}{}).
		Write(w)
}

func (s *Server) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	if !confirmRequested(r) {
		BadRequestError("Deleting a task requires confirm=true").Write(w)
		return
	}
	if err := s.registry.DeleteTask(r.Context(), r.PathValue("id")); err != nil {
		ErrorResponse(statusForError(err), "Could not delete task").Write(w)
		return
	}
	NewResponse().
		Notify(ports.SeveritySuccess, "Task deleted.").
		Trigger("board:changed", struct{}{}).
		Write(w)
}

// handleListNotices returns only the active notices.
func (s *Server) handleListNotices(w http.ResponseWriter, r *http.Request) {
	board, err := s.hub.Current(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Notice list failed", "error", err)
		InternalServerError("Could not load notices").Write(w)
		return
	}
	active := make([]core.Notice, 0, len(board.Notices))
	for _, n := range board.Notices {
		if n.Active {
			active = append(active, n)
		}
	}
	NewResponse().Data(active).Write(w)
}

func (s *Server) handleCreateNotice(w http.ResponseWriter, r *http.Request) {
	var payload noticePayload
	if err := decodeJSON(w, r, &payload); err != nil {
		BadRequestError("Invalid notice payload").Write(w)
		return
	}
	created, err := s.registry.CreateNotice(r.Context(), core.Notice{Text: sanitizeInput(payload.Text)})
	if err != nil {
		ErrorResponse(statusForError(err), "Could not post notice: "+err.Error()).Write(w)
		return
	}
	NewResponse().
		Status(http.StatusCreated).
		Data(created).
		Notify(ports.SeveritySuccess, "Notice posted.").
		Write(w)
}

func (s *Server) handleUpdateNotice(w http.ResponseWriter, r *http.Request) {
	var payload noticePayload
	if err := decodeJSON(w, r, &payload); err != nil {
		BadRequestError("Invalid notice payload").Write(w)
		return
	}
	notice := core.Notice{
		ID:     r.PathValue("id"),
		Text:   sanitizeInput(payload.Text),
		Active: payload.Active == nil || *payload.Active,
	}
	if err := s.registry.UpdateNotice(r.Context(), notice); err != nil {
		ErrorResponse(statusForError(err), "Could not update notice: "+err.Error()).Write(w)
		return
	}
	NewResponse().
		Data(notice).
		Notify(ports.SeveritySuccess, "Notice updated.").
		Write(w)
}

func (s *Server) handleDeleteNotice(w http.ResponseWriter, r *http.Request) {
	if !confirmRequested(r) {
		BadRequestError("Removing a notice requires confirm=true").Write(w)
		return
	}
	if err := s.registry.DeleteNotice(r.Context(), r.PathValue("id")); err != nil {
		ErrorResponse(statusForError(err), "Could not remove notice").Write(w)
		return
	}
	NewResponse().Notify(ports.SeveritySuccess, "Notice removed.").Write(w)
}
