package http

import (
	"log/slog"
	"net/http"

	"opsdeck/internal/core"
	"opsdeck/internal/ports"
)

type projectPayload struct {
	Name          string      `json:"name"`
	TotalCost     amountField `json:"totalCost"`
	DeveloperCost amountField `json:"developerCost"`
	Status        string      `json:"status"`
	Progress      int         `json:"progress"`
	Employees     []string    `json:"employees"`
}

func (p projectPayload) toProject(id string) core.Project {
	status := core.ProjectStatus(p.Status)
	if p.Status == "" {
		status = core.StatusActive
	}
	return core.Project{
		ID:            id,
		Name:          sanitizeInput(p.Name),
		TotalCost:     core.Money{Cents: p.TotalCost.Cents},
		DeveloperCost: core.Money{Cents: p.DeveloperCost.Cents},
		Status:        status,
		Progress:      p.Progress,
		Employees:     p.Employees,
	}
}

func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	board, err := s.hub.Current(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Project list failed", "error", err)
		InternalServerError("Could not load projects").Write(w)
		return
	}
	NewResponse().Data(board.Projects).Write(w)
}

func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	var payload projectPayload
	if err := decodeJSON(w, r, &payload); err != nil {
		BadRequestError("Invalid project payload").Write(w)
		return
	}
	created, err := s.registry.CreateProject(r.Context(), payload.toProject(""))
	if err != nil {
		ErrorResponse(statusForError(err), "Could not create project: "+err.Error()).Write(w)
		return
	}
	NewResponse().
		Status(http.StatusCreated).
		Data(created).
		Notify(ports.SeveritySuccess, "Project created.").
		Trigger("projects:changed", struct{}{}).
		Write(w)
}

func (s *Server) handleUpdateProject(w http.ResponseWriter, r *http.Request) {
	var payload projectPayload
	if err := decodeJSON(w, r, &payload); err != nil {
		BadRequestError("Invalid project payload").Write(w)
		return
	}
	project := payload.toProject(r.PathValue("id"))
	if err := s.registry.UpdateProject(r.Context(), project); err != nil {
		ErrorResponse(statusForError(err), "Could not update project: "+err.Error()).Write(w)
		return
	}
	NewResponse().
		Data(project).
		Notify(ports.SeveritySuccess, "Project updated.").
		Trigger("projects:changed", struct{}{}).
		Write(w)
}

func (s *Server) handleDeleteProject(w http.ResponseWriter, r *http.Request) {
	if !confirmRequested(r) {
		BadRequestError("Deleting a project requires confirm=true").Write(w)
		return
	}
	if err := s.registry.DeleteProject(r.Context(), r.PathValue("id")); err != nil {
		ErrorResponse(statusForError(err), "Could not delete project").Write(w)
		return
	}
	NewResponse().
		Notify(ports.SeveritySuccess, "Project deleted.").
		Trigger("projects:changed", struct{}{}).
		Write(w)
}

// handleProjectFinance returns the derived financial state of one
// project.
func (s *Server) handleProjectFinance(w http.ResponseWriter, r *http.Request) {
	board, err := s.hub.Current(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Project finance read failed", "error", err)
		InternalServerError("Could not load project finance").Write(w)
		return
	}
	id := r.PathValue("id")
	for _, p := range board.Projects {
		if p.ID != id {
			continue
		}
		fin := core.FinanceFor(p, board.Payments)
		NewResponse().Data(projectFinanceView{
			ProjectID: p.ID,
			Name:      p.Name,
			Paid:      fin.Paid,
			Balance:   fin.Balance,
			Progress:  fin.Progress,
			Margin:    fin.Margin,
			Health:    fin.Health,
		}).Write(w)
		return
	}
	NotFoundError("Project not found").Write(w)
}

// handleProjectPayouts returns the cumulative payout series used for
// the per-project sparkline.
func (s *Server) handleProjectPayouts(w http.ResponseWriter, r *http.Request) {
	board, err := s.hub.Current(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Project payout read failed", "error", err)
		InternalServerError("Could not load project payouts").Write(w)
		return
	}
	NewResponse().Data(core.CumulativePayouts(board.Payments, r.PathValue("id"))).Write(w)
}

// handleProfitGrowth returns cumulative profit in project creation
// order.
func (s *Server) handleProfitGrowth(w http.ResponseWriter, r *http.Request) {
	board, err := s.hub.Current(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Profit growth read failed", "error", err)
		InternalServerError("Could not load profit growth").Write(w)
		return
	}
	NewResponse().Data(core.ProfitGrowth(board.Projects)).Write(w)
}
