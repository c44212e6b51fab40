package http

import (
	"log/slog"
	"net/http"

	"opsdeck/internal/core"
	"opsdeck/internal/ports"
)

type employeePayload struct {
	Name   string      `json:"name"`
	Role   string      `json:"role"`
	Salary amountField `json:"salary"`
}

func (p employeePayload) toEmployee(id string) core.Employee {
	return core.Employee{
		ID:     id,
		Name:   sanitizeInput(p.Name),
		Role:   sanitizeInput(p.Role),
		Salary: core.Money{Cents: p.Salary.Cents},
	}
}

type clientPayload struct {
	Name    string  `json:"name"`
	Company string  `json:"company"`
	Contact string  `json:"contact"`
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
}

func (p clientPayload) toClient(id string) core.Client {
	return core.Client{
		ID:      id,
		Name:    sanitizeInput(p.Name),
		Company: sanitizeInput(p.Company),
		Contact: sanitizeInput(p.Contact),
		Lat:     p.Lat,
		Lng:     p.Lng,
	}
}

func (s *Server) handleListEmployees(w http.ResponseWriter, r *http.Request) {
	board, err := s.hub.Current(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Employee list failed", "error", err)
		InternalServerError("Could not load employees").Write(w)
		return
	}
	NewResponse().Data(board.Employees).Write(w)
}

// handleListDevelopers returns the payout recipient pool: every
// employee except co-founders.
func (s *Server) handleListDevelopers(w http.ResponseWriter, r *http.Request) {
	board, err := s.hub.Current(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Developer list failed", "error", err)
		InternalServerError("Could not load developers").Write(w)
		return
	}
	NewResponse().Data(core.PayoutRecipients(board.Employees)).Write(w)
}

func (s *Server) handleCreateEmployee(w http.ResponseWriter, r *http.Request) {
	var payload employeePayload
	if err := decodeJSON(w, r, &payload); err != nil {
		BadRequestError("Invalid employee payload").Write(w)
		return
	}
	created, err := s.registry.CreateEmployee(r.Context(), payload.toEmployee(""))
	if err != nil {
		ErrorResponse(statusForError(err), "Could not add employee: "+err.Error()).Write(w)
		return
	}
	NewResponse().
		Status(http.StatusCreated).
		Data(created).
		Notify(ports.SeveritySuccess, "Employee added.").
		Write(w)
}

func (s *Server) handleUpdateEmployee(w http.ResponseWriter, r *http.Request) {
	var payload employeePayload
	if err := decodeJSON(w, r, &payload); err != nil {
		BadRequestError("Invalid employee payload").Write(w)
		return
	}
	employee := payload.toEmployee(r.PathValue("id"))
	if err := s.registry.UpdateEmployee(r.Context(), employee); err != nil {
		ErrorResponse(statusForError(err), "Could not update employee: "+err.Error()).Write(w)
		return
	}
	NewResponse().
		Data(employee).
		Notify(ports.SeveritySuccess, "Employee updated.").
		Write(w)
}

func (s *Server) handleDeleteEmployee(w http.ResponseWriter, r *http.Request) {
	if !confirmRequested(r) {
		BadRequestError("Removing an employee requires confirm=true").Write(w)
		return
	}
	if err := s.registry.DeleteEmployee(r.Context(), r.PathValue("id")); err != nil {
		ErrorResponse(statusForError(err), "Could not remove employee").Write(w)
		return
	}
	NewResponse().Notify(ports.SeveritySuccess, "Employee removed.").Write(w)
}

func (s *Server) handleListClients(w http.ResponseWriter, r *http.Request) {
	board, err := s.hub.Current(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Client list failed", "error", err)
		InternalServerError("Could not load clients").Write(w)
		return
	}
	NewResponse().Data(board.Clients).Write(w)
}

func (s *Server) handleCreateClient(w http.ResponseWriter, r *http.Request) {
	var payload clientPayload
	if err := decodeJSON(w, r, &payload); err != nil {
		BadRequestError("Invalid client payload").Write(w)
		return
	}
	created, err := s.registry.CreateClient(r.Context(), payload.toClient(""))
	if err != nil {
		ErrorResponse(statusForError(err), "Could not add client: "+err.Error()).Write(w)
		return
	}
	NewResponse().
		Status(http.StatusCreated).
		Data(created).
		Notify(ports.SeveritySuccess, "Client added.").
		Write(w)
}

func (s *Server) handleUpdateClient(w http.ResponseWriter, r *http.Request) {
	var payload clientPayload
	if err := decodeJSON(w, r, &payload); err != nil {
		BadRequestError("Invalid client payload").Write(w)
		return
	}
	client := payload.toClient(r.PathValue("id"))
	if err := s.registry.UpdateClient(r.Context(), client); err != nil {
		ErrorResponse(statusForError(err), "Could not update client: "+err.Error()).Write(w)
		return
	}
	NewResponse().
		Data(client).
		Notify(ports.SeveritySuccess, "Client updated.").
		Write(w)
}

func (s *Server) handleDeleteClient(w http.ResponseWriter, r *http.Request) {
	if !confirmRequested(r) {
		BadRequestError("Removing a client requires confirm=true").Write(w)
		return
	}
	if err := s.registry.DeleteClient(r.Context(), r.PathValue("id")); err != nil {
		ErrorResponse(statusForError(err), "Could not remove client").Write(w)
		return
	}
	NewResponse().Notify(ports.SeveritySuccess, "Client removed.").Write(w)
}
