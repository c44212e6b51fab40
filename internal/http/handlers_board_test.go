package http

import (
	"net/http"
	"testing"

	"opsdeck/internal/core"
)

func TestBoardColumns(t *testing.T) {
	s, _ := newTestServer(t)

	doJSON(t, s, http.MethodPost, "/api/tasks", map[string]any{
		"title":    "Ship invoices page",
		"column":   "Sudarsanan",
		"priority": "high",
	})
	doJSON(t, s, http.MethodPost, "/api/tasks", map[string]any{
		"title":   "Renew domain",
		"column":  "Sherhan",
		"dueDate": "2020-01-01",
	})

	var columns []boardColumn
	rec := doJSON(t, s, http.MethodGet, "/api/board", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d, body = %s", rec.Code, rec.Body.String())
	}
	decodeEnvelope(t, rec, &columns)

	if len(columns) != 3 {
		t.Fatalf("columns = %d, want founders plus Completed", len(columns))
	}
	if columns[0].Name != "Sudarsanan" || columns[1].Name != "Sherhan" || columns[2].Name != core.ColumnCompleted {
		t.Errorf("column names = %v", []string{columns[0].Name, columns[1].Name, columns[2].Name})
	}
	if len(columns[0].Tasks) != 1 || len(columns[1].Tasks) != 1 || len(columns[2].Tasks) != 0 {
		t.Errorf("task counts = %d/%d/%d", len(columns[0].Tasks), len(columns[1].Tasks), len(columns[2].Tasks))
	}
	if !columns[1].Tasks[0].Overdue {
		t.Error("past-due task not flagged overdue")
	}
	if columns[0].Tasks[0].Overdue {
		t.Error("task without due date flagged overdue")
	}
}

func TestMoveTaskEndpoint(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/api/tasks", map[string]any{
		"title":  "Ship invoices page",
		"column": "Sudarsanan",
	})
	var created core.Task
	decodeEnvelope(t, rec, &created)

	rec = doJSON(t, s, http.MethodPost, "/api/tasks/"+created.ID+"/move", map[string]string{"column": "Completed"})
	if rec.Code != http.StatusOK {
		t.Fatalf("move code = %d, body = %s", rec.Code, rec.Body.String())
	}
	var moved core.Task
	decodeEnvelope(t, rec, &moved)
	if moved.Column != core.ColumnCompleted {
		t.Errorf("column = %q, want Completed", moved.Column)
	}

	// Completed tasks are never overdue.
	var columns []boardColumn
	decodeEnvelope(t, doJSON(t, s, http.MethodGet, "/api/board", nil), &columns)
	if len(columns[2].Tasks) != 1 || columns[2].Tasks[0].Overdue {
		t.Errorf("completed column = %+v", columns[2].Tasks)
	}
}

func TestNoticesListOnlyActive(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/api/notices", map[string]string{"text": "Office closed Friday"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create code = %d", rec.Code)
	}
	var created core.Notice
	decodeEnvelope(t, rec, &created)

	doJSON(t, s, http.MethodPost, "/api/notices", map[string]string{"text": "Standup at 10"})

	// Deactivate the first notice.
	inactive := false
	rec = doJSON(t, s, http.MethodPut, "/api/notices/"+created.ID, map[string]any{
		"text":   created.Text,
		"active": &inactive,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("update code = %d, body = %s", rec.Code, rec.Body.String())
	}

	var notices []core.Notice
	decodeEnvelope(t, doJSON(t, s, http.MethodGet, "/api/notices", nil), &notices)
	if len(notices) != 1 || notices[0].Text != "Standup at 10" {
		t.Errorf("active notices = %+v, want only the standup note", notices)
	}
}

func TestDevelopersExcludeCoFounders(t *testing.T) {
	s, _ := newTestServer(t)

	doJSON(t, s, http.MethodPost, "/api/employees", map[string]any{
		"name": "Asha", "role": "Developer", "salary": "35000",
	})
	doJSON(t, s, http.MethodPost, "/api/employees", map[string]any{
		"name": "Sudarsanan", "role": "Co-Founder", "salary": "0",
	})

	var all []core.Employee
	decodeEnvelope(t, doJSON(t, s, http.MethodGet, "/api/employees", nil), &all)
	if len(all) != 2 {
		t.Fatalf("employees = %d, want 2", len(all))
	}

	var developers []core.Employee
	decodeEnvelope(t, doJSON(t, s, http.MethodGet, "/api/employees/developers", nil), &developers)
	if len(developers) != 1 || developers[0].Name != "Asha" {
		t.Errorf("developers = %+v, want only Asha", developers)
	}
}

func TestClientCRUDEndpoints(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/api/clients", map[string]any{
		"name": "Acme Traders", "company": "Acme", "contact": "acme@example.com",
		"lat": 9.93, "lng": 76.26,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create code = %d, body = %s", rec.Code, rec.Body.String())
	}
	var created core.Client
	decodeEnvelope(t, rec, &created)
	if created.Lat != 9.93 {
		t.Errorf("lat = %v, want stored as supplied", created.Lat)
	}

	rec = doJSON(t, s, http.MethodDelete, "/api/clients/"+created.ID+"?confirm=true", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete code = %d", rec.Code)
	}

	var clients []core.Client
	decodeEnvelope(t, doJSON(t, s, http.MethodGet, "/api/clients", nil), &clients)
	if len(clients) != 0 {
		t.Errorf("clients = %d, want 0", len(clients))
	}
}
