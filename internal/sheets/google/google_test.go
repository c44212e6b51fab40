package google

import (
	"context"
	"testing"
	"time"

	"opsdeck/internal/core"
)

func TestNewClientValidation(t *testing.T) {
	ctx := context.Background()

	if _, err := NewClient(ctx, Config{}); err == nil {
		t.Error("NewClient without spreadsheet id should fail")
	}
	if _, err := NewClient(ctx, Config{SpreadsheetID: "sheet-1"}); err == nil {
		t.Error("NewClient without credentials should fail")
	}
}

func TestAppendPaymentRejectsInvalid(t *testing.T) {
	c := &Client{spreadsheetID: "sheet-1", sheetName: "Ledger"}

	_, err := c.AppendPayment(context.Background(), core.Payment{})
	if err == nil {
		t.Error("AppendPayment with empty payment should fail validation")
	}
}

func TestPaymentRow(t *testing.T) {
	p := core.Payment{
		ID:          "pay-1",
		ProjectID:   "proj-1",
		Amount:      core.Money{Cents: 1250050},
		Type:        core.DeveloperPayout,
		RecipientID: "emp-1",
		PaidBy:      "Sudarsanan",
		Description: "sprint payout",
		PaidAt:      time.Date(2026, time.March, 5, 10, 0, 0, 0, time.UTC),
	}

	row := paymentRow(p)

	if len(row) != 8 {
		t.Fatalf("row has %d columns, want 8", len(row))
	}
	if row[0] != "05/03/2026" {
		t.Errorf("date column = %v", row[0])
	}
	if row[4] != 12500.50 {
		t.Errorf("amount column = %v, want 12500.50", row[4])
	}
	if row[7] != "sprint payout" {
		t.Errorf("description column = %v", row[7])
	}

	p.Reason = "client approved overrun"
	row = paymentRow(p)
	if row[7] != "sprint payout [over budget: client approved overrun]" {
		t.Errorf("description with reason = %v", row[7])
	}
}
