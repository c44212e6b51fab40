package worker

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"opsdeck/internal/amqp"
	"opsdeck/internal/core"
	"opsdeck/internal/services"
	"opsdeck/internal/storage"
)

type recordingExporter struct {
	ids chan string
}

func (r *recordingExporter) AppendPayment(_ context.Context, p core.Payment) (string, error) {
	r.ids <- p.ID
	return "Ledger!A2:H2", nil
}

type fakeConsumer struct {
	messages []*amqp.PaymentExportMessage
}

func (f *fakeConsumer) ConsumePaymentExport(ctx context.Context, handler func(*amqp.PaymentExportMessage) error) error {
	for _, msg := range f.messages {
		if err := handler(msg); err != nil {
			return err
		}
	}
	<-ctx.Done()
	return ctx.Err()
}

func seedPending(t *testing.T, repo *storage.SQLiteRepository) core.Payment {
	t.Helper()
	ctx := context.Background()
	project := core.Project{
		ID:        uuid.NewString(),
		Name:      "Retail POS",
		TotalCost: core.Money{Cents: 5000000},
		Status:    core.StatusActive,
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}
	if err := repo.CreateProject(ctx, project); err != nil {
		t.Fatalf("CreateProject: %v", err)
	}
	payment := core.Payment{
		ID:          uuid.NewString(),
		ProjectID:   project.ID,
		Amount:      core.Money{Cents: 250000},
		Type:        core.ClientPayment,
		PaidBy:      "Sudarsanan",
		Description: "Advance",
		PaidAt:      time.Now().UTC().Truncate(time.Second),
	}
	activity := core.Activity{ID: uuid.NewString(), Action: "payment-recorded", Timestamp: time.Now()}
	if err := repo.CommitPayment(ctx, payment, activity); err != nil {
		t.Fatalf("CommitPayment: %v", err)
	}
	return payment
}

func TestRunDrainsBacklogOnStartup(t *testing.T) {
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	payment := seedPending(t, repo)

	exporter := &recordingExporter{ids: make(chan string, 4)}
	proc := services.NewExportProcessor(repo, repo, exporter, 10)
	w := NewExportWorker(proc, nil, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	select {
	case id := <-exporter.ids:
		if id != payment.ID {
			t.Errorf("exported %s, want %s", id, payment.ID)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("startup drain never exported the pending payment")
	}

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Run returned %v, want context.Canceled", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}

func TestRunHandlesConsumedMessages(t *testing.T) {
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	payment := seedPending(t, repo)

	// Close the row out first so the startup drain has nothing to do
	// and the consumer delivery is the only export path left.
	ctx := context.Background()
	if err := repo.MarkExported(ctx, payment.ID, "", time.Now()); err != nil {
		t.Fatalf("MarkExported: %v", err)
	}

	exporter := &recordingExporter{ids: make(chan string, 4)}
	proc := services.NewExportProcessor(repo, repo, exporter, 10)
	consumer := &fakeConsumer{messages: []*amqp.PaymentExportMessage{amqp.NewPaymentExportMessage(payment.ID)}}
	w := NewExportWorker(proc, consumer, time.Hour)

	runCtx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- w.Run(runCtx) }()

	select {
	case id := <-exporter.ids:
		if id != payment.ID {
			t.Errorf("exported %s, want %s", id, payment.ID)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("consumer delivery never exported the payment")
	}

	cancel()
	<-done
}
