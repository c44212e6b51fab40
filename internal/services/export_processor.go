package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"opsdeck/internal/amqp"
	"opsdeck/internal/core"
	"opsdeck/internal/ports"
	"opsdeck/internal/storage"
)

// ExportProcessor pushes committed payments into the external ledger.
// It is fed from two sides: queue messages for the fast path, and a
// periodic reconcile over rows still marked pending for everything the
// queue lost. Both paths read the current payment row, so an edit made
// after a message was published still exports the latest amounts.
type ExportProcessor struct {
	payments  ports.PaymentStore
	queue     ports.ExportQueue
	exporter  ports.LedgerExporter
	batchSize int
}

func NewExportProcessor(payments ports.PaymentStore, queue ports.ExportQueue, exporter ports.LedgerExporter, batchSize int) *ExportProcessor {
	if batchSize <= 0 {
		batchSize = 10
	}
	return &ExportProcessor{
		payments:  payments,
		queue:     queue,
		exporter:  exporter,
		batchSize: batchSize,
	}
}

// HandleMessage exports the payment named by one queue message. A
// payment that no longer exists is dropped without error, otherwise a
// failed export records the error on the row and returns it so the
// message is redelivered.
func (p *ExportProcessor) HandleMessage(ctx context.Context, msg *amqp.PaymentExportMessage) error {
	payment, err := p.payments.GetPayment(ctx, msg.ID)
	if errors.Is(err, storage.ErrNotFound) {
		slog.WarnContext(ctx, "Dropping export for deleted payment", "payment_id", msg.ID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("load payment %s: %w", msg.ID, err)
	}
	return p.export(ctx, payment)
}

// ProcessPending exports one batch of payments the queue never
// delivered. It stops at the first export failure so a broken sheet
// does not burn through the whole backlog.
func (p *ExportProcessor) ProcessPending(ctx context.Context) (int, error) {
	pending, err := p.queue.ListPendingExport(ctx, p.batchSize)
	if err != nil {
		return 0, fmt.Errorf("list pending exports: %w", err)
	}
	for i, payment := range pending {
		if err := ctx.Err(); err != nil {
			return i, err
		}
		if err := p.export(ctx, payment); err != nil {
			return i, err
		}
	}
	return len(pending), nil
}

func (p *ExportProcessor) export(ctx context.Context, payment core.Payment) error {
	now := time.Now()

	// No exporter configured: the payment stays local and the row is
	// closed out so the reconcile loop does not pick it up again.
	if p.exporter == nil {
		if err := p.queue.MarkExported(ctx, payment.ID, "", now); err != nil {
			return fmt.Errorf("mark exported locally: %w", err)
		}
		return nil
	}

	ref, err := p.exporter.AppendPayment(ctx, payment)
	if err != nil {
		if markErr := p.queue.MarkExportError(ctx, payment.ID, err); markErr != nil {
			slog.ErrorContext(ctx, "Failed to record export error",
				"payment_id", payment.ID, "error", markErr)
		}
		return fmt.Errorf("append payment %s to ledger: %w", payment.ID, err)
	}

	if err := p.queue.MarkExported(ctx, payment.ID, ref, now); err != nil {
		return fmt.Errorf("mark exported: %w", err)
	}
	slog.InfoContext(ctx, "Payment exported", "payment_id", payment.ID, "sheets_ref", ref)
	return nil
}
