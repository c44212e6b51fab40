// Package worker runs the ledger export loop: queue messages drive the
// fast path and a periodic reconcile sweeps up anything the queue lost.
package worker

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"opsdeck/internal/amqp"
	"opsdeck/internal/services"
)

// Consumer is the message side of the export loop. The AMQP client
// implements it; a nil consumer leaves reconciliation as the only path.
type Consumer interface {
	ConsumePaymentExport(ctx context.Context, handler func(*amqp.PaymentExportMessage) error) error
}

type ExportWorker struct {
	processor *services.ExportProcessor
	consumer  Consumer
	interval  time.Duration
}

func NewExportWorker(processor *services.ExportProcessor, consumer Consumer, interval time.Duration) *ExportWorker {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &ExportWorker{
		processor: processor,
		consumer:  consumer,
		interval:  interval,
	}
}

// Run blocks until ctx is cancelled or the consumer fails with a
// non-recoverable error. It drains the pending backlog once at startup
// before the loops begin.
func (w *ExportWorker) Run(ctx context.Context) error {
	if n, err := w.processor.ProcessPending(ctx); err != nil {
		slog.ErrorContext(ctx, "Startup export check failed", "exported", n, "error", err)
	} else if n > 0 {
		slog.InfoContext(ctx, "Startup export check drained backlog", "exported", n)
	}

	g, ctx := errgroup.WithContext(ctx)

	if w.consumer != nil {
		g.Go(func() error {
			return w.consumer.ConsumePaymentExport(ctx, func(msg *amqp.PaymentExportMessage) error {
				return w.processor.HandleMessage(ctx, msg)
			})
		})
	} else {
		slog.WarnContext(ctx, "No message consumer configured, relying on reconcile loop only")
	}

	g.Go(func() error {
		return w.reconcileLoop(ctx)
	})

	return g.Wait()
}

func (w *ExportWorker) reconcileLoop(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			n, err := w.processor.ProcessPending(ctx)
			if err != nil {
				slog.ErrorContext(ctx, "Reconcile pass failed", "exported", n, "error", err)
				continue
			}
			if n > 0 {
				slog.InfoContext(ctx, "Reconcile pass exported payments", "count", n)
			}
		}
	}
}
