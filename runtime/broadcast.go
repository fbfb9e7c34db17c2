package runtime

import (
	"context"
	"log/slog"

	"fences-bot/contract"
	"fences-bot/domain"
	"fences-bot/services"

	"github.com/google/uuid"
)

// Report summarizes one broadcast dispatch. OK requires zero failed
// recipients; successful deliveries are kept even when others fail.
type Report struct {
	ID     uuid.UUID
	OK     bool
	Failed []string
}

// Dispatcher resolves broadcast targets to delivery addresses and
// pushes the accumulated chunks through the transport. Delivery is
// fail-fast per recipient and independent across recipients.
type Dispatcher struct {
	svc       services.IDirectoryService
	transport contract.Transport
	log       *slog.Logger
}

func NewDispatcher(svc services.IDirectoryService, transport contract.Transport, log *slog.Logger) *Dispatcher {
	return &Dispatcher{svc: svc, transport: transport, log: log}
}

// Dispatch sends every chunk, in order, to each resolved recipient.
// Recipients without a known delivery address are recorded as failed
// without a delivery attempt.
func (d *Dispatcher) Dispatch(ctx context.Context, chunks []domain.Chunk, targetLabel string, all bool) Report {
	report := Report{ID: uuid.New()}

	var recipients []domain.Member
	if all {
		recipients = d.svc.Load().Members
	} else {
		member, ok := d.svc.Resolve(targetLabel)
		if !ok {
			report.Failed = append(report.Failed, targetLabel)
			return report
		}
		recipients = []domain.Member{member}
	}

	for _, recipient := range recipients {
		if !recipient.Reachable() {
			d.log.Warn("Recipient unreachable, never interacted", "dispatch", report.ID, "label", recipient.Label)
			report.Failed = append(report.Failed, recipient.Label)
			continue
		}
		if err := d.deliverAll(ctx, recipient, chunks); err != nil {
			d.log.Error("Delivery failed", "dispatch", report.ID, "label", recipient.Label, "err", err)
			report.Failed = append(report.Failed, recipient.Label)
		}
	}

	report.OK = len(report.Failed) == 0
	d.log.Info("Broadcast dispatched", "dispatch", report.ID, "recipients", len(recipients), "failed", len(report.Failed))
	return report
}

// deliverAll pushes chunks in order and stops at the first failure:
// remaining chunks to that recipient are skipped.
func (d *Dispatcher) deliverAll(ctx context.Context, recipient domain.Member, chunks []domain.Chunk) error {
	for _, chunk := range chunks {
		var err error
		switch chunk.Kind {
		case domain.ChunkAttachment:
			err = d.transport.DeliverAttachment(ctx, recipient.DeliveryAddress, chunk.FileRef, chunk.Caption)
		default:
			err = d.transport.DeliverText(ctx, recipient.DeliveryAddress, chunk.Text)
		}
		if err != nil {
			return err
		}
	}
	return nil
}
