package services

import (
	"context"
	"fmt"
	"time"

	"github.com/bionicotaku/lingo-services-course/internal/models/events"
	"github.com/bionicotaku/lingo-services-course/internal/repositories"

	"github.com/go-kratos/kratos/v2/log"
)

// OutboxOrphanReporter 将孤儿候选写入 Outbox，由发布器投递到对账通道。
type OutboxOrphanReporter struct {
	outbox OutboxWriter
	log    *log.Helper
}

// NewOutboxOrphanReporter 构造基于 Outbox 的上报器。
func NewOutboxOrphanReporter(outbox OutboxWriter, logger log.Logger) *OutboxOrphanReporter {
	return &OutboxOrphanReporter{outbox: outbox, log: log.NewHelper(logger)}
}

// Report 在连接池上直接写入事件，不依附调用方事务。
func (r *OutboxOrphanReporter) Report(ctx context.Context, candidate events.OrphanCandidate) error {
	if r == nil || r.outbox == nil {
		return fmt.Errorf("orphan reporter: outbox not configured")
	}
	payload, err := events.EncodeOrphanCandidate(candidate)
	if err != nil {
		return fmt.Errorf("encode orphan candidate: %w", err)
	}
	msg := repositories.OutboxMessage{
		EventID:       candidate.EventID,
		AggregateType: events.OrphanAggregateType,
		AggregateID:   candidate.AggregateID(),
		EventType:     events.OrphanDetectedEventType,
		Payload:       payload,
		Headers:       events.BuildAttributes(candidate, events.TraceIDFromContext(ctx)),
		AvailableAt:   time.Now().UTC(),
	}
	if err := r.outbox.Enqueue(ctx, nil, msg); err != nil {
		return fmt.Errorf("enqueue orphan candidate: %w", err)
	}
	r.log.WithContext(ctx).Infof("orphan candidate enqueued: event_id=%s kind=%s operation=%s",
		candidate.EventID, candidate.Kind, candidate.Operation)
	return nil
}
