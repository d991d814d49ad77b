package repositories

import (
	"context"
	"time"

	outboxpkg "github.com/bionicotaku/lingo-utils/outbox"
	outboxcfg "github.com/bionicotaku/lingo-utils/outbox/config"
	"github.com/bionicotaku/lingo-utils/outbox/store"
	"github.com/bionicotaku/lingo-utils/txmanager"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// OutboxMessage 描述需要写入 course.outbox_events 的事件数据。
type OutboxMessage = store.Message

// OutboxEvent 表示从数据库读取的待发布事件。
type OutboxEvent = store.Event

// OutboxRepository 复用 lingo-utils 的共享仓储，孤儿候选事件经由此表进入发布链路。
type OutboxRepository struct {
	delegate *store.Repository
	log      *log.Helper
}

// NewOutboxRepository 构建 Outbox 仓储，schema 由 messaging.outbox.schema 指定。
func NewOutboxRepository(db *pgxpool.Pool, logger log.Logger, cfg outboxcfg.Config) *OutboxRepository {
	helper := log.NewHelper(logger)
	storeRepo, err := outboxpkg.NewRepository(db, logger, outboxpkg.RepositoryOptions{Schema: cfg.Schema})
	if err != nil {
		helper.Errorw("msg", "init outbox repository failed, fallback to default schema", "schema", cfg.Schema, "error", err)
		storeRepo = store.NewRepository(db, logger)
	}
	return &OutboxRepository{delegate: storeRepo, log: helper}
}

// Enqueue 写入一条事件；sess 为 nil 时直接在连接池上执行。
func (r *OutboxRepository) Enqueue(ctx context.Context, sess txmanager.Session, msg OutboxMessage) error {
	if msg.AvailableAt.IsZero() {
		msg.AvailableAt = time.Now().UTC()
	}
	if err := r.delegate.Enqueue(ctx, sess, msg); err != nil {
		r.log.WithContext(ctx).Errorf("enqueue outbox event failed: event_id=%s type=%s err=%v", msg.EventID, msg.EventType, err)
		return err
	}
	r.log.WithContext(ctx).Debugf("outbox event enqueued: type=%s aggregate=%s", msg.EventType, msg.AggregateID)
	return nil
}

// ClaimPending 返回一批待发布的事件并加锁。
func (r *OutboxRepository) ClaimPending(ctx context.Context, availableBefore, staleBefore time.Time, limit int, lockToken string) ([]OutboxEvent, error) {
	return r.delegate.ClaimPending(ctx, availableBefore, staleBefore, limit, lockToken)
}

// MarkPublished 更新事件状态为已发布。
func (r *OutboxRepository) MarkPublished(ctx context.Context, sess txmanager.Session, eventID uuid.UUID, lockToken string, publishedAt time.Time) error {
	return r.delegate.MarkPublished(ctx, sess, eventID, lockToken, publishedAt)
}

// Reschedule 推迟事件并记录失败原因。
func (r *OutboxRepository) Reschedule(ctx context.Context, sess txmanager.Session, eventID uuid.UUID, lockToken string, nextAvailable time.Time, lastErr string) error {
	return r.delegate.Reschedule(ctx, sess, eventID, lockToken, nextAvailable, lastErr)
}

// CountPending 返回尚未发布的事件数量。
func (r *OutboxRepository) CountPending(ctx context.Context) (int64, error) {
	return r.delegate.CountPending(ctx)
}

// Shared 返回底层实现，供发布任务使用。
func (r *OutboxRepository) Shared() *store.Repository {
	return r.delegate
}
