package repositories

import (
	outboxpkg "github.com/bionicotaku/lingo-utils/outbox"
	outboxcfg "github.com/bionicotaku/lingo-utils/outbox/config"
	"github.com/bionicotaku/lingo-utils/outbox/store"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/jackc/pgx/v5/pgxpool"
)

// InboxRepository 维护对账任务的去重记录，记录的写入与状态流转由 inbox.Runner 负责。
type InboxRepository struct {
	delegate *store.Repository
}

// NewInboxRepository 构建 Inbox 仓储，与 Outbox 共用 schema 配置。
func NewInboxRepository(db *pgxpool.Pool, logger log.Logger, cfg outboxcfg.Config) *InboxRepository {
	storeRepo, err := outboxpkg.NewRepository(db, logger, outboxpkg.RepositoryOptions{Schema: cfg.Schema})
	if err != nil {
		log.NewHelper(logger).Errorw("msg", "init inbox repository failed", "schema", cfg.Schema, "error", err)
		storeRepo = store.NewRepository(db, logger)
	}
	return &InboxRepository{delegate: storeRepo}
}

// Shared 返回底层实现，供 inbox.Runner 使用。
func (r *InboxRepository) Shared() *store.Repository {
	return r.delegate
}
