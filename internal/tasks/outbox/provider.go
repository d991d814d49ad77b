// Package outbox 将 Outbox 仓储与 Pub/Sub 发布器组装为后台 Runner，负责投递孤儿候选事件。
package outbox

import (
	outboxcfg "github.com/bionicotaku/lingo-utils/outbox/config"
	outboxpublisher "github.com/bionicotaku/lingo-utils/outbox/publisher"

	"github.com/bionicotaku/lingo-services-course/internal/repositories"
	"github.com/bionicotaku/lingo-utils/gcpubsub"
	"github.com/go-kratos/kratos/v2/log"
	"go.opentelemetry.io/otel"
	noopmetric "go.opentelemetry.io/otel/metric/noop"
)

// ProvideRunner 将共享仓储与 Pub/Sub 发布器包装为 Outbox Runner；未配置 topic 时返回 nil。
func ProvideRunner(
	repo *repositories.OutboxRepository,
	publisher gcpubsub.Publisher,
	pubCfg gcpubsub.Config,
	cfg outboxcfg.Config,
	logger log.Logger,
) *outboxpublisher.Runner {
	if repo == nil || logger == nil {
		return nil
	}
	helper := log.NewHelper(logger)
	if pubCfg.TopicID == "" || publisher == nil {
		helper.Warn("outbox runner disabled: orphan topic not configured")
		return nil
	}

	publisherCfg := cfg.Normalize().Publisher

	meterProvider := otel.GetMeterProvider()
	if !enabled(publisherCfg.MetricsEnabled) {
		meterProvider = noopmetric.NewMeterProvider()
	}
	if enabled(publisherCfg.LoggingEnabled) {
		helper.Infof("init outbox runner: topic=%s batch_size=%d workers=%d tick_interval=%s",
			pubCfg.TopicID, publisherCfg.BatchSize, publisherCfg.Workers, publisherCfg.TickInterval)
	}

	runner, err := outboxpublisher.NewRunner(outboxpublisher.RunnerParams{
		Store:     repo.Shared(),
		Publisher: publisher,
		Config:    publisherCfg,
		Logger:    logger,
		Meter:     meterProvider.Meter("lingo-services-course.outbox"),
	})
	if err != nil {
		helper.Errorw("msg", "init outbox runner failed", "error", err)
		return nil
	}
	return runner
}

func enabled(ptr *bool) bool {
	return ptr == nil || *ptr
}
