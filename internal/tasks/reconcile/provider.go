package reconcile

import (
	"github.com/bionicotaku/lingo-services-course/internal/infrastructure/configloader"
	"github.com/bionicotaku/lingo-services-course/internal/infrastructure/gcs"
	"github.com/bionicotaku/lingo-services-course/internal/infrastructure/mux"
	"github.com/bionicotaku/lingo-services-course/internal/repositories"

	"github.com/bionicotaku/lingo-utils/gcpubsub"
	outboxcfg "github.com/bionicotaku/lingo-utils/outbox/config"
	"github.com/bionicotaku/lingo-utils/txmanager"
	"github.com/go-kratos/kratos/v2/log"
)

// ProvideRunner 装配对账 Runner；订阅未配置时返回 nil。
func ProvideRunner(
	refs *repositories.AssetReferenceRepository,
	inboxRepo *repositories.InboxRepository,
	assets *gcs.AssetStore,
	encoder *mux.Client,
	tx txmanager.Manager,
	sub configloader.ReconcileSubscriber,
	outboxCfg outboxcfg.Config,
	logger log.Logger,
) *Runner {
	realSub := gcpubsub.Subscriber(sub)
	if refs == nil || inboxRepo == nil || realSub == nil || logger == nil {
		return nil
	}

	var (
		objects objectRemover
		deleter assetDeleter
	)
	if assets != nil {
		objects = assets
	}
	if encoder != nil {
		deleter = encoder
	}

	runner, err := NewRunner(RunnerParams{
		Subscriber: realSub,
		InboxRepo:  inboxRepo,
		References: refs,
		Objects:    objects,
		Encoder:    deleter,
		TxManager:  tx,
		Logger:     logger,
		Config:     outboxCfg.Inbox,
	})
	if err != nil {
		log.NewHelper(logger).Errorw("msg", "init reconcile runner failed", "error", err)
		return nil
	}
	return runner
}
