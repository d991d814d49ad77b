package configloader

import (
	"context"

	"github.com/bionicotaku/lingo-utils/gcpubsub"
)

// ReconcileSubscriber 为对账任务专用的订阅端，避免与 gcpubsub.ProviderSet 提供的 Subscriber 冲突。
type ReconcileSubscriber gcpubsub.Subscriber

// ProvideReconcileSubscriber 基于对账订阅配置构造独立的 Pub/Sub 组件。
// 未配置 subscription 时返回 nil，由调用方跳过任务。
func ProvideReconcileSubscriber(ctx context.Context, cfg ReconcilePubSubConfig, deps gcpubsub.Dependencies) (ReconcileSubscriber, func(), error) {
	pubCfg := gcpubsub.Config(cfg)
	if pubCfg.ProjectID == "" || pubCfg.SubscriptionID == "" {
		return nil, func() {}, nil
	}
	component, cleanup, err := gcpubsub.NewComponent(ctx, pubCfg, deps)
	if err != nil {
		return nil, nil, err
	}
	return ReconcileSubscriber(gcpubsub.ProvideSubscriber(component)), cleanup, nil
}
