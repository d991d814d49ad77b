package gcs

import (
	"context"

	"cloud.google.com/go/storage"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/wire"
)

// ProviderSet 暴露对象存储客户端与适配器。
var ProviderSet = wire.NewSet(ProvideClient, ProvideAssetStore)

// ProvideClient 供 Wire 构造 storage.Client。
func ProvideClient(ctx context.Context, cfg Config) (*storage.Client, func(), error) {
	return NewClient(ctx, cfg)
}

// ProvideAssetStore 供 Wire 构造 AssetStore。
func ProvideAssetStore(client *storage.Client, cfg Config, logger log.Logger) (*AssetStore, error) {
	return NewAssetStore(client, cfg, logger)
}
