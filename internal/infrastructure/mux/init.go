package mux

import (
	"context"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/wire"
)

// ProviderSet 暴露视频编码客户端。
var ProviderSet = wire.NewSet(ProvideClient)

// ProvideClient 供 Wire 构造编码服务客户端。
func ProvideClient(ctx context.Context, cfg Config, logger log.Logger) (*Client, func(), error) {
	return NewClient(ctx, cfg, logger)
}
