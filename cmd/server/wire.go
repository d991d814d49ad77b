//go:build wireinject
// +build wireinject

// The build tag makes sure the stub is not built in the final build.

//go:generate go run github.com/google/wire/cmd/wire

package main

import (
	"context"

	"github.com/bionicotaku/lingo-services-course/internal/controllers"
	configloader "github.com/bionicotaku/lingo-services-course/internal/infrastructure/configloader"
	"github.com/bionicotaku/lingo-services-course/internal/infrastructure/gcs"
	httpserver "github.com/bionicotaku/lingo-services-course/internal/infrastructure/http_server"
	"github.com/bionicotaku/lingo-services-course/internal/infrastructure/mux"
	"github.com/bionicotaku/lingo-services-course/internal/repositories"
	"github.com/bionicotaku/lingo-services-course/internal/services"
	outboxtasks "github.com/bionicotaku/lingo-services-course/internal/tasks/outbox"
	reconciletasks "github.com/bionicotaku/lingo-services-course/internal/tasks/reconcile"

	"github.com/bionicotaku/lingo-utils/gcjwt"
	"github.com/bionicotaku/lingo-utils/gclog"
	"github.com/bionicotaku/lingo-utils/gcpubsub"
	obswire "github.com/bionicotaku/lingo-utils/observability"
	"github.com/bionicotaku/lingo-utils/pgxpoolx"
	"github.com/bionicotaku/lingo-utils/txmanager"
	"github.com/go-kratos/kratos/v2"
	"github.com/google/wire"
)

// wireApp 构建课程服务。
//
// 依赖注入顺序:
//  1. 配置加载: configloader.ProviderSet
//  2. 基础设施: gclog → observability → gcjwt → pgxpoolx → txmanager → gcpubsub
//  3. 外部资源: gcs (对象存储) / mux (视频编码)
//  4. 业务层: repositories → services → controllers
//  5. 服务器与后台任务: http_server / outbox publisher / orphan reconciler
func wireApp(context.Context, configloader.Params) (*kratos.App, func(), error) {
	panic(wire.Build(
		configloader.ProviderSet,
		gclog.ProviderSet,
		obswire.ProviderSet,
		gcjwt.ProviderSet,
		pgxpoolx.ProviderSet,
		txmanager.ProviderSet,
		gcpubsub.ProviderSet,
		gcs.ProviderSet,
		mux.ProviderSet,
		wire.Bind(new(services.AssetStore), new(*gcs.AssetStore)),
		wire.Bind(new(services.VideoEncoder), new(*mux.Client)),
		repositories.ProviderSet,
		services.ProviderSet,
		controllers.ProviderSet,
		httpserver.ProviderSet,
		outboxtasks.ProvideRunner,
		configloader.ProvideReconcileSubscriber,
		reconciletasks.ProvideRunner,
		newApp,
	))
}
