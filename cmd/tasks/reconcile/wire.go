//go:build wireinject
// +build wireinject

// Package main 为 reconcile 任务 CLI 提供 Wire 依赖注入定义。
package main

import (
	"context"
	"fmt"

	configloader "github.com/bionicotaku/lingo-services-course/internal/infrastructure/configloader"
	"github.com/bionicotaku/lingo-services-course/internal/infrastructure/gcs"
	"github.com/bionicotaku/lingo-services-course/internal/infrastructure/mux"
	"github.com/bionicotaku/lingo-services-course/internal/repositories"
	reconciletasks "github.com/bionicotaku/lingo-services-course/internal/tasks/reconcile"

	"github.com/bionicotaku/lingo-utils/gclog"
	obswire "github.com/bionicotaku/lingo-utils/observability"
	"github.com/bionicotaku/lingo-utils/pgxpoolx"
	"github.com/bionicotaku/lingo-utils/txmanager"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/wire"
)

//go:generate go run github.com/google/wire/cmd/wire

var reconcileRepositorySet = wire.NewSet(
	repositories.NewInboxRepository,
	repositories.NewAssetReferenceRepository,
)

func wireReconcileTask(context.Context, configloader.Params) (*reconcileTaskApp, func(), error) {
	panic(wire.Build(
		configloader.ProviderSet,
		gclog.ProviderSet,
		obswire.ProviderSet,
		pgxpoolx.ProviderSet,
		txmanager.ProviderSet,
		gcs.ProviderSet,
		mux.ProviderSet,
		reconcileRepositorySet,
		configloader.ProvideReconcileSubscriber,
		reconciletasks.ProvideRunner,
		newReconcileTaskApp,
	))
}

func newReconcileTaskApp(_ *obswire.Component, logger log.Logger, runner *reconciletasks.Runner) (*reconcileTaskApp, error) {
	if runner == nil {
		return &reconcileTaskApp{Logger: logger}, nil
	}
	if logger == nil {
		return nil, fmt.Errorf("logger not initialized")
	}
	return &reconcileTaskApp{
		Runner: runner,
		Logger: logger,
	}, nil
}
