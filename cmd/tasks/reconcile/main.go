// Package main 提供孤儿资源对账 Runner 的独立入口，消费 course.orphan.detected 事件并清理无引用的外部资源。
package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"

	configloader "github.com/bionicotaku/lingo-services-course/internal/infrastructure/configloader"
	"github.com/bionicotaku/lingo-services-course/internal/tasks/reconcile"
	"github.com/go-kratos/kratos/v2/log"
)

type reconcileTaskApp struct {
	Runner *reconcile.Runner
	Logger log.Logger
}

func main() {
	ctx := context.Background()

	confFlag := flag.String("conf", "", "config path or directory, eg: -conf configs/config.yaml")
	flag.Parse()

	params := configloader.Params{ConfPath: *confFlag}
	app, cleanup, err := wireReconcileTask(ctx, params)
	if err != nil {
		panic(err)
	}
	defer cleanup()

	logger := app.Logger
	if logger == nil {
		logger = log.NewStdLogger(os.Stdout)
	}
	helper := log.NewHelper(logger)

	if app.Runner == nil {
		helper.Warn("orphan reconciler disabled (missing messaging.reconcile subscription)")
		return
	}

	helper.Info("starting orphan reconcile task")

	runCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.Runner.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
		helper.Errorf("orphan reconciler stopped unexpectedly: %v", err)
		os.Exit(1)
	}

	helper.Info("orphan reconcile task stopped")
}
