// Package main 提供课程服务 HTTP 入口。
// 负责加载配置、通过 Wire 装配依赖、启动 HTTP Server 与后台 Runner 并优雅关闭。
package main

import (
	"context"
	"errors"
	"flag"
	"sync"

	configloader "github.com/bionicotaku/lingo-services-course/internal/infrastructure/configloader"
	"github.com/bionicotaku/lingo-services-course/internal/tasks/reconcile"
	obswire "github.com/bionicotaku/lingo-utils/observability"
	outboxpublisher "github.com/bionicotaku/lingo-utils/outbox/publisher"
	"github.com/go-kratos/kratos/v2"
	"github.com/go-kratos/kratos/v2/log"
	khttp "github.com/go-kratos/kratos/v2/transport/http"

	_ "go.uber.org/automaxprocs" // 自动设置 GOMAXPROCS 为容器 CPU 配额
)

type backgroundWorker struct {
	name string
	run  func(context.Context) error
}

// newApp 组装 Kratos 应用，Outbox 发布器与对账 Runner 随 Server 生命周期启停。
func newApp(
	_ *obswire.Component,
	logger log.Logger,
	hs *khttp.Server,
	meta configloader.ServiceInfo,
	publisher *outboxpublisher.Runner,
	reconciler *reconcile.Runner,
) *kratos.App {
	options := []kratos.Option{
		kratos.ID(meta.InstanceID),
		kratos.Name(meta.Name),
		kratos.Version(meta.Version),
		kratos.Metadata(map[string]string{"environment": meta.Environment}),
		kratos.Logger(logger),
		kratos.Server(hs),
	}

	var workers []backgroundWorker
	if publisher != nil {
		workers = append(workers, backgroundWorker{name: "outbox publisher", run: publisher.Run})
	}
	if reconciler != nil {
		workers = append(workers, backgroundWorker{name: "orphan reconciler", run: reconciler.Run})
	}
	if len(workers) == 0 {
		return kratos.New(options...)
	}

	var (
		wg      sync.WaitGroup
		cancels []context.CancelFunc
	)
	helper := log.NewHelper(logger)

	options = append(options,
		kratos.BeforeStart(func(ctx context.Context) error {
			cancels = make([]context.CancelFunc, len(workers))
			for i, worker := range workers {
				runCtx, cancel := context.WithCancel(ctx)
				cancels[i] = cancel
				wg.Add(1)
				go func() {
					defer wg.Done()
					if err := worker.run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
						helper.Warnf("%s stopped: %v", worker.name, err)
					}
				}()
			}
			return nil
		}),
		kratos.AfterStop(func(ctx context.Context) error {
			for _, cancel := range cancels {
				if cancel != nil {
					cancel()
				}
			}
			done := make(chan struct{})
			go func() {
				wg.Wait()
				close(done)
			}()
			select {
			case <-ctx.Done():
			case <-done:
			}
			return nil
		}),
	)
	return kratos.New(options...)
}

func main() {
	ctx := context.Background()

	confFlag := flag.String("conf", "", "config path or directory, eg: -conf configs/config.yaml")
	flag.Parse()

	params := configloader.Params{ConfPath: *confFlag}

	// wireApp 由 wire_gen.go 生成，依赖注入顺序见 wire.go
	app, cleanupApp, err := wireApp(ctx, params)
	if err != nil {
		panic(err)
	}
	defer cleanupApp()

	if err := app.Run(); err != nil {
		panic(err)
	}
}
