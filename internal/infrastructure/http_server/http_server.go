// Package httpserver 负责装配入站 HTTP Server 及其中间件栈。
package httpserver

import (
	"context"
	"encoding/json"
	stdhttp "net/http"
	"time"

	"github.com/bionicotaku/lingo-services-course/internal/controllers"
	"github.com/bionicotaku/lingo-services-course/internal/infrastructure/configloader"

	"github.com/bionicotaku/lingo-utils/gcjwt"
	obsTrace "github.com/bionicotaku/lingo-utils/observability/tracing"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/middleware"
	"github.com/go-kratos/kratos/v2/middleware/logging"
	"github.com/go-kratos/kratos/v2/middleware/metadata"
	"github.com/go-kratos/kratos/v2/middleware/ratelimit"
	"github.com/go-kratos/kratos/v2/middleware/recovery"
	khttp "github.com/go-kratos/kratos/v2/transport/http"
)

const readinessTimeout = 2 * time.Second

// ReadinessProbe 检查下游依赖是否可用，通常为数据库连接池的 Ping。
type ReadinessProbe interface {
	Ping(ctx context.Context) error
}

// NewHTTPServer 构造 Kratos HTTP Server。
//
// 中间件链（按执行顺序）：
// 1. obsTrace.Server() - OpenTelemetry 追踪
// 2. recovery.Recovery() - Panic 恢复
// 3. metadata.Server() - 透传配置中声明前缀的 header（调用者、幂等键）
// 4. jwt（可选）- 入站 ID Token 校验
// 5. ratelimit.Server()（可选）- BBR 限流
// 6. logging.Server() - 结构化访问日志
func NewHTTPServer(
	cfg configloader.ServerConfig,
	jwt gcjwt.ServerMiddleware,
	course *controllers.CourseHandler,
	chapter *controllers.ChapterHandler,
	query *controllers.QueryHandler,
	probe ReadinessProbe,
	logger log.Logger,
) *khttp.Server {
	mws := []middleware.Middleware{
		obsTrace.Server(),
		recovery.Recovery(),
		metadata.Server(metadata.WithPropagatedPrefix(cfg.MetadataKeys...)),
	}
	if jwt != nil {
		mws = append(mws, middleware.Middleware(jwt))
	}
	if cfg.RateLimitEnabled {
		mws = append(mws, ratelimit.Server())
	}
	mws = append(mws, logging.Server(logger))

	opts := []khttp.ServerOption{
		khttp.Middleware(mws...),
	}
	if cfg.Address != "" {
		opts = append(opts, khttp.Address(cfg.Address))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, khttp.Timeout(cfg.Timeout))
	}
	srv := khttp.NewServer(opts...)

	srv.HandleFunc("/healthz", func(w stdhttp.ResponseWriter, _ *stdhttp.Request) {
		w.WriteHeader(stdhttp.StatusOK)
	})
	srv.HandleFunc("/readyz", readinessHandler(probe, logger))

	r := srv.Route("/")
	if course != nil {
		course.RegisterRoutes(r)
	}
	if chapter != nil {
		chapter.RegisterRoutes(r)
	}
	if query != nil {
		query.RegisterRoutes(r)
	}
	return srv
}

func readinessHandler(probe ReadinessProbe, logger log.Logger) stdhttp.HandlerFunc {
	helper := log.NewHelper(logger)
	return func(w stdhttp.ResponseWriter, r *stdhttp.Request) {
		if probe == nil {
			w.WriteHeader(stdhttp.StatusOK)
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()
		if err := probe.Ping(ctx); err != nil {
			helper.WithContext(ctx).Warnf("readiness check failed: %v", err)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(stdhttp.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(map[string]string{"status": "unavailable"})
			return
		}
		w.WriteHeader(stdhttp.StatusOK)
	}
}
