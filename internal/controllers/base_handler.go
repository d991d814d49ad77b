package controllers

import (
	"context"
	stdhttp "net/http"
	"time"

	"github.com/bionicotaku/lingo-services-course/internal/metadata"

	khttp "github.com/go-kratos/kratos/v2/transport/http"
	"github.com/google/uuid"
)

// HandlerType 表示 Handler 的语义类别，用于选择超时策略。
type HandlerType int

const (
	// HandlerTypeDefault 表示未显式区分的 Handler。
	HandlerTypeDefault HandlerType = iota
	// HandlerTypeCommand 表示写操作 Handler。
	HandlerTypeCommand
	// HandlerTypeQuery 表示只读查询 Handler。
	HandlerTypeQuery
	// HandlerTypeUpload 表示携带 multipart 文件的写操作 Handler。
	HandlerTypeUpload
)

// HandlerTimeouts 聚合不同类型 Handler 的超时策略与上传体积上限。
type HandlerTimeouts struct {
	Default        time.Duration
	Command        time.Duration
	Query          time.Duration
	Upload         time.Duration
	MaxUploadBytes int64
}

const (
	fallbackDefaultTimeout = 5 * time.Second
	fallbackQueryTimeout   = 3 * time.Second
	fallbackUploadTimeout  = 2 * time.Minute
	fallbackMaxUpload      = 512 << 20
)

// BaseHandler 提供公共的超时、Metadata 解析与中间件调用能力，供具体 Handler 内嵌复用。
type BaseHandler struct {
	timeouts HandlerTimeouts
}

// NewBaseHandler 构造基础 Handler，并为缺省值填充回退策略。
func NewBaseHandler(timeouts HandlerTimeouts) *BaseHandler {
	if timeouts.Default <= 0 {
		if timeouts.Command > 0 {
			timeouts.Default = timeouts.Command
		} else if timeouts.Query > 0 {
			timeouts.Default = timeouts.Query
		} else {
			timeouts.Default = fallbackDefaultTimeout
		}
	}
	if timeouts.Command <= 0 {
		timeouts.Command = timeouts.Default
	}
	if timeouts.Query <= 0 {
		if timeouts.Default > 0 {
			timeouts.Query = timeouts.Default
		} else {
			timeouts.Query = fallbackQueryTimeout
		}
	}
	if timeouts.Upload <= 0 {
		timeouts.Upload = max(timeouts.Command, fallbackUploadTimeout)
	}
	if timeouts.MaxUploadBytes <= 0 {
		timeouts.MaxUploadBytes = fallbackMaxUpload
	}
	return &BaseHandler{timeouts: timeouts}
}

// WithTimeout 根据 Handler 类型包装上下文，返回绑定超时的新 Context 与取消函数。
func (h *BaseHandler) WithTimeout(ctx context.Context, kind HandlerType) (context.Context, context.CancelFunc) {
	if h == nil {
		return context.WithTimeout(ctx, fallbackDefaultTimeout)
	}
	var timeout time.Duration
	switch kind {
	case HandlerTypeCommand:
		timeout = h.timeouts.Command
	case HandlerTypeQuery:
		timeout = h.timeouts.Query
	case HandlerTypeUpload:
		timeout = h.timeouts.Upload
	default:
		timeout = h.timeouts.Default
	}
	if timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}

// ExtractMetadata 解析调用者与幂等 Header。
func (h *BaseHandler) ExtractMetadata(ctx context.Context) metadata.HandlerMetadata {
	return metadata.FromServerContext(ctx)
}

// MaxUploadBytes 返回单次 multipart 请求允许的最大字节数。
func (h *BaseHandler) MaxUploadBytes() int64 {
	if h == nil || h.timeouts.MaxUploadBytes <= 0 {
		return fallbackMaxUpload
	}
	return h.timeouts.MaxUploadBytes
}

// invokeFunc 为一次业务调用，principal 为 uuid.Nil 表示匿名。
type invokeFunc func(ctx context.Context, principal uuid.UUID) (any, error)

// invoke 让请求经过服务端中间件链（追踪、metadata、鉴权、日志等），
// 在按类型绑定超时的 Context 中执行 call，并以 JSON 写回 200 响应。
func (h *BaseHandler) invoke(ctx khttp.Context, operation string, kind HandlerType, req any, call invokeFunc) error {
	khttp.SetOperation(ctx, operation)
	handler := ctx.Middleware(func(c context.Context, _ any) (any, error) {
		meta := h.ExtractMetadata(c)
		timeoutCtx, cancel := h.WithTimeout(c, kind)
		defer cancel()
		timeoutCtx = metadata.Inject(timeoutCtx, meta)
		return call(timeoutCtx, meta.Principal())
	})
	out, err := handler(ctx, req)
	if err != nil {
		return err
	}
	return ctx.Result(stdhttp.StatusOK, out)
}

// pathID 解析路径参数；格式非法时返回 uuid.Nil，由服务层按不存在处理。
func pathID(ctx khttp.Context, name string) uuid.UUID {
	id, err := uuid.Parse(ctx.Vars().Get(name))
	if err != nil {
		return uuid.Nil
	}
	return id
}
