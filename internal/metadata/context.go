// Package metadata 提供请求元信息在 Context 中的存取工具，供控制器与服务层共享。
package metadata

import (
	"context"
	"strings"

	kratosmd "github.com/go-kratos/kratos/v2/metadata"
	"github.com/go-kratos/kratos/v2/transport"
	"github.com/google/uuid"
)

const (
	// HeaderUserID 为网关注入的调用者标识。
	HeaderUserID = "x-md-global-user-id"
	// HeaderIdempotencyKey 为客户端提供的幂等键。
	HeaderIdempotencyKey = "x-md-idempotency-key"
)

// HandlerMetadata 描述从请求头或上游链路解析出的上下文信息。
type HandlerMetadata struct {
	IdempotencyKey string
	UserID         string
}

// IsZero 判断 Metadata 是否为空。
func (m HandlerMetadata) IsZero() bool {
	return m.IdempotencyKey == "" && m.UserID == ""
}

// Principal 返回调用者 UUID；缺失或格式非法时返回 uuid.Nil，视为匿名。
func (m HandlerMetadata) Principal() uuid.UUID {
	value := strings.TrimSpace(m.UserID)
	if value == "" {
		return uuid.Nil
	}
	id, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil
	}
	return id
}

// FromServerContext 优先读取 metadata 中间件透传的键，缺失时回退到原始请求头。
func FromServerContext(ctx context.Context) HandlerMetadata {
	if ctx == nil {
		return HandlerMetadata{}
	}
	meta := HandlerMetadata{}
	if md, ok := kratosmd.FromServerContext(ctx); ok {
		meta.UserID = strings.TrimSpace(md.Get(HeaderUserID))
		meta.IdempotencyKey = strings.TrimSpace(md.Get(HeaderIdempotencyKey))
	}
	if meta.UserID != "" && meta.IdempotencyKey != "" {
		return meta
	}
	tr, ok := transport.FromServerContext(ctx)
	if !ok {
		return meta
	}
	header := tr.RequestHeader()
	if meta.UserID == "" {
		meta.UserID = strings.TrimSpace(header.Get(HeaderUserID))
	}
	if meta.IdempotencyKey == "" {
		meta.IdempotencyKey = strings.TrimSpace(header.Get(HeaderIdempotencyKey))
	}
	return meta
}

type ctxKey struct{}

// Inject 将 HandlerMetadata 注入 Context。
func Inject(ctx context.Context, meta HandlerMetadata) context.Context {
	if meta.IsZero() {
		return ctx
	}
	return context.WithValue(ctx, ctxKey{}, meta)
}

// FromContext 读取上游注入的 HandlerMetadata。
func FromContext(ctx context.Context) (HandlerMetadata, bool) {
	if ctx == nil {
		return HandlerMetadata{}, false
	}
	meta, ok := ctx.Value(ctxKey{}).(HandlerMetadata)
	return meta, ok
}
