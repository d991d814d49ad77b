package services

import (
	"context"
	"fmt"

	"github.com/go-kratos/kratos/v2/errors"
)

// 错误原因码，随 Kratos 错误一同返回给调用方。
const (
	ReasonUnauthenticated  = "UNAUTHENTICATED"
	ReasonForbidden        = "FORBIDDEN"
	ReasonNotFound         = "NOT_FOUND"
	ReasonValidationFailed = "VALIDATION_FAILED"
	ReasonStoreFailure     = "STORE_FAILURE"
	ReasonTimeout          = "TIMEOUT"
)

// ErrUnauthenticated 表示请求缺少主体。
func ErrUnauthenticated() *errors.Error {
	return errors.Unauthorized(ReasonUnauthenticated, "authentication required")
}

// ErrForbidden 表示主体不是资源所有者。
func ErrForbidden(resource string) *errors.Error {
	return errors.Forbidden(ReasonForbidden, fmt.Sprintf("%s is not owned by caller", resource))
}

// ErrNotFound 表示资源不存在。
func ErrNotFound(resource string) *errors.Error {
	return errors.NotFound(ReasonNotFound, fmt.Sprintf("%s not found", resource))
}

// ErrValidation 返回带字段错误的 400，fieldErrors 写入 Metadata。
func ErrValidation(fieldErrors map[string]string) *errors.Error {
	return errors.BadRequest(ReasonValidationFailed, "invalid payload").WithMetadata(fieldErrors)
}

// storeFailure 将存储失败转换为 500；超时单独映射为 504。
func storeFailure(ctx context.Context, op string, err error) *errors.Error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return errors.GatewayTimeout(ReasonTimeout, op+" timeout").WithCause(err)
	}
	return errors.InternalServer(ReasonStoreFailure, "failed to "+op).WithCause(fmt.Errorf("%s: %w", op, err))
}

// passthrough 保留已是 Kratos 错误的原因码，其余按存储失败处理。
func passthrough(ctx context.Context, op string, err error) error {
	if err == nil {
		return nil
	}
	var kerr *errors.Error
	if errors.As(err, &kerr) {
		return kerr
	}
	return storeFailure(ctx, op, err)
}
