package controllers

import (
	"context"

	"github.com/bionicotaku/lingo-services-course/internal/controllers/dto"
	"github.com/bionicotaku/lingo-services-course/internal/services"

	khttp "github.com/go-kratos/kratos/v2/transport/http"
	"github.com/google/uuid"
)

const (
	operationSearch      = "/course.v1.QueryService/Search"
	operationGetProgress = "/course.v1.QueryService/GetProgress"
)

// QueryHandler 处理学员侧只读查询。
type QueryHandler struct {
	*BaseHandler
	svc *services.QueryService
}

// NewQueryHandler 构造查询 Handler。
func NewQueryHandler(base *BaseHandler, svc *services.QueryService) *QueryHandler {
	if base == nil {
		base = NewBaseHandler(HandlerTimeouts{})
	}
	return &QueryHandler{BaseHandler: base, svc: svc}
}

// RegisterRoutes 挂载查询路由。
func (h *QueryHandler) RegisterRoutes(r *khttp.Router) {
	r.GET("/v1/search", h.Search)
	r.GET("/v1/courses/{courseId}/progress", h.GetProgress)
}

// Search 返回分类与已发布课程；匿名调用者没有购买状态与进度。
func (h *QueryHandler) Search(ctx khttp.Context) error {
	query := ctx.Query()
	return h.invoke(ctx, operationSearch, HandlerTypeQuery, nil, func(c context.Context, principal uuid.UUID) (any, error) {
		return h.svc.Search(c, dto.ToCourseFilter(principal, query)), nil
	})
}

// GetProgress 返回调用者在课程上的学习进度。
func (h *QueryHandler) GetProgress(ctx khttp.Context) error {
	courseID := pathID(ctx, "courseId")
	return h.invoke(ctx, operationGetProgress, HandlerTypeQuery, nil, func(c context.Context, principal uuid.UUID) (any, error) {
		return &dto.ProgressResponse{Progress: h.svc.GetProgress(c, principal, courseID)}, nil
	})
}
