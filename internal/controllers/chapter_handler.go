package controllers

import (
	"context"

	"github.com/bionicotaku/lingo-services-course/internal/controllers/dto"
	"github.com/bionicotaku/lingo-services-course/internal/services"

	khttp "github.com/go-kratos/kratos/v2/transport/http"
	"github.com/google/uuid"
)

const (
	operationLoadChapterEditor   = "/course.v1.ChapterService/LoadChapterEditor"
	operationUpdateChapterTitle  = "/course.v1.ChapterService/UpdateTitle"
	operationUpdateChapterDesc   = "/course.v1.ChapterService/UpdateDescription"
	operationUpdateChapterAccess = "/course.v1.ChapterService/UpdateAccess"
	operationUpdateChapterVideo  = "/course.v1.ChapterService/UpdateVideo"
	operationToggleChapter       = "/course.v1.ChapterService/TogglePublish"
	operationDeleteChapter       = "/course.v1.ChapterService/DeleteChapter"
)

// ChapterHandler 处理章节聚合的 HTTP 请求。
type ChapterHandler struct {
	*BaseHandler
	svc *services.ChapterService
}

// NewChapterHandler 构造章节 Handler。
func NewChapterHandler(base *BaseHandler, svc *services.ChapterService) *ChapterHandler {
	if base == nil {
		base = NewBaseHandler(HandlerTimeouts{})
	}
	return &ChapterHandler{BaseHandler: base, svc: svc}
}

// RegisterRoutes 挂载章节路由。
func (h *ChapterHandler) RegisterRoutes(r *khttp.Router) {
	const prefix = "/v1/courses/{courseId}/chapters/{chapterId}"
	r.GET(prefix, h.LoadChapterEditor)
	r.PATCH(prefix+"/title", h.UpdateTitle)
	r.PATCH(prefix+"/description", h.UpdateDescription)
	r.PATCH(prefix+"/access", h.UpdateAccess)
	r.PUT(prefix+"/video", h.UpdateVideo)
	r.POST(prefix+"/publish", h.TogglePublish)
	r.DELETE(prefix, h.DeleteChapter)
}

func chapterPath(ctx khttp.Context) (courseID, chapterID uuid.UUID) {
	return pathID(ctx, "courseId"), pathID(ctx, "chapterId")
}

// LoadChapterEditor 返回章节编辑页数据。
func (h *ChapterHandler) LoadChapterEditor(ctx khttp.Context) error {
	courseID, chapterID := chapterPath(ctx)
	return h.invoke(ctx, operationLoadChapterEditor, HandlerTypeQuery, nil, func(c context.Context, principal uuid.UUID) (any, error) {
		return h.svc.LoadChapterEditor(c, principal, courseID, chapterID)
	})
}

// UpdateTitle 更新章节标题。
func (h *ChapterHandler) UpdateTitle(ctx khttp.Context) error {
	courseID, chapterID := chapterPath(ctx)
	var req dto.TitleRequest
	if err := ctx.Bind(&req); err != nil {
		return err
	}
	return h.invoke(ctx, operationUpdateChapterTitle, HandlerTypeCommand, &req, func(c context.Context, principal uuid.UUID) (any, error) {
		return h.svc.UpdateTitle(c, principal, courseID, chapterID, dto.ToChapterTitleInput(&req))
	})
}

// UpdateDescription 更新章节描述。
func (h *ChapterHandler) UpdateDescription(ctx khttp.Context) error {
	courseID, chapterID := chapterPath(ctx)
	var req dto.DescriptionRequest
	if err := ctx.Bind(&req); err != nil {
		return err
	}
	return h.invoke(ctx, operationUpdateChapterDesc, HandlerTypeCommand, &req, func(c context.Context, principal uuid.UUID) (any, error) {
		return h.svc.UpdateDescription(c, principal, courseID, chapterID, dto.ToChapterDescriptionInput(&req))
	})
}

// UpdateAccess 更新章节免费试看开关。
func (h *ChapterHandler) UpdateAccess(ctx khttp.Context) error {
	courseID, chapterID := chapterPath(ctx)
	var req dto.AccessRequest
	if err := ctx.Bind(&req); err != nil {
		return err
	}
	return h.invoke(ctx, operationUpdateChapterAccess, HandlerTypeCommand, &req, func(c context.Context, principal uuid.UUID) (any, error) {
		return h.svc.UpdateAccess(c, principal, courseID, chapterID, dto.ToChapterAccessInput(&req))
	})
}

// UpdateVideo 替换章节视频，multipart 字段为 video。
func (h *ChapterHandler) UpdateVideo(ctx khttp.Context) error {
	courseID, chapterID := chapterPath(ctx)
	file, release, err := h.formFile(ctx, "video")
	defer release()
	if err != nil {
		return err
	}
	return h.invoke(ctx, operationUpdateChapterVideo, HandlerTypeUpload, nil, func(c context.Context, principal uuid.UUID) (any, error) {
		return h.svc.UpdateVideo(c, principal, courseID, chapterID, file)
	})
}

// TogglePublish 翻转章节发布状态。
func (h *ChapterHandler) TogglePublish(ctx khttp.Context) error {
	courseID, chapterID := chapterPath(ctx)
	return h.invoke(ctx, operationToggleChapter, HandlerTypeCommand, nil, func(c context.Context, principal uuid.UUID) (any, error) {
		return h.svc.TogglePublish(c, principal, courseID, chapterID)
	})
}

// DeleteChapter 删除章节。
func (h *ChapterHandler) DeleteChapter(ctx khttp.Context) error {
	courseID, chapterID := chapterPath(ctx)
	return h.invoke(ctx, operationDeleteChapter, HandlerTypeCommand, nil, func(c context.Context, principal uuid.UUID) (any, error) {
		return h.svc.DeleteChapter(c, principal, courseID, chapterID)
	})
}
