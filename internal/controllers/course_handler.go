package controllers

import (
	"context"

	"github.com/bionicotaku/lingo-services-course/internal/controllers/dto"
	"github.com/bionicotaku/lingo-services-course/internal/services"

	khttp "github.com/go-kratos/kratos/v2/transport/http"
	"github.com/google/uuid"
)

const (
	operationCreateCourse       = "/course.v1.CourseService/CreateCourse"
	operationListTeacherCourses = "/course.v1.CourseService/ListTeacherCourses"
	operationLoadCourseEditor   = "/course.v1.CourseService/LoadCourseEditor"
	operationUpdateCourseTitle  = "/course.v1.CourseService/UpdateTitle"
	operationUpdateCourseDesc   = "/course.v1.CourseService/UpdateDescription"
	operationUpdateCategory     = "/course.v1.CourseService/UpdateCategory"
	operationUpdatePrice        = "/course.v1.CourseService/UpdatePrice"
	operationUpdateImage        = "/course.v1.CourseService/UpdateImage"
	operationCreateAttachment   = "/course.v1.CourseService/CreateAttachment"
	operationDeleteAttachment   = "/course.v1.CourseService/DeleteAttachment"
	operationCreateChapter      = "/course.v1.CourseService/CreateChapter"
	operationUpdatePublish      = "/course.v1.CourseService/UpdatePublish"
	operationDeleteCourse       = "/course.v1.CourseService/DeleteCourse"
)

// CourseHandler 处理讲师侧课程聚合的 HTTP 请求。
type CourseHandler struct {
	*BaseHandler
	svc *services.CourseService
}

// NewCourseHandler 构造课程 Handler。
func NewCourseHandler(base *BaseHandler, svc *services.CourseService) *CourseHandler {
	if base == nil {
		base = NewBaseHandler(HandlerTimeouts{})
	}
	return &CourseHandler{BaseHandler: base, svc: svc}
}

// RegisterRoutes 挂载课程路由。
func (h *CourseHandler) RegisterRoutes(r *khttp.Router) {
	r.POST("/v1/courses", h.CreateCourse)
	r.GET("/v1/teacher/courses", h.ListTeacherCourses)
	r.GET("/v1/courses/{courseId}", h.LoadCourseEditor)
	r.PATCH("/v1/courses/{courseId}/title", h.UpdateTitle)
	r.PATCH("/v1/courses/{courseId}/description", h.UpdateDescription)
	r.PATCH("/v1/courses/{courseId}/category", h.UpdateCategory)
	r.PATCH("/v1/courses/{courseId}/price", h.UpdatePrice)
	r.PUT("/v1/courses/{courseId}/image", h.UpdateImage)
	r.POST("/v1/courses/{courseId}/attachments", h.CreateAttachment)
	r.DELETE("/v1/courses/{courseId}/attachments/{attachmentId}", h.DeleteAttachment)
	r.POST("/v1/courses/{courseId}/chapters", h.CreateChapter)
	r.POST("/v1/courses/{courseId}/publish", h.UpdatePublish)
	r.DELETE("/v1/courses/{courseId}", h.DeleteCourse)
}

// CreateCourse 创建课程。
func (h *CourseHandler) CreateCourse(ctx khttp.Context) error {
	var req dto.TitleRequest
	if err := ctx.Bind(&req); err != nil {
		return err
	}
	return h.invoke(ctx, operationCreateCourse, HandlerTypeCommand, &req, func(c context.Context, principal uuid.UUID) (any, error) {
		return h.svc.CreateCourse(c, principal, dto.ToCreateCourseInput(&req))
	})
}

// ListTeacherCourses 返回调用者创建的课程。
func (h *CourseHandler) ListTeacherCourses(ctx khttp.Context) error {
	return h.invoke(ctx, operationListTeacherCourses, HandlerTypeQuery, nil, func(c context.Context, principal uuid.UUID) (any, error) {
		return dto.NewTeacherCoursesResponse(h.svc.ListTeacherCourses(c, principal)), nil
	})
}

// LoadCourseEditor 返回课程编辑页数据。
func (h *CourseHandler) LoadCourseEditor(ctx khttp.Context) error {
	courseID := pathID(ctx, "courseId")
	return h.invoke(ctx, operationLoadCourseEditor, HandlerTypeQuery, nil, func(c context.Context, principal uuid.UUID) (any, error) {
		return h.svc.LoadCourseEditor(c, principal, courseID)
	})
}

// UpdateTitle 更新课程标题。
func (h *CourseHandler) UpdateTitle(ctx khttp.Context) error {
	courseID := pathID(ctx, "courseId")
	var req dto.TitleRequest
	if err := ctx.Bind(&req); err != nil {
		return err
	}
	return h.invoke(ctx, operationUpdateCourseTitle, HandlerTypeCommand, &req, func(c context.Context, principal uuid.UUID) (any, error) {
		return h.svc.UpdateTitle(c, principal, courseID, dto.ToCourseTitleInput(&req))
	})
}

// UpdateDescription 更新课程描述。
func (h *CourseHandler) UpdateDescription(ctx khttp.Context) error {
	courseID := pathID(ctx, "courseId")
	var req dto.DescriptionRequest
	if err := ctx.Bind(&req); err != nil {
		return err
	}
	return h.invoke(ctx, operationUpdateCourseDesc, HandlerTypeCommand, &req, func(c context.Context, principal uuid.UUID) (any, error) {
		return h.svc.UpdateDescription(c, principal, courseID, dto.ToCourseDescriptionInput(&req))
	})
}

// UpdateCategory 更新或清除课程分类。
func (h *CourseHandler) UpdateCategory(ctx khttp.Context) error {
	courseID := pathID(ctx, "courseId")
	var req dto.CategoryRequest
	if err := ctx.Bind(&req); err != nil {
		return err
	}
	return h.invoke(ctx, operationUpdateCategory, HandlerTypeCommand, &req, func(c context.Context, principal uuid.UUID) (any, error) {
		return h.svc.UpdateCategory(c, principal, courseID, dto.ToCourseCategoryInput(&req))
	})
}

// UpdatePrice 更新或清除课程价格。
func (h *CourseHandler) UpdatePrice(ctx khttp.Context) error {
	courseID := pathID(ctx, "courseId")
	var req dto.PriceRequest
	if err := ctx.Bind(&req); err != nil {
		return err
	}
	return h.invoke(ctx, operationUpdatePrice, HandlerTypeCommand, &req, func(c context.Context, principal uuid.UUID) (any, error) {
		return h.svc.UpdatePrice(c, principal, courseID, dto.ToCoursePriceInput(&req))
	})
}

// UpdateImage 替换课程封面，multipart 字段为 image。
func (h *CourseHandler) UpdateImage(ctx khttp.Context) error {
	courseID := pathID(ctx, "courseId")
	file, release, err := h.formFile(ctx, "image")
	defer release()
	if err != nil {
		return err
	}
	return h.invoke(ctx, operationUpdateImage, HandlerTypeUpload, nil, func(c context.Context, principal uuid.UUID) (any, error) {
		return h.svc.UpdateImage(c, principal, courseID, file)
	})
}

// CreateAttachment 上传课程附件，multipart 字段为 file。
func (h *CourseHandler) CreateAttachment(ctx khttp.Context) error {
	courseID := pathID(ctx, "courseId")
	file, release, err := h.formFile(ctx, "file")
	defer release()
	if err != nil {
		return err
	}
	return h.invoke(ctx, operationCreateAttachment, HandlerTypeUpload, nil, func(c context.Context, principal uuid.UUID) (any, error) {
		return h.svc.CreateAttachment(c, principal, courseID, file)
	})
}

// DeleteAttachment 删除课程附件。
func (h *CourseHandler) DeleteAttachment(ctx khttp.Context) error {
	courseID := pathID(ctx, "courseId")
	attachmentID := pathID(ctx, "attachmentId")
	return h.invoke(ctx, operationDeleteAttachment, HandlerTypeCommand, nil, func(c context.Context, principal uuid.UUID) (any, error) {
		return h.svc.DeleteAttachment(c, principal, courseID, attachmentID)
	})
}

// CreateChapter 在课程末尾追加章节。
func (h *CourseHandler) CreateChapter(ctx khttp.Context) error {
	courseID := pathID(ctx, "courseId")
	var req dto.TitleRequest
	if err := ctx.Bind(&req); err != nil {
		return err
	}
	return h.invoke(ctx, operationCreateChapter, HandlerTypeCommand, &req, func(c context.Context, principal uuid.UUID) (any, error) {
		return h.svc.CreateChapter(c, principal, courseID, dto.ToChapterTitleInput(&req))
	})
}

// UpdatePublish 翻转课程发布状态。
func (h *CourseHandler) UpdatePublish(ctx khttp.Context) error {
	courseID := pathID(ctx, "courseId")
	return h.invoke(ctx, operationUpdatePublish, HandlerTypeCommand, nil, func(c context.Context, principal uuid.UUID) (any, error) {
		return h.svc.UpdatePublish(c, principal, courseID)
	})
}

// DeleteCourse 删除课程及其全部外部资源。
func (h *CourseHandler) DeleteCourse(ctx khttp.Context) error {
	courseID := pathID(ctx, "courseId")
	return h.invoke(ctx, operationDeleteCourse, HandlerTypeCommand, nil, func(c context.Context, principal uuid.UUID) (any, error) {
		return h.svc.DeleteCourse(c, principal, courseID)
	})
}
