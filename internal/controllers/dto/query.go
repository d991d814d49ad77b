package dto

import (
	"net/url"
	"strings"

	"github.com/bionicotaku/lingo-services-course/internal/services"

	"github.com/google/uuid"
)

// ProgressResponse 为学习进度响应，取值 [0, 100]。
type ProgressResponse struct {
	Progress float64 `json:"progress"`
}

// ToCourseFilter 解析检索参数 title 与 categoryId。
// categoryId 非法时保留为 uuid.Nil 过滤条件，结果为空列表。
func ToCourseFilter(principal uuid.UUID, query url.Values) services.CourseFilter {
	filter := services.CourseFilter{
		Principal: principal,
		Title:     strings.TrimSpace(query.Get("title")),
	}
	raw := strings.TrimSpace(query.Get("categoryId"))
	if raw == "" {
		return filter
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		id = uuid.Nil
	}
	filter.CategoryID = &id
	return filter
}
