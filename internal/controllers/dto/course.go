// Package dto 提供控制器层的请求解析与响应构造工具。
// 请求体统一为 JSON，字段名与服务层载荷保持一致。
package dto

import (
	"github.com/bionicotaku/lingo-services-course/internal/models/vo"
	"github.com/bionicotaku/lingo-services-course/internal/services"
)

// TitleRequest 为标题类请求体，用于创建课程、改名与新建章节。
type TitleRequest struct {
	Title string `json:"title"`
}

// DescriptionRequest 为描述类请求体。
type DescriptionRequest struct {
	Description string `json:"description"`
}

// CategoryRequest 为课程分类请求体，空字符串表示清除分类。
type CategoryRequest struct {
	CategoryID string `json:"category_id"`
}

// PriceRequest 为课程价格请求体，null 表示清除价格。
type PriceRequest struct {
	Price *float64 `json:"price"`
}

// ToCreateCourseInput 映射为服务层输入。
func ToCreateCourseInput(req *TitleRequest) services.CreateCourseInput {
	return services.CreateCourseInput{Title: req.Title}
}

// ToCourseTitleInput 映射为服务层输入。
func ToCourseTitleInput(req *TitleRequest) services.CourseTitleInput {
	return services.CourseTitleInput{Title: req.Title}
}

// ToCourseDescriptionInput 映射为服务层输入。
func ToCourseDescriptionInput(req *DescriptionRequest) services.CourseDescriptionInput {
	return services.CourseDescriptionInput{Description: req.Description}
}

// ToCourseCategoryInput 映射为服务层输入。
func ToCourseCategoryInput(req *CategoryRequest) services.CourseCategoryInput {
	return services.CourseCategoryInput{CategoryID: req.CategoryID}
}

// ToCoursePriceInput 映射为服务层输入。
func ToCoursePriceInput(req *PriceRequest) services.CoursePriceInput {
	return services.CoursePriceInput{Price: req.Price}
}

// ToChapterTitleInput 映射为服务层输入，供新建章节与章节改名共用。
func ToChapterTitleInput(req *TitleRequest) services.ChapterTitleInput {
	return services.ChapterTitleInput{Title: req.Title}
}

// TeacherCoursesResponse 为讲师课程列表响应。
type TeacherCoursesResponse struct {
	Courses []*vo.CourseWithAssets `json:"courses"`
}

// NewTeacherCoursesResponse 包装讲师课程列表，nil 渲染为空数组。
func NewTeacherCoursesResponse(courses []*vo.CourseWithAssets) *TeacherCoursesResponse {
	if courses == nil {
		courses = []*vo.CourseWithAssets{}
	}
	return &TeacherCoursesResponse{Courses: courses}
}
