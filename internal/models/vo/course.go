// Package vo 定义视图对象（View Objects），由 Service 层返回给控制器。
// VO 在 PO 基础上补充公开 URL、统计与购买状态等派生字段。
package vo

import (
	"time"

	"github.com/bionicotaku/lingo-services-course/internal/models/po"
	"github.com/google/uuid"
)

// CourseWithAssets 为课程及其封面公开地址。
type CourseWithAssets struct {
	ID               uuid.UUID  `json:"id"`
	OwnerID          uuid.UUID  `json:"owner_id"`
	Title            string     `json:"title"`
	Description      string     `json:"description"`
	CategoryID       *uuid.UUID `json:"category_id"`
	Price            *float64   `json:"price"`
	IsPublished      bool       `json:"is_published"`
	ImageStoragePath *string    `json:"image_storage_path"`
	ImageURL         *string    `json:"image_url"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// NewCourseWithAssets 由 PO 构造视图，resolve 负责把存储路径转换为公开 URL。
func NewCourseWithAssets(course *po.Course, resolve func(path string) string) *CourseWithAssets {
	if course == nil {
		return nil
	}
	view := &CourseWithAssets{
		ID:               course.ID,
		OwnerID:          course.OwnerID,
		Title:            course.Title,
		Description:      course.Description,
		CategoryID:       course.CategoryID,
		Price:            course.Price,
		IsPublished:      course.IsPublished,
		ImageStoragePath: course.ImagePath,
		CreatedAt:        course.CreatedAt,
		UpdatedAt:        course.UpdatedAt,
	}
	if course.ImagePath != nil && *course.ImagePath != "" && resolve != nil {
		url := resolve(*course.ImagePath)
		view.ImageURL = &url
	}
	return view
}

// CategoryView 为分类引用。
type CategoryView struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// CourseWithMeta 为学员侧课程列表条目。Progress 仅在已购买时计算，否则为 nil。
type CourseWithMeta struct {
	CourseWithAssets
	Category     *CategoryView `json:"category"`
	ChapterCount int           `json:"chapter_count"`
	HasPurchase  bool          `json:"has_purchase"`
	Progress     *float64      `json:"progress"`
}

// AttachmentWithURL 为附件及其公开下载地址。
type AttachmentWithURL struct {
	ID          uuid.UUID `json:"id"`
	CourseID    uuid.UUID `json:"course_id"`
	Name        string    `json:"name"`
	StoragePath string    `json:"storage_path"`
	PublicURL   string    `json:"public_url"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewAttachmentWithURL 构造附件视图。
func NewAttachmentWithURL(att *po.Attachment, resolve func(path string) string) *AttachmentWithURL {
	if att == nil {
		return nil
	}
	view := &AttachmentWithURL{
		ID:          att.ID,
		CourseID:    att.CourseID,
		Name:        att.Name,
		StoragePath: att.StoragePath,
		CreatedAt:   att.CreatedAt,
	}
	if resolve != nil {
		view.PublicURL = resolve(att.StoragePath)
	}
	return view
}

// CourseEditor 为讲师编辑页所需的聚合数据。
type CourseEditor struct {
	Course      *CourseWithAssets    `json:"course"`
	Categories  []*CategoryView      `json:"categories"`
	Attachments []*AttachmentWithURL `json:"attachments"`
	Chapters    []*ChapterWithMeta   `json:"chapters"`
}

// SearchResult 为检索页返回的分类与课程列表。
type SearchResult struct {
	Categories []*CategoryView   `json:"categories"`
	Courses    []*CourseWithMeta `json:"courses"`
}

// NewCategoryView 构造分类视图。
func NewCategoryView(category *po.Category) *CategoryView {
	if category == nil {
		return nil
	}
	return &CategoryView{ID: category.ID, Name: category.Name}
}
