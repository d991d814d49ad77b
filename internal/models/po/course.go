// Package po 定义面向持久化的数据对象（Persistent Objects），由 Repository 层使用。
// PO 对象映射 course schema 下的表结构，不直接暴露给 API 层。
package po

import (
	"time"

	"github.com/google/uuid"
)

// Course 表示 course.courses 表的数据库实体。
// 发布约束：is_published = true 要求至少存在一个已发布章节，仅在章节下线/删除时回收。
type Course struct {
	ID          uuid.UUID  `db:"id"`           // 主键
	OwnerID     uuid.UUID  `db:"owner_id"`     // 创建者，创建后不可变
	Title       string     `db:"title"`        // 课程标题
	Description string     `db:"description"`  // 课程描述，创建时为空串
	CategoryID  *uuid.UUID `db:"category_id"`  // 分类（可选）
	Price       *float64   `db:"price"`        // 价格（可选，>= 0）
	ImagePath   *string    `db:"image_path"`   // 封面对象路径（course-images 命名空间）
	IsPublished bool       `db:"is_published"` // 是否已发布
	CreatedAt   time.Time  `db:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at"`
}

// OwnedBy 判断课程是否归属于指定主体。
func (c *Course) OwnedBy(principal uuid.UUID) bool {
	return c != nil && principal != uuid.Nil && c.OwnerID == principal
}

// CourseListing 为已发布课程列表的查询结果，附带分类名称。
type CourseListing struct {
	Course
	CategoryName *string `db:"category_name"`
}

// Category 表示 course.categories 表。
type Category struct {
	ID        uuid.UUID `db:"id"`
	Name      string    `db:"name"`
	CreatedAt time.Time `db:"created_at"`
}
