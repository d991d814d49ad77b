package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/bionicotaku/lingo-services-course/internal/models/po"

	"github.com/bionicotaku/lingo-utils/txmanager"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrCourseNotFound 表示课程不存在。
var ErrCourseNotFound = errors.New("course not found")

const courseColumns = `c.id, c.owner_id, c.title, c.description, c.category_id, c.price,
	c.image_path, c.is_published, c.created_at, c.updated_at`

// CourseRepository 提供 course.courses 的读写。
type CourseRepository struct {
	db  *pgxpool.Pool
	log *log.Helper
}

// NewCourseRepository 构造课程仓储。
func NewCourseRepository(db *pgxpool.Pool, logger log.Logger) *CourseRepository {
	return &CourseRepository{db: db, log: log.NewHelper(logger)}
}

// CreateCourseInput 为新建课程的字段。
type CreateCourseInput struct {
	ID      uuid.UUID
	OwnerID uuid.UUID
	Title   string
}

// Create 插入课程，描述为空串且未发布。
func (r *CourseRepository) Create(ctx context.Context, sess txmanager.Session, input CreateCourseInput) (*po.Course, error) {
	id := input.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	const query = `INSERT INTO course.courses AS c (id, owner_id, title, description, is_published)
VALUES ($1, $2, $3, '', false)
RETURNING ` + courseColumns
	rows, err := conn(r.db, sess).Query(ctx, query, id, input.OwnerID, input.Title)
	if err != nil {
		r.log.WithContext(ctx).Errorf("insert course failed: owner=%s err=%v", input.OwnerID, err)
		return nil, fmt.Errorf("insert course: %w", err)
	}
	course, err := pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByNameLax[po.Course])
	if err != nil {
		r.log.WithContext(ctx).Errorf("insert course failed: owner=%s err=%v", input.OwnerID, err)
		return nil, fmt.Errorf("insert course: %w", err)
	}
	return course, nil
}

// Get 按主键读取课程。
func (r *CourseRepository) Get(ctx context.Context, sess txmanager.Session, courseID uuid.UUID) (*po.Course, error) {
	return r.getOne(ctx, sess, `SELECT `+courseColumns+` FROM course.courses c WHERE c.id = $1`, courseID)
}

// GetForUpdate 在事务内读取并锁定课程行。
func (r *CourseRepository) GetForUpdate(ctx context.Context, sess txmanager.Session, courseID uuid.UUID) (*po.Course, error) {
	return r.getOne(ctx, sess, `SELECT `+courseColumns+` FROM course.courses c WHERE c.id = $1 FOR UPDATE`, courseID)
}

func (r *CourseRepository) getOne(ctx context.Context, sess txmanager.Session, query string, courseID uuid.UUID) (*po.Course, error) {
	rows, err := conn(r.db, sess).Query(ctx, query, courseID)
	if err != nil {
		return nil, fmt.Errorf("get course: %w", err)
	}
	course, err := pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByNameLax[po.Course])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCourseNotFound
		}
		return nil, fmt.Errorf("get course: %w", err)
	}
	return course, nil
}

// ListByOwner 返回指定作者的课程，按创建时间倒序。
func (r *CourseRepository) ListByOwner(ctx context.Context, sess txmanager.Session, ownerID uuid.UUID) ([]*po.Course, error) {
	const query = `SELECT ` + courseColumns + ` FROM course.courses c
WHERE c.owner_id = $1
ORDER BY c.created_at DESC`
	rows, err := conn(r.db, sess).Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list courses by owner: %w", err)
	}
	courses, err := pgx.CollectRows(rows, pgx.RowToAddrOfStructByNameLax[po.Course])
	if err != nil {
		return nil, fmt.Errorf("list courses by owner: %w", err)
	}
	return courses, nil
}

// ListPublishedFilter 为学员侧课程检索条件，零值字段不参与过滤。
type ListPublishedFilter struct {
	Title      string
	CategoryID *uuid.UUID
}

// ListPublished 返回已发布课程及分类名称，按创建时间倒序。
func (r *CourseRepository) ListPublished(ctx context.Context, sess txmanager.Session, filter ListPublishedFilter) ([]*po.CourseListing, error) {
	query := `SELECT ` + courseColumns + `, cat.name AS category_name
FROM course.courses c
LEFT JOIN course.categories cat ON cat.id = c.category_id
WHERE c.is_published = true`
	args := make([]any, 0, 2)
	if filter.Title != "" {
		args = append(args, likePattern(filter.Title))
		query += fmt.Sprintf(" AND c.title ILIKE $%d", len(args))
	}
	if filter.CategoryID != nil {
		args = append(args, *filter.CategoryID)
		query += fmt.Sprintf(" AND c.category_id = $%d", len(args))
	}
	query += " ORDER BY c.created_at DESC"

	rows, err := conn(r.db, sess).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list published courses: %w", err)
	}
	listings, err := pgx.CollectRows(rows, pgx.RowToAddrOfStructByNameLax[po.CourseListing])
	if err != nil {
		return nil, fmt.Errorf("list published courses: %w", err)
	}
	return listings, nil
}

// UpdateTitle 更新标题。
func (r *CourseRepository) UpdateTitle(ctx context.Context, sess txmanager.Session, courseID uuid.UUID, title string) error {
	return r.exec(ctx, sess, "update course title", `UPDATE course.courses SET title = $2, updated_at = now() WHERE id = $1`, courseID, title)
}

// UpdateDescription 更新描述。
func (r *CourseRepository) UpdateDescription(ctx context.Context, sess txmanager.Session, courseID uuid.UUID, description string) error {
	return r.exec(ctx, sess, "update course description", `UPDATE course.courses SET description = $2, updated_at = now() WHERE id = $1`, courseID, description)
}

// UpdateCategory 更新分类，nil 表示清空。
func (r *CourseRepository) UpdateCategory(ctx context.Context, sess txmanager.Session, courseID uuid.UUID, categoryID *uuid.UUID) error {
	return r.exec(ctx, sess, "update course category", `UPDATE course.courses SET category_id = $2, updated_at = now() WHERE id = $1`, courseID, categoryID)
}

// UpdatePrice 更新价格，nil 表示清空。
func (r *CourseRepository) UpdatePrice(ctx context.Context, sess txmanager.Session, courseID uuid.UUID, price *float64) error {
	return r.exec(ctx, sess, "update course price", `UPDATE course.courses SET price = $2, updated_at = now() WHERE id = $1`, courseID, price)
}

// UpdateImagePath 替换封面对象路径。
func (r *CourseRepository) UpdateImagePath(ctx context.Context, sess txmanager.Session, courseID uuid.UUID, path *string) error {
	return r.exec(ctx, sess, "update course image", `UPDATE course.courses SET image_path = $2, updated_at = now() WHERE id = $1`, courseID, nullableString(path))
}

// SetPublished 设置发布状态。
func (r *CourseRepository) SetPublished(ctx context.Context, sess txmanager.Session, courseID uuid.UUID, published bool) error {
	return r.exec(ctx, sess, "set course published", `UPDATE course.courses SET is_published = $2, updated_at = now() WHERE id = $1`, courseID, published)
}

// Delete 删除课程；章节与附件依赖外键级联。
func (r *CourseRepository) Delete(ctx context.Context, sess txmanager.Session, courseID uuid.UUID) error {
	return r.exec(ctx, sess, "delete course", `DELETE FROM course.courses WHERE id = $1`, courseID)
}

func (r *CourseRepository) exec(ctx context.Context, sess txmanager.Session, op, query string, courseID uuid.UUID, args ...any) error {
	tag, err := conn(r.db, sess).Exec(ctx, query, append([]any{courseID}, args...)...)
	if err != nil {
		r.log.WithContext(ctx).Errorf("%s failed: course=%s err=%v", op, courseID, err)
		return fmt.Errorf("%s: %w", op, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrCourseNotFound
	}
	return nil
}
