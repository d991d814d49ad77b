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

// ErrChapterNotFound 表示章节不存在。
var ErrChapterNotFound = errors.New("chapter not found")

const chapterColumns = `id, course_id, position, title, description, is_free, is_published,
	video_path, created_at, updated_at`

// ChapterRepository 提供 course.chapters 的读写。
type ChapterRepository struct {
	db  *pgxpool.Pool
	log *log.Helper
}

// NewChapterRepository 构造章节仓储。
func NewChapterRepository(db *pgxpool.Pool, logger log.Logger) *ChapterRepository {
	return &ChapterRepository{db: db, log: log.NewHelper(logger)}
}

// CreateChapterInput 为新建章节的字段。
type CreateChapterInput struct {
	ID       uuid.UUID
	CourseID uuid.UUID
	Title    string
	Position int32
}

// Create 插入章节，(course_id, position) 唯一。
func (r *ChapterRepository) Create(ctx context.Context, sess txmanager.Session, input CreateChapterInput) (*po.Chapter, error) {
	id := input.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	const query = `INSERT INTO course.chapters (id, course_id, position, title)
VALUES ($1, $2, $3, $4)
RETURNING ` + chapterColumns
	rows, err := conn(r.db, sess).Query(ctx, query, id, input.CourseID, input.Position, input.Title)
	if err != nil {
		r.log.WithContext(ctx).Errorf("insert chapter failed: course=%s position=%d err=%v", input.CourseID, input.Position, err)
		return nil, fmt.Errorf("insert chapter: %w", err)
	}
	chapter, err := pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByName[po.Chapter])
	if err != nil {
		r.log.WithContext(ctx).Errorf("insert chapter failed: course=%s position=%d err=%v", input.CourseID, input.Position, err)
		return nil, fmt.Errorf("insert chapter: %w", err)
	}
	return chapter, nil
}

// MaxPosition 返回课程内最大章节序号，无章节时为 0。
func (r *ChapterRepository) MaxPosition(ctx context.Context, sess txmanager.Session, courseID uuid.UUID) (int32, error) {
	var maxPos int32
	err := conn(r.db, sess).QueryRow(ctx,
		`SELECT COALESCE(MAX(position), 0)::int4 FROM course.chapters WHERE course_id = $1`, courseID).Scan(&maxPos)
	if err != nil {
		return 0, fmt.Errorf("max chapter position: %w", err)
	}
	return maxPos, nil
}

// Get 按主键读取章节。
func (r *ChapterRepository) Get(ctx context.Context, sess txmanager.Session, chapterID uuid.UUID) (*po.Chapter, error) {
	rows, err := conn(r.db, sess).Query(ctx, `SELECT `+chapterColumns+` FROM course.chapters WHERE id = $1`, chapterID)
	if err != nil {
		return nil, fmt.Errorf("get chapter: %w", err)
	}
	chapter, err := pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByName[po.Chapter])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrChapterNotFound
		}
		return nil, fmt.Errorf("get chapter: %w", err)
	}
	return chapter, nil
}

// ListByCourse 返回课程全部章节，按序号升序。
func (r *ChapterRepository) ListByCourse(ctx context.Context, sess txmanager.Session, courseID uuid.UUID) ([]*po.Chapter, error) {
	rows, err := conn(r.db, sess).Query(ctx,
		`SELECT `+chapterColumns+` FROM course.chapters WHERE course_id = $1 ORDER BY position ASC`, courseID)
	if err != nil {
		return nil, fmt.Errorf("list chapters: %w", err)
	}
	chapters, err := pgx.CollectRows(rows, pgx.RowToAddrOfStructByName[po.Chapter])
	if err != nil {
		return nil, fmt.Errorf("list chapters: %w", err)
	}
	return chapters, nil
}

// UpdateTitle 更新章节标题。
func (r *ChapterRepository) UpdateTitle(ctx context.Context, sess txmanager.Session, chapterID uuid.UUID, title string) error {
	return r.exec(ctx, sess, "update chapter title", `UPDATE course.chapters SET title = $2, updated_at = now() WHERE id = $1`, chapterID, title)
}

// UpdateDescription 更新章节描述。
func (r *ChapterRepository) UpdateDescription(ctx context.Context, sess txmanager.Session, chapterID uuid.UUID, description string) error {
	return r.exec(ctx, sess, "update chapter description", `UPDATE course.chapters SET description = $2, updated_at = now() WHERE id = $1`, chapterID, description)
}

// UpdateAccess 更新是否免费试看。
func (r *ChapterRepository) UpdateAccess(ctx context.Context, sess txmanager.Session, chapterID uuid.UUID, isFree bool) error {
	return r.exec(ctx, sess, "update chapter access", `UPDATE course.chapters SET is_free = $2, updated_at = now() WHERE id = $1`, chapterID, isFree)
}

// UpdateVideoPath 替换章节视频对象路径。
func (r *ChapterRepository) UpdateVideoPath(ctx context.Context, sess txmanager.Session, chapterID uuid.UUID, path *string) error {
	return r.exec(ctx, sess, "update chapter video", `UPDATE course.chapters SET video_path = $2, updated_at = now() WHERE id = $1`, chapterID, nullableString(path))
}

// SetPublished 设置章节发布状态。
func (r *ChapterRepository) SetPublished(ctx context.Context, sess txmanager.Session, chapterID uuid.UUID, published bool) error {
	return r.exec(ctx, sess, "set chapter published", `UPDATE course.chapters SET is_published = $2, updated_at = now() WHERE id = $1`, chapterID, published)
}

// Delete 删除章节。
func (r *ChapterRepository) Delete(ctx context.Context, sess txmanager.Session, chapterID uuid.UUID) error {
	return r.exec(ctx, sess, "delete chapter", `DELETE FROM course.chapters WHERE id = $1`, chapterID)
}

// DeleteByCourse 删除课程下全部章节，返回删除数量。
func (r *ChapterRepository) DeleteByCourse(ctx context.Context, sess txmanager.Session, courseID uuid.UUID) (int64, error) {
	tag, err := conn(r.db, sess).Exec(ctx, `DELETE FROM course.chapters WHERE course_id = $1`, courseID)
	if err != nil {
		r.log.WithContext(ctx).Errorf("delete chapters failed: course=%s err=%v", courseID, err)
		return 0, fmt.Errorf("delete chapters by course: %w", err)
	}
	return tag.RowsAffected(), nil
}

// CountPublished 统计课程内已发布章节数量。
func (r *ChapterRepository) CountPublished(ctx context.Context, sess txmanager.Session, courseID uuid.UUID) (int, error) {
	var count int
	err := conn(r.db, sess).QueryRow(ctx,
		`SELECT COUNT(*)::int4 FROM course.chapters WHERE course_id = $1 AND is_published = true`, courseID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count published chapters: %w", err)
	}
	return count, nil
}

// ListPublishedIDs 返回课程内已发布章节 ID。
func (r *ChapterRepository) ListPublishedIDs(ctx context.Context, sess txmanager.Session, courseID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := conn(r.db, sess).Query(ctx,
		`SELECT id FROM course.chapters WHERE course_id = $1 AND is_published = true ORDER BY position ASC`, courseID)
	if err != nil {
		return nil, fmt.Errorf("list published chapter ids: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
	if err != nil {
		return nil, fmt.Errorf("list published chapter ids: %w", err)
	}
	return ids, nil
}

// CountPublishedByCourses 批量统计已发布章节数量，未出现的课程计为 0。
func (r *ChapterRepository) CountPublishedByCourses(ctx context.Context, sess txmanager.Session, courseIDs []uuid.UUID) (map[uuid.UUID]int, error) {
	counts := make(map[uuid.UUID]int, len(courseIDs))
	if len(courseIDs) == 0 {
		return counts, nil
	}
	rows, err := conn(r.db, sess).Query(ctx, `SELECT course_id, COUNT(*)::int4
FROM course.chapters
WHERE course_id = ANY($1) AND is_published = true
GROUP BY course_id`, courseIDs)
	if err != nil {
		return nil, fmt.Errorf("count published chapters by courses: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			courseID uuid.UUID
			count    int
		)
		if err := rows.Scan(&courseID, &count); err != nil {
			return nil, fmt.Errorf("scan chapter count: %w", err)
		}
		counts[courseID] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("count published chapters by courses: %w", err)
	}
	return counts, nil
}

func (r *ChapterRepository) exec(ctx context.Context, sess txmanager.Session, op, query string, chapterID uuid.UUID, args ...any) error {
	tag, err := conn(r.db, sess).Exec(ctx, query, append([]any{chapterID}, args...)...)
	if err != nil {
		r.log.WithContext(ctx).Errorf("%s failed: chapter=%s err=%v", op, chapterID, err)
		return fmt.Errorf("%s: %w", op, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrChapterNotFound
	}
	return nil
}
