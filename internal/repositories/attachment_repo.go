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

// ErrAttachmentNotFound 表示附件不存在。
var ErrAttachmentNotFound = errors.New("attachment not found")

const attachmentColumns = `id, course_id, name, storage_path, created_at`

// AttachmentRepository 提供 course.attachments 的读写。
type AttachmentRepository struct {
	db  *pgxpool.Pool
	log *log.Helper
}

// NewAttachmentRepository 构造附件仓储。
func NewAttachmentRepository(db *pgxpool.Pool, logger log.Logger) *AttachmentRepository {
	return &AttachmentRepository{db: db, log: log.NewHelper(logger)}
}

// CreateAttachmentInput 为新增附件的字段。
type CreateAttachmentInput struct {
	ID          uuid.UUID
	CourseID    uuid.UUID
	Name        string
	StoragePath string
}

// Create 插入附件记录。
func (r *AttachmentRepository) Create(ctx context.Context, sess txmanager.Session, input CreateAttachmentInput) (*po.Attachment, error) {
	id := input.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	rows, err := conn(r.db, sess).Query(ctx, `INSERT INTO course.attachments (id, course_id, name, storage_path)
VALUES ($1, $2, $3, $4)
RETURNING `+attachmentColumns, id, input.CourseID, input.Name, input.StoragePath)
	if err != nil {
		r.log.WithContext(ctx).Errorf("insert attachment failed: course=%s err=%v", input.CourseID, err)
		return nil, fmt.Errorf("insert attachment: %w", err)
	}
	att, err := pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByName[po.Attachment])
	if err != nil {
		r.log.WithContext(ctx).Errorf("insert attachment failed: course=%s err=%v", input.CourseID, err)
		return nil, fmt.Errorf("insert attachment: %w", err)
	}
	return att, nil
}

// Get 按主键读取附件。
func (r *AttachmentRepository) Get(ctx context.Context, sess txmanager.Session, attachmentID uuid.UUID) (*po.Attachment, error) {
	rows, err := conn(r.db, sess).Query(ctx, `SELECT `+attachmentColumns+` FROM course.attachments WHERE id = $1`, attachmentID)
	if err != nil {
		return nil, fmt.Errorf("get attachment: %w", err)
	}
	att, err := pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByName[po.Attachment])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAttachmentNotFound
		}
		return nil, fmt.Errorf("get attachment: %w", err)
	}
	return att, nil
}

// ListByCourse 返回课程附件，按创建时间倒序。
func (r *AttachmentRepository) ListByCourse(ctx context.Context, sess txmanager.Session, courseID uuid.UUID) ([]*po.Attachment, error) {
	rows, err := conn(r.db, sess).Query(ctx,
		`SELECT `+attachmentColumns+` FROM course.attachments WHERE course_id = $1 ORDER BY created_at DESC`, courseID)
	if err != nil {
		return nil, fmt.Errorf("list attachments: %w", err)
	}
	atts, err := pgx.CollectRows(rows, pgx.RowToAddrOfStructByName[po.Attachment])
	if err != nil {
		return nil, fmt.Errorf("list attachments: %w", err)
	}
	return atts, nil
}

// Delete 删除附件记录。
func (r *AttachmentRepository) Delete(ctx context.Context, sess txmanager.Session, attachmentID uuid.UUID) error {
	tag, err := conn(r.db, sess).Exec(ctx, `DELETE FROM course.attachments WHERE id = $1`, attachmentID)
	if err != nil {
		r.log.WithContext(ctx).Errorf("delete attachment failed: id=%s err=%v", attachmentID, err)
		return fmt.Errorf("delete attachment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAttachmentNotFound
	}
	return nil
}

// DeleteByCourse 删除课程下全部附件记录。
func (r *AttachmentRepository) DeleteByCourse(ctx context.Context, sess txmanager.Session, courseID uuid.UUID) (int64, error) {
	tag, err := conn(r.db, sess).Exec(ctx, `DELETE FROM course.attachments WHERE course_id = $1`, courseID)
	if err != nil {
		r.log.WithContext(ctx).Errorf("delete attachments failed: course=%s err=%v", courseID, err)
		return 0, fmt.Errorf("delete attachments by course: %w", err)
	}
	return tag.RowsAffected(), nil
}
