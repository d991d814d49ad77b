package repositories

import (
	"context"
	"fmt"

	"github.com/bionicotaku/lingo-utils/txmanager"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// EnrollmentRepository 只读访问 course.purchases 与 course.progress_marks。
// 两张表由其他系统写入。
type EnrollmentRepository struct {
	db *pgxpool.Pool
}

// NewEnrollmentRepository 构造选课仓储。
func NewEnrollmentRepository(db *pgxpool.Pool) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

// PurchasedCourseIDs 返回用户在给定课程中已购买的集合。
func (r *EnrollmentRepository) PurchasedCourseIDs(ctx context.Context, sess txmanager.Session, userID uuid.UUID, courseIDs []uuid.UUID) (map[uuid.UUID]bool, error) {
	purchased := make(map[uuid.UUID]bool, len(courseIDs))
	if userID == uuid.Nil || len(courseIDs) == 0 {
		return purchased, nil
	}
	rows, err := conn(r.db, sess).Query(ctx, `SELECT DISTINCT course_id FROM course.purchases
WHERE user_id = $1 AND course_id = ANY($2)`, userID, courseIDs)
	if err != nil {
		return nil, fmt.Errorf("list purchases: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
	if err != nil {
		return nil, fmt.Errorf("list purchases: %w", err)
	}
	for _, id := range ids {
		purchased[id] = true
	}
	return purchased, nil
}

// CountCompleted 统计用户在给定章节中已完成的数量。
func (r *EnrollmentRepository) CountCompleted(ctx context.Context, sess txmanager.Session, userID uuid.UUID, chapterIDs []uuid.UUID) (int, error) {
	if userID == uuid.Nil || len(chapterIDs) == 0 {
		return 0, nil
	}
	var count int
	err := conn(r.db, sess).QueryRow(ctx, `SELECT COUNT(DISTINCT chapter_id)::int4 FROM course.progress_marks
WHERE user_id = $1 AND chapter_id = ANY($2) AND is_completed = true`, userID, chapterIDs).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count completed chapters: %w", err)
	}
	return count, nil
}
