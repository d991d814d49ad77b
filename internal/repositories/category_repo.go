package repositories

import (
	"context"
	"fmt"

	"github.com/bionicotaku/lingo-services-course/internal/models/po"

	"github.com/bionicotaku/lingo-utils/txmanager"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CategoryRepository 只读访问 course.categories。
type CategoryRepository struct {
	db *pgxpool.Pool
}

// NewCategoryRepository 构造分类仓储。
func NewCategoryRepository(db *pgxpool.Pool) *CategoryRepository {
	return &CategoryRepository{db: db}
}

// List 返回全部分类，按创建时间倒序。
func (r *CategoryRepository) List(ctx context.Context, sess txmanager.Session) ([]*po.Category, error) {
	rows, err := conn(r.db, sess).Query(ctx, `SELECT id, name, created_at FROM course.categories ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	categories, err := pgx.CollectRows(rows, pgx.RowToAddrOfStructByName[po.Category])
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}

// Exists 判断分类是否存在。
func (r *CategoryRepository) Exists(ctx context.Context, sess txmanager.Session, categoryID uuid.UUID) (bool, error) {
	var exists bool
	if err := conn(r.db, sess).QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM course.categories WHERE id = $1)`, categoryID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check category: %w", err)
	}
	return exists, nil
}
