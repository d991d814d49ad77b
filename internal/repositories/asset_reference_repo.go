package repositories

import (
	"context"
	"fmt"

	"github.com/bionicotaku/lingo-services-course/internal/models/po"

	"github.com/jackc/pgx/v5/pgxpool"
)

// AssetReferenceRepository 判断外部资源是否仍被活跃行引用，供对账任务在删除前确认。
type AssetReferenceRepository struct {
	db *pgxpool.Pool
}

// NewAssetReferenceRepository 构造引用检查仓储。
func NewAssetReferenceRepository(db *pgxpool.Pool) *AssetReferenceRepository {
	return &AssetReferenceRepository{db: db}
}

// IsObjectReferenced 判断对象路径是否仍被对应命名空间的行引用。
func (r *AssetReferenceRepository) IsObjectReferenced(ctx context.Context, kind po.AssetKind, path string) (bool, error) {
	var query string
	switch kind {
	case po.AssetKindCourseImage:
		query = `SELECT EXISTS (SELECT 1 FROM course.courses WHERE image_path = $1)`
	case po.AssetKindAttachment:
		query = `SELECT EXISTS (SELECT 1 FROM course.attachments WHERE storage_path = $1)`
	case po.AssetKindChapterVideo:
		query = `SELECT EXISTS (SELECT 1 FROM course.chapters WHERE video_path = $1)`
	default:
		return false, fmt.Errorf("unsupported asset kind %q", kind)
	}
	var referenced bool
	if err := r.db.QueryRow(ctx, query, path).Scan(&referenced); err != nil {
		return false, fmt.Errorf("check object reference: %w", err)
	}
	return referenced, nil
}

// IsAssetLive 判断编码资源是否仍有记录指向。
func (r *AssetReferenceRepository) IsAssetLive(ctx context.Context, assetID string) (bool, error) {
	var live bool
	if err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM course.encoded_videos WHERE asset_id = $1)`, assetID).Scan(&live); err != nil {
		return false, fmt.Errorf("check encoded asset reference: %w", err)
	}
	return live, nil
}
