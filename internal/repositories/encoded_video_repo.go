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

// ErrEncodedVideoNotFound 表示章节没有编码记录。
var ErrEncodedVideoNotFound = errors.New("encoded video not found")

const encodedVideoColumns = `id, chapter_id, asset_id, playback_id, created_at`

// EncodedVideoRepository 提供 course.encoded_videos 的读写，每个章节至多一条。
type EncodedVideoRepository struct {
	db  *pgxpool.Pool
	log *log.Helper
}

// NewEncodedVideoRepository 构造编码记录仓储。
func NewEncodedVideoRepository(db *pgxpool.Pool, logger log.Logger) *EncodedVideoRepository {
	return &EncodedVideoRepository{db: db, log: log.NewHelper(logger)}
}

// GetByChapter 返回章节的编码记录。
func (r *EncodedVideoRepository) GetByChapter(ctx context.Context, sess txmanager.Session, chapterID uuid.UUID) (*po.EncodedVideo, error) {
	rows, err := conn(r.db, sess).Query(ctx, `SELECT `+encodedVideoColumns+` FROM course.encoded_videos WHERE chapter_id = $1`, chapterID)
	if err != nil {
		return nil, fmt.Errorf("get encoded video: %w", err)
	}
	rec, err := pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByName[po.EncodedVideo])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrEncodedVideoNotFound
		}
		return nil, fmt.Errorf("get encoded video: %w", err)
	}
	return rec, nil
}

// ListByChapters 批量读取编码记录，按章节 ID 建立索引。
func (r *EncodedVideoRepository) ListByChapters(ctx context.Context, sess txmanager.Session, chapterIDs []uuid.UUID) (map[uuid.UUID]*po.EncodedVideo, error) {
	result := make(map[uuid.UUID]*po.EncodedVideo, len(chapterIDs))
	if len(chapterIDs) == 0 {
		return result, nil
	}
	rows, err := conn(r.db, sess).Query(ctx, `SELECT `+encodedVideoColumns+` FROM course.encoded_videos WHERE chapter_id = ANY($1)`, chapterIDs)
	if err != nil {
		return nil, fmt.Errorf("list encoded videos: %w", err)
	}
	records, err := pgx.CollectRows(rows, pgx.RowToAddrOfStructByName[po.EncodedVideo])
	if err != nil {
		return nil, fmt.Errorf("list encoded videos: %w", err)
	}
	for _, rec := range records {
		result[rec.ChapterID] = rec
	}
	return result, nil
}

// Create 写入编码记录；章节已有记录时违反唯一约束。
func (r *EncodedVideoRepository) Create(ctx context.Context, sess txmanager.Session, chapterID uuid.UUID, asset po.EncodedAsset) (*po.EncodedVideo, error) {
	rows, err := conn(r.db, sess).Query(ctx, `INSERT INTO course.encoded_videos (id, chapter_id, asset_id, playback_id)
VALUES ($1, $2, $3, $4)
RETURNING `+encodedVideoColumns, uuid.New(), chapterID, asset.AssetID, asset.PlaybackID)
	if err != nil {
		r.log.WithContext(ctx).Errorf("insert encoded video failed: chapter=%s asset=%s err=%v", chapterID, asset.AssetID, err)
		return nil, fmt.Errorf("insert encoded video: %w", err)
	}
	rec, err := pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByName[po.EncodedVideo])
	if err != nil {
		r.log.WithContext(ctx).Errorf("insert encoded video failed: chapter=%s asset=%s err=%v", chapterID, asset.AssetID, err)
		return nil, fmt.Errorf("insert encoded video: %w", err)
	}
	return rec, nil
}

// Delete 按主键硬删除编码记录。
func (r *EncodedVideoRepository) Delete(ctx context.Context, sess txmanager.Session, id uuid.UUID) error {
	tag, err := conn(r.db, sess).Exec(ctx, `DELETE FROM course.encoded_videos WHERE id = $1`, id)
	if err != nil {
		r.log.WithContext(ctx).Errorf("delete encoded video failed: id=%s err=%v", id, err)
		return fmt.Errorf("delete encoded video: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrEncodedVideoNotFound
	}
	return nil
}
