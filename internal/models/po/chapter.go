package po

import (
	"time"

	"github.com/google/uuid"
)

// Chapter 表示 course.chapters 表，position 在课程内唯一且只追加。
type Chapter struct {
	ID          uuid.UUID `db:"id"`
	CourseID    uuid.UUID `db:"course_id"`
	Position    int32     `db:"position"`
	Title       string    `db:"title"`
	Description *string   `db:"description"`
	IsFree      bool      `db:"is_free"`
	IsPublished bool      `db:"is_published"`
	VideoPath   *string   `db:"video_path"` // chapter-videos 命名空间内的对象路径
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

// EncodedVideo 表示 course.encoded_videos 表，每个章节至多一条记录。
type EncodedVideo struct {
	ID         uuid.UUID `db:"id"`
	ChapterID  uuid.UUID `db:"chapter_id"`
	AssetID    string    `db:"asset_id"`
	PlaybackID string    `db:"playback_id"`
	CreatedAt  time.Time `db:"created_at"`
}

// Attachment 表示 course.attachments 表。
type Attachment struct {
	ID          uuid.UUID `db:"id"`
	CourseID    uuid.UUID `db:"course_id"`
	Name        string    `db:"name"`
	StoragePath string    `db:"storage_path"`
	CreatedAt   time.Time `db:"created_at"`
}
