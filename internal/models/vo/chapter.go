package vo

import (
	"time"

	"github.com/bionicotaku/lingo-services-course/internal/models/po"
	"github.com/google/uuid"
)

// EncodedVideoView 为视频编码记录。
type EncodedVideoView struct {
	AssetID    string `json:"asset_id"`
	PlaybackID string `json:"playback_id"`
}

// ChapterWithMeta 为章节、编码记录与视频公开地址。
type ChapterWithMeta struct {
	ID               uuid.UUID         `json:"id"`
	CourseID         uuid.UUID         `json:"course_id"`
	Position         int32             `json:"position"`
	Title            string            `json:"title"`
	Description      *string           `json:"description"`
	IsFree           bool              `json:"is_free"`
	IsPublished      bool              `json:"is_published"`
	VideoStoragePath *string           `json:"video_storage_path"`
	VideoURL         *string           `json:"video_url"`
	EncodedVideo     *EncodedVideoView `json:"encoded_video"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
}

// NewChapterWithMeta 构造章节视图，encoded 可为 nil。
func NewChapterWithMeta(chapter *po.Chapter, encoded *po.EncodedVideo, resolve func(path string) string) *ChapterWithMeta {
	if chapter == nil {
		return nil
	}
	view := &ChapterWithMeta{
		ID:               chapter.ID,
		CourseID:         chapter.CourseID,
		Position:         chapter.Position,
		Title:            chapter.Title,
		Description:      chapter.Description,
		IsFree:           chapter.IsFree,
		IsPublished:      chapter.IsPublished,
		VideoStoragePath: chapter.VideoPath,
		CreatedAt:        chapter.CreatedAt,
		UpdatedAt:        chapter.UpdatedAt,
	}
	if chapter.VideoPath != nil && *chapter.VideoPath != "" && resolve != nil {
		url := resolve(*chapter.VideoPath)
		view.VideoURL = &url
	}
	if encoded != nil {
		view.EncodedVideo = &EncodedVideoView{AssetID: encoded.AssetID, PlaybackID: encoded.PlaybackID}
	}
	return view
}

// MutationResult 为写操作的确认信息。Confetti 仅在课程发布时为 true。
type MutationResult struct {
	Message  string `json:"message"`
	Confetti bool   `json:"confetti,omitempty"`
}

// CreatedCourse 为创建课程后的返回。
type CreatedCourse struct {
	MutationResult
	Course *CourseWithAssets `json:"course"`
}
