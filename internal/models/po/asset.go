package po

import (
	"io"

	"github.com/google/uuid"
)

// AssetKind 选择对象存储中的命名空间，三类资源互不交叉。
type AssetKind string

const (
	AssetKindCourseImage  AssetKind = "course-images"
	AssetKindAttachment   AssetKind = "attachments"
	AssetKindChapterVideo AssetKind = "chapter-videos"
)

// Valid 判断命名空间是否受支持。
func (k AssetKind) Valid() bool {
	switch k {
	case AssetKindCourseImage, AssetKindAttachment, AssetKindChapterVideo:
		return true
	default:
		return false
	}
}

// AssetOwner 描述对象归属，用于生成存储路径。ChapterID 仅对章节视频有效。
type AssetOwner struct {
	CourseID  uuid.UUID
	ChapterID uuid.UUID
}

// UploadFile 为待上传的二进制内容。
type UploadFile struct {
	Name        string
	ContentType string
	Size        int64
	Body        io.Reader
}

// Empty 判断文件是否为空。
func (f UploadFile) Empty() bool {
	return f.Body == nil || f.Size <= 0
}

// EncodedAsset 为视频编码服务返回的资源标识。
type EncodedAsset struct {
	AssetID    string
	PlaybackID string
}
