// Package gcs 提供与 Google Cloud Storage 交互的基础设施封装。
// 课程封面、附件与章节视频分别落在三个 bucket 中，互不交叉。
package gcs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/gabriel-vasile/mimetype"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/uuid"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"

	"github.com/bionicotaku/lingo-services-course/internal/models/po"
)

const (
	defaultPublicBaseURL = "https://storage.googleapis.com"
	sniffLen             = 3072
)

// Config 描述对象存储适配器配置。
type Config struct {
	ProjectID             string
	Endpoint              string
	WithoutAuthentication bool
	PublicBaseURL         string
	UploadTimeout         time.Duration
	Buckets               map[po.AssetKind]string
}

// AssetStore 负责上传、删除对象并生成公开地址。
type AssetStore struct {
	client        *storage.Client
	buckets       map[po.AssetKind]string
	publicBaseURL string
	uploadTimeout time.Duration
	newID         func() uuid.UUID
	log           *log.Helper
}

// Option 定义可选配置。
type Option func(*AssetStore)

// WithIDGenerator 覆盖路径前缀使用的 ID 生成函数，便于测试。
func WithIDGenerator(fn func() uuid.UUID) Option {
	return func(s *AssetStore) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// NewClient 创建 storage.Client，Endpoint 非空时指向模拟器。
// 需要认证时在启动阶段解析默认凭据。
func NewClient(ctx context.Context, cfg Config) (*storage.Client, func(), error) {
	var opts []option.ClientOption
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint))
	}
	if cfg.WithoutAuthentication {
		opts = append(opts, option.WithoutAuthentication())
	} else {
		creds, err := google.FindDefaultCredentials(ctx, storage.ScopeReadWrite)
		if err != nil {
			return nil, nil, fmt.Errorf("init gcs client: find default credentials: %w", err)
		}
		opts = append(opts, option.WithCredentials(creds))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("init gcs client: %w", err)
	}
	return client, func() { _ = client.Close() }, nil
}

// NewAssetStore 构造 AssetStore，三个命名空间必须都配置 bucket。
func NewAssetStore(client *storage.Client, cfg Config, logger log.Logger, opts ...Option) (*AssetStore, error) {
	if client == nil {
		return nil, errors.New("gcs asset store: client is required")
	}
	buckets := make(map[po.AssetKind]string, 3)
	for _, kind := range []po.AssetKind{po.AssetKindCourseImage, po.AssetKindAttachment, po.AssetKindChapterVideo} {
		bucket := strings.TrimSpace(cfg.Buckets[kind])
		if bucket == "" {
			return nil, fmt.Errorf("gcs asset store: bucket for %s is required", kind)
		}
		buckets[kind] = bucket
	}

	store := &AssetStore{
		client:        client,
		buckets:       buckets,
		publicBaseURL: strings.TrimRight(firstNonEmpty(cfg.PublicBaseURL, defaultPublicBaseURL), "/"),
		uploadTimeout: cfg.UploadTimeout,
		newID:         uuid.New,
		log:           log.NewHelper(logger),
	}
	for _, opt := range opts {
		opt(store)
	}
	return store, nil
}

// Upload 写入新对象并返回存储路径；对象以 DoesNotExist 条件创建，路径冲突时失败。
func (s *AssetStore) Upload(ctx context.Context, kind po.AssetKind, owner po.AssetOwner, file po.UploadFile) (string, error) {
	bucket, err := s.bucket(kind)
	if err != nil {
		return "", err
	}
	if file.Body == nil {
		return "", errors.New("gcs upload: empty file")
	}
	objectPath := ObjectPath(kind, owner, file.Name, s.newID())

	body, contentType, err := sniffContentType(file)
	if err != nil {
		return "", fmt.Errorf("gcs upload: read file: %w", err)
	}

	if s.uploadTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.uploadTimeout)
		defer cancel()
	}
	writeCtx, abort := context.WithCancel(ctx)
	defer abort()

	w := s.client.Bucket(bucket).Object(objectPath).If(storage.Conditions{DoesNotExist: true}).NewWriter(writeCtx)
	w.ContentType = contentType
	if _, err := io.Copy(w, body); err != nil {
		abort()
		_ = w.Close()
		s.log.WithContext(ctx).Errorf("gcs upload failed: bucket=%s object=%s err=%v", bucket, objectPath, err)
		return "", fmt.Errorf("gcs upload: write: %w", err)
	}
	if err := w.Close(); err != nil {
		s.log.WithContext(ctx).Errorf("gcs upload failed: bucket=%s object=%s err=%v", bucket, objectPath, err)
		return "", fmt.Errorf("gcs upload: close: %w", err)
	}
	s.log.WithContext(ctx).Debugf("gcs object uploaded: bucket=%s object=%s content_type=%s", bucket, objectPath, contentType)
	return objectPath, nil
}

// Remove 删除对象；对象不存在视为成功。
func (s *AssetStore) Remove(ctx context.Context, kind po.AssetKind, objectPath string) error {
	bucket, err := s.bucket(kind)
	if err != nil {
		return err
	}
	if objectPath == "" {
		return nil
	}
	if err := s.client.Bucket(bucket).Object(objectPath).Delete(ctx); err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil
		}
		s.log.WithContext(ctx).Warnf("gcs remove failed: bucket=%s object=%s err=%v", bucket, objectPath, err)
		return fmt.Errorf("gcs remove: %w", err)
	}
	return nil
}

// PublicURL 返回对象的公开地址，不做任何 I/O。
func (s *AssetStore) PublicURL(kind po.AssetKind, objectPath string) string {
	bucket := s.buckets[kind]
	segments := strings.Split(objectPath, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return s.publicBaseURL + "/" + bucket + "/" + strings.Join(segments, "/")
}

func (s *AssetStore) bucket(kind po.AssetKind) (string, error) {
	bucket, ok := s.buckets[kind]
	if !ok || !kind.Valid() {
		return "", fmt.Errorf("gcs: unsupported asset kind %q", kind)
	}
	return bucket, nil
}

// ObjectPath 生成对象路径：<courseID>/<id>-<filename>，章节视频为 <courseID>/<chapterID>/<id>-<filename>。
func ObjectPath(kind po.AssetKind, owner po.AssetOwner, filename string, id uuid.UUID) string {
	name := sanitizeFilename(filename)
	if kind == po.AssetKindChapterVideo && owner.ChapterID != uuid.Nil {
		return fmt.Sprintf("%s/%s/%s-%s", owner.CourseID, owner.ChapterID, id, name)
	}
	return fmt.Sprintf("%s/%s-%s", owner.CourseID, id, name)
}

func sanitizeFilename(name string) string {
	base := path.Base(strings.ReplaceAll(strings.TrimSpace(name), `\`, "/"))
	if base == "." || base == "/" || base == "" {
		return "file"
	}
	return base
}

// sniffContentType 在未声明类型时读取文件头部识别 MIME，并拼回完整读取流。
func sniffContentType(file po.UploadFile) (io.Reader, string, error) {
	if ct := strings.TrimSpace(file.ContentType); ct != "" && ct != "application/octet-stream" {
		return file.Body, ct, nil
	}
	head := make([]byte, sniffLen)
	n, err := io.ReadFull(file.Body, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, "", err
	}
	head = head[:n]
	detected := mimetype.Detect(head)
	return io.MultiReader(bytes.NewReader(head), file.Body), detected.String(), nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
