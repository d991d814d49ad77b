package repositories

import "github.com/google/wire"

// ProviderSet 暴露 Repository 层的构造函数供 Wire 依赖注入使用。
var ProviderSet = wire.NewSet(
	NewOutboxRepository, // ← 孤儿候选事件
	NewInboxRepository,  // ← 对账任务去重
	NewCourseRepository,
	NewChapterRepository,
	NewAttachmentRepository,
	NewEncodedVideoRepository,
	NewCategoryRepository,
	NewEnrollmentRepository,
	NewAssetReferenceRepository,
)
