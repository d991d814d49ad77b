package services

import (
	"github.com/bionicotaku/lingo-services-course/internal/repositories"

	"github.com/google/wire"
)

// ProviderSet 暴露课程服务层构造器。
var ProviderSet = wire.NewSet(
	NewPayloadValidator,
	NewOwnershipGuard,
	NewOutboxOrphanReporter,
	wire.Bind(new(OrphanReporter), new(*OutboxOrphanReporter)),
	NewSagaExecutor,
	wire.Struct(new(CourseServiceDeps), "*"),
	NewCourseService,
	wire.Struct(new(ChapterServiceDeps), "*"),
	NewChapterService,
	NewQueryService,
	wire.Bind(new(CourseRepo), new(*repositories.CourseRepository)),
	wire.Bind(new(ChapterRepo), new(*repositories.ChapterRepository)),
	wire.Bind(new(AttachmentRepo), new(*repositories.AttachmentRepository)),
	wire.Bind(new(EncodedVideoRepo), new(*repositories.EncodedVideoRepository)),
	wire.Bind(new(CategoryRepo), new(*repositories.CategoryRepository)),
	wire.Bind(new(EnrollmentRepo), new(*repositories.EnrollmentRepository)),
	wire.Bind(new(OutboxWriter), new(*repositories.OutboxRepository)),
)
