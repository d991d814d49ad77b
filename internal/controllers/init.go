package controllers

import "github.com/google/wire"

// ProviderSet 暴露 HTTP Handler 的构造函数。
var ProviderSet = wire.NewSet(
	NewBaseHandler,
	NewCourseHandler,
	NewChapterHandler,
	NewQueryHandler,
)
