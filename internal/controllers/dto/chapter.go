package dto

import "github.com/bionicotaku/lingo-services-course/internal/services"

// AccessRequest 为章节免费试看开关请求体。
type AccessRequest struct {
	IsFree *bool `json:"is_free"`
}

// ToChapterDescriptionInput 映射为服务层输入。
func ToChapterDescriptionInput(req *DescriptionRequest) services.ChapterDescriptionInput {
	return services.ChapterDescriptionInput{Description: req.Description}
}

// ToChapterAccessInput 映射为服务层输入。
func ToChapterAccessInput(req *AccessRequest) services.ChapterAccessInput {
	return services.ChapterAccessInput{IsFree: req.IsFree}
}
