package controllers

import (
	"errors"
	stdhttp "net/http"

	"github.com/bionicotaku/lingo-services-course/internal/models/po"
	"github.com/bionicotaku/lingo-services-course/internal/services"

	khttp "github.com/go-kratos/kratos/v2/transport/http"
)

// multipartMemory 为解析 multipart 时保留在内存中的上限，超出部分落到临时文件。
const multipartMemory = 32 << 20

// formFile 读取 multipart 中名为 field 的文件。
// 字段缺失或请求不是 multipart 时返回空文件，由服务层在归属校验之后报告；
// 返回的 release 负责关闭文件并清理临时文件。
func (h *BaseHandler) formFile(ctx khttp.Context, field string) (po.UploadFile, func(), error) {
	release := func() {}
	req := ctx.Request()
	req.Body = stdhttp.MaxBytesReader(ctx.Response(), req.Body, h.MaxUploadBytes())
	if err := req.ParseMultipartForm(multipartMemory); err != nil {
		if errors.Is(err, stdhttp.ErrNotMultipart) {
			return po.UploadFile{}, release, nil
		}
		var tooLarge *stdhttp.MaxBytesError
		if errors.As(err, &tooLarge) {
			return po.UploadFile{}, release, services.ErrValidation(map[string]string{field: "exceeds maximum upload size"})
		}
		return po.UploadFile{}, release, services.ErrValidation(map[string]string{field: "malformed multipart body"})
	}
	release = func() {
		if req.MultipartForm != nil {
			_ = req.MultipartForm.RemoveAll()
		}
	}

	file, header, err := req.FormFile(field)
	if err != nil {
		if errors.Is(err, stdhttp.ErrMissingFile) {
			return po.UploadFile{}, release, nil
		}
		return po.UploadFile{}, release, services.ErrValidation(map[string]string{field: "unreadable file"})
	}
	cleanupForm := release
	release = func() {
		_ = file.Close()
		cleanupForm()
	}
	return po.UploadFile{
		Name:        header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Body:        file,
	}, release, nil
}
