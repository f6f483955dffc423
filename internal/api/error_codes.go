// internal/api/error_codes.go
package api

// API错误代码常量
const (
	// 通用错误
	ErrorBadRequest    = "BAD_REQUEST"
	ErrorNotFound      = "NOT_FOUND"
	ErrorInternalError = "INTERNAL_ERROR"
	ErrorConflict      = "CONFLICT"

	// 书籍相关错误
	ErrorBookNotFound     = "BOOK_NOT_FOUND"
	ErrorBookCreateFailed = "BOOK_CREATE_FAILED"
	ErrorBookInvalid      = "BOOK_INVALID"

	// 章节相关错误
	ErrorChapterNotFound = "CHAPTER_NOT_FOUND"
	ErrorChapterInvalid  = "CHAPTER_INVALID"

	// 引用相关错误
	ErrorCitationNotFound = "CITATION_NOT_FOUND"
	ErrorCitationInvalid  = "CITATION_INVALID"

	// 阅读器相关错误
	ErrorPaginationFailed = "PAGINATION_FAILED"
	ErrorSpreadInvalid    = "SPREAD_INVALID"
	ErrorHighlightFailed  = "HIGHLIGHT_FAILED"

	// 音频服务相关错误
	ErrorAudioServiceUnavailable = "AUDIO_SERVICE_UNAVAILABLE"
	ErrorAudioGenerationFailed   = "AUDIO_GENERATION_FAILED"
	ErrorAlignmentFailed         = "ALIGNMENT_FAILED"
	ErrorTimestampsInvalid       = "TIMESTAMPS_INVALID"

	// 文件相关错误
	ErrorFileUploadFailed = "FILE_UPLOAD_FAILED"
	ErrorFileInvalid      = "FILE_INVALID"
	ErrorFileNotFound     = "FILE_NOT_FOUND"

	// 导入相关错误
	ErrorImportFailed       = "IMPORT_FAILED"
	ErrorImportContentEmpty = "IMPORT_CONTENT_EMPTY"

	// 导出相关错误
	ErrorExportFailed             = "EXPORT_FAILED"
	ErrorExportServiceUnavailable = "EXPORT_SERVICE_UNAVAILABLE"
	ErrorExportFormatInvalid      = "EXPORT_FORMAT_INVALID"
	ErrorExportDataEmpty          = "EXPORT_DATA_EMPTY"
	ErrorExportTimeout            = "EXPORT_TIMEOUT"
)
