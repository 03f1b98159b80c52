package constants

import "strings"

// MaxUploadBytes is the per-file upper bound enforced at the upload boundary
// before any extraction call.
const MaxUploadBytes = 16 << 20 // 16 MB

// FileFormat classifies an upload for provider routing.
type FileFormat string

const (
	PDF    FileFormat = "PDF"
	IMAGE  FileFormat = "IMAGE"
	OFFICE FileFormat = "OFFICE"
	TEXT   FileFormat = "TEXT"
)

// AllowedExtensions holds the accepted file extensions for document uploads.
var AllowedExtensions = map[string]FileFormat{
	"pdf":  PDF,
	"jpg":  IMAGE,
	"jpeg": IMAGE,
	"png":  IMAGE,
	"doc":  OFFICE,
	"docx": OFFICE,
	"xls":  OFFICE,
	"xlsx": OFFICE,
	"txt":  TEXT,
}

// AllowedMediaTypes maps accepted MIME types to their format class.
var AllowedMediaTypes = map[string]FileFormat{
	"application/pdf": PDF,
	"image/jpeg":      IMAGE,
	"image/png":       IMAGE,
	"application/msword": OFFICE,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": OFFICE,
	"application/vnd.ms-excel": OFFICE,
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": OFFICE,
	"text/plain": TEXT,
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// MapExtToFormat returns the format class for a file extension, or "" when
// the extension is not accepted.
func MapExtToFormat(ext string) FileFormat {
	return AllowedExtensions[NormalizeExt(ext)]
}

// MediaTypeForExt returns the canonical MIME type for an accepted extension,
// or "" when the extension is not accepted.
func MediaTypeForExt(ext string) string {
	switch NormalizeExt(ext) {
	case "pdf":
		return "application/pdf"
	case "jpg", "jpeg":
		return "image/jpeg"
	case "png":
		return "image/png"
	case "doc":
		return "application/msword"
	case "docx":
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case "xls":
		return "application/vnd.ms-excel"
	case "xlsx":
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case "txt":
		return "text/plain"
	default:
		return ""
	}
}
