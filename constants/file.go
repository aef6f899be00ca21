package constants

import "strings"

const (
	PDF  = "PDF"
	TEXT = "TEXT"
)

// AllowedExtensions holds the document extensions picked up by directory discovery.
var AllowedExtensions = map[string]struct{}{
	"pdf": {},
	"txt": {},
	"md":  {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// MapExtToFormat maps a file extension to the acquisition format, "" if unsupported.
func MapExtToFormat(ext string) string {
	switch NormalizeExt(ext) {
	case "pdf":
		return PDF
	case "txt", "md":
		return TEXT
	default:
		return ""
	}
}
