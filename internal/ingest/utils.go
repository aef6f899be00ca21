package ingest

import (
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/finreport-extractor/constants"
)

// AllowedExt checks if a file extension is in the default document set.
func AllowedExt(ext string) bool {
	_, ok := constants.AllowedExtensions[constants.NormalizeExt(ext)]
	return ok
}

// IsHidden checks if a file or directory is hidden (starts with '.').
func IsHidden(path string) bool {
	base := filepath.Base(path)
	return strings.HasPrefix(base, ".")
}

// SplitList splits a comma-separated input list, dropping blanks.
func SplitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func normalize(ext string) string {
	return constants.NormalizeExt(strings.TrimSpace(ext))
}

func extSet(include []string) map[string]struct{} {
	if len(include) == 0 {
		return constants.AllowedExtensions
	}
	exts := map[string]struct{}{}
	for _, e := range include {
		if e = normalize(e); e != "" {
			exts[e] = struct{}{}
		}
	}
	return exts
}
