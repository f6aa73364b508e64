package service

import (
	"path/filepath"
	"strings"
)

// ContentTypeByExt maps a filename's extension to the MIME type used when
// serving it. Pure function; unknown extensions fall back to octet-stream.
func ContentTypeByExt(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return "application/pdf"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	default:
		return "application/octet-stream"
	}
}
