package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContentTypeByExt(t *testing.T) {
	tests := []struct {
		filename string
		want     string
	}{
		{"a.pdf", "application/pdf"},
		{"a.PDF", "application/pdf"},
		{"photo.jpg", "image/jpeg"},
		{"photo.JPEG", "image/jpeg"},
		{"scan.png", "image/png"},
		{"a.unknown", "application/octet-stream"},
		{"noextension", "application/octet-stream"},
		{"archive.tar.gz", "application/octet-stream"},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			assert.Equal(t, tt.want, ContentTypeByExt(tt.filename))
		})
	}
}
