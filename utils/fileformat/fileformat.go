package fileformat

import (
	"path"
	"strings"

	"github.com/google/uuid"
)

// UniqueFormat returns a collision-free object key for an uploaded file,
// preserving the original extension.
func UniqueFormat(filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	return uuid.NewString() + ext
}
