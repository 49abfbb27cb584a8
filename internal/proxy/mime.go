package proxy

import (
	"mime"
	"strings"
)

// builtinTypes maps extensions to the media types static files are served
// with when the site does not override them.
var builtinTypes = map[string]string{
	"css":   "text/css",
	"csv":   "text/csv",
	"gif":   "image/gif",
	"htm":   "text/html",
	"html":  "text/html",
	"ico":   "image/vnd.microsoft.icon",
	"jpeg":  "image/jpeg",
	"jpg":   "image/jpeg",
	"js":    "text/javascript",
	"json":  "application/json",
	"map":   "application/json",
	"md":    "text/markdown",
	"mjs":   "text/javascript",
	"mp4":   "video/mp4",
	"otf":   "font/otf",
	"pdf":   "application/pdf",
	"png":   "image/png",
	"svg":   "image/svg+xml",
	"ttf":   "font/ttf",
	"txt":   "text/plain",
	"wasm":  "application/wasm",
	"webm":  "video/webm",
	"webp":  "image/webp",
	"woff":  "font/woff",
	"woff2": "font/woff2",
	"xml":   "application/xml",
	"zip":   "application/zip",
}

// TypeTable resolves media types for static files.
type TypeTable struct {
	overrides map[string]string
}

// NewTypeTable returns a table consulting overrides before the built-in
// types and the platform registry. Override keys may carry a leading dot.
func NewTypeTable(overrides map[string]string) *TypeTable {
	t := &TypeTable{overrides: make(map[string]string, len(overrides))}
	for ext, typ := range overrides {
		t.overrides[normalizeExt(ext)] = typ
	}
	return t
}

// TypeOf returns the media type for ext without parameters, or "" when it
// is unknown.
func (t *TypeTable) TypeOf(ext string) string {
	ext = normalizeExt(ext)
	if ext == "" {
		return ""
	}
	if typ, ok := t.overrides[ext]; ok {
		return typ
	}
	if typ, ok := builtinTypes[ext]; ok {
		return typ
	}
	typ, _, err := mime.ParseMediaType(mime.TypeByExtension("." + ext))
	if err != nil {
		return ""
	}
	return typ
}

func normalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}
