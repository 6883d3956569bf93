package files

import (
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// allowedTypes maps every accepted extension to the MIME type stored for it.
var allowedTypes = map[string]string{
	// images
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
	".svg":  "image/svg+xml",
	".bmp":  "image/bmp",
	// documents
	".pdf":  "application/pdf",
	".doc":  "application/msword",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".xls":  "application/vnd.ms-excel",
	".xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	".ppt":  "application/vnd.ms-powerpoint",
	".pptx": "application/vnd.openxmlformats-officedocument.presentationml.presentation",
	".odt":  "application/vnd.oasis.opendocument.text",
	".ods":  "application/vnd.oasis.opendocument.spreadsheet",
	".odp":  "application/vnd.oasis.opendocument.presentation",
	".rtf":  "application/rtf",
	// archives
	".zip": "application/zip",
	".rar": "application/vnd.rar",
	".7z":  "application/x-7z-compressed",
	".tar": "application/x-tar",
	".gz":  "application/gzip",
	// audio
	".mp3":  "audio/mpeg",
	".wav":  "audio/wav",
	".ogg":  "audio/ogg",
	".m4a":  "audio/mp4",
	".flac": "audio/flac",
	// video
	".mp4":  "video/mp4",
	".webm": "video/webm",
	".mov":  "video/quicktime",
	".avi":  "video/x-msvideo",
	".mkv":  "video/x-matroska",
	// text
	".txt":  "text/plain",
	".csv":  "text/csv",
	".md":   "text/markdown",
	".json": "application/json",
	".xml":  "application/xml",
}

// Content sniffed as one of these is refused whatever the extension says.
var forbiddenTypes = []string{
	"application/x-executable",
	"application/x-elf",
	"application/x-msdownload",
	"application/vnd.microsoft.portable-executable",
	"application/x-mach-binary",
	"text/x-shellscript",
}

// DetectType decides whether a file may be stored and returns its extension
// and MIME type. Files without an extension are accepted when their content
// sniffs as an allowed type.
func DetectType(originalName string, head []byte) (ext, mimeType string, err error) {
	sniffed := mimetype.Detect(head)
	for _, f := range forbiddenTypes {
		if sniffed.Is(f) {
			return "", "", ErrFileTypeNotAllowed
		}
	}

	ext = strings.ToLower(filepath.Ext(originalName))
	if ext != "" {
		mt, ok := allowedTypes[ext]
		if !ok {
			return "", "", ErrFileTypeNotAllowed
		}
		return ext, mt, nil
	}

	for e, mt := range allowedTypes {
		if sniffed.Is(mt) {
			return canonicalExt(e, sniffed.Extension()), mt, nil
		}
	}
	return "", "", ErrFileTypeNotAllowed
}

// canonicalExt prefers the extension mimetype reports for the content.
func canonicalExt(listed, sniffed string) string {
	if _, ok := allowedTypes[sniffed]; ok {
		return sniffed
	}
	return listed
}

// IsAllowedExtension reports whether ext (with the dot) is accepted.
func IsAllowedExtension(ext string) bool {
	_, ok := allowedTypes[strings.ToLower(ext)]
	return ok
}
