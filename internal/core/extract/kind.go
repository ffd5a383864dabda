package extract

import (
	"path/filepath"
	"strings"
)

// FileKind tags a staged file with its extraction strategy. The kind is
// resolved once, at staging time, so downstream code never re-checks
// extensions.
type FileKind int

const (
	KindUnknown FileKind = iota
	KindPDF
	KindWordDoc
	KindImage
)

func (k FileKind) String() string {
	switch k {
	case KindPDF:
		return "pdf"
	case KindWordDoc:
		return "worddoc"
	case KindImage:
		return "image"
	default:
		return "unknown"
	}
}

// KindForName resolves the file kind from a filename's extension.
func KindForName(name string) FileKind {
	switch strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".") {
	case "pdf":
		return KindPDF
	case "docx", "doc":
		return KindWordDoc
	case "png", "jpg", "jpeg", "tiff", "bmp", "gif":
		return KindImage
	default:
		return KindUnknown
	}
}
