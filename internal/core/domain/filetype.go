package domain

import (
	"fmt"
	"path/filepath"
	"strings"
)

// FileType identifies an ingestible file format.
type FileType string

// Supported file types.
const (
	// FileTypePDF is a Portable Document Format file.
	FileTypePDF FileType = "pdf"

	// FileTypeDOCX is an Office Open XML word-processing document.
	FileTypeDOCX FileType = "docx"

	// FileTypeTXT is plain text.
	FileTypeTXT FileType = "txt"

	// FileTypeMarkdown is markdown, extracted as plain text.
	FileTypeMarkdown FileType = "md"

	// FileTypeCSV is delimited tabular data.
	FileTypeCSV FileType = "csv"

	// FileTypeXLSX is an Office Open XML spreadsheet workbook.
	FileTypeXLSX FileType = "xlsx"
)

// AllFileTypes returns every supported file type.
func AllFileTypes() []FileType {
	return []FileType{
		FileTypePDF,
		FileTypeDOCX,
		FileTypeTXT,
		FileTypeMarkdown,
		FileTypeCSV,
		FileTypeXLSX,
	}
}

// IsValid returns true if the file type is recognised.
func (t FileType) IsValid() bool {
	switch t {
	case FileTypePDF, FileTypeDOCX, FileTypeTXT, FileTypeMarkdown, FileTypeCSV, FileTypeXLSX:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (t FileType) String() string {
	return string(t)
}

// Description returns a human-readable description of the file type.
func (t FileType) Description() string {
	switch t {
	case FileTypePDF:
		return "PDF document"
	case FileTypeDOCX:
		return "Word document"
	case FileTypeTXT:
		return "Plain text"
	case FileTypeMarkdown:
		return "Markdown"
	case FileTypeCSV:
		return "Delimited tabular data"
	case FileTypeXLSX:
		return "Spreadsheet workbook"
	default:
		return "Unknown"
	}
}

// DetectFileType infers the file type from a filename's extension.
func DetectFileType(filename string) (FileType, error) {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
	t := FileType(ext)
	if !t.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedType, filename)
	}
	return t, nil
}
