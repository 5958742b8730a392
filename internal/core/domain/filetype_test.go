package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectFileType(t *testing.T) {
	tests := []struct {
		filename string
		want     FileType
	}{
		{"report.pdf", FileTypePDF},
		{"REPORT.PDF", FileTypePDF},
		{"notes.docx", FileTypeDOCX},
		{"readme.txt", FileTypeTXT},
		{"guide.md", FileTypeMarkdown},
		{"/tmp/data/scores.csv", FileTypeCSV},
		{"Capabilities and Maturities.xlsx", FileTypeXLSX},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			got, err := DetectFileType(tt.filename)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDetectFileType_Unsupported(t *testing.T) {
	for _, name := range []string{"image.png", "archive.tar.gz", "noextension", ""} {
		_, err := DetectFileType(name)
		assert.ErrorIs(t, err, ErrUnsupportedType, name)
	}
}

func TestFileType_IsValid(t *testing.T) {
	for _, ft := range AllFileTypes() {
		assert.True(t, ft.IsValid(), ft)
		assert.NotEqual(t, "Unknown", ft.Description())
	}
	assert.False(t, FileType("doc").IsValid())
	assert.Equal(t, "Unknown", FileType("doc").Description())
}
