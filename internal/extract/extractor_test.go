package extract

import (
	"context"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectContentTypeExtensionFirst(t *testing.T) {
	cases := []struct {
		filename string
		declared string
		want     string
	}{
		{"report.pdf", "application/octet-stream", "application/pdf"},
		{"Report.PDF", "", "application/pdf"},
		{"notes.txt", "", "text/plain"},
		{"data.csv", "text/plain", "text/csv"},
		{"legacy.doc", "", "application/msword"},
		{"modern.docx", "", "application/vnd.openxmlformats-officedocument.wordprocessingml.document"},
		{"sheet.xlsx", "", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"},
		{"photo.jpeg", "", "image/jpeg"},
		{"scan.tif", "", "image/tiff"},
		// 未知扩展名回退到声明的类型
		{"blob.bin", "application/pdf", "application/pdf"},
		{"blob.bin", "", "application/octet-stream"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, DetectContentType(tc.filename, tc.declared), tc.filename)
	}
}

func TestIsSupported(t *testing.T) {
	assert.True(t, IsSupported("application/pdf"))
	assert.True(t, IsSupported("text/csv"))
	assert.True(t, IsSupported("image/png"))
	assert.False(t, IsSupported("application/zip"))
	assert.False(t, IsSupported(""))
}

func TestSupportedTypesSorted(t *testing.T) {
	types := SupportedTypes()
	assert.Len(t, types, 11)
	assert.True(t, sort.StringsAreSorted(types), "白名单输出顺序应当稳定")
	assert.Contains(t, types, "application/pdf")
	assert.Contains(t, types, "image/png")
}

func TestExtractPlainText(t *testing.T) {
	svc := NewService(nil)
	segments, label, err := svc.Extract(context.Background(), []byte("hello world"), "notes.txt", "")
	require.NoError(t, err)
	assert.Equal(t, "text", label)
	require.Len(t, segments, 1)
	assert.Equal(t, "hello world", segments[0].Text)
}

func TestExtractCSVRows(t *testing.T) {
	data := []byte("name,age\nalice,30\nbob,25\n")
	segments, err := extractCSV(data)
	require.NoError(t, err)
	require.Len(t, segments, 2)

	// 表头后的第一行行号为 2
	assert.Equal(t, "2", segments[0].RowNumber)
	assert.Equal(t, "name: alice\nage: 30\n", segments[0].Text)
	assert.Equal(t, "3", segments[1].RowNumber)
	assert.Equal(t, "name: bob\nage: 25\n", segments[1].Text)
}

func TestExtractCSVExtraColumns(t *testing.T) {
	data := []byte("name\nalice,extra\n")
	segments, err := extractCSV(data)
	require.NoError(t, err)
	require.Len(t, segments, 1)
	assert.Contains(t, segments[0].Text, "Column 2: extra")
}

func TestExtractCSVHeaderOnly(t *testing.T) {
	segments, err := extractCSV([]byte("name,age\n"))
	require.NoError(t, err)
	assert.Empty(t, segments)
}

func TestImagePlaceholder(t *testing.T) {
	svc := NewService(nil)
	segments, label, err := svc.Extract(context.Background(), []byte{0xFF, 0xD8}, "photo.jpg", "")
	require.NoError(t, err)
	assert.Equal(t, "image", label)
	require.Len(t, segments, 1)
	assert.Contains(t, segments[0].Text, "photo.jpg")
	assert.Contains(t, segments[0].Text, "image/jpeg")
}
