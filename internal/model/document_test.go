package model

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestTruncateIfNeeded(t *testing.T) {
	assert.Equal(t, "short", TruncateIfNeeded("short", 10))

	long := strings.Repeat("e", 600)
	truncated := TruncateIfNeeded(long, 500)
	assert.Len(t, truncated, 500)
	assert.True(t, strings.HasSuffix(truncated, "..."))
}

func TestTruncateIfNeededMultibyte(t *testing.T) {
	// 错误信息与摘要多为中文，截断不能切开多字节字符
	cjk := strings.Repeat("提取文本失败", 30)
	truncated := TruncateIfNeeded(cjk, 100)

	assert.True(t, utf8.ValidString(truncated))
	assert.Len(t, []rune(truncated), 100)
	assert.True(t, strings.HasSuffix(truncated, "..."))

	// 恰好在上限内的中文文本保持原样
	exact := strings.Repeat("文", 100)
	assert.Equal(t, exact, TruncateIfNeeded(exact, 100))
}

func TestMarkCompletedClearsError(t *testing.T) {
	doc := &DocumentMetadata{Status: StatusProcessing, ErrorMessage: "earlier failure"}
	doc.MarkCompleted(12, "a summary")

	assert.Equal(t, StatusCompleted, doc.Status)
	assert.Equal(t, 12, doc.ChunkCount)
	assert.Equal(t, "a summary", doc.Summary)
	assert.Empty(t, doc.ErrorMessage)
	assert.NotNil(t, doc.ProcessedAt)
}

func TestMarkCompletedTruncatesSummary(t *testing.T) {
	doc := &DocumentMetadata{}
	doc.MarkCompleted(1, strings.Repeat("s", 1200))
	assert.Len(t, doc.Summary, 1000)
	assert.True(t, strings.HasSuffix(doc.Summary, "..."))
}

func TestMarkErrorTruncatesMessage(t *testing.T) {
	doc := &DocumentMetadata{Status: StatusProcessing, ChunkCount: 5}
	doc.MarkError(strings.Repeat("x", 600))

	assert.Equal(t, StatusError, doc.Status)
	assert.Zero(t, doc.ChunkCount)
	assert.Len(t, doc.ErrorMessage, 500)
	assert.True(t, strings.HasSuffix(doc.ErrorMessage, "..."))
	assert.NotNil(t, doc.ProcessedAt)
}

func TestMarkErrorMultibyteMessage(t *testing.T) {
	doc := &DocumentMetadata{Status: StatusProcessing}
	doc.MarkError(strings.Repeat("写入向量索引失败", 100))

	assert.Equal(t, StatusError, doc.Status)
	assert.True(t, utf8.ValidString(doc.ErrorMessage), "落库的错误信息必须是合法 UTF-8")
	assert.LessOrEqual(t, len([]rune(doc.ErrorMessage)), 500)
}

func TestDocID(t *testing.T) {
	doc := &DocumentMetadata{ID: 42}
	assert.Equal(t, "42", doc.DocID())
}
