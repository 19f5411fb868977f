package model

import (
	"strconv"
	"time"
)

// 文档处理状态。COMPLETED 与 ERROR 为终态，失败的文档不会被自动重试。
const (
	StatusProcessing = "PROCESSING"
	StatusCompleted  = "COMPLETED"
	StatusError      = "ERROR"
)

// DocumentMetadata 对应于数据库中的 document_metadata 表。
// 它是文档身份与状态的唯一事实来源，生命周期由摄取管道独占管理。
type DocumentMetadata struct {
	ID           uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	Filename     string     `gorm:"type:varchar(255);not null" json:"filename"`
	ContentType  string     `gorm:"type:varchar(100);not null" json:"contentType"`
	FileSize     int64      `gorm:"not null" json:"fileSize"`
	Status       string     `gorm:"type:varchar(50);not null;default:PROCESSING" json:"status"`
	ChunkCount   int        `gorm:"default:0" json:"chunkCount"`
	Summary      string     `gorm:"type:varchar(1000)" json:"summary"`
	ErrorMessage string     `gorm:"type:varchar(500)" json:"errorMessage"`
	UploadedAt   time.Time  `gorm:"autoCreateTime" json:"uploadedAt"`
	ProcessedAt  *time.Time `gorm:"default:null" json:"processedAt"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (DocumentMetadata) TableName() string {
	return "document_metadata"
}

// DocID 返回分块元数据中使用的稳定文档标识。
func (d *DocumentMetadata) DocID() string {
	return strconv.FormatUint(uint64(d.ID), 10)
}

// MarkCompleted 将文档置为 COMPLETED 终态，记录分块数与摘要并清空错误信息。
func (d *DocumentMetadata) MarkCompleted(chunkCount int, summary string) {
	now := time.Now()
	d.Status = StatusCompleted
	d.ProcessedAt = &now
	d.ChunkCount = chunkCount
	d.Summary = TruncateIfNeeded(summary, 1000)
	d.ErrorMessage = ""
}

// MarkError 将文档置为 ERROR 终态并记录截断后的错误信息。
func (d *DocumentMetadata) MarkError(errMsg string) {
	now := time.Now()
	d.Status = StatusError
	d.ProcessedAt = &now
	d.ChunkCount = 0
	d.ErrorMessage = TruncateIfNeeded(errMsg, 500)
}

// TruncateIfNeeded 将字符串安全截断到数据库列的长度上限。
// 按 rune 截断，多字节字符不会被从中间切开。
func TruncateIfNeeded(text string, maxLength int) string {
	runes := []rune(text)
	if len(runes) <= maxLength {
		return text
	}
	return string(runes[:maxLength-3]) + "..."
}
